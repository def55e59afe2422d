package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kass/geo-bounds/internal/httpapi"
	"github.com/kass/geo-bounds/pkg/rtree"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bounds and place query HTTP API",
		Long: `Serve the HTTP API. Place queries use the saved index; when the index file is
missing the server still answers /v1/bounds and /v1/within.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			var index *rtree.GeoIndex
			if _, err := os.Stat(a.cfg.Index.File); err == nil {
				index, err = a.loadIndex()
				if err != nil {
					return err
				}
				a.logger.Info("index loaded", zap.String("file", a.cfg.Index.File), zap.Int64("places", index.Count()))
			} else {
				a.logger.Warn("no index file, place endpoints disabled", zap.String("file", a.cfg.Index.File))
			}

			srv := httpapi.NewServer(httpapi.Config{
				Addr:         a.cfg.Server.Addr,
				Mode:         a.cfg.Server.Mode,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
				Index:        index,
				Logger:       a.logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
