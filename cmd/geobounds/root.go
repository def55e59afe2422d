package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kass/geo-bounds/internal/config"
	"github.com/kass/geo-bounds/internal/logging"
	"github.com/kass/geo-bounds/pkg/rtree"
)

// app carries the state shared by every subcommand
type app struct {
	configFile string
	indexFile  string
	logLevel   string
	logFormat  string
	noColor    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "geobounds",
		Short: "Circle-to-bounding-box calculations and radius queries over places",
		Long: `geobounds turns a center point and radius into a latitude/longitude bounding box,
tests points against it, and uses the box to pre-filter radius queries over an
R-Tree index or a PostGIS table.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "YAML config file")
	flags.StringVarP(&a.indexFile, "file", "f", "", "Index file path (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: console or json (overrides config)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable coloured output")

	root.AddCommand(
		a.boundsCmd(),
		a.withinCmd(),
		a.citiesCmd(),
		a.loadCmd(),
		a.queryCmd(),
		a.benchCmd(),
		a.serveCmd(),
		a.postgisCmd(),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.indexFile != "" {
		cfg.Index.File = a.indexFile
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) printer(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), !a.noColor)
}

func (a *app) newIndex() *rtree.GeoIndex {
	return rtree.NewGeoIndexWithPartitions(a.cfg.Index.Partitions)
}

// loadIndex reads the configured index file
func (a *app) loadIndex() (*rtree.GeoIndex, error) {
	path := a.cfg.Index.File
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("index file %s: %w (run 'geobounds load' first)", path, err)
	}

	index := a.newIndex()
	if err := index.LoadFromFile(path); err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	a.logger.Debug("index loaded", zap.String("file", path), zap.Int64("places", index.Count()))
	return index, nil
}
