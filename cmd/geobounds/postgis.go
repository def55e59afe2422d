package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kass/geo-bounds/pkg/postgis"
)

func (a *app) postgisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postgis",
		Short: "Load and query places in PostGIS",
		Long: `Load places into a PostGIS table and run the same bounding-box and radius
queries as the in-memory index. Connection settings come from the postgis
section of the config file or GEOBOUNDS_POSTGIS_* variables.`,
	}
	cmd.AddCommand(a.postgisLoadCmd(), a.postgisQueryCmd(), a.postgisStatsCmd())
	return cmd
}

func (a *app) openStore(ctx context.Context) (*postgis.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := postgis.Open(ctx, a.cfg.PostGIS)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("connected to postgis",
		zap.String("host", a.cfg.PostGIS.Host),
		zap.Int("port", a.cfg.PostGIS.Port),
		zap.String("database", a.cfg.PostGIS.Database),
	)
	return store, nil
}

func (a *app) postgisLoadCmd() *cobra.Command {
	var source sourceFlags

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Recreate the places table and bulk insert places",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			places, from, err := source.places()
			if err != nil {
				return err
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			p := a.printer(cmd)
			if err := store.InitSchema(ctx); err != nil {
				return err
			}
			p.success("Schema initialized")

			start := time.Now()
			inserted, err := store.BulkInsertPlaces(ctx, places)
			if err != nil {
				return err
			}
			insertTime := time.Since(start)
			p.success("Inserted %d places from %s in %s", inserted, from, insertTime.Round(time.Millisecond))

			start = time.Now()
			if err := store.CreateSpatialIndex(ctx); err != nil {
				return err
			}
			p.success("Spatial index created in %s", time.Since(start).Round(time.Millisecond))

			a.logger.Info("postgis load complete",
				zap.String("source", from),
				zap.Int("inserted", inserted),
				zap.Duration("insert_duration", insertTime),
			)
			return nil
		},
	}

	source.bind(cmd)
	return cmd
}

func (a *app) postgisQueryCmd() *cobra.Command {
	var area areaFlags
	var limit int

	cmd := &cobra.Command{
		Use:     "query",
		Short:   "Find places within a radius in PostGIS",
		Example: `  geobounds postgis query --city london -r 300`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			location, err := area.location()
			if err != nil {
				return err
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			start := time.Now()
			places, err := store.QueryRadius(ctx, location)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			p := a.printer(cmd)
			p.title("PostGIS places within " + describe(location))
			a.printPlaces(p, places, location.Lat, location.Lng, limit)
			p.dim("%d places in %s", len(places), elapsed)
			return nil
		},
	}

	area.bind(cmd, 50)
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum places to print (0 for all)")
	return cmd
}

func (a *app) postgisStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show table and index sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(ctx)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			p := a.printer(cmd)
			p.title(fmt.Sprintf("PostGIS %s@%s", a.cfg.PostGIS.Database, a.cfg.PostGIS.Host))
			for _, k := range keys {
				p.stat(k, stats[k])
			}
			return nil
		},
	}
}
