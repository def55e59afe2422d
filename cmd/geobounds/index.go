package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kass/geo-bounds/internal/bench"
	"github.com/kass/geo-bounds/pkg/cities"
	"github.com/kass/geo-bounds/pkg/geo"
	"github.com/kass/geo-bounds/pkg/importer"
	"github.com/kass/geo-bounds/pkg/models"
)

// sourceFlags selects where places come from: a JSON/GeoJSON file, the
// reference cities, or randomly generated points.
type sourceFlags struct {
	input  string
	cities bool
	points int
	seed   int64
}

func (f *sourceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "JSON array or GeoJSON FeatureCollection of places")
	cmd.Flags().BoolVar(&f.cities, "cities", false, "Use the reference cities")
	cmd.Flags().IntVarP(&f.points, "points", "p", 1000000, "Number of random places to generate")
	cmd.Flags().Int64Var(&f.seed, "seed", time.Now().UnixNano(), "Seed for random places")
	cmd.MarkFlagsMutuallyExclusive("input", "cities", "points")
}

func (f *sourceFlags) places() ([]*models.Place, string, error) {
	switch {
	case f.input != "":
		places, err := importer.ReadFile(f.input)
		return places, f.input, err
	case f.cities:
		all := cities.All()
		places := make([]*models.Place, len(all))
		for i, c := range all {
			places[i] = c.Place()
		}
		return places, "reference cities", nil
	}
	return bench.RandomPlaces(f.points, f.seed), "random generator", nil
}

func (a *app) loadCmd() *cobra.Command {
	var source sourceFlags

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Build the R-Tree index and save it to the index file",
		Example: `  geobounds load --points 100000
  geobounds load --input places.geojson -f places.gob
  geobounds load --cities`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			places, from, err := source.places()
			if err != nil {
				return err
			}

			index := a.newIndex()
			start := time.Now()
			if err := index.IndexPlaces(places); err != nil {
				return fmt.Errorf("failed to index places: %w", err)
			}
			loadTime := time.Since(start)

			if err := index.SaveToFile(a.cfg.Index.File); err != nil {
				return fmt.Errorf("failed to save index: %w", err)
			}

			a.logger.Info("index built",
				zap.String("source", from),
				zap.Int64("places", index.Count()),
				zap.Int("partitions", index.Partitions()),
				zap.Duration("duration", loadTime),
				zap.String("file", a.cfg.Index.File),
			)

			p := a.printer(cmd)
			p.success("Loaded %d places from %s in %s", index.Count(), from, loadTime.Round(time.Millisecond))
			if secs := loadTime.Seconds(); secs > 0 {
				p.stat("places per second", fmt.Sprintf("%.0f", float64(index.Count())/secs))
			}
			p.stat("partitions", index.Partitions())
			p.success("Index saved to %s", a.cfg.Index.File)
			return nil
		},
	}

	source.bind(cmd)
	return cmd
}

func (a *app) queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the saved index",
	}
	cmd.AddCommand(a.queryRadiusCmd(), a.queryBoxCmd(), a.queryNearestCmd())
	return cmd
}

func (a *app) queryRadiusCmd() *cobra.Command {
	var area areaFlags
	var limit int

	cmd := &cobra.Command{
		Use:     "radius",
		Short:   "Find places within a radius, pre-filtered by the bounding box",
		Example: `  geobounds query radius --city london -r 300`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := area.location()
			if err != nil {
				return err
			}
			index, err := a.loadIndex()
			if err != nil {
				return err
			}

			start := time.Now()
			places, err := index.QueryRadius(location)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			p := a.printer(cmd)
			p.title("Places within " + describe(location))
			a.printPlaces(p, places, location.Lat, location.Lng, limit)
			p.dim("%d of %d places in %s", len(places), index.Count(), elapsed)
			return nil
		},
	}

	area.bind(cmd, 50)
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum places to print (0 for all)")
	return cmd
}

func (a *app) queryBoxCmd() *cobra.Command {
	var box models.BoundingCoordinates
	var limit int

	cmd := &cobra.Command{
		Use:     "box",
		Short:   "Find places inside a bounding box",
		Example: `  geobounds query box --min-lat 32.5 --max-lat 42 --min-lng -124.5 --max-lng -114`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if box.MinLat > box.MaxLat || box.MinLng > box.MaxLng {
				return fmt.Errorf("%w: box %s has min above max", models.ErrInvalidLocation, box)
			}
			index, err := a.loadIndex()
			if err != nil {
				return err
			}

			places, err := index.QueryBox(box)
			if err != nil {
				return err
			}

			p := a.printer(cmd)
			p.title("Places inside " + box.String())
			a.printPlaces(p, places, (box.MinLat+box.MaxLat)/2, (box.MinLng+box.MaxLng)/2, limit)
			p.dim("%d of %d places", len(places), index.Count())
			return nil
		},
	}

	cmd.Flags().Float64Var(&box.MinLat, "min-lat", -90, "Minimum latitude")
	cmd.Flags().Float64Var(&box.MaxLat, "max-lat", 90, "Maximum latitude")
	cmd.Flags().Float64Var(&box.MinLng, "min-lng", -180, "Minimum longitude (may be below -180 to cross the antimeridian)")
	cmd.Flags().Float64Var(&box.MaxLng, "max-lng", 180, "Maximum longitude (may exceed 180 to cross the antimeridian)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum places to print (0 for all)")
	return cmd
}

func (a *app) queryNearestCmd() *cobra.Command {
	var area areaFlags
	var k int

	cmd := &cobra.Command{
		Use:     "nearest",
		Short:   "Find the k places closest to a point",
		Example: `  geobounds query nearest --lat 39.7392 --lng -104.9903 -k 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := area.location()
			if err != nil {
				return err
			}
			index, err := a.loadIndex()
			if err != nil {
				return err
			}

			places := index.NearestNeighbors(models.Location{Lat: location.Lat, Lon: location.Lng}, k)

			p := a.printer(cmd)
			p.title(fmt.Sprintf("%d nearest places to (%.6f, %.6f)", k, location.Lat, location.Lng))
			a.printPlaces(p, places, location.Lat, location.Lng, 0)
			return nil
		},
	}

	area.bind(cmd, 0)
	cmd.Flags().IntVarP(&k, "neighbors", "k", 10, "Number of neighbors")
	return cmd
}

// printPlaces prints places closest first
func (a *app) printPlaces(p *printer, places []*models.Place, lat, lng float64, limit int) {
	distances := make(map[*models.Place]float64, len(places))
	for _, place := range places {
		distances[place] = geo.Distance(lat, lng, place.Location.Lat, place.Location.Lon)
	}
	sort.SliceStable(places, func(i, j int) bool { return distances[places[i]] < distances[places[j]] })

	for i, place := range places {
		if limit > 0 && i >= limit {
			p.dim("  ... %d more", len(places)-limit)
			break
		}
		label := place.ID
		if place.Name != "" {
			label = fmt.Sprintf("%s (%s)", place.Name, place.ID)
		}
		p.stat(label, fmt.Sprintf("(%.4f, %.4f) %.1f km away", place.Location.Lat, place.Location.Lon, distances[place]))
	}
}
