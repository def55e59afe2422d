package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kass/geo-bounds/pkg/cities"
	"github.com/kass/geo-bounds/pkg/geo"
	"github.com/kass/geo-bounds/pkg/models"
)

type boundsOutput struct {
	Center     models.GeoLocation           `json:"center" yaml:"center"`
	Bounds     models.BoundingCoordinates   `json:"bounds" yaml:"bounds"`
	Branch     string                       `json:"branch" yaml:"branch"`
	Normalized []models.BoundingCoordinates `json:"normalized" yaml:"normalized"`
}

func (a *app) boundsCmd() *cobra.Command {
	var area areaFlags
	var output string

	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Compute the bounding box of a search area",
		Example: `  geobounds bounds --lat 40.7128 --lng -74.006 --radius 10
  geobounds bounds --city "San Francisco" -r 50 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := area.location()
			if err != nil {
				return err
			}

			bounds, branch := geo.Calculate(location)
			out := boundsOutput{
				Center:     location,
				Bounds:     bounds,
				Branch:     branch.String(),
				Normalized: bounds.Normalize(),
			}
			if ok, err := encode(cmd.OutOrStdout(), output, out); ok || err != nil {
				return err
			}

			p := a.printer(cmd)
			p.title("Bounding box for " + describe(location))
			p.stat("branch", out.Branch)
			p.stat("latitude", fmt.Sprintf("[%.6f, %.6f]", bounds.MinLat, bounds.MaxLat))
			p.stat("longitude", fmt.Sprintf("[%.6f, %.6f]", bounds.MinLng, bounds.MaxLng))
			if len(out.Normalized) > 1 {
				p.info("box crosses the antimeridian; split into:")
				for _, part := range out.Normalized {
					p.dim("    %s", part)
				}
			}
			return nil
		},
	}

	area.bind(cmd, 10)
	bindOutput(cmd, &output)
	return cmd
}

type withinResult struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Lat    float64 `json:"lat" yaml:"lat"`
	Lng    float64 `json:"lng" yaml:"lng"`
	Within bool    `json:"within" yaml:"within"`
}

func (a *app) withinCmd() *cobra.Command {
	var area areaFlags
	var pointLat, pointLng float64
	var pointCity, output string

	cmd := &cobra.Command{
		Use:   "within",
		Short: "Test points against the bounding box of a search area",
		Long: `Test a point (--point-lat/--point-lng or --point-city) against the bounding box
of a search area. Without a point, every reference city is tested.`,
		Example: `  geobounds within --lat 40.7128 --lng -74.006 -r 10 --point-lat 40.713 --point-lng -74.007
  geobounds within --city london -r 300`,
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := area.location()
			if err != nil {
				return err
			}

			checker := geo.NewChecker(a.logger)

			var candidates []withinResult
			switch {
			case pointCity != "":
				c, ok := cities.Lookup(pointCity)
				if !ok {
					return fmt.Errorf("unknown city %q", pointCity)
				}
				candidates = append(candidates, withinResult{Name: c.Name, Lat: c.Lat, Lng: c.Lng})
			case cmd.Flags().Changed("point-lat"):
				candidates = append(candidates, withinResult{Lat: pointLat, Lng: pointLng})
			default:
				for _, c := range cities.All() {
					candidates = append(candidates, withinResult{Name: c.Name, Lat: c.Lat, Lng: c.Lng})
				}
			}

			for i, c := range candidates {
				point, err := geo.NewPoint(c.Lat, c.Lng)
				if err != nil {
					return fmt.Errorf("point: %w", err)
				}
				candidates[i].Within = checker.IsWithin(&point, &location)
			}

			if ok, err := encode(cmd.OutOrStdout(), output, candidates); ok || err != nil {
				return err
			}

			p := a.printer(cmd)
			p.title("Containment in the box of " + describe(location))
			p.dim("  %s", geo.CalculateBoundingCoordinates(location))
			for _, c := range candidates {
				label := c.Name
				if label == "" {
					label = fmt.Sprintf("(%.6f, %.6f)", c.Lat, c.Lng)
				}
				if c.Within {
					p.success("%s is inside", label)
				} else {
					p.failure("%s is outside", label)
				}
			}
			return nil
		},
	}

	area.bind(cmd, 10)
	cmd.Flags().Float64Var(&pointLat, "point-lat", 0, "Latitude of the point to test")
	cmd.Flags().Float64Var(&pointLng, "point-lng", 0, "Longitude of the point to test")
	cmd.Flags().StringVar(&pointCity, "point-city", "", "Reference city to test")
	cmd.MarkFlagsRequiredTogether("point-lat", "point-lng")
	cmd.MarkFlagsMutuallyExclusive("point-city", "point-lat")
	bindOutput(cmd, &output)
	return cmd
}

func (a *app) citiesCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "cities",
		Short: "List the reference cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := cities.All()
			if ok, err := encode(cmd.OutOrStdout(), output, all); ok || err != nil {
				return err
			}

			p := a.printer(cmd)
			p.title(fmt.Sprintf("%d reference cities", len(all)))
			for _, c := range all {
				p.stat(fmt.Sprintf("%-14s", c.Name), fmt.Sprintf("%11.6f %12.6f", c.Lat, c.Lng))
			}
			return nil
		},
	}

	bindOutput(cmd, &output)
	return cmd
}
