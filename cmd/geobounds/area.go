package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kass/geo-bounds/pkg/cities"
	"github.com/kass/geo-bounds/pkg/geo"
	"github.com/kass/geo-bounds/pkg/models"
)

// areaFlags describes a search area given either as --city or as --lat/--lng
type areaFlags struct {
	city   string
	lat    float64
	lng    float64
	radius float64
}

func (f *areaFlags) bind(cmd *cobra.Command, defaultRadius float64) {
	cmd.Flags().StringVar(&f.city, "city", "", "Reference city for the center (see 'geobounds cities')")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Center latitude in degrees")
	cmd.Flags().Float64Var(&f.lng, "lng", 0, "Center longitude in degrees")
	cmd.Flags().Float64VarP(&f.radius, "radius", "r", defaultRadius, "Radius in km")
	cmd.MarkFlagsMutuallyExclusive("city", "lat")
	cmd.MarkFlagsMutuallyExclusive("city", "lng")
	cmd.MarkFlagsRequiredTogether("lat", "lng")
	cmd.MarkFlagsOneRequired("city", "lat")
}

// location resolves the flags into a validated search area
func (f *areaFlags) location() (models.GeoLocation, error) {
	var location models.GeoLocation

	if f.city != "" {
		c, ok := cities.Lookup(f.city)
		if !ok {
			return location, fmt.Errorf("unknown city %q", f.city)
		}
		location = c.Area(f.radius)
	} else {
		center, err := geo.NewPoint(f.lat, f.lng)
		if err != nil {
			return location, err
		}
		location = models.GeoLocation{Lat: center.Latitude(), Lng: center.Longitude(), RadiusKm: f.radius}
	}

	if err := location.Validate(); err != nil {
		return location, err
	}
	return location, nil
}

func describe(location models.GeoLocation) string {
	name := location.Name
	if name == "" {
		name = "center"
	}
	return fmt.Sprintf("%s (%.6f, %.6f) r=%g km", name, location.Lat, location.Lng, location.RadiusKm)
}

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func bindOutput(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", outputText, "Output format: text, json or yaml")
}

// encode writes v as JSON or YAML. It reports false for text output.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch strings.ToLower(format) {
	case outputText, "":
		return false, nil
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, fmt.Errorf("unknown output format %q", format)
}
