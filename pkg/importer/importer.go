// Package importer reads places from JSON documents: either a plain array of
// {id, name, lat, lng|lon} objects or a GeoJSON FeatureCollection of Points.
package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/kass/geo-bounds/pkg/geo"
	"github.com/kass/geo-bounds/pkg/models"
)

var (
	// ErrInvalidDocument is returned for input that is not JSON or has an unknown shape
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidPlace is returned for an element without usable coordinates
	ErrInvalidPlace = errors.New("invalid place")
)

// ReadFile imports places from a file
func ReadFile(path string) ([]*models.Place, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Read imports places from r
func Read(r io.Reader) ([]*models.Place, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return Parse(data)
}

// Parse imports places from a JSON document. Coordinates are checked with
// geo.NewPoint, so a bad element fails the whole import with its index.
func Parse(data []byte) ([]*models.Place, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidDocument)
	}

	doc := gjson.ParseBytes(data)
	switch {
	case doc.IsArray():
		return parseArray(doc)
	case doc.Get("type").String() == "FeatureCollection":
		return parseFeatureCollection(doc)
	}
	return nil, fmt.Errorf("%w: expected an array or a FeatureCollection", ErrInvalidDocument)
}

func parseArray(doc gjson.Result) ([]*models.Place, error) {
	elems := doc.Array()
	places := make([]*models.Place, 0, len(elems))

	for i, elem := range elems {
		lng := elem.Get("lng")
		if !lng.Exists() {
			lng = elem.Get("lon")
		}

		point, err := pointFrom(elem.Get("lat"), lng)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		places = append(places, newPlace(i, elem.Get("id"), elem.Get("name").String(), point))
	}

	return places, nil
}

func parseFeatureCollection(doc gjson.Result) ([]*models.Place, error) {
	features := doc.Get("features").Array()
	places := make([]*models.Place, 0, len(features))

	for i, feature := range features {
		geometry := feature.Get("geometry")
		if geometry.Get("type").String() != "Point" {
			return nil, fmt.Errorf("feature %d: %w: geometry is not a Point", i, ErrInvalidPlace)
		}

		// GeoJSON positions are [longitude, latitude]
		coords := geometry.Get("coordinates").Array()
		if len(coords) < 2 {
			return nil, fmt.Errorf("feature %d: %w: missing coordinates", i, ErrInvalidPlace)
		}

		point, err := pointFrom(coords[1], coords[0])
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}

		id := feature.Get("id")
		if !id.Exists() {
			id = feature.Get("properties.id")
		}
		places = append(places, newPlace(i, id, feature.Get("properties.name").String(), point))
	}

	return places, nil
}

func pointFrom(lat, lng gjson.Result) (geo.Point, error) {
	if !lat.Exists() || !lng.Exists() {
		return geo.Point{}, fmt.Errorf("%w: missing coordinates", ErrInvalidPlace)
	}

	// strings are accepted and go through the same parser as CLI input
	if lat.Type == gjson.String || lng.Type == gjson.String {
		return geo.ParsePoint(lat.String(), lng.String())
	}
	if lat.Type != gjson.Number || lng.Type != gjson.Number {
		return geo.Point{}, fmt.Errorf("%w: coordinates must be numbers", geo.ErrInvalidType)
	}
	return geo.NewPoint(lat.Float(), lng.Float())
}

func newPlace(i int, id gjson.Result, name string, point geo.Point) *models.Place {
	placeID := id.String()
	if placeID == "" {
		placeID = strconv.Itoa(i)
	}
	return &models.Place{
		ID:       placeID,
		Name:     name,
		Location: &models.Location{Lat: point.Latitude(), Lon: point.Longitude()},
	}
}
