package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLocation is returned by GeoLocation.Validate
var ErrInvalidLocation = errors.New("invalid location")

// Location represents a geographic location with latitude and longitude
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Place represents an indexed geo point with an ID and location
type Place struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Location *Location `json:"location"`
}

// GeoLocation is a circular search area: a center in degrees and a radius in km.
// It is plain input data and is not validated on construction.
type GeoLocation struct {
	Lat      float64 `json:"lat" yaml:"lat"`
	Lng      float64 `json:"lng" yaml:"lng"`
	RadiusKm float64 `json:"radius_km" yaml:"radius_km"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
}

// Validate reports whether the location can produce meaningful bounds.
// The bounds calculator itself never calls it.
func (l GeoLocation) Validate() error {
	switch {
	case math.IsNaN(l.Lat) || math.IsInf(l.Lat, 0):
		return fmt.Errorf("%w: latitude is not a number", ErrInvalidLocation)
	case math.IsNaN(l.Lng) || math.IsInf(l.Lng, 0):
		return fmt.Errorf("%w: longitude is not a number", ErrInvalidLocation)
	case math.IsNaN(l.RadiusKm) || math.IsInf(l.RadiusKm, 0):
		return fmt.Errorf("%w: radius is not a number", ErrInvalidLocation)
	case l.Lat < -90 || l.Lat > 90:
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidLocation, l.Lat)
	case l.Lng < -180 || l.Lng > 180:
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidLocation, l.Lng)
	case l.RadiusKm < 0:
		return fmt.Errorf("%w: radius %v is negative", ErrInvalidLocation, l.RadiusKm)
	}
	return nil
}

// BoundingCoordinates is an axis-aligned box in degrees.
// MinLng/MaxLng may fall outside [-180, 180] near the antimeridian.
type BoundingCoordinates struct {
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MinLng float64 `json:"min_lng" yaml:"min_lng"`
	MaxLng float64 `json:"max_lng" yaml:"max_lng"`
}

// WorldBounds covers the whole sphere
var WorldBounds = BoundingCoordinates{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180}

func (b BoundingCoordinates) String() string {
	return fmt.Sprintf("lat[%.6f, %.6f] lng[%.6f, %.6f]", b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
}

// SpansAllLongitudes reports whether the box covers every meridian
func (b BoundingCoordinates) SpansAllLongitudes() bool {
	return b.MinLng <= -180 && b.MaxLng >= 180
}

// Contains tests lat/lng against the box, bounds inclusive.
// Longitudes are compared literally, without wrapping.
func (b BoundingCoordinates) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lng >= b.MinLng && lng <= b.MaxLng
}

// Normalize splits a box whose longitudes overflow ±180 into boxes that
// each lie within [-180, 180]. A box already in range is returned as is.
func (b BoundingCoordinates) Normalize() []BoundingCoordinates {
	if b.MaxLng-b.MinLng >= 360 {
		return []BoundingCoordinates{{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: -180, MaxLng: 180}}
	}

	switch {
	case b.MinLng < -180:
		return []BoundingCoordinates{
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: b.MinLng + 360, MaxLng: 180},
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: -180, MaxLng: b.MaxLng},
		}
	case b.MaxLng > 180:
		return []BoundingCoordinates{
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: b.MinLng, MaxLng: 180},
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: -180, MaxLng: b.MaxLng - 360},
		}
	}
	return []BoundingCoordinates{b}
}
