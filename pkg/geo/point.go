package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidType is returned when a coordinate is not a number
	ErrInvalidType = errors.New("coordinate is not a number")
	// ErrOutOfRange is returned when a coordinate is outside its degree bounds
	ErrOutOfRange = errors.New("coordinate out of range")
)

// PointError describes why a Point could not be constructed.
// Kind is ErrInvalidType or ErrOutOfRange.
type PointError struct {
	Kind  error
	Field string
	Value string
}

func (e *PointError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Kind)
}

func (e *PointError) Unwrap() error {
	return e.Kind
}

// Point is an immutable, validated latitude/longitude pair in degrees.
// The zero value is the point (0, 0).
type Point struct {
	latitude  float64
	longitude float64
}

// NewPoint validates latitude in [-90, 90] and longitude in [-180, 180].
// NaN and infinities are rejected with ErrInvalidType.
func NewPoint(latitude, longitude float64) (Point, error) {
	if err := checkNumber("latitude", latitude); err != nil {
		return Point{}, err
	}
	if err := checkNumber("longitude", longitude); err != nil {
		return Point{}, err
	}
	if latitude < -90 || latitude > 90 {
		return Point{}, rangeError("latitude", latitude)
	}
	if longitude < -180 || longitude > 180 {
		return Point{}, rangeError("longitude", longitude)
	}
	return Point{latitude: latitude, longitude: longitude}, nil
}

// ParsePoint builds a Point from decimal strings, as received from flags or
// query parameters.
func ParsePoint(latitude, longitude string) (Point, error) {
	lat, err := parseCoordinate("latitude", latitude)
	if err != nil {
		return Point{}, err
	}
	lng, err := parseCoordinate("longitude", longitude)
	if err != nil {
		return Point{}, err
	}
	return NewPoint(lat, lng)
}

// MustNewPoint is like NewPoint but panics on error
func MustNewPoint(latitude, longitude float64) Point {
	p, err := NewPoint(latitude, longitude)
	if err != nil {
		panic(err)
	}
	return p
}

// Latitude returns the latitude in degrees
func (p Point) Latitude() float64 { return p.latitude }

// Longitude returns the longitude in degrees
func (p Point) Longitude() float64 { return p.longitude }

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.latitude, p.longitude)
}

func parseCoordinate(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &PointError{Kind: ErrInvalidType, Field: field, Value: s}
	}
	return v, nil
}

func checkNumber(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &PointError{Kind: ErrInvalidType, Field: field, Value: formatValue(v)}
	}
	return nil
}

func rangeError(field string, v float64) error {
	return &PointError{Kind: ErrOutOfRange, Field: field, Value: formatValue(v)}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
