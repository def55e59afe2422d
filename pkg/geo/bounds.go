// Package geo derives rectangular search bounds from a circular area on a
// spherical Earth and tests points against them. Every function here is pure
// and safe for concurrent use.
package geo

import (
	"math"

	"github.com/kass/geo-bounds/pkg/models"
)

// Branch tells which path of the bounds calculation produced a result
type Branch int

const (
	// BranchRegular is the small-circle longitude formula
	BranchRegular Branch = iota
	// BranchPole means the circle encloses a pole, so every longitude is covered
	BranchPole
	// BranchGlobal means the radius covers the whole sphere
	BranchGlobal
)

func (b Branch) String() string {
	switch b {
	case BranchPole:
		return "pole"
	case BranchGlobal:
		return "global"
	default:
		return "regular"
	}
}

// globalRadiusKm is half of a great circle; any larger radius covers the sphere
const globalRadiusKm = EarthRadiusKm * math.Pi

// CalculateBoundingCoordinates converts a center and radius into a lat/lng box.
//
// Latitude bounds are clamped to [-90, 90]. Longitude bounds are neither
// clamped nor wrapped, so a circle close to the antimeridian yields values past
// ±180. All four values are rounded to 6 decimal places. Invalid input (NaN,
// negative radius, out-of-range center) is not rejected and propagates through
// the arithmetic.
func CalculateBoundingCoordinates(location models.GeoLocation) models.BoundingCoordinates {
	bounds, _ := Calculate(location)
	return bounds
}

// Calculate is CalculateBoundingCoordinates that also reports the branch taken
func Calculate(location models.GeoLocation) (models.BoundingCoordinates, Branch) {
	if location.RadiusKm >= globalRadiusKm {
		return models.WorldBounds, BranchGlobal
	}

	latRad := toRadians(location.Lat)
	lngRad := toRadians(location.Lng)

	// central angle subtended by the radius
	angular := location.RadiusKm / EarthRadiusKm

	minLatRad := latRad - angular
	maxLatRad := latRad + angular

	var minLng, maxLng float64
	branch := BranchRegular

	if maxLatRad > math.Pi/2 || minLatRad < -math.Pi/2 {
		minLng, maxLng = -180, 180
		branch = BranchPole
	} else {
		// the ratio is at most 1 here; Min only absorbs float noise at the limit
		deltaLng := math.Asin(math.Min(math.Sin(angular)/math.Cos(latRad), 1))
		minLng = toDegrees(lngRad - deltaLng)
		maxLng = toDegrees(lngRad + deltaLng)
	}

	minLat := math.Max(toDegrees(minLatRad), -90)
	maxLat := math.Min(toDegrees(maxLatRad), 90)

	return models.BoundingCoordinates{
		MinLat: round6(minLat),
		MaxLat: round6(maxLat),
		MinLng: round6(minLng),
		MaxLng: round6(maxLng),
	}, branch
}

// round6 rounds to 6 decimal places, halves away from zero
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
