package geo

import (
	"go.uber.org/zap"

	"github.com/kass/geo-bounds/pkg/models"
)

// Checker tests points against the box derived from a search area.
// The logger only receives debug diagnostics; it never affects results.
type Checker struct {
	logger *zap.Logger
}

// NewChecker creates a Checker. A nil logger disables diagnostics.
func NewChecker(logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{logger: logger}
}

var defaultChecker = NewChecker(nil)

// IsPointWithinBounds reports whether point lies inside the bounding box of
// location. Either argument being nil yields false.
func IsPointWithinBounds(point *Point, location *models.GeoLocation) bool {
	return defaultChecker.IsWithin(point, location)
}

// IsWithin reports whether point lies inside the bounding box of location,
// bounds inclusive. Longitudes are compared without wrapping, so a box that
// overflows ±180 does not match points on the far side of the antimeridian.
func (c *Checker) IsWithin(point *Point, location *models.GeoLocation) bool {
	within, _, _ := c.Check(point, location)
	return within
}

// Check is IsWithin that also returns the bounds it tested against and the
// branch that produced them. With a nil argument it returns false and zero
// bounds.
func (c *Checker) Check(point *Point, location *models.GeoLocation) (bool, models.BoundingCoordinates, Branch) {
	if point == nil || location == nil {
		return false, models.BoundingCoordinates{}, BranchRegular
	}

	bounds, branch := Calculate(models.GeoLocation{
		Lat:      location.Lat,
		Lng:      location.Lng,
		RadiusKm: location.RadiusKm,
	})
	within := bounds.Contains(point.latitude, point.longitude)

	if ce := c.logger.Check(zap.DebugLevel, "containment check"); ce != nil {
		ce.Write(
			zap.Float64("center_lat", location.Lat),
			zap.Float64("center_lng", location.Lng),
			zap.Float64("radius_km", location.RadiusKm),
			zap.Stringer("bounds", bounds),
			zap.Stringer("branch", branch),
			zap.Stringer("point", point),
			zap.Bool("within", within),
		)
	}

	return within, bounds, branch
}
