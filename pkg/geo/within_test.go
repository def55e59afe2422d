package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kass/geo-bounds/pkg/cities"
	"github.com/kass/geo-bounds/pkg/models"
)

func pointOf(c cities.City) *Point {
	p := MustNewPoint(c.Lat, c.Lng)
	return &p
}

func areaOf(c cities.City, radiusKm float64) *models.GeoLocation {
	loc := c.Area(radiusKm)
	return &loc
}

func TestIsPointWithinBounds_Cities(t *testing.T) {
	testCases := []struct {
		name     string
		center   cities.City
		target   cities.City
		radiusKm float64
		expected bool
	}{
		{"Brighton near London", cities.London, cities.Brighton, 100, true},
		{"Guildford near London", cities.London, cities.Guildford, 100, true},
		{"Manchester from London, large radius", cities.London, cities.Manchester, 300, true},
		{"London from Manchester, large radius", cities.Manchester, cities.London, 300, true},
		{"Manchester from London, small radius", cities.London, cities.Manchester, 50, false},
		{"London from Manchester, small radius", cities.Manchester, cities.London, 50, false},
		{"Sydney from New York, global radius", cities.NewYork, cities.Sydney, 16000, true},
		{"New York from Sydney, global radius", cities.Sydney, cities.NewYork, 16000, true},
		{"New York from Sydney, small radius", cities.Sydney, cities.NewYork, 1000, false},
		{"San Francisco from Los Angeles", cities.LosAngeles, cities.SanFrancisco, 600, true},
		{"Los Angeles from San Francisco", cities.SanFrancisco, cities.LosAngeles, 600, true},
		{"San Francisco from Los Angeles, small radius", cities.LosAngeles, cities.SanFrancisco, 300, false},
		{"Krakow from London", cities.London, cities.Krakow, 1500, true},
		{"London from Krakow 350km", cities.Krakow, cities.London, 350, false},
		{"London from Krakow 600km", cities.Krakow, cities.London, 600, false},
		{"London from Krakow 900km", cities.Krakow, cities.London, 900, false},
		{"London from Krakow 1200km", cities.Krakow, cities.London, 1200, false},
		{"Córdoba from Buenos Aires", cities.BuenosAires, cities.Cordoba, 700, true},
		{"Buenos Aires from Córdoba", cities.Cordoba, cities.BuenosAires, 700, true},
		{"Córdoba from Buenos Aires, small radius", cities.BuenosAires, cities.Cordoba, 500, false},
		{"Buenos Aires from Córdoba, small radius", cities.Cordoba, cities.BuenosAires, 50, false},
		{"center of itself at zero radius", cities.Greenwich, cities.Greenwich, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsPointWithinBounds(pointOf(tc.target), areaOf(tc.center, tc.radiusKm))
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestIsPointWithinBounds_UKCenter(t *testing.T) {
	center := &models.GeoLocation{Lat: 54.0, Lng: -2.0, RadiusKm: 300}
	for _, c := range []cities.City{cities.Manchester, cities.London, cities.Edinburgh} {
		assert.True(t, IsPointWithinBounds(pointOf(c), center), c.Name)
	}
}

func TestIsPointWithinBounds_MissingArguments(t *testing.T) {
	p := MustNewPoint(40.713, -74.007)
	loc := &models.GeoLocation{Lat: 40.7128, Lng: -74.006, RadiusKm: 10}

	assert.True(t, IsPointWithinBounds(&p, loc))
	assert.False(t, IsPointWithinBounds(nil, loc))
	assert.False(t, IsPointWithinBounds(&p, nil))
	assert.False(t, IsPointWithinBounds(nil, nil))
	assert.False(t, IsPointWithinBounds(nil, &models.GeoLocation{RadiusKm: 20000}))
}

func TestIsPointWithinBounds_InclusiveEdges(t *testing.T) {
	loc := &models.GeoLocation{Lat: 37.7749, Lng: -122.4194, RadiusKm: 10}
	b := CalculateBoundingCoordinates(*loc)

	corners := []Point{
		MustNewPoint(b.MinLat, b.MinLng),
		MustNewPoint(b.MaxLat, b.MaxLng),
		MustNewPoint(b.MinLat, b.MaxLng),
		MustNewPoint(b.MaxLat, b.MinLng),
	}
	for _, p := range corners {
		assert.True(t, IsPointWithinBounds(&p, loc), "corner %s", p)
	}

	outside := MustNewPoint(b.MaxLat+1e-6, loc.Lng)
	assert.False(t, IsPointWithinBounds(&outside, loc))
}

func TestIsPointWithinBounds_Poles(t *testing.T) {
	loc := areaOf(cities.NorthPole, 500)
	for _, lng := range []float64{-180, -90, 0, 90, 180} {
		p := MustNewPoint(86, lng)
		assert.True(t, IsPointWithinBounds(&p, loc), "lng %v", lng)
	}
	p := MustNewPoint(85, 0)
	assert.False(t, IsPointWithinBounds(&p, loc))
}

func TestIsPointWithinBounds_AntimeridianIsNotWrapped(t *testing.T) {
	loc := &models.GeoLocation{Lat: 0, Lng: 179.9, RadiusKm: 100}

	east := MustNewPoint(0, 179.95)
	assert.True(t, IsPointWithinBounds(&east, loc))

	// geographically 40km away, but past the date line
	west := MustNewPoint(0, -179.8)
	assert.False(t, IsPointWithinBounds(&west, loc))
}

func TestChecker_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	checker := NewChecker(zap.New(core))

	p := MustNewPoint(40.713, -74.007)
	loc := &models.GeoLocation{Lat: 40.7128, Lng: -74.006, RadiusKm: 10}

	assert.Equal(t, IsPointWithinBounds(&p, loc), checker.IsWithin(&p, loc))
	assert.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, "containment check", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, 40.7128, fields["center_lat"])
	assert.Equal(t, "regular", fields["branch"])
	assert.Equal(t, true, fields["within"])

	assert.False(t, checker.IsWithin(nil, loc))
	assert.Equal(t, 1, logs.Len())
}

func TestChecker_Check(t *testing.T) {
	checker := NewChecker(nil)
	loc := areaOf(cities.London, 300)

	within, bounds, branch := checker.Check(pointOf(cities.Manchester), loc)
	assert.True(t, within)
	assert.Equal(t, CalculateBoundingCoordinates(*loc), bounds)
	assert.Equal(t, BranchRegular, branch)

	_, _, branch = checker.Check(pointOf(cities.London), areaOf(cities.NorthPole, 500))
	assert.Equal(t, BranchPole, branch)

	within, bounds, _ = checker.Check(nil, loc)
	assert.False(t, within)
	assert.Zero(t, bounds)
}

func TestChecker_InfoLevelSkipsDiagnostics(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	checker := NewChecker(zap.New(core))

	p := MustNewPoint(0, 0)
	assert.True(t, checker.IsWithin(&p, &models.GeoLocation{RadiusKm: 1}))
	assert.Zero(t, logs.Len())
}

func BenchmarkIsPointWithinBounds(b *testing.B) {
	p := MustNewPoint(40.713, -74.007)
	loc := &models.GeoLocation{Lat: 40.7128, Lng: -74.006, RadiusKm: 10}
	for i := 0; i < b.N; i++ {
		_ = IsPointWithinBounds(&p, loc)
	}
}
