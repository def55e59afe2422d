package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoLocationValidate(t *testing.T) {
	testCases := []struct {
		name    string
		loc     GeoLocation
		wantErr bool
	}{
		{"valid", GeoLocation{Lat: 51.5, Lng: -0.12, RadiusKm: 10}, false},
		{"zero radius", GeoLocation{Lat: 90, Lng: 180}, false},
		{"negative radius", GeoLocation{RadiusKm: -1}, true},
		{"latitude out of range", GeoLocation{Lat: 91}, true},
		{"longitude out of range", GeoLocation{Lng: -181}, true},
		{"NaN latitude", GeoLocation{Lat: math.NaN()}, true},
		{"infinite radius", GeoLocation{RadiusKm: math.Inf(1)}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.loc.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLocation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBoundingCoordinatesContains(t *testing.T) {
	b := BoundingCoordinates{MinLat: 10, MaxLat: 20, MinLng: 170, MaxLng: 190}

	assert.True(t, b.Contains(10, 170))
	assert.True(t, b.Contains(20, 190))
	assert.True(t, b.Contains(15, 185))
	assert.False(t, b.Contains(15, -175))
	assert.False(t, b.Contains(9.999, 175))
}

func TestBoundingCoordinatesNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		in       BoundingCoordinates
		expected []BoundingCoordinates
	}{
		{
			name:     "in range",
			in:       BoundingCoordinates{MinLat: -1, MaxLat: 1, MinLng: -10, MaxLng: 10},
			expected: []BoundingCoordinates{{MinLat: -1, MaxLat: 1, MinLng: -10, MaxLng: 10}},
		},
		{
			name: "east overflow",
			in:   BoundingCoordinates{MinLat: -1, MaxLat: 1, MinLng: 179, MaxLng: 181},
			expected: []BoundingCoordinates{
				{MinLat: -1, MaxLat: 1, MinLng: 179, MaxLng: 180},
				{MinLat: -1, MaxLat: 1, MinLng: -180, MaxLng: -179},
			},
		},
		{
			name: "west overflow",
			in:   BoundingCoordinates{MinLat: -1, MaxLat: 1, MinLng: -182, MaxLng: -178},
			expected: []BoundingCoordinates{
				{MinLat: -1, MaxLat: 1, MinLng: 178, MaxLng: 180},
				{MinLat: -1, MaxLat: 1, MinLng: -180, MaxLng: -178},
			},
		},
		{
			name:     "wider than the globe",
			in:       BoundingCoordinates{MinLat: -1, MaxLat: 1, MinLng: -200, MaxLng: 200},
			expected: []BoundingCoordinates{{MinLat: -1, MaxLat: 1, MinLng: -180, MaxLng: 180}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.in.Normalize())
		})
	}
}

func TestBoundingCoordinatesString(t *testing.T) {
	assert.Equal(t, "lat[-90.000000, 90.000000] lng[-180.000000, 180.000000]", WorldBounds.String())
	assert.True(t, WorldBounds.SpansAllLongitudes())
	assert.False(t, BoundingCoordinates{MinLng: -180, MaxLng: 179}.SpansAllLongitudes())
}
