package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kass/geo-bounds/pkg/cities"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestBoundsCmd(t *testing.T) {
	out, err := run(t, "bounds", "--lat", "37.7749", "--lng", "-122.4194", "--radius", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "branch: regular")
	assert.Contains(t, out, "[37.684968, 37.864832]")
	assert.Contains(t, out, "[-122.533177, -122.305623]")
}

func TestBoundsCmd_JSON(t *testing.T) {
	out, err := run(t, "bounds", "--city", "north pole", "-r", "500", "-o", "json")
	require.NoError(t, err)

	var got boundsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "pole", got.Branch)
	assert.Equal(t, "North Pole", got.Center.Name)
	assert.Equal(t, 90.0, got.Bounds.MaxLat)
	assert.InDelta(t, 85.503392, got.Bounds.MinLat, 1e-6)
	assert.Equal(t, -180.0, got.Bounds.MinLng)
}

func TestBoundsCmd_Antimeridian(t *testing.T) {
	out, err := run(t, "bounds", "--lat", "0", "--lng", "179.9", "-r", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "crosses the antimeridian")
}

func TestBoundsCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"out of range", []string{"bounds", "--lat", "91", "--lng", "0"}, "out of range"},
		{"negative radius", []string{"bounds", "--lat", "0", "--lng", "0", "-r", "-5"}, "negative"},
		{"unknown city", []string{"bounds", "--city", "atlantis"}, "unknown city"},
		{"no center", []string{"bounds"}, "city lat"},
		{"lat without lng", []string{"bounds", "--lat", "1"}, "lng"},
		{"bad output", []string{"bounds", "--city", "london", "-o", "xml"}, "unknown output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestWithinCmd_Point(t *testing.T) {
	out, err := run(t, "within", "--lat", "40.7128", "--lng", "-74.006", "-r", "10",
		"--point-lat", "40.713", "--point-lng", "-74.007")
	require.NoError(t, err)
	assert.Contains(t, out, "(40.713000, -74.007000) is inside")
}

func TestWithinCmd_AllCities(t *testing.T) {
	out, err := run(t, "within", "--city", "london", "-r", "300", "-o", "yaml")
	require.NoError(t, err)

	var got []withinResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, len(cities.All()))

	inside := map[string]bool{}
	for _, r := range got {
		inside[r.Name] = r.Within
	}
	assert.True(t, inside["London"])
	assert.True(t, inside["Manchester"])
	assert.True(t, inside["Brighton"])
	assert.False(t, inside["Edinburgh"])
	assert.False(t, inside["Sydney"])
}

func TestWithinCmd_PointCity(t *testing.T) {
	out, err := run(t, "within", "--city", "buenos aires", "-r", "10", "--point-city", "cordoba")
	require.NoError(t, err)
	assert.Contains(t, out, "Córdoba is outside")
}

func TestCitiesCmd(t *testing.T) {
	out, err := run(t, "cities")
	require.NoError(t, err)
	assert.Contains(t, out, "16 reference cities")
	assert.Contains(t, out, "San Francisco")

	out, err = run(t, "cities", "-o", "json")
	require.NoError(t, err)
	var got []cities.City
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, cities.All(), got)
}

func TestLoadAndQuery(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cities.gob")

	out, err := run(t, "-f", file, "load", "--cities")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 16 places from reference cities")
	assert.FileExists(t, file)

	out, err = run(t, "-f", file, "query", "radius", "--city", "london", "-r", "300")
	require.NoError(t, err)
	assert.Contains(t, out, "Manchester (manchester)")
	assert.NotContains(t, out, "Edinburgh")
	assert.Contains(t, out, "5 of 16 places")

	out, err = run(t, "-f", file, "query", "nearest", "--city", "london", "-k", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "London (london)")
	assert.Contains(t, out, "Greenwich (greenwich)")
	assert.NotContains(t, out, "Guildford")

	out, err = run(t, "-f", file, "query", "box", "--min-lat", "-1", "--max-lat", "1", "--min-lng", "-1", "--max-lng", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Equator (equator)")
	assert.Contains(t, out, "1 of 16 places")
}

func TestLoad_Input(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "places.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
		{"id": "a", "lat": 10, "lng": 179.9},
		{"id": "b", "lat": 10, "lng": -179.9}
	]`), 0o644))
	file := filepath.Join(dir, "index.gob")

	_, err := run(t, "-f", file, "load", "--input", input)
	require.NoError(t, err)

	out, err := run(t, "-f", file, "query", "radius", "--lat", "10", "--lng", "180", "-r", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 2 places")
}

func TestQuery_MissingIndex(t *testing.T) {
	_, err := run(t, "-f", filepath.Join(t.TempDir(), "none.gob"), "query", "radius", "--city", "london")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geobounds load")
}

func TestQueryBox_Invalid(t *testing.T) {
	_, err := run(t, "query", "box", "--min-lat", "10", "--max-lat", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min above max")
}

func TestBenchCmd_Plain(t *testing.T) {
	file := filepath.Join(t.TempDir(), "none.gob")
	out, err := run(t, "-f", file, "bench", "--plain", "-t", "radius", "-q", "50", "-p", "500", "-w", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 500 random places")
	assert.Contains(t, out, "radius queries")
	assert.Contains(t, out, "total queries: 50")

	_, err = run(t, "-f", file, "bench", "--plain", "-t", "teleport")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "from-config.gob")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("index:\n  file: "+file+"\n  partitions: 2\n"), 0o644))

	_, err := run(t, "-c", cfgPath, "load", "--cities")
	require.NoError(t, err)
	assert.FileExists(t, file)
}
