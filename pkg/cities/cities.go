// Package cities holds fixed reference locations used by examples, the CLI and tests.
package cities

import (
	"sort"
	"strings"

	"github.com/kass/geo-bounds/pkg/models"
)

// City is a named reference location
type City struct {
	Name string  `json:"name" yaml:"name"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lng  float64 `json:"lng" yaml:"lng"`
}

var (
	London       = City{Name: "London", Lat: 51.5074, Lng: -0.1278}
	Brighton     = City{Name: "Brighton", Lat: 50.8225, Lng: -0.1372}
	Manchester   = City{Name: "Manchester", Lat: 53.483959, Lng: -2.244644}
	Guildford    = City{Name: "Guildford", Lat: 51.2362, Lng: -0.5704}
	Edinburgh    = City{Name: "Edinburgh", Lat: 55.9533, Lng: -3.1883}
	NewYork      = City{Name: "New York", Lat: 40.7128, Lng: -74.006}
	LosAngeles   = City{Name: "Los Angeles", Lat: 34.0522, Lng: -118.2437}
	SanFrancisco = City{Name: "San Francisco", Lat: 37.7749, Lng: -122.4194}
	BuenosAires  = City{Name: "Buenos Aires", Lat: -34.6037, Lng: -58.3816}
	Cordoba      = City{Name: "Córdoba", Lat: -31.4201, Lng: -64.1888}
	Sydney       = City{Name: "Sydney", Lat: -33.8688, Lng: 151.2093}
	Greenwich    = City{Name: "Greenwich", Lat: 51.4769, Lng: 0.0005}
	Equator      = City{Name: "Equator", Lat: 0, Lng: 0}
	Krakow       = City{Name: "Krakow", Lat: 50.0647, Lng: 19.945}
	NorthPole    = City{Name: "North Pole", Lat: 90, Lng: 0}
	SouthPole    = City{Name: "South Pole", Lat: -90, Lng: 0}
)

var all = []City{
	London, Brighton, Manchester, Guildford, Edinburgh, NewYork, LosAngeles,
	SanFrancisco, BuenosAires, Cordoba, Sydney, Greenwich, Equator, Krakow,
	NorthPole, SouthPole,
}

var byKey = func() map[string]City {
	m := make(map[string]City, len(all))
	for _, c := range all {
		m[key(c.Name)] = c
	}
	// ascii spelling for Córdoba
	m["cordoba"] = Cordoba
	return m
}()

// All returns every city sorted by name
func All() []City {
	out := make([]City, len(all))
	copy(out, all)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a city by name, ignoring case, spaces, dashes and underscores
func Lookup(name string) (City, bool) {
	c, ok := byKey[key(name)]
	return c, ok
}

// Area returns a search area of radiusKm around the city
func (c City) Area(radiusKm float64) models.GeoLocation {
	return models.GeoLocation{Lat: c.Lat, Lng: c.Lng, RadiusKm: radiusKm, Name: c.Name}
}

// Place converts the city into an indexable place
func (c City) Place() *models.Place {
	return &models.Place{
		ID:       key(c.Name),
		Name:     c.Name,
		Location: &models.Location{Lat: c.Lat, Lon: c.Lng},
	}
}

func key(name string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(name)))
}
