// Package rtree implements a longitude-partitioned R-Tree over places, using
// the circle-to-box bounds from package geo as the pre-filter for radius queries.
package rtree

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"

	"github.com/kass/geo-bounds/pkg/geo"
	"github.com/kass/geo-bounds/pkg/models"
)

const (
	tolerance   = 0.01
	minChildren = 25
	maxChildren = 50
	dimensions  = 2

	// nearest-neighbour search radius: first try, growth factor, and the
	// half great circle beyond which every place is in range
	nearestStartRadiusKm = 10.0
	nearestGrowth        = 4
	maxRadiusKm          = geo.EarthRadiusKm * math.Pi
)

// spatialPlace wraps a place to implement rtreego.Spatial
type spatialPlace struct {
	*models.Place
	rect rtreego.Rect
}

func (sp *spatialPlace) Bounds() rtreego.Rect {
	return sp.rect
}

// GeoIndex is a thread-safe R-Tree index split into longitude bands, one tree
// per band, so queries can search bands in parallel.
type GeoIndex struct {
	partitions      []*rtreego.Rtree
	partitionBounds []models.BoundingCoordinates
	mu              sync.RWMutex
	itemCount       atomic.Int64
}

// NewGeoIndex creates an index with one partition per CPU
func NewGeoIndex() *GeoIndex {
	return NewGeoIndexWithPartitions(runtime.NumCPU())
}

// NewGeoIndexWithPartitions creates an index with the given partition count.
// A non-positive count falls back to the CPU count.
func NewGeoIndexWithPartitions(n int) *GeoIndex {
	if n <= 0 {
		n = runtime.NumCPU()
	}

	g := &GeoIndex{
		partitions:      make([]*rtreego.Rtree, n),
		partitionBounds: make([]models.BoundingCoordinates, n),
	}

	lngRange := 360.0 / float64(n)
	for i := 0; i < n; i++ {
		g.partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)

		minLng := -180.0 + float64(i)*lngRange
		maxLng := minLng + lngRange
		if i == n-1 {
			maxLng = 180.0
		}
		g.partitionBounds[i] = models.BoundingCoordinates{MinLat: -90, MaxLat: 90, MinLng: minLng, MaxLng: maxLng}
	}

	return g
}

// Partitions returns the number of longitude bands
func (g *GeoIndex) Partitions() int {
	return len(g.partitions)
}

// IndexPlaces adds places to the index. Places without a location are
// skipped; places with invalid coordinates are rejected before anything is
// inserted.
func (g *GeoIndex) IndexPlaces(places []*models.Place) error {
	if len(places) == 0 {
		return nil
	}

	n := len(g.partitions)
	grouped := make([][]*spatialPlace, n)

	for _, place := range places {
		if place == nil || place.Location == nil {
			continue
		}
		if _, err := geo.NewPoint(place.Location.Lat, place.Location.Lon); err != nil {
			return fmt.Errorf("place %s: %w", place.ID, err)
		}

		p := rtreego.Point{place.Location.Lat, place.Location.Lon}
		idx := g.partitionFor(place.Location.Lon)
		grouped[idx] = append(grouped[idx], &spatialPlace{place, p.ToRect(tolerance)})
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var wg sync.WaitGroup
	var inserted atomic.Int64

	for i := 0; i < n; i++ {
		if len(grouped[i]) == 0 {
			continue
		}

		wg.Add(1)
		go func(idx int, items []*spatialPlace) {
			defer wg.Done()
			for _, item := range items {
				g.partitions[idx].Insert(item)
			}
			inserted.Add(int64(len(items)))
		}(i, grouped[i])
	}

	wg.Wait()
	g.itemCount.Add(inserted.Load())
	return nil
}

// QueryBox returns all places inside box, bounds inclusive. A box whose
// longitudes overflow ±180 is split at the antimeridian first.
func (g *GeoIndex) QueryBox(box models.BoundingCoordinates) ([]*models.Place, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.queryBox(box, nil)
}

// QueryRadius returns all places within location.RadiusKm of the center,
// using the derived bounding box as the pre-filter and the haversine distance
// as the exact test.
func (g *GeoIndex) QueryRadius(location models.GeoLocation) ([]*models.Place, error) {
	if err := location.Validate(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	bounds := geo.CalculateBoundingCoordinates(location)
	return g.queryBox(bounds, func(loc *models.Location) bool {
		return geo.Distance(location.Lat, location.Lng, loc.Lat, loc.Lon) <= location.RadiusKm
	})
}

func (g *GeoIndex) queryBox(box models.BoundingCoordinates, keep func(*models.Location) bool) ([]*models.Place, error) {
	type job struct {
		partition int
		box       models.BoundingCoordinates
		rect      rtreego.Rect
	}

	var jobs []job
	for _, part := range box.Normalize() {
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{part.MinLat, part.MinLng},
			rtreego.Point{part.MaxLat, part.MaxLng},
		)
		if err != nil {
			return nil, fmt.Errorf("invalid bounding box %s: %w", part, err)
		}
		for _, idx := range g.relevantPartitions(part) {
			jobs = append(jobs, job{partition: idx, box: part, rect: rect})
		}
	}

	resultsChan := make(chan []*models.Place, len(jobs))
	for _, j := range jobs {
		go func(j job) {
			results := g.partitions[j.partition].SearchIntersect(j.rect)

			places := make([]*models.Place, 0, len(results))
			for _, result := range results {
				item, ok := result.(*spatialPlace)
				if !ok || item.Place == nil || item.Location == nil {
					continue
				}
				// the tree matches on padded rects; re-check the exact point
				if !j.box.Contains(item.Location.Lat, item.Location.Lon) {
					continue
				}
				if keep != nil && !keep(item.Location) {
					continue
				}
				places = append(places, item.Place)
			}
			resultsChan <- places
		}(j)
	}

	var all []*models.Place
	for range jobs {
		all = append(all, <-resultsChan...)
	}

	return all, nil
}

// NearestNeighbors returns up to n places closest to center by great-circle
// distance. It runs radius queries of growing size around center until n
// places match, so candidates across the antimeridian or at high latitudes
// are found the same way QueryRadius finds them.
func (g *GeoIndex) NearestNeighbors(center models.Location, n int) []*models.Place {
	if n <= 0 {
		return nil
	}
	if _, err := geo.NewPoint(center.Lat, center.Lon); err != nil {
		return nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	want := min(int64(n), g.itemCount.Load())
	if want == 0 {
		return nil
	}

	distance := func(loc *models.Location) float64 {
		return geo.Distance(center.Lat, center.Lon, loc.Lat, loc.Lon)
	}

	var places []*models.Place
	for radius := nearestStartRadiusKm; ; radius *= nearestGrowth {
		if radius >= maxRadiusKm {
			// the whole sphere; no distance cut
			places, _ = g.queryBox(models.WorldBounds, nil)
			break
		}

		area := models.GeoLocation{Lat: center.Lat, Lng: center.Lon, RadiusKm: radius}
		found, err := g.queryBox(geo.CalculateBoundingCoordinates(area), func(loc *models.Location) bool {
			return distance(loc) <= radius
		})
		if err != nil {
			return nil
		}
		if int64(len(found)) >= want {
			places = found
			break
		}
	}

	distances := make(map[*models.Place]float64, len(places))
	for _, p := range places {
		distances[p] = distance(p.Location)
	}
	sort.Slice(places, func(i, j int) bool { return distances[places[i]] < distances[places[j]] })

	if len(places) > n {
		places = places[:n]
	}
	return places
}

// Count returns the number of indexed places
func (g *GeoIndex) Count() int64 {
	return g.itemCount.Load()
}

// Clear removes all places from the index
func (g *GeoIndex) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.clear()
}

func (g *GeoIndex) clear() {
	for i := range g.partitions {
		g.partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)
	}
	g.itemCount.Store(0)
}

// all returns every indexed place; callers must hold the lock
func (g *GeoIndex) all() []*models.Place {
	places, _ := g.queryBox(models.WorldBounds, nil)
	return places
}

func (g *GeoIndex) partitionFor(lng float64) int {
	n := len(g.partitions)
	idx := int((lng + 180.0) / (360.0 / float64(n)))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// relevantPartitions returns the partitions whose band intersects box
func (g *GeoIndex) relevantPartitions(box models.BoundingCoordinates) []int {
	var relevant []int
	for i, bounds := range g.partitionBounds {
		if box.MinLng <= bounds.MaxLng && box.MaxLng >= bounds.MinLng {
			relevant = append(relevant, i)
		}
	}
	return relevant
}
