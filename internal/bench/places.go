package bench

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/kass/geo-bounds/pkg/models"
)

// RandomPlaces generates n places, most of them clustered over populated
// regions. The same seed always yields the same places.
func RandomPlaces(n int, seed int64) []*models.Place {
	places := make([]*models.Place, n)
	if n == 0 {
		return places
	}

	numWorkers := min(runtime.NumCPU(), n)
	batchSize := n / numWorkers
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		startIdx := w * batchSize
		endIdx := startIdx + batchSize
		if w == numWorkers-1 {
			endIdx = n
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed + int64(start)))

			for i := start; i < end; i++ {
				var lat, lon float64

				switch r.Intn(5) {
				case 0: // North America
					lat = r.Float64()*30 + 30
					lon = r.Float64()*60 - 120
				case 1: // Europe
					lat = r.Float64()*20 + 40
					lon = r.Float64()*40 - 10
				case 2: // Asia
					lat = r.Float64()*40 + 20
					lon = r.Float64()*80 + 60
				case 3: // South America
					lat = r.Float64()*40 - 50
					lon = r.Float64()*30 - 80
				default:
					lat = r.Float64()*180 - 90
					lon = r.Float64()*360 - 180
				}

				places[i] = &models.Place{
					ID:       fmt.Sprintf("place_%d", i),
					Location: &models.Location{Lat: lat, Lon: lon},
				}
			}
		}(startIdx, endIdx)
	}

	wg.Wait()
	return places
}
