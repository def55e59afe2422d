// Package bench measures query throughput against the place index with a
// pool of concurrent workers.
package bench

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kass/geo-bounds/pkg/geo"
	"github.com/kass/geo-bounds/pkg/models"
	"github.com/kass/geo-bounds/pkg/rtree"
)

// Kind names a benchmark query type
type Kind string

const (
	KindBounds  Kind = "bounds"
	KindBox     Kind = "box"
	KindRadius  Kind = "radius"
	KindNearest Kind = "nearest"
	KindMixed   Kind = "mixed"
)

// Kinds lists every benchmark in the order the CLI runs them
var Kinds = []Kind{KindBounds, KindBox, KindRadius, KindNearest}

// ErrUnknownKind is returned by Run for an unrecognised Kind
var ErrUnknownKind = errors.New("unknown query type")

// Options configures one benchmark run. Zero values take the defaults
// below, except Region, which defaults to the whole world.
type Options struct {
	Kind     Kind
	Queries  int
	Workers  int
	Region   models.BoundingCoordinates
	BoxSize  float64
	RadiusKm float64
	K        int
	Seed     int64
}

func (o *Options) applyDefaults() {
	if o.Queries <= 0 {
		o.Queries = 1000
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Region == (models.BoundingCoordinates{}) {
		o.Region = models.WorldBounds
	}
	if o.BoxSize <= 0 {
		o.BoxSize = 1.0
	}
	if o.RadiusKm <= 0 {
		o.RadiusKm = 50.0
	}
	if o.K <= 0 {
		o.K = 10
	}
}

// Result summarizes one benchmark run
type Result struct {
	Kind          Kind
	TotalQueries  int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	QueriesPerSec float64
	TotalResults  int64
	AvgResults    float64
	Workers       int
}

// Run executes opts.Queries random queries of opts.Kind. progress, if not
// nil, is called from worker goroutines with the running count of
// completed queries.
func Run(index *rtree.GeoIndex, opts Options, progress func(done int)) (Result, error) {
	opts.applyDefaults()

	query, err := queryFunc(index, opts)
	if err != nil {
		return Result{}, err
	}

	var (
		totalResults atomic.Int64
		completed    atomic.Int64
		mu           sync.Mutex
		minDuration  = time.Duration(1<<63 - 1)
		maxDuration  time.Duration
		firstErr     error
	)

	queryCh := make(chan int, opts.Queries)
	for i := 0; i < opts.Queries; i++ {
		queryCh <- i
	}
	close(queryCh)

	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(opts.Workers)
	for w := 0; w < opts.Workers; w++ {
		go func(w int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(opts.Seed + int64(w)))

			localMin := time.Duration(1<<63 - 1)
			var localMax time.Duration
			var localResults int64

			for i := range queryCh {
				qStart := time.Now()
				n, err := query(r, i)
				d := time.Since(qStart)

				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}

				localResults += int64(n)
				localMin = min(localMin, d)
				localMax = max(localMax, d)

				done := completed.Add(1)
				if progress != nil {
					progress(int(done))
				}
			}

			totalResults.Add(localResults)
			mu.Lock()
			minDuration = min(minDuration, localMin)
			maxDuration = max(maxDuration, localMax)
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	elapsed := time.Since(start)
	if firstErr != nil {
		return Result{}, fmt.Errorf("%s benchmark: %w", opts.Kind, firstErr)
	}

	n := int(completed.Load())
	result := Result{
		Kind:          opts.Kind,
		TotalQueries:  n,
		TotalDuration: elapsed,
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		TotalResults:  totalResults.Load(),
		Workers:       opts.Workers,
	}
	if n > 0 {
		result.AvgDuration = elapsed / time.Duration(n)
		result.QueriesPerSec = float64(n) / elapsed.Seconds()
		result.AvgResults = float64(result.TotalResults) / float64(n)
	}
	return result, nil
}

// queryFunc returns the per-query work for opts.Kind. It reports how many
// items the query produced.
func queryFunc(index *rtree.GeoIndex, opts Options) (func(r *rand.Rand, i int) (int, error), error) {
	region := opts.Region
	center := func(r *rand.Rand) (float64, float64) {
		return region.MinLat + r.Float64()*(region.MaxLat-region.MinLat),
			region.MinLng + r.Float64()*(region.MaxLng-region.MinLng)
	}

	switch opts.Kind {
	case KindBounds, KindBox, KindRadius, KindNearest, KindMixed:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind)
	}
	if opts.Kind != KindBounds && index == nil {
		return nil, fmt.Errorf("%s benchmark needs an index", opts.Kind)
	}

	bounds := func(r *rand.Rand, _ int) (int, error) {
		lat, lng := center(r)
		b := geo.CalculateBoundingCoordinates(models.GeoLocation{Lat: lat, Lng: lng, RadiusKm: opts.RadiusKm})
		return len(b.Normalize()), nil
	}
	box := func(r *rand.Rand, _ int) (int, error) {
		lat, lng := center(r)
		half := opts.BoxSize / 2
		results, err := index.QueryBox(models.BoundingCoordinates{
			MinLat: max(lat-half, -90), MaxLat: min(lat+half, 90),
			MinLng: lng - half, MaxLng: lng + half,
		})
		return len(results), err
	}
	radius := func(r *rand.Rand, _ int) (int, error) {
		lat, lng := center(r)
		results, err := index.QueryRadius(models.GeoLocation{Lat: lat, Lng: lng, RadiusKm: opts.RadiusKm})
		return len(results), err
	}
	nearest := func(r *rand.Rand, _ int) (int, error) {
		lat, lng := center(r)
		return len(index.NearestNeighbors(models.Location{Lat: lat, Lon: lng}, opts.K)), nil
	}

	switch opts.Kind {
	case KindBounds:
		return bounds, nil
	case KindBox:
		return box, nil
	case KindRadius:
		return radius, nil
	case KindNearest:
		return nearest, nil
	default:
		return func(r *rand.Rand, i int) (int, error) {
			switch i % 3 {
			case 0:
				return box(r, i)
			case 1:
				return radius(r, i)
			default:
				return nearest(r, i)
			}
		}, nil
	}
}
