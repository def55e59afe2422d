package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kass/geo-bounds/internal/metrics"
	"github.com/kass/geo-bounds/pkg/geo"
	"github.com/kass/geo-bounds/pkg/models"
	"github.com/kass/geo-bounds/pkg/rtree"
)

const (
	defaultNearest = 10
	maxNearest     = 1000
)

// ErrorResponse is the body of every 4xx/5xx reply
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// BoundsResponse is the body of GET /v1/bounds
type BoundsResponse struct {
	models.BoundingCoordinates
	Branch string `json:"branch"`
	// Normalized holds the box split at the antimeridian, for clients that
	// need every longitude within [-180, 180].
	Normalized []models.BoundingCoordinates `json:"normalized"`
}

// WithinResponse is the body of GET /v1/within
type WithinResponse struct {
	Within bool                       `json:"within"`
	Bounds models.BoundingCoordinates `json:"bounds"`
}

// PlacesResponse is the body of the place query endpoints
type PlacesResponse struct {
	Count  int             `json:"count"`
	Places []*models.Place `json:"places"`
}

// Handler serves the bounds, containment and place endpoints
type Handler struct {
	index   *rtree.GeoIndex
	checker *geo.Checker
	logger  *zap.Logger
}

// NewHandler creates a Handler. index may be nil, in which case the place
// endpoints answer 503.
func NewHandler(index *rtree.GeoIndex, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		index:   index,
		checker: geo.NewChecker(logger),
		logger:  logger,
	}
}

// Bounds handles GET /v1/bounds?lat=&lng=&radius_km=
func (h *Handler) Bounds(c *gin.Context) {
	location, err := locationFromQuery(c, "lat", "lng")
	if err != nil {
		badRequest(c, err)
		return
	}

	bounds, branch := geo.Calculate(location)
	metrics.BoundsComputed.WithLabelValues(branch.String()).Inc()

	c.JSON(http.StatusOK, BoundsResponse{
		BoundingCoordinates: bounds,
		Branch:              branch.String(),
		Normalized:          bounds.Normalize(),
	})
}

// Within handles GET /v1/within?lat=&lng=&radius_km=&point_lat=&point_lng=
func (h *Handler) Within(c *gin.Context) {
	location, err := locationFromQuery(c, "lat", "lng")
	if err != nil {
		badRequest(c, err)
		return
	}

	point, err := geo.ParsePoint(c.Query("point_lat"), c.Query("point_lng"))
	if err != nil {
		badRequest(c, fmt.Errorf("point: %w", err))
		return
	}

	within, bounds, branch := h.checker.Check(&point, &location)
	metrics.BoundsComputed.WithLabelValues(branch.String()).Inc()

	result := "outside"
	if within {
		result = "inside"
	}
	metrics.ContainmentChecks.WithLabelValues(result).Inc()

	c.JSON(http.StatusOK, WithinResponse{
		Within: within,
		Bounds: bounds,
	})
}

// Places handles GET /v1/places?lat=&lng=&radius_km=
func (h *Handler) Places(c *gin.Context) {
	if !h.indexLoaded(c) {
		return
	}

	location, err := locationFromQuery(c, "lat", "lng")
	if err != nil {
		badRequest(c, err)
		return
	}

	places, err := h.index.QueryRadius(location)
	if err != nil {
		badRequest(c, err)
		return
	}
	metrics.IndexQueryResults.Observe(float64(len(places)))

	c.JSON(http.StatusOK, PlacesResponse{Count: len(places), Places: nonNil(places)})
}

// Nearest handles GET /v1/places/nearest?lat=&lng=&k=
func (h *Handler) Nearest(c *gin.Context) {
	if !h.indexLoaded(c) {
		return
	}

	point, err := geo.ParsePoint(c.Query("lat"), c.Query("lng"))
	if err != nil {
		badRequest(c, err)
		return
	}

	k := defaultNearest
	if raw := c.Query("k"); raw != "" {
		k, err = strconv.Atoi(raw)
		if err != nil || k <= 0 || k > maxNearest {
			badRequest(c, fmt.Errorf("%w: k must be an integer in [1, %d]", models.ErrInvalidLocation, maxNearest))
			return
		}
	}

	places := h.index.NearestNeighbors(models.Location{Lat: point.Latitude(), Lon: point.Longitude()}, k)
	c.JSON(http.StatusOK, PlacesResponse{Count: len(places), Places: nonNil(places)})
}

// Health handles GET /healthz
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.index != nil {
		resp["places"] = h.index.Count()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) indexLoaded(c *gin.Context) bool {
	if h.index == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "no place index loaded",
			Kind:  "unavailable",
		})
		return false
	}
	return true
}

// locationFromQuery reads a validated search area from the query string
func locationFromQuery(c *gin.Context, latKey, lngKey string) (models.GeoLocation, error) {
	center, err := geo.ParsePoint(c.Query(latKey), c.Query(lngKey))
	if err != nil {
		return models.GeoLocation{}, err
	}

	raw := c.Query("radius_km")
	radius, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return models.GeoLocation{}, fmt.Errorf("%w: radius_km %q is not a number", models.ErrInvalidLocation, raw)
	}

	location := models.GeoLocation{
		Lat:      center.Latitude(),
		Lng:      center.Longitude(),
		RadiusKm: radius,
		Name:     c.Query("name"),
	}
	if err := location.Validate(); err != nil {
		return models.GeoLocation{}, err
	}
	return location, nil
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error: err.Error(),
		Kind:  errorKind(err),
	})
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, geo.ErrInvalidType):
		return "invalid_type"
	case errors.Is(err, geo.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, models.ErrInvalidLocation):
		return "invalid_location"
	}
	return "bad_request"
}

func nonNil(places []*models.Place) []*models.Place {
	if places == nil {
		return []*models.Place{}
	}
	return places
}
