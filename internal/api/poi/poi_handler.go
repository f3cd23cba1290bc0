package poi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-poi-recommender/internal/api"
	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

type Handler interface {
	SearchPOIs(w http.ResponseWriter, r *http.Request)
}

var _ Handler = (*HandlerImpl)(nil)

type HandlerImpl struct {
	poiService Service
	logger     *slog.Logger
}

func NewHandlerImpl(poiService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		poiService: poiService,
		logger:     logger,
	}
}

// SearchPOIs handles GET /pois/search, a thin passthrough over the geo
// index contract.
func (h *HandlerImpl) SearchPOIs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter types.POIFilter
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr != "" || lonStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat != nil || errLon != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "lat and lon must both be valid numbers")
			return
		}
		center := types.GeoPoint{Latitude: lat, Longitude: lon}
		if !center.Valid() {
			api.ErrorResponse(w, r, http.StatusBadRequest, "lat/lon outside valid coordinate range")
			return
		}
		filter.Center = &center
	}

	if v := q.Get("radius_meters"); v != "" {
		radius, err := strconv.ParseFloat(v, 64)
		if err != nil || radius <= 0 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "radius_meters must be a positive number")
			return
		}
		filter.RadiusMeters = radius
	}
	if v := q.Get("categories"); v != "" {
		filter.Categories = strings.Split(v, ",")
	}
	if v := q.Get("min_rating"); v != "" {
		minRating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "min_rating must be a number")
			return
		}
		filter.MinRating = minRating
	}
	if v := q.Get("max_price_level"); v != "" {
		maxPrice, err := strconv.Atoi(v)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "max_price_level must be an integer")
			return
		}
		filter.MaxPriceLevel = maxPrice
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	filter.SearchText = q.Get("text")

	pois, err := h.poiService.SearchPOIs(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "POI search failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, "poi search is currently unavailable")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"pois":    pois,
	})
}
