package candidate

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-poi-recommender/app/observability/metrics"
	"github.com/FACorreiaa/go-poi-recommender/config"
	"github.com/FACorreiaa/go-poi-recommender/internal/api/poi"
	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

// Strategy radius bounds accepted from the reasoning service.
const (
	strategyMinRadiusM = 500
	strategyMaxRadiusM = 50000
)

var budgetPriceCeilings = map[string]int{
	"budget":   1,
	"moderate": 2,
	"premium":  3,
	"luxury":   4,
}

// RetrievalResult carries the raw candidate rows plus the search
// metadata the caller reports back.
type RetrievalResult struct {
	POIs              []types.POIDetailedInfo `json:"pois"`
	FinalRadiusMeters float64                 `json:"final_radius_meters"`
	SearchAttempts    int                     `json:"search_attempts"`
	SearchSuccess     bool                    `json:"search_success"`
	IslandWide        bool                    `json:"island_wide"`
}

// Retriever executes a search strategy against the geo index with a
// bounded widening loop and an island-wide terminal fallback. Index
// errors count as empty attempts; only exhaustion of every attempt
// including the island-wide query surfaces an error, and even that
// returns the (possibly empty) terminal result.
type Retriever struct {
	poiService poi.Service
	cfg        config.RecommendationConfig
	logger     *slog.Logger
}

func NewRetriever(poiService poi.Service, cfg config.RecommendationConfig, logger *slog.Logger) *Retriever {
	return &Retriever{
		poiService: poiService,
		cfg:        cfg,
		logger:     logger,
	}
}

// Retrieve runs the widening loop for the given strategy. The returned
// result is never nil; SearchSuccess reports whether the minimum
// acceptable candidate count was reached before the island-wide query.
func (r *Retriever) Retrieve(ctx context.Context, strategy *types.SearchStrategy, exclusions types.ExclusionSet) *RetrievalResult {
	ctx, span := otel.Tracer("CandidateRetriever").Start(ctx, "Retrieve", trace.WithAttributes(
		attribute.Int("strategy.radius_meters", strategy.Spatial.SearchRadiusMeters),
		attribute.String("strategy.round_type", strategy.RoundType),
	))
	defer span.End()

	minCandidates := r.cfg.MinCandidates
	if minCandidates <= 0 {
		minCandidates = 5
	}
	maxAttempts := r.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	expansion := r.cfg.ExpansionFactor
	if expansion <= 1 {
		expansion = 1.8
	}
	maxRadius := float64(r.cfg.MaxSearchRadiusM)
	if maxRadius <= 0 {
		maxRadius = 10000
	}

	radius := clampStrategyRadius(float64(strategy.Spatial.SearchRadiusMeters))
	center := strategy.Spatial.Center.GeoPoint()

	result := &RetrievalResult{}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.SearchAttempts = attempt
		result.FinalRadiusMeters = radius

		filter := r.buildFilter(strategy, &center, radius, exclusions)
		pois, err := r.poiService.SearchPOIs(ctx, filter)
		if err != nil {
			// An index failure is a zero-result attempt, not a fatal error.
			r.logger.WarnContext(ctx, "Geo index attempt failed, continuing",
				slog.Int("attempt", attempt),
				slog.Float64("radius_meters", radius),
				slog.Any("error", err),
			)
			span.AddEvent("attempt failed")
			pois = nil
		}

		if len(pois) >= minCandidates {
			result.POIs = pois
			result.SearchSuccess = true
			metrics.Get().GeoSearchAttempts.Record(ctx, int64(attempt))
			span.SetAttributes(attribute.Int("search.attempts", attempt), attribute.Int("search.results", len(pois)))
			span.SetStatus(codes.Ok, "Candidates retrieved")
			return result
		}

		r.logger.DebugContext(ctx, "Insufficient candidates, widening radius",
			slog.Int("attempt", attempt),
			slog.Int("found", len(pois)),
			slog.Int("min_required", minCandidates),
		)
		result.POIs = pois
		radius = math.Min(radius*expansion, maxRadius)
	}

	// Terminal island-wide query from the configured reference point.
	// Whatever it returns, even nothing, ends the retrieval.
	islandRadius := float64(r.cfg.IslandRadiusM)
	if islandRadius <= 0 {
		islandRadius = 25000
	}
	reference := types.GeoPoint{
		Latitude:  r.cfg.ReferencePoint.Latitude,
		Longitude: r.cfg.ReferencePoint.Longitude,
	}
	result.SearchAttempts++
	result.FinalRadiusMeters = islandRadius
	result.IslandWide = true

	filter := r.buildFilter(strategy, &reference, islandRadius, exclusions)
	pois, err := r.poiService.SearchPOIs(ctx, filter)
	if err != nil {
		r.logger.ErrorContext(ctx, "Island-wide fallback query failed", slog.Any("error", err))
		span.RecordError(err)
		pois = nil
	}
	result.POIs = pois
	result.SearchSuccess = len(pois) > 0

	metrics.Get().GeoSearchAttempts.Record(ctx, int64(result.SearchAttempts))
	span.SetAttributes(
		attribute.Int("search.attempts", result.SearchAttempts),
		attribute.Int("search.results", len(pois)),
		attribute.Bool("search.island_wide", true),
	)
	span.SetStatus(codes.Ok, "Island-wide fallback executed")
	return result
}

func (r *Retriever) buildFilter(strategy *types.SearchStrategy, center *types.GeoPoint, radius float64, exclusions types.ExclusionSet) types.POIFilter {
	limit := r.cfg.CandidateLimit
	if limit <= 0 {
		limit = 15
	}

	excludeCategories := types.AccommodationBlocklist()
	excludeCategories = append(excludeCategories, strategy.Criteria.ExcludeTypes...)
	excludeCategories = append(excludeCategories, exclusions.Categories...)

	var excludeIDs []uuid.UUID
	for _, raw := range exclusions.IDs {
		if id, err := uuid.Parse(raw); err == nil {
			excludeIDs = append(excludeIDs, id)
		}
	}

	filter := types.POIFilter{
		Center:            center,
		RadiusMeters:      radius,
		Categories:        strategy.Criteria.RequiredTypes,
		MinRating:         strategy.Criteria.QualityThreshold,
		ExcludeCategories: excludeCategories,
		ExcludeNames:      exclusions.Names,
		ExcludeIDs:        excludeIDs,
		Limit:             limit,
	}
	if ceiling, ok := budgetPriceCeilings[strategy.Criteria.BudgetLevel]; ok {
		filter.MaxPriceLevel = ceiling
	}
	return filter
}

func clampStrategyRadius(radius float64) float64 {
	if radius < strategyMinRadiusM {
		return strategyMinRadiusM
	}
	if radius > strategyMaxRadiusM {
		return strategyMaxRadiusM
	}
	return radius
}
