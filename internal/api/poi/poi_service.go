package poi

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service fronts the geo index repository with a short-TTL result
// cache. Repeated widening attempts within one request window often
// repeat the narrower query of a previous request.
type Service interface {
	SearchPOIs(ctx context.Context, filter types.POIFilter) ([]types.POIDetailedInfo, error)
	GetDefaultPOIs(ctx context.Context) ([]types.POIDetailedInfo, error)
}

type ServiceImpl struct {
	logger        *slog.Logger
	poiRepository Repository
	searchCache   *cache.Cache
}

func NewServiceImpl(poiRepository Repository, cacheTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &ServiceImpl{
		logger:        logger,
		poiRepository: poiRepository,
		searchCache:   cache.New(cacheTTL, 5*time.Minute),
	}
}

func (s *ServiceImpl) SearchPOIs(ctx context.Context, filter types.POIFilter) ([]types.POIDetailedInfo, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "SearchPOIs", trace.WithAttributes(
		attribute.Float64("search.radius_meters", filter.RadiusMeters),
	))
	defer span.End()

	key := generateSearchCacheKey(filter)
	if cached, found := s.searchCache.Get(key); found {
		if pois, ok := cached.([]types.POIDetailedInfo); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			span.SetStatus(codes.Ok, "POIs served from cache")
			return pois, nil
		}
	}

	pois, err := s.poiRepository.SearchPOIs(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to search POIs", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Geo index search failed")
		return nil, err
	}

	s.searchCache.Set(key, pois, cache.DefaultExpiration)
	span.SetAttributes(attribute.Bool("cache.hit", false), attribute.Int("search.results", len(pois)))
	span.SetStatus(codes.Ok, "POIs retrieved")
	return pois, nil
}

func (s *ServiceImpl) GetDefaultPOIs(ctx context.Context) ([]types.POIDetailedInfo, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "GetDefaultPOIs")
	defer span.End()

	pois, err := s.poiRepository.GetDefaultPOIs(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get default POIs", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Default POI fetch failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Default POIs retrieved")
	return pois, nil
}
