package poi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-poi-recommender/app/observability/metrics"
	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the geo index query contract. The catalog is read-only
// from this subsystem's perspective.
type Repository interface {
	// SearchPOIs returns catalog rows matching the filter, ordered by
	// distance when a center is given and by rating otherwise.
	SearchPOIs(ctx context.Context, filter types.POIFilter) ([]types.POIDetailedInfo, error)
	// GetDefaultPOIs returns the curated well-known entries backing the
	// basic fallback tier.
	GetDefaultPOIs(ctx context.Context) ([]types.POIDetailedInfo, error)
}

// Querier is the subset of pgxpool.Pool the repository needs. Narrowed
// so pgxmock can stand in during tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	db     Querier
}

func NewRepositoryImpl(db Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
	}
}

const poiSelectColumns = `
        id, name, category, secondary_categories,
        ST_Y(location::geometry) AS latitude,
        ST_X(location::geometry) AS longitude,
        rating, price_level, address, amenities, tags,
        description, highlights, local_tips`

func (r *RepositoryImpl) SearchPOIs(ctx context.Context, filter types.POIFilter) ([]types.POIDetailedInfo, error) {
	ctx, span := otel.Tracer("POIRepository").Start(ctx, "SearchPOIs", trace.WithAttributes(
		attribute.Float64("search.radius_meters", filter.RadiusMeters),
		attribute.Int("search.limit", filter.Limit),
	))
	defer span.End()

	start := time.Now()

	var sb strings.Builder
	args := make([]any, 0, 12)
	argPos := 0
	nextArg := func(v any) string {
		args = append(args, v)
		argPos++
		return fmt.Sprintf("$%d", argPos)
	}

	sb.WriteString("SELECT")
	sb.WriteString(poiSelectColumns)

	if filter.Center != nil {
		centerExpr := fmt.Sprintf("ST_SetSRID(ST_MakePoint(%s, %s), 4326)::geography",
			nextArg(filter.Center.Longitude), nextArg(filter.Center.Latitude))
		sb.WriteString(fmt.Sprintf(",\n        ST_Distance(location::geography, %s) AS distance_meters", centerExpr))
		sb.WriteString("\n    FROM pois\n    WHERE 1=1")
		if filter.RadiusMeters > 0 {
			sb.WriteString(fmt.Sprintf("\n        AND ST_DWithin(location::geography, %s, %s)",
				centerExpr, nextArg(filter.RadiusMeters)))
		}
	} else {
		sb.WriteString(",\n        0::double precision AS distance_meters")
		sb.WriteString("\n    FROM pois\n    WHERE 1=1")
	}

	if len(filter.Categories) > 0 {
		sb.WriteString(fmt.Sprintf("\n        AND lower(category) = ANY(%s)", nextArg(lowerAll(filter.Categories))))
	}
	if len(filter.ExcludeCategories) > 0 {
		sb.WriteString(fmt.Sprintf("\n        AND lower(category) != ALL(%s)", nextArg(lowerAll(filter.ExcludeCategories))))
	}
	if filter.MinRating > 0 {
		sb.WriteString(fmt.Sprintf("\n        AND (rating IS NULL OR rating >= %s)", nextArg(filter.MinRating)))
	}
	if filter.MaxPriceLevel > 0 {
		sb.WriteString(fmt.Sprintf("\n        AND (price_level IS NULL OR price_level <= %s)", nextArg(filter.MaxPriceLevel)))
	}
	if len(filter.Amenities) > 0 {
		sb.WriteString(fmt.Sprintf("\n        AND amenities @> %s", nextArg(filter.Amenities)))
	}
	if len(filter.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("\n        AND tags && %s", nextArg(filter.Tags)))
	}
	if filter.SearchText != "" {
		pattern := "%" + filter.SearchText + "%"
		p := nextArg(pattern)
		sb.WriteString(fmt.Sprintf("\n        AND (name ILIKE %s OR description ILIKE %s)", p, p))
	}
	if len(filter.ExcludeIDs) > 0 {
		sb.WriteString(fmt.Sprintf("\n        AND id != ALL(%s)", nextArg(filter.ExcludeIDs)))
	}
	if len(filter.ExcludeNames) > 0 {
		sb.WriteString(fmt.Sprintf("\n        AND lower(name) != ALL(%s)", nextArg(lowerAll(filter.ExcludeNames))))
	}

	if filter.Center != nil {
		sb.WriteString("\n    ORDER BY distance_meters ASC")
	} else {
		sb.WriteString("\n    ORDER BY rating DESC NULLS LAST")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 15
	}
	sb.WriteString(fmt.Sprintf("\n    LIMIT %s", nextArg(limit)))

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		metrics.Get().GeoQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Geo index query failed")
		r.logger.ErrorContext(ctx, "Failed to query pois", slog.Any("error", err))
		return nil, fmt.Errorf("%w: searching pois: %v", types.ErrServiceUnavailable, err)
	}
	defer rows.Close()

	pois, err := scanPOIRows(rows)
	if err != nil {
		metrics.Get().GeoQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row scan failed")
		return nil, err
	}

	metrics.Get().GeoQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("search.results", len(pois)))
	span.SetStatus(codes.Ok, "POIs retrieved")
	return pois, nil
}

func (r *RepositoryImpl) GetDefaultPOIs(ctx context.Context) ([]types.POIDetailedInfo, error) {
	ctx, span := otel.Tracer("POIRepository").Start(ctx, "GetDefaultPOIs")
	defer span.End()

	query := "SELECT" + poiSelectColumns + `,
        0::double precision AS distance_meters
    FROM pois
    WHERE is_default
    ORDER BY rating DESC NULLS LAST`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		metrics.Get().GeoQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Default POI query failed")
		r.logger.ErrorContext(ctx, "Failed to query default pois", slog.Any("error", err))
		return nil, fmt.Errorf("%w: fetching default pois: %v", types.ErrServiceUnavailable, err)
	}
	defer rows.Close()

	pois, err := scanPOIRows(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row scan failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("search.results", len(pois)))
	span.SetStatus(codes.Ok, "Default POIs retrieved")
	return pois, nil
}

func scanPOIRows(rows pgx.Rows) ([]types.POIDetailedInfo, error) {
	var pois []types.POIDetailedInfo
	for rows.Next() {
		var p types.POIDetailedInfo
		var address, description *string
		err := rows.Scan(
			&p.ID, &p.Name, &p.Category, &p.SecondaryCategories,
			&p.Latitude, &p.Longitude,
			&p.Rating, &p.PriceLevel, &address, &p.Amenities, &p.Tags,
			&description, &p.Highlights, &p.LocalTips,
			&p.DistanceMeters,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poi row: %w", err)
		}
		if address != nil {
			p.Address = *address
		}
		if description != nil {
			p.Description = *description
		}
		pois = append(pois, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("poi rows iteration: %w", err)
	}
	return pois, nil
}
