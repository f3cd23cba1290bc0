package recommendation

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-poi-recommender/internal/api"
	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

type Handler interface {
	GetNextRecommendation(w http.ResponseWriter, r *http.Request)
}

var _ Handler = (*HandlerImpl)(nil)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// GetNextRecommendation handles POST /api/v1/recommendations/next.
func (h *HandlerImpl) GetNextRecommendation(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommendationHandler").Start(r.Context(), "GetNextRecommendation", trace.WithAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.route", "/api/v1/recommendations/next"),
	))
	defer span.End()

	var wctx types.WorkflowContext
	if err := api.DecodeJSONBody(w, r, &wctx); err != nil {
		h.logger.WarnContext(ctx, "Invalid recommendation request body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.GetNextRecommendation(ctx, &wctx)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, types.ErrBadParameter):
			span.SetStatus(codes.Error, "Bad parameter")
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrTiersExhausted), errors.Is(err, types.ErrServiceUnavailable):
			span.SetStatus(codes.Error, "No tier could produce a recommendation")
			api.ErrorResponse(w, r, http.StatusServiceUnavailable, "recommendation service is temporarily unavailable")
		default:
			h.logger.ErrorContext(ctx, "Recommendation failed", slog.Any("error", err))
			span.SetStatus(codes.Error, "Internal error")
			api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to produce a recommendation")
		}
		return
	}

	span.SetAttributes(
		attribute.String("recommendation.source", resp.Source),
		attribute.Int("recommendation.count", len(resp.Recommendations)),
	)
	span.SetStatus(codes.Ok, "Recommendation returned")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}
