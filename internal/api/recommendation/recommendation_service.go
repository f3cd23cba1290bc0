package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-poi-recommender/app/observability/metrics"
	"github.com/FACorreiaa/go-poi-recommender/config"
	"github.com/FACorreiaa/go-poi-recommender/internal/api/candidate"
	generativeAI "github.com/FACorreiaa/go-poi-recommender/internal/api/generative_ai"
	"github.com/FACorreiaa/go-poi-recommender/internal/api/poi"
	"github.com/FACorreiaa/go-poi-recommender/internal/api/radius"
	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service produces the single best next POI for a workflow context.
type Service interface {
	GetNextRecommendation(ctx context.Context, wctx *types.WorkflowContext) (*types.RecommendationResponse, error)
}

type ServiceImpl struct {
	logger       *slog.Logger
	cfg          config.RecommendationConfig
	aiClient     generativeAI.Client
	poiService   poi.Service
	retriever    *candidate.Retriever
	processor    *candidate.Processor
	radiusPolicy *radius.Policy
	validator    *Validator
}

func NewServiceImpl(
	cfg config.RecommendationConfig,
	aiClient generativeAI.Client,
	poiService poi.Service,
	retriever *candidate.Retriever,
	processor *candidate.Processor,
	radiusPolicy *radius.Policy,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		cfg:          cfg,
		aiClient:     aiClient,
		poiService:   poiService,
		retriever:    retriever,
		processor:    processor,
		radiusPolicy: radiusPolicy,
		validator:    NewValidator(),
	}
}

// tier is one fallback strategy. The selector iterates the ordered
// list and short-circuits on first success.
type tier struct {
	name string
	run  func(ctx context.Context, wctx *types.WorkflowContext, exclusions types.ExclusionSet) (*types.RecommendationResponse, error)
}

// GetNextRecommendation runs the tier cascade. Unless fallback is
// disabled by configuration, a tier failure degrades to the next tier
// instead of failing the request; only exhaustion of every tier
// surfaces an error.
func (s *ServiceImpl) GetNextRecommendation(ctx context.Context, wctx *types.WorkflowContext) (*types.RecommendationResponse, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "GetNextRecommendation", trace.WithAttributes(
		attribute.Int("workflow.step", wctx.StepNumber),
	))
	defer span.End()

	start := time.Now()
	m := metrics.Get()
	m.RecommendationRequestsTotal.Add(ctx, 1)
	defer func() {
		m.RecommendationDuration.Record(ctx, time.Since(start).Seconds())
	}()

	if wctx.Location != nil && !wctx.Location.Valid() {
		err := fmt.Errorf("%w: location out of coordinate range", types.ErrBadParameter)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid location")
		return nil, err
	}
	if wctx.StepNumber <= 0 {
		wctx.StepNumber = 1
	}

	exclusions := effectiveExclusions(wctx)

	tiers := []tier{
		{name: types.TierStrict, run: s.runStrictTier},
		{name: types.TierEnhanced, run: s.runEnhancedTier},
		{name: types.TierBasic, run: s.runBasicTier},
	}

	var lastErr error
	for i, t := range tiers {
		tierStart := time.Now()
		resp, err := t.run(ctx, wctx, exclusions)
		if err == nil {
			wctx.Tier = t.name
			m.TierAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tier", t.name), attribute.String("outcome", "success")))
			s.logger.InfoContext(ctx, "Recommendation tier succeeded",
				slog.String("tier", t.name),
				slog.Duration("duration", time.Since(tierStart)),
			)
			span.SetAttributes(attribute.String("recommendation.tier", t.name))
			span.SetStatus(codes.Ok, "Recommendation produced")
			return resp, nil
		}

		lastErr = err
		m.TierAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tier", t.name), attribute.String("outcome", "failure")))
		s.logger.WarnContext(ctx, "Recommendation tier failed",
			slog.String("tier", t.name),
			slog.Duration("duration", time.Since(tierStart)),
			slog.Any("error", err),
		)
		span.AddEvent("tier failed", trace.WithAttributes(attribute.String("tier", t.name)))

		if s.cfg.DisableFallback {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Tier failed with fallback disabled")
			return nil, fmt.Errorf("tier %s failed with fallback disabled: %w", t.name, err)
		}
		if i < len(tiers)-1 {
			m.TierFallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("from_tier", t.name)))
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "All tiers exhausted")
	return nil, fmt.Errorf("%w: %v", types.ErrTiersExhausted, lastErr)
}

// effectiveExclusions extends the caller's exclusion set with the
// already-selected POIs so no tier can recommend a repeat.
func effectiveExclusions(wctx *types.WorkflowContext) types.ExclusionSet {
	out := types.ExclusionSet{
		Names:      append([]string(nil), wctx.Exclusions.Names...),
		IDs:        append([]string(nil), wctx.Exclusions.IDs...),
		Categories: append([]string(nil), wctx.Exclusions.Categories...),
	}
	for _, p := range wctx.SelectedPOIs {
		out.Names = append(out.Names, p.Name)
		out.IDs = append(out.IDs, p.ID.String())
	}
	return out
}

// --- Strict tier: the full two-phase reasoning protocol ---

func (s *ServiceImpl) runStrictTier(ctx context.Context, wctx *types.WorkflowContext, exclusions types.ExclusionSet) (*types.RecommendationResponse, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "runStrictTier")
	defer span.End()

	decision, err := s.planRound(ctx, wctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Round planning failed")
		return nil, err
	}
	s.validator.SanitizeRoundDecision(decision)
	strategy := decision.Strategy()

	result := s.retriever.Retrieve(ctx, strategy, exclusions)
	candidates := s.processor.Process(result.POIs, wctx.Location, &exclusions, s.cfg.CandidateLimit)
	if len(candidates) == 0 {
		err := fmt.Errorf("no candidates matched the round strategy (attempts=%d, radius=%.0fm)",
			result.SearchAttempts, result.FinalRadiusMeters)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty candidate set")
		return nil, err
	}

	selection, err := s.selectPOI(ctx, wctx, candidates)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Selection failed")
		return nil, err
	}
	s.validator.SanitizeSelectionDecision(selection)

	// Referential integrity: the chosen identifier must name a member
	// of the candidate set the service was shown. Never remapped.
	chosen := selection.SelectedPOIs[0]
	var chosenPOI *types.POIDetailedInfo
	for i := range candidates {
		if candidates[i].ID.String() == chosen.ID {
			chosenPOI = &candidates[i]
			break
		}
	}
	if chosenPOI == nil {
		metrics.Get().ReasoningRejectionsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("reason", "referential_integrity")))
		err := fmt.Errorf("%w: %q", types.ErrReferentialIntegrity, chosen.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Referential integrity violation")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Strict tier produced a recommendation")
	return &types.RecommendationResponse{
		Success:         true,
		Recommendations: candidate.Transform([]types.POIDetailedInfo{*chosenPOI}),
		Source:          types.TierStrict,
		Location:        wctx.Location,
		AIMetadata: &types.AIMetadata{
			Reasoning: chosen.SelectionReasoning,
			FitScore:  chosen.FitScore,
			Strategy:  strategy,
		},
	}, nil
}

// planRound is phase 1: ask the reasoning service for a search
// strategy. A transport or format failure gets one stricter-prompt
// retry; a semantic validation failure is escalated without retry.
func (s *ServiceImpl) planRound(ctx context.Context, wctx *types.WorkflowContext) (*types.RoundDecision, error) {
	roundNumber := wctx.StepNumber

	raw, err := s.callReasoning(ctx, "round_decision", getRoundStrategyPrompt(wctx, roundNumber))
	if err == nil {
		decision, perr := parseRoundDecision(raw)
		if perr == nil {
			if verr := s.validator.ValidateRoundDecision(decision); verr != nil {
				metrics.Get().ReasoningRejectionsTotal.Add(ctx, 1, metric.WithAttributes(
					attribute.String("reason", "semantic_validation")))
				return nil, verr
			}
			return decision, nil
		}
		err = perr
	}

	s.logger.WarnContext(ctx, "Round decision failed, retrying with strict prompt", slog.Any("error", err))
	raw, rerr := s.callReasoning(ctx, "round_decision_retry", getStrictRoundStrategyPrompt(wctx, roundNumber))
	if rerr != nil {
		return nil, fmt.Errorf("round decision failed after retry: %w", rerr)
	}
	decision, perr := parseRoundDecision(raw)
	if perr != nil {
		return nil, fmt.Errorf("round decision still malformed after strict retry: %w", perr)
	}
	if verr := s.validator.ValidateRoundDecision(decision); verr != nil {
		metrics.Get().ReasoningRejectionsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("reason", "semantic_validation")))
		return nil, verr
	}
	return decision, nil
}

// selectPOI is phase 2: ask the reasoning service to pick exactly one
// candidate. Same retry discipline as planRound.
func (s *ServiceImpl) selectPOI(ctx context.Context, wctx *types.WorkflowContext, candidates []types.POIDetailedInfo) (*types.SelectionDecision, error) {
	roundNumber := wctx.StepNumber

	raw, err := s.callReasoning(ctx, "selection_decision", getSelectionPrompt(wctx, candidates, roundNumber))
	if err == nil {
		decision, perr := parseSelectionDecision(raw)
		if perr == nil {
			if verr := s.validator.ValidateSelectionDecision(decision); verr != nil {
				metrics.Get().ReasoningRejectionsTotal.Add(ctx, 1, metric.WithAttributes(
					attribute.String("reason", "semantic_validation")))
				return nil, verr
			}
			return decision, nil
		}
		err = perr
	}

	s.logger.WarnContext(ctx, "Selection decision failed, retrying with strict prompt", slog.Any("error", err))
	raw, rerr := s.callReasoning(ctx, "selection_decision_retry", getStrictSelectionPrompt(candidates, roundNumber))
	if rerr != nil {
		return nil, fmt.Errorf("selection decision failed after retry: %w", rerr)
	}
	decision, perr := parseSelectionDecision(raw)
	if perr != nil {
		return nil, fmt.Errorf("selection decision still malformed after strict retry: %w", perr)
	}
	if verr := s.validator.ValidateSelectionDecision(decision); verr != nil {
		metrics.Get().ReasoningRejectionsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("reason", "semantic_validation")))
		return nil, verr
	}
	return decision, nil
}

func (s *ServiceImpl) callReasoning(ctx context.Context, phase, prompt string) (string, error) {
	if s.aiClient == nil {
		return "", fmt.Errorf("%w: reasoning service not configured", types.ErrServiceUnavailable)
	}
	metrics.Get().ReasoningCallsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", phase)))

	temperature := float32(s.cfg.Temperature)
	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](temperature),
		ResponseMIMEType: "application/json",
	}
	if s.cfg.MaxOutputTokens > 0 {
		genConfig.MaxOutputTokens = s.cfg.MaxOutputTokens
	}

	raw, err := s.aiClient.GenerateContent(ctx, prompt, genConfig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrServiceUnavailable, err)
	}
	return raw, nil
}

func parseRoundDecision(raw string) (*types.RoundDecision, error) {
	jsonStr, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	var decision types.RoundDecision
	if err := json.Unmarshal([]byte(jsonStr), &decision); err != nil {
		return nil, fmt.Errorf("%w: round decision: %v", types.ErrMalformedResponse, err)
	}
	return &decision, nil
}

func parseSelectionDecision(raw string) (*types.SelectionDecision, error) {
	jsonStr, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	var decision types.SelectionDecision
	if err := json.Unmarshal([]byte(jsonStr), &decision); err != nil {
		return nil, fmt.Errorf("%w: selection decision: %v", types.ErrMalformedResponse, err)
	}
	return &decision, nil
}

// --- Enhanced tier: deterministic spatial recommendation ---

// interestCategories maps free-form interests to catalog categories.
var interestCategories = map[string]string{
	"food":      "dining",
	"dining":    "dining",
	"culture":   "attraction",
	"history":   "attraction",
	"temples":   "attraction",
	"nature":    "scenic",
	"hiking":    "activity",
	"adventure": "activity",
	"beaches":   "scenic",
	"views":     "scenic",
}

var defaultRequiredTypes = []string{"attraction", "dining", "activity", "scenic"}

func (s *ServiceImpl) runEnhancedTier(ctx context.Context, wctx *types.WorkflowContext, exclusions types.ExclusionSet) (*types.RecommendationResponse, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "runEnhancedTier")
	defer span.End()

	radiusMeters := s.radiusPolicy.OptimalRadius(wctx.Location, wctx.Preferences, wctx.SelectedPOIs, wctx.StepNumber)

	center := types.LatLng{
		Lat: s.cfg.ReferencePoint.Latitude,
		Lng: s.cfg.ReferencePoint.Longitude,
	}
	if wctx.Location != nil {
		center = types.LatLng{Lat: wctx.Location.Latitude, Lng: wctx.Location.Longitude}
	}

	requiredTypes := make([]string, 0, len(wctx.Preferences.Interests))
	seen := make(map[string]bool)
	for _, interest := range wctx.Preferences.Interests {
		if cat, ok := interestCategories[interest]; ok && !seen[cat] {
			requiredTypes = append(requiredTypes, cat)
			seen[cat] = true
		}
	}
	if len(requiredTypes) == 0 {
		requiredTypes = defaultRequiredTypes
	}

	strategy := &types.SearchStrategy{
		RoundType: "flexible",
		Reasoning: "deterministic spatial recommendation",
		Spatial: types.SpatialStrategy{
			SearchRadiusMeters: radiusMeters,
			Center:             center,
		},
		Criteria: types.POICriteria{
			RequiredTypes: requiredTypes,
		},
	}

	result := s.retriever.Retrieve(ctx, strategy, exclusions)
	ranked := s.processor.Process(result.POIs, wctx.Location, &exclusions, candidate.DefaultResultLimit)
	if len(ranked) == 0 {
		err := fmt.Errorf("spatial tier found no candidates (attempts=%d, radius=%.0fm)",
			result.SearchAttempts, result.FinalRadiusMeters)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty spatial result")
		return nil, err
	}

	span.SetAttributes(attribute.Int("recommendation.count", len(ranked)))
	span.SetStatus(codes.Ok, "Enhanced tier produced recommendations")
	return &types.RecommendationResponse{
		Success:         true,
		Recommendations: candidate.Transform(ranked),
		Source:          types.TierEnhanced,
		Location:        wctx.Location,
		Context:         fmt.Sprintf("spatial search, radius %dm, %d attempts", radiusMeters, result.SearchAttempts),
	}, nil
}

// --- Basic tier: curated static fallback ---

// staticFallbackPOIs backs the basic tier when even the catalog is
// unreachable. Mirrors the curated is_default rows.
var staticFallbackPOIs = []types.POIDetailedInfo{
	{Name: "Sacred Monkey Forest Sanctuary", Category: "attraction", Latitude: -8.5194, Longitude: 115.2592},
	{Name: "Tegallalang Rice Terraces", Category: "scenic", Latitude: -8.4312, Longitude: 115.2779},
	{Name: "Tanah Lot Temple", Category: "attraction", Latitude: -8.6212, Longitude: 115.0868},
	{Name: "Uluwatu Temple", Category: "attraction", Latitude: -8.8291, Longitude: 115.0849},
	{Name: "Campuhan Ridge Walk", Category: "activity", Latitude: -8.5040, Longitude: 115.2550},
	{Name: "Kuta Beach", Category: "scenic", Latitude: -8.7185, Longitude: 115.1675},
}

func (s *ServiceImpl) runBasicTier(ctx context.Context, wctx *types.WorkflowContext, exclusions types.ExclusionSet) (*types.RecommendationResponse, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "runBasicTier")
	defer span.End()

	defaults, err := s.poiService.GetDefaultPOIs(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Default POI catalog unavailable, using static list", slog.Any("error", err))
		span.AddEvent("catalog unavailable, static list used")
		defaults = staticFallbackPOIs
	}

	// No scoring here: filter out excluded/already-selected entries and
	// return the list as-is. The accommodation blocklist still applies;
	// a curated row with a lodging category must not slip through this
	// tier either.
	filtered := make([]types.POIDetailedInfo, 0, len(defaults))
	for _, p := range defaults {
		if exclusions.ContainsName(p.Name) || exclusions.ContainsID(p.ID.String()) || exclusions.ContainsCategory(p.Category) {
			continue
		}
		blocked := false
		for _, cat := range p.AllCategories() {
			if types.IsAccommodationCategory(cat) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		filtered = append(filtered, p)
	}
	if len(filtered) > candidate.DefaultResultLimit {
		filtered = filtered[:candidate.DefaultResultLimit]
	}

	span.SetAttributes(attribute.Int("recommendation.count", len(filtered)))
	span.SetStatus(codes.Ok, "Basic tier produced recommendations")
	return &types.RecommendationResponse{
		Success:         true,
		Recommendations: candidate.Transform(filtered),
		Source:          types.TierBasic,
		Location:        wctx.Location,
		Context:         "static fallback list",
	}, nil
}
