package recommendation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

// Validator performs structural and semantic validation of reasoning
// service decisions. It does no I/O and is idempotent: validating the
// same payload twice yields the same result.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Radius bounds the reasoning service may request.
const (
	strategyRadiusMin = 500
	strategyRadiusMax = 50000
)

// ValidateRoundDecision checks every required field of a phase-1
// decision. A nil return means the decision can be trusted.
func (v *Validator) ValidateRoundDecision(d *types.RoundDecision) error {
	verr := &types.ValidationError{Decision: "round_decision"}

	if d.Action != types.ActionSearchStrategy {
		verr.Add("action", `sentinel "`+types.ActionSearchStrategy+`"`, d.Action)
	}
	if d.RoundNumber <= 0 {
		verr.Add("round_number", "positive integer", d.RoundNumber)
	}
	if !slices.Contains(types.RoundTypes, d.RoundType) {
		verr.Add("round_type", "one of "+strings.Join(types.RoundTypes, "|"), d.RoundType)
	}
	if strings.TrimSpace(d.Reasoning) == "" {
		verr.Add("reasoning", "non-empty string", d.Reasoning)
	}

	radius := d.SpatialStrategy.SearchRadiusMeters
	if radius < strategyRadiusMin || radius > strategyRadiusMax {
		verr.Add("spatial_strategy.search_radius_meters", "integer in [500,50000]", radius)
	}
	center := d.SpatialStrategy.Center.GeoPoint()
	if !center.Valid() {
		verr.Add("spatial_strategy.center", "valid lat/lng coordinates", d.SpatialStrategy.Center)
	}

	if len(d.POICriteria.RequiredTypes) == 0 {
		verr.Add("poi_criteria.required_types", "non-empty list", d.POICriteria.RequiredTypes)
	}
	if d.POICriteria.QualityThreshold < 1 || d.POICriteria.QualityThreshold > 5 {
		verr.Add("poi_criteria.quality_threshold", "numeric in [1,5]", d.POICriteria.QualityThreshold)
	}
	if d.POICriteria.BudgetLevel != "" && !slices.Contains(types.BudgetLevels, d.POICriteria.BudgetLevel) {
		verr.Add("poi_criteria.budget_level", "one of "+strings.Join(types.BudgetLevels, "|"), d.POICriteria.BudgetLevel)
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// ValidateSelectionDecision checks every required field of a phase-2
// decision. Membership of the selected id in the candidate set is a
// separate referential check done by the caller.
func (v *Validator) ValidateSelectionDecision(d *types.SelectionDecision) error {
	verr := &types.ValidationError{Decision: "selection_decision"}

	if d.Action != types.ActionSelectPOI {
		verr.Add("action", `sentinel "`+types.ActionSelectPOI+`"`, d.Action)
	}
	if d.RoundNumber <= 0 {
		verr.Add("round_number", "positive integer", d.RoundNumber)
	}
	if len(d.SelectedPOIs) == 0 {
		verr.Add("selected_pois", "non-empty list", d.SelectedPOIs)
	}
	for i, sel := range d.SelectedPOIs {
		if strings.TrimSpace(sel.ID) == "" {
			verr.Add(field("selected_pois", i, "poi_id"), "non-empty identifier", sel.ID)
		}
		if strings.TrimSpace(sel.SelectionReasoning) == "" {
			verr.Add(field("selected_pois", i, "selection_reasoning"), "non-empty string", sel.SelectionReasoning)
		}
		if sel.FitScore < 1 || sel.FitScore > 10 {
			verr.Add(field("selected_pois", i, "fit_score"), "numeric in [1,10]", sel.FitScore)
		}
	}
	if d.RoundCompletionStatus != types.RoundStatusComplete && d.RoundCompletionStatus != types.RoundStatusNeedsMoreOptions {
		verr.Add("round_completion_status",
			types.RoundStatusComplete+"|"+types.RoundStatusNeedsMoreOptions,
			d.RoundCompletionStatus)
	}
	for i, rej := range d.RejectedPOIs {
		if strings.TrimSpace(rej.ID) == "" {
			verr.Add(field("rejected_pois", i, "poi_id"), "non-empty identifier", rej.ID)
		}
		if strings.TrimSpace(rej.Reason) == "" {
			verr.Add(field("rejected_pois", i, "reason"), "non-empty string", rej.Reason)
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func field(list string, idx int, name string) string {
	return fmt.Sprintf("%s[%d].%s", list, idx, name)
}

// Reasoning service strings may later be rendered by clients, so
// executable-markup patterns are stripped before a decision leaves the
// service.
var (
	scriptTagPattern = regexp.MustCompile(`(?is)<\s*/?\s*(script|iframe|object|embed)[^>]*>`)
	eventHandlerRe   = regexp.MustCompile(`(?i)\bon\w+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	javascriptURLRe  = regexp.MustCompile(`(?i)javascript\s*:`)
)

func sanitizeString(s string) string {
	s = scriptTagPattern.ReplaceAllString(s, "")
	s = eventHandlerRe.ReplaceAllString(s, "")
	s = javascriptURLRe.ReplaceAllString(s, "")
	return s
}

// SanitizeRoundDecision strips executable-markup patterns from every
// free-text field in place.
func (v *Validator) SanitizeRoundDecision(d *types.RoundDecision) {
	d.Reasoning = sanitizeString(d.Reasoning)
	d.SpatialStrategy.Rationale = sanitizeString(d.SpatialStrategy.Rationale)
}

// SanitizeSelectionDecision strips executable-markup patterns from
// every free-text field in place.
func (v *Validator) SanitizeSelectionDecision(d *types.SelectionDecision) {
	for i := range d.SelectedPOIs {
		d.SelectedPOIs[i].SelectionReasoning = sanitizeString(d.SelectedPOIs[i].SelectionReasoning)
	}
	for i := range d.RejectedPOIs {
		d.RejectedPOIs[i].Reason = sanitizeString(d.RejectedPOIs[i].Reason)
	}
}
