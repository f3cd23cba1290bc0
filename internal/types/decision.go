package types

// Wire schemas exchanged with the reasoning service. Field names are a
// stable protocol: renaming any required key breaks both prompt and
// validator at once, so change them only together.

// Action sentinels the reasoning service must echo back.
const (
	ActionSearchStrategy = "search_strategy"
	ActionSelectPOI      = "select_poi"
)

// Round completion statuses for a SelectionDecision.
const (
	RoundStatusComplete         = "COMPLETE"
	RoundStatusNeedsMoreOptions = "NEEDS_MORE_OPTIONS"
)

// RoundTypes the reasoning service may choose from in phase 1.
var RoundTypes = []string{"attraction", "dining", "activity", "scenic", "flexible"}

// BudgetLevels accepted in poi_criteria.budget_level.
var BudgetLevels = []string{"budget", "moderate", "premium", "luxury"}

// LatLng is the wire coordinate shape used inside decisions; the rest
// of the codebase uses GeoPoint with long key names.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l LatLng) GeoPoint() GeoPoint {
	return GeoPoint{Latitude: l.Lat, Longitude: l.Lng}
}

// SpatialStrategy is where and how wide to search.
type SpatialStrategy struct {
	SearchRadiusMeters int    `json:"search_radius_meters"`
	Center             LatLng `json:"center"`
	Rationale          string `json:"rationale,omitempty"`
}

// POICriteria narrows the candidate query.
type POICriteria struct {
	RequiredTypes    []string `json:"required_types"`
	QualityThreshold float64  `json:"quality_threshold"`
	BudgetLevel      string   `json:"budget_level,omitempty"`
	ExcludeTypes     []string `json:"exclude_types,omitempty"`
}

// SearchStrategy is the validated phase-1 output: what to search for
// and why. RoundDecision is its raw wire form including the action
// sentinel and round number used for validation.
type SearchStrategy struct {
	RoundType string          `json:"round_type"`
	Reasoning string          `json:"reasoning"`
	Spatial   SpatialStrategy `json:"spatial"`
	Criteria  POICriteria     `json:"criteria"`
}

type RoundDecision struct {
	Action          string          `json:"action"`
	RoundNumber     int             `json:"round_number"`
	RoundType       string          `json:"round_type"`
	Reasoning       string          `json:"reasoning"`
	SpatialStrategy SpatialStrategy `json:"spatial_strategy"`
	POICriteria     POICriteria     `json:"poi_criteria"`
}

// Strategy converts a validated RoundDecision into the SearchStrategy
// consumed by the retriever.
func (d *RoundDecision) Strategy() *SearchStrategy {
	return &SearchStrategy{
		RoundType: d.RoundType,
		Reasoning: d.Reasoning,
		Spatial:   d.SpatialStrategy,
		Criteria:  d.POICriteria,
	}
}

// SelectedPOI is one chosen candidate in a SelectionDecision. The
// protocol asks for exactly one but the wire shape is a list.
type SelectedPOI struct {
	ID                 string  `json:"poi_id"`
	SelectionReasoning string  `json:"selection_reasoning"`
	FitScore           float64 `json:"fit_score"`
}

type RejectedPOI struct {
	ID     string `json:"poi_id"`
	Reason string `json:"reason"`
}

// SelectionDecision is the phase-2 output of the reasoning service.
// The selected identifier is only trusted after it has been checked
// against the candidate set it was shown.
type SelectionDecision struct {
	Action                string        `json:"action"`
	RoundNumber           int           `json:"round_number"`
	SelectedPOIs          []SelectedPOI `json:"selected_pois"`
	RoundCompletionStatus string        `json:"round_completion_status"`
	RejectedPOIs          []RejectedPOI `json:"rejected_pois,omitempty"`
}
