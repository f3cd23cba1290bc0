package types

import "strings"

// Transport and pace values accepted from callers. Anything else falls
// back to the walking/neutral multipliers.
const (
	TransportWalking = "walking"
	TransportBicycle = "bicycle"
	TransportCar     = "car"
	TransportPublic  = "public"

	PaceRelaxed = "relaxed"
	PaceActive  = "active"
)

// Recommendation source tiers, in cascade order.
const (
	TierStrict   = "ai_strict"
	TierEnhanced = "spatial_enhanced"
	TierBasic    = "static_basic"
)

// UserPreferences is the caller-supplied preference set for one request.
type UserPreferences struct {
	Transport   string   `json:"transport,omitempty"`
	Pace        string   `json:"pace,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	BudgetLevel int      `json:"budget_level,omitempty"`
}

// accommodationBlocklist are the categories that must never surface in
// any recommendation output, regardless of caller exclusions.
var accommodationBlocklist = []string{
	"hotel", "lodging", "resort", "guesthouse", "villa",
	"apartment", "hostel", "vacation rental",
}

// AccommodationBlocklist returns a copy of the always-on category blocklist.
func AccommodationBlocklist() []string {
	out := make([]string, len(accommodationBlocklist))
	copy(out, accommodationBlocklist)
	return out
}

// IsAccommodationCategory reports whether the category is blocklisted,
// matching case-insensitively on containment so "Boutique Hotel" is
// caught as well as "hotel".
func IsAccommodationCategory(category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return false
	}
	for _, blocked := range accommodationBlocklist {
		if strings.Contains(c, blocked) {
			return true
		}
	}
	return false
}

// ExclusionSet is the per-request suppression list. The accommodation
// blocklist is always applied on top of it.
type ExclusionSet struct {
	Names      []string `json:"names,omitempty"`
	IDs        []string `json:"ids,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// ContainsName matches case-insensitively.
func (e *ExclusionSet) ContainsName(name string) bool {
	for _, n := range e.Names {
		if strings.EqualFold(strings.TrimSpace(n), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

func (e *ExclusionSet) ContainsID(id string) bool {
	for _, v := range e.IDs {
		if v == id {
			return true
		}
	}
	return false
}

func (e *ExclusionSet) ContainsCategory(category string) bool {
	for _, c := range e.Categories {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(category)) {
			return true
		}
	}
	return false
}

// WorkflowContext is the request-scoped state of one recommendation
// round. It is built at request start and discarded with the response;
// nothing in it survives across requests.
type WorkflowContext struct {
	Location     *GeoPoint         `json:"location,omitempty"`
	Preferences  UserPreferences   `json:"preferences"`
	SelectedPOIs []POIDetailedInfo `json:"selected_pois,omitempty"`
	StepNumber   int               `json:"step_number"`
	Exclusions   ExclusionSet      `json:"exclusions"`
	Tier         string            `json:"tier,omitempty"`
}

// RecommendedPOI is the caller-facing transformed shape: flattened
// coordinates for new clients plus nested location/details blocks kept
// for compatibility with older ones.
type RecommendedPOI struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Rating         float64  `json:"rating"`
	PriceLevel     int      `json:"price_level"`
	DistanceMeters float64  `json:"distance_meters"`
	Score          float64  `json:"score"`
	Highlights     []string `json:"highlights"`
	LocalTips      []string `json:"local_tips"`
	Amenities      []string `json:"amenities"`
	Tags           []string `json:"tags"`

	Location RecommendedPOILocation `json:"location"`
	Details  RecommendedPOIDetails  `json:"details"`
}

type RecommendedPOILocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

type RecommendedPOIDetails struct {
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating"`
	PriceLevel  int     `json:"price_level"`
}

// AIMetadata is attached to responses produced by the strict tier.
type AIMetadata struct {
	Reasoning string          `json:"reasoning"`
	FitScore  float64         `json:"fit_score"`
	Strategy  *SearchStrategy `json:"strategy,omitempty"`
}

// RecommendationResponse is the exposed result of one round.
type RecommendationResponse struct {
	Success         bool             `json:"success"`
	Recommendations []RecommendedPOI `json:"recommendations"`
	Source          string           `json:"source"`
	Location        *GeoPoint        `json:"location,omitempty"`
	Context         string           `json:"context,omitempty"`
	AIMetadata      *AIMetadata      `json:"aiMetadata,omitempty"`
}
