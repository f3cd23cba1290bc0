package recommendation

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

// Prompt builders for the two protocol phases. Every prompt demands a
// single JSON object with the exact field names of the wire schemas in
// internal/types; those names are load-bearing for the validator.

const roundDecisionSchema = `{
  "action": "search_strategy",
  "round_number": <positive integer>,
  "round_type": "attraction" | "dining" | "activity" | "scenic" | "flexible",
  "reasoning": "<why this strategy fits the trip so far>",
  "spatial_strategy": {
    "search_radius_meters": <integer between 500 and 50000>,
    "center": {"lat": <latitude>, "lng": <longitude>},
    "rationale": "<why search here>"
  },
  "poi_criteria": {
    "required_types": ["<at least one POI type>"],
    "quality_threshold": <number between 1 and 5>,
    "budget_level": "budget" | "moderate" | "premium" | "luxury",
    "exclude_types": ["<optional types to skip>"]
  }
}`

const selectionDecisionSchema = `{
  "action": "select_poi",
  "round_number": <positive integer>,
  "selected_pois": [
    {
      "poi_id": "<identifier of exactly one candidate from the list>",
      "selection_reasoning": "<why this one>",
      "fit_score": <number between 1 and 10>
    }
  ],
  "round_completion_status": "COMPLETE" | "NEEDS_MORE_OPTIONS",
  "rejected_pois": [
    {"poi_id": "<candidate identifier>", "reason": "<why rejected>"}
  ]
}`

func getRoundStrategyPrompt(wctx *types.WorkflowContext, roundNumber int) string {
	var b strings.Builder

	b.WriteString("You are planning one step of a day trip. Decide the search strategy for the next point of interest.\n")

	if wctx.Location != nil {
		fmt.Fprintf(&b, "\nUSER LOCATION: %.5f, %.5f\n", wctx.Location.Latitude, wctx.Location.Longitude)
	}

	prefs := wctx.Preferences
	fmt.Fprintf(&b, `
PREFERENCES:
    - Transport: %s
    - Pace: %s
    - Budget Level: %d (0=any, 1=cheap, 4=expensive)
`, orAny(prefs.Transport), orAny(prefs.Pace), prefs.BudgetLevel)
	if len(prefs.Interests) > 0 {
		fmt.Fprintf(&b, "    - Interests: [%s]\n", strings.Join(prefs.Interests, ", "))
	}

	if len(wctx.SelectedPOIs) == 0 {
		// Initial round: nothing chosen yet, anchor the day.
		b.WriteString("\nThis is the FIRST stop of the trip. Choose an anchor that sets the tone for the day, close to the user's location.\n")
	} else {
		b.WriteString("\nALREADY SELECTED (do not repeat, keep spatial and thematic continuity):\n")
		for i, p := range wctx.SelectedPOIs {
			fmt.Fprintf(&b, "    %d. %s (%s) at %.5f, %.5f\n", i+1, p.Name, p.Category, p.Latitude, p.Longitude)
		}
		fmt.Fprintf(&b, "\nThis is step %d of the trip. Balance variety against travel distance from the previous stops.\n", wctx.StepNumber)
	}

	fmt.Fprintf(&b, "\nRespond with ONLY a single JSON object, no prose, no markdown, matching exactly:\n%s\n", roundDecisionSchema)
	fmt.Fprintf(&b, "\nUse round_number %d.\n", roundNumber)
	return b.String()
}

// getStrictRoundStrategyPrompt is the shortened retry variant used after
// a malformed first response.
func getStrictRoundStrategyPrompt(wctx *types.WorkflowContext, roundNumber int) string {
	var b strings.Builder
	b.WriteString("Return ONLY valid JSON. No explanation, no markdown fences, no text before or after the object.\n")
	if wctx.Location != nil {
		fmt.Fprintf(&b, "User is at %.5f, %.5f. ", wctx.Location.Latitude, wctx.Location.Longitude)
	}
	fmt.Fprintf(&b, "Pick a search strategy for trip step %d.\n", wctx.StepNumber)
	fmt.Fprintf(&b, "Schema:\n%s\nUse round_number %d.\n", roundDecisionSchema, roundNumber)
	return b.String()
}

func getSelectionPrompt(wctx *types.WorkflowContext, candidates []types.POIDetailedInfo, roundNumber int) string {
	var b strings.Builder

	b.WriteString("Pick exactly ONE point of interest for the next trip stop from the candidates below. You must use a poi_id from this list and no other.\n\nCANDIDATES:\n")
	b.WriteString(formatCandidates(candidates))

	if len(wctx.SelectedPOIs) > 0 {
		b.WriteString("\nALREADY SELECTED:\n")
		for _, p := range wctx.SelectedPOIs {
			fmt.Fprintf(&b, "    - %s (%s)\n", p.Name, p.Category)
		}
	}

	fmt.Fprintf(&b, "\nRespond with ONLY a single JSON object, no prose, no markdown, matching exactly:\n%s\n", selectionDecisionSchema)
	fmt.Fprintf(&b, "\nUse round_number %d. selected_pois must contain exactly one entry.\n", roundNumber)
	return b.String()
}

// getStrictSelectionPrompt is the shortened retry variant used after a
// malformed first response.
func getStrictSelectionPrompt(candidates []types.POIDetailedInfo, roundNumber int) string {
	var b strings.Builder
	b.WriteString("Return ONLY valid JSON. No explanation, no markdown fences.\n")
	b.WriteString("Choose one poi_id from:\n")
	b.WriteString(formatCandidates(candidates))
	fmt.Fprintf(&b, "\nSchema:\n%s\nUse round_number %d.\n", selectionDecisionSchema, roundNumber)
	return b.String()
}

func formatCandidates(candidates []types.POIDetailedInfo) string {
	var b strings.Builder
	for _, c := range candidates {
		rating := "unrated"
		if c.Rating != nil {
			rating = fmt.Sprintf("%.1f/5", *c.Rating)
		}
		// Truncate on a rune boundary; a byte slice could split a
		// multi-byte character and feed invalid UTF-8 downstream.
		desc := c.Description
		if runes := []rune(desc); len(runes) > 160 {
			desc = string(runes[:160]) + "..."
		}
		fmt.Fprintf(&b, "    - poi_id: %s | %s | %s | %.5f, %.5f | %s | %s\n",
			c.ID, c.Name, c.Category, c.Latitude, c.Longitude, rating, desc)
	}
	return b.String()
}

func orAny(v string) string {
	if v == "" {
		return "any"
	}
	return v
}
