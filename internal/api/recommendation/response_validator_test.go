package recommendation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

func validRoundDecision() *types.RoundDecision {
	return &types.RoundDecision{
		Action:      types.ActionSearchStrategy,
		RoundNumber: 2,
		RoundType:   "dining",
		Reasoning:   "lunch after two temples",
		SpatialStrategy: types.SpatialStrategy{
			SearchRadiusMeters: 2000,
			Center:             types.LatLng{Lat: -8.5069, Lng: 115.2625},
			Rationale:          "stay near the current cluster",
		},
		POICriteria: types.POICriteria{
			RequiredTypes:    []string{"dining"},
			QualityThreshold: 4,
			BudgetLevel:      "moderate",
		},
	}
}

func validSelectionDecision() *types.SelectionDecision {
	return &types.SelectionDecision{
		Action:      types.ActionSelectPOI,
		RoundNumber: 2,
		SelectedPOIs: []types.SelectedPOI{
			{ID: "a1b2", SelectionReasoning: "closest highly rated warung", FitScore: 8},
		},
		RoundCompletionStatus: types.RoundStatusComplete,
		RejectedPOIs: []types.RejectedPOI{
			{ID: "c3d4", Reason: "too far from the cluster"},
		},
	}
}

func fieldNames(err error) []string {
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidateRoundDecisionAccepts(t *testing.T) {
	v := NewValidator()
	d := validRoundDecision()

	assert.NoError(t, v.ValidateRoundDecision(d))
	// idempotent: a second pass over the same payload agrees
	assert.NoError(t, v.ValidateRoundDecision(d))
}

func TestValidateRoundDecisionFields(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name   string
		mutate func(*types.RoundDecision)
		field  string
	}{
		{"wrong action", func(d *types.RoundDecision) { d.Action = "select_poi" }, "action"},
		{"zero round", func(d *types.RoundDecision) { d.RoundNumber = 0 }, "round_number"},
		{"unknown round type", func(d *types.RoundDecision) { d.RoundType = "shopping" }, "round_type"},
		{"blank reasoning", func(d *types.RoundDecision) { d.Reasoning = "   " }, "reasoning"},
		{"radius too small", func(d *types.RoundDecision) { d.SpatialStrategy.SearchRadiusMeters = 100 }, "spatial_strategy.search_radius_meters"},
		{"radius too large", func(d *types.RoundDecision) { d.SpatialStrategy.SearchRadiusMeters = 60000 }, "spatial_strategy.search_radius_meters"},
		{"invalid center", func(d *types.RoundDecision) { d.SpatialStrategy.Center.Lat = 95 }, "spatial_strategy.center"},
		{"no required types", func(d *types.RoundDecision) { d.POICriteria.RequiredTypes = nil }, "poi_criteria.required_types"},
		{"quality below range", func(d *types.RoundDecision) { d.POICriteria.QualityThreshold = 0 }, "poi_criteria.quality_threshold"},
		{"quality above range", func(d *types.RoundDecision) { d.POICriteria.QualityThreshold = 6 }, "poi_criteria.quality_threshold"},
		{"unknown budget", func(d *types.RoundDecision) { d.POICriteria.BudgetLevel = "free" }, "poi_criteria.budget_level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validRoundDecision()
			tc.mutate(d)
			err := v.ValidateRoundDecision(d)
			require.Error(t, err)
			assert.Contains(t, fieldNames(err), tc.field)
		})
	}
}

func TestValidateRoundDecisionBudgetOptional(t *testing.T) {
	v := NewValidator()
	d := validRoundDecision()
	d.POICriteria.BudgetLevel = ""

	assert.NoError(t, v.ValidateRoundDecision(d))
}

func TestValidateSelectionDecisionAccepts(t *testing.T) {
	v := NewValidator()
	d := validSelectionDecision()

	assert.NoError(t, v.ValidateSelectionDecision(d))
	assert.NoError(t, v.ValidateSelectionDecision(d))
}

func TestValidateSelectionDecisionFields(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name   string
		mutate func(*types.SelectionDecision)
		field  string
	}{
		{"wrong action", func(d *types.SelectionDecision) { d.Action = "search_strategy" }, "action"},
		{"zero round", func(d *types.SelectionDecision) { d.RoundNumber = 0 }, "round_number"},
		{"no selection", func(d *types.SelectionDecision) { d.SelectedPOIs = nil }, "selected_pois"},
		{"blank id", func(d *types.SelectionDecision) { d.SelectedPOIs[0].ID = " " }, "selected_pois[0].poi_id"},
		{"blank reasoning", func(d *types.SelectionDecision) { d.SelectedPOIs[0].SelectionReasoning = "" }, "selected_pois[0].selection_reasoning"},
		{"fit score low", func(d *types.SelectionDecision) { d.SelectedPOIs[0].FitScore = 0 }, "selected_pois[0].fit_score"},
		{"fit score high", func(d *types.SelectionDecision) { d.SelectedPOIs[0].FitScore = 11 }, "selected_pois[0].fit_score"},
		{"bad status", func(d *types.SelectionDecision) { d.RoundCompletionStatus = "DONE" }, "round_completion_status"},
		{"rejection without reason", func(d *types.SelectionDecision) { d.RejectedPOIs[0].Reason = "" }, "rejected_pois[0].reason"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validSelectionDecision()
			tc.mutate(d)
			err := v.ValidateSelectionDecision(d)
			require.Error(t, err)
			assert.Contains(t, fieldNames(err), tc.field)
		})
	}
}

func TestSanitizeStripsExecutableMarkup(t *testing.T) {
	v := NewValidator()

	d := validRoundDecision()
	d.Reasoning = `start nearby <script>alert("x")</script> please`
	d.SpatialStrategy.Rationale = `<iframe src="evil"></iframe>center of town`
	v.SanitizeRoundDecision(d)
	assert.NotContains(t, d.Reasoning, "<script>")
	assert.NotContains(t, d.SpatialStrategy.Rationale, "<iframe")
	assert.Contains(t, d.Reasoning, "start nearby")
	assert.Contains(t, d.SpatialStrategy.Rationale, "center of town")

	sel := validSelectionDecision()
	sel.SelectedPOIs[0].SelectionReasoning = `great spot onclick="steal()" truly`
	sel.RejectedPOIs[0].Reason = `javascript:void(0) too crowded`
	v.SanitizeSelectionDecision(sel)
	assert.NotContains(t, sel.SelectedPOIs[0].SelectionReasoning, "onclick")
	assert.NotContains(t, sel.RejectedPOIs[0].Reason, "javascript:")
	assert.Contains(t, sel.RejectedPOIs[0].Reason, "too crowded")
}

func TestSanitizeIdempotent(t *testing.T) {
	v := NewValidator()
	d := validSelectionDecision()
	d.SelectedPOIs[0].SelectionReasoning = `fine <script>x</script> spot`

	v.SanitizeSelectionDecision(d)
	once := d.SelectedPOIs[0].SelectionReasoning
	v.SanitizeSelectionDecision(d)
	assert.Equal(t, once, d.SelectedPOIs[0].SelectionReasoning)
}
