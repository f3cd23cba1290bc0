package candidate

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-poi-recommender/config"
	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

func testWeights() config.ScoringWeights {
	return config.ScoringWeights{
		RatingMax:        30,
		ProximityMax:     20,
		ProximityScaleM:  5000,
		PopularCategory:  15,
		RichDescription:  10,
		DescriptionChars: 120,
		Highlights:       5,
		LocalTips:        5,
	}
}

func testProcessor() *Processor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProcessor(testWeights(), logger)
}

func ratedPOI(name, category string, rating float64) types.POIDetailedInfo {
	return types.POIDetailedInfo{
		ID:       uuid.New(),
		Name:     name,
		Category: category,
		Rating:   &rating,
	}
}

func TestProcessBlocksAccommodation(t *testing.T) {
	p := testProcessor()

	candidates := []types.POIDetailedInfo{
		ratedPOI("Tirta Empul", "temple", 4.6),
		ratedPOI("Grand Beach Resort", "resort", 4.9),
		ratedPOI("Boutique Hotel Ubud", "Boutique Hotel", 5.0),
		{ID: uuid.New(), Name: "Surf Villa", Category: "activity", SecondaryCategories: []string{"villa"}},
	}

	out := p.Process(candidates, nil, nil, 0)
	require.Len(t, out, 1)
	assert.Equal(t, "Tirta Empul", out[0].Name)
}

func TestProcessAppliesExclusions(t *testing.T) {
	p := testProcessor()

	excludedID := uuid.New()
	candidates := []types.POIDetailedInfo{
		ratedPOI("Tegallalang Rice Terraces", "scenic", 4.5),
		{ID: excludedID, Name: "Ubud Art Market", Category: "attraction"},
		ratedPOI("Warung Babi Guling", "dining", 4.7),
	}
	exclusions := &types.ExclusionSet{
		Names: []string{"tegallalang rice terraces"},
		IDs:   []string{excludedID.String()},
	}

	out := p.Process(candidates, nil, exclusions, 0)
	require.Len(t, out, 1)
	assert.Equal(t, "Warung Babi Guling", out[0].Name)
}

func TestProcessDedupes(t *testing.T) {
	p := testProcessor()

	id := uuid.New()
	candidates := []types.POIDetailedInfo{
		{ID: id, Name: "Campuhan Ridge Walk", Category: "activity"},
		{ID: id, Name: "Campuhan Ridge Walk", Category: "activity"},
		{Name: "Sekumpul Waterfall", Category: "waterfall"},
		{Name: "sekumpul waterfall", Category: "waterfall"},
	}

	out := p.Process(candidates, nil, nil, 0)
	assert.Len(t, out, 2)
}

func TestProcessDropsUnnamed(t *testing.T) {
	p := testProcessor()

	out := p.Process([]types.POIDetailedInfo{
		{ID: uuid.New(), Name: "   ", Category: "attraction"},
		ratedPOI("Uluwatu Temple", "temple", 4.7),
	}, nil, nil, 0)

	require.Len(t, out, 1)
	assert.Equal(t, "Uluwatu Temple", out[0].Name)
}

func TestProcessRankingOrder(t *testing.T) {
	p := testProcessor()
	origin := &types.GeoPoint{Latitude: -8.5069, Longitude: 115.2625}

	highClose := ratedPOI("Saraswati Temple", "temple", 4.8)
	highClose.Latitude, highClose.Longitude = -8.5063, 115.2621

	lowFar := ratedPOI("Roadside Stop", "dining", 2.5)
	lowFar.Latitude, lowFar.Longitude = -8.7185, 115.1675

	unrated := types.POIDetailedInfo{ID: uuid.New(), Name: "New Cafe", Category: "dining"}
	unrated.Latitude, unrated.Longitude = -8.5070, 115.2626

	out := p.Process([]types.POIDetailedInfo{lowFar, unrated, highClose}, origin, nil, 0)
	require.Len(t, out, 3)

	assert.Equal(t, "Saraswati Temple", out[0].Name)
	assert.Equal(t, "Roadside Stop", out[2].Name)
	// Absent rating scores the midpoint, so the unrated nearby cafe
	// lands between the two rated entries.
	assert.Equal(t, "New Cafe", out[1].Name)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}

func TestProcessBackfillsDistance(t *testing.T) {
	p := testProcessor()
	origin := &types.GeoPoint{Latitude: -8.5069, Longitude: 115.2625}

	poi := ratedPOI("Monkey Forest", "attraction", 4.5)
	poi.Latitude, poi.Longitude = -8.5194, 115.2592

	out := p.Process([]types.POIDetailedInfo{poi}, origin, nil, 0)
	require.Len(t, out, 1)
	assert.InDelta(t, 1440, out[0].DistanceMeters, 150)
}

func TestProcessZeroDistanceScoresFullProximity(t *testing.T) {
	p := testProcessor()
	origin := &types.GeoPoint{Latitude: -8.5069, Longitude: 115.2625}

	atOrigin := types.POIDetailedInfo{
		ID:        uuid.New(),
		Name:      "Ubud Palace Warung",
		Category:  "dining",
		Latitude:  -8.5069,
		Longitude: 115.2625,
	}

	// At the origin the distance is a real zero: full proximity points
	// on top of the unrated midpoint.
	withOrigin := p.Process([]types.POIDetailedInfo{atOrigin}, origin, nil, 0)
	require.Len(t, withOrigin, 1)
	assert.InDelta(t, 35, withOrigin[0].Score, 0.01)

	// Without an origin a zero distance means unknown, which scores
	// the proximity midpoint instead.
	noOrigin := p.Process([]types.POIDetailedInfo{atOrigin}, nil, nil, 0)
	require.Len(t, noOrigin, 1)
	assert.InDelta(t, 25, noOrigin[0].Score, 0.01)
}

func TestProcessTruncates(t *testing.T) {
	p := testProcessor()

	candidates := make([]types.POIDetailedInfo, 0, 12)
	for i := 0; i < 12; i++ {
		candidates = append(candidates, ratedPOI("POI "+strings.Repeat("x", i+1), "attraction", 4.0))
	}

	assert.Len(t, p.Process(candidates, nil, nil, DefaultResultLimit), DefaultResultLimit)
	assert.Len(t, p.Process(candidates, nil, nil, 0), 12)
}

func TestTransformDefaults(t *testing.T) {
	rating := 4.2
	price := 2
	in := []types.POIDetailedInfo{
		{
			ID:         uuid.New(),
			Name:       "Jatiluwih Rice Terraces",
			Category:   "scenic",
			Latitude:   -8.3689,
			Longitude:  115.1306,
			Rating:     &rating,
			PriceLevel: &price,
			Address:    "Jatiluwih, Tabanan",
		},
		{ID: uuid.New(), Name: "Unrated Spot", Category: "attraction"},
	}

	out := Transform(in)
	require.Len(t, out, 2)

	assert.Equal(t, 4.2, out[0].Rating)
	assert.Equal(t, 2, out[0].PriceLevel)
	assert.Equal(t, "Jatiluwih, Tabanan", out[0].Location.Address)
	assert.Equal(t, 4.2, out[0].Details.Rating)

	// Missing optionals become zero values, slices stay non-nil so the
	// JSON encodes [] instead of null.
	assert.Equal(t, 0.0, out[1].Rating)
	assert.Equal(t, 0, out[1].PriceLevel)
	assert.NotNil(t, out[1].Highlights)
	assert.NotNil(t, out[1].LocalTips)
	assert.NotNil(t, out[1].Amenities)
	assert.NotNil(t, out[1].Tags)
}
