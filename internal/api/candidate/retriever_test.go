package candidate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-poi-recommender/app/observability/metrics"
	"github.com/FACorreiaa/go-poi-recommender/config"
	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

type MockPOIService struct {
	mock.Mock
}

func (m *MockPOIService) SearchPOIs(ctx context.Context, filter types.POIFilter) ([]types.POIDetailedInfo, error) {
	args := m.Called(ctx, filter)
	if pois := args.Get(0); pois != nil {
		return pois.([]types.POIDetailedInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPOIService) GetDefaultPOIs(ctx context.Context) ([]types.POIDetailedInfo, error) {
	args := m.Called(ctx)
	if pois := args.Get(0); pois != nil {
		return pois.([]types.POIDetailedInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func testRetrieverConfig() config.RecommendationConfig {
	cfg := config.RecommendationConfig{
		MinCandidates:    5,
		MaxAttempts:      3,
		CandidateLimit:   15,
		ExpansionFactor:  1.8,
		MaxSearchRadiusM: 10000,
		IslandRadiusM:    25000,
	}
	cfg.ReferencePoint.Latitude = -8.5069
	cfg.ReferencePoint.Longitude = 115.2625
	return cfg
}

func testStrategy(radiusMeters int) *types.SearchStrategy {
	return &types.SearchStrategy{
		RoundType: "attraction",
		Spatial: types.SpatialStrategy{
			SearchRadiusMeters: radiusMeters,
			Center:             types.LatLng{Lat: -8.5069, Lng: 115.2625},
		},
		Criteria: types.POICriteria{
			RequiredTypes:    []string{"attraction"},
			QualityThreshold: 3,
		},
	}
}

func somePOIs(n int) []types.POIDetailedInfo {
	out := make([]types.POIDetailedInfo, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, types.POIDetailedInfo{
			ID:       uuid.New(),
			Name:     uuid.NewString(),
			Category: "attraction",
		})
	}
	return out
}

func newTestRetriever(svc *MockPOIService) *Retriever {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRetriever(svc, testRetrieverConfig(), logger)
}

func TestRetrieveWidensUntilEnough(t *testing.T) {
	svc := new(MockPOIService)
	svc.On("SearchPOIs", mock.Anything, mock.Anything).Return(somePOIs(2), nil).Once()
	svc.On("SearchPOIs", mock.Anything, mock.Anything).Return(somePOIs(8), nil).Once()

	r := newTestRetriever(svc)
	result := r.Retrieve(context.Background(), testStrategy(2000), types.ExclusionSet{})

	require.NotNil(t, result)
	assert.True(t, result.SearchSuccess)
	assert.False(t, result.IslandWide)
	assert.Equal(t, 2, result.SearchAttempts)
	assert.Len(t, result.POIs, 8)
	// widened once: 2000 * 1.8
	assert.Equal(t, 3600.0, result.FinalRadiusMeters)
	svc.AssertExpectations(t)
}

func TestRetrieveErrorsCountAsEmptyAttempts(t *testing.T) {
	svc := new(MockPOIService)
	svc.On("SearchPOIs", mock.Anything, mock.Anything).Return(nil, errors.New("index down")).Times(3)
	svc.On("SearchPOIs", mock.Anything, mock.Anything).Return(somePOIs(3), nil).Once()

	r := newTestRetriever(svc)
	result := r.Retrieve(context.Background(), testStrategy(2000), types.ExclusionSet{})

	require.NotNil(t, result)
	assert.True(t, result.IslandWide)
	assert.Equal(t, 4, result.SearchAttempts)
	assert.True(t, result.SearchSuccess)
	assert.Len(t, result.POIs, 3)
	assert.Equal(t, 25000.0, result.FinalRadiusMeters)
	svc.AssertExpectations(t)
}

func TestRetrieveIslandWideEmptyIsTerminal(t *testing.T) {
	svc := new(MockPOIService)
	svc.On("SearchPOIs", mock.Anything, mock.Anything).Return([]types.POIDetailedInfo{}, nil)

	r := newTestRetriever(svc)
	result := r.Retrieve(context.Background(), testStrategy(2000), types.ExclusionSet{})

	require.NotNil(t, result)
	assert.False(t, result.SearchSuccess)
	assert.True(t, result.IslandWide)
	assert.Equal(t, 4, result.SearchAttempts)
	assert.Empty(t, result.POIs)
	svc.AssertNumberOfCalls(t, "SearchPOIs", 4)
}

func TestRetrieveIslandWideUsesReferencePoint(t *testing.T) {
	svc := new(MockPOIService)
	var lastFilter types.POIFilter
	svc.On("SearchPOIs", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			lastFilter = args.Get(1).(types.POIFilter)
		}).
		Return([]types.POIDetailedInfo{}, nil)

	r := newTestRetriever(svc)
	r.Retrieve(context.Background(), testStrategy(2000), types.ExclusionSet{})

	require.NotNil(t, lastFilter.Center)
	assert.InDelta(t, -8.5069, lastFilter.Center.Latitude, 0.0001)
	assert.InDelta(t, 115.2625, lastFilter.Center.Longitude, 0.0001)
	assert.Equal(t, 25000.0, lastFilter.RadiusMeters)
}

func TestRetrieveClampsStrategyRadius(t *testing.T) {
	svc := new(MockPOIService)
	var firstFilter types.POIFilter
	svc.On("SearchPOIs", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			if firstFilter.RadiusMeters == 0 {
				firstFilter = args.Get(1).(types.POIFilter)
			}
		}).
		Return(somePOIs(6), nil)

	r := newTestRetriever(svc)
	result := r.Retrieve(context.Background(), testStrategy(100), types.ExclusionSet{})

	assert.True(t, result.SearchSuccess)
	assert.Equal(t, 500.0, firstFilter.RadiusMeters)
}

func TestRetrieveFilterCarriesExclusions(t *testing.T) {
	svc := new(MockPOIService)
	var captured types.POIFilter
	svc.On("SearchPOIs", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(types.POIFilter)
		}).
		Return(somePOIs(6), nil)

	excludedID := uuid.New()
	strategy := testStrategy(2000)
	strategy.Criteria.ExcludeTypes = []string{"museum"}
	strategy.Criteria.BudgetLevel = "moderate"

	r := newTestRetriever(svc)
	r.Retrieve(context.Background(), strategy, types.ExclusionSet{
		Names:      []string{"Skipped Temple"},
		IDs:        []string{excludedID.String(), "not-a-uuid"},
		Categories: []string{"nightclub"},
	})

	assert.Contains(t, captured.ExcludeCategories, "hotel")
	assert.Contains(t, captured.ExcludeCategories, "museum")
	assert.Contains(t, captured.ExcludeCategories, "nightclub")
	assert.Equal(t, []string{"Skipped Temple"}, captured.ExcludeNames)
	// unparsable ids are skipped, not passed through
	assert.Equal(t, []uuid.UUID{excludedID}, captured.ExcludeIDs)
	assert.Equal(t, 2, captured.MaxPriceLevel)
	assert.Equal(t, float64(3), captured.MinRating)
}
