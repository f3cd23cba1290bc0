package radius

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-poi-recommender/config"
	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

func testPolicy() *Policy {
	cfg := config.RecommendationConfig{
		Zones: []config.DensityZone{
			{Name: "ubud", Latitude: -8.5069, Longitude: 115.2625, ExtentM: 8000, BaseRadiusM: 2500},
			{Name: "seminyak-kuta", Latitude: -8.6913, Longitude: 115.1682, ExtentM: 6000, BaseRadiusM: 2000},
			{Name: "north-highlands", Latitude: -8.2754, Longitude: 115.1289, ExtentM: 15000, BaseRadiusM: 6000},
		},
	}
	return NewPolicy(cfg)
}

func ubud() *types.GeoPoint {
	return &types.GeoPoint{Latitude: -8.5069, Longitude: 115.2625}
}

func TestOptimalRadiusNoLocation(t *testing.T) {
	p := testPolicy()

	radius := p.OptimalRadius(nil, types.UserPreferences{Transport: types.TransportCar}, nil, 3)
	assert.Equal(t, 5000, radius)
}

func TestOptimalRadiusDeterministic(t *testing.T) {
	p := testPolicy()
	prefs := types.UserPreferences{Transport: types.TransportBicycle, Pace: types.PaceActive}
	selected := []types.POIDetailedInfo{
		{Latitude: -8.5069, Longitude: 115.2625},
		{Latitude: -8.5194, Longitude: 115.2592},
	}

	first := p.OptimalRadius(ubud(), prefs, selected, 3)
	second := p.OptimalRadius(ubud(), prefs, selected, 3)
	assert.Equal(t, first, second)
}

func TestOptimalRadiusTransportAndPace(t *testing.T) {
	p := testPolicy()

	walkingRelaxed := p.OptimalRadius(ubud(), types.UserPreferences{
		Transport: types.TransportWalking, Pace: types.PaceRelaxed,
	}, nil, 1)
	carActive := p.OptimalRadius(ubud(), types.UserPreferences{
		Transport: types.TransportCar, Pace: types.PaceActive,
	}, nil, 1)

	assert.Greater(t, carActive, walkingRelaxed)
	// walking 1.0 * relaxed 0.8 on the 2500m ubud base
	assert.Equal(t, 2000, walkingRelaxed)
}

func TestOptimalRadiusClampUpper(t *testing.T) {
	p := testPolicy()
	// north-highlands base 6000m, car 2.0, active 1.3 would be 15600m
	loc := &types.GeoPoint{Latitude: -8.2754, Longitude: 115.1289}

	radius := p.OptimalRadius(loc, types.UserPreferences{
		Transport: types.TransportCar, Pace: types.PaceActive,
	}, nil, 1)
	assert.Equal(t, MaxMeters, radius)
}

func TestOptimalRadiusClampLower(t *testing.T) {
	cfg := config.RecommendationConfig{
		Zones: []config.DensityZone{
			{Name: "tiny", Latitude: -8.5069, Longitude: 115.2625, ExtentM: 8000, BaseRadiusM: 600},
		},
	}
	p := NewPolicy(cfg)

	// 600m base * relaxed 0.8 * step-2 0.7 = 336m, below the floor
	radius := p.OptimalRadius(ubud(), types.UserPreferences{Pace: types.PaceRelaxed}, nil, 2)
	assert.Equal(t, MinMeters, radius)
}

func TestOptimalRadiusZoneFallback(t *testing.T) {
	p := testPolicy()
	// Nusa Penida, outside every configured zone extent
	loc := &types.GeoPoint{Latitude: -8.7275, Longitude: 115.5444}

	radius := p.OptimalRadius(loc, types.UserPreferences{}, nil, 1)
	assert.Equal(t, 3000, radius)
}

func TestOptimalRadiusStepTwoTightens(t *testing.T) {
	p := testPolicy()
	prefs := types.UserPreferences{}

	step1 := p.OptimalRadius(ubud(), prefs, nil, 1)
	step2 := p.OptimalRadius(ubud(), prefs, nil, 2)
	assert.Less(t, step2, step1)
}

func TestOptimalRadiusExplorationStyle(t *testing.T) {
	p := testPolicy()
	prefs := types.UserPreferences{}

	// Two stops a few hundred meters apart: concentrated itinerary.
	concentrated := []types.POIDetailedInfo{
		{Latitude: -8.5069, Longitude: 115.2625},
		{Latitude: -8.5095, Longitude: 115.2630},
	}
	// Ubud and Kuta, tens of kilometers apart: exploring itinerary.
	exploring := []types.POIDetailedInfo{
		{Latitude: -8.5069, Longitude: 115.2625},
		{Latitude: -8.7185, Longitude: 115.1675},
	}

	tight := p.OptimalRadius(ubud(), prefs, concentrated, 3)
	wide := p.OptimalRadius(ubud(), prefs, exploring, 3)

	assert.Less(t, tight, wide)
	assert.Equal(t, 2125, tight) // 2500 * 0.85
	assert.Equal(t, 3000, wide)  // 2500 * 1.2
}

func TestOptimalRadiusStepThreeWithoutHistory(t *testing.T) {
	p := testPolicy()

	// Fewer than two prior stops: no exploration signal, neutral factor.
	radius := p.OptimalRadius(ubud(), types.UserPreferences{}, []types.POIDetailedInfo{
		{Latitude: -8.5069, Longitude: 115.2625},
	}, 3)
	assert.Equal(t, 2500, radius)
}
