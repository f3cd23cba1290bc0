package radius

import (
	"math"

	"github.com/FACorreiaa/go-poi-recommender/config"
	"github.com/FACorreiaa/go-poi-recommender/internal/api/poi"
	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

// Radius bounds for this stage. The retriever may widen past MaxMeters
// on its own retry schedule; the policy itself never exceeds it.
const (
	MinMeters = 500
	MaxMeters = 8000

	// defaultAttractionMeters is returned when no user location is
	// available and the search degrades to an attraction-style lookup.
	defaultAttractionMeters = 5000

	// fallbackBaseMeters applies when the location matches no
	// configured density zone.
	fallbackBaseMeters = 3000

	// concentratedThresholdMeters splits the exploration-style signal:
	// an average pairwise distance below it means the trip so far stays
	// in one area.
	concentratedThresholdMeters = 3000
)

// Multipliers per transport mode and pace.
var transportFactors = map[string]float64{
	types.TransportWalking: 1.0,
	types.TransportBicycle: 1.5,
	types.TransportCar:     2.0,
	types.TransportPublic:  1.3,
}

var paceFactors = map[string]float64{
	types.PaceRelaxed: 0.8,
	types.PaceActive:  1.3,
}

// Policy computes the optimal search radius for one recommendation
// step. It is a pure function of its inputs plus the zone table it was
// constructed with; identical arguments always produce the same radius.
type Policy struct {
	zones []config.DensityZone
}

func NewPolicy(cfg config.RecommendationConfig) *Policy {
	return &Policy{zones: cfg.Zones}
}

// OptimalRadius returns a radius in meters clamped to [MinMeters, MaxMeters].
func (p *Policy) OptimalRadius(location *types.GeoPoint, prefs types.UserPreferences, selected []types.POIDetailedInfo, stepNumber int) int {
	if location == nil {
		return clamp(defaultAttractionMeters)
	}

	radius := float64(p.baseRadius(*location))

	if f, ok := transportFactors[prefs.Transport]; ok {
		radius *= f
	}
	if f, ok := paceFactors[prefs.Pace]; ok {
		radius *= f
	}
	radius *= stepFactor(selected, stepNumber)

	return clamp(int(math.Round(radius)))
}

// baseRadius looks the location up in the density zone table; the first
// zone whose extent contains the point wins.
func (p *Policy) baseRadius(location types.GeoPoint) int {
	for _, zone := range p.zones {
		d := poi.HaversineMeters(location.Latitude, location.Longitude, zone.Latitude, zone.Longitude)
		if d <= float64(zone.ExtentM) {
			return zone.BaseRadiusM
		}
	}
	return fallbackBaseMeters
}

// stepFactor keeps step 2 tight so early legs stay coherent, then from
// step 3 on follows the exploration style of the trip so far.
func stepFactor(selected []types.POIDetailedInfo, stepNumber int) float64 {
	switch {
	case stepNumber <= 1:
		return 1.0
	case stepNumber == 2:
		return 0.7
	default:
		avg, ok := averagePairwiseDistance(selected)
		if !ok {
			return 1.0
		}
		if avg < concentratedThresholdMeters {
			// concentrated itinerary, keep it tight
			return 0.85
		}
		// exploring itinerary, widen
		return 1.2
	}
}

// averagePairwiseDistance returns the mean haversine distance between
// all pairs of already-selected POIs. Needs at least two points.
func averagePairwiseDistance(selected []types.POIDetailedInfo) (float64, bool) {
	if len(selected) < 2 {
		return 0, false
	}
	var sum float64
	var pairs int
	for i := 0; i < len(selected); i++ {
		for j := i + 1; j < len(selected); j++ {
			sum += poi.HaversineMeters(
				selected[i].Latitude, selected[i].Longitude,
				selected[j].Latitude, selected[j].Longitude,
			)
			pairs++
		}
	}
	return sum / float64(pairs), true
}

func clamp(radius int) int {
	if radius < MinMeters {
		return MinMeters
	}
	if radius > MaxMeters {
		return MaxMeters
	}
	return radius
}
