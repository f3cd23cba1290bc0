package candidate

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-poi-recommender/config"
	"github.com/FACorreiaa/go-poi-recommender/internal/api/poi"
	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

// DefaultResultLimit is the caller-facing truncation; the selection
// protocol asks for the fuller set via the retriever's candidate limit.
const DefaultResultLimit = 5

// popularCategories receive a fixed score bonus. Empirically the
// categories users pick most when shown mixed candidate lists.
var popularCategories = map[string]bool{
	"attraction": true,
	"beach":      true,
	"temple":     true,
	"waterfall":  true,
	"scenic":     true,
	"viewpoint":  true,
}

// Processor runs the strictly ordered candidate pipeline:
// filter, deduplicate, score, sort, truncate.
type Processor struct {
	weights config.ScoringWeights
	logger  *slog.Logger
}

func NewProcessor(weights config.ScoringWeights, logger *slog.Logger) *Processor {
	return &Processor{weights: weights, logger: logger}
}

// Process filters, dedupes, scores and ranks candidates. origin, when
// set, backfills missing distances. limit <= 0 keeps the full set.
func (p *Processor) Process(candidates []types.POIDetailedInfo, origin *types.GeoPoint, exclusions *types.ExclusionSet, limit int) []types.POIDetailedInfo {
	filtered := p.filter(candidates, exclusions)
	deduped := dedupe(filtered)

	for i := range deduped {
		// A zero distance is ambiguous: the index reports 0 for
		// no-center queries, but a candidate can also sit exactly at
		// the origin. With an origin available the distance is always
		// computable, so only origin-less zero rows count as unknown.
		distanceKnown := deduped[i].DistanceMeters > 0
		if origin != nil {
			if deduped[i].DistanceMeters == 0 {
				deduped[i].DistanceMeters = poi.HaversineMeters(
					origin.Latitude, origin.Longitude,
					deduped[i].Latitude, deduped[i].Longitude,
				)
			}
			distanceKnown = true
		}
		deduped[i].Score = p.score(&deduped[i], distanceKnown)
	}

	// Stable sort keeps original relative order on ties.
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Score > deduped[j].Score
	})

	if limit > 0 && len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped
}

// filter drops unnamed records, excluded names/ids and anything with a
// blocklisted accommodation category, primary or secondary.
func (p *Processor) filter(candidates []types.POIDetailedInfo, exclusions *types.ExclusionSet) []types.POIDetailedInfo {
	out := make([]types.POIDetailedInfo, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		if exclusions != nil {
			if exclusions.ContainsName(c.Name) || exclusions.ContainsID(c.ID.String()) {
				continue
			}
			if exclusions.ContainsCategory(c.Category) {
				continue
			}
		}
		blocked := false
		for _, cat := range c.AllCategories() {
			if types.IsAccommodationCategory(cat) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		out = append(out, c)
	}
	return out
}

// dedupe keeps the first occurrence, keyed by id when present and by
// lowercased name otherwise.
func dedupe(candidates []types.POIDetailedInfo) []types.POIDetailedInfo {
	seenIDs := make(map[uuid.UUID]bool, len(candidates))
	seenNames := make(map[string]bool, len(candidates))
	out := make([]types.POIDetailedInfo, 0, len(candidates))
	for _, c := range candidates {
		if c.ID != uuid.Nil {
			if seenIDs[c.ID] {
				continue
			}
			seenIDs[c.ID] = true
		} else {
			key := strings.ToLower(strings.TrimSpace(c.Name))
			if seenNames[key] {
				continue
			}
			seenNames[key] = true
		}
		out = append(out, c)
	}
	return out
}

// score computes the additive composite score from the configured
// weights.
func (p *Processor) score(c *types.POIDetailedInfo, distanceKnown bool) float64 {
	w := p.weights
	var score float64

	// Rating: linear up to w.RatingMax, mid-score when absent.
	if c.Rating != nil {
		score += (*c.Rating / 5.0) * w.RatingMax
	} else {
		score += w.RatingMax / 2
	}

	// Proximity: full points at the origin, linearly down to zero at
	// the reference scale. Unknown distance gets the mid-score.
	if distanceKnown && w.ProximityScaleM > 0 {
		proximity := w.ProximityMax * (1 - c.DistanceMeters/w.ProximityScaleM)
		if proximity < 0 {
			proximity = 0
		}
		score += proximity
	} else {
		score += w.ProximityMax / 2
	}

	if popularCategories[strings.ToLower(c.Category)] {
		score += w.PopularCategory
	}
	if len(c.Description) > w.DescriptionChars {
		score += w.RichDescription
	}
	if len(c.Highlights) > 0 {
		score += w.Highlights
	}
	if len(c.LocalTips) > 0 {
		score += w.LocalTips
	}
	return score
}

// Transform maps catalog rows to the caller-facing shape with flattened
// coordinates, nested location/details blocks and empty-slice defaults.
func Transform(candidates []types.POIDetailedInfo) []types.RecommendedPOI {
	out := make([]types.RecommendedPOI, 0, len(candidates))
	for _, c := range candidates {
		rating := 0.0
		if c.Rating != nil {
			rating = *c.Rating
		}
		priceLevel := 0
		if c.PriceLevel != nil {
			priceLevel = *c.PriceLevel
		}
		out = append(out, types.RecommendedPOI{
			ID:             c.ID.String(),
			Name:           c.Name,
			Category:       c.Category,
			Latitude:       c.Latitude,
			Longitude:      c.Longitude,
			Rating:         rating,
			PriceLevel:     priceLevel,
			DistanceMeters: c.DistanceMeters,
			Score:          c.Score,
			Highlights:     emptyIfNil(c.Highlights),
			LocalTips:      emptyIfNil(c.LocalTips),
			Amenities:      emptyIfNil(c.Amenities),
			Tags:           emptyIfNil(c.Tags),
			Location: types.RecommendedPOILocation{
				Latitude:  c.Latitude,
				Longitude: c.Longitude,
				Address:   c.Address,
			},
			Details: types.RecommendedPOIDetails{
				Description: c.Description,
				Rating:      rating,
				PriceLevel:  priceLevel,
			},
		})
	}
	return out
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
