package poi

import (
	"fmt"
	"math"
	"strings"

	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

// earthRadiusMeters is the fixed great-circle Earth radius used across
// the service. The geo index computes distances server-side with the
// same constant, so locally computed distances stay comparable.
const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two
// coordinates in meters.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// generateSearchCacheKey builds a deterministic cache key from the
// filter fields that affect the result set.
func generateSearchCacheKey(filter types.POIFilter) string {
	var b strings.Builder
	b.WriteString("poi_search:")
	if filter.Center != nil {
		fmt.Fprintf(&b, "%.5f:%.5f:", filter.Center.Latitude, filter.Center.Longitude)
	}
	fmt.Fprintf(&b, "%.0f:%.1f:%d:%d:", filter.RadiusMeters, filter.MinRating, filter.MaxPriceLevel, filter.Limit)
	b.WriteString(strings.Join(filter.Categories, ","))
	b.WriteString(":")
	b.WriteString(strings.Join(filter.ExcludeCategories, ","))
	b.WriteString(":")
	b.WriteString(strings.Join(filter.ExcludeNames, ","))
	b.WriteString(":")
	for _, id := range filter.ExcludeIDs {
		b.WriteString(id.String())
		b.WriteString(",")
	}
	b.WriteString(":")
	b.WriteString(filter.SearchText)
	return b.String()
}

// lowerAll lowercases every element, for case-insensitive SQL matching.
func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}
