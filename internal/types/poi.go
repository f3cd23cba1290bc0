package types

import "github.com/google/uuid"

// POIDetailedInfo is a single catalog row as returned by the geo index.
// Rating and PriceLevel are optional in the catalog, DistanceMeters and
// Score are computed per request and never stored.
type POIDetailedInfo struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Category            string    `json:"category"`
	SecondaryCategories []string  `json:"secondary_categories,omitempty"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	Rating              *float64  `json:"rating,omitempty"`
	PriceLevel          *int      `json:"price_level,omitempty"`
	Address             string    `json:"address,omitempty"`
	Amenities           []string  `json:"amenities,omitempty"`
	Tags                []string  `json:"tags,omitempty"`
	Description         string    `json:"description,omitempty"`
	Highlights          []string  `json:"highlights,omitempty"`
	LocalTips           []string  `json:"local_tips,omitempty"`
	DistanceMeters      float64   `json:"distance_meters,omitempty"`
	Score               float64   `json:"score,omitempty"`
}

// Categories returns the primary category plus all secondary ones.
func (p *POIDetailedInfo) AllCategories() []string {
	out := make([]string, 0, 1+len(p.SecondaryCategories))
	if p.Category != "" {
		out = append(out, p.Category)
	}
	out = append(out, p.SecondaryCategories...)
	return out
}

// GeoPoint is a validated WGS84 coordinate pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point is inside the WGS84 envelope.
func (g GeoPoint) Valid() bool {
	return g.Latitude >= -90 && g.Latitude <= 90 && g.Longitude >= -180 && g.Longitude <= 180
}

// POIFilter is the geo index query contract. Center plus RadiusMeters
// bound the search spatially; everything else narrows it. Results come
// back ordered by distance when Center is set, by rating otherwise.
type POIFilter struct {
	Center            *GeoPoint   `json:"center,omitempty"`
	RadiusMeters      float64     `json:"radius_meters,omitempty"`
	Categories        []string    `json:"categories,omitempty"`
	MinRating         float64     `json:"min_rating,omitempty"`
	MaxPriceLevel     int         `json:"max_price_level,omitempty"`
	Amenities         []string    `json:"amenities,omitempty"`
	Tags              []string    `json:"tags,omitempty"`
	SearchText        string      `json:"search_text,omitempty"`
	ExcludeIDs        []uuid.UUID `json:"exclude_ids,omitempty"`
	ExcludeNames      []string    `json:"exclude_names,omitempty"`
	ExcludeCategories []string    `json:"exclude_categories,omitempty"`
	Limit             int         `json:"limit,omitempty"`
}
