package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Trend describes the vegetation trajectory observed at a reference site.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// ReferenceSite is a known restoration region with historical satellite data.
type ReferenceSite struct {
	Name            string  `json:"name"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	VegetationIndex float64 `json:"vegetation_index"` // 0-100
	Trend           Trend   `json:"trend"`
	Confidence      float64 `json:"confidence"` // 0-1
	RadiusKm        float64 `json:"radius_km"`  // suitability radius
}

// DistanceKm returns the great-circle distance in kilometres between two
// coordinate pairs.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	a := orb.Point{lng1, lat1}
	b := orb.Point{lng2, lat2}
	return geo.DistanceHaversine(a, b) / 1000
}

// ValidCoordinates reports whether the pair is a plausible WGS84 coordinate.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Catalog holds the configured set of reference sites used by the
// verification oracle.
type Catalog struct {
	sites []ReferenceSite
}

// NewCatalog creates a catalog from an explicit site list.
func NewCatalog(sites []ReferenceSite) *Catalog {
	copied := make([]ReferenceSite, len(sites))
	copy(copied, sites)
	return &Catalog{sites: copied}
}

// DefaultCatalog returns the built-in coastal mangrove reference regions.
func DefaultCatalog() *Catalog {
	return NewCatalog([]ReferenceSite{
		{Name: "Sundarbans, West Bengal", Latitude: 21.9497, Longitude: 88.9468, VegetationIndex: 85, Trend: TrendImproving, Confidence: 0.94, RadiusKm: 50},
		{Name: "Bhitarkanika, Odisha", Latitude: 20.4500, Longitude: 86.9000, VegetationIndex: 78, Trend: TrendStable, Confidence: 0.94, RadiusKm: 30},
		{Name: "Pichavaram, Tamil Nadu", Latitude: 11.4500, Longitude: 79.7833, VegetationIndex: 82, Trend: TrendImproving, Confidence: 0.94, RadiusKm: 15},
		{Name: "Kori Creek, Gujarat", Latitude: 23.0167, Longitude: 68.9667, VegetationIndex: 72, Trend: TrendDeclining, Confidence: 0.94, RadiusKm: 25},
		{Name: "Godavari Delta, Andhra Pradesh", Latitude: 16.2500, Longitude: 81.7500, VegetationIndex: 79, Trend: TrendStable, Confidence: 0.94, RadiusKm: 25},
	})
}

// Sites returns a copy of the catalog contents.
func (c *Catalog) Sites() []ReferenceSite {
	out := make([]ReferenceSite, len(c.sites))
	copy(out, c.sites)
	return out
}

// Nearest returns the closest reference site to the given coordinates and its
// distance in kilometres. The boolean is false for an empty catalog.
func (c *Catalog) Nearest(lat, lng float64) (ReferenceSite, float64, bool) {
	var (
		best     ReferenceSite
		bestDist = math.Inf(1)
		found    bool
	)
	for _, site := range c.sites {
		d := DistanceKm(lat, lng, site.Latitude, site.Longitude)
		if d < bestDist {
			best = site
			bestDist = d
			found = true
		}
	}
	return best, bestDist, found
}

// NearestWithin is Nearest restricted to sites closer than maxKm.
func (c *Catalog) NearestWithin(lat, lng, maxKm float64) (ReferenceSite, float64, bool) {
	site, dist, ok := c.Nearest(lat, lng)
	if !ok || dist > maxKm {
		return ReferenceSite{}, 0, false
	}
	return site, dist, true
}

// Suitability grades a candidate location for restoration work.
type Suitability struct {
	Valid      bool    `json:"valid"`
	Site       string  `json:"site"`
	DistanceKm float64 `json:"distance_km"`
	Grade      string  `json:"grade"` // high, medium, low
}

// ValidateRestorationSite checks a location against known reference sites,
// falling back to a coarse coastal-region check.
func (c *Catalog) ValidateRestorationSite(lat, lng float64) Suitability {
	for _, site := range c.sites {
		d := DistanceKm(lat, lng, site.Latitude, site.Longitude)
		if d <= site.RadiusKm {
			return Suitability{
				Valid:      true,
				Site:       site.Name,
				DistanceKm: math.Round(d*100) / 100,
				Grade:      "high",
			}
		}
	}

	if IsCoastal(lat, lng) {
		return Suitability{Valid: true, Site: "Coastal Area", Grade: "medium"}
	}
	return Suitability{Valid: false, Site: "Coastal Area", Grade: "low"}
}

// IsCoastal is a coarse bounding-box check for the coastal belts the
// reference catalog covers.
func IsCoastal(lat, lng float64) bool {
	type box struct{ latMin, latMax, lngMin, lngMax float64 }
	ranges := []box{
		{8, 23, 68, 88},
		{8, 22, 80, 95},
	}
	for _, r := range ranges {
		if lat >= r.latMin && lat <= r.latMax && lng >= r.lngMin && lng <= r.lngMax {
			return true
		}
	}
	return false
}
