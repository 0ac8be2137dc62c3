// Package urban aggregates building footprints into per-block statistics
// under the era, land-use and height-class lenses.
package urban

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Dataset year range.
const (
	MinYear = 1781
	MaxYear = 2025
)

// StandingSentinel is the smallest YearLost value that means "still standing".
const StandingSentinel = 2030

// ErrUnknownTaxonomy is returned by ParseTaxonomy for unrecognised lens names.
var ErrUnknownTaxonomy = eris.New("urban: unknown taxonomy")

// LandUse is the use-type code carried by a building.
type LandUse string

// Land-use codes, in bucket order.
const (
	LandUseDetachedHouse LandUse = "detached_house"
	LandUseApartments    LandUse = "apartments"
	LandUseDormitory     LandUse = "dormitory"
	LandUseMixed         LandUse = "mixed"
	LandUseCommercial    LandUse = "commercial"
	LandUsePublic        LandUse = "public"
	LandUseIndustrial    LandUse = "industrial"
	LandUseUtility       LandUse = "utility"
	LandUseUnknown       LandUse = "unknown"
)

var landUseOrder = []LandUse{
	LandUseDetachedHouse,
	LandUseApartments,
	LandUseDormitory,
	LandUseMixed,
	LandUseCommercial,
	LandUsePublic,
	LandUseIndustrial,
	LandUseUtility,
}

// LandUses returns the classified land-use codes in bucket order.
func LandUses() []LandUse {
	out := make([]LandUse, len(landUseOrder))
	copy(out, landUseOrder)
	return out
}

// ParseLandUse maps a raw code onto a LandUse. Unrecognised codes yield LandUseUnknown.
func ParseLandUse(code string) LandUse {
	lu := LandUse(strings.TrimSpace(code))
	for _, known := range landUseOrder {
		if lu == known {
			return known
		}
	}
	return LandUseUnknown
}

// Building is a single footprint. Read-only to the aggregation code.
type Building struct {
	Fid        int     `json:"fid"`
	BlockFid   int     `json:"block_fid"`
	YearBuilt  int     `json:"year_built"`
	YearLost   int     `json:"year_lost"`
	FloorCount float64 `json:"floor_count"`
	Area       float64 `json:"area"`
	LandUse    LandUse `json:"land_use"`
}

// Standing reports whether the building has no recorded demolition year.
func (b Building) Standing() bool {
	return b.YearLost >= StandingSentinel
}

// Block is an urban-block polygon's identity and footprint area in square meters.
type Block struct {
	Fid           int     `json:"fid"`
	FootprintArea float64 `json:"footprint_area"`
}

// Taxonomy selects the lens buildings are bucketed under.
type Taxonomy int

// Taxonomies.
const (
	Era Taxonomy = iota
	LandUseTax
	HeightClass
)

// Taxonomies returns all lenses in display order.
func Taxonomies() []Taxonomy {
	return []Taxonomy{Era, LandUseTax, HeightClass}
}

// BucketCount is the fixed number of buckets for the taxonomy.
func (t Taxonomy) BucketCount() int {
	switch t {
	case Era:
		return len(eraCutoffs)
	case LandUseTax:
		return len(landUseOrder)
	case HeightClass:
		return len(heightFloors)
	default:
		return 0
	}
}

func (t Taxonomy) String() string {
	switch t {
	case Era:
		return "era"
	case LandUseTax:
		return "usage"
	case HeightClass:
		return "density"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the taxonomy by name.
func (t Taxonomy) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// ParseTaxonomy accepts the lens names used by the map controls.
func ParseTaxonomy(s string) (Taxonomy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "era", "year":
		return Era, nil
	case "usage", "landuse", "land_use":
		return LandUseTax, nil
	case "density", "height", "height_class":
		return HeightClass, nil
	}
	return 0, eris.Wrapf(ErrUnknownTaxonomy, "urban: parse taxonomy %q", s)
}

// Bucket is a 0-based bucket index within a taxonomy.
type Bucket int

// NoBucket marks a building or block that matched no bucket.
const NoBucket Bucket = -1

// Valid reports whether b names a real bucket.
func (b Bucket) Valid() bool {
	return b >= 0
}

// MarshalJSON encodes NoBucket as null.
func (b Bucket) MarshalJSON() ([]byte, error) {
	if !b.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(int(b))
}

// UnmarshalJSON decodes null as NoBucket.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = NoBucket
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return eris.Wrap(err, "urban: decode bucket")
	}
	*b = Bucket(n)
	return nil
}

// Metric is the value a building contributes to every sum: footprint area, or
// floor-weighted area when weighted is set.
func Metric(b Building, weighted bool) float64 {
	if weighted {
		return b.Area * b.FloorCount
	}
	return b.Area
}
