package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/built-history/internal/config"
	"github.com/sells-group/built-history/internal/urban"
)

// missingYearLost stands in for an absent demolition year: still standing.
const missingYearLost = 9999

// DefaultFields returns the attribute names used by the district datasets.
func DefaultFields() config.FieldsConfig {
	return config.FieldsConfig{
		Fid:       "fid",
		BlockFid:  "block_fid",
		YearBuilt: "year_built",
		YearLost:  "year_lost",
		Floors:    "lvl",
		Area:      "sqr",
		LandUse:   "building_2",
		Geometry:  "geom",
	}
}

// buildingRecord is a decoded building plus whether its area attribute was present.
type buildingRecord struct {
	building urban.Building
	hasArea  bool
}

// blockRecord is a decoded block plus whether its area attribute was present.
type blockRecord struct {
	block   urban.Block
	hasArea bool
}

// decodeBuilding maps an attribute bag onto a Building. Records without a
// usable fid are rejected; other missing numbers default to zero.
func decodeBuilding(props map[string]any, f config.FieldsConfig) (buildingRecord, bool) {
	fid, ok := intAttr(props, f.Fid)
	if !ok {
		return buildingRecord{}, false
	}
	blockFid, _ := intAttr(props, f.BlockFid)
	yearBuilt, _ := intAttr(props, f.YearBuilt)
	yearLost, ok := intAttr(props, f.YearLost)
	if !ok {
		yearLost = missingYearLost
	}
	floors, _ := floatAttr(props, f.Floors)
	area, hasArea := floatAttr(props, f.Area)

	var landUse string
	if v, ok := props[f.LandUse]; ok && v != nil {
		landUse, _ = v.(string)
	}

	return buildingRecord{
		building: urban.Building{
			Fid:        fid,
			BlockFid:   blockFid,
			YearBuilt:  yearBuilt,
			YearLost:   yearLost,
			FloorCount: floors,
			Area:       area,
			LandUse:    normalizeLandUse(landUse),
		},
		hasArea: hasArea,
	}, true
}

// decodeBlock maps an attribute bag onto a Block.
func decodeBlock(props map[string]any, f config.FieldsConfig) (blockRecord, bool) {
	fid, ok := intAttr(props, f.Fid)
	if !ok {
		return blockRecord{}, false
	}
	area, hasArea := floatAttr(props, f.Area)
	return blockRecord{
		block:   urban.Block{Fid: fid, FootprintArea: area},
		hasArea: hasArea,
	}, true
}

// normalizeLandUse folds case and separators before matching the enumeration.
func normalizeLandUse(raw string) urban.LandUse {
	s := cases.Fold().String(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return urban.ParseLandUse(s)
}

func intAttr(props map[string]any, key string) (int, bool) {
	f, ok := floatAttr(props, key)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

func floatAttr(props map[string]any, key string) (float64, bool) {
	if key == "" {
		return 0, false
	}
	v, ok := props[key]
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		return parseFloat(n)
	case []byte:
		return parseFloat(string(n))
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
