package dataset

import (
	"math"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Coordinates names the coordinate system of file geometries.
type Coordinates string

// Supported coordinate systems. CoordinatesAuto treats a geometry as lon/lat
// when its bounds fit within +-180/+-90, which misreads small local-CRS
// footprints; set geographic or projected explicitly for such data.
const (
	CoordinatesAuto       Coordinates = "auto"
	CoordinatesGeographic Coordinates = "geographic"
	CoordinatesProjected  Coordinates = "projected"
)

// ErrUnknownCoordinates is returned by ParseCoordinates.
var ErrUnknownCoordinates = eris.New("dataset: unknown coordinates")

// ParseCoordinates maps a config value onto Coordinates. Empty means auto.
func ParseCoordinates(s string) (Coordinates, error) {
	switch c := Coordinates(s); c {
	case "":
		return CoordinatesAuto, nil
	case CoordinatesAuto, CoordinatesGeographic, CoordinatesProjected:
		return c, nil
	default:
		return "", eris.Wrapf(ErrUnknownCoordinates, "dataset: coordinates %q", s)
	}
}

func (c Coordinates) geographic(b *geom.Bounds) bool {
	switch c {
	case CoordinatesGeographic:
		return true
	case CoordinatesProjected:
		return false
	default:
		return withinLonLat(b)
	}
}

// footprintArea returns the area of a polygonal geometry in square meters.
// Geographic geometries are scaled by the meters-per-degree at their mid
// latitude; projected ones are assumed to be metric already.
func footprintArea(g geom.T, coords Coordinates) float64 {
	var planar float64
	switch t := g.(type) {
	case *geom.Polygon:
		planar = t.Area()
	case *geom.MultiPolygon:
		planar = t.Area()
	default:
		return 0
	}
	if planar == 0 {
		return 0
	}

	b := g.Bounds()
	if !coords.geographic(b) {
		return planar
	}
	lat := (b.Min(1) + b.Max(1)) / 2 * math.Pi / 180
	kLat := 111132.92 - 559.82*math.Cos(2*lat)
	kLon := 111412.84 * math.Cos(lat)
	return planar * kLat * kLon
}

func withinLonLat(b *geom.Bounds) bool {
	return b.Min(0) >= -180 && b.Max(0) <= 180 && b.Min(1) >= -90 && b.Max(1) <= 90
}

// shapeToMultiPolygon converts a shapefile polygon into a MultiPolygon.
// Clockwise parts start a new polygon; counter-clockwise parts are holes of
// the polygon before them.
func shapeToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon
	flush := func() {
		if current != nil && current.NumLinearRings() > 0 {
			_ = mp.Push(current)
		}
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || end > int32(len(p.Points)) || end-start < 4 {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if current == nil || signedArea(flat) < 0 {
			flush()
			current = geom.NewPolygon(geom.XY)
		}
		_ = current.Push(ring)
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is positive for counter-clockwise rings.
func signedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}
