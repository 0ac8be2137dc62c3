package dataset

import (
	"context"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/built-history/internal/config"
	"github.com/sells-group/built-history/internal/urban"
)

// ShapefileSource reads ESRI shapefiles; attributes come from the sidecar .dbf.
type ShapefileSource struct {
	buildingsPath string
	blocksPath    string
	fields        config.FieldsConfig
	coords        Coordinates
}

// NewShapefileSource creates a ShapefileSource.
func NewShapefileSource(buildingsPath, blocksPath string, fields config.FieldsConfig, coords Coordinates) *ShapefileSource {
	return &ShapefileSource{buildingsPath: buildingsPath, blocksPath: blocksPath, fields: lowerFields(fields), coords: coords}
}

// lowerFields matches the lower-cased DBF field names.
func lowerFields(f config.FieldsConfig) config.FieldsConfig {
	return config.FieldsConfig{
		Fid:       strings.ToLower(f.Fid),
		BlockFid:  strings.ToLower(f.BlockFid),
		YearBuilt: strings.ToLower(f.YearBuilt),
		YearLost:  strings.ToLower(f.YearLost),
		Floors:    strings.ToLower(f.Floors),
		Area:      strings.ToLower(f.Area),
		LandUse:   strings.ToLower(f.LandUse),
		Geometry:  strings.ToLower(f.Geometry),
	}
}

// Name implements Source.
func (s *ShapefileSource) Name() string { return "shapefile" }

// Close implements Source.
func (s *ShapefileSource) Close() {}

// Buildings implements Source.
func (s *ShapefileSource) Buildings(ctx context.Context) ([]urban.Building, error) {
	var out []urban.Building
	var skipped int
	err := readShapefile(ctx, s.buildingsPath, func(props map[string]any, shape shp.Shape) {
		rec, ok := decodeBuilding(props, s.fields)
		if !ok {
			skipped++
			return
		}
		if !rec.hasArea {
			rec.building.Area = shapeArea(shape, s.coords)
		}
		out = append(out, rec.building)
	})
	if err != nil {
		return nil, err
	}
	logSkipped("shapefile", s.buildingsPath, skipped)
	return out, nil
}

// Blocks implements Source.
func (s *ShapefileSource) Blocks(ctx context.Context) ([]urban.Block, error) {
	var out []urban.Block
	var skipped int
	err := readShapefile(ctx, s.blocksPath, func(props map[string]any, shape shp.Shape) {
		rec, ok := decodeBlock(props, s.fields)
		if !ok {
			skipped++
			return
		}
		if !rec.hasArea {
			rec.block.FootprintArea = shapeArea(shape, s.coords)
		}
		out = append(out, rec.block)
	})
	if err != nil {
		return nil, err
	}
	logSkipped("shapefile", s.blocksPath, skipped)
	return out, nil
}

// readShapefile calls fn for every record with its attributes keyed by
// lower-cased field name.
func readShapefile(ctx context.Context, path string, fn func(map[string]any, shp.Shape)) error {
	reader, err := shp.Open(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(strings.TrimRight(f.String(), "\x00"))
	}

	for reader.Next() {
		if ctx.Err() != nil {
			return eris.Wrapf(ctx.Err(), "dataset: read shapefile %s", path)
		}
		_, shape := reader.Shape()

		props := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				props[name] = val
			}
		}
		fn(props, shape)
	}
	return nil
}

func shapeArea(shape shp.Shape, coords Coordinates) float64 {
	p, ok := shape.(*shp.Polygon)
	if !ok {
		return 0
	}
	mp := shapeToMultiPolygon(p)
	if mp == nil {
		return 0
	}
	return footprintArea(mp, coords)
}
