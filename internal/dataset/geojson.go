package dataset

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/built-history/internal/config"
	"github.com/sells-group/built-history/internal/urban"
)

// GeoJSONSource reads FeatureCollection files with one feature per building or block.
type GeoJSONSource struct {
	buildingsPath string
	blocksPath    string
	fields        config.FieldsConfig
	coords        Coordinates
}

// NewGeoJSONSource creates a GeoJSONSource.
func NewGeoJSONSource(buildingsPath, blocksPath string, fields config.FieldsConfig, coords Coordinates) *GeoJSONSource {
	return &GeoJSONSource{buildingsPath: buildingsPath, blocksPath: blocksPath, fields: fields, coords: coords}
}

// Name implements Source.
func (s *GeoJSONSource) Name() string { return "geojson" }

// Close implements Source.
func (s *GeoJSONSource) Close() {}

// Buildings implements Source. A feature without an area attribute gets the
// area of its geometry.
func (s *GeoJSONSource) Buildings(ctx context.Context) ([]urban.Building, error) {
	fc, err := readFeatureCollection(s.buildingsPath)
	if err != nil {
		return nil, err
	}

	out := make([]urban.Building, 0, len(fc.Features))
	var skipped int
	for _, f := range fc.Features {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "dataset: read geojson buildings")
		}
		rec, ok := decodeBuilding(f.Properties, s.fields)
		if !ok {
			skipped++
			continue
		}
		if !rec.hasArea {
			rec.building.Area = footprintArea(f.Geometry, s.coords)
		}
		out = append(out, rec.building)
	}

	logSkipped("geojson", s.buildingsPath, skipped)
	return out, nil
}

// Blocks implements Source.
func (s *GeoJSONSource) Blocks(ctx context.Context) ([]urban.Block, error) {
	fc, err := readFeatureCollection(s.blocksPath)
	if err != nil {
		return nil, err
	}

	out := make([]urban.Block, 0, len(fc.Features))
	var skipped int
	for _, f := range fc.Features {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "dataset: read geojson blocks")
		}
		rec, ok := decodeBlock(f.Properties, s.fields)
		if !ok {
			skipped++
			continue
		}
		if !rec.hasArea {
			rec.block.FootprintArea = footprintArea(f.Geometry, s.coords)
		}
		out = append(out, rec.block)
	}

	logSkipped("geojson", s.blocksPath, skipped)
	return out, nil
}

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "dataset: decode geojson %s", path)
	}
	return &fc, nil
}

func logSkipped(format, path string, skipped int) {
	if skipped > 0 {
		zap.L().Debug("dataset: skipped records without fid",
			zap.String("format", format),
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
}
