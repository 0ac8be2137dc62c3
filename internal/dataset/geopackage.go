package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	_ "modernc.org/sqlite"

	"github.com/sells-group/built-history/internal/config"
	"github.com/sells-group/built-history/internal/urban"
)

// GeoPackageSource reads feature tables from GeoPackage (SQLite) files.
type GeoPackageSource struct {
	buildingsPath  string
	blocksPath     string
	buildingsTable string
	blocksTable    string
	fields         config.FieldsConfig
	coords         Coordinates
}

// NewGeoPackageSource creates a GeoPackageSource. Both paths may name the same
// file; an empty blocksPath reads blocks from the buildings file.
func NewGeoPackageSource(buildingsPath, blocksPath, buildingsTable, blocksTable string, fields config.FieldsConfig, coords Coordinates) *GeoPackageSource {
	if blocksPath == "" {
		blocksPath = buildingsPath
	}
	return &GeoPackageSource{
		buildingsPath:  buildingsPath,
		blocksPath:     blocksPath,
		buildingsTable: buildingsTable,
		blocksTable:    blocksTable,
		fields:         fields,
		coords:         coords,
	}
}

// Name implements Source.
func (s *GeoPackageSource) Name() string { return "gpkg" }

// Close implements Source.
func (s *GeoPackageSource) Close() {}

// Buildings implements Source.
func (s *GeoPackageSource) Buildings(ctx context.Context) ([]urban.Building, error) {
	var out []urban.Building
	var skipped int
	err := s.readTable(ctx, s.buildingsPath, s.buildingsTable, func(props map[string]any, g geom.T) {
		rec, ok := decodeBuilding(props, s.fields)
		if !ok {
			skipped++
			return
		}
		if !rec.hasArea {
			rec.building.Area = footprintArea(g, s.coords)
		}
		out = append(out, rec.building)
	})
	if err != nil {
		return nil, err
	}
	logSkipped("gpkg", s.buildingsPath, skipped)
	return out, nil
}

// Blocks implements Source.
func (s *GeoPackageSource) Blocks(ctx context.Context) ([]urban.Block, error) {
	var out []urban.Block
	var skipped int
	err := s.readTable(ctx, s.blocksPath, s.blocksTable, func(props map[string]any, g geom.T) {
		rec, ok := decodeBlock(props, s.fields)
		if !ok {
			skipped++
			return
		}
		if !rec.hasArea {
			rec.block.FootprintArea = footprintArea(g, s.coords)
		}
		out = append(out, rec.block)
	})
	if err != nil {
		return nil, err
	}
	logSkipped("gpkg", s.blocksPath, skipped)
	return out, nil
}

func (s *GeoPackageSource) readTable(ctx context.Context, path, table string, fn func(map[string]any, geom.T)) error {
	// sql.Open would silently create a missing file.
	if _, err := os.Stat(path); err != nil {
		return eris.Wrapf(err, "dataset: stat gpkg %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return eris.Wrapf(err, "dataset: open gpkg %s", path)
	}
	defer func() { _ = db.Close() }()

	query := fmt.Sprintf("SELECT * FROM %s", quoteIdent(table))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return eris.Wrapf(err, "dataset: query gpkg table %s", table)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return eris.Wrap(err, "dataset: gpkg columns")
	}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return eris.Wrapf(err, "dataset: scan gpkg table %s", table)
		}

		props := make(map[string]any, len(cols))
		var g geom.T
		for i, col := range cols {
			if col == s.fields.Geometry {
				if blob, ok := values[i].([]byte); ok {
					g, _ = decodeGPKGGeometry(blob)
				}
				continue
			}
			if values[i] != nil {
				props[col] = values[i]
			}
		}
		fn(props, g)
	}
	if err := rows.Err(); err != nil {
		return eris.Wrapf(err, "dataset: iterate gpkg table %s", table)
	}
	return nil
}

// decodeGPKGGeometry strips the GeoPackage binary header and decodes the WKB body.
func decodeGPKGGeometry(blob []byte) (geom.T, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, eris.New("dataset: not a gpkg geometry blob")
	}
	flags := blob[3]
	if flags&0x10 != 0 {
		return nil, nil
	}

	var envelope int
	switch (flags >> 1) & 0x07 {
	case 0:
	case 1:
		envelope = 32
	case 2, 3:
		envelope = 48
	case 4:
		envelope = 64
	default:
		return nil, eris.Errorf("dataset: invalid gpkg envelope flags %#x", flags)
	}

	offset := 8 + envelope
	if len(blob) < offset {
		return nil, eris.New("dataset: truncated gpkg geometry blob")
	}
	g, err := wkb.Unmarshal(blob[offset:])
	if err != nil {
		return nil, eris.Wrap(err, "dataset: decode gpkg wkb")
	}
	return g, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
