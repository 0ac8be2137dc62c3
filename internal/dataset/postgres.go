package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/built-history/internal/config"
	"github.com/sells-group/built-history/internal/resilience"
	"github.com/sells-group/built-history/internal/urban"
)

// Pool is the subset of pgxpool.Pool the PostGIS source uses.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads building and block tables from PostGIS. Missing area
// values fall back to the geography area of the geometry column.
type PostgresSource struct {
	pool           Pool
	close          func()
	buildingsTable string
	blocksTable    string
	fields         config.FieldsConfig
}

// NewPostgresSource wraps an existing pool.
func NewPostgresSource(pool Pool, buildingsTable, blocksTable string, fields config.FieldsConfig) *PostgresSource {
	return &PostgresSource{
		pool:           pool,
		close:          func() {},
		buildingsTable: buildingsTable,
		blocksTable:    blocksTable,
		fields:         fields,
	}
}

// ConnectPostgres opens a pool for cfg.DatabaseURL, retrying transient
// connection failures up to cfg.ConnectAttempts times.
func ConnectPostgres(ctx context.Context, cfg config.DataConfig) (*PostgresSource, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: parse database url")
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.ConnectAttempts
	retry.OnRetry = resilience.RetryLogger("postgres", "connect")

	var pool *pgxpool.Pool
	err = resilience.Do(ctx, retry, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "dataset: connect postgres")
	}

	src := NewPostgresSource(pool, cfg.BuildingsTable, cfg.BlocksTable, cfg.Fields)
	src.close = pool.Close
	return src, nil
}

// Name implements Source.
func (s *PostgresSource) Name() string { return "postgres" }

// Close implements Source.
func (s *PostgresSource) Close() { s.close() }

// Buildings implements Source.
func (s *PostgresSource) Buildings(ctx context.Context) ([]urban.Building, error) {
	f := s.fields
	query := fmt.Sprintf(`
		SELECT
			%s::bigint,
			COALESCE(%s, 0)::bigint,
			COALESCE(%s, 0)::int,
			COALESCE(%s, %d)::int,
			COALESCE(%s, 0)::float8,
			%s::float8,
			COALESCE(%s, '')::text
		FROM %s
		WHERE %s IS NOT NULL
		ORDER BY %s`,
		ident(f.Fid), ident(f.BlockFid), ident(f.YearBuilt), ident(f.YearLost), missingYearLost,
		ident(f.Floors), s.areaExpr(), ident(f.LandUse),
		ident(s.buildingsTable), ident(f.Fid), ident(f.Fid),
	)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: query buildings")
	}
	defer rows.Close()

	var out []urban.Building
	for rows.Next() {
		var (
			b       urban.Building
			landUse string
		)
		if err := rows.Scan(&b.Fid, &b.BlockFid, &b.YearBuilt, &b.YearLost, &b.FloorCount, &b.Area, &landUse); err != nil {
			return nil, eris.Wrap(err, "dataset: scan building row")
		}
		b.LandUse = normalizeLandUse(landUse)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "dataset: iterate building rows")
	}
	return out, nil
}

// Blocks implements Source.
func (s *PostgresSource) Blocks(ctx context.Context) ([]urban.Block, error) {
	f := s.fields
	query := fmt.Sprintf(`
		SELECT %s::bigint, %s::float8
		FROM %s
		WHERE %s IS NOT NULL
		ORDER BY %s`,
		ident(f.Fid), s.areaExpr(), ident(s.blocksTable), ident(f.Fid), ident(f.Fid),
	)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: query blocks")
	}
	defer rows.Close()

	var out []urban.Block
	for rows.Next() {
		var b urban.Block
		if err := rows.Scan(&b.Fid, &b.FootprintArea); err != nil {
			return nil, eris.Wrap(err, "dataset: scan block row")
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "dataset: iterate block rows")
	}
	return out, nil
}

func (s *PostgresSource) areaExpr() string {
	if s.fields.Geometry == "" {
		return fmt.Sprintf("COALESCE(%s, 0)", ident(s.fields.Area))
	}
	return fmt.Sprintf("COALESCE(%s, ST_Area(%s::geography), 0)", ident(s.fields.Area), ident(s.fields.Geometry))
}

// ident quotes a possibly schema-qualified identifier.
func ident(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}
