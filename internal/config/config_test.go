package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, FormatGeoJSON, cfg.Data.Format)
	assert.Equal(t, "data/buildings.geojson", cfg.Data.BuildingsPath)
	assert.Equal(t, "data/blocks.geojson", cfg.Data.BlocksPath)
	assert.Equal(t, "lvl", cfg.Data.Fields.Floors)
	assert.Equal(t, 3, cfg.Data.ConnectAttempts)
	assert.Equal(t, "auto", cfg.Data.Coordinates)
	assert.Equal(t, "sqr", cfg.Data.Fields.Area)
	assert.Equal(t, "building_2", cfg.Data.Fields.LandUse)
	assert.Equal(t, 1781, cfg.Window.Start)
	assert.Equal(t, 2025, cfg.Window.End)
	assert.Equal(t, "usage", cfg.Lens.Taxonomy)
	assert.False(t, cfg.Lens.Weighted)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 20.0, cfg.Server.RateLimitRPS, 0.001)
	assert.Equal(t, 40, cfg.Server.RateLimitBurst)
	assert.Equal(t, 256, cfg.Server.CacheEntries)
	assert.Equal(t, 10*time.Minute, cfg.Server.CacheTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.NoError(t, cfg.Validate("aggregate"))
	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
data:
  format: gpkg
  buildings_path: podol.gpkg
  blocks_path: podol.gpkg
  fields:
    floors: levels
window:
  start: 1900
  end: 1950
lens:
  taxonomy: density
  weighted: true
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, FormatGeoPackage, cfg.Data.Format)
	assert.Equal(t, "podol.gpkg", cfg.Data.BuildingsPath)
	assert.Equal(t, "levels", cfg.Data.Fields.Floors)
	assert.Equal(t, 1900, cfg.Window.Start)
	assert.Equal(t, 1950, cfg.Window.End)
	assert.Equal(t, "density", cfg.Lens.Taxonomy)
	assert.True(t, cfg.Lens.Weighted)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "sqr", cfg.Data.Fields.Area)
	assert.Equal(t, "buildings", cfg.Data.BuildingsTable)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
data:
  format: shapefile
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BUILTHIST_DATA_FORMAT", "postgres")
	t.Setenv("BUILTHIST_DATA_DATABASE_URL", "postgres://localhost/podol")
	t.Setenv("BUILTHIST_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, FormatPostgres, cfg.Data.Format)
	assert.Equal(t, "postgres://localhost/podol", cfg.Data.DatabaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadGeoPackageBlocksFromBuildingsFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BUILTHIST_DATA_FORMAT", "gpkg")
	t.Setenv("BUILTHIST_DATA_BUILDINGS_PATH", "podol.gpkg")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "podol.gpkg", cfg.Data.BlocksPath)
	assert.NoError(t, cfg.Validate("aggregate"))
}

func TestLoadShapefileNeedsBlocksPath(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BUILTHIST_DATA_FORMAT", "shapefile")
	t.Setenv("BUILTHIST_DATA_BUILDINGS_PATH", "buildings.shp")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Data.BlocksPath)
	err = cfg.Validate("aggregate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.blocks_path is required")
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("data: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Data.Format = FormatGeoJSON
	cfg.Data.BuildingsPath = "buildings.geojson"
	cfg.Data.BlocksPath = "blocks.geojson"
	cfg.Data.BuildingsTable = "buildings"
	cfg.Data.BlocksTable = "blocks"
	cfg.Window.Start = 1781
	cfg.Window.End = 2025
	cfg.Lens.Taxonomy = "era"
	cfg.Server.Port = 8080
	cfg.Server.RateLimitRPS = 10
	cfg.Server.RateLimitBurst = 5
	return cfg
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	// Port is irrelevant outside serve.
	assert.NoError(t, cfg.Validate("aggregate"))
}

func TestValidateServe_RateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateLimitBurst = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit_burst")

	cfg.Server.RateLimitRPS = 0
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.RateLimitRPS = -1
	err = cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit_rps")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateData(t *testing.T) {
	cfg := validDefaults()
	cfg.Data.BuildingsPath = ""
	err := cfg.Validate("aggregate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "data.buildings_path is required")

	cfg = validDefaults()
	cfg.Data.Format = FormatPostgres
	err = cfg.Validate("aggregate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "data.database_url is required")

	cfg.Data.DatabaseURL = "postgres://localhost/podol"
	assert.NoError(t, cfg.Validate("aggregate"))

	cfg.Data.BlocksTable = ""
	err = cfg.Validate("aggregate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "blocks_table")

	cfg = validDefaults()
	cfg.Data.Format = FormatGeoPackage
	cfg.Data.BlocksPath = ""
	assert.NoError(t, cfg.Validate("aggregate"))

	cfg.Data.Format = FormatShapefile
	err = cfg.Validate("aggregate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "data.blocks_path is required")

	cfg = validDefaults()
	cfg.Data.Format = "kml"
	err = cfg.Validate("export")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `data.format "kml" is unknown`)
}

func TestValidateCoordinates(t *testing.T) {
	cfg := validDefaults()
	for _, c := range []string{"", "auto", "geographic", "projected"} {
		cfg.Data.Coordinates = c
		assert.NoError(t, cfg.Validate("aggregate"), c)
	}

	cfg.Data.Coordinates = "wgs84"
	err := cfg.Validate("aggregate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `data.coordinates "wgs84" is unknown`)
}

func TestValidateWindowAndLens(t *testing.T) {
	cfg := validDefaults()
	cfg.Window.Start = 2000
	cfg.Window.End = 1900
	cfg.Lens.Taxonomy = "colour"

	err := cfg.Validate("aggregate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "window 2000-1900 is invalid")
	assert.Contains(t, err.Error(), `lens.taxonomy "colour" is unknown`)
}
