package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/built-history/internal/urban"
)

// Config holds the full application configuration.
type Config struct {
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Window WindowConfig `yaml:"window" mapstructure:"window"`
	Lens   LensConfig   `yaml:"lens" mapstructure:"lens"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Legend LegendConfig `yaml:"legend" mapstructure:"legend"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// Supported dataset formats.
const (
	FormatGeoJSON    = "geojson"
	FormatShapefile  = "shapefile"
	FormatGeoPackage = "gpkg"
	FormatPostgres   = "postgres"
)

const defaultBlocksPath = "data/blocks.geojson"

// DataConfig locates the building and block datasets.
type DataConfig struct {
	Format          string       `yaml:"format" mapstructure:"format"`
	BuildingsPath   string       `yaml:"buildings_path" mapstructure:"buildings_path"`
	BlocksPath      string       `yaml:"blocks_path" mapstructure:"blocks_path"`
	DatabaseURL     string       `yaml:"database_url" mapstructure:"database_url"`
	BuildingsTable  string       `yaml:"buildings_table" mapstructure:"buildings_table"`
	BlocksTable     string       `yaml:"blocks_table" mapstructure:"blocks_table"`
	ConnectAttempts int          `yaml:"connect_attempts" mapstructure:"connect_attempts"`
	Coordinates     string       `yaml:"coordinates" mapstructure:"coordinates"`
	Fields          FieldsConfig `yaml:"fields" mapstructure:"fields"`
}

// FieldsConfig maps record attributes onto building and block fields.
type FieldsConfig struct {
	Fid       string `yaml:"fid" mapstructure:"fid"`
	BlockFid  string `yaml:"block_fid" mapstructure:"block_fid"`
	YearBuilt string `yaml:"year_built" mapstructure:"year_built"`
	YearLost  string `yaml:"year_lost" mapstructure:"year_lost"`
	Floors    string `yaml:"floors" mapstructure:"floors"`
	Area      string `yaml:"area" mapstructure:"area"`
	LandUse   string `yaml:"land_use" mapstructure:"land_use"`
	Geometry  string `yaml:"geometry" mapstructure:"geometry"`
}

// WindowConfig is the default time window.
type WindowConfig struct {
	Start int `yaml:"start" mapstructure:"start"`
	End   int `yaml:"end" mapstructure:"end"`
}

// LensConfig is the default lens and weighting mode.
type LensConfig struct {
	Taxonomy string `yaml:"taxonomy" mapstructure:"taxonomy"`
	Weighted bool   `yaml:"weighted" mapstructure:"weighted"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int           `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	CacheEntries   int           `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTL       time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// LegendConfig points at optional legend overrides.
type LegendConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BUILTHIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.format", FormatGeoJSON)
	v.SetDefault("data.buildings_path", "data/buildings.geojson")
	v.SetDefault("data.database_url", "")
	v.SetDefault("data.buildings_table", "buildings")
	v.SetDefault("data.blocks_table", "blocks")
	v.SetDefault("data.connect_attempts", 3)
	v.SetDefault("data.coordinates", "auto")
	v.SetDefault("data.fields.fid", "fid")
	v.SetDefault("data.fields.block_fid", "block_fid")
	v.SetDefault("data.fields.year_built", "year_built")
	v.SetDefault("data.fields.year_lost", "year_lost")
	v.SetDefault("data.fields.floors", "lvl")
	v.SetDefault("data.fields.area", "sqr")
	v.SetDefault("data.fields.land_use", "building_2")
	v.SetDefault("data.fields.geometry", "geom")
	v.SetDefault("window.start", urban.MinYear)
	v.SetDefault("window.end", urban.MaxYear)
	v.SetDefault("lens.taxonomy", "usage")
	v.SetDefault("lens.weighted", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.cache_entries", 256)
	v.SetDefault("server.cache_ttl", "10m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Data.resolveBlocksPath()

	return &cfg, nil
}

// Validate checks the settings needed by a command mode: "aggregate",
// "export" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "aggregate", "export":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimitRPS < 0 {
			errs = append(errs, "server.rate_limit_rps must be >= 0")
		}
		if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
			errs = append(errs, "server.rate_limit_burst must be >= 1 when rate limiting")
		}
		if c.Server.CacheEntries < 0 {
			errs = append(errs, "server.cache_entries must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	errs = append(errs, c.Data.validate()...)

	if _, err := urban.NewWindow(c.Window.Start, c.Window.End); err != nil {
		errs = append(errs, fmt.Sprintf("window %d-%d is invalid", c.Window.Start, c.Window.End))
	}
	if _, err := urban.ParseTaxonomy(c.Lens.Taxonomy); err != nil {
		errs = append(errs, fmt.Sprintf("lens.taxonomy %q is unknown", c.Lens.Taxonomy))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// resolveBlocksPath fills an unset blocks_path. A GeoPackage holds both
// tables, so it reads blocks from the buildings file.
func (d *DataConfig) resolveBlocksPath() {
	if d.BlocksPath != "" {
		return
	}
	switch d.Format {
	case FormatGeoPackage:
		d.BlocksPath = d.BuildingsPath
	case FormatGeoJSON:
		d.BlocksPath = defaultBlocksPath
	}
}

func (d DataConfig) validate() []string {
	var errs []string
	switch d.Format {
	case FormatGeoJSON, FormatShapefile, FormatGeoPackage:
		if d.BuildingsPath == "" {
			errs = append(errs, "data.buildings_path is required")
		}
		if d.BlocksPath == "" && d.Format != FormatGeoPackage {
			errs = append(errs, "data.blocks_path is required")
		}
	case FormatPostgres:
		if d.DatabaseURL == "" {
			errs = append(errs, "data.database_url is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("data.format %q is unknown", d.Format))
	}
	switch d.Coordinates {
	case "", "auto", "geographic", "projected":
	default:
		errs = append(errs, fmt.Sprintf("data.coordinates %q is unknown", d.Coordinates))
	}
	if d.Format == FormatGeoPackage || d.Format == FormatPostgres {
		if d.BuildingsTable == "" || d.BlocksTable == "" {
			errs = append(errs, "data.buildings_table and data.blocks_table are required")
		}
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
