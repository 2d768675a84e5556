package config

import (
	"strings"

	"github.com/LdDl/natmap"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Precisely   PreciselyConfig   `yaml:"precisely" mapstructure:"precisely"`
	Outputs     OutputsConfig     `yaml:"outputs" mapstructure:"outputs"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Identifiers IdentifiersConfig `yaml:"identifiers" mapstructure:"identifiers"`
	Network     NetworkConfig     `yaml:"network" mapstructure:"network"`
	Geometry    GeometryConfig    `yaml:"geometry" mapstructure:"geometry"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// PreciselyConfig points to per-state source data.
type PreciselyConfig struct {
	Version string `yaml:"version" mapstructure:"version"`
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// OutputsConfig configures the workspace and the exported files.
type OutputsConfig struct {
	Workspace            string   `yaml:"workspace" mapstructure:"workspace"`
	OutputFolder         string   `yaml:"output_folder" mapstructure:"output_folder"`
	States               []string `yaml:"states" mapstructure:"states"`
	Format               string   `yaml:"format" mapstructure:"format"`
	DatabaseURL          string   `yaml:"database_url" mapstructure:"database_url"`
	GeodatabaseName      string   `yaml:"geodatabase_name" mapstructure:"geodatabase_name"`
	LocatorName          string   `yaml:"locator_name" mapstructure:"locator_name"`
	NetworkName          string   `yaml:"network_name" mapstructure:"network_name"`
	DissolvedNetworkName string   `yaml:"dissolved_network_name" mapstructure:"dissolved_network_name"`
	PackageName          string   `yaml:"package_name" mapstructure:"package_name"`
	GeometryFormat       string   `yaml:"geometry_format" mapstructure:"geometry_format"`
	ProjectWebMercator   bool     `yaml:"project_web_mercator" mapstructure:"project_web_mercator"`
}

// BatchConfig holds flush thresholds of batched writers.
type BatchConfig struct {
	TurnSize     int `yaml:"turn_size" mapstructure:"turn_size"`
	SignpostSize int `yaml:"signpost_size" mapstructure:"signpost_size"`
}

// IdentifiersConfig selects how signpost references are resolved.
type IdentifiersConfig struct {
	ResolveMode string `yaml:"resolve_mode" mapstructure:"resolve_mode"`
}

// NetworkConfig toggles network dataset builds.
type NetworkConfig struct {
	Build    bool `yaml:"build" mapstructure:"build"`
	Contract bool `yaml:"contract" mapstructure:"contract"`
	Dissolve bool `yaml:"dissolve" mapstructure:"dissolve"`
}

type GeometryConfig struct {
	XYTolerance float64 `yaml:"xy_tolerance" mapstructure:"xy_tolerance"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Workspace formats
const (
	FormatSQLite   = "sqlite"
	FormatPostgres = "postgres"
	FormatMemory   = "memory"
)

// Load reads natmap.yaml from the working directory or ./config, then applies NATMAP_* environment overrides.
// Missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("natmap")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("NATMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("precisely.version", "2024_Q4")
	v.SetDefault("precisely.data_dir", "./data")
	v.SetDefault("outputs.workspace", "./output")
	v.SetDefault("outputs.output_folder", "./output")
	v.SetDefault("outputs.states", []string{natmap.ALL_US_STATES})
	v.SetDefault("outputs.format", FormatSQLite)
	v.SetDefault("outputs.geodatabase_name", "national_streets.gdb.sqlite")
	v.SetDefault("outputs.locator_name", "national_locator")
	v.SetDefault("outputs.network_name", "routing_ND")
	v.SetDefault("outputs.dissolved_network_name", "routing_ND_dissolved")
	v.SetDefault("outputs.package_name", "national_streets")
	v.SetDefault("outputs.geometry_format", natmap.GEOM_FORMAT_WKT.String())
	v.SetDefault("outputs.project_web_mercator", true)
	v.SetDefault("batch.turn_size", 50000)
	v.SetDefault("batch.signpost_size", 5000)
	v.SetDefault("identifiers.resolve_mode", natmap.RESOLVE_MODE_MEMORY.String())
	v.SetDefault("network.build", true)
	v.SetDefault("network.contract", true)
	v.SetDefault("network.dissolve", true)
	v.SetDefault("geometry.xy_tolerance", 0.001)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// PipelineOptions converts configuration into immutable pipeline options.
func (cfg *Config) PipelineOptions(runID string) (natmap.Options, error) {
	states, err := natmap.ParseStates(cfg.Outputs.States)
	if err != nil {
		return natmap.Options{}, errors.Wrap(err, "config: outputs.states")
	}
	mode, err := natmap.ParseResolveMode(cfg.Identifiers.ResolveMode)
	if err != nil {
		return natmap.Options{}, errors.Wrap(err, "config: identifiers.resolve_mode")
	}
	geomFormat, err := natmap.ParseGeomFormat(cfg.Outputs.GeometryFormat)
	if err != nil {
		return natmap.Options{}, errors.Wrap(err, "config: outputs.geometry_format")
	}
	return natmap.NewOptions(
		natmap.WithStates(states),
		natmap.WithOutputFolder(cfg.Outputs.OutputFolder),
		natmap.WithTurnBatchSize(cfg.Batch.TurnSize),
		natmap.WithSignpostBatchSize(cfg.Batch.SignpostSize),
		natmap.WithResolveMode(mode),
		natmap.WithXYTolerance(cfg.Geometry.XYTolerance),
		natmap.WithWebMercator(cfg.Outputs.ProjectWebMercator),
		natmap.WithNetwork(cfg.Network.Build, cfg.Network.Contract, cfg.Network.Dissolve),
		natmap.WithNetworkNames(cfg.Outputs.NetworkName, cfg.Outputs.DissolvedNetworkName),
		natmap.WithLocatorName(cfg.Outputs.LocatorName),
		natmap.WithPackageName(cfg.Outputs.PackageName),
		natmap.WithGeomFormat(geomFormat),
		natmap.WithRunID(runID),
	), nil
}

// InitLogger builds console (development) or json (production) logger and installs it globally.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return errors.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
