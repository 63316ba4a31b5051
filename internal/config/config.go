package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/samlevin11/TopographicPositionIndex/internal/focal"
)

// Config holds the full application configuration.
type Config struct {
	TPI        TPIConfig        `yaml:"tpi" mapstructure:"tpi"`
	Classify   ClassifyConfig   `yaml:"classify" mapstructure:"classify"`
	Processing ProcessingConfig `yaml:"processing" mapstructure:"processing"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Render     RenderConfig     `yaml:"render" mapstructure:"render"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// TPIConfig holds the default neighbourhoods. The single-scale radii drive
// the tpi and slope-position commands; the small and large pairs drive
// landform classification from a DEM.
type TPIConfig struct {
	InnerRadius      float64 `yaml:"inner_radius" mapstructure:"inner_radius"`
	OuterRadius      float64 `yaml:"outer_radius" mapstructure:"outer_radius"`
	Unit             string  `yaml:"unit" mapstructure:"unit"`
	SmallInnerRadius float64 `yaml:"small_inner_radius" mapstructure:"small_inner_radius"`
	SmallOuterRadius float64 `yaml:"small_outer_radius" mapstructure:"small_outer_radius"`
	LargeInnerRadius float64 `yaml:"large_inner_radius" mapstructure:"large_inner_radius"`
	LargeOuterRadius float64 `yaml:"large_outer_radius" mapstructure:"large_outer_radius"`
}

// ClassifyConfig holds classification thresholds. Slope thresholds are in
// degrees.
type ClassifyConfig struct {
	FlatSlopeThreshold     float64 `yaml:"flat_slope_threshold" mapstructure:"flat_slope_threshold"`
	StdDevThreshold        float64 `yaml:"stdev_threshold" mapstructure:"stdev_threshold"`
	LandformSlopeThreshold float64 `yaml:"landform_slope_threshold" mapstructure:"landform_slope_threshold"`
}

// ProcessingConfig tunes the focal workers.
type ProcessingConfig struct {
	Workers              int `yaml:"workers" mapstructure:"workers"`
	ProgressIntervalSecs int `yaml:"progress_interval_secs" mapstructure:"progress_interval_secs"`
}

// ProgressInterval returns the progress log interval as a duration.
func (p ProcessingConfig) ProgressInterval() time.Duration {
	return time.Duration(p.ProgressIntervalSecs) * time.Second
}

// StoreConfig configures the run catalog backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FetchConfig configures remote raster downloads.
type FetchConfig struct {
	TimeoutSecs    int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries        int `yaml:"retries" mapstructure:"retries"`
	RetryBackoffMs int `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// Timeout returns the download timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// RenderConfig configures quicklooks and histograms.
type RenderConfig struct {
	QuicklookMaxSize int `yaml:"quicklook_max_size" mapstructure:"quicklook_max_size"`
	HistogramBins    int `yaml:"histogram_bins" mapstructure:"histogram_bins"`
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
	v.SetEnvPrefix("TPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tpi.inner_radius", 0)
	v.SetDefault("tpi.outer_radius", 10)
	v.SetDefault("tpi.unit", "CELL")
	v.SetDefault("tpi.small_inner_radius", 0)
	v.SetDefault("tpi.small_outer_radius", 5)
	v.SetDefault("tpi.large_inner_radius", 0)
	v.SetDefault("tpi.large_outer_radius", 25)
	v.SetDefault("classify.flat_slope_threshold", 5)
	v.SetDefault("classify.stdev_threshold", 1)
	v.SetDefault("classify.landform_slope_threshold", 5)
	v.SetDefault("processing.workers", 0)
	v.SetDefault("processing.progress_interval_secs", 5)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "tpi.db")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.retry_backoff_ms", 500)
	v.SetDefault("render.quicklook_max_size", 1024)
	v.SetDefault("render.histogram_bins", 50)

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

	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []string

	if _, err := focal.ParseUnit(c.TPI.Unit); err != nil {
		errs = append(errs, "tpi.unit must be CELL or MAP")
	}
	if c.TPI.OuterRadius <= 0 || c.TPI.SmallOuterRadius <= 0 || c.TPI.LargeOuterRadius <= 0 {
		errs = append(errs, "tpi outer radii must be > 0")
	}
	if c.TPI.InnerRadius < 0 || c.TPI.SmallInnerRadius < 0 || c.TPI.LargeInnerRadius < 0 {
		errs = append(errs, "tpi inner radii must be >= 0")
	}
	if c.Classify.StdDevThreshold <= 0 {
		errs = append(errs, "classify.stdev_threshold must be > 0")
	}
	if c.Classify.FlatSlopeThreshold < 0 || c.Classify.LandformSlopeThreshold < 0 {
		errs = append(errs, "classify slope thresholds must be >= 0")
	}
	if c.Fetch.Retries < 0 {
		errs = append(errs, "fetch.retries must be >= 0")
	}
	if c.Processing.Workers < 0 {
		errs = append(errs, "processing.workers must be >= 0")
	}
	switch c.Store.Driver {
	case "", "sqlite", "postgres", "postgresql", "pgx":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
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
