package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

// Config holds the full application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Tiers  TiersConfig  `yaml:"tiers" mapstructure:"tiers"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FetchConfig configures upstream providers and the HTTP client.
type FetchConfig struct {
	NIFCBaseURL     string  `yaml:"nifc_base_url" mapstructure:"nifc_base_url"`
	NIFCLayerPrefix string  `yaml:"nifc_layer_prefix" mapstructure:"nifc_layer_prefix"`
	GeoMACBaseURL   string  `yaml:"geomac_base_url" mapstructure:"geomac_base_url"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries      int     `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec      float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Timeout returns the per-request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// TiersConfig holds the two rendering tiers.
type TiersConfig struct {
	High perimeter.Tier `yaml:"high" mapstructure:"high"`
	Low  perimeter.Tier `yaml:"low" mapstructure:"low"`
}

// All returns the tiers in output order, HIGH first.
func (t TiersConfig) All() []perimeter.Tier {
	return []perimeter.Tier{t.High, t.Low}
}

// OutputConfig configures where and from which provider artifacts are built.
type OutputConfig struct {
	Dest   string `yaml:"dest" mapstructure:"dest"`
	Source string `yaml:"source" mapstructure:"source"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WILDFIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	high, low := perimeter.DefaultHigh(), perimeter.DefaultLow()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetch.nifc_base_url", "https://services3.arcgis.com/T4QMspbfLg3qTGWY/arcgis/rest/services")
	v.SetDefault("fetch.nifc_layer_prefix", "Historic_Geomac_Perimeters_")
	v.SetDefault("fetch.geomac_base_url", "https://rmgsc.cr.usgs.gov/outgoing/GeoMAC")
	v.SetDefault("fetch.timeout_secs", 300)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "wildfire-cli/1.0")
	v.SetDefault("fetch.rate_per_sec", 2)
	v.SetDefault("tiers.high.min_acres", high.MinAcres)
	v.SetDefault("tiers.high.tolerance", high.Tolerance)
	v.SetDefault("tiers.high.hex_resolution", high.HexResolution)
	v.SetDefault("tiers.low.min_acres", low.MinAcres)
	v.SetDefault("tiers.low.tolerance", low.Tolerance)
	v.SetDefault("tiers.low.hex_resolution", low.HexResolution)
	v.SetDefault("output.dest", "static/data/fires")
	v.SetDefault("output.source", "nifc")

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
	cfg.Tiers.High.Name = perimeter.TierHigh
	cfg.Tiers.Low.Name = perimeter.TierLow

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	for _, t := range c.Tiers.All() {
		if t.Tolerance < 0 {
			return eris.Errorf("config: tier %s tolerance must not be negative", t.Name)
		}
		if t.HexResolution < 0 || t.HexResolution > 15 {
			return eris.Errorf("config: tier %s hex resolution %d out of range 0-15", t.Name, t.HexResolution)
		}
	}
	switch c.Output.Source {
	case "nifc", "geomac":
	default:
		return eris.Errorf("config: unknown output source %q", c.Output.Source)
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
