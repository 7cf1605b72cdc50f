package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Mapbox     MapboxConfig     `yaml:"mapbox" mapstructure:"mapbox"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Policy     PolicyConfig     `yaml:"policy" mapstructure:"policy"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MapboxConfig holds Mapbox geocoding settings. An empty token is not a
// startup failure; the pipeline degrades to fallback coordinates.
type MapboxConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ClassifierConfig selects and configures the classification backend.
type ClassifierConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	HFToken string `yaml:"hf_token" mapstructure:"hf_token"`
	HFModel string `yaml:"hf_model" mapstructure:"hf_model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for the Claude backend.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PolicyConfig holds the trust scoring policy knobs. The defaults carry
// the original product values; their derivation is undocumented, which
// is exactly why they are configuration rather than literals.
type PolicyConfig struct {
	PersistThreshold     float64 `yaml:"persist_threshold" mapstructure:"persist_threshold"`
	DisplayThreshold     float64 `yaml:"display_threshold" mapstructure:"display_threshold"`
	ConsistencyRadiusKM  float64 `yaml:"consistency_radius_km" mapstructure:"consistency_radius_km"`
	InconsistencyPenalty float64 `yaml:"inconsistency_penalty" mapstructure:"inconsistency_penalty"`
	FallbackLatitude     float64 `yaml:"fallback_latitude" mapstructure:"fallback_latitude"`
	FallbackLongitude    float64 `yaml:"fallback_longitude" mapstructure:"fallback_longitude"`
	DashboardLimit       int     `yaml:"dashboard_limit" mapstructure:"dashboard_limit"`
	RecentLimit          int     `yaml:"recent_limit" mapstructure:"recent_limit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("CRIMEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "crimewatch.db")
	v.SetDefault("mapbox.base_url", "https://api.mapbox.com")
	v.SetDefault("mapbox.rate_limit", 10.0)
	v.SetDefault("classifier.backend", "huggingface")
	v.SetDefault("classifier.hf_model", "toladimeji/bert_crime_alert_classifier")
	v.SetDefault("classifier.base_url", "https://api-inference.huggingface.co")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("policy.persist_threshold", 0.3)
	v.SetDefault("policy.display_threshold", 0.5)
	v.SetDefault("policy.consistency_radius_km", 50.0)
	v.SetDefault("policy.inconsistency_penalty", 0.8)
	v.SetDefault("policy.fallback_latitude", 6.6018)
	v.SetDefault("policy.fallback_longitude", 3.3515)
	v.SetDefault("policy.dashboard_limit", 50)
	v.SetDefault("policy.recent_limit", 10)
	v.SetDefault("server.port", 8080)
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

	return &cfg, nil
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
