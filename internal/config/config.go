// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (STOCKCHAT_* overrides)
//  2. Config file (~/.stockchat/config.yaml or ./config.yaml)
//  3. Default values
//
// The loaded Config is constructed once in cmd and passed into each
// component; nothing in this codebase reads configuration globally.
//
// Validation is fail-fast: Load returns an error built from the sentinel
// errors below, checkable with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidOllamaHost indicates the Ollama host URL is unusable.
	ErrInvalidOllamaHost = errors.New("invalid ollama host")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidInventoryURL indicates the inventory backend URL is unusable.
	ErrInvalidInventoryURL = errors.New("invalid inventory URL")

	// ErrInvalidRateBurst indicates a negative rate-limit burst.
	ErrInvalidRateBurst = errors.New("invalid rate burst")
)

// Defaults mirror a local development setup: Ollama on its standard port
// and the inventory backend on its standard port.
const (
	DefaultAddr         = "127.0.0.1:3003"
	DefaultOllamaHost   = "http://localhost:11434"
	DefaultModelName    = "qwen3:0.6b"
	DefaultInventoryURL = "http://localhost:3000"
	DefaultTemperature  = 0.7
	DefaultRateBurst    = 20
)

// Config stores application configuration.
type Config struct {
	// HTTP server listen address (host:port).
	Addr string `mapstructure:"addr"`

	// Generative model backend.
	OllamaHost  string  `mapstructure:"ollama_host"`
	ModelName   string  `mapstructure:"model_name"`
	Temperature float64 `mapstructure:"temperature"`

	// AllowTagFallback accepts a same-family model with a different tag
	// (e.g. configured "qwen3:0.6b", installed "qwen3") as a substitute.
	// This is a compatibility heuristic, not an equivalence guarantee;
	// set false to require an exact registry match.
	AllowTagFallback bool `mapstructure:"ollama_allow_tag_fallback"`

	// Inventory backend base URL.
	InventoryURL string `mapstructure:"inventory_url"`

	// API rate limiting: token bucket burst per server. 0 disables limiting.
	RateBurst int `mapstructure:"rate_burst"`

	// Logging.
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".stockchat"))
	}
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("ollama_host", DefaultOllamaHost)
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("ollama_allow_tag_fallback", true)
	v.SetDefault("inventory_url", DefaultInventoryURL)
	v.SetDefault("rate_burst", DefaultRateBurst)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds environment overrides explicitly. Hardcoded keys
// cannot fail to bind; a bind error here is a bug, not a runtime condition.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("addr", "STOCKCHAT_ADDR")
	mustBind("ollama_host", "STOCKCHAT_OLLAMA_HOST")
	mustBind("model_name", "STOCKCHAT_MODEL_NAME")
	mustBind("temperature", "STOCKCHAT_TEMPERATURE")
	mustBind("ollama_allow_tag_fallback", "STOCKCHAT_OLLAMA_ALLOW_TAG_FALLBACK")
	mustBind("inventory_url", "STOCKCHAT_INVENTORY_URL")
	mustBind("rate_burst", "STOCKCHAT_RATE_BURST")
	mustBind("log_level", "STOCKCHAT_LOG_LEVEL")
	mustBind("log_json", "STOCKCHAT_LOG_JSON")
}
