// Package config handles configuration loading for FinPulse.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	NewsAPI NewsAPIConfig `mapstructure:"newsapi" yaml:"newsapi"`
	RSS     RSSConfig     `mapstructure:"rss"     yaml:"rss"`
	Fetch   FetchConfig   `mapstructure:"fetch"   yaml:"fetch"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// NewsAPIConfig holds NewsAPI.org credentials and behavior.
type NewsAPIConfig struct {
	Key string `mapstructure:"key" yaml:"key"`
}

// RSSConfig holds RSS adapter settings.
type RSSConfig struct {
	Parser string `mapstructure:"parser" yaml:"parser"` // "gofeed" or "xml"
}

// FetchConfig holds fetch pipeline defaults.
type FetchConfig struct {
	Mode     string `mapstructure:"mode"      yaml:"mode"`      // "api", "rss", "both"
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
	Country  string `mapstructure:"country"   yaml:"country"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // SQLite file path
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.finpulse/config.yaml (home directory)
//  3. /etc/finpulse/config.yaml (system)
//
// Environment variables override config file values.
// Format: FINPULSE_<SECTION>_<KEY>, e.g., FINPULSE_NEWSAPI_KEY
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".finpulse"))
	v.AddConfigPath("/etc/finpulse")

	v.SetEnvPrefix("FINPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not existing is fine; defaults + env vars carry it.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("FINPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("rss.parser", "gofeed")

	v.SetDefault("fetch.mode", "both")
	v.SetDefault("fetch.page_size", 50)
	v.SetDefault("fetch.country", "us")

	v.SetDefault("store.path", "finpulse.db")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("FINPULSE_NEWSAPI_KEY"); key != "" {
		cfg.NewsAPI.Key = key
	}
	// Legacy deployments export the unprefixed name.
	if cfg.NewsAPI.Key == "" {
		cfg.NewsAPI.Key = os.Getenv("NEWS_API_KEY")
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
