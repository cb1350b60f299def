// Package config loads and validates discovery-run settings.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted in the chain configuration, in their usual
// priority order.
const (
	ProviderSerpAPI        = "serpapi"
	ProviderDuckDuckGo     = "duckduckgo"
	ProviderGoogleFallback = "google_fallback"
)

// Config holds everything a discovery run needs. It is caller-constructed
// and explicitly passed; nothing here lives in package-level state.
type Config struct {
	// SerpAPIKey enables the structured API provider when non-empty.
	SerpAPIKey string `mapstructure:"serpapi_key"`

	// Providers is the fallback chain in priority order.
	Providers []string `mapstructure:"providers"`

	MaxQueries         int           `mapstructure:"max_queries"`
	MaxResultsPerQuery int           `mapstructure:"max_results_per_query"`
	MaxTotalResults    int           `mapstructure:"max_total_results"`
	Delay              time.Duration `mapstructure:"delay"`
	Jitter             float64       `mapstructure:"jitter"`
	Timeout            time.Duration `mapstructure:"timeout"`

	Fingerprint string `mapstructure:"fingerprint"`
	ProxyFile   string `mapstructure:"proxy_file"`

	// Output is the JSON report path; empty writes the report to stdout only.
	Output string `mapstructure:"output"`

	// StorageDriver selects run persistence: "", "json", "csv", "sqlite",
	// "postgres". StorageDSN is the file path or connection string.
	StorageDriver string `mapstructure:"storage_driver"`
	StorageDSN    string `mapstructure:"storage_dsn"`

	// MetricsPort exposes /metrics when > 0.
	MetricsPort int `mapstructure:"metrics_port"`
}

// Load reads configuration from the environment (PROSPECT_ prefix) and an
// optional YAML file, layering file values under env overrides.
func Load(file string) (*Config, error) {
	v := viper.New()

	// No default is registered for "providers": the default chain is applied
	// after Unmarshal, so an explicit chain stays distinguishable from an
	// absent one when deciding whether the API key promotes serpapi.
	v.SetDefault("max_queries", 0) // 0 derives the cap from the attributes
	v.SetDefault("max_results_per_query", 10)
	v.SetDefault("max_total_results", 50)
	v.SetDefault("delay", "2s")
	v.SetDefault("jitter", 0.0)
	v.SetDefault("timeout", "10s")
	v.SetDefault("fingerprint", "chrome")

	// Keys without a meaningful default still need one registered so that
	// AutomaticEnv values survive Unmarshal.
	v.SetDefault("serpapi_key", "")
	v.SetDefault("proxy_file", "")
	v.SetDefault("output", "")
	v.SetDefault("storage_driver", "")
	v.SetDefault("storage_dsn", "")
	v.SetDefault("metrics_port", 0)

	v.SetEnvPrefix("PROSPECT")
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	// Unmarshal misses env-only keys that have no registered default, so the
	// chain is fetched explicitly when the env var is the only source.
	if len(cfg.Providers) == 0 && v.IsSet("providers") {
		cfg.Providers = v.GetStringSlice("providers")
	}

	// No explicit chain: fall back to the scrapers, and an API key implies
	// the structured provider leads.
	if len(cfg.Providers) == 0 {
		cfg.Providers = []string{ProviderDuckDuckGo, ProviderGoogleFallback}
		if cfg.SerpAPIKey != "" {
			cfg.Providers = append([]string{ProviderSerpAPI}, cfg.Providers...)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot produce a well-defined run.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("config: provider chain is empty")
	}
	for _, p := range c.Providers {
		switch p {
		case ProviderSerpAPI, ProviderDuckDuckGo, ProviderGoogleFallback:
		default:
			return fmt.Errorf("config: unknown provider %q (want one of %s)", p,
				strings.Join([]string{ProviderSerpAPI, ProviderDuckDuckGo, ProviderGoogleFallback}, ", "))
		}
		if p == ProviderSerpAPI && c.SerpAPIKey == "" {
			return fmt.Errorf("config: provider %q requires serpapi_key", ProviderSerpAPI)
		}
	}

	if c.MaxResultsPerQuery <= 0 {
		return fmt.Errorf("config: max_results_per_query must be positive")
	}
	if c.MaxTotalResults < 0 {
		return fmt.Errorf("config: max_total_results cannot be negative")
	}
	if c.Delay < 0 {
		return fmt.Errorf("config: delay cannot be negative")
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return fmt.Errorf("config: jitter must be between 0.0 and 1.0")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive")
	}

	switch c.StorageDriver {
	case "", "json", "csv", "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.StorageDriver)
	}
	if c.StorageDriver != "" && c.StorageDSN == "" {
		return fmt.Errorf("config: storage_dsn required for driver %q", c.StorageDriver)
	}

	return nil
}
