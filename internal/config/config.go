package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	CatalogURL string `mapstructure:"catalog_url"`
	SinksFile  string `mapstructure:"sinks_file"`

	StorageType string `mapstructure:"storage_type"`
	BBoltPath   string `mapstructure:"bbolt_path"`

	FetchTimeoutSeconds int64         `mapstructure:"fetch_timeout_seconds"`
	FetchRetries        int           `mapstructure:"fetch_retries"`
	RetryBackoffMs      int64         `mapstructure:"retry_backoff_ms"`
	ItemDelayMs         int64         `mapstructure:"item_delay_ms"`
	FetchTimeout        time.Duration `mapstructure:"-"`
	RetryBackoff        time.Duration `mapstructure:"-"`
	ItemDelay           time.Duration `mapstructure:"-"`

	DiscoverSettleMs       int64         `mapstructure:"discover_settle_ms"`
	DiscoverMaxIdleSteps   int           `mapstructure:"discover_max_idle_steps"`
	DiscoverScrollsPerStep int           `mapstructure:"discover_scrolls_per_step"`
	BrowserHeadless        bool          `mapstructure:"browser_headless"`
	DiscoverSettle         time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "gamedex-catalog-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("catalog_url", "")
	v.SetDefault("sinks_file", "./configs/sinks.yaml")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/catalog.db")
	v.SetDefault("fetch_timeout_seconds", 15)
	v.SetDefault("fetch_retries", 3)
	v.SetDefault("retry_backoff_ms", 5000)
	v.SetDefault("item_delay_ms", 500)
	v.SetDefault("discover_settle_ms", 3000)
	v.SetDefault("discover_max_idle_steps", 5)
	v.SetDefault("discover_scrolls_per_step", 3)
	v.SetDefault("browser_headless", true)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.CatalogURL) == "" {
		return nil, fmt.Errorf("catalog_url is required")
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid fetch_timeout_seconds (must be positive)")
	}
	if cfg.FetchRetries <= 0 {
		return nil, fmt.Errorf("invalid fetch_retries (must be positive)")
	}
	if cfg.RetryBackoffMs < 0 || cfg.ItemDelayMs < 0 || cfg.DiscoverSettleMs < 0 {
		return nil, fmt.Errorf("delay settings must not be negative")
	}
	if cfg.DiscoverMaxIdleSteps <= 0 {
		return nil, fmt.Errorf("invalid discover_max_idle_steps (must be positive)")
	}
	if cfg.DiscoverScrollsPerStep <= 0 {
		return nil, fmt.Errorf("invalid discover_scrolls_per_step (must be positive)")
	}

	cfg.FetchTimeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	cfg.RetryBackoff = time.Duration(cfg.RetryBackoffMs) * time.Millisecond
	cfg.ItemDelay = time.Duration(cfg.ItemDelayMs) * time.Millisecond
	cfg.DiscoverSettle = time.Duration(cfg.DiscoverSettleMs) * time.Millisecond

	return &cfg, nil
}
