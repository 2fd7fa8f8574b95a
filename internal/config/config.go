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

	StorageType          string `mapstructure:"storage_type"`
	BBoltPath            string `mapstructure:"bbolt_path"`
	StorageMaxValueBytes int    `mapstructure:"storage_max_value_bytes"`
	BlocklistKey         string `mapstructure:"blocklist_key"`

	LayoutFile string `mapstructure:"layout_file"`

	WatchDebounceMs int64         `mapstructure:"watch_debounce_ms"`
	WatchDebounce   time.Duration `mapstructure:"-"`

	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	UserAgent          string        `mapstructure:"user_agent"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "listing-filter")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "warn")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/listing-filter.db")
	v.SetDefault("storage_max_value_bytes", 5<<20) // roughly a browser storage quota
	v.SetDefault("blocklist_key", "seller_blocklist")
	v.SetDefault("layout_file", "")
	v.SetDefault("watch_debounce_ms", 250)
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("user_agent", "listing-filter/1.0")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.WatchDebounce = time.Duration(cfg.WatchDebounceMs) * time.Millisecond
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	return &cfg, nil
}

func (c *Config) validate() error {
	c.StorageType = strings.TrimSpace(strings.ToLower(c.StorageType))
	switch c.StorageType {
	case "", "none", "disabled", "memory", "bbolt":
	default:
		return fmt.Errorf("invalid storage_type %q (expected bbolt, memory or none)", c.StorageType)
	}
	if c.StorageType == "bbolt" && strings.TrimSpace(c.BBoltPath) == "" {
		return fmt.Errorf("invalid bbolt_path (required for bbolt storage)")
	}
	if c.StorageMaxValueBytes < 0 {
		return fmt.Errorf("invalid storage_max_value_bytes (must not be negative)")
	}
	c.BlocklistKey = strings.TrimSpace(c.BlocklistKey)
	if c.BlocklistKey == "" {
		return fmt.Errorf("invalid blocklist_key (must not be empty)")
	}
	if c.WatchDebounceMs <= 0 {
		return fmt.Errorf("invalid watch_debounce_ms (must be positive milliseconds)")
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	return nil
}
