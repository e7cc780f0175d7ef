package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vironax/adinsights/internal/domain"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Meta     MetaConfig     `yaml:"meta"`
	Shopify  ShopifyConfig  `yaml:"shopify"`
	Salla    SallaConfig    `yaml:"salla"`
	Sync     SyncConfig     `yaml:"sync"`
	Budget   BudgetConfig   `yaml:"budget"`
	Stores   []domain.Store `yaml:"stores"`

	DefaultTimezone string `yaml:"default_timezone"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port                  int    `yaml:"port"`
	Host                  string `yaml:"host"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// RequestTimeout returns the per-request deadline as a duration.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the Redis connection settings for the high-water-mark
// and notification records.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// MetaConfig holds Meta Marketing API settings. AccessTokens and AccountIDs
// are keyed by store ID.
type MetaConfig struct {
	BaseURL        string            `yaml:"base_url"`
	APIVersion     string            `yaml:"api_version"`
	AccessTokens   map[string]string `yaml:"access_tokens"`
	AccountIDs     map[string]string `yaml:"account_ids"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Enabled        bool              `yaml:"enabled"`
}

// Timeout returns the configured HTTP timeout as a duration.
func (c MetaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ShopifyConfig holds Shopify Admin API settings keyed by store ID.
type ShopifyConfig struct {
	AccessTokens   map[string]string `yaml:"access_tokens"`
	ShopDomains    map[string]string `yaml:"shop_domains"`
	APIVersion     string            `yaml:"api_version"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Enabled        bool              `yaml:"enabled"`
}

// Timeout returns the configured HTTP timeout as a duration.
func (c ShopifyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SallaConfig holds Salla Merchant API settings keyed by store ID.
type SallaConfig struct {
	BaseURL        string            `yaml:"base_url"`
	AccessTokens   map[string]string `yaml:"access_tokens"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Enabled        bool              `yaml:"enabled"`
}

// Timeout returns the configured HTTP timeout as a duration.
func (c SallaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SyncConfig holds the sync orchestrator settings.
type SyncConfig struct {
	IntervalMinutes    int `yaml:"interval_minutes"`
	WindowDays         int `yaml:"window_days"`
	TimeoutMinutes     int `yaml:"timeout_minutes"`
	BatchSize          int `yaml:"batch_size"`
	WriterQueueBatches int `yaml:"writer_queue_batches"`
}

// Interval returns the scheduled sync interval as a duration.
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Timeout returns the per-sync deadline as a duration.
func (c SyncConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// BudgetConfig holds the budget-intelligence tuning knobs.
type BudgetConfig struct {
	PriorWindowDays    int     `yaml:"prior_window_days"`
	PriorSampleSize    float64 `yaml:"prior_sample_size"`
	TargetROAS         float64 `yaml:"target_roas"`
	TargetCAC          float64 `yaml:"target_cac"`
	TestDays           int     `yaml:"test_days"`
	MinDaily           float64 `yaml:"min_daily"`
	MaxDaily           float64 `yaml:"max_daily"`
	TargetPurchasesMin int     `yaml:"target_purchases_min"`
	TargetPurchasesMax int     `yaml:"target_purchases_max"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.RequestTimeoutSeconds == 0 {
		c.Server.RequestTimeoutSeconds = 60
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Meta.BaseURL == "" {
		c.Meta.BaseURL = "https://graph.facebook.com"
	}
	if c.Meta.APIVersion == "" {
		c.Meta.APIVersion = "v19.0"
	}
	if c.Meta.TimeoutSeconds == 0 {
		c.Meta.TimeoutSeconds = 30
	}
	if c.Shopify.APIVersion == "" {
		c.Shopify.APIVersion = "2024-01"
	}
	if c.Shopify.TimeoutSeconds == 0 {
		c.Shopify.TimeoutSeconds = 30
	}
	if c.Salla.BaseURL == "" {
		c.Salla.BaseURL = "https://api.salla.dev"
	}
	if c.Salla.TimeoutSeconds == 0 {
		c.Salla.TimeoutSeconds = 30
	}
	if c.Sync.IntervalMinutes == 0 {
		c.Sync.IntervalMinutes = 60
	}
	if c.Sync.WindowDays == 0 {
		c.Sync.WindowDays = 30
	}
	if c.Sync.TimeoutMinutes == 0 {
		c.Sync.TimeoutMinutes = 10
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = 500
	}
	if c.Sync.WriterQueueBatches == 0 {
		c.Sync.WriterQueueBatches = 5
	}
	if c.Budget.PriorWindowDays == 0 {
		c.Budget.PriorWindowDays = 28
	}
	if c.Budget.PriorSampleSize == 0 {
		c.Budget.PriorSampleSize = 20
	}
	if c.Budget.TargetROAS == 0 {
		c.Budget.TargetROAS = 1.4
	}
	if c.Budget.TestDays == 0 {
		c.Budget.TestDays = 4
	}
	if c.Budget.MinDaily == 0 {
		c.Budget.MinDaily = 50
	}
	if c.Budget.MaxDaily == 0 {
		c.Budget.MaxDaily = 1000
	}
	if c.Budget.TargetPurchasesMin == 0 {
		c.Budget.TargetPurchasesMin = 3
	}
	if c.Budget.TargetPurchasesMax == 0 {
		c.Budget.TargetPurchasesMax = 10
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = "Asia/Riyadh"
	}
	for i := range c.Stores {
		if c.Stores[i].Timezone == "" {
			c.Stores[i].Timezone = c.DefaultTimezone
		}
		if c.Stores[i].Currency == "" {
			c.Stores[i].Currency = "SAR"
		}
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("META_BASE_URL"); v != "" {
		cfg.Meta.BaseURL = v
	}
	if v := os.Getenv("SALLA_BASE_URL"); v != "" {
		cfg.Salla.BaseURL = v
	}

	return cfg, nil
}

// StoreByID returns the configured store, or an error naming the unknown ID.
func (c *Config) StoreByID(id string) (domain.Store, error) {
	for _, s := range c.Stores {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Store{}, fmt.Errorf("unknown store %q", id)
}
