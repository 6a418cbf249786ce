// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// A .env file in the working directory is loaded into the environment first;
// it never overrides variables that are already set.
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	token := cfg.YNAB.Token
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	YNAB          YNABConfig          `yaml:"ynab"`
	Amazon        AmazonConfig        `yaml:"amazon"`
	Sync          SyncConfig          `yaml:"sync"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	API           APIConfig           `yaml:"api"`
}

// YNABConfig holds YNAB API configuration
type YNABConfig struct {
	Token    string `yaml:"token"`
	BudgetID string `yaml:"budget_id"` // "last-used" when empty
	BaseURL  string `yaml:"base_url"`
}

// AmazonConfig holds Amazon order fetching and matching settings
type AmazonConfig struct {
	Stage1WindowDays    int     `yaml:"stage1_window_days"`
	Stage2WindowDays    int     `yaml:"stage2_window_days"`
	AmountTolerance     float64 `yaml:"amount_tolerance"`
	EarliestHistoryDays int     `yaml:"earliest_history_days"`
	PayeeFilter         string  `yaml:"payee_filter"`
	Profile             string  `yaml:"profile"`
	Headless            bool    `yaml:"headless"`
	ScraperCommand      string  `yaml:"scraper_command"`
}

// SyncConfig holds pull scheduling settings
type SyncConfig struct {
	OverlapDays int    `yaml:"overlap_days"`
	Schedule    string `yaml:"schedule"` // cron expression; empty disables scheduled pulls
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// APIConfig holds HTTP API settings
type APIConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Defaults
const (
	DefaultBudgetID            = "last-used"
	DefaultYNABBaseURL         = "https://api.ynab.com/v1"
	DefaultStage1WindowDays    = 7
	DefaultStage2WindowDays    = 24
	DefaultAmountTolerance     = 0.10
	DefaultEarliestHistoryDays = 365
	DefaultPayeeFilter         = "amazon"
	DefaultScraperCommand      = "amazon-scraper"
	DefaultOverlapDays         = 7
	DefaultDatabasePath        = "ynab_reconcile.db"
	DefaultAPIPort             = 8085
)

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${YNAB_TOKEN})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		YNAB: YNABConfig{
			Token:    os.Getenv("YNAB_TOKEN"),
			BudgetID: getEnv("YNAB_BUDGET_ID", DefaultBudgetID),
			BaseURL:  getEnv("YNAB_BASE_URL", DefaultYNABBaseURL),
		},
		Amazon: AmazonConfig{
			Stage1WindowDays:    getEnvInt("AMAZON_STAGE1_WINDOW_DAYS", DefaultStage1WindowDays),
			Stage2WindowDays:    getEnvInt("AMAZON_STAGE2_WINDOW_DAYS", DefaultStage2WindowDays),
			AmountTolerance:     getEnvFloat("AMAZON_AMOUNT_TOLERANCE", DefaultAmountTolerance),
			EarliestHistoryDays: getEnvInt("AMAZON_EARLIEST_HISTORY_DAYS", DefaultEarliestHistoryDays),
			PayeeFilter:         getEnv("AMAZON_PAYEE_FILTER", DefaultPayeeFilter),
			Profile:             os.Getenv("AMAZON_PROFILE"),
			Headless:            getEnvBool("AMAZON_HEADLESS", true),
			ScraperCommand:      getEnv("AMAZON_SCRAPER_COMMAND", DefaultScraperCommand),
		},
		Sync: SyncConfig{
			OverlapDays: getEnvInt("SYNC_OVERLAP_DAYS", DefaultOverlapDays),
			Schedule:    os.Getenv("SYNC_SCHEDULE"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("YNAB_RECONCILE_DB_PATH", DefaultDatabasePath),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
		API: APIConfig{
			Port: getEnvInt("API_PORT", DefaultAPIPort),
		},
	}
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	// Missing .env is normal
	_ = godotenv.Load()

	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills zero values left by a partial YAML file
func (c *Config) applyDefaults() {
	if c.YNAB.Token == "" {
		c.YNAB.Token = os.Getenv("YNAB_TOKEN")
	}
	if c.YNAB.BudgetID == "" {
		c.YNAB.BudgetID = DefaultBudgetID
	}
	if c.YNAB.BaseURL == "" {
		c.YNAB.BaseURL = DefaultYNABBaseURL
	}
	if c.Amazon.Stage1WindowDays == 0 {
		c.Amazon.Stage1WindowDays = DefaultStage1WindowDays
	}
	if c.Amazon.Stage2WindowDays == 0 {
		c.Amazon.Stage2WindowDays = DefaultStage2WindowDays
	}
	if c.Amazon.AmountTolerance == 0 {
		c.Amazon.AmountTolerance = DefaultAmountTolerance
	}
	if c.Amazon.EarliestHistoryDays == 0 {
		c.Amazon.EarliestHistoryDays = DefaultEarliestHistoryDays
	}
	if c.Amazon.PayeeFilter == "" {
		c.Amazon.PayeeFilter = DefaultPayeeFilter
	}
	if c.Amazon.ScraperCommand == "" {
		c.Amazon.ScraperCommand = DefaultScraperCommand
	}
	if c.Sync.OverlapDays == 0 {
		c.Sync.OverlapDays = DefaultOverlapDays
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = DefaultDatabasePath
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
	if c.API.Port == 0 {
		c.API.Port = DefaultAPIPort
	}
}

// Validate checks settings that would make matching meaningless
func (c *Config) Validate() error {
	if c.Amazon.Stage1WindowDays < 0 || c.Amazon.Stage2WindowDays < 0 {
		return fmt.Errorf("amazon window days must not be negative")
	}
	if c.Amazon.Stage2WindowDays < c.Amazon.Stage1WindowDays {
		return fmt.Errorf("amazon.stage2_window_days (%d) must be >= stage1_window_days (%d)",
			c.Amazon.Stage2WindowDays, c.Amazon.Stage1WindowDays)
	}
	if c.Amazon.AmountTolerance < 0 {
		return fmt.Errorf("amazon.amount_tolerance must not be negative")
	}
	if c.Sync.OverlapDays < 0 {
		return fmt.Errorf("sync.overlap_days must not be negative")
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.Atoi(val); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseFloat(val, 64); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseBool(val); err == nil {
			return result
		}
	}
	return fallback
}

// GetAPIKey retrieves an API key from config first, then tries multiple environment variable names
// Usage: GetAPIKey(cfg.YNAB.Token, "YNAB_TOKEN", "YNAB_API_KEY")
func (c *Config) GetAPIKey(configValue string, envVarNames ...string) string {
	// First, try the config value
	if configValue != "" {
		return configValue
	}

	// Then try each environment variable in order
	for _, envVar := range envVarNames {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}

	return ""
}
