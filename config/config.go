package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Cleaner   CleanerConfig   `mapstructure:"cleaner"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig selects where catalogs and recipes are persisted
type StorageConfig struct {
	Type       string `mapstructure:"type"` // "sqlite" or "memory"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP  int     `mapstructure:"per_ip"` // requests per minute
	Scrape float64 `mapstructure:"scrape"` // requests per second to the offer site
	Burst  int     `mapstructure:"burst"`
}

// ScraperConfig holds offer site configuration
type ScraperConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	UserAgent     string        `mapstructure:"user_agent"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig holds recipe recommender configuration
type OpenAIConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	Model           string `mapstructure:"model"`
	Recommendations int    `mapstructure:"recommendations"`
	MaxRecipes      int    `mapstructure:"max_recipes"`
}

// MatchingConfig holds ingredient matching configuration
type MatchingConfig struct {
	Threshold          float64            `mapstructure:"threshold"`
	EnableDebugLogging bool               `mapstructure:"enable_debug_logging"`
	Weighted           bool               `mapstructure:"weighted"`
	TermWeights        map[string]float64 `mapstructure:"term_weights"`
}

// CorrectionRule replaces From with To in product names
type CorrectionRule struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// CleanerConfig holds the product name rule tables
type CleanerConfig struct {
	NoisePhrases []string         `mapstructure:"noise_phrases"`
	Corrections  []CorrectionRule `mapstructure:"corrections"`
	StorePrefix  string           `mapstructure:"store_prefix"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load, reading configFile instead of
// searching the default paths when it is not empty
func LoadFile(configFile string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/hellopoor/")
	}

	// Environment variable settings
	v.SetEnvPrefix("HELLOPOOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if there is one.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Storage defaults
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.sqlite_path", "hellopoor.db")

	// Cache defaults
	v.SetDefault("cache.ttl", "6h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.scrape", 1.0)
	v.SetDefault("ratelimit.burst", 3)

	// Scraper defaults
	v.SetDefault("scraper.base_url", "https://www.ica.se")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("scraper.max_concurrent", 4)
	v.SetDefault("scraper.timeout", "30s")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.recommendations", 5)
	v.SetDefault("openai.max_recipes", 100)

	// Matching defaults
	v.SetDefault("matching.threshold", 50)
	v.SetDefault("matching.enable_debug_logging", false)
	v.SetDefault("matching.weighted", true)

	// Cleaner defaults
	v.SetDefault("cleaner.noise_phrases", []string{
		"lägg i inköpslista", "erbjudanden", "logga in",
		"vill du få", "reklamfilmer", "bildspel", "partnererbjudanden",
		"visa veckans", "veckanstamis pris", "veckans bästa klip", "veckans grönt",
		"superklip", "klipp", "först in", "först ut", "topperbjudanden",
	})
	v.SetDefault("cleaner.corrections", []map[string]string{
		{"from": "Hergård", "to": "Herrgård"},
		{"from": "moröter", "to": "morötter"},
		{"from": "grilad", "to": "grillad"},
		{"from": "Toaletpaper", "to": "Toalettpapper"},
		{"from": "Tortilabröd", "to": "Tortillabröd"},
		{"from": "Haloumi", "to": "Halloumi"},
	})
	v.SetDefault("cleaner.store_prefix", "ICA")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Storage.Type != "sqlite" && config.Storage.Type != "memory" {
		return fmt.Errorf("%w: storage.type must be 'sqlite' or 'memory', got: %s", ErrInvalidConfig, config.Storage.Type)
	}

	if config.Storage.Type == "sqlite" && config.Storage.SQLitePath == "" {
		return fmt.Errorf("%w: storage.sqlite_path is required when storage.type is 'sqlite'", ErrInvalidConfig)
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache.ttl must be positive, got: %s", ErrInvalidConfig, config.Cache.TTL)
	}

	if config.Scraper.BaseURL == "" {
		return fmt.Errorf("%w: scraper.base_url is required", ErrInvalidConfig)
	}

	if config.Matching.Threshold < 0 || config.Matching.Threshold >= 100 {
		return fmt.Errorf("%w: matching.threshold must be in [0, 100), got: %v", ErrInvalidConfig, config.Matching.Threshold)
	}

	for word, weight := range config.Matching.TermWeights {
		if weight <= 0 {
			return fmt.Errorf("%w: matching.term_weights.%s must be positive, got: %v", ErrInvalidConfig, word, weight)
		}
	}

	for i, c := range config.Cleaner.Corrections {
		if c.From == "" {
			return fmt.Errorf("%w: cleaner.corrections[%d].from is empty", ErrInvalidConfig, i)
		}
	}

	return nil
}
