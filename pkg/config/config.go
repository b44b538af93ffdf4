package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Tracked instruments
	Symbols        []string
	VolIndexSymbol string

	// Trading calendar YAML (empty = built-in NSE session)
	CalendarPath string

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data sources
	Yahoo  YahooConfig
	Scrape ScrapeConfig
	Feed   FeedConfig

	// Model training / inference
	Models ModelConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// YahooConfig holds the OHLCV chart API configuration
type YahooConfig struct {
	BaseURL        string
	RequestsPerSec float64
	MaxRetries     int
	Timeout        time.Duration
}

// ScrapeConfig holds the volatility-index HTML scrape fallback
type ScrapeConfig struct {
	QuoteURL string
	Timeout  time.Duration
}

// FeedConfig holds the live tick websocket feed
type FeedConfig struct {
	URL     string
	Enabled bool
}

// ModelConfig holds training and inference tunables.
// StreakDecay and SkewMultiplier are the two constants flagged as
// unverified assumptions; they are overridable here rather than hardcoded.
type ModelConfig struct {
	Dir            string // bundle store root
	Seed           int64
	StreakDecay    float64
	SkewMultiplier float64
	MonteCarlo     MonteCarloConfig
}

// MonteCarloConfig holds the simulation sizing.
type MonteCarloConfig struct {
	Paths       int
	HorizonDays int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Symbols:        splitCSV(getEnv("SYMBOLS", "^NSEI")),
		VolIndexSymbol: getEnv("VOL_INDEX_SYMBOL", "^INDIAVIX"),
		CalendarPath:   getEnv("CALENDAR_PATH", ""),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "vantage"),
			User:            getEnv("DB_USER", "vantage"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Market data sources
		Yahoo: YahooConfig{
			BaseURL:        getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestsPerSec: getEnvAsFloat("YAHOO_REQUESTS_PER_SEC", 2),
			MaxRetries:     getEnvAsInt("YAHOO_MAX_RETRIES", 3),
			Timeout:        getEnvAsDuration("YAHOO_TIMEOUT", "10s"),
		},
		Scrape: ScrapeConfig{
			QuoteURL: getEnv("SCRAPE_QUOTE_URL", "https://www.nseindia.com/option-chain"),
			Timeout:  getEnvAsDuration("SCRAPE_TIMEOUT", "10s"),
		},
		Feed: FeedConfig{
			URL:     getEnv("FEED_URL", ""),
			Enabled: getEnvAsBool("FEED_ENABLED", false),
		},

		// Models
		Models: ModelConfig{
			Dir:            getEnv("MODEL_DIR", "./models"),
			Seed:           int64(getEnvAsInt("MODEL_SEED", 1)),
			StreakDecay:    getEnvAsFloat("MODEL_STREAK_DECAY", 0.9),
			SkewMultiplier: getEnvAsFloat("MODEL_SKEW_MULTIPLIER", 1.2),
			MonteCarlo: MonteCarloConfig{
				Paths:       getEnvAsInt("MC_PATHS", 10000),
				HorizonDays: getEnvAsInt("MC_HORIZON_DAYS", 5),
			},
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if len(c.Symbols) == 0 {
		return fmt.Errorf("SYMBOLS must list at least one instrument")
	}

	if c.Models.StreakDecay <= 0 || c.Models.StreakDecay > 1 {
		return fmt.Errorf("MODEL_STREAK_DECAY must be in (0, 1]")
	}
	if c.Models.SkewMultiplier < 1 {
		return fmt.Errorf("MODEL_SKEW_MULTIPLIER must be >= 1")
	}
	if c.Models.MonteCarlo.Paths < 1000 {
		return fmt.Errorf("MC_PATHS must be at least 1000")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
