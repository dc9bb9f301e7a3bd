package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	CSVOutputPath string
	PropertiesCSV string
	ListingURLs   []string
	ChromeBin     string

	WeightsFile    string
	MaxComparables int
	ForecastYears  int
	CurrentYear    int
	LogLevel       string

	// EnvFileLoaded is false when no .env file was found and only the
	// process environment was used.
	EnvFileLoaded bool
}

// Load reads the .env file (if any) and returns a populated Config struct.
func Load() *Config {
	loaded := godotenv.Load() == nil

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "appraisal"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "appraisal123"),
		PostgresDB:       getEnv("POSTGRES_DB", "appraisal_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_listings.csv"),
		PropertiesCSV: getEnv("PROPERTIES_CSV", "./data/properties.csv"),
		ListingURLs:   getEnvList("LISTING_URLS"),
		ChromeBin:     getEnv("CHROME_BIN", ""),

		WeightsFile:    getEnv("WEIGHTS_FILE", ""),
		MaxComparables: getEnvInt("MAX_COMPARABLES", 5),
		ForecastYears:  getEnvInt("FORECAST_YEARS", 5),
		CurrentYear:    getEnvInt("CURRENT_YEAR", 0),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		EnvFileLoaded: loaded,
	}
}

// Validate rejects settings the analytics cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.MaxConcurrency < 1:
		return fmt.Errorf("MAX_CONCURRENCY must be at least 1, got %d", c.MaxConcurrency)
	case c.MaxComparables < 1:
		return fmt.Errorf("MAX_COMPARABLES must be at least 1, got %d", c.MaxComparables)
	case c.ForecastYears < 1:
		return fmt.Errorf("FORECAST_YEARS must be at least 1, got %d", c.ForecastYears)
	case c.CurrentYear < 0:
		return fmt.Errorf("CURRENT_YEAR must not be negative, got %d", c.CurrentYear)
	case c.RateLimitMs < 0:
		return fmt.Errorf("RATE_LIMIT_MS must not be negative, got %d", c.RateLimitMs)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err == nil {
			return n
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	out := []string{}
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
