package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"

	"github.com/ledgertalk/ledgertalk/pkg/money"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	AI         AIConfig
	Classifier ClassifierConfig
}

// AIConfig configures the external AI categorization collaborator.
// An empty APIKey disables the AI tier; classification degrades to the
// static and default tiers instead of failing.
type AIConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	FallbackModel     string
	Timeout           time.Duration
	FallbackTimeout   time.Duration
	RequestsPerMinute int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ClassifierConfig carries per-deployment classification defaults.
// DefaultCurrency and DefaultLocale are programming-contract settings:
// missing values are a startup failure, never a per-message one.
type ClassifierConfig struct {
	DefaultCurrency string
	DefaultLocale   string
	HistoryDepth    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			// Empty host means no database; the pipeline runs stateless.
			Host:     getEnv("POSTGRES_HOST", ""),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "ledgertalk"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		AI: AIConfig{
			APIKey:            getEnv("AI_API_KEY", ""),
			BaseURL:           getEnv("AI_BASE_URL", ""),
			Model:             getEnv("AI_MODEL", "gpt-4o-mini"),
			FallbackModel:     getEnv("AI_FALLBACK_MODEL", ""),
			Timeout:           getEnvAsDuration("AI_TIMEOUT", 8*time.Second),
			FallbackTimeout:   getEnvAsDuration("AI_FALLBACK_TIMEOUT", 3*time.Second),
			RequestsPerMinute: getEnvAsInt("AI_REQUESTS_PER_MINUTE", 60),
		},
		Classifier: ClassifierConfig{
			DefaultCurrency: getEnv("DEFAULT_CURRENCY", "RUB"),
			DefaultLocale:   getEnv("DEFAULT_LOCALE", "ru"),
			HistoryDepth:    getEnvAsInt("HISTORY_DEPTH", 50),
		},
	}

	if !money.IsKnownCode(cfg.Classifier.DefaultCurrency) {
		return nil, fmt.Errorf("DEFAULT_CURRENCY %q is not a supported currency", cfg.Classifier.DefaultCurrency)
	}

	if cfg.Classifier.DefaultLocale == "" {
		return nil, errors.New("DEFAULT_LOCALE is required")
	}

	if cfg.AI.Timeout <= 0 {
		return nil, errors.New("AI_TIMEOUT must be positive")
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
