package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// External services
	CatalogAPIURL    string
	CalculatorAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience (catalog reads; calculation calls are never retried)
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Caching
	CatalogTTL time.Duration
	SessionTTL time.Duration
	RedisAddr  string // empty = in-memory catalog cache

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CatalogAPIURL:    getEnv("CATALOG_API_URL", "http://localhost:8081"),
		CalculatorAPIURL: getEnv("CALCULATOR_API_URL", "http://localhost:8082"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CatalogTTL: getEnvDuration("CATALOG_TTL", 15*time.Minute),
		SessionTTL: getEnvDuration("SESSION_TTL", 30*time.Minute),
		RedisAddr:  getEnv("REDIS_ADDR", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
