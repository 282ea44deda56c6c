// Package config provides configuration management for the packing service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends. BackendMemory keeps no state across restarts and its
// cache evicts at CACHE_SIZE; it is meant for tests and local runs.
const (
	BackendMemory  = "memory"
	BackendMongoDB = "mongodb"
	BackendSQL     = "sql"
)

// Config holds the complete application configuration.
type Config struct {
	Server  ServerConfig
	Packer  PackerConfig
	Storage StorageConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	RateLimit      int
	RateWindow     time.Duration
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// PackerConfig holds settings for the external packing API.
type PackerConfig struct {
	URL               string
	APIKey            string
	Username          string
	Environment       string
	ConnectTimeout    time.Duration
	Timeout           time.Duration
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
	CircuitBreaker    CircuitBreakerConfig
}

// StorageConfig holds catalog, cache and decision log storage configuration.
type StorageConfig struct {
	Backend        string
	MongoURI       string
	MongoDatabase  string
	DatabaseURL    string
	DecisionLogTTL time.Duration
	CacheSize      int
	SeedPackaging  bool
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig holds circuit breaker thresholds.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load creates a Config from environment variables.
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RateLimit:      getEnvInt("RATE_LIMIT", 100),
			RateWindow:     getEnvDuration("RATE_WINDOW", time.Minute),
			CORSOrigins:    parseCORSOrigins(os.Getenv("CORS_ORIGINS")),
			RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		},
		Packer: PackerConfig{
			URL:               getEnv("API_URL", "https://global-api.3dbinpacking.com"),
			APIKey:            getEnv("API_KEY", ""),
			Username:          getEnv("API_USERNAME", ""),
			Environment:       getEnv("APP_ENV", "prod"),
			ConnectTimeout:    getEnvDuration("PACKER_CONNECT_TIMEOUT", 5*time.Second),
			Timeout:           getEnvDuration("PACKER_TIMEOUT", 15*time.Second),
			RetryMaxAttempts:  getEnvInt("PACKER_RETRY_MAX_ATTEMPTS", 3),
			RetryInitialDelay: getEnvDuration("PACKER_RETRY_INITIAL_DELAY", 200*time.Millisecond),
			RetryMaxDelay:     getEnvDuration("PACKER_RETRY_MAX_DELAY", 2*time.Second),
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: getEnvInt("PACKER_CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
				SuccessThreshold: getEnvInt("PACKER_CIRCUIT_BREAKER_SUCCESS_THRESHOLD", 2),
				Timeout:          getEnvDuration("PACKER_CIRCUIT_BREAKER_TIMEOUT", 30*time.Second),
			},
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(getEnv("STORAGE_BACKEND", BackendSQL)),
			MongoURI:       getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			MongoDatabase:  getEnv("MONGODB_DATABASE", "packing_service"),
			DatabaseURL:    getEnv("DATABASE_URL", "sqlite://packing.db"),
			DecisionLogTTL: getEnvDuration("DECISION_LOG_TTL", 30*24*time.Hour),
			CacheSize:      getEnvInt("CACHE_SIZE", 10000),
			SeedPackaging:  getEnvBool("SEED_PACKAGING", true),
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: getEnvInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
				SuccessThreshold: getEnvInt("CIRCUIT_BREAKER_SUCCESS_THRESHOLD", 2),
				Timeout:          getEnvDuration("CIRCUIT_BREAKER_TIMEOUT", 30*time.Second),
			},
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
	}
}

// Validate reports configuration that cannot be started with.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendMongoDB:
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the %s backend", BackendMongoDB)
		}
	case BackendSQL:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s backend", BackendSQL)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Packer.URL == "" {
		return fmt.Errorf("API_URL must not be empty")
	}
	if c.Packer.RetryMaxAttempts < 1 {
		return fmt.Errorf("PACKER_RETRY_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseCORSOrigins(s string) []string {
	// Default origins for local development
	defaults := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	if s == "" {
		return defaults
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts)+len(defaults))
	result = append(result, defaults...)
	for _, p := range parts {
		if origin := strings.TrimSpace(p); origin != "" {
			result = append(result, origin)
		}
	}
	return result
}
