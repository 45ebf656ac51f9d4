package common

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Fetch    FetchConfig
	LLM      LLMConfig
	Progress ProgressConfig
}

// DatabaseConfig holds store-related configuration. When DSN is empty
// the batch falls back to a local SQLite file (or in-memory with -inmem).
type DatabaseConfig struct {
	DSN             string
	SQLitePath      string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// FetchConfig holds PDF download and extraction configuration
type FetchConfig struct {
	Timeout  time.Duration
	MaxPages int
}

// LLMConfig holds provider-related configuration
type LLMConfig struct {
	Provider     string // "anthropic" or "openai"
	APIKey       string
	Model        string
	BaseURL      string // optional override (OpenRouter-compatible endpoints)
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
	MaxChunkSize int
}

// ProgressConfig holds the optional progress broadcast endpoint.
type ProgressConfig struct {
	WSAddr string // empty disables the websocket hub
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", "summaries.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Fetch: FetchConfig{
			Timeout:  getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
			MaxPages: getEnvAsInt("FETCH_MAX_PAGES", 100),
		},
		LLM: LLMConfig{
			Provider:     getEnv("LLM_PROVIDER", "anthropic"),
			APIKey:       getEnv("LLM_API_KEY", ""),
			Model:        getEnv("LLM_MODEL", ""),
			BaseURL:      getEnv("LLM_BASE_URL", ""),
			Temperature:  getEnvAsFloat32("LLM_TEMPERATURE", 0.3),
			MaxTokens:    getEnvAsInt("LLM_MAX_TOKENS", 4096),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 10*time.Minute),
			MaxChunkSize: getEnvAsInt("LLM_MAX_CHUNK_SIZE", 100000),
		},
		Progress: ProgressConfig{
			WSAddr: getEnv("PROGRESS_WS_ADDR", ""),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("config: LLM_API_KEY is required")
	}
	if c.LLM.MaxChunkSize <= 0 {
		return fmt.Errorf("config: LLM_MAX_CHUNK_SIZE must be positive")
	}
	if c.Fetch.MaxPages <= 0 {
		return fmt.Errorf("config: FETCH_MAX_PAGES must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
