// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port    string
	AppEnv  string
	Gemini  GeminiConfig
	Workers WorkerConfig
	TTL     TTLConfig
	Limits  RateLimitConfig
	Archive ArchiveConfig

	CORSAllowedOrigins []string
}

// GeminiConfig selects the models used for generation.
type GeminiConfig struct {
	APIKey         string
	Model          string
	FallbackModels []string
	Timeout        time.Duration
}

// WorkerConfig sizes the task worker pool.
type WorkerConfig struct {
	Count     int
	QueueSize int
}

// TTLConfig controls eviction of in-memory state.
type TTLConfig struct {
	Task          time.Duration
	Session       time.Duration
	SweepInterval time.Duration
}

// RateLimitConfig bounds requests per client IP.
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// ArchiveConfig controls the SQLite transcript archive.
type ArchiveConfig struct {
	Enabled   bool
	DBPath    string
	Retention time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:   getEnv("PORT", "3000"),
		AppEnv: getEnv("APP_ENV", "development"),
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			FallbackModels: getEnvList("GEMINI_FALLBACK_MODELS", []string{"gemini-1.5-flash", "gemini-1.0-pro"}),
			Timeout:        getEnvDuration("GENERATION_TIMEOUT", 30*time.Second),
		},
		Workers: WorkerConfig{
			Count:     getEnvInt("WORKER_COUNT", 4),
			QueueSize: getEnvInt("QUEUE_SIZE", 1000),
		},
		TTL: TTLConfig{
			Task:          getEnvDuration("TASK_TTL", time.Hour),
			Session:       getEnvDuration("SESSION_TTL", 24*time.Hour),
			SweepInterval: getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
		},
		Limits: RateLimitConfig{
			Window:      time.Duration(getEnvInt("RATE_LIMIT_WINDOW_MS", 900000)) * time.Millisecond,
			MaxRequests: getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100),
		},
		Archive:            ArchiveFromEnv(),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ArchiveFromEnv reads only the archive settings. Offline tools use it
// without requiring the Gemini key.
func ArchiveFromEnv() ArchiveConfig {
	return ArchiveConfig{
		Enabled:   getEnvBool("ARCHIVE_ENABLED", false),
		DBPath:    getEnv("ARCHIVE_DB_PATH", "./data/chatbot.db"),
		Retention: getEnvDuration("ARCHIVE_RETENTION", 168*time.Hour),
	}
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Gemini.Model == "" {
		return fmt.Errorf("GEMINI_MODEL cannot be empty")
	}
	if c.Gemini.Timeout < 0 {
		return fmt.Errorf("GENERATION_TIMEOUT cannot be negative")
	}
	if c.Workers.Count <= 0 {
		return fmt.Errorf("WORKER_COUNT must be > 0")
	}
	if c.Workers.QueueSize <= 0 {
		return fmt.Errorf("QUEUE_SIZE must be > 0")
	}
	if c.TTL.Task < 0 || c.TTL.Session < 0 || c.TTL.SweepInterval < 0 {
		return fmt.Errorf("TASK_TTL, SESSION_TTL and SWEEP_INTERVAL cannot be negative")
	}
	if c.Limits.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_MS must be > 0")
	}
	if c.Limits.MaxRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be > 0")
	}
	if c.Archive.Enabled && c.Archive.DBPath == "" {
		return fmt.Errorf("ARCHIVE_DB_PATH cannot be empty when ARCHIVE_ENABLED is set")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go duration strings ("30s", "1h").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
