package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

type Config struct {
	// Backend
	BackendURL     string
	RequestTimeout time.Duration

	// UI defaults
	EnablePlanning bool
	ShowContext    bool

	// Local web page
	Addr        string
	MaxUploadMB int

	Logging LoggingConfig
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		BackendURL:     strings.TrimRight(getEnvOrDefault("PDFQA_BACKEND_URL", "http://localhost:8000"), "/"),
		RequestTimeout: getEnvAsDurationOrDefault("PDFQA_REQUEST_TIMEOUT", 0),
		EnablePlanning: getEnvAsBoolOrDefault("PDFQA_ENABLE_PLANNING", true),
		ShowContext:    getEnvAsBoolOrDefault("PDFQA_SHOW_CONTEXT", false),
		Addr:           getEnvOrDefault("PDFQA_ADDR", "127.0.0.1:8090"),
		MaxUploadMB:    getEnvAsIntOrDefault("PDFQA_MAX_UPLOAD_MB", 100),
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
			Output: getEnvOrDefault("LOG_OUTPUT", "stderr"),
		},
	}

	return cfg
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend url %q: %w", c.BackendURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid backend url %q: scheme must be http or https", c.BackendURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid backend url %q: missing host", c.BackendURL)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative, got %s", c.RequestTimeout)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// MaxUploadBytes is the upload cap of the local web page.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

// Accepts Go durations ("30s") and bare seconds ("30").
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
