package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	CookieSecure       bool
	RateLimitPerMinute int

	// WordPress
	WPBaseURL   string
	WPJWTSecret string
	WPTimeout   time.Duration

	// Per-user response cache
	CacheTTL  time.Duration
	CacheSize int

	// Share links
	ShareBackend       string
	SQLiteDBPath       string
	DatabaseURL        string
	ShareTTL           time.Duration
	SharePurgeInterval time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets report export
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Logging
	LogLevel  string
	LogFormat string

	// TrustedProxies are CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string

	// Worker
	WorkerMetricsPort string
}

var (
	validShareBackends = []string{"memory", "sqlite", "postgres"}
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{"text", "json", "tint"}
)

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CookieSecure:       getEnvBool("COOKIE_SECURE", false),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		WPBaseURL:   strings.TrimRight(getEnv("WP_BASE_URL", "http://localhost:8000"), "/"),
		WPJWTSecret: getEnv("WP_JWT_SECRET", ""),
		WPTimeout:   getEnvDuration("WP_TIMEOUT", 10*time.Second),

		CacheTTL:  getEnvDuration("CACHE_TTL", 30*time.Second),
		CacheSize: getEnvInt("CACHE_SIZE", 500),

		ShareBackend:       getEnv("SHARE_BACKEND", "memory"),
		SQLiteDBPath:       getEnv("SQLITE_DB_PATH", "./data/hisab.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		ShareTTL:           getEnvDuration("SHARE_TTL", 7*24*time.Hour),
		SharePurgeInterval: getEnvDuration("SHARE_PURGE_INTERVAL", time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "hisab"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_exports"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Reports"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		WorkerMetricsPort: getEnv("WORKER_METRICS_PORT", "9091"),
	}

	return cfg
}

// AMQPEnabled reports whether report exports are published to a broker.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether exports are written to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate checks the configuration of the API server and returns every
// problem found in one error.
func (c *Config) Validate() error {
	var errors []string

	errors = c.validatePort("port", c.Port, errors)

	// Validate WordPress
	if parsedURL, err := url.Parse(c.WPBaseURL); err != nil || c.WPBaseURL == "" {
		errors = append(errors, fmt.Sprintf("invalid WordPress base URL '%s'", c.WPBaseURL))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid WordPress URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}
	if len(c.WPJWTSecret) < 16 {
		errors = append(errors, "WP_JWT_SECRET is required and must be at least 16 characters")
	}
	if c.WPTimeout < time.Second || c.WPTimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid WordPress timeout %v: must be between 1s and 2m", c.WPTimeout))
	}

	// Validate cache
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}

	// Validate share backend
	if !slices.Contains(validShareBackends, c.ShareBackend) {
		errors = append(errors, fmt.Sprintf("invalid share backend '%s': must be one of %v", c.ShareBackend, validShareBackends))
	}
	if c.ShareBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}
	if c.ShareBackend == "postgres" && c.DatabaseURL == "" {
		errors = append(errors, "DATABASE_URL is required when using postgres backend")
	}
	if c.ShareTTL < time.Minute || c.ShareTTL > 30*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid share TTL %v: must be between 1m and 720h", c.ShareTTL))
	}
	if c.SharePurgeInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid share purge interval %v: must be at least 1 second", c.SharePurgeInterval))
	}

	if c.AMQPURL != "" {
		errors = c.validateAMQP(errors)
	}
	errors = c.validateSheets(errors)

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy CIDR '%s'", cidr))
		}
	}

	errors = c.validateLogging(errors)
	return combine(errors)
}

// ValidateWorker checks the configuration of the report export worker. The
// broker is mandatory there; WordPress settings are not used.
func (c *Config) ValidateWorker() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the worker")
	} else {
		errors = c.validateAMQP(errors)
	}
	errors = c.validateSheets(errors)
	if c.WorkerMetricsPort != "" {
		errors = c.validatePort("worker metrics port", c.WorkerMetricsPort, errors)
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	errors = c.validateLogging(errors)
	return combine(errors)
}

func (c *Config) validatePort(name, value string, errors []string) []string {
	if port, err := strconv.Atoi(value); err != nil {
		errors = append(errors, fmt.Sprintf("invalid %s '%s': must be a number", name, value))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, port))
	}
	return errors
}

func (c *Config) validateAMQP(errors []string) []string {
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errors
}

func (c *Config) validateSheets(errors []string) []string {
	if c.GoogleSpreadsheetID == "" {
		return errors
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
	}
	if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
		errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for sheets export")
	}
	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}
	return errors
}

func (c *Config) validateLogging(errors []string) []string {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}
	return errors
}

func combine(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
