// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Client roles. They pick the trace-id prefix and the X-Client-Type header.
const (
	ClientCitizen = "web-citizen"
	ClientAdmin   = "web-admin"
)

// Config holds all application configuration
type Config struct {
	// Which client this process acts as: "web-citizen" or "web-admin"
	ClientType string

	// Backend base URLs
	AuthURL         string
	ReportURL       string
	NotificationURL string

	// Session storage directory (BadgerDB)
	SessionDir string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Notification stream
	ReconnectDelay time.Duration

	// Observability
	OTLPEndpoint string // empty = tracing disabled
	HTTPTimeout  time.Duration
}

// Defaults match the docker-compose ports of the backend services.
const (
	DefaultAuthURL         = "http://localhost:8081"
	DefaultReportURL       = "http://localhost:8082"
	DefaultNotificationURL = "http://localhost:8084"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultReconnectDelay  = 5 * time.Second
	DefaultHTTPTimeout     = 30 * time.Second
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		ClientType:      getEnv("LAPOR_CLIENT_TYPE", ClientCitizen),
		AuthURL:         getEnv("LAPOR_AUTH_URL", DefaultAuthURL),
		ReportURL:       getEnv("LAPOR_REPORT_URL", DefaultReportURL),
		NotificationURL: getEnv("LAPOR_NOTIFICATION_URL", DefaultNotificationURL),
		SessionDir:      getEnv("LAPOR_SESSION_DIR", defaultSessionDir()),
		LogLevel:        getEnv("LAPOR_LOG_LEVEL", DefaultLogLevel),
		LogFormat:       getEnv("LAPOR_LOG_FORMAT", DefaultLogFormat),
		ReconnectDelay:  getEnvDuration("LAPOR_RECONNECT_DELAY", DefaultReconnectDelay),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		HTTPTimeout:     getEnvDuration("LAPOR_HTTP_TIMEOUT", DefaultHTTPTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.ClientType != ClientCitizen && c.ClientType != ClientAdmin {
		return fmt.Errorf("LAPOR_CLIENT_TYPE must be %q or %q, got %q", ClientCitizen, ClientAdmin, c.ClientType)
	}
	if c.AuthURL == "" {
		return fmt.Errorf("LAPOR_AUTH_URL is required")
	}
	if c.ReportURL == "" {
		return fmt.Errorf("LAPOR_REPORT_URL is required")
	}
	if c.NotificationURL == "" {
		return fmt.Errorf("LAPOR_NOTIFICATION_URL is required")
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("LAPOR_RECONNECT_DELAY must be positive")
	}
	return nil
}

// TracePrefix returns the trace-id prefix for this client role.
func (c *Config) TracePrefix() string {
	if c.ClientType == ClientAdmin {
		return "admin"
	}
	return "web"
}

// IsAdmin returns true when acting as the staff dashboard client.
func (c *Config) IsAdmin() bool {
	return c.ClientType == ClientAdmin
}

func defaultSessionDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".laporkit/session"
	}
	return filepath.Join(base, "laporkit", "session")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
