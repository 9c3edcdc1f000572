package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Config holds the runtime configuration of the service, read from the
// environment at startup.
type Config struct {
	Host              string
	Port              string
	LogLevel          slog.Level
	Workers           int
	QueueSize         int
	MaxFileSize       int64
	ConversionTimeout time.Duration
	EnablePlugins     bool
	AllowedOrigins    []string
}

// Load reads the configuration from the environment. Unset variables take
// their defaults; variables that are set but unparseable are a startup
// error, not a silent fallback.
func Load() (*Config, error) {
	cfg := &Config{
		Host: getEnv("HOST", "0.0.0.0"),
		Port: getEnv("PORT", "8000"),
	}

	rawLevel := getEnv("LOG_LEVEL", "info")
	if err := cfg.LogLevel.UnmarshalText([]byte(rawLevel)); err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL %q: %w", rawLevel, err)
	}

	workers, err := getEnvInt("WORKERS", 4)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("WORKERS must be at least 1, got %d", workers)
	}
	cfg.Workers = workers

	queueSize, err := getEnvInt("QUEUE_SIZE", 8)
	if err != nil {
		return nil, err
	}
	if queueSize < 0 {
		return nil, fmt.Errorf("QUEUE_SIZE must not be negative, got %d", queueSize)
	}
	cfg.QueueSize = queueSize

	rawSize := getEnv("MAX_FILE_SIZE", "50MB")
	maxSize, err := humanize.ParseBytes(rawSize)
	if err != nil {
		return nil, fmt.Errorf("parse MAX_FILE_SIZE %q: %w", rawSize, err)
	}
	if maxSize == 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE must be positive, got %q", rawSize)
	}
	cfg.MaxFileSize = int64(maxSize)

	rawTimeout := getEnv("CONVERSION_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(rawTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse CONVERSION_TIMEOUT %q: %w", rawTimeout, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("CONVERSION_TIMEOUT must be positive, got %q", rawTimeout)
	}
	cfg.ConversionTimeout = timeout

	rawPlugins := getEnv("ENABLE_PLUGINS", "false")
	enablePlugins, err := strconv.ParseBool(rawPlugins)
	if err != nil {
		return nil, fmt.Errorf("parse ENABLE_PLUGINS %q: %w", rawPlugins, err)
	}
	cfg.EnablePlugins = enablePlugins

	cfg.AllowedOrigins = splitOrigins(getEnv("ALLOWED_ORIGINS", "*"))

	return cfg, nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// MaxFileSizeHuman returns the size limit formatted for log and error text.
func (c *Config) MaxFileSizeHuman() string {
	return humanize.Bytes(uint64(c.MaxFileSize))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	return n, nil
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}
