// Package dbconfig assembles Postgres connection settings from the
// environment.
package dbconfig

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds Postgres connection settings. A non-empty URL (from
// DATABASE_URL) wins over the individual DB_* fields.
type Config struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewConfigFromEnv reads DATABASE_URL, falling back to DB_* variables
// (with defaults). Out-of-range ports fall back to 5432.
func NewConfigFromEnv() Config {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil || port < 1 || port > 65535 {
		port = 5432
	}

	return Config{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "quizdeck"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// DSN returns the Postgres connection URL.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

var sslModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate catches a bad sslmode up front, before the driver turns it
// into an opaque connection failure. A full DATABASE_URL is passed to the
// driver as-is.
func (c Config) Validate() error {
	if c.URL != "" {
		return nil
	}
	if !sslModes[c.SSLMode] {
		return fmt.Errorf("invalid DB_SSLMODE %q", c.SSLMode)
	}
	if c.Database == "" {
		return fmt.Errorf("DB_NAME must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
