// Package config loads the demo's settings from environment variables.
//
//	LIBRARY_JOURNAL_PATH   - circulation journal file (default: :memory:)
//	LIBRARY_SEED_PATH      - YAML seed file (default: built-in demo seed)
//	LIBRARY_REISSUE_POLICY - strict | skip-ineligible (default: strict)
//	LIBRARY_LOG_LEVEL      - debug | info | warn | error (default: info)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"library-catalog/library"
)

// Config holds all application configuration
type Config struct {
	JournalPath   string
	SeedPath      string
	ReissuePolicy string
	LogLevel      string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		JournalPath:   getEnv("LIBRARY_JOURNAL_PATH", library.MemoryDSN),
		SeedPath:      getEnv("LIBRARY_SEED_PATH", ""),
		ReissuePolicy: getEnv("LIBRARY_REISSUE_POLICY", "strict"),
		LogLevel:      getEnv("LIBRARY_LOG_LEVEL", "info"),
	}
}

// Validate checks every setting and reports all failures together.
func (c *Config) Validate() error {
	var errs []error

	if c.JournalPath == "" {
		errs = append(errs, errors.New("LIBRARY_JOURNAL_PATH must not be empty"))
	}
	if _, err := library.ParseReissuePolicy(c.ReissuePolicy); err != nil {
		errs = append(errs, fmt.Errorf("LIBRARY_REISSUE_POLICY: %w", err))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("LIBRARY_LOG_LEVEL: %w", err))
	}
	if c.SeedPath != "" {
		if _, err := os.Stat(c.SeedPath); err != nil {
			errs = append(errs, fmt.Errorf("LIBRARY_SEED_PATH: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Policy returns the parsed reissue policy. Call Validate first.
func (c *Config) Policy() library.ReissuePolicy {
	p, _ := library.ParseReissuePolicy(c.ReissuePolicy)
	return p
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
