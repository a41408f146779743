// Package config loads bleep settings from BLEEP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends.
const (
	BackendBbolt  = "bbolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Biometric platforms.
const (
	BiometricAuto    = "auto"
	BiometricFprintd = "fprintd"
	BiometricCommand = "command"
	BiometricNone    = "none"
)

// Config is the process configuration. Command-line flags override it.
type Config struct {
	DataDir     string        `env:"BLEEP_DATA_DIR"`
	Backend     string        `env:"BLEEP_BACKEND"      envDefault:"bbolt"`
	SessionTTL  time.Duration `env:"BLEEP_SESSION_TTL"  envDefault:"5m"`
	WrappingKey string        `env:"BLEEP_WRAPPING_KEY"`
	KeyFile     string        `env:"BLEEP_KEY_FILE"`
	Reason      string        `env:"BLEEP_REASON"       envDefault:"Unlock Originals"`
	LogLevel    string        `env:"BLEEP_LOG_LEVEL"    envDefault:"info"`

	Biometric       string   `env:"BLEEP_BIOMETRIC"        envDefault:"auto"`
	BiometricProbe  []string `env:"BLEEP_BIOMETRIC_PROBE"  envSeparator:" "`
	BiometricVerify []string `env:"BLEEP_BIOMETRIC_VERIFY" envSeparator:" "`

	Addr         string `env:"BLEEP_ADDR"          envDefault:"127.0.0.1:8420"`
	OriginalsDir string `env:"BLEEP_ORIGINALS_DIR"`
	RedactedDir  string `env:"BLEEP_REDACTED_DIR"`

	AuditMaxEntries    int    `env:"BLEEP_AUDIT_MAX_ENTRIES"    envDefault:"1000"`
	AuditWebhookURL    string `env:"BLEEP_AUDIT_WEBHOOK_URL"`
	AuditWebhookHeader string `env:"BLEEP_AUDIT_WEBHOOK_HEADER"`
}

// Load parses the environment, fills derived defaults and validates.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse is Load without validation, for callers that apply overrides
// before validating.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return Config{}, err
		}
		cfg.DataDir = dir
	}
	return cfg, nil
}

func defaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(base, "bleep"), nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendBbolt, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("BLEEP_BACKEND: unknown backend %q", c.Backend))
	}
	switch c.Biometric {
	case BiometricAuto, BiometricFprintd, BiometricNone:
	case BiometricCommand:
		if len(c.BiometricProbe) == 0 || len(c.BiometricVerify) == 0 {
			errs = append(errs, errors.New("BLEEP_BIOMETRIC=command needs BLEEP_BIOMETRIC_PROBE and BLEEP_BIOMETRIC_VERIFY"))
		}
	default:
		errs = append(errs, fmt.Errorf("BLEEP_BIOMETRIC: unknown platform %q", c.Biometric))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("BLEEP_SESSION_TTL must be positive, got %s", c.SessionTTL))
	}
	if c.AuditMaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("BLEEP_AUDIT_MAX_ENTRIES must be positive, got %d", c.AuditMaxEntries))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("BLEEP_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// StorePath returns the repository file for the configured backend, or ""
// for the memory backend.
func (c Config) StorePath() string {
	switch c.Backend {
	case BackendBbolt:
		return filepath.Join(c.DataDir, "bleep.db")
	case BackendSQLite:
		return filepath.Join(c.DataDir, "bleep.sqlite")
	}
	return ""
}

// KeyFilePath returns the wrapping key file location.
func (c Config) KeyFilePath() string {
	if c.KeyFile != "" {
		return c.KeyFile
	}
	return filepath.Join(c.DataDir, "wrapping.key")
}
