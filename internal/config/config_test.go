package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BLEEP_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, BackendBbolt, cfg.Backend)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "Unlock Originals", cfg.Reason)
	assert.Equal(t, BiometricAuto, cfg.Biometric)
	assert.Equal(t, "127.0.0.1:8420", cfg.Addr)
	assert.Equal(t, 1000, cfg.AuditMaxEntries)
	assert.Equal(t, filepath.Join(dir, "bleep.db"), cfg.StorePath())
	assert.Equal(t, filepath.Join(dir, "wrapping.key"), cfg.KeyFilePath())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BLEEP_DATA_DIR", t.TempDir())
	t.Setenv("BLEEP_BACKEND", "sqlite")
	t.Setenv("BLEEP_SESSION_TTL", "90s")
	t.Setenv("BLEEP_LOG_LEVEL", "debug")
	t.Setenv("BLEEP_BIOMETRIC", "command")
	t.Setenv("BLEEP_BIOMETRIC_PROBE", "my-probe --quiet")
	t.Setenv("BLEEP_BIOMETRIC_VERIFY", "my-verify")
	t.Setenv("BLEEP_KEY_FILE", "/run/secrets/bleep.key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, 90*time.Second, cfg.SessionTTL)
	assert.Equal(t, []string{"my-probe", "--quiet"}, cfg.BiometricProbe)
	assert.Equal(t, []string{"my-verify"}, cfg.BiometricVerify)
	assert.Equal(t, "/run/secrets/bleep.key", cfg.KeyFilePath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "bleep.sqlite"), cfg.StorePath())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Backend:         BackendMemory,
		Biometric:       BiometricNone,
		SessionTTL:      time.Minute,
		LogLevel:        "warn",
		AuditMaxEntries: 100,
	}
	require.NoError(t, valid.Validate())
	assert.Empty(t, valid.StorePath())

	cases := map[string]func(*Config){
		"backend":        func(c *Config) { c.Backend = "postgres" },
		"biometric":      func(c *Config) { c.Biometric = "retina" },
		"commandNoProbe": func(c *Config) { c.Biometric = BiometricCommand },
		"ttl":            func(c *Config) { c.SessionTTL = 0 },
		"logLevel":       func(c *Config) { c.LogLevel = "chatty" },
		"auditMax":       func(c *Config) { c.AuditMaxEntries = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("BLEEP_DATA_DIR", t.TempDir())
	t.Setenv("BLEEP_SESSION_TTL", "soon")
	_, err := Load()
	assert.Error(t, err)
}
