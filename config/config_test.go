package config

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-catalog/library"
)

func validBaseConfig() *Config {
	return &Config{
		JournalPath:   library.MemoryDSN,
		ReissuePolicy: "strict",
		LogLevel:      "info",
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LIBRARY_JOURNAL_PATH", "")
	t.Setenv("LIBRARY_SEED_PATH", "")
	t.Setenv("LIBRARY_REISSUE_POLICY", "")
	t.Setenv("LIBRARY_LOG_LEVEL", "")

	cfg := Load()
	assert.Equal(t, library.MemoryDSN, cfg.JournalPath)
	assert.Equal(t, "", cfg.SeedPath)
	assert.Equal(t, "strict", cfg.ReissuePolicy)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LIBRARY_JOURNAL_PATH", "/tmp/journal.db")
	t.Setenv("LIBRARY_REISSUE_POLICY", "skip-ineligible")
	t.Setenv("LIBRARY_LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, "/tmp/journal.db", cfg.JournalPath)
	assert.Equal(t, library.ReissueSkipIneligible, cfg.Policy())

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestConfig_Validate_ReportsEveryProblem(t *testing.T) {
	cfg := validBaseConfig()
	cfg.JournalPath = ""
	cfg.ReissuePolicy = "lenient"
	cfg.LogLevel = "loud"
	cfg.SeedPath = filepath.Join(t.TempDir(), "missing.yaml")

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIBRARY_JOURNAL_PATH")
	assert.Contains(t, err.Error(), "LIBRARY_REISSUE_POLICY")
	assert.Contains(t, err.Error(), "LIBRARY_LOG_LEVEL")
	assert.Contains(t, err.Error(), "LIBRARY_SEED_PATH")
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	assert.NoError(t, validBaseConfig().Validate())
}
