package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	// Clear relevant env vars
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	// Set environment variables
	os.Setenv("DESIGN_STUDIO_DATA_DIR", "/tmp/test-studio")
	os.Setenv("DESIGN_STUDIO_CACHE_MAX_ITEMS", "500")
	os.Setenv("DESIGN_STUDIO_CACHE_TTL", "12h")
	os.Setenv("DESIGN_STUDIO_LOG_LEVEL", "debug")
	os.Setenv("DESIGN_STUDIO_PIPELINE_API_KEY", "test-key")

	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-studio", cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "test-key", cfg.PipelineAPIKey)
}

func TestLiteConfig_EventsDBPath(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.design-studio"}

	path := cfg.EventsDBPath()

	assert.Equal(t, "/home/user/.design-studio/events.db", path)
}

func TestLiteConfig_ExportDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.design-studio"}

	path := cfg.ExportDir()

	assert.Equal(t, "/home/user/.design-studio/exports", path)
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	cfg := &LiteConfig{DataDir: filepath.Join(tmpDir, "studio")}

	err = cfg.EnsureDataDir()
	require.NoError(t, err)

	// Verify directories exist
	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"DESIGN_STUDIO_DATA_DIR",
		"DESIGN_STUDIO_CACHE_MAX_ITEMS",
		"DESIGN_STUDIO_CACHE_TTL",
		"DESIGN_STUDIO_LOG_LEVEL",
		"DESIGN_STUDIO_LOG_FORMAT",
		"DESIGN_STUDIO_PIPELINE_API_KEY",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
