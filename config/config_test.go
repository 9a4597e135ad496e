package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "MONGODB_URI", "MONGODB_DB", "LOG_LEVEL", "LOG_FORMAT", "RATE_LIMIT_WINDOW",
		"RATE_LIMIT_WINDOW_MS", "RATE_LIMIT_MAX", "CORS_ORIGIN", "USE_MEMORY_STORE", "HOME_SECTION_LIMIT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "biblioteka", cfg.DBName)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 20, cfg.RateLimitMax)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 8, cfg.HomeSectionLimit)
	assert.False(t, cfg.UseMemoryStore)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "30000")
	t.Setenv("RATE_LIMIT_MAX", "abc")
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 20, cfg.RateLimitMax, "non-numeric falls back to default")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("RATE_LIMIT_WINDOW", "5s")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.RateLimitWindow, "duration form wins over milliseconds")
}

func TestLoadRejectsBadLogSettings(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LOG_FORMAT", "xml")
	_, err = Load()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "console")
	cfg, err := Load()
	require.NoError(t, err)

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1), "debug must be disabled at warn level")
	assert.True(t, logger.Core().Enabled(1))
}
