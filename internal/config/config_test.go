package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_ENV", "ALLOWED_ORIGINS", "DOCUMENT_CACHE_TTL", "DOCUMENT_SAVE_INTERVAL"} {
		unsetEnv(t, key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.Production())
	assert.Equal(t, 5*time.Minute, cfg.DocumentTTL)
	assert.Equal(t, 30*time.Second, cfg.SaveInterval)
	assert.Equal(t, []string{"localhost:5173", "localhost:3000"}, cfg.OriginPatterns())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://canvas.example.com, ,http://localhost:5173")
	t.Setenv("DOCUMENT_CACHE_TTL", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.Production())
	assert.Equal(t, time.Minute, cfg.DocumentTTL)
	assert.Equal(t, []string{"canvas.example.com", "localhost:5173"}, cfg.OriginPatterns())
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "eighty")

	_, err := Load()
	assert.Error(t, err)
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}
