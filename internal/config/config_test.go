package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, SourceDummyJSON, cfg.Source)
	assert.Equal(t, "https://dummyjson.com", cfg.SourceURL)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2*time.Second, cfg.AckDelay)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"*"}, cfg.CorsAllowedOrigins)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SOURCE", SourceInMemory)
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("ACK_DELAY", "500ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,https://feed.example.com")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, SourceInMemory, cfg.Source)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.AckDelay)
	assert.Equal(t, []string{"http://localhost:5173", "https://feed.example.com"}, cfg.CorsAllowedOrigins)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("PORT: \"9090\"\nLOG_LEVEL: debug\n"), 0o600)
	require.NoError(t, err)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Source: SourcePostgres, PageSize: 10}
	assert.Error(t, cfg.Validate())

	cfg.DatabaseURL = "postgres://localhost/feed"
	assert.NoError(t, cfg.Validate())

	cfg.Source = "carrier-pigeon"
	assert.Error(t, cfg.Validate())

	cfg = &Config{Source: SourceInMemory}
	assert.Error(t, cfg.Validate())
}
