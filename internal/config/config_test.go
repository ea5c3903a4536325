package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, StoreMemory, cfg.SessionStore)
	assert.Equal(t, StoreMemory, cfg.UserStore)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "./engine/nebula", cfg.EnginePath)
	assert.Equal(t, 4, cfg.EngineMaxAttempts)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("USER_STORE", "mongo")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("ENGINE_TIMEOUT", "5s")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, StoreRedis, cfg.SessionStore)
	assert.Equal(t, StoreMongo, cfg.UserStore)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5*time.Second, cfg.EngineTimeout)
	assert.True(t, cfg.CookieSecure)
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ENGINE_PATH=/opt/engine\nALLOWED_ORIGIN=https://from-file.example\n"), 0o600))
	t.Setenv("ALLOWED_ORIGIN", "https://from-env.example")
	// cleared after the test since godotenv sets it in the process environment
	t.Setenv("ENGINE_PATH", "")
	require.NoError(t, os.Unsetenv("ENGINE_PATH"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/engine", cfg.EnginePath)
	assert.Equal(t, "https://from-env.example", cfg.AllowedOrigin)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{SessionStore: StoreMemory, UserStore: StoreMemory, EngineWorkers: 1, EngineMaxAttempts: 4}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"memory stores", func(c *Config) {}, ""},
		{"redis sessions need url", func(c *Config) { c.SessionStore = StoreRedis }, "REDIS_URL"},
		{"redis users need url", func(c *Config) { c.UserStore = StoreRedis }, "REDIS_URL"},
		{"mongo users need uri", func(c *Config) { c.UserStore = StoreMongo }, "MONGO_URI"},
		{"mongo sessions unsupported", func(c *Config) { c.SessionStore = StoreMongo }, "SESSION_STORE"},
		{"unknown user store", func(c *Config) { c.UserStore = "postgres" }, "USER_STORE"},
		{"no workers", func(c *Config) { c.EngineWorkers = 0 }, "ENGINE_WORKERS"},
		{"no attempts", func(c *Config) { c.EngineMaxAttempts = 0 }, "ENGINE_MAX_ATTEMPTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
