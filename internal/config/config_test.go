package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "unit-test-secret"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 7*24*time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, RateLimitRule{MaxRequests: 10, WindowSeconds: 900}, cfg.RateLimit.Login)
	assert.Equal(t, RateLimitRule{MaxRequests: 5, WindowSeconds: 3600}, cfg.RateLimit.Register)
	assert.Equal(t, RateLimitRule{MaxRequests: 30, WindowSeconds: 900}, cfg.RateLimit.Refresh)
	assert.Equal(t, time.Hour, cfg.SweepInterval())
}

func TestLoadConfig_MissingSecretIsFatal(t *testing.T) {
	path := writeConfig(t, `
server:
  port: ":9090"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("PORT", ":9999")

	path := writeConfig(t, `
auth:
  jwt_secret: "from-file"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, ":9999", cfg.Server.Port)
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: ":3000"
  mode: "debug"
auth:
  jwt_secret: "s"
  access_token_ttl_seconds: 86400
rate_limit:
  login:
    max_requests: 3
    window_seconds: 60
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, RateLimitRule{MaxRequests: 3, WindowSeconds: 60}, cfg.RateLimit.Login)
	assert.Equal(t, time.Minute, cfg.RateLimit.Login.Window())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
