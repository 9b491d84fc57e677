package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "./data/marketsphere.db", cfg.Database.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "marketsphere.com", cfg.Domain.RootDomain)
	assert.Equal(t, "dev", cfg.Auth.Mode)
	assert.Equal(t, "MERCHANT", cfg.Auth.DevRole)
	assert.Equal(t, 3, cfg.Registration.MaxAttempts)
	assert.False(t, cfg.Registration.AutoApprove)
	assert.False(t, cfg.Storefront.Enabled)
	assert.Equal(t, 8081, cfg.Storefront.Port)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.Seed.File)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
server:
  host: "127.0.0.1"
  port: 9000
  shutdown_timeout: 15s

database:
  dsn: "/tmp/test.db"

log:
  level: "debug"
  format: "text"

domain:
  root_domain: "market.localhost"

auth:
  mode: header
  require_auth: true
  shared_secret: s3cret

registration:
  max_attempts: 5
  auto_approve: true

storefront:
  enabled: true
  port: 9100

cache:
  enabled: true
  redis_addr: "redis:6379"
  ttl: 30s

cors:
  allowed_origins:
    - https://admin.marketsphere.com
    - https://marketsphere.com

seed:
  file: ./seed.yaml
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address())
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/tmp/test.db", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "market.localhost", cfg.Domain.RootDomain)
	assert.Equal(t, "header", cfg.Auth.Mode)
	assert.True(t, cfg.Auth.RequireAuth)
	assert.Equal(t, "s3cret", cfg.Auth.SharedSecret)
	assert.Equal(t, 5, cfg.Registration.MaxAttempts)
	assert.True(t, cfg.Registration.AutoApprove)
	assert.True(t, cfg.Storefront.Enabled)
	assert.Equal(t, "0.0.0.0:9100", cfg.Storefront.Address())
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, []string{"https://admin.marketsphere.com", "https://marketsphere.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "./seed.yaml", cfg.Seed.File)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("MARKETSPHERE_SERVER_HOST", "192.168.1.1")
	t.Setenv("MARKETSPHERE_SERVER_PORT", "3000")
	t.Setenv("MARKETSPHERE_DATABASE_DSN", "/custom/path.db")
	t.Setenv("MARKETSPHERE_LOG_LEVEL", "warn")
	t.Setenv("MARKETSPHERE_AUTH_MODE", "header")
	t.Setenv("MARKETSPHERE_REGISTRATION_AUTO_APPROVE", "true")
	t.Setenv("MARKETSPHERE_CACHE_TTL", "1m")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.1", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/custom/path.db", cfg.Database.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "header", cfg.Auth.Mode)
	assert.True(t, cfg.Registration.AutoApprove)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
		msg  string
	}{
		{"auth mode", "MARKETSPHERE_AUTH_MODE", "magic", "auth.mode"},
		{"max attempts", "MARKETSPHERE_REGISTRATION_MAX_ATTEMPTS", "0", "registration.max_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.env, tt.val)

			_, err := LoadConfig("")
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		enabled string
	}{
		{"debug", "json", "DEBUG"},
		{"info", "text", "INFO"},
		{"warning", "json", "WARN"},
		{"error", "text", "ERROR"},
		{"invalid", "json", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger := SetupLogger(&Config{Log: LogConfig{Level: tt.level, Format: tt.format}})
			require.NotNil(t, logger)

			var want slog.Level
			require.NoError(t, want.UnmarshalText([]byte(tt.enabled)))
			assert.True(t, logger.Enabled(context.Background(), want))
			if want > slog.LevelDebug {
				assert.False(t, logger.Enabled(context.Background(), want-4))
			}
		})
	}
}

// =============================================================================
// Test Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"MARKETSPHERE_SERVER_HOST",
		"MARKETSPHERE_SERVER_PORT",
		"MARKETSPHERE_DATABASE_DSN",
		"MARKETSPHERE_LOG_LEVEL",
		"MARKETSPHERE_LOG_FORMAT",
		"MARKETSPHERE_AUTH_MODE",
		"MARKETSPHERE_REGISTRATION_MAX_ATTEMPTS",
		"MARKETSPHERE_REGISTRATION_AUTO_APPROVE",
		"MARKETSPHERE_CACHE_TTL",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}
