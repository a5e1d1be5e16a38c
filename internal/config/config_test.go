package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("NAME_VERIFY_PROVIDER", "")

	cfg := Load()
	require.Equal(t, "dev", cfg.AppEnv)
	require.Equal(t, "none", cfg.NameVerifyProvider)
	require.Equal(t, 20, cfg.MessageMinLen)
	require.Equal(t, 1000, cfg.MessageMaxLen)
	require.Contains(t, cfg.CORSAllowedOrigins, "http://127.0.0.1:3000")
	require.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,https://a.example")
	t.Setenv("NAME_VERIFY_TIMEOUT", "750ms")
	t.Setenv("NAME_VERIFY_MAX_RETRIES", "not-a-number")

	cfg := Load()
	require.True(t, cfg.IsProduction())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 750*time.Millisecond, cfg.NameVerifyTimeout)
	require.Equal(t, 2, cfg.NameVerifyMaxRetries)
}
