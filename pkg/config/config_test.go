package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/platform/pkg/observability"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 100, cfg.Security.RateLimitMaxRequests)
	assert.Equal(t, time.Minute, cfg.Security.RateLimitWindow)
	assert.Empty(t, cfg.Security.AllowedOrigins)
	assert.Equal(t, 1024, cfg.Security.EntityCacheSize)
	assert.Equal(t, "security_events", cfg.Audit.TableName)
	assert.Equal(t, 10000, cfg.Audit.MemoryBufferSize)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.False(t, cfg.Observability.TracingEnabled)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("EDUPULSE_PORT", "9000")
	t.Setenv("EDUPULSE_RATE_LIMIT_MAX", "5")
	t.Setenv("EDUPULSE_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("EDUPULSE_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("EDUPULSE_LOG_LEVEL", "debug")
	t.Setenv("EDUPULSE_REDIS_URL", "localhost:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Security.RateLimitMaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Security.RateLimitWindow)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.Redis.URL)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("EDUPULSE_RATE_LIMIT_MAX", "not-a-number")
	t.Setenv("EDUPULSE_RATE_LIMIT_WINDOW", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Security.RateLimitMaxRequests)
	assert.Equal(t, time.Minute, cfg.Security.RateLimitWindow)
}

func TestValidate_PortConflict(t *testing.T) {
	t.Setenv("EDUPULSE_HEALTH_PORT", "8080")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be different")
}

func TestValidate_BadOrigin(t *testing.T) {
	t.Setenv("EDUPULSE_ALLOWED_ORIGINS", "app.example.com")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid allowed origin")
}

func TestValidate_WildcardOrigin(t *testing.T) {
	t.Setenv("EDUPULSE_ALLOWED_ORIGINS", "*")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
}

func TestValidate_NonPositiveRateLimit(t *testing.T) {
	t.Setenv("EDUPULSE_RATE_LIMIT_MAX", "-1")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit max requests")
}

func TestValidate_TracingRequiresEndpoint(t *testing.T) {
	t.Setenv("EDUPULSE_OTEL_ENABLED", "true")
	t.Setenv("EDUPULSE_OTEL_ENDPOINT", "")

	cfg, err := LoadConfig()
	// Empty endpoint falls back to the default, so build the failing case
	// directly.
	require.NoError(t, err)
	cfg.Observability.OTelEndpoint = ""
	assert.Error(t, cfg.Validate())
}
