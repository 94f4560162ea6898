package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/edupulse/platform/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Security      SecurityConfig
	Audit         AuditConfig
	Redis         RedisConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// SecurityConfig holds rate limiting, threat scanning, and CORS settings
type SecurityConfig struct {
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	SweepInterval        time.Duration

	// Optional YAML file of threat signatures; empty means built-in set.
	SignatureFile      string
	WatchSignatureFile bool

	AllowedOrigins []string

	EntityCacheSize int
}

// AuditConfig holds audit trail sink settings
type AuditConfig struct {
	// File sink; empty disables it
	LogDir      string
	MaxFileSize int64

	// Postgres sink; empty disables it
	DatabaseURL string
	TableName   string

	// In-memory ring kept for the admin search endpoint
	MemoryBufferSize int
}

// RedisConfig holds optional Redis settings for the distributed limiter
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	TracingEnabled     bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Security:      loadSecurityConfig(),
		Audit:         loadAuditConfig(),
		Redis:         loadRedisConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("EDUPULSE_HOST", "0.0.0.0"),
		Port:            getEnv("EDUPULSE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("EDUPULSE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("EDUPULSE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("EDUPULSE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("EDUPULSE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("EDUPULSE_HEALTH_PORT", "9090"),
	}
}

func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		RateLimitMaxRequests: getEnvInt("EDUPULSE_RATE_LIMIT_MAX", 100),
		RateLimitWindow:      getEnvDuration("EDUPULSE_RATE_LIMIT_WINDOW", time.Minute),
		SweepInterval:        getEnvDuration("EDUPULSE_RATE_LIMIT_SWEEP_INTERVAL", time.Minute),
		SignatureFile:        getEnv("EDUPULSE_SIGNATURE_FILE", ""),
		WatchSignatureFile:   getEnvBool("EDUPULSE_SIGNATURE_WATCH", false),
		AllowedOrigins:       getEnvList("EDUPULSE_ALLOWED_ORIGINS", nil),
		EntityCacheSize:      getEnvInt("EDUPULSE_ENTITY_CACHE_SIZE", 1024),
	}
}

func loadAuditConfig() AuditConfig {
	return AuditConfig{
		LogDir:           getEnv("EDUPULSE_AUDIT_LOG_DIR", ""),
		MaxFileSize:      getEnvInt64("EDUPULSE_AUDIT_MAX_FILE_SIZE", 10*1024*1024),
		DatabaseURL:      getEnv("EDUPULSE_AUDIT_DATABASE_URL", ""),
		TableName:        getEnv("EDUPULSE_AUDIT_TABLE", "security_events"),
		MemoryBufferSize: getEnvInt("EDUPULSE_AUDIT_BUFFER_SIZE", 10000),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      getEnv("EDUPULSE_REDIS_URL", ""),
		Password: getEnv("EDUPULSE_REDIS_PASSWORD", ""),
		DB:       getEnvInt("EDUPULSE_REDIS_DB", 0),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLevel(getEnv("EDUPULSE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("EDUPULSE_METRICS_ENABLED", true),
		TracingEnabled:     getEnvBool("EDUPULSE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("EDUPULSE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("EDUPULSE_OTEL_SERVICE_NAME", "edupulse-platform"),
		OTelServiceVersion: getEnv("EDUPULSE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("EDUPULSE_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Security.RateLimitMaxRequests <= 0 {
		return fmt.Errorf("rate limit max requests must be positive")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	if c.Security.EntityCacheSize <= 0 {
		return fmt.Errorf("entity cache size must be positive")
	}
	for _, origin := range c.Security.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("invalid allowed origin: %s", origin)
		}
	}

	if c.Audit.MemoryBufferSize <= 0 {
		return fmt.Errorf("audit buffer size must be positive")
	}

	if c.Observability.TracingEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when tracing is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when tracing is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable as a slice
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
