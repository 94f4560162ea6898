package headers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInjector_Apply(t *testing.T) {
	injector := NewInjector(DefaultInjectorConfig())
	rec := httptest.NewRecorder()

	injector.Apply(rec)

	assert.Equal(t, "default-src 'self'; frame-ancestors 'none'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}

func TestInjector_SkipsEmptyValues(t *testing.T) {
	injector := NewInjector(InjectorConfig{FrameOptions: "SAMEORIGIN"})
	rec := httptest.NewRecorder()

	injector.Apply(rec)

	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func newGate(origins ...string) *Gate {
	cfg := DefaultGateConfig()
	cfg.AllowedOrigins = origins
	return NewGate(cfg)
}

func TestGate_AllowedOrigin(t *testing.T) {
	gate := newGate("https://app.example.com")

	req := httptest.NewRequest("GET", "/api/v1/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	granted := gate.Apply(rec, req)

	assert.True(t, granted)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")
}

func TestGate_DisallowedOriginGetsNoGrant(t *testing.T) {
	gate := newGate("https://app.example.com")

	req := httptest.NewRequest("GET", "/api/v1/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()

	granted := gate.Apply(rec, req)

	assert.False(t, granted)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGate_AbsentOriginGetsNoGrant(t *testing.T) {
	gate := newGate("https://app.example.com")

	req := httptest.NewRequest("GET", "/api/v1/ping", nil)
	rec := httptest.NewRecorder()

	assert.False(t, gate.Apply(rec, req))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGate_Wildcard(t *testing.T) {
	gate := newGate("*")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://anything.example.com")
	rec := httptest.NewRecorder()

	assert.True(t, gate.Apply(rec, req))
	assert.Equal(t, "https://anything.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestIsPreflight(t *testing.T) {
	preflight := httptest.NewRequest(http.MethodOptions, "/api/v1/students", nil)
	preflight.Header.Set("Origin", "https://app.example.com")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	assert.True(t, IsPreflight(preflight))

	plainOptions := httptest.NewRequest(http.MethodOptions, "/api/v1/students", nil)
	assert.False(t, IsPreflight(plainOptions))

	get := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	get.Header.Set("Origin", "https://app.example.com")
	assert.False(t, IsPreflight(get))
}
