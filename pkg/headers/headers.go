package headers

import "net/http"

// InjectorConfig holds the response header values the injector attaches
type InjectorConfig struct {
	ContentSecurityPolicy   string
	StrictTransportSecurity string
	FrameOptions            string
	ContentTypeOptions      string
	XSSProtection           string
	ReferrerPolicy          string
}

// DefaultInjectorConfig returns the standard hardening header set
func DefaultInjectorConfig() InjectorConfig {
	return InjectorConfig{
		ContentSecurityPolicy:   "default-src 'self'; frame-ancestors 'none'",
		StrictTransportSecurity: "max-age=31536000; includeSubDomains",
		FrameOptions:            "DENY",
		ContentTypeOptions:      "nosniff",
		XSSProtection:           "1; mode=block",
		ReferrerPolicy:          "strict-origin-when-cross-origin",
	}
}

// Injector attaches a fixed set of security headers to responses.
// It is stateless; attaching headers cannot fail.
type Injector struct {
	config InjectorConfig
}

// NewInjector creates a header injector
func NewInjector(config InjectorConfig) *Injector {
	return &Injector{config: config}
}

// Apply sets the configured headers on the response
func (i *Injector) Apply(w http.ResponseWriter) {
	h := w.Header()
	if i.config.ContentSecurityPolicy != "" {
		h.Set("Content-Security-Policy", i.config.ContentSecurityPolicy)
	}
	if i.config.StrictTransportSecurity != "" {
		h.Set("Strict-Transport-Security", i.config.StrictTransportSecurity)
	}
	if i.config.FrameOptions != "" {
		h.Set("X-Frame-Options", i.config.FrameOptions)
	}
	if i.config.ContentTypeOptions != "" {
		h.Set("X-Content-Type-Options", i.config.ContentTypeOptions)
	}
	if i.config.XSSProtection != "" {
		h.Set("X-XSS-Protection", i.config.XSSProtection)
	}
	if i.config.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", i.config.ReferrerPolicy)
	}
}
