package headers

import "net/http"

// GateConfig configures the CORS origin gate
type GateConfig struct {
	AllowedOrigins   []string
	AllowMethods     string
	AllowHeaders     string
	AllowCredentials bool
	MaxAgeSeconds    string
}

// DefaultGateConfig returns the standard CORS grant settings with an empty
// allow-list (no cross-origin grants until origins are configured).
func DefaultGateConfig() GateConfig {
	return GateConfig{
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowHeaders:     "Authorization, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAgeSeconds:    "600",
	}
}

// Gate evaluates the request Origin against a static allow-list. A
// disallowed or absent origin simply gets no grant headers; the browser
// enforces the rest, so there is no failure mode here.
type Gate struct {
	allowed  map[string]struct{}
	allowAll bool
	config   GateConfig
}

// NewGate creates a CORS gate. An allow-list entry of "*" grants any origin.
func NewGate(config GateConfig) *Gate {
	g := &Gate{
		allowed: make(map[string]struct{}, len(config.AllowedOrigins)),
		config:  config,
	}
	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			g.allowAll = true
			continue
		}
		g.allowed[origin] = struct{}{}
	}
	return g
}

// OriginAllowed reports whether the origin is on the allow-list
func (g *Gate) OriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	if g.allowAll {
		return true
	}
	_, ok := g.allowed[origin]
	return ok
}

// Apply attaches CORS grant headers when the request origin is allowed,
// and reports whether a grant was made.
func (g *Gate) Apply(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if !g.OriginAllowed(origin) {
		return false
	}

	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", g.config.AllowMethods)
	h.Set("Access-Control-Allow-Headers", g.config.AllowHeaders)
	if g.config.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if g.config.MaxAgeSeconds != "" {
		h.Set("Access-Control-Max-Age", g.config.MaxAgeSeconds)
	}
	h.Add("Vary", "Origin")
	return true
}

// IsPreflight reports whether the request is a CORS preflight
func IsPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions &&
		r.Header.Get("Origin") != "" &&
		r.Header.Get("Access-Control-Request-Method") != ""
}
