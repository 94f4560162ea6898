package access

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// IdentityResolver resolves an inbound request to a Principal. Session and
// token issuance live outside this subsystem; the pipeline invokes the
// resolver as a black box exactly once per request.
type IdentityResolver interface {
	// Resolve returns the authenticated principal for the request, or
	// (nil, nil) when the request carries no valid identity.
	Resolve(ctx context.Context, r *http.Request) (*Principal, error)
}

// StaticResolver maps bearer tokens to principals. Used in tests and
// local development where no real session service is wired.
type StaticResolver struct {
	mu     sync.RWMutex
	tokens map[string]*Principal
}

// NewStaticResolver creates an empty static resolver
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{tokens: make(map[string]*Principal)}
}

// Register associates a bearer token with a principal
func (s *StaticResolver) Register(token string, p *Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = p
}

// Resolve extracts a Bearer token from the Authorization header and looks
// it up. Unknown or missing tokens resolve to unauthenticated, not error.
func (s *StaticResolver) Resolve(ctx context.Context, r *http.Request) (*Principal, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.tokens[parts[1]]; ok {
		return p, nil
	}
	return nil, nil
}

// contextKey is the type for context keys
type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores the principal in the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom retrieves the principal from the context, or nil
func PrincipalFrom(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey).(*Principal); ok {
		return p
	}
	return nil
}
