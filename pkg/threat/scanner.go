package threat

import (
	"net/url"
	"sync"
)

// Verdict is the binary outcome of a scan. No scoring: the first signature
// to match decides.
type Verdict struct {
	Clean     bool
	Signature string // matched signature name when not clean
}

// Clean is the verdict for an unremarkable request
func clean() Verdict { return Verdict{Clean: true} }

// Suspicious returns a verdict flagging the named signature
func suspicious(signature string) Verdict { return Verdict{Signature: signature} }

// Scanner matches inbound request URLs against an ordered signature list.
// Signatures can be replaced at runtime (hot reload), so reads take a
// read lock.
type Scanner struct {
	mu   sync.RWMutex
	sigs []Signature
}

// NewScanner creates a scanner with the given signatures, or the built-in
// defaults when none are given.
func NewScanner(sigs ...Signature) *Scanner {
	if len(sigs) == 0 {
		sigs = DefaultSignatures()
	}
	return &Scanner{sigs: sigs}
}

// Scan checks the raw request URL against the signature list and returns
// the first match. The URL is percent-decoded before matching so encoded
// payloads like %2e%2e%2f are caught; both the raw and decoded forms are
// checked. Body presence is noted by callers in audit metadata only;
// multipart bodies are not decoded or inspected here.
func (s *Scanner) Scan(rawURL string, hasBody bool) Verdict {
	_ = hasBody // recorded as event metadata by the pipeline, not inspected

	decoded := rawURL
	if unescaped, err := url.QueryUnescape(rawURL); err == nil {
		decoded = unescaped
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sig := range s.sigs {
		if sig.Matches(decoded) || sig.Matches(rawURL) {
			return suspicious(sig.Name)
		}
	}
	return clean()
}

// Replace swaps the signature list atomically
func (s *Scanner) Replace(sigs []Signature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sigs = sigs
}

// Signatures returns the names of the active signatures in priority order
func (s *Scanner) Signatures() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.sigs))
	for i, sig := range s.sigs {
		names[i] = sig.Name
	}
	return names
}
