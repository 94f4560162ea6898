package access

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no principal could be established (401)
	ErrUnauthenticated = errors.New("authentication required")

	// ErrDenied means the principal is authenticated but not entitled (403)
	ErrDenied = errors.New("access denied")

	// ErrNotFound means the referenced resource does not exist (404).
	// Kept distinct from ErrDenied so clients cannot probe which resources
	// exist versus which they merely cannot access.
	ErrNotFound = errors.New("resource not found")
)

// DeniedError carries the human-readable reason for a denial. It unwraps
// to ErrDenied so callers can branch with errors.Is.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

func (e *DeniedError) Unwrap() error { return ErrDenied }

// deny builds a denial with the given reason
func deny(reason string) error {
	return &DeniedError{Reason: reason}
}

func denyf(format string, args ...interface{}) error {
	return &DeniedError{Reason: fmt.Sprintf(format, args...)}
}

// DenialReason extracts the reason from a denial error, or the error text
// for other errors.
func DenialReason(err error) string {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Reason
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
