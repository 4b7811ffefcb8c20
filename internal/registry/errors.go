package registry

import (
	"errors"
	"fmt"
)

// ErrorCategory normalizes upstream failures so callers can log and count
// them without parsing messages.
type ErrorCategory string

const (
	// ErrorTimeout indicates the registry took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the registry returned invalid/malformed data.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorOutage indicates the registry is unreachable or returned a
	// server-side failure.
	ErrorOutage ErrorCategory = "outage"
)

// UpstreamError wraps registry failures with a normalized category. The
// client never retries; the next scheduled reconciliation pass retries
// naturally because local state is unchanged.
type UpstreamError struct {
	Category   ErrorCategory
	Op         string
	Message    string
	Underlying error
}

func (e *UpstreamError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("registry %s [%s]: %s: %v", e.Op, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("registry %s [%s]: %s", e.Op, e.Category, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Underlying }

func newUpstreamError(category ErrorCategory, op, message string, underlying error) *UpstreamError {
	return &UpstreamError{Category: category, Op: op, Message: message, Underlying: underlying}
}

// IsUpstream reports whether err originates from the registry boundary.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// CategoryOf extracts the error category, defaulting to ErrorOutage for
// errors that did not come from this client.
func CategoryOf(err error) ErrorCategory {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Category
	}
	return ErrorOutage
}
