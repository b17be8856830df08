package backends

import (
	"context"
	"fmt"
	"strings"
)

// Email is a fully rendered message for a single recipient.
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers rendered emails through a transactional email provider.
type Sender interface {
	// Name returns the backend identifier
	Name() string

	// Send delivers one email and returns the provider's send result (usually
	// a message ID).
	Send(ctx context.Context, email *Email) (string, error)
}

// BackendError represents an error from a specific backend
type BackendError struct {
	Backend   string // Backend name (e.g., "resend", "smtp")
	Operation string // Operation that failed (e.g., "send", "connect")
	Retryable bool   // Whether a later attempt could succeed
	Err       error  // Underlying error
}

func (e *BackendError) Error() string {
	retryability := "permanent"
	if e.Retryable {
		retryability = "retryable"
	}
	return fmt.Sprintf("%s backend error (%s, %s): %v", e.Backend, e.Operation, retryability, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *BackendError) IsRetryable() bool {
	return e.Retryable
}

// NewBackendError creates a new backend error
func NewBackendError(backend, operation string, retryable bool, err error) *BackendError {
	return &BackendError{
		Backend:   backend,
		Operation: operation,
		Retryable: retryable,
		Err:       err,
	}
}

// FormatAddress formats a From header value.
func FormatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

// isRetryableHTTPStatus determines if an HTTP status code represents a retryable error
func isRetryableHTTPStatus(status int) bool {
	// Retryable: 5xx (server errors), 429 (rate limit), 408 (timeout)
	// Permanent: 4xx (client errors, except 429 and 408)
	switch {
	case status >= 500:
		return true
	case status == 429:
		return true
	case status == 408:
		return true
	default:
		return false
	}
}

func validateEmail(email *Email) error {
	if email == nil {
		return fmt.Errorf("email is nil")
	}
	if strings.TrimSpace(email.To) == "" {
		return fmt.Errorf("recipient address is required")
	}
	if email.From == "" {
		return fmt.Errorf("sender address is required")
	}
	return nil
}
