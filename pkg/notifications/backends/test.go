package backends

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// TestBackend is a fake email provider for testing failure scenarios. It
// records every send and can be told to fail globally or for specific
// recipient addresses.
type TestBackend struct {
	name     string
	mu       sync.RWMutex
	config   TestBackendConfig
	messages []TestBackendMessage
	seq      int
}

// TestBackendConfig configures the test backend behavior
type TestBackendConfig struct {
	// FailureMode determines how the backend should fail
	FailureMode FailureMode

	// FailureDelay adds artificial latency before processing
	FailureDelay time.Duration

	// FailureMessage is the error message to return
	FailureMessage string

	// FailRecipients makes sends to these addresses fail permanently
	// regardless of FailureMode.
	FailRecipients map[string]bool

	// RecordMessages enables recording of all processed messages for verification
	RecordMessages bool
}

// FailureMode defines how the test backend should behave
type FailureMode string

const (
	// FailureModeNone processes all messages successfully
	FailureModeNone FailureMode = "none"

	// FailureModeAlways always fails with a retryable error
	FailureModeAlways FailureMode = "always"

	// FailureModePermanent always fails with a permanent (non-retryable) error
	FailureModePermanent FailureMode = "permanent"

	// FailureModeRateLimit simulates provider quota exhaustion
	FailureModeRateLimit FailureMode = "rate_limit"
)

// TestBackendMessage records a processed email for verification
type TestBackendMessage struct {
	Email     Email
	Timestamp time.Time
	Success   bool
	Error     error
}

// NewTestBackend creates a new test backend
func NewTestBackend(config TestBackendConfig) *TestBackend {
	if config.FailureMode == "" {
		config.FailureMode = FailureModeNone
	}
	return &TestBackend{
		name:     "test",
		config:   config,
		messages: make([]TestBackendMessage, 0),
	}
}

// Name returns the backend name
func (b *TestBackend) Name() string {
	return b.name
}

// Send processes an email according to the configured failure mode
func (b *TestBackend) Send(ctx context.Context, email *Email) (string, error) {
	b.mu.RLock()
	delay := b.config.FailureDelay
	b.mu.RUnlock()

	// Delay outside the lock so concurrent sends overlap
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	select {
	case <-ctx.Done():
		err = NewBackendError("test", "send", true, ctx.Err())
	default:
		err = b.failure(email)
	}

	var id string
	if err == nil {
		b.seq++
		id = fmt.Sprintf("test-%d", b.seq)
	}

	if b.config.RecordMessages {
		b.messages = append(b.messages, TestBackendMessage{
			Email:     *email,
			Timestamp: time.Now(),
			Success:   err == nil,
			Error:     err,
		})
	}

	return id, err
}

// failure returns the error the configured behavior produces for email.
// Callers hold b.mu.
func (b *TestBackend) failure(email *Email) error {
	if b.config.FailRecipients[email.To] {
		return NewBackendError("test", "send", false,
			fmt.Errorf("recipient rejected: %s", email.To))
	}

	errMsg := func(def string) string {
		if b.config.FailureMessage != "" {
			return b.config.FailureMessage
		}
		return def
	}

	switch b.config.FailureMode {
	case FailureModeNone:
		return nil

	case FailureModeAlways:
		return NewBackendError("test", "send", true, errors.New(errMsg("simulated retryable failure")))

	case FailureModePermanent:
		return NewBackendError("test", "send", false, errors.New(errMsg("simulated permanent failure")))

	case FailureModeRateLimit:
		return NewBackendError("test", "send", true, errors.New("simulated rate limit (429)"))

	default:
		return NewBackendError("test", "send", false,
			fmt.Errorf("unknown failure mode: %s", b.config.FailureMode))
	}
}

// GetMessages returns all recorded messages (for test verification)
func (b *TestBackend) GetMessages() []TestBackendMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()

	messages := make([]TestBackendMessage, len(b.messages))
	copy(messages, b.messages)
	return messages
}

// GetMessageCount returns the number of processed messages
func (b *TestBackend) GetMessageCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.messages)
}

// GetSuccessCount returns the number of successfully processed messages
func (b *TestBackend) GetSuccessCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, msg := range b.messages {
		if msg.Success {
			count++
		}
	}
	return count
}

// GetFailureCount returns the number of failed messages
func (b *TestBackend) GetFailureCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, msg := range b.messages {
		if !msg.Success {
			count++
		}
	}
	return count
}

// Recipients returns the addresses of every recorded message.
func (b *TestBackend) Recipients() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	to := make([]string, 0, len(b.messages))
	for _, msg := range b.messages {
		to = append(to, msg.Email.To)
	}
	return to
}

// Reset clears all recorded messages and resets counters
func (b *TestBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = make([]TestBackendMessage, 0)
	b.seq = 0
}

// SetFailureMode dynamically changes the failure mode
func (b *TestBackend) SetFailureMode(mode FailureMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config.FailureMode = mode
}
