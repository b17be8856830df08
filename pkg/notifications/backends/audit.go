package backends

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// AuditBackend logs emails instead of sending them. Used for local
// development and as a fallback when no provider is configured.
type AuditBackend struct {
	logger hclog.Logger
}

// NewAuditBackend creates a new audit backend
func NewAuditBackend(logger hclog.Logger) *AuditBackend {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &AuditBackend{
		logger: logger.Named("audit"),
	}
}

// Name returns the backend identifier
func (b *AuditBackend) Name() string {
	return "audit"
}

// Send logs the email and acknowledges it with a generated ID.
func (b *AuditBackend) Send(ctx context.Context, email *Email) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", NewBackendError(b.Name(), "send", false, err)
	}

	id := "audit-" + uuid.New().String()
	b.logger.Info("email acknowledged",
		"id", id,
		"from", email.From,
		"to", email.To,
		"subject", email.Subject,
		"html_bytes", len(email.HTML),
		"timestamp", time.Now().Format(time.RFC3339),
	)
	b.logger.Trace("email body", "id", id, "html", email.HTML)

	return id, nil
}
