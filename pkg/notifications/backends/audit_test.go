package backends

import (
	"bytes"
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditBackend(t *testing.T) {
	backend := NewAuditBackend(nil)
	assert.Equal(t, "audit", backend.Name())
}

func TestAuditBackendSend(t *testing.T) {
	var buf bytes.Buffer
	backend := NewAuditBackend(hclog.New(&hclog.LoggerOptions{
		Output: &buf,
		Level:  hclog.Info,
	}))

	id, err := backend.Send(context.Background(), &Email{
		From:    "noreply@example.com",
		To:      "tech@example.com",
		Subject: "[Acme] New Ticket: VPN down",
		HTML:    "<p>body</p>",
	})
	require.NoError(t, err)
	assert.Contains(t, id, "audit-")
	assert.Contains(t, buf.String(), "email acknowledged")
	assert.Contains(t, buf.String(), "tech@example.com")
	assert.Contains(t, buf.String(), "VPN down")
}
