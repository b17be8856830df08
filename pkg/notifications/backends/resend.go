package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultResendEndpoint is the Resend API base URL.
const DefaultResendEndpoint = "https://api.resend.com"

// ResendBackend sends emails through the Resend HTTP API.
type ResendBackend struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// ResendBackendConfig holds configuration for the Resend backend
type ResendBackendConfig struct {
	// APIKey is the Resend API key ("re_...").
	APIKey string

	// Endpoint overrides the API base URL (optional, used in tests).
	Endpoint string

	// Timeout for HTTP requests (optional, defaults to 10s)
	Timeout time.Duration
}

// NewResendBackend creates a new Resend backend
func NewResendBackend(cfg ResendBackendConfig) *ResendBackend {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultResendEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &ResendBackend{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the backend identifier
func (b *ResendBackend) Name() string {
	return "resend"
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send posts one email to the API and returns the provider message ID.
func (b *ResendBackend) Send(ctx context.Context, email *Email) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", NewBackendError(b.Name(), "send", false, err)
	}

	body, err := json.Marshal(resendRequest{
		From:    email.From,
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return "", NewBackendError(b.Name(), "encode", false, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", NewBackendError(b.Name(), "send", false, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		// Network errors are retryable
		return "", NewBackendError(b.Name(), "send", true, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", NewBackendError(b.Name(), "send", true, fmt.Errorf("failed to read response: %w", err))
	}

	var result resendResponse
	// Error bodies are not always JSON.
	_ = json.Unmarshal(respBody, &result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := result.Message
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return "", NewBackendError(b.Name(), "send", isRetryableHTTPStatus(resp.StatusCode),
			fmt.Errorf("request failed with status %d: %s", resp.StatusCode, msg))
	}

	return result.ID, nil
}
