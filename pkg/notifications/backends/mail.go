package backends

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"time"

	"github.com/google/uuid"
)

// MailBackend sends notification emails via SMTP
type MailBackend struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	useTLS       bool
	dialTimeout  time.Duration
}

// MailBackendConfig configures the mail backend
type MailBackendConfig struct {
	SMTPHost     string // SMTP server hostname
	SMTPPort     string // SMTP server port (typically 587 for TLS, 25 for plaintext)
	SMTPUsername string // SMTP username (optional for auth)
	SMTPPassword string // SMTP password (optional for auth)
	UseTLS       bool   // Use STARTTLS (recommended for port 587)
}

// NewMailBackend creates a new mail backend
func NewMailBackend(cfg MailBackendConfig) *MailBackend {
	return &MailBackend{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUsername: cfg.SMTPUsername,
		smtpPassword: cfg.SMTPPassword,
		useTLS:       cfg.UseTLS,
		dialTimeout:  10 * time.Second,
	}
}

// Name returns the backend identifier
func (b *MailBackend) Name() string {
	return "smtp"
}

// Send delivers one email over SMTP. The returned response is the Message-ID
// header that was generated for it.
func (b *MailBackend) Send(ctx context.Context, email *Email) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", NewBackendError(b.Name(), "send", false, err)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), b.smtpHost)
	msg := buildMessage(email, messageID)

	var auth smtp.Auth
	if b.smtpUsername != "" && b.smtpPassword != "" {
		auth = smtp.PlainAuth("", b.smtpUsername, b.smtpPassword, b.smtpHost)
	}

	if err := b.sendMail(ctx, auth, email.From, email.To, msg); err != nil {
		return "", err
	}
	return messageID, nil
}

// buildMessage builds the raw message with headers
func buildMessage(email *Email, messageID string) []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"Message-ID: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		email.From, email.To, mime.QEncoding.Encode("utf-8", email.Subject), messageID, email.HTML,
	))
}

// sendMail sends the message with optional STARTTLS
func (b *MailBackend) sendMail(ctx context.Context, auth smtp.Auth, from, to string, msg []byte) error {
	addr := net.JoinHostPort(b.smtpHost, b.smtpPort)

	dialer := &net.Dialer{Timeout: b.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return NewBackendError(b.Name(), "connect", true, err)
	}

	client, err := smtp.NewClient(conn, b.smtpHost)
	if err != nil {
		conn.Close()
		return NewBackendError(b.Name(), "connect", true, err)
	}
	defer client.Close()

	if b.useTLS {
		if err = client.StartTLS(&tls.Config{ServerName: b.smtpHost}); err != nil {
			return NewBackendError(b.Name(), "starttls", true, err)
		}
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return NewBackendError(b.Name(), "auth", false, err)
		}
	}

	if err = client.Mail(from); err != nil {
		return NewBackendError(b.Name(), "send", false, fmt.Errorf("failed to set sender: %w", err))
	}
	if err = client.Rcpt(to); err != nil {
		return NewBackendError(b.Name(), "send", false, fmt.Errorf("failed to set recipient %s: %w", to, err))
	}

	w, err := client.Data()
	if err != nil {
		return NewBackendError(b.Name(), "send", true, fmt.Errorf("failed to get data writer: %w", err))
	}
	if _, err = w.Write(msg); err != nil {
		return NewBackendError(b.Name(), "send", true, fmt.Errorf("failed to write message: %w", err))
	}
	if err = w.Close(); err != nil {
		return NewBackendError(b.Name(), "send", true, fmt.Errorf("failed to close data writer: %w", err))
	}

	return client.Quit()
}
