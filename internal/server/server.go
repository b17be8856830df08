package server

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/pkg/models"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
)

// Publisher queues ticket events for asynchronous dispatch.
type Publisher interface {
	PublishEvent(ctx context.Context, event *notifications.Event) error
}

// PreferenceStore reads and saves notification preferences.
type PreferenceStore interface {
	GetPreference(ctx context.Context, userID string) (*models.NotificationPreference, error)
	UpsertPreference(ctx context.Context, np *models.NotificationPreference) error
}

// Server contains the server configuration.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// Notifier sends the emails of a ticket event synchronously.
	Notifier notifications.EventHandler

	// Publisher queues ticket events. Nil when no queue is configured.
	Publisher Publisher

	// Preferences backs the notification settings API.
	Preferences PreferenceStore

	// JWTSecret enables bearer token verification when set.
	JWTSecret []byte

	// Logger is the logger for the server.
	Logger hclog.Logger
}
