package notifications

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/store"
	"github.com/helpdeskhq/helpdesk/pkg/notifications/backends"
)

// NewFromConfig builds a Notifier backed by db and the email backend selected
// by cfg. Addresses come from the identity admin API when it is configured and
// from the auth_users table otherwise.
func NewFromConfig(cfg *config.Config, db *gorm.DB, log hclog.Logger) (*Notifier, error) {
	registry, err := backends.NewRegistry(cfg.Backends, log)
	if err != nil {
		return nil, fmt.Errorf("error initializing email backends: %w", err)
	}
	sender, err := registry.Primary()
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Notifications.Location()
	if err != nil {
		return nil, fmt.Errorf("error loading time zone: %w", err)
	}
	renderer, err := NewRenderer(RendererConfig{
		BaseURL:  cfg.Notifications.BaseURL,
		Locale:   cfg.Notifications.Locale,
		Location: loc,
	})
	if err != nil {
		return nil, err
	}

	var directory store.Directory
	if cfg.Identity != nil && cfg.Identity.AdminURL != "" {
		directory = store.NewAdminAPIDirectory(store.AdminAPIDirectoryConfig{
			URL:        cfg.Identity.AdminURL,
			ServiceKey: cfg.Identity.ServiceKey,
		})
	} else {
		directory = store.NewGormDirectory(db)
	}

	log.Info("email notifications configured",
		"backend", sender.Name(),
		"backends", registry.GetBackendNames(),
		"locale", cfg.Notifications.Locale,
		"time_zone", loc.String(),
	)

	return New(Config{
		Store:          store.NewGormStore(db),
		Directory:      directory,
		Sender:         sender,
		Renderer:       renderer,
		From:           cfg.Notifications.From(),
		MaxConcurrency: cfg.Notifications.MaxConcurrency,
		Logger:         log,
	})
}
