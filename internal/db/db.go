package db

import (
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/pkg/database"
)

// NewDB returns a connection to the Postgres database described by cfg. The
// schema is expected to be migrated already (see helpdesk-migrate).
func NewDB(cfg config.Postgres, log hclog.Logger) (*gorm.DB, error) {
	return database.Connect(database.Config{
		URL:      cfg.URL,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
	}, log)
}
