package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	api "github.com/helpdeskhq/helpdesk/internal/api/v1"
	"github.com/helpdeskhq/helpdesk/internal/cmd/base"
	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/db"
	"github.com/helpdeskhq/helpdesk/internal/notifications"
	"github.com/helpdeskhq/helpdesk/internal/server"
	"github.com/helpdeskhq/helpdesk/internal/store"
	pkgdatabase "github.com/helpdeskhq/helpdesk/pkg/database"
	pkgnotifications "github.com/helpdeskhq/helpdesk/pkg/notifications"
)

type Command struct {
	*base.Command

	flagConfig string
	flagAddr   string
}

func (c *Command) Synopsis() string {
	return "Run the notification HTTP server"
}

func (c *Command) Help() string {
	return `Usage: helpdesk serve -config=config.hcl

  Run the HTTP server that sends ticket notification emails.

  Endpoints:
    POST /functions/v1/send-notification-email   send the emails of a ticket event
    POST /api/v1/notifications/send              alias of the above
    POST /api/v1/ticket-events                   queue a ticket event (needs kafka)
    GET|PUT /api/v1/users/{id}/notification-preferences
    GET /healthz

  The database schema must be migrated first with helpdesk-migrate.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("serve", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to helpdesk config file",
	)
	f.StringVar(
		&c.flagAddr, "addr", "",
		"Address to listen on. Overrides server.addr of the config file.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	log, ui := c.Log, c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagConfig == "" {
		ui.Error("config flag is required")
		return 1
	}

	cfg, err := config.NewConfig(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}
	if c.flagAddr != "" {
		cfg.Server.Addr = c.flagAddr
	}

	database, err := db.NewDB(*cfg.Postgres, log)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing database: %v", err))
		return 1
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	notifier, err := notifications.NewFromConfig(cfg, database, log)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing notifier: %v", err))
		return 1
	}

	srv := server.Server{
		Config:      cfg,
		Notifier:    notifier,
		Preferences: store.NewGormStore(database),
		Logger:      log,
	}
	if cfg.Auth != nil && cfg.Auth.JWTSecret != "" {
		srv.JWTSecret = []byte(cfg.Auth.JWTSecret)
	} else {
		ui.Warn("auth.jwt_secret is not set: API requests are not authenticated")
	}

	if cfg.Kafka != nil {
		publisher, err := pkgnotifications.NewPublisher(pkgnotifications.PublisherConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			ui.Error(fmt.Sprintf("error initializing ticket event publisher: %v", err))
			return 1
		}
		defer publisher.Close()
		srv.Publisher = publisher
		log.Info("ticket event queue enabled",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewHandler(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := c.ShutdownContext()
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	ui.Info(fmt.Sprintf("Server listening on %s", cfg.Server.Addr))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ui.Error(fmt.Sprintf("error starting listener: %v", err))
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	ui.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		ui.Error(fmt.Sprintf("error shutting down server: %v", err))
		return 1
	}
	pkgdatabase.LogPoolStats(database, log)

	return 0
}
