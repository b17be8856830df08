package consume

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/helpdeskhq/helpdesk/internal/cmd/base"
	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/db"
	"github.com/helpdeskhq/helpdesk/internal/notifications"
	pkgdatabase "github.com/helpdeskhq/helpdesk/pkg/database"
	pkgnotifications "github.com/helpdeskhq/helpdesk/pkg/notifications"
)

type Command struct {
	*base.Command

	flagConfig    string
	flagFromStart bool
	flagNoDLQ     bool
}

func (c *Command) Synopsis() string {
	return "Send the emails of queued ticket events"
}

func (c *Command) Help() string {
	return `Usage: helpdesk consume -config=config.hcl

  Consume ticket events from the kafka topic and send their emails. Events
  that cannot be decoded or whose ticket cannot be loaded are published to
  the dead letter topic. Sends are never retried.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("consume", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to helpdesk config file",
	)
	f.BoolVar(
		&c.flagFromStart, "from-start", false,
		"Consume from the oldest retained event when the group has no offset.",
	)
	f.BoolVar(
		&c.flagNoDLQ, "no-dlq", false,
		"Log and skip failed events instead of publishing them to the DLQ topic.",
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
	if cfg.Kafka == nil {
		ui.Error("kafka block is required to consume ticket events")
		return 1
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

	var dlq *pkgnotifications.DLQPublisher
	if !c.flagNoDLQ {
		dlq, err = pkgnotifications.NewDLQPublisher(pkgnotifications.DLQPublisherConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.DLQTopic,
		})
		if err != nil {
			ui.Error(fmt.Sprintf("error initializing DLQ publisher: %v", err))
			return 1
		}
		defer dlq.Close()
	}

	consumer, err := pkgnotifications.NewConsumer(pkgnotifications.ConsumerConfig{
		Brokers:          cfg.Kafka.Brokers,
		Topic:            cfg.Kafka.Topic,
		ConsumerGroup:    cfg.Kafka.ConsumerGroup,
		ConsumeFromStart: cfg.Kafka.ConsumeFromStart || c.flagFromStart,
		Handler:          notifier,
		DLQ:              dlq,
		Logger:           log,
	})
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing consumer: %v", err))
		return 1
	}
	defer consumer.Stop()

	ctx, stop := c.ShutdownContext()
	defer stop()

	ui.Info(fmt.Sprintf("Consuming ticket events from %s", cfg.Kafka.Topic))
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		ui.Error(fmt.Sprintf("error consuming ticket events: %v", err))
		return 1
	}

	ui.Info("Consumer stopped")
	pkgdatabase.LogPoolStats(database, log)
	return 0
}
