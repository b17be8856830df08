package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// EventHandler dispatches one ticket event.
type EventHandler interface {
	Notify(ctx context.Context, event Event) (*DispatchSummary, error)
}

// Consumer consumes ticket events from Redpanda and hands them to an
// EventHandler.
type Consumer struct {
	kafkaClient *kgo.Client
	handler     EventHandler
	dlq         *DLQPublisher
	logger      hclog.Logger
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// ConsumerConfig holds configuration for the consumer.
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string

	// Use AtStart for testing to ensure messages are consumed even if published
	// before the consumer joins.
	ConsumeFromStart bool

	Handler EventHandler

	// DLQ is optional. Without it undeliverable records are logged and skipped.
	DLQ *DLQPublisher

	Logger hclog.Logger
}

// NewConsumer creates a new ticket event consumer.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = "helpdesk-notifiers"
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("event handler is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	offset := kgo.NewOffset().AtEnd()
	if cfg.ConsumeFromStart {
		offset = kgo.NewOffset().AtStart()
	}

	kafkaClient, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.Topic),

		kgo.ConsumeResetOffset(offset),
		kgo.SessionTimeout(10*time.Second),
		kgo.RebalanceTimeout(30*time.Second),

		// Offsets are committed after each record is handled
		kgo.DisableAutoCommit(),

		kgo.FetchMaxWait(500*time.Millisecond),
		kgo.FetchMinBytes(1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Consumer{
		kafkaClient: kafkaClient,
		handler:     cfg.Handler,
		dlq:         cfg.DLQ,
		logger:      cfg.Logger.Named("consumer"),
		stopCh:      make(chan struct{}),
	}, nil
}

// Start runs the polling loop until ctx is done or Stop is called.
func (c *Consumer) Start(ctx context.Context) error {
	group, _ := c.kafkaClient.GroupMetadata()
	c.logger.Info("starting ticket event consumer", "consumer_group", group)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("ticket event consumer stopped by context")
			return ctx.Err()

		case <-c.stopCh:
			c.logger.Info("ticket event consumer stopped")
			return nil

		default:
			fetches := c.kafkaClient.PollFetches(ctx)
			if fetches.IsClientClosed() {
				return nil
			}

			if errs := fetches.Errors(); len(errs) > 0 {
				for _, err := range errs {
					if errors.Is(err.Err, context.Canceled) {
						continue
					}
					c.logger.Error("kafka fetch error", "error", err.Err)
				}
				continue
			}

			fetches.EachRecord(func(record *kgo.Record) {
				c.processRecord(ctx, record)

				// Every record is committed: dispatches are never retried.
				if err := c.kafkaClient.CommitRecords(ctx, record); err != nil {
					c.logger.Warn("failed to commit Kafka offset",
						"partition", record.Partition,
						"offset", record.Offset,
						"error", err)
				}
			})
		}
	}
}

// Stop gracefully stops the consumer.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.kafkaClient.Close()
	})
}

// processRecord decodes and dispatches a single record. Records that cannot be
// decoded or whose dispatch fails fatally go to the DLQ.
func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) {
	c.logger.Debug("processing record",
		"partition", record.Partition,
		"offset", record.Offset,
		"key", string(record.Key),
	)

	var event Event
	if err := json.Unmarshal(record.Value, &event); err != nil {
		c.deadLetter(ctx, record, nil, fmt.Errorf("failed to unmarshal event: %w", err))
		return
	}

	summary, err := c.handler.Notify(ctx, event)
	if err != nil {
		c.deadLetter(ctx, record, &event, err)
		return
	}

	c.logger.Info("ticket event dispatched",
		"event_id", event.ID,
		"type", event.Type,
		"ticket_id", event.TicketID,
		"sent", summary.Sent,
		"failed", summary.Failed,
	)
}

func (c *Consumer) deadLetter(ctx context.Context, record *kgo.Record, event *Event, cause error) {
	c.logger.Error("ticket event not dispatched",
		"partition", record.Partition,
		"offset", record.Offset,
		"error", cause,
	)
	if c.dlq == nil {
		return
	}
	if err := c.dlq.PublishToDLQ(ctx, record, event, cause.Error()); err != nil {
		c.logger.Error("failed to publish to DLQ", "error", err)
	}
}
