package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DLQMessage represents a ticket event that could not be dispatched.
type DLQMessage struct {
	// Event is nil when the record could not be decoded.
	Event    *Event `json:"event,omitempty"`
	RawValue []byte `json:"raw_value,omitempty"`

	FailureReason string    `json:"failure_reason"`
	DLQTimestamp  time.Time `json:"dlq_timestamp"`

	// Source record coordinates
	SourceTopic     string `json:"source_topic"`
	SourcePartition int32  `json:"source_partition"`
	SourceOffset    int64  `json:"source_offset"`
}

// DLQPublisher publishes events to the Dead Letter Queue
type DLQPublisher struct {
	client *kgo.Client
	topic  string
}

// DLQPublisherConfig holds DLQ publisher configuration
type DLQPublisherConfig struct {
	Brokers []string
	Topic   string // DLQ topic name (e.g., "helpdesk.ticket-events.dlq")
}

// NewDLQPublisher creates a new DLQ publisher
func NewDLQPublisher(cfg DLQPublisherConfig) (*DLQPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic + ".dlq"
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		// DLQ messages should never be lost
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.GzipCompression()),
		kgo.RequestRetries(10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create DLQ kafka client: %w", err)
	}

	return &DLQPublisher{
		client: client,
		topic:  cfg.Topic,
	}, nil
}

// PublishToDLQ publishes a failed record to the DLQ. event may be nil.
func (p *DLQPublisher) PublishToDLQ(ctx context.Context, record *kgo.Record, event *Event, failureReason string) error {
	dlqMsg := DLQMessage{
		Event:           event,
		FailureReason:   failureReason,
		DLQTimestamp:    time.Now(),
		SourceTopic:     record.Topic,
		SourcePartition: record.Partition,
		SourceOffset:    record.Offset,
	}
	if event == nil {
		dlqMsg.RawValue = record.Value
	}

	dlqJSON, err := json.Marshal(dlqMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message: %w", err)
	}

	dlqRecord := &kgo.Record{
		Topic: p.topic,
		Key:   record.Key,
		Value: dlqJSON,
		Headers: []kgo.RecordHeader{
			{Key: "failure_reason", Value: []byte(failureReason)},
		},
	}

	if err := p.client.ProduceSync(ctx, dlqRecord).FirstErr(); err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	return nil
}

// Close closes the DLQ publisher
func (p *DLQPublisher) Close() {
	p.client.Close()
}
