package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestEventTypeValid(t *testing.T) {
	for _, et := range EventTypes {
		assert.True(t, et.Valid(), et)
	}
	assert.False(t, EventType("ticket_deleted").Valid())
	assert.False(t, EventType("").Valid())
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{
			name: "valid assignment",
			event: Event{
				Type:          EventTypeAssignment,
				TicketID:      "t1",
				TicketTitle:   "Printer broken",
				CompanyID:     "c1",
				OldAssignedTo: "userA",
				NewAssignedTo: "userB",
			},
		},
		{
			name:    "missing type",
			event:   Event{TicketID: "t1", CompanyID: "c1"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			event:   Event{Type: "deleted", TicketID: "t1", CompanyID: "c1"},
			wantErr: true,
		},
		{
			name:    "missing ticket id",
			event:   Event{Type: EventTypeNewTicket, CompanyID: "c1"},
			wantErr: true,
		},
		{
			name:    "missing company id",
			event:   Event{Type: EventTypeNewTicket, TicketID: "t1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidEvent)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEventDecodesInvocationBody(t *testing.T) {
	body := `{
		"type": "new_comment",
		"ticket_id": "t1",
		"ticket_title": "VPN down",
		"company_id": "c1",
		"comment_user": "u9",
		"is_private": true,
		"old_status": null
	}`

	var event Event
	require.NoError(t, json.Unmarshal([]byte(body), &event))
	assert.Equal(t, EventTypeNewComment, event.Type)
	assert.Equal(t, "u9", event.CommentUser)
	assert.True(t, event.IsPrivate)
	assert.Empty(t, event.OldStatus)
	assert.NoError(t, event.Validate())
}

func TestNewDispatchSummary(t *testing.T) {
	s := NewDispatchSummary("Notifications processed", []DeliveryResult{
		{UserID: "a", Email: "a@example.com", Success: true, Response: "msg-1"},
		{UserID: "b", Success: false, Error: "lookup failed", Stage: StageLookup},
		{UserID: "c", Email: "c@example.com", Success: true, Response: "msg-2"},
	})
	assert.Equal(t, 2, s.Sent)
	assert.Equal(t, 1, s.Failed)
	assert.Len(t, s.Results, 3)
}

func TestPartitionKey(t *testing.T) {
	assert.Equal(t, "ticket:t1", partitionKey(&Event{ID: "e1", TicketID: "t1"}))
	assert.Equal(t, "e1", partitionKey(&Event{ID: "e1"}))
}

type fakeHandler struct {
	events  []Event
	summary *DispatchSummary
	err     error
}

func (h *fakeHandler) Notify(ctx context.Context, event Event) (*DispatchSummary, error) {
	h.events = append(h.events, event)
	return h.summary, h.err
}

func TestConsumerProcessRecord(t *testing.T) {
	newConsumer := func(h EventHandler) *Consumer {
		return &Consumer{
			handler: h,
			logger:  hclog.NewNullLogger(),
			stopCh:  make(chan struct{}),
		}
	}

	t.Run("dispatches decoded event", func(t *testing.T) {
		h := &fakeHandler{summary: NewDispatchSummary("ok", nil)}
		c := newConsumer(h)

		value, err := json.Marshal(Event{
			ID:        "e1",
			Type:      EventTypeStatusChange,
			TicketID:  "t1",
			CompanyID: "c1",
			OldStatus: "open",
			NewStatus: "resolved",
		})
		require.NoError(t, err)

		c.processRecord(context.Background(), &kgo.Record{Topic: DefaultTopic, Value: value})

		require.Len(t, h.events, 1)
		assert.Equal(t, "resolved", h.events[0].NewStatus)
	})

	t.Run("undecodable record is not dispatched", func(t *testing.T) {
		h := &fakeHandler{}
		c := newConsumer(h)

		c.processRecord(context.Background(), &kgo.Record{Topic: DefaultTopic, Value: []byte("{not json")})

		assert.Empty(t, h.events)
	})

	t.Run("fatal dispatch error is absorbed", func(t *testing.T) {
		h := &fakeHandler{err: errors.Join(ErrTicketNotFound, errors.New("record not found"))}
		c := newConsumer(h)

		value, err := json.Marshal(Event{Type: EventTypeNewTicket, TicketID: "missing", CompanyID: "c1"})
		require.NoError(t, err)

		assert.NotPanics(t, func() {
			c.processRecord(context.Background(), &kgo.Record{Topic: DefaultTopic, Value: value})
		})
		assert.Len(t, h.events, 1)
	})
}
