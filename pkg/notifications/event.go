package notifications

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrTicketNotFound is returned when the ticket an event refers to cannot be
	// loaded. It aborts the whole dispatch.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrInvalidEvent is returned for event descriptors that fail validation.
	ErrInvalidEvent = errors.New("invalid event")
)

// EventType defines the kind of ticket change that triggered a notification.
type EventType string

const (
	EventTypeNewTicket    EventType = "new_ticket"
	EventTypeStatusChange EventType = "status_change"
	EventTypeAssignment   EventType = "assignment"
	EventTypeNewComment   EventType = "new_comment"
)

// EventTypes lists every event type.
var EventTypes = []EventType{
	EventTypeNewTicket,
	EventTypeStatusChange,
	EventTypeAssignment,
	EventTypeNewComment,
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, et := range EventTypes {
		if t == et {
			return true
		}
	}
	return false
}

// Event is the descriptor of a ticket change. It is built by the caller when
// the change happens and consumed by exactly one dispatch.
type Event struct {
	// Set by the publisher when the event goes through the queue.
	ID         string    `json:"id,omitempty"`
	OccurredAt time.Time `json:"occurred_at,omitempty"`

	Type              EventType `json:"type"`
	TicketID          string    `json:"ticket_id"`
	TicketTitle       string    `json:"ticket_title"`
	TicketDescription string    `json:"ticket_description,omitempty"`
	CompanyID         string    `json:"company_id"`

	// status_change
	OldStatus string `json:"old_status,omitempty"`
	NewStatus string `json:"new_status,omitempty"`

	// assignment
	OldAssignedTo string `json:"old_assigned_to,omitempty"`
	NewAssignedTo string `json:"new_assigned_to,omitempty"`

	// Actor and ownership hints sent by the caller. The ticket row is
	// authoritative for creator and assignee.
	CreatedBy  string `json:"created_by,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`
	UpdatedBy  string `json:"updated_by,omitempty"`

	// new_comment
	CommentUser string `json:"comment_user,omitempty"`
	CommentID   string `json:"comment_id,omitempty"`
	IsPrivate   bool   `json:"is_private,omitempty"`
}

// Validate checks the fields every event type needs.
func (e Event) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.Type,
			validation.Required,
			validation.By(func(value interface{}) error {
				if t, _ := value.(EventType); !t.Valid() {
					return errors.New("must be one of new_ticket, status_change, assignment, new_comment")
				}
				return nil
			}),
		),
		validation.Field(&e.TicketID, validation.Required),
		validation.Field(&e.CompanyID, validation.Required),
	)
	if err != nil {
		return errors.Join(ErrInvalidEvent, err)
	}
	return nil
}
