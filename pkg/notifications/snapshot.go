package notifications

import (
	"time"

	"github.com/helpdeskhq/helpdesk/pkg/models"
)

// TicketSnapshot is the denormalized read of a ticket used by one dispatch.
// Optional relations are empty strings when absent.
type TicketSnapshot struct {
	ID          string
	CompanyID   string
	Title       string
	Description string
	Status      models.TicketStatus
	Priority    models.TicketPriority
	CreatedAt   time.Time

	CategoryName string
	ClientName   string

	CreatedBy     string
	CreatedByName string

	AssignedTo     string
	AssignedToName string
}

// HasAssignee reports whether the ticket is currently assigned.
func (s TicketSnapshot) HasAssignee() bool {
	return s.AssignedTo != ""
}

// IsCreator reports whether userID opened the ticket.
func (s TicketSnapshot) IsCreator(userID string) bool {
	return userID != "" && s.CreatedBy == userID
}
