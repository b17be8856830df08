package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketStatus is the workflow status of a ticket.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists every known ticket status.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusPending,
	TicketStatusResolved,
	TicketStatusClosed,
}

// TicketPriority is the urgency of a ticket.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketPriorities lists every known ticket priority.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

// Category groups tickets of a company.
type Category struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CompanyID string    `gorm:"type:uuid;not null;index" json:"companyId"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the table name for GORM.
func (Category) TableName() string {
	return "categories"
}

// Client is an external customer of a company.
type Client struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CompanyID string    `gorm:"type:uuid;not null;index" json:"companyId"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the table name for GORM.
func (Client) TableName() string {
	return "clients"
}

// Ticket is a support ticket.
type Ticket struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	CompanyID   string         `gorm:"type:uuid;not null;index" json:"companyId"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      TicketStatus   `gorm:"type:varchar(32);not null;default:'open'" json:"status"`
	Priority    TicketPriority `gorm:"type:varchar(32);not null;default:'medium'" json:"priority"`
	CategoryID  *string        `gorm:"type:uuid" json:"categoryId,omitempty"`
	ClientID    *string        `gorm:"type:uuid" json:"clientId,omitempty"`
	CreatedBy   string         `gorm:"type:uuid;not null;index" json:"createdBy"`
	AssignedTo  *string        `gorm:"type:uuid;index" json:"assignedTo,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Client   *Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

// TableName returns the table name for GORM.
func (Ticket) TableName() string {
	return "tickets"
}

// BeforeCreate generates the ticket ID if not set.
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Get gets a ticket by ID, preloading its category and client.
func (t *Ticket) Get(db *gorm.DB) error {
	if t.ID == "" {
		return errors.New("id is required")
	}
	if err := db.
		Preload("Category").
		Preload("Client").
		First(t, "id = ?", t.ID).Error; err != nil {
		return fmt.Errorf("error getting ticket: %w", err)
	}
	return nil
}

// TicketComment is a comment on a ticket. Private comments are only visible to
// staff.
type TicketComment struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	TicketID  string    `gorm:"type:uuid;not null;index" json:"ticketId"`
	UserID    string    `gorm:"type:uuid;not null" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsPrivate bool      `gorm:"not null;default:false" json:"isPrivate"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the table name for GORM.
func (TicketComment) TableName() string {
	return "ticket_comments"
}

// BeforeCreate generates the comment ID if not set.
func (c *TicketComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
