package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is a helpdesk tenant.
type Company struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	PlanID    *string   `gorm:"type:uuid" json:"planId,omitempty"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for GORM.
func (Company) TableName() string {
	return "companies"
}

// BeforeCreate generates the company ID if not set.
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Get gets a company by ID.
func (c *Company) Get(db *gorm.DB) error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	if err := db.First(c, "id = ?", c.ID).Error; err != nil {
		return fmt.Errorf("error getting company: %w", err)
	}
	return nil
}
