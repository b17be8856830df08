package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// AuthUser is the identity service's user record. Only the columns needed to
// resolve an email address are mapped.
type AuthUser struct {
	ID    string `gorm:"primaryKey;type:uuid" json:"id"`
	Email string `gorm:"not null" json:"email"`
}

// TableName returns the table name for GORM.
func (AuthUser) TableName() string {
	return "auth_users"
}

// Get gets an auth user by ID.
func (u *AuthUser) Get(db *gorm.DB) error {
	if u.ID == "" {
		return errors.New("id is required")
	}
	if err := db.First(u, "id = ?", u.ID).Error; err != nil {
		return fmt.Errorf("error getting auth user: %w", err)
	}
	return nil
}
