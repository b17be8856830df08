package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationPreference holds a user's email notification settings. There is
// at most one row per user.
type NotificationPreference struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`

	// Staff settings.
	EmailOnNewTicket    bool `gorm:"not null" json:"emailOnNewTicket"`
	EmailOnStatusChange bool `gorm:"not null" json:"emailOnStatusChange"`
	EmailOnAssignment   bool `gorm:"not null" json:"emailOnAssignment"`

	// Settings for tickets the user opened.
	EmailOnMyTicketStatusChange bool `gorm:"not null" json:"emailOnMyTicketStatusChange"`
	EmailOnMyTicketComments     bool `gorm:"not null" json:"emailOnMyTicketComments"`
	EmailOnMyTicketResolved     bool `gorm:"not null" json:"emailOnMyTicketResolved"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for GORM.
func (NotificationPreference) TableName() string {
	return "notification_preferences"
}

// DefaultNotificationPreference returns the settings of a user who never saved
// the settings page: every email is enabled.
func DefaultNotificationPreference(userID string) NotificationPreference {
	return NotificationPreference{
		UserID:                      userID,
		EmailOnNewTicket:            true,
		EmailOnStatusChange:         true,
		EmailOnAssignment:           true,
		EmailOnMyTicketStatusChange: true,
		EmailOnMyTicketComments:     true,
		EmailOnMyTicketResolved:     true,
	}
}

// BeforeCreate generates the row ID if not set.
func (np *NotificationPreference) BeforeCreate(tx *gorm.DB) error {
	if np.ID == "" {
		np.ID = uuid.NewString()
	}
	return nil
}

// Get gets the preference row of np.UserID.
func (np *NotificationPreference) Get(db *gorm.DB) error {
	if np.UserID == "" {
		return errors.New("user id is required")
	}
	// A fresh value keeps a stale primary key out of the query conditions.
	var found NotificationPreference
	if err := db.First(&found, "user_id = ?", np.UserID).Error; err != nil {
		return fmt.Errorf("error getting notification preference: %w", err)
	}
	*np = found
	return nil
}

// Upsert creates the preference row of np.UserID or updates every flag of the
// existing one.
func (np *NotificationPreference) Upsert(db *gorm.DB) error {
	if np.UserID == "" {
		return errors.New("user id is required")
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email_on_new_ticket",
			"email_on_status_change",
			"email_on_assignment",
			"email_on_my_ticket_status_change",
			"email_on_my_ticket_comments",
			"email_on_my_ticket_resolved",
			"updated_at",
		}),
	}).Create(np).Error; err != nil {
		return fmt.Errorf("error upserting notification preference: %w", err)
	}
	return np.Get(db)
}

// NotificationPreferences is a slice of notification preferences.
type NotificationPreferences []NotificationPreference

// FindByUserIDs finds the preference rows of the given users.
func (nps *NotificationPreferences) FindByUserIDs(db *gorm.DB, userIDs []string) error {
	if len(userIDs) == 0 {
		*nps = NotificationPreferences{}
		return nil
	}
	if err := db.Where("user_id IN ?", userIDs).Find(nps).Error; err != nil {
		return fmt.Errorf("error finding notification preferences: %w", err)
	}
	return nil
}
