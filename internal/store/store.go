// Package store is the data-access layer of the notification flow. It reads
// tickets, profiles and preference rows and assembles them into the typed
// values the notifier works on.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/helpdeskhq/helpdesk/pkg/models"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store reads the rows a dispatch needs.
type Store interface {
	// TicketSnapshot loads a ticket with its category, client, creator and
	// assignee names resolved.
	TicketSnapshot(ctx context.Context, ticketID string) (*notifications.TicketSnapshot, error)

	// ActiveStaff returns the IDs of the active company_admin and technician
	// profiles of a company.
	ActiveStaff(ctx context.Context, companyID string) ([]string, error)

	// Profiles returns the profiles of the given users keyed by user ID. Users
	// without a profile are absent from the map.
	Profiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error)

	// Preferences returns the preference rows of the given users keyed by user
	// ID. Users without a row are absent from the map.
	Preferences(ctx context.Context, userIDs []string) (map[string]models.NotificationPreference, error)

	// CompanyName returns the display name of a company.
	CompanyName(ctx context.Context, companyID string) (string, error)

	// Comment loads a ticket comment.
	Comment(ctx context.Context, commentID string) (*models.TicketComment, error)
}

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore returns a store reading from db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB returns the underlying database handle.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) TicketSnapshot(ctx context.Context, ticketID string) (*notifications.TicketSnapshot, error) {
	db := s.db.WithContext(ctx)

	t := models.Ticket{ID: ticketID}
	if err := t.Get(db); err != nil {
		return nil, notFound(err)
	}

	snap := &notifications.TicketSnapshot{
		ID:          t.ID,
		CompanyID:   t.CompanyID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		CreatedBy:   t.CreatedBy,
	}
	if t.Category != nil {
		snap.CategoryName = t.Category.Name
	}
	if t.Client != nil {
		snap.ClientName = t.Client.Name
	}
	if t.AssignedTo != nil {
		snap.AssignedTo = *t.AssignedTo
	}

	ids := []string{t.CreatedBy}
	if snap.AssignedTo != "" {
		ids = append(ids, snap.AssignedTo)
	}
	profiles, err := s.Profiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	if p, ok := profiles[snap.CreatedBy]; ok {
		snap.CreatedByName = p.FullName
	}
	if p, ok := profiles[snap.AssignedTo]; ok {
		snap.AssignedToName = p.FullName
	}

	return snap, nil
}

func (s *GormStore) ActiveStaff(ctx context.Context, companyID string) ([]string, error) {
	var ps models.Profiles
	if err := ps.FindActiveStaff(s.db.WithContext(ctx), companyID); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (s *GormStore) Profiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error) {
	var ps models.Profiles
	if err := ps.FindByIDs(s.db.WithContext(ctx), userIDs); err != nil {
		return nil, err
	}

	out := make(map[string]models.Profile, len(ps))
	for _, p := range ps {
		out[p.ID] = p
	}
	return out, nil
}

func (s *GormStore) Preferences(ctx context.Context, userIDs []string) (map[string]models.NotificationPreference, error) {
	var nps models.NotificationPreferences
	if err := nps.FindByUserIDs(s.db.WithContext(ctx), userIDs); err != nil {
		return nil, err
	}

	out := make(map[string]models.NotificationPreference, len(nps))
	for _, np := range nps {
		out[np.UserID] = np
	}
	return out, nil
}

func (s *GormStore) CompanyName(ctx context.Context, companyID string) (string, error) {
	c := models.Company{ID: companyID}
	if err := c.Get(s.db.WithContext(ctx)); err != nil {
		return "", notFound(err)
	}
	return c.Name, nil
}

func (s *GormStore) Comment(ctx context.Context, commentID string) (*models.TicketComment, error) {
	var c models.TicketComment
	if err := s.db.WithContext(ctx).First(&c, "id = ?", commentID).Error; err != nil {
		return nil, notFound(fmt.Errorf("error getting ticket comment: %w", err))
	}
	return &c, nil
}

// GetPreference returns the saved preferences of a user, or the all-enabled
// defaults when the user never saved any.
func (s *GormStore) GetPreference(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	np := models.NotificationPreference{UserID: userID}
	err := np.Get(s.db.WithContext(ctx))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		np = models.DefaultNotificationPreference(userID)
		return &np, nil
	}
	if err != nil {
		return nil, err
	}
	return &np, nil
}

// UpsertPreference saves every flag of np for np.UserID.
func (s *GormStore) UpsertPreference(ctx context.Context, np *models.NotificationPreference) error {
	return np.Upsert(s.db.WithContext(ctx))
}

// ProfilesWithoutPreferences returns up to limit profile IDs greater than
// afterID, in ID order, whose users never saved notification preferences.
func (s *GormStore) ProfilesWithoutPreferences(ctx context.Context, afterID string, limit int) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id > ?", afterID).
		Where("id NOT IN (?)",
			s.db.Model(&models.NotificationPreference{}).Select("user_id")).
		Order("id").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("error finding profiles without preferences: %w", err)
	}
	return ids, nil
}

// notFound maps gorm's missing-row error onto ErrNotFound, keeping the
// original message.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
