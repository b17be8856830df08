package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/helpdeskhq/helpdesk/internal/store"
	"github.com/helpdeskhq/helpdesk/pkg/models"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
)

// fakeStore is an in-memory store.Store.
type fakeStore struct {
	tickets     map[string]*notifications.TicketSnapshot
	staff       map[string][]string
	profiles    map[string]models.Profile
	prefs       map[string]models.NotificationPreference
	companies   map[string]string
	comments    map[string]*models.TicketComment
	ticketErr   error
	staffErr    error
	profilesErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tickets:   make(map[string]*notifications.TicketSnapshot),
		staff:     make(map[string][]string),
		profiles:  make(map[string]models.Profile),
		prefs:     make(map[string]models.NotificationPreference),
		companies: make(map[string]string),
		comments:  make(map[string]*models.TicketComment),
	}
}

func (s *fakeStore) addProfile(id string, role models.Role) {
	s.profiles[id] = models.Profile{ID: id, Role: role, Active: true}
}

func (s *fakeStore) setPref(id string, fn func(p *models.NotificationPreference)) {
	p := models.DefaultNotificationPreference(id)
	fn(&p)
	s.prefs[id] = p
}

func (s *fakeStore) TicketSnapshot(ctx context.Context, ticketID string) (*notifications.TicketSnapshot, error) {
	if s.ticketErr != nil {
		return nil, s.ticketErr
	}
	t, ok := s.tickets[ticketID]
	if !ok {
		return nil, fmt.Errorf("%w: ticket %s", store.ErrNotFound, ticketID)
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) ActiveStaff(ctx context.Context, companyID string) ([]string, error) {
	if s.staffErr != nil {
		return nil, s.staffErr
	}
	return s.staff[companyID], nil
}

func (s *fakeStore) Profiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error) {
	if s.profilesErr != nil {
		return nil, s.profilesErr
	}
	out := make(map[string]models.Profile)
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *fakeStore) Preferences(ctx context.Context, userIDs []string) (map[string]models.NotificationPreference, error) {
	out := make(map[string]models.NotificationPreference)
	for _, id := range userIDs {
		if p, ok := s.prefs[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *fakeStore) CompanyName(ctx context.Context, companyID string) (string, error) {
	name, ok := s.companies[companyID]
	if !ok {
		return "", store.ErrNotFound
	}
	return name, nil
}

func (s *fakeStore) Comment(ctx context.Context, commentID string) (*models.TicketComment, error) {
	c, ok := s.comments[commentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

// fakeDirectory resolves userID to userID@example.com unless told to fail.
type fakeDirectory struct {
	mu      sync.Mutex
	fail    map[string]bool
	lookups []string
}

func (d *fakeDirectory) Email(ctx context.Context, userID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups = append(d.lookups, userID)
	if d.fail[userID] {
		return "", errors.New("identity service unavailable")
	}
	return userID + "@example.com", nil
}
