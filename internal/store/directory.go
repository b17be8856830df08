package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/helpdeskhq/helpdesk/pkg/models"
	"gorm.io/gorm"
)

// ErrNoEmail is returned when a user exists but has no email address.
var ErrNoEmail = errors.New("user has no email address")

// Directory resolves user IDs to email addresses. Lookups need admin-level
// access to the identity service, not the acting user's session.
type Directory interface {
	Email(ctx context.Context, userID string) (string, error)
}

// GormDirectory reads email addresses from the identity service's users table.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory returns a directory reading from db.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) Email(ctx context.Context, userID string) (string, error) {
	u := models.AuthUser{ID: userID}
	if err := u.Get(d.db.WithContext(ctx)); err != nil {
		return "", notFound(err)
	}
	if strings.TrimSpace(u.Email) == "" {
		return "", fmt.Errorf("%w: %s", ErrNoEmail, userID)
	}
	return u.Email, nil
}

// AdminAPIDirectory resolves email addresses through the identity service's
// admin HTTP API.
type AdminAPIDirectory struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

// AdminAPIDirectoryConfig configures an AdminAPIDirectory.
type AdminAPIDirectoryConfig struct {
	// URL is the identity service base URL, e.g. https://auth.example.com.
	URL string

	// ServiceKey is sent as both the bearer token and the apikey header.
	ServiceKey string

	// Timeout for HTTP requests (optional, defaults to 10s)
	Timeout time.Duration
}

// NewAdminAPIDirectory creates a new admin API directory.
func NewAdminAPIDirectory(cfg AdminAPIDirectoryConfig) *AdminAPIDirectory {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &AdminAPIDirectory{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

type adminUserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (d *AdminAPIDirectory) Email(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/admin/users/%s", d.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("error creating user lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.serviceKey)
	req.Header.Set("apikey", d.serviceKey)
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error looking up user %s: %w", userID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("error reading user lookup response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: user %s", ErrNotFound, userID)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("user lookup failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var u adminUserResponse
	if err := json.Unmarshal(body, &u); err != nil {
		return "", fmt.Errorf("error decoding user lookup response: %w", err)
	}
	if strings.TrimSpace(u.Email) == "" {
		return "", fmt.Errorf("%w: %s", ErrNoEmail, userID)
	}
	return u.Email, nil
}
