package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/helpdeskhq/helpdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormDirectory(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.AuthUser{ID: "u1", Email: "u1@example.com"}).Error)
	require.NoError(t, db.Create(&models.AuthUser{ID: "u2", Email: " "}).Error)

	d := NewGormDirectory(db)

	email, err := d.Email(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", email)

	_, err = d.Email(context.Background(), "u2")
	assert.ErrorIs(t, err, ErrNoEmail)

	_, err = d.Email(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminAPIDirectory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))

		switch r.URL.Path {
		case "/auth/v1/admin/users/u1":
			_, _ = w.Write([]byte(`{"id":"u1","email":"u1@example.com"}`))
		case "/auth/v1/admin/users/blank":
			_, _ = w.Write([]byte(`{"id":"blank","email":""}`))
		case "/auth/v1/admin/users/boom":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upstream down"))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"msg":"User not found"}`))
		}
	}))
	defer srv.Close()

	d := NewAdminAPIDirectory(AdminAPIDirectoryConfig{
		URL:        srv.URL + "/auth/v1/",
		ServiceKey: "service-key",
	})

	tests := []struct {
		name    string
		userID  string
		want    string
		wantErr error
		errText string
	}{
		{name: "found", userID: "u1", want: "u1@example.com"},
		{name: "no email", userID: "blank", wantErr: ErrNoEmail},
		{name: "not found", userID: "ghost", wantErr: ErrNotFound},
		{name: "server error", userID: "boom", errText: "status 500: upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := d.Email(context.Background(), tt.userID)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, email)
			}
		})
	}
}
