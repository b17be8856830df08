package store

import (
	"context"
	"testing"

	"github.com/helpdeskhq/helpdesk/internal/migrate"
	"github.com/helpdeskhq/helpdesk/internal/testutil"
	"github.com/helpdeskhq/helpdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPostgresDB returns a gorm handle on a migrated PostgreSQL container.
func setupPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := testutil.StartPostgres(t)
	require.NoError(t, migrate.RunMigrations(testutil.OpenPostgres(t, dsn), "postgres"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	// Profiles reference the identity service's users.
	for _, id := range []string{"admin-1", "tech-1", "client-1", "tech-2"} {
		require.NoError(t, db.Create(&models.AuthUser{ID: id, Email: id + "@example.com"}).Error)
	}
	return db
}

func TestGormStore_Postgres(t *testing.T) {
	db := setupPostgresDB(t)
	f := seed(t, db)
	s := NewGormStore(db)
	ctx := context.Background()

	t.Run("TicketSnapshot", func(t *testing.T) {
		snap, err := s.TicketSnapshot(ctx, f.ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hardware", snap.CategoryName)
		assert.Equal(t, "Globex", snap.ClientName)
		assert.Equal(t, "Tito Tech", snap.AssignedToName)
		assert.Equal(t, models.TicketPriorityHigh, snap.Priority)

		_, err = s.TicketSnapshot(ctx, "does-not-exist")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ActiveStaff", func(t *testing.T) {
		ids, err := s.ActiveStaff(ctx, f.company.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"admin-1", "tech-1"}, ids)
	})

	t.Run("Directory", func(t *testing.T) {
		email, err := NewGormDirectory(db).Email(ctx, "tech-1")
		require.NoError(t, err)
		assert.Equal(t, "tech-1@example.com", email)
	})

	t.Run("PreferenceUpsert", func(t *testing.T) {
		np := models.DefaultNotificationPreference("client-1")
		np.EmailOnMyTicketComments = false
		require.NoError(t, s.UpsertPreference(ctx, &np))
		firstID := np.ID

		update := models.NotificationPreference{UserID: "client-1", EmailOnMyTicketComments: true}
		require.NoError(t, s.UpsertPreference(ctx, &update))

		got, err := s.GetPreference(ctx, "client-1")
		require.NoError(t, err)
		assert.Equal(t, firstID, got.ID)
		assert.True(t, got.EmailOnMyTicketComments)
		assert.False(t, got.EmailOnNewTicket)

		prefs, err := s.Preferences(ctx, []string{"client-1", "admin-1"})
		require.NoError(t, err)
		assert.Len(t, prefs, 1)
	})

	t.Run("ProfilesWithoutPreferences", func(t *testing.T) {
		page, err := s.ProfilesWithoutPreferences(ctx, "", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"admin-1", "tech-1"}, page)

		page, err = s.ProfilesWithoutPreferences(ctx, page[len(page)-1], 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"tech-2"}, page)

		page, err = s.ProfilesWithoutPreferences(ctx, "tech-2", 2)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}
