package notifications

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/store"
	"github.com/helpdeskhq/helpdesk/pkg/notifications/backends"
)

func testConfig() *config.Config {
	return &config.Config{
		Notifications: &config.Notifications{
			BaseURL:     "https://helpdesk.example.com",
			FromAddress: "noreply@example.com",
			FromName:    "Helpdesk",
			Locale:      "en",
			TimeZone:    "America/Sao_Paulo",
		},
		Backends: &backends.Config{
			Audit: &backends.AuditConfig{Enabled: true},
		},
	}
}

func TestNewFromConfig(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	t.Run("DatabaseDirectory", func(t *testing.T) {
		n, err := NewFromConfig(testConfig(), db, hclog.NewNullLogger())
		require.NoError(t, err)

		assert.Equal(t, "audit", n.sender.Name())
		assert.IsType(t, &store.GormDirectory{}, n.directory)
		assert.Equal(t, "Helpdesk <noreply@example.com>", n.from)
		require.IsType(t, &Renderer{}, n.renderer)
		assert.Equal(t, "America/Sao_Paulo", n.renderer.(*Renderer).location.String())
	})

	t.Run("IdentityDirectory", func(t *testing.T) {
		cfg := testConfig()
		cfg.Identity = &config.Identity{
			AdminURL:   "https://auth.example.com",
			ServiceKey: "service-key",
		}

		n, err := NewFromConfig(cfg, db, hclog.NewNullLogger())
		require.NoError(t, err)
		assert.IsType(t, &store.AdminAPIDirectory{}, n.directory)
	})

	t.Run("NoBackend", func(t *testing.T) {
		cfg := testConfig()
		cfg.Backends = &backends.Config{}

		_, err := NewFromConfig(cfg, db, hclog.NewNullLogger())
		assert.ErrorContains(t, err, "no email backend configured")
	})

	t.Run("UnknownLocale", func(t *testing.T) {
		cfg := testConfig()
		cfg.Notifications.Locale = "fr"

		_, err := NewFromConfig(cfg, db, hclog.NewNullLogger())
		assert.Error(t, err)
	})
}
