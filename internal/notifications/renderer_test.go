package notifications

import (
	"strings"
	"testing"
	"time"

	"github.com/helpdeskhq/helpdesk/pkg/models"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, locale string) *Renderer {
	t.Helper()
	r, err := NewRenderer(RendererConfig{
		BaseURL: "https://helpdesk.example.com/",
		Locale:  locale,
	})
	require.NoError(t, err)
	return r
}

func testSnapshot() *notifications.TicketSnapshot {
	return &notifications.TicketSnapshot{
		ID:             "t1",
		CompanyID:      "c1",
		Title:          "Printer broken",
		Description:    "Paper jam on floor 2",
		Status:         models.TicketStatusInProgress,
		Priority:       models.TicketPriorityUrgent,
		CreatedAt:      time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
		CategoryName:   "Hardware",
		ClientName:     "Globex",
		CreatedBy:      "userC",
		CreatedByName:  "Carla Client",
		AssignedTo:     "userB",
		AssignedToName: "Bruno Tech",
	}
}

func TestLocalesAreComplete(t *testing.T) {
	names, err := Locales()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pt-BR", "en"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			_, err := loadCatalog(name)
			assert.NoError(t, err)
		})
	}
}

func TestNewRenderer_UnknownLocale(t *testing.T) {
	_, err := NewRenderer(RendererConfig{Locale: "fr"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown locale "fr"`)
}

func TestCatalogValidate(t *testing.T) {
	c, err := loadCatalog("en")
	require.NoError(t, err)

	delete(c.Subjects, notifications.EventTypeAssignment)
	delete(c.Statuses, models.TicketStatusPending)

	err = c.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing subject for assignment")
	assert.Contains(t, err.Error(), "missing label for status pending")
}

func TestRendererSubject(t *testing.T) {
	tests := []struct {
		locale    string
		eventType notifications.EventType
		keyword   string
	}{
		{"pt-BR", notifications.EventTypeNewTicket, "Novo Ticket"},
		{"pt-BR", notifications.EventTypeStatusChange, "Status Alterado"},
		{"pt-BR", notifications.EventTypeAssignment, "Ticket Atribuído"},
		{"pt-BR", notifications.EventTypeNewComment, "Atualização do Ticket"},
		{"en", notifications.EventTypeNewTicket, "New Ticket"},
		{"en", notifications.EventTypeStatusChange, "Status Changed"},
		{"en", notifications.EventTypeAssignment, "Ticket Assigned"},
		{"en", notifications.EventTypeNewComment, "Ticket Update"},
	}

	for _, tt := range tests {
		t.Run(tt.locale+"/"+string(tt.eventType), func(t *testing.T) {
			r := newTestRenderer(t, tt.locale)

			out, err := r.Render(RenderInput{
				Recipient: notifications.Recipient{UserID: "u1", Role: models.RoleTechnician},
				Event:     &notifications.Event{Type: tt.eventType, TicketID: "t1", TicketTitle: "Printer broken"},
				Ticket:    testSnapshot(),
				Company:   "Acme",
			})
			require.NoError(t, err)
			assert.Equal(t, "[Acme] "+tt.keyword+": Printer broken", out.Subject)
			assert.Contains(t, out.Subject, "Acme")
			assert.Contains(t, out.Subject, tt.keyword)
		})
	}
}

func TestRendererSubject_TitleFallsBackToTicket(t *testing.T) {
	r := newTestRenderer(t, "en")
	out, err := r.Render(RenderInput{
		Recipient: notifications.Recipient{UserID: "u1", Role: models.RoleTechnician},
		Event:     &notifications.Event{Type: notifications.EventTypeNewTicket, TicketID: "t1"},
		Ticket:    testSnapshot(),
		Company:   "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "[Acme] New Ticket: Printer broken", out.Subject)
}

func TestRenderer_StaffTemplate(t *testing.T) {
	r := newTestRenderer(t, "pt-BR")

	out, err := r.Render(RenderInput{
		Recipient: notifications.Recipient{UserID: "userA", Role: models.RoleTechnician},
		Event: &notifications.Event{
			Type:          notifications.EventTypeAssignment,
			TicketID:      "t1",
			TicketTitle:   "Printer broken",
			OldAssignedTo: "userA",
			NewAssignedTo: "userB",
		},
		Ticket:  testSnapshot(),
		Company: "Acme",
		Names:   map[string]string{"userB": "Bruno Tech"},
	})
	require.NoError(t, err)

	html := out.HTML
	assert.Contains(t, html, `<html lang="pt-BR">`)
	assert.Contains(t, html, "ID do Ticket")
	assert.Contains(t, html, "Hardware")
	assert.Contains(t, html, "Globex")
	assert.Contains(t, html, "Urgente")
	assert.Contains(t, html, "#dc2626")
	assert.Contains(t, html, "Em Andamento")
	assert.Contains(t, html, "#d97706")
	assert.Contains(t, html, "Carla Client")
	assert.Contains(t, html, "05/03/2024 às 14:30")
	assert.Contains(t, html, "Alterações")
	assert.Contains(t, html, "Responsável Anterior: userA")
	assert.Contains(t, html, "Novo Responsável: Bruno Tech")
	assert.Contains(t, html, `href="https://helpdesk.example.com/tickets/t1"`)
	assert.Contains(t, html, "Ver Ticket")
	assert.NotContains(t, html, "{company}")
}

func TestRenderer_ClientTemplate(t *testing.T) {
	r := newTestRenderer(t, "pt-BR")

	out, err := r.Render(RenderInput{
		Recipient: notifications.Recipient{UserID: "userC", Role: models.RoleClientUser},
		Event: &notifications.Event{
			Type:        notifications.EventTypeStatusChange,
			TicketID:    "t1",
			TicketTitle: "Printer broken",
			OldStatus:   "in_progress",
			NewStatus:   "resolved",
		},
		Ticket:  testSnapshot(),
		Company: "Acme",
	})
	require.NoError(t, err)

	html := out.HTML
	assert.Contains(t, html, "agora é Resolvido")
	assert.Contains(t, html, `href="https://helpdesk.example.com/tickets/t1"`)
	assert.Contains(t, html, "enviado por Acme")

	// No internal metadata.
	assert.NotContains(t, html, "ID do Ticket")
	assert.NotContains(t, html, "Prioridade")
	assert.NotContains(t, html, "Alterações")
	assert.NotContains(t, html, "Hardware")
	assert.NotContains(t, html, "Bruno Tech")
}

func TestRenderer_Changes(t *testing.T) {
	r := newTestRenderer(t, "en")
	snap := testSnapshot()

	render := func(ev notifications.Event, names map[string]string) string {
		t.Helper()
		ev.TicketID = "t1"
		out, err := r.Render(RenderInput{
			Recipient: notifications.Recipient{UserID: "u1", Role: models.RoleCompanyAdmin},
			Event:     &ev,
			Ticket:    snap,
			Company:   "Acme",
			Names:     names,
		})
		require.NoError(t, err)
		return out.HTML
	}

	t.Run("status change", func(t *testing.T) {
		html := render(notifications.Event{
			Type:      notifications.EventTypeStatusChange,
			OldStatus: "open",
			NewStatus: "resolved",
		}, nil)
		assert.Contains(t, html, "Previous Status: <span")
		assert.Contains(t, html, ">Open</span>")
		assert.Contains(t, html, ">Resolved</span>")
		assert.Contains(t, html, "#16a34a")
	})

	t.Run("first assignment", func(t *testing.T) {
		html := render(notifications.Event{
			Type:          notifications.EventTypeAssignment,
			NewAssignedTo: "userB",
		}, nil)
		assert.Contains(t, html, "Previous Assignee: Unassigned")
		assert.Contains(t, html, "New Assignee: userB")
	})

	t.Run("private comment", func(t *testing.T) {
		html := render(notifications.Event{
			Type:        notifications.EventTypeNewComment,
			CommentUser: "userB",
			IsPrivate:   true,
		}, map[string]string{"userB": "Bruno Tech"})
		assert.Contains(t, html, "Comment by: Bruno Tech")
		assert.Contains(t, html, "Internal comment (visible to staff only)")
	})

	t.Run("new ticket shows description", func(t *testing.T) {
		html := render(notifications.Event{Type: notifications.EventTypeNewTicket}, nil)
		assert.Contains(t, html, "Description: Paper jam on floor 2")
	})
}

func TestRenderer_EscapesContent(t *testing.T) {
	r := newTestRenderer(t, "en")
	snap := testSnapshot()
	snap.CategoryName = "<script>alert(1)</script>"

	out, err := r.Render(RenderInput{
		Recipient: notifications.Recipient{UserID: "u1", Role: models.RoleTechnician},
		Event:     &notifications.Event{Type: notifications.EventTypeNewTicket, TicketID: "t1", TicketTitle: "<b>hi</b>"},
		Ticket:    snap,
		Company:   "Acme",
	})
	require.NoError(t, err)
	assert.NotContains(t, out.HTML, "<script>")
	assert.Contains(t, out.HTML, "&lt;script&gt;")
	assert.Contains(t, out.HTML, "&lt;b&gt;hi&lt;/b&gt;")
}

func TestBadges(t *testing.T) {
	c, err := loadCatalog("en")
	require.NoError(t, err)

	t.Run("every enum value is mapped", func(t *testing.T) {
		for _, p := range models.TicketPriorities {
			assert.Contains(t, priorityColors, p)
			assert.NotEqual(t, strings.ToUpper(string(p)), c.priorityBadge(p).Label)
		}
		for _, s := range models.TicketStatuses {
			assert.Contains(t, statusColors, s)
		}
	})

	t.Run("known values", func(t *testing.T) {
		assert.Equal(t, Badge{Label: "Urgent", Color: "#dc2626"}, c.priorityBadge(models.TicketPriorityUrgent))
		assert.Equal(t, Badge{Label: "High", Color: "#ea580c"}, c.priorityBadge(models.TicketPriorityHigh))
		assert.Equal(t, Badge{Label: "Resolved", Color: "#16a34a"}, c.statusBadge(models.TicketStatusResolved))
		assert.Equal(t, Badge{Label: "Closed", Color: colorGray}, c.statusBadge(models.TicketStatusClosed))
	})

	t.Run("unmapped values fall back to gray", func(t *testing.T) {
		assert.Equal(t, Badge{Label: "WAITING ON CUSTOMER", Color: colorGray},
			c.statusBadge(models.TicketStatus("waiting_on_customer")))
		assert.Equal(t, Badge{Label: "CRITICAL", Color: colorGray},
			c.priorityBadge(models.TicketPriority("critical")))
		assert.Equal(t, Badge{Label: "-", Color: colorGray}, c.statusBadge(""))
	})
}

func TestRenderer_TimeZone(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	r, err := NewRenderer(RendererConfig{Locale: "pt-BR", Location: loc})
	require.NoError(t, err)

	out, err := r.Render(RenderInput{
		Recipient: notifications.Recipient{UserID: "u1", Role: models.RoleTechnician},
		Event:     &notifications.Event{Type: notifications.EventTypeNewTicket, TicketID: "t1"},
		Ticket:    testSnapshot(),
		Company:   "Acme",
	})
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "05/03/2024 às 11:30")
}

func TestRender_BracesInUserText(t *testing.T) {
	r := newTestRenderer(t, "pt-BR")
	snap := testSnapshot()
	snap.CategoryName = "{{ billing }}"
	snap.Description = "Shows {{.Total}} instead of the amount"

	for _, role := range []models.Role{models.RoleTechnician, models.RoleClientUser} {
		out, err := r.Render(RenderInput{
			Recipient: notifications.Recipient{UserID: "u1", Role: role},
			Event: &notifications.Event{
				Type:        notifications.EventTypeNewTicket,
				TicketID:    "t1",
				TicketTitle: "Template {{.Name}} not rendering on invoice",
			},
			Ticket:  snap,
			Company: "Acme {x}",
		})
		require.NoError(t, err, role)
		assert.Equal(t, "[Acme {x}] Novo Ticket: Template {{.Name}} not rendering on invoice", out.Subject)
		assert.Contains(t, out.HTML, "Template {{.Name}} not rendering on invoice")
	}
}

func TestCheckPlaceholders(t *testing.T) {
	assert.NoError(t, checkPlaceholders("Your ticket \"{title}\" is now {status}."))
	assert.NoError(t, checkPlaceholders("Sent by {company}."))
	assert.Error(t, checkPlaceholders("Your ticket {ticket} changed."))
	assert.Error(t, checkPlaceholders("Hello {{.Title}}"))
}
