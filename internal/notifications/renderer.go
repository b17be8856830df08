package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/helpdeskhq/helpdesk/pkg/models"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
)

//go:embed templates/*.html.tmpl
var templatesFS embed.FS

// Template names.
const (
	templateStaff  = "staff.html.tmpl"
	templateClient = "client.html.tmpl"
)

// RendererConfig configures a Renderer.
type RendererConfig struct {
	// BaseURL is the web app URL ticket links point to.
	BaseURL string

	// Locale selects the copy catalog (default pt-BR).
	Locale string

	// Location is the time zone dates are shown in (default UTC).
	Location *time.Location
}

// Renderer builds the subject and HTML body of one recipient's email.
type Renderer struct {
	baseURL   string
	lang      string
	location  *time.Location
	catalog   *catalog
	templates *template.Template
}

// NewRenderer parses the embedded templates and loads the locale catalog.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	if cfg.Locale == "" {
		cfg.Locale = DefaultLocale
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	c, err := loadCatalog(cfg.Locale)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	tmpl = tmpl.Option("missingkey=error")

	return &Renderer{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		lang:      cfg.Locale,
		location:  cfg.Location,
		catalog:   c,
		templates: tmpl,
	}, nil
}

// RenderInput is everything needed to render one email.
type RenderInput struct {
	Recipient notifications.Recipient
	Event     *notifications.Event
	Ticket    *notifications.TicketSnapshot
	Company   string

	// Names maps user IDs to display names. Unknown IDs are shown raw.
	Names map[string]string
}

// Rendered is a rendered email.
type Rendered struct {
	Subject string
	HTML    string
}

// emailData is the template context shared by both templates.
type emailData struct {
	Lang    string
	Company string
	Subject string
	Heading string
	Summary string
	Footer  string
	Link    string
	L       Labels

	TicketID   string
	Title      string
	Category   string
	Client     string
	Priority   Badge
	Status     Badge
	CreatedBy  string
	AssignedTo string
	CreatedAt  string
	Changes    []change
}

// Subject returns `[{company}] {keyword}: {title}` for the event type.
func (r *Renderer) Subject(eventType notifications.EventType, company, title string) string {
	keyword, ok := r.catalog.Subjects[eventType]
	if !ok {
		keyword = r.catalog.Subjects[notifications.EventTypeNewComment]
	}
	return fmt.Sprintf("[%s] %s: %s", company, keyword, title)
}

// TicketLink returns the deep link of a ticket.
func (r *Renderer) TicketLink(ticketID string) string {
	return fmt.Sprintf("%s/tickets/%s", r.baseURL, ticketID)
}

// Render selects the client template for client_user recipients and the staff
// template for everyone else.
func (r *Renderer) Render(in RenderInput) (*Rendered, error) {
	if in.Event == nil || in.Ticket == nil {
		return nil, fmt.Errorf("render requires an event and a ticket")
	}

	title := in.Event.TicketTitle
	if title == "" {
		title = in.Ticket.Title
	}
	subject := r.Subject(in.Event.Type, in.Company, title)

	data := r.data(in, title, subject)

	name := templateStaff
	if !in.Recipient.Role.IsStaff() {
		name = templateClient
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w", name, err)
	}

	return &Rendered{Subject: subject, HTML: buf.String()}, nil
}

func (r *Renderer) data(in RenderInput, title, subject string) emailData {
	c := r.catalog
	ev := in.Event
	t := in.Ticket

	replacer := strings.NewReplacer(
		"{title}", title,
		"{company}", in.Company,
		"{status}", c.statusBadge(currentStatus(ev, t)).Label,
	)

	d := emailData{
		Lang:     r.lang,
		Company:  in.Company,
		Subject:  subject,
		Heading:  c.Headings[ev.Type],
		Summary:  replacer.Replace(c.Summaries[ev.Type]),
		Footer:   replacer.Replace(c.Labels.Footer),
		Link:     r.TicketLink(t.ID),
		L:        c.Labels,
		TicketID: t.ID,
		Title:    title,
		Category: orDefault(t.CategoryName, c.Labels.None),
		Client:   t.ClientName,
		Priority: c.priorityBadge(t.Priority),
		Status:   c.statusBadge(currentStatus(ev, t)),
		CreatedBy: orDefault(t.CreatedByName,
			orDefault(t.CreatedBy, c.Labels.None)),
		AssignedTo: c.Labels.Unassigned,
		CreatedAt:  orDefault(r.formatTime(t.CreatedAt), c.Labels.None),
		Changes:    r.changes(in),
	}
	if t.HasAssignee() {
		d.AssignedTo = orDefault(t.AssignedToName, t.AssignedTo)
	}
	return d
}

// changes lists the fields the event changed.
func (r *Renderer) changes(in RenderInput) []change {
	c := r.catalog
	ev := in.Event
	name := func(id string) string {
		if id == "" {
			return c.Labels.Unassigned
		}
		if n := in.Names[id]; n != "" {
			return n
		}
		return id
	}

	switch ev.Type {
	case notifications.EventTypeNewTicket:
		desc := ev.TicketDescription
		if desc == "" {
			desc = in.Ticket.Description
		}
		if desc == "" {
			return nil
		}
		return []change{{Label: c.Labels.Description, Value: desc}}

	case notifications.EventTypeStatusChange:
		return []change{
			badgeChange(c.Labels.OldStatus, c.statusBadge(models.TicketStatus(ev.OldStatus))),
			badgeChange(c.Labels.NewStatus, c.statusBadge(currentStatus(ev, in.Ticket))),
		}

	case notifications.EventTypeAssignment:
		newAssignee := ev.NewAssignedTo
		if newAssignee == "" {
			newAssignee = in.Ticket.AssignedTo
		}
		return []change{
			{Label: c.Labels.OldAssignee, Value: name(ev.OldAssignedTo)},
			{Label: c.Labels.NewAssignee, Value: name(newAssignee)},
		}

	case notifications.EventTypeNewComment:
		var out []change
		if ev.CommentUser != "" {
			out = append(out, change{Label: c.Labels.CommentBy, Value: name(ev.CommentUser)})
		}
		if ev.IsPrivate {
			out = append(out, change{Label: c.Labels.Visibility, Value: c.Labels.PrivateComment})
		}
		return out
	}
	return nil
}

// currentStatus prefers the status the event moved the ticket to.
func currentStatus(ev *notifications.Event, t *notifications.TicketSnapshot) models.TicketStatus {
	if ev.Type == notifications.EventTypeStatusChange && ev.NewStatus != "" {
		return models.TicketStatus(ev.NewStatus)
	}
	return t.Status
}

func (r *Renderer) formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(r.location).Format(r.catalog.DateFormat)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
