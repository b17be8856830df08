package notifications

import (
	"embed"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/helpdeskhq/helpdesk/pkg/models"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localesFS embed.FS

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "pt-BR"

// catalog is the copy of one locale.
type catalog struct {
	Subjects   map[notifications.EventType]string `yaml:"subjects"`
	Headings   map[notifications.EventType]string `yaml:"headings"`
	Summaries  map[notifications.EventType]string `yaml:"summaries"`
	Priorities map[models.TicketPriority]string   `yaml:"priorities"`
	Statuses   map[models.TicketStatus]string     `yaml:"statuses"`
	Labels     Labels                             `yaml:"labels"`
	DateFormat string                             `yaml:"date_format"`
}

// Labels are the fixed strings of the email templates.
type Labels struct {
	TicketID       string `yaml:"ticket_id"`
	Title          string `yaml:"title"`
	Category       string `yaml:"category"`
	Client         string `yaml:"client"`
	Priority       string `yaml:"priority"`
	Status         string `yaml:"status"`
	CreatedBy      string `yaml:"created_by"`
	AssignedTo     string `yaml:"assigned_to"`
	CreatedAt      string `yaml:"created_at"`
	Changes        string `yaml:"changes"`
	Description    string `yaml:"description"`
	OldStatus      string `yaml:"old_status"`
	NewStatus      string `yaml:"new_status"`
	OldAssignee    string `yaml:"old_assignee"`
	NewAssignee    string `yaml:"new_assignee"`
	CommentBy      string `yaml:"comment_by"`
	Visibility     string `yaml:"visibility"`
	PrivateComment string `yaml:"private_comment"`
	Unassigned     string `yaml:"unassigned"`
	None           string `yaml:"none"`
	ViewTicket     string `yaml:"view_ticket"`
	Footer         string `yaml:"footer"`
}

// Locales returns the names of the embedded locales.
func Locales() ([]string, error) {
	entries, err := localesFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names, nil
}

// loadCatalog reads and checks the catalog of locale.
func loadCatalog(locale string) (*catalog, error) {
	data, err := localesFS.ReadFile(path.Join("locales", locale+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown locale %q", locale)
	}

	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("error parsing locale %q: %w", locale, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("incomplete locale %q: %w", locale, err)
	}
	return &c, nil
}

// validate checks that every event type, status and priority has copy.
func (c *catalog) validate() error {
	var result *multierror.Error

	for _, et := range notifications.EventTypes {
		if c.Subjects[et] == "" {
			result = multierror.Append(result, fmt.Errorf("missing subject for %s", et))
		}
		if c.Headings[et] == "" {
			result = multierror.Append(result, fmt.Errorf("missing heading for %s", et))
		}
		if c.Summaries[et] == "" {
			result = multierror.Append(result, fmt.Errorf("missing summary for %s", et))
		}
	}
	for _, p := range models.TicketPriorities {
		if c.Priorities[p] == "" {
			result = multierror.Append(result, fmt.Errorf("missing label for priority %s", p))
		}
	}
	for _, s := range models.TicketStatuses {
		if c.Statuses[s] == "" {
			result = multierror.Append(result, fmt.Errorf("missing label for status %s", s))
		}
	}
	if c.DateFormat == "" {
		result = multierror.Append(result, fmt.Errorf("missing date_format"))
	}
	if c.Labels.Changes == "" || c.Labels.ViewTicket == "" {
		result = multierror.Append(result, fmt.Errorf("missing template labels"))
	}

	copies := map[string]string{"labels.footer": c.Labels.Footer}
	for et, summary := range c.Summaries {
		copies["summaries."+string(et)] = summary
	}
	for key, text := range copies {
		if err := checkPlaceholders(text); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", key, err))
		}
	}

	return result.ErrorOrNil()
}

// placeholders are the values substituted into summaries and the footer.
var placeholders = map[string]bool{"{title}": true, "{company}": true, "{status}": true}

var placeholderPattern = regexp.MustCompile(`\{\{[^}]*\}\}|\{[a-z_]+\}`)

// checkPlaceholders rejects catalog copy with template actions or unknown
// placeholders. It runs before any ticket data is substituted.
func checkPlaceholders(text string) error {
	var unknown []string
	for _, m := range placeholderPattern.FindAllString(text, -1) {
		if !placeholders[m] {
			unknown = append(unknown, m)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unexpanded placeholders %v", unknown)
	}
	return nil
}
