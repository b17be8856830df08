package notifications

import (
	"html/template"
	"strings"

	"github.com/helpdeskhq/helpdesk/pkg/models"
)

// Badge is a label with its display color.
type Badge struct {
	Label string
	Color string
}

const colorGray = "#6b7280"

var priorityColors = map[models.TicketPriority]string{
	models.TicketPriorityLow:    "#2563eb",
	models.TicketPriorityMedium: "#ca8a04",
	models.TicketPriorityHigh:   "#ea580c",
	models.TicketPriorityUrgent: "#dc2626",
}

var statusColors = map[models.TicketStatus]string{
	models.TicketStatusOpen:       "#2563eb",
	models.TicketStatusInProgress: "#d97706",
	models.TicketStatusPending:    "#7c3aed",
	models.TicketStatusResolved:   "#16a34a",
	models.TicketStatusClosed:     colorGray,
}

func (c *catalog) priorityBadge(p models.TicketPriority) Badge {
	label, ok := c.Priorities[p]
	color, known := priorityColors[p]
	if !ok || !known {
		return fallbackBadge(string(p), c.Labels.None)
	}
	return Badge{Label: label, Color: color}
}

func (c *catalog) statusBadge(s models.TicketStatus) Badge {
	label, ok := c.Statuses[s]
	color, known := statusColors[s]
	if !ok || !known {
		return fallbackBadge(string(s), c.Labels.None)
	}
	return Badge{Label: label, Color: color}
}

// fallbackBadge renders an unmapped value in gray, derived from the raw value.
func fallbackBadge(raw, none string) Badge {
	label := strings.ToUpper(strings.ReplaceAll(raw, "_", " "))
	if label == "" {
		label = none
	}
	return Badge{Label: label, Color: colorGray}
}

// change is one row of the changes section. Color is empty for plain values.
type change struct {
	Label string
	Value string
	Color template.CSS
}

func badgeChange(label string, b Badge) change {
	return change{Label: label, Value: b.Label, Color: template.CSS(b.Color)}
}
