package notifications

import (
	"context"
	"fmt"

	"github.com/helpdeskhq/helpdesk/pkg/notifications"
)

// StaffLister lists the active company_admin and technician profiles of a
// company.
type StaffLister interface {
	ActiveStaff(ctx context.Context, companyID string) ([]string, error)
}

// Resolver determines which users may care about a ticket event.
type Resolver struct {
	staff StaffLister
}

// NewResolver returns a resolver that reads company staff from staff.
func NewResolver(staff StaffLister) *Resolver {
	return &Resolver{staff: staff}
}

// Candidates returns the candidate user IDs for event, each at most once, in
// the order they were first added.
//
//	new_ticket     active staff of the ticket's company
//	status_change  creator, current assignee
//	assignment     creator, new assignee, previous assignee
//	new_comment    creator, current assignee
func (r *Resolver) Candidates(
	ctx context.Context,
	event *notifications.Event,
	snap *notifications.TicketSnapshot,
) ([]string, error) {
	var c candidateSet

	switch event.Type {
	case notifications.EventTypeNewTicket:
		ids, err := r.staff.ActiveStaff(ctx, snap.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("error listing company staff: %w", err)
		}
		c.add(ids...)

	case notifications.EventTypeStatusChange, notifications.EventTypeNewComment:
		c.add(creator(event, snap), assignee(event, snap))

	case notifications.EventTypeAssignment:
		newAssignee := event.NewAssignedTo
		if newAssignee == "" {
			newAssignee = assignee(event, snap)
		}
		c.add(creator(event, snap), newAssignee, event.OldAssignedTo)

	default:
		return nil, fmt.Errorf("%w: unknown event type %q", notifications.ErrInvalidEvent, event.Type)
	}

	return c.ids, nil
}

// creator prefers the ticket row over the caller's hint.
func creator(event *notifications.Event, snap *notifications.TicketSnapshot) string {
	if snap.CreatedBy != "" {
		return snap.CreatedBy
	}
	return event.CreatedBy
}

// assignee prefers the ticket row over the caller's hint.
func assignee(event *notifications.Event, snap *notifications.TicketSnapshot) string {
	if snap.AssignedTo != "" {
		return snap.AssignedTo
	}
	return event.AssignedTo
}

// candidateSet is an insertion-ordered set of user IDs.
type candidateSet struct {
	ids  []string
	seen map[string]struct{}
}

func (c *candidateSet) add(ids ...string) {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := c.seen[id]; ok {
			continue
		}
		c.seen[id] = struct{}{}
		c.ids = append(c.ids, id)
	}
}
