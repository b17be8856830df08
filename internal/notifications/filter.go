package notifications

import (
	"github.com/helpdeskhq/helpdesk/pkg/models"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
)

// policy decides whether one candidate receives an email for an event, and
// which preference flag authorized it.
type policy func(c candidate) (notifications.Preference, bool)

// candidate is everything a policy looks at.
type candidate struct {
	profile   models.Profile
	pref      models.NotificationPreference
	isCreator bool
	isPrivate bool
}

func (c candidate) isClient() bool {
	return !c.profile.Role.IsStaff()
}

// policies holds one entry per event type.
var policies = map[notifications.EventType]policy{
	notifications.EventTypeNewTicket: func(c candidate) (notifications.Preference, bool) {
		if c.isClient() {
			return "", false
		}
		return notifications.PreferenceNewTicket, c.pref.EmailOnNewTicket
	},

	notifications.EventTypeStatusChange: func(c candidate) (notifications.Preference, bool) {
		if c.isClient() {
			if !c.isCreator {
				return "", false
			}
			return notifications.PreferenceMyTicketStatus, c.pref.EmailOnMyTicketStatusChange
		}
		return notifications.PreferenceStatusChange, c.pref.EmailOnStatusChange
	},

	notifications.EventTypeAssignment: func(c candidate) (notifications.Preference, bool) {
		if c.isClient() {
			return "", false
		}
		return notifications.PreferenceAssignment, c.pref.EmailOnAssignment
	},

	notifications.EventTypeNewComment: func(c candidate) (notifications.Preference, bool) {
		if c.isClient() {
			if c.isPrivate || !c.isCreator {
				return "", false
			}
			return notifications.PreferenceMyTicketComments, c.pref.EmailOnMyTicketComments
		}
		// Staff have no comment flag of their own.
		return notifications.PreferenceStatusChange, c.pref.EmailOnStatusChange
	},
}

// Filter applies the role and preference policy of event to candidates.
// Candidates without an active profile are dropped. A candidate without a
// preference row gets the all-enabled defaults.
func Filter(
	event *notifications.Event,
	snap *notifications.TicketSnapshot,
	candidates []string,
	profiles map[string]models.Profile,
	prefs map[string]models.NotificationPreference,
) []notifications.Recipient {
	allow, ok := policies[event.Type]
	if !ok {
		return nil
	}

	recipients := make([]notifications.Recipient, 0, len(candidates))
	for _, id := range candidates {
		profile, ok := profiles[id]
		if !ok || !profile.Active {
			continue
		}
		pref, ok := prefs[id]
		if !ok {
			pref = models.DefaultNotificationPreference(id)
		}

		flag, include := allow(candidate{
			profile:   profile,
			pref:      pref,
			isCreator: snap.IsCreator(id),
			isPrivate: event.IsPrivate,
		})
		if !include {
			continue
		}

		recipients = append(recipients, notifications.Recipient{
			UserID:     id,
			Name:       profile.DisplayName(),
			Role:       profile.Role,
			Preference: flag,
		})
	}
	return recipients
}
