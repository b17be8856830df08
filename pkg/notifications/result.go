package notifications

import "github.com/helpdeskhq/helpdesk/pkg/models"

// Preference names the notification preference flag that authorized a
// recipient.
type Preference string

const (
	PreferenceNewTicket        Preference = "email_on_new_ticket"
	PreferenceStatusChange     Preference = "email_on_status_change"
	PreferenceAssignment       Preference = "email_on_assignment"
	PreferenceMyTicketStatus   Preference = "email_on_my_ticket_status_change"
	PreferenceMyTicketComments Preference = "email_on_my_ticket_comments"

	// PreferenceMyTicketResolved is stored and editable but no policy reads
	// it; resolutions are announced under PreferenceMyTicketStatus.
	PreferenceMyTicketResolved Preference = "email_on_my_ticket_resolved"
)

// Recipient is a candidate that survived filtering. Email is filled in by the
// per-recipient pipeline.
type Recipient struct {
	UserID     string
	Name       string
	Email      string
	Role       models.Role
	Preference Preference
}

// Stage identifies the step of the per-recipient pipeline that failed.
type Stage string

const (
	StageLookup Stage = "lookup"
	StageRender Stage = "render"
	StageSend   Stage = "send"
)

// DeliveryResult is the outcome of one recipient's email attempt.
type DeliveryResult struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Stage    Stage  `json:"stage,omitempty"`

	// Retryable is set when the provider reported a transient failure. The
	// dispatch itself never retries.
	Retryable bool `json:"retryable,omitempty"`
}

// DispatchSummary is returned to the caller of a dispatch.
type DispatchSummary struct {
	Message string           `json:"message"`
	Results []DeliveryResult `json:"results,omitempty"`
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
}

// NewDispatchSummary counts the results and builds the summary message.
func NewDispatchSummary(message string, results []DeliveryResult) *DispatchSummary {
	s := &DispatchSummary{
		Message: message,
		Results: results,
	}
	for _, r := range results {
		if r.Success {
			s.Sent++
		} else {
			s.Failed++
		}
	}
	return s
}
