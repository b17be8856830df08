package api

import (
	"errors"
	"net/http"

	"github.com/helpdeskhq/helpdesk/internal/server"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
)

// NotificationResponse is the body of a completed dispatch.
type NotificationResponse struct {
	Success bool                           `json:"success"`
	Message string                         `json:"message"`
	Sent    int                            `json:"sent"`
	Failed  int                            `json:"failed"`
	Results []notifications.DeliveryResult `json:"results,omitempty"`
}

// NotificationHandler accepts a ticket event descriptor and sends its emails
// before answering. Per-recipient failures are reported in the results and do
// not change the status code.
func NotificationHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "POST":
			var event notifications.Event
			if err := decodeRequest(r, &event); err != nil {
				srv.Logger.Error("error decoding notification request", "error", err)
				respondError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
				return
			}
			if err := event.Validate(); err != nil {
				srv.Logger.Warn("invalid ticket event", "error", err)
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}

			summary, err := srv.Notifier.Notify(r.Context(), event)
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, notifications.ErrInvalidEvent) {
					status = http.StatusBadRequest
				}
				srv.Logger.Error("error sending notifications",
					"error", err,
					"ticket_id", event.TicketID,
					"type", event.Type,
				)
				respondError(w, status, err.Error())
				return
			}

			resp := NotificationResponse{
				Success: true,
				Message: summary.Message,
				Sent:    summary.Sent,
				Failed:  summary.Failed,
				Results: summary.Results,
			}
			if err := respondJSON(w, http.StatusOK, resp); err != nil {
				srv.Logger.Error("error encoding notification response", "error", err)
				return
			}

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}
