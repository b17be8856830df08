package api

import (
	"net/http"

	"github.com/helpdeskhq/helpdesk/internal/server"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
)

// TicketEventResponse acknowledges a queued ticket event.
type TicketEventResponse struct {
	Queued bool   `json:"queued"`
	ID     string `json:"id"`
}

// TicketEventsHandler validates a ticket event and queues it for the
// consumer instead of sending the emails inline.
func TicketEventsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "POST":
			if srv.Publisher == nil {
				respondError(w, http.StatusServiceUnavailable, "Event queue is not configured")
				return
			}

			var event notifications.Event
			if err := decodeRequest(r, &event); err != nil {
				srv.Logger.Error("error decoding ticket event", "error", err)
				respondError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
				return
			}
			if err := event.Validate(); err != nil {
				srv.Logger.Warn("invalid ticket event", "error", err)
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}

			if err := srv.Publisher.PublishEvent(r.Context(), &event); err != nil {
				srv.Logger.Error("error publishing ticket event",
					"error", err,
					"ticket_id", event.TicketID,
				)
				respondError(w, http.StatusInternalServerError, "Error queueing ticket event")
				return
			}

			srv.Logger.Debug("queued ticket event",
				"id", event.ID,
				"ticket_id", event.TicketID,
				"type", event.Type,
			)
			if err := respondJSON(w, http.StatusAccepted, TicketEventResponse{
				Queued: true,
				ID:     event.ID,
			}); err != nil {
				srv.Logger.Error("error encoding ticket event response", "error", err)
			}

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}
