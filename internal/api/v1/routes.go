package api

import (
	"net/http"

	"github.com/helpdeskhq/helpdesk/internal/server"
)

type endpoint struct {
	pattern string
	handler http.Handler
}

// NewHandler returns the root HTTP handler of the server with every v1 route
// registered.
func NewHandler(srv server.Server) http.Handler {
	notify := NotificationHandler(srv)

	// Require authentication for these endpoints when a JWT secret is set.
	authenticatedEndpoints := []endpoint{
		{"/functions/v1/send-notification-email", notify},
		{"/api/v1/notifications/send", notify},
		{"/api/v1/ticket-events", TicketEventsHandler(srv)},
		{"/api/v1/users/{id}/notification-preferences", NotificationPreferencesHandler(srv)},
	}

	unauthenticatedEndpoints := []endpoint{
		{"/healthz", HealthHandler(srv)},
	}

	mux := http.NewServeMux()
	for _, e := range authenticatedEndpoints {
		mux.Handle(e.pattern, AuthMiddleware(srv, e.handler))
	}
	for _, e := range unauthenticatedEndpoints {
		mux.Handle(e.pattern, e.handler)
	}

	return CORSMiddleware(mux)
}
