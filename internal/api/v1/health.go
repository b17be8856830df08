package api

import (
	"net/http"

	"github.com/helpdeskhq/helpdesk/internal/server"
)

// HealthHandler reports that the server is up.
func HealthHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET", "HEAD":
			if err := respondJSON(w, http.StatusOK, map[string]string{
				"status": "ok",
			}); err != nil {
				srv.Logger.Error("error encoding health response", "error", err)
			}
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
