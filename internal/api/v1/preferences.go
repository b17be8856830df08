package api

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/helpdeskhq/helpdesk/internal/server"
	"github.com/helpdeskhq/helpdesk/pkg/models"
)

// PreferencesRequest is the body of a preferences update. Every flag must be
// present.
type PreferencesRequest struct {
	EmailOnNewTicket            *bool `json:"emailOnNewTicket"`
	EmailOnStatusChange         *bool `json:"emailOnStatusChange"`
	EmailOnAssignment           *bool `json:"emailOnAssignment"`
	EmailOnMyTicketStatusChange *bool `json:"emailOnMyTicketStatusChange"`
	EmailOnMyTicketComments     *bool `json:"emailOnMyTicketComments"`
	EmailOnMyTicketResolved     *bool `json:"emailOnMyTicketResolved"`
}

// Validate implements validation.Validatable.
func (req PreferencesRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.EmailOnNewTicket, validation.NotNil),
		validation.Field(&req.EmailOnStatusChange, validation.NotNil),
		validation.Field(&req.EmailOnAssignment, validation.NotNil),
		validation.Field(&req.EmailOnMyTicketStatusChange, validation.NotNil),
		validation.Field(&req.EmailOnMyTicketComments, validation.NotNil),
		validation.Field(&req.EmailOnMyTicketResolved, validation.NotNil),
	)
}

func (req PreferencesRequest) apply(np *models.NotificationPreference) {
	np.EmailOnNewTicket = *req.EmailOnNewTicket
	np.EmailOnStatusChange = *req.EmailOnStatusChange
	np.EmailOnAssignment = *req.EmailOnAssignment
	np.EmailOnMyTicketStatusChange = *req.EmailOnMyTicketStatusChange
	np.EmailOnMyTicketComments = *req.EmailOnMyTicketComments
	np.EmailOnMyTicketResolved = *req.EmailOnMyTicketResolved
}

// NotificationPreferencesHandler reads and saves the email settings of the
// user in the URL path. Users who never saved their settings get every email.
func NotificationPreferencesHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("id")
		if _, err := uuid.Parse(userID); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		// With authentication configured users can only manage their own
		// settings.
		if len(srv.JWTSecret) > 0 {
			if sub, ok := userIDFromContext(r.Context()); !ok || sub != userID {
				srv.Logger.Warn("preferences access denied",
					"user_id", userID,
					"subject", sub,
				)
				respondError(w, http.StatusForbidden, "Forbidden")
				return
			}
		}

		switch r.Method {
		case "GET":
			np, err := srv.Preferences.GetPreference(r.Context(), userID)
			if err != nil {
				srv.Logger.Error("error getting notification preferences",
					"error", err,
					"user_id", userID,
				)
				respondError(w, http.StatusInternalServerError,
					"Error getting notification preferences")
				return
			}
			if err := respondJSON(w, http.StatusOK, np); err != nil {
				srv.Logger.Error("error encoding notification preferences", "error", err)
			}

		case "PUT":
			var req PreferencesRequest
			if err := decodeRequest(r, &req); err != nil {
				srv.Logger.Error("error decoding preferences request", "error", err)
				respondError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
				return
			}
			if err := req.Validate(); err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}

			np := models.NotificationPreference{UserID: userID}
			req.apply(&np)
			if err := srv.Preferences.UpsertPreference(r.Context(), &np); err != nil {
				srv.Logger.Error("error saving notification preferences",
					"error", err,
					"user_id", userID,
				)
				respondError(w, http.StatusInternalServerError,
					"Error saving notification preferences")
				return
			}

			srv.Logger.Info("notification preferences updated", "user_id", userID)
			if err := respondJSON(w, http.StatusOK, np); err != nil {
				srv.Logger.Error("error encoding notification preferences", "error", err)
			}

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}
