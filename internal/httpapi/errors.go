package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"jobportal-engine/internal/auth"
	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/store"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeServiceError maps domain errors onto the error envelope. Anything
// unrecognized is logged and reported as a 500 without details.
func (s *server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var inErr *auth.InputError
	var valErr *store.ValidationError
	switch {
	case errors.As(err, &inErr):
		WriteError(w, r, http.StatusBadRequest, "bad_request", inErr.Msg)
	case errors.As(err, &valErr):
		WriteError(w, r, http.StatusBadRequest, "bad_request", valErr.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		WriteError(w, r, http.StatusConflict, "email_taken", "Email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteError(w, r, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken):
		WriteError(w, r, http.StatusUnauthorized, "invalid_token", "Invalid token")
	case errors.Is(err, auth.ErrAccessDenied):
		WriteError(w, r, http.StatusForbidden, "access_denied", "Access denied")
	case errors.Is(err, auth.ErrGoogleDisabled):
		WriteError(w, r, http.StatusServiceUnavailable, "not_configured", err.Error())
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not_found", "Listing not found")
	case errors.Is(err, store.ErrDuplicate):
		WriteError(w, r, http.StatusConflict, "duplicate", err.Error())
	default:
		s.log.Error("request failed",
			logger.String("request_id", RequestIDFrom(r.Context())),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
