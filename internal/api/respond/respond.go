// Package respond writes JSON responses and maps service errors to HTTP
// status codes. Every error body has the shape {"message": "..."}.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dom/techxchange/internal/domain"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// MessageResponse is the body of every error response.
type MessageResponse struct {
	Message string `json:"message"`
}

const serverError = "Server error"

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, MessageResponse{Message: message})
}

// Error writes err as a response. Expected failures (*domain.Error) keep their
// message; anything else is logged and reported as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		Message(w, StatusFor(de.Kind), de.Message)
		return
	}

	log.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", chiMiddleware.GetReqID(r.Context())).
		Msg("unexpected error")
	Message(w, http.StatusInternalServerError, serverError)
}

// StatusFor maps an error kind to its HTTP status. Conflicts are reported as
// 400 to match the registration contract.
func StatusFor(kind error) int {
	switch {
	case errors.Is(kind, domain.ErrValidation), errors.Is(kind, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(kind, domain.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(kind, domain.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(kind, domain.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
