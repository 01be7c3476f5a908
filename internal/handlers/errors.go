package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/story-turns/internal/session"
	"github.com/jwebster45206/story-turns/pkg/narrative"
	"github.com/jwebster45206/story-turns/pkg/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, narrative.ErrInvalidChoice):
		return http.StatusBadRequest
	case errors.Is(err, narrative.ErrInitialization), errors.Is(err, narrative.ErrEngine):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, storage.ErrStoryNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err, "status", status)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// writeDomainError reports err with the status statusFor picks. Internal
// errors are logged and their detail is withheld from the client.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
		writeError(w, logger, status, "Internal server error")
		return
	}
	writeError(w, logger, status, err.Error())
}
