package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/dom/group-decide/internal/domain"
)

// writeServiceError maps a service error to its HTTP status. Domain errors
// carry a message safe to show the caller; anything else is logged and
// reported as an internal error.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	// Conflict and NoData get their own codes instead of 400 so clients can
	// tell a session-state clash or an empty tally from a malformed request.
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNoData):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		log.Printf("ERROR [%s] %v", op, err)
		http.Error(w, "Internal server error", status)
		return
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		http.Error(w, domainErr.Message, status)
		return
	}
	http.Error(w, err.Error(), status)
}
