package handler

import (
	"errors"
	"net/http"

	"github.com/Yearfield/lorien/internal/domain"
	"github.com/Yearfield/lorien/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var blockedErr *domain.ValidationBlockedError

	switch {
	case errors.As(err, &blockedErr):
		// Attach the validation issue list so the caller can decide to
		// fix inputs or force.
		httputil.RespondErrorWithExtras(w, blockedErr.StatusCode(), blockedErr.Error(),
			map[string]interface{}{"issues": blockedErr.Issues})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// PathParam extracts a required path parameter, writing a 400 when missing
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := r.PathValue(name)
	if value == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	return value, true
}
