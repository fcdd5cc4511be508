package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/BradenHooton/novatech/internal/models"
	"github.com/BradenHooton/novatech/internal/sanitize"
	pkghttp "github.com/BradenHooton/novatech/pkg/http"
)

// MaxBodyBytes caps every JSON request body
const MaxBodyBytes = 1 << 20

// decodeJSON reads a single JSON document into dst. Unknown fields are ignored.
// Field validation happens in the services through the sanitize package.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			pkghttp.WriteStatus(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// writeServiceError maps service sentinels onto the JSON error envelope
func writeServiceError(w http.ResponseWriter, err error) {
	var fieldErr *sanitize.FieldError
	switch {
	case errors.As(err, &fieldErr):
		pkghttp.WriteValidationError(w, fieldErr.Field, fieldMessage(fieldErr))
	case errors.Is(err, models.ErrTooManyAttempts), errors.Is(err, models.ErrRateLimitExceeded):
		pkghttp.WriteTooManyRequests(w, pkghttp.TooManyRequestsMessage)
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Resource already exists")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// fieldMessage converts a sanitizer failure into a user-facing message
func fieldMessage(fe *sanitize.FieldError) string {
	if errors.Is(fe.Err, sanitize.ErrRequired) {
		return fe.Field + " is required"
	}
	return fe.Err.Error()
}
