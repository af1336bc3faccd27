package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hackgods/appointment-lifecycle/internal/appointment"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

var kindStatus = map[appointment.ErrorKind]int{
	appointment.KindValidation:        http.StatusBadRequest,
	appointment.KindNotFound:          http.StatusNotFound,
	appointment.KindForbidden:         http.StatusForbidden,
	appointment.KindSlotUnavailable:   http.StatusConflict,
	appointment.KindInvalidTransition: http.StatusConflict,
	appointment.KindAlreadyTerminal:   http.StatusConflict,
}

// writeServiceError renders a business error with its kind and field. Anything else
// is opaque.
func writeServiceError(w http.ResponseWriter, err error) {
	var bizErr *appointment.Error
	if errors.As(err, &bizErr) {
		status, ok := kindStatus[bizErr.Kind]
		if !ok {
			status = http.StatusBadRequest
		}
		if bizErr.Retryable {
			w.Header().Set("Retry-After", "1")
		}
		writeJSON(w, status, ErrorResponse{
			Error:     string(bizErr.Kind),
			Field:     bizErr.Field,
			Details:   bizErr.Message,
			Retryable: bizErr.Retryable,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
