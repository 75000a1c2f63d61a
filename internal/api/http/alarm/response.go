package alarm

import (
	"encoding/json"
	"errors"
	"net/http"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// errorPayload is the body of every error response.
type errorPayload struct {
	// Code is a stable machine-readable error identifier.
	Code string `json:"code"`
	// Message is a human-readable description.
	Message string `json:"message"`
}

// errorResponse wraps the error payload in a single envelope.
type errorResponse struct {
	Error errorPayload `json:"error"`
}

// writeJSON encodes the payload with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(payload)
}

// writeError encodes a structured error body.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// writeDomainError maps the domain taxonomy onto status codes and writes the
// error body. Kinds are never collapsed: clients can distinguish "not found"
// from "forbidden" from "conflict".
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := mapDomainError(err)
	writeError(w, status, code, err.Error())
}

// mapDomainError translates a domain sentinel into status code and error code.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, domain.ErrAlarmNotFound):
		return http.StatusNotFound, "alarm_not_found"
	case errors.Is(err, domain.ErrEventNotFound):
		return http.StatusNotFound, "event_not_found"
	case errors.Is(err, domain.ErrAlarmNotArmed):
		return http.StatusConflict, "alarm_not_armed"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "upstream_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
