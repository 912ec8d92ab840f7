// Package apierr is the error taxonomy shared by the gateway and the
// services: sentinel errors, classification helpers, and the mapping to HTTP
// status codes and JSON envelopes.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Caller input.
	ErrValidation   = errors.New("validation failed")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	// Downstream transport, as seen by the gateway.
	ErrUpstreamUnavailable     = errors.New("upstream unavailable")
	ErrUpstreamTimeout         = errors.New("upstream timeout")
	ErrUpstreamInvalidResponse = errors.New("upstream invalid response")

	// Storage.
	ErrStorageDeadlineExceeded = errors.New("storage deadline exceeded")
	ErrPoolExhausted           = errors.New("connection pool exhausted")
	ErrStorage                 = errors.New("storage error")
)

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// Validation wraps ErrValidation with a caller-facing message.
func Validation(msg string) error { return fmt.Errorf("%w: %s", ErrValidation, msg) }

// IsClientError reports errors caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidInput)
}

// IsUpstream reports transport failures talking to a downstream service.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrUpstreamTimeout) ||
		errors.Is(err, ErrUpstreamInvalidResponse)
}

// IsStorageUnavailable reports failures where the store could not be reached
// in time, as opposed to a query-level error.
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrPoolExhausted) || errors.Is(err, ErrStorageDeadlineExceeded)
}

// Status maps err to the HTTP status code the mesh uses for it.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	default:
		// UpstreamUnavailable, UpstreamInvalidResponse, pool and storage
		// failures all surface as 500.
		return http.StatusInternalServerError
	}
}

// Envelope is the uniform error body.
type Envelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// GatewayEnvelope returns the fixed body the gateway emits for a transport
// failure. The texts are part of the public contract.
func GatewayEnvelope(err error) Envelope {
	switch {
	case errors.Is(err, ErrUpstreamTimeout):
		return Envelope{Error: "Service timeout"}
	case errors.Is(err, ErrUpstreamInvalidResponse):
		return Envelope{Error: "Invalid response from service"}
	case errors.Is(err, ErrUpstreamUnavailable):
		return Envelope{Error: "Service unavailable", Message: "Failed to connect to service"}
	case IsClientError(err):
		return Envelope{Error: "Invalid request body", Message: err.Error()}
	default:
		return Envelope{Error: "Internal error"}
	}
}
