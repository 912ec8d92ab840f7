package apierr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("title required"), http.StatusBadRequest},
		{"invalid input", fmt.Errorf("id %q: %w", "x", ErrInvalidInput), http.StatusBadRequest},
		{"not found", fmt.Errorf("dream 7: %w", ErrNotFound), http.StatusNotFound},
		{"unavailable", ErrUpstreamUnavailable, http.StatusInternalServerError},
		{"timeout", fmt.Errorf("story: %w", ErrUpstreamTimeout), http.StatusGatewayTimeout},
		{"invalid response", ErrUpstreamInvalidResponse, http.StatusInternalServerError},
		{"pool", ErrPoolExhausted, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.want {
				t.Fatalf("Status(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestGatewayEnvelope(t *testing.T) {
	if e := GatewayEnvelope(ErrUpstreamUnavailable); e.Error != "Service unavailable" {
		t.Fatalf("unavailable envelope: %+v", e)
	}
	if e := GatewayEnvelope(fmt.Errorf("x: %w", ErrUpstreamTimeout)); e.Error != "Service timeout" {
		t.Fatalf("timeout envelope: %+v", e)
	}
	if e := GatewayEnvelope(ErrUpstreamInvalidResponse); e.Error != "Invalid response from service" {
		t.Fatalf("invalid envelope: %+v", e)
	}
}

func TestClassification(t *testing.T) {
	if !IsUpstream(fmt.Errorf("wrapped: %w", ErrUpstreamTimeout)) {
		t.Fatalf("timeout should be upstream")
	}
	if IsUpstream(ErrNotFound) {
		t.Fatalf("not found is not upstream")
	}
	if !IsStorageUnavailable(ErrPoolExhausted) {
		t.Fatalf("pool exhaustion is storage unavailability")
	}
}
