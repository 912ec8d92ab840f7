package controllers

import (
	"context"
	"net/http"

	"github.com/MFAIZAN20/dreamcanvas/internal/runtime"
)

// HealthExtra contributes service-specific fields to the /health body.
type HealthExtra func(ctx context.Context) map[string]any

// HealthController serves GET /health for one service.
//
// With a runtime attached the store is pinged and a failure answers 503.
// Stateless services always answer 200.
type HealthController struct {
	service string
	rt      *runtime.Runtime
	extras  []HealthExtra
}

// NewHealthController creates a health controller. rt may be nil.
func NewHealthController(service string, rt *runtime.Runtime, extras ...HealthExtra) *HealthController {
	return &HealthController{service: service, rt: rt, extras: extras}
}

func (c *HealthController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", c.handleHealth)
}

func (c *HealthController) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"service": c.service, "status": "ok"}
	status := http.StatusOK
	if c.rt != nil {
		if err := c.rt.CheckHealth(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["error"] = err.Error()
		}
		if st, ok := c.rt.PoolStats(); ok {
			body["pool"] = st
		}
	}
	for _, extra := range c.extras {
		for k, v := range extra(r.Context()) {
			body[k] = v
		}
	}
	writeJSONStatus(w, status, body)
}
