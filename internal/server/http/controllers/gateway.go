package controllers

import (
	"net/http"

	cfgpkg "github.com/MFAIZAN20/dreamcanvas/internal/config"
	"github.com/MFAIZAN20/dreamcanvas/internal/gateway"
)

// GatewayController mounts the /api proxy and the gateway's /health.
type GatewayController struct {
	registry *gateway.Registry
	proxy    *gateway.Proxy
	handler  *gateway.Handler
	prober   *gateway.Prober
}

// NewGatewayController creates the gateway controller. prober may be nil,
// in which case ?deep=1 is ignored.
func NewGatewayController(reg *gateway.Registry, proxy *gateway.Proxy, handler *gateway.Handler, prober *gateway.Prober) *GatewayController {
	return &GatewayController{registry: reg, proxy: proxy, handler: handler, prober: prober}
}

func (c *GatewayController) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/api/", c.handler)
	mux.HandleFunc("GET /health", c.handleHealth)
}

// handleHealth lists targets and per-service latency. With ?deep=1 it also
// probes every backend and answers 503 unless all of them are healthy.
func (c *GatewayController) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"service": cfgpkg.ServiceGateway,
		"status":  "ok",
		"targets": c.registry.Targets(),
		"latency": c.proxy.Latency(),
	}
	status := http.StatusOK
	if c.prober != nil && r.URL.Query().Get("deep") != "" {
		backends := c.prober.Probe(r.Context())
		body["backends"] = backends
		if !gateway.AllOK(backends) {
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSONStatus(w, status, body)
}
