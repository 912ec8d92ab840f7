package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/MFAIZAN20/dreamcanvas/internal/apierr"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// Handler serves /api/* by looking up the registry and forwarding through
// the proxy.
type Handler struct {
	registry *Registry
	proxy    *Proxy
	logger   logpkg.Logger
}

// NewHandler builds the /api handler.
func NewHandler(reg *Registry, proxy *Proxy, logger logpkg.Logger) *Handler {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Handler{registry: reg, proxy: proxy, logger: logger.WithComponent("gateway")}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t, path, ok := h.registry.Lookup(r.URL.Path)
	if !ok {
		writeEnvelope(w, http.StatusNotFound, apierr.Envelope{Error: "Not found"})
		return
	}
	req := Request{
		Method:    r.Method,
		Path:      path,
		RawQuery:  r.URL.RawQuery,
		RequestID: logpkg.RequestIDFromContext(r.Context()),
	}
	if hasBody(r.Method) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			writeEnvelope(w, http.StatusBadRequest, apierr.Envelope{Error: "Invalid request body", Message: err.Error()})
			return
		}
		if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
			writeEnvelope(w, http.StatusBadRequest, apierr.Envelope{Error: "Invalid JSON body"})
			return
		}
		req.Body = body
	}
	h.proxy.ServeTarget(w, r, t, req)
}

func writeEnvelope(w http.ResponseWriter, status int, env apierr.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
