package gateway

import (
	"encoding/json"
	"net/http"
	"sync"

	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// responder writes at most one response to w. Later attempts are dropped
// and logged at debug.
type responder struct {
	mu     sync.Mutex
	w      http.ResponseWriter
	sent   bool
	status int
	logger logpkg.Logger
}

func newResponder(w http.ResponseWriter, logger logpkg.Logger) *responder {
	return &responder{w: w, logger: logger}
}

// write sends status and a JSON body. It reports whether this call was the
// one that responded.
func (r *responder) write(status int, body []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		r.logger.Debug("Dropped second response", logpkg.Int("status", status), logpkg.Int("first_status", r.status))
		return false
	}
	r.sent = true
	r.status = status
	r.w.Header().Set("Content-Type", "application/json")
	r.w.WriteHeader(status)
	_, _ = r.w.Write(body)
	return true
}

func (r *responder) writeJSON(status int, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte(`{"error":"Internal error"}`)
		status = http.StatusInternalServerError
	}
	return r.write(status, append(b, '\n'))
}

// Status returns the status that was sent, or 0.
func (r *responder) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
