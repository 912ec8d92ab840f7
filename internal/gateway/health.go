package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// BackendStatus is the result of probing one backend's /health.
type BackendStatus struct {
	Service string `json:"service"`
	Addr    string `json:"addr"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Prober checks every backend's /health concurrently. Concurrent callers
// share one probe round.
type Prober struct {
	registry *Registry
	client   *http.Client
	timeout  time.Duration
	group    singleflight.Group
}

// NewProber returns a Prober that gives each backend timeout to answer.
func NewProber(reg *Registry, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Prober{registry: reg, client: &http.Client{}, timeout: timeout}
}

// Probe returns one status per backend service, in registry order.
func (p *Prober) Probe(ctx context.Context) []BackendStatus {
	v, _, _ := p.group.Do("probe", func() (any, error) {
		return p.probeAll(context.WithoutCancel(ctx)), nil
	})
	return v.([]BackendStatus)
}

func (p *Prober) probeAll(ctx context.Context) []BackendStatus {
	targets := p.registry.Services()
	out := make([]BackendStatus, len(targets))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, t := range targets {
		g.Go(func() error {
			st := p.probeOne(gctx, t)
			mu.Lock()
			out[i] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Prober) probeOne(ctx context.Context, t Target) BackendStatus {
	st := BackendStatus{Service: t.Service, Addr: t.Addr()}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.BaseURL()+"/health", nil)
	if err != nil {
		st.Status, st.Error = "unreachable", err.Error()
		return st
	}
	resp, err := p.client.Do(req)
	if err != nil {
		st.Status, st.Error = "unreachable", err.Error()
		return st
	}
	defer resp.Body.Close()
	var body struct {
		Status string `json:"status"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK || json.Unmarshal(b, &body) != nil || body.Status != "ok" {
		st.Status = "unhealthy"
		return st
	}
	st.Status = "ok"
	return st
}

// AllOK reports whether every status is ok.
func AllOK(sts []BackendStatus) bool {
	for _, s := range sts {
		if s.Status != "ok" {
			return false
		}
	}
	return true
}
