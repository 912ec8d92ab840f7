package gateway

import (
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// LatencySummary is the per-target view exposed by /health.
type LatencySummary struct {
	Count  int64   `json:"count"`
	Errors int64   `json:"errors"`
	P50Ms  float64 `json:"p50_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// latencyStats keeps one DDSketch per service with 1% relative accuracy.
type latencyStats struct {
	mu       sync.Mutex
	sketches map[string]*ddsketch.DDSketch
	errors   map[string]int64
}

func newLatencyStats() *latencyStats {
	return &latencyStats{
		sketches: make(map[string]*ddsketch.DDSketch),
		errors:   make(map[string]int64),
	}
}

func (l *latencyStats) observe(service string, d time.Duration, failed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sk, ok := l.sketches[service]
	if !ok {
		var err error
		sk, err = ddsketch.NewDefaultDDSketch(0.01)
		if err != nil {
			return
		}
		l.sketches[service] = sk
	}
	ms := float64(d.Microseconds()) / 1000
	if ms <= 0 {
		ms = 0.001
	}
	_ = sk.Add(ms)
	if failed {
		l.errors[service]++
	}
}

func (l *latencyStats) snapshot() map[string]LatencySummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]LatencySummary, len(l.sketches))
	for name, sk := range l.sketches {
		s := LatencySummary{Count: int64(sk.GetCount()), Errors: l.errors[name]}
		if !sk.IsEmpty() {
			s.P50Ms, _ = sk.GetValueAtQuantile(0.5)
			s.P99Ms, _ = sk.GetValueAtQuantile(0.99)
		}
		out[name] = s
	}
	return out
}
