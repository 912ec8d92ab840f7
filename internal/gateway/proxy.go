package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MFAIZAN20/dreamcanvas/internal/apierr"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// DefaultTimeout bounds one forwarded request.
const DefaultTimeout = 10 * time.Second

// maxBody caps request and response bodies read by the proxy.
const maxBody = 4 << 20

// Request is an inbound request reduced to what is forwarded.
type Request struct {
	Method    string
	Path      string
	RawQuery  string
	Body      []byte
	RequestID string
}

// Response is a complete, well-formed downstream reply.
type Response struct {
	Status int
	Body   []byte
}

// Proxy forwards requests to registry targets.
type Proxy struct {
	client  *http.Client
	timeout time.Duration
	logger  logpkg.Logger
	latency *latencyStats
}

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithHTTPClient overrides the outbound client.
func WithHTTPClient(c *http.Client) ProxyOption {
	return func(p *Proxy) {
		if c != nil {
			p.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logpkg.Logger) ProxyOption {
	return func(p *Proxy) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProxy returns a Proxy that waits at most timeout per request.
func NewProxy(timeout time.Duration, opts ...ProxyOption) *Proxy {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	p := &Proxy{
		client:  &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		timeout: timeout,
		logger:  logpkg.NewNopLogger(),
		latency: newLatencyStats(),
	}
	for _, o := range opts {
		o(p)
	}
	p.logger = p.logger.WithComponent("proxy")
	return p
}

// Timeout returns the per-request bound.
func (p *Proxy) Timeout() time.Duration { return p.timeout }

// Latency returns per-service latency summaries.
func (p *Proxy) Latency() map[string]LatencySummary { return p.latency.snapshot() }

// hasBody reports whether a method carries a forwarded body.
func hasBody(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}

// Forward issues one outbound call to t and reads the complete response.
// The only bound is ctx; ServeTarget adds the fixed timeout.
func (p *Proxy) Forward(ctx context.Context, t Target, req Request) (Response, error) {
	url := t.BaseURL() + req.Path
	if req.RawQuery != "" {
		url += "?" + req.RawQuery
	}
	var body io.Reader
	if hasBody(req.Method) {
		b := req.Body
		if len(bytes.TrimSpace(b)) == 0 {
			b = []byte("{}")
		}
		body = bytes.NewReader(b)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", apierr.ErrUpstreamUnavailable, err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	if req.RequestID != "" {
		hreq.Header.Set("X-Request-ID", req.RequestID)
	}

	resp, err := p.client.Do(hreq)
	if err != nil {
		return Response{}, transportErr(ctx, t, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Response{}, transportErr(ctx, t, err)
	}
	if !json.Valid(data) {
		return Response{}, fmt.Errorf("%w: %s answered %d with %d bytes of non-JSON",
			apierr.ErrUpstreamInvalidResponse, t.Service, resp.StatusCode, len(data))
	}
	return Response{Status: resp.StatusCode, Body: data}, nil
}

func transportErr(ctx context.Context, t Target, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", apierr.ErrUpstreamTimeout, t.Service, err)
	}
	return fmt.Errorf("%w: %s: %v", apierr.ErrUpstreamUnavailable, t.Service, err)
}

type forwardResult struct {
	resp Response
	err  error
}

// ServeTarget forwards req to t and writes exactly one response to w.
//
// The outbound call runs on its own goroutine and races a timer. If the
// timer fires first the call is cancelled, 504 is written, and the late
// result is drained and dropped by the responder.
func (p *Proxy) ServeTarget(w http.ResponseWriter, r *http.Request, t Target, req Request) {
	start := time.Now()
	logger := p.logger.WithContext(r.Context())
	rs := newResponder(w, logger)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	results := make(chan forwardResult, 1)
	go func() {
		resp, err := p.Forward(ctx, t, req)
		results <- forwardResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	var res forwardResult
	select {
	case res = <-results:
	case <-timer.C:
		cancel()
		res = forwardResult{err: fmt.Errorf("%w: %s: no response within %s", apierr.ErrUpstreamTimeout, t.Service, p.timeout)}
		p.respond(rs, res)
		late := <-results
		p.respond(rs, late)
		p.done(logger, t, req, rs, start, res.err)
		return
	}
	p.respond(rs, res)
	p.done(logger, t, req, rs, start, res.err)
}

func (p *Proxy) respond(rs *responder, res forwardResult) {
	if res.err != nil {
		rs.writeJSON(apierr.Status(res.err), apierr.GatewayEnvelope(res.err))
		return
	}
	rs.write(res.resp.Status, res.resp.Body)
}

func (p *Proxy) done(logger logpkg.Logger, t Target, req Request, rs *responder, start time.Time, err error) {
	elapsed := time.Since(start)
	p.latency.observe(t.Service, elapsed, err != nil)
	fields := []logpkg.Field{
		logpkg.Str("target", t.Service),
		logpkg.Str("method", req.Method),
		logpkg.Str("path", req.Path),
		logpkg.Int("status", rs.Status()),
		logpkg.Dur("elapsed", elapsed),
	}
	if err != nil {
		logger.Warn("Proxy request failed", append(fields, logpkg.Err(err))...)
		return
	}
	logger.Info("Proxied request", fields...)
}
