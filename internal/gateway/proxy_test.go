package gateway

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/MFAIZAN20/dreamcanvas/internal/config"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// pointAt returns the default services with name redirected to rawURL.
func pointAt(t *testing.T, services map[string]cfgpkg.ServiceConfig, name, rawURL string) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	services[name] = cfgpkg.ServiceConfig{Host: host, Port: port}
}

// deadAddr returns a loopback URL nobody listens on.
func deadAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return "http://" + addr
}

func newTestHandler(t *testing.T, timeout time.Duration, upstreams map[string]string) (*Handler, *Proxy) {
	t.Helper()
	services := cfgpkg.DefaultServices()
	for name, u := range upstreams {
		pointAt(t, services, name, u)
	}
	reg, err := NewRegistry(DefaultRoutes(), services)
	require.NoError(t, err)
	proxy := NewProxy(timeout)
	return NewHandler(reg, proxy, nil), proxy
}

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m), string(b))
	return m
}

func TestForwardPassesThroughStatusAndBody(t *testing.T) {
	var got struct {
		method, path, query, body, ctype, reqID string
	}
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got.method, got.path, got.query, got.body = r.Method, r.URL.Path, r.URL.RawQuery, string(b)
		got.ctype, got.reqID = r.Header.Get("Content-Type"), r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	defer up.Close()
	h, proxy := newTestHandler(t, time.Second, map[string]string{cfgpkg.ServiceVoting: up.URL})

	req := httptest.NewRequest(http.MethodPost, "/api/vote/7?x=1", strings.NewReader(`{"a":1}`))
	req = req.WithContext(logpkg.ContextWithRequestID(req.Context(), "req-123"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/like/7", got.path)
	assert.Equal(t, "x=1", got.query)
	assert.Equal(t, `{"a":1}`, got.body)
	assert.Equal(t, "application/json", got.ctype)
	assert.Equal(t, "req-123", got.reqID)

	lat := proxy.Latency()[cfgpkg.ServiceVoting]
	assert.Equal(t, int64(1), lat.Count)
	assert.Equal(t, int64(0), lat.Errors)
}

func TestForwardBodyRules(t *testing.T) {
	var lastBody string
	var mu sync.Mutex
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		lastBody = string(b)
		mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer up.Close()
	h, _ := newTestHandler(t, time.Second, map[string]string{cfgpkg.ServiceIngestor: up.URL})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/dreams", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "{}", lastBody, "empty write body is sent as {}")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dreams", strings.NewReader(`{"ignored":true}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", lastBody, "GET carries no body")
}

func TestInvalidRequestBodyIsRejectedBeforeForwarding(t *testing.T) {
	var calls atomic.Int32
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer up.Close()
	h, _ := newTestHandler(t, time.Second, map[string]string{cfgpkg.ServiceIngestor: up.URL})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/dreams", strings.NewReader(`{not json`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int32(0), calls.Load())
}

func TestUnknownRouteIs404(t *testing.T) {
	h, _ := newTestHandler(t, time.Second, nil)
	for _, p := range []string{"/api/unknown", "/api/dreamsX"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, p)
		assert.Equal(t, map[string]any{"error": "Not found"}, decode(t, w.Body.Bytes()))
	}
}

func TestInvalidUpstreamJSONIs500(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer up.Close()
	h, _ := newTestHandler(t, time.Second, map[string]string{cfgpkg.ServiceGallery: up.URL})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/gallery", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{"error": "Invalid response from service"}, decode(t, w.Body.Bytes()))
}

func TestUnreachableIs500Quickly(t *testing.T) {
	h, _ := newTestHandler(t, 5*time.Second, map[string]string{cfgpkg.ServiceStory: deadAddr(t)})

	start := time.Now()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/stories", strings.NewReader(`{}`)))
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{
		"error":   "Service unavailable",
		"message": "Failed to connect to service",
	}, decode(t, w.Body.Bytes()))
	assert.Less(t, elapsed, time.Second, "connection refusal must not wait for the timeout")
}

func TestSilentTargetIs504AtBound(t *testing.T) {
	release := make(chan struct{})
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer up.Close()
	defer close(release)

	const bound = 80 * time.Millisecond
	h, proxy := newTestHandler(t, bound, map[string]string{cfgpkg.ServiceTrending: up.URL})

	start := time.Now()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/trending", nil))
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, map[string]any{"error": "Service timeout"}, decode(t, w.Body.Bytes()))
	assert.GreaterOrEqual(t, elapsed, bound)
	assert.Less(t, elapsed, bound+time.Second)
	assert.Equal(t, int64(1), proxy.Latency()[cfgpkg.ServiceTrending].Errors)
}

// countingWriter records how many times a response was started.
type countingWriter struct {
	*httptest.ResponseRecorder
	headers atomic.Int32
}

func (c *countingWriter) WriteHeader(code int) {
	c.headers.Add(1)
	c.ResponseRecorder.WriteHeader(code)
}

func TestExactlyOneResponseUnderRaces(t *testing.T) {
	const bound = 20 * time.Millisecond
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Answer right around the bound so both branches get to win.
		time.Sleep(bound)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer up.Close()
	h, _ := newTestHandler(t, bound, map[string]string{cfgpkg.ServiceArt: up.URL})

	for i := 0; i < 30; i++ {
		cw := &countingWriter{ResponseRecorder: httptest.NewRecorder()}
		h.ServeHTTP(cw, httptest.NewRequest(http.MethodGet, "/api/art", nil))
		require.Equal(t, int32(1), cw.headers.Load(), "iteration %d", i)
		require.Contains(t, []int{http.StatusOK, http.StatusGatewayTimeout}, cw.Code)
	}
}

func TestResponderDropsSecondWrite(t *testing.T) {
	w := httptest.NewRecorder()
	rs := newResponder(w, logpkg.NewNopLogger())
	assert.True(t, rs.writeJSON(http.StatusGatewayTimeout, map[string]string{"error": "Service timeout"}))
	assert.False(t, rs.write(http.StatusOK, []byte(`{"late":true}`)))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, http.StatusGatewayTimeout, rs.Status())
	assert.NotContains(t, w.Body.String(), "late")
}
