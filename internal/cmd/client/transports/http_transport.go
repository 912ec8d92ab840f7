package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// HTTPTransport implements DreamsTransport against the gateway's /api routes.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport returns a transport for baseURL. A nil client means
// http.DefaultClient.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: baseURL, client: client}
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		var env struct {
			Error string `json:"error"`
		}
		msg := string(b)
		if json.Unmarshal(b, &env) == nil && env.Error != "" {
			msg = env.Error
		}
		return json.RawMessage(b), &StatusError{Status: resp.StatusCode, Message: msg}
	}
	return json.RawMessage(b), nil
}

func (t *HTTPTransport) Submit(ctx context.Context, req SubmitRequest) (json.RawMessage, error) {
	return t.do(ctx, http.MethodPost, "/api/dreams", req)
}

func (t *HTTPTransport) Get(ctx context.Context, id int64) (json.RawMessage, error) {
	return t.do(ctx, http.MethodGet, "/api/dreams/"+strconv.FormatInt(id, 10), nil)
}

func (t *HTTPTransport) List(ctx context.Context) (json.RawMessage, error) {
	return t.do(ctx, http.MethodGet, "/api/dreams", nil)
}

func (t *HTTPTransport) Like(ctx context.Context, id int64) (json.RawMessage, error) {
	return t.do(ctx, http.MethodPost, "/api/vote/"+strconv.FormatInt(id, 10), nil)
}

func (t *HTTPTransport) Gallery(ctx context.Context, filter string) (json.RawMessage, error) {
	path := "/api/gallery"
	if filter != "" {
		path += "?filter=" + url.QueryEscape(filter)
	}
	return t.do(ctx, http.MethodGet, path, nil)
}

func (t *HTTPTransport) Portfolio(ctx context.Context, userID int64) (json.RawMessage, error) {
	return t.do(ctx, http.MethodGet, "/api/portfolio/"+strconv.FormatInt(userID, 10), nil)
}

func (t *HTTPTransport) Health(ctx context.Context, deep bool) (json.RawMessage, error) {
	path := "/health"
	if deep {
		path += "?deep=1"
	}
	return t.do(ctx, http.MethodGet, path, nil)
}
