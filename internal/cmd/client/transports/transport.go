// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"
	"encoding/json"
	"fmt"
)

// SubmitRequest is the body of a new dream.
type SubmitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
}

// StatusError is a non-2xx answer carrying the server's error envelope.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// DreamsTransport abstracts how the CLI reaches the public API. Responses
// are returned as raw JSON so the CLI prints exactly what the server sent.
type DreamsTransport interface {
	Submit(ctx context.Context, req SubmitRequest) (json.RawMessage, error)
	Get(ctx context.Context, id int64) (json.RawMessage, error)
	List(ctx context.Context) (json.RawMessage, error)
	Like(ctx context.Context, id int64) (json.RawMessage, error)
	Gallery(ctx context.Context, filter string) (json.RawMessage, error)
	Portfolio(ctx context.Context, userID int64) (json.RawMessage, error)
	Health(ctx context.Context, deep bool) (json.RawMessage, error)
}
