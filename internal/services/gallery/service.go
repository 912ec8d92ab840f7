// Package gallerysvc serves the public gallery: the most recent dreams with
// descriptions shortened for display, optionally narrowed by a CEL filter.
package gallerysvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/MFAIZAN20/dreamcanvas/internal/apierr"
	"github.com/MFAIZAN20/dreamcanvas/internal/runtime"
	"github.com/MFAIZAN20/dreamcanvas/internal/store"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// PreviewLen is the description length shown before truncation.
const PreviewLen = 100

// Item is one gallery entry.
type Item struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Likes       int    `json:"likes"`
	CreatedAt   string `json:"created_at"`
	Tags        string `json:"tags"`
}

// Service implements the gallery.
type Service struct {
	repo   store.Repository
	logger logpkg.Logger
	limit  int
}

func New(rt *runtime.Runtime) *Service { return NewWithLogger(rt, nil) }

func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = rt.Logger()
	}
	return &Service{repo: rt.Store(), logger: logger.WithComponent("gallery"), limit: rt.Config().Ingest.ListLimit}
}

// List returns the recent dreams that match filter. An empty filter matches
// everything; a filter that does not compile is an apierr.ErrInvalidInput.
func (s *Service) List(ctx context.Context, filter string) ([]Item, error) {
	f, err := newFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: filter: %v", apierr.ErrInvalidInput, err)
	}
	dreams, err := s.repo.List(ctx, s.limit)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(dreams))
	for _, d := range dreams {
		if !f.match(d) {
			continue
		}
		out = append(out, ToItem(d))
	}
	return out, nil
}

// ToItem shapes a stored dream for display.
func ToItem(d store.Dream) Item {
	title := d.Title
	if title == "" {
		title = "Untitled Dream"
	}
	return Item{
		ID:          d.ID,
		Title:       title,
		Description: Preview(d.Description),
		Likes:       d.Likes,
		CreatedAt:   d.CreatedAt.UTC().Format(time.RFC3339),
		Tags:        d.Tags,
	}
}

// Preview shortens s to PreviewLen runes plus "..." when it is longer.
func Preview(s string) string {
	r := []rune(s)
	if len(r) <= PreviewLen {
		return s
	}
	return string(r[:PreviewLen]) + "..."
}

// filter wraps a compiled CEL program evaluated per dream. A disabled filter
// matches everything.
type filter struct {
	prog    cel.Program
	enabled bool
}

func newFilter(expr string) (filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.IntType),
		cel.Variable("title", cel.StringType),
		cel.Variable("description", cel.StringType),
		cel.Variable("tags", cel.StringType),
		cel.Variable("likes", cel.IntType),
		cel.Variable("created_ms", cel.IntType),
	)
	if err != nil {
		return filter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return filter{}, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return filter{}, fmt.Errorf("expression must be boolean, got %s", ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return filter{}, err
	}
	return filter{prog: prog, enabled: true}, nil
}

func (f filter) match(d store.Dream) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"id":          d.ID,
		"title":       d.Title,
		"description": d.Description,
		"tags":        d.Tags,
		"likes":       int64(d.Likes),
		"created_ms":  d.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
