package ingestsvc

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/MFAIZAN20/dreamcanvas/internal/apierr"
	"github.com/MFAIZAN20/dreamcanvas/internal/hedge"
	"github.com/MFAIZAN20/dreamcanvas/internal/journal"
	"github.com/MFAIZAN20/dreamcanvas/internal/runtime"
	"github.com/MFAIZAN20/dreamcanvas/internal/store"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

const (
	StatusReceived = "received"

	MessageStored     = "Dream successfully captured and stored!"
	MessageBackground = "Dream captured! Processing in background..."
)

// SubmitRequest is a dream as sent by a client.
type SubmitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	UserID      int64  `json:"user_id,omitempty"`
}

// Submission is the acknowledgment returned by Submit.
type Submission struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Tags         string `json:"tags"`
	Status       string `json:"status"`
	Message      string `json:"message"`
	Timestamp    string `json:"timestamp"`
	ResponseTime string `json:"response_time"`
	Provisional  bool   `json:"provisional,omitempty"`
}

// Recorder persists failed background writes.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// Service implements the ingestion surface.
type Service struct {
	repo      store.Repository
	journal   Recorder
	detached  *hedge.Group
	logger    logpkg.Logger
	deadline  time.Duration
	listLimit int
	now       func() time.Time
}

// New creates an ingest service with a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, nil)
}

// NewWithLogger creates an ingest service bound to the runtime's store,
// journal and detached-write group.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = rt.Logger()
	}
	var rec Recorder
	if j := rt.Journal(); j != nil {
		rec = j
	}
	cfg := rt.Config()
	return &Service{
		repo:      rt.Store(),
		journal:   rec,
		detached:  rt.Detached(),
		logger:    logger.WithComponent("ingest"),
		deadline:  cfg.Ingest.WriteDeadline.D(),
		listLimit: cfg.Ingest.ListLimit,
		now:       time.Now,
	}
}

// Validate checks a submission without touching storage.
func Validate(req SubmitRequest) error {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return apierr.Validation("Title and description are required")
	}
	return nil
}

// Submit validates req and persists it, answering within the write deadline.
// An insert error that arrives before the deadline is returned to the caller.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (Submission, error) {
	start := s.now()
	if err := Validate(req); err != nil {
		return Submission{}, err
	}
	nd := store.NewDream{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		CreatedAt:   start,
	}
	provisionalID := start.UnixMilli() + rand.Int64N(1000)

	out, won := hedge.Race(ctx, hedge.Options[store.Dream]{
		Deadline: s.deadline,
		Group:    s.detached,
		OnDetached: func(o hedge.Outcome[store.Dream]) {
			s.finishDetached(provisionalID, req, o)
		},
	}, func(wctx context.Context) (store.Dream, error) {
		return s.repo.Insert(wctx, nd)
	})

	if won {
		if out.Err != nil {
			s.logger.Error("Dream insert failed", logpkg.Err(out.Err), logpkg.Dur("elapsed", out.Elapsed))
			return Submission{}, fmt.Errorf("save dream: %w", out.Err)
		}
		d := out.Value
		elapsed := s.now().Sub(start)
		s.logger.Info("Dream stored", logpkg.Int64("id", d.ID), logpkg.Dur("elapsed", elapsed))
		return Submission{
			ID:           d.ID,
			Title:        d.Title,
			Description:  d.Description,
			Tags:         d.Tags,
			Status:       StatusReceived,
			Message:      MessageStored,
			Timestamp:    d.CreatedAt.UTC().Format(time.RFC3339Nano),
			ResponseTime: responseTime(elapsed),
		}, nil
	}

	elapsed := s.now().Sub(start)
	s.logger.Warn("Store slow, answering provisionally",
		logpkg.Int64("provisional_id", provisionalID),
		logpkg.Dur("deadline", s.deadline))
	return Submission{
		ID:           provisionalID,
		Title:        req.Title,
		Description:  req.Description,
		Tags:         req.Tags,
		Status:       StatusReceived,
		Message:      MessageBackground,
		Timestamp:    start.UTC().Format(time.RFC3339Nano),
		ResponseTime: responseTime(elapsed),
		Provisional:  true,
	}, nil
}

func (s *Service) finishDetached(provisionalID int64, req SubmitRequest, o hedge.Outcome[store.Dream]) {
	if o.Err == nil {
		s.logger.Info("Background insert landed",
			logpkg.Int64("provisional_id", provisionalID),
			logpkg.Int64("store_id", o.Value.ID),
			logpkg.Dur("elapsed", o.Elapsed))
		return
	}
	s.logger.Error("Background insert failed",
		logpkg.Int64("provisional_id", provisionalID),
		logpkg.Err(o.Err),
		logpkg.Dur("elapsed", o.Elapsed))
	if s.journal == nil {
		return
	}
	userID := req.UserID
	if userID == 0 {
		userID = store.DefaultUserID
	}
	_, err := s.journal.Record(context.Background(), journal.Entry{
		ProvisionalID: provisionalID,
		UserID:        userID,
		Title:         req.Title,
		Description:   req.Description,
		Tags:          req.Tags,
		Error:         o.Err.Error(),
	})
	if err != nil {
		s.logger.Error("Journal write failed",
			logpkg.Int64("provisional_id", provisionalID),
			logpkg.Int64("user_id", userID),
			logpkg.Str("title", req.Title),
			logpkg.Str("description", req.Description),
			logpkg.Str("tags", req.Tags),
			logpkg.Err(err))
	}
}

// List returns the most recent dreams, newest first.
func (s *Service) List(ctx context.Context) ([]store.Dream, error) {
	return s.repo.List(ctx, s.listLimit)
}

// Get returns one dream or apierr.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (store.Dream, error) {
	return s.repo.Get(ctx, id)
}

// Replay re-inserts one journaled write. It is the journal.ReplayFunc used
// by the CLI.
func (s *Service) Replay(ctx context.Context, e journal.Entry) (int64, error) {
	d, err := s.repo.Insert(ctx, store.NewDream{
		UserID:      e.UserID,
		Title:       e.Title,
		Description: e.Description,
		Tags:        e.Tags,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return 0, err
	}
	return d.ID, nil
}

// DatabaseStatus reports "connected" or "disconnected" for health output.
func (s *Service) DatabaseStatus(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.repo.Ping(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Debug("Health ping failed", logpkg.Err(err))
		}
		return "disconnected"
	}
	return "connected"
}

// InFlight returns the number of background inserts still running.
func (s *Service) InFlight() int64 { return s.detached.InFlight() }

func responseTime(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}
