// Package votingsvc increments like counters.
//
// A storage failure can be answered with a degraded, fabricated count when
// fallback is enabled. The degraded response is always marked so clients
// can tell it apart from a real count.
package votingsvc

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/MFAIZAN20/dreamcanvas/internal/apierr"
	"github.com/MFAIZAN20/dreamcanvas/internal/runtime"
	"github.com/MFAIZAN20/dreamcanvas/internal/store"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

const (
	MessageLiked    = "Thank you for liking this dream!"
	MessageFallback = "Liked (fallback)"
)

// LikeResult is the response to a like.
type LikeResult struct {
	DreamID  int64  `json:"dream_id"`
	Likes    int    `json:"likes"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Degraded bool   `json:"degraded,omitempty"`
}

// Service implements the like counter.
type Service struct {
	repo     store.Repository
	logger   logpkg.Logger
	fallback bool
}

func New(rt *runtime.Runtime) *Service { return NewWithLogger(rt, nil) }

func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = rt.Logger()
	}
	return &Service{
		repo:     rt.Store(),
		logger:   logger.WithComponent("voting"),
		fallback: rt.Config().Voting.FallbackOnError,
	}
}

// Like adds one like to a dream. A missing dream is apierr.ErrNotFound
// whatever the fallback setting.
func (s *Service) Like(ctx context.Context, id int64) (LikeResult, error) {
	likes, err := s.repo.IncrementLikes(ctx, id)
	if err == nil {
		return LikeResult{DreamID: id, Likes: likes, Status: "liked", Message: MessageLiked}, nil
	}
	if errors.Is(err, apierr.ErrNotFound) {
		return LikeResult{}, err
	}
	if !s.fallback {
		s.logger.Error("Like failed", logpkg.Int64("dream_id", id), logpkg.Err(err))
		return LikeResult{}, err
	}
	s.logger.Warn("Like failed, answering degraded", logpkg.Int64("dream_id", id), logpkg.Err(err))
	return LikeResult{
		DreamID:  id,
		Likes:    rand.IntN(100),
		Status:   "liked",
		Message:  MessageFallback,
		Degraded: true,
	}, nil
}
