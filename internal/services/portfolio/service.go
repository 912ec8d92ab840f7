// Package portfoliosvc lists the dreams of a single user.
package portfoliosvc

import (
	"context"

	"github.com/MFAIZAN20/dreamcanvas/internal/runtime"
	gallerysvc "github.com/MFAIZAN20/dreamcanvas/internal/services/gallery"
	"github.com/MFAIZAN20/dreamcanvas/internal/store"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// EmptyMessage accompanies an empty portfolio.
const EmptyMessage = "No dreams found. Start creating your first dream!"

// Empty is the body returned for a user without dreams.
type Empty struct {
	Dreams  []gallerysvc.Item `json:"dreams"`
	Message string            `json:"message"`
	UserID  int64             `json:"user_id"`
}

type Service struct {
	repo   store.Repository
	logger logpkg.Logger
}

func New(rt *runtime.Runtime) *Service { return NewWithLogger(rt, nil) }

func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = rt.Logger()
	}
	return &Service{repo: rt.Store(), logger: logger.WithComponent("portfolio")}
}

// Dreams returns the user's dreams newest first, shaped like gallery items.
func (s *Service) Dreams(ctx context.Context, userID int64) ([]gallerysvc.Item, error) {
	dreams, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Portfolio query failed", logpkg.Int64("user_id", userID), logpkg.Err(err))
		return nil, err
	}
	out := make([]gallerysvc.Item, 0, len(dreams))
	for _, d := range dreams {
		out = append(out, gallerysvc.ToItem(d))
	}
	return out, nil
}
