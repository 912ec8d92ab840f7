package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cfgpkg "github.com/MFAIZAN20/dreamcanvas/internal/config"
	"github.com/MFAIZAN20/dreamcanvas/internal/hedge"
	"github.com/MFAIZAN20/dreamcanvas/internal/journal"
	"github.com/MFAIZAN20/dreamcanvas/internal/pool"
	"github.com/MFAIZAN20/dreamcanvas/internal/store"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
	// SkipJournal opens the runtime without a failure journal. Used by
	// read-only tooling that must not take the journal's directory lock.
	SkipJournal bool
}

// Runtime owns the shared resources of one stateful process: the SQL
// connection pool, the dream store on top of it, the failure journal, and
// the group tracking detached background writes.
type Runtime struct {
	config   cfgpkg.Config
	logger   logpkg.Logger
	pool     *pool.Pool
	repo     store.Repository
	journal  *journal.Journal
	detached *hedge.Group
}

// Open initializes storage and returns a Runtime.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	cfg := opts.Config

	dsn := cfg.StoreDSN()
	if err := ensureParentDir(dsn); err != nil {
		return nil, err
	}
	p, err := pool.Open(pool.Options{
		Driver:         cfg.Store.Driver,
		DSN:            dsn,
		MaxConns:       cfg.Store.MaxConns,
		AcquireTimeout: cfg.Store.AcquireTimeout.D(),
	})
	if err != nil {
		return nil, err
	}
	st := store.New(p, store.WithLogger(logger))
	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := st.Migrate(mctx); err != nil {
		_ = p.Close()
		return nil, err
	}

	rt := &Runtime{
		config:   cfg,
		logger:   logger,
		pool:     p,
		repo:     st,
		detached: &hedge.Group{},
	}
	if !opts.SkipJournal {
		j, err := journal.Open(cfg.JournalDir(), logger)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		rt.journal = j
	}
	logger.Info("Store ready",
		logpkg.Str("driver", cfg.Store.Driver),
		logpkg.Str("dsn", dsn),
		logpkg.Int("max_conns", cfg.Store.MaxConns))
	return rt, nil
}

// New assembles a Runtime from existing parts. Tests use it to inject fake
// repositories; j may be nil.
func New(cfg cfgpkg.Config, repo store.Repository, j *journal.Journal, logger logpkg.Logger) *Runtime {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Runtime{config: cfg, logger: logger, repo: repo, journal: j, detached: &hedge.Group{}}
}

func ensureParentDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, ":memory:") {
		return nil
	}
	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir %s: %w", dir, err)
	}
	return nil
}

// Close waits (bounded by the configured shutdown grace) for detached
// writes, then closes the pool. Writes still running get one more grace
// period to record their failure before the journal closes; later failures
// are only logged.
func (r *Runtime) Close() error {
	grace := r.config.Ingest.ShutdownGrace.D()
	if grace <= 0 {
		grace = 10 * time.Second
	}
	if n := r.detached.InFlight(); n > 0 {
		r.logger.Info("Waiting for background writes", logpkg.Int64("in_flight", n))
	}
	var errs []error
	if err := r.waitDetached(grace); err != nil {
		r.logger.Warn("Background writes still running at shutdown",
			logpkg.Int64("in_flight", r.detached.InFlight()))
		errs = append(errs, fmt.Errorf("wait background writes: %w", err))
	}
	if r.pool != nil {
		errs = append(errs, r.pool.Close())
	}
	if r.detached.InFlight() > 0 {
		if err := r.waitDetached(grace); err != nil {
			r.logger.Warn("Closing journal with background writes pending",
				logpkg.Int64("in_flight", r.detached.InFlight()))
		}
	}
	if r.journal != nil {
		errs = append(errs, r.journal.Close())
	}
	return errors.Join(errs...)
}

func (r *Runtime) waitDetached(d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return r.detached.Wait(ctx)
}

// CheckHealth pings the store.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.repo == nil {
		return errors.New("store not open")
	}
	return r.repo.Ping(ctx)
}

// PoolStats reports connection pool counters when a real pool is open.
func (r *Runtime) PoolStats() (pool.Stats, bool) {
	if r.pool == nil {
		return pool.Stats{}, false
	}
	return r.pool.Stats(), true
}

// Store returns the dream repository.
func (r *Runtime) Store() store.Repository { return r.repo }

// Journal returns the failure journal, or nil when opened without one.
func (r *Runtime) Journal() *journal.Journal { return r.journal }

// Detached returns the group tracking background writes.
func (r *Runtime) Detached() *hedge.Group { return r.detached }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the process logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }
