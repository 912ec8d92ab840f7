package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MFAIZAN20/dreamcanvas/internal/apierr"
	"github.com/MFAIZAN20/dreamcanvas/internal/pool"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// DefaultUserID owns dreams submitted without a user.
const DefaultUserID int64 = 1

// Dream is a persisted record.
type Dream struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        string    `json:"tags"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewDream is the input to Insert.
type NewDream struct {
	UserID      int64
	Title       string
	Description string
	Tags        string
	CreatedAt   time.Time
}

// Repository is the subset of Store used by the services. Tests substitute
// slow or failing fakes.
type Repository interface {
	Insert(ctx context.Context, d NewDream) (Dream, error)
	Get(ctx context.Context, id int64) (Dream, error)
	List(ctx context.Context, limit int) ([]Dream, error)
	ListByUser(ctx context.Context, userID int64) ([]Dream, error)
	IncrementLikes(ctx context.Context, id int64) (int, error)
	Ping(ctx context.Context) error
}

// Store is the DuckDB-backed Repository.
type Store struct {
	pool        *pool.Pool
	logger      logpkg.Logger
	maxConflict int

	// likeMu serialises increments from this process so concurrent likes
	// on one row do not abort each other.
	likeMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l logpkg.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConflictRetries bounds retries of write-write conflicts on increments.
func WithConflictRetries(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.maxConflict = n
		}
	}
}

// New returns a Store on p. Call Migrate before first use.
func New(p *pool.Pool, opts ...Option) *Store {
	s := &Store{pool: p, logger: logpkg.NewNopLogger(), maxConflict: 3}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.WithComponent("store")
	return s
}

var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS dreams_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS dreams (
		id BIGINT PRIMARY KEY DEFAULT nextval('dreams_id_seq'),
		user_id BIGINT DEFAULT 1,
		title VARCHAR NOT NULL,
		prompt VARCHAR NOT NULL,
		tags VARCHAR DEFAULT '',
		likes INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT current_timestamp
	)`,
	`CREATE INDEX IF NOT EXISTS dreams_user_idx ON dreams(user_id)`,
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	return s.pool.WithConn(ctx, func(c *pool.Conn) error {
		for _, stmt := range schema {
			if _, err := c.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate: %w", classify(err))
			}
		}
		return nil
	})
}

const dreamColumns = `id, user_id, title, prompt, tags, likes, created_at`

type scanner interface{ Scan(dest ...any) error }

func scanDream(r scanner) (Dream, error) {
	var d Dream
	var tags sql.NullString
	var userID sql.NullInt64
	if err := r.Scan(&d.ID, &userID, &d.Title, &d.Description, &tags, &d.Likes, &d.CreatedAt); err != nil {
		return Dream{}, err
	}
	d.Tags = tags.String
	d.UserID = DefaultUserID
	if userID.Valid {
		d.UserID = userID.Int64
	}
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}

// Insert stores a new dream and returns the canonical record.
func (s *Store) Insert(ctx context.Context, nd NewDream) (Dream, error) {
	if nd.UserID == 0 {
		nd.UserID = DefaultUserID
	}
	if nd.CreatedAt.IsZero() {
		nd.CreatedAt = time.Now()
	}
	var out Dream
	err := s.pool.WithConn(ctx, func(c *pool.Conn) error {
		row := c.QueryRowContext(ctx,
			`INSERT INTO dreams (user_id, title, prompt, tags, created_at) VALUES (?, ?, ?, ?, ?) RETURNING `+dreamColumns,
			nd.UserID, nd.Title, nd.Description, nd.Tags, nd.CreatedAt.UTC())
		d, err := scanDream(row)
		if err != nil {
			return fmt.Errorf("insert dream: %w", classify(err))
		}
		out = d
		return nil
	})
	return out, err
}

// Get fetches one dream or returns apierr.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (Dream, error) {
	var out Dream
	err := s.pool.WithConn(ctx, func(c *pool.Conn) error {
		d, err := scanDream(c.QueryRowContext(ctx, `SELECT `+dreamColumns+` FROM dreams WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("dream %d: %w", id, apierr.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get dream %d: %w", id, classify(err))
		}
		out = d
		return nil
	})
	return out, err
}

// List returns up to limit dreams, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Dream, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx, `SELECT `+dreamColumns+` FROM dreams ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

// ListByUser returns every dream of one user, newest first.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]Dream, error) {
	return s.query(ctx, `SELECT `+dreamColumns+` FROM dreams WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Dream, error) {
	out := []Dream{}
	err := s.pool.WithConn(ctx, func(c *pool.Conn) error {
		rows, err := c.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("list dreams: %w", classify(err))
		}
		defer rows.Close()
		for rows.Next() {
			d, err := scanDream(rows)
			if err != nil {
				return fmt.Errorf("scan dream: %w", classify(err))
			}
			out = append(out, d)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("list dreams: %w", classify(err))
		}
		return nil
	})
	return out, err
}

// IncrementLikes atomically adds one like and returns the new count.
// Write-write conflicts with other writers are retried a bounded number of
// times.
func (s *Store) IncrementLikes(ctx context.Context, id int64) (int, error) {
	var likes int
	var err error
	for attempt := 0; ; attempt++ {
		err = s.pool.WithConn(ctx, func(c *pool.Conn) error {
			s.likeMu.Lock()
			defer s.likeMu.Unlock()
			n, err := incrementTx(ctx, c, id)
			likes = n
			return err
		})
		if err == nil || !isConflict(err) || attempt >= s.maxConflict {
			break
		}
		s.logger.Debug("like conflict, retrying", logpkg.Int64("dream_id", id), logpkg.Int("attempt", attempt+1))
		select {
		case <-ctx.Done():
			return 0, classify(ctx.Err())
		case <-time.After(time.Duration(attempt+1) * 5 * time.Millisecond):
		}
	}
	switch {
	case err == nil:
		return likes, nil
	case errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("dream %d: %w", id, apierr.ErrNotFound)
	case errors.Is(err, apierr.ErrPoolExhausted), errors.Is(err, pool.ErrClosed):
		return 0, err
	default:
		return 0, fmt.Errorf("like dream %d: %w", id, classify(err))
	}
}

// incrementTx bumps the counter and reads it back in one transaction.
// DuckDB rejects UPDATE ... RETURNING on tables with a primary key.
func incrementTx(ctx context.Context, c *pool.Conn, id int64) (int, error) {
	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE dreams SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, sql.ErrNoRows
	}
	var likes int
	if err := tx.QueryRowContext(ctx, `SELECT likes FROM dreams WHERE id = ?`, id).Scan(&likes); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return likes, nil
}

// Ping checks the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Stats exposes the pool counters for health output.
func (s *Store) Stats() pool.Stats { return s.pool.Stats() }

func isConflict(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Conflict") || strings.Contains(msg, "conflict")
}

// classify wraps driver errors in the storage taxonomy, leaving sentinels
// that are already classified untouched.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apierr.ErrPoolExhausted), errors.Is(err, apierr.ErrStorage),
		errors.Is(err, apierr.ErrStorageDeadlineExceeded), errors.Is(err, sql.ErrNoRows):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", apierr.ErrStorageDeadlineExceeded, err)
	default:
		return fmt.Errorf("%w: %v", apierr.ErrStorage, err)
	}
}
