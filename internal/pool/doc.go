// Package pool provides the bounded connection pool shared by every
// stateful service in a process.
//
// A Pool leases *sql.Conn handles from database/sql. The number of leases is
// capped by a weighted semaphore sized to the SQL pool, and acquisition waits
// at most AcquireTimeout before failing closed with apierr.ErrPoolExhausted.
// Every lease must be released on every exit path; Release is idempotent so
// callers can defer it unconditionally.
//
// Usage:
//
//	p, err := pool.Open(pool.Options{DSN: "dreams.duckdb", MaxConns: 10, AcquireTimeout: 2 * time.Second})
//	if err != nil { /* handle */ }
//	defer p.Close()
//
//	err = p.WithConn(ctx, func(c *pool.Conn) error {
//	    _, err := c.ExecContext(ctx, "SELECT 1")
//	    return err
//	})
package pool
