// Package distlock guards the run loop against concurrent execution across
// processes. Redis is the preferred backend; without it the lock degrades
// to a Postgres advisory lock held on the connection pool the engine
// already carries.
package distlock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is a non-blocking, advisory, single-holder lock. An instance is
// good for one acquire/release cycle from one goroutine.
type DistLock interface {
	// Acquire attempts the lock without blocking. false with a nil error
	// means another holder has it.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock up if this instance still holds it.
	Release(ctx context.Context) error
}

// NewLock picks the backend: Redis when a client is available (works across
// hosts), otherwise a Postgres advisory lock.
func NewLock(redisClient *redis.Client, db *sql.DB, name string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, name, ttl)
	}
	return NewPGAdvisoryLock(db, name)
}

// PGAdvisoryLock holds pg_try_advisory_lock on a dedicated connection.
// Advisory locks are session-scoped, so the connection is pinned for the
// lifetime of the lock; if the process dies the session closes and the
// database releases the lock on its own.
type PGAdvisoryLock struct {
	db   *sql.DB
	key  int64
	conn *sql.Conn
}

// NewPGAdvisoryLock derives a stable 64-bit lock key from the name.
func NewPGAdvisoryLock(db *sql.DB, name string) *PGAdvisoryLock {
	h := fnv.New64a()
	io.WriteString(h, name)
	return &PGAdvisoryLock{db: db, key: int64(h.Sum64())}
}

func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("advisory lock conn: %w", err)
	}
	var got bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, l.key).Scan(&got); err != nil {
		conn.Close()
		return false, fmt.Errorf("advisory lock: %w", err)
	}
	if !got {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	conn := l.conn
	l.conn = nil
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, l.key); err != nil {
		return fmt.Errorf("advisory unlock: %w", err)
	}
	return nil
}
