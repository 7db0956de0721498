package lock

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

type MySQLLocker struct {
	db       *sql.DB
	mu       sync.Mutex
	sessions map[string]*sql.Conn
}

// NewMySQLLocker constructs a MySQL-based advisory lock manager.
// Each held lock pins a dedicated connection because MySQL scopes
// GET_LOCK ownership to the session.
func NewMySQLLocker(db *sql.DB) *MySQLLocker {
	return &MySQLLocker{
		db:       db,
		sessions: make(map[string]*sql.Conn),
	}
}

// Acquire obtains a named MySQL advisory lock on a pinned connection.
func (l *MySQLLocker) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	if l.holds(key) {
		return ErrAlreadyHeld
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return err
	}

	var acquired int
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", key, lockTimeoutSeconds(ttl)).Scan(&acquired); err != nil {
		_ = conn.Close()
		return err
	}
	if acquired != 1 {
		_ = conn.Close()
		return ErrNotAcquired
	}

	l.mu.Lock()
	l.sessions[key] = conn
	l.mu.Unlock()

	return nil
}

// Release frees a named MySQL advisory lock and returns its connection.
func (l *MySQLLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	conn, ok := l.sessions[key]
	if ok {
		delete(l.sessions, key)
	}
	l.mu.Unlock()

	if !ok {
		return nil
	}

	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "SELECT RELEASE_LOCK(?)", key); err != nil {
		return err
	}
	return nil
}

func (l *MySQLLocker) holds(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.sessions[key]
	return ok
}

func lockTimeoutSeconds(ttl time.Duration) int {
	seconds := int(ttl.Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}
