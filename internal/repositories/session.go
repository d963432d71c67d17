package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SessionRepository stores expiring key/value flags.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Get returns the value for key. Expired keys are reported as missing.
func (r *SessionRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value     string
		expiresAt time.Time
	)

	err := r.db.QueryRowContext(ctx, `SELECT value, expires_at FROM sessions WHERE key = ?`, key).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query session: %w", err)
	}

	if !expiresAt.After(r.now()) {
		return "", false, nil
	}
	return value, true, nil
}

// Set stores value under key for ttl.
func (r *SessionRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", ttl)
	}

	query := `
		INSERT INTO sessions (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, value, r.now().Add(ttl).UTC()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes key.
func (r *SessionRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Purge deletes expired rows and returns how many were removed.
func (r *SessionRepository) Purge(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
