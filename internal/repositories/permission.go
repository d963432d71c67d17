package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tclive/internal/models"
)

// PermissionRepository persists notification permission decisions per backend.
type PermissionRepository struct {
	db *sql.DB
}

// NewPermissionRepository creates a new [PermissionRepository] with the given database connection
func NewPermissionRepository(db *sql.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// GetPermission returns the stored decision, or [models.PermissionDefault] when none was recorded.
func (r *PermissionRepository) GetPermission(ctx context.Context, backend string) (models.Permission, error) {
	var state string
	err := r.db.QueryRowContext(ctx, `SELECT state FROM permissions WHERE backend = ?`, backend).Scan(&state)
	if err == sql.ErrNoRows {
		return models.PermissionDefault, nil
	}
	if err != nil {
		return models.PermissionDefault, fmt.Errorf("failed to query permission: %w", err)
	}
	return models.Permission(state), nil
}

// SetPermission upserts the decision for backend.
func (r *PermissionRepository) SetPermission(ctx context.Context, backend string, p models.Permission) error {
	switch p {
	case models.PermissionDefault, models.PermissionGranted, models.PermissionDenied:
	default:
		return fmt.Errorf("invalid permission state: %q", p)
	}

	query := `
		INSERT INTO permissions (backend, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(backend) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, backend, string(p), time.Now()); err != nil {
		return fmt.Errorf("failed to save permission: %w", err)
	}
	return nil
}

// Reset clears the decision for backend so the next request prompts again.
func (r *PermissionRepository) Reset(ctx context.Context, backend string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE backend = ?`, backend); err != nil {
		return fmt.Errorf("failed to reset permission: %w", err)
	}
	return nil
}
