package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/shared"
)

// ScoreRepository persists the scoreboard audit trail.
//
// It satisfies scoreboard.Recorder, so every successful update is written as a [models.ScoreChange].
type ScoreRepository struct {
	db *sql.DB
}

// NewScoreRepository creates a new [ScoreRepository] with the given database connection
func NewScoreRepository(db *sql.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Create inserts a change with generated ID and sequence
func (r *ScoreRepository) Create(change *models.ScoreChange) error {
	if err := change.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "score_changes")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	change.SetID(id)
	change.Sequence = sequence

	query := `
		INSERT INTO score_changes (id, sequence, house, sport, old_score, new_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, change.House, change.Sport, change.OldScore, change.NewScore, change.CreatedAt().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert score change: %w", err)
	}

	return nil
}

// RecordScore persists a scoreboard update.
func (r *ScoreRepository) RecordScore(u models.ScoreUpdate) error {
	return r.Create(models.NewScoreChange(u))
}

// List returns the most recent changes, newest first. limit <= 0 returns all rows.
func (r *ScoreRepository) List(limit int) ([]*models.ScoreChange, error) {
	query := `
		SELECT id, sequence, house, sport, old_score, new_score, created_at
		FROM score_changes
		ORDER BY sequence DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query score changes: %w", err)
	}
	defer rows.Close()

	var changes []*models.ScoreChange
	for rows.Next() {
		var (
			change    models.ScoreChange
			id        string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &change.Sequence, &change.House, &change.Sport, &change.OldScore, &change.NewScore, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan score change: %w", err)
		}
		change.SetID(id)
		change.SetCreatedAt(createdAt)
		changes = append(changes, &change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score changes: %w", err)
	}

	return changes, nil
}

// Latest returns the newest recorded score per house and sport.
func (r *ScoreRepository) Latest() (map[string]map[string]int, error) {
	query := `
		SELECT c.house, c.sport, c.new_score
		FROM score_changes c
		JOIN (
			SELECT house, sport, MAX(sequence) AS sequence
			FROM score_changes
			GROUP BY house, sport
		) latest ON latest.sequence = c.sequence
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest scores: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]map[string]int)
	for rows.Next() {
		var (
			house, sport string
			score        int
		)
		if err := rows.Scan(&house, &sport, &score); err != nil {
			return nil, fmt.Errorf("failed to scan latest score: %w", err)
		}
		if latest[house] == nil {
			latest[house] = make(map[string]int)
		}
		latest[house][sport] = score
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating latest scores: %w", err)
	}

	return latest, nil
}

// Count returns the number of recorded changes.
func (r *ScoreRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM score_changes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count score changes: %w", err)
	}
	return n, nil
}
