package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestNextSequence(t *testing.T) {
	t.Run("increments per call", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		for want := 1; want <= 3; want++ {
			got, err := NextSequence(db, "score_changes")
			if err != nil {
				t.Fatalf("failed to get sequence: %v", err)
			}
			if got != want {
				t.Errorf("expected sequence %d, got %d", want, got)
			}
		}
	})

	t.Run("unknown table", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NextSequence(db, "missing"); err == nil {
			t.Fatal("expected error for missing sequence table")
		}
	})
}

func TestPermissionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when unset", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		p, err := NewPermissionRepository(db).GetPermission(ctx, "desktop")
		if err != nil {
			t.Fatalf("failed to get permission: %v", err)
		}
		if p != models.PermissionDefault {
			t.Errorf("expected default, got %s", p)
		}
	})

	t.Run("upserts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPermissionRepository(db)
		if err := repo.SetPermission(ctx, "desktop", models.PermissionGranted); err != nil {
			t.Fatalf("failed to set permission: %v", err)
		}
		if err := repo.SetPermission(ctx, "desktop", models.PermissionDenied); err != nil {
			t.Fatalf("failed to update permission: %v", err)
		}

		p, _ := repo.GetPermission(ctx, "desktop")
		if p != models.PermissionDenied {
			t.Errorf("expected denied, got %s", p)
		}
	})

	t.Run("rejects unsupported as a stored state", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewPermissionRepository(db).SetPermission(ctx, "desktop", models.PermissionUnsupported); err == nil {
			t.Fatal("expected error for unsupported state")
		}
	})

	t.Run("Reset", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPermissionRepository(db)
		repo.SetPermission(ctx, "desktop", models.PermissionDenied)
		if err := repo.Reset(ctx, "desktop"); err != nil {
			t.Fatalf("failed to reset: %v", err)
		}
		if p, _ := repo.GetPermission(ctx, "desktop"); p != models.PermissionDefault {
			t.Errorf("expected default after reset, got %s", p)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		if err := repo.Set(ctx, "reloaded", "abc123", time.Hour); err != nil {
			t.Fatalf("failed to set session: %v", err)
		}

		value, ok, err := repo.Get(ctx, "reloaded")
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if !ok || value != "abc123" {
			t.Errorf("expected abc123, got %q (ok=%v)", value, ok)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, ok, err := NewSessionRepository(db).Get(ctx, "nope"); err != nil || ok {
			t.Errorf("expected missing key, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("expired key is missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		now := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return now }

		if err := repo.Set(ctx, "reloaded", "abc123", time.Minute); err != nil {
			t.Fatalf("failed to set session: %v", err)
		}

		now = now.Add(2 * time.Minute)
		if _, ok, _ := repo.Get(ctx, "reloaded"); ok {
			t.Error("expected expired key to be missing")
		}

		purged, err := repo.Purge(ctx)
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if purged != 1 {
			t.Errorf("expected 1 purged row, got %d", purged)
		}
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewSessionRepository(db).Set(ctx, "k", "v", 0); err == nil {
			t.Fatal("expected error for zero ttl")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		repo.Set(ctx, "k", "v", time.Hour)
		if err := repo.Delete(ctx, "k"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, ok, _ := repo.Get(ctx, "k"); ok {
			t.Error("expected deleted key to be missing")
		}
	})
}

func TestScoreRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewScoreRepository(db)
		change := models.NewScoreChange(models.ScoreUpdate{House: "advi", Sport: "Cricket", Previous: 92, Score: 95})

		if err := repo.Create(change); err != nil {
			t.Fatalf("failed to create change: %v", err)
		}
		if change.ID() == "" {
			t.Error("change ID should be set after creation")
		}
		if change.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", change.Sequence)
		}
	})

	t.Run("rejects invalid change", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewScoreRepository(db).Create(models.NewScoreChange(models.ScoreUpdate{Sport: "Cricket"})); err == nil {
			t.Fatal("expected validation error for empty house")
		}
	})

	t.Run("List newest first", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewScoreRepository(db)
		repo.RecordScore(models.ScoreUpdate{House: "advi", Sport: "Cricket", Previous: 92, Score: 95})
		repo.RecordScore(models.ScoreUpdate{House: "agra", Sport: "Elle", Previous: 88, Score: 90})
		repo.RecordScore(models.ScoreUpdate{House: "advi", Sport: "Cricket", Previous: 95, Score: 97})

		changes, err := repo.List(2)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(changes) != 2 {
			t.Fatalf("expected 2 changes, got %d", len(changes))
		}
		if changes[0].Sequence != 3 || changes[0].NewScore != 97 {
			t.Errorf("expected newest change first, got %+v", changes[0])
		}

		all, _ := repo.List(0)
		if len(all) != 3 {
			t.Errorf("expected 3 changes, got %d", len(all))
		}
		if n, _ := repo.Count(); n != 3 {
			t.Errorf("expected count 3, got %d", n)
		}
	})

	t.Run("Latest", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewScoreRepository(db)
		repo.RecordScore(models.ScoreUpdate{House: "advi", Sport: "Cricket", Previous: 92, Score: 95})
		repo.RecordScore(models.ScoreUpdate{House: "advi", Sport: "Cricket", Previous: 95, Score: 97})
		repo.RecordScore(models.ScoreUpdate{House: "anabi", Sport: "Elle", Previous: 92, Score: 80})

		latest, err := repo.Latest()
		if err != nil {
			t.Fatalf("failed to get latest: %v", err)
		}
		if latest["advi"]["Cricket"] != 97 {
			t.Errorf("expected advi Cricket 97, got %d", latest["advi"]["Cricket"])
		}
		if latest["anabi"]["Elle"] != 80 {
			t.Errorf("expected anabi Elle 80, got %d", latest["anabi"]["Elle"])
		}
		if len(latest) != 2 {
			t.Errorf("expected 2 houses, got %d", len(latest))
		}
	})
}
