package scoreboard

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/shared"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStore(t *testing.T) {
	t.Run("Total", func(t *testing.T) {
		s := NewStore(DefaultHouses())

		want := map[string]int{"advi": 441, "anupa": 436, "agra": 430, "anabi": 447}
		for house, total := range want {
			if got := s.Total(house); got != total {
				t.Errorf("Total(%s) = %d, want %d", house, got, total)
			}
		}

		if got := s.Total("nobody"); got != 0 {
			t.Errorf("expected unknown house total 0, got %d", got)
		}
	})

	t.Run("Total matches sum of scores for every house", func(t *testing.T) {
		s := NewStore(DefaultHouses())
		if err := s.Update("agra", "Cricket", 100); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		for _, h := range s.Houses() {
			expected := 0
			for _, sport := range h.Sports {
				expected += s.Score(h.Key, sport)
			}
			if got := s.Total(h.Key); got != expected {
				t.Errorf("Total(%s) = %d, want %d", h.Key, got, expected)
			}
		}
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("overwrites value and bumps timestamp", func(t *testing.T) {
			start := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
			clock := start
			s := NewStore(DefaultHouses(), WithClock(func() time.Time { return clock }))

			clock = start.Add(time.Minute)
			if err := s.Update("advi", "Cricket", 95); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if got := s.Score("advi", "Cricket"); got != 95 {
				t.Errorf("expected score 95, got %d", got)
			}
			if !s.LastUpdate().Equal(clock) {
				t.Errorf("expected last update %v, got %v", clock, s.LastUpdate())
			}
		})

		t.Run("house keys are case-insensitive", func(t *testing.T) {
			s := NewStore(DefaultHouses())
			if err := s.Update("ADVI", "Elle", 10); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := s.Score("advi", "Elle"); got != 10 {
				t.Errorf("expected 10, got %d", got)
			}
		})

		t.Run("unknown house", func(t *testing.T) {
			s := NewStore(DefaultHouses())
			err := s.Update("nobody", "Cricket", 1)
			if !errors.Is(err, shared.ErrInvalidIdentifier) {
				t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
			}
		})

		t.Run("unknown sport leaves table untouched", func(t *testing.T) {
			start := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
			s := NewStore(DefaultHouses(), WithClock(fixedClock(start)))
			before := s.Total("advi")

			err := s.Update("advi", "Chess", 50)
			if !errors.Is(err, shared.ErrInvalidIdentifier) {
				t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
			}
			if s.Total("advi") != before {
				t.Error("expected total unchanged")
			}
		})

		t.Run("notifies recorders with previous value", func(t *testing.T) {
			var got []models.ScoreUpdate
			s := NewStore(DefaultHouses(), WithRecorder(RecorderFunc(func(u models.ScoreUpdate) error {
				got = append(got, u)
				return nil
			})))

			if err := s.Update("anabi", "Football", 90); err != nil {
				t.Fatalf("update failed: %v", err)
			}

			if len(got) != 1 {
				t.Fatalf("expected 1 recorded update, got %d", len(got))
			}
			if got[0].Previous != 87 || got[0].Score != 90 || got[0].House != "anabi" {
				t.Errorf("unexpected update %+v", got[0])
			}
		})

		t.Run("recorder failure does not fail the update", func(t *testing.T) {
			var handled error
			s := NewStore(DefaultHouses(),
				WithRecorder(RecorderFunc(func(models.ScoreUpdate) error { return errors.New("disk full") })),
				WithErrorHandler(func(err error) { handled = err }),
			)

			if err := s.Update("advi", "Elle", 1); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if handled == nil {
				t.Error("expected error handler to be called")
			}
		})
	})

	t.Run("SetHouse", func(t *testing.T) {
		t.Run("overwrites all given sports", func(t *testing.T) {
			s := NewStore(DefaultHouses())
			scores := map[string]int{"Elle": 88, "Cricket": 94, "Volleyball": 80, "Football": 90, "Badminton": 96}

			if err := s.SetHouse("advi", scores); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := s.Total("advi"); got != 448 {
				t.Errorf("expected total 448, got %d", got)
			}
		})

		t.Run("rejects unknown sport atomically", func(t *testing.T) {
			s := NewStore(DefaultHouses())
			before := s.Total("agra")

			err := s.SetHouse("agra", map[string]int{"Elle": 1, "Chess": 2})
			if !errors.Is(err, shared.ErrInvalidIdentifier) {
				t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
			}
			if s.Total("agra") != before {
				t.Error("expected no partial write")
			}
		})

		t.Run("rejects unknown house", func(t *testing.T) {
			s := NewStore(DefaultHouses())
			if err := s.SetHouse("nobody", map[string]int{"Elle": 1}); !errors.Is(err, shared.ErrInvalidIdentifier) {
				t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
			}
		})
	})

	t.Run("Rank", func(t *testing.T) {
		t.Run("orders by descending total", func(t *testing.T) {
			s := NewStore(DefaultHouses())
			rankings := s.Rank()

			wantOrder := []string{"anabi", "advi", "anupa", "agra"}
			for i, key := range wantOrder {
				if rankings[i].Key != key {
					t.Errorf("position %d: expected %s, got %s", i+1, key, rankings[i].Key)
				}
				if rankings[i].Position != i+1 {
					t.Errorf("expected position %d, got %d", i+1, rankings[i].Position)
				}
			}

			for i := 1; i < len(rankings); i++ {
				if rankings[i].Total > rankings[i-1].Total {
					t.Errorf("rankings not sorted at %d", i)
				}
			}
		})

		t.Run("ties preserve insertion order", func(t *testing.T) {
			houses := []models.House{
				{Key: "c", Name: "C", Sports: []string{"x"}, Scores: map[string]int{"x": 10}},
				{Key: "a", Name: "A", Sports: []string{"x"}, Scores: map[string]int{"x": 20}},
				{Key: "b", Name: "B", Sports: []string{"x"}, Scores: map[string]int{"x": 10}},
				{Key: "d", Name: "D", Sports: []string{"x"}, Scores: map[string]int{"x": 20}},
			}
			s := NewStore(houses)

			got := s.Rank()
			want := []string{"a", "d", "c", "b"}
			for i, key := range want {
				if got[i].Key != key {
					t.Errorf("position %d: expected %s, got %s", i+1, key, got[i].Key)
				}
			}
		})
	})

	t.Run("Houses returns copies", func(t *testing.T) {
		s := NewStore(DefaultHouses())
		houses := s.Houses()
		houses[0].Scores["Elle"] = 0

		if s.Score("advi", "Elle") != 88 {
			t.Error("expected store to be unaffected by caller mutation")
		}
	})

	t.Run("Totals", func(t *testing.T) {
		s := NewStore(DefaultHouses())
		totals := s.Totals()
		if len(totals) != 4 {
			t.Fatalf("expected 4 totals, got %d", len(totals))
		}
		if totals["anabi"] != 447 {
			t.Errorf("expected anabi 447, got %d", totals["anabi"])
		}
	})

	t.Run("Restore skips recorders and unknown keys", func(t *testing.T) {
		var recorded int
		s := NewStore(DefaultHouses(), WithRecorder(RecorderFunc(func(models.ScoreUpdate) error {
			recorded++
			return nil
		})))

		applied := s.Restore(map[string]map[string]int{
			"ADVI":   {"Cricket": 99, "Chess": 5},
			"nobody": {"Cricket": 1},
		})

		if applied != 1 {
			t.Errorf("expected 1 applied score, got %d", applied)
		}
		if s.Score("advi", "Cricket") != 99 {
			t.Errorf("expected restored score 99, got %d", s.Score("advi", "Cricket"))
		}
		if recorded != 0 {
			t.Errorf("expected no recorder calls, got %d", recorded)
		}
	})
}
