package scoreboard

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/shared"
)

// Recorder observes successful score changes.
type Recorder interface {
	RecordScore(update models.ScoreUpdate) error
}

// RecorderFunc adapts a function to [Recorder].
type RecorderFunc func(models.ScoreUpdate) error

func (f RecorderFunc) RecordScore(u models.ScoreUpdate) error { return f(u) }

// Store is the in-memory scoreboard. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	houses     []models.House
	index      map[string]int
	lastUpdate time.Time
	recorders  []Recorder
	now        func() time.Time
	onError    func(error)
}

// Option configures a [Store].
type Option func(*Store)

// WithClock overrides the clock used for update timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRecorder adds a [Recorder] notified after each change.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorders = append(s.recorders, r) }
}

// WithErrorHandler receives recorder failures; they never fail the update itself.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Store) { s.onError = fn }
}

// NewStore creates a Store from houses in the given order. Keys are matched case-insensitively.
func NewStore(houses []models.House, opts ...Option) *Store {
	s := &Store{
		houses: make([]models.House, 0, len(houses)),
		index:  make(map[string]int, len(houses)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, h := range houses {
		h = h.Clone()
		h.Key = normalizeKey(h.Key)
		s.index[h.Key] = len(s.houses)
		s.houses = append(s.houses, h)
	}
	s.lastUpdate = s.now()

	return s
}

// AddRecorder attaches a recorder after construction.
func (s *Store) AddRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorders = append(s.recorders, r)
}

// Update overwrites one score.
//
// Fails with [shared.ErrInvalidIdentifier] if the house or sport is unknown.
func (s *Store) Update(house, sport string, score int) error {
	s.mu.Lock()
	h, err := s.lookup(house, sport)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	update := models.ScoreUpdate{House: h.Key, Sport: sport, Score: score, Previous: h.Scores[sport], At: s.now()}
	h.Scores[sport] = score
	s.lastUpdate = update.At
	recorders := s.recorders
	s.mu.Unlock()

	s.record(recorders, update)
	return nil
}

// SetHouse overwrites every given sport of a house at once.
//
// All sports must already exist; nothing is written if any is unknown.
func (s *Store) SetHouse(house string, scores map[string]int) error {
	s.mu.Lock()
	i, ok := s.index[normalizeKey(house)]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: house %q", shared.ErrInvalidIdentifier, house)
	}
	h := &s.houses[i]

	for sport := range scores {
		if _, ok := h.Scores[sport]; !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w: sport %q for house %q", shared.ErrInvalidIdentifier, sport, house)
		}
	}

	at := s.now()
	updates := make([]models.ScoreUpdate, 0, len(scores))
	for _, sport := range h.Sports {
		score, ok := scores[sport]
		if !ok {
			continue
		}
		updates = append(updates, models.ScoreUpdate{House: h.Key, Sport: sport, Score: score, Previous: h.Scores[sport], At: at})
		h.Scores[sport] = score
	}
	s.lastUpdate = at
	recorders := s.recorders
	s.mu.Unlock()

	for _, u := range updates {
		s.record(recorders, u)
	}
	return nil
}

// Restore overwrites scores from a saved snapshot without notifying recorders.
//
// Unknown houses and sports are skipped. Returns the number of scores applied.
func (s *Store) Restore(snapshot map[string]map[string]int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for house, scores := range snapshot {
		i, ok := s.index[normalizeKey(house)]
		if !ok {
			continue
		}
		h := &s.houses[i]
		for sport, score := range scores {
			if _, ok := h.Scores[sport]; !ok {
				continue
			}
			h.Scores[sport] = score
			applied++
		}
	}
	if applied > 0 {
		s.lastUpdate = s.now()
	}
	return applied
}

// Score returns one score, or 0 for an unknown house or sport.
func (s *Store) Score(house, sport string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, err := s.lookup(house, sport)
	if err != nil {
		return 0
	}
	return h.Scores[sport]
}

// Total sums a house's scores. Unknown houses total 0.
func (s *Store) Total(house string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[normalizeKey(house)]
	if !ok {
		return 0
	}
	return sum(s.houses[i])
}

// Totals maps every house key to its total.
func (s *Store) Totals() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int, len(s.houses))
	for _, h := range s.houses {
		totals[h.Key] = sum(h)
	}
	return totals
}

// Rank returns houses ordered by descending total. Ties keep insertion order.
func (s *Store) Rank() []models.Ranking {
	s.mu.RLock()
	rankings := make([]models.Ranking, len(s.houses))
	for i, h := range s.houses {
		rankings[i] = models.Ranking{Key: h.Key, Name: h.Name, Color: h.Color, Total: sum(h)}
	}
	s.mu.RUnlock()

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Total > rankings[j].Total
	})
	for i := range rankings {
		rankings[i].Position = i + 1
	}

	return rankings
}

// Houses returns a deep copy of every house in insertion order.
func (s *Store) Houses() []models.House {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.House, len(s.houses))
	for i, h := range s.houses {
		out[i] = h.Clone()
	}
	return out
}

// House returns a copy of one house.
func (s *Store) House(key string) (models.House, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[normalizeKey(key)]
	if !ok {
		return models.House{}, false
	}
	return s.houses[i].Clone(), true
}

// LastUpdate is the time of the most recent successful write, or construction time.
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// lookup must be called with s.mu held.
func (s *Store) lookup(house, sport string) (*models.House, error) {
	i, ok := s.index[normalizeKey(house)]
	if !ok {
		return nil, fmt.Errorf("%w: house %q or sport %q", shared.ErrInvalidIdentifier, house, sport)
	}
	h := &s.houses[i]
	if _, ok := h.Scores[sport]; !ok {
		return nil, fmt.Errorf("%w: house %q or sport %q", shared.ErrInvalidIdentifier, house, sport)
	}
	return h, nil
}

func (s *Store) record(recorders []Recorder, u models.ScoreUpdate) {
	for _, r := range recorders {
		if err := r.RecordScore(u); err != nil && s.onError != nil {
			s.onError(fmt.Errorf("record score %s/%s: %w", u.House, u.Sport, err))
		}
	}
}

func sum(h models.House) int {
	total := 0
	for _, v := range h.Scores {
		total += v
	}
	return total
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}
