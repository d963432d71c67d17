package models

import (
	"fmt"
	"time"
)

// House is one of the competing groups on the scoreboard.
type House struct {
	// Key is the lowercase identifier used in API paths (e.g. "advi").
	Key string `json:"key"`

	// Name is the display name (e.g. "ADVI").
	Name string `json:"name"`

	// Color is the CSS color used for the house on the page.
	Color string `json:"color"`

	// Sports lists sport names in display order.
	Sports []string `json:"sports"`

	// Scores maps sport name to points.
	Scores map[string]int `json:"scores"`
}

// Clone returns a deep copy of h.
func (h House) Clone() House {
	sports := make([]string, len(h.Sports))
	copy(sports, h.Sports)

	scores := make(map[string]int, len(h.Scores))
	for k, v := range h.Scores {
		scores[k] = v
	}

	return House{Key: h.Key, Name: h.Name, Color: h.Color, Sports: sports, Scores: scores}
}

// Ranking is one row of the standings.
type Ranking struct {
	Position int    `json:"position"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Total    int    `json:"total"`
}

// ScoreUpdate is the payload of an [EventScoreUpdate].
type ScoreUpdate struct {
	House    string    `json:"house"`
	Sport    string    `json:"sport"`
	Score    int       `json:"score"`
	Previous int       `json:"previous"`
	At       time.Time `json:"at"`
}

// ScoreChange is a persisted audit row for one scoreboard update.
type ScoreChange struct {
	id        string
	Sequence  int
	House     string
	Sport     string
	OldScore  int
	NewScore  int
	createdAt time.Time
}

// NewScoreChange builds an unsaved [ScoreChange] from an update.
func NewScoreChange(u ScoreUpdate) *ScoreChange {
	at := u.At
	if at.IsZero() {
		at = time.Now()
	}
	return &ScoreChange{House: u.House, Sport: u.Sport, OldScore: u.Previous, NewScore: u.Score, createdAt: at}
}

func (c *ScoreChange) ID() string           { return c.id }
func (c *ScoreChange) SetID(id string)      { c.id = id }
func (c *ScoreChange) CreatedAt() time.Time { return c.createdAt }

// SetCreatedAt is used when hydrating rows from storage.
func (c *ScoreChange) SetCreatedAt(t time.Time) { c.createdAt = t }

// Validate checks that the change names a house and sport.
func (c *ScoreChange) Validate() error {
	if c.House == "" {
		return fmt.Errorf("house is required")
	}
	if c.Sport == "" {
		return fmt.Errorf("sport is required")
	}
	return nil
}
