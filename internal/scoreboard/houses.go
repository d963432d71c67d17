package scoreboard

import "github.com/desertthunder/tclive/internal/models"

// DefaultSports is the sport order shown on the page.
var DefaultSports = []string{"Elle", "Cricket", "Volleyball", "Football", "Badminton"}

// DefaultHouses returns the four houses with their opening scores.
func DefaultHouses() []models.House {
	return []models.House{
		newHouse("advi", "ADVI", "#3b82f6", 88, 92, 78, 88, 95),
		newHouse("anupa", "ANUPA", "#fbbf24", 87, 80, 93, 85, 91),
		newHouse("agra", "AGRA", "#10b981", 88, 84, 86, 90, 82),
		newHouse("anabi", "ANABI", "#e8001e", 92, 89, 91, 87, 88),
	}
}

func newHouse(key, name, color string, scores ...int) models.House {
	h := models.House{
		Key:    key,
		Name:   name,
		Color:  color,
		Sports: append([]string(nil), DefaultSports...),
		Scores: make(map[string]int, len(DefaultSports)),
	}
	for i, sport := range DefaultSports {
		h.Scores[sport] = scores[i]
	}
	return h
}
