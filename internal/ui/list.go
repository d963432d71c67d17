package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/tclive/internal/models"
)

var (
	_ list.Item = rankingItem{}
	_ list.Item = sportItem{}
)

// rankingItem wraps [models.Ranking] to implement [list.Item].
type rankingItem struct {
	ranking models.Ranking
}

func (i rankingItem) FilterValue() string { return i.ranking.Name }
func (i rankingItem) Title() string {
	c := lipgloss.Color(i.ranking.Color)
	return fmt.Sprintf("%d. %s %s", i.ranking.Position, styles.On("  ", c), styles.As(i.ranking.Name, c))
}
func (i rankingItem) Description() string {
	return fmt.Sprintf("%d points", i.ranking.Total)
}

// sportItem is one sport score of the selected house.
type sportItem struct {
	house string
	sport string
	score int
}

func (i sportItem) FilterValue() string { return i.sport }
func (i sportItem) Title() string       { return i.sport }
func (i sportItem) Description() string { return fmt.Sprintf("%d points", i.score) }

func rankingItems(rankings []models.Ranking) []list.Item {
	items := make([]list.Item, len(rankings))
	for i, r := range rankings {
		items[i] = rankingItem{ranking: r}
	}
	return items
}

func sportItems(h models.House) []list.Item {
	items := make([]list.Item, len(h.Sports))
	for i, sport := range h.Sports {
		items[i] = sportItem{house: h.Key, sport: sport, score: h.Scores[sport]}
	}
	return items
}
