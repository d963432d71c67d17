package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tclive/internal/formatter"
	"github.com/desertthunder/tclive/internal/repositories"
	"github.com/desertthunder/tclive/internal/scoreboard"
	"github.com/desertthunder/tclive/internal/shared"
)

// openScores opens the database and returns a store restored from the audit trail.
func (r *Runner) openScores() (*scoreboard.Store, *repositories.ScoreRepository, *sql.DB, error) {
	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, nil, err
	}

	repo := repositories.NewScoreRepository(db)
	return r.newStore(repo, true), repo, db, nil
}

// ScoresShow prints every house with its per-sport scores.
func (r *Runner) ScoresShow(ctx context.Context, cmd *cli.Command) error {
	store, _, db, err := r.openScores()
	if err != nil {
		return err
	}
	defer db.Close()

	houses := store.Houses()
	if cmd.Bool("json") {
		return r.writeJSON(houses, cmd.Bool("pretty"))
	}

	var sports []string
	if len(houses) > 0 {
		sports = houses[0].Sports
	}

	headers := append([]string{"House"}, sports...)
	headers = append(headers, "Total")

	rows := make([][]string, 0, len(houses))
	for _, h := range houses {
		row := []string{h.Name}
		for _, sport := range sports {
			row = append(row, strconv.Itoa(h.Scores[sport]))
		}
		row = append(row, strconv.Itoa(store.Total(h.Key)))
		rows = append(rows, row)
	}

	r.writePlainHeader(r.config.Event.Name)
	r.writePlain("%s\n", newTable(headers, rows))
	r.writePlain("Last update: %s\n", store.LastUpdate().Format("2006-01-02 15:04:05"))
	return nil
}

// ScoresRank prints the standings.
func (r *Runner) ScoresRank(ctx context.Context, cmd *cli.Command) error {
	store, _, db, err := r.openScores()
	if err != nil {
		return err
	}
	defer db.Close()

	rankings := store.Rank()
	if cmd.Bool("json") {
		return r.writeJSON(rankings, cmd.Bool("pretty"))
	}

	rows := make([][]string, 0, len(rankings))
	for _, rk := range rankings {
		rows = append(rows, []string{strconv.Itoa(rk.Position), rk.Name, strconv.Itoa(rk.Total)})
	}

	r.writePlain("%s\n", newTable([]string{"#", "House", "Total"}, rows))
	return nil
}

// ScoresUpdate overwrites one score: tclive scores update <house> <sport> <score>
func (r *Runner) ScoresUpdate(ctx context.Context, cmd *cli.Command) error {
	house, sport := cmd.StringArg("house"), cmd.StringArg("sport")
	if house == "" || sport == "" {
		return fmt.Errorf("%w: house and sport are required", shared.ErrMissingArgument)
	}

	score, err := parseScore(cmd.StringArg("score"))
	if err != nil {
		return err
	}

	store, _, db, err := r.openScores()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Update(house, sport, score); err != nil {
		return err
	}

	r.logger.Info("score updated", "house", house, "sport", sport, "score", score)
	r.writePlain("✓ %s %s = %d (total %d)\n", strings.ToUpper(house), sport, score, store.Total(house))
	return nil
}

// ScoresSet overwrites several scores of one house: tclive scores set <house> --score Cricket=90 --score Elle=85
func (r *Runner) ScoresSet(ctx context.Context, cmd *cli.Command) error {
	house := cmd.StringArg("house")
	if house == "" {
		return fmt.Errorf("%w: house is required", shared.ErrMissingArgument)
	}

	scores, err := parseScoreFlags(cmd.StringSlice("score"))
	if err != nil {
		return err
	}

	store, _, db, err := r.openScores()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.SetHouse(house, scores); err != nil {
		return err
	}

	r.logger.Info("house scores set", "house", house, "count", len(scores))
	r.writePlain("✓ %s updated (total %d)\n", strings.ToUpper(house), store.Total(house))
	return nil
}

// ScoresExport writes the standings to a file.
func (r *Runner) ScoresExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	store, _, db, err := r.openScores()
	if err != nil {
		return err
	}
	defer db.Close()

	standings := formatter.NewStandings(r.config.Event.Name, store.Houses(), store.Rank(), store.LastUpdate())
	path, err := formatter.WriteExport(standings, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("standings exported", "format", format, "path", path)
	r.writePlain("✓ Standings exported to %s\n", path)
	return nil
}

// ScoresHistory prints the most recent score changes.
func (r *Runner) ScoresHistory(ctx context.Context, cmd *cli.Command) error {
	_, repo, db, err := r.openScores()
	if err != nil {
		return err
	}
	defer db.Close()

	changes, err := repo.List(int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list score changes: %w", err)
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(changes, cmd.Bool("pretty"))
	case cmd.Bool("csv"):
		data, err := formatter.ExportChangesToCSV(changes)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	if len(changes) == 0 {
		return r.writePlain("No score changes recorded yet\n")
	}

	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []string{
			strconv.Itoa(c.Sequence),
			c.CreatedAt().Local().Format("2006-01-02 15:04:05"),
			strings.ToUpper(c.House),
			c.Sport,
			fmt.Sprintf("%d → %d", c.OldScore, c.NewScore),
		})
	}
	r.writePlain("%s\n", newTable([]string{"#", "Time", "House", "Sport", "Change"}, rows))
	return nil
}

func parseScore(s string) (int, error) {
	score, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: score %q is not a number", shared.ErrInvalidScore, s)
	}
	if score < 0 {
		return 0, fmt.Errorf("%w: %d is negative", shared.ErrInvalidScore, score)
	}
	return score, nil
}

// parseScoreFlags parses Sport=N pairs.
func parseScoreFlags(pairs []string) (map[string]int, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: at least one --score Sport=N is required", shared.ErrMissingArgument)
	}

	scores := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		sport, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(sport) == "" {
			return nil, fmt.Errorf("%w: expected Sport=N, got %q", shared.ErrInvalidArgument, pair)
		}
		score, err := parseScore(value)
		if err != nil {
			return nil, err
		}
		scores[strings.TrimSpace(sport)] = score
	}
	return scores, nil
}

func newTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}
