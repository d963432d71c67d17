// package formatter exports scoreboard standings to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension used by [WriteExport].
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// Standings is a point-in-time snapshot of the scoreboard.
type Standings struct {
	Title     string           `json:"title"`
	Sports    []string         `json:"sports"`
	Houses    []models.House   `json:"houses"`
	Rankings  []models.Ranking `json:"rankings"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewStandings builds a snapshot. Sport columns follow the first house's order.
func NewStandings(title string, houses []models.House, rankings []models.Ranking, updatedAt time.Time) *Standings {
	var sports []string
	if len(houses) > 0 {
		sports = append(sports, houses[0].Sports...)
	}
	return &Standings{Title: title, Sports: sports, Houses: houses, Rankings: rankings, UpdatedAt: updatedAt}
}

func (s *Standings) house(key string) models.House {
	for _, h := range s.Houses {
		if h.Key == key {
			return h
		}
	}
	return models.House{}
}

// ExportToCSV writes one row per house in ranking order: Position, House, Name, one column per sport, Total
func ExportToCSV(s *Standings) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := append([]string{"Position", "House", "Name"}, s.Sports...)
	headers = append(headers, "Total")
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range s.Rankings {
		h := s.house(r.Key)
		record := []string{strconv.Itoa(r.Position), r.Key, r.Name}
		for _, sport := range s.Sports {
			record = append(record, strconv.Itoa(h.Scores[sport]))
		}
		record = append(record, strconv.Itoa(r.Total))

		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the standings as a Markdown table
func ExportToMarkdown(s *Standings) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", s.Title))
	if !s.UpdatedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Updated**: %s\n\n", s.UpdatedAt.Format(time.RFC1123)))
	}

	buf.WriteString("| # | House |")
	for _, sport := range s.Sports {
		buf.WriteString(fmt.Sprintf(" %s |", sport))
	}
	buf.WriteString(" Total |\n")

	buf.WriteString("| ---: | --- |")
	for range s.Sports {
		buf.WriteString(" ---: |")
	}
	buf.WriteString(" ---: |\n")

	for _, r := range s.Rankings {
		h := s.house(r.Key)
		buf.WriteString(fmt.Sprintf("| %d | %s |", r.Position, r.Name))
		for _, sport := range s.Sports {
			buf.WriteString(fmt.Sprintf(" %d |", h.Scores[sport]))
		}
		buf.WriteString(fmt.Sprintf(" **%d** |\n", r.Total))
	}

	return buf.Bytes(), nil
}

// ExportToText renders the standings as a numbered list
func ExportToText(s *Standings) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Standings: %s\n", s.Title))
	if !s.UpdatedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("Updated: %s\n", s.UpdatedAt.Format(time.RFC1123)))
	}
	buf.WriteString(fmt.Sprintf("Houses: %d\n\n", len(s.Rankings)))

	for _, r := range s.Rankings {
		buf.WriteString(fmt.Sprintf("%d. %-8s %d\n", r.Position, r.Name, r.Total))
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the snapshot as indented JSON
func ExportToJSON(s *Standings) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal standings: %w", err)
	}
	return data, nil
}

// Export renders s in the given format.
func Export(s *Standings, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(s)
	case FormatMarkdown:
		return ExportToMarkdown(s)
	case FormatText:
		return ExportToText(s)
	case FormatJSON:
		return ExportToJSON(s)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteExport writes s to path in the given format.
//
// Defaults to standings.{ext} as the filename.
func WriteExport(s *Standings, f Format, path string) (string, error) {
	if path == "" {
		path = "standings." + f.Extension()
	}

	data, err := Export(s, f)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// ExportChangesToCSV writes the score audit trail with columns: Sequence, Time, House, Sport, Old, New
func ExportChangesToCSV(changes []*models.ScoreChange) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Sequence", "Time", "House", "Sport", "Old", "New"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range changes {
		record := []string{
			strconv.Itoa(c.Sequence),
			c.CreatedAt().UTC().Format(time.RFC3339),
			c.House,
			c.Sport,
			strconv.Itoa(c.OldScore),
			strconv.Itoa(c.NewScore),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
