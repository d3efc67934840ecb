// package formatter renders run reports as CSV, Markdown, plain text, JSON and styled terminal output
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/shared"
)

// Report is the presentable view of one run.
type Report struct {
	RunID    string
	Playlist *models.Playlist // nil when the run never reached the playlist
	Created  bool
	Outcomes []models.Outcome // input order
	Summary  models.RunSummary
}

// Format selects an export encoding.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "md"
	Text     Format = "txt"
	JSON     Format = "json"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(s), ".")); f {
	case CSV, Markdown, Text, JSON:
		return f, nil
	case "markdown":
		return Markdown, nil
	case "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, s)
	}
}

func errText(o models.Outcome) string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

func playlistTitle(r *Report) string {
	if r.Playlist == nil {
		return "-"
	}
	return r.Playlist.Title
}

// ExportToCSV writes one row per song with columns: Song, Outcome, VideoID, Error
func ExportToCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Song", "Outcome", "VideoID", "Error"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range r.Outcomes {
		if err := writer.Write([]string{o.Song, o.Kind.String(), o.VideoID, errText(o)}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders the summary as a table followed by songs grouped by outcome.
func ExportToMarkdown(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	s := r.Summary

	fmt.Fprintf(&buf, "# %s\n\n", playlistTitle(r))
	if r.Playlist != nil {
		fmt.Fprintf(&buf, "**Playlist ID**: %s\n", r.Playlist.ID)
	}
	if r.RunID != "" {
		fmt.Fprintf(&buf, "**Run**: %s\n", r.RunID)
	}
	buf.WriteString("\n| Outcome | Songs |\n|---|---|\n")
	fmt.Fprintf(&buf, "| Added | %d |\n", s.Added)
	fmt.Fprintf(&buf, "| Already present | %d |\n", s.AlreadyPresent)
	fmt.Fprintf(&buf, "| No match | %d |\n", s.NoMatchFound)
	fmt.Fprintf(&buf, "| Failed | %d |\n", s.Failed)
	fmt.Fprintf(&buf, "\n**Quota spent**: %s\n", quotaText(s))
	if text := usageText(s); text != "" {
		fmt.Fprintf(&buf, "**By kind**: %s\n", text)
	}
	if text := remoteText(s); text != "" {
		fmt.Fprintf(&buf, "**Remote quota**: %s\n", text)
	}

	for _, kind := range []models.OutcomeKind{models.Added, models.AlreadyPresent, models.NoMatchFound, models.Failed} {
		var lines []string
		for _, o := range r.Outcomes {
			if o.Kind != kind {
				continue
			}
			line := "- " + o.Song
			switch {
			case o.Err != nil:
				line += fmt.Sprintf(" (%v)", o.Err)
			case o.VideoID != "":
				line += fmt.Sprintf(" [%s](https://www.youtube.com/watch?v=%s)", o.VideoID, o.VideoID)
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n## %s\n\n%s\n", kindTitle(kind), strings.Join(lines, "\n"))
	}

	return buf.Bytes(), nil
}

// ExportToText renders a plain text summary and one line per song.
func ExportToText(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	s := r.Summary

	fmt.Fprintf(&buf, "Playlist: %s\n", playlistTitle(r))
	fmt.Fprintf(&buf, "Songs: %d (added %d, already present %d, no match %d, failed %d)\n",
		s.Total, s.Added, s.AlreadyPresent, s.NoMatchFound, s.Failed)
	fmt.Fprintf(&buf, "Quota: %s\n", quotaText(s))
	if text := usageText(s); text != "" {
		fmt.Fprintf(&buf, "By kind: %s\n", text)
	}
	if text := remoteText(s); text != "" {
		fmt.Fprintf(&buf, "Remote quota: %s\n", text)
	}
	buf.WriteString("\n")

	for i, o := range r.Outcomes {
		fmt.Fprintf(&buf, "%d. %s: %s", i+1, o.Song, o.Kind)
		if o.Err != nil {
			fmt.Fprintf(&buf, " (%v)", o.Err)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

type jsonOutcome struct {
	Song    string `json:"song"`
	Outcome string `json:"outcome"`
	VideoID string `json:"video_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type jsonReport struct {
	RunID    string            `json:"run_id,omitempty"`
	Playlist *models.Playlist  `json:"playlist,omitempty"`
	Created  bool              `json:"created"`
	Summary  models.RunSummary `json:"summary"`
	Outcomes []jsonOutcome     `json:"outcomes"`
}

// ExportToJSON encodes the report with errors flattened to strings.
func ExportToJSON(r *Report, pretty bool) ([]byte, error) {
	out := jsonReport{
		RunID:    r.RunID,
		Playlist: r.Playlist,
		Created:  r.Created,
		Summary:  r.Summary,
		Outcomes: make([]jsonOutcome, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		out.Outcomes = append(out.Outcomes, jsonOutcome{Song: o.Song, Outcome: o.Kind.String(), VideoID: o.VideoID, Error: errText(o)})
	}

	if pretty {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// Export encodes r in format f.
func Export(r *Report, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(r)
	case Markdown:
		return ExportToMarkdown(r)
	case Text:
		return ExportToText(r)
	case JSON:
		return ExportToJSON(r, true)
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteReport writes r to path, picking the format from the extension when f is empty.
func WriteReport(r *Report, path string, f Format) error {
	if f == "" {
		var err error
		if f, err = ParseFormat(filepath.Ext(path)); err != nil {
			return err
		}
	}

	data, err := Export(r, f)
	if err != nil {
		return fmt.Errorf("failed to generate %s report: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func quotaText(s models.RunSummary) string {
	switch {
	case s.RemainingKnown:
		return fmt.Sprintf("%d units (%d remaining)", s.Spent, s.Remaining)
	case s.Exhausted:
		return fmt.Sprintf("%d units (exhausted)", s.Spent)
	default:
		return fmt.Sprintf("%d units", s.Spent)
	}
}

// usageText lists committed spend per operation kind, e.g. "search 200 (2 calls), read 1 (1 call)".
func usageText(s models.RunSummary) string {
	parts := make([]string, 0, len(s.ByKind))
	for _, u := range s.ByKind {
		calls := "calls"
		if u.Calls == 1 {
			calls = "call"
		}
		parts = append(parts, fmt.Sprintf("%s %d (%d %s)", u.Kind, u.Units, u.Calls, calls))
	}
	return strings.Join(parts, ", ")
}

// remoteText describes the quota the service reported about itself, or "" when it reported nothing.
func remoteText(s models.RunSummary) string {
	if s.Remote == nil {
		return ""
	}
	text := fmt.Sprintf("%d remaining", s.Remote.Remaining)
	if s.Remote.Limit > 0 {
		text = fmt.Sprintf("%d of %d remaining", s.Remote.Remaining, s.Remote.Limit)
	}
	if !s.Remote.ResetAt.IsZero() {
		text += ", resets " + s.Remote.ResetAt.Format(time.RFC3339)
	}
	return text
}

func kindTitle(k models.OutcomeKind) string {
	switch k {
	case models.Added:
		return "Added"
	case models.AlreadyPresent:
		return "Already Present"
	case models.NoMatchFound:
		return "No Match"
	default:
		return "Failed"
	}
}
