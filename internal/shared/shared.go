// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// SummaryLevel sits between info and warn so end-of-run reports survive an info-level filter.
const SummaryLevel = log.InfoLevel + 1

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]. The returned logger knows how to render [SummaryLevel].
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	l := log.NewWithOptions(w, opts)

	styles := log.DefaultStyles()
	styles.Levels[SummaryLevel] = lipgloss.NewStyle().
		SetString("SUMM").
		Bold(true).
		MaxWidth(4).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("8"))
	l.SetStyles(styles)
	return l
}

// NewFileLogger creates a logger that appends to path, creating parent directories as needed.
//
// Callers close the returned file when the logger is no longer used.
func NewFileLogger(path string) (*log.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewLogger(f), f, nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// Summary logs msg at [SummaryLevel].
func Summary(l *log.Logger, msg string, kv ...any) {
	if l == nil {
		return
	}
	l.Helper()
	l.Log(SummaryLevel, msg, kv...)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}
