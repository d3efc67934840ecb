package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytsongs/internal/models"
)

// DefaultPalette is used for terminal summaries.
var DefaultPalette = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func (p *Palette) kind(k models.OutcomeKind) lipgloss.Style {
	switch k {
	case models.Added:
		return p.ok
	case models.AlreadyPresent:
		return p.help
	case models.NoMatchFound:
		return p.warn
	default:
		return p.err
	}
}

// Render draws the terminal summary for r. When verbose is false only failures and misses are listed.
func (p *Palette) Render(r *Report, verbose bool) string {
	var b strings.Builder
	s := r.Summary

	b.WriteString(p.title.Render("Sync: "+playlistTitle(r)) + "\n")
	fmt.Fprintf(&b, "%s  %s  %s  %s\n",
		p.ok.Render(fmt.Sprintf("%d added", s.Added)),
		p.help.Render(fmt.Sprintf("%d already present", s.AlreadyPresent)),
		p.warn.Render(fmt.Sprintf("%d not found", s.NoMatchFound)),
		p.err.Render(fmt.Sprintf("%d failed", s.Failed)),
	)

	quota := p.help.Render("quota " + quotaText(s))
	if s.Exhausted || s.QuotaExhausted > 0 {
		quota = p.warn.Render(fmt.Sprintf("quota %s, %d songs skipped", quotaText(s), s.QuotaExhausted))
	}
	b.WriteString(quota + "\n")
	if text := usageText(s); text != "" {
		b.WriteString(p.help.Render("  by kind: "+text) + "\n")
	}
	if text := remoteText(s); text != "" {
		b.WriteString(p.help.Render("  remote: "+text) + "\n")
	}

	for _, o := range r.Outcomes {
		if !verbose && (o.Kind == models.Added || o.Kind == models.AlreadyPresent) {
			continue
		}
		line := fmt.Sprintf("  %-16s %s", o.Kind, o.Song)
		if o.Err != nil {
			line += ": " + o.Err.Error()
		}
		b.WriteString(p.kind(o.Kind).Render(line) + "\n")
	}
	return b.String()
}
