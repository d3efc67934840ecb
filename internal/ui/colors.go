package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytsongs/internal/formatter"
)

var styles = struct {
	title   lipgloss.Style
	success lipgloss.Style
	error   lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
}{
	title:   formatter.NewBold("#7D56F4").MarginBottom(1),
	success: formatter.NewBold("#04B575"),
	error:   formatter.NewBold("#FF0000"),
	warning: formatter.NewStyle("#FFA500"),
	muted:   formatter.NewEm("#626262"),
}
