package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytsongs/internal/formatter"
	"github.com/desertthunder/ytsongs/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PreviewView ViewState = iota
	SyncView
	ResultView
)

const maxLogLines = 8

// SyncFunc runs one sync, sending updates on progress. It must not close progress.
type SyncFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	result *tasks.RunResult
	err    error
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	view     ViewState
	run      SyncFunc
	playlist string
	width    int
	height   int
	songList list.Model
	songs    []string
	spinner  spinner.Model
	progress chan tasks.ProgressUpdate
	done     chan syncCompleteMsg
	resolve  tasks.ProgressUpdate
	insert   tasks.ProgressUpdate
	lines    []string
	result   *tasks.RunResult
	err      error
	help     help.Model
	keys     keyMap
	palette  *formatter.Palette
}

// NewModel creates a model previewing songs before they are synced into playlist by run.
func NewModel(ctx context.Context, playlist string, songs []string, run SyncFunc) *Model {
	ctx, cancel := context.WithCancel(ctx)

	songList := list.New(songItems(songs), list.NewDefaultDelegate(), 0, 0)
	songList.Title = fmt.Sprintf("%d songs → %s", len(songs), playlist)

	return &Model{
		ctx:      ctx,
		cancel:   cancel,
		view:     PreviewView,
		run:      run,
		playlist: playlist,
		songList: songList,
		songs:    songs,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
		keys:     newKeyMap(),
		palette:  formatter.DefaultPalette,
	}
}

// Result returns the finished run, if any.
func (m *Model) Result() (*tasks.RunResult, error) {
	return m.result, m.err
}

// State reports the current view.
func (m *Model) State() ViewState {
	return m.view
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PreviewView:
			return m.handlePreviewKeys(msg)
		case SyncView:
			return m.handleSyncKeys(msg)
		case ResultView:
			if key.Matches(msg, m.keys.quit, m.keys.start, m.keys.stop) {
				return m, tea.Quit
			}
		}
		return m, nil

	case progressUpdateMsg:
		m.record(tasks.ProgressUpdate(msg))
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progress = nil
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.view == PreviewView {
		var cmd tea.Cmd
		m.songList, cmd = m.songList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handlePreviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.start):
		m.view = SyncView
		return m, m.startSync()
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.stop, m.keys.quit) {
		m.cancel()
		m.lines = append(m.lines, styles.warning.Render("stopping..."))
	}
	return m, nil
}

// record keeps the latest update per counter phase and a short message log.
func (m *Model) record(u tasks.ProgressUpdate) {
	switch u.Phase {
	case tasks.PhaseResolve:
		m.resolve = u
	case tasks.PhaseInsert:
		m.insert = u
	}
	if u.Message == "" {
		return
	}
	m.lines = append(m.lines, u.Message)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
}

func (m *Model) startSync() tea.Cmd {
	m.progress = make(chan tasks.ProgressUpdate, 64)
	m.done = make(chan syncCompleteMsg, 1)

	progress, done := m.progress, m.done
	go func() {
		result, err := m.run(m.ctx, progress)
		close(progress)
		done <- syncCompleteMsg{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progress, m.done
	return func() tea.Msg {
		if progress != nil {
			if update, ok := <-progress; ok {
				return progressUpdateMsg(update)
			}
		}
		return <-done
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PreviewView:
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.start, m.keys.up, m.keys.down, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", m.songList.View(), helpView)
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func bar(step, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := min(width*step/total, width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (m *Model) renderSync() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("%s Syncing into %s", m.spinner.View(), m.playlist)) + "\n")

	total := len(m.songs)
	if m.resolve.Total > 0 {
		total = m.resolve.Total
	}
	fmt.Fprintf(&b, "Search  %s %d/%d\n", bar(m.resolve.Step, total, 30), m.resolve.Step, total)
	if m.insert.Total > 0 {
		fmt.Fprintf(&b, "Insert  %s %d/%d\n", bar(m.insert.Step, m.insert.Total, 30), m.insert.Step, m.insert.Total)
	}

	b.WriteString("\n")
	for _, line := range m.lines {
		b.WriteString(styles.muted.Render(line) + "\n")
	}
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.stop}))
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.err != nil {
		return styles.error.Render(fmt.Sprintf("Sync failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil {
		return styles.error.Render("No result available") + "\n\n" + helpView
	}

	title := styles.success.Render("✓ Sync Complete!")
	if m.result.Summary.Failed > 0 {
		title = styles.warning.Render(fmt.Sprintf("Sync finished with %d failures", m.result.Summary.Failed))
	}

	report := &formatter.Report{
		RunID:    m.result.RunID,
		Playlist: m.result.Playlist,
		Created:  m.result.Created,
		Outcomes: m.result.Ordered(),
		Summary:  m.result.Summary,
	}
	return fmt.Sprintf("%s\n\n%s\n%s", title, m.palette.Render(report, false), helpView)
}
