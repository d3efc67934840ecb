package tasks

import (
	"fmt"

	"github.com/desertthunder/ytsongs/internal/models"
)

// ProgressUpdate represents a progress event during a run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	PhaseLoad Phase = iota
	PhaseEnsure
	PhaseResolve
	PhaseMembership
	PhaseInsert
	PhaseSummary
)

func (p Phase) String() string {
	switch p {
	case PhaseLoad:
		return "load_songs"
	case PhaseEnsure:
		return "ensure_playlist"
	case PhaseResolve:
		return "resolve"
	case PhaseMembership:
		return "membership"
	case PhaseInsert:
		return "insert"
	case PhaseSummary:
		return "summarize"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func loadedSongsUpdate(path string, songs []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseLoad,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d songs from %s", len(songs), path),
		Data:    songs,
	}
}

func ensuringPlaylistUpdate(title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseEnsure,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Looking up playlist %q...", title),
	}
}

func playlistReadyUpdate(pl *models.Playlist, created bool) ProgressUpdate {
	verb := "Found"
	if created {
		verb = "Created"
	}
	return ProgressUpdate{
		Phase:   PhaseEnsure,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%s playlist: %s (ID: %s)", verb, pl.Title, pl.ID),
		Data:    pl,
	}
}

func resolvedUpdate(step, total int, r models.Resolution) ProgressUpdate {
	detail := r.Status.String()
	switch {
	case r.Status == models.Resolved && r.Cached:
		detail = r.VideoID + " (cached)"
	case r.Status == models.Resolved:
		detail = r.VideoID
	case r.Err != nil:
		detail = r.Err.Error()
	}
	return ProgressUpdate{
		Phase:   PhaseResolve,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, r.Song, detail),
		Data:    r,
	}
}

func membershipUpdate(playlistID string, present int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseMembership,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist %s already holds %d videos", playlistID, present),
	}
}

func insertedUpdate(step, total int, o models.Outcome) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, o.Song)
	if o.Kind == models.Failed {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, o.Song, o.Err)
	}
	return ProgressUpdate{
		Phase:   PhaseInsert,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    o,
	}
}

func summaryUpdate(s models.RunSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase: PhaseSummary,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("%d added, %d already present, %d not found, %d failed",
			s.Added, s.AlreadyPresent, s.NoMatchFound, s.Failed),
		Data: s,
	}
}
