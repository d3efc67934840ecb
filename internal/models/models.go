// package models defines the data model shared by the reconciliation engine, its stores and its presenters
package models

import (
	"errors"
	"time"

	"github.com/desertthunder/ytsongs/internal/shared"
)

// Playlist is a playlist owned by the authenticated user.
type Playlist struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Privacy     string `json:"privacy,omitempty"`
}

// ResolveStatus is the terminal state of a single search.
type ResolveStatus int

const (
	ResolveUnknown ResolveStatus = iota // not yet searched
	Resolved                            // a video was found
	NoMatch                             // the search returned no items
	Unresolved                          // the search could not be completed, see Resolution.Err
)

func (s ResolveStatus) String() string {
	switch s {
	case ResolveUnknown:
		return "unknown"
	case Resolved:
		return "resolved"
	case NoMatch:
		return "no_match"
	case Unresolved:
		return "unresolved"
	default:
		return ""
	}
}

// Resolution maps a canonical song to a video, an explicit no-match, or an unresolved reason.
type Resolution struct {
	Song    string
	VideoID string
	Status  ResolveStatus
	Err     error // wraps shared.ErrQuotaExhausted or shared.ErrTransient when Unresolved
	Cached  bool  // served without a remote call
}

// QuotaExhausted reports whether the song was left unresolved because quota ran out.
func (r Resolution) QuotaExhausted() bool {
	return r.Status == Unresolved && errors.Is(r.Err, shared.ErrQuotaExhausted)
}

// OutcomeKind is the per-song terminal classification of a run.
type OutcomeKind int

const (
	OutcomeUnknown OutcomeKind = iota // not yet classified
	Added
	AlreadyPresent
	NoMatchFound
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeUnknown:
		return "unknown"
	case Added:
		return "added"
	case AlreadyPresent:
		return "already_present"
	case NoMatchFound:
		return "no_match_found"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Outcome is written exactly once per canonical song.
type Outcome struct {
	Song    string
	Kind    OutcomeKind
	VideoID string
	Err     error // set when Kind is Failed
}

// QuotaExhausted reports whether the failure was caused by quota exhaustion.
func (o Outcome) QuotaExhausted() bool {
	return o.Kind == Failed && errors.Is(o.Err, shared.ErrQuotaExhausted)
}

// RunSummary is derived from a run's outcomes and the quota ledger's final state.
type RunSummary struct {
	Total          int          `json:"total"`
	Added          int          `json:"added"`
	AlreadyPresent int          `json:"already_present"`
	NoMatchFound   int          `json:"no_match_found"`
	Failed         int          `json:"failed"`
	QuotaExhausted int          `json:"quota_exhausted"` // subset of Failed
	Spent          int          `json:"spent"`
	Remaining      int          `json:"remaining,omitempty"`
	RemainingKnown bool         `json:"remaining_known"`
	Exhausted      bool         `json:"exhausted"`
	ByKind         []KindUsage  `json:"by_kind,omitempty"`
	Remote         *RemoteQuota `json:"remote,omitempty"`
}

// KindUsage is the committed spend of one operation kind.
type KindUsage struct {
	Kind  string `json:"kind"`
	Units int    `json:"units"`
	Calls int    `json:"calls"`
}

// RemoteQuota is the quota the service reported through its x-ratelimit-* headers.
type RemoteQuota struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit,omitempty"`
	ResetAt   time.Time `json:"reset_at,omitzero"`
}

// CacheEntry is a persisted search result.
type CacheEntry struct {
	Song      string
	VideoID   string
	NoMatch   bool
	CreatedAt time.Time
}

// Resolution converts the entry back into a cached [Resolution].
func (e CacheEntry) Resolution() Resolution {
	r := Resolution{Song: e.Song, VideoID: e.VideoID, Status: Resolved, Cached: true}
	if e.NoMatch {
		r.Status = NoMatch
		r.VideoID = ""
	}
	return r
}

// RunRecord is the history row written after every run.
type RunRecord struct {
	ID            string
	Sequence      int
	PlaylistID    string
	PlaylistTitle string
	Summary       RunSummary
	StartedAt     time.Time
	FinishedAt    time.Time
}
