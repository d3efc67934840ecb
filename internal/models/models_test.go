package models

import (
	"fmt"
	"testing"

	"github.com/desertthunder/ytsongs/internal/shared"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    bool
	}{
		{name: "added", outcome: Outcome{Kind: Added}, want: false},
		{name: "failed transient", outcome: Outcome{Kind: Failed, Err: shared.ErrTransient}, want: false},
		{name: "failed quota", outcome: Outcome{Kind: Failed, Err: fmt.Errorf("insert: %w", shared.ErrQuotaExhausted)}, want: true},
		{name: "quota error on non-failed kind", outcome: Outcome{Kind: NoMatchFound, Err: shared.ErrQuotaExhausted}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.QuotaExhausted(); got != tt.want {
				t.Errorf("QuotaExhausted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheEntry(t *testing.T) {
	t.Run("resolved entry", func(t *testing.T) {
		r := CacheEntry{Song: "A", VideoID: "vid"}.Resolution()
		if r.Status != Resolved || r.VideoID != "vid" || !r.Cached {
			t.Errorf("unexpected resolution %+v", r)
		}
	})

	t.Run("no match entry drops video id", func(t *testing.T) {
		r := CacheEntry{Song: "A", VideoID: "stale", NoMatch: true}.Resolution()
		if r.Status != NoMatch || r.VideoID != "" {
			t.Errorf("unexpected resolution %+v", r)
		}
	})
}

func TestStringers(t *testing.T) {
	if Added.String() != "added" || Failed.String() != "failed" || OutcomeKind(99).String() != "" {
		t.Error("unexpected OutcomeKind strings")
	}
	if NoMatch.String() != "no_match" || Unresolved.String() != "unresolved" {
		t.Error("unexpected ResolveStatus strings")
	}
}

func TestZeroValues(t *testing.T) {
	var r Resolution
	if r.Status == Resolved || r.Status.String() != "unknown" {
		t.Errorf("zero ResolveStatus should be unknown, got %q", r.Status)
	}

	var o Outcome
	if o.Kind == Added || o.Kind.String() != "unknown" {
		t.Errorf("zero OutcomeKind should be unknown, got %q", o.Kind)
	}
}
