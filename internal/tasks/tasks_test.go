package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/quota"
	"github.com/desertthunder/ytsongs/internal/services"
	"github.com/desertthunder/ytsongs/internal/shared"
	"github.com/desertthunder/ytsongs/internal/songs"
	tu "github.com/desertthunder/ytsongs/internal/testing"
)

type mockRecorder struct {
	mu   sync.Mutex
	runs []*models.RunRecord
	err  error
}

func (m *mockRecorder) Create(_ context.Context, run *models.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return m.err
}

func newTestEngine(budget int) (*Engine, *tu.FakeCatalog, *quota.Ledger) {
	ledger := quota.NewLedger(budget, quota.DefaultCosts)
	fake := tu.NewFakeCatalog(ledger)
	engine := NewEngine(fake, ledger, EngineOpts{SearchWorkers: 2, InsertWorkers: 1, RequireSongs: true})
	return engine, fake, ledger
}

func TestEngine(t *testing.T) {
	ctx := context.Background()
	const raw = "Shape of You.mp3\nRolling in the Deep.mp4\nShape of You.mp3\nUnknown Song.mp3\n"

	t.Run("Run", func(t *testing.T) {
		t.Run("full sync", func(t *testing.T) {
			engine, fake, ledger := newTestEngine(0)
			fake.Videos["Shape of You"] = "v1"
			fake.Videos["Rolling in the Deep"] = "v2"

			result, err := engine.Run(ctx, songs.StaticSource(raw), "inline", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !result.Created || result.Playlist.Title != DefaultPlaylistSpec.Title {
				t.Errorf("expected default playlist to be created, got %+v", result.Playlist)
			}
			if len(result.Songs) != 3 {
				t.Errorf("expected 3 canonical songs, got %v", result.Songs)
			}

			s := result.Summary
			if s.Total != 3 || s.Added != 2 || s.NoMatchFound != 1 || s.Failed != 0 {
				t.Errorf("unexpected summary %+v", s)
			}

			// list + create + 3 searches + 1 item page + 2 inserts
			want := 50 + 50 + 3*100 + 1 + 2*50
			if s.Spent != want || ledger.Spent() != want {
				t.Errorf("expected %d spent, got %d", want, s.Spent)
			}

			ordered := result.Ordered()
			if len(ordered) != 3 || ordered[0].Song != "Shape of You" || ordered[2].Kind != models.NoMatchFound {
				t.Errorf("unexpected ordered outcomes %+v", ordered)
			}
		})

		t.Run("second run is idempotent", func(t *testing.T) {
			engine, fake, _ := newTestEngine(0)
			fake.Videos["Shape of You"] = "v1"
			fake.Videos["Rolling in the Deep"] = "v2"

			if _, err := engine.Run(ctx, songs.StaticSource(raw), "inline", nil); err != nil {
				t.Fatalf("first run failed: %v", err)
			}
			second, err := engine.Run(ctx, songs.StaticSource(raw), "inline", nil)
			if err != nil {
				t.Fatalf("second run failed: %v", err)
			}

			if second.Created || fake.Creates != 1 {
				t.Errorf("expected the playlist to be reused, got %d creates", fake.Creates)
			}
			if len(fake.Inserts) != 2 {
				t.Errorf("expected no new inserts, got %v", fake.Inserts)
			}
			if second.Summary.Added != 0 || second.Summary.AlreadyPresent != 2 {
				t.Errorf("unexpected second summary %+v", second.Summary)
			}
		})

		t.Run("existing playlist by exact title", func(t *testing.T) {
			engine, fake, _ := newTestEngine(0)
			fake.Playlists = []models.Playlist{
				{ID: "PLx", Title: "my new playlist"},
				{ID: "PLy", Title: DefaultPlaylistSpec.Title},
			}
			fake.Items["PLy"] = []string{"v1"}
			fake.Videos["A"] = "v1"

			result, err := engine.Run(ctx, songs.StaticSource("A\n"), "inline", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Playlist.ID != "PLy" || result.Created {
				t.Errorf("expected exact-title match PLy, got %+v", result.Playlist)
			}
			if result.Outcomes["A"].Kind != models.AlreadyPresent {
				t.Errorf("expected AlreadyPresent, got %s", result.Outcomes["A"].Kind)
			}
		})

		t.Run("missing song list is fatal with no remote calls", func(t *testing.T) {
			engine, fake, ledger := newTestEngine(0)
			src := songs.FileSource{FS: fstest.MapFS{}}

			_, err := engine.Run(ctx, src, "songs.txt", nil)

			var inputErr *songs.InputError
			if !errors.As(err, &inputErr) || !errors.Is(err, shared.ErrSongListNotFound) {
				t.Fatalf("expected InputError for a missing file, got %v", err)
			}
			if fake.Lists+fake.Searches+fake.ItemLists+len(fake.Inserts) != 0 || ledger.Spent() != 0 {
				t.Error("expected no remote calls")
			}
		})

		t.Run("empty list with require songs", func(t *testing.T) {
			engine, fake, _ := newTestEngine(0)
			if _, err := engine.Run(ctx, songs.StaticSource("\n\n"), "inline", nil); !errors.Is(err, shared.ErrEmptyInput) {
				t.Errorf("expected ErrEmptyInput, got %v", err)
			}
			if fake.Lists != 0 {
				t.Error("expected no remote calls")
			}
		})

		t.Run("empty list tolerated", func(t *testing.T) {
			ledger := quota.NewLedger(0, quota.DefaultCosts)
			fake := tu.NewFakeCatalog(ledger)
			engine := NewEngine(fake, ledger, EngineOpts{})

			result, err := engine.Run(ctx, songs.StaticSource(""), "inline", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Playlist != nil || result.Summary.Total != 0 || fake.Lists != 0 {
				t.Errorf("expected an empty run without remote calls, got %+v", result)
			}
		})

		t.Run("single search failure does not stop the run", func(t *testing.T) {
			engine, fake, _ := newTestEngine(0)
			fake.Videos["A"] = "vA"
			fake.Videos["C"] = "vC"
			fake.SearchErrs["B"] = tu.TransientError("backend error")

			result, err := engine.Run(ctx, songs.StaticSource("A\nB\nC\n"), "inline", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Summary.Added != 2 || result.Summary.Failed != 1 || result.Summary.QuotaExhausted != 0 {
				t.Errorf("unexpected summary %+v", result.Summary)
			}
		})

		t.Run("search quota exhaustion degrades the run", func(t *testing.T) {
			ledger := quota.NewLedger(0, quota.DefaultCosts)
			fake := tu.NewFakeCatalog(ledger)
			fake.SearchQuotaAt = 2
			for _, s := range []string{"A", "B", "C", "D"} {
				fake.Videos[s] = "v" + s
			}
			engine := NewEngine(fake, ledger, EngineOpts{SearchWorkers: 1, InsertWorkers: 1})

			result, err := engine.Run(ctx, songs.StaticSource("A\nB\nC\nD\n"), "inline", nil)
			if err != nil {
				t.Fatalf("quota exhaustion should not be an error, got %v", err)
			}

			s := result.Summary
			if s.Added != 1 || s.Failed != 3 || s.QuotaExhausted != 3 || !s.Exhausted || s.RemainingKnown {
				t.Errorf("unexpected summary %+v", s)
			}
			if got := result.Outcomes["A"]; got.Kind != models.Added || got.VideoID != "vA" {
				t.Errorf("a search rejection should not block inserting A, got %+v", got)
			}
			if fake.Searches != 2 {
				t.Errorf("expected 2 searches, got %d", fake.Searches)
			}
		})

		t.Run("quota exhausted while ensuring playlist", func(t *testing.T) {
			engine, fake, _ := newTestEngine(0)
			fake.ListErr = tu.QuotaError()

			result, err := engine.Run(ctx, songs.StaticSource("A\nB\n"), "inline", nil)
			if err != nil {
				t.Fatalf("expected degraded result, got %v", err)
			}
			if result.Summary.Failed != 2 || result.Summary.QuotaExhausted != 2 {
				t.Errorf("unexpected summary %+v", result.Summary)
			}
			if fake.Searches != 0 {
				t.Errorf("expected no searches, got %d", fake.Searches)
			}
		})

		t.Run("other playlist failure is fatal", func(t *testing.T) {
			engine, fake, _ := newTestEngine(0)
			fake.CreateErr = errors.New("credentials revoked")

			if _, err := engine.Run(ctx, songs.StaticSource("A\n"), "inline", nil); err == nil {
				t.Fatal("expected error")
			}
			if fake.Searches != 0 {
				t.Error("expected no searches after a fatal error")
			}
		})

		t.Run("records run", func(t *testing.T) {
			ledger := quota.NewLedger(0, quota.DefaultCosts)
			fake := tu.NewFakeCatalog(ledger)
			fake.Videos["A"] = "vA"
			recorder := &mockRecorder{}
			engine := NewEngine(fake, ledger, EngineOpts{Recorder: recorder, Playlist: PlaylistSpec{Title: "Mix", Privacy: "private"}})

			result, err := engine.Run(ctx, songs.StaticSource("A\n"), "inline", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(recorder.runs) != 1 {
				t.Fatalf("expected one recorded run, got %d", len(recorder.runs))
			}
			run := recorder.runs[0]
			if run.ID != result.RunID || run.PlaylistTitle != "Mix" || run.Summary.Added != 1 {
				t.Errorf("unexpected record %+v", run)
			}
			if fake.Playlists[0].Privacy != "private" {
				t.Errorf("expected configured privacy, got %s", fake.Playlists[0].Privacy)
			}
		})

		t.Run("recorder failure is not fatal", func(t *testing.T) {
			ledger := quota.NewLedger(0, quota.DefaultCosts)
			fake := tu.NewFakeCatalog(ledger)
			engine := NewEngine(fake, ledger, EngineOpts{Recorder: &mockRecorder{err: errors.New("db locked")}})

			if _, err := engine.Run(ctx, songs.StaticSource("A\n"), "inline", nil); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})

		t.Run("progress phases", func(t *testing.T) {
			engine, fake, _ := newTestEngine(0)
			fake.Videos["A"] = "vA"
			progress := make(chan ProgressUpdate, 32)

			if _, err := engine.Run(ctx, songs.StaticSource("A\n"), "inline", progress); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			close(progress)

			seen := make(map[Phase]bool)
			for u := range progress {
				seen[u.Phase] = true
			}
			for _, p := range []Phase{PhaseLoad, PhaseEnsure, PhaseResolve, PhaseMembership, PhaseInsert, PhaseSummary} {
				if !seen[p] {
					t.Errorf("expected a %s update", p)
				}
			}
		})

		t.Run("nil catalog", func(t *testing.T) {
			engine := NewEngine(nil, nil, EngineOpts{})
			if _, err := engine.Run(ctx, songs.StaticSource("A"), "inline", nil); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})

	t.Run("EnsurePlaylist", func(t *testing.T) {
		t.Run("requires title", func(t *testing.T) {
			if _, _, err := EnsurePlaylist(ctx, tu.NewFakeCatalog(nil), PlaylistSpec{}); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("repeated calls create once", func(t *testing.T) {
			fake := tu.NewFakeCatalog(nil)
			for range 3 {
				if _, _, err := EnsurePlaylist(ctx, fake, DefaultPlaylistSpec); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
			}
			if fake.Creates != 1 {
				t.Errorf("expected one create, got %d", fake.Creates)
			}
		})
	})

	t.Run("PlaylistSpecFromConfig", func(t *testing.T) {
		got := PlaylistSpecFromConfig(shared.PlaylistConfig{Title: "Mix"})
		if got.Title != "Mix" || got.Description != DefaultPlaylistSpec.Description || got.Privacy != "public" {
			t.Errorf("unexpected spec %+v", got)
		}
	})
}

func TestEngineOverAPI(t *testing.T) {
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	t.Run("search rejection still inserts resolved songs", func(t *testing.T) {
		var searches, inserts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/playlists" && r.Method == http.MethodGet:
				writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
			case r.URL.Path == "/playlists" && r.Method == http.MethodPost:
				writeJSON(w, http.StatusOK, map[string]any{"id": "PL1", "snippet": map[string]any{"title": "t"}})
			case r.URL.Path == "/search":
				if atomic.AddInt32(&searches, 1) == 2 {
					writeJSON(w, http.StatusForbidden, map[string]any{
						"error": map[string]any{
							"code":    403,
							"message": "quota",
							"errors":  []map[string]string{{"domain": "youtube.quota", "reason": "quotaExceeded", "message": "quota"}},
						},
					})
					return
				}
				q := r.URL.Query().Get("q")
				writeJSON(w, http.StatusOK, map[string]any{
					"items": []any{map[string]any{"id": map[string]any{"kind": "youtube#video", "videoId": "v" + q}}},
				})
			case r.URL.Path == "/playlistItems" && r.Method == http.MethodGet:
				writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
			case r.URL.Path == "/playlistItems" && r.Method == http.MethodPost:
				atomic.AddInt32(&inserts, 1)
				writeJSON(w, http.StatusOK, map[string]any{"id": "item"})
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		ledger := quota.NewLedger(0, quota.DefaultCosts)
		exec := services.NewAPIService(services.APIOpts{BaseURL: server.URL, Client: server.Client()})
		engine := NewEngine(services.NewYouTubeService(exec, ledger), ledger, EngineOpts{SearchWorkers: 1, InsertWorkers: 1})

		result, err := engine.Run(context.Background(), songs.StaticSource("A.mp3\nB.mp3\nC\nD"), "inline", nil)
		if err != nil {
			t.Fatalf("expected degraded result, got %v", err)
		}

		if got := result.Outcomes["A"]; got.Kind != models.Added || got.VideoID != "vA" {
			t.Errorf("expected A to be added, got %+v", got)
		}
		s := result.Summary
		if s.Added != 1 || s.Failed != 3 || s.QuotaExhausted != 3 {
			t.Errorf("unexpected summary %+v", s)
		}
		if !s.Exhausted || s.RemainingKnown {
			t.Errorf("expected rejected ledger with unknown remaining, got %+v", s)
		}
		if searches != 2 || inserts != 1 {
			t.Errorf("expected 2 searches and 1 insert, got %d and %d", searches, inserts)
		}
	})
}
