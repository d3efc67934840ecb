// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/quota"
	"github.com/desertthunder/ytsongs/internal/shared"
)

// QuotaError is what the fake remote returns once its quota is gone.
func QuotaError() error {
	return fmt.Errorf("%w: quotaExceeded", shared.ErrQuotaExhausted)
}

// TransientError is a non-quota remote failure.
func TransientError(msg string) error {
	return fmt.Errorf("%w: %s", shared.ErrTransient, msg)
}

var errDropped = errors.New("connection reset by peer")

// DroppedError is a transient failure that never reached the service. The fake rolls its reservation back.
func DroppedError() error {
	return fmt.Errorf("%w: request failed: %w", shared.ErrTransient, errDropped)
}

// FakeCatalog is an in-memory test double for [services.Catalog].
//
// Calls are charged to Ledger (when set) the same way the YouTube client charges them. Once a quota error
// has been returned every later call in the same [quota.Domain] fails with one too.
type FakeCatalog struct {
	Ledger *quota.Ledger

	Videos     map[string]string   // query -> video ID, absent means no match
	Playlists  []models.Playlist   // playlists owned by the user
	Items      map[string][]string // playlist ID -> video IDs
	SearchErrs map[string]error    // query -> error returned by Search
	InsertErrs map[string]error    // video ID -> error returned by InsertPlaylistItem
	ListErr    error
	CreateErr  error
	ItemsErr   error

	SearchQuotaAt int // 1-based search call that hits the daily limit, zero never
	InsertQuotaAt int // 1-based insert call that hits the daily limit, zero never
	Delay         time.Duration

	mu          sync.Mutex
	exhausted   map[quota.Domain]bool
	inFlight    int
	MaxInFlight int
	SearchCalls map[string]int
	Searches    int
	Inserts     []string
	Creates     int
	Lists       int
	ItemLists   int
}

// NewFakeCatalog creates an empty fake charging ledger.
func NewFakeCatalog(ledger *quota.Ledger) *FakeCatalog {
	return &FakeCatalog{
		Ledger:      ledger,
		Videos:      make(map[string]string),
		Items:       make(map[string][]string),
		SearchErrs:  make(map[string]error),
		InsertErrs:  make(map[string]error),
		SearchCalls: make(map[string]int),
		exhausted:   make(map[quota.Domain]bool),
	}
}

func (f *FakeCatalog) charge(ctx context.Context, k quota.Kind, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var r *quota.Reservation
	if f.Ledger != nil {
		var err error
		if r, err = f.Ledger.Reserve(k); err != nil {
			return err
		}
	}

	f.mu.Lock()
	f.inFlight++
	f.MaxInFlight = max(f.MaxInFlight, f.inFlight)
	f.mu.Unlock()

	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}

	f.mu.Lock()
	var err error
	if f.exhausted[k.Domain()] {
		err = QuotaError()
	} else {
		err = fn()
	}
	if errors.Is(err, shared.ErrQuotaExhausted) {
		f.exhausted[k.Domain()] = true
	}
	f.inFlight--
	f.mu.Unlock()

	switch {
	case errors.Is(err, shared.ErrQuotaExhausted):
		r.Exhaust()
	case errors.Is(err, errDropped):
		r.Rollback()
	default:
		r.Commit()
	}
	return err
}

func (f *FakeCatalog) Search(ctx context.Context, query string) (string, bool, error) {
	var id string
	var found bool
	err := f.charge(ctx, quota.Search, func() error {
		f.Searches++
		f.SearchCalls[query]++
		if f.SearchQuotaAt > 0 && f.Searches >= f.SearchQuotaAt {
			return QuotaError()
		}
		if err, ok := f.SearchErrs[query]; ok {
			return err
		}
		id, found = f.Videos[query]
		return nil
	})
	return id, found, err
}

func (f *FakeCatalog) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var out []models.Playlist
	err := f.charge(ctx, quota.Mutate, func() error {
		f.Lists++
		if f.ListErr != nil {
			return f.ListErr
		}
		out = append(out, f.Playlists...)
		return nil
	})
	return out, err
}

func (f *FakeCatalog) CreatePlaylist(ctx context.Context, title, description, privacy string) (*models.Playlist, error) {
	var p *models.Playlist
	err := f.charge(ctx, quota.Mutate, func() error {
		f.Creates++
		if f.CreateErr != nil {
			return f.CreateErr
		}
		p = &models.Playlist{
			ID:          fmt.Sprintf("PL%d", len(f.Playlists)+1),
			Title:       title,
			Description: description,
			Privacy:     privacy,
		}
		f.Playlists = append(f.Playlists, *p)
		return nil
	})
	return p, err
}

func (f *FakeCatalog) ListPlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	var out []string
	err := f.charge(ctx, quota.Read, func() error {
		f.ItemLists++
		if f.ItemsErr != nil {
			return f.ItemsErr
		}
		out = append(out, f.Items[playlistID]...)
		return nil
	})
	return out, err
}

func (f *FakeCatalog) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	return f.charge(ctx, quota.Mutate, func() error {
		f.Inserts = append(f.Inserts, videoID)
		if f.InsertQuotaAt > 0 && len(f.Inserts) >= f.InsertQuotaAt {
			return QuotaError()
		}
		if err, ok := f.InsertErrs[videoID]; ok {
			return err
		}
		f.Items[playlistID] = append(f.Items[playlistID], videoID)
		return nil
	})
}

// SearchCount returns how many times query was searched.
func (f *FakeCatalog) SearchCount(query string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SearchCalls[query]
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
