package songs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/desertthunder/ytsongs/internal/shared"
)

func TestNormalize(t *testing.T) {
	tc := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "strips extensions",
			raw:  "Shape of You.mp3\nRolling in the Deep.mp4\nHotel California.mp3\n",
			want: []string{"Shape of You", "Rolling in the Deep", "Hotel California"},
		},
		{
			name: "deduplicates after normalization",
			raw:  "A.mp3\nA.mp3\nB.mp4\n",
			want: []string{"A", "B"},
		},
		{
			name: "same song with different extensions",
			raw:  "A.mp3\nA.flac\nA\n",
			want: []string{"A"},
		},
		{
			name: "whitespace and empty lines",
			raw:  "  A.mp3  \n\n  B.mp4\n\n  \n",
			want: []string{"A", "B"},
		},
		{
			name: "carriage return line endings",
			raw:  "A.mp3\r\nB.mp4\r\n\r\nC\r\n",
			want: []string{"A", "B", "C"},
		},
		{
			name: "single suffix only",
			raw:  "My.Song.mp3",
			want: []string{"My.Song"},
		},
		{
			name: "dots elsewhere are kept",
			raw:  "Mr. Brightside\nP.S. I Love You.mp3\n",
			want: []string{"Mr. Brightside", "P.S. I Love You"},
		},
		{
			name: "trailing dot alone is not an extension",
			raw:  "Wait.\n",
			want: []string{"Wait."},
		},
		{
			name: "first appearance order",
			raw:  "C\nA\nB\nA\nC\n",
			want: []string{"C", "A", "B"},
		},
		{
			name: "empty input",
			raw:  "",
			want: []string{},
		},
		{
			name: "line that is only an extension",
			raw:  ".mp3\nA\n",
			want: []string{"A"},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		raw := "  A.mp3 \nB.mp4\nA.mp3\r\n"
		first := Normalize(raw)
		second := Normalize(raw)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("expected identical results, got %q and %q", first, second)
		}
	})
}

func TestFileSource(t *testing.T) {
	ctx := context.Background()

	t.Run("reads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "songs.txt")
		if err := os.WriteFile(path, []byte("A.mp3\n"), 0644); err != nil {
			t.Fatalf("failed to write song list: %v", err)
		}

		raw, err := FileSource{}.Read(ctx, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if raw != "A.mp3\n" {
			t.Errorf("unexpected contents %q", raw)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := FileSource{}.Read(ctx, filepath.Join(t.TempDir(), "missing.txt"))

		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("expected InputError, got %T", err)
		}
		if !errors.Is(err, shared.ErrSongListNotFound) {
			t.Errorf("expected ErrSongListNotFound, got %v", err)
		}
		if errors.Is(err, shared.ErrSongListRead) {
			t.Error("not-found should be distinguishable from other read errors")
		}
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Error("input errors should match ErrInvalidInput")
		}
	})

	t.Run("other read error", func(t *testing.T) {
		_, err := FileSource{}.Read(ctx, t.TempDir())

		if !errors.Is(err, shared.ErrSongListRead) {
			t.Errorf("expected ErrSongListRead for a directory, got %v", err)
		}
		if errors.Is(err, shared.ErrSongListNotFound) {
			t.Error("read error should not be classified as not found")
		}
	})

	t.Run("reads from fs.FS", func(t *testing.T) {
		src := FileSource{FS: fstest.MapFS{"list.txt": {Data: []byte("B.mp4")}}}
		raw, err := src.Read(ctx, "list.txt")
		if err != nil || raw != "B.mp4" {
			t.Errorf("Read() = %q, %v", raw, err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := (FileSource{}).Read(cctx, "songs.txt"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes", func(t *testing.T) {
		got, err := Load(ctx, StaticSource("A.mp3\nA.mp3\nB.mp4\n"), "inline", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"A", "B"}) {
			t.Errorf("Load() = %q", got)
		}
	})

	t.Run("empty tolerated", func(t *testing.T) {
		got, err := Load(ctx, StaticSource("\n \n"), "inline", false)
		if err != nil || len(got) != 0 {
			t.Errorf("Load() = %q, %v", got, err)
		}
	})

	t.Run("empty rejected when required", func(t *testing.T) {
		_, err := Load(ctx, StaticSource(""), "inline", true)
		if !errors.Is(err, shared.ErrEmptyInput) {
			t.Errorf("expected ErrEmptyInput, got %v", err)
		}
	})

	t.Run("source error passes through", func(t *testing.T) {
		_, err := Load(ctx, FileSource{FS: fstest.MapFS{}}, "missing.txt", true)
		if !errors.Is(err, shared.ErrSongListNotFound) {
			t.Errorf("expected ErrSongListNotFound, got %v", err)
		}
	})
}
