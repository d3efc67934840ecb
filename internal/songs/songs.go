// package songs turns raw song list text into canonical, deduplicated query strings
package songs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/desertthunder/ytsongs/internal/shared"
)

var (
	lineBreak = regexp.MustCompile(`\r?\n`)
	extension = regexp.MustCompile(`\.[a-zA-Z0-9]+$`)
)

// Canonicalize trims a single line and strips one trailing file-type suffix such as ".mp3".
func Canonicalize(line string) string {
	line = strings.TrimSpace(line)
	return extension.ReplaceAllString(line, "")
}

// Normalize splits raw text into canonical songs, dropping empty lines and duplicates.
//
// Order of first appearance is preserved. Empty input yields an empty, non-nil slice.
func Normalize(raw string) []string {
	seen := make(map[string]struct{})
	songs := make([]string, 0)

	for _, line := range lineBreak.Split(raw, -1) {
		song := Canonicalize(line)
		if song == "" {
			continue
		}
		if _, dup := seen[song]; dup {
			continue
		}
		seen[song] = struct{}{}
		songs = append(songs, song)
	}
	return songs
}

// InputError reports a song list that could not be loaded or was unusable.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("song list %q: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Source yields the raw text of a song list.
type Source interface {
	Read(ctx context.Context, path string) (string, error)
}

// FileSource reads song lists from the local filesystem.
type FileSource struct {
	FS fs.FS // optional; when nil paths are opened with [os.ReadFile]
}

// Read returns the file contents, wrapping failures in [InputError].
//
// A missing file unwraps to [shared.ErrSongListNotFound]; any other failure to [shared.ErrSongListRead].
func (s FileSource) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		data []byte
		err  error
	)
	if s.FS != nil {
		data, err = fs.ReadFile(s.FS, path)
	} else {
		data, err = os.ReadFile(path)
	}

	switch {
	case err == nil:
		return string(data), nil
	case errors.Is(err, fs.ErrNotExist):
		return "", &InputError{Path: path, Err: fmt.Errorf("%w: %v", shared.ErrSongListNotFound, err)}
	default:
		return "", &InputError{Path: path, Err: fmt.Errorf("%w: %v", shared.ErrSongListRead, err)}
	}
}

// StaticSource serves an in-memory song list regardless of path.
type StaticSource string

func (s StaticSource) Read(ctx context.Context, _ string) (string, error) {
	return string(s), ctx.Err()
}

// Load reads and normalizes the list at path.
//
// When requireSongs is set an empty result is an [InputError] wrapping [shared.ErrEmptyInput].
func Load(ctx context.Context, src Source, path string, requireSongs bool) ([]string, error) {
	raw, err := src.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	songs := Normalize(raw)
	if requireSongs && len(songs) == 0 {
		return nil, &InputError{Path: path, Err: shared.ErrEmptyInput}
	}
	return songs, nil
}
