// package services defines the [Catalog] interface for the remote video catalog and implements it for the
// YouTube Data API
package services

import (
	"context"

	"github.com/desertthunder/ytsongs/internal/models"
)

// Catalog is the set of remote operations the reconciliation engine needs.
//
// Every method maps to one or more remote calls with a fixed quota cost. Errors satisfy
// errors.Is(err, shared.ErrQuotaExhausted) when the remote service (or the local ledger) refused the
// call for quota reasons, and errors.Is(err, shared.ErrTransient) otherwise.
type Catalog interface {
	// Search returns the best video for query, or found=false when the search came back empty.
	Search(ctx context.Context, query string) (videoID string, found bool, err error)

	// ListPlaylists returns every playlist owned by the authenticated user.
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)

	// CreatePlaylist creates a playlist and returns it with its new ID.
	CreatePlaylist(ctx context.Context, title, description, privacy string) (*models.Playlist, error)

	// ListPlaylistItems returns the video IDs currently in the playlist.
	ListPlaylistItems(ctx context.Context, playlistID string) ([]string, error)

	// InsertPlaylistItem appends a video to the playlist.
	InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error
}
