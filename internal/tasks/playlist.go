package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/services"
	"github.com/desertthunder/ytsongs/internal/shared"
)

// PlaylistSpec describes the target playlist.
type PlaylistSpec struct {
	Title       string
	Description string
	Privacy     string
}

// DefaultPlaylistSpec matches the defaults in config.example.toml.
var DefaultPlaylistSpec = PlaylistSpec{
	Title:       "My New Playlist",
	Description: "A playlist created from a text list of songs",
	Privacy:     "public",
}

// PlaylistSpecFromConfig fills empty fields of cfg from [DefaultPlaylistSpec].
func PlaylistSpecFromConfig(cfg shared.PlaylistConfig) PlaylistSpec {
	spec := PlaylistSpec{Title: cfg.Title, Description: cfg.Description, Privacy: cfg.Privacy}
	if spec.Title == "" {
		spec.Title = DefaultPlaylistSpec.Title
	}
	if spec.Description == "" {
		spec.Description = DefaultPlaylistSpec.Description
	}
	if spec.Privacy == "" {
		spec.Privacy = DefaultPlaylistSpec.Privacy
	}
	return spec
}

// EnsurePlaylist returns the first playlist whose title equals spec.Title exactly, creating one when
// there is none. created reports whether a playlist was created.
func EnsurePlaylist(ctx context.Context, catalog services.Catalog, spec PlaylistSpec) (*models.Playlist, bool, error) {
	if spec.Title == "" {
		return nil, false, fmt.Errorf("%w: playlist title is required", shared.ErrInvalidArgument)
	}

	playlists, err := catalog.ListPlaylists(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list playlists: %w", err)
	}
	for _, p := range playlists {
		if p.Title == spec.Title {
			return &p, false, nil
		}
	}

	created, err := catalog.CreatePlaylist(ctx, spec.Title, spec.Description, spec.Privacy)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create playlist %q: %w", spec.Title, err)
	}
	return created, true, nil
}
