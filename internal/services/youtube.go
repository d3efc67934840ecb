// YouTube Data API [Catalog] implementation
//
// Every remote call is charged to a [quota.Ledger] before it is sent.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/quota"
	"github.com/desertthunder/ytsongs/internal/shared"
	"google.golang.org/api/youtube/v3"
)

const pageSize = "50"

// maxPages bounds paginated reads when the service keeps handing back tokens.
const maxPages = 200

// YouTubeService implements [Catalog] for the YouTube Data API v3.
type YouTubeService struct {
	exec   Executor
	ledger *quota.Ledger
}

// NewYouTubeService creates a catalog client. A nil ledger charges nothing.
func NewYouTubeService(exec Executor, ledger *quota.Ledger) *YouTubeService {
	if ledger == nil {
		ledger = quota.NewLedger(0, quota.Costs{})
	}
	return &YouTubeService{exec: exec, ledger: ledger}
}

// Ledger returns the ledger calls are charged to.
func (y *YouTubeService) Ledger() *quota.Ledger {
	return y.ledger
}

// call reserves the cost of kind, sends the request and settles the reservation.
//
// A call is committed once the service has answered, rolled back when no response was received and
// exhausts the ledger on a quota rejection.
func (y *YouTubeService) call(ctx context.Context, kind quota.Kind, method, path string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r, err := y.ledger.Reserve(kind)
	if err != nil {
		return err
	}

	resp, err := y.exec.Do(ctx, method, path, body)
	if resp != nil {
		if rq, ok := parseRateLimit(resp.Headers); ok {
			y.ledger.Observe(rq)
		}
	}
	switch Classify(err) {
	case QuotaExceeded:
		r.Exhaust()
		return err
	case OtherError:
		if resp == nil {
			r.Rollback()
		} else {
			r.Commit()
		}
		return err
	}

	r.Commit()
	if resp == nil {
		return nil
	}
	return resp.Decode(out)
}

// Search runs search.list for a single video.
func (y *YouTubeService) Search(ctx context.Context, query string) (string, bool, error) {
	params := url.Values{
		"part":       {"snippet"},
		"q":          {query},
		"type":       {"video"},
		"maxResults": {"1"},
	}

	var result youtube.SearchListResponse
	if err := y.call(ctx, quota.Search, http.MethodGet, "/search?"+params.Encode(), nil, &result); err != nil {
		return "", false, err
	}

	for _, item := range result.Items {
		if item != nil && item.Id != nil && item.Id.VideoId != "" {
			return item.Id.VideoId, true, nil
		}
	}
	return "", false, nil
}

// ListPlaylists pages through playlists.list with mine=true.
func (y *YouTubeService) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist

	params := url.Values{"part": {"snippet,status"}, "mine": {"true"}, "maxResults": {pageSize}}
	err := paginate("/playlists", params, func(path string) (string, error) {
		var page youtube.PlaylistListResponse
		if err := y.call(ctx, quota.Mutate, http.MethodGet, path, nil, &page); err != nil {
			return "", err
		}
		for _, p := range page.Items {
			if p != nil {
				playlists = append(playlists, toPlaylist(p))
			}
		}
		return page.NextPageToken, nil
	})
	if err != nil {
		return nil, err
	}
	return playlists, nil
}

// CreatePlaylist inserts a playlist with the given snippet and privacy status.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description, privacy string) (*models.Playlist, error) {
	body := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{Title: title, Description: description},
		Status:  &youtube.PlaylistStatus{PrivacyStatus: privacy},
	}

	var created youtube.Playlist
	if err := y.call(ctx, quota.Mutate, http.MethodPost, "/playlists?part=snippet,status", body, &created); err != nil {
		return nil, err
	}
	if created.Id == "" {
		return nil, fmt.Errorf("%w: created playlist has no id", shared.ErrTransient)
	}

	p := toPlaylist(&created)
	if p.Title == "" {
		p.Title = title
	}
	if p.Description == "" {
		p.Description = description
	}
	if p.Privacy == "" {
		p.Privacy = privacy
	}
	return &p, nil
}

// ListPlaylistItems pages through playlistItems.list and returns the video IDs it contains.
func (y *YouTubeService) ListPlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	var videoIDs []string

	params := url.Values{"part": {"contentDetails"}, "playlistId": {playlistID}, "maxResults": {pageSize}}
	err := paginate("/playlistItems", params, func(path string) (string, error) {
		var page youtube.PlaylistItemListResponse
		if err := y.call(ctx, quota.Read, http.MethodGet, path, nil, &page); err != nil {
			return "", err
		}
		for _, item := range page.Items {
			if id := itemVideoID(item); id != "" {
				videoIDs = append(videoIDs, id)
			}
		}
		return page.NextPageToken, nil
	})
	if err != nil {
		return nil, err
	}
	return videoIDs, nil
}

// InsertPlaylistItem appends videoID to the end of the playlist.
func (y *YouTubeService) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	body := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: videoID},
		},
	}
	return y.call(ctx, quota.Mutate, http.MethodPost, "/playlistItems?part=snippet", body, nil)
}

// paginate requests base until the service stops returning page tokens.
func paginate(base string, params url.Values, page func(path string) (string, error)) error {
	seen := make(map[string]bool)
	for range maxPages {
		next, err := page(base + "?" + params.Encode())
		if err != nil {
			return err
		}
		if next == "" || seen[next] {
			return nil
		}
		seen[next] = true
		params.Set("pageToken", next)
	}
	return nil
}

func toPlaylist(p *youtube.Playlist) models.Playlist {
	playlist := models.Playlist{ID: p.Id}
	if p.Snippet != nil {
		playlist.Title = p.Snippet.Title
		playlist.Description = p.Snippet.Description
	}
	if p.Status != nil {
		playlist.Privacy = p.Status.PrivacyStatus
	}
	return playlist
}

func itemVideoID(item *youtube.PlaylistItem) string {
	switch {
	case item == nil:
		return ""
	case item.ContentDetails != nil && item.ContentDetails.VideoId != "":
		return item.ContentDetails.VideoId
	case item.Snippet != nil && item.Snippet.ResourceId != nil:
		return item.Snippet.ResourceId.VideoId
	default:
		return ""
	}
}
