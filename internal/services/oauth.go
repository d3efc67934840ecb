package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/ytsongs/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// NewOAuthConfig builds the installed-app OAuth2 config for the YouTube scope.
func NewOAuthConfig(cfg shared.YouTubeConfig) (*oauth2.Config, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: youtube client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{youtube.YoutubeScope},
		Endpoint:     google.Endpoint,
	}, nil
}

// AuthURL returns the consent URL requesting a refresh token.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// TokenStore persists an OAuth2 token as JSON on disk.
type TokenStore struct {
	Path string
}

// Load reads the stored token, returning [shared.ErrNotAuthenticated] when none exists.
func (s TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no token at %s, run 'auth login'", shared.ErrNotAuthenticated, s.Path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: token file %s is corrupt: %v", shared.ErrNotAuthenticated, s.Path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file %s is empty", shared.ErrNotAuthenticated, s.Path)
	}
	return &tok, nil
}

// Save writes the token with owner-only permissions.
func (s TokenStore) Save(tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// savingSource writes refreshed tokens back to the store.
type savingSource struct {
	mu    sync.Mutex
	base  oauth2.TokenSource
	store TokenStore
	last  string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		_ = s.store.Save(tok)
	}
	return tok, nil
}

// Authorize loads the stored token and returns an executor that signs every request with it.
func Authorize(ctx context.Context, cfg *shared.Config, store TokenStore) (*APIService, error) {
	conf, err := NewOAuthConfig(cfg.Credentials.YouTube)
	if err != nil {
		return nil, err
	}

	tok, err := store.Load()
	if err != nil {
		return nil, err
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: stored token has expired and cannot be refreshed", shared.ErrTokenExpired)
	}

	src := oauth2.ReuseTokenSource(tok, &savingSource{
		base:  conf.TokenSource(ctx, tok),
		store: store,
		last:  tok.AccessToken,
	})

	return NewAPIService(APIOpts{
		BaseURL:           cfg.Credentials.YouTube.BaseURL,
		APIKey:            cfg.Credentials.YouTube.APIKey,
		Client:            oauth2.NewClient(ctx, src),
		RequestsPerSecond: cfg.Engine.RequestsPerSecond,
	}), nil
}
