package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytsongs/internal/shared"
	"golang.org/x/oauth2"
)

func TestNewOAuthConfig(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		if _, err := NewOAuthConfig(shared.YouTubeConfig{ClientID: "id"}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("youtube scope and offline access", func(t *testing.T) {
		conf, err := NewOAuthConfig(shared.YouTubeConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://127.0.0.1:1/callback"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(conf.Scopes) != 1 || !strings.Contains(conf.Scopes[0], "youtube") {
			t.Errorf("unexpected scopes %v", conf.Scopes)
		}

		u := AuthURL(conf, "state123")
		for _, want := range []string{"state=state123", "access_type=offline", "client_id=id"} {
			if !strings.Contains(u, want) {
				t.Errorf("expected auth URL to contain %s, got %s", want, u)
			}
		}
	})
}

func TestTokenStore(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		store := TokenStore{Path: filepath.Join(t.TempDir(), "token.json")}
		if _, err := store.Load(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("round trip with owner-only permissions", func(t *testing.T) {
		store := TokenStore{Path: filepath.Join(t.TempDir(), "nested", "token.json")}
		tok := &oauth2.Token{AccessToken: "abc", RefreshToken: "def", Expiry: time.Now().Add(time.Hour)}

		if err := store.Save(tok); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		info, err := os.Stat(store.Path)
		if err != nil {
			t.Fatalf("token file missing: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected 0600, got %v", info.Mode().Perm())
		}

		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if loaded.AccessToken != "abc" || loaded.RefreshToken != "def" {
			t.Errorf("unexpected token %+v", loaded)
		}
	})

	t.Run("corrupt token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		os.WriteFile(path, []byte("{nope"), 0600)

		if _, err := (TokenStore{Path: path}).Load(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestAuthorize(t *testing.T) {
	newConfig := func(baseURL string) *shared.Config {
		cfg := shared.DefaultConfig()
		cfg.Credentials.YouTube.ClientID = "id"
		cfg.Credentials.YouTube.ClientSecret = "secret"
		cfg.Credentials.YouTube.BaseURL = baseURL
		cfg.Engine.RequestsPerSecond = 0
		return cfg
	}

	t.Run("signs requests with stored token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer abc" {
				t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		store := TokenStore{Path: filepath.Join(t.TempDir(), "token.json")}
		store.Save(&oauth2.Token{AccessToken: "abc", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)})

		exec, err := Authorize(context.Background(), newConfig(server.URL), store)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := exec.Do(context.Background(), http.MethodGet, "/playlists", nil); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("not authenticated", func(t *testing.T) {
		store := TokenStore{Path: filepath.Join(t.TempDir(), "token.json")}
		if _, err := Authorize(context.Background(), newConfig("http://example.com"), store); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("expired without refresh token", func(t *testing.T) {
		store := TokenStore{Path: filepath.Join(t.TempDir(), "token.json")}
		store.Save(&oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(-time.Hour)})

		if _, err := Authorize(context.Background(), newConfig("http://example.com"), store); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		store := TokenStore{Path: filepath.Join(t.TempDir(), "token.json")}
		if _, err := Authorize(context.Background(), cfg, store); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}
