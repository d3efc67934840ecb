package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/desertthunder/ytsongs/internal/server"
	"github.com/desertthunder/ytsongs/internal/services"
	"github.com/desertthunder/ytsongs/internal/shared"
	"github.com/urfave/cli/v3"
)

const authTimeout = 2 * time.Minute

// callbackAddr returns the listen address and path taken from the redirect URI, falling back to the
// server section when the URI has no host.
func (r *Runner) callbackAddr() (string, string, error) {
	addr := net.JoinHostPort(r.config.Server.Host, fmt.Sprint(r.config.Server.Port))
	path := "/callback"

	raw := r.config.Credentials.YouTube.RedirectURI
	if raw == "" {
		return addr, path, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: redirect_uri %q: %v", shared.ErrInvalidConfig, raw, err)
	}
	if u.Host != "" {
		addr = u.Host
	}
	if u.Path != "" {
		path = u.Path
	}
	return addr, path, nil
}

// AuthLogin runs the installed-app OAuth flow on a loopback callback server and stores the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	conf, err := services.NewOAuthConfig(r.config.Credentials.YouTube)
	if err != nil {
		return err
	}

	addr, path, err := r.callbackAddr()
	if err != nil {
		return err
	}
	if conf.RedirectURL == "" {
		conf.RedirectURL = "http://" + addr + path
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := server.NewOAuthHandler(conf, state, path)
	router := server.NewBasicRouter(server.LoggingMiddleware(r.logger))
	router.Handler(handler)

	srv := server.NewCallbackServer(addr, router, r.logger)
	if err := srv.Start(); err != nil {
		return err
	}
	defer func() {
		if err := srv.Shutdown(); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()
	r.logger.Info("waiting for OAuth callback", "addr", srv.Addr(), "path", path)

	authURL := services.AuthURL(conf, state)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Google consent...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", authTimeout)
	token, err := handler.Wait(ctx, srv, authTimeout)
	if err != nil {
		return err
	}

	store := r.tokenStore()
	if err := store.Save(token); err != nil {
		return err
	}
	r.logger.Info("token saved", "path", store.Path)

	if token.RefreshToken == "" {
		r.writePlain("⚠ No refresh token was issued; you will need to log in again when it expires.\n")
	}
	return r.writePlain("✓ Authentication successful\n")
}

// AuthStatus reports whether a stored token exists and can be used or refreshed.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store := r.tokenStore()
	token, err := store.Load()
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return r.writePlain("Authentication: ✗ Not authenticated (%s)\n", store.Path)
	} else if err != nil {
		return err
	}

	r.writePlain("Token file: %s\n", store.Path)
	switch {
	case token.Valid() && token.Expiry.IsZero():
		r.writePlain("Authentication: ✓ Authenticated\n")
	case token.Valid():
		r.writePlain("Authentication: ✓ Authenticated (expires %s)\n", token.Expiry.Local().Format(time.RFC1123))
	case token.RefreshToken != "":
		r.writePlain("Authentication: ✓ Access token expired, will refresh on next use\n")
	default:
		r.writePlain("Authentication: ✗ Token expired and cannot be refreshed\n")
	}
	return nil
}

// AuthLogout deletes the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	store := r.tokenStore()
	if err := os.Remove(store.Path); errors.Is(err, os.ErrNotExist) {
		return r.writePlain("No token stored at %s\n", store.Path)
	} else if err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	r.logger.Info("token removed", "path", store.Path)
	return r.writePlain("✓ Logged out\n")
}
