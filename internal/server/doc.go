// Package server provides the loopback HTTP server used by the OAuth login flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [Middleware] wraps handlers in
// reverse order (last added executes first). [BasicRouter] uses [http.ServeMux] internally with method
// filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter, exchanges the authorization code for a token and sends
// the result through a channel. It only processes one callback.
//
// # Usage
//
// The auth login command starts a [CallbackServer] on the host and port of the configured redirect URI
// (127.0.0.1:27862 by default), opens the Google consent page and shuts the server down once
// [OAuthHandler.Wait] returns.
package server
