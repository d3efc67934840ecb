// Package services defines the [Catalog] interface for the remote video catalog and implements it for the
// YouTube Data API v3.
//
// # Executor
//
// [APIService] sends authorized requests. It paces calls with a token bucket, appends the API key when one
// is configured and turns non-2xx answers into a [*RemoteError] using the googleapi error envelope.
//
// [Classify] folds every failure into one of three outcomes: [OK], [QuotaExceeded] or [OtherError]. Only a
// 403 with reason quotaExceeded or dailyLimitExceeded counts as quota; rate limiting is transient.
//
// # Catalog
//
// [YouTubeService] charges a quota.Ledger for every call it sends:
//   - search.list: search cost
//   - playlists.list (per page), playlists.insert, playlistItems.insert: mutate cost
//   - playlistItems.list (per page): read cost
//
// A reservation is committed when the service answered, rolled back when no response arrived and exhausts
// the ledger on a quota rejection. Once exhausted the ledger refuses every later reservation, so no further
// requests leave the process.
//
// # OAuth
//
// [Authorize] loads the token saved by the login flow from a [TokenStore] and wraps it in a refreshing
// [oauth2.TokenSource]. Refreshed tokens are written back to the store.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no usable token, run auth login
//   - [shared.ErrTokenExpired] : token expired and could not be refreshed
//   - [shared.ErrMissingCredentials] : client id or secret not configured
//   - [shared.ErrQuotaExhausted] : remote or local quota refusal
//   - [shared.ErrTransient] : any other single-call failure
package services
