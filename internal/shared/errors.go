package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Quota errors. ErrQuotaExhausted covers both a remote quota rejection and a local budget refusal.
	ErrQuotaExhausted = fmt.Errorf("quota exhausted")
	ErrTransient      = fmt.Errorf("transient remote error")

	// Input validation errors
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrEmptyInput        = fmt.Errorf("%w: song list is empty", ErrInvalidInput)
	ErrSongListNotFound  = fmt.Errorf("%w: song list not found", ErrInvalidInput)
	ErrSongListRead      = fmt.Errorf("%w: song list could not be read", ErrInvalidInput)
	ErrMissingArgument   = fmt.Errorf("missing required argument")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrCacheNotAvailable = fmt.Errorf("cache database not configured")
)
