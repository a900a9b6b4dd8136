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

	// Transfer errors. An invalid URL rejects the request before any
	// network call, playlist errors abort the whole transfer, a search
	// error only degrades a single track to unresolved.
	ErrInvalidURL          = fmt.Errorf("invalid playlist URL")
	ErrPlaylistUnavailable = fmt.Errorf("playlist unavailable")
	ErrSearchUnavailable   = fmt.Errorf("search unavailable")
	ErrPlaylistCreate      = fmt.Errorf("playlist creation failed")
	ErrAppendFailed        = fmt.Errorf("failed to append tracks")
	ErrRateLimited         = fmt.Errorf("rate limit exceeded")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	ErrTimeout = fmt.Errorf("operation timed out")
)
