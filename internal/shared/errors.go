package shared

import "fmt"

var (
	// Configuration errors (fatal at startup)
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Data source errors
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrTrackNotFound    = fmt.Errorf("track not found")
	ErrFetch            = fmt.Errorf("fetch failed")

	// Download executor errors
	ErrExecutor        = fmt.Errorf("download executor failed")
	ErrExecutorTimeout = fmt.Errorf("download executor timed out")

	// Persistence errors
	ErrStore = fmt.Errorf("store operation failed")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAuthFailed       = fmt.Errorf("authentication failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
