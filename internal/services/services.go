package services

import (
	"context"

	"github.com/desertthunder/tidalwatch/internal/models"
)

// Source defines the read-only playlist data source boundary.
type Source interface {
	// FetchPlaylist retrieves playlist metadata by ID.
	// Returns an error wrapping [shared.ErrPlaylistNotFound] when the
	// playlist is absent, or [shared.ErrFetch] for any other failure.
	FetchPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// FetchTracks retrieves the complete current track list of a playlist,
	// paginating until exhausted. The result is a full snapshot in remote
	// order, never a delta.
	FetchTracks(ctx context.Context, playlistID string) ([]models.Track, error)
}

// Executor defines the external download capability boundary.
// Quality, destination path and timeout are fixed on the concrete executor
// at construction; Download takes only the track locator.
type Executor interface {
	// Download fetches one track. Returns an error wrapping
	// [shared.ErrExecutorTimeout] when the bounded timeout elapses, or
	// [shared.ErrExecutor] for any other failure.
	Download(ctx context.Context, url string) error
}
