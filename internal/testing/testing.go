// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"

	"github.com/desertthunder/tidalwatch/internal/models"
)

// MockSource is a test double for [services.Source]
type MockSource struct {
	Playlists map[string]*models.Playlist
	Tracks    map[string][]models.Track

	FetchPlaylistErr error
	FetchTracksErr   error

	PlaylistCalls int
	TracksCalls   int
}

func (m *MockSource) FetchPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	m.PlaylistCalls++
	if m.FetchPlaylistErr != nil {
		return nil, m.FetchPlaylistErr
	}
	if p, ok := m.Playlists[playlistID]; ok {
		return p, nil
	}
	return nil, errors.New("playlist not found")
}

func (m *MockSource) FetchTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	m.TracksCalls++
	if m.FetchTracksErr != nil {
		return nil, m.FetchTracksErr
	}
	return m.Tracks[playlistID], nil
}

// MockExecutor is a test double for [services.Executor]
type MockExecutor struct {
	// FailURLs maps a locator to the error text its download should fail with.
	FailURLs map[string]string
	Err      error

	Calls []string
}

func (m *MockExecutor) Download(ctx context.Context, url string) error {
	m.Calls = append(m.Calls, url)
	if m.Err != nil {
		return m.Err
	}
	if msg, ok := m.FailURLs[url]; ok {
		return errors.New(msg)
	}
	return nil
}
