package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalwatch/internal/models"
	"github.com/desertthunder/tidalwatch/internal/repositories"
	"github.com/desertthunder/tidalwatch/internal/services"
)

// Monitor reconciles remote playlist snapshots against stored state.
type Monitor struct {
	source    services.Source
	playlists *repositories.PlaylistRepository
	tracks    *repositories.TrackRepository
	logger    *log.Logger
	now       func() time.Time
}

// NewMonitor creates a Monitor over the given source and repositories.
func NewMonitor(source services.Source, playlists *repositories.PlaylistRepository, tracks *repositories.TrackRepository, logger *log.Logger) *Monitor {
	return &Monitor{
		source:    source,
		playlists: playlists,
		tracks:    tracks,
		logger:    logger,
		now:       time.Now,
	}
}

// CheckPlaylist checks one playlist for new tracks: it fetches the complete
// current snapshot, diffs it against the stored track ID set, then persists
// the snapshot and the check timestamp. Returned tracks follow snapshot
// order. The stored state is only touched after both fetches succeed, so a
// failed or partial fetch never marks the playlist checked.
func (m *Monitor) CheckPlaylist(ctx context.Context, playlistID string) ([]models.Track, error) {
	m.logger.Info("checking playlist for changes", "playlist", playlistID)

	remote, err := m.source.FetchPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	current, err := m.source.FetchTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("fetched snapshot", "playlist", playlistID, "name", remote.Name, "tracks", len(current))

	known, err := m.tracks.TrackIDs(playlistID)
	if err != nil {
		return nil, err
	}

	var newTracks []models.Track
	for _, t := range current {
		if _, ok := known[t.TrackID]; !ok {
			newTracks = append(newTracks, t)
		}
	}

	if len(newTracks) > 0 {
		m.logger.Info("found new tracks", "playlist", playlistID, "count", len(newTracks))
	} else {
		m.logger.Debug("no new tracks", "playlist", playlistID)
	}

	if err := m.tracks.UpsertAll(playlistID, current); err != nil {
		return nil, err
	}
	if err := m.playlists.SetLastChecked(playlistID, m.now()); err != nil {
		return nil, err
	}

	return newTracks, nil
}

// CheckAll checks every enabled playlist. A failure on one playlist is
// logged and yields an empty result for it without aborting the remaining
// checks. The returned map has one entry per enabled playlist.
func (m *Monitor) CheckAll(ctx context.Context) (map[string][]models.Track, error) {
	playlists, err := m.playlists.List(true)
	if err != nil {
		return nil, err
	}

	m.logger.Info("checking playlists for changes", "count", len(playlists))

	results := make(map[string][]models.Track, len(playlists))
	for _, p := range playlists {
		newTracks, err := m.CheckPlaylist(ctx, p.PlaylistID)
		if err != nil {
			m.logger.Error("failed to check playlist", "playlist", p.PlaylistID, "name", p.Name, "error", err)
			results[p.PlaylistID] = nil
			continue
		}
		results[p.PlaylistID] = newTracks
	}

	return results, nil
}
