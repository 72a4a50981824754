package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tidalwatch/internal/models"
	"github.com/desertthunder/tidalwatch/internal/shared"
)

// TrackRepository handles persistence for playlist track snapshots.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// TrackIDs returns the set of known track IDs for a playlist.
// This is the prior snapshot's key set used for change detection.
func (r *TrackRepository) TrackIDs(playlistID string) (map[string]struct{}, error) {
	rows, err := r.db.Query("SELECT track_id FROM tracks WHERE playlist_id = ?", playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query track ids: %v", shared.ErrStore, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: failed to scan track id: %v", shared.ErrStore, err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate track ids: %v", shared.ErrStore, err)
	}

	return ids, nil
}

// UpsertAll stores the full current snapshot of a playlist: each track is
// inserted if absent (existing rows keep their original metadata and
// discovered_at), then the playlist's cached track_count is overwritten with
// the snapshot length. Runs in a single transaction.
func (r *TrackRepository) UpsertAll(playlistID string, tracks []models.Track) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrStore, err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO tracks
		(playlist_id, track_id, title, artist, album, duration, url, added_at, discovered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare insert: %v", shared.ErrStore, err)
	}
	defer stmt.Close()

	for _, t := range tracks {
		discoveredAt := t.DiscoveredAt
		if discoveredAt.IsZero() {
			discoveredAt = time.Now()
		}

		var addedAt any
		if t.AddedAt != nil {
			addedAt = *t.AddedAt
		}

		_, err := stmt.Exec(
			playlistID,
			t.TrackID,
			t.Title,
			nullIfEmpty(t.Artist),
			nullIfEmpty(t.Album),
			t.Duration,
			t.URL,
			addedAt,
			discoveredAt,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to insert track %s: %v", shared.ErrStore, t.TrackID, err)
		}
	}

	if _, err := tx.Exec("UPDATE playlists SET track_count = ? WHERE playlist_id = ?", len(tracks), playlistID); err != nil {
		return fmt.Errorf("%w: failed to update track count: %v", shared.ErrStore, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit tracks: %v", shared.ErrStore, err)
	}

	return nil
}

// GetByTrackID resolves a track to its stored metadata, e.g. for a retry pass.
// When the same track appears in multiple playlists the first stored row wins.
// Returns [shared.ErrTrackNotFound] when absent.
func (r *TrackRepository) GetByTrackID(trackID string) (*models.Track, error) {
	row := r.db.QueryRow(
		"SELECT id, playlist_id, track_id, title, artist, album, duration, url, added_at, discovered_at FROM tracks WHERE track_id = ? LIMIT 1",
		trackID,
	)

	var t models.Track
	var artist, album sql.NullString
	var duration sql.NullInt64
	var addedAt, discoveredAt sql.NullTime

	err := row.Scan(&t.ID, &t.PlaylistID, &t.TrackID, &t.Title, &artist, &album, &duration, &t.URL, &addedAt, &discoveredAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get track: %v", shared.ErrStore, err)
	}

	t.Artist = artist.String
	t.Album = album.String
	t.Duration = int(duration.Int64)
	if addedAt.Valid {
		ts := addedAt.Time
		t.AddedAt = &ts
	}
	if discoveredAt.Valid {
		t.DiscoveredAt = discoveredAt.Time
	}

	return &t, nil
}
