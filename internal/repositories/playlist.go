package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tidalwatch/internal/models"
	"github.com/desertthunder/tidalwatch/internal/shared"
)

// PlaylistRepository handles persistence for monitored playlists.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Add upserts a playlist by its identity.
func (r *PlaylistRepository) Add(p *models.Playlist) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT OR REPLACE INTO playlists
		(playlist_id, name, description, owner, track_count, enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		p.PlaylistID,
		p.Name,
		nullIfEmpty(p.Description),
		nullIfEmpty(p.Owner),
		p.TrackCount,
		p.Enabled,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert playlist: %v", shared.ErrStore, err)
	}

	return nil
}

// Remove deletes a playlist; its tracks are cascade-deleted by the schema.
func (r *PlaylistRepository) Remove(playlistID string) error {
	if _, err := r.db.Exec("DELETE FROM playlists WHERE playlist_id = ?", playlistID); err != nil {
		return fmt.Errorf("%w: failed to delete playlist: %v", shared.ErrStore, err)
	}
	return nil
}

// List returns all monitored playlists, optionally filtered to enabled ones.
func (r *PlaylistRepository) List(enabledOnly bool) ([]models.Playlist, error) {
	query := "SELECT playlist_id, name, description, owner, last_checked, track_count, enabled, created_at FROM playlists"
	if enabledOnly {
		query += " WHERE enabled = 1"
	}

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list playlists: %v", shared.ErrStore, err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan playlist: %v", shared.ErrStore, err)
		}
		playlists = append(playlists, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate playlists: %v", shared.ErrStore, err)
	}

	return playlists, nil
}

// Get retrieves a playlist by ID. Returns [shared.ErrPlaylistNotFound] when absent.
func (r *PlaylistRepository) Get(playlistID string) (*models.Playlist, error) {
	row := r.db.QueryRow(
		"SELECT playlist_id, name, description, owner, last_checked, track_count, enabled, created_at FROM playlists WHERE playlist_id = ?",
		playlistID,
	)

	p, err := scanPlaylist(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get playlist: %v", shared.ErrStore, err)
	}

	return p, nil
}

// SetLastChecked records a successful check timestamp.
func (r *PlaylistRepository) SetLastChecked(playlistID string, ts time.Time) error {
	_, err := r.db.Exec("UPDATE playlists SET last_checked = ? WHERE playlist_id = ?", ts, playlistID)
	if err != nil {
		return fmt.Errorf("%w: failed to update last_checked: %v", shared.ErrStore, err)
	}
	return nil
}

// SetEnabled toggles monitoring for a playlist.
func (r *PlaylistRepository) SetEnabled(playlistID string, enabled bool) error {
	_, err := r.db.Exec("UPDATE playlists SET enabled = ? WHERE playlist_id = ?", enabled, playlistID)
	if err != nil {
		return fmt.Errorf("%w: failed to update enabled: %v", shared.ErrStore, err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(s scanner) (*models.Playlist, error) {
	var p models.Playlist
	var description, owner sql.NullString
	var lastChecked sql.NullTime

	err := s.Scan(&p.PlaylistID, &p.Name, &description, &owner, &lastChecked, &p.TrackCount, &p.Enabled, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.Owner = owner.String
	if lastChecked.Valid {
		t := lastChecked.Time
		p.LastChecked = &t
	}

	return &p, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
