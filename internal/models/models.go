package models

import (
	"fmt"
	"time"
)

// DownloadStatus is the state of a download row.
type DownloadStatus string

const (
	StatusPending     DownloadStatus = "pending"
	StatusDownloading DownloadStatus = "downloading"
	StatusCompleted   DownloadStatus = "completed"
	StatusFailed      DownloadStatus = "failed"
	StatusRetrying    DownloadStatus = "retrying"
)

// AllDownloadStatuses lists every status value, used to zero-fill stats.
var AllDownloadStatuses = []DownloadStatus{
	StatusPending, StatusDownloading, StatusCompleted, StatusFailed, StatusRetrying,
}

// Playlist represents a remote playlist under monitoring.
type Playlist struct {
	PlaylistID  string
	Name        string
	Description string
	Owner       string
	LastChecked *time.Time // nil until first successful check
	TrackCount  int        // cached from the last snapshot, advisory only
	Enabled     bool
	CreatedAt   time.Time
}

// Validate checks required playlist fields.
func (p *Playlist) Validate() error {
	if p.PlaylistID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("playlist name is required")
	}
	return nil
}

// Track represents one entry of a playlist snapshot.
type Track struct {
	ID           int64 // database row id, zero until stored
	PlaylistID   string
	TrackID      string
	Title        string
	Artist       string
	Album        string
	Duration     int    // seconds, zero when unknown
	URL          string // resolvable locator handed to the download executor
	AddedAt      *time.Time
	DiscoveredAt time.Time
}

// Validate checks required track fields.
func (t *Track) Validate() error {
	if t.TrackID == "" {
		return fmt.Errorf("track id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("track title is required")
	}
	if t.URL == "" {
		return fmt.Errorf("track url is required")
	}
	return nil
}

// Download represents the delivery state of a single track.
// Status transitions are keyed by TrackID alone since the same track may
// appear in multiple playlists.
type Download struct {
	ID           int64
	TrackID      string
	Status       DownloadStatus
	RetryCount   int
	StartedAt    time.Time
	CompletedAt  *time.Time // set only when Status reaches completed
	ErrorMessage string
}
