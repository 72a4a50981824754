package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tidalwatch/internal/models"
	"github.com/desertthunder/tidalwatch/internal/shared"
)

// maxErrorLength bounds stored executor error text.
const maxErrorLength = 500

// DownloadRepository handles persistence for the download status machine.
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create inserts a new download row in pending state and returns its row ID.
func (r *DownloadRepository) Create(trackID string) (int64, error) {
	res, err := r.db.Exec(
		"INSERT INTO downloads (track_id, status, started_at) VALUES (?, ?, ?)",
		trackID, models.StatusPending, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create download: %v", shared.ErrStore, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read download id: %v", shared.ErrStore, err)
	}

	return id, nil
}

// SetStatus updates the status of every download row for a track.
// Rows already in completed state are never downgraded: the update is guarded
// by "current status != completed" so completed is sticky.
// Error text is truncated to a bounded length; completed_at is set only when
// the new status is completed.
func (r *DownloadRepository) SetStatus(trackID string, status models.DownloadStatus, errorMsg string) error {
	if len(errorMsg) > maxErrorLength {
		errorMsg = errorMsg[:maxErrorLength]
	}

	var completedAt any
	if status == models.StatusCompleted {
		completedAt = time.Now()
	}

	_, err := r.db.Exec(`
		UPDATE downloads
		SET status = ?, error_message = ?, completed_at = ?
		WHERE track_id = ? AND status != ?
	`, status, nullIfEmpty(errorMsg), completedAt, trackID, models.StatusCompleted)
	if err != nil {
		return fmt.Errorf("%w: failed to update download status: %v", shared.ErrStore, err)
	}

	return nil
}

// IncrementRetry bumps the retry counter for a track and returns the new count.
func (r *DownloadRepository) IncrementRetry(trackID string) (int, error) {
	if _, err := r.db.Exec("UPDATE downloads SET retry_count = retry_count + 1 WHERE track_id = ?", trackID); err != nil {
		return 0, fmt.Errorf("%w: failed to increment retry count: %v", shared.ErrStore, err)
	}

	var count int
	err := r.db.QueryRow("SELECT retry_count FROM downloads WHERE track_id = ? ORDER BY id DESC LIMIT 1", trackID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read retry count: %v", shared.ErrStore, err)
	}

	return count, nil
}

// ListFailed returns all failed downloads, most recent first.
func (r *DownloadRepository) ListFailed() ([]models.Download, error) {
	rows, err := r.db.Query(`
		SELECT id, track_id, status, retry_count, started_at, completed_at, error_message
		FROM downloads
		WHERE status = ?
		ORDER BY started_at DESC
	`, models.StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list failed downloads: %v", shared.ErrStore, err)
	}
	defer rows.Close()

	var downloads []models.Download
	for rows.Next() {
		var d models.Download
		var completedAt sql.NullTime
		var errorMessage sql.NullString

		if err := rows.Scan(&d.ID, &d.TrackID, &d.Status, &d.RetryCount, &d.StartedAt, &completedAt, &errorMessage); err != nil {
			return nil, fmt.Errorf("%w: failed to scan download: %v", shared.ErrStore, err)
		}

		if completedAt.Valid {
			t := completedAt.Time
			d.CompletedAt = &t
		}
		d.ErrorMessage = errorMessage.String

		downloads = append(downloads, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate downloads: %v", shared.ErrStore, err)
	}

	return downloads, nil
}

// StatsByStatus returns the download count per status, zero-filled for
// statuses with no rows.
func (r *DownloadRepository) StatsByStatus() (map[models.DownloadStatus]int, error) {
	stats := make(map[models.DownloadStatus]int, len(models.AllDownloadStatuses))
	for _, s := range models.AllDownloadStatuses {
		stats[s] = 0
	}

	rows, err := r.db.Query("SELECT status, COUNT(*) FROM downloads GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query download stats: %v", shared.ErrStore, err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.DownloadStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%w: failed to scan download stats: %v", shared.ErrStore, err)
		}
		stats[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate download stats: %v", shared.ErrStore, err)
	}

	return stats, nil
}
