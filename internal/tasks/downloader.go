package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalwatch/internal/models"
	"github.com/desertthunder/tidalwatch/internal/repositories"
	"github.com/desertthunder/tidalwatch/internal/services"
	"github.com/desertthunder/tidalwatch/internal/shared"
)

// BatchResult contains aggregate counts for one batch download pass.
type BatchResult struct {
	Success int
	Failed  int
}

// RetryResult contains aggregate counts for one retry pass.
type RetryResult struct {
	Retried int
	Success int
	Failed  int
}

// DownloaderOpts contains the dependencies and settings for a [Downloader].
type DownloaderOpts struct {
	Executor  services.Executor
	Tracks    *repositories.TrackRepository
	Downloads *repositories.DownloadRepository
	Logger    *log.Logger

	MaxRetries            int
	RetryDelay            time.Duration
	DelayBetweenDownloads time.Duration
}

// Downloader sequences download attempts through the external executor and
// records status transitions in the store. Downloads run strictly one at a
// time; the executor is single-slot and pacing keeps upstream rate limits
// honored.
type Downloader struct {
	executor  services.Executor
	tracks    *repositories.TrackRepository
	downloads *repositories.DownloadRepository
	logger    *log.Logger

	maxRetries   int
	retryDelay   time.Duration
	delayBetween time.Duration

	sleep func(time.Duration)
}

// NewDownloader creates a Downloader with the provided options.
func NewDownloader(opts DownloaderOpts) *Downloader {
	return &Downloader{
		executor:     opts.Executor,
		tracks:       opts.Tracks,
		downloads:    opts.Downloads,
		logger:       opts.Logger,
		maxRetries:   opts.MaxRetries,
		retryDelay:   opts.RetryDelay,
		delayBetween: opts.DelayBetweenDownloads,
		sleep:        time.Sleep,
	}
}

// DownloadTrack downloads a single track: a download row is created in
// pending state, marked downloading, and finished as completed or failed
// with the executor's error text. The returned error is nil on success, an
// executor error on download failure, or a store error when persistence
// itself fails.
func (d *Downloader) DownloadTrack(ctx context.Context, track models.Track) error {
	d.logger.Info("downloading track", "artist", track.Artist, "title", track.Title, "id", track.TrackID)

	if _, err := d.downloads.Create(track.TrackID); err != nil {
		return err
	}
	if err := d.downloads.SetStatus(track.TrackID, models.StatusDownloading, ""); err != nil {
		return err
	}

	if err := d.executor.Download(ctx, track.URL); err != nil {
		d.logger.Error("download failed", "title", track.Title, "error", err)
		if storeErr := d.downloads.SetStatus(track.TrackID, models.StatusFailed, err.Error()); storeErr != nil {
			return storeErr
		}
		return err
	}

	if err := d.downloads.SetStatus(track.TrackID, models.StatusCompleted, ""); err != nil {
		return err
	}

	d.logger.Info("downloaded track", "title", track.Title)
	return nil
}

// DownloadBatch downloads tracks sequentially, sleeping the configured pacing
// delay between tracks but not after the last. Executor failures are counted
// and the batch continues; store failures abort the batch since persisted
// state can no longer be trusted. An empty batch returns immediately without
// touching the executor.
func (d *Downloader) DownloadBatch(ctx context.Context, tracks []models.Track) (BatchResult, error) {
	var result BatchResult
	if len(tracks) == 0 {
		return result, nil
	}

	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		err := d.DownloadTrack(ctx, track)
		switch {
		case err == nil:
			result.Success++
		case errors.Is(err, shared.ErrStore):
			return result, err
		default:
			result.Failed++
		}

		if i < len(tracks)-1 && d.delayBetween > 0 {
			d.logger.Debug("pacing before next download", "delay", d.delayBetween)
			d.sleep(d.delayBetween)
		}
	}

	d.logger.Info("batch download complete", "success", result.Success, "failed", result.Failed)
	return result, nil
}

// RetryFailed re-attempts every failed download that has retries remaining.
// Tracks at the retry cap are skipped and stay failed permanently. Each
// retried track is marked retrying, waits the fixed retry delay, then goes
// through to the normal download path. Tracks whose metadata is missing from
// the store are skipped and logged.
func (d *Downloader) RetryFailed(ctx context.Context) (RetryResult, error) {
	var result RetryResult

	failed, err := d.downloads.ListFailed()
	if err != nil {
		return result, err
	}

	if len(failed) == 0 {
		d.logger.Info("no failed downloads to retry")
		return result, nil
	}

	d.logger.Info("retrying failed downloads", "count", len(failed))

	for _, dl := range failed {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if dl.RetryCount >= d.maxRetries {
			d.logger.Warn("max retries exceeded, giving up", "track", dl.TrackID, "retries", dl.RetryCount)
			continue
		}

		if _, err := d.downloads.IncrementRetry(dl.TrackID); err != nil {
			return result, err
		}
		if err := d.downloads.SetStatus(dl.TrackID, models.StatusRetrying, ""); err != nil {
			return result, err
		}
		result.Retried++

		if d.retryDelay > 0 {
			d.logger.Debug("waiting before retry", "delay", d.retryDelay)
			d.sleep(d.retryDelay)
		}

		track, err := d.tracks.GetByTrackID(dl.TrackID)
		if err != nil {
			if errors.Is(err, shared.ErrTrackNotFound) {
				d.logger.Error("track missing from store, skipping retry", "track", dl.TrackID)
				continue
			}
			return result, err
		}

		err = d.DownloadTrack(ctx, *track)
		switch {
		case err == nil:
			result.Success++
		case errors.Is(err, shared.ErrStore):
			return result, err
		default:
			result.Failed++
		}
	}

	d.logger.Info("retry pass complete", "retried", result.Retried, "success", result.Success, "failed", result.Failed)
	return result, nil
}
