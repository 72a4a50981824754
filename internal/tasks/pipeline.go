package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalwatch/internal/models"
	"github.com/desertthunder/tidalwatch/internal/repositories"
	"github.com/desertthunder/tidalwatch/internal/shared"
)

// Notifier is the best-effort outcome reporting boundary consumed by the
// pipeline. Implementations never propagate delivery failures.
type Notifier interface {
	NotifyNewTracks(count int, playlistName string) bool
	NotifyDownloadComplete(success, failed int) bool
	NotifyError(message string) bool
}

// Pipeline runs one full check-and-download pass. It is the single callback
// invoked by both the scheduler and the manual check command.
type Pipeline struct {
	monitor    *Monitor
	downloader *Downloader
	playlists  *repositories.PlaylistRepository
	notifier   Notifier
	logger     *log.Logger
}

// NewPipeline creates a Pipeline over the monitor, downloader and notifier.
func NewPipeline(monitor *Monitor, downloader *Downloader, playlists *repositories.PlaylistRepository, notifier Notifier, logger *log.Logger) *Pipeline {
	return &Pipeline{
		monitor:    monitor,
		downloader: downloader,
		playlists:  playlists,
		notifier:   notifier,
		logger:     logger,
	}
}

// CheckAndDownload checks every enabled playlist and downloads all newly
// discovered tracks. A store failure aborts the run's remaining work and is
// returned; the caller decides whether that is fatal (CLI) or just logged
// (scheduler).
func (p *Pipeline) CheckAndDownload(ctx context.Context) error {
	logger := shared.WithLogger(p.logger, "run", shared.RunID())
	logger.Info("starting playlist check")

	playlists, err := p.playlists.List(true)
	if err != nil {
		p.notifier.NotifyError(err.Error())
		return err
	}

	results, err := p.monitor.CheckAll(ctx)
	if err != nil {
		p.notifier.NotifyError(err.Error())
		return err
	}

	// Aggregate in stored playlist order so batch ordering is stable.
	var newTracks []models.Track
	for _, pl := range playlists {
		tracks := results[pl.PlaylistID]
		if len(tracks) == 0 {
			continue
		}
		logger.Info("new tracks found", "playlist", pl.Name, "count", len(tracks))
		p.notifier.NotifyNewTracks(len(tracks), pl.Name)
		newTracks = append(newTracks, tracks...)
	}

	if len(newTracks) == 0 {
		logger.Info("no new tracks found")
		return nil
	}

	logger.Info("downloading new tracks", "count", len(newTracks))
	result, err := p.downloader.DownloadBatch(ctx, newTracks)
	if err != nil {
		p.notifier.NotifyError(err.Error())
		return err
	}

	p.notifier.NotifyDownloadComplete(result.Success, result.Failed)
	logger.Info("playlist check complete", "success", result.Success, "failed", result.Failed)

	return nil
}

// RetryFailed runs one retry pass over failed downloads.
func (p *Pipeline) RetryFailed(ctx context.Context) (RetryResult, error) {
	result, err := p.downloader.RetryFailed(ctx)
	if err != nil {
		p.notifier.NotifyError(err.Error())
		return result, err
	}

	if result.Retried > 0 {
		p.notifier.NotifyDownloadComplete(result.Success, result.Failed)
	}

	return result, nil
}
