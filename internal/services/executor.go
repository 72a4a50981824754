package services

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Songmu/timeout"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalwatch/internal/shared"
)

const (
	tidalDLBinary = "tidal-dl-ng"

	// Timeout for quick cfg/auth probe commands.
	cfgCommandTimeout = 10 * time.Second

	// Grace period between SIGTERM and SIGKILL on timeout.
	killAfter = 5 * time.Second
)

// qualityMap translates monitor quality names into tidal-dl-ng values.
var qualityMap = map[string]string{
	"LOW":      "low_320k",
	"HIGH":     "high_lossless",
	"LOSSLESS": "high_lossless",
	"HI_RES":   "hi_res",
}

// TidalDLExecutor implements [Executor] by shelling out to the tidal-dl-ng
// CLI. Every invocation runs under a bounded timeout; a hung download is
// terminated rather than blocking the run forever.
type TidalDLExecutor struct {
	binary       string
	quality      string
	downloadPath string
	skipExisting bool
	extractFlac  bool
	dlTimeout    time.Duration
	logger       *log.Logger

	// run is swapped out in tests.
	run func(args []string, d time.Duration) (stdout, stderr string, timedOut bool, exitCode int, err error)
}

// NewTidalDLExecutor creates an executor from the download configuration.
func NewTidalDLExecutor(cfg shared.DownloadConfig, logger *log.Logger) *TidalDLExecutor {
	e := &TidalDLExecutor{
		binary:       tidalDLBinary,
		quality:      cfg.AudioQuality,
		downloadPath: cfg.DownloadPath,
		skipExisting: cfg.SkipExisting,
		extractFlac:  cfg.ExtractFlac,
		dlTimeout:    cfg.Timeout(),
		logger:       logger,
	}
	e.run = e.runCommand
	return e
}

// Download fetches one track by its locator.
func (e *TidalDLExecutor) Download(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrExecutor, err)
	}

	e.logger.Debug("running download", "url", url)

	stdout, stderr, timedOut, exitCode, err := e.run([]string{"dl", url}, e.dlTimeout)
	if timedOut {
		return fmt.Errorf("%w after %s", shared.ErrExecutorTimeout, e.dlTimeout)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrExecutor, err)
	}
	if exitCode != 0 {
		return fmt.Errorf("%w: %s", shared.ErrExecutor, commandError(stdout, stderr))
	}

	return nil
}

// Configure pushes the monitor's download settings into tidal-dl-ng.
// Individual cfg failures are logged but not fatal; the downloader's own
// defaults still apply.
func (e *TidalDLExecutor) Configure(ctx context.Context) {
	settings := [][2]string{
		{"quality_audio", e.tidalQuality()},
		{"skip_existing", fmt.Sprintf("%t", e.skipExisting)},
		{"extract_flac", fmt.Sprintf("%t", e.extractFlac)},
	}
	if e.downloadPath != "" {
		settings = append(settings, [2]string{"download_base_path", e.downloadPath})
	}

	for _, kv := range settings {
		if err := ctx.Err(); err != nil {
			return
		}

		_, stderr, timedOut, exitCode, err := e.run([]string{"cfg", kv[0], kv[1]}, cfgCommandTimeout)
		if err != nil || timedOut || exitCode != 0 {
			e.logger.Warn("failed to configure downloader", "setting", kv[0], "stderr", strings.TrimSpace(stderr))
		}
	}
}

// EnsureAuthenticated probes tidal-dl-ng with a cheap cfg read to verify the
// downloader itself is logged in.
func (e *TidalDLExecutor) EnsureAuthenticated(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	_, _, timedOut, exitCode, err := e.run([]string{"cfg", "quality_audio"}, cfgCommandTimeout)
	if err != nil || timedOut || exitCode != 0 {
		return false
	}
	return true
}

// tidalQuality maps the configured quality onto a tidal-dl-ng value.
func (e *TidalDLExecutor) tidalQuality() string {
	if q, ok := qualityMap[e.quality]; ok {
		return q
	}
	return "hi_res"
}

// runCommand executes the binary under a bounded timeout via [timeout.Timeout].
func (e *TidalDLExecutor) runCommand(args []string, d time.Duration) (string, string, bool, int, error) {
	cmd := exec.Command(e.binary, args...)
	tio := &timeout.Timeout{
		Cmd:       cmd,
		Duration:  d,
		KillAfter: killAfter,
	}

	exitStatus, stdout, stderr, err := tio.Run()
	if err != nil {
		return stdout, stderr, false, -1, err
	}

	return stdout, stderr, exitStatus.IsTimedOut(), exitStatus.Code, nil
}

// commandError picks the most useful text from a failed command's output.
func commandError(stdout, stderr string) string {
	if msg := strings.TrimSpace(stderr); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(stdout); msg != "" {
		return msg
	}
	return "unknown error"
}
