// Package notify delivers best-effort desktop notifications.
//
// Delivery availability is probed once at construction; without a usable
// backend the notifier degrades to a silent no-op. Failures are logged and
// never propagated, so the pipeline cannot be aborted from here.
package notify

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalwatch/internal/shared"
	"github.com/gen2brain/beeep"
)

const appName = "tidalwatch"

// Notifier sends desktop notifications for monitor outcomes.
type Notifier struct {
	logger  *log.Logger
	enabled bool

	onNewTracks        bool
	onDownloadComplete bool
	onError            bool

	// send is swapped out in tests.
	send func(title, message string) error
}

// New creates a Notifier from configuration. The backend probe happens here,
// once; later Send calls short-circuit without re-detecting.
func New(cfg shared.NotificationConfig, logger *log.Logger) *Notifier {
	n := &Notifier{
		logger:             logger,
		enabled:            cfg.Enabled,
		onNewTracks:        cfg.OnNewTracks,
		onDownloadComplete: cfg.OnDownloadComplete,
		onError:            cfg.OnError,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}

	if n.enabled && !backendAvailable() {
		logger.Warn("no notification backend available, notifications disabled")
		n.enabled = false
	}

	return n
}

// backendAvailable reports whether a desktop notification backend exists.
// Linux needs a session bus or notify-send; the other platforms ship one.
func backendAvailable() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") != "" {
		return true
	}
	_, err := exec.LookPath("notify-send")
	return err == nil
}

// Send delivers one notification and reports whether it went out. Delivery
// failures are logged, never propagated.
func (n *Notifier) Send(title, message string) bool {
	if !n.enabled {
		return false
	}

	if err := n.send(title, message); err != nil {
		n.logger.Error("failed to send notification", "title", title, "error", err)
		return false
	}

	n.logger.Debug("notification sent", "title", title)
	return true
}

// NotifyNewTracks reports newly discovered tracks in a playlist.
func (n *Notifier) NotifyNewTracks(count int, playlistName string) bool {
	if !n.onNewTracks {
		return false
	}
	return n.Send("New Tracks Found", fmt.Sprintf("Found %d new track(s) in %q", count, playlistName))
}

// NotifyDownloadComplete reports the outcome of a download batch.
func (n *Notifier) NotifyDownloadComplete(success, failed int) bool {
	if !n.onDownloadComplete {
		return false
	}

	message := fmt.Sprintf("Successfully downloaded %d track(s)", success)
	if failed > 0 {
		message = fmt.Sprintf("Downloaded %d track(s), %d failed", success, failed)
	}
	return n.Send("Downloads Complete", message)
}

// NotifyError reports a run-level failure.
func (n *Notifier) NotifyError(message string) bool {
	if !n.onError {
		return false
	}
	return n.Send("Monitor Error", message)
}
