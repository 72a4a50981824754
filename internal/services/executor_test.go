package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/tidalwatch/internal/shared"
)

type fakeRun struct {
	calls [][]string

	stdout   string
	stderr   string
	timedOut bool
	exitCode int
	err      error
}

func (f *fakeRun) run(args []string, d time.Duration) (string, string, bool, int, error) {
	f.calls = append(f.calls, args)
	return f.stdout, f.stderr, f.timedOut, f.exitCode, f.err
}

func testExecutor(cfg shared.DownloadConfig, f *fakeRun) *TidalDLExecutor {
	e := NewTidalDLExecutor(cfg, shared.NewLogger(io.Discard))
	e.run = f.run
	return e
}

func TestExecutorDownload(t *testing.T) {
	cfg := shared.DownloadConfig{AudioQuality: "HI_RES", TimeoutSeconds: 600}

	t.Run("success", func(t *testing.T) {
		f := &fakeRun{}
		e := testExecutor(cfg, f)

		if err := e.Download(context.Background(), "https://tidal.com/browse/track/1"); err != nil {
			t.Fatalf("download failed: %v", err)
		}

		if len(f.calls) != 1 {
			t.Fatalf("expected 1 invocation, got %d", len(f.calls))
		}
		want := []string{"dl", "https://tidal.com/browse/track/1"}
		if f.calls[0][0] != want[0] || f.calls[0][1] != want[1] {
			t.Errorf("expected args %v, got %v", want, f.calls[0])
		}
	})

	t.Run("timeout", func(t *testing.T) {
		f := &fakeRun{timedOut: true}
		e := testExecutor(cfg, f)

		err := e.Download(context.Background(), "url")
		if !errors.Is(err, shared.ErrExecutorTimeout) {
			t.Errorf("expected ErrExecutorTimeout, got %v", err)
		}
	})

	t.Run("nonzero exit uses stderr", func(t *testing.T) {
		f := &fakeRun{exitCode: 1, stderr: "login required\n"}
		e := testExecutor(cfg, f)

		err := e.Download(context.Background(), "url")
		if !errors.Is(err, shared.ErrExecutor) {
			t.Fatalf("expected ErrExecutor, got %v", err)
		}
		if !strings.Contains(err.Error(), "login required") {
			t.Errorf("expected stderr in error, got %q", err.Error())
		}
	})

	t.Run("nonzero exit falls back to stdout", func(t *testing.T) {
		f := &fakeRun{exitCode: 1, stdout: "some failure"}
		e := testExecutor(cfg, f)

		err := e.Download(context.Background(), "url")
		if !strings.Contains(err.Error(), "some failure") {
			t.Errorf("expected stdout in error, got %q", err.Error())
		}
	})

	t.Run("spawn error", func(t *testing.T) {
		f := &fakeRun{err: errors.New("binary not found")}
		e := testExecutor(cfg, f)

		err := e.Download(context.Background(), "url")
		if !errors.Is(err, shared.ErrExecutor) {
			t.Errorf("expected ErrExecutor, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := &fakeRun{}
		e := testExecutor(cfg, f)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := e.Download(ctx, "url"); err == nil {
			t.Error("expected error for cancelled context")
		}
		if len(f.calls) != 0 {
			t.Error("expected no invocation after cancellation")
		}
	})
}

func TestExecutorQualityMapping(t *testing.T) {
	tests := []struct {
		quality string
		want    string
	}{
		{"LOW", "low_320k"},
		{"HIGH", "high_lossless"},
		{"LOSSLESS", "high_lossless"},
		{"HI_RES", "hi_res"},
		{"UNKNOWN", "hi_res"},
	}

	for _, tt := range tests {
		t.Run(tt.quality, func(t *testing.T) {
			e := testExecutor(shared.DownloadConfig{AudioQuality: tt.quality}, &fakeRun{})
			if got := e.tidalQuality(); got != tt.want {
				t.Errorf("tidalQuality() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecutorConfigure(t *testing.T) {
	t.Run("pushes settings", func(t *testing.T) {
		f := &fakeRun{}
		e := testExecutor(shared.DownloadConfig{
			AudioQuality: "LOSSLESS",
			DownloadPath: "/music",
			SkipExisting: true,
		}, f)

		e.Configure(context.Background())

		if len(f.calls) != 4 {
			t.Fatalf("expected 4 cfg calls, got %d", len(f.calls))
		}

		settings := make(map[string]string)
		for _, call := range f.calls {
			if call[0] != "cfg" {
				t.Errorf("expected cfg subcommand, got %v", call)
				continue
			}
			settings[call[1]] = call[2]
		}

		if settings["quality_audio"] != "high_lossless" {
			t.Errorf("expected quality high_lossless, got %q", settings["quality_audio"])
		}
		if settings["skip_existing"] != "true" {
			t.Errorf("expected skip_existing true, got %q", settings["skip_existing"])
		}
		if settings["download_base_path"] != "/music" {
			t.Errorf("expected download path pushed, got %q", settings["download_base_path"])
		}
	})

	t.Run("no download path setting when unset", func(t *testing.T) {
		f := &fakeRun{}
		e := testExecutor(shared.DownloadConfig{AudioQuality: "HI_RES"}, f)

		e.Configure(context.Background())

		if len(f.calls) != 3 {
			t.Errorf("expected 3 cfg calls without download path, got %d", len(f.calls))
		}
	})

	t.Run("cfg failures are not fatal", func(t *testing.T) {
		f := &fakeRun{exitCode: 1, stderr: "no such key"}
		e := testExecutor(shared.DownloadConfig{AudioQuality: "HI_RES"}, f)

		// Should not panic and should attempt every setting.
		e.Configure(context.Background())
		if len(f.calls) != 3 {
			t.Errorf("expected all settings attempted, got %d", len(f.calls))
		}
	})
}

func TestExecutorEnsureAuthenticated(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeRun
		want bool
	}{
		{"authenticated", &fakeRun{stdout: "hi_res"}, true},
		{"probe fails", &fakeRun{exitCode: 1}, false},
		{"probe times out", &fakeRun{timedOut: true}, false},
		{"binary missing", &fakeRun{err: errors.New("not found")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testExecutor(shared.DownloadConfig{AudioQuality: "HI_RES"}, tt.f)
			if got := e.EnsureAuthenticated(context.Background()); got != tt.want {
				t.Errorf("EnsureAuthenticated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	tests := []struct {
		stdout string
		stderr string
		want   string
	}{
		{"", "stderr wins\n", "stderr wins"},
		{"stdout fallback", "", "stdout fallback"},
		{"", "", "unknown error"},
	}

	for _, tt := range tests {
		if got := commandError(tt.stdout, tt.stderr); got != tt.want {
			t.Errorf("commandError(%q, %q) = %q, want %q", tt.stdout, tt.stderr, got, tt.want)
		}
	}
}
