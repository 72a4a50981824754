package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Scheduler.CheckIntervalMinutes != 30 {
		t.Errorf("expected default check interval 30, got %d", config.Scheduler.CheckIntervalMinutes)
	}
	if config.Download.AudioQuality != "HI_RES" {
		t.Errorf("expected default quality HI_RES, got %s", config.Download.AudioQuality)
	}
	if config.Download.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", config.Download.MaxRetries)
	}
	if config.Download.TimeoutSeconds != 600 {
		t.Errorf("expected default timeout 600, got %d", config.Download.TimeoutSeconds)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfigDurations(t *testing.T) {
	config := DefaultConfig()

	if config.Scheduler.CheckInterval() != 30*time.Minute {
		t.Errorf("expected 30m interval, got %s", config.Scheduler.CheckInterval())
	}
	if config.Download.Timeout() != 600*time.Second {
		t.Errorf("expected 600s timeout, got %s", config.Download.Timeout())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"check interval below minimum", func(c *Config) { c.Scheduler.CheckIntervalMinutes = 4 }},
		{"unknown audio quality", func(c *Config) { c.Download.AudioQuality = "ULTRA" }},
		{"negative max retries", func(c *Config) { c.Download.MaxRetries = -1 }},
		{"max retries above cap", func(c *Config) { c.Download.MaxRetries = 11 }},
		{"retry delay below minimum", func(c *Config) { c.Download.RetryDelay = 9 }},
		{"download delay below minimum", func(c *Config) { c.Download.DelayBetweenDownloads = 0 }},
		{"zero timeout", func(c *Config) { c.Download.TimeoutSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	t.Run("all quality values accepted", func(t *testing.T) {
		for _, q := range AudioQualities {
			config := DefaultConfig()
			config.Download.AudioQuality = q
			if err := config.Validate(); err != nil {
				t.Errorf("quality %s should validate, got %v", q, err)
			}
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("download: ["), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "download:\n  audio_quality: LOSSLESS\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Download.AudioQuality != "LOSSLESS" {
			t.Errorf("expected LOSSLESS, got %s", config.Download.AudioQuality)
		}
		if config.Download.MaxRetries != 3 {
			t.Errorf("expected default max retries preserved, got %d", config.Download.MaxRetries)
		}
	})

	t.Run("invalid values fail load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "download:\n  max_retries: 99\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	t.Run("creates file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := CreateConfigFile(path, false); err != nil {
			t.Fatalf("failed to create config: %v", err)
		}

		if _, err := LoadConfig(path); err != nil {
			t.Errorf("created config should load, got %v", err)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := CreateConfigFile(path, false); err != nil {
			t.Fatal(err)
		}

		if err := CreateConfigFile(path, false); err == nil {
			t.Error("expected error when file exists")
		}
	})

	t.Run("force overwrites", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := CreateConfigFile(path, true); err != nil {
			t.Errorf("force create failed: %v", err)
		}
	})
}
