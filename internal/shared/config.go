package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config.example.yaml
var exampleConf []byte

// AudioQualities lists the quality values accepted by the download executor.
var AudioQualities = []string{"LOW", "HIGH", "LOSSLESS", "HI_RES"}

// Config represents the application configuration loaded from a YAML file.
type Config struct {
	Tidal         TidalConfig        `yaml:"tidal"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Download      DownloadConfig     `yaml:"download"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// TidalConfig contains TIDAL API credentials and token storage settings.
type TidalConfig struct {
	ClientID  string `yaml:"client_id"`
	TokenPath string `yaml:"token_path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// SchedulerConfig contains the playlist check schedule.
// Interval and cron modes are mutually exclusive, selected by UseCronSchedule.
type SchedulerConfig struct {
	CheckIntervalMinutes int    `yaml:"check_interval_minutes"`
	UseCronSchedule      bool   `yaml:"use_cron_schedule"`
	CronSchedule         string `yaml:"cron_schedule"`
}

// CheckInterval returns the interval mode period as a [time.Duration].
func (c SchedulerConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMinutes) * time.Minute
}

// DownloadConfig contains download executor settings.
type DownloadConfig struct {
	AudioQuality          string `yaml:"audio_quality"`
	DownloadPath          string `yaml:"download_path"`
	MaxRetries            int    `yaml:"max_retries"`
	RetryDelay            int    `yaml:"retry_delay"`
	DelayBetweenDownloads int    `yaml:"delay_between_downloads"`
	TimeoutSeconds        int    `yaml:"timeout_seconds"`
	ExtractFlac           bool   `yaml:"extract_flac"`
	SkipExisting          bool   `yaml:"skip_existing"`
}

// Timeout returns the per-track executor timeout as a [time.Duration].
func (c DownloadConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NotificationConfig contains desktop notification toggles.
type NotificationConfig struct {
	Enabled            bool `yaml:"enabled"`
	OnNewTracks        bool `yaml:"on_new_tracks"`
	OnDownloadComplete bool `yaml:"on_download_complete"`
	OnError            bool `yaml:"on_error"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig reads, parses and validates a YAML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := yaml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks every section for out-of-range values. The returned error
// wraps [ErrInvalidConfig] and is fatal at startup.
func (c *Config) Validate() error {
	if c.Scheduler.CheckIntervalMinutes < 5 {
		return fmt.Errorf("%w: check_interval_minutes must be >= 5, got %d", ErrInvalidConfig, c.Scheduler.CheckIntervalMinutes)
	}
	valid := false
	for _, q := range AudioQualities {
		if c.Download.AudioQuality == q {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: audio_quality must be one of %v, got %q", ErrInvalidConfig, AudioQualities, c.Download.AudioQuality)
	}
	if c.Download.MaxRetries < 0 || c.Download.MaxRetries > 10 {
		return fmt.Errorf("%w: max_retries must be between 0 and 10, got %d", ErrInvalidConfig, c.Download.MaxRetries)
	}
	if c.Download.RetryDelay < 10 {
		return fmt.Errorf("%w: retry_delay must be >= 10 seconds, got %d", ErrInvalidConfig, c.Download.RetryDelay)
	}
	if c.Download.DelayBetweenDownloads < 1 {
		return fmt.Errorf("%w: delay_between_downloads must be >= 1 second, got %d", ErrInvalidConfig, c.Download.DelayBetweenDownloads)
	}
	if c.Download.TimeoutSeconds < 1 {
		return fmt.Errorf("%w: timeout_seconds must be >= 1, got %d", ErrInvalidConfig, c.Download.TimeoutSeconds)
	}
	return nil
}

// CreateConfigFile creates a config.yaml file at the specified path using the embedded example config.
func CreateConfigFile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
