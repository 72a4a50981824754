package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalwatch/internal/notify"
	"github.com/desertthunder/tidalwatch/internal/repositories"
	"github.com/desertthunder/tidalwatch/internal/scheduler"
	"github.com/desertthunder/tidalwatch/internal/services"
	"github.com/desertthunder/tidalwatch/internal/shared"
	"github.com/desertthunder/tidalwatch/internal/tasks"
	"github.com/desertthunder/tidalwatch/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	source   services.Source
	executor services.Executor
	notifier tasks.Notifier
	logger   *log.Logger
	output   io.Writer
	input    io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
// Source, Executor and Notifier are normally nil and built from
// configuration at action time; tests inject doubles.
type RunnerOpts struct {
	Config   *shared.Config
	Source   services.Source
	Executor services.Executor
	Notifier tasks.Notifier
	Logger   *log.Logger
	Output   io.Writer
	Input    io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	return &Runner{
		config:   opts.Config,
		source:   opts.Source,
		executor: opts.Executor,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		output:   opts.Output,
		input:    opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		startCommand, playlistCommand, checkCommand, retryCommand, statusCommand, initCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// loadConfig resolves configuration: a preloaded config wins, then the
// --config file when present, then embedded defaults.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := cmd.String("config")
	if _, err := os.Stat(path); err != nil {
		r.logger.Info("config file not found, using defaults", "path", path)
		return shared.DefaultConfig(), nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Logging.Level))
	return config, nil
}

// openDatabase opens the sqlite store and brings the schema up to date.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, err
	}

	if config.Database.MaxOpenConns > 0 {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// buildSource returns the injected source or an authenticated TIDAL client.
func (r *Runner) buildSource(ctx context.Context, config *shared.Config) (services.Source, error) {
	if r.source != nil {
		return r.source, nil
	}

	auth := services.NewAuthenticator(config.Tidal.ClientID, config.Tidal.TokenPath)
	client, err := auth.Client(ctx, func(uri, code string) {
		r.writePlainln("TIDAL authentication required")
		r.writePlainln("Visit %s and enter code %s", uri, ui.OK(code))
	})
	if err != nil {
		return nil, err
	}

	return services.NewTidalSource(services.TidalSourceOpts{HTTPClient: client}), nil
}

func (r *Runner) buildExecutor(config *shared.Config) services.Executor {
	if r.executor != nil {
		return r.executor
	}
	return services.NewTidalDLExecutor(config.Download, r.logger)
}

func (r *Runner) buildNotifier(config *shared.Config) tasks.Notifier {
	if r.notifier != nil {
		return r.notifier
	}
	return notify.New(config.Notifications, r.logger)
}

// buildPipeline wires repositories, monitor and downloader into a Pipeline.
func (r *Runner) buildPipeline(ctx context.Context, config *shared.Config, db *sql.DB) (*tasks.Pipeline, error) {
	source, err := r.buildSource(ctx, config)
	if err != nil {
		return nil, err
	}

	playlists := repositories.NewPlaylistRepository(db)
	tracks := repositories.NewTrackRepository(db)
	downloads := repositories.NewDownloadRepository(db)

	monitor := tasks.NewMonitor(source, playlists, tracks, r.logger)
	downloader := tasks.NewDownloader(tasks.DownloaderOpts{
		Executor:              r.buildExecutor(config),
		Tracks:                tracks,
		Downloads:             downloads,
		Logger:                r.logger,
		MaxRetries:            config.Download.MaxRetries,
		RetryDelay:            time.Duration(config.Download.RetryDelay) * time.Second,
		DelayBetweenDownloads: time.Duration(config.Download.DelayBetweenDownloads) * time.Second,
	})

	return tasks.NewPipeline(monitor, downloader, playlists, r.buildNotifier(config), r.logger), nil
}

// Start runs the background monitoring service until interrupted.
func (r *Runner) Start(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.executor = r.buildExecutor(config)
	if tdl, ok := r.executor.(*services.TidalDLExecutor); ok {
		r.logger.Info("configuring tidal-dl-ng")
		tdl.Configure(ctx)
		if !tdl.EnsureAuthenticated(ctx) {
			return fmt.Errorf("%w: tidal-dl-ng is not logged in, run: tidal-dl-ng login", shared.ErrNotAuthenticated)
		}
	}

	pipeline, err := r.buildPipeline(ctx, config, db)
	if err != nil {
		return err
	}

	sched := scheduler.New(func() error {
		return pipeline.CheckAndDownload(ctx)
	}, r.logger)

	if err := sched.Start(config.Scheduler); err != nil {
		return err
	}

	if next := sched.NextRun(); next != nil {
		r.logger.Info("service started", "next_check", next)
	}

	// Initial check right away; later fires come from the schedule.
	sched.RunNow()

	<-ctx.Done()
	r.logger.Info("shutting down")
	sched.Stop()
	r.logger.Info("service stopped")

	return nil
}

// PlaylistAdd fetches playlist metadata and registers it for monitoring.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	urlOrID := cmd.StringArg("url")
	if urlOrID == "" {
		return fmt.Errorf("%w: playlist URL or ID", shared.ErrMissingArgument)
	}

	playlistID, err := extractPlaylistID(urlOrID)
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := r.buildSource(ctx, config)
	if err != nil {
		return err
	}

	playlist, err := source.FetchPlaylist(ctx, playlistID)
	if err != nil {
		return err
	}
	playlist.PlaylistID = playlistID
	playlist.Enabled = true

	if err := repositories.NewPlaylistRepository(db).Add(playlist); err != nil {
		return err
	}

	r.writePlainln("%s %s (%d tracks)", ui.OK("Added playlist:"), playlist.Name, playlist.TrackCount)
	r.writePlainln("%s", ui.Help("New tracks will be downloaded on the next check"))

	return nil
}

// PlaylistRemove deletes a playlist and its tracks after confirmation.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewPlaylistRepository(db)
	playlist, err := repo.Get(playlistID)
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		r.writePlainln("Playlist: %s (%d tracks)", playlist.Name, playlist.TrackCount)
		if !r.confirm("Remove this playlist from monitoring?") {
			r.writePlainln("%s", ui.Warn("Cancelled"))
			return nil
		}
	}

	if err := repo.Remove(playlistID); err != nil {
		return err
	}

	r.writePlainln("%s", ui.OK("Playlist removed"))
	return nil
}

// PlaylistList prints the monitored playlists as a table.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	playlists, err := repositories.NewPlaylistRepository(db).List(!cmd.Bool("all"))
	if err != nil {
		return err
	}

	if len(playlists) == 0 {
		r.writePlainln("%s", ui.Warn("No playlists being monitored"))
		r.writePlainln("%s", ui.Help("Use 'tidalwatch playlist add' to add playlists"))
		return nil
	}

	r.writePlainln("%s", ui.Title("Monitored Playlists"))
	r.writePlainln("%s", ui.PlaylistTable(playlists))

	return nil
}

// PlaylistEnable turns monitoring on for a playlist.
func (r *Runner) PlaylistEnable(ctx context.Context, cmd *cli.Command) error {
	return r.setPlaylistEnabled(cmd, true)
}

// PlaylistDisable turns monitoring off for a playlist.
func (r *Runner) PlaylistDisable(ctx context.Context, cmd *cli.Command) error {
	return r.setPlaylistEnabled(cmd, false)
}

func (r *Runner) setPlaylistEnabled(cmd *cli.Command, enabled bool) error {
	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewPlaylistRepository(db)
	playlist, err := repo.Get(playlistID)
	if err != nil {
		return err
	}

	if err := repo.SetEnabled(playlistID, enabled); err != nil {
		return err
	}

	verb := "disabled"
	if enabled {
		verb = "enabled"
	}
	r.writePlainln("%s %s", ui.OK("Monitoring "+verb+":"), playlist.Name)

	return nil
}

// CheckNow runs the check-and-download pipeline once, outside the schedule.
func (r *Runner) CheckNow(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := r.buildPipeline(ctx, config, db)
	if err != nil {
		return err
	}

	if err := pipeline.CheckAndDownload(ctx); err != nil {
		return err
	}

	r.writePlainln("%s", ui.OK("Check complete"))
	return nil
}

// Retry runs one retry pass over failed downloads.
func (r *Runner) Retry(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := r.buildPipeline(ctx, config, db)
	if err != nil {
		return err
	}

	result, err := pipeline.RetryFailed(ctx)
	if err != nil {
		return err
	}

	r.writePlainln("Retried %d download(s): %s, %s",
		result.Retried,
		ui.OK(fmt.Sprintf("%d succeeded", result.Success)),
		ui.Err(fmt.Sprintf("%d failed", result.Failed)))

	return nil
}

// Status prints playlist and download statistics.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	playlists, err := repositories.NewPlaylistRepository(db).List(false)
	if err != nil {
		return err
	}

	stats, err := repositories.NewDownloadRepository(db).StatsByStatus()
	if err != nil {
		return err
	}

	enabled := 0
	for _, p := range playlists {
		if p.Enabled {
			enabled++
		}
	}

	r.writePlainln("%s", ui.Title("TIDAL Playlist Monitor Status"))
	r.writePlainln("Database: %s", config.Database.Path)

	mode := fmt.Sprintf("every %d minutes", config.Scheduler.CheckIntervalMinutes)
	if config.Scheduler.UseCronSchedule {
		mode = fmt.Sprintf("cron %q", config.Scheduler.CronSchedule)
	}
	r.writePlainln("Schedule: %s", mode)

	r.writePlainln("Playlists: %d total, %d enabled, %d disabled", len(playlists), enabled, len(playlists)-enabled)
	r.writePlainln("%s", ui.DownloadStatsTable(stats))

	return nil
}

// InitConfig writes a default configuration file.
func (r *Runner) InitConfig(ctx context.Context, cmd *cli.Command) error {
	output := cmd.String("output")

	if err := shared.CreateConfigFile(output, cmd.Bool("force")); err != nil {
		return err
	}

	r.writePlainln("%s %s", ui.OK("Configuration file created:"), output)
	r.writePlainln("%s", ui.Help("Edit this file to customize your settings"))

	return nil
}

// confirm asks a yes/no question on the runner's input stream.
func (r *Runner) confirm(question string) bool {
	r.writePlainln("%s [y/N]", question)

	reader := bufio.NewReader(r.input)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// extractPlaylistID accepts a TIDAL playlist URL or a bare ID.
// URL format: https://tidal.com/browse/playlist/<UUID>
func extractPlaylistID(urlOrID string) (string, error) {
	if !strings.HasPrefix(urlOrID, "http") {
		return urlOrID, nil
	}

	parts := strings.Split(strings.TrimRight(urlOrID, "/"), "/")
	for i, part := range parts {
		if part == "playlist" && i+1 < len(parts) {
			return parts[i+1], nil
		}
	}

	return "", fmt.Errorf("%w: unrecognized playlist URL %q", shared.ErrInvalidInput, urlOrID)
}
