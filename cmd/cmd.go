// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.yaml",
	}
}

// startCommand runs the background monitoring service.
func startCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "start",
		Usage:  "Start the monitoring service",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Start,
	}
}

// playlistCommand groups playlist management operations.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage monitored playlists",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a playlist to monitoring by TIDAL URL or ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaylistAdd,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove a playlist from monitoring",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List monitored playlists",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:    "all",
						Aliases: []string{"a"},
						Usage:   "Show disabled playlists too",
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "enable",
				Usage: "Enable monitoring for a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaylistEnable,
			},
			{
				Name:  "disable",
				Usage: "Disable monitoring for a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaylistDisable,
			},
		},
	}
}

// checkCommand triggers an immediate check outside the schedule.
func checkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Check all playlists for new tracks now",
		Flags:  []cli.Flag{configFlag()},
		Action: r.CheckNow,
	}
}

// retryCommand re-attempts failed downloads.
func retryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "retry",
		Usage:  "Retry failed downloads",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Retry,
	}
}

// statusCommand shows monitoring and download statistics.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show monitor status and download statistics",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Status,
	}
}

// initCommand writes a default configuration file.
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a configuration file with defaults",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path for the config file",
				Value:   "config.yaml",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: r.InitConfig,
	}
}
