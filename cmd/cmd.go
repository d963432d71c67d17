// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// serveCommand runs the daemon
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API, websocket hub, live poller and reminder timers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "restore",
				Usage: "Restore the latest saved scores from the database",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "no-poll",
				Usage: "Do not start the live-stream poller on boot",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs to a rotating file instead of stderr",
			},
		},
		Action: r.Serve,
	}
}

// scoresCommand handles scoreboard operations
func scoresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "scores",
		Aliases: []string{"score", "s"},
		Usage:   "Scoreboard operations",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show every house with per-sport scores",
				Flags:  outputFlags(),
				Action: r.ScoresShow,
			},
			{
				Name:    "rank",
				Aliases: []string{"rankings"},
				Usage:   "Show the standings",
				Flags:   outputFlags(),
				Action:  r.ScoresRank,
			},
			{
				Name:  "update",
				Usage: "Overwrite one score",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "house"},
					&cli.StringArg{Name: "sport"},
					&cli.StringArg{Name: "score"},
				},
				Action: r.ScoresUpdate,
			},
			{
				Name:  "set",
				Usage: "Overwrite several scores of one house",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "house"},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "score",
						Usage: "Sport=N, repeatable",
					},
				},
				Action: r.ScoresSet,
			},
			{
				Name:  "export",
				Usage: "Export the standings to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (csv, markdown, text, json)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: standings.<ext>)",
					},
				},
				Action: r.ScoresExport,
			},
			{
				Name:  "history",
				Usage: "Show recent score changes",
				Flags: append(outputFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of changes to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Output CSV",
					},
				),
				Action: r.ScoresHistory,
			},
		},
	}
}

// liveCommand handles live-stream operations
func liveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "live",
		Usage: "Live-stream operations",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Query the channel once for a live broadcast",
				Flags: append(outputFlags(),
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the stream in the default browser when live",
					},
				),
				Action: r.LiveCheck,
			},
			{
				Name:   "status",
				Usage:  "Show the running daemon's poller state",
				Flags:  outputFlags(),
				Action: r.LiveStatus,
			},
		},
	}
}

// notifyCommand handles notification operations
func notifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "notify",
		Usage: "Notification operations",
		Commands: []*cli.Command{
			{
				Name:   "enable",
				Usage:  "Enable event notifications on this machine",
				Action: r.NotifyEnable,
			},
			{
				Name:   "test",
				Usage:  "Send a test notification",
				Action: r.NotifyTest,
			},
			{
				Name:   "status",
				Usage:  "Show subscription and backend state",
				Flags:  outputFlags(),
				Action: r.NotifyStatus,
			},
			{
				Name:   "reminders",
				Usage:  "List reminders that have not fired yet",
				Flags:  outputFlags(),
				Action: r.NotifyReminders,
			},
			{
				Name:   "reset",
				Usage:  "Forget the stored desktop notification permission",
				Action: r.NotifyReset,
			},
		},
	}
}

// setupCommand handles setup operations for config and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the database",
		Action: r.Setup,
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show applied migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the latest migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the scoreboard dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive scoreboard dashboard",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-poll",
				Usage: "Do not start the live-stream poller",
			},
		},
		Action: r.TUI,
	}
}
