// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "pawalert",
		Usage:   "Match new pet listings against adopter preferences and send alerts",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Before:   r.LoadConfig,
		Commands: r.register(),
	}
}

// setupCommand handles config and database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.RollbackDatabase,
			},
		},
	}
}

// usersCommand manages adopter accounts.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage adopter accounts",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Register an adopter",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Contact address for alerts",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name",
					},
				},
				Action: r.UsersAdd,
			},
			{
				Name:  "list",
				Usage: "List adopters",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.UsersList,
			},
			{
				Name:  "remove",
				Usage: "Delete an adopter",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID or email",
						Required: true,
					},
				},
				Action: r.UsersRemove,
			},
		},
	}
}

// prefsCommand manages alert preferences.
func prefsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "prefs",
		Aliases: []string{"preferences"},
		Usage:   "Manage alert preferences",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Create or replace a user's preferences",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID or email",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "alerts",
						Usage: "Receive new-listing alerts",
						Value: true,
					},
					&cli.StringSliceFlag{
						Name:  "species",
						Usage: "Accepted species (repeatable); empty accepts any",
					},
					&cli.StringSliceFlag{
						Name:  "breed",
						Usage: "Accepted breeds (repeatable); empty accepts any",
					},
					&cli.StringSliceFlag{
						Name:  "size",
						Usage: "Accepted sizes (repeatable); empty accepts any",
					},
					&cli.FloatFlag{
						Name:  "age-min",
						Usage: "Youngest acceptable age in years",
					},
					&cli.FloatFlag{
						Name:  "age-max",
						Usage: "Oldest acceptable age in years",
					},
				},
				Action: r.PrefsSet,
			},
			{
				Name:  "show",
				Usage: "Show a user's preferences",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID or email",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PrefsShow,
			},
			{
				Name:  "list",
				Usage: "List stored preferences",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "alerts-only",
						Usage: "Only users with alerts enabled",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PrefsList,
			},
			{
				Name:  "delete",
				Usage: "Delete a user's preferences",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID or email",
						Required: true,
					},
				},
				Action: r.PrefsDelete,
			},
		},
	}
}

func listingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "file",
			Usage: "Read the listing event as JSON from a file (- for stdin)",
		},
		&cli.StringFlag{
			Name:  "id",
			Usage: "Listing ID",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Pet name",
		},
		&cli.StringFlag{
			Name:  "species",
			Usage: "Pet species",
		},
		&cli.StringFlag{
			Name:  "breed",
			Usage: "Pet breed",
		},
		&cli.StringFlag{
			Name:  "size",
			Usage: "Pet size",
		},
		&cli.FloatFlag{
			Name:  "age",
			Usage: "Pet age value",
		},
		&cli.StringFlag{
			Name:  "age-unit",
			Usage: "Unit for --age: days, weeks, months or years",
			Value: "years",
		},
	}
}

// listingCommand runs or emits listing-created events.
func listingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "listing",
		Usage: "Listing-created event operations",
		Commands: []*cli.Command{
			{
				Name:  "match",
				Usage: "Run one matching cycle for a listing and print the report",
				Flags: append(listingFlags(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Report format: text, json or csv",
						Value:   "text",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Select candidates without sending notifications",
					},
				),
				Action: r.ListingMatch,
			},
			{
				Name:   "publish",
				Usage:  "Publish a listing-created event to the Redis channel",
				Flags:  listingFlags(),
				Action: r.ListingPublish,
			},
		},
	}
}

// serveCommand runs the long-lived engine.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the notification engine with its HTTP event endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to [server] host:port)",
			},
			&cli.BoolFlag{
				Name:  "subscribe",
				Usage: "Also consume listing events from the Redis channel",
			},
		},
		Action: r.Serve,
	}
}
