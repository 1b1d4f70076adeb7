/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "magnetrss",
		Usage: "An RSS feed of the magnet links found on a list of web pages",
		Description: `Periodically visits a configurable list of web pages, extracts
		the magnet links they contain and republishes them as an RSS 2.0 feed.

		Magnetrss works by fetching every configured page on an interval, picking
		out anchors linking to BitTorrent info hashes and normalizing the display
		name of each link. The result of the latest refresh is kept in memory,
		mirrored to an SQLite database and served over HTTP.

		Flags can generally be set via environment variables, e.g.:

		--database => MAGNETRSS_DATABASE=feed.db
		--port => MAGNETRSS_PORT=5000
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"MAGNETRSS_LOG_LEVEL"},
			},
		},
		Before: func(ctx *cli.Context) error {
			level, err := log.ParseLevel(ctx.String("log-level"))
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			log.SetLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			refreshCmd(),
			renderCmd(),
			migrateCmd(),
			rollbackCmd(),
			tidyCmd(),
			sourcesCmd(),
			intervalCmd(),
			credentialsCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

// Execute runs the CLI with the process arguments and exits on failure
func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
