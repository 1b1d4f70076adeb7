/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"magnetrss/fetcher"
	"magnetrss/scheduler"

	"github.com/urfave/cli/v2"
)

func databaseFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"d"},
		Value:   "feed.db",
		Usage:   "SQLite database file location",
		EnvVars: []string{"MAGNETRSS_DATABASE"},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "config.toml",
		Usage:   "Path to the source configuration file, created with defaults if missing",
		EnvVars: []string{"MAGNETRSS_CONFIG"},
	}
}

func workersFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "workers",
		Aliases: []string{"w"},
		Value:   scheduler.DefaultWorkers,
		Usage:   "Number of source pages fetched in parallel",
		EnvVars: []string{"MAGNETRSS_WORKERS"},
	}
}

func retriesFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "retries",
		Value:   fetcher.DefaultRetries,
		Usage:   "Extra attempts for a source after a network error or server error",
		EnvVars: []string{"MAGNETRSS_RETRIES"},
	}
}

func timeoutFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:    "timeout",
		Value:   fetcher.DefaultTimeout,
		Usage:   "Timeout for a single source request",
		EnvVars: []string{"MAGNETRSS_TIMEOUT"},
	}
}
