/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"magnetrss/config"

	"github.com/urfave/cli/v2"
)

func sourcesCmd() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "Manage the pages scanned for magnet links",
		Description: `Lists, adds and removes source pages in the config file.

Changes are picked up by a running server at the start of its next refresh.`,
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the configured source pages",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: func(ctx *cli.Context) error {
					cfg, err := config.NewStore(ctx.String("config")).Load()
					if err != nil {
						return err
					}

					for i, url := range cfg.URLs {
						fmt.Printf("%d\t%s\n", i+1, url)
					}
					fmt.Printf("Refresh interval: %d minute(s)\n", cfg.RefreshInterval)
					return nil
				},
			},
			{
				Name:      "add",
				Usage:     "Add a source page",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: func(ctx *cli.Context) error {
					url := ctx.Args().First()
					err := config.NewStore(ctx.String("config")).AddURL(url)
					if errors.Is(err, config.ErrURLExists) {
						return fmt.Errorf("%s is already a source: %w", url, err)
					}
					if err != nil {
						return err
					}

					fmt.Println("Added source:", url)
					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a source page",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: func(ctx *cli.Context) error {
					url := ctx.Args().First()
					if err := config.NewStore(ctx.String("config")).RemoveURL(url); err != nil {
						return err
					}

					fmt.Println("Removed source:", url)
					return nil
				},
			},
		},
	}
}
