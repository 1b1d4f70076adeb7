/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"magnetrss/config"
	"strconv"

	"github.com/cqroot/prompt"
	"github.com/cqroot/prompt/input"
	"github.com/urfave/cli/v2"
)

func intervalCmd() *cli.Command {
	return &cli.Command{
		Name:      "interval",
		Usage:     "Show or set the refresh interval in minutes",
		ArgsUsage: "[minutes]",
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: func(ctx *cli.Context) error {
			store := config.NewStore(ctx.String("config"))

			if ctx.NArg() == 0 {
				cfg, err := store.Load()
				if err != nil {
					return err
				}
				fmt.Printf("Refresh interval: %d minute(s)\n", cfg.RefreshInterval)
				return nil
			}

			minutes, err := strconv.Atoi(ctx.Args().First())
			if err != nil {
				return config.ErrInvalidInterval
			}
			if err := store.SetInterval(minutes); err != nil {
				return err
			}

			fmt.Printf("Refresh interval set to %d minute(s)\n", minutes)
			return nil
		},
	}
}

func credentialsCmd() *cli.Command {
	return &cli.Command{
		Name:  "credentials",
		Usage: "Change the login for the manual refresh endpoint",
		Description: `Prompts for a new username and password for POST /refresh and
stores them in the config file. A running server uses them for the next request.`,
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: func(ctx *cli.Context) error {
			store := config.NewStore(ctx.String("config"))
			cfg, err := store.Load()
			if err != nil {
				return err
			}

			user, err := prompt.New().Ask("Username:").Input(cfg.AuthUser)
			if err != nil {
				return err
			}

			password, err := prompt.New().Ask("New password:").Input("", input.WithEchoMode(input.EchoNone))
			if err != nil {
				return err
			}

			confirm, err := prompt.New().Ask("Repeat password:").Input("", input.WithEchoMode(input.EchoNone))
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			if err := store.SetCredentials(user, password); err != nil {
				return err
			}

			fmt.Println("Credentials updated")
			return nil
		},
	}
}
