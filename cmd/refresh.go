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

func refreshCmd() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Run a single refresh cycle",
		Description: `Fetches every configured source once, replaces the persisted
snapshot with the result and prints the number of feed items produced.

Log messages are written to stderr.`,
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
			workersFlag(),
			retriesFlag(),
			timeoutFlag(),
		},
		Action: func(ctx *cli.Context) error {
			log.SetOutput(os.Stderr)

			p, err := newPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			count, err := p.scheduler.Refresh(ctx.Context)
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}

			fmt.Println(count)
			return nil
		},
	}
}
