/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"magnetrss/feeds"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func renderCmd() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Print the persisted feed to stdout",
		Description: `Renders the snapshot of the last refresh stored in the database
as an RSS document and writes it to stdout.

Can be used to publish the feed as a static file, e.g. from a cron job
running "magnetrss refresh && magnetrss render > feed.xml".

Log messages are written to stderr.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.StringFlag{
				Name:    "feed-url",
				Value:   feeds.DefaultChannel().Link,
				Usage:   "Public URL of the feed, used as the channel link",
				EnvVars: []string{"MAGNETRSS_FEED_URL"},
			},
		},
		Action: func(ctx *cli.Context) error {
			// Keep stdout for the document
			log.SetOutput(os.Stderr)

			conn, store, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			channel := feeds.DefaultChannel()
			channel.Link = ctx.String("feed-url")

			doc, err := feeds.Render(store.Read(), channel)
			if err != nil {
				return fmt.Errorf("failed to render feed: %w", err)
			}

			_, err = os.Stdout.Write(doc)
			return err
		},
	}
}
