/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"magnetrss/feeds"
	"magnetrss/server"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the magnet link feed",
		Description: `Starts the HTTP server and the refresh scheduler.

Refreshes immediately on startup and then every refresh_interval minutes as
configured in the config file. The feed of the latest refresh is served at
/rss. A refresh can be triggered manually with POST /refresh using the
credentials from the config file.`,
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
			workersFlag(),
			retriesFlag(),
			timeoutFlag(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   5000,
				Usage:   "Port to listen on",
				EnvVars: []string{"MAGNETRSS_PORT"},
			},
			&cli.StringFlag{
				Name:    "feed-url",
				Value:   feeds.DefaultChannel().Link,
				Usage:   "Public URL of the feed, used as the channel link",
				EnvVars: []string{"MAGNETRSS_FEED_URL"},
			},
		},
		Action: func(ctx *cli.Context) error {
			log.Info("Starting magnetrss...")

			p, err := newPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			channel := feeds.DefaultChannel()
			channel.Link = ctx.String("feed-url")

			app := server.Server(&server.ServerConfig{
				Cache:     p.cache,
				Refresher: p.scheduler,
				Credentials: func() (string, string) {
					cfg := p.config.Current()
					return cfg.AuthUser, cfg.AuthPass
				},
				Channel: channel,
			})

			// Graceful shutdown
			runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := p.scheduler.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					log.WithFields(log.Fields{
						"error": err,
					}).Error("Scheduler stopped")
				}
			}()

			go func() {
				<-runCtx.Done()
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(60 * time.Second); err != nil {
					log.WithFields(log.Fields{
						"error": err,
					}).Error("Failed to shut down server")
				}
			}()

			log.WithFields(log.Fields{
				"port": ctx.Int("port"),
				"feed": channel.Link,
			}).Info("Starting server...")
			err = app.Listen(fmt.Sprintf(":%d", ctx.Int("port")))

			// Stop the scheduler when the server failed to start
			stop()
			wg.Wait()

			log.Info("Done!")
			return err
		},
	}
}
