/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"magnetrss/cache"
	"magnetrss/config"
	"magnetrss/db"
	"magnetrss/fetcher"
	"magnetrss/scheduler"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// pipeline wires the refresh components together for the serve and refresh commands
type pipeline struct {
	config    *config.Store
	database  *db.DB
	cache     *cache.Store
	scheduler *scheduler.Scheduler
}

// openCache migrates and opens the snapshot database and seeds a cache store from it
func openCache(ctx *cli.Context) (*db.DB, *cache.Store, error) {
	database := ctx.String("database")
	log.WithFields(log.Fields{
		"database": database,
	}).Info("Database configured")

	if err := db.Migrate(database); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	conn, err := db.Open(database)
	if err != nil {
		return nil, nil, err
	}

	store := cache.New(conn)
	if err := store.Load(ctx.Context); err != nil {
		// Start empty, the first refresh fills the cache
		log.WithFields(log.Fields{
			"error": err,
		}).Warn("Failed to load persisted snapshot")
	}

	return conn, store, nil
}

func newPipeline(ctx *cli.Context) (*pipeline, error) {
	configStore := config.NewStore(ctx.String("config"))
	if _, err := configStore.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	conn, store, err := openCache(ctx)
	if err != nil {
		return nil, err
	}

	f := fetcher.New(fetcher.Config{
		Timeout: ctx.Duration("timeout"),
		Retries: ctx.Int("retries"),
	})

	return &pipeline{
		config:   configStore,
		database: conn,
		cache:    store,
		scheduler: scheduler.New(configStore.Current, f, store, scheduler.Options{
			Workers: ctx.Int("workers"),
		}),
	}, nil
}

func (p *pipeline) Close() {
	if err := p.database.Close(); err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Warn("Failed to close database")
	}
}
