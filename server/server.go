package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"magnetrss/feeds"
	"magnetrss/models"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const FeedPath = "/rss"

// SnapshotReader gives access to the snapshot currently served
type SnapshotReader interface {
	Read() *models.Snapshot
}

// Refresher runs a refresh cycle on demand and reports the number of items
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

type ServerConfig struct {

	// The snapshot store the feed is rendered from
	Cache SnapshotReader

	// Runs manual refreshes
	Refresher Refresher

	// Returns the username and password protecting the refresh endpoint.
	// Called on every request so credential changes apply without a restart.
	Credentials func() (string, string)

	// Channel metadata for the rendered feed
	Channel feeds.Channel
}

// Returns a fiber.App instance serving the magnet feed
func Server(config *ServerConfig) *fiber.App {

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		// start timer
		start := time.Now()

		// next routes
		err := c.Next()

		// stop timer
		stop := time.Now()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"status":  c.Response().StatusCode(),
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	// Feed readers running in a browser fetch the feed cross origin
	app.Use(FeedPath, cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,HEAD",
	}))

	// Setup cache
	app.Use(cache.New(cache.Config{
		Next: func(c *fiber.Ctx) bool {
			// Only cache the feed itself
			return c.Method() != fiber.MethodGet || c.Path() != FeedPath
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			// The snapshot version is part of the key so a new snapshot is
			// served as soon as it replaces the old one
			return fmt.Sprintf("%s#%d", c.Path(), config.Cache.Read().Version)
		},
		Expiration: 10 * time.Minute,
	}))

	app.Get(FeedPath, func(c *fiber.Ctx) error {
		snapshot := config.Cache.Read()

		body, err := feeds.Render(snapshot, config.Channel)
		if err != nil {
			log.WithFields(log.Fields{
				"version": snapshot.Version,
				"error":   err,
			}).Error("Error rendering feed")
			return c.Status(fiber.StatusInternalServerError).SendString("Error rendering feed")
		}

		c.Set(fiber.HeaderContentType, feeds.ContentType)
		return c.Send(body)
	})

	refresh := func(c *fiber.Ctx) error {
		count, err := config.Refresher.Refresh(c.UserContext())
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Manual refresh failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "refresh failed",
			})
		}

		log.WithFields(log.Fields{
			"items": count,
		}).Info("Manual refresh complete")
		return c.JSON(fiber.Map{
			"items": count,
		})
	}

	auth := basicauth.New(basicauth.Config{
		Realm: "magnetrss",
		Authorizer: func(user, pass string) bool {
			expectedUser, expectedPass := config.Credentials()
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(expectedUser)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(expectedPass)) == 1
			return userOK && passOK
		},
	})

	app.Post("/refresh", auth, refresh)
	app.Get("/refresh", auth, refresh)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(200).SendString("OK")
	})

	return app
}
