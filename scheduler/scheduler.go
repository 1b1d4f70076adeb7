// Package scheduler runs refresh cycles: fetch every source, extract and
// normalize magnet links, build feed items and replace the cache.
package scheduler

import (
	"context"
	"magnetrss/config"
	"magnetrss/feeds"
	"magnetrss/models"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

var (
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "magnetrss_refresh_cycles_total",
		Help: "The total number of refresh cycles by trigger",
	}, []string{"trigger"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "magnetrss_refresh_cycle_duration_seconds",
		Help:    "Duration of complete refresh cycles",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // Start at 100ms, double each bucket, 12 buckets
	})

	sourceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magnetrss_source_failures_total",
		Help: "The total number of sources that could not be fetched",
	})
)

const DefaultWorkers = 4

// ConfigFunc returns the current source configuration. It is called once at
// the start of every cycle.
type ConfigFunc func() config.Config

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Cache interface {
	Replace(ctx context.Context, items []models.FeedItem, startedAt time.Time) *models.Snapshot
}

// Options holds optional scheduler settings
type Options struct {
	// Workers is the number of sources fetched in parallel
	Workers int
	// Now returns the wall clock time, defaults to time.Now
	Now func() time.Time
}

type Scheduler struct {
	config  ConfigFunc
	fetcher Fetcher
	cache   Cache
	workers int
	now     func() time.Time

	// Held for the whole duration of a cycle, cycles never overlap
	cycleMu sync.Mutex

	mu       sync.Mutex
	loopDone chan struct{}
	triggers chan chan int
}

func New(configFunc ConfigFunc, fetcher Fetcher, cache Cache, opts Options) *Scheduler {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scheduler{
		config:   configFunc,
		fetcher:  fetcher,
		cache:    cache,
		workers:  opts.Workers,
		now:      opts.Now,
		triggers: make(chan chan int),
	}
}

// Run refreshes immediately and then again every time the configured interval
// expires or Refresh is called. It returns when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	done := make(chan struct{})
	s.mu.Lock()
	s.loopDone = done
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loopDone = nil
		s.mu.Unlock()
		close(done)
	}()

	trigger := "startup"
	var waiting []chan int
	for {
		count, interval := s.cycle(ctx, trigger)
		for _, reply := range waiting {
			reply <- count
		}
		waiting = nil

		log.WithFields(log.Fields{
			"interval": interval,
		}).Debug("Waiting for next refresh")

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			trigger = "interval"
		case reply := <-s.triggers:
			timer.Stop()
			// Coalesce every trigger that is already queued into one cycle
			waiting = append(s.drainTriggers(), reply)
			trigger = "manual"
		}
	}
}

func (s *Scheduler) drainTriggers() []chan int {
	var waiting []chan int
	for {
		select {
		case reply := <-s.triggers:
			waiting = append(waiting, reply)
		default:
			return waiting
		}
	}
}

// Refresh runs one cycle outside the regular interval and returns the number
// of items it produced. While Run is active the request is handed to the run
// loop, otherwise the cycle runs on the calling goroutine.
func (s *Scheduler) Refresh(ctx context.Context) (int, error) {
	s.mu.Lock()
	done := s.loopDone
	s.mu.Unlock()

	if done == nil {
		count, _ := s.cycle(ctx, "manual")
		return count, ctx.Err()
	}

	reply := make(chan int, 1)
	select {
	case s.triggers <- reply:
	case <-done:
		count, _ := s.cycle(ctx, "manual")
		return count, ctx.Err()
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case count := <-reply:
		return count, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// cycle performs one complete refresh and returns the number of items
// produced and the refresh interval read at the start of the cycle.
func (s *Scheduler) cycle(ctx context.Context, trigger string) (int, time.Duration) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	cfg := s.config()
	sources := cfg.Sources()
	interval := cfg.Interval()
	startedAt := s.now().UTC()

	logger := log.WithFields(log.Fields{
		"cycle":   uuid.New().String(),
		"trigger": trigger,
	})
	logger.WithFields(log.Fields{
		"sources":  len(sources),
		"interval": interval,
	}).Info("Starting refresh cycle")

	links := s.fetchAll(ctx, logger, sources)

	if ctx.Err() != nil {
		// Keep the current cache, a cancelled cycle is not a completed one
		logger.Warn("Refresh cycle cancelled")
		return 0, interval
	}

	items := feeds.NewItemBuilder(startedAt).Build(lo.Flatten(links))
	snapshot := s.cache.Replace(ctx, items, startedAt)

	elapsed := s.now().Sub(startedAt)
	cyclesTotal.WithLabelValues(trigger).Inc()
	cycleDuration.Observe(elapsed.Seconds())

	logger.WithFields(log.Fields{
		"items":    len(items),
		"version":  snapshot.Version,
		"duration": elapsed,
	}).Info("Refresh cycle complete")

	return len(items), interval
}
