// Package cache holds the feed items of the most recent refresh cycle.
//
// The current snapshot is published through an atomic pointer. Readers never
// lock and always observe one complete snapshot. A published snapshot is never
// modified, callers of Read must treat it as read only.
package cache

import (
	"context"
	"magnetrss/models"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	cacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "magnetrss_cache_items",
		Help: "The number of items in the current cache snapshot",
	})

	cachePersistErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magnetrss_cache_persist_errors_total",
		Help: "The total number of snapshots that could not be persisted",
	})
)

// Persister mirrors snapshots to durable storage
type Persister interface {
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	LoadSnapshot(ctx context.Context) (*models.Snapshot, error)
}

type Store struct {
	current   atomic.Pointer[models.Snapshot]
	writeMu   sync.Mutex
	persister Persister
}

// New returns an empty store. persister may be nil.
func New(persister Persister) *Store {
	s := &Store{persister: persister}
	s.current.Store(&models.Snapshot{Items: []models.FeedItem{}})
	return s
}

// Load seeds the store with the last persisted snapshot, if any
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	snapshot, err := s.persister.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return nil
	}
	if snapshot.Items == nil {
		snapshot.Items = []models.FeedItem{}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.current.Store(snapshot)
	cacheItems.Set(float64(len(snapshot.Items)))

	log.WithFields(log.Fields{
		"version": snapshot.Version,
		"items":   len(snapshot.Items),
	}).Info("Loaded persisted snapshot")
	return nil
}

// Read returns the current snapshot, never nil
func (s *Store) Read() *models.Snapshot {
	return s.current.Load()
}

// Replace publishes items as the new snapshot, discarding the previous one
// entirely. The in-memory swap always happens. Persistence failures are
// logged and do not affect readers.
func (s *Store) Replace(ctx context.Context, items []models.FeedItem, startedAt time.Time) *models.Snapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snapshot := &models.Snapshot{
		Version:   s.current.Load().Version + 1,
		StartedAt: startedAt.UTC(),
		Items:     append(make([]models.FeedItem, 0, len(items)), items...),
	}
	s.current.Store(snapshot)
	cacheItems.Set(float64(len(snapshot.Items)))

	if s.persister != nil {
		if err := s.persister.SaveSnapshot(ctx, snapshot); err != nil {
			cachePersistErrors.Inc()
			log.WithFields(log.Fields{
				"version": snapshot.Version,
				"error":   err,
			}).Warn("Failed to persist snapshot, serving it from memory only")
		}
	}

	return snapshot
}
