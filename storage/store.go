package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/giygas/rxu-api/interfaces"
	"github.com/giygas/rxu-api/logging"
	"github.com/giygas/rxu-api/metrics"
)

// Store resolves a key against the cache, then each durable tier in order.
// Concurrent fetches of the same key share one durable lookup.
type Store struct {
	cache *MemoryCache
	tiers []Tier
	group singleflight.Group
	now   func() time.Time
}

var _ interfaces.BlobStore = (*Store)(nil)

// Stats is a point in time view for the health endpoint
type Stats struct {
	Tiers        []string `json:"tiers"`
	CacheEntries int      `json:"cache_entries"`
}

// New builds a store. A nil cache disables caching; nil tiers are skipped.
func New(cache *MemoryCache, tiers ...Tier) *Store {
	kept := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t != nil {
			kept = append(kept, t)
		}
	}
	if cache == nil {
		cache = NewMemoryCache(0)
	}
	return &Store{cache: cache, tiers: kept, now: time.Now}
}

// Fetch returns the blob for key. When every tier misses or fails the error
// is a *DataUnavailableError. A caller giving up through ctx stops waiting,
// but a fetch already in flight runs to completion and fills the cache.
func (s *Store) Fetch(ctx context.Context, key string) (*Blob, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	if blob, ok := s.cache.Get(key); ok {
		metrics.StorageTierRequests.WithLabelValues("memory", "hit").Inc()
		return blob, nil
	}
	metrics.StorageTierRequests.WithLabelValues("memory", "miss").Inc()

	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.load(flightCtx, key)
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.StorageCoalescedFetches.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Blob), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) load(ctx context.Context, key string) (*Blob, error) {
	// A flight that finished just before this one started has already filled the cache
	if blob, ok := s.cache.Get(key); ok {
		return blob, nil
	}

	causes := make([]error, 0, len(s.tiers))
	for _, tier := range s.tiers {
		name := tier.Name()

		start := time.Now()
		data, err := tier.Get(ctx, key)
		metrics.StorageTierDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		if err == nil {
			metrics.StorageTierRequests.WithLabelValues(name, "hit").Inc()
			blob := &Blob{Key: key, Data: data, Source: name, FetchedAt: s.now()}
			s.cache.Set(blob)
			logging.Debug("Sentiment blob fetched", "key", key, "tier", name, "bytes", len(data))
			return blob, nil
		}

		if errors.Is(err, ErrNotFound) {
			metrics.StorageTierRequests.WithLabelValues(name, "miss").Inc()
			logging.Debug("Storage tier miss", "key", key, "tier", name)
		} else {
			metrics.StorageTierRequests.WithLabelValues(name, "error").Inc()
			logging.Warn("Storage tier failed, falling through", "key", key, "tier", name, "error", err)
		}
		causes = append(causes, fmt.Errorf("%s: %w", name, err))
	}

	metrics.StorageUnavailable.Inc()
	return nil, &DataUnavailableError{Key: key, Causes: causes}
}

func (s *Store) TierNames() []string {
	names := make([]string, len(s.tiers))
	for i, t := range s.tiers {
		names[i] = t.Name()
	}
	return names
}

func (s *Store) SweepCache() int {
	return s.cache.Sweep()
}

func (s *Store) CacheLen() int {
	return s.cache.Len()
}

func (s *Store) Stats() Stats {
	return Stats{Tiers: s.TierNames(), CacheEntries: s.CacheLen()}
}
