// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package interactions

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/tomtom215/vitrine/internal/metrics"
)

// ProfileLoader builds a fresh profile for a user.
type ProfileLoader func(ctx context.Context, userID string) (*Profile, error)

// generationStripes is the number of invalidation counters users hash onto.
const generationStripes = 256

// generation counts invalidations for the users hashed onto it.
type generation struct {
	mu sync.Mutex
	n  uint64
}

// ProfileCache memoizes profiles for a short TTL. Callers that record an
// event for a user must Invalidate that user. A load that overlaps an
// Invalidate of the same user is returned to its caller but never cached,
// so a recorded event is visible to the next Get.
type ProfileCache struct {
	cache  *ttlcache.Cache[string, *Profile]
	loader ProfileLoader
	gens   [generationStripes]generation
}

// NewProfileCache creates a cache. capacity 0 means unbounded.
func NewProfileCache(ttl time.Duration, capacity uint64, loader ProfileLoader) *ProfileCache {
	opts := []ttlcache.Option[string, *Profile]{
		ttlcache.WithTTL[string, *Profile](ttl),
		ttlcache.WithDisableTouchOnHit[string, *Profile](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, *Profile](capacity))
	}
	return &ProfileCache{cache: ttlcache.New(opts...), loader: loader}
}

// StoreLoader returns a ProfileLoader reading historyDays of events from s.
func StoreLoader(s Store, historyDays int, w Weighting, now func() time.Time) ProfileLoader {
	return func(ctx context.Context, userID string) (*Profile, error) {
		p, err := BuildProfile(userID, s.Read(ctx, userID, historyDays), now(), w)
		if err != nil {
			return nil, fmt.Errorf("build profile for %s: %w", userID, err)
		}
		return p, nil
	}
}

// Get returns the cached profile or loads and caches a new one.
func (c *ProfileCache) Get(ctx context.Context, userID string) (*Profile, error) {
	if item := c.cache.Get(userID); item != nil {
		metrics.RecordCacheLookup("profile", true)
		return item.Value(), nil
	}
	metrics.RecordCacheLookup("profile", false)

	g := c.stripe(userID)
	g.mu.Lock()
	before := g.n
	g.mu.Unlock()

	p, err := c.loader(ctx, userID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.n == before {
		c.cache.Set(userID, p, ttlcache.DefaultTTL)
	}
	g.mu.Unlock()
	return p, nil
}

// Invalidate drops the cached profile for userID and marks loads already in
// flight for it as stale.
func (c *ProfileCache) Invalidate(userID string) {
	g := c.stripe(userID)
	g.mu.Lock()
	g.n++
	c.cache.Delete(userID)
	g.mu.Unlock()
}

func (c *ProfileCache) stripe(userID string) *generation {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &c.gens[h.Sum32()%generationStripes]
}

// Len returns the number of cached profiles.
func (c *ProfileCache) Len() int {
	return c.cache.Len()
}

// Serve runs the expiry loop until ctx is cancelled. It satisfies
// suture.Service.
func (c *ProfileCache) Serve(ctx context.Context) error {
	go c.cache.Start()
	<-ctx.Done()
	c.cache.Stop()
	return ctx.Err()
}

func (c *ProfileCache) String() string {
	return "profile-cache"
}
