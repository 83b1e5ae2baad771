package metadata

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/blob"
)

// Cache is a single-key read-through TTL cache of the remote metadata
// snapshot. A cold cache may refill concurrently for simultaneous requests;
// that duplicate-fetch race is accepted because snapshots are immutable and
// idempotent, so last-write-wins is correct.
type Cache struct {
	store             blob.Store
	ttl               time.Duration
	fallbackGuidePath string

	mu     sync.RWMutex
	snap   *Snapshot
	expiry time.Time

	now func() time.Time // injected in tests
}

// NewCache creates a metadata cache over the given blob store.
// fallbackGuidePath may be empty; when set, the local document substitutes
// for an absent or empty remote catalog guide.
func NewCache(store blob.Store, ttl time.Duration, fallbackGuidePath string) *Cache {
	return &Cache{
		store:             store,
		ttl:               ttl,
		fallbackGuidePath: fallbackGuidePath,
		now:               time.Now,
	}
}

// Get returns the current snapshot, refetching all sources when the cached
// one has expired. Within the expiry window the same snapshot object is
// returned without refetching. Get never fails: an individual source failure
// degrades that field to its zero value.
func (c *Cache) Get(ctx context.Context) *Snapshot {
	c.mu.RLock()
	snap, expiry := c.snap, c.expiry
	c.mu.RUnlock()
	if snap != nil && c.now().Before(expiry) {
		return snap
	}

	snap = c.fetchAll(ctx)

	c.mu.Lock()
	c.snap = snap
	c.expiry = c.now().Add(c.ttl)
	c.mu.Unlock()
	return snap
}

// LastFetched returns the fetch time of the cached snapshot. ok is false
// while the cache is cold. Never triggers a fetch.
func (c *Cache) LastFetched() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return time.Time{}, false
	}
	return c.snap.FetchedAt, true
}

// Invalidate drops the cached snapshot so the next Get refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

// sourceResult is the structured outcome of one sub-fetch, so degradation is
// visible to logging instead of vanishing silently.
type sourceResult struct {
	source string
	err    error
}

// fetchAll fetches all four sources concurrently and assembles a complete
// snapshot. Partial failure of one fetch never cancels the others.
func (c *Cache) fetchAll(ctx context.Context) *Snapshot {
	snap := &Snapshot{FetchedAt: c.now()}

	results := make(chan sourceResult, 4)
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		names, err := c.fetchFileIndex(ctx)
		snap.FileIndex = names
		results <- sourceResult{source: "file_index", err: err}
	}()
	go func() {
		defer wg.Done()
		guide, err := c.fetchCatalogGuide(ctx)
		snap.CatalogGuide = guide
		results <- sourceResult{source: "catalog_guide", err: err}
	}()
	go func() {
		defer wg.Done()
		zones, err := fetchJSON[[]Zone](ctx, c.store, ObjectDeliveryZones)
		snap.DeliveryZones = zones
		results <- sourceResult{source: "delivery_zones", err: err}
	}()
	go func() {
		defer wg.Done()
		cases, err := fetchJSON[[]UseCase](ctx, c.store, ObjectUseCases)
		snap.UseCases = cases
		results <- sourceResult{source: "use_cases", err: err}
	}()

	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			log.Warn().Err(res.err).Str("source", res.source).Msg("metadata_fetch_degraded")
		}
	}

	snap.buildIndex()
	return snap
}

// fetchFileIndex lists the bucket and filters out the reserved dataset objects.
func (c *Cache) fetchFileIndex(ctx context.Context) ([]string, error) {
	names, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	index := make([]string, 0, len(names))
	for _, name := range names {
		switch name {
		case ObjectCatalogGuide, ObjectDeliveryZones, ObjectUseCases:
		default:
			index = append(index, name)
		}
	}
	return index, nil
}

// fetchCatalogGuide downloads the remote guide, substituting the local
// fallback document when the remote one is absent or empty.
func (c *Cache) fetchCatalogGuide(ctx context.Context) (string, error) {
	data, err := c.store.Download(ctx, ObjectCatalogGuide)
	guide := string(data)
	if err == nil && guide != "" {
		return guide, nil
	}
	if c.fallbackGuidePath != "" {
		local, readErr := os.ReadFile(c.fallbackGuidePath)
		if readErr == nil && len(local) > 0 {
			return string(local), err
		}
	}
	return "", err
}

func fetchJSON[T any](ctx context.Context, store blob.Store, name string) (T, error) {
	var out T
	data, err := store.Download(ctx, name)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}
