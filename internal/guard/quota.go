package guard

import (
	"sync"
	"time"
)

// quotaEntry tracks one client's request count inside the current window.
type quotaEntry struct {
	count        int
	windowExpiry time.Time
}

// QuotaStore is a bounded, time-limited per-client request counter with
// fixed-window semantics. Increments are atomic per client key; expired
// entries are evicted by a janitor goroutine so the store stays bounded.
type QuotaStore struct {
	mu      sync.Mutex
	entries map[string]*quotaEntry
	max     int
	window  time.Duration

	stop     chan struct{}
	stopOnce sync.Once

	now func() time.Time // injected in tests
}

// NewQuotaStore creates a quota store allowing max requests per window per
// client and starts its eviction janitor. Callers own the lifecycle and must
// call Close.
func NewQuotaStore(max int, window time.Duration) *QuotaStore {
	q := &QuotaStore{
		entries: make(map[string]*quotaEntry),
		max:     max,
		window:  window,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go q.janitor()
	return q
}

// Allow records one request for the client and reports whether it is within
// quota. The first request of a new window resets the count.
func (q *QuotaStore) Allow(clientID string) bool {
	now := q.now()
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[clientID]
	if !ok || now.After(e.windowExpiry) {
		q.entries[clientID] = &quotaEntry{count: 1, windowExpiry: now.Add(q.window)}
		return true
	}
	if e.count >= q.max {
		return false
	}
	e.count++
	return true
}

// Close stops the eviction janitor.
func (q *QuotaStore) Close() {
	q.stopOnce.Do(func() { close(q.stop) })
}

func (q *QuotaStore) janitor() {
	ticker := time.NewTicker(q.window)
	defer ticker.Stop()
	for {
		select {
		case <-q.stop:
			return
		case <-ticker.C:
			q.evictExpired()
		}
	}
}

func (q *QuotaStore) evictExpired() {
	now := q.now()
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, e := range q.entries {
		if now.After(e.windowExpiry) {
			delete(q.entries, id)
		}
	}
}
