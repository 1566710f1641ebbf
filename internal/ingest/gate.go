package ingest

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/timmy/ordermonitor/internal/logger"
	"github.com/timmy/ordermonitor/internal/metrics"
)

// DefaultStaleAfter is how long a gate entry may live before it is considered abandoned.
const DefaultStaleAfter = 5 * time.Minute

// Gate guarantees at most one in-flight processing attempt per file path.
// Entries are keyed by the normalized absolute path and carry the time they
// were acquired. An entry older than the stale timeout is treated as absent,
// so a task that died without releasing cannot block its file forever.
type Gate struct {
	entries *ttlcache.Cache[string, time.Time]
	metrics *metrics.Metrics

	// mu serializes deletions so the cache eviction counter can attribute
	// evictions to a single DeleteExpired call.
	mu sync.Mutex
}

// NewGate creates a gate whose entries expire after staleAfter.
// Parameters:
//   - staleAfter: entry lifetime; zero or negative uses DefaultStaleAfter.
//   - m: optional metrics sink.
// Returns:
//   - *Gate: empty gate.
func NewGate(staleAfter time.Duration, m *metrics.Metrics) *Gate {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	entries := ttlcache.New[string, time.Time](
		ttlcache.WithTTL[string, time.Time](staleAfter),
		ttlcache.WithDisableTouchOnHit[string, time.Time](),
	)
	g := &Gate{entries: entries, metrics: m}

	entries.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, time.Time]) {
		if reason != ttlcache.EvictionReasonExpired {
			return
		}
		g.metrics.StaleEviction()
		logger.GetDefault().WithFields(logger.Fields{
			logger.FieldComponent: "gate",
			"path":                item.Key(),
			"acquired_at":         item.Value(),
		}).Warn("Evicted stale ingestion gate entry")
	})
	return g
}

// TryAcquire atomically claims path. It returns false if another attempt
// already holds it; the caller must then drop its trigger, not queue it.
func (g *Gate) TryAcquire(path string) bool {
	_, found := g.entries.GetOrSet(normalizePath(path), time.Now())
	if !found {
		g.metrics.SetInFlight(g.entries.Len())
	}
	return !found
}

// Release frees path. Releasing a path that is not held is a no-op.
func (g *Gate) Release(path string) {
	g.mu.Lock()
	g.entries.Delete(normalizePath(path))
	g.mu.Unlock()
	g.metrics.SetInFlight(g.entries.Len())
}

// Held reports whether path is currently in flight.
func (g *Gate) Held(path string) bool {
	return g.entries.Has(normalizePath(path))
}

// InFlight returns the number of live entries. Expired entries are evicted first.
func (g *Gate) InFlight() int {
	g.deleteExpired()
	return g.entries.Len()
}

// EvictStale removes expired entries and returns how many were dropped.
func (g *Gate) EvictStale() int {
	n := g.deleteExpired()
	g.metrics.SetInFlight(g.entries.Len())
	return n
}

// deleteExpired drops expired entries and returns how many it removed. Len
// already hides expired entries, so the count comes from the cache's
// eviction counter, which DeleteExpired updates before returning.
func (g *Gate) deleteExpired() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	before := g.entries.Metrics().Evictions
	g.entries.DeleteExpired()
	return int(g.entries.Metrics().Evictions - before)
}

// normalizePath makes watcher and poller paths for the same file compare equal.
func normalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
