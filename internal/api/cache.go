package api

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/built-history/internal/dataset"
	"github.com/sells-group/built-history/internal/urban"
)

// resultKey identifies one encoded aggregate response. Two queries share a
// key exactly when urban.Aggregate returns the same Result for them.
type resultKey struct {
	snapshot uuid.UUID
	window   urban.Window
	taxonomy urban.Taxonomy
	weighted bool
	block    int
	selected bool
}

// newResultKey resolves q against snap. A block fid the snapshot does not
// contain aggregates district-wide, so it keys the same as no selection.
func newResultKey(snap *dataset.Snapshot, q Query) resultKey {
	k := resultKey{
		snapshot: snap.ID,
		window:   q.Window,
		taxonomy: q.Taxonomy,
		weighted: q.Weighted,
	}
	if q.Block != nil && snap.HasBlock(*q.Block) {
		k.block = *q.Block
		k.selected = true
	}
	return k
}

// ResultCache holds encoded aggregate responses for the served snapshot,
// least recently used first out. With a zero TTL entries only leave by
// eviction.
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	items    map[resultKey]*list.Element
	recency  *list.List // front is most recently used

	hits      int64
	misses    int64
	evictions int64
	expired   int64
}

type cachedResult struct {
	key     resultKey
	body    []byte
	expires time.Time
}

// CacheStats is the /v1/cache payload.
type CacheStats struct {
	Enabled   bool    `json:"enabled"`
	Entries   int     `json:"entries"`
	Capacity  int     `json:"capacity"`
	TTL       string  `json:"ttl"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Expired   int64   `json:"expired"`
	HitRate   float64 `json:"hit_rate"`
}

// NewResultCache creates a cache holding up to capacity responses.
func NewResultCache(capacity int, ttl time.Duration) *ResultCache {
	return &ResultCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[resultKey]*list.Element, capacity),
		recency:  list.New(),
	}
}

// Get returns the body stored under key and marks it recently used.
func (c *ResultCache) Get(key resultKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	entry := el.Value.(*cachedResult)
	if c.ttl > 0 && !c.now().Before(entry.expires) {
		c.remove(el)
		c.expired++
		c.misses++
		return nil, false
	}

	c.recency.MoveToFront(el)
	c.hits++
	return entry.body, true
}

// Put stores body under key, evicting the least recently used response when
// the cache is full.
func (c *ResultCache) Put(key resultKey, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*cachedResult)
		entry.body = body
		entry.expires = expires
		c.recency.MoveToFront(el)
		return
	}

	for c.recency.Len() >= c.capacity && c.recency.Len() > 0 {
		c.remove(c.recency.Back())
		c.evictions++
	}
	c.items[key] = c.recency.PushFront(&cachedResult{key: key, body: body, expires: expires})
}

// Stats reports occupancy and counters.
func (c *ResultCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Enabled:   true,
		Entries:   c.recency.Len(),
		Capacity:  c.capacity,
		TTL:       c.ttl.String(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Expired:   c.expired,
	}
	if lookups := c.hits + c.misses; lookups > 0 {
		stats.HitRate = float64(c.hits) / float64(lookups)
	}
	return stats
}

func (c *ResultCache) remove(el *list.Element) {
	c.recency.Remove(el)
	delete(c.items, el.Value.(*cachedResult).key)
}
