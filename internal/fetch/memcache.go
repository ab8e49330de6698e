package fetch

import (
	"sync"
	"sync/atomic"
)

// defaultMemCacheSize caps the in-memory response layer (16 MB). Responses
// are JSON pages of at most a few hundred KB, so this holds a full run's
// working set for typical organizations.
const defaultMemCacheSize = 16 * 1024 * 1024

// memCache is a size-bounded LRU over raw response bodies, keyed by request
// URL. It fronts the disk cache so repeated lookups within one run (alias
// re-resolution, multiple renderers) skip decompression entirely.
type memCache struct {
	mu          sync.Mutex
	entries     map[string]*memEntry
	head        *memEntry // Most recently used.
	tail        *memEntry // Least recently used.
	maxSize     int64
	currentSize int64

	hits   atomic.Int64
	misses atomic.Int64
}

// memEntry is a doubly-linked list node for LRU tracking.
type memEntry struct {
	url  string
	body []byte
	prev *memEntry
	next *memEntry
}

func newMemCache(maxSize int64) *memCache {
	if maxSize <= 0 {
		maxSize = defaultMemCacheSize
	}

	return &memCache{
		entries: make(map[string]*memEntry),
		maxSize: maxSize,
	}
}

// get returns the cached body and promotes the entry to most recently
// used. The returned slice must not be mutated by the caller.
func (c *memCache) get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		c.misses.Add(1)

		return nil, false
	}

	c.hits.Add(1)
	c.moveToFront(entry)

	return entry.body, true
}

// put stores a body, evicting least recently used entries until the cache
// fits its size budget. Bodies larger than the whole budget are not cached.
func (c *memCache) put(url string, body []byte) {
	size := int64(len(body))
	if size > c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[url]; ok {
		c.currentSize += size - int64(len(existing.body))
		existing.body = body
		c.moveToFront(existing)
		c.evictOverflow()

		return
	}

	entry := &memEntry{url: url, body: body}
	c.entries[url] = entry
	c.currentSize += size
	c.pushFront(entry)
	c.evictOverflow()
}

// stats returns the hit and miss counts.
func (c *memCache) stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *memCache) evictOverflow() {
	for c.currentSize > c.maxSize && c.tail != nil {
		evicted := c.tail

		c.unlink(evicted)
		delete(c.entries, evicted.url)
		c.currentSize -= int64(len(evicted.body))
	}
}

func (c *memCache) pushFront(entry *memEntry) {
	entry.next = c.head
	entry.prev = nil

	if c.head != nil {
		c.head.prev = entry
	}

	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

func (c *memCache) moveToFront(entry *memEntry) {
	if c.head == entry {
		return
	}

	c.unlink(entry)
	c.pushFront(entry)
}

func (c *memCache) unlink(entry *memEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
}
