package descriptor

import (
	"sync"
	"sync/atomic"

	"github.com/conduit-lang/clsproxy/pkg/object"
)

// entry is a cached resolution. A nil descriptor marks a key known to be absent.
type entry struct {
	descriptor *object.Descriptor
}

// Stats reports cache effectiveness
type Stats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// Cache memoizes resolutions for one wrapped class. Entries are inserted once
// and never evicted or invalidated.
type Cache struct {
	mu      sync.RWMutex
	entries map[object.Key]entry
	order   []object.Key

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[object.Key]entry),
	}
}

// Peek returns the cached resolution for key without resolving it. present is
// false when key has not been resolved yet; found is false for a cached absence.
func (c *Cache) Peek(key object.Key) (d *object.Descriptor, found bool, present bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}
	return e.descriptor, e.descriptor != nil, true
}

// store inserts a resolution unless another caller got there first, and
// returns the entry that ended up in the cache
func (c *Cache) store(key object.Key, d *object.Descriptor) entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e
	}
	e := entry{descriptor: d}
	c.entries[key] = e
	c.order = append(c.order, key)
	return e
}

// Len returns the number of cached keys, absences included
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns cached keys in the order they were first resolved
func (c *Cache) Keys() []object.Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]object.Key, len(c.order))
	copy(keys, c.order)
	return keys
}

// Stats returns hit and miss counters
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.Len(),
	}
}

// Cached returns a Lookup that consults cache before falling back to resolve.
// A nil resolve uses Resolve. Both found descriptors and absences are stored,
// so each key is resolved at most once per cache. Failed resolutions are not
// stored.
func Cached(cache *Cache, resolve Lookup) Lookup {
	if resolve == nil {
		resolve = Resolve
	}
	return func(target *object.Object, key object.Key) (*object.Descriptor, bool, error) {
		if d, found, present := cache.Peek(key); present {
			cache.hits.Add(1)
			return d, found, nil
		}
		cache.misses.Add(1)
		d, _, err := resolve(target, key)
		if err != nil {
			return nil, false, err
		}
		e := cache.store(key, d)
		return e.descriptor, e.descriptor != nil, nil
	}
}
