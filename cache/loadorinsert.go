package cache

import "fmt"

// LoadFunc produces the value, charge, and deleter to insert for a key
// that missed the cache in LoadOrInsert.
type LoadFunc[V any] func() (value V, charge uint64, deleter Deleter[V], err error)

// LoadOrInsert returns a pinned Handle for key, loading and inserting it on
// a miss. Concurrent misses for the same key are coalesced via
// singleflight: load runs at most once per key per miss "generation", and
// every caller — leader and followers alike — takes its own reference via
// a fresh Lookup, so each can Release independently without disturbing the
// others' pins.
//
// This never bypasses the pinning/eviction protocol: the winning caller's
// value is inserted through the same Insert path as any other caller, so
// it is immediately eligible for eviction like any other entry once
// unpinned.
func (c *ShardedCache[V]) LoadOrInsert(key []byte, load LoadFunc[V]) (*Handle[V], error) {
	if h, ok := c.Lookup(key); ok {
		return h, nil
	}

	_, err, _ := c.sf.Do(string(key), func() (any, error) {
		// Re-check: another goroutine may have populated the entry while
		// we were waiting to become the singleflight leader.
		if h, ok := c.Lookup(key); ok {
			c.Release(h)
			return nil, nil
		}
		value, charge, deleter, err := load()
		if err != nil {
			return nil, err
		}
		h := c.Insert(key, value, charge, deleter)
		c.Release(h)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	h, ok := c.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("cache: entry for key evicted before caller could pin it")
	}
	return h, nil
}
