package cache

import (
	"fmt"
	"sync"

	"pincache/internal/util"
	"pincache/internal/xhash"

	"golang.org/x/sync/singleflight"
)

// defaultShardBits / maxShardBits bound the shift used to route a 32-bit
// hash to a shard: the spec mandates 16 shards (4 bits) by default, routed
// by the hash's HIGH bits, deliberately distinct from the LOW bits each
// shard's own hash table buckets on.
const (
	defaultShardBits = 4
	maxShardBits     = 8 // 256 shards, generous headroom for benchmarking
)

// ShardedCache is a concurrent, pinning LRU cache split into independent
// shards to reduce lock contention. See the package doc for the full
// design. The zero value is not usable; construct with New.
type ShardedCache[V any] struct {
	shards    []*shard[V]
	shardBits uint

	hash func(key []byte) uint32

	idMu   sync.Mutex
	lastID uint64

	sf singleflight.Group
}

// New constructs a ShardedCache per opt. Capacity must be > 0.
func New[V any](opt Options[V]) *ShardedCache[V] {
	if opt.Capacity == 0 {
		panic("cache: Capacity must be > 0")
	}

	bits := util.ShardBits(opt.Shards, defaultShardBits, maxShardBits)
	numShards := uint64(1) << uint(bits)

	hashFn := opt.Hash
	if hashFn == nil {
		hashFn = xhash.Sum32
	}
	metrics := opt.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	perShard := (opt.Capacity + numShards - 1) / numShards
	shards := make([]*shard[V], numShards)
	for i := range shards {
		shards[i] = newShard[V](perShard, metrics)
	}

	return &ShardedCache[V]{
		shards:    shards,
		shardBits: uint(bits),
		hash:      hashFn,
	}
}

// shardFor routes hash by its top shardBits bits — disjoint from the low
// bits each shard's handleTable buckets on.
func (c *ShardedCache[V]) shardFor(hash uint32) *shard[V] {
	idx := hash >> (32 - c.shardBits)
	return c.shards[idx]
}

// Insert adds key->value with the given charge and deleter, evicting
// unpinned entries until usage fits capacity (or the lru list is
// exhausted — an over-pinned shard is allowed to exceed capacity). The
// returned Handle is pinned; the caller must Release it exactly once.
func (c *ShardedCache[V]) Insert(key []byte, value V, charge uint64, deleter Deleter[V]) *Handle[V] {
	h := c.hash(key)
	return c.shardFor(h).insert(key, h, value, charge, deleter)
}

// Lookup returns a pinned Handle for key, or (nil, false) on a miss.
func (c *ShardedCache[V]) Lookup(key []byte) (*Handle[V], bool) {
	h := c.hash(key)
	return c.shardFor(h).lookup(key, h)
}

// Release gives up the reference held by h. h must not be used afterwards.
func (c *ShardedCache[V]) Release(h *Handle[V]) {
	c.shardFor(h.e.hash).release(h)
}

// Value returns the value pinned by h. Must not be called after Release.
func (c *ShardedCache[V]) Value(h *Handle[V]) V {
	return h.e.value
}

// Erase removes key from the cache. A no-op on a miss. If outstanding
// Handles still reference the entry, it survives — off both lists,
// deleted from the hash table — until the last Release.
func (c *ShardedCache[V]) Erase(key []byte) {
	h := c.hash(key)
	c.shardFor(h).erase(key, h)
}

// Prune evicts every currently-unpinned entry across all shards.
func (c *ShardedCache[V]) Prune() {
	for _, s := range c.shards {
		s.prune()
	}
}

// TotalCharge returns the sum of charges of resident entries. Each shard
// is read under its own lock; the sum is a momentary snapshot, not
// necessarily reflecting any single global instant.
func (c *ShardedCache[V]) TotalCharge() uint64 {
	var total uint64
	for _, s := range c.shards {
		total += s.totalCharge()
	}
	return total
}

// NewID returns a strictly increasing 64-bit id, guarded by its own mutex
// disjoint from every shard's. Suitable for minting cache-key namespaces
// so unrelated clients can share one cache without key collisions (see
// Namespace).
func (c *ShardedCache[V]) NewID() uint64 {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	c.lastID++
	return c.lastID
}

// Close requires every outstanding Handle to have been released first —
// callers that destroy the cache while still holding a Handle get an
// error (the original C++ implementation this is modeled on instead
// asserts and aborts; Go callers get a recoverable signal). On success,
// every still-resident unpinned entry has its deleter invoked.
func (c *ShardedCache[V]) Close() error {
	for i, s := range c.shards {
		if err := s.close(); err != nil {
			return fmt.Errorf("cache: shard %d: %w", i, err)
		}
	}
	return nil
}
