// Package cache implements a concurrent, sharded, pinning LRU cache.
//
// It maps opaque binary keys to opaque typed values carrying a
// caller-defined charge (weight) and hands back Handles that pin a value in
// memory for as long as a reader holds them. It is meant as a building
// block inside a storage engine where many goroutines simultaneously look
// up, insert, release, and evict cached artifacts (typically decoded data
// blocks or index structures) — not as a general-purpose memoization cache.
//
// # Design
//
//   - Sharding: the cache is split into a fixed number of independent
//     shards (16 by default, matching the classic block-cache layout this
//     package is modeled on), each with its own mutex, hash table, and LRU
//     state. A key is routed to shard[hash>>(32-shardBits)] — the HIGH bits
//     of the hash — while each shard's own hash table buckets on the LOW
//     bits of the same hash. That split is deliberate: it keeps bucket
//     distribution inside a shard independent of which shard was chosen.
//
//   - Pinning: Lookup and Insert return a Handle that holds one reference
//     on the underlying entry. An entry resident in the cache but unpinned
//     lives on the shard's lru list; once pinned by an outstanding Handle
//     it moves to the shard's in_use list. The cache never evicts a pinned
//     entry, and an Insert is never blocked by outstanding pins — usage may
//     exceed capacity while every resident entry is pinned (over-pin).
//
//   - Hash table: each shard owns a hand-rolled chaining hash table (see
//     handleTable) tuned for an average bucket occupancy at or below 1; it
//     grows (never shrinks) once element count exceeds bucket count.
//
//   - Deleters: every Insert takes a Deleter, invoked exactly once — when
//     the entry's last reference (cache slot plus every outstanding Handle)
//     goes away — while the owning shard's mutex is held. Deleters must not
//     re-enter the same cache.
//
// # Basic usage
//
//	c := cache.New[[]byte](cache.Options[[]byte]{Capacity: 10 << 20})
//	h := c.Insert([]byte("block-1"), decoded, uint64(len(decoded)), func(key []byte, v []byte) {
//	    // release any resources v owns
//	})
//	defer c.Release(h)
//	use(c.Value(h))
//
// # Thread-safety & complexity
//
// Every method is safe for concurrent use. A single operation acquires at
// most one shard mutex (plus the disjoint id-counter mutex for NewID), so
// deadlock between cache operations is structurally impossible. Expected
// cost is O(1): a hash table lookup plus a constant number of list
// pointer fixes under the shard lock.
package cache
