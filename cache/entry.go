package cache

// Deleter finalizes a value exactly once, when its entry's last reference
// (the cache's own slot, plus every outstanding Handle) goes away. It runs
// while the owning shard's mutex is held, so it must not call back into the
// same cache.
type Deleter[V any] func(key []byte, value V)

// entry is a cache record. It is reachable from a shard's hash table while
// resident, and from exactly one of the shard's lru/inUse lists while
// in_cache is true; once erased it is kept alive only by outstanding
// Handles and lives on neither list.
//
// Invariants (all guarded by the owning shard's mutex):
//   - refs >= 1 while the entry is reachable from either list.
//   - inCache == true iff the entry is on exactly one of lru/inUse and one
//     of refs is held by the cache itself.
//   - on lru: refs == 1. on inUse: refs >= 2.
//   - key is immutable for the entry's whole lifetime.
type entry[V any] struct {
	key     []byte
	hash    uint32
	value   V
	deleter Deleter[V]
	charge  uint64

	refs    uint32
	inCache bool

	// Hash-chain linkage, owned by this shard's handleTable.
	nextHash *entry[V]

	// lru/inUse circular list linkage. Exactly one of the two lists holds
	// this entry at a time while inCache is true; otherwise the fields are
	// nil or left stale from the last list the entry was on, and are not read.
	prev, next *entry[V]
}

func newEntry[V any](key []byte, hash uint32, value V, charge uint64, deleter Deleter[V]) *entry[V] {
	owned := make([]byte, len(key))
	copy(owned, key)
	return &entry[V]{
		key:     owned,
		hash:    hash,
		value:   value,
		deleter: deleter,
		charge:  charge,
		refs:    1, // the handle returned to the caller
	}
}

// Handle is an opaque, single-reference token returned by Insert and
// Lookup. It must be paired with exactly one call to ShardedCache.Release; Value
// must not be read after Release.
type Handle[V any] struct {
	e *entry[V]
}
