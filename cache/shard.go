package cache

import (
	"fmt"
	"sync"

	"pincache/internal/util"
)

// shard is one independent partition of a ShardedCache: its own mutex,
// hash table, and a pair of circular sentinel-headed lists separating
// pinned entries (inUse) from unpinned ones (lru). Every public method
// acquires mu on entry and releases it on every exit path.
type shard[V any] struct {
	mu       sync.Mutex
	capacity uint64
	usage    uint64
	table    *handleTable[V]

	// Dummy heads of circular doubly linked lists.
	// lru.next is the oldest entry, lru.prev the newest; entries on lru
	// have refs==1. inUse holds pinned entries (refs>=2) in no
	// particular order — it exists only so Close can check for leaks.
	lru, inUse entry[V]

	metrics Metrics

	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

func newShard[V any](capacity uint64, metrics Metrics) *shard[V] {
	s := &shard[V]{
		capacity: capacity,
		table:    newHandleTable[V](),
		metrics:  metrics,
	}
	s.lru.next, s.lru.prev = &s.lru, &s.lru
	s.inUse.next, s.inUse.prev = &s.inUse, &s.inUse
	return s
}

// ---- reference-counting protocol (mu held by caller) ----

// ref takes a second-or-later reference on e, promoting it from lru to
// inUse the moment it stops being singly referenced.
func (s *shard[V]) ref(e *entry[V]) {
	if e.refs == 1 && e.inCache {
		s.listRemove(e)
		s.listAppend(&s.inUse, e)
	}
	e.refs++
}

// unref drops a reference on e. At zero references the entry is gone from
// both lists (inCache must already be false) and its deleter runs exactly
// once. Dropping back to a single reference while still cached demotes the
// entry from inUse to lru.
func (s *shard[V]) unref(e *entry[V]) {
	if e.refs == 0 {
		panic("cache: unref of an entry with no references")
	}
	e.refs--
	if e.refs == 0 {
		if e.inCache {
			panic("cache: entry reached zero references while still in_cache")
		}
		e.deleter(e.key, e.value)
	} else if e.inCache && e.refs == 1 {
		s.listRemove(e)
		s.listAppend(&s.lru, e)
	}
}

// ---- circular list primitives ----

func (s *shard[V]) listRemove(e *entry[V]) {
	e.next.prev = e.prev
	e.prev.next = e.next
}

// listAppend makes e the newest entry of list by inserting it just before
// the sentinel (list.prev is always the newest entry, list.next the
// oldest).
func (s *shard[V]) listAppend(list, e *entry[V]) {
	e.next = list
	e.prev = list.prev
	e.prev.next = e
	e.next.prev = e
}

// ---- public shard operations ----

func (s *shard[V]) insert(key []byte, hash uint32, value V, charge uint64, deleter Deleter[V]) *Handle[V] {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := newEntry(key, hash, value, charge, deleter)

	if s.capacity > 0 {
		e.refs++ // the cache's own reference
		e.inCache = true
		s.listAppend(&s.inUse, e)
		s.usage += charge
		s.finishErase(s.table.insert(e), EvictReplaced)
	}
	// Else: capacity 0 means "don't cache" (tests use this to check the
	// single-ref handle path without ever touching the lists/table).

	for s.usage > s.capacity && s.lru.next != &s.lru {
		old := s.lru.next
		if old.refs != 1 {
			panic("cache: lru entry pinned with refs != 1")
		}
		if !s.finishErase(s.table.remove(old.key, old.hash), EvictCapacity) {
			panic("cache: lru entry missing from its own hash table")
		}
	}

	s.reportSize()
	return &Handle[V]{e: e}
}

// finishErase completes removing e, already unlinked from the hash table,
// from the cache: it leaves the lists, usage accounting is adjusted, and
// its cache-held reference is dropped. Returns whether e was non-nil.
func (s *shard[V]) finishErase(e *entry[V], reason EvictReason) bool {
	if e == nil {
		return false
	}
	if !e.inCache {
		panic("cache: finishErase on an entry that was already evicted")
	}
	s.listRemove(e)
	e.inCache = false
	s.usage -= e.charge
	s.metrics.Evict(reason)
	s.unref(e)
	return true
}

func (s *shard[V]) lookup(key []byte, hash uint32) (*Handle[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.table.lookup(key, hash)
	if e == nil {
		s.misses.Add(1)
		s.metrics.Miss()
		return nil, false
	}
	s.ref(e)
	s.hits.Add(1)
	s.metrics.Hit()
	return &Handle[V]{e: e}, true
}

func (s *shard[V]) release(h *Handle[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unref(h.e)
}

func (s *shard[V]) erase(key []byte, hash uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishErase(s.table.remove(key, hash), EvictErase)
	s.reportSize()
}

func (s *shard[V]) prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.lru.next != &s.lru {
		e := s.lru.next
		if !s.finishErase(s.table.remove(e.key, e.hash), EvictPrune) {
			panic("cache: lru entry missing from its own hash table")
		}
	}
	s.reportSize()
}

func (s *shard[V]) totalCharge() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// close requires the shard hold no outstanding handles (inUse empty) —
// mirroring the precondition that the cache's destructor must not run
// while a client still holds a Handle. It then releases the cache's own
// reference on every entry still on lru, running their deleters.
func (s *shard[V]) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inUse.next != &s.inUse {
		return fmt.Errorf("cache: shard closed with outstanding handles")
	}
	for e := s.lru.next; e != &s.lru; {
		next := e.next
		if !e.inCache {
			panic("cache: lru entry not marked in_cache")
		}
		e.inCache = false
		if e.refs != 1 {
			panic("cache: lru entry invariant violated: refs != 1")
		}
		s.unref(e)
		e = next
	}
	return nil
}

func (s *shard[V]) reportSize() {
	s.metrics.Size(int(s.table.elems), s.usage)
}
