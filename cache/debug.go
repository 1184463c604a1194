package cache

import "fmt"

// DebugString dumps per-bucket chain lengths and list sizes. Intended for
// tests and ad-hoc debugging only; never parsed by production code.
func (s *shard[V]) DebugString() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lruLen, inUseLen := 0, 0
	for e := s.lru.next; e != &s.lru; e = e.next {
		lruLen++
	}
	for e := s.inUse.next; e != &s.inUse; e = e.next {
		inUseLen++
	}

	out := fmt.Sprintf("capacity=%d usage=%d elems=%d buckets=%d lru=%d in_use=%d\n",
		s.capacity, s.usage, s.table.elems, s.table.length, lruLen, inUseLen)
	for i := uint32(0); i < s.table.length; i++ {
		n := 0
		for e := s.table.buckets[i]; e != nil; e = e.nextHash {
			n++
		}
		if n > 0 {
			out += fmt.Sprintf("  bucket[%d]: %d\n", i, n)
		}
	}
	return out
}

// DebugStats is a point-in-time snapshot of one shard's occupancy, used by
// ShardedCache.DebugStats.
type DebugStats struct {
	Shard    int
	Capacity uint64
	Usage    uint64
	Elems    int
	Buckets  uint32
	LRULen   int
	InUseLen int
}

// DebugStats returns one DebugStats entry per shard. Intended for tests
// and ad-hoc debugging only.
func (c *ShardedCache[V]) DebugStats() []DebugStats {
	out := make([]DebugStats, len(c.shards))
	for i, s := range c.shards {
		s.mu.Lock()
		lruLen, inUseLen := 0, 0
		for e := s.lru.next; e != &s.lru; e = e.next {
			lruLen++
		}
		for e := s.inUse.next; e != &s.inUse; e = e.next {
			inUseLen++
		}
		out[i] = DebugStats{
			Shard:    i,
			Capacity: s.capacity,
			Usage:    s.usage,
			Elems:    int(s.table.elems),
			Buckets:  s.table.length,
			LRULen:   lruLen,
			InUseLen: inUseLen,
		}
		s.mu.Unlock()
	}
	return out
}
