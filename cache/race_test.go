package cache

import (
	"context"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

// TestShardedCache_ConcurrentWorkload drives a mixed Insert/Lookup/Release/
// Erase workload across many goroutines and shards. It asserts nothing
// about final state; its only job is to come up clean under `go test
// -race`, exercising every shard's ref-counting and list invariants under
// contention.
func TestShardedCache_ConcurrentWorkload(t *testing.T) {
	c := New[int](Options[int]{Capacity: 512})

	const workers = 32
	const opsPerWorker = 2000

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < opsPerWorker; i++ {
				key := keyBytes((w*opsPerWorker + i) % 128)
				switch i % 4 {
				case 0:
					h := c.Insert(key, i, 1, noopDeleter[int]())
					c.Release(h)
				case 1:
					if h, ok := c.Lookup(key); ok {
						_ = c.Value(h)
						c.Release(h)
					}
				case 2:
					c.Erase(key)
				case 3:
					c.TotalCharge()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	c.Prune()
}

// TestShardedCache_ConcurrentLoadOrInsert exercises the singleflight
// coalescing path: many goroutines race to load the same missing key, each
// must end up with its own independently releasable handle, and the loader
// must not run more than once per miss "generation".
func TestShardedCache_ConcurrentLoadOrInsert(t *testing.T) {
	c := New[int](Options[int]{Capacity: 64})

	var loads atomic.Int64
	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			h, err := c.LoadOrInsert(k("shared"), func() (int, uint64, Deleter[int], error) {
				loads.Add(1)
				return 7, 1, noopDeleter[int](), nil
			})
			if err != nil {
				return err
			}
			c.Release(h)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := loads.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want exactly 1", got)
	}
}
