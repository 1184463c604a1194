// Package xhash provides the default 32-bit hash function the cache uses
// to route keys to shards and hash table buckets.
//
// The cache treats the hash as a pure function of the key bytes (see
// cache.Options.Hash to supply a different one); the only requirement is
// good distribution across both the high bits (shard routing) and the low
// bits (bucket routing within a shard), since those two index spaces are
// deliberately disjoint.
package xhash

import "github.com/spaolacci/murmur3"

// Sum32 hashes key using 32-bit Murmur3. It is allocation-free and has no
// observable seed, matching the pure-function contract the cache expects
// from its hash collaborator.
func Sum32(key []byte) uint32 {
	return murmur3.Sum32(key)
}
