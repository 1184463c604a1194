package cache

import "encoding/binary"

// Namespace returns a function that prefixes a key with id, so that
// unrelated clients sharing one ShardedCache (each minting id via NewID)
// never collide on the same key. Mirrors how a block cache composes a
// (file, offset) key per caller namespace.
func Namespace(id uint64) func(key []byte) []byte {
	prefix := make([]byte, 8)
	binary.BigEndian.PutUint64(prefix, id)
	return func(key []byte) []byte {
		out := make([]byte, 8+len(key))
		copy(out, prefix)
		copy(out[8:], key)
		return out
	}
}
