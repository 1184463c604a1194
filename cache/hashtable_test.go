package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyBytes(n int) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

func TestHandleTable_LookupMiss(t *testing.T) {
	t.Parallel()
	tbl := newHandleTable[int]()
	assert.Nil(t, tbl.lookup(keyBytes(1), 1))
}

func TestHandleTable_InsertLookupRemove(t *testing.T) {
	t.Parallel()
	tbl := newHandleTable[int]()

	e := newEntry(keyBytes(42), 42, 100, 1, func([]byte, int) {})
	old := tbl.insert(e)
	assert.Nil(t, old)
	assert.Equal(t, uint32(1), tbl.elems)

	got := tbl.lookup(keyBytes(42), 42)
	require.NotNil(t, got)
	assert.Equal(t, 100, got.value)

	removed := tbl.remove(keyBytes(42), 42)
	require.NotNil(t, removed)
	assert.Equal(t, uint32(0), tbl.elems)
	assert.Nil(t, tbl.lookup(keyBytes(42), 42))
}

// Two keys with the same hash must not collide: insert is keyed on
// (hash, key-bytes), and the byte comparison discriminates between them.
func TestHandleTable_HashCollisionKeepsBothKeys(t *testing.T) {
	t.Parallel()
	tbl := newHandleTable[int]()

	a := newEntry([]byte("a"), 7, 1, 1, func([]byte, int) {})
	b := newEntry([]byte("b"), 7, 2, 1, func([]byte, int) {})
	tbl.insert(a)
	tbl.insert(b)

	assert.Equal(t, uint32(2), tbl.elems)
	gotA := tbl.lookup([]byte("a"), 7)
	gotB := tbl.lookup([]byte("b"), 7)
	require.NotNil(t, gotA)
	require.NotNil(t, gotB)
	assert.Equal(t, 1, gotA.value)
	assert.Equal(t, 2, gotB.value)
}

// insert of an equal (hash, key) replaces in place and returns the old
// entry (still intact, just unlinked) rather than destroying it.
func TestHandleTable_InsertReplaceReturnsOld(t *testing.T) {
	t.Parallel()
	tbl := newHandleTable[int]()

	first := newEntry(keyBytes(1), 1, 10, 1, func([]byte, int) {})
	tbl.insert(first)

	second := newEntry(keyBytes(1), 1, 20, 1, func([]byte, int) {})
	old := tbl.insert(second)
	require.NotNil(t, old)
	assert.Equal(t, 10, old.value)
	assert.Equal(t, uint32(1), tbl.elems)

	got := tbl.lookup(keyBytes(1), 1)
	require.NotNil(t, got)
	assert.Equal(t, 20, got.value)
}

// Growing past the "elems > length" threshold must preserve every entry
// and never shrink back down.
func TestHandleTable_ResizeGrowsAndPreservesEntries(t *testing.T) {
	t.Parallel()
	tbl := newHandleTable[int]()
	startLength := tbl.length

	const n = 200
	for i := 0; i < n; i++ {
		tbl.insert(newEntry(keyBytes(i), uint32(i), i, 1, func([]byte, int) {}))
	}

	assert.Equal(t, uint32(n), tbl.elems)
	assert.Greater(t, tbl.length, startLength)
	assert.True(t, isPow2(tbl.length))

	for i := 0; i < n; i++ {
		got := tbl.lookup(keyBytes(i), uint32(i))
		require.NotNilf(t, got, "key %d missing after resize", i)
		assert.Equal(t, i, got.value)
	}

	grownLength := tbl.length
	for i := 0; i < n/2; i++ {
		tbl.remove(keyBytes(i), uint32(i))
	}
	assert.Equal(t, uint32(n/2), tbl.elems)
	assert.Equal(t, grownLength, tbl.length, "table never shrinks after removals")
}

func isPow2(x uint32) bool { return x != 0 && x&(x-1) == 0 }
