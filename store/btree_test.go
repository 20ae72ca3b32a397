package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/vault/errors"
)

func makeBase() CacheableKVStore {
	return MemStore()
}

func setKV(t *testing.T, kv KVStore, key, value []byte) {
	t.Helper()
	require.NoError(t, kv.Set(key, value))
}

func getKV(t *testing.T, kv ReadOnlyKVStore, key []byte) []byte {
	t.Helper()
	value, err := kv.Get(key)
	require.NoError(t, err)
	return value
}

func hasKV(t *testing.T, kv ReadOnlyKVStore, key []byte) bool {
	t.Helper()
	ok, err := kv.Has(key)
	require.NoError(t, err)
	return ok
}

func TestBTreeCacheGetSet(t *testing.T) {
	base := makeBase()

	k, v := []byte("french"), []byte("fry")
	assert.Nil(t, getKV(t, base, k))
	assert.False(t, hasKV(t, base, k))

	setKV(t, base, k, v)
	assert.Equal(t, v, getKV(t, base, k))
	assert.True(t, hasKV(t, base, k))

	// now layer a cache on top
	cache := base.CacheWrap()
	assert.Equal(t, v, getKV(t, cache, k))

	k2, v2 := []byte("LA"), []byte("Dodgers")
	setKV(t, cache, k2, v2)
	assert.Equal(t, v2, getKV(t, cache, k2))
	// cached write must not leak to the base before Write
	assert.Nil(t, getKV(t, base, k2))

	require.NoError(t, cache.Write())
	assert.Equal(t, v2, getKV(t, base, k2))
}

func TestBTreeCacheDiscard(t *testing.T) {
	base := makeBase()
	k, v := []byte("french"), []byte("fry")
	setKV(t, base, k, v)

	cache := base.CacheWrap()
	k2 := []byte("burger")
	setKV(t, cache, k2, []byte("bacon"))
	require.NoError(t, cache.Delete(k))

	assert.Nil(t, getKV(t, cache, k))
	assert.False(t, hasKV(t, cache, k))

	cache.Discard()

	// base still intact after discard
	assert.Equal(t, v, getKV(t, base, k))
	assert.Nil(t, getKV(t, base, k2))
}

func TestBTreeCacheDeleteShadowsParent(t *testing.T) {
	base := makeBase()
	k := []byte("gone")
	setKV(t, base, k, []byte("soon"))

	cache := base.CacheWrap()
	require.NoError(t, cache.Delete(k))
	assert.Nil(t, getKV(t, cache, k))

	require.NoError(t, cache.Write())
	assert.Nil(t, getKV(t, base, k))
	assert.False(t, hasKV(t, base, k))
}

func collect(t *testing.T, iter Iterator) []Model {
	t.Helper()
	defer iter.Release()

	var ms []Model
	for {
		key, value, err := iter.Next()
		if errors.ErrIteratorDone.Is(err) {
			return ms
		}
		require.NoError(t, err)
		ms = append(ms, Model{Key: key, Value: value})
	}
}

func TestBTreeCacheIterator(t *testing.T) {
	base := makeBase()
	setKV(t, base, []byte("a"), []byte{1})
	setKV(t, base, []byte("c"), []byte{3})

	cache := base.CacheWrap()
	setKV(t, cache, []byte("b"), []byte{2})
	// overwrite shadows the base value
	setKV(t, cache, []byte("c"), []byte{33})
	// deleted in cache, must not show up
	require.NoError(t, cache.Delete([]byte("a")))
	setKV(t, cache, []byte("d"), []byte{4})

	iter, err := cache.Iterator(nil, nil)
	require.NoError(t, err)
	got := collect(t, iter)

	want := []Model{
		{Key: []byte("b"), Value: []byte{2}},
		{Key: []byte("c"), Value: []byte{33}},
		{Key: []byte("d"), Value: []byte{4}},
	}
	assert.Equal(t, want, got)
}

func TestBTreeCacheReverseIterator(t *testing.T) {
	base := makeBase()
	setKV(t, base, []byte("a"), []byte{1})
	setKV(t, base, []byte("b"), []byte{2})

	cache := base.CacheWrap()
	setKV(t, cache, []byte("c"), []byte{3})

	iter, err := cache.ReverseIterator(nil, nil)
	require.NoError(t, err)
	got := collect(t, iter)

	want := []Model{
		{Key: []byte("c"), Value: []byte{3}},
		{Key: []byte("b"), Value: []byte{2}},
		{Key: []byte("a"), Value: []byte{1}},
	}
	assert.Equal(t, want, got)
}

func TestBTreeCacheIteratorRange(t *testing.T) {
	base := makeBase()
	for _, k := range []string{"a", "b", "c", "d"} {
		setKV(t, base, []byte(k), []byte(k))
	}

	iter, err := base.Iterator([]byte("b"), []byte("d"))
	require.NoError(t, err)
	got := collect(t, iter)

	// end is exclusive
	want := []Model{
		{Key: []byte("b"), Value: []byte("b")},
		{Key: []byte("c"), Value: []byte("c")},
	}
	assert.Equal(t, want, got)
}

func TestNestedCacheWrap(t *testing.T) {
	base := makeBase()
	setKV(t, base, []byte("one"), []byte{1})

	outer := base.CacheWrap()
	setKV(t, outer, []byte("two"), []byte{2})

	inner := outer.CacheWrap()
	setKV(t, inner, []byte("three"), []byte{3})

	assert.Equal(t, []byte{1}, getKV(t, inner, []byte("one")))
	assert.Equal(t, []byte{2}, getKV(t, inner, []byte("two")))

	require.NoError(t, inner.Write())
	assert.Equal(t, []byte{3}, getKV(t, outer, []byte("three")))
	assert.Nil(t, getKV(t, base, []byte("three")))

	require.NoError(t, outer.Write())
	assert.Equal(t, []byte{3}, getKV(t, base, []byte("three")))
	assert.Equal(t, []byte{2}, getKV(t, base, []byte("two")))
}
