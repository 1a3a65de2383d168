package token

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rider = "rider@example.com"

func newTestCache() *Cache {
	return NewCache(NewMemoryStore(), zerolog.Nop())
}

func TestCache_FindAtLeast(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache()
	require.NoError(t, cache.Put(ctx, &Entry{
		PrincipalKey: rider,
		Token:        "abc",
		Scopes:       []Scope{ScopeRead, ScopeActivityRead},
	}))

	entry, err := cache.FindAtLeast(ctx, rider, ScopeRead)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "abc", entry.Token)
	assert.False(t, entry.CachedAt.IsZero())

	entry, err = cache.FindAtLeast(ctx, rider, ScopeActivityRead, ScopeRead)
	require.NoError(t, err)
	assert.NotNil(t, entry, "equal sets satisfy at-least")

	entry, err = cache.FindAtLeast(ctx, rider, ScopeActivityWrite)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCache_FindExact(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache()
	require.NoError(t, cache.Put(ctx, &Entry{
		PrincipalKey: rider,
		Token:        "abc",
		Scopes:       []Scope{ScopeRead, ScopeActivityRead},
	}))

	entry, err := cache.FindExact(ctx, rider, ScopeActivityRead, ScopeRead)
	require.NoError(t, err)
	assert.NotNil(t, entry)

	entry, err = cache.FindExact(ctx, rider, ScopeRead)
	require.NoError(t, err)
	assert.Nil(t, entry, "subset is not an exact match")
}

func TestCache_AbsentPrincipal(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache()

	for _, match := range []Match{MatchAtLeast, MatchExact} {
		entry, err := cache.Find(ctx, "nobody@example.com", nil, match)
		require.NoError(t, err)
		assert.Nil(t, entry)
	}
}

func TestCache_NewestWriteWins(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache()

	require.NoError(t, cache.Put(ctx, &Entry{PrincipalKey: rider, Token: "old", Scopes: []Scope{ScopeRead}}))
	require.NoError(t, cache.Put(ctx, &Entry{PrincipalKey: "Rider@Example.com", Token: "new", Scopes: []Scope{ScopeReadAll}}))

	entry, err := cache.FindExact(ctx, rider, ScopeReadAll)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "new", entry.Token)

	entry, err = cache.FindAtLeast(ctx, rider, ScopeRead)
	require.NoError(t, err)
	assert.Nil(t, entry, "the replaced entry's scopes are gone")
}

func TestCache_Revoke(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cache := NewCache(store, zerolog.Nop())

	entry := &Entry{PrincipalKey: rider, Token: "abc", Scopes: []Scope{ScopeRead}}
	require.NoError(t, cache.Put(ctx, entry))
	require.NoError(t, cache.Put(ctx, &Entry{PrincipalKey: "other@example.com", Token: "xyz"}))

	require.NoError(t, cache.Revoke(ctx, entry))
	assert.Equal(t, 1, store.Len())

	found, err := cache.FindAtLeast(ctx, rider)
	require.NoError(t, err)
	assert.Nil(t, found)

	assert.NoError(t, cache.Revoke(ctx, entry), "revoking twice is harmless")
	assert.NoError(t, cache.Revoke(ctx, nil))
}

func TestCache_Put_Invalid(t *testing.T) {
	cache := newTestCache()
	assert.Error(t, cache.Put(context.Background(), nil))
	assert.Error(t, cache.Put(context.Background(), &Entry{Token: "abc"}))
}

func TestCache_StoredEntryIsCopied(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache()
	scopes := []Scope{ScopeRead}
	require.NoError(t, cache.Put(ctx, &Entry{PrincipalKey: rider, Scopes: scopes}))

	scopes[0] = ScopeActivityWrite

	entry, err := cache.FindExact(ctx, rider, ScopeRead)
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (*Entry, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Put(context.Context, *Entry) error { return errors.New("connection refused") }

func (failingStore) Delete(context.Context, string) error { return errors.New("connection refused") }

func TestCache_StoreErrorPropagates(t *testing.T) {
	cache := NewCache(failingStore{}, zerolog.Nop())

	_, err := cache.FindAtLeast(context.Background(), rider)
	assert.Error(t, err)
	assert.Error(t, cache.Put(context.Background(), &Entry{PrincipalKey: rider}))
	assert.Error(t, cache.Revoke(context.Background(), &Entry{PrincipalKey: rider}))
}

func TestCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry := &Entry{PrincipalKey: rider, Token: "t", Scopes: []Scope{ScopeRead}}
			_ = cache.Put(ctx, entry)
			_, _ = cache.FindAtLeast(ctx, rider, ScopeRead)
			if i%5 == 0 {
				_ = cache.Revoke(ctx, entry)
			}
		}(i)
	}
	wg.Wait()
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
