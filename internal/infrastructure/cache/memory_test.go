package cache

import (
	"context"
	"testing"
	"time"

	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value []byte
		ttl   time.Duration
	}{
		{
			name:  "store and retrieve catalog",
			key:   "catalog:1004247",
			value: []byte(`[{"name":"Ground Beef","price_display":"89.90 kr"}]`),
			ttl:   1 * time.Minute,
		},
		{
			name:  "store and retrieve empty value",
			key:   "catalog:empty",
			value: []byte{},
			ttl:   1 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, cache.Set(ctx, tt.key, tt.value, tt.ttl))

			got, err := cache.Get(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, string(tt.value), string(got))
		})
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short-ttl", []byte("expires-soon"), 1*time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err := cache.Get(ctx, "short-ttl")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	exists, err := cache.Exists(ctx, "short-ttl")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	value := []byte("original")
	require.NoError(t, cache.Set(ctx, "key", value, time.Minute))
	value[0] = 'X'

	got, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	got[0] = 'Y'
	again, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "original", string(again))
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()

	_, err := cache.Get(context.Background(), "non-existent-key")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	key := "delete-test"
	require.NoError(t, cache.Set(ctx, key, []byte("value"), 1*time.Minute))

	_, err := cache.Get(ctx, key)
	require.NoError(t, err)

	assert.NoError(t, cache.Delete(ctx, key))

	_, err = cache.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_Exists(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	exists, err := cache.Exists(ctx, "exists-test")
	require.NoError(t, err)
	assert.False(t, exists, "key should not exist initially")

	require.NoError(t, cache.Set(ctx, "exists-test", []byte("value"), 1*time.Minute))

	exists, err = cache.Exists(ctx, "exists-test")
	require.NoError(t, err)
	assert.True(t, exists, "key should exist after setting value")
}

func TestMemoryCache_Size(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	assert.Equal(t, 0, cache.Size())

	for i := 0; i < 5; i++ {
		key := string(rune('a' + i))
		require.NoError(t, cache.Set(ctx, key, []byte{byte(i)}, 1*time.Minute))
	}
	assert.Equal(t, 5, cache.Size())

	require.NoError(t, cache.Delete(ctx, "a"))
	assert.Equal(t, 4, cache.Size())
}

func TestMemoryCache_EvictExpired(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stale", []byte("1"), time.Millisecond))
	require.NoError(t, cache.Set(ctx, "fresh", []byte("2"), time.Hour))

	cache.evictExpired(time.Now().Add(time.Second))

	assert.Equal(t, 1, cache.Size())
	exists, err := cache.Exists(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryCache_CleanupLoop(t *testing.T) {
	cache := newMemoryCache(5 * time.Millisecond)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stale", []byte("1"), time.Millisecond))

	assert.Eventually(t, func() bool { return cache.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMemoryCache_CloseTwice(t *testing.T) {
	cache := NewMemoryCache()
	cache.Close()
	assert.NotPanics(t, cache.Close)
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			key := string(rune('a' + id))
			if err := cache.Set(ctx, key, []byte{byte(id)}, 1*time.Minute); err != nil {
				t.Errorf("Concurrent Set() error = %v", err)
			}
			if _, err := cache.Get(ctx, key); err != nil {
				t.Errorf("Concurrent Get() error = %v", err)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
