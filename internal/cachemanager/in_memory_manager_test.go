package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type listing struct {
	Names []string
}

func TestNewSessionCache_StoresStructValues(t *testing.T) {
	cache := NewSessionCache[string, listing]("pages")
	want := listing{Names: []string{"cmd", "main.go"}}

	cache.Set(context.Background(), "o/r/main/", want, NoExpiration)

	got, ok := cache.Get(context.Background(), "o/r/main/")
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_Miss(t *testing.T) {
	cache := NewSessionCache[string, string]("pages")

	got, ok := cache.Get(context.Background(), "o/r/main/missing")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_WrongTypeIsAMiss(t *testing.T) {
	cache := NewSessionCache[string, string]("pages")
	cache.cache.Set("k", 123, NoExpiration)

	got, ok := cache.Get(context.Background(), "k")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("short", 10*time.Millisecond, NoCleanup)
	cache.Set(context.Background(), "k", "v", DefaultExpiration)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	ctx := context.Background()
	cache := NewSessionCache[string, string]("payloads")
	cache.Set(ctx, "a", "1", NoExpiration)
	cache.Set(ctx, "b", "2", NoExpiration)

	require.NoError(t, cache.Delete(ctx))
	require.NoError(t, cache.Delete(ctx, "a"))
	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)

	require.NoError(t, cache.Flush(ctx))
	require.Equal(t, 0, cache.Len())
}
