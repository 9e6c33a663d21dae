package cachemanager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadThroughCache_MissThenHit(t *testing.T) {
	ctx := context.Background()
	rt := NewReadThroughCache[string, string](NewSessionCache[string, string]("t"), NoExpiration)

	var calls int
	load := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	got, outcome, err := rt.Get(ctx, "k", load)
	require.NoError(t, err)
	require.Equal(t, "value", got)
	require.Equal(t, Loaded, outcome)

	got, outcome, err = rt.Get(ctx, "k", load)
	require.NoError(t, err)
	require.Equal(t, "value", got)
	require.Equal(t, Hit, outcome)
	require.Equal(t, 1, calls)
	require.Equal(t, Stats{Hits: 1, Loads: 1}, rt.Stats())
}

func TestReadThroughCache_ConcurrentMissesShareOneLoad(t *testing.T) {
	ctx := context.Background()
	rt := NewReadThroughCache[string, int](NewSessionCache[string, int]("t"), NoExpiration)

	const callers = 8
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	load := func(context.Context) (int, error) {
		calls.Add(1)
		once.Do(func() { close(started) })
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, callers)
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, _, _ := rt.Get(ctx, "k", load)
		results[0] = v
	}()
	<-started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, _ := rt.Get(ctx, "k", load)
			results[i] = v
		}(i)
	}

	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		require.Equal(t, 42, v)
	}
}

func TestReadThroughCache_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	rt := NewReadThroughCache[string, string](NewSessionCache[string, string]("t"), NoExpiration)
	boom := errors.New("rate limited")

	_, outcome, err := rt.Get(ctx, "k", func(context.Context) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, Loaded, outcome)

	_, ok := rt.Peek(ctx, "k")
	require.False(t, ok)

	got, outcome, err := rt.Get(ctx, "k", func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, Loaded, outcome)
	require.Equal(t, uint64(1), rt.Stats().Errors)
}

func TestReadThroughCache_LoadSurvivesCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rt := NewReadThroughCache[string, string](NewSessionCache[string, string]("t"), NoExpiration)

	got, _, err := rt.Get(ctx, "k", func(loadCtx context.Context) (string, error) {
		return "v", loadCtx.Err()
	})
	require.NoError(t, err)
	require.Equal(t, "v", got)
}

func TestReadThroughCache_Forget(t *testing.T) {
	ctx := context.Background()
	rt := NewReadThroughCache[string, string](NewSessionCache[string, string]("t"), NoExpiration)

	_, _, err := rt.Get(ctx, "k", func(context.Context) (string, error) { return "old", nil })
	require.NoError(t, err)

	rt.Forget(ctx, "k")

	got, outcome, err := rt.Get(ctx, "k", func(context.Context) (string, error) { return "new", nil })
	require.NoError(t, err)
	require.Equal(t, "new", got)
	require.Equal(t, Loaded, outcome)
}

func TestReadThroughCache_StoreSkipsLoader(t *testing.T) {
	ctx := context.Background()
	rt := NewReadThroughCache[string, string](NewSessionCache[string, string]("t"), NoExpiration)

	rt.Store(ctx, "k", "stored")

	got, outcome, err := rt.Get(ctx, "k", func(context.Context) (string, error) {
		return "", errors.New("loader must not run")
	})
	require.NoError(t, err)
	require.Equal(t, "stored", got)
	require.Equal(t, Hit, outcome)
}
