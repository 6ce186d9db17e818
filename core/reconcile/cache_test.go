package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLoader(calls *int32, delay time.Duration) IndexLoader {
	return IndexLoaderFunc(func(ctx context.Context, ownerID string) (*Known, error) {
		atomic.AddInt32(calls, 1)
		time.Sleep(delay)
		return &Known{Artists: []*Artist{{ID: ownerID, Name: ownerID}}}, nil
	})
}

func TestIndexCache_HitWithinTTL(t *testing.T) {
	var calls int32
	cache := NewIndexCache(countingLoader(&calls, 0), time.Minute)

	first, err := cache.Get(context.Background(), "srv")
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "srv")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = cache.Get(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIndexCache_ZeroTTLAlwaysLoads(t *testing.T) {
	var calls int32
	cache := NewIndexCache(countingLoader(&calls, 0), 0)

	for i := 0; i < 3; i++ {
		_, err := cache.Get(context.Background(), "srv")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestIndexCache_Invalidate(t *testing.T) {
	var calls int32
	cache := NewIndexCache(countingLoader(&calls, 0), time.Minute)

	_, _ = cache.Get(context.Background(), "srv")
	cache.Invalidate("srv")
	_, _ = cache.Get(context.Background(), "srv")

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIndexCache_SharesConcurrentLoads(t *testing.T) {
	var calls int32
	cache := NewIndexCache(countingLoader(&calls, 50*time.Millisecond), time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(context.Background(), "srv")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIndexCache_ErrorNotCached(t *testing.T) {
	loadErr := errors.New("db down")
	fail := true
	cache := NewIndexCache(IndexLoaderFunc(func(ctx context.Context, ownerID string) (*Known, error) {
		if fail {
			return nil, loadErr
		}
		return &Known{}, nil
	}), time.Minute)

	_, err := cache.Get(context.Background(), "srv")
	assert.ErrorIs(t, err, loadErr)

	fail = false
	known, err := cache.Get(context.Background(), "srv")
	require.NoError(t, err)
	assert.NotNil(t, known)
}
