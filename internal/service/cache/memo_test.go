package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgcache "TradeYodha/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Tickers []string `json:"tickers"`
	Total   float64  `json:"total"`
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (brokenStore) Delete(context.Context, ...string) error { return nil }
func (brokenStore) Close() error                            { return nil }

func TestKeyIgnoresTickerOrder(t *testing.T) {
	a := Key("flow", "custom", []string{"QQQ", "SPY", "AAPL"})
	b := Key("flow", "custom", []string{"AAPL", "SPY", "QQQ"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, Key("darkpool", "custom", []string{"SPY"}, "1h"), Key("darkpool", "custom", []string{"SPY"}, "4h"))
}

func TestDoCachesCacheableResults(t *testing.T) {
	store := pkgcache.NewMemoryCache()
	defer store.Close()
	m := NewMemo(store)
	ctx := context.Background()

	var calls int32
	compute := func(context.Context) (payload, bool, error) {
		atomic.AddInt32(&calls, 1)
		return payload{Tickers: []string{"SPY"}, Total: 250_000}, true, nil
	}

	first, hit, err := Do(ctx, m, "k", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	second, hit, err := Do(ctx, m, "k", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoSkipsUncacheableAndErrors(t *testing.T) {
	store := pkgcache.NewMemoryCache()
	defer store.Close()
	m := NewMemo(store)
	ctx := context.Background()

	_, _, _ = Do(ctx, m, "degraded", func(context.Context) (payload, bool, error) { return payload{}, false, nil })
	_, err := store.Get(ctx, "degraded")
	assert.ErrorIs(t, err, pkgcache.ErrCacheMiss)

	boom := errors.New("boom")
	_, _, err = Do(ctx, m, "failed", func(context.Context) (payload, bool, error) { return payload{}, true, boom })
	assert.ErrorIs(t, err, boom)
	_, err = store.Get(ctx, "failed")
	assert.ErrorIs(t, err, pkgcache.ErrCacheMiss)
}

func TestDoCollapsesConcurrentMisses(t *testing.T) {
	store := pkgcache.NewMemoryCache()
	defer store.Close()
	m := NewMemo(store)

	var calls int32
	release := make(chan struct{})
	compute := func(context.Context) (payload, bool, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return payload{Total: 1}, true, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := Do(context.Background(), m, "same", compute)
			assert.NoError(t, err)
			assert.Equal(t, 1.0, v.Total)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoSurvivesBrokenStore(t *testing.T) {
	m := NewMemo(brokenStore{})
	v, hit, err := Do(context.Background(), m, "k", func(context.Context) (payload, bool, error) {
		return payload{Total: 7}, true, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7.0, v.Total)
}

func TestDoSharedComputeOutlivesFirstCaller(t *testing.T) {
	store := pkgcache.NewMemoryCache()
	defer store.Close()
	m := NewMemo(store)

	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) (payload, bool, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return payload{}, false, ctx.Err()
		}
		return payload{Total: 250_000}, true, nil
	}

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := Do(first, m, "flow", compute)
		firstErr <- err
	}()
	<-started

	second := make(chan payload, 1)
	go func() {
		v, _, err := Do(context.Background(), m, "flow", compute)
		assert.NoError(t, err)
		second <- v
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, 250_000.0, (<-second).Total)

	b, err := store.Get(context.Background(), "flow")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tickers":null,"total":250000}`, string(b))
}

func TestDoComputeTimeoutBoundsSharedWork(t *testing.T) {
	store := pkgcache.NewMemoryCache()
	defer store.Close()
	m := NewMemo(store, WithComputeTimeout(20*time.Millisecond))
	_, _, err := Do(context.Background(), m, "slow", func(ctx context.Context) (payload, bool, error) {
		<-ctx.Done()
		return payload{}, false, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
