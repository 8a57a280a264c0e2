package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"TradeYodha/internal/domain/models"
	"TradeYodha/internal/service/cache"
	"TradeYodha/internal/services/darkpool"
	"TradeYodha/internal/services/flow"
	"TradeYodha/internal/services/gaps"
	pkgcache "TradeYodha/pkg/cache"
	"TradeYodha/pkg/logger"
)

var testNow = time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)

type fakeProvider struct {
	configured bool
	chains     map[string][]models.OptionContractSnapshot
	chainErr   map[string]error
	hang       map[string]bool
	equities   map[string]models.EquitySnapshot
	equityErr  map[string]error // keyed by first ticker of the batch

	chainCalls  int32
	equityCalls int32
	inFlight    int32
	maxInFlight int32
	delay       time.Duration
}

func (p *fakeProvider) Configured() bool { return p.configured }

func (p *fakeProvider) OptionChain(ctx context.Context, ticker string) ([]models.OptionContractSnapshot, error) {
	atomic.AddInt32(&p.chainCalls, 1)
	n := atomic.AddInt32(&p.inFlight, 1)
	defer atomic.AddInt32(&p.inFlight, -1)
	for {
		m := atomic.LoadInt32(&p.maxInFlight)
		if n <= m || atomic.CompareAndSwapInt32(&p.maxInFlight, m, n) {
			break
		}
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, &models.UpstreamError{Op: "option_chain", Kind: models.ErrUpstreamTimeout, Err: ctx.Err()}
		}
	}
	if p.hang[ticker] {
		<-ctx.Done()
		return nil, &models.UpstreamError{Op: "option_chain", Kind: models.ErrUpstreamTimeout, Err: ctx.Err()}
	}
	if err := p.chainErr[ticker]; err != nil {
		return nil, err
	}
	return p.chains[ticker], nil
}

func (p *fakeProvider) EquitySnapshots(_ context.Context, tickers []string) ([]models.EquitySnapshot, error) {
	atomic.AddInt32(&p.equityCalls, 1)
	if len(tickers) > 0 {
		if err := p.equityErr[tickers[0]]; err != nil {
			return nil, err
		}
	}
	var out []models.EquitySnapshot
	for _, t := range tickers {
		if s, ok := p.equities[t]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakePrints struct {
	prints map[string][]models.DarkPoolPrint
	since  time.Time
	calls  int32
}

func (f *fakePrints) Prints(_ context.Context, ticker string, since time.Time, _ int) ([]models.DarkPoolPrint, error) {
	atomic.AddInt32(&f.calls, 1)
	f.since = since
	p, ok := f.prints[ticker]
	if !ok {
		return nil, &models.UpstreamError{Op: "prints", Kind: models.ErrUpstreamUnavailable, Err: errors.New("no data")}
	}
	return p, nil
}

type publishedEvent struct {
	kind, scope string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, kind, scope string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{kind, scope})
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

type fakeWatchlists struct {
	lists map[string][]string
	err   error
}

func (f *fakeWatchlists) Watchlist(_ context.Context, userID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.lists[userID], nil
}

func contract(ticker string, strike float64, typ models.ContractType, volume, oi int64, vwap float64) models.OptionContractSnapshot {
	c, err := models.NewOptionContractSnapshot(ticker, strike, time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), typ, volume, oi, vwap)
	if err != nil {
		panic(err)
	}
	return c
}

func newEngine(t *testing.T, p *fakeProvider, prints *fakePrints, pub *fakePublisher, universe []string) (*SignalEngine, *pkgcache.MemoryCache) {
	t.Helper()
	opts := []FetcherOption{WithCallTimeout(100 * time.Millisecond)}
	if prints != nil {
		opts = append(opts, WithPrintSource(prints, 100))
	}
	fetcher := NewSnapshotFetcher(p, logger.Nop(), opts...)
	store := pkgcache.NewMemoryCache()
	t.Cleanup(func() { _ = store.Close() })
	clock := func() time.Time { return testNow }
	eopts := []EngineOption{WithUniverse(universe), WithEngineClock(clock)}
	if pub != nil {
		eopts = append(eopts, WithPublisher(pub))
	}
	e := NewSignalEngine(fetcher,
		flow.New(flow.WithClock(clock)),
		darkpool.New(darkpool.WithClock(clock)),
		gaps.New(),
		cache.NewMemo(store),
		logger.Nop(),
		eopts...,
	)
	return e, store
}
