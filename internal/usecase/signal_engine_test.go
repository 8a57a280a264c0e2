package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradeYodha/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spyProvider() *fakeProvider {
	return &fakeProvider{
		configured: true,
		chains: map[string][]models.OptionContractSnapshot{
			"SPY": {contract("SPY", 450, models.Call, 1000, 200, 2.5)},
		},
	}
}

func TestFlowSummarySingleCall(t *testing.T) {
	pub := &fakePublisher{}
	e, _ := newEngine(t, spyProvider(), nil, pub, nil)

	got, err := e.FlowSummary(context.Background(), Scope{Label: "SPY", Tickers: []string{"SPY"}})
	require.NoError(t, err)

	assert.Equal(t, 250000.0, got.TotalPremium)
	assert.Equal(t, float64(models.RatioSentinel), got.CallPutRatio)
	assert.Equal(t, models.DirectionBullish, got.NetDirection)
	assert.Equal(t, 1, got.SweepCount)
	assert.Equal(t, 1, got.UnusualCount)
	assert.Empty(t, got.Degraded)
	assert.Equal(t, []publishedEvent{{KindFlowSummary, "SPY"}}, pub.events)
}

func TestFlowSummaryCacheHitSkipsUpstream(t *testing.T) {
	p := spyProvider()
	pub := &fakePublisher{}
	e, _ := newEngine(t, p, nil, pub, nil)
	scope := Scope{Label: "SPY", Tickers: []string{"SPY"}}

	first, err := e.FlowSummary(context.Background(), scope)
	require.NoError(t, err)
	second, err := e.FlowSummary(context.Background(), scope)
	require.NoError(t, err)

	assert.Equal(t, int32(1), p.chainCalls)
	assert.Equal(t, first.TotalPremium, second.TotalPremium)
	assert.Equal(t, first.TopTrades, second.TopTrades)
	assert.Len(t, pub.events, 1)
}

func TestFlowSummaryPartialFailure(t *testing.T) {
	p := spyProvider()
	p.chainErr = map[string]error{"QQQ": &models.UpstreamError{Op: "option_chain", Status: 503, Kind: models.ErrUpstreamUnavailable, Err: errors.New("Service Unavailable")}}
	e, _ := newEngine(t, p, nil, nil, nil)

	got, err := e.FlowSummary(context.Background(), Scope{Label: "custom", Tickers: []string{"SPY", "QQQ"}})
	require.NoError(t, err)
	assert.Equal(t, 250000.0, got.TotalPremium)
	assert.Equal(t, []string{"QQQ"}, got.Degraded)
	assert.Equal(t, []string{"SPY", "QQQ"}, got.Tickers)
}

func TestFlowSummaryAllDegradedNotCached(t *testing.T) {
	p := &fakeProvider{configured: true, chainErr: map[string]error{
		"SPY": &models.UpstreamError{Op: "option_chain", Kind: models.ErrUpstreamTimeout, Err: context.DeadlineExceeded},
	}}
	pub := &fakePublisher{}
	e, store := newEngine(t, p, nil, pub, nil)
	scope := Scope{Label: "SPY", Tickers: []string{"SPY"}}

	for i := 0; i < 2; i++ {
		got, err := e.FlowSummary(context.Background(), scope)
		require.NoError(t, err)
		assert.Equal(t, models.DirectionNeutral, got.NetDirection)
		assert.Equal(t, []string{"SPY"}, got.Degraded)
	}
	assert.Equal(t, int32(2), p.chainCalls)
	assert.Zero(t, store.Len())
	assert.Empty(t, pub.events)
}

func TestFlowSummaryNotConfigured(t *testing.T) {
	p := &fakeProvider{}
	e, _ := newEngine(t, p, nil, nil, nil)

	_, err := e.FlowSummary(context.Background(), Scope{Label: "SPY", Tickers: []string{"SPY"}})
	assert.ErrorIs(t, err, models.ErrNotConfigured)
	assert.Zero(t, p.chainCalls)
}

func TestPublishFailureDoesNotFailSignal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	e, _ := newEngine(t, spyProvider(), nil, pub, nil)

	got, err := e.FlowSummary(context.Background(), Scope{Label: "SPY", Tickers: []string{"SPY"}})
	require.NoError(t, err)
	assert.Equal(t, 250000.0, got.TotalPremium)
	assert.Len(t, pub.events, 1)
}

func gapProvider() *fakeProvider {
	return &fakeProvider{
		configured: true,
		equities: map[string]models.EquitySnapshot{
			"AAPL": {Ticker: "AAPL", LastPrice: 105, PrevClose: 100, Volume: 1000},
			"MSFT": {Ticker: "MSFT", LastPrice: 99, PrevClose: 100, Volume: 1000},
			"TSLA": {Ticker: "TSLA", LastPrice: 90, PrevClose: 100, Volume: 1000},
			"NVDA": {Ticker: "NVDA", LastPrice: 102, PrevClose: 100, Volume: 1000},
		},
	}
}

func TestOvernightGaps(t *testing.T) {
	p := gapProvider()
	e, _ := newEngine(t, p, nil, nil, []string{"TSLA", "NVDA"})

	got, err := e.OvernightGaps(context.Background(), Scope{Label: "custom", Tickers: []string{"MSFT", "AAPL"}}, 1)
	require.NoError(t, err)

	require.Len(t, got.WatchlistGaps, 2)
	assert.Equal(t, "AAPL", got.WatchlistGaps[0].Ticker)
	assert.Equal(t, "MSFT", got.WatchlistGaps[1].Ticker)
	require.Len(t, got.TopMovers, 1)
	assert.Equal(t, "TSLA", got.TopMovers[0].Ticker)
	assert.Equal(t, models.GapDown, got.TopMovers[0].Direction)
}

func TestOvernightGapsPrimaryFailure(t *testing.T) {
	p := gapProvider()
	p.equityErr = map[string]error{"AAPL": &models.UpstreamError{Op: "equity_snapshots", Status: 500, Kind: models.ErrUpstreamUnavailable, Err: errors.New("Internal Server Error")}}
	e, _ := newEngine(t, p, nil, nil, []string{"TSLA"})

	_, err := e.OvernightGaps(context.Background(), Scope{Label: "AAPL", Tickers: []string{"AAPL"}}, 5)
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}

func TestOvernightGapsUniverseFailure(t *testing.T) {
	p := gapProvider()
	p.equityErr = map[string]error{"TSLA": &models.UpstreamError{Op: "equity_snapshots", Kind: models.ErrUpstreamTimeout, Err: context.DeadlineExceeded}}
	e, store := newEngine(t, p, nil, nil, []string{"TSLA", "NVDA"})
	scope := Scope{Label: "AAPL", Tickers: []string{"AAPL"}}

	got, err := e.OvernightGaps(context.Background(), scope, 5)
	require.NoError(t, err)
	require.Len(t, got.WatchlistGaps, 1)
	assert.NotNil(t, got.TopMovers)
	assert.Empty(t, got.TopMovers)
	assert.Zero(t, store.Len())

	_, err = e.OvernightGaps(context.Background(), scope, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(4), p.equityCalls)
}

func TestOvernightGapsClampsK(t *testing.T) {
	p := gapProvider()
	e, _ := newEngine(t, p, nil, nil, []string{"AAPL", "MSFT", "TSLA", "NVDA"})

	got, err := e.OvernightGaps(context.Background(), Scope{Label: "AAPL", Tickers: []string{"AAPL"}}, 0)
	require.NoError(t, err)
	assert.Len(t, got.TopMovers, 4)
}

func TestDarkPoolSummary(t *testing.T) {
	mk := func(ticker string, price float64, size int64) models.DarkPoolPrint {
		p, err := models.NewDarkPoolPrint(ticker, price, size, testNow.Add(-time.Hour), price-0.02, price-0.01)
		require.NoError(t, err)
		return p
	}
	prints := &fakePrints{prints: map[string][]models.DarkPoolPrint{
		"SPY": {mk("SPY", 500, 30_000)},
		"QQQ": {mk("QQQ", 400, 500)},
	}}
	e, _ := newEngine(t, &fakeProvider{}, prints, nil, nil)

	got, err := e.DarkPoolSummary(context.Background(), Scope{Label: "market", Tickers: []string{"SPY", "QQQ", "IWM"}}, 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 2, got.PrintCount)
	assert.InDelta(t, 15_200_000, got.TotalValue, 1e-6)
	assert.Equal(t, []string{"IWM"}, got.Degraded)
	assert.Equal(t, testNow.Add(-24*time.Hour), prints.since)
	require.NotNil(t, got.LargestPrint)
	assert.Equal(t, models.Bullish, got.LargestPrint.Side)
}

func TestDarkPoolSummaryWithoutSource(t *testing.T) {
	e, _ := newEngine(t, spyProvider(), nil, nil, nil)
	assert.False(t, e.HasPrintSource())
	_, err := e.DarkPoolSummary(context.Background(), Scope{Label: "SPY", Tickers: []string{"SPY"}}, time.Hour)
	assert.ErrorIs(t, err, models.ErrNotConfigured)
}

func TestFlowSummaryWaiterUnaffectedByCancelledLeader(t *testing.T) {
	p := spyProvider()
	p.delay = 60 * time.Millisecond
	e, _ := newEngine(t, p, nil, nil, nil)
	scope := Scope{Label: "SPY", Tickers: []string{"SPY"}}

	leader, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := e.FlowSummary(leader, scope)
		leaderErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	type result struct {
		got models.FlowSummary
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		got, err := e.FlowSummary(context.Background(), scope)
		waiter <- result{got, err}
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	res := <-waiter
	require.NoError(t, res.err)
	assert.Equal(t, 250000.0, res.got.CallPremium)
	assert.Empty(t, res.got.Degraded)
	assert.Equal(t, int32(1), p.chainCalls)
}
