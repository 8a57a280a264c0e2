package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeYodha/internal/domain/models"
	domrepo "TradeYodha/internal/domain/repository"
	"TradeYodha/internal/service/cache"
	"TradeYodha/internal/services/darkpool"
	"TradeYodha/internal/services/flow"
	"TradeYodha/internal/services/gaps"
	"TradeYodha/pkg/logger"
	"TradeYodha/pkg/util"

	"golang.org/x/sync/errgroup"
)

// Signal kinds, used as cache key prefixes and event kinds.
const (
	KindFlowSummary     = "flow_summary"
	KindOvernightGaps   = "overnight_gaps"
	KindDarkPoolSummary = "darkpool_summary"
)

// SignalEngine wires fetching, aggregation, caching and publishing for each
// signal endpoint.
type SignalEngine struct {
	fetcher   *SnapshotFetcher
	flow      *flow.Aggregator
	darkpool  *darkpool.Classifier
	gaps      *gaps.Ranker
	memo      *cache.Memo
	publisher domrepo.SignalPublisher
	universe  []string
	log       *logger.Logger
	metrics   domrepo.Metrics
	now       func() time.Time
}

type EngineOption func(*SignalEngine)

func WithPublisher(p domrepo.SignalPublisher) EngineOption {
	return func(e *SignalEngine) { e.publisher = p }
}

func WithUniverse(tickers []string) EngineOption {
	return func(e *SignalEngine) {
		if len(tickers) > 0 {
			e.universe = tickers
		}
	}
}

func WithEngineMetrics(m domrepo.Metrics) EngineOption {
	return func(e *SignalEngine) {
		if m != nil {
			e.metrics = m
		}
	}
}

func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *SignalEngine) { e.now = now }
}

func NewSignalEngine(fetcher *SnapshotFetcher, fa *flow.Aggregator, dc *darkpool.Classifier, gr *gaps.Ranker, memo *cache.Memo, log *logger.Logger, opts ...EngineOption) *SignalEngine {
	if log == nil {
		log = logger.Nop()
	}
	e := &SignalEngine{
		fetcher:  fetcher,
		flow:     fa,
		darkpool: dc,
		gaps:     gr,
		memo:     memo,
		universe: BuiltinWatchlist,
		log:      log.With(logger.String("component", "signal_engine")),
		metrics:  nopMetrics{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *SignalEngine) Configured() bool { return e.fetcher.Configured() }

func (e *SignalEngine) HasPrintSource() bool { return e.fetcher.HasPrintSource() }

// FlowSummary aggregates option flow for the scope. A result where every
// ticker degraded is returned but not cached.
func (e *SignalEngine) FlowSummary(ctx context.Context, scope Scope) (models.FlowSummary, error) {
	defer e.observe(KindFlowSummary, e.now())
	if !e.fetcher.Configured() {
		return models.FlowSummary{}, models.ErrNotConfigured
	}

	key := cache.Key(KindFlowSummary, scope.Label, scope.Tickers)
	out, _, err := cache.Do(ctx, e.memo, key, func(ctx context.Context) (models.FlowSummary, bool, error) {
		res, err := e.fetcher.FetchOptionChains(ctx, scope.Tickers)
		if err != nil {
			return models.FlowSummary{}, false, err
		}
		s := e.flow.Aggregate(scope.Tickers, res.ByTicker)
		s.Degraded = res.Degraded
		fresh := len(res.Degraded) < len(scope.Tickers)
		if fresh {
			e.publish(ctx, KindFlowSummary, scope.Label, s)
		}
		return s, fresh, nil
	})
	return out, err
}

// OvernightGaps ranks the scope's gaps and the top movers of the reference
// universe. The scope batch failing is an error; the universe failing only
// empties TopMovers.
func (e *SignalEngine) OvernightGaps(ctx context.Context, scope Scope, topK int) (models.GapReport, error) {
	defer e.observe(KindOvernightGaps, e.now())
	if !e.fetcher.Configured() {
		return models.GapReport{}, models.ErrNotConfigured
	}
	topK = e.gaps.ClampK(topK)

	key := cache.Key(KindOvernightGaps, scope.Label, scope.Tickers, fmt.Sprintf("k%d", topK))
	out, _, err := cache.Do(ctx, e.memo, key, func(ctx context.Context) (models.GapReport, bool, error) {
		var (
			primary, universe       []models.EquitySnapshot
			primaryErr, universeErr error
		)
		var g errgroup.Group
		g.Go(func() error {
			primary, primaryErr = e.fetcher.FetchEquities(ctx, "equity_watchlist", scope.Tickers)
			return nil
		})
		g.Go(func() error {
			universe, universeErr = e.fetcher.FetchEquities(ctx, "equity_universe", e.universe)
			return nil
		})
		_ = g.Wait()

		if primaryErr != nil {
			return models.GapReport{}, false, primaryErr
		}
		report := models.GapReport{
			WatchlistGaps: e.gaps.Rank(primary),
			TopMovers:     []models.GapRecord{},
		}
		if universeErr == nil {
			report.TopMovers = e.gaps.TopMovers(universe, topK)
			e.publish(ctx, KindOvernightGaps, scope.Label, report)
		}
		return report, universeErr == nil, nil
	})
	return out, err
}

// DarkPoolSummary classifies prints recorded within window for the scope.
func (e *SignalEngine) DarkPoolSummary(ctx context.Context, scope Scope, window time.Duration) (models.DarkPoolSummary, error) {
	defer e.observe(KindDarkPoolSummary, e.now())
	if !e.fetcher.HasPrintSource() {
		return models.DarkPoolSummary{}, models.ErrNotConfigured
	}

	key := cache.Key(KindDarkPoolSummary, scope.Label, scope.Tickers, window.String())
	out, _, err := cache.Do(ctx, e.memo, key, func(ctx context.Context) (models.DarkPoolSummary, bool, error) {
		res, err := e.fetcher.FetchPrints(ctx, scope.Tickers, util.WindowStart(e.now(), window))
		if err != nil {
			return models.DarkPoolSummary{}, false, err
		}
		var prints []models.DarkPoolPrint
		for _, t := range scope.Tickers {
			prints = append(prints, res.ByTicker[t]...)
		}
		s := e.darkpool.Summarize(scope.Label, scope.Tickers, prints)
		s.Degraded = res.Degraded
		fresh := len(res.Degraded) < len(scope.Tickers)
		if fresh {
			e.publish(ctx, KindDarkPoolSummary, scope.Label, s)
		}
		return s, fresh, nil
	})
	return out, err
}

// publish never fails the computation.
func (e *SignalEngine) publish(ctx context.Context, kind, scope string, payload interface{}) {
	if e.publisher == nil {
		return
	}
	err := e.publisher.Publish(ctx, kind, scope, payload)
	e.metrics.RecordPublish(kind, err == nil)
	if err != nil {
		e.log.Warn("signal publish failed", logger.String("kind", kind), logger.String("scope", scope), logger.Error(err))
	}
}

func (e *SignalEngine) observe(op string, start time.Time) {
	e.metrics.RecordLatency(op, e.now().Sub(start).Seconds())
}
