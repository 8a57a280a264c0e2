package usecase

import (
	"context"
	"sort"
	"time"

	"TradeYodha/internal/domain/models"
	domrepo "TradeYodha/internal/domain/repository"
	"TradeYodha/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxInFlight = 8
	DefaultCallTimeout = 10 * time.Second
	DefaultPrintLimit  = 5000
)

// FetchResult holds per-ticker results of one fan-out. Degraded lists, sorted,
// the tickers whose call failed and were replaced by an empty list.
type FetchResult[T any] struct {
	ByTicker map[string][]T
	Degraded []string
}

// SnapshotFetcher retrieves per-ticker snapshots in parallel. One ticker
// failing never fails the batch.
type SnapshotFetcher struct {
	provider    domrepo.SnapshotProvider
	prints      domrepo.PrintSource
	maxInFlight int
	callTimeout time.Duration
	printLimit  int
	log         *logger.Logger
	metrics     domrepo.Metrics
}

type FetcherOption func(*SnapshotFetcher)

func WithMaxInFlight(n int) FetcherOption {
	return func(f *SnapshotFetcher) {
		if n > 0 {
			f.maxInFlight = n
		}
	}
}

func WithCallTimeout(d time.Duration) FetcherOption {
	return func(f *SnapshotFetcher) {
		if d > 0 {
			f.callTimeout = d
		}
	}
}

func WithPrintSource(p domrepo.PrintSource, limit int) FetcherOption {
	return func(f *SnapshotFetcher) {
		f.prints = p
		if limit > 0 {
			f.printLimit = limit
		}
	}
}

func WithFetcherMetrics(m domrepo.Metrics) FetcherOption {
	return func(f *SnapshotFetcher) {
		if m != nil {
			f.metrics = m
		}
	}
}

func NewSnapshotFetcher(provider domrepo.SnapshotProvider, log *logger.Logger, opts ...FetcherOption) *SnapshotFetcher {
	if log == nil {
		log = logger.Nop()
	}
	f := &SnapshotFetcher{
		provider:    provider,
		maxInFlight: DefaultMaxInFlight,
		callTimeout: DefaultCallTimeout,
		printLimit:  DefaultPrintLimit,
		log:         log.With(logger.String("component", "snapshot_fetcher")),
		metrics:     nopMetrics{},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Configured reports whether the upstream provider has a usable credential.
func (f *SnapshotFetcher) Configured() bool {
	return f.provider != nil && f.provider.Configured()
}

// HasPrintSource reports whether dark-pool prints can be fetched.
func (f *SnapshotFetcher) HasPrintSource() bool { return f.prints != nil }

func (f *SnapshotFetcher) FetchOptionChains(ctx context.Context, tickers []string) (FetchResult[models.OptionContractSnapshot], error) {
	if !f.Configured() {
		return FetchResult[models.OptionContractSnapshot]{}, models.ErrNotConfigured
	}
	return fanOut(ctx, f, "option_chain", tickers, f.provider.OptionChain), nil
}

func (f *SnapshotFetcher) FetchPrints(ctx context.Context, tickers []string, since time.Time) (FetchResult[models.DarkPoolPrint], error) {
	if f.prints == nil {
		return FetchResult[models.DarkPoolPrint]{}, models.ErrNotConfigured
	}
	return fanOut(ctx, f, "darkpool_prints", tickers, func(ctx context.Context, t string) ([]models.DarkPoolPrint, error) {
		return f.prints.Prints(ctx, t, since, f.printLimit)
	}), nil
}

// FetchEquities runs one batch call under the per-call timeout. Unlike the
// per-ticker fan-outs its error is returned to the caller.
func (f *SnapshotFetcher) FetchEquities(ctx context.Context, op string, tickers []string) ([]models.EquitySnapshot, error) {
	if !f.Configured() {
		return nil, models.ErrNotConfigured
	}
	cctx, cancel := context.WithTimeout(ctx, f.callTimeout)
	defer cancel()

	start := time.Now()
	snaps, err := f.provider.EquitySnapshots(cctx, tickers)
	f.metrics.RecordFetch(op, outcome(err), time.Since(start).Seconds())
	if err != nil {
		f.metrics.RecordError(models.ErrorKind(err))
		f.log.Warn("equity batch failed",
			logger.String("op", op),
			logger.Int("tickers", len(tickers)),
			logger.String("kind", models.ErrorKind(err)),
			logger.Error(err),
		)
		return nil, err
	}
	return snaps, nil
}

// fanOut runs call once per ticker, at most maxInFlight at a time, each under its
// own timeout. Results land in per-index slots so no locking is needed.
func fanOut[T any](ctx context.Context, f *SnapshotFetcher, op string, tickers []string, call func(context.Context, string) ([]T, error)) FetchResult[T] {
	slots := make([][]T, len(tickers))
	errs := make([]error, len(tickers))

	var g errgroup.Group
	g.SetLimit(f.maxInFlight)
	for i, ticker := range tickers {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, f.callTimeout)
			defer cancel()

			start := time.Now()
			res, err := call(cctx, ticker)
			f.metrics.RecordFetch(op, outcome(err), time.Since(start).Seconds())
			if err != nil {
				errs[i] = err
				return nil
			}
			slots[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := FetchResult[T]{ByTicker: make(map[string][]T, len(tickers))}
	for i, ticker := range tickers {
		if err := errs[i]; err != nil {
			kind := models.ErrorKind(err)
			f.metrics.RecordError(kind)
			f.log.Warn("ticker degraded",
				logger.String("op", op),
				logger.String("ticker", ticker),
				logger.String("kind", kind),
				logger.Error(err),
			)
			out.ByTicker[ticker] = []T{}
			out.Degraded = append(out.Degraded, ticker)
			continue
		}
		out.ByTicker[ticker] = slots[i]
	}
	sort.Strings(out.Degraded)
	f.metrics.RecordDegraded(op, len(out.Degraded))
	return out
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return models.ErrorKind(err)
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string, float64) {}
func (nopMetrics) RecordDegraded(string, int)          {}
func (nopMetrics) RecordCache(string)                  {}
func (nopMetrics) RecordInsight(string)                {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordLatency(string, float64)       {}
func (nopMetrics) RecordPublish(string, bool)          {}
