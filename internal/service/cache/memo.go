package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	domrepo "TradeYodha/internal/domain/repository"
	pkgcache "TradeYodha/pkg/cache"
	"TradeYodha/pkg/logger"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL            = 30 * time.Second
	DefaultComputeTimeout = 30 * time.Second
)

// Memo memoizes computed signal payloads in a byte store for a short TTL.
// Concurrent misses on one key share a single computation.
type Memo struct {
	store          pkgcache.Store
	ttl            time.Duration
	computeTimeout time.Duration
	group          singleflight.Group
	log            *logger.Logger
	metrics        domrepo.Metrics
}

type MemoOption func(*Memo)

func WithTTL(ttl time.Duration) MemoOption {
	return func(m *Memo) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithComputeTimeout bounds a shared computation, which no single caller can cancel.
func WithComputeTimeout(d time.Duration) MemoOption {
	return func(m *Memo) {
		if d > 0 {
			m.computeTimeout = d
		}
	}
}

func WithMetrics(mt domrepo.Metrics) MemoOption {
	return func(m *Memo) { m.metrics = mt }
}

func WithLogger(l *logger.Logger) MemoOption {
	return func(m *Memo) { m.log = l }
}

func NewMemo(store pkgcache.Store, opts ...MemoOption) *Memo {
	m := &Memo{store: store, ttl: DefaultTTL, computeTimeout: DefaultComputeTimeout, log: logger.Nop()}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Memo) TTL() time.Duration { return m.ttl }

// Key builds a memo key from the operation, the scope label, the ticker set
// (order-insensitive) and any window parameters.
func Key(op, scope string, tickers []string, params ...string) string {
	set := append([]string(nil), tickers...)
	sort.Strings(set)
	parts := []string{op, scope, strings.Join(set, ",")}
	parts = append(parts, params...)
	return pkgcache.Key(parts...)
}

// ComputeFunc produces a value and whether it may be stored.
type ComputeFunc[T any] func(ctx context.Context) (value T, cacheable bool, err error)

// Do returns the stored value for key, or runs compute and stores its result.
// hit reports whether the value came from the store. Store failures are logged
// and treated as misses.
func Do[T any](ctx context.Context, m *Memo, key string, compute ComputeFunc[T]) (value T, hit bool, err error) {
	b, gerr := m.store.Get(ctx, key)
	switch {
	case gerr == nil:
		uerr := json.Unmarshal(b, &value)
		if uerr == nil {
			m.record("hit")
			return value, true, nil
		}
		m.log.Warn("memo entry undecodable", logger.String("key", key), logger.Error(uerr))
	case !errors.Is(gerr, pkgcache.ErrCacheMiss):
		m.record("error")
		m.log.Warn("memo store read failed", logger.String("key", key), logger.Error(gerr))
	}
	m.record("miss")

	// The shared computation is detached from the first caller; each caller
	// only stops waiting when its own context ends.
	ch := m.group.DoChan(key, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.computeTimeout)
		defer cancel()
		val, cacheable, cerr := compute(cctx)
		if cerr != nil {
			return nil, cerr
		}
		if cacheable {
			m.put(cctx, key, val)
		}
		return val, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, false, res.Err
		}
		return res.Val.(T), false, nil
	}
}

func (m *Memo) put(ctx context.Context, key string, val interface{}) {
	b, err := json.Marshal(val)
	if err != nil {
		m.log.Warn("memo encode failed", logger.String("key", key), logger.Error(err))
		return
	}
	if err := m.store.Set(ctx, key, b, m.ttl); err != nil {
		m.record("error")
		m.log.Warn("memo store write failed", logger.String("key", key), logger.Error(err))
	}
}

func (m *Memo) record(result string) {
	if m.metrics != nil {
		m.metrics.RecordCache(result)
	}
}
