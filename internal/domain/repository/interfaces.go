package repository

import (
	"context"
	"time"

	"TradeYodha/internal/domain/models"
)

// SnapshotProvider is the upstream market-data collaborator.
type SnapshotProvider interface {
	// Configured reports whether a usable credential is present. Callers check it
	// before any network call.
	Configured() bool
	OptionChain(ctx context.Context, ticker string) ([]models.OptionContractSnapshot, error)
	// EquitySnapshots fetches last trade and prior close for a batch of tickers in one call.
	EquitySnapshots(ctx context.Context, tickers []string) ([]models.EquitySnapshot, error)
}

// PrintSource reads dark-pool prints captured by the ingest side.
type PrintSource interface {
	Prints(ctx context.Context, ticker string, since time.Time, limit int) ([]models.DarkPoolPrint, error)
}

// WatchlistStore is the read side of user watchlist persistence.
type WatchlistStore interface {
	Watchlist(ctx context.Context, userID string) ([]string, error)
}

// SignalPublisher emits freshly computed signals to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, kind string, scope string, payload interface{}) error
	Close() error
}

type Metrics interface {
	RecordFetch(op, outcome string, seconds float64)
	RecordDegraded(op string, n int)
	RecordCache(result string)
	RecordInsight(source string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordPublish(kind string, ok bool)
}
