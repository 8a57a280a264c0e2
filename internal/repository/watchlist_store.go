package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PGWatchlistStore reads user watchlists from Postgres. It never writes.
type PGWatchlistStore struct {
	db      *sqlx.DB
	table   string
	timeout time.Duration
}

func NewPGWatchlistStore(db *sqlx.DB, table string, timeout time.Duration) (*PGWatchlistStore, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid watchlist table %q", table)
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &PGWatchlistStore{db: db, table: table, timeout: timeout}, nil
}

// Watchlist returns the user's tickers in their saved order. An unknown user
// yields an empty list.
func (s *PGWatchlistStore) Watchlist(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q := fmt.Sprintf(`SELECT ticker FROM %s WHERE user_id = $1 ORDER BY position ASC, ticker ASC`, s.table)
	var tickers []string
	if err := s.db.SelectContext(ctx, &tickers, q, userID); err != nil {
		return nil, fmt.Errorf("select watchlist: %w", err)
	}
	return tickers, nil
}
