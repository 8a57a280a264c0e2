package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var watchlistQuery = regexp.QuoteMeta(`SELECT ticker FROM watchlist_items WHERE user_id = $1 ORDER BY position ASC, ticker ASC`)

func newPG(t *testing.T) (*PGWatchlistStore, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	store, err := NewPGWatchlistStore(sqlx.NewDb(raw, "postgres"), "watchlist_items", time.Second)
	require.NoError(t, err)
	return store, mock
}

func TestPGWatchlistStore(t *testing.T) {
	store, mock := newPG(t)
	mock.ExpectQuery(watchlistQuery).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"ticker"}).AddRow("NVDA").AddRow("AAPL"))

	got, err := store.Watchlist(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "AAPL"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGWatchlistStoreUnknownUser(t *testing.T) {
	store, mock := newPG(t)
	mock.ExpectQuery(watchlistQuery).WithArgs("nobody").WillReturnRows(sqlmock.NewRows([]string{"ticker"}))

	got, err := store.Watchlist(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPGWatchlistStoreError(t *testing.T) {
	store, mock := newPG(t)
	mock.ExpectQuery(watchlistQuery).WillReturnError(errors.New("relation does not exist"))

	_, err := store.Watchlist(context.Background(), "u1")
	assert.ErrorContains(t, err, "relation does not exist")
}

func TestPGWatchlistStoreRejectsBadTable(t *testing.T) {
	_, err := NewPGWatchlistStore(nil, "items where 1=1", 0)
	assert.Error(t, err)
}
