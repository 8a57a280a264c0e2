package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"TradeYodha/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var printsQuery = regexp.QuoteMeta(`SELECT ticker, ts, price, size, bid, ask FROM tradeyodha.darkpool_prints WHERE ticker = ? AND ts >= ? ORDER BY ts DESC LIMIT ?`)

func TestCHPrintStoreRejectsBadTable(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewCHPrintStore(db, "prints; DROP TABLE x", nil)
	assert.Error(t, err)
}

func TestCHPrintStorePrints(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	since := time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC)
	ts := since.Add(30 * time.Minute)
	rows := sqlmock.NewRows([]string{"ticker", "ts", "price", "size", "bid", "ask"}).
		AddRow("SPY", ts, 500.0, int64(30_000), 499.98, 499.99).
		AddRow("SPY", ts, 0.0, int64(100), 1.0, 2.0).
		AddRow("SPY", ts, 501.0, int64(1_000), 501.01, 501.02)
	mock.ExpectQuery(printsQuery).WithArgs("SPY", since, 100).WillReturnRows(rows)

	store, err := NewCHPrintStore(db, "tradeyodha.darkpool_prints", nil)
	require.NoError(t, err)
	got, err := store.Prints(context.Background(), "SPY", since, 100)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, models.Bullish, got[0].Side)
	assert.Equal(t, models.TierMega, got[0].Tier)
	assert.Equal(t, 15_000_000.0, got[0].Value)
	assert.Equal(t, models.Bearish, got[1].Side)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHPrintStoreQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(printsQuery).WillReturnError(errors.New("connection reset"))
	store, err := NewCHPrintStore(db, "tradeyodha.darkpool_prints", nil)
	require.NoError(t, err)

	_, err = store.Prints(context.Background(), "SPY", time.Now(), 10)
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)

	var ue *models.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "darkpool_prints", ue.Op)
}

func TestPrintsTableDDL(t *testing.T) {
	ddl := PrintsTableDDL("tradeyodha.darkpool_prints")
	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS tradeyodha.darkpool_prints")
	assert.Contains(t, ddl, "ORDER BY (ticker, ts)")
}
