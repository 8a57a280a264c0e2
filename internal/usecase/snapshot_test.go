package usecase

import (
	"context"
	"testing"
	"time"

	"TradeYodha/internal/domain/models"
	"TradeYodha/internal/services/summary"
	"TradeYodha/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRunnerPartial(t *testing.T) {
	p := spyProvider()
	p.equityErr = map[string]error{"SPY": &models.UpstreamError{Op: "equity_snapshots", Kind: models.ErrUpstreamTimeout, Err: context.DeadlineExceeded}}
	e, _ := newEngine(t, p, nil, nil, nil)
	r := NewSnapshotRunner(e, NewScopeResolver(nil, nil, 20, nil), NewInsightService(summary.New(), nil, nil), time.Hour, 5, logger.Nop())

	rep, err := r.Run(context.Background(), "SPY")
	require.NoError(t, err)
	require.NotNil(t, rep.Flow)
	assert.Nil(t, rep.Gaps)
	assert.Nil(t, rep.DarkPool)
	assert.Contains(t, rep.Errors, KindOvernightGaps)
	assert.Contains(t, rep.Summary, "FLOW: BULLISH")
	assert.Contains(t, rep.Summary, "SCOPE: SPY")
}

func TestSnapshotRunnerNotConfigured(t *testing.T) {
	e, _ := newEngine(t, &fakeProvider{}, nil, nil, nil)
	r := NewSnapshotRunner(e, NewScopeResolver(nil, nil, 20, nil), NewInsightService(summary.New(), nil, nil), time.Hour, 5, nil)

	_, err := r.Run(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrNotConfigured)
}

func TestSnapshotRunnerInvalidTickers(t *testing.T) {
	e, _ := newEngine(t, spyProvider(), nil, nil, nil)
	r := NewSnapshotRunner(e, NewScopeResolver(nil, nil, 20, nil), NewInsightService(summary.New(), nil, nil), time.Hour, 5, nil)

	_, err := r.Run(context.Background(), "$$$")
	assert.ErrorIs(t, err, models.ErrInvalidTickers)
}
