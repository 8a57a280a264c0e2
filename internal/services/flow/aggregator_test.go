package flow

import (
	"math/rand"
	"testing"
	"time"

	"TradeYodha/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)
	jan17    = time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
)

func contract(t *testing.T, ticker string, typ models.ContractType, strike float64, vol, oi int64, vwap float64) models.OptionContractSnapshot {
	t.Helper()
	c, err := models.NewOptionContractSnapshot(ticker, strike, jan17, typ, vol, oi, vwap)
	require.NoError(t, err)
	return c
}

func TestAggregateSingleCallScenario(t *testing.T) {
	a := New(WithClock(func() time.Time { return fixedNow }))
	spy := contract(t, "SPY", models.Call, 450, 1000, 200, 2.5)

	got := a.Aggregate([]string{"SPY"}, map[string][]models.OptionContractSnapshot{"SPY": {spy}})

	assert.Equal(t, 250000.0, got.TotalPremium)
	assert.Equal(t, 250000.0, got.CallPremium)
	assert.Equal(t, 0.0, got.PutPremium)
	assert.Equal(t, float64(models.RatioSentinel), got.CallPutRatio)
	assert.Equal(t, models.DirectionBullish, got.NetDirection)
	assert.Equal(t, 1, got.SweepCount)
	assert.Equal(t, 1, got.UnusualCount)
	assert.Equal(t, []models.TopTrade{{
		Ticker: "SPY", Strike: 450, Expiry: "2025-01-17", Type: models.Call, Premium: 250000, Volume: 1000,
	}}, got.TopTrades)
	assert.Equal(t, []string{"SPY"}, got.Tickers)
	assert.Equal(t, fixedNow, got.Timestamp)
}

func TestPremiumIdentityAndExclusion(t *testing.T) {
	chains := map[string][]models.OptionContractSnapshot{
		"AAPL": {
			contract(t, "AAPL", models.Call, 200, 10, 5, 1.2),
			contract(t, "AAPL", models.Put, 190, 30, 100, 0.8),
			contract(t, "AAPL", models.Call, 210, 0, 5, 3.0),  // no volume
			contract(t, "AAPL", models.Put, 180, 50, 5, 0),    // no vwap
		},
		"MSFT": {
			contract(t, "MSFT", models.Put, 400, 7, 0, 4.1),
		},
	}
	got := New().Aggregate([]string{"AAPL", "MSFT"}, chains)

	wantCall := 10 * 1.2 * 100
	wantPut := 30*0.8*100 + 7*4.1*100
	assert.InDelta(t, wantCall, got.CallPremium, 1e-9)
	assert.InDelta(t, wantPut, got.PutPremium, 1e-9)
	assert.Equal(t, got.CallPremium+got.PutPremium, got.TotalPremium)
	assert.Len(t, got.TopTrades, 3, "inactive contracts never rank")
	assert.Equal(t, 1, got.SweepCount, "AAPL 200C is the only sweep; MSFT has zero OI")
}

func TestRatioEdgeCases(t *testing.T) {
	assert.Equal(t, 1.0, Ratio(0, 0))
	assert.Equal(t, float64(models.RatioSentinel), Ratio(5, 0))
	assert.Equal(t, 0.0, Ratio(0, 5))
	assert.Equal(t, 2.0, Ratio(10, 5))
}

func TestDirectionBoundariesAreExclusive(t *testing.T) {
	cases := map[float64]models.Direction{
		1.3:    models.DirectionNeutral,
		1.3001: models.DirectionBullish,
		0.7:    models.DirectionNeutral,
		0.6999: models.DirectionBearish,
		1.0:    models.DirectionNeutral,
		0:      models.DirectionBearish,
		999:    models.DirectionBullish,
	}
	for ratio, want := range cases {
		assert.Equal(t, want, DirectionFor(ratio, 1.3, 0.7), "ratio %v", ratio)
	}
}

func TestEmptyInputIsNeutral(t *testing.T) {
	got := New().Aggregate(nil, nil)
	assert.Equal(t, 1.0, got.CallPutRatio)
	assert.Equal(t, models.DirectionNeutral, got.NetDirection)
	assert.Empty(t, got.TopTrades)
}

func TestUnusualThresholdIsStrictAndConfigurable(t *testing.T) {
	atThreshold := contract(t, "QQQ", models.Call, 500, 1000, 0, 1.0) // premium exactly 100000
	got := New().Aggregate([]string{"QQQ"}, map[string][]models.OptionContractSnapshot{"QQQ": {atThreshold}})
	assert.Equal(t, 0, got.UnusualCount)

	got = New(WithOptions(Options{UnusualPremium: 50_000})).Aggregate([]string{"QQQ"}, map[string][]models.OptionContractSnapshot{"QQQ": {atThreshold}})
	assert.Equal(t, 1, got.UnusualCount)
}

func TestTopTradesOrderingAndBound(t *testing.T) {
	chains := map[string][]models.OptionContractSnapshot{
		"B": {
			contract(t, "B", models.Call, 10, 100, 0, 1), // 10000
			contract(t, "B", models.Put, 10, 50, 0, 2),   // 10000, lower volume
		},
		"A": {
			contract(t, "A", models.Call, 10, 100, 0, 1), // 10000, ticker A wins tie
			contract(t, "A", models.Call, 11, 300, 0, 1), // 30000
			contract(t, "A", models.Put, 9, 10, 0, 50),   // 50000
			contract(t, "A", models.Put, 8, 1, 0, 1),     // 100
		},
	}
	got := New().Aggregate([]string{"A", "B"}, chains).TopTrades
	require.Len(t, got, 5)

	assert.Equal(t, 50000.0, got[0].Premium)
	assert.Equal(t, 30000.0, got[1].Premium)
	assert.Equal(t, "A", got[2].Ticker)
	assert.Equal(t, int64(100), got[2].Volume)
	assert.Equal(t, "B", got[3].Ticker)
	assert.Equal(t, models.Call, got[3].Type)
	assert.Equal(t, int64(50), got[4].Volume)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Premium, got[i].Premium)
	}
}

func TestResultIndependentOfInputOrder(t *testing.T) {
	base := []models.OptionContractSnapshot{
		contract(t, "X", models.Call, 10, 120, 100, 1.5),
		contract(t, "X", models.Put, 12, 80, 10, 2.5),
		contract(t, "X", models.Call, 14, 60, 0, 0.5),
		contract(t, "X", models.Put, 8, 300, 400, 0.1),
		contract(t, "X", models.Call, 16, 10, 1, 9.0),
		contract(t, "X", models.Call, 18, 1, 1, 0.01),
	}
	a := New(WithClock(func() time.Time { return fixedNow }))
	want := a.Aggregate([]string{"X"}, map[string][]models.OptionContractSnapshot{"X": base})

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.OptionContractSnapshot{}, base...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, a.Aggregate([]string{"X"}, map[string][]models.OptionContractSnapshot{"X": shuffled}))
	}
}
