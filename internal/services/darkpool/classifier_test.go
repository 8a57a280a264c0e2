package darkpool

import (
	"testing"
	"time"

	"TradeYodha/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)

// pr builds a print with an explicit side; quotes are chosen around price.
func pr(t *testing.T, ticker string, price float64, size int64, side models.Side, at time.Time) models.DarkPoolPrint {
	t.Helper()
	bid, ask := price-0.01, price+0.01
	switch side {
	case models.Bullish:
		bid, ask = price-0.02, price-0.01
	case models.Bearish:
		bid, ask = price+0.01, price+0.02
	}
	p, err := models.NewDarkPoolPrint(ticker, price, size, at, bid, ask)
	require.NoError(t, err)
	require.Equal(t, side, p.Side)
	return p
}

func TestSummarizeTotalsAndLevels(t *testing.T) {
	prints := []models.DarkPoolPrint{
		pr(t, "SPY", 500, 30_000, models.Bullish, t0),                   // 15M MEGA
		pr(t, "SPY", 500, 4_000, models.Bearish, t0.Add(time.Minute)),   // 2M LARGE
		pr(t, "SPY", 501, 1_200, models.Neutral, t0.Add(2*time.Minute)), // 601.2K MEDIUM
		pr(t, "QQQ", 400, 500, models.Bullish, t0),                      // 200K SMALL
	}
	c := New(WithClock(func() time.Time { return t0 }))
	got := c.Summarize("market", []string{"SPY", "QQQ"}, prints)

	assert.InDelta(t, 17_801_200, got.TotalValue, 1e-6)
	assert.Equal(t, 4, got.PrintCount)
	assert.Equal(t, models.TierCounts{Mega: 1, Large: 1, Medium: 1}, got.Tiers)
	assert.Equal(t, 85, got.BullishPct) // 15.2M / 17.8012M
	assert.Equal(t, 11, got.BearishPct) // 2M / 17.8012M
	require.NotNil(t, got.LargestPrint)
	assert.Equal(t, 15_000_000.0, got.LargestPrint.Value)

	require.Len(t, got.TopLevels, 3)
	top := got.TopLevels[0]
	assert.Equal(t, "SPY", top.Ticker)
	assert.Equal(t, 500.0, top.Price)
	assert.Equal(t, 2, top.PrintCount)
	assert.Equal(t, 17_000_000.0, top.TotalValue)
	assert.Equal(t, 15_000_000.0, top.BullishValue)
	assert.Equal(t, 88, top.BullishPct)

	assert.Equal(t, models.Accumulation, got.Regime)
	assert.Equal(t, []string{"SPY", "QQQ"}, got.Tickers)
}

func TestLevelInvariants(t *testing.T) {
	var prints []models.DarkPoolPrint
	sides := []models.Side{models.Bullish, models.Bearish, models.Neutral}
	for i := 0; i < 40; i++ {
		price := 100 + float64(i%9)
		prints = append(prints, pr(t, "AAPL", price, int64(1000+i*250), sides[i%3], t0.Add(time.Duration(i)*time.Second)))
	}
	got := New(WithOptions(Options{TopLevels: 50, MinLevelValue: 300_000})).Summarize("AAPL", []string{"AAPL"}, prints)

	var sum float64
	for _, lv := range got.TopLevels {
		assert.LessOrEqual(t, lv.BullishValue, lv.TotalValue)
		assert.GreaterOrEqual(t, lv.TotalValue, 300_000.0)
		assert.GreaterOrEqual(t, lv.BullishPct, 0)
		assert.LessOrEqual(t, lv.BullishPct, 100)
		sum += lv.TotalValue
	}
	assert.LessOrEqual(t, sum, got.TotalValue+1e-6)
	for i := 1; i < len(got.TopLevels); i++ {
		assert.GreaterOrEqual(t, got.TopLevels[i-1].TotalValue, got.TopLevels[i].TotalValue)
	}
}

func TestTopLevelsBounded(t *testing.T) {
	var prints []models.DarkPoolPrint
	for i := 0; i < 12; i++ {
		prints = append(prints, pr(t, "TSLA", 200+float64(i), 100, models.Neutral, t0))
	}
	got := New().Summarize("TSLA", []string{"TSLA"}, prints)
	assert.Len(t, got.TopLevels, 5)
}

func TestPricesClusterOnTick(t *testing.T) {
	prints := []models.DarkPoolPrint{
		pr(t, "IWM", 210.04, 100, models.Neutral, t0),
		pr(t, "IWM", 210.06, 100, models.Neutral, t0),
		pr(t, "IWM", 210.24, 100, models.Neutral, t0),
	}
	got := New(WithOptions(Options{PriceTick: 0.25})).Summarize("IWM", []string{"IWM"}, prints)
	require.Len(t, got.TopLevels, 2)
	assert.Equal(t, 2, got.TopLevels[0].PrintCount)
	assert.Equal(t, 210.0, got.TopLevels[0].Price)
	assert.Equal(t, 210.25, got.TopLevels[1].Price)
}

func TestRegime(t *testing.T) {
	c := New()
	cases := []struct {
		name   string
		prints []models.DarkPoolPrint
		want   models.Regime
	}{
		{"empty", nil, models.NeutralMix},
		{"bearish blocks", []models.DarkPoolPrint{
			pr(t, "XLF", 40, 300_000, models.Bearish, t0), // 12M MEGA
			pr(t, "XLF", 40, 10_000, models.Bullish, t0),  // 400K
		}, models.Distribution},
		{"bullish but retail sized", []models.DarkPoolPrint{
			pr(t, "XLF", 40, 10_000, models.Bullish, t0),
			pr(t, "XLF", 40, 10_000, models.Bullish, t0),
		}, models.NeutralMix},
		{"blocks but split", []models.DarkPoolPrint{
			pr(t, "XLF", 40, 50_000, models.Bullish, t0),
			pr(t, "XLF", 40, 50_000, models.Bearish, t0),
		}, models.NeutralMix},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Summarize("XLF", []string{"XLF"}, tc.prints).Regime)
		})
	}
}

func TestRegimeThresholdsConfigurable(t *testing.T) {
	prints := []models.DarkPoolPrint{
		pr(t, "XLE", 90, 20_000, models.Bullish, t0), // 1.8M LARGE
		pr(t, "XLE", 90, 15_000, models.Neutral, t0), // 1.35M LARGE
	}
	assert.Equal(t, models.NeutralMix, New().Summarize("XLE", nil, prints).Regime)
	assert.Equal(t, models.Accumulation, New(WithOptions(Options{Dominance: 0.55})).Summarize("XLE", nil, prints).Regime)
}

func TestLargestPrintTieTakesEarliest(t *testing.T) {
	prints := []models.DarkPoolPrint{
		pr(t, "META", 500, 1000, models.Neutral, t0.Add(time.Minute)),
		pr(t, "META", 500, 1000, models.Neutral, t0),
	}
	got := New().Summarize("META", nil, prints)
	require.NotNil(t, got.LargestPrint)
	assert.Equal(t, t0, got.LargestPrint.Timestamp)
}
