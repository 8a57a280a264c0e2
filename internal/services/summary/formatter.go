package summary

import (
	"fmt"
	"math"
	"strings"
	"time"

	"TradeYodha/internal/domain/models"

	"github.com/dustin/go-humanize"
)

const (
	DefaultMaxBytes = 4096
	maxRanked       = 5
)

// Formatter renders aggregates into a bounded plain-text block with a fixed
// section order. It has no side effects.
type Formatter struct {
	maxBytes int
}

type Option func(*Formatter)

func WithMaxBytes(n int) Option {
	return func(f *Formatter) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

func New(opts ...Option) *Formatter {
	f := &Formatter{maxBytes: DefaultMaxBytes}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Render emits, in order: scope, totals, largest print, ranked levels, size
// distribution, then flow and gap sections when present.
func (f *Formatter) Render(in models.InsightContext) string {
	var b strings.Builder

	dp := in.DarkPool
	if dp == nil {
		dp = &models.DarkPoolSummary{Scope: in.Scope, Regime: models.NeutralMix}
	}

	fmt.Fprintf(&b, "SCOPE: %s | tickers %s | as of %s\n",
		in.Scope, tickerList(dp.Tickers), stamp(dp.Timestamp))
	fmt.Fprintf(&b, "TOTALS: %s across %s prints | bullish %d%% | bearish %d%% | regime %s\n",
		Money(dp.TotalValue), humanize.Comma(int64(dp.PrintCount)), dp.BullishPct, dp.BearishPct, dp.Regime)

	if p := dp.LargestPrint; p != nil {
		fmt.Fprintf(&b, "LARGEST: %s %s @ %.2f x %s shares | %s %s\n",
			p.Ticker, Money(p.Value), p.Price, humanize.Comma(p.Size), p.Side, p.Tier)
	} else {
		b.WriteString("LARGEST: none\n")
	}

	b.WriteString("LEVELS:\n")
	for i, lv := range head(dp.TopLevels) {
		fmt.Fprintf(&b, "%d. %s %.2f | %s | %s prints | %d%% bullish\n",
			i+1, lv.Ticker, lv.Price, Money(lv.TotalValue), humanize.Comma(int64(lv.PrintCount)), lv.BullishPct)
	}

	fmt.Fprintf(&b, "SIZE: mega %s | large %s | medium %s\n",
		humanize.Comma(int64(dp.Tiers.Mega)), humanize.Comma(int64(dp.Tiers.Large)), humanize.Comma(int64(dp.Tiers.Medium)))

	if fl := in.Flow; fl != nil {
		fmt.Fprintf(&b, "FLOW: %s | call/put %.2f | calls %s | puts %s | sweeps %s | unusual %s\n",
			fl.NetDirection, fl.CallPutRatio, Money(fl.CallPremium), Money(fl.PutPremium),
			humanize.Comma(int64(fl.SweepCount)), humanize.Comma(int64(fl.UnusualCount)))
		b.WriteString("TOP TRADES:\n")
		for i, tr := range headTrades(fl.TopTrades) {
			fmt.Fprintf(&b, "%d. %s %.2f%s %s | %s | vol %s\n",
				i+1, tr.Ticker, tr.Strike, typeCode(tr.Type), tr.Expiry, Money(tr.Premium), humanize.Comma(tr.Volume))
		}
	}

	if g := in.Gaps; g != nil {
		writeGaps(&b, "WATCHLIST GAPS", g.WatchlistGaps)
		writeGaps(&b, "TOP MOVERS", g.TopMovers)
	}

	return truncate(b.String(), f.maxBytes)
}

func writeGaps(b *strings.Builder, title string, recs []models.GapRecord) {
	fmt.Fprintf(b, "%s:\n", title)
	n := len(recs)
	if n > maxRanked {
		n = maxRanked
	}
	for i, r := range recs[:n] {
		fmt.Fprintf(b, "%d. %s %+.2f%% | %.2f vs %.2f | vol %s\n",
			i+1, r.Ticker, r.GapPercent, r.Price, r.PrevClose, humanize.Comma(r.Volume))
	}
}

// Money formats a dollar value with K/M/B suffixes. The suffix is chosen on
// the rounded figure, so 999.6 prints as $1.0K and 999,999 as $1.0M.
func Money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if r := math.Round(v); r < 1e3 {
		return fmt.Sprintf("%s$%.0f", sign, r)
	}
	for _, u := range []struct {
		div    float64
		suffix string
	}{{1e3, "K"}, {1e6, "M"}} {
		if r := math.Round(v/u.div*10) / 10; r < 1e3 {
			return fmt.Sprintf("%s$%.1f%s", sign, r, u.suffix)
		}
	}
	return fmt.Sprintf("%s$%.1fB", sign, math.Round(v/1e9*10)/10)
}

func head(levels []models.PriceLevel) []models.PriceLevel {
	if len(levels) > maxRanked {
		return levels[:maxRanked]
	}
	return levels
}

func headTrades(trades []models.TopTrade) []models.TopTrade {
	if len(trades) > maxRanked {
		return trades[:maxRanked]
	}
	return trades
}

func typeCode(t models.ContractType) string {
	switch t {
	case models.Call:
		return "C"
	case models.Put:
		return "P"
	default:
		return "?"
	}
}

func tickerList(ts []string) string {
	if len(ts) == 0 {
		return "-"
	}
	return strings.Join(ts, ",")
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// truncate cuts s to at most max bytes on a line boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := strings.LastIndexByte(s[:max], '\n')
	if cut < 0 {
		return s[:max]
	}
	return s[:cut+1]
}
