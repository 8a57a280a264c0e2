package flow

import (
	"sort"
	"time"

	"TradeYodha/internal/domain/models"
)

type Options struct {
	UnusualPremium float64
	BullishRatio   float64
	BearishRatio   float64
	TopN           int
}

func DefaultOptions() Options {
	return Options{
		UnusualPremium: 100_000,
		BullishRatio:   1.3,
		BearishRatio:   0.7,
		TopN:           5,
	}
}

type Option func(*Aggregator)

// WithOptions replaces thresholds; zero fields keep their defaults.
func WithOptions(o Options) Option {
	return func(a *Aggregator) {
		if o.UnusualPremium > 0 {
			a.opts.UnusualPremium = o.UnusualPremium
		}
		if o.BullishRatio > 0 {
			a.opts.BullishRatio = o.BullishRatio
		}
		if o.BearishRatio > 0 {
			a.opts.BearishRatio = o.BearishRatio
		}
		if o.TopN > 0 {
			a.opts.TopN = o.TopN
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// Aggregator reduces per-ticker option chains into a FlowSummary. It holds no
// mutable state and is safe for concurrent use.
type Aggregator struct {
	opts Options
	now  func() time.Time
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{opts: DefaultOptions(), now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Aggregate reduces chains keyed by ticker. tickers is the requested scope and
// is echoed in the summary; tickers without a chain contribute nothing.
func (a *Aggregator) Aggregate(tickers []string, chains map[string][]models.OptionContractSnapshot) models.FlowSummary {
	keys := make([]string, 0, len(chains))
	for k := range chains {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		callPremium, putPremium float64
		sweeps, unusual         int
		candidates              []models.OptionContractSnapshot
	)
	for _, k := range keys {
		for _, c := range chains[k] {
			if !c.Active() {
				continue
			}
			p := c.Premium()
			switch c.Type {
			case models.Call:
				callPremium += p
			case models.Put:
				putPremium += p
			default:
				continue
			}
			if c.Sweep() {
				sweeps++
			}
			if p > a.opts.UnusualPremium {
				unusual++
			}
			candidates = append(candidates, c)
		}
	}

	ratio := Ratio(callPremium, putPremium)
	return models.FlowSummary{
		NetDirection: DirectionFor(ratio, a.opts.BullishRatio, a.opts.BearishRatio),
		CallPutRatio: ratio,
		TotalPremium: callPremium + putPremium,
		CallPremium:  callPremium,
		PutPremium:   putPremium,
		SweepCount:   sweeps,
		UnusualCount: unusual,
		TopTrades:    topTrades(candidates, a.opts.TopN),
		Tickers:      append([]string{}, tickers...),
		Timestamp:    a.now().UTC(),
	}
}

// Ratio is call/put premium, saturating at RatioSentinel when no puts traded
// and 1 when nothing traded.
func Ratio(callPremium, putPremium float64) float64 {
	switch {
	case putPremium > 0:
		return callPremium / putPremium
	case callPremium > 0:
		return models.RatioSentinel
	default:
		return 1
	}
}

// DirectionFor applies exclusive bands around the neutral zone.
func DirectionFor(ratio, bullish, bearish float64) models.Direction {
	switch {
	case ratio > bullish:
		return models.DirectionBullish
	case ratio < bearish:
		return models.DirectionBearish
	default:
		return models.DirectionNeutral
	}
}

func topTrades(cs []models.OptionContractSnapshot, n int) []models.TopTrade {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if pa, pb := a.Premium(), b.Premium(); pa != pb {
			return pa > pb
		}
		if a.Volume != b.Volume {
			return a.Volume > b.Volume
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		if a.Strike != b.Strike {
			return a.Strike < b.Strike
		}
		if !a.Expiry.Equal(b.Expiry) {
			return a.Expiry.Before(b.Expiry)
		}
		return a.Type < b.Type
	})
	if len(cs) > n {
		cs = cs[:n]
	}
	out := make([]models.TopTrade, 0, len(cs))
	for _, c := range cs {
		out = append(out, models.TopTrade{
			Ticker:  c.Ticker,
			Strike:  c.Strike,
			Expiry:  c.Expiry.Format(models.ExpiryLayout),
			Type:    c.Type,
			Premium: c.Premium(),
			Volume:  c.Volume,
		})
	}
	return out
}
