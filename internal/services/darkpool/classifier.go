package darkpool

import (
	"math"
	"sort"
	"time"

	"TradeYodha/internal/domain/models"

	"github.com/shopspring/decimal"
)

type Options struct {
	// PriceTick is the rounding step for clustering prints into levels.
	PriceTick float64
	TopLevels int
	// MinLevelValue drops levels whose total value is below it.
	MinLevelValue float64
	// Dominance is the minimum bullish (or bearish) share of value for a directional regime.
	Dominance float64
	// SizeSkew is the minimum MEGA+LARGE share of value for a directional regime.
	SizeSkew float64
}

func DefaultOptions() Options {
	return Options{
		PriceTick: 0.01,
		TopLevels: 5,
		Dominance: 0.6,
		SizeSkew:  0.5,
	}
}

type Option func(*Classifier)

func WithOptions(o Options) Option {
	return func(c *Classifier) {
		if o.PriceTick > 0 {
			c.opts.PriceTick = o.PriceTick
		}
		if o.TopLevels > 0 {
			c.opts.TopLevels = o.TopLevels
		}
		if o.MinLevelValue > 0 {
			c.opts.MinLevelValue = o.MinLevelValue
		}
		if o.Dominance > 0 {
			c.opts.Dominance = o.Dominance
		}
		if o.SizeSkew > 0 {
			c.opts.SizeSkew = o.SizeSkew
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

type Classifier struct {
	opts Options
	tick decimal.Decimal
	now  func() time.Time
}

func New(opts ...Option) *Classifier {
	c := &Classifier{opts: DefaultOptions(), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	c.tick = decimal.NewFromFloat(c.opts.PriceTick)
	return c
}

type levelKey struct {
	ticker string
	price  string
}

// Summarize reduces a print population for one scope.
func (c *Classifier) Summarize(scope string, tickers []string, prints []models.DarkPoolPrint) models.DarkPoolSummary {
	var (
		total, bullish, bearish, big float64
		tiers                        models.TierCounts
		largest                      *models.DarkPoolPrint
		levels                       = make(map[levelKey]*models.PriceLevel)
	)

	for i := range prints {
		p := prints[i]
		tier := p.Tier
		if tier == "" {
			tier = models.TierFor(p.Value)
		}

		total += p.Value
		switch p.Side {
		case models.Bullish:
			bullish += p.Value
		case models.Bearish:
			bearish += p.Value
		}
		switch tier {
		case models.TierMega:
			tiers.Mega++
			big += p.Value
		case models.TierLarge:
			tiers.Large++
			big += p.Value
		case models.TierMedium:
			tiers.Medium++
		}
		if largest == nil || larger(p, *largest) {
			largest = &prints[i]
		}

		rounded := c.round(p.Price)
		k := levelKey{ticker: p.Ticker, price: rounded.String()}
		lv, ok := levels[k]
		if !ok {
			lv = &models.PriceLevel{Ticker: p.Ticker, Price: rounded.InexactFloat64()}
			levels[k] = lv
		}
		lv.TotalValue += p.Value
		lv.PrintCount++
		if p.Side == models.Bullish {
			lv.BullishValue += p.Value
		}
	}

	var top *models.DarkPoolPrint
	if largest != nil {
		cp := *largest
		top = &cp
	}

	return models.DarkPoolSummary{
		Scope:        scope,
		TotalValue:   total,
		PrintCount:   len(prints),
		BullishPct:   pct(bullish, total),
		BearishPct:   pct(bearish, total),
		LargestPrint: top,
		Tiers:        tiers,
		TopLevels:    c.rank(levels),
		Regime:       c.regime(total, bullish, bearish, big),
		Tickers:      append([]string{}, tickers...),
		Timestamp:    c.now().UTC(),
	}
}

func (c *Classifier) round(price float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Div(c.tick).Round(0).Mul(c.tick)
}

func (c *Classifier) rank(levels map[levelKey]*models.PriceLevel) []models.PriceLevel {
	out := make([]models.PriceLevel, 0, len(levels))
	for _, lv := range levels {
		if lv.TotalValue < c.opts.MinLevelValue {
			continue
		}
		lv.BullishPct = pct(lv.BullishValue, lv.TotalValue)
		out = append(out, *lv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		if out[i].Ticker != out[j].Ticker {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].Price < out[j].Price
	})
	if len(out) > c.opts.TopLevels {
		out = out[:c.opts.TopLevels]
	}
	return out
}

// regime labels a population ACCUMULATION or DISTRIBUTION only when one side
// holds the dominance share of value and block-sized prints carry the size-skew share.
func (c *Classifier) regime(total, bullish, bearish, big float64) models.Regime {
	if total <= 0 || big/total < c.opts.SizeSkew {
		return models.NeutralMix
	}
	switch {
	case bullish/total >= c.opts.Dominance:
		return models.Accumulation
	case bearish/total >= c.opts.Dominance:
		return models.Distribution
	default:
		return models.NeutralMix
	}
}

func larger(a, b models.DarkPoolPrint) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.Ticker < b.Ticker
}

func pct(part, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(part / total * 100))
}
