package gaps

import (
	"math"
	"sort"

	"TradeYodha/internal/domain/models"
)

const (
	DefaultTopK = 5
	DefaultMaxK = 20
)

type Ranker struct {
	maxK int
}

type Option func(*Ranker)

// WithMaxK bounds the number of movers a caller can ask for.
func WithMaxK(k int) Option {
	return func(r *Ranker) {
		if k > 0 {
			r.maxK = k
		}
	}
}

func New(opts ...Option) *Ranker {
	r := &Ranker{maxK: DefaultMaxK}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Compute derives a gap record. ok is false when price or prior close is not positive.
func Compute(s models.EquitySnapshot) (models.GapRecord, bool) {
	if s.LastPrice <= 0 || s.PrevClose <= 0 {
		return models.GapRecord{}, false
	}
	gap := s.LastPrice - s.PrevClose
	dir := models.GapUp
	if gap < 0 {
		dir = models.GapDown
	}
	return models.GapRecord{
		Ticker:     s.Ticker,
		Price:      s.LastPrice,
		PrevClose:  s.PrevClose,
		Gap:        gap,
		GapPercent: gap * 100 / s.PrevClose,
		Direction:  dir,
		Volume:     s.Volume,
	}, true
}

// Rank returns every usable record sorted by absolute gap percent, largest first.
func (r *Ranker) Rank(snaps []models.EquitySnapshot) []models.GapRecord {
	out := make([]models.GapRecord, 0, len(snaps))
	for _, s := range snaps {
		if rec, ok := Compute(s); ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].GapPercent), math.Abs(out[j].GapPercent)
		if ai != aj {
			return ai > aj
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// TopMovers ranks the universe and keeps k records, k clamped to [1, maxK].
func (r *Ranker) TopMovers(snaps []models.EquitySnapshot, k int) []models.GapRecord {
	k = r.ClampK(k)
	ranked := r.Rank(snaps)
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

func (r *Ranker) ClampK(k int) int {
	if k <= 0 {
		k = DefaultTopK
	}
	if k > r.maxK {
		k = r.maxK
	}
	return k
}
