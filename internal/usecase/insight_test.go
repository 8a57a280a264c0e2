package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"TradeYodha/internal/domain/models"
	"TradeYodha/internal/services/summary"
	"TradeYodha/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	text   string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(_ context.Context, s string) (string, error) {
	g.prompt = s
	return g.text, g.err
}

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	now := testNow
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func insightInput() models.InsightContext {
	return models.InsightContext{
		Scope:    "SPY",
		DarkPool: &models.DarkPoolSummary{Scope: "SPY", Tickers: []string{"SPY"}, Regime: models.NeutralMix},
	}
}

func TestInsightFromModel(t *testing.T) {
	gen := &fakeGenerator{text: "  Accumulation near 500.  "}
	s := NewInsightService(summary.New(), gen, logger.Nop(), WithInsightClock(steppingClock(120*time.Millisecond)))

	got := s.Generate(context.Background(), insightInput())
	assert.Equal(t, models.Insight{Text: "Accumulation near 500.", Source: models.InsightFromModel, LatencyMs: 120}, got)
	assert.Equal(t, s.Render(insightInput()), gen.prompt)
}

func TestInsightFallback(t *testing.T) {
	cases := map[string]*fakeGenerator{
		"error": {err: fmt.Errorf("%w: rate limited", models.ErrGenerationFailed)},
		"empty": {text: "   "},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewInsightService(summary.New(), gen, logger.Nop(), WithFallback("no insight"))
			got := s.Generate(context.Background(), insightInput())
			assert.Equal(t, "no insight", got.Text)
			assert.Equal(t, models.InsightFromFallback, got.Source)
			assert.GreaterOrEqual(t, got.LatencyMs, int64(0))
		})
	}
}

func TestInsightWithoutGenerator(t *testing.T) {
	s := NewInsightService(summary.New(), nil, nil)
	got := s.Generate(context.Background(), insightInput())
	require.Equal(t, models.InsightFromFallback, got.Source)
	assert.Equal(t, DefaultFallbackInsight, got.Text)
}

func TestInsightTimeoutFallsBack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	gen := &fakeGenerator{err: fmt.Errorf("%w: %w", models.ErrGenerationFailed, ctx.Err())}
	got := NewInsightService(summary.New(), gen, logger.Nop()).Generate(ctx, insightInput())
	assert.Equal(t, models.InsightFromFallback, got.Source)
	assert.True(t, errors.Is(gen.err, context.DeadlineExceeded))
}
