package usecase

import (
	"context"
	"strings"
	"time"

	"TradeYodha/internal/domain/models"
	domrepo "TradeYodha/internal/domain/repository"
	domsvc "TradeYodha/internal/domain/service"
	"TradeYodha/internal/services/summary"
	"TradeYodha/pkg/logger"
)

const DefaultFallbackInsight = "Dark pool activity summary is temporarily unavailable. " +
	"Review the levels and size distribution above for institutional positioning."

// InsightService renders a summary and asks the generator to narrate it. It
// never returns an error: any generator failure yields the fallback text.
type InsightService struct {
	formatter *summary.Formatter
	generator domsvc.InsightGenerator
	fallback  string
	log       *logger.Logger
	metrics   domrepo.Metrics
	now       func() time.Time
}

type InsightOption func(*InsightService)

func WithFallback(text string) InsightOption {
	return func(s *InsightService) {
		if strings.TrimSpace(text) != "" {
			s.fallback = text
		}
	}
}

func WithInsightMetrics(m domrepo.Metrics) InsightOption {
	return func(s *InsightService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithInsightClock(now func() time.Time) InsightOption {
	return func(s *InsightService) { s.now = now }
}

// NewInsightService accepts a nil generator; every request then gets the fallback.
func NewInsightService(f *summary.Formatter, gen domsvc.InsightGenerator, log *logger.Logger, opts ...InsightOption) *InsightService {
	if log == nil {
		log = logger.Nop()
	}
	s := &InsightService{
		formatter: f,
		generator: gen,
		fallback:  DefaultFallbackInsight,
		log:       log.With(logger.String("component", "insight")),
		metrics:   nopMetrics{},
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Render exposes the formatted summary that is sent to the generator.
func (s *InsightService) Render(in models.InsightContext) string {
	return s.formatter.Render(in)
}

func (s *InsightService) Generate(ctx context.Context, in models.InsightContext) models.Insight {
	start := s.now()
	text, source := s.fallback, models.InsightFromFallback

	if s.generator != nil {
		out, err := s.generator.Generate(ctx, s.formatter.Render(in))
		switch {
		case err != nil:
			s.metrics.RecordError(models.ErrorKind(err))
			s.log.Warn("insight generation failed, serving fallback",
				logger.String("scope", in.Scope),
				logger.Error(err),
			)
		case strings.TrimSpace(out) == "":
			s.log.Warn("insight generation returned empty text, serving fallback", logger.String("scope", in.Scope))
		default:
			text, source = strings.TrimSpace(out), models.InsightFromModel
		}
	}

	elapsed := s.now().Sub(start)
	s.metrics.RecordInsight(string(source))
	s.metrics.RecordLatency("insight", elapsed.Seconds())
	return models.Insight{Text: text, Source: source, LatencyMs: elapsed.Milliseconds()}
}
