package usecase

import (
	"context"
	"errors"
	"time"

	"TradeYodha/internal/domain/models"
	"TradeYodha/pkg/logger"
)

// SnapshotReport is the output of one scheduled run.
type SnapshotReport struct {
	Scope    Scope                   `json:"scope"`
	Flow     *models.FlowSummary     `json:"flow,omitempty"`
	Gaps     *models.GapReport       `json:"gaps,omitempty"`
	DarkPool *models.DarkPoolSummary `json:"darkPool,omitempty"`
	Summary  string                  `json:"summary"`
	Errors   map[string]string       `json:"errors,omitempty"`
}

// SnapshotRunner computes every signal for one scope in a single pass. Each
// signal fails on its own; the report carries whatever succeeded.
type SnapshotRunner struct {
	engine  *SignalEngine
	scopes  *ScopeResolver
	insight *InsightService
	window  time.Duration
	topK    int
	log     *logger.Logger
}

func NewSnapshotRunner(engine *SignalEngine, scopes *ScopeResolver, insight *InsightService, window time.Duration, topK int, log *logger.Logger) *SnapshotRunner {
	if log == nil {
		log = logger.Nop()
	}
	return &SnapshotRunner{
		engine:  engine,
		scopes:  scopes,
		insight: insight,
		window:  window,
		topK:    topK,
		log:     log.With(logger.String("component", "snapshot_runner")),
	}
}

// Run returns an error only when the scope cannot be resolved or when every
// signal failed.
func (r *SnapshotRunner) Run(ctx context.Context, rawTickers string) (SnapshotReport, error) {
	scope, err := r.scopes.Resolve(ctx, rawTickers, "")
	if err != nil {
		return SnapshotReport{}, err
	}
	rep := SnapshotReport{Scope: scope, Errors: map[string]string{}}
	var errs []error

	if fs, err := r.engine.FlowSummary(ctx, scope); err != nil {
		rep.Errors[KindFlowSummary] = err.Error()
		errs = append(errs, err)
	} else {
		rep.Flow = &fs
	}

	if gr, err := r.engine.OvernightGaps(ctx, scope, r.topK); err != nil {
		rep.Errors[KindOvernightGaps] = err.Error()
		errs = append(errs, err)
	} else {
		rep.Gaps = &gr
	}

	if r.engine.HasPrintSource() {
		if dp, err := r.engine.DarkPoolSummary(ctx, scope, r.window); err != nil {
			rep.Errors[KindDarkPoolSummary] = err.Error()
			errs = append(errs, err)
		} else {
			rep.DarkPool = &dp
		}
	}

	rep.Summary = r.insight.Render(models.InsightContext{
		Scope:    scope.Label,
		DarkPool: rep.DarkPool,
		Flow:     rep.Flow,
		Gaps:     rep.Gaps,
	})

	r.log.Info("snapshot complete",
		logger.String("scope", scope.Label),
		logger.Strings("tickers", scope.Tickers),
		logger.Int("failed", len(rep.Errors)),
	)
	if rep.Flow == nil && rep.Gaps == nil && rep.DarkPool == nil {
		return rep, errors.Join(errs...)
	}
	return rep, nil
}
