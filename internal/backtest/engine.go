package backtest

import (
	"context"
	"time"

	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/indicator"
	"go.uber.org/zap"
)

// Recorder receives run-level measurements. The metrics registry implements
// it; a nil Recorder is allowed.
type Recorder interface {
	RecordBacktest(status string, duration float64)
	RecordDivisionGuard(site string)
}

// Analytics holds the calendar breakdowns derived from a run.
type Analytics struct {
	YearlyReturns            []PeriodReturn
	MonthlyReturns           []PeriodReturn
	YearlyIndexReturns       []PeriodReturn
	MonthlyIndexReturns      []PeriodReturn
	MonthlyIndexDistribution []ReturnBucket
	YearlyMaxDrawdown        []YearDrawdown
	LotsByYear               []YearLots
	WorstDrawdown            DrawdownDetail
}

// Engine runs the moving-average crossover simulation. It keeps no state
// between runs and is safe for concurrent use.
type Engine struct {
	logger   *zap.Logger
	recorder Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// New creates a new Engine
func New(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run simulates params over bars. bars must be sorted by date with unique
// days; the first IndicatorWindow-1 bars only warm up the average.
func (e *Engine) Run(ctx context.Context, bars []core.PriceBar, params Parameters) (*Result, error) {
	start := time.Now()
	result, err := e.run(ctx, bars, params)

	status := "success"
	if err != nil {
		status = "failed"
	}
	if e.recorder != nil {
		e.recorder.RecordBacktest(status, time.Since(start).Seconds())
	}
	if err != nil {
		e.logger.Debug("backtest failed", zap.Int("window", params.IndicatorWindow), zap.Error(err))
		return nil, err
	}

	for _, g := range result.Diagnostics.Guards {
		e.logger.Warn("division guard substituted",
			zap.String("site", g.Site),
			zap.Int("index", g.Index),
			zap.String("date", core.FormatDate(g.Date)),
			zap.String("detail", g.Message),
		)
		if e.recorder != nil {
			e.recorder.RecordDivisionGuard(g.Site)
		}
	}
	e.logger.Debug("backtest complete",
		zap.Int("window", params.IndicatorWindow),
		zap.String("mode", string(params.TradeMode)),
		zap.Int("bars", len(result.Equity)),
		zap.Int("trades", result.Summary.TradeCount),
		zap.Float64("final_assets", result.Summary.FinalAssets),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (e *Engine) run(ctx context.Context, bars []core.PriceBar, params Parameters) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateSeries(bars); err != nil {
		return nil, err
	}

	usable, ma, err := indicator.Trim(bars, params.IndicatorWindow)
	if err != nil {
		return nil, err
	}

	sim := newSimulation(params, len(usable))
	last := len(usable) - 1
	for i, bar := range usable {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		sim.step(i, core.PriceBar{Date: core.Day(bar.Date), Close: bar.Close}, ma[i], i == last)
	}

	return sim.result(), nil
}
