// Package optimizer searches indicator windows by running one independent
// backtest per candidate.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sort"

	"github.com/newthinker/crossover/internal/backtest"
	"github.com/newthinker/crossover/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWindows is the candidate set used when none is configured.
var DefaultWindows = []int{5, 10, 15, 20, 30, 60}

// DefaultTopN is how many ranked candidates are reported by default.
const DefaultTopN = 3

// Candidate outcomes reported to the Recorder.
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Runner runs a single backtest. *backtest.Engine satisfies it.
type Runner interface {
	Run(ctx context.Context, bars []core.PriceBar, params backtest.Parameters) (*backtest.Result, error)
}

// Recorder receives per-candidate outcomes.
type Recorder interface {
	RecordCandidate(outcome string)
}

// Search selects the candidate windows. Windows wins over the range; an
// empty Search uses DefaultWindows.
type Search struct {
	Windows []int `mapstructure:"windows" json:"windows,omitempty"`
	Min     int   `mapstructure:"min" json:"min,omitempty"`
	Max     int   `mapstructure:"max" json:"max,omitempty"`
	Step    int   `mapstructure:"step" json:"step,omitempty"`
	TopN    int   `mapstructure:"top_n" json:"topN,omitempty"`
}

// Candidates expands the search into an ordered, de-duplicated window list.
func (s Search) Candidates() ([]int, error) {
	var raw []int
	switch {
	case len(s.Windows) > 0:
		raw = s.Windows
	case s.Max > 0:
		step := s.Step
		if step == 0 {
			step = 1
		}
		if step < 0 || s.Min > s.Max {
			return nil, core.Errorf(core.ErrInvalidParameters, "invalid window range %d..%d step %d", s.Min, s.Max, s.Step)
		}
		for w := s.Min; w <= s.Max; w += step {
			raw = append(raw, w)
		}
	default:
		raw = DefaultWindows
	}

	seen := make(map[int]bool, len(raw))
	out := make([]int, 0, len(raw))
	for _, w := range raw {
		if w < 2 {
			return nil, core.Errorf(core.ErrInvalidParameters, "candidate window %d is below 2", w)
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out, nil
}

// Ranked is one completed candidate, in ranking order.
type Ranked struct {
	Rank              int
	Window            int
	TotalReturnPct    float64
	MaxDrawdownPct    float64
	WinRatePct        float64
	TradeCount        int
	FinalAssets       float64
	AvgReturnPerTrade float64
}

// Skipped is a candidate that could not be evaluated on the series.
type Skipped struct {
	Window int
	Reason string
}

// Result holds the ranked candidates. All is sorted by total return
// descending, ties kept in candidate order; Top is its first TopN entries.
type Result struct {
	Top     []Ranked
	All     []Ranked
	Skipped []Skipped
}

// Optimizer fans candidate runs out over a bounded worker pool.
type Optimizer struct {
	runner   Runner
	logger   *zap.Logger
	recorder Recorder
	workers  int
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Optimizer) { o.recorder = r }
}

// WithWorkers bounds the number of concurrent runs. Values below 1 use
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.workers = n
		}
	}
}

// New creates an Optimizer over runner.
func New(runner Runner, opts ...Option) *Optimizer {
	o := &Optimizer{
		runner:  runner,
		logger:  zap.NewNop(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type outcome struct {
	summary *backtest.Summary
	skipped string
}

// Run evaluates every candidate window with base parameters otherwise
// unchanged. Candidates without enough bars for their window are skipped;
// any other run error aborts the search.
func (o *Optimizer) Run(ctx context.Context, bars []core.PriceBar, base backtest.Parameters, search Search) (*Result, error) {
	windows, err := search.Candidates()
	if err != nil {
		return nil, err
	}
	topN := search.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	slots := make([]outcome, len(windows))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, w := range windows {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res, err := o.runner.Run(gCtx, slices.Clone(bars), base.WithWindow(w))
			switch {
			case err == nil:
				slots[i].summary = &res.Summary
				o.record(OutcomeCompleted)
			case errors.Is(err, core.ErrInsufficientData):
				slots[i].skipped = err.Error()
				o.record(OutcomeSkipped)
			default:
				o.record(OutcomeFailed)
				return fmt.Errorf("window %d: %w", w, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{}
	for i, w := range windows {
		slot := slots[i]
		if slot.summary == nil {
			o.logger.Info("candidate skipped", zap.Int("window", w), zap.String("reason", slot.skipped))
			result.Skipped = append(result.Skipped, Skipped{Window: w, Reason: slot.skipped})
			continue
		}
		s := slot.summary
		result.All = append(result.All, Ranked{
			Window:            w,
			TotalReturnPct:    s.TotalReturnPct,
			MaxDrawdownPct:    s.MaxDrawdownPct,
			WinRatePct:        s.WinRatePct,
			TradeCount:        s.TradeCount,
			FinalAssets:       s.FinalAssets,
			AvgReturnPerTrade: s.TotalReturnPct / float64(max(s.TradeCount, 1)),
		})
	}
	if len(result.All) == 0 {
		return nil, core.Errorf(core.ErrInsufficientData, "none of %d candidate windows fit %d bars", len(windows), len(bars))
	}

	sort.SliceStable(result.All, func(i, j int) bool {
		return result.All[i].TotalReturnPct > result.All[j].TotalReturnPct
	})
	for i := range result.All {
		result.All[i].Rank = i + 1
	}
	result.Top = result.All[:min(topN, len(result.All))]

	o.logger.Debug("optimization complete",
		zap.Int("candidates", len(windows)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("best_window", result.Top[0].Window),
	)
	return result, nil
}

func (o *Optimizer) record(outcome string) {
	if o.recorder != nil {
		o.recorder.RecordCandidate(outcome)
	}
}
