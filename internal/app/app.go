// Package app wires the price source, engine, optimizer, simulator, archive
// and reviewer together from configuration. The CLI and the HTTP API both
// drive it.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/newthinker/crossover/internal/backtest"
	"github.com/newthinker/crossover/internal/collector"
	"github.com/newthinker/crossover/internal/collector/cache"
	"github.com/newthinker/crossover/internal/collector/csvfile"
	"github.com/newthinker/crossover/internal/collector/yahoo"
	"github.com/newthinker/crossover/internal/config"
	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/llm"
	"github.com/newthinker/crossover/internal/llm/factory"
	"github.com/newthinker/crossover/internal/montecarlo"
	"github.com/newthinker/crossover/internal/optimizer"
	"github.com/newthinker/crossover/internal/report"
	"github.com/newthinker/crossover/internal/review"
	"github.com/newthinker/crossover/internal/storage/archive"
	"go.uber.org/zap"
)

// Recorder is everything the pipeline reports to metrics.
type Recorder interface {
	backtest.Recorder
	optimizer.Recorder
	montecarlo.Recorder
	cache.Recorder
}

// App is the main application orchestrator
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	collectors *collector.Registry
	source     collector.Collector
	store      archive.Storage
	results    *archive.Results
	engine     *backtest.Engine
	optimizer  *optimizer.Optimizer
	simulator  *montecarlo.Simulator
	reviewer   *review.Reviewer

	recorder Recorder
	provider llm.Provider
}

// Option configures an App.
type Option func(*App)

// WithRecorder reports run outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(a *App) { a.recorder = r }
}

// WithSource replaces the configured price source.
func WithSource(c collector.Collector) Option {
	return func(a *App) { a.source = c }
}

// WithStorage replaces the configured archive backend.
func WithStorage(s archive.Storage) Option {
	return func(a *App) { a.store = s }
}

// WithProvider replaces the configured review model.
func WithProvider(p llm.Provider) Option {
	return func(a *App) { a.provider = p }
}

// New builds an App from cfg.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:        cfg,
		logger:     logger,
		collectors: collector.NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		store, err := archive.Open(archive.Options{
			Type: cfg.Storage.Type,
			Path: cfg.Storage.Path,
			S3: archive.S3Config{
				Bucket:    cfg.Storage.S3.Bucket,
				Endpoint:  cfg.Storage.S3.Endpoint,
				Region:    cfg.Storage.S3.Region,
				AccessKey: cfg.Storage.S3.AccessKey,
				SecretKey: cfg.Storage.S3.SecretKey,
				Prefix:    cfg.Storage.S3.Prefix,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		a.store = store
	}
	a.results = archive.NewResults(a.store)

	if a.source == nil {
		src, err := a.buildSource()
		if err != nil {
			return nil, err
		}
		a.source = src
	}

	var (
		engineOpts = []backtest.Option{backtest.WithLogger(logger.Named("engine"))}
		optOpts    = []optimizer.Option{optimizer.WithLogger(logger.Named("optimizer"))}
		mcOpts     = []montecarlo.Option{montecarlo.WithLogger(logger.Named("montecarlo"))}
	)
	if a.recorder != nil {
		engineOpts = append(engineOpts, backtest.WithRecorder(a.recorder))
		optOpts = append(optOpts, optimizer.WithRecorder(a.recorder))
		mcOpts = append(mcOpts, montecarlo.WithRecorder(a.recorder))
	}
	if cfg.Optimizer.Workers > 0 {
		optOpts = append(optOpts, optimizer.WithWorkers(cfg.Optimizer.Workers))
	}
	if cfg.MonteCarlo.Workers > 0 {
		mcOpts = append(mcOpts, montecarlo.WithWorkers(cfg.MonteCarlo.Workers))
	}
	a.engine = backtest.New(engineOpts...)
	a.optimizer = optimizer.New(a.engine, optOpts...)
	a.simulator = montecarlo.New(mcOpts...)

	if a.provider == nil && cfg.LLM.Provider != "" {
		p, err := factory.New(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("creating llm provider: %w", err)
		}
		a.provider = p
	}
	if a.provider != nil {
		a.reviewer = review.New(a.provider, logger.Named("review"))
	}

	return a, nil
}

// buildSource registers the known collectors and picks the configured one,
// wrapped in the archive cache for remote providers.
func (a *App) buildSource() (collector.Collector, error) {
	src := a.cfg.Source

	var yopts []yahoo.Option
	if src.BaseURL != "" {
		yopts = append(yopts, yahoo.WithBaseURL(src.BaseURL))
	}
	if src.Timeout > 0 {
		yopts = append(yopts, yahoo.WithTimeout(src.Timeout))
	}
	a.collectors.Register(yahoo.New(yopts...))
	if src.CSVPath != "" {
		a.collectors.Register(csvfile.New(src.CSVPath))
	}

	c, err := a.collectors.MustGet(src.Provider)
	if err != nil {
		return nil, err
	}
	if c.Name() == "csv" || src.CacheTTL <= 0 {
		return c, nil
	}

	copts := []cache.Option{cache.WithTTL(src.CacheTTL), cache.WithLogger(a.logger.Named("cache"))}
	if a.recorder != nil {
		copts = append(copts, cache.WithRecorder(a.recorder))
	}
	return cache.New(c, a.store, copts...), nil
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Symbol is the configured instrument.
func (a *App) Symbol() string { return a.cfg.Source.Symbol }

// CanReview reports whether a review provider is configured.
func (a *App) CanReview() bool { return a.reviewer != nil }

// Range limits the price history used. Empty fields fall back to the
// configured start and today.
type Range struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Prices fetches the configured symbol over r.
func (a *App) Prices(ctx context.Context, r Range) ([]core.PriceBar, error) {
	startStr := r.Start
	if startStr == "" {
		startStr = a.cfg.Source.Start
	}
	var start, end time.Time
	var err error
	if startStr != "" {
		if start, err = core.ParseDate(startStr); err != nil {
			return nil, core.Errorf(core.ErrInvalidParameters, "start: %v", err)
		}
	}
	if r.End != "" {
		if end, err = core.ParseDate(r.End); err != nil {
			return nil, core.Errorf(core.ErrInvalidParameters, "end: %v", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, core.Errorf(core.ErrInvalidParameters, "end %s precedes start %s", r.End, startStr)
	}

	bars, err := a.source.FetchHistory(ctx, a.Symbol(), start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, core.Errorf(core.ErrNoData, "%s has no closes in range", a.Symbol())
	}
	a.logger.Debug("prices loaded",
		zap.String("symbol", a.Symbol()),
		zap.String("source", a.source.Name()),
		zap.Int("bars", len(bars)),
	)
	return bars, nil
}

// BacktestRequest asks for one simulation.
type BacktestRequest struct {
	Range
	Params  backtest.Parameters `json:"params"`
	Archive bool                `json:"archive,omitempty"`
	Review  bool                `json:"review,omitempty"`
}

// NewBacktestRequest returns a request carrying the configured defaults.
func (a *App) NewBacktestRequest() BacktestRequest {
	return BacktestRequest{Params: a.cfg.Engine}
}

// Backtest runs one simulation and, on request, archives and reviews it.
func (a *App) Backtest(ctx context.Context, req BacktestRequest) (*report.Run, error) {
	bars, err := a.Prices(ctx, req.Range)
	if err != nil {
		return nil, err
	}
	res, err := a.engine.Run(ctx, bars, req.Params)
	if err != nil {
		return nil, err
	}
	run := report.FromResult(res)

	if req.Review {
		rv, err := a.review(ctx, bars, res)
		if err != nil {
			return nil, err
		}
		run.Review = rv
	}

	if req.Archive {
		id, err := a.results.Save(ctx, "backtest", run)
		if err != nil {
			return nil, fmt.Errorf("archiving result: %w", err)
		}
		run.ArchiveID = id
		a.logger.Info("backtest archived", zap.String("id", id))
	}
	return run, nil
}

// review gathers the optimizer and Monte Carlo context for res using the
// configured defaults. Either may be missing when the series is too short.
func (a *App) review(ctx context.Context, bars []core.PriceBar, res *backtest.Result) (*review.Review, error) {
	if a.reviewer == nil {
		return nil, core.Errorf(core.ErrConfigMissing, "review requested but no llm provider is configured")
	}
	in := review.Input{Symbol: a.Symbol(), Run: res}

	opt, err := a.optimizer.Run(ctx, bars, res.Params, a.cfg.Optimizer.Search)
	switch {
	case err == nil:
		in.Optimize = opt
	case errors.Is(err, core.ErrInsufficientData):
		a.logger.Debug("review without optimizer context", zap.Error(err))
	default:
		return nil, err
	}

	mc, err := a.simulate(ctx, res, a.cfg.MonteCarlo.Config)
	switch {
	case err == nil:
		in.MonteCarlo = mc
	case errors.Is(err, core.ErrInsufficientData):
		a.logger.Debug("review without monte carlo context", zap.Error(err))
	default:
		return nil, err
	}

	return a.reviewer.Review(ctx, in)
}

// OptimizeRequest asks for a window search.
type OptimizeRequest struct {
	Range
	Params backtest.Parameters `json:"params"`
	Search optimizer.Search    `json:"search"`
}

// NewOptimizeRequest returns a request carrying the configured defaults.
func (a *App) NewOptimizeRequest() OptimizeRequest {
	return OptimizeRequest{Params: a.cfg.Engine, Search: a.cfg.Optimizer.Search}
}

// Optimize ranks indicator windows on the configured series.
func (a *App) Optimize(ctx context.Context, req OptimizeRequest) (*report.Optimize, error) {
	bars, err := a.Prices(ctx, req.Range)
	if err != nil {
		return nil, err
	}
	res, err := a.optimizer.Run(ctx, bars, req.Params, req.Search)
	if err != nil {
		return nil, err
	}
	return report.FromOptimize(res), nil
}

// MonteCarloRequest asks for a backtest followed by resampling of its daily
// returns.
type MonteCarloRequest struct {
	Range
	Params     backtest.Parameters `json:"params"`
	MonteCarlo montecarlo.Config   `json:"montecarlo"`
}

// NewMonteCarloRequest returns a request carrying the configured defaults.
func (a *App) NewMonteCarloRequest() MonteCarloRequest {
	return MonteCarloRequest{Params: a.cfg.Engine, MonteCarlo: a.cfg.MonteCarlo.Config}
}

// MonteCarlo runs the backtest then resamples its capital curve.
func (a *App) MonteCarlo(ctx context.Context, req MonteCarloRequest) (*report.MonteCarlo, error) {
	bars, err := a.Prices(ctx, req.Range)
	if err != nil {
		return nil, err
	}
	res, err := a.engine.Run(ctx, bars, req.Params)
	if err != nil {
		return nil, err
	}
	mc, err := a.simulate(ctx, res, req.MonteCarlo)
	if err != nil {
		return nil, err
	}
	return report.FromMonteCarlo(mc), nil
}

func (a *App) simulate(ctx context.Context, res *backtest.Result, cfg montecarlo.Config) (*montecarlo.Result, error) {
	capital := make([]float64, len(res.Equity))
	for i, pt := range res.Equity {
		capital[i] = pt.Capital
	}
	return a.simulator.Run(ctx, capital, res.Params.InitialCapital, cfg)
}

// Market reports the latest crossover reading. window <= 0 uses the
// configured indicator window.
func (a *App) Market(ctx context.Context, window int) (*report.Market, error) {
	if window <= 0 {
		window = a.cfg.Engine.IndicatorWindow
	}
	bars, err := a.Prices(ctx, Range{})
	if err != nil {
		return nil, err
	}
	st, err := backtest.CurrentStatus(bars, window)
	if err != nil {
		return nil, err
	}
	return report.FromMarket(a.Symbol(), window, st), nil
}

// LoadResult reads an archived report.
func (a *App) LoadResult(ctx context.Context, id string) (*archive.SavedResult, error) {
	return a.results.Load(ctx, id)
}

// ListResults returns the ids of every archived report.
func (a *App) ListResults(ctx context.Context) ([]string, error) {
	ids, err := a.results.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}

// DeleteResult removes an archived report.
func (a *App) DeleteResult(ctx context.Context, id string) error {
	if err := a.results.Delete(ctx, id); err != nil {
		return err
	}
	a.logger.Info("result deleted", zap.String("id", id))
	return nil
}
