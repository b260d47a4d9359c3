// Package montecarlo resamples the daily returns of a realized equity path
// to estimate the spread of terminal capital.
package montecarlo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/newthinker/crossover/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// minPoints is the shortest capital path worth resampling.
const minPoints = 3

// Config controls one simulation.
type Config struct {
	Rounds        int     `mapstructure:"rounds" json:"rounds" validate:"gte=1,lte=100000"`
	Seed          int64   `mapstructure:"seed" json:"seed"`
	RemoveLowPct  float64 `mapstructure:"remove_low_pct" json:"removeLowPct" validate:"gte=0,lt=50"`
	RemoveHighPct float64 `mapstructure:"remove_high_pct" json:"removeHighPct" validate:"gte=0,lt=50"`
	BucketSize    float64 `mapstructure:"bucket_size" json:"bucketSize" validate:"gt=0"`
	Buckets       int     `mapstructure:"buckets" json:"buckets" validate:"gte=1,lte=1000"`
	SamplePaths   int     `mapstructure:"sample_paths" json:"samplePaths" validate:"gte=0,lte=200"`
}

// DefaultConfig returns 500 rounds with seed 42, 5% trimmed from each tail
// and ten 10,000-wide histogram buckets.
func DefaultConfig() Config {
	return Config{
		Rounds:        500,
		Seed:          42,
		RemoveLowPct:  5,
		RemoveHighPct: 5,
		BucketSize:    10_000,
		Buckets:       10,
		SamplePaths:   50,
	}
}

var configValidate = validator.New()

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return core.WrapError(core.ErrInvalidParameters, fmt.Errorf("%s", strings.Join(msgs, "; ")))
	}
	return nil
}

// Recorder receives simulation measurements.
type Recorder interface {
	RecordMonteCarloRounds(n int)
	RecordDivisionGuard(site string)
}

// Bucket is one histogram bin. The last bin includes its upper bound.
type Bucket struct {
	Lower float64
	Upper float64
	Count int
}

// Result is the outcome of a simulation.
type Result struct {
	Config      Config
	Returns     int         // size of the daily return pool
	Terminal    []float64   // untrimmed terminal capital, in round order
	Trimmed     []float64   // Terminal within the percentile cut, in round order
	Histogram   []Bucket    // histogram of Trimmed
	SamplePaths [][]float64 // full paths of the first SamplePaths rounds
	Diagnostics core.Diagnostics
}

// Percentile queries the untrimmed terminal values.
func (r *Result) Percentile(p float64) float64 {
	sorted := slices.Clone(r.Terminal)
	slices.Sort(sorted)
	return Percentile(sorted, p)
}

// Mean of the untrimmed terminal values.
func (r *Result) Mean() float64 {
	if len(r.Terminal) == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.Terminal {
		sum += v
	}
	return sum / float64(len(r.Terminal))
}

// Simulator runs rounds concurrently. Each round owns a generator seeded
// from (seed, round), so results do not depend on scheduling.
type Simulator struct {
	logger   *zap.Logger
	recorder Recorder
	workers  int
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

// WithWorkers bounds the number of concurrent rounds.
func WithWorkers(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a Simulator.
func New(opts ...Option) *Simulator {
	s := &Simulator{logger: zap.NewNop(), workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Returns computes the daily returns of a capital path. A zero prior
// value is replaced by 1 and recorded in diag.
func Returns(capital []float64, diag *core.Diagnostics) []float64 {
	if len(capital) < 2 {
		return nil
	}
	out := make([]float64, len(capital)-1)
	for i := 1; i < len(capital); i++ {
		prev := capital[i-1]
		if prev == 0 {
			diag.Guard(core.GuardDailyReturn, i, time.Time{}, "capital at %d is 0, denominator replaced by 1", i-1)
			prev = 1
		}
		out[i-1] = (capital[i] - capital[i-1]) / prev
	}
	return out
}

// Run resamples the returns of capital, compounding each synthetic path
// from initialCapital.
func (s *Simulator) Run(ctx context.Context, capital []float64, initialCapital float64, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(capital) < minPoints {
		return nil, core.Errorf(core.ErrInsufficientData, "need at least %d capital points, got %d", minPoints, len(capital))
	}

	res := &Result{Config: cfg}
	pool := Returns(capital, &res.Diagnostics)
	steps := len(pool)
	res.Returns = steps

	res.Terminal = make([]float64, cfg.Rounds)
	res.SamplePaths = make([][]float64, min(cfg.SamplePaths, cfg.Rounds))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for round := range cfg.Rounds {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(round)))

			var path []float64
			if round < len(res.SamplePaths) {
				path = make([]float64, 0, steps+1)
				path = append(path, initialCapital)
			}
			value := initialCapital
			for range steps {
				value *= 1 + pool[rng.IntN(steps)]
				if path != nil {
					path = append(path, value)
				}
			}

			res.Terminal[round] = value
			if path != nil {
				res.SamplePaths[round] = path
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.RecordMonteCarloRounds(cfg.Rounds)
	}

	res.Trimmed = Trim(res.Terminal, cfg.RemoveLowPct, cfg.RemoveHighPct)
	res.Histogram = Histogram(res.Trimmed, cfg.BucketSize, cfg.Buckets)

	for _, ev := range res.Diagnostics.Guards {
		s.logger.Warn("division guard substituted", zap.String("site", ev.Site), zap.Int("index", ev.Index), zap.String("detail", ev.Message))
		if s.recorder != nil {
			s.recorder.RecordDivisionGuard(ev.Site)
		}
	}
	s.logger.Debug("monte carlo complete",
		zap.Int("rounds", cfg.Rounds),
		zap.Int("steps", steps),
		zap.Int("kept", len(res.Trimmed)),
	)
	return res, nil
}
