package montecarlo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/newthinker/crossover/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu     sync.Mutex
	rounds int
	guards []string
}

func (f *fakeRecorder) RecordMonteCarloRounds(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds += n
}

func (f *fakeRecorder) RecordDivisionGuard(site string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guards = append(f.guards, site)
}

var path = []float64{1_000_000, 1_010_000, 995_000, 1_020_000, 1_030_000, 1_001_000, 1_050_000, 1_040_000}

func TestReturns(t *testing.T) {
	got := Returns([]float64{100, 110, 99}, nil)
	assert.InDeltaSlice(t, []float64{0.1, -0.1}, got, 1e-12)

	assert.Nil(t, Returns([]float64{100}, nil))
}

func TestReturns_ZeroDenominator(t *testing.T) {
	var diag core.Diagnostics
	got := Returns([]float64{0, 5, 10}, &diag)

	assert.InDeltaSlice(t, []float64{5, 1}, got, 1e-12)
	require.Equal(t, 1, diag.Count())
	assert.Equal(t, core.GuardDailyReturn, diag.Guards[0].Site)
}

func TestSimulator_Reproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rounds = 300

	first, err := New(WithWorkers(1)).Run(context.Background(), path, 1_000_000, cfg)
	require.NoError(t, err)
	second, err := New(WithWorkers(8)).Run(context.Background(), path, 1_000_000, cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Terminal, second.Terminal)
	assert.Equal(t, first.Histogram, second.Histogram)
	assert.Equal(t, first.SamplePaths, second.SamplePaths)
}

func TestSimulator_SeedChangesOutcome(t *testing.T) {
	cfg := DefaultConfig()
	a, err := New().Run(context.Background(), path, 1_000_000, cfg)
	require.NoError(t, err)

	cfg.Seed = 7
	b, err := New().Run(context.Background(), path, 1_000_000, cfg)
	require.NoError(t, err)

	assert.NotEqual(t, a.Terminal, b.Terminal)
}

func TestSimulator_Shape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rounds = 120
	cfg.SamplePaths = 10
	rec := &fakeRecorder{}

	res, err := New(WithRecorder(rec)).Run(context.Background(), path, 500_000, cfg)
	require.NoError(t, err)

	assert.Equal(t, len(path)-1, res.Returns)
	assert.Len(t, res.Terminal, 120)
	require.Len(t, res.SamplePaths, 10)
	for i, p := range res.SamplePaths {
		require.Len(t, p, len(path))
		assert.Equal(t, 500_000.0, p[0])
		assert.Equal(t, res.Terminal[i], p[len(p)-1])
	}

	var total int
	for _, b := range res.Histogram {
		total += b.Count
		assert.Less(t, b.Lower, b.Upper)
	}
	assert.Equal(t, len(res.Trimmed), total)
	assert.Less(t, len(res.Trimmed), len(res.Terminal))
	assert.Equal(t, 120, rec.rounds)
}

func TestSimulator_ConstantPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rounds = 10

	res, err := New().Run(context.Background(), []float64{100, 100, 100}, 1_000, cfg)
	require.NoError(t, err)

	for _, v := range res.Terminal {
		assert.Equal(t, 1_000.0, v)
	}
	require.Len(t, res.Histogram, 10)
	assert.Equal(t, Bucket{Lower: 1_000, Upper: 2_000, Count: 10}, res.Histogram[1])
	assert.Equal(t, 1_000.0, res.Percentile(50))
	assert.Equal(t, 1_000.0, res.Mean())
}

func TestSimulator_Errors(t *testing.T) {
	_, err := New().Run(context.Background(), []float64{1, 2}, 1, DefaultConfig())
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	cfg := DefaultConfig()
	cfg.Rounds = 0
	_, err = New().Run(context.Background(), path, 1, cfg)
	assert.True(t, errors.Is(err, core.ErrInvalidParameters))

	cfg = DefaultConfig()
	cfg.RemoveLowPct = 60
	_, err = New().Run(context.Background(), path, 1, cfg)
	assert.True(t, errors.Is(err, core.ErrInvalidParameters))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"no sample paths", func(c *Config) { c.SamplePaths = 0 }, false},
		{"max sample paths", func(c *Config) { c.SamplePaths = 200 }, false},
		{"too many sample paths", func(c *Config) { c.SamplePaths = 201 }, true},
		{"negative sample paths", func(c *Config) { c.SamplePaths = -1 }, true},
		{"too many buckets", func(c *Config) { c.Buckets = 1001 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, core.ErrInvalidParameters), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSimulator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Run(ctx, path, 1, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulator_GuardIsRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	cfg := DefaultConfig()
	cfg.Rounds = 5

	res, err := New(WithRecorder(rec)).Run(context.Background(), []float64{0, 10, 20}, 100, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Diagnostics.Count())
	assert.Equal(t, []string{core.GuardDailyReturn}, rec.guards)
}
