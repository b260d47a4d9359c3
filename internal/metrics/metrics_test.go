package metrics

import (
	"testing"

	"github.com/newthinker/crossover/internal/backtest"
	"github.com/newthinker/crossover/internal/montecarlo"
	"github.com/newthinker/crossover/internal/optimizer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ backtest.Recorder   = (*Registry)(nil)
	_ optimizer.Recorder  = (*Registry)(nil)
	_ montecarlo.Recorder = (*Registry)(nil)
	_ prometheus.Gatherer = (*Registry)(nil)
)

func TestNewRegistry_GathersRuntimeMetrics(t *testing.T) {
	reg := NewRegistry()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func TestRegistry_RecordRequest_StatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{100, "1xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{422, "4xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			reg := NewRegistry()
			reg.RecordRequest("POST", "POST /api/backtest", tt.status, 0.01)

			got := testutil.ToFloat64(reg.httpRequestsTotal.WithLabelValues("POST", "POST /api/backtest", tt.want))
			assert.Equal(t, 1.0, got, "status %d", tt.status)
		})
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.httpRequestsInFlight))
}

func TestRegistry_DurationHistogram(t *testing.T) {
	reg := NewRegistry()
	reg.RecordRequest("POST", "/api/optimize", 200, 0.123)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range mfs {
		if mf.GetName() != "http_request_duration_seconds" {
			continue
		}
		found = true
		hist := mf.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(1), hist.GetSampleCount())
		assert.InDelta(t, 0.123, hist.GetSampleSum(), 1e-9)
	}
	assert.True(t, found, "expected http_request_duration_seconds")
}

func TestRegistry_BusinessMetrics(t *testing.T) {
	reg := NewRegistry()

	reg.RecordBacktest("success", 0.02)
	reg.RecordBacktest("success", 0.03)
	reg.RecordBacktest("failed", 0.001)
	reg.RecordCandidate(optimizer.OutcomeSkipped)
	reg.RecordMonteCarloRounds(500)
	reg.RecordMonteCarloRounds(250)
	reg.RecordDivisionGuard("trade_return")
	reg.RecordSourceFetch("stale")
	reg.SetJobsActive("optimize", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.backtestsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.backtestsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(reg.backtestDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.optimizerCandidates.WithLabelValues("skipped")))
	assert.Equal(t, 750.0, testutil.ToFloat64(reg.monteCarloRounds))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.divisionGuards.WithLabelValues("trade_return")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.sourceFetches.WithLabelValues("stale")))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.jobsActive.WithLabelValues("optimize")))
}
