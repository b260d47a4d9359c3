package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/crossover/internal/backtest"
	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/llm"
	"github.com/newthinker/crossover/internal/montecarlo"
	"github.com/newthinker/crossover/internal/optimizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLLM struct {
	content string
	err     error
	last    llm.ChatRequest
}

func (m *mockLLM) Name() string { return "mock" }

func (m *mockLLM) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return &llm.ChatResponse{Content: m.content}, nil
}

func sampleInput() Input {
	return Input{
		Symbol: "^TWII",
		Run: &backtest.Result{
			Params: backtest.DefaultParameters(),
			Summary: backtest.Summary{
				StartDate:      time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
				EndDate:        time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
				FinalAssets:    1_500_000,
				TotalReturnPct: 50,
				MaxDrawdownPct: -22.5,
				TradeCount:     40,
				WinRatePct:     35,
			},
			Analytics: backtest.Analytics{
				YearlyReturns: []backtest.PeriodReturn{{Period: "2020", ReturnPct: 12.5}},
			},
		},
		Optimize: &optimizer.Result{
			Top: []optimizer.Ranked{{Rank: 1, Window: 20, TotalReturnPct: 61, TradeCount: 30}},
		},
		MonteCarlo: &montecarlo.Result{Terminal: []float64{900_000, 1_200_000, 1_600_000}},
	}
}

func TestReview_JSON(t *testing.T) {
	m := &mockLLM{content: "```json\n{\"verdict\":\"marginal\",\"strengths\":[\"trend capture\"],\"risks\":[\"deep drawdown\"],\"explanation\":\"Returns depend on 2020.\"}\n```"}
	r := New(m, nil)

	got, err := r.Review(context.Background(), sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "mock", got.Provider)
	assert.Equal(t, Marginal, got.Verdict)
	assert.Equal(t, []string{"trend capture"}, got.Strengths)
	assert.Equal(t, []string{"deep drawdown"}, got.Risks)
	assert.Equal(t, "Returns depend on 2020.", got.Explanation)

	require.Len(t, m.last.Messages, 1)
	prompt := m.last.Messages[0].Content
	assert.Contains(t, prompt, "## Instrument: ^TWII")
	assert.Contains(t, prompt, "2020-01-02 ~ 2024-12-31")
	assert.Contains(t, prompt, "Moving average window: 13 days")
	assert.Contains(t, prompt, "Max drawdown: -22.50%")
	assert.Contains(t, prompt, "#1 window 20")
	assert.Contains(t, prompt, "p5 / p50 / p95")
	assert.Contains(t, prompt, "2020: 12.50%")
}

func TestReview_PlainText(t *testing.T) {
	r := New(&mockLLM{content: "Not enough trades to judge."}, nil)

	got, err := r.Review(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, Unknown, got.Verdict)
	assert.Equal(t, "Not enough trades to judge.", got.Explanation)
}

func TestReview_UnknownVerdict(t *testing.T) {
	r := New(&mockLLM{content: `{"verdict":"buy","explanation":"x"}`}, nil)

	got, err := r.Review(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, Unknown, got.Verdict)
}

func TestReview_Errors(t *testing.T) {
	_, err := New(&mockLLM{err: errors.New("boom")}, nil).Review(context.Background(), sampleInput())
	assert.ErrorIs(t, err, core.ErrReviewFailed)

	_, err = New(&mockLLM{content: "   "}, nil).Review(context.Background(), sampleInput())
	assert.ErrorIs(t, err, core.ErrReviewFailed)

	_, err = New(&mockLLM{content: "x"}, nil).Review(context.Background(), Input{})
	assert.ErrorIs(t, err, core.ErrInvalidParameters)
}

func TestBuildPrompt_RunOnly(t *testing.T) {
	in := sampleInput()
	in.Optimize = nil
	in.MonteCarlo = nil

	prompt := buildPrompt(in)
	assert.False(t, strings.Contains(prompt, "## Best windows"))
	assert.False(t, strings.Contains(prompt, "## Monte Carlo"))
}
