// Package review asks a language model for a plain-language opinion on
// whether a backtested crossover setup looks tradeable.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newthinker/crossover/internal/backtest"
	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/llm"
	"github.com/newthinker/crossover/internal/montecarlo"
	"github.com/newthinker/crossover/internal/optimizer"
	"go.uber.org/zap"
)

// Verdict is the reviewer's overall call.
type Verdict string

const (
	Viable    Verdict = "viable"
	Marginal  Verdict = "marginal"
	NotViable Verdict = "not_viable"
	Unknown   Verdict = "unknown"
)

// Review is the model's answer.
type Review struct {
	Provider    string   `json:"provider"`
	Verdict     Verdict  `json:"verdict"`
	Strengths   []string `json:"strengths,omitempty"`
	Risks       []string `json:"risks,omitempty"`
	Explanation string   `json:"explanation"`
}

// Input is what the reviewer sees. Only Run is required.
type Input struct {
	Symbol     string
	Run        *backtest.Result
	Optimize   *optimizer.Result
	MonteCarlo *montecarlo.Result
}

// Reviewer wraps an llm.Provider.
type Reviewer struct {
	llm    llm.Provider
	logger *zap.Logger
}

// New creates a reviewer.
func New(provider llm.Provider, logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{llm: provider, logger: logger}
}

// Review sends the run summary to the model. Provider failures and empty
// answers are ErrReviewFailed.
func (r *Reviewer) Review(ctx context.Context, in Input) (*Review, error) {
	if in.Run == nil {
		return nil, core.Errorf(core.ErrInvalidParameters, "review needs a backtest result")
	}

	resp, err := r.llm.Chat(ctx, llm.ChatRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: buildPrompt(in)}},
		MaxTokens:    1024,
		Temperature:  0.2,
	})
	if err != nil {
		return nil, core.WrapError(core.ErrReviewFailed, err)
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return nil, core.Errorf(core.ErrReviewFailed, "%s returned an empty answer", r.llm.Name())
	}

	r.logger.Debug("review received",
		zap.String("provider", r.llm.Name()),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)

	out := parse(content)
	out.Provider = r.llm.Name()
	return out, nil
}

// parse accepts a bare JSON object, one wrapped in a code fence, or plain
// prose. Prose becomes the explanation with an unknown verdict.
func parse(content string) *Review {
	body := content
	if i := strings.Index(body, "{"); i >= 0 {
		if j := strings.LastIndex(body, "}"); j > i {
			body = body[i : j+1]
		}
	}

	var out Review
	if err := json.Unmarshal([]byte(body), &out); err != nil || out.Explanation == "" {
		return &Review{Verdict: Unknown, Explanation: content}
	}
	switch out.Verdict {
	case Viable, Marginal, NotViable:
	default:
		out.Verdict = Unknown
	}
	return &out
}

func buildPrompt(in Input) string {
	var sb strings.Builder
	res := in.Run
	s := res.Summary
	p := res.Params

	if in.Symbol != "" {
		fmt.Fprintf(&sb, "## Instrument: %s\n", in.Symbol)
	}
	fmt.Fprintf(&sb, "## Period: %s\n\n", s.Period())

	sb.WriteString("## Setup:\n")
	fmt.Fprintf(&sb, "- Moving average window: %d days\n", p.IndicatorWindow)
	fmt.Fprintf(&sb, "- Trade mode: %s\n", p.TradeMode)
	fmt.Fprintf(&sb, "- Initial capital: %.0f, leverage %.2fx, lot mode %s\n", p.InitialCapital, p.Leverage, p.LotMode)
	if p.MonthlyContribution > 0 {
		fmt.Fprintf(&sb, "- Monthly contribution: %.0f\n", p.MonthlyContribution)
	}
	if p.UseFee {
		fmt.Fprintf(&sb, "- Fees per lot: buy %.2f, sell %.2f\n", p.BuyFee, p.SellFee)
	}
	sb.WriteString("\n")

	sb.WriteString("## Results:\n")
	fmt.Fprintf(&sb, "- Final assets: %.2f\n", s.FinalAssets)
	fmt.Fprintf(&sb, "- Total return: %.2f%%\n", s.TotalReturnPct)
	fmt.Fprintf(&sb, "- Max drawdown: %.2f%%\n", s.MaxDrawdownPct)
	fmt.Fprintf(&sb, "- Trades: %d, win rate %.1f%%\n", s.TradeCount, s.WinRatePct)
	fmt.Fprintf(&sb, "- Best/worst trade: %.2f%% / %.2f%%\n", s.MaxTradeReturnPct, s.MinTradeReturnPct)
	fmt.Fprintf(&sb, "- Total fees: %.2f\n", s.TotalFees)
	if res.OpenPosition != nil {
		fmt.Fprintf(&sb, "- Still open: %s %d lots, unrealized %.2f\n",
			res.OpenPosition.Direction, res.OpenPosition.Lots, res.OpenPosition.UnrealizedPnL)
	}
	if n := res.Diagnostics.Count(); n > 0 {
		fmt.Fprintf(&sb, "- Division guards applied: %d (some figures are approximations)\n", n)
	}
	sb.WriteString("\n")

	if years := res.Analytics.YearlyReturns; len(years) > 0 {
		sb.WriteString("## Yearly returns:\n")
		for _, y := range years {
			fmt.Fprintf(&sb, "- %s: %.2f%%\n", y.Period, y.ReturnPct)
		}
		sb.WriteString("\n")
	}

	if opt := in.Optimize; opt != nil && len(opt.Top) > 0 {
		sb.WriteString("## Best windows on the same data:\n")
		for _, r := range opt.Top {
			fmt.Fprintf(&sb, "- #%d window %d: return %.2f%%, drawdown %.2f%%, %d trades\n",
				r.Rank, r.Window, r.TotalReturnPct, r.MaxDrawdownPct, r.TradeCount)
		}
		sb.WriteString("\n")
	}

	if mc := in.MonteCarlo; mc != nil && len(mc.Terminal) > 0 {
		sb.WriteString("## Monte Carlo (resampled daily returns):\n")
		fmt.Fprintf(&sb, "- Rounds: %d\n", len(mc.Terminal))
		fmt.Fprintf(&sb, "- Terminal capital p5 / p50 / p95: %.0f / %.0f / %.0f\n",
			mc.Percentile(5), mc.Percentile(50), mc.Percentile(95))
		fmt.Fprintf(&sb, "- Mean: %.0f\n", mc.Mean())
		sb.WriteString("\n")
	}

	sb.WriteString("## Task:\n")
	sb.WriteString("Judge whether this setup is worth trading. Consider return against drawdown, ")
	sb.WriteString("robustness across windows and years, and the spread of the Monte Carlo outcomes.\n")
	sb.WriteString("Respond with JSON containing: verdict, strengths, risks, explanation.\n")
	return sb.String()
}

const systemPrompt = `You are a futures trading analyst reviewing a moving-average crossover backtest.

Be sceptical: a single backtest overstates what live trading delivers. Point out overfitting, concentration of returns in a few years and drawdowns an individual trader could not sit through.

Always respond with valid JSON:
{
  "verdict": "viable" | "marginal" | "not_viable",
  "strengths": ["..."],
  "risks": ["..."],
  "explanation": "two or three sentences"
}`
