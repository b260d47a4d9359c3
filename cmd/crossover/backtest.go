package main

import (
	"io"

	"github.com/newthinker/crossover/internal/backtest"
	"github.com/newthinker/crossover/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// paramFlags override the configured engine parameters.
type paramFlags struct {
	window       int
	mode         string
	capital      float64
	contribution float64
	leverage     float64
	lots         int
	pointValue   float64
	noFee        bool
	noRebalance  bool
	rebalance    int
	carry        float64
}

func (f *paramFlags) register(fs *pflag.FlagSet) {
	fs.IntVarP(&f.window, "window", "w", 0, "moving average window in days")
	fs.StringVarP(&f.mode, "mode", "m", "", "trade mode: long_only, short_only, both, hold_to_end")
	fs.Float64Var(&f.capital, "capital", 0, "initial capital")
	fs.Float64Var(&f.contribution, "contribution", 0, "capital added at each month change")
	fs.Float64Var(&f.leverage, "leverage", 0, "leverage used for dynamic lot sizing")
	fs.IntVar(&f.lots, "lots", 0, "trade a fixed number of lots instead of sizing dynamically")
	fs.Float64Var(&f.pointValue, "point-value", 0, "contract value per index point")
	fs.BoolVar(&f.noFee, "no-fee", false, "ignore trading fees")
	fs.BoolVar(&f.noRebalance, "no-rebalance", false, "never resize open positions")
	fs.IntVar(&f.rebalance, "rebalance-months", 0, "months between rebalances")
	fs.Float64Var(&f.carry, "carry", -1, "backwardation carry in percent per year for long positions (negative disables)")
}

// apply copies the flags the user actually set onto p.
func (f *paramFlags) apply(fs *pflag.FlagSet, p backtest.Parameters) backtest.Parameters {
	if fs.Changed("window") {
		p.IndicatorWindow = f.window
	}
	if fs.Changed("mode") {
		p.TradeMode = backtest.TradeMode(f.mode)
	}
	if fs.Changed("capital") {
		p.InitialCapital = f.capital
	}
	if fs.Changed("contribution") {
		p.MonthlyContribution = f.contribution
	}
	if fs.Changed("leverage") {
		p.Leverage = f.leverage
	}
	if fs.Changed("lots") {
		p.LotMode = backtest.LotFixed
		p.FixedLots = f.lots
	}
	if fs.Changed("point-value") {
		p.PointValue = f.pointValue
	}
	if f.noFee {
		p.UseFee = false
	}
	if f.noRebalance {
		p.EnableRebalance = false
	}
	if fs.Changed("rebalance-months") {
		p.EnableRebalance = true
		p.RebalancePeriodMonths = f.rebalance
	}
	if fs.Changed("carry") {
		p.EnableBackwardationCarry = f.carry >= 0
		if f.carry >= 0 {
			p.BackwardationAnnualRatePct = f.carry
		}
	}
	return p
}

var (
	backtestSource  sourceFlags
	backtestParams  paramFlags
	backtestArchive bool
	backtestReview  bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one crossover backtest",
	Long: `Simulate the crossover strategy on the configured index (or --csv file)
and print the summary, the trades and the yearly breakdown.`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

func init() {
	backtestSource.register(backtestCmd.Flags(), true)
	backtestParams.register(backtestCmd.Flags())
	backtestCmd.Flags().BoolVar(&backtestArchive, "archive", false, "store the report in the result archive")
	backtestCmd.Flags().BoolVar(&backtestReview, "review", false, "ask the configured LLM for a viability review")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	a, log, err := buildApp(&backtestSource)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	req := a.NewBacktestRequest()
	req.Range = backtestSource.rng()
	req.Params = backtestParams.apply(cmd.Flags(), req.Params)
	req.Archive = backtestArchive
	req.Review = backtestReview

	run, err := a.Backtest(ctx, req)
	if err != nil {
		return err
	}
	log.Debug("backtest finished",
		zap.Int("trades", run.Summary.TradeCount),
		zap.Float64("total_return_pct", run.Summary.TotalReturnPct),
	)

	return emit(cmd, backtestSource.json, run, func(w io.Writer) error {
		return report.WriteRun(w, run)
	})
}
