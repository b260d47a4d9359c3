package main

import (
	"io"

	"github.com/newthinker/crossover/internal/report"
	"github.com/spf13/cobra"
)

var (
	mcSource     sourceFlags
	mcParams     paramFlags
	mcRounds     int
	mcSeed       int64
	mcTrimLow    float64
	mcTrimHigh   float64
	mcBucketSize float64
	mcBuckets    int
)

var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Resample a backtest's daily returns",
	Long: `Run the backtest, then build many synthetic capital paths by drawing its
daily returns with replacement and report the distribution of terminal
capital. A fixed --seed gives identical output on every run.`,
	Args: cobra.NoArgs,
	RunE: runMonteCarlo,
}

func init() {
	fs := montecarloCmd.Flags()
	mcSource.register(fs, true)
	mcParams.register(fs)
	fs.IntVar(&mcRounds, "rounds", 0, "number of simulated paths")
	fs.Int64Var(&mcSeed, "seed", 0, "random seed")
	fs.Float64Var(&mcTrimLow, "trim-low", 0, "percent of lowest terminal values dropped before the histogram")
	fs.Float64Var(&mcTrimHigh, "trim-high", 0, "percent of highest terminal values dropped before the histogram")
	fs.Float64Var(&mcBucketSize, "bucket-size", 0, "histogram bucket rounding unit")
	fs.IntVar(&mcBuckets, "buckets", 0, "number of histogram buckets")

	rootCmd.AddCommand(montecarloCmd)
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	a, log, err := buildApp(&mcSource)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	req := a.NewMonteCarloRequest()
	req.Range = mcSource.rng()
	req.Params = mcParams.apply(cmd.Flags(), req.Params)

	fs := cmd.Flags()
	mc := &req.MonteCarlo
	if fs.Changed("rounds") {
		mc.Rounds = mcRounds
	}
	if fs.Changed("seed") {
		mc.Seed = mcSeed
	}
	if fs.Changed("trim-low") {
		mc.RemoveLowPct = mcTrimLow
	}
	if fs.Changed("trim-high") {
		mc.RemoveHighPct = mcTrimHigh
	}
	if fs.Changed("bucket-size") {
		mc.BucketSize = mcBucketSize
	}
	if fs.Changed("buckets") {
		mc.Buckets = mcBuckets
	}

	out, err := a.MonteCarlo(ctx, req)
	if err != nil {
		return err
	}
	return emit(cmd, mcSource.json, out, func(w io.Writer) error {
		return report.WriteMonteCarlo(w, out)
	})
}
