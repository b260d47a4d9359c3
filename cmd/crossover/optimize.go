package main

import (
	"io"

	"github.com/newthinker/crossover/internal/report"
	"github.com/spf13/cobra"
)

var (
	optimizeSource  sourceFlags
	optimizeParams  paramFlags
	optimizeWindows []int
	optimizeMin     int
	optimizeMax     int
	optimizeStep    int
	optimizeTop     int
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Rank indicator windows by total return",
	Long: `Run the backtest once per candidate window, in parallel, and rank the
results by total return. Without --windows or --min/--max the configured
search is used.`,
	Args: cobra.NoArgs,
	RunE: runOptimize,
}

func init() {
	optimizeSource.register(optimizeCmd.Flags(), true)
	optimizeParams.register(optimizeCmd.Flags())
	optimizeCmd.Flags().IntSliceVar(&optimizeWindows, "windows", nil, "explicit candidate windows, e.g. 5,10,20")
	optimizeCmd.Flags().IntVar(&optimizeMin, "min", 0, "smallest window of a range search")
	optimizeCmd.Flags().IntVar(&optimizeMax, "max", 0, "largest window of a range search")
	optimizeCmd.Flags().IntVar(&optimizeStep, "step", 1, "step of a range search")
	optimizeCmd.Flags().IntVar(&optimizeTop, "top", 0, "number of windows reported as top")

	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	a, log, err := buildApp(&optimizeSource)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	req := a.NewOptimizeRequest()
	req.Range = optimizeSource.rng()
	req.Params = optimizeParams.apply(cmd.Flags(), req.Params)

	fs := cmd.Flags()
	if fs.Changed("windows") {
		req.Search.Windows = optimizeWindows
	}
	if fs.Changed("min") || fs.Changed("max") {
		req.Search.Windows = nil
		req.Search.Min = optimizeMin
		req.Search.Max = optimizeMax
		req.Search.Step = optimizeStep
	}
	if fs.Changed("top") {
		req.Search.TopN = optimizeTop
	}

	out, err := a.Optimize(ctx, req)
	if err != nil {
		return err
	}
	return emit(cmd, optimizeSource.json, out, func(w io.Writer) error {
		return report.WriteOptimize(w, out)
	})
}
