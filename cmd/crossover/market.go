package main

import (
	"fmt"
	"io"

	"github.com/newthinker/crossover/internal/report"
	"github.com/spf13/cobra"
)

var (
	marketSource  sourceFlags
	marketWindow  int
	marketSignals int
)

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Show the latest close against its moving average",
	Args:  cobra.NoArgs,
	RunE:  runMarket,
}

func init() {
	marketSource.register(marketCmd.Flags(), false)
	marketCmd.Flags().IntVarP(&marketWindow, "window", "w", 0, "moving average window (default: configured window)")
	marketCmd.Flags().IntVar(&marketSignals, "signals", 0, "also print the last N daily signals")

	rootCmd.AddCommand(marketCmd)
}

func runMarket(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("window") && marketWindow < 2 {
		return fmt.Errorf("window must be at least 2, got %d", marketWindow)
	}

	a, log, err := buildApp(&marketSource)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	m, err := a.Market(ctx, marketWindow)
	if err != nil {
		return err
	}
	return emit(cmd, marketSource.json, m, func(w io.Writer) error {
		if err := report.WriteMarket(w, m); err != nil {
			return err
		}
		if marketSignals <= 0 {
			return nil
		}
		dates, signals := m.Recent100.Dates, m.Recent100.Signals
		if n := marketSignals; n < len(dates) {
			dates, signals = dates[len(dates)-n:], signals[len(signals)-n:]
		}
		fmt.Fprintln(w)
		for i := range dates {
			fmt.Fprintf(w, "%s  %+d\n", dates[i], signals[i])
		}
		return nil
	})
}
