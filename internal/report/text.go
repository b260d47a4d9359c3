package report

import (
	"fmt"
	"io"
	"text/tabwriter"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// WriteRun renders a run as plain text tables.
func WriteRun(w io.Writer, r *Run) error {
	s := r.Summary
	t := newTable(w)
	fmt.Fprintf(t, "Period\t%s\t\n", s.Period)
	fmt.Fprintf(t, "Final assets\t%.2f\t\n", s.FinalAssets)
	fmt.Fprintf(t, "Total return\t%.2f%%\t\n", s.TotalReturnPct)
	fmt.Fprintf(t, "Max drawdown\t%.2f%% (%.2f)\t\n", s.MaxDrawdownPct, s.MaxDrawdownAmount)
	fmt.Fprintf(t, "Win rate\t%.2f%%\t\n", s.WinRatePct)
	fmt.Fprintf(t, "Trades\t%d\t\n", s.TradeCount)
	fmt.Fprintf(t, "Hold days\t%d\t\n", s.TotalHoldDays)
	fmt.Fprintf(t, "Fees\t%.2f\t\n", s.TotalFees)
	if s.TotalContributions > 0 {
		fmt.Fprintf(t, "Contributions\t%.2f\t\n", s.TotalContributions)
	}
	if err := t.Flush(); err != nil {
		return err
	}

	if len(r.Trades) > 0 {
		fmt.Fprintln(w)
		t = newTable(w)
		fmt.Fprintln(t, "#\tSIDE\tENTRY\tEXIT\tDAYS\tLOTS\tENTRY PX\tEXIT PX\tP&L\tRET%\t")
		fmt.Fprintln(t, "-\t----\t-----\t----\t----\t----\t--------\t-------\t---\t----\t")
		for _, tr := range r.Trades {
			fmt.Fprintf(t, "%d\t%s\t%s\t%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
				tr.ID, tr.Direction, tr.EntryDate, tr.ExitDate, tr.HoldDays, tr.Lots,
				tr.EntryPrice, tr.ExitPrice, tr.PnL, tr.ReturnOnCapitalPct)
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}

	if op := r.OpenPosition; op != nil {
		fmt.Fprintf(w, "\nOpen %s position since %s: %d lots @ %.2f, last %.2f, unrealized %.2f\n",
			op.Direction, op.EntryDate, op.Lots, op.EntryPrice, op.LastPrice, op.UnrealizedPnL)
	}

	if len(r.Analytics.YearlyReturns) > 0 {
		fmt.Fprintln(w)
		t = newTable(w)
		fmt.Fprintln(t, "YEAR\tRETURN%\tINDEX%\tMDD%\t")
		fmt.Fprintln(t, "----\t-------\t------\t----\t")
		index := make(map[string]float64, len(r.Analytics.YearlyIndexReturns))
		for _, p := range r.Analytics.YearlyIndexReturns {
			index[p.Period] = p.ReturnPct
		}
		mdd := make(map[string]float64, len(r.Analytics.YearlyMaxDrawdownPct))
		for _, y := range r.Analytics.YearlyMaxDrawdownPct {
			mdd[fmt.Sprint(y.Year)] = y.Value
		}
		for _, p := range r.Analytics.YearlyReturns {
			fmt.Fprintf(t, "%s\t%.2f\t%.2f\t%.2f\t\n", p.Period, p.ReturnPct, index[p.Period], mdd[p.Period])
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}

	if len(r.Guards) > 0 {
		fmt.Fprintf(w, "\n%d division guard(s) applied:\n", len(r.Guards))
		for _, g := range r.Guards {
			fmt.Fprintf(w, "  %s at %d: %s\n", g.Site, g.Index, g.Message)
		}
	}
	if r.ArchiveID != "" {
		fmt.Fprintf(w, "\nArchived as %s\n", r.ArchiveID)
	}
	if rv := r.Review; rv != nil {
		fmt.Fprintf(w, "\nReview (%s): %s\n%s\n", rv.Provider, rv.Verdict, rv.Explanation)
		for _, s := range rv.Strengths {
			fmt.Fprintf(w, "  + %s\n", s)
		}
		for _, s := range rv.Risks {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	return nil
}

// WriteOptimize renders the ranked windows.
func WriteOptimize(w io.Writer, o *Optimize) error {
	t := newTable(w)
	fmt.Fprintln(t, "RANK\tWINDOW\tRETURN%\tMDD%\tWIN%\tTRADES\tAVG/TRADE\t")
	fmt.Fprintln(t, "----\t------\t-------\t----\t----\t------\t---------\t")
	for _, c := range o.AllResults {
		fmt.Fprintf(t, "%d\t%d\t%.2f\t%.2f\t%.2f\t%d\t%.2f\t\n",
			c.Rank, c.Window, c.TotalReturnPct, c.MaxDrawdownPct, c.WinRatePct, c.TradeCount, c.AvgReturnPerTrade)
	}
	if err := t.Flush(); err != nil {
		return err
	}
	for _, s := range o.Skipped {
		fmt.Fprintf(w, "skipped window %d: %s\n", s.Window, s.Reason)
	}
	return nil
}

// WriteMarket renders the current reading and the last few signals.
func WriteMarket(w io.Writer, m *Market) error {
	t := newTable(w)
	if m.Symbol != "" {
		fmt.Fprintf(t, "Symbol\t%s\t\n", m.Symbol)
	}
	fmt.Fprintf(t, "Date\t%s\t\n", m.LatestDate)
	fmt.Fprintf(t, "Close\t%.2f\t\n", m.LatestPrice)
	fmt.Fprintf(t, "MA(%d)\t%.2f\t\n", m.Window, m.IndicatorValue)
	fmt.Fprintf(t, "Diff\t%+.2f\t\n", m.PriceDiff)
	fmt.Fprintf(t, "Signal\t%s\t\n", m.Signal)
	return t.Flush()
}

// WriteMonteCarlo renders the percentiles and the histogram.
func WriteMonteCarlo(w io.Writer, mc *MonteCarlo) error {
	p := mc.Percentiles
	t := newTable(w)
	fmt.Fprintf(t, "Rounds\t%d\t\n", mc.Config.Rounds)
	fmt.Fprintf(t, "Mean\t%.2f\t\n", mc.Mean)
	fmt.Fprintf(t, "P5 / P50 / P95\t%.2f / %.2f / %.2f\t\n", p.P5, p.P50, p.P95)
	if err := t.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	t = newTable(w)
	fmt.Fprintln(t, "FROM\tTO\tCOUNT\t")
	fmt.Fprintln(t, "----\t--\t-----\t")
	for _, b := range mc.Histogram {
		fmt.Fprintf(t, "%.0f\t%.0f\t%d\t\n", b.BucketLowerBound, b.BucketUpperBound, b.Count)
	}
	return t.Flush()
}
