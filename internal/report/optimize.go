package report

import "github.com/newthinker/crossover/internal/optimizer"

// Candidate is one ranked indicator window.
type Candidate struct {
	Rank              int     `json:"rank"`
	Window            int     `json:"window"`
	TotalReturnPct    float64 `json:"totalReturnPct"`
	MaxDrawdownPct    float64 `json:"maxDrawdownPct"`
	WinRatePct        float64 `json:"winRatePct"`
	TradeCount        int     `json:"tradeCount"`
	FinalAssets       float64 `json:"finalAssets"`
	AvgReturnPerTrade float64 `json:"avgReturnPerTrade"`
}

// SkippedWindow is a window the series was too short for.
type SkippedWindow struct {
	Window int    `json:"window"`
	Reason string `json:"reason"`
}

// Optimize is the document for a window search.
type Optimize struct {
	Success    bool            `json:"success"`
	Top3       []Candidate     `json:"top3"`
	AllResults []Candidate     `json:"allResults"`
	Skipped    []SkippedWindow `json:"skipped,omitempty"`
}

// FromOptimize builds the optimize document. The top3 key keeps its name
// whatever TopN was configured to.
func FromOptimize(res *optimizer.Result) *Optimize {
	out := &Optimize{
		Success:    true,
		Top3:       candidates(res.Top),
		AllResults: candidates(res.All),
	}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, SkippedWindow{Window: s.Window, Reason: s.Reason})
	}
	return out
}

func candidates(in []optimizer.Ranked) []Candidate {
	out := make([]Candidate, len(in))
	for i, r := range in {
		out[i] = Candidate{
			Rank:              r.Rank,
			Window:            r.Window,
			TotalReturnPct:    pct(r.TotalReturnPct),
			MaxDrawdownPct:    pct(r.MaxDrawdownPct),
			WinRatePct:        pct(r.WinRatePct),
			TradeCount:        r.TradeCount,
			FinalAssets:       money(r.FinalAssets),
			AvgReturnPerTrade: pct(r.AvgReturnPerTrade),
		}
	}
	return out
}
