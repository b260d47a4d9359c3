package report

import "github.com/newthinker/crossover/internal/montecarlo"

// Bucket is one histogram bar.
type Bucket struct {
	BucketLowerBound float64 `json:"bucketLowerBound"`
	BucketUpperBound float64 `json:"bucketUpperBound"`
	Count            int     `json:"count"`
}

// Percentiles summarize the untrimmed terminal distribution.
type Percentiles struct {
	P5  float64 `json:"p5"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P95 float64 `json:"p95"`
}

// MonteCarlo is the document for a resampling run.
type MonteCarlo struct {
	Success        bool              `json:"success"`
	Config         montecarlo.Config `json:"config"`
	Returns        int               `json:"returns"`
	Histogram      []Bucket          `json:"histogram"`
	TerminalValues []float64         `json:"terminalValues"`
	Percentiles    Percentiles       `json:"percentiles"`
	Mean           float64           `json:"mean"`
	SamplePaths    [][]float64       `json:"samplePaths,omitempty"`
	Guards         []Guard           `json:"guards,omitempty"`
}

// FromMonteCarlo builds the Monte Carlo document. terminalValues are the
// trimmed values the histogram was built from.
func FromMonteCarlo(res *montecarlo.Result) *MonteCarlo {
	out := &MonteCarlo{
		Success:        true,
		Config:         res.Config,
		Returns:        res.Returns,
		Histogram:      make([]Bucket, len(res.Histogram)),
		TerminalValues: roundAll(res.Trimmed, moneyPlaces),
		Percentiles: Percentiles{
			P5:  money(res.Percentile(5)),
			P25: money(res.Percentile(25)),
			P50: money(res.Percentile(50)),
			P75: money(res.Percentile(75)),
			P95: money(res.Percentile(95)),
		},
		Mean: money(res.Mean()),
	}
	for i, b := range res.Histogram {
		out.Histogram[i] = Bucket{
			BucketLowerBound: money(b.Lower),
			BucketUpperBound: money(b.Upper),
			Count:            b.Count,
		}
	}
	for _, p := range res.SamplePaths {
		out.SamplePaths = append(out.SamplePaths, roundAll(p, moneyPlaces))
	}
	for _, g := range res.Diagnostics.Guards {
		out.Guards = append(out.Guards, Guard{Site: g.Site, Index: g.Index, Message: g.Message})
	}
	return out
}
