package montecarlo

import (
	"math"
	"slices"
)

// Percentile interpolates linearly between the closest ranks of sorted,
// matching the usual numpy definition. p is in [0, 100].
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	p = math.Min(math.Max(p, 0), 100)

	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}

// Trim keeps the values between the lowPct and (100 - highPct) percentiles,
// bounds included, preserving input order.
func Trim(values []float64, lowPct, highPct float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	lo := Percentile(sorted, lowPct)
	hi := Percentile(sorted, 100-highPct)

	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}

// Histogram spreads values over n equal buckets whose outer edges are the
// minimum and maximum rounded outward to a multiple of bucketSize. Inner
// edges are floored to whole units but never below the lower edge, so every
// value lands in a bucket. When every value rounds to the same edge a single
// bucket [edge, edge+bucketSize] is returned.
func Histogram(values []float64, bucketSize float64, n int) []Bucket {
	if len(values) == 0 || n < 1 || bucketSize <= 0 {
		return nil
	}

	lo, hi := slices.Min(values), slices.Max(values)
	start := math.Floor(lo/bucketSize) * bucketSize
	end := math.Ceil(hi/bucketSize) * bucketSize

	if start == end {
		return []Bucket{{Lower: start, Upper: start + bucketSize, Count: len(values)}}
	}

	edges := make([]float64, n+1)
	edges[0] = start
	for i := 1; i < n; i++ {
		edges[i] = math.Max(start, math.Floor(start+(end-start)*float64(i)/float64(n)))
	}
	edges[n] = end

	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i] = Bucket{Lower: edges[i], Upper: edges[i+1]}
	}
	for _, v := range values {
		idx := bucketIndex(edges, v)
		if idx >= 0 {
			buckets[idx].Count++
		}
	}
	return buckets
}

// bucketIndex finds i with edges[i] <= v < edges[i+1]; the last bucket is
// closed on the right.
func bucketIndex(edges []float64, v float64) int {
	last := len(edges) - 1
	if v < edges[0] || v > edges[last] {
		return -1
	}
	if v == edges[last] {
		return last - 1
	}
	i, found := slices.BinarySearch(edges, v)
	if !found {
		return i - 1
	}
	// zero-width buckets from floored edges collapse onto the last one
	for i+1 < last && edges[i+1] == v {
		i++
	}
	return i
}
