// Package searcher implements the robust binary search primitives: a
// linear Searcher over a RangeMap of per-index weights, its CompressedDAG
// generalization, and Auto* wrappers that infer flakiness from the votes
// themselves instead of requiring the caller to supply it.
package searcher

import (
	"math"

	"github.com/adamcrume/robust-binary-search/internal/flakiness"
	"github.com/adamcrume/robust-binary-search/internal/rangemap"
	"github.com/adamcrume/robust-binary-search/internal/telemetry"
	"github.com/adamcrume/robust-binary-search/pkg/fault"
)

// reportRange applies the evidence from one probe to a weight map without
// normalizing: heads means "the target lies at or before index", so
// [0, index] is scaled up; tails means "the target lies after index", so
// (index, N] is scaled up.
func reportRange(weights *rangemap.RangeMap[float64], index int, heads bool, stiffness float64) {
	before := weights.NumEntries()
	weights.Split(index + 1)
	if heads {
		weights.RangesIn(0, index+1, func(e rangemap.Entry[float64]) float64 {
			return e.Value * (1 + stiffness)
		})
	} else {
		weights.RangesIn(index+1, weights.Len(), func(e rangemap.Entry[float64]) float64 {
			return e.Value * (1 + stiffness)
		})
	}
	telemetry.SplitEvent("searcher", before, weights.NumEntries())
}

// normalize rescales every weight so the total mass over the whole domain
// is exactly 1.
func normalize(weights *rangemap.RangeMap[float64]) {
	sum := 0.0
	weights.Ranges(func(e rangemap.Entry[float64]) {
		sum += e.Value * float64(e.Len)
	})
	if math.IsNaN(sum) || math.IsInf(sum, 0) || sum == 0 {
		fault.Raise(fault.NonFinite, "searcher: weight sum is non-finite or zero (%v)", sum)
	}
	weights.RangesMut(func(e rangemap.Entry[float64]) float64 {
		v := e.Value / sum
		if math.IsNaN(v) || math.IsInf(v, 0) {
			fault.Raise(fault.NonFinite, "searcher: normalized weight is non-finite (%v)", v)
		}
		return v
	})
}

// Searcher performs a robust binary search over a linear range of N
// atomic candidates, indexed [0, N).
type Searcher struct {
	weights *rangemap.RangeMap[float64]
	len     int
}

// NewSearcher creates a Searcher over N testable indices, N >= 1.
func NewSearcher(n int) *Searcher {
	if n < 1 {
		fault.Raise(fault.OutOfRange, "searcher: len must be >= 1, got %d", n)
	}
	return &Searcher{
		weights: rangemap.New(n+1, 1.0/float64(n+1)),
		len:     n,
	}
}

// ReportWithStiffness applies one observation with an explicit stiffness,
// bypassing flakiness estimation. Exposed for tuning/testing; production
// callers should use Report or AutoSearcher.
func (s *Searcher) ReportWithStiffness(index int, heads bool, stiffness float64) {
	if index >= s.len {
		fault.Raise(fault.OutOfRange, "searcher: index %d out of range [0, %d)", index, s.len)
	}
	reportRange(s.weights, index, heads, stiffness)
	normalize(s.weights)
	telemetry.ReportEvent("searcher", index, heads, stiffness)
}

// Report applies one observation at the given flakiness, converting it to
// a stiffness via optimal_stiffness.
func (s *Searcher) Report(index int, heads bool, flakinessValue float64) {
	s.ReportWithStiffness(index, heads, flakiness.OptimalStiffness(flakinessValue))
}

// NextIndex returns the atomic index that should be probed next: the
// index whose cumulative mass is nearest 0.5, clamped to N-1 so it is
// always a valid probe.
func (s *Searcher) NextIndex() int {
	ix, _ := confidencePercentileNearest(s.weights, 0.5)
	return minInt(ix, s.len-1)
}

// BestIndex returns the current best estimate: the smallest index whose
// cumulative mass is >= 0.5. May equal N, meaning the target lies beyond
// the last tested index.
func (s *Searcher) BestIndex() int {
	ix, _ := confidencePercentileCeil(s.weights, 0.5)
	return ix
}

// ConfidencePercentileCeil exposes the general percentile-ceil query.
// Mostly useful for tuning and diagnostics.
func (s *Searcher) ConfidencePercentileCeil(percentile float64) int {
	ix, _ := confidencePercentileCeil(s.weights, percentile)
	return ix
}

// Likelihood returns the per-index weight at index (0 <= index <= N).
func (s *Searcher) Likelihood(index int) float64 {
	return s.weights.RangeForIndex(index).Value
}

// AutoSearcher owns a Searcher plus the matching FlakinessTracker, so
// callers only ever supply index/heads and never a flakiness value.
type AutoSearcher struct {
	searcher *Searcher
	tracker  *flakiness.Tracker
}

// NewAutoSearcher creates an AutoSearcher over N testable indices.
func NewAutoSearcher(n int) *AutoSearcher {
	return &AutoSearcher{
		searcher: NewSearcher(n),
		tracker:  flakiness.NewTracker(),
	}
}

// Report records a vote and applies it to the underlying searcher using
// the tracker's current flakiness estimate.
func (a *AutoSearcher) Report(index int, heads bool) {
	a.tracker.Report(index, heads)
	a.searcher.Report(index, heads, a.tracker.Flakiness())
}

func (a *AutoSearcher) NextIndex() int               { return a.searcher.NextIndex() }
func (a *AutoSearcher) BestIndex() int               { return a.searcher.BestIndex() }
func (a *AutoSearcher) Likelihood(index int) float64 { return a.searcher.Likelihood(index) }
func (a *AutoSearcher) Flakiness() float64           { return a.tracker.Flakiness() }
