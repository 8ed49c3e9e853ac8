package searcher

import (
	"math"

	"github.com/adamcrume/robust-binary-search/internal/cdag"
	"github.com/adamcrume/robust-binary-search/internal/flakiness"
	"github.com/adamcrume/robust-binary-search/internal/rangemap"
	"github.com/adamcrume/robust-binary-search/internal/telemetry"
	"github.com/adamcrume/robust-binary-search/pkg/fault"
)

type segmentRange struct {
	start, end float64
}

// CompressedDAGSearcher generalizes Searcher to a CompressedDAG: one
// RangeMap of weights per segment, with percentile queries accounting for
// ancestor aggregation via the graph's first-input / remainder-ancestors
// decomposition.
type CompressedDAGSearcher struct {
	graph            *cdag.CompressedDAG
	segmentRangeMaps []*rangemap.RangeMap[float64]
}

// NewCompressedDAGSearcher creates a searcher over graph, which must have
// at least one segment. graph is shared, read-only, and must outlive the
// searcher.
func NewCompressedDAGSearcher(graph *cdag.CompressedDAG) *CompressedDAGSearcher {
	if graph.Len() == 0 {
		fault.Raise(fault.InvalidDAGInput, "cdag searcher: graph must have at least one segment")
	}
	n := graph.TotalAtomicCount()
	maps := make([]*rangemap.RangeMap[float64], graph.Len())
	for i := 0; i < graph.Len(); i++ {
		seg := graph.Node(i).Value
		maps[i] = rangemap.New(seg.Len, 1.0/float64(n))
	}
	return &CompressedDAGSearcher{graph: graph, segmentRangeMaps: maps}
}

// segmentPercentileRanges returns, per segment, the cumulative mass sum
// at the start (sum over all strict ancestors) and end (start + this
// segment's own mass) of that segment.
func (s *CompressedDAGSearcher) segmentPercentileRanges() []segmentRange {
	ranges := make([]segmentRange, s.graph.Len())
	sums := make([]float64, s.graph.Len())
	for i := 0; i < s.graph.Len(); i++ {
		node := s.graph.Node(i)
		var start float64
		if len(node.Inputs) != 0 {
			start = ranges[node.Inputs[0]].end
			for _, ancestor := range node.RemainderAncestors {
				start += sums[ancestor]
			}
		}
		segSum := 0.0
		s.segmentRangeMaps[i].Ranges(func(e rangemap.Entry[float64]) {
			segSum += e.Value * float64(e.Len)
		})
		sums[i] = segSum
		end := start + segSum
		const eps = 1e-11
		if start < -eps || start > 1+eps || end < -eps || end > 1+eps {
			fault.Raise(fault.EmptyPercentile, "cdag searcher: segment %d cumulative mass out of bounds start=%v end=%v", i, start, end)
		}
		ranges[i] = segmentRange{start: start, end: end}
	}
	return ranges
}

// ConfidencePercentileNearest finds the atomic node across all segments
// whose cumulative mass is nearest percentile.
func (s *CompressedDAGSearcher) ConfidencePercentileNearest(percentile float64) cdag.NodeRef {
	ranges := s.segmentPercentileRanges()
	best := cdag.NodeRef{}
	bestValue := math.Inf(-1)
	for i, r := range ranges {
		ix, value := confidencePercentileNearest(s.segmentRangeMaps[i], percentile-r.start)
		value += r.start
		if math.Abs(percentile-value) < math.Abs(percentile-bestValue) {
			best = cdag.NodeRef{Segment: i, Index: ix}
			bestValue = value
		}
	}
	if math.IsInf(bestValue, -1) {
		fault.Raise(fault.EmptyPercentile, "cdag searcher: no segment found for percentile %v", percentile)
	}
	return best
}

// ConfidencePercentileCeil finds the atomic node across all segments with
// the smallest cumulative mass that is still >= percentile.
func (s *CompressedDAGSearcher) ConfidencePercentileCeil(percentile float64) cdag.NodeRef {
	ranges := s.segmentPercentileRanges()
	minEndSegment := 0
	minEndIndex := 0
	minEndValue := math.Inf(1)
	found := false
	for i, r := range ranges {
		ix, value := confidencePercentileCeil(s.segmentRangeMaps[i], percentile-r.start)
		value += r.start
		if value < minEndValue && value >= percentile {
			minEndIndex = ix
			minEndSegment = i
			minEndValue = value
			found = true
		}
	}
	if !found {
		fault.Raise(fault.EmptyPercentile, "cdag searcher: no segment satisfies ceil percentile %v", percentile)
	}
	return cdag.NodeRef{Segment: minEndSegment, Index: minEndIndex}
}

// NextNode returns the node that should be probed next.
func (s *CompressedDAGSearcher) NextNode() cdag.NodeRef {
	return s.ConfidencePercentileNearest(0.5)
}

// BestNode returns the current best estimate.
func (s *CompressedDAGSearcher) BestNode() cdag.NodeRef {
	return s.ConfidencePercentileCeil(0.5)
}

// Report applies one observation at node with the given flakiness.
//
// heads (the test failed, evidence the target is at or before node):
// every ancestor segment of node.Segment is scaled up wholesale, then the
// linear head-update is applied within node.Segment over [0, node.Index].
//
// tails (the test passed, evidence the target is elsewhere): every
// segment that is neither node.Segment nor one of its ancestors is scaled
// up wholesale, then the linear tail-update is applied within
// node.Segment over (node.Index, segmentLen).
func (s *CompressedDAGSearcher) Report(node cdag.NodeRef, heads bool, flakinessValue float64) {
	s.graph.ValidateRef(node)
	stiffness := flakiness.OptimalStiffness(flakinessValue)
	n := s.graph.Node(node.Segment)

	if heads {
		for _, segment := range n.Ancestors() {
			scaleSegment(s.segmentRangeMaps[segment], stiffness)
		}
	} else {
		for segment := 0; segment < s.graph.Len(); segment++ {
			if segment == node.Segment || n.IsAncestor(segment) {
				continue
			}
			scaleSegment(s.segmentRangeMaps[segment], stiffness)
		}
	}

	reportRange(s.segmentRangeMaps[node.Segment], node.Index, heads, stiffness)
	s.normalizeAll()
	telemetry.ReportEvent("cdag_searcher", node.Segment*1_000_000+node.Index, heads, stiffness)
}

func scaleSegment(weights *rangemap.RangeMap[float64], stiffness float64) {
	weights.RangesMut(func(e rangemap.Entry[float64]) float64 {
		return e.Value * (1 + stiffness)
	})
}

func (s *CompressedDAGSearcher) normalizeAll() {
	sum := 0.0
	for _, rm := range s.segmentRangeMaps {
		rm.Ranges(func(e rangemap.Entry[float64]) {
			sum += e.Value * float64(e.Len)
		})
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) || sum == 0 {
		fault.Raise(fault.NonFinite, "cdag searcher: weight sum is non-finite or zero (%v)", sum)
	}
	for _, rm := range s.segmentRangeMaps {
		rm.RangesMut(func(e rangemap.Entry[float64]) float64 {
			return e.Value / sum
		})
	}
}

// Likelihood returns the per-atomic-index weight at node.
func (s *CompressedDAGSearcher) Likelihood(node cdag.NodeRef) float64 {
	return s.segmentRangeMaps[node.Segment].RangeForIndex(node.Index).Value
}

// AutoCompressedDAGSearcher owns a CompressedDAGSearcher plus the matching
// CompressedDAGFlakinessTracker.
type AutoCompressedDAGSearcher struct {
	searcher *CompressedDAGSearcher
	tracker  *flakiness.CompressedTracker
}

// NewAutoCompressedDAGSearcher creates an AutoCompressedDAGSearcher over graph.
func NewAutoCompressedDAGSearcher(graph *cdag.CompressedDAG) *AutoCompressedDAGSearcher {
	return &AutoCompressedDAGSearcher{
		searcher: NewCompressedDAGSearcher(graph),
		tracker:  flakiness.NewCompressedTracker(graph),
	}
}

// Report records a vote and applies it using the tracker's current
// flakiness estimate.
func (a *AutoCompressedDAGSearcher) Report(node cdag.NodeRef, heads bool) {
	a.tracker.Report(node, heads)
	a.searcher.Report(node, heads, a.tracker.Flakiness())
}

func (a *AutoCompressedDAGSearcher) NextNode() cdag.NodeRef        { return a.searcher.NextNode() }
func (a *AutoCompressedDAGSearcher) BestNode() cdag.NodeRef        { return a.searcher.BestNode() }
func (a *AutoCompressedDAGSearcher) Likelihood(node cdag.NodeRef) float64 {
	return a.searcher.Likelihood(node)
}
func (a *AutoCompressedDAGSearcher) Flakiness() float64 { return a.tracker.Flakiness() }
