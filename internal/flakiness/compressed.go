package flakiness

import (
	"math"

	"github.com/adamcrume/robust-binary-search/internal/cdag"
)

// CompressedTracker estimates flakiness over a CompressedDAG: a per-segment
// linear Tracker plus cross-segment inversions computed via the graph's
// first-input / remainder-ancestors decomposition, so the whole scan costs
// O(|nodes| + Σ|remainder|) rather than O(nodes²).
type CompressedTracker struct {
	graph *cdag.CompressedDAG
	votes map[int]*Tracker
}

// NewCompressedTracker creates a tracker for the given (shared, immutable)
// graph.
func NewCompressedTracker(graph *cdag.CompressedDAG) *CompressedTracker {
	return &CompressedTracker{graph: graph, votes: make(map[int]*Tracker)}
}

// Report adds a vote to the internal statistics. With low flakiness, heads
// votes are not expected to appear in the ancestors of tails votes.
func (t *CompressedTracker) Report(ref cdag.NodeRef, heads bool) {
	tr, ok := t.votes[ref.Segment]
	if !ok {
		tr = NewTracker()
		t.votes[ref.Segment] = tr
	}
	tr.Report(ref.Index, heads)
}

func (t *CompressedTracker) ownTotals(segment int) (heads, votes int) {
	tr, ok := t.votes[segment]
	if !ok {
		return 0, 0
	}
	return tr.TotalHeads(), tr.TotalVotes()
}

// inversions returns the exact cross-segment inversion count and four
// times the expected count under random labeling.
//
// votesAtSegment[s] aggregates vote totals over ancestors(s), the set of
// *strict* ancestors, via the first-input/remainder-ancestors split: it
// must be computed for every segment in topological order, including
// segments with no direct votes of their own, since a voteless segment
// can still sit on the ancestor chain between two voted segments.
func (t *CompressedTracker) inversions() (int, int) {
	votesAtSegment := make([][2]int, t.graph.Len())

	for segment := 0; segment < t.graph.Len(); segment++ {
		inputs := t.graph.Node(segment).Inputs
		if len(inputs) == 0 {
			continue
		}
		first := inputs[0]
		heads, votes := votesAtSegment[first][0], votesAtSegment[first][1]

		inputHeads, inputVotes := t.ownTotals(first)
		heads += inputHeads
		votes += inputVotes

		for _, ancestor := range t.graph.Node(segment).RemainderAncestors {
			ancestorHeads, ancestorVotes := t.ownTotals(ancestor)
			heads += ancestorHeads
			votes += ancestorVotes
		}
		votesAtSegment[segment] = [2]int{heads, votes}
	}

	inversions := 0
	randomInversions := 0
	for segment, tr := range t.votes {
		segmentHeads, segmentVotes := votesAtSegment[segment][0], votesAtSegment[segment][1]
		inv, randInv := tr.Inversions()
		inversions += tr.TotalTails()*segmentHeads + inv
		randomInversions += tr.TotalVotes()*segmentVotes + randInv
	}
	return inversions, randomInversions
}

// Flakiness returns the estimated flakiness in [0, 1] as
// 1 - sqrt(max(0, 1 - (I+1)/(R/4 + 4/3))). This square-root form is not
// the polynomial used by Tracker.Flakiness and gives different values for
// the same (I, R) (one head: 0.3930 here, 0.4416 there); an empty tracker
// returns 0.5.
func (t *CompressedTracker) Flakiness() float64 {
	inv, randInv := t.inversions()
	tmp := 1.0 - (float64(inv)+1)/(float64(randInv)/4.0+4.0/3.0)
	if tmp < 0 {
		tmp = 0
	}
	return 1.0 - math.Sqrt(tmp)
}
