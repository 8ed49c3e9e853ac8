// Package cdag specializes internal/dag to segments: each DAG node stands
// for a linear chain of atomic candidates, collapsing runs of commits with
// exactly one parent and one child (as a version-control bisection driver
// would) into a single node carrying a length.
package cdag

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/adamcrume/robust-binary-search/internal/dag"
	"github.com/adamcrume/robust-binary-search/pkg/fault"
)

// Segment is the payload of one CompressedDAG node: a chain of Len atomic
// candidates.
type Segment struct {
	Len int
}

// NewSegment constructs a segment of the given length. Len must be >= 1.
func NewSegment(length int) Segment {
	if length < 1 {
		fault.Raise(fault.InvalidDAGInput, "cdag: segment length must be >= 1, got %d", length)
	}
	return Segment{Len: length}
}

// NodeRef addresses one atomic candidate as (segment, index within segment).
type NodeRef struct {
	Segment int
	Index   int
}

// CompressedDAG is a DAG whose node payloads are Segments.
type CompressedDAG struct {
	graph *dag.DAG[Segment]
}

// New creates an empty CompressedDAG.
func New() *CompressedDAG {
	return &CompressedDAG{graph: dag.New[Segment]()}
}

// AddNode appends a segment of the given length with the given segment
// inputs, and returns its segment index.
func (g *CompressedDAG) AddNode(length int, inputs []int) int {
	return g.graph.AddNode(NewSegment(length), inputs)
}

// Len returns the number of segments.
func (g *CompressedDAG) Len() int {
	return g.graph.Len()
}

// Node returns the DAG node for segment i (including its ancestry).
func (g *CompressedDAG) Node(i int) *dag.Node[Segment] {
	return g.graph.Node(i)
}

// TotalAtomicCount sums Len across every segment.
func (g *CompressedDAG) TotalAtomicCount() int {
	total := 0
	for _, n := range g.graph.Nodes() {
		total += n.Value.Len
	}
	return total
}

// ValidateRef panics if ref does not address a valid atomic candidate.
func (g *CompressedDAG) ValidateRef(ref NodeRef) {
	if ref.Segment < 0 || ref.Segment >= g.Len() {
		fault.Raise(fault.OutOfRange, "cdag: segment %d out of range [0, %d)", ref.Segment, g.Len())
	}
	seg := g.Node(ref.Segment).Value
	if ref.Index < 0 || ref.Index >= seg.Len {
		fault.Raise(fault.OutOfRange, "cdag: index %d out of range [0, %d) in segment %d", ref.Index, seg.Len, ref.Segment)
	}
}

// Fingerprint returns a deterministic structural hash of the graph shape
// (segment lengths and input lists), for debug logging and for telling
// apart two graph generations cheaply. It is never consulted on the
// correctness path.
func (g *CompressedDAG) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, n := range g.graph.Nodes() {
		binary.LittleEndian.PutUint64(buf[:], uint64(n.Value.Len))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(len(n.Inputs)))
		h.Write(buf[:])
		for _, in := range n.Inputs {
			binary.LittleEndian.PutUint64(buf[:], uint64(in))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}
