// Package dag implements a topologically sorted, append-only DAG of
// generic node values, with each node's ancestor set precomputed as a
// first-input / remainder-ancestors split: ancestors(node) is exactly
// {inputs[0]} ∪ ancestors(inputs[0]) ∪ remainderAncestors(node), pairwise
// disjoint. That split lets aggregation over all ancestors be computed
// incrementally from the first input's result plus O(|remainder|) extra
// work, which matters for the deep, narrow graphs version-control history
// produces.
package dag

import (
	"sort"

	"github.com/adamcrume/robust-binary-search/pkg/fault"
)

// Node is one entry in a DAG: an immutable value plus precomputed ancestry.
type Node[T any] struct {
	Value T

	// Inputs are the node's direct predecessors, in the order add_node was
	// called, each strictly less than this node's own index.
	Inputs []int

	// ancestors is the full transitive closure of Inputs, excluding self.
	ancestors map[int]struct{}

	// RemainderAncestors is ancestors minus ({Inputs[0]} ∪ ancestors(Inputs[0])),
	// sorted ascending. Empty when Inputs is empty.
	RemainderAncestors []int
}

// IsAncestor reports whether idx is in this node's transitive ancestor set.
func (n *Node[T]) IsAncestor(idx int) bool {
	_, ok := n.ancestors[idx]
	return ok
}

// AncestorCount returns the size of the transitive ancestor set.
func (n *Node[T]) AncestorCount() int {
	return len(n.ancestors)
}

// Ancestors returns the transitive ancestor set in ascending index order.
func (n *Node[T]) Ancestors() []int {
	out := make([]int, 0, len(n.ancestors))
	for a := range n.ancestors {
		out = append(out, a)
	}
	sort.Ints(out)
	return out
}

// DAG is a topologically sorted, append-only list of Node[T].
type DAG[T any] struct {
	nodes []Node[T]
}

// New creates an empty DAG.
func New[T any]() *DAG[T] {
	return &DAG[T]{}
}

// Len returns the number of nodes.
func (g *DAG[T]) Len() int {
	return len(g.nodes)
}

// Node returns the node at index i.
func (g *DAG[T]) Node(i int) *Node[T] {
	if i < 0 || i >= len(g.nodes) {
		fault.Raise(fault.OutOfRange, "dag: node index %d out of range [0, %d)", i, len(g.nodes))
	}
	return &g.nodes[i]
}

// Nodes returns all nodes in topological (insertion) order. The slice
// itself must not be mutated by callers; node values are immutable after
// insertion but are shared, not copied.
func (g *DAG[T]) Nodes() []Node[T] {
	return g.nodes
}

// AddNode appends a new node with the given value and inputs, and returns
// its index. Every input must be strictly less than the new node's index
// (i.e. must already exist); add_node panics otherwise. Duplicate inputs
// are tolerated but do not inflate the ancestor set.
func (g *DAG[T]) AddNode(value T, inputs []int) int {
	newIndex := len(g.nodes)
	for _, in := range inputs {
		if in < 0 || in >= newIndex {
			fault.Raise(fault.InvalidDAGInput, "dag: input %d is not a valid predecessor of node %d", in, newIndex)
		}
	}

	ancestors := make(map[int]struct{})
	var remainder []int

	if len(inputs) > 0 {
		first := inputs[0]
		ancestors[first] = struct{}{}
		for a := range g.nodes[first].ancestors {
			ancestors[a] = struct{}{}
		}

		// BFS/DFS over inputs[1:], plus their ancestors, recording anything
		// not already reachable through the first input as a remainder
		// ancestor.
		seen := make(map[int]struct{})
		var stack []int
		for _, in := range inputs[1:] {
			stack = append(stack, in)
		}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, ok := seen[cur]; ok {
				continue
			}
			seen[cur] = struct{}{}
			if _, already := ancestors[cur]; !already {
				ancestors[cur] = struct{}{}
				remainder = append(remainder, cur)
			}
			for a := range g.nodes[cur].ancestors {
				if _, ok := seen[a]; !ok {
					stack = append(stack, a)
				}
			}
		}
		sort.Ints(remainder)
	}

	g.nodes = append(g.nodes, Node[T]{
		Value:              value,
		Inputs:             inputs,
		ancestors:          ancestors,
		RemainderAncestors: remainder,
	})
	return newIndex
}
