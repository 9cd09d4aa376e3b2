// Package dataflow implements a generic iterative worklist solver for
// forward or backward dataflow analyses over any node type, grounded on
// original_source's dataflow/solver package (the common Solver base class
// both IterativeSolver and WorkListSolver extend, parameterized by a
// direction flag and a per-node transfer function).
package dataflow

import (
	"reflect"

	"github.com/statix-dev/taie/internal/maps"
)

// Graph is the minimal contract a control-flow-graph-like structure must
// satisfy to be solved generically: both cfg.Graph and icfg.Graph
// implement it.
type Graph[N comparable] interface {
	Nodes() []N
	SuccNodes(n N) []N
	PredNodes(n N) []N
}

// Analysis defines a dataflow problem: a lattice of facts F, a meet
// operator, and a per-node transfer function.
type Analysis[N comparable, F any] interface {
	// IsForward reports the analysis direction.
	IsForward() bool
	// NewBoundaryFact returns the fact assumed to hold at the graph's
	// entry (forward) or exit (backward) node.
	NewBoundaryFact() F
	// NewInitialFact returns the fact every other node starts with.
	NewInitialFact() F
	// Meet combines facts flowing into a node from two predecessors (or
	// successors, for a backward analysis).
	Meet(a, b F) F
	// Transfer computes a node's OUT (forward) or IN (backward) fact
	// from its IN (forward) or OUT (backward) fact, reporting whether
	// the node changed the fact it was given. Solve does not rely on
	// that flag: it re-enqueues neighbors whenever the result differs
	// from the fact previously recorded for the node.
	Transfer(n N, fact F) (F, bool)
}

// BoundaryNodes is implemented by analyses that need to single out the
// boundary node(s) of the graph (the CFG's Entry or Exit) rather than
// deriving it structurally.
type BoundaryNodes[N any] interface {
	Boundary() []N
}

// Result holds the IN and OUT fact computed for every node.
type Result[N comparable, F any] struct {
	In  map[N]F
	Out map[N]F
}

// Solve runs the iterative worklist algorithm to a fixpoint: every node
// is initialized to the analysis's initial fact (boundary nodes to its
// boundary fact), then repeatedly re-transferred whenever one of its
// predecessors' (forward) or successors' (backward) facts changes, until
// the worklist drains.
func Solve[N comparable, F any](g Graph[N], a Analysis[N, F], boundary []N) *Result[N, F] {
	res := &Result[N, F]{In: map[N]F{}, Out: map[N]F{}}
	isBoundary := maps.FromKeys(boundary)

	nodes := g.Nodes()
	for _, n := range nodes {
		if _, ok := isBoundary[n]; ok {
			if a.IsForward() {
				res.In[n] = a.NewBoundaryFact()
			} else {
				res.Out[n] = a.NewBoundaryFact()
			}
		} else {
			res.In[n] = a.NewInitialFact()
			res.Out[n] = a.NewInitialFact()
		}
	}

	worklist := append([]N(nil), nodes...)
	inWorklist := maps.FromKeys(worklist)

	for len(worklist) > 0 {
		n := worklist[0]
		worklist = worklist[1:]
		delete(inWorklist, n)

		if a.IsForward() {
			in := res.In[n]
			if _, boundaryNode := isBoundary[n]; !boundaryNode {
				in = a.NewInitialFact()
				first := true
				for _, p := range g.PredNodes(n) {
					if first {
						in = res.Out[p]
						first = false
					} else {
						in = a.Meet(in, res.Out[p])
					}
				}
				res.In[n] = in
			}
			out, _ := a.Transfer(n, in)
			if old, seen := res.Out[n]; !seen || !reflect.DeepEqual(old, out) {
				res.Out[n] = out
				for _, succ := range g.SuccNodes(n) {
					if _, queued := inWorklist[succ]; !queued {
						worklist = append(worklist, succ)
						inWorklist[succ] = struct{}{}
					}
				}
			}
		} else {
			out := res.Out[n]
			if _, boundaryNode := isBoundary[n]; !boundaryNode {
				out = a.NewInitialFact()
				first := true
				for _, s := range g.SuccNodes(n) {
					if first {
						out = res.In[s]
						first = false
					} else {
						out = a.Meet(out, res.In[s])
					}
				}
				res.Out[n] = out
			}
			in, _ := a.Transfer(n, out)
			if old, seen := res.In[n]; !seen || !reflect.DeepEqual(old, in) {
				res.In[n] = in
				for _, pred := range g.PredNodes(n) {
					if _, queued := inWorklist[pred]; !queued {
						worklist = append(worklist, pred)
						inWorklist[pred] = struct{}{}
					}
				}
			}
		}
	}
	return res
}
