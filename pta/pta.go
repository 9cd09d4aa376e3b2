// Package pta provides the pointer-flow-graph and worklist plumbing
// shared by the context-insensitive (pta/ci) and context-sensitive
// (pta/cs) Andersen-style solvers: both push points-to deltas through a
// PointerFlowGraph keyed by their own notion of "pointer" (plain Var vs.
// context-qualified CSVar), so the graph and worklist are generic over
// that key type.
package pta

import (
	"github.com/statix-dev/taie/internal/maps"
	"github.com/statix-dev/taie/internal/queue"
	"github.com/statix-dev/taie/pointerset"
)

// PointerFlowGraph tracks subset-constraint edges between pointers of
// type P and the current points-to set of each pointer. Edges are a
// single undifferentiated "flows to" relation, matching
// PointerFlowGraph.java: field/array/parameter-passing assignment all
// reduce to a copy edge once the solver has resolved which concrete
// pointer is on each side.
type PointerFlowGraph[P comparable] struct {
	succs map[P]map[P]struct{}
	pts   map[P]*pointerset.Set
}

func NewPointerFlowGraph[P comparable]() *PointerFlowGraph[P] {
	return &PointerFlowGraph[P]{
		succs: map[P]map[P]struct{}{},
		pts:   map[P]*pointerset.Set{},
	}
}

// AddEdge adds a from->to subset-constraint edge, reporting whether it is
// new.
func (g *PointerFlowGraph[P]) AddEdge(from, to P) bool {
	set, ok := g.succs[from]
	if !ok {
		set = map[P]struct{}{}
		g.succs[from] = set
	}
	if _, ok := set[to]; ok {
		return false
	}
	set[to] = struct{}{}
	return true
}

// Succs returns the pointers from flows to.
func (g *PointerFlowGraph[P]) Succs(from P) []P {
	out := make([]P, 0, len(g.succs[from]))
	for p := range g.succs[from] {
		out = append(out, p)
	}
	return out
}

// PointsTo returns p's current points-to set, or an empty set if p has
// never been touched.
func (g *PointerFlowGraph[P]) PointsTo(p P) *pointerset.Set {
	if s, ok := g.pts[p]; ok {
		return s
	}
	s := pointerset.New()
	g.pts[p] = s
	return s
}

// Pointers returns every pointer that has ever had a points-to entry
// created for it (including ones that turned out to be empty).
func (g *PointerFlowGraph[P]) Pointers() []P {
	return maps.Keys(g.pts)
}

// HasPointer reports whether p already has an entry (used to distinguish
// "points to nothing yet" from "never seen").
func (g *PointerFlowGraph[P]) HasPointer(p P) bool {
	_, ok := g.pts[p]
	return ok
}

// Propagate unions delta into p's points-to set in place and returns the
// subset of delta that was not already present (the actual delta to
// forward along p's outgoing edges).
func (g *PointerFlowGraph[P]) Propagate(p P, delta *pointerset.Set) *pointerset.Set {
	cur, ok := g.pts[p]
	if !ok {
		cur = pointerset.New()
		g.pts[p] = cur
	}
	newOnly := delta.Diff(cur)
	if !newOnly.IsEmpty() {
		cur.UnionWith(newOnly)
	}
	return newOnly
}

// WorkListEntry pairs a pointer with a points-to delta waiting to be
// propagated through the graph.
type WorkListEntry[P any] struct {
	Pointer P
	Delta   *pointerset.Set
}

// WorkList is the solver's FIFO work queue of (pointer, delta) entries.
type WorkList[P any] struct {
	q queue.Queue[WorkListEntry[P]]
}

func (w *WorkList[P]) Push(p P, delta *pointerset.Set) {
	w.q.Push(WorkListEntry[P]{Pointer: p, Delta: delta})
}

func (w *WorkList[P]) Empty() bool { return w.q.Empty() }

func (w *WorkList[P]) Pop() WorkListEntry[P] { return w.q.Pop() }
