// Package callgraph represents call graphs generically over a call-site
// type C and a method type M, and provides a Class-Hierarchy-Analysis
// (CHA) builder over taie's ir/classes types.
package callgraph

import (
	"github.com/statix-dev/taie/internal/queue"
)

// Kind classifies how a call edge was resolved.
type Kind int

const (
	Static Kind = iota
	Special
	Virtual
	Interface
	Dynamic
	Other
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Special:
		return "special"
	case Virtual:
		return "virtual"
	case Interface:
		return "interface"
	case Dynamic:
		return "dynamic"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// Edge is a resolved call edge from a call site to a callee.
type Edge[C, M any] struct {
	Kind     Kind
	CallSite C
	Callee   M
}

// Graph is a call graph keyed by a comparable call-site type C and a
// comparable method type M. Both pta/ci and pta/cs build their own
// instantiation on the fly as they discover reachable code; CHA builds
// one eagerly in a single worklist pass.
type Graph[C comparable, M comparable] struct {
	entries   []M
	reachable map[M]struct{}
	outEdges  map[M][]Edge[C, M]
	calleesOf map[C][]M
	callersOf map[M][]Edge[C, M]
}

func New[C comparable, M comparable]() *Graph[C, M] {
	return &Graph[C, M]{
		reachable: map[M]struct{}{},
		outEdges:  map[M][]Edge[C, M]{},
		calleesOf: map[C][]M{},
		callersOf: map[M][]Edge[C, M]{},
	}
}

// AddReachable marks m reachable, reporting whether it was newly added.
func (g *Graph[C, M]) AddReachable(m M) bool {
	if _, ok := g.reachable[m]; ok {
		return false
	}
	g.reachable[m] = struct{}{}
	g.entries = append(g.entries, m)
	return true
}

func (g *Graph[C, M]) IsReachable(m M) bool {
	_, ok := g.reachable[m]
	return ok
}

// Reachable returns every method reached so far.
func (g *Graph[C, M]) Reachable() []M { return g.entries }

// AddEdge records a call edge. The caller is identified implicitly: it is
// up to builders to also call AddReachable on both endpoints as they
// discover them.
func (g *Graph[C, M]) AddEdge(caller M, e Edge[C, M]) {
	g.outEdges[caller] = append(g.outEdges[caller], e)
	g.calleesOf[e.CallSite] = append(g.calleesOf[e.CallSite], e.Callee)
	g.callersOf[e.Callee] = append(g.callersOf[e.Callee], e)
}

// OutEdges returns the call edges originating in caller.
func (g *Graph[C, M]) OutEdges(caller M) []Edge[C, M] { return g.outEdges[caller] }

// CalleesOf returns the methods a call site resolves to.
func (g *Graph[C, M]) CalleesOf(c C) []M { return g.calleesOf[c] }

// CallersOf returns the edges targeting callee.
func (g *Graph[C, M]) CallersOf(callee M) []Edge[C, M] { return g.callersOf[callee] }

// Builder is implemented by anything that can enumerate call sites in a
// method body and report how many (if any) methods a given call site
// resolves to along with its Kind. Build is generic over this so the
// same worklist shape could, in principle, drive another resolution
// strategy than pure CHA.
type Builder[C comparable, M comparable] interface {
	// CallSitesIn returns the call sites appearing in m's body.
	CallSitesIn(m M) []C
	// Resolve returns the methods c may invoke.
	Resolve(c C) []Edge[C, M]
}

// Build runs a generic reachability worklist: starting from entries,
// repeatedly resolve call sites in newly reachable methods and add the
// discovered edges, until no new method becomes reachable.
func Build[C comparable, M comparable](b Builder[C, M], entries []M) *Graph[C, M] {
	g := New[C, M]()
	wl := &queue.Queue[M]{}
	for _, e := range entries {
		if g.AddReachable(e) {
			wl.Push(e)
		}
	}
	for !wl.Empty() {
		m := wl.Pop()
		for _, cs := range b.CallSitesIn(m) {
			for _, e := range b.Resolve(cs) {
				g.AddEdge(m, e)
				if g.AddReachable(e.Callee) {
					wl.Push(e.Callee)
				}
			}
		}
	}
	return g
}
