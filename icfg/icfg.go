// Package icfg builds the inter-procedural control-flow graph inter-CP
// (dataflow/inter) runs over: per-method CFGs stitched together through a
// call graph, with call sites split into a Call edge (into the callee's
// entry) and a CallToReturn edge (skipping the call, used to propagate
// facts that don't flow through the callee, like a caller's other locals),
// plus Return edges from every callee exit back to its caller's
// post-call-site node.
package icfg

import (
	"github.com/statix-dev/taie/callgraph"
	"github.com/statix-dev/taie/cfg"
	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/ir"
)

// EdgeKind classifies an inter-procedural control-flow edge.
type EdgeKind int

const (
	Normal EdgeKind = iota
	Call
	CallToReturn
	Return
)

// Node identifies a statement within a specific method.
type Node struct {
	Method *classes.Method
	Stmt   ir.Stmt
}

// Edge is a directed inter-procedural control-flow edge. Invoke names the
// call site a Call/CallToReturn/Return edge is associated with; it is nil
// for a Normal edge.
type Edge struct {
	Kind   EdgeKind
	Source Node
	Target Node
	Invoke *ir.Invoke
}

// Graph is the inter-procedural CFG over every reachable method's CFG.
type Graph struct {
	cg    *callgraph.Graph[*ir.Invoke, *classes.Method]
	cfgs  map[*classes.Method]*cfg.Graph
	succs map[Node][]Edge
	preds map[Node][]Edge
}

// Build stitches together the CFGs of every method reachable in cg.
// cfgOf must return the (already built) CFG for any reachable method.
func Build(cg *callgraph.Graph[*ir.Invoke, *classes.Method], cfgOf func(*classes.Method) *cfg.Graph) *Graph {
	g := &Graph{
		cg:    cg,
		cfgs:  map[*classes.Method]*cfg.Graph{},
		succs: map[Node][]Edge{},
		preds: map[Node][]Edge{},
	}
	for _, m := range cg.Reachable() {
		body := cfgOf(m)
		if body == nil {
			continue
		}
		g.cfgs[m] = body
	}
	for m, body := range g.cfgs {
		for _, n := range body.Nodes() {
			src := Node{m, n}
			if inv, ok := n.(*ir.Invoke); ok {
				g.wireCall(m, body, inv)
				continue
			}
			for _, e := range body.Succs(n) {
				g.addEdge(Edge{Kind: Normal, Source: src, Target: Node{m, e.Target}})
			}
		}
	}
	return g
}

// wireCall splits a call-site node into Call edges (to every resolved
// callee's entry) and a CallToReturn edge (to the call site's own normal
// successors, modeling control continuing locally for facts the callee
// can't affect), then wires Return edges from each callee's exit back to
// those same normal successors.
func (g *Graph) wireCall(caller *classes.Method, body *cfg.Graph, inv *ir.Invoke) {
	src := Node{caller, inv}
	var normalSuccs []Node
	for _, e := range body.Succs(inv) {
		normalSuccs = append(normalSuccs, Node{caller, e.Target})
	}
	for _, t := range normalSuccs {
		g.addEdge(Edge{Kind: CallToReturn, Source: src, Target: t, Invoke: inv})
	}
	for _, callee := range g.cg.CalleesOf(inv) {
		calleeBody, ok := g.cfgs[callee]
		if !ok {
			continue
		}
		g.addEdge(Edge{Kind: Call, Source: src, Target: Node{callee, calleeBody.Entry}, Invoke: inv})
		for _, t := range normalSuccs {
			g.addEdge(Edge{Kind: Return, Source: Node{callee, calleeBody.Exit}, Target: t, Invoke: inv})
		}
	}
}

func (g *Graph) addEdge(e Edge) {
	g.succs[e.Source] = append(g.succs[e.Source], e)
	g.preds[e.Target] = append(g.preds[e.Target], e)
}

func (g *Graph) Succs(n Node) []Edge { return g.succs[n] }
func (g *Graph) Preds(n Node) []Edge { return g.preds[n] }

// SuccNodes satisfies the generic dataflow.Graph contract.
func (g *Graph) SuccNodes(n Node) []Node {
	edges := g.succs[n]
	out := make([]Node, len(edges))
	for i, e := range edges {
		out[i] = e.Target
	}
	return out
}

func (g *Graph) PredNodes(n Node) []Node {
	edges := g.preds[n]
	out := make([]Node, len(edges))
	for i, e := range edges {
		out[i] = e.Source
	}
	return out
}

// Nodes returns every (method, stmt) node reachable in the graph.
func (g *Graph) Nodes() []Node {
	var out []Node
	for m, body := range g.cfgs {
		for _, n := range body.Nodes() {
			out = append(out, Node{m, n})
		}
	}
	return out
}

// Entries returns the entry node of every method the graph covers.
func (g *Graph) Entries() []Node {
	var out []Node
	for m, body := range g.cfgs {
		out = append(out, Node{m, body.Entry})
	}
	return out
}

// CFGOf returns the CFG backing a method, if it is part of this graph.
func (g *Graph) CFGOf(m *classes.Method) (*cfg.Graph, bool) {
	c, ok := g.cfgs[m]
	return c, ok
}
