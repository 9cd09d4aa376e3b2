// Package cfg builds and represents per-method control-flow graphs over
// ir.Stmt nodes, plus a small generic Graph type reused by other layers
// (the generic dataflow solver consumes it directly; icfg stitches many
// of these together through a call graph).
package cfg

import "github.com/statix-dev/taie/ir"

// EdgeKind classifies a control-flow edge.
type EdgeKind int

const (
	FallThrough EdgeKind = iota
	IfTrue
	IfFalse
	SwitchCase
	SwitchDefault
	GotoEdge
	ReturnEdge
)

func (k EdgeKind) String() string {
	switch k {
	case FallThrough:
		return "fallthrough"
	case IfTrue:
		return "if-true"
	case IfFalse:
		return "if-false"
	case SwitchCase:
		return "switch-case"
	case SwitchDefault:
		return "switch-default"
	case GotoEdge:
		return "goto"
	case ReturnEdge:
		return "return"
	default:
		return "unknown"
	}
}

// Edge is a directed control-flow edge. CaseValue is only meaningful when
// Kind == SwitchCase.
type Edge struct {
	Kind      EdgeKind
	Source    ir.Stmt
	Target    ir.Stmt
	CaseValue int32
}

// Graph is a method's control-flow graph: nodes are ir.Stmt values (with a
// synthetic *ir.Exit as the unique exit node), edges are typed by EdgeKind.
type Graph struct {
	Entry ir.Stmt
	Exit  ir.Stmt

	nodes []ir.Stmt
	succs map[ir.Stmt][]Edge
	preds map[ir.Stmt][]Edge
}

func newGraph() *Graph {
	return &Graph{
		succs: map[ir.Stmt][]Edge{},
		preds: map[ir.Stmt][]Edge{},
	}
}

func (g *Graph) addNode(n ir.Stmt) {
	if _, ok := g.succs[n]; ok {
		return
	}
	g.succs[n] = nil
	g.preds[n] = nil
	g.nodes = append(g.nodes, n)
}

func (g *Graph) addEdge(e Edge) {
	g.addNode(e.Source)
	g.addNode(e.Target)
	g.succs[e.Source] = append(g.succs[e.Source], e)
	g.preds[e.Target] = append(g.preds[e.Target], e)
}

// Nodes returns every node in the graph, in no particular order beyond
// the synthetic Exit being first.
func (g *Graph) Nodes() []ir.Stmt { return g.nodes }

// Succs returns the outgoing edges of n.
func (g *Graph) Succs(n ir.Stmt) []Edge { return g.succs[n] }

// Preds returns the incoming edges of n.
func (g *Graph) Preds(n ir.Stmt) []Edge { return g.preds[n] }

// SuccNodes returns just the targets of n's outgoing edges, satisfying the
// generic dataflow.Graph contract.
func (g *Graph) SuccNodes(n ir.Stmt) []ir.Stmt {
	edges := g.succs[n]
	out := make([]ir.Stmt, len(edges))
	for i, e := range edges {
		out[i] = e.Target
	}
	return out
}

// PredNodes returns just the sources of n's incoming edges.
func (g *Graph) PredNodes(n ir.Stmt) []ir.Stmt {
	edges := g.preds[n]
	out := make([]ir.Stmt, len(edges))
	for i, e := range edges {
		out[i] = e.Source
	}
	return out
}

func (g *Graph) EntryNode() ir.Stmt { return g.Entry }

// Build lowers a method's flat statement list into its control-flow
// graph. Index-based jump targets on If/Switch/Goto are resolved against
// body.Stmts; Return statements and fallthrough off the last statement
// both point at the synthetic exit node.
func Build(body *ir.IR) *Graph {
	g := newGraph()
	exit := &ir.Exit{}
	g.Exit = exit
	g.addNode(exit)

	if len(body.Stmts) == 0 {
		g.Entry = exit
		return g
	}
	g.Entry = body.Stmts[0]

	at := func(i int) ir.Stmt {
		if i < 0 || i >= len(body.Stmts) {
			return exit
		}
		return body.Stmts[i]
	}

	for i, s := range body.Stmts {
		switch stmt := s.(type) {
		case *ir.If:
			g.addEdge(Edge{Kind: IfTrue, Source: s, Target: at(stmt.TrueTarget)})
			g.addEdge(Edge{Kind: IfFalse, Source: s, Target: at(stmt.FalseTarget)})
		case *ir.Switch:
			for ci, target := range stmt.CaseTargets {
				g.addEdge(Edge{
					Kind:      SwitchCase,
					Source:    s,
					Target:    at(target),
					CaseValue: stmt.Cases[ci],
				})
			}
			g.addEdge(Edge{Kind: SwitchDefault, Source: s, Target: at(stmt.DefaultTarget)})
		case *ir.Goto:
			g.addEdge(Edge{Kind: GotoEdge, Source: s, Target: at(stmt.Target)})
		case *ir.Return:
			g.addEdge(Edge{Kind: ReturnEdge, Source: s, Target: exit})
		default:
			g.addEdge(Edge{Kind: FallThrough, Source: s, Target: at(i + 1)})
		}
	}
	return g
}
