package ci

import (
	"github.com/statix-dev/taie/callgraph"
	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/heap"
	"github.com/statix-dev/taie/ir"
	"github.com/statix-dev/taie/pta"
)

// Result is the read-only view of a completed Solve: the call graph and
// points-to sets the fixpoint settled on.
type Result struct {
	callGraph *callgraph.Graph[*ir.Invoke, *classes.Method]
	pfg       *pta.PointerFlowGraph[Pointer]
	objs      []*heap.Obj
	objIdx    map[*heap.Obj]int
}

// CallGraph returns the discovered whole-program call graph.
func (r *Result) CallGraph() *callgraph.Graph[*ir.Invoke, *classes.Method] {
	return r.callGraph
}

// PointsTo returns the abstract objects v may point to.
func (r *Result) PointsTo(v *ir.Var) []*heap.Obj {
	set := r.pfg.PointsTo(VarPtr{v})
	out := make([]*heap.Obj, 0, set.Len())
	set.ForEach(func(i int) { out = append(out, r.objs[i]) })
	return out
}

// MayAlias reports whether a and b's points-to sets intersect.
func (r *Result) MayAlias(a, b *ir.Var) bool {
	pa := r.pfg.PointsTo(VarPtr{a})
	pb := r.pfg.PointsTo(VarPtr{b})
	alias := false
	pa.ForEach(func(i int) {
		if pb.Contains(i) {
			alias = true
		}
	})
	return alias
}
