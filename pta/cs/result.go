package cs

import (
	"github.com/statix-dev/taie/callgraph"
	"github.com/statix-dev/taie/ir"
	"github.com/statix-dev/taie/pta"
	ctxpkg "github.com/statix-dev/taie/pta/context"
)

// Result is the read-only view of a completed context-sensitive Solve.
type Result struct {
	callGraph *callgraph.Graph[CSCallSite, CSMethod]
	pfg       *pta.PointerFlowGraph[Pointer]
	objs      []CSObj
	objIdx    map[CSObj]int
}

func (r *Result) CallGraph() *callgraph.Graph[CSCallSite, CSMethod] { return r.callGraph }

// PointsTo returns the context-qualified objects the (ctx, v) pair may
// point to.
func (r *Result) PointsTo(ctx ctxpkg.Context, v *ir.Var) []CSObj {
	set := r.pfg.PointsTo(CSVar{ctx, v})
	out := make([]CSObj, 0, set.Len())
	set.ForEach(func(i int) { out = append(out, r.objs[i]) })
	return out
}

// KnownContexts returns every context v was ever analyzed under.
func (r *Result) KnownContexts(v *ir.Var) []ctxpkg.Context {
	var out []ctxpkg.Context
	for _, p := range r.pfg.Pointers() {
		if cv, ok := p.(CSVar); ok && cv.Var == v {
			out = append(out, cv.Ctx)
		}
	}
	return out
}

// ObjIndex returns the stable integer index assigned to a context-
// sensitive object, for use as an alias-analysis set element.
func (r *Result) ObjIndex(o CSObj) int {
	return r.objIdx[o]
}

// MayAlias reports whether two context-qualified variables' points-to
// sets intersect.
func (r *Result) MayAlias(ctxA ctxpkg.Context, a *ir.Var, ctxB ctxpkg.Context, b *ir.Var) bool {
	pa := r.pfg.PointsTo(CSVar{ctxA, a})
	pb := r.pfg.PointsTo(CSVar{ctxB, b})
	alias := false
	pa.ForEach(func(i int) {
		if pb.Contains(i) {
			alias = true
		}
	})
	return alias
}
