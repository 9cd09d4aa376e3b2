package cs

import (
	log "github.com/sirupsen/logrus"

	"github.com/statix-dev/taie/callgraph"
	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/heap"
	"github.com/statix-dev/taie/ir"
	"github.com/statix-dev/taie/pointerset"
	"github.com/statix-dev/taie/pta"
	ctxpkg "github.com/statix-dev/taie/pta/context"
)

type methodStmt struct {
	Method CSMethod
	Stmt   ir.Stmt
}

type callEdgeKey struct {
	CallSite CSCallSite
	Callee   CSMethod
}

// Hooks lets an observer (pta/taint) ride along with the fixpoint without
// the solver depending on it: AfterPropagate fires whenever a pointer's
// points-to set grows, AfterCallEdge fires whenever a new call edge is
// resolved. Named after original_source's Solver.java calling
// taintAnalysis.propagate/taintAnalysis.processCall at the matching
// points in its own loop.
type Hooks interface {
	AfterPropagate(p Pointer, delta *pointerset.Set, objOf func(int) CSObj)
	AfterCallEdge(caller CSMethod, callSite CSCallSite, callee CSMethod)
}

// Solver is the context-sensitive Andersen-style points-to solver.
type Solver struct {
	Hierarchy classes.ClassHierarchy
	HeapModel heap.HeapModel
	GetIR     func(*classes.Method) *ir.IR
	Selector  ctxpkg.Selector

	pfg *pta.PointerFlowGraph[Pointer]
	wl  pta.WorkList[Pointer]
	cg  *callgraph.Graph[CSCallSite, CSMethod]

	objs   []CSObj
	objIdx map[CSObj]int

	varStmts    map[CSVar][]methodStmt
	reachable   map[CSMethod]struct{}
	calledEdges map[callEdgeKey]struct{}
	hooks       []Hooks
}

func NewSolver(
	h classes.ClassHierarchy,
	hm heap.HeapModel,
	getIR func(*classes.Method) *ir.IR,
	selector ctxpkg.Selector,
) *Solver {
	return &Solver{
		Hierarchy:   h,
		HeapModel:   hm,
		GetIR:       getIR,
		Selector:    selector,
		pfg:         pta.NewPointerFlowGraph[Pointer](),
		cg:          callgraph.New[CSCallSite, CSMethod](),
		objIdx:      map[CSObj]int{},
		varStmts:    map[CSVar][]methodStmt{},
		reachable:   map[CSMethod]struct{}{},
		calledEdges: map[callEdgeKey]struct{}{},
	}
}

// AddHook registers an observer. Must be called before Solve.
func (s *Solver) AddHook(h Hooks) { s.hooks = append(s.hooks, h) }

func (s *Solver) indexOf(o CSObj) int {
	if i, ok := s.objIdx[o]; ok {
		return i
	}
	i := len(s.objs)
	s.objs = append(s.objs, o)
	s.objIdx[o] = i
	return i
}

func (s *Solver) objAt(i int) CSObj { return s.objs[i] }

// ObjAt exposes the object behind a points-to set index, for hooks (e.g.
// pta/taint) that need to inspect an object flagged by AfterPropagate.
func (s *Solver) ObjAt(i int) CSObj { return s.objAt(i) }

// CurrentPointsTo returns p's points-to set as of right now, mid-fixpoint;
// hooks use this to pick up objects that reached p before the hook
// itself was registered.
func (s *Solver) CurrentPointsTo(p Pointer) *pointerset.Set { return s.pfg.PointsTo(p) }

// AddFlowEdge lets a Hooks observer add an extra subset-constraint edge
// (used by pta/taint to model a transfer rule: tainted data flowing from
// an argument to a result across a call the solver otherwise has no
// reason to connect those two variables through).
func (s *Solver) AddFlowEdge(from, to Pointer) { s.addPFGEdge(from, to) }

// SeedPointsTo adds objs to p's points-to set as if a New statement had
// allocated them there (used by pta/taint to introduce a synthetic
// source object at a tainted call's result).
func (s *Solver) SeedPointsTo(p Pointer, objs ...CSObj) { s.addVarPointsTo(p.(CSVar), objs...) }

func (s *Solver) addVarPointsTo(v CSVar, objs ...CSObj) {
	if v.Var == nil {
		return
	}
	delta := pointerset.New()
	for _, o := range objs {
		delta.Add(s.indexOf(o))
	}
	if !delta.IsEmpty() {
		s.wl.Push(v, delta)
	}
}

func (s *Solver) addPFGEdge(from, to Pointer) {
	if !s.pfg.AddEdge(from, to) {
		return
	}
	pts := s.pfg.PointsTo(from)
	if !pts.IsEmpty() {
		s.wl.Push(to, pts.Clone())
	}
}

// Solve runs the fixpoint from entries, each started under the
// context-insensitive Empty context (original_source starts every entry
// method's context the same way regardless of selector).
func (s *Solver) Solve(entries []*classes.Method) *Result {
	for _, e := range entries {
		s.addReachable(CSMethod{Ctx: ctxpkg.Empty, Method: e})
	}
	for !s.wl.Empty() {
		entry := s.wl.Pop()
		delta := s.pfg.Propagate(entry.Pointer, entry.Delta)
		if delta.IsEmpty() {
			continue
		}
		log.Tracef("cs: %s gains %d new objects", entry.Pointer, delta.Len())
		for _, h := range s.hooks {
			h.AfterPropagate(entry.Pointer, delta, s.objAt)
		}
		if vp, ok := entry.Pointer.(CSVar); ok {
			delta.ForEach(func(idx int) {
				obj := s.objs[idx]
				for _, ms := range s.varStmts[vp] {
					s.processVarStmt(ms, obj)
				}
			})
		}
		for _, succ := range s.pfg.Succs(entry.Pointer) {
			s.wl.Push(succ, delta)
		}
	}
	return &Result{callGraph: s.cg, pfg: s.pfg, objs: s.objs, objIdx: s.objIdx}
}

func (s *Solver) addReachable(m CSMethod) {
	if _, ok := s.reachable[m]; ok {
		return
	}
	s.reachable[m] = struct{}{}
	s.cg.AddReachable(m)
	if m.Method.IsAbstract() {
		return
	}
	body := s.GetIR(m.Method)
	if body == nil {
		log.Debugf("cs: no IR for reachable method %s", m)
		return
	}
	for _, stmt := range body.Stmts {
		switch st := stmt.(type) {
		case *ir.New:
			objCtx := s.Selector.SelectHeapContext(m.Ctx, st)
			obj := CSObj{Ctx: objCtx, Obj: s.HeapModel.Obj(st)}
			s.addVarPointsTo(CSVar{m.Ctx, st.LHS()}, obj)
		case *ir.Copy:
			s.addPFGEdge(CSVar{m.Ctx, st.RHS}, CSVar{m.Ctx, st.LHS()})
		case *ir.StoreField:
			if st.Base == nil {
				s.addPFGEdge(CSVar{m.Ctx, st.RHS}, StaticFieldPtr{st.Field})
			} else {
				cv := CSVar{m.Ctx, st.Base}
				s.varStmts[cv] = append(s.varStmts[cv], methodStmt{m, st})
			}
		case *ir.LoadField:
			if st.Base == nil {
				s.addPFGEdge(StaticFieldPtr{st.Field}, CSVar{m.Ctx, st.LHS()})
			} else {
				cv := CSVar{m.Ctx, st.Base}
				s.varStmts[cv] = append(s.varStmts[cv], methodStmt{m, st})
			}
		case *ir.StoreArray:
			cv := CSVar{m.Ctx, st.Base}
			s.varStmts[cv] = append(s.varStmts[cv], methodStmt{m, st})
		case *ir.LoadArray:
			cv := CSVar{m.Ctx, st.Base}
			s.varStmts[cv] = append(s.varStmts[cv], methodStmt{m, st})
		case *ir.Invoke:
			if st.Base == nil {
				s.processStaticCall(m, st)
			} else {
				cv := CSVar{m.Ctx, st.Base}
				s.varStmts[cv] = append(s.varStmts[cv], methodStmt{m, st})
			}
		}
	}
}

func (s *Solver) processVarStmt(ms methodStmt, obj CSObj) {
	m := ms.Method
	switch st := ms.Stmt.(type) {
	case *ir.StoreField:
		s.addPFGEdge(CSVar{m.Ctx, st.RHS}, InstanceFieldPtr{Obj: obj, Field: st.Field})
	case *ir.LoadField:
		s.addPFGEdge(InstanceFieldPtr{Obj: obj, Field: st.Field}, CSVar{m.Ctx, st.LHS()})
	case *ir.StoreArray:
		s.addPFGEdge(CSVar{m.Ctx, st.RHS}, ArrayPtr{Obj: obj})
	case *ir.LoadArray:
		s.addPFGEdge(ArrayPtr{Obj: obj}, CSVar{m.Ctx, st.LHS()})
	case *ir.Invoke:
		s.processInstanceCall(m, obj, st)
	}
}

func (s *Solver) processStaticCall(caller CSMethod, inv *ir.Invoke) {
	callee, ok := s.Hierarchy.ResolveMethod(inv.DeclaringClass, inv.MethodRef)
	if !ok {
		return
	}
	calleeCtx := s.Selector.SelectStaticContext(inv, caller.Ctx)
	s.linkCall(caller, CSCallSite{caller.Ctx, inv}, CSMethod{calleeCtx, callee}, callgraph.Static, nil)
}

func (s *Solver) resolveInstanceCallee(obj CSObj, inv *ir.Invoke) (*classes.Method, callgraph.Kind) {
	switch inv.Kind {
	case ir.SpecialCall:
		if m, ok := s.Hierarchy.ResolveMethod(inv.DeclaringClass, inv.MethodRef); ok {
			return m, callgraph.Special
		}
		return nil, 0
	case ir.VirtualCall, ir.InterfaceCall:
		declClass, ok := s.Hierarchy.GetClass(obj.Obj.Type)
		if !ok {
			return nil, 0
		}
		if m, ok := s.Hierarchy.ResolveMethod(declClass, inv.MethodRef); ok {
			kind := callgraph.Virtual
			if inv.Kind == ir.InterfaceCall {
				kind = callgraph.Interface
			}
			return m, kind
		}
		return nil, 0
	default:
		return nil, 0
	}
}

func (s *Solver) processInstanceCall(caller CSMethod, obj CSObj, inv *ir.Invoke) {
	m, kind := s.resolveInstanceCallee(obj, inv)
	if m == nil {
		return
	}
	calleeCtx := s.Selector.SelectContext(inv, obj.Ctx, caller.Ctx)
	callee := CSMethod{calleeCtx, m}
	s.linkCall(caller, CSCallSite{caller.Ctx, inv}, callee, kind, &obj)
}

func (s *Solver) linkCall(caller CSMethod, callSite CSCallSite, callee CSMethod, kind callgraph.Kind, recv *CSObj) {
	key := callEdgeKey{callSite, callee}
	if _, ok := s.calledEdges[key]; ok {
		return
	}
	s.calledEdges[key] = struct{}{}
	s.cg.AddEdge(caller, callgraph.Edge[CSCallSite, CSMethod]{Kind: kind, CallSite: callSite, Callee: callee})
	for _, h := range s.hooks {
		h.AfterCallEdge(caller, callSite, callee)
	}

	calleeIR := s.GetIR(callee.Method)
	if recv != nil && calleeIR != nil && calleeIR.ThisVar != nil {
		s.addVarPointsTo(CSVar{callee.Ctx, calleeIR.ThisVar}, *recv)
	}
	s.bindArgs(caller.Ctx, calleeIR, callee.Ctx, callSite.Invoke)
	s.bindReturn(caller.Ctx, calleeIR, callee.Ctx, callSite.Invoke)
	s.addReachable(callee)
}

func (s *Solver) bindArgs(callerCtx ctxpkg.Context, calleeIR *ir.IR, calleeCtx ctxpkg.Context, inv *ir.Invoke) {
	if calleeIR == nil {
		return
	}
	n := len(inv.Args)
	if len(calleeIR.Params) < n {
		n = len(calleeIR.Params)
	}
	for i := 0; i < n; i++ {
		s.addPFGEdge(CSVar{callerCtx, inv.Args[i]}, CSVar{calleeCtx, calleeIR.Params[i]})
	}
}

func (s *Solver) bindReturn(callerCtx ctxpkg.Context, calleeIR *ir.IR, calleeCtx ctxpkg.Context, inv *ir.Invoke) {
	if calleeIR == nil || inv.LHS() == nil {
		return
	}
	for _, stmt := range calleeIR.Stmts {
		if ret, ok := stmt.(*ir.Return); ok && ret.Value != nil {
			s.addPFGEdge(CSVar{calleeCtx, ret.Value}, CSVar{callerCtx, inv.LHS()})
		}
	}
}
