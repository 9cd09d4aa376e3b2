package ci

import (
	log "github.com/sirupsen/logrus"

	"github.com/statix-dev/taie/callgraph"
	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/heap"
	"github.com/statix-dev/taie/ir"
	"github.com/statix-dev/taie/pointerset"
	"github.com/statix-dev/taie/pta"
)

// methodStmt remembers which method a deferred instance field/array/call
// statement belongs to, so a call edge discovered later still has the
// right caller.
type methodStmt struct {
	Method *classes.Method
	Stmt   ir.Stmt
}

type callEdgeKey struct {
	Invoke *ir.Invoke
	Callee *classes.Method
}

// Solver is the context-insensitive Andersen-style points-to solver. It
// co-computes points-to sets, the pointer-flow graph, and the call graph
// in a single worklist fixpoint, discovering reachable methods on the
// fly as new objects flow into call receivers.
type Solver struct {
	Hierarchy classes.ClassHierarchy
	HeapModel heap.HeapModel
	GetIR     func(*classes.Method) *ir.IR

	pfg *pta.PointerFlowGraph[Pointer]
	wl  pta.WorkList[Pointer]
	cg  *callgraph.Graph[*ir.Invoke, *classes.Method]

	objs   []*heap.Obj
	objIdx map[*heap.Obj]int

	varStmts     map[*ir.Var][]methodStmt
	reachable    map[*classes.Method]struct{}
	calledEdges  map[callEdgeKey]struct{}
}

func NewSolver(h classes.ClassHierarchy, hm heap.HeapModel, getIR func(*classes.Method) *ir.IR) *Solver {
	return &Solver{
		Hierarchy:   h,
		HeapModel:   hm,
		GetIR:       getIR,
		pfg:         pta.NewPointerFlowGraph[Pointer](),
		cg:          callgraph.New[*ir.Invoke, *classes.Method](),
		objIdx:      map[*heap.Obj]int{},
		varStmts:    map[*ir.Var][]methodStmt{},
		reachable:   map[*classes.Method]struct{}{},
		calledEdges: map[callEdgeKey]struct{}{},
	}
}

func (s *Solver) indexOf(o *heap.Obj) int {
	if i, ok := s.objIdx[o]; ok {
		return i
	}
	i := len(s.objs)
	s.objs = append(s.objs, o)
	s.objIdx[o] = i
	return i
}

func (s *Solver) addVarPointsTo(v *ir.Var, objs ...*heap.Obj) {
	if v == nil {
		return
	}
	delta := pointerset.New()
	for _, o := range objs {
		delta.Add(s.indexOf(o))
	}
	if !delta.IsEmpty() {
		s.wl.Push(VarPtr{Var: v}, delta)
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

// Solve runs the fixpoint from entries and returns the final result.
func (s *Solver) Solve(entries []*classes.Method) *Result {
	for _, e := range entries {
		s.addReachable(e)
	}
	for !s.wl.Empty() {
		entry := s.wl.Pop()
		delta := s.pfg.Propagate(entry.Pointer, entry.Delta)
		if delta.IsEmpty() {
			continue
		}
		log.Tracef("ci: %s gains %d new objects", entry.Pointer, delta.Len())
		if vp, ok := entry.Pointer.(VarPtr); ok {
			delta.ForEach(func(idx int) {
				obj := s.objs[idx]
				for _, ms := range s.varStmts[vp.Var] {
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

// addReachable marks m reachable and, unless it is abstract (open
// question 1 in DESIGN.md), visits its statements once, wiring direct
// pointer-flow edges and deferring instance field/array/call statements
// to be replayed whenever their base variable's points-to set grows.
func (s *Solver) addReachable(m *classes.Method) {
	if _, ok := s.reachable[m]; ok {
		return
	}
	s.reachable[m] = struct{}{}
	s.cg.AddReachable(m)
	if m.IsAbstract() {
		return
	}
	body := s.GetIR(m)
	if body == nil {
		log.Debugf("ci: no IR for reachable method %s", m)
		return
	}
	for _, stmt := range body.Stmts {
		switch st := stmt.(type) {
		case *ir.New:
			s.addVarPointsTo(st.LHS(), s.HeapModel.Obj(st))
		case *ir.Copy:
			s.addPFGEdge(VarPtr{st.RHS}, VarPtr{st.LHS()})
		case *ir.StoreField:
			if st.Base == nil {
				s.addPFGEdge(VarPtr{st.RHS}, StaticFieldPtr{st.Field})
			} else {
				s.varStmts[st.Base] = append(s.varStmts[st.Base], methodStmt{m, st})
			}
		case *ir.LoadField:
			if st.Base == nil {
				s.addPFGEdge(StaticFieldPtr{st.Field}, VarPtr{st.LHS()})
			} else {
				s.varStmts[st.Base] = append(s.varStmts[st.Base], methodStmt{m, st})
			}
		case *ir.StoreArray:
			s.varStmts[st.Base] = append(s.varStmts[st.Base], methodStmt{m, st})
		case *ir.LoadArray:
			s.varStmts[st.Base] = append(s.varStmts[st.Base], methodStmt{m, st})
		case *ir.Invoke:
			if st.Base == nil {
				s.processStaticCall(m, st)
			} else {
				s.varStmts[st.Base] = append(s.varStmts[st.Base], methodStmt{m, st})
			}
		}
	}
}

func (s *Solver) processVarStmt(ms methodStmt, obj *heap.Obj) {
	switch st := ms.Stmt.(type) {
	case *ir.StoreField:
		s.addPFGEdge(VarPtr{st.RHS}, InstanceFieldPtr{Obj: obj, Field: st.Field})
	case *ir.LoadField:
		s.addPFGEdge(InstanceFieldPtr{Obj: obj, Field: st.Field}, VarPtr{st.LHS()})
	case *ir.StoreArray:
		s.addPFGEdge(VarPtr{st.RHS}, ArrayPtr{Obj: obj})
	case *ir.LoadArray:
		s.addPFGEdge(ArrayPtr{Obj: obj}, VarPtr{st.LHS()})
	case *ir.Invoke:
		s.processInstanceCall(ms.Method, obj, st)
	}
}

func (s *Solver) processStaticCall(caller *classes.Method, inv *ir.Invoke) {
	m, ok := s.Hierarchy.ResolveMethod(inv.DeclaringClass, inv.MethodRef)
	if !ok {
		return
	}
	s.linkCall(caller, inv, m, callgraph.Static)
}

// resolveInstanceCallee dispatches inv against obj's concrete type: the
// Special kind resolves against the compile-time declaring class (like a
// Java super.foo() call), Virtual/Interface resolve against the runtime
// type of the receiving object, matching original_source's
// InvokeReceiver resolveCallee logic.
func (s *Solver) resolveInstanceCallee(obj *heap.Obj, inv *ir.Invoke) (*classes.Method, callgraph.Kind) {
	switch inv.Kind {
	case ir.SpecialCall:
		if m, ok := s.Hierarchy.ResolveMethod(inv.DeclaringClass, inv.MethodRef); ok {
			return m, callgraph.Special
		}
		return nil, 0
	case ir.VirtualCall, ir.InterfaceCall:
		declClass, ok := s.Hierarchy.GetClass(obj.Type)
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

func (s *Solver) processInstanceCall(caller *classes.Method, obj *heap.Obj, inv *ir.Invoke) {
	m, kind := s.resolveInstanceCallee(obj, inv)
	if m == nil {
		return
	}
	calleeIR := s.GetIR(m)
	if calleeIR != nil && calleeIR.ThisVar != nil {
		s.addVarPointsTo(calleeIR.ThisVar, obj)
	}
	s.linkCall(caller, inv, m, kind)
}

func (s *Solver) linkCall(caller *classes.Method, inv *ir.Invoke, m *classes.Method, kind callgraph.Kind) {
	key := callEdgeKey{inv, m}
	if _, ok := s.calledEdges[key]; ok {
		return
	}
	s.calledEdges[key] = struct{}{}
	s.cg.AddEdge(caller, callgraph.Edge[*ir.Invoke, *classes.Method]{Kind: kind, CallSite: inv, Callee: m})

	calleeIR := s.GetIR(m)
	s.bindArgs(calleeIR, inv)
	s.bindReturn(calleeIR, inv)
	s.addReachable(m)
}

func (s *Solver) bindArgs(calleeIR *ir.IR, inv *ir.Invoke) {
	if calleeIR == nil {
		return
	}
	n := len(inv.Args)
	if len(calleeIR.Params) < n {
		n = len(calleeIR.Params)
	}
	for i := 0; i < n; i++ {
		s.addPFGEdge(VarPtr{inv.Args[i]}, VarPtr{calleeIR.Params[i]})
	}
}

func (s *Solver) bindReturn(calleeIR *ir.IR, inv *ir.Invoke) {
	if calleeIR == nil || inv.LHS() == nil {
		return
	}
	for _, stmt := range calleeIR.Stmts {
		if ret, ok := stmt.(*ir.Return); ok && ret.Value != nil {
			s.addPFGEdge(VarPtr{ret.Value}, VarPtr{inv.LHS()})
		}
	}
}
