// Package taint implements a taint-flow analyzer (spec.md L7) layered on
// the context-sensitive points-to solver (pta/cs) through its Hooks seam,
// so the solver never needs to know taint analysis exists. Grounded on
// original_source/A8's TaintAnalysiss.java: taint objects are ordinary
// heap.Obj values minted per (source call, type) pair, tracked in the
// solver's own points-to sets, with a second, taint-only edge set
// (taintTransfers) carrying taint objects across calls the solver has no
// other reason to connect a variable pair through.
package taint

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/heap"
	"github.com/statix-dev/taie/ir"
	"github.com/statix-dev/taie/pointerset"
	ctxpkg "github.com/statix-dev/taie/pta/context"
	"github.com/statix-dev/taie/pta/cs"
)

// TaintFlow is one confirmed path from a tainted value's origin to a
// sensitive sink argument.
type TaintFlow struct {
	Source   *ir.Invoke
	Sink     *ir.Invoke
	ArgIndex int
}

func (f TaintFlow) String() string {
	return fmt.Sprintf("%v -> %v#%d", f.Source, f.Sink, f.ArgIndex)
}

// less gives TaintFlow a total order so collectFlows' output is
// deterministic, matching the TreeSet<TaintFlow> original_source collects
// into.
func (f TaintFlow) less(g TaintFlow) bool {
	if f.Source.Index() != g.Source.Index() {
		return f.Source.Index() < g.Source.Index()
	}
	if f.Sink.Index() != g.Sink.Index() {
		return f.Sink.Index() < g.Sink.Index()
	}
	return f.ArgIndex < g.ArgIndex
}

type taintKey struct {
	source *ir.Invoke
	typ    string
}

type sinkRecord struct {
	callSite *ir.Invoke
	argIndex int
}

// Analyzer observes a pta/cs.Solver's fixpoint via cs.Hooks and derives
// taint sources, sinks, and transfers from Config. Construct it with
// NewAnalyzer before calling Solver.Solve, then call Finish once Solve
// has returned a *cs.Result.
type Analyzer struct {
	Config    *Config
	Hierarchy classes.ClassHierarchy
	HeapModel heap.HeapModel
	Solver    *cs.Solver

	taintObjs map[taintKey]*heap.Obj
	sourceOf  map[*heap.Obj]*ir.Invoke

	transferEdges map[cs.Pointer]map[cs.Pointer]struct{}
	reachableSinks map[cs.CSCallSite]map[SinkRule]struct{}
}

// NewAnalyzer builds a taint analyzer and registers it as an observer on
// solver; it has no effect until solver.Solve runs.
func NewAnalyzer(cfg *Config, h classes.ClassHierarchy, hm heap.HeapModel, solver *cs.Solver) *Analyzer {
	a := &Analyzer{
		Config:         cfg,
		Hierarchy:      h,
		HeapModel:      hm,
		Solver:         solver,
		taintObjs:      map[taintKey]*heap.Obj{},
		sourceOf:       map[*heap.Obj]*ir.Invoke{},
		transferEdges:  map[cs.Pointer]map[cs.Pointer]struct{}{},
		reachableSinks: map[cs.CSCallSite]map[SinkRule]struct{}{},
	}
	solver.AddHook(a)
	return a
}

func (a *Analyzer) isTaint(o *heap.Obj) bool {
	_, ok := a.sourceOf[o]
	return ok
}

// makeTaint mints (or returns the memoized) taint object for a (source
// call, type) pair, so the same source call matched again (e.g. through
// another call edge of the same call site) yields the same object; a
// different type mints a different object.
func (a *Analyzer) makeTaint(source *ir.Invoke, typ string) *heap.Obj {
	key := taintKey{source, typ}
	if o, ok := a.taintObjs[key]; ok {
		return o
	}
	o := a.HeapModel.Synthetic(typ, fmt.Sprintf("taint:%v", source))
	a.taintObjs[key] = o
	a.sourceOf[o] = source
	return o
}

// registerTransfer records a from->to taint-only edge, returning whether
// it is new (original_source's registerTaintTransfer idempotency guard:
// AfterCallEdge runs once per resolved call edge, and a call site that
// resolves to several callees or callee contexts yields the same from/to
// pointers on each of those edges).
func (a *Analyzer) registerTransfer(from, to cs.Pointer) bool {
	set, ok := a.transferEdges[from]
	if !ok {
		set = map[cs.Pointer]struct{}{}
		a.transferEdges[from] = set
	}
	if _, ok := set[to]; ok {
		return false
	}
	set[to] = struct{}{}
	return true
}

// AfterPropagate implements cs.Hooks: whenever a pointer's points-to set
// grows, forward the taint objects in delta (and only those) along any
// registered transfer edges.
func (a *Analyzer) AfterPropagate(p cs.Pointer, delta *pointerset.Set, objOf func(int) cs.CSObj) {
	succs, ok := a.transferEdges[p]
	if !ok {
		return
	}
	var tainted []cs.CSObj
	delta.ForEach(func(i int) {
		o := objOf(i)
		if a.isTaint(o.Obj) {
			tainted = append(tainted, o)
		}
	})
	if len(tainted) == 0 {
		return
	}
	for succ := range succs {
		a.Solver.SeedPointsTo(succ, tainted...)
	}
}

// AfterCallEdge implements cs.Hooks: taint sources, sinks, and transfers
// are all keyed off the method a call resolves to, matching
// original_source's processCall.
func (a *Analyzer) AfterCallEdge(caller cs.CSMethod, callSite cs.CSCallSite, callee cs.CSMethod) {
	inv := callSite.Invoke
	m := callee.Method
	if m == nil || m.Declaring == nil {
		return
	}
	lvalue := cs.Pointer(nil)
	if inv.LHS() != nil {
		lvalue = cs.CSVar{Ctx: caller.Ctx, Var: inv.LHS()}
	}

	for _, rule := range a.Config.Sources {
		if !rule.matchesClass(m.Declaring.Name) || !rule.matchesSig(m.Name, m.Sig.Desc) {
			continue
		}
		if lvalue == nil {
			continue
		}
		obj := a.makeTaint(inv, rule.Type)
		a.Solver.SeedPointsTo(lvalue, cs.CSObj{Ctx: ctxpkg.Empty, Obj: obj})
	}

	for _, rule := range a.Config.Sinks {
		if !rule.matchesClass(m.Declaring.Name) || !rule.matchesSig(m.Name, m.Sig.Desc) {
			continue
		}
		set, ok := a.reachableSinks[callSite]
		if !ok {
			set = map[SinkRule]struct{}{}
			a.reachableSinks[callSite] = set
		}
		set[rule] = struct{}{}
	}

	for _, rule := range a.Config.Transfers {
		if !rule.matchesClass(m.Declaring.Name) || !rule.matchesSig(m.Name, m.Sig.Desc) {
			continue
		}
		from := a.resolveSlot(inv, caller.Ctx, rule.From)
		to := a.resolveSlot(inv, caller.Ctx, rule.To)
		if from == nil || to == nil {
			continue
		}
		if !a.registerTransfer(from, to) {
			continue
		}
		// Catch up on taint that reached "from" before this edge existed;
		// anything arriving afterward is handled by AfterPropagate.
		existing := a.Solver.CurrentPointsTo(from)
		var tainted []cs.CSObj
		existing.ForEach(func(i int) {
			o := a.Solver.ObjAt(i)
			if a.isTaint(o.Obj) {
				tainted = append(tainted, o)
			}
		})
		if len(tainted) > 0 {
			a.Solver.SeedPointsTo(to, tainted...)
		}
	}
}

// resolveSlot maps a transfer rule's endpoint name to the concrete
// context-sensitive pointer it refers to at this call site.
func (a *Analyzer) resolveSlot(inv *ir.Invoke, ctx ctxpkg.Context, slot string) cs.Pointer {
	switch {
	case slot == slotBase:
		if inv.Base == nil {
			return nil
		}
		return cs.CSVar{Ctx: ctx, Var: inv.Base}
	case slot == slotResult:
		if inv.LHS() == nil {
			return nil
		}
		return cs.CSVar{Ctx: ctx, Var: inv.LHS()}
	case strings.HasPrefix(slot, "arg:"):
		i, err := strconv.Atoi(strings.TrimPrefix(slot, "arg:"))
		if err != nil || i < 0 || i >= len(inv.Args) {
			return nil
		}
		return cs.CSVar{Ctx: ctx, Var: inv.Args[i]}
	default:
		return nil
	}
}

// Finish scans every reachable sink call's final points-to set for taint
// objects and returns the confirmed flows, sorted deterministically.
// Call once after the driving cs.Solver's Solve has returned result.
func (a *Analyzer) Finish(result *cs.Result) []TaintFlow {
	var flows []TaintFlow
	for callSite, sinks := range a.reachableSinks {
		for sink := range sinks {
			argVar := a.resolveSlot(callSite.Invoke, callSite.Ctx, argSlot(sink.Arg))
			if argVar == nil {
				continue
			}
			cv, ok := argVar.(cs.CSVar)
			if !ok {
				continue
			}
			for _, obj := range result.PointsTo(cv.Ctx, cv.Var) {
				if src, ok := a.sourceOf[obj.Obj]; ok {
					flows = append(flows, TaintFlow{Source: src, Sink: callSite.Invoke, ArgIndex: sink.Arg})
				}
			}
		}
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].less(flows[j]) })
	return flows
}

// argSlot turns a SinkRule.Arg index into a resolveSlot slot name: -1
// means the receiver, matching the Arg convention documented in Config.
func argSlot(arg int) string {
	if arg < 0 {
		return slotBase
	}
	return "arg:" + strconv.Itoa(arg)
}

var _ cs.Hooks = (*Analyzer)(nil)
