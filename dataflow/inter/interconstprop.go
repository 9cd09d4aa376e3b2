// Package inter implements inter-procedural constant propagation
// (spec.md L6) over the ICFG, resolving instance/static field and array
// aliasing through a context-sensitive points-to result, plus dead-code
// detection (original_source/A3) built on top of its output. Grounded on
// original_source's inter/InterConstantPropagation.java and
// DeadCodeDetection.java.
//
// Unlike the intra-procedural solver (dataflow.Solve), this analysis
// needs per-edge transfer functions (a Call edge projects arguments onto
// parameters, a Return edge injects a callee's return value into the
// caller's call result, a CallToReturn edge passes everything through
// except the call's own result) and cross-node side effects (a field or
// array store must re-enqueue every aliasing load), neither of which fit
// the generic node-at-a-time dataflow.Solve contract, so it runs its own
// worklist loop directly over the icfg.Graph.
package inter

import (
	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/dataflow/constprop"
	"github.com/statix-dev/taie/icfg"
	"github.com/statix-dev/taie/internal/queue"
	"github.com/statix-dev/taie/ir"
	"github.com/statix-dev/taie/pta/cs"
)

// Fact is the inter-procedural constant-propagation fact: since every
// ir.Var belongs to exactly one method's IR, facts from different
// methods never collide on a key, so one flat Fact works across the
// whole ICFG exactly as it does intra-procedurally.
type Fact = constprop.Fact

// AliasResult is the subset of a context-sensitive points-to result the
// alias-aware field/array transfer needs.
type AliasResult interface {
	// Aggregate returns, across every context a variable was analyzed
	// under, the set of abstract objects it may point to, identified by
	// a stable integer per object (consistent across calls).
	Aggregate(v *ir.Var) map[int]struct{}
}

// csAliasResult adapts a *cs.Result to AliasResult by unioning over every
// context a variable appears in.
type csAliasResult struct {
	r *cs.Result
}

// NewCSAliasResult wraps a completed context-sensitive solve for use as
// the alias oracle driving field/array resolution.
func NewCSAliasResult(r *cs.Result) AliasResult { return csAliasResult{r} }

func (a csAliasResult) Aggregate(v *ir.Var) map[int]struct{} {
	out := map[int]struct{}{}
	for _, ctx := range a.r.KnownContexts(v) {
		for _, obj := range a.r.PointsTo(ctx, v) {
			out[a.r.ObjIndex(obj)] = struct{}{}
		}
	}
	return out
}

func intersects(a, b map[int]struct{}) bool {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	for k := range small {
		if _, ok := big[k]; ok {
			return true
		}
	}
	return false
}

// Solver runs inter-procedural constant propagation.
type Solver struct {
	ICFG  *icfg.Graph
	GetIR func(*classes.Method) *ir.IR
	Alias AliasResult

	fieldAccesses map[*classes.Field][]icfg.Node // LoadField and StoreField nodes on that field
	arrayAccesses []icfg.Node                    // LoadArray and StoreArray nodes

	in  map[icfg.Node]Fact
	out map[icfg.Node]Fact
}

// Result holds the IN/OUT fact computed at every ICFG node.
type Result struct {
	In  map[icfg.Node]Fact
	Out map[icfg.Node]Fact
}

func (s *Solver) index() {
	s.fieldAccesses = map[*classes.Field][]icfg.Node{}
	for _, n := range s.ICFG.Nodes() {
		switch st := n.Stmt.(type) {
		case *ir.LoadField:
			s.fieldAccesses[st.Field] = append(s.fieldAccesses[st.Field], n)
		case *ir.StoreField:
			s.fieldAccesses[st.Field] = append(s.fieldAccesses[st.Field], n)
		case *ir.LoadArray:
			s.arrayAccesses = append(s.arrayAccesses, n)
		case *ir.StoreArray:
			s.arrayAccesses = append(s.arrayAccesses, n)
		}
	}
}

// baseOf returns the base variable of a field/array access node.
func baseOf(n icfg.Node) *ir.Var {
	switch st := n.Stmt.(type) {
	case *ir.LoadField:
		return st.Base
	case *ir.StoreField:
		return st.Base
	case *ir.LoadArray:
		return st.Base
	case *ir.StoreArray:
		return st.Base
	}
	return nil
}

// aliasGroup returns the other field/array access nodes that may touch
// the same memory as n: same field (or, for arrays, any array access)
// and an intersecting points-to set for their base variables. A node
// with a nil base (a static field access) aliases every other access to
// the same static field unconditionally.
func (s *Solver) aliasGroup(n icfg.Node) []icfg.Node {
	base := baseOf(n)
	var candidates []icfg.Node
	switch st := n.Stmt.(type) {
	case *ir.LoadField:
		candidates = s.fieldAccesses[st.Field]
	case *ir.StoreField:
		candidates = s.fieldAccesses[st.Field]
	default:
		candidates = s.arrayAccesses
	}
	if base == nil {
		return candidates
	}
	myPts := s.Alias.Aggregate(base)
	var out []icfg.Node
	for _, c := range candidates {
		if c == n {
			continue
		}
		cb := baseOf(c)
		if cb == nil {
			continue
		}
		if intersects(myPts, s.Alias.Aggregate(cb)) {
			out = append(out, c)
		}
	}
	return out
}

// Solve runs the fixpoint and returns the per-node facts.
func (s *Solver) Solve() *Result {
	s.index()

	in := map[icfg.Node]Fact{}
	out := map[icfg.Node]Fact{}
	s.in, s.out = in, out
	nodes := s.ICFG.Nodes()
	for _, n := range nodes {
		in[n] = constprop.NewFact()
		out[n] = constprop.NewFact()
	}

	// A method's entry node with no ICFG preds is a call-graph entry
	// point (nothing projects arguments onto it via a Call edge), so it
	// gets the same boundary treatment as the intra-procedural analysis:
	// int-typed params start at NAC. A non-entry method's params are
	// never read from this seeded fact because its entry always has at
	// least one incoming Call edge, whose transfer overwrites them.
	for _, entry := range s.ICFG.Entries() {
		if len(s.ICFG.Preds(entry)) > 0 {
			continue
		}
		calleeIR := s.GetIR(entry.Method)
		if calleeIR == nil {
			continue
		}
		boundary := constprop.NewFact()
		for _, p := range calleeIR.Params {
			if p.IsInt() {
				boundary.Update(p, constprop.NAC())
			}
		}
		in[entry] = boundary
	}

	var wl queue.Queue[icfg.Node]
	inWL := map[icfg.Node]struct{}{}
	push := func(n icfg.Node) {
		if _, ok := inWL[n]; ok {
			return
		}
		inWL[n] = struct{}{}
		wl.Push(n)
	}
	for _, n := range nodes {
		push(n)
	}

	for !wl.Empty() {
		n := wl.Pop()
		delete(inWL, n)

		newIn := constprop.NewFact()
		first := true
		for _, e := range s.ICFG.Preds(n) {
			contributed := s.edgeTransfer(e, out[e.Source])
			if first {
				newIn = contributed
				first = false
			} else {
				newIn.MeetInto(contributed)
			}
		}
		if !first {
			in[n] = newIn
		}

		newOut := s.transferNode(n, in[n])
		if !out[n].Equal(newOut) {
			out[n] = newOut
			for _, e := range s.ICFG.Succs(n) {
				push(e.Target)
			}
			if _, isStore := n.Stmt.(*ir.StoreField); isStore {
				for _, ld := range s.aliasGroup(n) {
					push(ld)
				}
			}
			if _, isStore := n.Stmt.(*ir.StoreArray); isStore {
				for _, ld := range s.aliasGroup(n) {
					push(ld)
				}
			}
		}
	}
	return &Result{In: in, Out: out}
}

// transferNode computes a node's OUT fact from its IN fact, resolving
// LoadField/LoadArray by meeting the current value of every aliasing
// store's RHS rather than defaulting to NAC the way the intra-procedural
// analysis must.
func (s *Solver) transferNode(n icfg.Node, in Fact) Fact {
	out := in.Copy()
	switch st := n.Stmt.(type) {
	case *ir.AssignLiteral:
		out.Update(st.LHS_, constprop.Const(st.Value))
	case *ir.Copy:
		if st.LHS_.IsInt() {
			val := in.Get(st.RHS)
			if !st.RHS.IsInt() {
				val = constprop.NAC()
			}
			out.Update(st.LHS_, val)
		}
	case *ir.Binary:
		if st.LHS_.IsInt() {
			out.Update(st.LHS_, constprop.EvalBinary(st.Op, in.Get(st.Op1), in.Get(st.Op2)))
		}
	case *ir.LoadField:
		if st.LHS_.IsInt() {
			out.Update(st.LHS_, s.aliasedFieldValue(n))
		}
	case *ir.LoadArray:
		if st.LHS_.IsInt() {
			out.Update(st.LHS_, s.aliasedArrayValue(n, in))
		}
	case ir.Assign:
		if lhs := st.LHS(); lhs != nil && lhs.IsInt() {
			out.Update(lhs, constprop.NAC())
		}
	}
	return out
}

// aliasedFieldValue computes an instance/static field load's value as the
// meet of every aliasing store's RHS value *as of that store's own IN
// fact*, per spec.md §4.6 ("val := meet(val, solver.inFact(that
// store)[y_s])") — the store's IN, not the load's, since the two
// statements belong to different program points and possibly different
// methods.
func (s *Solver) aliasedFieldValue(n icfg.Node) constprop.Value {
	val := constprop.Undef()
	for _, other := range s.aliasGroup(n) {
		st, ok := other.Stmt.(*ir.StoreField)
		if !ok {
			continue
		}
		v := s.in[other].Get(st.RHS)
		if !st.RHS.IsInt() {
			v = constprop.NAC()
		}
		val = constprop.Meet(val, v)
	}
	return val
}

// aliasedArrayValue computes an array load's value per spec.md §4.6's
// index-sensitive rule: a candidate store only contributes if its index
// may alias the load's index (UNDEF on either side means not aliased;
// NAC on either side means maybe-aliased; two CONSTs alias iff equal),
// and the contributed value is the store's OUT (not IN), since
// index-sensitivity already pins the comparison to a single joint
// program point.
func (s *Solver) aliasedArrayValue(n icfg.Node, loadIn Fact) constprop.Value {
	load, ok := n.Stmt.(*ir.LoadArray)
	if !ok {
		return constprop.NAC()
	}
	idx := loadIn.Get(load.IndexVar)
	val := constprop.Undef()
	for _, other := range s.aliasGroup(n) {
		st, ok := other.Stmt.(*ir.StoreArray)
		if !ok {
			continue
		}
		storeIdx := s.in[other].Get(st.IndexVar)
		if !arrayIndexAliases(idx, storeIdx) {
			continue
		}
		v := s.out[other].Get(st.RHS)
		if !st.RHS.IsInt() {
			v = constprop.NAC()
		}
		val = constprop.Meet(val, v)
	}
	return val
}

// arrayIndexAliases implements spec.md §4.6's array alias predicate.
func arrayIndexAliases(i, j constprop.Value) bool {
	if i.IsUndef() || j.IsUndef() {
		return false
	}
	if i.IsNAC() || j.IsNAC() {
		return true
	}
	return i.Constant() == j.Constant()
}

func (s *Solver) edgeTransfer(e icfg.Edge, srcOut Fact) Fact {
	switch e.Kind {
	case icfg.Normal:
		return srcOut

	case icfg.Call:
		out := constprop.NewFact()
		calleeIR := s.GetIR(e.Target.Method)
		if calleeIR == nil || e.Invoke == nil {
			return out
		}
		n := len(e.Invoke.Args)
		if len(calleeIR.Params) < n {
			n = len(calleeIR.Params)
		}
		for i := 0; i < n; i++ {
			p := calleeIR.Params[i]
			if p.IsInt() {
				val := srcOut.Get(e.Invoke.Args[i])
				if !e.Invoke.Args[i].IsInt() {
					val = constprop.NAC()
				}
				out.Update(p, val)
			}
		}
		return out

	case icfg.CallToReturn:
		out := srcOut.Copy()
		if e.Invoke != nil {
			if lhs := e.Invoke.LHS(); lhs != nil {
				out.Delete(lhs)
			}
		}
		return out

	case icfg.Return:
		out := constprop.NewFact()
		if e.Invoke == nil || e.Invoke.LHS() == nil || !e.Invoke.LHS().IsInt() {
			return out
		}
		calleeIR := s.GetIR(e.Source.Method)
		if calleeIR == nil {
			return out
		}
		val := constprop.Undef()
		first := true
		for _, rv := range calleeIR.ReturnVars() {
			v := srcOut.Get(rv)
			if !rv.IsInt() {
				v = constprop.NAC()
			}
			if first {
				val = v
				first = false
			} else {
				val = constprop.Meet(val, v)
			}
		}
		out.Update(e.Invoke.LHS(), val)
		return out
	}
	return srcOut
}
