package constprop

import (
	"github.com/statix-dev/taie/cfg"
	"github.com/statix-dev/taie/dataflow"
	"github.com/statix-dev/taie/ir"
)

// LiveSet is the live-variable fact: the set of variables that may be
// read before being overwritten, looking forward from a program point.
type LiveSet struct {
	m map[*ir.Var]struct{}
}

func NewLiveSet() LiveSet { return LiveSet{m: map[*ir.Var]struct{}{}} }

func (s LiveSet) Contains(v *ir.Var) bool {
	_, ok := s.m[v]
	return ok
}

func (s LiveSet) Copy() LiveSet {
	m := make(map[*ir.Var]struct{}, len(s.m))
	for v := range s.m {
		m[v] = struct{}{}
	}
	return LiveSet{m: m}
}

func (s LiveSet) add(v *ir.Var) bool {
	if _, ok := s.m[v]; ok {
		return false
	}
	s.m[v] = struct{}{}
	return true
}

func (s LiveSet) remove(v *ir.Var) bool {
	if _, ok := s.m[v]; !ok {
		return false
	}
	delete(s.m, v)
	return true
}

func (s LiveSet) unionInto(other LiveSet) bool {
	changed := false
	for v := range other.m {
		if s.add(v) {
			changed = true
		}
	}
	return changed
}

// LiveVars is the backward live-variable dataflow analysis: a statement's
// IN fact is its OUT fact with its own LHS killed, then the vars it uses
// added back in. Grounded on original_source's LiveVariableAnalysis.java.
type LiveVars struct{}

var _ dataflow.Analysis[ir.Stmt, LiveSet] = LiveVars{}

func (LiveVars) IsForward() bool { return false }

func (LiveVars) NewBoundaryFact() LiveSet { return NewLiveSet() }
func (LiveVars) NewInitialFact() LiveSet  { return NewLiveSet() }

func (LiveVars) Meet(a, b LiveSet) LiveSet {
	out := a.Copy()
	out.unionInto(b)
	return out
}

// Transfer computes a statement's IN fact from its OUT fact.
func (LiveVars) Transfer(stmt ir.Stmt, out LiveSet) (LiveSet, bool) {
	in := out.Copy()
	changed := false
	if assign, ok := stmt.(ir.Assign); ok {
		if lhs := assign.LHS(); lhs != nil {
			if in.remove(lhs) {
				changed = true
			}
		}
	}
	if uses, ok := stmt.(ir.Uses); ok {
		for _, v := range uses.UsedVars() {
			if in.add(v) {
				changed = true
			}
		}
	}
	return in, changed
}

// SolveLiveVars runs live-variable analysis over a method's CFG.
func SolveLiveVars(g *cfg.Graph) *dataflow.Result[ir.Stmt, LiveSet] {
	return dataflow.Solve[ir.Stmt, LiveSet](g, LiveVars{}, []ir.Stmt{g.Exit})
}
