package constprop

import (
	"github.com/statix-dev/taie/cfg"
	"github.com/statix-dev/taie/dataflow"
	"github.com/statix-dev/taie/ir"
)

// Analysis is the intra-procedural forward constant-propagation dataflow
// problem, transferring one statement at a time over a method's CFG.
// Non-int statements (New, instance/static field and array loads since
// their value isn't tracked here, calls) conservatively set any int LHS
// to NAC: spec.md's intra analysis has no inter-procedural or
// points-to-based information available to do better (that's what
// dataflow/inter adds).
//
// Params holds the method's formal parameters so NewBoundaryFact can seed
// them to NAC per spec.md §4.2 ("parameters initialized to NAC; locals to
// UNDEF"); a zero-value Analysis (no params) still behaves correctly for
// analyses driven directly over a bare CFG with no declared parameters.
type Analysis struct {
	Params []*ir.Var
}

var _ dataflow.Analysis[ir.Stmt, Fact] = Analysis{}

func (Analysis) IsForward() bool { return true }

func (a Analysis) NewBoundaryFact() Fact {
	f := NewFact()
	for _, p := range a.Params {
		if p.IsInt() {
			f.Update(p, NAC())
		}
	}
	return f
}
func (Analysis) NewInitialFact() Fact { return NewFact() }

func (Analysis) Meet(a, b Fact) Fact {
	out := a.Copy()
	out.MeetInto(b)
	return out
}

// Transfer applies a single statement's effect on the constant-value
// fact. EvaluateCondition and EvaluateSwitch are exported so dead-code
// detection can re-evaluate an
// If/Switch condition against the fact already computed for that node,
// exactly as DeadCodeDetection.java calls
// ConstantPropagation.evaluate(ifNode.getCondition(), ...).
func (Analysis) Transfer(stmt ir.Stmt, in Fact) (Fact, bool) {
	out := in.Copy()
	changed := false
	switch s := stmt.(type) {
	case *ir.AssignLiteral:
		changed = out.Update(s.LHS_, Const(s.Value)) || changed
	case *ir.Copy:
		if s.LHS_.IsInt() {
			val := in.Get(s.RHS)
			if !s.RHS.IsInt() {
				val = NAC()
			}
			changed = out.Update(s.LHS_, val) || changed
		}
	case *ir.Binary:
		if s.LHS_.IsInt() {
			val := EvalBinary(s.Op, in.Get(s.Op1), in.Get(s.Op2))
			changed = out.Update(s.LHS_, val) || changed
		}
	case ir.Assign:
		if lhs := s.LHS(); lhs != nil && lhs.IsInt() {
			changed = out.Update(lhs, NAC()) || changed
		}
	}
	return out, changed
}

// EvaluateCondition evaluates an If statement's relational condition
// against fact.
func EvaluateCondition(s *ir.If, fact Fact) Value {
	return EvalCond(s.Op, fact.Get(s.X), fact.Get(s.Y))
}

// EvaluateSwitch evaluates a Switch statement's discriminant against
// fact.
func EvaluateSwitch(s *ir.Switch, fact Fact) Value {
	return fact.Get(s.Var_)
}

// Solve runs intra-procedural constant propagation over a method's CFG,
// built from the same *ir.IR so its declared parameters seed the
// boundary fact.
func Solve(body *ir.IR, g *cfg.Graph) *dataflow.Result[ir.Stmt, Fact] {
	return dataflow.Solve[ir.Stmt, Fact](g, Analysis{Params: body.Params}, []ir.Stmt{g.Entry})
}
