// Package ir defines the closed statement and expression vocabulary the
// rest of taie's analyses are written against: a small three-address-style
// instruction set with explicit New/Copy/field/array/invoke statements and
// int32 arithmetic, plus the Var and method-body IR container types.
//
// Building this IR from real source is out of scope (spec.md §1): callers
// construct it directly, or a front end not included here lowers some
// other language into it.
package ir

import (
	"fmt"

	"github.com/statix-dev/taie/classes"
)

// Var is a local variable (including parameters and the receiver). Two
// Vars are the same variable iff they are the same pointer; Vars are never
// copied by value once created.
type Var struct {
	Name string
	Type string // "int" for the only type constant propagation tracks; otherwise a class name
}

func (v *Var) String() string { return v.Name }

// IsInt reports whether v is in the domain constant propagation tracks.
func (v *Var) IsInt() bool { return v.Type == "int" }

// CallKind classifies how a call site is dispatched.
type CallKind int

const (
	StaticCall CallKind = iota
	SpecialCall
	VirtualCall
	InterfaceCall
	DynamicCall
	OtherCall
)

func (k CallKind) String() string {
	switch k {
	case StaticCall:
		return "static"
	case SpecialCall:
		return "special"
	case VirtualCall:
		return "virtual"
	case InterfaceCall:
		return "interface"
	case DynamicCall:
		return "dynamic"
	case OtherCall:
		return "other"
	default:
		return "unknown"
	}
}

// BinOp is an int32 arithmetic operator.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Rem
)

func (op BinOp) String() string {
	return [...]string{"+", "-", "*", "/", "%"}[op]
}

// CondOp is a relational operator used by If conditions.
type CondOp int

const (
	Eq CondOp = iota
	Ne
	Lt
	Gt
	Le
	Ge
)

func (op CondOp) String() string {
	return [...]string{"==", "!=", "<", ">", "<=", ">="}[op]
}

// Stmt is implemented by every member of the closed statement vocabulary.
// The unexported marker method keeps the vocabulary closed to this
// package, matching the sum-type style the rest of the corpus uses for
// fixed instruction sets.
type Stmt interface {
	stmt()
	Index() int
}

type base struct{ index int }

func (base) stmt()          {}
func (b base) Index() int   { return b.index }
func (b *base) setIndex(i int) { b.index = i }

// indexer lets SetIndex assign positional indices without every stmt type
// re-implementing the setter.
type indexer interface {
	setIndex(int)
}

// SetIndex assigns s's position within its method's statement list. Called
// by IR construction helpers; analyses should treat it as read-only.
func SetIndex(s Stmt, i int) {
	if ix, ok := s.(indexer); ok {
		ix.setIndex(i)
	}
}

// Assign is implemented by statements that define a single Var result, the
// shape dead-code detection and live-variable analysis need: "does this
// statement write a var, and can evaluating its right-hand side have a
// visible effect beyond that write".
type Assign interface {
	Stmt
	LHS() *Var
	// NoSideEffect reports whether the assignment's right-hand side is
	// guaranteed free of effects beyond producing its value: no heap
	// allocation, no field/array access that could fault, no division
	// that could trap.
	NoSideEffect() bool
}

// Uses is implemented by statements that read one or more Vars, used by
// live-variable analysis to compute the vars made live by a statement.
type Uses interface {
	Stmt
	UsedVars() []*Var
}

// New allocates a fresh object of the named class and assigns it to LHS.
type New struct {
	base
	LHS_ *Var
	Type string
}

func (s *New) LHS() *Var          { return s.LHS_ }
func (s *New) NoSideEffect() bool { return false } // allocates heap
func (s *New) String() string     { return fmt.Sprintf("%s = new %s", s.LHS_, s.Type) }

// Copy assigns RHS to LHS directly.
type Copy struct {
	base
	LHS_ *Var
	RHS  *Var
}

func (s *Copy) LHS() *Var          { return s.LHS_ }
func (s *Copy) NoSideEffect() bool { return true }
func (s *Copy) UsedVars() []*Var   { return []*Var{s.RHS} }
func (s *Copy) String() string     { return fmt.Sprintf("%s = %s", s.LHS_, s.RHS) }

// AssignLiteral assigns a constant int32 literal to LHS.
type AssignLiteral struct {
	base
	LHS_  *Var
	Value int32
}

func (s *AssignLiteral) LHS() *Var          { return s.LHS_ }
func (s *AssignLiteral) NoSideEffect() bool { return true }
func (s *AssignLiteral) UsedVars() []*Var   { return nil }
func (s *AssignLiteral) String() string     { return fmt.Sprintf("%s = %d", s.LHS_, s.Value) }

// Binary computes LHS = Op1 Op Op2 over int32 operands.
type Binary struct {
	base
	LHS_     *Var
	Op1, Op2 *Var
	Op       BinOp
}

func (s *Binary) LHS() *Var { return s.LHS_ }

// NoSideEffect is false for Div/Rem: they may trap on a zero divisor.
func (s *Binary) NoSideEffect() bool { return s.Op != Div && s.Op != Rem }
func (s *Binary) UsedVars() []*Var   { return []*Var{s.Op1, s.Op2} }
func (s *Binary) String() string {
	return fmt.Sprintf("%s = %s %s %s", s.LHS_, s.Op1, s.Op, s.Op2)
}

// LoadField reads Base.Field into LHS. Base is nil for a static field.
type LoadField struct {
	base
	LHS_  *Var
	Base  *Var
	Field *classes.Field
}

func (s *LoadField) LHS() *Var          { return s.LHS_ }
func (s *LoadField) NoSideEffect() bool { return false } // may fault on nil base
func (s *LoadField) UsedVars() []*Var {
	if s.Base == nil {
		return nil
	}
	return []*Var{s.Base}
}
func (s *LoadField) String() string {
	if s.Base == nil {
		return fmt.Sprintf("%s = %s", s.LHS_, s.Field)
	}
	return fmt.Sprintf("%s = %s.%s", s.LHS_, s.Base, s.Field.Name)
}

// StoreField writes RHS into Base.Field. Base is nil for a static field.
type StoreField struct {
	base
	Base  *Var
	Field *classes.Field
	RHS   *Var
}

func (s *StoreField) UsedVars() []*Var {
	if s.Base == nil {
		return []*Var{s.RHS}
	}
	return []*Var{s.Base, s.RHS}
}
func (s *StoreField) String() string {
	if s.Base == nil {
		return fmt.Sprintf("%s = %s", s.Field, s.RHS)
	}
	return fmt.Sprintf("%s.%s = %s", s.Base, s.Field.Name, s.RHS)
}

// LoadArray reads Base[IndexVar] into LHS. The points-to solvers (pta/ci,
// pta/cs) collapse every index of an array object to one ArrayIndexPtr
// cell per spec.md §3, so IndexVar is unused there; the inter-procedural
// constant propagator (dataflow/inter) uses it to refine array-store
// aliasing to index equality per spec.md §4.6.
type LoadArray struct {
	base
	LHS_     *Var
	Base     *Var
	IndexVar *Var
}

func (s *LoadArray) LHS() *Var          { return s.LHS_ }
func (s *LoadArray) NoSideEffect() bool { return false } // may fault on nil base
func (s *LoadArray) UsedVars() []*Var   { return []*Var{s.Base, s.IndexVar} }
func (s *LoadArray) String() string     { return fmt.Sprintf("%s = %s[%s]", s.LHS_, s.Base, s.IndexVar) }

// StoreArray writes RHS into Base[IndexVar]. See LoadArray on IndexVar.
type StoreArray struct {
	base
	Base     *Var
	IndexVar *Var
	RHS      *Var
}

func (s *StoreArray) UsedVars() []*Var { return []*Var{s.Base, s.IndexVar, s.RHS} }
func (s *StoreArray) String() string   { return fmt.Sprintf("%s[%s] = %s", s.Base, s.IndexVar, s.RHS) }

// Invoke calls MethodRef on Base (nil for static calls) with Args, storing
// the result in LHS (nil if the result is discarded).
type Invoke struct {
	base
	LHS_           *Var
	Base           *Var
	Kind           CallKind
	MethodRef      classes.Subsignature
	DeclaringClass *classes.Class
	Args           []*Var
}

func (s *Invoke) LHS() *Var          { return s.LHS_ }
func (s *Invoke) NoSideEffect() bool { return false }
func (s *Invoke) UsedVars() []*Var {
	if s.Base != nil {
		return append([]*Var{s.Base}, s.Args...)
	}
	return append([]*Var(nil), s.Args...)
}
func (s *Invoke) String() string {
	return fmt.Sprintf("%s-invoke %v(%v)", s.Kind, s.MethodRef, s.Args)
}

// If branches to TrueTarget when X Op Y holds, else FalseTarget.
type If struct {
	base
	Op          CondOp
	X, Y        *Var
	TrueTarget  int
	FalseTarget int
}

func (s *If) UsedVars() []*Var { return []*Var{s.X, s.Y} }
func (s *If) String() string   { return fmt.Sprintf("if %s %s %s", s.X, s.Op, s.Y) }

// Switch branches on Var's value: CaseTargets[i] is taken when Var ==
// Cases[i], otherwise DefaultTarget.
type Switch struct {
	base
	Var_         *Var
	Cases        []int32
	CaseTargets  []int
	DefaultTarget int
}

func (s *Switch) UsedVars() []*Var { return []*Var{s.Var_} }
func (s *Switch) String() string   { return fmt.Sprintf("switch %s", s.Var_) }

// Goto unconditionally jumps to Target.
type Goto struct {
	base
	Target int
}

func (s *Goto) String() string { return fmt.Sprintf("goto %d", s.Target) }

// Return exits the method, optionally yielding Value (nil for void).
type Return struct {
	base
	Value *Var
}

func (s *Return) UsedVars() []*Var {
	if s.Value == nil {
		return nil
	}
	return []*Var{s.Value}
}
func (s *Return) String() string { return fmt.Sprintf("return %v", s.Value) }

// Exit is a synthetic pseudo-statement cfg.Build uses as the unique exit
// node of a method's control-flow graph; it never appears in IR.Stmts.
type Exit struct{ base }

func (s *Exit) String() string { return "exit" }

// IR is a method body: its formal parameters, receiver (nil for static
// methods), locals, and statement list. Stmts[i].Index() == i always
// holds; Append assigns indices as statements are appended.
type IR struct {
	Method  *classes.Method
	ThisVar *Var
	Params  []*Var
	Vars    []*Var
	Stmts   []Stmt
}

// NewIR starts an empty body for m.
func NewIR(m *classes.Method) *IR {
	ir := &IR{Method: m}
	if !m.IsStatic() {
		ir.ThisVar = &Var{Name: "this", Type: m.Declaring.Name}
		ir.Vars = append(ir.Vars, ir.ThisVar)
	}
	return ir
}

// AddParam declares a parameter and appends it to both Params and Vars.
func (ir *IR) AddParam(v *Var) {
	ir.Params = append(ir.Params, v)
	ir.Vars = append(ir.Vars, v)
}

// AddVar declares a local not already tracked in Params/ThisVar.
func (ir *IR) AddVar(v *Var) {
	ir.Vars = append(ir.Vars, v)
}

// Append adds s to the end of the statement list, assigning it the next
// index.
func (ir *IR) Append(s Stmt) Stmt {
	SetIndex(s, len(ir.Stmts))
	ir.Stmts = append(ir.Stmts, s)
	return s
}

// ReturnVars returns the distinct variables used as a return value
// somewhere in the method, in first-use order. Inter-procedural analyses
// use this to know which variable(s) at the callee's exit feed a call's
// result, since a method body may contain more than one Return statement.
func (ir *IR) ReturnVars() []*Var {
	seen := map[*Var]struct{}{}
	var out []*Var
	for _, s := range ir.Stmts {
		if r, ok := s.(*Return); ok && r.Value != nil {
			if _, ok := seen[r.Value]; !ok {
				seen[r.Value] = struct{}{}
				out = append(out, r.Value)
			}
		}
	}
	return out
}

func (ir *IR) String() string {
	out := ir.Method.String() + "\n"
	for _, s := range ir.Stmts {
		out += fmt.Sprintf("  %d: %v\n", s.Index(), s)
	}
	return out
}
