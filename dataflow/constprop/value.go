// Package constprop implements intra-procedural constant propagation over
// 32-bit two's-complement integers (spec.md L2/§4.2), plus a
// live-variable analysis used by dead-code detection
// (dataflow/inter.DeadCode). Grounded on original_source's
// constprop/ConstantPropagation.java and
// dataflow/analysis/LiveVariableAnalysis.java.
package constprop

import (
	"fmt"

	"github.com/statix-dev/taie/ir"
)

type kind int8

const (
	undef kind = iota
	constant
	nac
)

// Value is the three-point constant-propagation lattice: UNDEF (not yet
// computed / unreachable), a known 32-bit constant, or NAC (not a
// constant: definitely varies at runtime).
type Value struct {
	k kind
	c int32
}

func Undef() Value        { return Value{k: undef} }
func NAC() Value          { return Value{k: nac} }
func Const(c int32) Value { return Value{k: constant, c: c} }

func (v Value) IsUndef() bool    { return v.k == undef }
func (v Value) IsNAC() bool      { return v.k == nac }
func (v Value) IsConstant() bool { return v.k == constant }

// Constant returns the known value; only meaningful when IsConstant.
func (v Value) Constant() int32 { return v.c }

func (v Value) String() string {
	switch v.k {
	case undef:
		return "UNDEF"
	case nac:
		return "NAC"
	default:
		return fmt.Sprintf("%d", v.c)
	}
}

// Meet combines two values at a control-flow merge point: UNDEF is the
// identity (a path that hasn't executed contributes nothing), NAC
// absorbs everything, and two different constants meet to NAC.
func Meet(a, b Value) Value {
	if a.IsUndef() {
		return b
	}
	if b.IsUndef() {
		return a
	}
	if a.IsNAC() || b.IsNAC() {
		return NAC()
	}
	if a.c == b.c {
		return a
	}
	return NAC()
}

// EvalBinary computes the result of applying op to two values, following
// original_source's evaluate(): either operand UNDEF makes the whole
// expression UNDEF (checked first, DESIGN.md open question 2); a known
// zero multiplicand short-circuits to zero even against a NAC operand;
// otherwise NAC propagates, and division/modulo by a known zero divisor
// yields UNDEF rather than NAC (modeling the trap as "can't happen on any
// executed path" rather than "varies").
func EvalBinary(op ir.BinOp, a, b Value) Value {
	if a.IsUndef() || b.IsUndef() {
		return Undef()
	}
	if op == ir.Mul {
		if (a.IsConstant() && a.c == 0) || (b.IsConstant() && b.c == 0) {
			return Const(0)
		}
	}
	if a.IsNAC() || b.IsNAC() {
		if (op == ir.Div || op == ir.Rem) && b.IsConstant() && b.c == 0 {
			return Undef()
		}
		return NAC()
	}
	switch op {
	case ir.Add:
		return Const(a.c + b.c)
	case ir.Sub:
		return Const(a.c - b.c)
	case ir.Mul:
		return Const(a.c * b.c)
	case ir.Div:
		if b.c == 0 {
			return Undef()
		}
		return Const(a.c / b.c)
	case ir.Rem:
		if b.c == 0 {
			return Undef()
		}
		return Const(a.c % b.c)
	default:
		return NAC()
	}
}

// EvalCond evaluates an If's relational condition to a boolean-valued
// Value (0 or 1), with the same UNDEF-first rule as EvalBinary.
func EvalCond(op ir.CondOp, a, b Value) Value {
	if a.IsUndef() || b.IsUndef() {
		return Undef()
	}
	if a.IsNAC() || b.IsNAC() {
		return NAC()
	}
	var result bool
	switch op {
	case ir.Eq:
		result = a.c == b.c
	case ir.Ne:
		result = a.c != b.c
	case ir.Lt:
		result = a.c < b.c
	case ir.Gt:
		result = a.c > b.c
	case ir.Le:
		result = a.c <= b.c
	case ir.Ge:
		result = a.c >= b.c
	}
	if result {
		return Const(1)
	}
	return Const(0)
}
