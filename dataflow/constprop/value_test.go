package constprop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/statix-dev/taie/ir"
)

func TestMeetLatticeLaws(t *testing.T) {
	vals := []Value{Undef(), NAC(), Const(0), Const(1), Const(-7)}

	for _, a := range vals {
		assert.Equal(t, a, Meet(a, a), "meet must be idempotent: %v", a)
	}

	for _, a := range vals {
		for _, b := range vals {
			assert.Equal(t, Meet(a, b), Meet(b, a), "meet must be commutative: %v, %v", a, b)
		}
	}

	for _, a := range vals {
		for _, b := range vals {
			for _, c := range vals {
				lhs := Meet(Meet(a, b), c)
				rhs := Meet(a, Meet(b, c))
				assert.Equal(t, lhs, rhs, "meet must be associative: %v, %v, %v", a, b, c)
			}
		}
	}
}

func TestMeetUndefIsIdentity(t *testing.T) {
	for _, v := range []Value{NAC(), Const(0), Const(42)} {
		assert.Equal(t, v, Meet(Undef(), v))
		assert.Equal(t, v, Meet(v, Undef()))
	}
}

func TestMeetNACAbsorbs(t *testing.T) {
	for _, v := range []Value{Undef(), Const(0), Const(42)} {
		assert.Equal(t, NAC(), Meet(NAC(), v))
	}
}

func TestMeetConstants(t *testing.T) {
	assert.Equal(t, Const(5), Meet(Const(5), Const(5)))
	assert.Equal(t, NAC(), Meet(Const(5), Const(6)))
}

func TestEvalBinaryArithmetic(t *testing.T) {
	assert.Equal(t, Const(3), EvalBinary(ir.Add, Const(1), Const(2)))
}

func TestEvalBinaryZeroShortCircuit(t *testing.T) {
	// Multiplying by a known zero is CONST(0) even against NAC.
	assert.Equal(t, Const(0), EvalBinary(ir.Mul, Const(0), NAC()))
	assert.Equal(t, Const(0), EvalBinary(ir.Mul, NAC(), Const(0)))
	assert.Equal(t, Const(0), EvalBinary(ir.Mul, Const(0), Const(0)))
}

func TestEvalBinaryDivisionByZero(t *testing.T) {
	assert.Equal(t, Undef(), EvalBinary(ir.Div, Const(5), Const(0)))
	assert.Equal(t, Undef(), EvalBinary(ir.Rem, Const(5), Const(0)))
	// a NAC dividend against a known-zero divisor is still UNDEF
	assert.Equal(t, Undef(), EvalBinary(ir.Div, NAC(), Const(0)))
}

func TestEvalBinaryUndefWins(t *testing.T) {
	// Either operand UNDEF wins over everything, checked before any
	// zero-divisor special case.
	assert.Equal(t, Undef(), EvalBinary(ir.Div, Undef(), Const(0)))
	assert.Equal(t, Undef(), EvalBinary(ir.Div, Const(0), Undef()))
	assert.Equal(t, Undef(), EvalBinary(ir.Add, Undef(), NAC()))
}

func TestEvalBinaryNAC(t *testing.T) {
	assert.Equal(t, NAC(), EvalBinary(ir.Add, NAC(), Const(1)))
	assert.Equal(t, NAC(), EvalBinary(ir.Div, NAC(), NAC()))
	assert.Equal(t, NAC(), EvalBinary(ir.Div, Const(6), NAC()))
}

func TestEvalCond(t *testing.T) {
	assert.Equal(t, Const(1), EvalCond(ir.Lt, Const(1), Const(2)))
	assert.Equal(t, Const(0), EvalCond(ir.Gt, Const(1), Const(2)))
	assert.Equal(t, NAC(), EvalCond(ir.Eq, NAC(), Const(2)))
	assert.Equal(t, Undef(), EvalCond(ir.Eq, Undef(), Const(2)))
}
