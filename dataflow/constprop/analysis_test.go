package constprop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statix-dev/taie/cfg"
	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/dataflow/constprop"
	"github.com/statix-dev/taie/ir"
)

func intVar(name string) *ir.Var { return &ir.Var{Name: name, Type: "int"} }

func newMethodIR(name string) *ir.IR {
	c := classes.NewClass("Test")
	m := c.AddMethod(&classes.Method{Name: name, Static: true})
	return ir.NewIR(m)
}

// TestStraightLineConstants folds a straight-line sequence of assignments:
// x = 1; y = 2; z = x + y should leave z at CONST(3) without disturbing
// the earlier facts for x and y.
func TestStraightLineConstants(t *testing.T) {
	body := newMethodIR("straight")
	x, y, z := intVar("x"), intVar("y"), intVar("z")
	body.AddVar(x)
	body.AddVar(y)
	body.AddVar(z)

	s1 := body.Append(&ir.AssignLiteral{LHS_: x, Value: 1})
	body.Append(&ir.AssignLiteral{LHS_: y, Value: 2})
	s3 := body.Append(&ir.Binary{LHS_: z, Op1: x, Op2: y, Op: ir.Add})

	g := cfg.Build(body)
	result := constprop.Solve(body, g)

	require.Contains(t, result.Out, s3)
	out := result.Out[s3]
	assert.Equal(t, constprop.Const(3), out.Get(z))
	assert.Equal(t, constprop.Const(1), out.Get(x))
	assert.Equal(t, constprop.Const(2), out.Get(y))

	// x hasn't changed since s1 ran.
	assert.Equal(t, constprop.Const(1), result.Out[s1].Get(x))
}

// TestBranchMergeYieldsNAC checks that merging two branches assigning
// different constants to the same variable widens it to NAC at the join
// point: if (c) x = 1 else x = 2; z = x should leave z at NAC.
func TestBranchMergeYieldsNAC(t *testing.T) {
	body := newMethodIR("branchy")
	c, x, z := intVar("c"), intVar("x"), intVar("z")
	body.AddParam(c)
	body.AddVar(x)
	body.AddVar(z)

	ifStmt := &ir.If{Op: ir.Ne, X: c, Y: intVar("zero")}
	body.Append(ifStmt)
	thenAssign := body.Append(&ir.AssignLiteral{LHS_: x, Value: 1})
	gotoEnd := &ir.Goto{}
	body.Append(gotoEnd)
	elseAssign := body.Append(&ir.AssignLiteral{LHS_: x, Value: 2})
	merge := body.Append(&ir.Copy{LHS_: z, RHS: x})

	ifStmt.TrueTarget = thenAssign.Index()
	ifStmt.FalseTarget = elseAssign.Index()
	gotoEnd.Target = merge.Index()

	g := cfg.Build(body)
	result := constprop.Solve(body, g)

	require.Contains(t, result.Out, merge)
	assert.True(t, result.Out[merge].Get(z).IsNAC())
}

// TestParameterBoundaryIsNAC checks the boundary fact at method entry:
// parameters start at NAC, locals start at UNDEF (absent).
func TestParameterBoundaryIsNAC(t *testing.T) {
	body := newMethodIR("boundary")
	p := intVar("p")
	body.AddParam(p)
	local := intVar("local")
	body.AddVar(local)

	only := body.Append(&ir.Copy{LHS_: local, RHS: p})
	g := cfg.Build(body)
	result := constprop.Solve(body, g)

	assert.True(t, result.In[only].Get(p).IsNAC())
	assert.True(t, result.In[only].Get(local).IsUndef())
}
