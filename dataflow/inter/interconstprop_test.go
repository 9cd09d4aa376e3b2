package inter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statix-dev/taie/callgraph"
	"github.com/statix-dev/taie/cfg"
	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/dataflow/inter"
	"github.com/statix-dev/taie/icfg"
	"github.com/statix-dev/taie/ir"
)

func intVar(name string) *ir.Var      { return &ir.Var{Name: name, Type: "int"} }
func refVar(name, typ string) *ir.Var { return &ir.Var{Name: name, Type: typ} }

// fakeAlias is a hand-fed AliasResult: each variable's Aggregate is just
// whatever set of synthetic object ids the test assigns it, standing in
// for a completed points-to result without needing to run a full cs.Solver.
type fakeAlias map[*ir.Var]map[int]struct{}

func (f fakeAlias) Aggregate(v *ir.Var) map[int]struct{} { return f[v] }

// buildSingleMethodICFG wires a one-method ICFG with no call edges, which
// is all these tests need: the field/array transfer logic under test
// doesn't touch Call/Return/CallToReturn edges.
func buildSingleMethodICFG(body *ir.IR) *icfg.Graph {
	cg := callgraph.New[*ir.Invoke, *classes.Method]()
	cg.AddReachable(body.Method)
	g := cfg.Build(body)
	return icfg.Build(cg, func(m *classes.Method) *cfg.Graph {
		if m == body.Method {
			return g
		}
		return nil
	})
}

// TestFieldLoadAliasesOnlyMatchingBase exercises spec.md §4.6's instance
// field transfer: a load through a base variable only picks up the value
// written by a store whose base may alias it, using the store's own IN
// fact rather than the load's.
func TestFieldLoadAliasesOnlyMatchingBase(t *testing.T) {
	c := classes.NewClass("Box")
	field := c.AddField(&classes.Field{Name: "n", Type: "int"})
	m := c.AddMethod(&classes.Method{Name: "main", Static: true})

	body := ir.NewIR(m)
	base1, base2, base3 := refVar("base1", "Box"), refVar("base2", "Box"), refVar("base3", "Box")
	y10, y20, x1 := intVar("y10"), intVar("y20"), intVar("x1")
	for _, v := range []*ir.Var{y10, y20, x1} {
		body.AddVar(v)
	}

	body.Append(&ir.AssignLiteral{LHS_: y10, Value: 10})
	body.Append(&ir.AssignLiteral{LHS_: y20, Value: 20})
	body.Append(&ir.StoreField{Base: base1, Field: field, RHS: y10})
	body.Append(&ir.StoreField{Base: base2, Field: field, RHS: y20})
	load := body.Append(&ir.LoadField{LHS_: x1, Base: base3, Field: field})

	alias := fakeAlias{
		base1: {1: {}},
		base2: {2: {}},
		base3: {1: {}}, // only aliases base1
	}

	solver := &inter.Solver{
		ICFG:  buildSingleMethodICFG(body),
		GetIR: func(mm *classes.Method) *ir.IR { return body },
		Alias: alias,
	}
	result := solver.Solve()

	out := result.Out[icfg.Node{Method: m, Stmt: load}]
	require.False(t, out.Get(x1).IsUndef())
	assert.True(t, out.Get(x1).IsConstant())
	assert.Equal(t, int32(10), out.Get(x1).Constant())
}

// TestFieldLoadWidensWhenMultipleBasesAlias checks that aliasing two
// stores with different constant values widens the load to NAC.
func TestFieldLoadWidensWhenMultipleBasesAlias(t *testing.T) {
	c := classes.NewClass("Box")
	field := c.AddField(&classes.Field{Name: "n", Type: "int"})
	m := c.AddMethod(&classes.Method{Name: "main", Static: true})

	body := ir.NewIR(m)
	base1, base2, base3 := refVar("base1", "Box"), refVar("base2", "Box"), refVar("base3", "Box")
	y10, y20, x1 := intVar("y10"), intVar("y20"), intVar("x1")
	for _, v := range []*ir.Var{y10, y20, x1} {
		body.AddVar(v)
	}

	body.Append(&ir.AssignLiteral{LHS_: y10, Value: 10})
	body.Append(&ir.AssignLiteral{LHS_: y20, Value: 20})
	body.Append(&ir.StoreField{Base: base1, Field: field, RHS: y10})
	body.Append(&ir.StoreField{Base: base2, Field: field, RHS: y20})
	load := body.Append(&ir.LoadField{LHS_: x1, Base: base3, Field: field})

	alias := fakeAlias{
		base1: {1: {}},
		base2: {2: {}},
		base3: {1: {}, 2: {}}, // aliases both
	}

	solver := &inter.Solver{
		ICFG:  buildSingleMethodICFG(body),
		GetIR: func(mm *classes.Method) *ir.IR { return body },
		Alias: alias,
	}
	result := solver.Solve()

	out := result.Out[icfg.Node{Method: m, Stmt: load}]
	assert.True(t, out.Get(x1).IsNAC())
}

// TestArrayLoadIsIndexSensitive exercises spec.md §4.6's array transfer:
// two stores through an aliasing base at different known indices don't
// both contribute to a load at one known index. The NAC-index case is
// covered by TestArrayLoadWidensOnNACIndex.
func TestArrayLoadIsIndexSensitive(t *testing.T) {
	c := classes.NewClass("Arr")
	m := c.AddMethod(&classes.Method{Name: "main", Static: true})

	body := ir.NewIR(m)
	arr1, arr2 := refVar("arr1", "Arr"), refVar("arr2", "Arr")
	i0, i1, p := intVar("i0"), intVar("i1"), intVar("p")
	v10, v20, x := intVar("v10"), intVar("v20"), intVar("x")
	for _, v := range []*ir.Var{v10, v20, x} {
		body.AddVar(v)
	}
	body.AddParam(p) // boundary NAC

	body.Append(&ir.AssignLiteral{LHS_: i0, Value: 0})
	body.Append(&ir.AssignLiteral{LHS_: i1, Value: 1})
	body.Append(&ir.AssignLiteral{LHS_: v10, Value: 10})
	body.Append(&ir.AssignLiteral{LHS_: v20, Value: 20})
	body.Append(&ir.StoreArray{Base: arr1, IndexVar: i0, RHS: v10})
	body.Append(&ir.StoreArray{Base: arr1, IndexVar: i1, RHS: v20})
	load := body.Append(&ir.LoadArray{LHS_: x, Base: arr2, IndexVar: i0})

	alias := fakeAlias{
		arr1: {1: {}},
		arr2: {1: {}},
	}

	solver := &inter.Solver{
		ICFG:  buildSingleMethodICFG(body),
		GetIR: func(mm *classes.Method) *ir.IR { return body },
		Alias: alias,
	}
	result := solver.Solve()

	out := result.Out[icfg.Node{Method: m, Stmt: load}]
	require.True(t, out.Get(x).IsConstant())
	assert.Equal(t, int32(10), out.Get(x).Constant())
}

// TestArrayLoadWidensOnNACIndex confirms that a store with an unknown
// (NAC) index is treated as maybe-aliasing every load index, widening
// the result even though a concrete-index store alone would not.
func TestArrayLoadWidensOnNACIndex(t *testing.T) {
	c := classes.NewClass("Arr")
	m := c.AddMethod(&classes.Method{Name: "main", Static: true})

	body := ir.NewIR(m)
	arr1, arr2 := refVar("arr1", "Arr"), refVar("arr2", "Arr")
	i0, p := intVar("i0"), intVar("p")
	v10, v99, x := intVar("v10"), intVar("v99"), intVar("x")
	for _, v := range []*ir.Var{v10, v99, x} {
		body.AddVar(v)
	}
	body.AddParam(p)

	body.Append(&ir.AssignLiteral{LHS_: i0, Value: 0})
	body.Append(&ir.AssignLiteral{LHS_: v10, Value: 10})
	body.Append(&ir.AssignLiteral{LHS_: v99, Value: 99})
	body.Append(&ir.StoreArray{Base: arr1, IndexVar: i0, RHS: v10})
	body.Append(&ir.StoreArray{Base: arr1, IndexVar: p, RHS: v99}) // unknown index, may-alias everything
	load := body.Append(&ir.LoadArray{LHS_: x, Base: arr2, IndexVar: i0})

	alias := fakeAlias{
		arr1: {1: {}},
		arr2: {1: {}},
	}

	solver := &inter.Solver{
		ICFG:  buildSingleMethodICFG(body),
		GetIR: func(mm *classes.Method) *ir.IR { return body },
		Alias: alias,
	}
	result := solver.Solve()

	out := result.Out[icfg.Node{Method: m, Stmt: load}]
	assert.True(t, out.Get(x).IsNAC())
}
