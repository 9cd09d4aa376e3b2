package ci_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/heap"
	"github.com/statix-dev/taie/ir"
	"github.com/statix-dev/taie/pta/ci"
)

func objVar(name, typ string) *ir.Var { return &ir.Var{Name: name, Type: typ} }

// TestFlowInsensitiveMerge covers a reassignment sequence:
//
//	a = new X(); b = a; c = new Y(); b = c;
//
// ⇒ pts(a) = {X@s1}, pts(b) = {X@s1, Y@s3}, pts(c) = {Y@s3}. A
// context-insensitive, flow-insensitive solver merges both of b's
// assignments instead of keeping only the last write.
func TestFlowInsensitiveMerge(t *testing.T) {
	h := classes.NewHierarchy()
	mainClass := classes.NewClass("Main")
	mainM := mainClass.AddMethod(&classes.Method{Name: "main", Static: true})
	h.AddClass(mainClass)

	a, b, c := objVar("a", "X"), objVar("b", "X"), objVar("c", "Y")
	body := ir.NewIR(mainM)
	body.AddVar(a)
	body.AddVar(b)
	body.AddVar(c)

	s1 := &ir.New{LHS_: a, Type: "X"}
	body.Append(s1)
	body.Append(&ir.Copy{LHS_: b, RHS: a})
	s3 := &ir.New{LHS_: c, Type: "Y"}
	body.Append(s3)
	body.Append(&ir.Copy{LHS_: b, RHS: c})

	hm := heap.NewAllocSiteModel()
	getIR := func(m *classes.Method) *ir.IR {
		if m == mainM {
			return body
		}
		return nil
	}

	solver := ci.NewSolver(h, hm, getIR)
	result := solver.Solve([]*classes.Method{mainM})

	ptsA := result.PointsTo(a)
	ptsB := result.PointsTo(b)
	ptsC := result.PointsTo(c)

	require.Len(t, ptsA, 1)
	assert.Equal(t, hm.Obj(s1), ptsA[0])

	require.Len(t, ptsC, 1)
	assert.Equal(t, hm.Obj(s3), ptsC[0])

	require.Len(t, ptsB, 2)
	assert.ElementsMatch(t, []*heap.Obj{hm.Obj(s1), hm.Obj(s3)}, ptsB)

	assert.True(t, result.MayAlias(a, b))
	assert.True(t, result.MayAlias(b, c))
	assert.False(t, result.MayAlias(a, c))
}

// TestInstanceFieldFlowsThroughObject exercises instance-field pointer
// handling: a store through one variable aliasing an object is visible
// through a load from another variable pointing at the same object.
func TestInstanceFieldFlowsThroughObject(t *testing.T) {
	h := classes.NewHierarchy()
	container := classes.NewClass("Box")
	field := container.AddField(&classes.Field{Name: "val", Type: "Payload"})
	h.AddClass(container)

	mainClass := classes.NewClass("Main")
	mainM := mainClass.AddMethod(&classes.Method{Name: "main", Static: true})
	h.AddClass(mainClass)

	p, box1, box2, x := objVar("p", "Payload"), objVar("box1", "Box"),
		objVar("box2", "Box"), objVar("x", "Payload")
	body := ir.NewIR(mainM)
	for _, v := range []*ir.Var{p, box1, box2, x} {
		body.AddVar(v)
	}

	sp := &ir.New{LHS_: p, Type: "Payload"}
	body.Append(sp)
	sbox := &ir.New{LHS_: box1, Type: "Box"}
	body.Append(sbox)
	body.Append(&ir.Copy{LHS_: box2, RHS: box1}) // box2 aliases box1
	body.Append(&ir.StoreField{Base: box1, Field: field, RHS: p})
	body.Append(&ir.LoadField{LHS_: x, Base: box2, Field: field})

	hm := heap.NewAllocSiteModel()
	getIR := func(m *classes.Method) *ir.IR {
		if m == mainM {
			return body
		}
		return nil
	}

	solver := ci.NewSolver(h, hm, getIR)
	result := solver.Solve([]*classes.Method{mainM})

	ptsX := result.PointsTo(x)
	require.Len(t, ptsX, 1)
	assert.Equal(t, hm.Obj(sp), ptsX[0])
}
