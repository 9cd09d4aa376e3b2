package callgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statix-dev/taie/callgraph"
	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/ir"
)

// buildDiamondHierarchy sets up a small interface-dispatch hierarchy:
//
//	interface I { m() }
//	class A implements I { m(){} }
//	class B implements I { m(){} }
//	main() { I i = new A(); i.m(); }
func buildDiamondHierarchy(t *testing.T) (*classes.Hierarchy, *classes.Method, *classes.Method, *classes.Method) {
	t.Helper()
	h := classes.NewHierarchy()

	sig := classes.Subsignature{Name: "m", Desc: "()"}

	iface := classes.NewClass("I")
	iface.Interface = true
	iface.AddMethod(&classes.Method{Name: "m", Sig: sig, Abstract: true})
	h.AddClass(iface)

	a := classes.NewClass("A")
	a.Interfaces = []*classes.Class{iface}
	aM := a.AddMethod(&classes.Method{Name: "m", Sig: sig})
	h.AddClass(a)

	b := classes.NewClass("B")
	b.Interfaces = []*classes.Class{iface}
	bM := b.AddMethod(&classes.Method{Name: "m", Sig: sig})
	h.AddClass(b)

	mainClass := classes.NewClass("Main")
	mainM := mainClass.AddMethod(&classes.Method{Name: "main", Static: true})
	h.AddClass(mainClass)

	return h, mainM, aM, bM
}

func TestCHAResolvesEveryInterfaceImplementor(t *testing.T) {
	h, mainM, aM, bM := buildDiamondHierarchy(t)
	iface, _ := h.GetClass("I")
	sig := classes.Subsignature{Name: "m", Desc: "()"}

	inv := &ir.Invoke{
		Kind:           ir.InterfaceCall,
		MethodRef:      sig,
		DeclaringClass: iface,
	}

	body := ir.NewIR(mainM)
	body.Append(inv)

	getIR := func(m *classes.Method) *ir.IR {
		if m == mainM {
			return body
		}
		return nil
	}

	cg := callgraph.CHA(h, getIR, []*classes.Method{mainM})

	callees := cg.CalleesOf(inv)
	require.Len(t, callees, 2)
	assert.Contains(t, callees, aM)
	assert.Contains(t, callees, bM)
	assert.True(t, cg.IsReachable(aM))
	assert.True(t, cg.IsReachable(bM))
}

func TestCHASkipsAbstractDispatchCandidate(t *testing.T) {
	// A class between the declared type and a concrete override that
	// itself leaves the method abstract must not appear in the callee
	// set: dispatch starting from an abstract method resolves to no
	// callee until it reaches a concrete override.
	h := classes.NewHierarchy()
	sig := classes.Subsignature{Name: "m", Desc: "()"}

	base := classes.NewClass("Base")
	base.Abstract = true
	base.AddMethod(&classes.Method{Name: "m", Sig: sig, Abstract: true})
	h.AddClass(base)

	mid := classes.NewClass("Mid")
	mid.Super = base
	mid.Abstract = true
	// Mid does not override m: still abstract.
	h.AddClass(mid)

	concrete := classes.NewClass("Concrete")
	concrete.Super = mid
	concreteM := concrete.AddMethod(&classes.Method{Name: "m", Sig: sig})
	h.AddClass(concrete)

	mainClass := classes.NewClass("Main")
	mainM := mainClass.AddMethod(&classes.Method{Name: "main", Static: true})
	h.AddClass(mainClass)

	inv := &ir.Invoke{Kind: ir.VirtualCall, MethodRef: sig, DeclaringClass: base}
	body := ir.NewIR(mainM)
	body.Append(inv)

	getIR := func(m *classes.Method) *ir.IR {
		if m == mainM {
			return body
		}
		return nil
	}

	cg := callgraph.CHA(h, getIR, []*classes.Method{mainM})
	callees := cg.CalleesOf(inv)
	require.Len(t, callees, 1)
	assert.Equal(t, concreteM, callees[0])
}

func TestCHAStaticCallDoesNotDispatch(t *testing.T) {
	h := classes.NewHierarchy()
	sig := classes.Subsignature{Name: "f", Desc: "()"}

	c := classes.NewClass("C")
	cM := c.AddMethod(&classes.Method{Name: "f", Sig: sig, Static: true})
	h.AddClass(c)

	mainClass := classes.NewClass("Main")
	mainM := mainClass.AddMethod(&classes.Method{Name: "main", Static: true})
	h.AddClass(mainClass)

	inv := &ir.Invoke{Kind: ir.StaticCall, MethodRef: sig, DeclaringClass: c}
	body := ir.NewIR(mainM)
	body.Append(inv)

	getIR := func(m *classes.Method) *ir.IR {
		if m == mainM {
			return body
		}
		return nil
	}

	cg := callgraph.CHA(h, getIR, []*classes.Method{mainM})
	require.Len(t, cg.CalleesOf(inv), 1)
	assert.Equal(t, cM, cg.CalleesOf(inv)[0])
}
