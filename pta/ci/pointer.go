// Package ci implements the context-insensitive Andersen-style points-to
// analysis (spec.md L4), co-computing the points-to sets, the
// pointer-flow graph, and the call graph on the fly as reachable code is
// discovered. Grounded directly on original_source's
// pta/ci/Solver.java.
package ci

import (
	"fmt"

	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/heap"
	"github.com/statix-dev/taie/ir"
)

// Pointer is any of the four context-insensitive pointer kinds: a local
// variable, an instance field of some abstract object, a static field, or
// an array's (index-less) element slot.
type Pointer interface {
	pointer()
	String() string
}

// VarPtr is the pointer associated with a local variable.
type VarPtr struct{ Var *ir.Var }

func (VarPtr) pointer()        {}
func (p VarPtr) String() string { return p.Var.Name }

// InstanceFieldPtr is the pointer for Field on a specific abstract object.
type InstanceFieldPtr struct {
	Obj   *heap.Obj
	Field *classes.Field
}

func (InstanceFieldPtr) pointer() {}
func (p InstanceFieldPtr) String() string {
	return fmt.Sprintf("%s.%s", p.Obj, p.Field.Name)
}

// StaticFieldPtr is the pointer for a static field, shared across all
// instances (and absent any receiver object).
type StaticFieldPtr struct{ Field *classes.Field }

func (StaticFieldPtr) pointer()        {}
func (p StaticFieldPtr) String() string { return p.Field.String() }

// ArrayPtr is the pointer for all elements of a specific abstract array
// object (indices are not distinguished, per spec.md's array model).
type ArrayPtr struct{ Obj *heap.Obj }

func (ArrayPtr) pointer()        {}
func (p ArrayPtr) String() string { return p.Obj.String() + "[*]" }
