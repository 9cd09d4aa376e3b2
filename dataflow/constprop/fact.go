package constprop

import "github.com/statix-dev/taie/ir"

// Fact maps int-typed variables to their currently known Value. Only
// vars with Var.IsInt() ever appear as keys; spec.md's constant
// propagation is explicitly scoped to int (Non-goals: floating point,
// 64-bit).
type Fact struct {
	m map[*ir.Var]Value
}

func NewFact() Fact {
	return Fact{m: map[*ir.Var]Value{}}
}

// Get returns v's current value, or UNDEF if v has no entry yet.
func (f Fact) Get(v *ir.Var) Value {
	if val, ok := f.m[v]; ok {
		return val
	}
	return Undef()
}

// Update sets v's value, reporting whether this changed the fact.
func (f Fact) Update(v *ir.Var, val Value) bool {
	old, ok := f.m[v]
	if ok && old == val {
		return false
	}
	f.m[v] = val
	return true
}

// Delete removes v's entry entirely (equivalent to resetting it to
// UNDEF), reporting whether it was present.
func (f Fact) Delete(v *ir.Var) bool {
	if _, ok := f.m[v]; !ok {
		return false
	}
	delete(f.m, v)
	return true
}

// Equal reports whether f and other hold the same entries.
func (f Fact) Equal(other Fact) bool {
	if len(f.m) != len(other.m) {
		return false
	}
	for v, val := range f.m {
		if ov, ok := other.m[v]; !ok || ov != val {
			return false
		}
	}
	return true
}

// Copy returns an independent copy of f.
func (f Fact) Copy() Fact {
	m := make(map[*ir.Var]Value, len(f.m))
	for k, v := range f.m {
		m[k] = v
	}
	return Fact{m: m}
}

// MeetInto merges other into f in place (f := f ⊓ other per-variable),
// reporting whether f changed.
func (f Fact) MeetInto(other Fact) bool {
	changed := false
	for v, val := range other.m {
		merged := Meet(f.Get(v), val)
		if f.Update(v, merged) {
			changed = true
		}
	}
	return changed
}

// Vars returns every variable currently tracked.
func (f Fact) Vars() []*ir.Var {
	out := make([]*ir.Var, 0, len(f.m))
	for v := range f.m {
		out = append(out, v)
	}
	return out
}
