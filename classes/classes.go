// Package classes models the class-based type vocabulary the rest of taie
// is built over: declared classes and interfaces, their (single-parent)
// superclass chain, interface implementation, fields, and methods named by
// subsignature. It is the external collaborator spec.md assumes a real
// front end supplies; this package gives it a concrete, in-memory shape
// good enough to drive the solvers, the CLI, and the test suite.
package classes

import "fmt"

// Subsignature identifies a method independent of its declaring class: a
// name plus a descriptor string describing parameter and return shape.
// Two methods with the same Subsignature in related classes are considered
// overrides of one another.
type Subsignature struct {
	Name string
	Desc string
}

func (s Subsignature) String() string {
	return s.Name + s.Desc
}

// Field is a declared field, static or instance.
type Field struct {
	Name      string
	Type      string
	Declaring *Class
	Static    bool
}

func (f *Field) String() string {
	return fmt.Sprintf("%s.%s", f.Declaring.Name, f.Name)
}

// Method is a declared method. A nil *Method never appears as a value in
// Class.Methods; ResolveMethod returns (nil, false) instead of an entry
// pointing at nil, so callers never need the null-guard CHA's dispatch
// forgot (see DESIGN.md open question 3) once they go through Hierarchy.
type Method struct {
	Name      string
	Sig       Subsignature
	Declaring *Class
	Abstract  bool
	Static    bool
	Private   bool
}

func (m *Method) String() string {
	return fmt.Sprintf("%s.%s", m.Declaring.Name, m.Sig)
}

func (m *Method) IsAbstract() bool { return m.Abstract }
func (m *Method) IsStatic() bool   { return m.Static }
func (m *Method) IsPrivate() bool  { return m.Private }

// Class is a declared class or interface.
type Class struct {
	Name       string
	Super      *Class
	Interfaces []*Class
	Methods    map[Subsignature]*Method
	Fields     map[string]*Field
	Abstract   bool
	Interface  bool
}

func NewClass(name string) *Class {
	return &Class{
		Name:    name,
		Methods: map[Subsignature]*Method{},
		Fields:  map[string]*Field{},
	}
}

func (c *Class) IsInterface() bool { return c.Interface }
func (c *Class) IsAbstract() bool  { return c.Abstract || c.Interface }

func (c *Class) String() string { return c.Name }

// AddMethod declares m on c and returns it, for convenient construction.
func (c *Class) AddMethod(m *Method) *Method {
	m.Declaring = c
	c.Methods[m.Sig] = m
	return m
}

// AddField declares f on c and returns it.
func (c *Class) AddField(f *Field) *Field {
	f.Declaring = c
	c.Fields[f.Name] = f
	return f
}

// ClassHierarchy is the contract the rest of taie programs against: class
// lookup, subclass enumeration, and virtual-dispatch method resolution.
type ClassHierarchy interface {
	GetClass(name string) (*Class, bool)
	// DirectSubclasses returns the classes that directly extend or
	// implement c (not transitively).
	DirectSubclasses(c *Class) []*Class
	// AllSubclasses returns c and every transitive sub/implementor,
	// deduplicated, in an unspecified order.
	AllSubclasses(c *Class) []*Class
	IsSubclass(sub, sup *Class) bool
	// ResolveMethod performs virtual dispatch: starting at c, walk the
	// superclass chain looking for sig. Returns (nil, false) if no
	// declaration is found, or if the first declaration found is
	// abstract (the caller has no concrete body to run).
	ResolveMethod(c *Class, sig Subsignature) (*Method, bool)
	// ResolveField looks up an instance or static field by name,
	// walking the superclass chain.
	ResolveField(c *Class, name string) (*Field, bool)
}

// Hierarchy is the default in-memory ClassHierarchy implementation.
type Hierarchy struct {
	classes    map[string]*Class
	subclasses map[*Class][]*Class
}

func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		classes:    map[string]*Class{},
		subclasses: map[*Class][]*Class{},
	}
}

// AddClass registers c and wires it into its declared supertypes' direct
// subclass lists. Classes should be added in any order; edges to
// not-yet-added supertypes are fine as long as all classes are added
// before the hierarchy is queried.
func (h *Hierarchy) AddClass(c *Class) {
	h.classes[c.Name] = c
	if c.Super != nil {
		h.subclasses[c.Super] = append(h.subclasses[c.Super], c)
	}
	for _, iface := range c.Interfaces {
		h.subclasses[iface] = append(h.subclasses[iface], c)
	}
}

func (h *Hierarchy) GetClass(name string) (*Class, bool) {
	c, ok := h.classes[name]
	return c, ok
}

func (h *Hierarchy) DirectSubclasses(c *Class) []*Class {
	return h.subclasses[c]
}

func (h *Hierarchy) AllSubclasses(c *Class) []*Class {
	seen := map[*Class]struct{}{}
	var out []*Class
	var walk func(*Class)
	walk = func(cur *Class) {
		if _, ok := seen[cur]; ok {
			return
		}
		seen[cur] = struct{}{}
		out = append(out, cur)
		for _, sub := range h.subclasses[cur] {
			walk(sub)
		}
	}
	walk(c)
	return out
}

func (h *Hierarchy) IsSubclass(sub, sup *Class) bool {
	for cur := sub; cur != nil; cur = cur.Super {
		if cur == sup {
			return true
		}
		for _, iface := range cur.Interfaces {
			if iface == sup || h.IsSubclass(iface, sup) {
				return true
			}
		}
	}
	return false
}

func (h *Hierarchy) ResolveMethod(c *Class, sig Subsignature) (*Method, bool) {
	for cur := c; cur != nil; cur = cur.Super {
		if m, ok := cur.Methods[sig]; ok {
			if m == nil || m.Abstract {
				return nil, false
			}
			return m, true
		}
	}
	return nil, false
}

func (h *Hierarchy) ResolveField(c *Class, name string) (*Field, bool) {
	for cur := c; cur != nil; cur = cur.Super {
		if f, ok := cur.Fields[name]; ok {
			return f, true
		}
	}
	return nil, false
}

var _ ClassHierarchy = (*Hierarchy)(nil)
