// Package heap models the abstract objects pointer analysis reasons about
// and the heap abstraction (HeapModel) that turns a New statement into
// one. The default model is allocation-site based: one abstract object per
// New statement, independent of how many times the method containing it
// runs (context sensitivity distinguishes those dynamically via pta/cs,
// not here).
package heap

import (
	"fmt"
	"sync"

	"github.com/statix-dev/taie/ir"
)

// Obj is an abstract heap object.
type Obj struct {
	ID        int
	Type      string
	AllocSite *ir.New // nil for synthetic objects (e.g. taint sources)
	Desc      string  // human-readable label for synthetic objects
}

func (o *Obj) String() string {
	if o.AllocSite != nil {
		return fmt.Sprintf("Obj#%d<%s>@%d", o.ID, o.Type, o.AllocSite.Index())
	}
	return fmt.Sprintf("Obj#%d<%s:%s>", o.ID, o.Type, o.Desc)
}

// HeapModel turns allocation sites into abstract objects. Solvers call
// this once per reachable New statement; implementations are expected to
// memoize so that revisiting the same site returns the same Obj.
type HeapModel interface {
	// Obj returns the abstract object for a New statement.
	Obj(site *ir.New) *Obj
	// Synthetic mints a fresh abstract object not tied to any IR
	// statement, identified by desc (used by the taint analyzer for its
	// source objects).
	Synthetic(typ, desc string) *Obj
}

// AllocSiteModel is the default HeapModel: one Obj per distinct *ir.New
// pointer, for the lifetime of the model.
type AllocSiteModel struct {
	mu   sync.Mutex
	objs map[*ir.New]*Obj
	next int
}

func NewAllocSiteModel() *AllocSiteModel {
	return &AllocSiteModel{objs: map[*ir.New]*Obj{}}
}

func (m *AllocSiteModel) Obj(site *ir.New) *Obj {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.objs[site]; ok {
		return o
	}
	o := &Obj{ID: m.next, Type: site.Type, AllocSite: site}
	m.next++
	m.objs[site] = o
	return o
}

func (m *AllocSiteModel) Synthetic(typ, desc string) *Obj {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := &Obj{ID: m.next, Type: typ, Desc: desc}
	m.next++
	return o
}

var _ HeapModel = (*AllocSiteModel)(nil)
