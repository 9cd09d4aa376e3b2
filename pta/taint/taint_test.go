package taint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/heap"
	"github.com/statix-dev/taie/ir"
	ctxpkg "github.com/statix-dev/taie/pta/context"
	"github.com/statix-dev/taie/pta/cs"
	"github.com/statix-dev/taie/pta/taint"
)

func payloadVar(name string) *ir.Var { return &ir.Var{Name: name, Type: "Payload"} }

func declareStatic(h *classes.Hierarchy, className, methodName, desc string) *classes.Method {
	c := classes.NewClass(className)
	m := c.AddMethod(&classes.Method{
		Name:   methodName,
		Sig:    classes.Subsignature{Name: methodName, Desc: desc},
		Static: true,
	})
	h.AddClass(c)
	return m
}

// TestDirectSourceToSink checks that a tainted value flowing straight
// from a source call into a sink argument reports exactly one flow:
// x = src(); sink(x).
func TestDirectSourceToSink(t *testing.T) {
	h := classes.NewHierarchy()
	srcM := declareStatic(h, "Source", "src", "()")
	sinkM := declareStatic(h, "Sink", "sink", "(Payload)")

	mainClass := classes.NewClass("Main")
	mainM := mainClass.AddMethod(&classes.Method{Name: "main", Static: true})
	h.AddClass(mainClass)

	x := payloadVar("x")
	body := ir.NewIR(mainM)
	body.AddVar(x)

	srcCall := &ir.Invoke{LHS_: x, Kind: ir.StaticCall, MethodRef: srcM.Sig, DeclaringClass: srcM.Declaring}
	body.Append(srcCall)
	sinkCall := &ir.Invoke{Kind: ir.StaticCall, MethodRef: sinkM.Sig, DeclaringClass: sinkM.Declaring, Args: []*ir.Var{x}}
	body.Append(sinkCall)

	getIR := func(m *classes.Method) *ir.IR {
		if m == mainM {
			return body
		}
		return nil
	}

	cfg := &taint.Config{
		Sources: []taint.SourceRule{{MethodMatch: taint.MethodMatch{Class: "Source", Method: "src"}, Type: "Tainted"}},
		Sinks:   []taint.SinkRule{{MethodMatch: taint.MethodMatch{Class: "Sink", Method: "sink"}, Arg: 0}},
	}

	hm := heap.NewAllocSiteModel()
	solver := cs.NewSolver(h, hm, getIR, ctxpkg.Insensitive{})
	analyzer := taint.NewAnalyzer(cfg, h, hm, solver)

	result := solver.Solve([]*classes.Method{mainM})
	flows := analyzer.Finish(result)

	require.Len(t, flows, 1)
	assert.Equal(t, srcCall, flows[0].Source)
	assert.Equal(t, sinkCall, flows[0].Sink)
	assert.Equal(t, 0, flows[0].ArgIndex)
}

// TestTransferPreservesTaint covers scenario 7's second case: with a
// transfer id(arg0) -> result, x = id(src()); sink(x) still reports
// exactly one flow.
func TestTransferPreservesTaint(t *testing.T) {
	h := classes.NewHierarchy()
	srcM := declareStatic(h, "Source", "src", "()")
	idM := declareStatic(h, "Id", "id", "(Payload)")
	sinkM := declareStatic(h, "Sink", "sink", "(Payload)")

	mainClass := classes.NewClass("Main")
	mainM := mainClass.AddMethod(&classes.Method{Name: "main", Static: true})
	h.AddClass(mainClass)

	t0, x := payloadVar("t0"), payloadVar("x")
	body := ir.NewIR(mainM)
	body.AddVar(t0)
	body.AddVar(x)

	srcCall := &ir.Invoke{LHS_: t0, Kind: ir.StaticCall, MethodRef: srcM.Sig, DeclaringClass: srcM.Declaring}
	body.Append(srcCall)
	idCall := &ir.Invoke{LHS_: x, Kind: ir.StaticCall, MethodRef: idM.Sig, DeclaringClass: idM.Declaring, Args: []*ir.Var{t0}}
	body.Append(idCall)
	sinkCall := &ir.Invoke{Kind: ir.StaticCall, MethodRef: sinkM.Sig, DeclaringClass: sinkM.Declaring, Args: []*ir.Var{x}}
	body.Append(sinkCall)

	getIR := func(m *classes.Method) *ir.IR {
		if m == mainM {
			return body
		}
		return nil
	}

	cfg := &taint.Config{
		Sources: []taint.SourceRule{{MethodMatch: taint.MethodMatch{Class: "Source", Method: "src"}, Type: "Tainted"}},
		Sinks:   []taint.SinkRule{{MethodMatch: taint.MethodMatch{Class: "Sink", Method: "sink"}, Arg: 0}},
		Transfers: []taint.TransferRule{
			{MethodMatch: taint.MethodMatch{Class: "Id", Method: "id"}, From: "arg:0", To: "result"},
		},
	}

	hm := heap.NewAllocSiteModel()
	solver := cs.NewSolver(h, hm, getIR, ctxpkg.Insensitive{})
	analyzer := taint.NewAnalyzer(cfg, h, hm, solver)

	result := solver.Solve([]*classes.Method{mainM})
	flows := analyzer.Finish(result)

	require.Len(t, flows, 1)
	assert.Equal(t, srcCall, flows[0].Source)
	assert.Equal(t, sinkCall, flows[0].Sink)
}

// TestFlowSetIsDeterministic checks spec.md §8's determinism
// property: solving the same inputs twice yields the same flow set.
func TestFlowSetIsDeterministic(t *testing.T) {
	run := func() []taint.TaintFlow {
		h := classes.NewHierarchy()
		srcM := declareStatic(h, "Source", "src", "()")
		sinkM := declareStatic(h, "Sink", "sink", "(Payload)")

		mainClass := classes.NewClass("Main")
		mainM := mainClass.AddMethod(&classes.Method{Name: "main", Static: true})
		h.AddClass(mainClass)

		x := payloadVar("x")
		body := ir.NewIR(mainM)
		body.AddVar(x)
		body.Append(&ir.Invoke{LHS_: x, Kind: ir.StaticCall, MethodRef: srcM.Sig, DeclaringClass: srcM.Declaring})
		body.Append(&ir.Invoke{Kind: ir.StaticCall, MethodRef: sinkM.Sig, DeclaringClass: sinkM.Declaring, Args: []*ir.Var{x}})

		getIR := func(m *classes.Method) *ir.IR {
			if m == mainM {
				return body
			}
			return nil
		}
		cfg := &taint.Config{
			Sources: []taint.SourceRule{{MethodMatch: taint.MethodMatch{Class: "Source", Method: "src"}, Type: "Tainted"}},
			Sinks:   []taint.SinkRule{{MethodMatch: taint.MethodMatch{Class: "Sink", Method: "sink"}, Arg: 0}},
		}
		hm := heap.NewAllocSiteModel()
		solver := cs.NewSolver(h, hm, getIR, ctxpkg.Insensitive{})
		analyzer := taint.NewAnalyzer(cfg, h, hm, solver)
		result := solver.Solve([]*classes.Method{mainM})
		return analyzer.Finish(result)
	}

	a, b := run(), run()
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Source.Index(), b[0].Source.Index())
	assert.Equal(t, a[0].Sink.Index(), b[0].Sink.Index())
	assert.Equal(t, a[0].ArgIndex, b[0].ArgIndex)
}
