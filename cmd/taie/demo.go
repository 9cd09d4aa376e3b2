package main

import (
	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/ir"
)

// buildDemoProgram hand-builds a small class hierarchy and the bodies of
// its methods. Main.main exercises constant arithmetic, a
// constant-conditioned branch with a genuinely unreachable arm, a dead
// (never-subsequently-read) assignment, virtual dispatch through an
// interface, an instance field round-tripped through an alias, and a
// static-call taint source/transfer/sink chain. The program contains no
// Switch, Copy, array, or static-field statements.
//
// Real IR construction is out of scope for the core (spec.md §1); this
// stands in for the front end a real deployment would supply.
func buildDemoProgram() (*classes.Hierarchy, *classes.Method, func(*classes.Method) *ir.IR) {
	h := classes.NewHierarchy()
	bodies := map[*classes.Method]*ir.IR{}

	greetSig := classes.Subsignature{Name: "greet", Desc: "()"}
	greeter := classes.NewClass("Greeter")
	greeter.Interface = true
	greeter.AddMethod(&classes.Method{Name: "greet", Sig: greetSig, Abstract: true})
	h.AddClass(greeter)

	english := classes.NewClass("EnglishGreeter")
	english.Interfaces = []*classes.Class{greeter}
	englishGreet := english.AddMethod(&classes.Method{Name: "greet", Sig: greetSig})
	h.AddClass(english)
	bodies[englishGreet] = ir.NewIR(englishGreet)

	french := classes.NewClass("FrenchGreeter")
	french.Interfaces = []*classes.Class{greeter}
	frenchGreet := french.AddMethod(&classes.Method{Name: "greet", Sig: greetSig})
	h.AddClass(french)
	bodies[frenchGreet] = ir.NewIR(frenchGreet)

	box := classes.NewClass("Box")
	valField := box.AddField(&classes.Field{Name: "val", Type: "Object"})
	setSig := classes.Subsignature{Name: "set", Desc: "(Object)"}
	getSig := classes.Subsignature{Name: "get", Desc: "()"}
	setM := box.AddMethod(&classes.Method{Name: "set", Sig: setSig})
	getM := box.AddMethod(&classes.Method{Name: "get", Sig: getSig})
	h.AddClass(box)

	setBody := ir.NewIR(setM)
	setParam := &ir.Var{Name: "v", Type: "Object"}
	setBody.AddParam(setParam)
	setBody.Append(&ir.StoreField{Base: setBody.ThisVar, Field: valField, RHS: setParam})
	setBody.Append(&ir.Return{})
	bodies[setM] = setBody

	getBody := ir.NewIR(getM)
	getRet := &ir.Var{Name: "ret", Type: "Object"}
	getBody.AddVar(getRet)
	getBody.Append(&ir.LoadField{LHS_: getRet, Base: getBody.ThisVar, Field: valField})
	getBody.Append(&ir.Return{Value: getRet})
	bodies[getM] = getBody

	taintSource := classes.NewClass("TaintSource")
	readSig := classes.Subsignature{Name: "read", Desc: "()"}
	readM := taintSource.AddMethod(&classes.Method{Name: "read", Sig: readSig, Static: true})
	h.AddClass(taintSource)

	readBody := ir.NewIR(readM)
	readVal := &ir.Var{Name: "v", Type: "String"}
	readBody.AddVar(readVal)
	readBody.Append(&ir.New{LHS_: readVal, Type: "String"})
	readBody.Append(&ir.Return{Value: readVal})
	bodies[readM] = readBody

	util := classes.NewClass("Util")
	identitySig := classes.Subsignature{Name: "identity", Desc: "(String)"}
	identityM := util.AddMethod(&classes.Method{Name: "identity", Sig: identitySig, Static: true})
	h.AddClass(util)

	identityBody := ir.NewIR(identityM)
	identityParam := &ir.Var{Name: "s", Type: "String"}
	identityBody.AddParam(identityParam)
	identityBody.Append(&ir.Return{Value: identityParam})
	bodies[identityM] = identityBody

	taintSink := classes.NewClass("TaintSink")
	writeSig := classes.Subsignature{Name: "write", Desc: "(String)"}
	writeM := taintSink.AddMethod(&classes.Method{Name: "write", Sig: writeSig, Static: true})
	h.AddClass(taintSink)

	writeBody := ir.NewIR(writeM)
	writeParam := &ir.Var{Name: "s", Type: "String"}
	writeBody.AddParam(writeParam)
	bodies[writeM] = writeBody

	mainClass := classes.NewClass("Main")
	mainM := mainClass.AddMethod(&classes.Method{Name: "main", Static: true})
	h.AddClass(mainClass)

	body := ir.NewIR(mainM)
	oneA := &ir.Var{Name: "oneA", Type: "int"}
	oneB := &ir.Var{Name: "oneB", Type: "int"}
	liveMarker := &ir.Var{Name: "liveMarker", Type: "int"}
	deadVal := &ir.Var{Name: "deadVal", Type: "Object"}
	x := &ir.Var{Name: "x", Type: "int"}
	y := &ir.Var{Name: "y", Type: "int"}
	z := &ir.Var{Name: "z", Type: "int"}
	unused := &ir.Var{Name: "unused", Type: "int"}
	g := &ir.Var{Name: "g", Type: "EnglishGreeter"}
	b := &ir.Var{Name: "box", Type: "Box"}
	valTmp := &ir.Var{Name: "valTmp", Type: "Object"}
	tainted := &ir.Var{Name: "tainted", Type: "String"}
	wrapped := &ir.Var{Name: "wrapped", Type: "String"}
	for _, v := range []*ir.Var{oneA, oneB, liveMarker, deadVal, x, y, z, unused, g, b, valTmp, tainted, wrapped} {
		body.AddVar(v)
	}

	// idx0-1: the constant branch condition.
	body.Append(&ir.AssignLiteral{LHS_: oneA, Value: 1})
	body.Append(&ir.AssignLiteral{LHS_: oneB, Value: 1})
	// idx2: always takes the true edge (oneA == oneB is always 1 == 1).
	body.Append(&ir.If{Op: ir.Eq, X: oneA, Y: oneB, TrueTarget: 3, FalseTarget: 5})
	// idx3: the live arm.
	body.Append(&ir.AssignLiteral{LHS_: liveMarker, Value: 7})
	// idx4: skip over the dead arm.
	body.Append(&ir.Goto{Target: 6})
	// idx5: unreachable — never jumped to, since the branch is always true.
	body.Append(&ir.New{LHS_: deadVal, Type: "Object"})
	// idx6-8: ordinary constant propagation.
	body.Append(&ir.AssignLiteral{LHS_: x, Value: 1})
	body.Append(&ir.AssignLiteral{LHS_: y, Value: 2})
	body.Append(&ir.Binary{LHS_: z, Op1: x, Op2: y, Op: ir.Add})
	// idx9: dead assignment — unused is never read afterward.
	body.Append(&ir.AssignLiteral{LHS_: unused, Value: 99})
	// idx10-11: virtual dispatch through the Greeter interface.
	body.Append(&ir.New{LHS_: g, Type: "EnglishGreeter"})
	body.Append(&ir.Invoke{Base: g, Kind: ir.InterfaceCall, MethodRef: greetSig, DeclaringClass: greeter})
	// idx12-14: an instance field stored by Box.set and loaded by Box.get,
	// both through `this`, which aliases box.
	body.Append(&ir.New{LHS_: b, Type: "Box"})
	body.Append(&ir.Invoke{Base: b, Kind: ir.VirtualCall, MethodRef: setSig, DeclaringClass: box, Args: []*ir.Var{g}})
	body.Append(&ir.Invoke{LHS_: valTmp, Base: b, Kind: ir.VirtualCall, MethodRef: getSig, DeclaringClass: box})
	// idx15-17: taint source -> transfer -> sink.
	body.Append(&ir.Invoke{LHS_: tainted, Kind: ir.StaticCall, MethodRef: readSig, DeclaringClass: taintSource})
	body.Append(&ir.Invoke{LHS_: wrapped, Kind: ir.StaticCall, MethodRef: identitySig, DeclaringClass: util, Args: []*ir.Var{tainted}})
	body.Append(&ir.Invoke{Kind: ir.StaticCall, MethodRef: writeSig, DeclaringClass: taintSink, Args: []*ir.Var{wrapped}})
	// idx18: exit.
	body.Append(&ir.Return{})

	bodies[mainM] = body

	getIR := func(m *classes.Method) *ir.IR {
		return bodies[m]
	}
	return h, mainM, getIR
}
