package inter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/statix-dev/taie/classes"
	"github.com/statix-dev/taie/dataflow/inter"
	"github.com/statix-dev/taie/ir"
)

// TestDeadCodeUnreachableBranch covers spec.md §8 scenario 8: if (true)
// S1 else S2; S3 — S2 is unreachable and belongs in the dead-code set,
// S1 and S3 do not.
func TestDeadCodeUnreachableBranch(t *testing.T) {
	c := classes.NewClass("Main")
	m := c.AddMethod(&classes.Method{Name: "main", Static: true})
	body := ir.NewIR(m)

	one, zero := intVar("one"), intVar("zero")
	s1target, s3 := intVar("s1"), intVar("s3")
	body.AddVar(one)
	body.AddVar(zero)
	body.AddVar(s1target)
	body.AddVar(s3)

	body.Append(&ir.AssignLiteral{LHS_: one, Value: 1})
	body.Append(&ir.AssignLiteral{LHS_: zero, Value: 0})
	ifStmt := &ir.If{Op: ir.Ne, X: one, Y: zero}
	body.Append(ifStmt)
	s1 := body.Append(&ir.AssignLiteral{LHS_: s1target, Value: 10})
	gotoEnd := &ir.Goto{}
	body.Append(gotoEnd)
	s2 := body.Append(&ir.AssignLiteral{LHS_: s1target, Value: 20})
	s3stmt := body.Append(&ir.AssignLiteral{LHS_: s3, Value: 30})
	// Read s1 and s3 afterward so S1 and S3 are not dead assignments.
	sum := intVar("sum")
	body.AddVar(sum)
	body.Append(&ir.Binary{LHS_: sum, Op1: s1target, Op2: s3, Op: ir.Add})
	body.Append(&ir.Return{Value: sum})

	ifStmt.TrueTarget = s1.Index()
	ifStmt.FalseTarget = s2.Index()
	gotoEnd.Target = s3stmt.Index()

	dead := inter.DeadCode(body)

	assert.Contains(t, dead, s2)
	assert.NotContains(t, dead, s1)
	assert.NotContains(t, dead, s3stmt)
}

// TestDeadCodeDeadAssignment checks that a side-effect-free assignment
// whose result is never read afterward is flagged dead even though it's
// reachable.
func TestDeadCodeDeadAssignment(t *testing.T) {
	c := classes.NewClass("Main")
	m := c.AddMethod(&classes.Method{Name: "main", Static: true})
	body := ir.NewIR(m)

	unused, used := intVar("unused"), intVar("used")
	body.AddVar(unused)
	body.AddVar(used)

	deadAssign := body.Append(&ir.AssignLiteral{LHS_: unused, Value: 42})
	liveAssign := body.Append(&ir.AssignLiteral{LHS_: used, Value: 7})
	body.Append(&ir.Return{Value: used})

	dead := inter.DeadCode(body)

	assert.Contains(t, dead, deadAssign)
	assert.NotContains(t, dead, liveAssign)
}

// intVar is declared in interconstprop_test.go (same package).
