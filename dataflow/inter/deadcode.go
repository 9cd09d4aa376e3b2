package inter

import (
	"sort"

	"github.com/statix-dev/taie/cfg"
	"github.com/statix-dev/taie/dataflow/constprop"
	"github.com/statix-dev/taie/ir"
)

// DeadCode finds unreachable branches (an If/Switch whose condition is a
// known constant that rules some edges out) and dead assignments (a
// side-effect-free right-hand side whose left-hand side is never read
// afterward) in a single method body, combining the intra-procedural
// constant-propagation and live-variable results over the same method.
func DeadCode(body *ir.IR) []ir.Stmt {
	g := cfg.Build(body)
	constants := constprop.Solve(body, g)
	live := constprop.SolveLiveVars(g)

	visited := map[ir.Stmt]struct{}{}
	stack := []ir.Stmt{g.Entry}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}

		switch s := n.(type) {
		case *ir.If:
			cond := constprop.EvaluateCondition(s, constants.In[n])
			for _, e := range g.Succs(n) {
				if !cond.IsConstant() ||
					(cond.Constant() != 0 && e.Kind == cfg.IfTrue) ||
					(cond.Constant() == 0 && e.Kind == cfg.IfFalse) {
					stack = append(stack, e.Target)
				}
			}
		case *ir.Switch:
			val := constprop.EvaluateSwitch(s, constants.In[n])
			matched := false
			if val.IsConstant() {
				for _, c := range s.Cases {
					if c == val.Constant() {
						matched = true
						break
					}
				}
			}
			for _, e := range g.Succs(n) {
				if !val.IsConstant() ||
					(e.Kind == cfg.SwitchCase && e.CaseValue == val.Constant()) ||
					(e.Kind == cfg.SwitchDefault && !matched) {
					stack = append(stack, e.Target)
				}
			}
		default:
			for _, e := range g.Succs(n) {
				stack = append(stack, e.Target)
			}
		}
	}

	var dead []ir.Stmt
	for _, n := range g.Nodes() {
		if n == g.Exit {
			continue
		}
		if _, ok := visited[n]; !ok {
			dead = append(dead, n)
			continue
		}
		if assign, ok := n.(ir.Assign); ok && assign.NoSideEffect() {
			if lhs := assign.LHS(); lhs != nil && !live.Out[n].Contains(lhs) {
				dead = append(dead, n)
			}
		}
	}

	sort.Slice(dead, func(i, j int) bool { return dead[i].Index() < dead[j].Index() })
	return dead
}
