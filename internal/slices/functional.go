// Package slices collects small generic helpers used across taie's
// worklist-driven analyses.
package slices

// Map applies f to every element of l and returns the results in order.
func Map[L ~[]X, X, Y any](l L, f func(X) Y) []Y {
	r := make([]Y, len(l))
	for i, x := range l {
		r[i] = f(x)
	}
	return r
}

// Filter returns the elements of l for which keep returns true.
func Filter[L ~[]X, X any](l L, keep func(X) bool) []X {
	r := make([]X, 0, len(l))
	for _, x := range l {
		if keep(x) {
			r = append(r, x)
		}
	}
	return r
}
