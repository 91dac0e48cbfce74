// Package emd computes the Earth Mover's Distance between two probability
// distributions over the same discrete support by solving the transportation
// linear program with gonum's simplex solver:
//
//	minimize   sum_ij c_ij T_ij
//	subject to sum_j T_ij = p_i,  sum_i T_ij = q_j,  T_ij >= 0.
//
// One column-marginal constraint is dropped (it is implied by the others) so
// the constraint matrix has full row rank.
package emd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	// massTolerance is how far a distribution may be from summing to 1.
	massTolerance = 1e-6
	// supportTolerance is the mass below which a support point is dropped
	// from the LP. Dropped points carry no mass in any feasible plan.
	supportTolerance = 1e-12
	// lpTolerance is the simplex convergence tolerance.
	lpTolerance = 1e-10
)

// Result holds the optimal transport cost and, when requested, the plan.
type Result struct {
	Cost float64
	// Plan is the transport matrix on the full support, row i = source,
	// column j = destination. Nil unless requested.
	Plan *mat.Dense
}

// Options controls what Solve returns.
type Options struct {
	ReturnPlan bool
}

// Distance returns the optimal transport cost between p and q under the
// given ground-distance matrix.
func Distance(p, q []float64, ground *mat.Dense) (float64, error) {
	res, err := Solve(p, q, ground, Options{})
	if err != nil {
		return 0, err
	}
	return res.Cost, nil
}

// Solve computes the minimum-cost transport plan moving p into q.
func Solve(p, q []float64, ground *mat.Dense, opts Options) (*Result, error) {
	if err := validate(p, q, ground); err != nil {
		return nil, err
	}

	// Identical distributions need no transport; this also pins
	// EMD(p, p) = 0 exactly rather than up to LP tolerance.
	if equalWithin(p, q, supportTolerance) {
		res := &Result{Cost: 0}
		if opts.ReturnPlan {
			n := len(p)
			plan := mat.NewDense(n, n, nil)
			for i, v := range p {
				plan.Set(i, i, v)
			}
			res.Plan = plan
		}
		return res, nil
	}

	// Trim zero-mass support points; they cannot appear in any plan.
	srcIdx := support(p)
	dstIdx := support(q)
	n := len(srcIdx)
	m := len(dstIdx)

	// Variables are T_ij flattened row-major over the trimmed support.
	c := make([]float64, n*m)
	for i, si := range srcIdx {
		for j, dj := range dstIdx {
			c[i*m+j] = ground.At(si, dj)
		}
	}

	// n row constraints plus m-1 column constraints.
	rows := n + m - 1
	a := mat.NewDense(rows, n*m, nil)
	b := make([]float64, rows)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			a.Set(i, i*m+j, 1)
		}
		b[i] = p[srcIdx[i]]
	}
	for j := 0; j < m-1; j++ {
		for i := 0; i < n; i++ {
			a.Set(n+j, i*m+j, 1)
		}
		b[n+j] = q[dstIdx[j]]
	}

	cost, x, err := lp.Simplex(c, a, b, lpTolerance, nil)
	if err != nil {
		// Both marginals sum to one and all entries are non-negative, so
		// the program is always feasible; failure here is an internal
		// invariant violation, not a recoverable condition.
		return nil, fmt.Errorf("transport LP failed on well-formed input: %w", err)
	}
	if cost < 0 {
		cost = 0
	}

	res := &Result{Cost: cost}
	if opts.ReturnPlan {
		plan := mat.NewDense(len(p), len(q), nil)
		for i, si := range srcIdx {
			for j, dj := range dstIdx {
				plan.Set(si, dj, x[i*m+j])
			}
		}
		res.Plan = plan
	}
	return res, nil
}

func validate(p, q []float64, ground *mat.Dense) error {
	if len(p) != len(q) {
		return fmt.Errorf("distributions have different support sizes (%d vs %d)", len(p), len(q))
	}
	if len(p) == 0 {
		return fmt.Errorf("empty distributions")
	}
	r, c := ground.Dims()
	if r != len(p) || c != len(p) {
		return fmt.Errorf("ground distance is %dx%d, want %dx%d", r, c, len(p), len(p))
	}
	if err := checkDistribution("p", p); err != nil {
		return err
	}
	if err := checkDistribution("q", q); err != nil {
		return err
	}
	for i := 0; i < r; i++ {
		for j := i; j < c; j++ {
			if ground.At(i, j) < 0 {
				return fmt.Errorf("ground distance (%d,%d) is negative", i, j)
			}
			if ground.At(i, j) != ground.At(j, i) {
				return fmt.Errorf("ground distance is not symmetric at (%d,%d)", i, j)
			}
		}
	}
	return nil
}

func checkDistribution(name string, p []float64) error {
	var sum float64
	for i, v := range p {
		if v < 0 {
			return fmt.Errorf("%s[%d] is negative (%g)", name, i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > massTolerance {
		return fmt.Errorf("%s sums to %g, want 1", name, sum)
	}
	return nil
}

func support(p []float64) []int {
	var idx []int
	for i, v := range p {
		if v > supportTolerance {
			idx = append(idx, i)
		}
	}
	return idx
}

func equalWithin(p, q []float64, tol float64) bool {
	for i := range p {
		if math.Abs(p[i]-q[i]) > tol {
			return false
		}
	}
	return true
}
