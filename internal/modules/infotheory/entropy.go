// Package infotheory provides the classical and quantum entropy measures
// used by the integrated-information engine. All entropies are in bits.
package infotheory

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/avermex/qphi/internal/modules/density"
)

// ShannonEntropy returns H(p) = -sum p_i log2(p_i), with 0 log 0 = 0.
func ShannonEntropy(p []float64) float64 {
	// stat.Entropy uses the natural log and skips zero entries.
	h := stat.Entropy(p) / math.Ln2
	if h < 0 {
		// Roundoff on near-deterministic inputs.
		return 0
	}
	return h
}

// VonNeumannEntropy returns S(rho) = -sum lambda_i log2(lambda_i) over the
// eigenvalues of rho, clamped to [0, 1] before use.
func VonNeumannEntropy(rho *density.Matrix) (float64, error) {
	vals, err := rho.Eigenvalues()
	if err != nil {
		return 0, err
	}
	for i, v := range vals {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		vals[i] = v
	}
	return ShannonEntropy(vals), nil
}

// KLDivergence returns D(p || q) in bits. Terms with p_i = 0 contribute
// nothing; p_i > 0 with q_i = 0 yields +Inf. For a joint distribution
// against its own product of marginals the support condition always holds.
func KLDivergence(p, q []float64) float64 {
	var d float64
	for i, pi := range p {
		if pi <= 0 {
			continue
		}
		if q[i] <= 0 {
			return math.Inf(1)
		}
		d += pi * math.Log2(pi/q[i])
	}
	if d < 0 {
		return 0
	}
	return d
}
