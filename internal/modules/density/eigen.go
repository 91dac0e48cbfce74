package density

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Hermitian eigenproblems are solved through the standard real-symmetric
// embedding: for rho = X + iY (X symmetric, Y antisymmetric) the real
// 2D x 2D matrix [[X, -Y], [Y, X]] is symmetric and carries each eigenvalue
// of rho with multiplicity two. gonum's EigenSym then does the heavy lifting;
// after sorting, adjacent pairs are collapsed back to the D-point spectrum.

// realEmbedding builds the symmetric embedding of a Hermitian matrix.
func (rho *Matrix) realEmbedding() *mat.SymDense {
	dim := rho.Dim()
	emb := mat.NewSymDense(2*dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			v := rho.m.At(i, j)
			x := real(v)
			y := imag(v)
			emb.SetSym(i, j, x)
			emb.SetSym(dim+i, dim+j, x)
			// -Y block; SetSym mirrors across the diagonal, and Y's
			// antisymmetry makes the two off-diagonal blocks consistent.
			if i != j {
				emb.SetSym(i, dim+j, -y)
				emb.SetSym(j, dim+i, y)
			}
		}
	}
	return emb
}

// Eigenvalues returns the spectrum of rho in ascending order.
func (rho *Matrix) Eigenvalues() ([]float64, error) {
	var es mat.EigenSym
	if ok := es.Factorize(rho.realEmbedding(), false); !ok {
		return nil, fmt.Errorf("eigendecomposition failed")
	}
	all := es.Values(nil)
	sort.Float64s(all)

	// Collapse duplicated pairs.
	dim := rho.Dim()
	vals := make([]float64, dim)
	for i := 0; i < dim; i++ {
		vals[i] = (all[2*i] + all[2*i+1]) / 2
	}
	return vals, nil
}

// MinEigenvalue returns the most negative eigenvalue of rho.
func (rho *Matrix) MinEigenvalue() (float64, error) {
	vals, err := rho.Eigenvalues()
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

// ProjectPSD clamps negative eigenvalues to zero and renormalizes the trace,
// the positivity projection applied after every integration step. It returns
// the most negative eigenvalue found before clamping so the caller can judge
// how far the state had drifted.
func (rho *Matrix) ProjectPSD() (minEig float64, err error) {
	dim := rho.Dim()
	emb := rho.realEmbedding()

	var es mat.EigenSym
	if ok := es.Factorize(emb, true); !ok {
		return 0, fmt.Errorf("eigendecomposition failed")
	}
	vals := es.Values(nil)

	minEig = vals[0]
	for _, v := range vals {
		if v < minEig {
			minEig = v
		}
	}
	if minEig >= 0 {
		// Already positive semidefinite; nothing to project.
		return minEig, nil
	}

	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// Reconstruct V diag(max(lambda,0)) V^T in the embedding.
	n := 2 * dim
	rec := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		lam := vals[k]
		if lam <= 0 {
			continue
		}
		for i := 0; i < n; i++ {
			vik := vecs.At(i, k)
			if vik == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				rec.Set(i, j, rec.At(i, j)+lam*vik*vecs.At(j, k))
			}
		}
	}

	// Map the embedding back to the complex matrix, averaging the redundant
	// blocks to suppress roundoff asymmetry.
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			x := (rec.At(i, j) + rec.At(dim+i, dim+j)) / 2
			y := (rec.At(dim+i, j) - rec.At(i, dim+j)) / 2
			rho.m.Set(i, j, complex(x, y))
		}
	}

	rho.Hermitize()
	if err := rho.Normalize(); err != nil {
		return minEig, err
	}
	return minEig, nil
}
