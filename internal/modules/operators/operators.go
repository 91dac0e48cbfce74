// Package operators builds truncated Fock-space operators for single
// oscillator modes and embeds them into a joint multi-mode Hilbert space.
//
// All matrices are dense complex128; the truncation dimension d must be
// chosen by the caller so that occupation above d-1 is negligible.
package operators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MinTruncation is the smallest usable Fock truncation: the ground state and
// at least one excited state.
const MinTruncation = 2

// Annihilation returns the truncated annihilation operator a, with entries
// a[k-1,k] = sqrt(k) for k = 1..dim-1.
func Annihilation(dim int) (*mat.CDense, error) {
	if dim < MinTruncation {
		return nil, fmt.Errorf("truncation dimension must be >= %d, got %d", MinTruncation, dim)
	}
	a := mat.NewCDense(dim, dim, nil)
	for k := 1; k < dim; k++ {
		a.Set(k-1, k, complex(math.Sqrt(float64(k)), 0))
	}
	return a, nil
}

// Creation returns the truncated creation operator, the conjugate transpose
// of the annihilation operator.
func Creation(dim int) (*mat.CDense, error) {
	a, err := Annihilation(dim)
	if err != nil {
		return nil, err
	}
	return Dagger(a), nil
}

// Number returns the number operator n = a†a, diagonal with entries 0..dim-1.
func Number(dim int) (*mat.CDense, error) {
	if dim < MinTruncation {
		return nil, fmt.Errorf("truncation dimension must be >= %d, got %d", MinTruncation, dim)
	}
	n := mat.NewCDense(dim, dim, nil)
	for k := 0; k < dim; k++ {
		n.Set(k, k, complex(float64(k), 0))
	}
	return n, nil
}

// Identity returns the dim x dim identity.
func Identity(dim int) *mat.CDense {
	id := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		id.Set(i, i, 1)
	}
	return id
}

// Dagger returns the conjugate transpose of m.
func Dagger(m *mat.CDense) *mat.CDense {
	r, c := m.Dims()
	d := mat.NewCDense(c, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			d.Set(j, i, complex(real(v), -imag(v)))
		}
	}
	return d
}

// Trace returns the trace of a square matrix.
func Trace(m *mat.CDense) complex128 {
	r, c := m.Dims()
	if r != c {
		panic("operators: trace of non-square matrix")
	}
	var tr complex128
	for i := 0; i < r; i++ {
		tr += m.At(i, i)
	}
	return tr
}

// Kronecker returns the Kronecker product a ⊗ b.
func Kronecker(a, b *mat.CDense) *mat.CDense {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	out := mat.NewCDense(ra*rb, ca*cb, nil)
	for i := 0; i < ra; i++ {
		for j := 0; j < ca; j++ {
			av := a.At(i, j)
			if av == 0 {
				continue
			}
			for k := 0; k < rb; k++ {
				for l := 0; l < cb; l++ {
					bv := b.At(k, l)
					if bv == 0 {
						continue
					}
					out.Set(i*rb+k, j*cb+l, av*bv)
				}
			}
		}
	}
	return out
}

// Mul returns the matrix product a b. gonum's CDense carries no arithmetic
// methods, so the product is written out directly; the i-k-j loop order with
// a zero skip keeps the sparse ladder operators cheap.
func Mul(a, b *mat.CDense) *mat.CDense {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ca != rb {
		panic("operators: dimension mismatch in matrix product")
	}
	out := mat.NewCDense(ra, cb, nil)
	for i := 0; i < ra; i++ {
		for k := 0; k < ca; k++ {
			av := a.At(i, k)
			if av == 0 {
				continue
			}
			for j := 0; j < cb; j++ {
				bv := b.At(k, j)
				if bv == 0 {
					continue
				}
				out.Set(i, j, out.At(i, j)+av*bv)
			}
		}
	}
	return out
}

// Add returns a + b.
func Add(a, b *mat.CDense) *mat.CDense {
	r, c := a.Dims()
	rb, cb := b.Dims()
	if r != rb || c != cb {
		panic("operators: dimension mismatch in matrix sum")
	}
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, a.At(i, j)+b.At(i, j))
		}
	}
	return out
}

// Sub returns a - b.
func Sub(a, b *mat.CDense) *mat.CDense {
	r, c := a.Dims()
	rb, cb := b.Dims()
	if r != rb || c != cb {
		panic("operators: dimension mismatch in matrix difference")
	}
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, a.At(i, j)-b.At(i, j))
		}
	}
	return out
}

// Scale returns s m.
func Scale(s complex128, m *mat.CDense) *mat.CDense {
	r, c := m.Dims()
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, s*m.At(i, j))
		}
	}
	return out
}

// AddScaled adds s m to dst in place. The integrator accumulates Runge-Kutta
// stages through this to avoid reallocating per stage.
func AddScaled(dst *mat.CDense, s complex128, m *mat.CDense) {
	r, c := dst.Dims()
	rm, cm := m.Dims()
	if r != rm || c != cm {
		panic("operators: dimension mismatch in scaled accumulation")
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(i, j, dst.At(i, j)+s*m.At(i, j))
		}
	}
}

// Embed places a single-mode operator at the given mode index within a joint
// space of modes oscillators, tensoring with identities on every other mode.
// Mode 0 is the leftmost (most significant) tensor factor. Embedding a
// Hermitian operator yields a Hermitian result of dimension dim^modes.
func Embed(op *mat.CDense, mode, modes, dim int) (*mat.CDense, error) {
	if dim < MinTruncation {
		return nil, fmt.Errorf("truncation dimension must be >= %d, got %d", MinTruncation, dim)
	}
	if modes < 1 {
		return nil, fmt.Errorf("mode count must be >= 1, got %d", modes)
	}
	if mode < 0 || mode >= modes {
		return nil, fmt.Errorf("mode index %d out of range [0,%d)", mode, modes)
	}
	r, c := op.Dims()
	if r != dim || c != dim {
		return nil, fmt.Errorf("operator is %dx%d, want %dx%d", r, c, dim, dim)
	}

	var out *mat.CDense
	for m := 0; m < modes; m++ {
		factor := Identity(dim)
		if m == mode {
			factor = op
		}
		if out == nil {
			out = Clone(factor)
		} else {
			out = Kronecker(out, factor)
		}
	}
	return out, nil
}

// Clone returns a deep copy of m.
func Clone(m *mat.CDense) *mat.CDense {
	r, c := m.Dims()
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(i, j))
		}
	}
	return out
}
