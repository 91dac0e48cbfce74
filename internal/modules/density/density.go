// Package density implements the density-matrix representation of a
// (possibly mixed) quantum state over a truncated multi-oscillator Hilbert
// space: construction, arithmetic used by the integrator, partial trace,
// spectral operations and the post-step invariant corrections.
package density

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/avermex/qphi/internal/modules/operators"
)

// Matrix is a density matrix over a Space. Invariants (within numerical
// tolerance): Hermitian, trace 1, positive semidefinite. The Lindblad solver
// is the only component that mutates one between construction and readout.
type Matrix struct {
	space Space
	m     *mat.CDense
}

// FromPureState builds the rank-1 density matrix |psi><psi|. The state vector
// is normalized first; a zero vector is rejected.
func FromPureState(s Space, psi []complex128) (*Matrix, error) {
	dim := s.Dim()
	if len(psi) != dim {
		return nil, fmt.Errorf("state vector has length %d, want %d", len(psi), dim)
	}
	var norm2 float64
	for _, v := range psi {
		norm2 += real(v)*real(v) + imag(v)*imag(v)
	}
	if norm2 == 0 {
		return nil, fmt.Errorf("state vector is zero")
	}
	norm := complex(math.Sqrt(norm2), 0)

	m := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		vi := psi[i] / norm
		for j := 0; j < dim; j++ {
			m.Set(i, j, vi*cmplx.Conj(psi[j]/norm))
		}
	}
	return &Matrix{space: s, m: m}, nil
}

// FromProbabilities builds a classical mixture: a diagonal density matrix
// from a probability vector over joint basis states.
func FromProbabilities(s Space, p []float64) (*Matrix, error) {
	dim := s.Dim()
	if len(p) != dim {
		return nil, fmt.Errorf("probability vector has length %d, want %d", len(p), dim)
	}
	var sum float64
	for i, v := range p {
		if v < 0 {
			return nil, fmt.Errorf("probability %d is negative (%g)", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		return nil, fmt.Errorf("probabilities sum to %g, want 1", sum)
	}
	m := mat.NewCDense(dim, dim, nil)
	for i, v := range p {
		m.Set(i, i, complex(v, 0))
	}
	return &Matrix{space: s, m: m}, nil
}

// GroundState returns the pure joint ground state |0...0><0...0|.
func GroundState(s Space) *Matrix {
	dim := s.Dim()
	m := mat.NewCDense(dim, dim, nil)
	m.Set(0, 0, 1)
	return &Matrix{space: s, m: m}
}

// FromRaw wraps an existing complex matrix without copying. The caller is
// responsible for the density-matrix invariants.
func FromRaw(s Space, m *mat.CDense) (*Matrix, error) {
	r, c := m.Dims()
	if r != s.Dim() || c != s.Dim() {
		return nil, fmt.Errorf("matrix is %dx%d, want %dx%d", r, c, s.Dim(), s.Dim())
	}
	return &Matrix{space: s, m: m}, nil
}

// Space returns the tensor-product structure of the state.
func (rho *Matrix) Space() Space { return rho.space }

// Dim returns the joint Hilbert-space dimension.
func (rho *Matrix) Dim() int { return rho.space.Dim() }

// At returns the matrix element (i, j).
func (rho *Matrix) At(i, j int) complex128 { return rho.m.At(i, j) }

// Raw exposes the underlying matrix for integrator arithmetic.
func (rho *Matrix) Raw() *mat.CDense { return rho.m }

// Clone returns a deep copy.
func (rho *Matrix) Clone() *Matrix {
	return &Matrix{space: rho.space, m: operators.Clone(rho.m)}
}

// Trace returns the trace.
func (rho *Matrix) Trace() complex128 {
	return operators.Trace(rho.m)
}

// Purity returns Tr(rho^2), 1 for pure states and < 1 for mixed states.
func (rho *Matrix) Purity() float64 {
	dim := rho.Dim()
	var p complex128
	for i := 0; i < dim; i++ {
		for k := 0; k < dim; k++ {
			p += rho.m.At(i, k) * rho.m.At(k, i)
		}
	}
	return real(p)
}

// Hermitize replaces rho with (rho + rho†)/2 in place.
func (rho *Matrix) Hermitize() {
	dim := rho.Dim()
	for i := 0; i < dim; i++ {
		rho.m.Set(i, i, complex(real(rho.m.At(i, i)), 0))
		for j := i + 1; j < dim; j++ {
			v := rho.m.At(i, j)
			w := rho.m.At(j, i)
			avg := (v + cmplx.Conj(w)) / 2
			rho.m.Set(i, j, avg)
			rho.m.Set(j, i, cmplx.Conj(avg))
		}
	}
}

// Normalize rescales rho to unit trace. A vanishing trace means the state
// has been destroyed by numerical error and cannot be recovered.
func (rho *Matrix) Normalize() error {
	tr := real(rho.Trace())
	if math.Abs(tr) < 1e-300 {
		return fmt.Errorf("trace is numerically zero, cannot normalize")
	}
	inv := complex(1/tr, 0)
	dim := rho.Dim()
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			rho.m.Set(i, j, inv*rho.m.At(i, j))
		}
	}
	return nil
}

// Diagonal extracts the joint probability distribution over basis states:
// real parts of the diagonal, with sub-tolerance negatives clamped to zero
// and the vector renormalized.
func (rho *Matrix) Diagonal() []float64 {
	dim := rho.Dim()
	p := make([]float64, dim)
	var sum float64
	for i := 0; i < dim; i++ {
		v := real(rho.m.At(i, i))
		if v < 0 {
			v = 0
		}
		p[i] = v
		sum += v
	}
	if sum > 0 {
		for i := range p {
			p[i] /= sum
		}
	}
	return p
}

// PartialTrace traces out every mode NOT selected by keep, returning the
// reduced density matrix on the kept modes. keep must be a non-empty strict
// or full subset of the modes.
func (rho *Matrix) PartialTrace(keep uint) (*Matrix, error) {
	sub, err := rho.space.SubSpace(keep)
	if err != nil {
		return nil, err
	}
	if keep == rho.space.FullMask() {
		return rho.Clone(), nil
	}

	keptModes := rho.space.ModesIn(keep)
	tracedModes := rho.space.ModesIn(rho.space.FullMask() &^ keep)

	subDim := sub.Dim()
	trDim := 1
	for range tracedModes {
		trDim *= rho.space.Levels
	}

	out := mat.NewCDense(subDim, subDim, nil)
	occI := make([]int, rho.space.Modes)
	occJ := make([]int, rho.space.Modes)

	trSpace := Space{Modes: len(tracedModes), Levels: rho.space.Levels}
	for i := 0; i < subDim; i++ {
		occKeepI := sub.Occupations(i)
		for j := 0; j < subDim; j++ {
			occKeepJ := sub.Occupations(j)
			var sum complex128
			for t := 0; t < trDim; t++ {
				occTr := trSpace.Occupations(t)
				for k, m := range keptModes {
					occI[m] = occKeepI[k]
					occJ[m] = occKeepJ[k]
				}
				for k, m := range tracedModes {
					occI[m] = occTr[k]
					occJ[m] = occTr[k]
				}
				sum += rho.m.At(rho.space.Index(occI), rho.space.Index(occJ))
			}
			out.Set(i, j, sum)
		}
	}
	return &Matrix{space: sub, m: out}, nil
}
