package density

import (
	"fmt"
	"math"
	"math/bits"
)

// Space describes the tensor-product structure of a truncated Hilbert space:
// Modes oscillators, each truncated to Levels Fock states. Basis index i
// encodes per-mode occupations in base Levels, mode 0 most significant.
type Space struct {
	Modes  int
	Levels int
}

// NewSpace validates and returns a Space.
func NewSpace(modes, levels int) (Space, error) {
	if modes < 1 {
		return Space{}, fmt.Errorf("mode count must be >= 1, got %d", modes)
	}
	if levels < 2 {
		return Space{}, fmt.Errorf("truncation dimension must be >= 2, got %d", levels)
	}
	dim := 1
	for i := 0; i < modes; i++ {
		if dim > math.MaxInt/levels {
			return Space{}, fmt.Errorf("joint dimension %d^%d overflows", levels, modes)
		}
		dim *= levels
	}
	return Space{Modes: modes, Levels: levels}, nil
}

// Dim returns the joint dimension Levels^Modes.
func (s Space) Dim() int {
	d := 1
	for i := 0; i < s.Modes; i++ {
		d *= s.Levels
	}
	return d
}

// Occupations decodes a joint basis index into per-mode occupation numbers.
func (s Space) Occupations(index int) []int {
	occ := make([]int, s.Modes)
	for m := s.Modes - 1; m >= 0; m-- {
		occ[m] = index % s.Levels
		index /= s.Levels
	}
	return occ
}

// Index encodes per-mode occupation numbers into a joint basis index.
func (s Space) Index(occ []int) int {
	idx := 0
	for m := 0; m < s.Modes; m++ {
		idx = idx*s.Levels + occ[m]
	}
	return idx
}

// SubSpace returns the Space spanned by the modes selected in mask.
func (s Space) SubSpace(mask uint) (Space, error) {
	n := bits.OnesCount(mask)
	if n == 0 {
		return Space{}, fmt.Errorf("empty mode mask")
	}
	if mask >= 1<<uint(s.Modes) {
		return Space{}, fmt.Errorf("mask %b selects modes outside the %d-mode space", mask, s.Modes)
	}
	return Space{Modes: n, Levels: s.Levels}, nil
}

// ModesIn lists the mode indices selected by mask, ascending.
func (s Space) ModesIn(mask uint) []int {
	var out []int
	for m := 0; m < s.Modes; m++ {
		if mask&(1<<uint(m)) != 0 {
			out = append(out, m)
		}
	}
	return out
}

// FullMask returns the mask selecting every mode.
func (s Space) FullMask() uint {
	return (1 << uint(s.Modes)) - 1
}
