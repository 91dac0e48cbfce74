package infotheory

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/avermex/qphi/internal/modules/density"
)

// Marginal reduces a joint distribution over the full space to the modes
// selected by mask, summing out everything else.
func Marginal(s density.Space, joint []float64, mask uint) ([]float64, error) {
	sub, err := s.SubSpace(mask)
	if err != nil {
		return nil, err
	}
	if len(joint) != s.Dim() {
		return nil, fmt.Errorf("joint distribution has length %d, want %d", len(joint), s.Dim())
	}

	kept := s.ModesIn(mask)
	out := make([]float64, sub.Dim())
	subOcc := make([]int, len(kept))
	for i, p := range joint {
		if p == 0 {
			continue
		}
		occ := s.Occupations(i)
		for k, m := range kept {
			subOcc[k] = occ[m]
		}
		out[sub.Index(subOcc)] += p
	}
	return out, nil
}

// ProductOfMarginals builds the independence hypothesis for a bipartition:
// the distribution over the full space whose parts (maskA and its
// complement) are statistically independent with the joint's marginals.
func ProductOfMarginals(s density.Space, joint []float64, maskA uint) ([]float64, error) {
	maskB := s.FullMask() &^ maskA
	pA, err := Marginal(s, joint, maskA)
	if err != nil {
		return nil, err
	}
	pB, err := Marginal(s, joint, maskB)
	if err != nil {
		return nil, err
	}

	subA, _ := s.SubSpace(maskA)
	subB, _ := s.SubSpace(maskB)
	modesA := s.ModesIn(maskA)
	modesB := s.ModesIn(maskB)

	out := make([]float64, s.Dim())
	occA := make([]int, len(modesA))
	occB := make([]int, len(modesB))
	for i := range out {
		occ := s.Occupations(i)
		for k, m := range modesA {
			occA[k] = occ[m]
		}
		for k, m := range modesB {
			occB[k] = occ[m]
		}
		out[i] = pA[subA.Index(occA)] * pB[subB.Index(occB)]
	}
	return out, nil
}

// MutualInformation returns I(A;B) = H(A) + H(B) - H(A,B) in bits for the
// bipartition maskA vs the rest, over the modes selected by maskA|maskB.
func MutualInformation(s density.Space, joint []float64, maskA, maskB uint) (float64, error) {
	if maskA&maskB != 0 {
		return 0, fmt.Errorf("mode masks overlap")
	}
	pA, err := Marginal(s, joint, maskA)
	if err != nil {
		return 0, err
	}
	pB, err := Marginal(s, joint, maskB)
	if err != nil {
		return 0, err
	}
	pAB, err := Marginal(s, joint, maskA|maskB)
	if err != nil {
		return 0, err
	}
	mi := ShannonEntropy(pA) + ShannonEntropy(pB) - ShannonEntropy(pAB)
	if mi < 0 {
		return 0, nil
	}
	return mi, nil
}

// TotalCorrelation returns TC = sum_i H(marginal_i) - H(joint) in bits, the
// n-ary generalization of mutual information.
func TotalCorrelation(s density.Space, joint []float64) (float64, error) {
	var sum float64
	for m := 0; m < s.Modes; m++ {
		pm, err := Marginal(s, joint, 1<<uint(m))
		if err != nil {
			return 0, err
		}
		sum += ShannonEntropy(pm)
	}
	tc := sum - ShannonEntropy(joint)
	if tc < 0 {
		return 0, nil
	}
	return tc, nil
}

// Synergy returns the redundancy-corrected interaction measure
// TC - sum_{i<j} I(i;j): the part of the total correlation not accounted
// for by pairwise dependencies. Negative values indicate redundancy and are
// reported as-is.
func Synergy(s density.Space, joint []float64) (float64, error) {
	tc, err := TotalCorrelation(s, joint)
	if err != nil {
		return 0, err
	}
	var pairwise float64
	for i := 0; i < s.Modes; i++ {
		for j := i + 1; j < s.Modes; j++ {
			mi, err := MutualInformation(s, joint, 1<<uint(i), 1<<uint(j))
			if err != nil {
				return 0, err
			}
			pairwise += mi
		}
	}
	return tc - pairwise, nil
}

// GroundDistance builds the symmetric ground-distance matrix between joint
// basis states: the L1 distance between their occupation-number tuples.
// Zero on the diagonal, positive elsewhere.
func GroundDistance(s density.Space) *mat.Dense {
	dim := s.Dim()
	out := mat.NewDense(dim, dim, nil)
	occs := make([][]int, dim)
	for i := 0; i < dim; i++ {
		occs[i] = s.Occupations(i)
	}
	for i := 0; i < dim; i++ {
		for j := i + 1; j < dim; j++ {
			var d float64
			for m := 0; m < s.Modes; m++ {
				diff := occs[i][m] - occs[j][m]
				if diff < 0 {
					diff = -diff
				}
				d += float64(diff)
			}
			out.Set(i, j, d)
			out.Set(j, i, d)
		}
	}
	return out
}
