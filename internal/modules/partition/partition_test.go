package partition

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avermex/qphi/internal/modules/density"
	"github.com/avermex/qphi/internal/modules/infotheory"
	"github.com/avermex/qphi/internal/workers"
)

func TestEnumerate_Count(t *testing.T) {
	tests := []struct {
		modes int
		want  int
	}{
		{2, 1},  // 2^1 - 1
		{3, 3},  // 2^2 - 1
		{4, 7},  // 2^3 - 1
		{5, 15}, // 2^4 - 1
	}
	for _, tt := range tests {
		parts := Enumerate(tt.modes)
		assert.Len(t, parts, tt.want, "modes=%d", tt.modes)

		seen := map[uint]bool{}
		for _, p := range parts {
			assert.NotZero(t, p.MaskA&1, "canonical masks contain mode 0")
			assert.NotZero(t, p.MaskB(), "no trivial partitions")
			assert.False(t, seen[p.MaskA], "no duplicates")
			seen[p.MaskA] = true
		}
	}
}

func TestEnumerate_TooFewModes(t *testing.T) {
	assert.Nil(t, Enumerate(1))
	assert.Nil(t, Enumerate(0))
}

func TestAtomic(t *testing.T) {
	parts := Atomic(4)
	require.Len(t, parts, 4)
	sizes := map[int]int{}
	for _, p := range parts {
		assert.NotZero(t, p.MaskA&1)
		smaller := p.SizeA()
		if other := p.Modes - smaller; other < smaller {
			smaller = other
		}
		sizes[smaller]++
	}
	assert.Equal(t, 4, sizes[1], "every atomic partition isolates one mode")
}

func TestAtomic_TwoModesYieldsOnePartition(t *testing.T) {
	// {0}|{1} and {1}|{0} are the same unordered pair.
	parts := Atomic(2)
	require.Len(t, parts, 1)
	assert.Equal(t, uint(1), parts[0].MaskA)
}

func TestNewBipartition(t *testing.T) {
	b, err := NewBipartition(0b0110, 4)
	require.NoError(t, err)
	assert.Equal(t, uint(0b1001), b.MaskA, "canonicalized to contain mode 0")
	assert.Equal(t, uint(0b0110), b.MaskB())

	_, err = NewBipartition(0, 4)
	assert.Error(t, err)
	_, err = NewBipartition(0b1111, 4)
	assert.Error(t, err)
	_, err = NewBipartition(1, 1)
	assert.Error(t, err)
}

func TestBipartition_String(t *testing.T) {
	b, err := NewBipartition(0b0101, 4)
	require.NoError(t, err)
	assert.Equal(t, "{0,2}|{1,3}", b.String())
}

func testSearcher(cfg SearchConfig) *Searcher {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewSearcher(cfg, workers.NewPool(2), log)
}

func TestSearch_ProductDistributionHasZeroPhi(t *testing.T) {
	s, err := density.NewSpace(2, 2)
	require.NoError(t, err)

	// Independent joint: every bipartition's value is zero.
	joint := []float64{0.42, 0.28, 0.18, 0.12} // (0.7,0.3) x (0.6,0.4)
	searcher := testSearcher(SearchConfig{})

	res, err := searcher.Search(s, joint, infotheory.GroundDistance(s))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Evaluated)
	assert.InDelta(t, 0.0, res.Phi, 1e-9)
}

func TestSearch_CorrelatedPairHasPositivePhi(t *testing.T) {
	s, err := density.NewSpace(2, 2)
	require.NoError(t, err)

	joint := []float64{0.5, 0, 0, 0.5}
	searcher := testSearcher(SearchConfig{})

	res, err := searcher.Search(s, joint, infotheory.GroundDistance(s))
	require.NoError(t, err)
	assert.Greater(t, res.Phi, 0.0)
	assert.Equal(t, uint(1), res.MIP.MaskA)
}

func TestSearch_FindsWeakestLink(t *testing.T) {
	// Three modes: 0 and 1 perfectly correlated, 2 independent. Cutting
	// mode 2 away loses nothing; the MIP must isolate mode 2.
	s, err := density.NewSpace(3, 2)
	require.NoError(t, err)

	joint := make([]float64, 8)
	for i := 0; i < 8; i++ {
		occ := s.Occupations(i)
		if occ[0] == occ[1] {
			joint[i] = 0.25 // uniform over mode 2, correlated pair (0,1)
		}
	}

	searcher := testSearcher(SearchConfig{})
	res, err := searcher.Search(s, joint, infotheory.GroundDistance(s))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Evaluated)
	assert.InDelta(t, 0.0, res.Phi, 1e-9, "independent mode makes the system reducible")
	// MIP separates mode 2 from {0,1}: canonical mask is {0,1}.
	assert.Equal(t, uint(0b011), res.MIP.MaskA)
}

func TestSearch_Deterministic(t *testing.T) {
	s, err := density.NewSpace(3, 2)
	require.NoError(t, err)

	joint := []float64{0.3, 0.1, 0.05, 0.05, 0.05, 0.05, 0.1, 0.3}
	searcher := testSearcher(SearchConfig{})
	ground := infotheory.GroundDistance(s)

	first, err := searcher.Search(s, joint, ground)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := searcher.Search(s, joint, ground)
		require.NoError(t, err)
		assert.Equal(t, first.MIP, again.MIP)
		assert.Equal(t, first.Phi, again.Phi)
	}
}

func TestSearch_SingleModeHasNoPartitions(t *testing.T) {
	s, err := density.NewSpace(1, 3)
	require.NoError(t, err)

	searcher := testSearcher(SearchConfig{})
	res, err := searcher.Search(s, []float64{1, 0, 0}, infotheory.GroundDistance(s))
	require.NoError(t, err)
	assert.Zero(t, res.Phi)
	assert.Zero(t, res.Evaluated)
}

func TestSearch_ExhaustiveOverThresholdFails(t *testing.T) {
	s, err := density.NewSpace(4, 2)
	require.NoError(t, err)

	joint := make([]float64, 16)
	joint[0] = 1

	searcher := testSearcher(SearchConfig{Policy: PolicyExhaustive, MaxExhaustiveModes: 3})
	_, err = searcher.Search(s, joint, infotheory.GroundDistance(s))
	require.Error(t, err)

	var tooLarge *TooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, 4, tooLarge.Modes)
	assert.Equal(t, 3, tooLarge.Threshold)
}

func TestSearch_HeuristicOverThresholdUsesAtomic(t *testing.T) {
	s, err := density.NewSpace(4, 2)
	require.NoError(t, err)

	joint := make([]float64, 16)
	joint[0] = 1

	searcher := testSearcher(SearchConfig{Policy: PolicyHeuristic, MaxExhaustiveModes: 3})
	res, err := searcher.Search(s, joint, infotheory.GroundDistance(s))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Evaluated, "atomic partitions only")
}
