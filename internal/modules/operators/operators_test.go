package operators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnihilation(t *testing.T) {
	a, err := Annihilation(4)
	require.NoError(t, err)

	r, c := a.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)

	// a|k> = sqrt(k)|k-1> puts sqrt(k) on the superdiagonal.
	for k := 1; k < 4; k++ {
		assert.InDelta(t, math.Sqrt(float64(k)), real(a.At(k-1, k)), 1e-15)
		assert.Zero(t, imag(a.At(k-1, k)))
	}
	assert.Zero(t, a.At(0, 0))
	assert.Zero(t, a.At(3, 0))
}

func TestAnnihilation_RejectsTinyTruncation(t *testing.T) {
	_, err := Annihilation(1)
	assert.Error(t, err)
	_, err = Annihilation(0)
	assert.Error(t, err)
}

func TestCreation_IsDaggerOfAnnihilation(t *testing.T) {
	a, err := Annihilation(3)
	require.NoError(t, err)
	adag, err := Creation(3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			av := a.At(i, j)
			assert.Equal(t, complex(real(av), -imag(av)), adag.At(j, i))
		}
	}
}

func TestNumber_EqualsAdagA(t *testing.T) {
	const dim = 5
	a, err := Annihilation(dim)
	require.NoError(t, err)
	adag, err := Creation(dim)
	require.NoError(t, err)
	n, err := Number(dim)
	require.NoError(t, err)

	// Compute a†a by hand and compare entrywise.
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			var v complex128
			for k := 0; k < dim; k++ {
				v += adag.At(i, k) * a.At(k, j)
			}
			assert.InDelta(t, real(n.At(i, j)), real(v), 1e-12)
			assert.InDelta(t, imag(n.At(i, j)), imag(v), 1e-12)
		}
	}
}

func TestMul_MatchesNumberOperator(t *testing.T) {
	const dim = 5
	a, err := Annihilation(dim)
	require.NoError(t, err)
	adag := Dagger(a)
	n, err := Number(dim)
	require.NoError(t, err)

	got := Mul(adag, a)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			assert.InDelta(t, real(n.At(i, j)), real(got.At(i, j)), 1e-12)
			assert.InDelta(t, imag(n.At(i, j)), imag(got.At(i, j)), 1e-12)
		}
	}
}

func TestMul_PanicsOnDimensionMismatch(t *testing.T) {
	assert.Panics(t, func() {
		Mul(Identity(2), Identity(3))
	})
}

func TestAddSubScale(t *testing.T) {
	a, err := Annihilation(3)
	require.NoError(t, err)
	adag := Dagger(a)

	x := Add(a, adag)
	// a + a† is Hermitian with sqrt(k) on both off-diagonals.
	assert.InDelta(t, 1, real(x.At(0, 1)), 1e-15)
	assert.InDelta(t, 1, real(x.At(1, 0)), 1e-15)
	assert.InDelta(t, math.Sqrt2, real(x.At(1, 2)), 1e-15)

	zero := Sub(x, x)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.Zero(t, zero.At(i, j))
		}
	}

	y := Scale(complex(0, 2), Identity(3))
	for i := 0; i < 3; i++ {
		assert.Equal(t, complex(0, 2), y.At(i, i))
	}
	// Scale leaves its input untouched.
	assert.Equal(t, complex128(1), Identity(3).At(0, 0))
}

func TestAddScaled_AccumulatesInPlace(t *testing.T) {
	dst := Identity(2)
	AddScaled(dst, complex(3, 0), Identity(2))
	for i := 0; i < 2; i++ {
		assert.Equal(t, complex128(4), dst.At(i, i))
	}
	assert.Zero(t, dst.At(0, 1))

	assert.Panics(t, func() {
		AddScaled(dst, 1, Identity(3))
	})
}

func TestKronecker_Dims(t *testing.T) {
	a := Identity(2)
	b := Identity(3)
	k := Kronecker(a, b)
	r, c := k.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 6, c)
	for i := 0; i < 6; i++ {
		assert.Equal(t, complex128(1), k.At(i, i))
	}
}

func TestEmbed_DimensionAndHermiticity(t *testing.T) {
	const dim = 3
	const modes = 3
	n, err := Number(dim)
	require.NoError(t, err)

	for mode := 0; mode < modes; mode++ {
		emb, err := Embed(n, mode, modes, dim)
		require.NoError(t, err)

		r, c := emb.Dims()
		want := 1
		for i := 0; i < modes; i++ {
			want *= dim
		}
		assert.Equal(t, want, r)
		assert.Equal(t, want, c)

		// Hermitian input stays Hermitian after embedding.
		for i := 0; i < r; i++ {
			for j := i; j < c; j++ {
				v := emb.At(i, j)
				w := emb.At(j, i)
				assert.InDelta(t, real(v), real(w), 1e-15)
				assert.InDelta(t, imag(v), -imag(w), 1e-15)
			}
		}
	}
}

func TestEmbed_ModeOrdering(t *testing.T) {
	// For two qubit-like modes, n embedded at mode 0 acts on the most
	// significant index: diag(0,0,1,1). At mode 1: diag(0,1,0,1).
	n, err := Number(2)
	require.NoError(t, err)

	n0, err := Embed(n, 0, 2, 2)
	require.NoError(t, err)
	n1, err := Embed(n, 1, 2, 2)
	require.NoError(t, err)

	wants0 := []float64{0, 0, 1, 1}
	wants1 := []float64{0, 1, 0, 1}
	for i := 0; i < 4; i++ {
		assert.InDelta(t, wants0[i], real(n0.At(i, i)), 1e-15)
		assert.InDelta(t, wants1[i], real(n1.At(i, i)), 1e-15)
	}
}

func TestEmbed_Errors(t *testing.T) {
	n, err := Number(2)
	require.NoError(t, err)

	_, err = Embed(n, 2, 2, 2)
	assert.Error(t, err, "mode index out of range")
	_, err = Embed(n, -1, 2, 2)
	assert.Error(t, err)
	_, err = Embed(n, 0, 0, 2)
	assert.Error(t, err)
	_, err = Embed(n, 0, 2, 3)
	assert.Error(t, err, "operator dimension mismatch")
}
