package lindblad

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avermex/qphi/internal/modules/density"
	"github.com/avermex/qphi/internal/modules/reservoir"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func buildReservoir(t *testing.T, mutate func(*reservoir.Config)) *reservoir.Reservoir {
	t.Helper()
	cfg := reservoir.Config{
		Modes:             2,
		Levels:            3,
		DecayRate:         0.1,
		ThermalOccupation: 0.2,
		DephasingRate:     0.05,
		NoiseAmplitude:    1.0,
		TimeStep:          0.005,
		Duration:          0.5,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	res, err := reservoir.New(cfg, testLogger())
	require.NoError(t, err)
	return res
}

func TestRun_PreservesTraceAndPositivity(t *testing.T) {
	res := buildReservoir(t, nil)
	solver := NewSolver(res, testLogger())

	result, err := solver.Run(Options{StoreTrajectory: true, SampleEvery: 10})
	require.NoError(t, err)
	require.NotNil(t, result.Final)
	assert.Equal(t, res.Config().Steps(), result.Steps)

	for _, snap := range result.Trajectory {
		tr := real(snap.State.Trace())
		assert.InDelta(t, 1.0, tr, 1e-9, "trace at step %d", snap.Step)

		minEig, err := snap.State.MinEigenvalue()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, minEig, -1e-9, "positivity at step %d", snap.Step)

		// Hermiticity within tolerance.
		dim := snap.State.Dim()
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				v := snap.State.At(i, j)
				w := snap.State.At(j, i)
				assert.InDelta(t, real(v), real(w), 1e-12)
				assert.InDelta(t, imag(v), -imag(w), 1e-12)
			}
		}
	}
}

func TestRun_ZeroNoiseStaysPure(t *testing.T) {
	res := buildReservoir(t, func(c *reservoir.Config) {
		c.NoiseAmplitude = 0
	})
	solver := NewSolver(res, testLogger())

	result, err := solver.Run(Options{StoreTrajectory: true, SampleEvery: 5})
	require.NoError(t, err)

	for _, snap := range result.Trajectory {
		assert.True(t, IsPure(snap.State),
			"state at step %d must remain pure under unitary evolution (purity %g)",
			snap.Step, snap.State.Purity())
	}
}

func TestRun_GroundStateIsStationaryWithoutThermalNoise(t *testing.T) {
	// With nbar = 0 and no dephasing the ground state is a fixed point of
	// both the unitary and the decay dynamics.
	res := buildReservoir(t, func(c *reservoir.Config) {
		c.ThermalOccupation = 0
		c.DephasingRate = 0
	})
	solver := NewSolver(res, testLogger())

	result, err := solver.Run(Options{})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, real(result.Final.At(0, 0)), 1e-9)
	assert.InDelta(t, 1.0, result.Final.Purity(), 1e-9)
}

func TestRun_DecayRelaxesExcitedState(t *testing.T) {
	res := buildReservoir(t, func(c *reservoir.Config) {
		c.Modes = 1
		c.Levels = 3
		c.ThermalOccupation = 0
		c.DephasingRate = 0
		c.DecayRate = 1.0
		c.Duration = 2.0
		c.TimeStep = 0.001
	})

	// Start in the first excited state |1><1|.
	space := res.Space()
	psi := make([]complex128, space.Dim())
	psi[1] = 1
	initial, err := density.FromPureState(space, psi)
	require.NoError(t, err)

	solver := NewSolver(res, testLogger())
	result, err := solver.RunFrom(initial, Options{})
	require.NoError(t, err)

	// Excited population decays as exp(-gamma t) for a single decay channel.
	p1 := real(result.Final.At(1, 1))
	want := math.Exp(-res.Config().DecayRate * res.Config().Duration)
	assert.InDelta(t, want, p1, 1e-3)
	assert.InDelta(t, 1.0, real(result.Final.Trace()), 1e-9)
}

func TestRun_ThermalNoiseMixesState(t *testing.T) {
	res := buildReservoir(t, func(c *reservoir.Config) {
		c.NoiseAmplitude = 2.0
		c.Duration = 1.0
	})
	solver := NewSolver(res, testLogger())

	result, err := solver.Run(Options{})
	require.NoError(t, err)

	assert.Less(t, result.Final.Purity(), 1.0-1e-6,
		"thermal excitation must mix the state")
}

func TestRun_TrajectorySampling(t *testing.T) {
	res := buildReservoir(t, func(c *reservoir.Config) {
		c.TimeStep = 0.01
		c.Duration = 1.0 // 100 steps
	})
	solver := NewSolver(res, testLogger())

	result, err := solver.Run(Options{StoreTrajectory: true, SampleEvery: 25})
	require.NoError(t, err)

	// Initial snapshot + steps 25, 50, 75, 100.
	require.Len(t, result.Trajectory, 5)
	assert.Equal(t, 0, result.Trajectory[0].Step)
	assert.Equal(t, 100, result.Trajectory[4].Step)
}

func TestRun_NoTrajectoryByDefault(t *testing.T) {
	res := buildReservoir(t, nil)
	solver := NewSolver(res, testLogger())

	result, err := solver.Run(Options{})
	require.NoError(t, err)
	assert.Nil(t, result.Trajectory)
	assert.NotNil(t, result.Final)
}

func TestInstabilityError_Message(t *testing.T) {
	err := &InstabilityError{Step: 42, Time: 0.42, TraceDrift: 1e-6, MinEigenvalue: -1e-7}
	assert.Contains(t, err.Error(), "step 42")
	assert.Contains(t, err.Error(), "trace drift")
}
