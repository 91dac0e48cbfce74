package reservoir

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Modes:             2,
		Levels:            3,
		DecayRate:         0.1,
		ThermalOccupation: 0.5,
		DephasingRate:     0.05,
		NoiseAmplitude:    1.0,
		TimeStep:          0.01,
		Duration:          1.0,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"zero modes", func(c *Config) { c.Modes = 0 }, false},
		{"truncation too small", func(c *Config) { c.Levels = 1 }, false},
		{"negative decay", func(c *Config) { c.DecayRate = -0.1 }, false},
		{"negative nbar", func(c *Config) { c.ThermalOccupation = -1 }, false},
		{"negative dephasing", func(c *Config) { c.DephasingRate = -1 }, false},
		{"negative epsilon", func(c *Config) { c.NoiseAmplitude = -0.5 }, false},
		{"zero time step", func(c *Config) { c.TimeStep = 0 }, false},
		{"zero duration", func(c *Config) { c.Duration = 0 }, false},
		{"frequency count mismatch", func(c *Config) { c.Frequencies = []float64{1} }, false},
		{"ragged coupling", func(c *Config) { c.Coupling = [][]float64{{0, 1}, {1}} }, false},
		{"asymmetric coupling", func(c *Config) { c.Coupling = [][]float64{{0, 1}, {2, 0}} }, false},
		{"negative coupling", func(c *Config) { c.Coupling = [][]float64{{0, -1}, {-1, 0}} }, false},
		{"valid coupling", func(c *Config) { c.Coupling = [][]float64{{0, 0.2}, {0.2, 0}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrConfig)
			}
		})
	}
}

func TestNew_ZeroNoiseHasNoJumpOperators(t *testing.T) {
	cfg := testConfig()
	cfg.NoiseAmplitude = 0

	log := zerolog.New(nil).Level(zerolog.Disabled)
	res, err := New(cfg, log)
	require.NoError(t, err)

	assert.Empty(t, res.JumpOperators(), "epsilon = 0 must force all jump rates to zero")
}

func TestNew_JumpRates(t *testing.T) {
	cfg := testConfig()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	res, err := New(cfg, log)
	require.NoError(t, err)

	// Per mode: decay, excitation (nbar > 0) and dephasing.
	jumps := res.JumpOperators()
	require.Len(t, jumps, 3*cfg.Modes)

	byKind := map[JumpKind]int{}
	for _, j := range jumps {
		byKind[j.Kind]++
		switch j.Kind {
		case Decay:
			assert.InDelta(t, cfg.DecayRate*(cfg.ThermalOccupation+1)*cfg.NoiseAmplitude, j.Rate, 1e-15)
		case Excitation:
			assert.InDelta(t, cfg.DecayRate*cfg.ThermalOccupation*cfg.NoiseAmplitude, j.Rate, 1e-15)
		case Dephasing:
			assert.InDelta(t, cfg.DephasingRate*cfg.NoiseAmplitude, j.Rate, 1e-15)
		}
		r, c := j.Op.Dims()
		assert.Equal(t, res.Space().Dim(), r)
		assert.Equal(t, res.Space().Dim(), c)
	}
	assert.Equal(t, cfg.Modes, byKind[Decay])
	assert.Equal(t, cfg.Modes, byKind[Excitation])
	assert.Equal(t, cfg.Modes, byKind[Dephasing])
}

func TestNew_ZeroThermalOccupationDropsExcitation(t *testing.T) {
	cfg := testConfig()
	cfg.ThermalOccupation = 0

	log := zerolog.New(nil).Level(zerolog.Disabled)
	res, err := New(cfg, log)
	require.NoError(t, err)

	for _, j := range res.JumpOperators() {
		assert.NotEqual(t, Excitation, j.Kind, "nbar = 0 leaves no excitation channel")
	}
}

func TestHamiltonian_IsHermitian(t *testing.T) {
	cfg := testConfig()
	cfg.Coupling = [][]float64{{0, 0.3}, {0.3, 0}}

	log := zerolog.New(nil).Level(zerolog.Disabled)
	res, err := New(cfg, log)
	require.NoError(t, err)

	h := res.Hamiltonian()
	dim := res.Space().Dim()
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			v := h.At(i, j)
			w := h.At(j, i)
			assert.InDelta(t, real(v), real(w), 1e-12)
			assert.InDelta(t, imag(v), -imag(w), 1e-12)
		}
	}
}

func TestHamiltonian_GroundStateEnergyZero(t *testing.T) {
	cfg := testConfig()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	res, err := New(cfg, log)
	require.NoError(t, err)

	// <0...0|H|0...0> = 0: number operators annihilate the ground state and
	// exchange terms have no diagonal element there.
	h := res.Hamiltonian()
	assert.Zero(t, h.At(0, 0))
}

func TestInitialState_IsPureGroundState(t *testing.T) {
	cfg := testConfig()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	res, err := New(cfg, log)
	require.NoError(t, err)

	rho := res.InitialState()
	assert.InDelta(t, 1.0, real(rho.Trace()), 1e-15)
	assert.InDelta(t, 1.0, rho.Purity(), 1e-15)
	assert.Equal(t, complex128(1), rho.At(0, 0))
}

func TestConfig_Steps(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, 100, cfg.Steps())

	cfg.TimeStep = 0.3
	cfg.Duration = 1.0
	assert.Equal(t, 3, cfg.Steps())
}
