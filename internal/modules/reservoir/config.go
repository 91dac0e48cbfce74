package reservoir

import (
	"errors"
	"fmt"
)

// ErrConfig tags configuration failures so drivers can distinguish a bad
// request from a numerical failure mid-run.
var ErrConfig = errors.New("invalid reservoir config")

// Config describes one open-system run: the oscillator network, its thermal
// environment and the integration grid. Immutable once a run starts.
type Config struct {
	Modes  int `json:"modes"`  // oscillator count n
	Levels int `json:"levels"` // per-mode Fock truncation d

	// Frequencies are the per-mode oscillator frequencies omega_i. Empty
	// means 1.0 for every mode.
	Frequencies []float64 `json:"frequencies,omitempty"`

	// Coupling holds the pairwise exchange strengths g_ij. It must be
	// square, symmetric and non-negative; the diagonal is ignored. Empty
	// means nearest-neighbor chain coupling of strength 0.1.
	Coupling [][]float64 `json:"coupling,omitempty"`

	DecayRate         float64 `json:"decay_rate"`         // gamma
	ThermalOccupation float64 `json:"thermal_occupation"` // n-bar
	DephasingRate     float64 `json:"dephasing_rate"`     // gamma_phi
	NoiseAmplitude    float64 `json:"noise_amplitude"`    // epsilon, the swept parameter

	TimeStep float64 `json:"time_step"` // delta t
	Duration float64 `json:"duration"`  // total integration time T
}

// DefaultCoupling is the nearest-neighbor exchange strength used when no
// coupling matrix is supplied.
const DefaultCoupling = 0.1

// Validate fails fast on anything that would poison a run.
func (c Config) Validate() error {
	if c.Modes < 1 {
		return fmt.Errorf("%w: mode count must be >= 1, got %d", ErrConfig, c.Modes)
	}
	if c.Levels < 2 {
		return fmt.Errorf("%w: truncation dimension must be >= 2, got %d", ErrConfig, c.Levels)
	}
	if len(c.Frequencies) != 0 && len(c.Frequencies) != c.Modes {
		return fmt.Errorf("%w: %d frequencies for %d modes", ErrConfig, len(c.Frequencies), c.Modes)
	}
	if c.DecayRate < 0 {
		return fmt.Errorf("%w: decay rate must be >= 0, got %g", ErrConfig, c.DecayRate)
	}
	if c.ThermalOccupation < 0 {
		return fmt.Errorf("%w: thermal occupation must be >= 0, got %g", ErrConfig, c.ThermalOccupation)
	}
	if c.DephasingRate < 0 {
		return fmt.Errorf("%w: dephasing rate must be >= 0, got %g", ErrConfig, c.DephasingRate)
	}
	if c.NoiseAmplitude < 0 {
		return fmt.Errorf("%w: noise amplitude must be >= 0, got %g", ErrConfig, c.NoiseAmplitude)
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("%w: time step must be > 0, got %g", ErrConfig, c.TimeStep)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be > 0, got %g", ErrConfig, c.Duration)
	}
	if c.Duration < c.TimeStep {
		return fmt.Errorf("%w: duration %g shorter than one time step %g", ErrConfig, c.Duration, c.TimeStep)
	}
	if len(c.Coupling) != 0 {
		if len(c.Coupling) != c.Modes {
			return fmt.Errorf("%w: coupling matrix is %dx?, want %dx%d", ErrConfig, len(c.Coupling), c.Modes, c.Modes)
		}
		for i, row := range c.Coupling {
			if len(row) != c.Modes {
				return fmt.Errorf("%w: coupling row %d has %d entries, want %d", ErrConfig, i, len(row), c.Modes)
			}
			for j, g := range row {
				if g < 0 {
					return fmt.Errorf("%w: coupling[%d][%d] is negative (%g)", ErrConfig, i, j, g)
				}
				if c.Coupling[j][i] != g {
					return fmt.Errorf("%w: coupling matrix is not symmetric at (%d,%d)", ErrConfig, i, j)
				}
			}
		}
	}
	return nil
}

// Steps returns the number of integration steps over [0, Duration].
func (c Config) Steps() int {
	return int(c.Duration/c.TimeStep + 0.5)
}

// frequency returns omega_i with the default applied.
func (c Config) frequency(i int) float64 {
	if len(c.Frequencies) == 0 {
		return 1.0
	}
	return c.Frequencies[i]
}

// coupling returns g_ij with the default nearest-neighbor topology applied.
func (c Config) coupling(i, j int) float64 {
	if len(c.Coupling) == 0 {
		if j == i+1 || i == j+1 {
			return DefaultCoupling
		}
		return 0
	}
	return c.Coupling[i][j]
}
