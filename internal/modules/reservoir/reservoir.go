// Package reservoir composes truncated oscillator modes into a joint
// Hamiltonian and a set of Lindblad jump operators parameterized by coupling
// strengths, thermal occupation and the swept noise amplitude.
package reservoir

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/avermex/qphi/internal/modules/density"
	"github.com/avermex/qphi/internal/modules/operators"
)

// JumpKind distinguishes the dissipative processes. All kinds are used
// uniformly by the solver through the (operator, rate) contract.
type JumpKind int

const (
	Decay JumpKind = iota
	Excitation
	Dephasing
)

// String implements fmt.Stringer.
func (k JumpKind) String() string {
	switch k {
	case Decay:
		return "decay"
	case Excitation:
		return "excitation"
	case Dephasing:
		return "dephasing"
	default:
		return fmt.Sprintf("jump(%d)", int(k))
	}
}

// JumpOperator is one dissipative channel: an operator embedded into the
// joint space and its rate. Rates already include the noise amplitude.
type JumpOperator struct {
	Kind JumpKind
	Mode int
	Rate float64
	Op   *mat.CDense
}

// Reservoir holds the assembled joint Hamiltonian, jump operators and
// initial state for one configuration.
type Reservoir struct {
	cfg   Config
	space density.Space
	h     *mat.CDense
	jumps []JumpOperator
	log   zerolog.Logger
}

// New validates the configuration and builds the joint operators.
//
// Jump rates are gamma*(nbar+1)*eps for decay, gamma*nbar*eps for excitation
// and gamma_phi*eps for dephasing, per mode. eps = 0 therefore forces every
// rate to exactly zero and the dynamics reduce to the unitary part; this is
// the mechanism behind the Phi = 0 noiseless baseline.
func New(cfg Config, log zerolog.Logger) (*Reservoir, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	space, err := density.NewSpace(cfg.Modes, cfg.Levels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	r := &Reservoir{
		cfg:   cfg,
		space: space,
		log:   log.With().Str("service", "reservoir").Logger(),
	}
	if err := r.buildHamiltonian(); err != nil {
		return nil, err
	}
	if err := r.buildJumpOperators(); err != nil {
		return nil, err
	}

	r.log.Debug().
		Int("modes", cfg.Modes).
		Int("levels", cfg.Levels).
		Int("dim", space.Dim()).
		Int("jump_operators", len(r.jumps)).
		Float64("epsilon", cfg.NoiseAmplitude).
		Msg("Reservoir assembled")

	return r, nil
}

// buildHamiltonian assembles H = sum_i omega_i n_i
// + sum_{i<j} g_ij (a_i† a_j + a_i a_j†).
func (r *Reservoir) buildHamiltonian() error {
	cfg := r.cfg
	dim := r.space.Dim()
	h := mat.NewCDense(dim, dim, nil)

	num, err := operators.Number(cfg.Levels)
	if err != nil {
		return err
	}
	for i := 0; i < cfg.Modes; i++ {
		ni, err := operators.Embed(num, i, cfg.Modes, cfg.Levels)
		if err != nil {
			return err
		}
		operators.AddScaled(h, complex(cfg.frequency(i), 0), ni)
	}

	if cfg.Modes > 1 {
		a, err := operators.Annihilation(cfg.Levels)
		if err != nil {
			return err
		}
		adag := operators.Dagger(a)

		for i := 0; i < cfg.Modes; i++ {
			for j := i + 1; j < cfg.Modes; j++ {
				g := cfg.coupling(i, j)
				if g == 0 {
					continue
				}
				adagI, err := operators.Embed(adag, i, cfg.Modes, cfg.Levels)
				if err != nil {
					return err
				}
				aJ, err := operators.Embed(a, j, cfg.Modes, cfg.Levels)
				if err != nil {
					return err
				}

				// g (a_i† a_j + h.c.) keeps H Hermitian.
				exch := operators.Mul(adagI, aJ)
				exch = operators.Add(exch, operators.Dagger(exch))
				operators.AddScaled(h, complex(g, 0), exch)
			}
		}
	}

	r.h = h
	return nil
}

// buildJumpOperators embeds a, a† and n per mode with their scaled rates.
// Channels whose rate is exactly zero are omitted entirely.
func (r *Reservoir) buildJumpOperators() error {
	cfg := r.cfg
	eps := cfg.NoiseAmplitude

	a, err := operators.Annihilation(cfg.Levels)
	if err != nil {
		return err
	}
	adag := operators.Dagger(a)
	num, err := operators.Number(cfg.Levels)
	if err != nil {
		return err
	}

	type channel struct {
		kind JumpKind
		rate float64
		op   *mat.CDense
	}
	channels := []channel{
		{Decay, cfg.DecayRate * (cfg.ThermalOccupation + 1) * eps, a},
		{Excitation, cfg.DecayRate * cfg.ThermalOccupation * eps, adag},
		{Dephasing, cfg.DephasingRate * eps, num},
	}

	for mode := 0; mode < cfg.Modes; mode++ {
		for _, ch := range channels {
			if ch.rate == 0 {
				continue
			}
			emb, err := operators.Embed(ch.op, mode, cfg.Modes, cfg.Levels)
			if err != nil {
				return err
			}
			r.jumps = append(r.jumps, JumpOperator{
				Kind: ch.kind,
				Mode: mode,
				Rate: ch.rate,
				Op:   emb,
			})
		}
	}
	return nil
}

// Config returns the immutable run configuration.
func (r *Reservoir) Config() Config { return r.cfg }

// Space returns the joint Hilbert-space structure.
func (r *Reservoir) Space() density.Space { return r.space }

// Hamiltonian returns the joint Hamiltonian.
func (r *Reservoir) Hamiltonian() *mat.CDense { return r.h }

// JumpOperators returns the dissipative channels with non-zero rates.
func (r *Reservoir) JumpOperators() []JumpOperator { return r.jumps }

// InitialState returns the default initial state, the pure joint ground
// state.
func (r *Reservoir) InitialState() *density.Matrix {
	return density.GroundState(r.space)
}
