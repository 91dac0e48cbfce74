// Package lindblad integrates the Lindblad master equation
//
//	drho/dt = -i[H, rho] + sum_k gamma_k D[L_k](rho)
//
// with fixed-step 4th-order Runge-Kutta (hbar = 1), applying an invariant
// correction after every step: hermitize, clamp negative eigenvalues,
// renormalize the trace. Drift that survives correction aborts the run.
package lindblad

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/avermex/qphi/internal/modules/density"
	"github.com/avermex/qphi/internal/modules/operators"
	"github.com/avermex/qphi/internal/modules/reservoir"
	"github.com/avermex/qphi/internal/utils"
)

// Fixed numerical tolerances. These are implementation choices, validated
// against the reproduction targets, not canonical physical constants.
const (
	// TraceTolerance is the maximum |trace - 1| allowed after correction.
	TraceTolerance = 1e-9
	// EigenTolerance is the eigenvalue negativity below which the
	// positivity projection kicks in.
	EigenTolerance = 1e-12
	// MaxNegativeEigenvalue is the eigenvalue negativity that is fatal
	// even before projection: drift that large means the step size is
	// unstable, not merely noisy.
	MaxNegativeEigenvalue = 1e-9
	// PurityTolerance classifies a state as pure (Tr(rho^2) close to 1).
	PurityTolerance = 1e-6
)

// Options selects what a run returns.
type Options struct {
	// StoreTrajectory records a snapshot every SampleEvery steps (plus the
	// initial and final states). When false only the final state is kept.
	StoreTrajectory bool
	// SampleEvery is the snapshot stride in steps; <= 0 means every step.
	SampleEvery int
}

// Snapshot is one recorded point of a trajectory.
type Snapshot struct {
	Step  int
	Time  float64
	State *density.Matrix
}

// Result is the outcome of a completed run.
type Result struct {
	Final      *density.Matrix
	Trajectory []Snapshot // nil unless Options.StoreTrajectory
	Steps      int
}

// InstabilityError reports unrecoverable numerical drift at some step. The
// partial trajectory up to the last good step is attached so the caller can
// decide whether to retry with a smaller time step.
type InstabilityError struct {
	Step          int
	Time          float64
	TraceDrift    float64
	MinEigenvalue float64
	Partial       []Snapshot
}

// Error implements the error interface.
func (e *InstabilityError) Error() string {
	return fmt.Sprintf("numerical instability at step %d (t=%g): trace drift %.3e, min eigenvalue %.3e",
		e.Step, e.Time, e.TraceDrift, e.MinEigenvalue)
}

// Solver integrates one reservoir configuration. A Solver owns no mutable
// state across runs; independent configurations can run in parallel with
// separate Solvers.
type Solver struct {
	res *reservoir.Reservoir
	log zerolog.Logger
}

// NewSolver creates a solver for the given reservoir.
func NewSolver(res *reservoir.Reservoir, log zerolog.Logger) *Solver {
	return &Solver{
		res: res,
		log: log.With().Str("service", "lindblad").Logger(),
	}
}

// Run integrates from the reservoir's initial state over [0, T].
func (s *Solver) Run(opts Options) (*Result, error) {
	return s.RunFrom(s.res.InitialState(), opts)
}

// RunFrom integrates from an explicit initial state over [0, T].
func (s *Solver) RunFrom(initial *density.Matrix, opts Options) (*Result, error) {
	cfg := s.res.Config()
	steps := cfg.Steps()
	dt := cfg.TimeStep

	timer := utils.NewTimer("lindblad_run", s.log)
	defer timer.Stop()

	rho := initial.Clone()

	sampleEvery := opts.SampleEvery
	if sampleEvery <= 0 {
		sampleEvery = 1
	}

	var trajectory []Snapshot
	record := func(step int, t float64) {
		if opts.StoreTrajectory {
			trajectory = append(trajectory, Snapshot{Step: step, Time: t, State: rho.Clone()})
		}
	}
	record(0, 0)

	for step := 1; step <= steps; step++ {
		t := float64(step) * dt
		s.rk4Step(rho, dt)

		if err := s.correct(rho, step, t, trajectory); err != nil {
			return nil, err
		}

		if step == steps || step%sampleEvery == 0 {
			record(step, t)
		}
	}

	s.log.Debug().
		Int("steps", steps).
		Float64("final_trace", real(rho.Trace())).
		Msg("Integration complete")

	return &Result{Final: rho, Trajectory: trajectory, Steps: steps}, nil
}

// rhs evaluates f(rho) = -i[H, rho] + sum_k gamma_k D[L_k](rho).
func (s *Solver) rhs(rho *mat.CDense) *mat.CDense {
	out := operators.Scale(complex(0, -1), density.Commutator(s.res.Hamiltonian(), rho))

	for _, jump := range s.res.JumpOperators() {
		d := density.Dissipator(jump.Op, rho)
		operators.AddScaled(out, complex(jump.Rate, 0), d)
	}
	return out
}

// rk4Step advances rho by one classical Runge-Kutta step in place.
func (s *Solver) rk4Step(rho *density.Matrix, dt float64) {
	m := rho.Raw()

	k1 := s.rhs(m)

	tmp := operators.Clone(m)
	operators.AddScaled(tmp, complex(dt/2, 0), k1)
	k2 := s.rhs(tmp)

	tmp = operators.Clone(m)
	operators.AddScaled(tmp, complex(dt/2, 0), k2)
	k3 := s.rhs(tmp)

	tmp = operators.Clone(m)
	operators.AddScaled(tmp, complex(dt, 0), k3)
	k4 := s.rhs(tmp)

	// rho += dt/6 (k1 + 2 k2 + 2 k3 + k4)
	operators.AddScaled(m, complex(dt/6, 0), k1)
	operators.AddScaled(m, complex(dt/3, 0), k2)
	operators.AddScaled(m, complex(dt/3, 0), k3)
	operators.AddScaled(m, complex(dt/6, 0), k4)
}

// correct applies the post-step invariant transform: hermitize, project onto
// the PSD cone when needed, renormalize. Residual drift beyond tolerance
// after correction is fatal.
func (s *Solver) correct(rho *density.Matrix, step int, t float64, partial []Snapshot) error {
	rho.Hermitize()

	minEig, err := rho.MinEigenvalue()
	if err != nil {
		return fmt.Errorf("step %d: %w", step, err)
	}
	projected := false
	if minEig < -EigenTolerance {
		if _, err := rho.ProjectPSD(); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		projected = true
	}
	if err := rho.Normalize(); err != nil {
		return &InstabilityError{Step: step, Time: t, TraceDrift: 1, MinEigenvalue: minEig, Partial: partial}
	}

	// Re-check after correction; persistent drift is unrecoverable.
	drift := real(rho.Trace()) - 1
	if drift < 0 {
		drift = -drift
	}
	residual := minEig
	if projected {
		residual, err = rho.MinEigenvalue()
		if err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
	}
	if drift > TraceTolerance || residual < -MaxNegativeEigenvalue {
		s.log.Error().
			Int("step", step).
			Float64("trace_drift", drift).
			Float64("min_eigenvalue", residual).
			Msg("Numerical instability after correction")
		return &InstabilityError{
			Step:          step,
			Time:          t,
			TraceDrift:    drift,
			MinEigenvalue: residual,
			Partial:       partial,
		}
	}
	return nil
}

// IsPure reports whether rho is a projector within PurityTolerance, the
// physical basis of the epsilon = 0 baseline.
func IsPure(rho *density.Matrix) bool {
	return rho.Purity() > 1-PurityTolerance
}
