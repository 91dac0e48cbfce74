// Package phi derives integrated-information measures from density matrices:
// it turns a state into probability distributions, delegates the MIP search,
// and computes the Phi variants for single states and whole trajectories.
package phi

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avermex/qphi/internal/modules/density"
	"github.com/avermex/qphi/internal/modules/infotheory"
	"github.com/avermex/qphi/internal/modules/lindblad"
	"github.com/avermex/qphi/internal/modules/partition"
	"github.com/avermex/qphi/internal/modules/reservoir"
	"github.com/avermex/qphi/internal/utils"
)

// Service computes Phi. It owns no mutable state; concurrent evaluations
// are safe as long as they use distinct density matrices.
type Service struct {
	searcher       *partition.Searcher
	phiSampleEvery int
	log            zerolog.Logger
}

// NewService creates a Phi service. phiSampleEvery is the trajectory stride
// at which Phi is evaluated during EvaluateRun; <= 0 means every 10 steps.
func NewService(searcher *partition.Searcher, phiSampleEvery int, log zerolog.Logger) *Service {
	if phiSampleEvery <= 0 {
		phiSampleEvery = 10
	}
	return &Service{
		searcher:       searcher,
		phiSampleEvery: phiSampleEvery,
		log:            log.With().Str("service", "phi").Logger(),
	}
}

// Compute evaluates all Phi variants for a single density matrix.
func (s *Service) Compute(rho *density.Matrix) (*Evaluation, error) {
	space := rho.Space()
	joint := rho.Diagonal()
	ground := infotheory.GroundDistance(space)

	search, err := s.searcher.Search(space, joint, ground)
	if err != nil {
		return nil, fmt.Errorf("MIP search: %w", err)
	}

	eval := &Evaluation{Pure: lindblad.IsPure(rho)}
	eval.Variants.PhiIIT = search.Phi

	if space.Modes >= 2 {
		mip := search.MIP
		eval.MIP = &mip

		product, err := infotheory.ProductOfMarginals(space, joint, mip.MaskA)
		if err != nil {
			return nil, err
		}
		eval.Variants.PhiGeometric = infotheory.KLDivergence(joint, product)

		eval.Variants.TotalCorrelation, err = infotheory.TotalCorrelation(space, joint)
		if err != nil {
			return nil, err
		}
		eval.Variants.Synergy, err = infotheory.Synergy(space, joint)
		if err != nil {
			return nil, err
		}
	}

	eval.VonNeumannEntropy, err = infotheory.VonNeumannEntropy(rho)
	if err != nil {
		return nil, err
	}
	return eval, nil
}

// EvaluateRun builds the reservoir for cfg, integrates the master equation
// over [0, T], evaluates Phi along the sampled trajectory and reports the
// maximum. This is the construct-reservoir -> run-solver -> compute-Phi
// pipeline exposed to drivers.
func (s *Service) EvaluateRun(cfg reservoir.Config) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dim, ok := jointDim(cfg.Levels, cfg.Modes)
	if !ok {
		return nil, fmt.Errorf("%w: joint dimension %d^%d overflows", reservoir.ErrConfig, cfg.Levels, cfg.Modes)
	}
	if err := utils.CheckMemoryForRun(dim); err != nil {
		return nil, fmt.Errorf("%w: %v", reservoir.ErrConfig, err)
	}

	timer := utils.NewTimer("phi_evaluate_run", s.log)
	defer timer.Stop()

	res, err := reservoir.New(cfg, s.log)
	if err != nil {
		return nil, err
	}

	solver := lindblad.NewSolver(res, s.log)
	run, err := solver.Run(lindblad.Options{
		StoreTrajectory: true,
		SampleEvery:     s.phiSampleEvery,
	})
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:     uuid.New().String(),
		Epsilon:   cfg.NoiseAmplitude,
		Steps:     run.Steps,
		Samples:   len(run.Trajectory),
		FinalPure: lindblad.IsPure(run.Final),
		PhiMax:    -1,
	}

	for _, snap := range run.Trajectory {
		eval, err := s.Compute(snap.State)
		if err != nil {
			return nil, fmt.Errorf("phi at step %d: %w", snap.Step, err)
		}
		if eval.Variants.PhiIIT > result.PhiMax {
			result.PhiMax = eval.Variants.PhiIIT
			result.BestStep = snap.Step
			result.BestTime = snap.Time
			result.Best = *eval
		}
	}
	if result.PhiMax < 0 {
		result.PhiMax = 0
	}

	s.log.Info().
		Str("run_id", result.RunID).
		Float64("epsilon", result.Epsilon).
		Float64("phi_max", result.PhiMax).
		Int("best_step", result.BestStep).
		Bool("final_pure", result.FinalPure).
		Msg("Run evaluated")

	return result, nil
}

// jointDim returns levels^modes, reporting overflow instead of wrapping.
// Callers must have validated levels >= 2 and modes >= 1 first.
func jointDim(levels, modes int) (int, bool) {
	dim := 1
	for i := 0; i < modes; i++ {
		if dim > math.MaxInt/levels {
			return 0, false
		}
		dim *= levels
	}
	return dim, true
}
