// Package sweep runs noise-amplitude sweeps: the same reservoir
// configuration evaluated across a list of epsilon values, fanned out over
// a worker pool, with results persisted and cached.
package sweep

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avermex/qphi/internal/modules/phi"
	"github.com/avermex/qphi/internal/modules/reservoir"
	"github.com/avermex/qphi/internal/utils"
	"github.com/avermex/qphi/internal/workers"
)

// Service orchestrates sweeps. Configurations within a sweep share no
// mutable state; each run owns its density matrix and accumulator.
type Service struct {
	phiService *phi.Service
	repo       *Repository
	cache      *Cache
	pool       *workers.Pool
	log        zerolog.Logger
}

// NewService creates a sweep service. The cache may be nil to disable
// memoization.
func NewService(phiService *phi.Service, repo *Repository, cache *Cache, pool *workers.Pool, log zerolog.Logger) *Service {
	if pool == nil {
		pool = workers.NewPool(0)
	}
	return &Service{
		phiService: phiService,
		repo:       repo,
		cache:      cache,
		pool:       pool,
		log:        log.With().Str("service", "sweep").Logger(),
	}
}

// Run executes the sweep and persists the aggregate.
func (s *Service) Run(req Request) (*Sweep, error) {
	if len(req.Epsilons) == 0 {
		return nil, fmt.Errorf("%w: sweep needs at least one noise amplitude", reservoir.ErrConfig)
	}
	for _, eps := range req.Epsilons {
		if eps < 0 {
			return nil, fmt.Errorf("%w: noise amplitude must be >= 0, got %g", reservoir.ErrConfig, eps)
		}
	}
	// Fail fast on the base configuration before any run starts.
	base := req.Base
	base.NoiseAmplitude = req.Epsilons[0]
	if err := base.Validate(); err != nil {
		return nil, err
	}

	timer := utils.NewTimer("noise_sweep", s.log)
	defer timer.Stop()

	s.log.Info().
		Int("configurations", len(req.Epsilons)).
		Int("modes", req.Base.Modes).
		Int("levels", req.Base.Levels).
		Msg("Starting noise sweep")

	records, err := workers.Map(s.pool, req.Epsilons, func(_ int, eps float64) (Record, error) {
		cfg := req.Base
		cfg.NoiseAmplitude = eps

		if s.cache != nil {
			if cached := s.cache.Get(cfg); cached != nil {
				return Record{Epsilon: eps, PhiMax: cached.PhiMax, Result: *cached, Cached: true}, nil
			}
		}

		result, err := s.phiService.EvaluateRun(cfg)
		if err != nil {
			return Record{}, fmt.Errorf("epsilon %g: %w", eps, err)
		}
		if s.cache != nil {
			s.cache.Put(cfg, result)
		}
		return Record{Epsilon: eps, PhiMax: result.PhiMax, Result: *result}, nil
	})
	if err != nil {
		return nil, err
	}

	sweep := &Sweep{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Modes:     req.Base.Modes,
		Levels:    req.Base.Levels,
		Records:   records,
	}
	for _, rec := range records {
		if rec.PhiMax > sweep.PeakPhi {
			sweep.PeakPhi = rec.PhiMax
			sweep.PeakEpsilon = rec.Epsilon
		}
	}

	if s.repo != nil {
		if err := s.repo.Save(sweep); err != nil {
			// Results are still in hand; persistence failure should not
			// discard a finished sweep.
			s.log.Error().Err(err).Str("sweep_id", sweep.ID).Msg("Failed to persist sweep")
		}
	}

	s.log.Info().
		Str("sweep_id", sweep.ID).
		Float64("peak_epsilon", sweep.PeakEpsilon).
		Float64("peak_phi", sweep.PeakPhi).
		Msg("Noise sweep complete")

	return sweep, nil
}

// Get returns a stored sweep, or nil when unknown.
func (s *Service) Get(id string) (*Sweep, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.Get(id)
}

// List returns stored sweep summaries, newest first.
func (s *Service) List(limit int) ([]*Sweep, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.List(limit)
}
