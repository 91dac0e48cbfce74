package partition

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/avermex/qphi/internal/modules/density"
	"github.com/avermex/qphi/internal/modules/emd"
	"github.com/avermex/qphi/internal/modules/infotheory"
	"github.com/avermex/qphi/internal/workers"
)

// Policy selects how the search space is covered.
type Policy string

const (
	// PolicyExhaustive evaluates every non-trivial bipartition.
	PolicyExhaustive Policy = "exhaustive"
	// PolicyHeuristic evaluates only the atomic (single mode vs rest)
	// bipartitions when the system exceeds the exhaustive threshold.
	PolicyHeuristic Policy = "heuristic"
)

// tieTolerance is the spread within which two candidate values count as
// equal; the first candidate in canonical order wins. Deterministic, not
// claimed to be physically unique.
const tieTolerance = 1e-12

// TooLargeError reports an exhaustive search refused because the candidate
// count is exponential in the mode count.
type TooLargeError struct {
	Modes     int
	Threshold int
}

// Error implements the error interface.
func (e *TooLargeError) Error() string {
	return fmt.Sprintf("exhaustive partition search over %d modes exceeds threshold %d", e.Modes, e.Threshold)
}

// SearchConfig holds search policy and limits.
type SearchConfig struct {
	Policy Policy
	// MaxExhaustiveModes is the mode count above which exhaustive search
	// fails (or the heuristic policy falls back to atomic partitions).
	MaxExhaustiveModes int
}

// Candidate is one evaluated bipartition.
type Candidate struct {
	Partition Bipartition
	Value     float64
}

// SearchResult is the outcome of a MIP search.
type SearchResult struct {
	// MIP is the minimizing non-trivial bipartition.
	MIP Bipartition
	// Phi is the MIP's integrated-information value: the EMD between the
	// joint distribution and the MIP's product of marginals.
	Phi float64
	// Evaluated is the number of candidates examined.
	Evaluated int
}

// Searcher runs MIP searches over joint distributions.
type Searcher struct {
	cfg  SearchConfig
	pool *workers.Pool
	log  zerolog.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(cfg SearchConfig, pool *workers.Pool, log zerolog.Logger) *Searcher {
	if cfg.Policy == "" {
		cfg.Policy = PolicyExhaustive
	}
	if cfg.MaxExhaustiveModes < 1 {
		cfg.MaxExhaustiveModes = 12
	}
	if pool == nil {
		pool = workers.NewPool(0)
	}
	return &Searcher{
		cfg:  cfg,
		pool: pool,
		log:  log.With().Str("service", "partition_search").Logger(),
	}
}

// Search finds the MIP for a joint distribution over the given space. The
// ground-distance matrix must cover the full joint support. For a single
// mode there is no non-trivial bipartition and Phi is zero by definition.
func (s *Searcher) Search(space density.Space, joint []float64, ground *mat.Dense) (*SearchResult, error) {
	if len(joint) != space.Dim() {
		return nil, fmt.Errorf("joint distribution has length %d, want %d", len(joint), space.Dim())
	}
	if space.Modes < 2 {
		return &SearchResult{Phi: 0, Evaluated: 0}, nil
	}

	candidates, err := s.candidates(space.Modes)
	if err != nil {
		return nil, err
	}

	// Each candidate's evaluation is independent; fan out across the pool
	// and rely on Map's order preservation for the deterministic tie-break.
	values, err := workers.Map(s.pool, candidates, func(_ int, b Bipartition) (float64, error) {
		return s.evaluate(space, joint, ground, b)
	})
	if err != nil {
		return nil, err
	}

	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] < values[best]-tieTolerance {
			best = i
		}
	}

	s.log.Debug().
		Int("candidates", len(candidates)).
		Str("mip", candidates[best].String()).
		Float64("phi", values[best]).
		Msg("MIP search complete")

	return &SearchResult{
		MIP:       candidates[best],
		Phi:       values[best],
		Evaluated: len(candidates),
	}, nil
}

// candidates applies the policy.
func (s *Searcher) candidates(modes int) ([]Bipartition, error) {
	switch s.cfg.Policy {
	case PolicyExhaustive:
		if modes > s.cfg.MaxExhaustiveModes {
			return nil, &TooLargeError{Modes: modes, Threshold: s.cfg.MaxExhaustiveModes}
		}
		return Enumerate(modes), nil
	case PolicyHeuristic:
		if modes > s.cfg.MaxExhaustiveModes {
			return Atomic(modes), nil
		}
		return Enumerate(modes), nil
	default:
		return nil, fmt.Errorf("unknown partition policy %q", s.cfg.Policy)
	}
}

// evaluate computes one candidate's integrated-information value: the EMD
// between the joint distribution and its product of marginals across the
// bipartition.
func (s *Searcher) evaluate(space density.Space, joint []float64, ground *mat.Dense, b Bipartition) (float64, error) {
	product, err := infotheory.ProductOfMarginals(space, joint, b.MaskA)
	if err != nil {
		return 0, err
	}
	return emd.Distance(joint, product, ground)
}
