package phi

import "github.com/avermex/qphi/internal/modules/partition"

// Variants bundles the integrated-information measures computed per state.
// All values are in bits.
type Variants struct {
	// PhiIIT is the MIP's EMD value, the headline measure.
	PhiIIT float64 `json:"phi_iit"`
	// PhiGeometric is the relative entropy between the joint distribution
	// and the MIP's product of marginals.
	PhiGeometric float64 `json:"phi_geometric"`
	// Synergy is the total correlation minus all pairwise mutual
	// informations; may be negative when redundancy dominates.
	Synergy float64 `json:"synergy"`
	// TotalCorrelation is sum_i H(marginal_i) - H(joint).
	TotalCorrelation float64 `json:"total_correlation"`
}

// Evaluation is one Phi computation on a single density matrix.
type Evaluation struct {
	Variants Variants               `json:"variants"`
	MIP      *partition.Bipartition `json:"mip,omitempty"` // nil for single-mode systems
	// VonNeumannEntropy of the evaluated state, in bits.
	VonNeumannEntropy float64 `json:"von_neumann_entropy"`
	// Pure reports whether the state was a projector within tolerance.
	Pure bool `json:"pure"`
}

// RunResult is the outcome of one full simulation run: solver trajectory
// plus the maximal Phi observed along it.
type RunResult struct {
	RunID string `json:"run_id"`
	// Epsilon echoes the configuration's noise amplitude.
	Epsilon float64 `json:"epsilon"`
	// PhiMax is the maximal Phi_IIT over the sampled trajectory.
	PhiMax float64 `json:"phi_max"`
	// BestStep and BestTime locate the maximum along the trajectory.
	BestStep int     `json:"best_step"`
	BestTime float64 `json:"best_time"`
	// Best is the full evaluation at the maximum.
	Best Evaluation `json:"best"`
	// FinalPure reports purity of the final state.
	FinalPure bool `json:"final_pure"`
	// Steps is the number of integration steps taken.
	Steps int `json:"steps"`
	// Samples is the number of trajectory points Phi was evaluated at.
	Samples int `json:"samples"`
}
