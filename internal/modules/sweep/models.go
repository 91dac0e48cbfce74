package sweep

import (
	"time"

	"github.com/avermex/qphi/internal/modules/phi"
	"github.com/avermex/qphi/internal/modules/reservoir"
)

// Request describes a noise sweep: a base configuration whose noise
// amplitude is replaced by each value in Epsilons.
type Request struct {
	Base     reservoir.Config `json:"base"`
	Epsilons []float64        `json:"epsilons"`
}

// Record is the per-noise-amplitude result, the unit of the published
// epsilon -> Phi_max table.
type Record struct {
	Epsilon float64       `json:"epsilon"`
	PhiMax  float64       `json:"phi_max"`
	Result  phi.RunResult `json:"result"`
	Cached  bool          `json:"cached"`
}

// Sweep aggregates one full noise sweep.
type Sweep struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Modes     int       `json:"modes"`
	Levels    int       `json:"levels"`
	Records   []Record  `json:"records"`
	// PeakEpsilon is the noise amplitude with the largest Phi_max.
	PeakEpsilon float64 `json:"peak_epsilon"`
	PeakPhi     float64 `json:"peak_phi"`
}
