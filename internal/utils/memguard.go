package utils

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// bytesPerComplex is the size of one complex128 matrix entry.
const bytesPerComplex = 16

// workMatrices is the number of full-size scratch matrices a solver run holds
// at once (state, four RK4 stages, RHS accumulator, correction scratch).
const workMatrices = 8

// MaxRunDim caps the joint dimension so the byte estimate stays inside uint64
// range. Anything larger cannot fit in RAM on any machine we target.
const MaxRunDim = 1 << 24

// EstimateRunBytes estimates the resident memory needed to integrate a system
// whose joint Hilbert space has the given dimension.
func EstimateRunBytes(dim int) uint64 {
	return uint64(dim) * uint64(dim) * bytesPerComplex * workMatrices
}

// CheckMemoryForRun refuses configurations whose density matrices cannot fit
// in available RAM, rather than letting the kernel OOM-kill the process
// halfway through a sweep.
func CheckMemoryForRun(dim int) error {
	if dim < 1 {
		return fmt.Errorf("joint dimension must be >= 1, got %d", dim)
	}
	if dim > MaxRunDim {
		return fmt.Errorf("joint dimension %d exceeds the supported maximum %d", dim, MaxRunDim)
	}
	needed := EstimateRunBytes(dim)

	vm, err := mem.VirtualMemory()
	if err != nil {
		// Memory stats being unavailable is not a reason to refuse a run.
		return nil
	}

	if needed > vm.Available {
		return fmt.Errorf("joint dimension %d needs ~%d MB but only %d MB available",
			dim, needed/(1024*1024), vm.Available/(1024*1024))
	}
	return nil
}
