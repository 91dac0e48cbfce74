// Package partition enumerates bipartitions of the oscillator index set and
// searches them for the Minimum Information Partition.
package partition

import (
	"fmt"
	"math/bits"
	"strings"
)

// Bipartition splits n oscillator indices into two non-empty disjoint
// exhaustive groups. MaskA always contains mode 0, which canonicalizes the
// unordered pair: each bipartition is represented exactly once.
type Bipartition struct {
	MaskA uint
	Modes int
}

// NewBipartition canonicalizes and validates a mask over the given mode
// count. The trivial partitions (empty or full mask) are rejected.
func NewBipartition(mask uint, modes int) (Bipartition, error) {
	if modes < 2 {
		return Bipartition{}, fmt.Errorf("bipartitions need at least 2 modes, got %d", modes)
	}
	full := uint(1)<<uint(modes) - 1
	mask &= full
	if mask == 0 || mask == full {
		return Bipartition{}, fmt.Errorf("trivial partition (mask %b over %d modes)", mask, modes)
	}
	if mask&1 == 0 {
		mask = full &^ mask
	}
	return Bipartition{MaskA: mask, Modes: modes}, nil
}

// MaskB returns the complementary side.
func (b Bipartition) MaskB() uint {
	full := uint(1)<<uint(b.Modes) - 1
	return full &^ b.MaskA
}

// SizeA returns the number of modes on side A.
func (b Bipartition) SizeA() int {
	return bits.OnesCount(b.MaskA)
}

// String renders the partition as mode lists, e.g. "{0,2}|{1,3}".
func (b Bipartition) String() string {
	side := func(mask uint) string {
		var parts []string
		for m := 0; m < b.Modes; m++ {
			if mask&(1<<uint(m)) != 0 {
				parts = append(parts, fmt.Sprintf("%d", m))
			}
		}
		return "{" + strings.Join(parts, ",") + "}"
	}
	return side(b.MaskA) + "|" + side(b.MaskB())
}

// Enumerate lists every non-trivial unordered bipartition of n modes in
// canonical ascending-mask order: exactly 2^(n-1)-1 entries.
func Enumerate(modes int) []Bipartition {
	if modes < 2 {
		return nil
	}
	full := uint(1)<<uint(modes) - 1
	var out []Bipartition
	// Masks containing mode 0 cover each unordered pair exactly once.
	for mask := uint(1); mask < full; mask += 2 {
		out = append(out, Bipartition{MaskA: mask, Modes: modes})
	}
	return out
}

// Atomic lists the single-mode-vs-rest bipartitions, the documented
// heuristic for systems too large for exhaustive search: n entries.
func Atomic(modes int) []Bipartition {
	if modes < 2 {
		return nil
	}
	full := uint(1)<<uint(modes) - 1
	out := make([]Bipartition, 0, modes)
	seen := make(map[uint]bool, modes)
	for m := 0; m < modes; m++ {
		mask := uint(1) << uint(m)
		if mask&1 == 0 {
			mask = full &^ mask
		}
		// Canonical masks can coincide: with two modes, isolating either
		// one is the same unordered pair.
		if seen[mask] {
			continue
		}
		seen[mask] = true
		out = append(out, Bipartition{MaskA: mask, Modes: modes})
	}
	return out
}
