package deconv

import (
	"math"

	"github.com/jeongkyowon/flashdeconv/pkg/bitset"
)

// scanLinker is a bounded FIFO of recent MS1 mass-bin sets,
// carried forward to pre-admit recently-seen masses in the next MS1
// spectrum without requiring them to re-prove their own evidence.
type scanLinker struct {
	entries []scanLinkerEntry
	depth   int
}

type scanLinkerEntry struct {
	indices  []int
	minValue float64
}

func newScanLinker(depth int) *scanLinker {
	return &scanLinker{depth: depth}
}

// carriedForward returns the set of mass bins this spectrum should treat
// as pre-admitted: every FIFO entry's indices, shifted by the change in
// mass-bin-minimum-value between when the entry was recorded and now.
func (s *scanLinker) carriedForward(massBinMinValue, binWidth float64, massBinCount int) *bitset.Set {
	out := bitset.New(massBinCount)
	if massBinCount == 0 {
		return out
	}
	for _, e := range s.entries {
		if len(e.indices) == 0 {
			continue
		}
		shift := int(math.Round((massBinMinValue - e.minValue) * binWidth))
		for _, idx := range e.indices {
			j := idx - shift
			if j < 0 {
				continue
			}
			if j >= massBinCount {
				break
			}
			out.SetBit(j)
		}
	}
	return out
}

// push appends this spectrum's own-evidence mass bins to the FIFO,
// trimming the head once the configured depth is exceeded. indices must be
// ascending (the indices of surviving groups whose mass bin was this
// spectrum's own evidence, not merely carried forward).
func (s *scanLinker) push(indices []int, massBinMinValue float64) {
	s.entries = append(s.entries, scanLinkerEntry{indices: indices, minValue: massBinMinValue})
	if len(s.entries) > s.depth {
		s.entries = s.entries[1:]
	}
}
