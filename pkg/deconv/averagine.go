package deconv

import "math"

// averagineEntry is one precomputed isotope distribution: the expected
// relative intensity of each isotopologue of an "averagine" (average amino
// acid composition) at a given mass. Trailing peaks below 1% of the most
// abundant one are trimmed; leading peaks are kept, so index 0 is always
// the mono peak.
type averagineEntry struct {
	intensities       []float64
	mostAbundantIndex int
}

// leftIndex is the distance in isotope indices from the mono peak (index 0)
// to the most abundant one — the bound on how far the envelope walk may
// extend below an anchor peak.
func (e averagineEntry) leftIndex() int {
	return e.mostAbundantIndex
}

// rightIndex is the distance from the most abundant peak to the trimmed
// right edge of the distribution.
func (e averagineEntry) rightIndex() int {
	return len(e.intensities) - 1 - e.mostAbundantIndex
}

// averagineTable precomputes an averagineEntry at a fixed mass grid step
// covering [minMass, maxMass]. The distribution itself comes from a
// closed-form averagine model (see generateAveragineIsotopes).
type averagineTable struct {
	entries  []averagineEntry
	minMass  float64
	gridStep float64
}

func newAveragineTable(minMass, maxMass float64, maxIsotopeCount int) averagineTable {
	gridStep := math.Max(10, (maxMass-minMass)/100)

	var entries []averagineEntry
	for i := 0; ; i++ {
		a := float64(i) * gridStep
		if a < minMass {
			continue
		}
		if a > maxMass {
			break
		}
		entries = append(entries, generateAveragineIsotopes(a, maxIsotopeCount))
	}
	if len(entries) == 0 {
		entries = append(entries, generateAveragineIsotopes(minMass, maxIsotopeCount))
	}

	return averagineTable{entries: entries, minMass: minMass, gridStep: gridStep}
}

// get returns the averagine entry for the grid cell mass falls into,
// clamping rather than panicking for masses outside [minMass, maxMass].
func (t averagineTable) get(mass float64) averagineEntry {
	i := int((mass - t.minMass) / t.gridStep)
	if i < 0 {
		i = 0
	}
	if i >= len(t.entries) {
		i = len(t.entries) - 1
	}
	return t.entries[i]
}

// generateAveragineIsotopes builds an isotope-intensity vector for a
// neutral mass using the averagine approximation: the number of carbons in
// an "average" residue scales linearly with mass, and the isotope envelope
// of a molecule with that many carbons follows a binomial/Poisson C13
// incorporation model. Peaks after the most abundant one are trimmed from
// the right while below 1% of its intensity; peaks before it are never
// trimmed, even when they fall below 1%.
func generateAveragineIsotopes(mass float64, maxIsotopeCount int) averagineEntry {
	const (
		averageResidueMass = 111.1254
		carbonsPerResidue  = 4.9384
		carbon13Fraction   = 0.0107
	)

	numCarbons := mass / averageResidueMass * carbonsPerResidue
	if numCarbons < 1 {
		numCarbons = 1
	}

	limit := maxIsotopeCount
	if limit <= 0 || limit > 64 {
		limit = 64
	}

	raw := make([]float64, limit)
	// Poisson approximation to the binomial C13-incorporation envelope:
	// lambda = n*p holds for large n, small p, exactly the averagine regime.
	lambda := numCarbons * carbon13Fraction
	logP := -lambda
	p := math.Exp(logP)
	raw[0] = p
	maxP := p
	mostAbundant := 0
	for k := 1; k < limit; k++ {
		p = p * lambda / float64(k)
		raw[k] = p
		if p > maxP {
			maxP = p
			mostAbundant = k
		}
		if p < 1e-6 && k > mostAbundant {
			raw = raw[:k+1]
			break
		}
	}

	threshold := 0.01 * maxP
	end := len(raw)
	for end > mostAbundant+1 && raw[end-1] < threshold {
		end--
	}
	raw = raw[:end]

	return averagineEntry{intensities: raw, mostAbundantIndex: mostAbundant}
}
