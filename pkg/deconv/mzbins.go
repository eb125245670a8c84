package deconv

import "github.com/jeongkyowon/flashdeconv/pkg/bitset"

// buildMzBins sets mzBins[bi] for every log-m/z peak's bin and smears the
// same intensity onto the neighbouring bin the peak's sub-bin offset leans
// towards, so charge offsets that land slightly off-bin still hit.
func buildMzBins(peaks []logMzPeak, geom binGeometry, n int) (*bitset.Set, []float64) {
	bins := bitset.New(n)
	intensities := make([]float64, n)

	for _, p := range peaks {
		bi := geom.index(p.logMz)
		if bi >= n {
			continue
		}
		bins.SetBit(bi)
		intensities[bi] += p.intensity

		delta := p.logMz - geom.value(bi)
		if delta > 0 {
			if bi < n-1 {
				bins.SetBit(bi + 1)
				intensities[bi+1] += p.intensity
			}
		} else if delta < 0 {
			if bi > 0 {
				bins.SetBit(bi - 1)
				intensities[bi-1] += p.intensity
			}
		}
	}

	return bins, intensities
}
