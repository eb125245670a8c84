package deconv

import "math"

// filterBank holds the additive log-m/z offsets used to vote a neutral mass
// into existence from an observed peak at a given charge, plus the harmonic
// variants used to recognise (and discount) half/third/fifth-charge
// ghosts. Built once from Params; the offsets do not depend on any one
// spectrum.
type filterBank struct {
	charge   []float64   // filter[j] = ln(1/(j+minCharge))
	harmonic [][]float64 // harmonic[k][j], one row per hCharges entry
}

func newFilterBank(p Params) filterBank {
	chargeRange := p.chargeRange()

	charge := make([]float64, chargeRange)
	for j := 0; j < chargeRange; j++ {
		charge[j] = math.Log(1.0 / float64(j+p.MinCharge))
	}

	harmonic := make([][]float64, len(hCharges))
	for k, hc := range hCharges {
		row := make([]float64, chargeRange)
		// integer division truncates for odd hc.
		n := float64(hc / 2)
		for j := 0; j < chargeRange; j++ {
			row[j] = math.Log(1.0 / (float64(j) + n/float64(hc) + float64(p.MinCharge)))
		}
		harmonic[k] = row
	}

	return filterBank{charge: charge, harmonic: harmonic}
}

// binOffsets translates the filter bank into integer bin-index offsets at
// the given bin geometry: binOffset[j] = round((mzMin - filter[j] -
// massMin) * binWidth).
func (f filterBank) binOffsets(mzMin, massMin, binWidth float64) []int {
	out := make([]int, len(f.charge))
	for j, v := range f.charge {
		out[j] = int(math.Round((mzMin - v - massMin) * binWidth))
	}
	return out
}

func (f filterBank) harmonicBinOffsets(mzMin, massMin, binWidth float64) [][]int {
	out := make([][]int, len(f.harmonic))
	for k, row := range f.harmonic {
		offs := make([]int, len(row))
		for j, v := range row {
			offs[j] = int(math.Round((mzMin - v - massMin) * binWidth))
		}
		out[k] = offs
	}
	return out
}
