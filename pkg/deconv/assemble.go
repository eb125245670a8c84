package deconv

import (
	"math"

	"github.com/jeongkyowon/flashdeconv/pkg/bitset"
)

// maxMissingIsotope bounds how many consecutive isotopes may be absent
// before the envelope walk gives up in either direction.
const maxMissingIsotope = 2

// massOf returns the neutral mass a peak observed at mz would carry at the
// given charge: exp(log(mz-protonMass))*charge collapses to (mz-protonMass)*charge.
func massOf(mz float64, charge int) float64 {
	return (mz - protonMass) * float64(charge)
}

// assembleGroups builds peak groups: for each selected mass bin, it walks the
// log-m/z peak list up and down from the brightest peak at each supporting
// charge, bounded by the averagine table's left/right indices and the
// two-consecutive-missing-isotope rule, then reassigns isotope indices from
// the group's brightest peak and keeps only envelopes with at least two
// distinct isotopes.
func assembleGroups(
	massBins *bitset.Set, massIntensities []float64,
	minChargeRanges, maxChargeRanges, mzChargeRanges []int,
	peaks []logMzPeak, geomMz, geomMass binGeometry,
	binOffsets []int, avg averagineTable,
	msLevel, minCharge, chargeRange, mzBinCount, massBinCount int, tol float64,
) []PeakGroup {
	peakBins := make([]int, len(peaks))
	for i, p := range peaks {
		peakBins[i] = geomMz.index(p.logMz)
	}
	currentPeakIndex := make([]int, chargeRange)

	var groups []PeakGroup

	for massBinIndex := massBins.FindFirst(); massBinIndex != -1; massBinIndex = massBins.FindNext(massBinIndex) {
		logM := geomMass.value(massBinIndex)
		mass := math.Exp(logM)

		if msLevel == 1 {
			diff := isotopeSpacing / mass
			b1 := geomMass.index(logM - diff)
			b2 := geomMass.index(logM + diff)

			if b1 > 0 && b1 < massBinIndex && massIntensities[massBinIndex] < massIntensities[b1] {
				continue
			}
			if b2 < massBinCount && b2 > massBinIndex && massIntensities[massBinIndex] < massIntensities[b2] {
				continue
			}
			i2 := 0.0
			if b2 < massBinCount {
				i2 = massIntensities[b2]
			}
			if massIntensities[b1] == 0 && i2 == 0 {
				continue
			}
		}

		entry := avg.get(mass)
		leftIdx := entry.leftIndex()
		rightIdx := entry.rightIndex()

		var groupPeaks []GroupPeak
		perChargeNoise := make([]float64, chargeRange)

		for j := minChargeRanges[massBinIndex]; j <= maxChargeRanges[massBinIndex] && j < chargeRange; j++ {
			bi := massBinIndex - binOffsets[j]
			if bi < 0 || bi >= mzBinCount {
				continue
			}
			if mzChargeRanges[bi] < chargeRange && mzChargeRanges[bi] != j {
				continue
			}

			charge := j + minCharge
			cpi := currentPeakIndex[j]
			maxIntensity := -1.0
			maxPeakIndex := -1
			for cpi < len(peaks)-1 {
				if peakBins[cpi] == bi {
					if peaks[cpi].intensity > maxIntensity {
						maxIntensity = peaks[cpi].intensity
						maxPeakIndex = cpi
					}
				} else if peakBins[cpi] > bi {
					break
				}
				cpi++
			}
			currentPeakIndex[j] = cpi
			if maxPeakIndex < 0 {
				continue
			}

			mz := peaks[maxPeakIndex].mz
			isof := isotopeSpacing / float64(charge)
			mzDelta := tol * mz

			pi := 0
			for peakIndex := maxPeakIndex; peakIndex < len(peaks); peakIndex++ {
				di := peaks[peakIndex].mz - mz
				i := int(di/isof + 0.5)
				if i > rightIdx {
					break
				}
				if i-pi > maxMissingIsotope {
					break
				}
				if math.Abs(di-float64(i)*isof) < mzDelta {
					if peakBins[peakIndex]+binOffsets[j] < massBinCount {
						groupPeaks = append(groupPeaks, GroupPeak{
							MZ:        peaks[peakIndex].mz,
							Charge:    charge,
							Intensity: peaks[peakIndex].intensity,
						})
					}
					pi = i
				} else {
					perChargeNoise[j] += peaks[peakIndex].intensity * peaks[peakIndex].intensity
				}
			}

			pi = 0
			for peakIndex := maxPeakIndex - 1; peakIndex >= 0; peakIndex-- {
				di := mz - peaks[peakIndex].mz
				i := int(di/isof + 0.5)
				if i > leftIdx {
					break
				}
				if i-pi > maxMissingIsotope {
					break
				}
				if math.Abs(di-float64(i)*isof) < mzDelta {
					if peakBins[peakIndex]+binOffsets[j] < massBinCount {
						groupPeaks = append(groupPeaks, GroupPeak{
							MZ:        peaks[peakIndex].mz,
							Charge:    charge,
							Intensity: peaks[peakIndex].intensity,
						})
					}
					pi = i
				} else {
					perChargeNoise[j] += peaks[peakIndex].intensity * peaks[peakIndex].intensity
				}
			}
		}

		if len(groupPeaks) == 0 {
			continue
		}

		maxIntensity := -1.0
		maxMass := 0.0
		for _, p := range groupPeaks {
			if p.Intensity > maxIntensity {
				maxIntensity = p.Intensity
				maxMass = massOf(p.MZ, p.Charge)
			}
		}

		isoDelta := tol * maxMass
		minOff := math.MaxInt32
		filtered := groupPeaks[:0:0]
		for _, p := range groupPeaks {
			pm := massOf(p.MZ, p.Charge)
			iso := int(math.Round((pm - maxMass) / isotopeSpacing))
			if math.Abs(maxMass-pm+isotopeSpacing*float64(iso)) > isoDelta {
				continue
			}
			p.IsotopeIndex = iso
			filtered = append(filtered, p)
			if iso < minOff {
				minOff = iso
			}
		}
		if len(filtered) == 0 {
			continue
		}

		distinct := map[int]bool{}
		minCh, maxCh := chargeRange+1, -1
		for i := range filtered {
			filtered[i].IsotopeIndex -= minOff
			distinct[filtered[i].IsotopeIndex] = true
			if filtered[i].Charge < minCh {
				minCh = filtered[i].Charge
			}
			if filtered[i].Charge > maxCh {
				maxCh = filtered[i].Charge
			}
		}
		if len(distinct) < 2 {
			continue
		}

		groups = append(groups, PeakGroup{
			Peaks:          filtered,
			MinCharge:      minCh,
			MaxCharge:      maxCh,
			PerChargeNoise: perChargeNoise,
			massBinIndex:   massBinIndex,
		})
	}

	return groups
}
