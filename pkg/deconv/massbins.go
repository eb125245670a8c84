package deconv

import (
	"math"

	"github.com/jeongkyowon/flashdeconv/pkg/bitset"
)

// noiseRatioFactor is the intensity-ratio tolerance between adjacent
// charges used throughout candidate voting and harmonic recognition.
const noiseRatioFactor = 4.0

// candidateMassBins runs the mass-bin voting pass: for every
// set m/z bin and every active charge, it either finds isotope-pair support
// (pushing the bin towards candidacy) or attributes the overlap to baseline
// or harmonic noise. massIntensities is returned with max-over-noise-
// channel subtraction already applied to every candidate bin.
func candidateMassBins(
	mzBins *bitset.Set, mzBinIntensities []float64,
	geomMz binGeometry, binOffsets []int, hBinOffsets [][]int,
	msLevel, minCharge, chargeRange, minContinuousChargePeakCount, massBinCount, mzBinCount int,
) (*bitset.Set, []float64) {
	hChargeSize := len(hCharges)
	if msLevel != 1 {
		hChargeSize = 1
	}

	candidates := bitset.New(massBinCount)
	massIntensities := make([]float64, massBinCount)
	continuousPairs := make([]int, massBinCount)

	prevCharges := make([]int, massBinCount)
	for i := range prevCharges {
		prevCharges[i] = chargeRange + 2
	}
	prevIntensities := make([]float64, massBinCount)
	for i := range prevIntensities {
		prevIntensities[i] = 1
	}

	noise := make([][]float64, hChargeSize+1)
	for k := range noise {
		noise[k] = make([]float64, massBinCount)
	}

	for mzBinIndex := mzBins.FindFirst(); mzBinIndex != -1; mzBinIndex = mzBins.FindNext(mzBinIndex) {
		intensity := mzBinIntensities[mzBinIndex]
		mz := -1.0
		logMz := 0.0

		for j := 0; j < chargeRange; j++ {
			massBinIndex := mzBinIndex + binOffsets[j]
			if massBinIndex < 0 {
				continue
			}
			if massBinIndex >= massBinCount {
				break
			}

			prevIntensity := prevIntensities[massBinIndex]
			minInt := intensity
			maxInt := prevIntensity
			if prevIntensity < intensity {
				minInt = prevIntensity
				maxInt = intensity
			}
			id := maxInt / minInt
			out := prevCharges[massBinIndex]-j != 1
			charge := j + minCharge

			if mz <= 0 {
				logMz = geomMz.value(mzBinIndex)
				mz = math.Exp(logMz)
			}
			diff := isotopeSpacing / float64(charge) / mz
			nextIsoMz := logMz + diff
			nextIsoBin := geomMz.index(nextIsoMz)

			if nextIsoBin < mzBinCount && mzBins.Test(nextIsoBin) && intensity > mzBinIntensities[nextIsoBin] {
				continuousPairs[massBinIndex]++
				setBool(candidates, massBinIndex, continuousPairs[massBinIndex] >= minContinuousChargePeakCount)
				massIntensities[massBinIndex] += mzBinIntensities[nextIsoBin]
			}

			if prevCharges[massBinIndex] < chargeRange && out && id < noiseRatioFactor {
				noise[hChargeSize][massBinIndex] += minInt
			}

			if out || id > noiseRatioFactor {
				continuousPairs[massBinIndex] = 0
			} else {
				maxHcharge := -1
				maxHint := 0.0
				for k := 0; k < hChargeSize; k++ {
					hmzBinIndex := massBinIndex - hBinOffsets[k][j]
					if hmzBinIndex > 0 && hmzBinIndex < mzBinCount && mzBins.Test(hmzBinIndex) {
						hintensity := mzBinIntensities[hmzBinIndex]
						if hintensity > minInt && hintensity < noiseRatioFactor*maxInt {
							if hintensity < maxHint {
								continue
							}
							maxHint = hintensity
							maxHcharge = k
						}
					}
				}

				if maxHcharge >= 0 {
					noise[maxHcharge][massBinIndex] += maxHint
					continuousPairs[massBinIndex] = 0
				} else {
					massIntensities[massBinIndex] += intensity
					if !candidates.Test(massBinIndex) {
						continuousPairs[massBinIndex]++
						setBool(candidates, massBinIndex, continuousPairs[massBinIndex] >= minContinuousChargePeakCount)
					}
				}
			}

			prevIntensities[massBinIndex] = intensity
			prevCharges[massBinIndex] = j
		}
	}

	for mindex := candidates.FindFirst(); mindex != -1; mindex = candidates.FindNext(mindex) {
		maxNoise := 0.0
		for k := 0; k <= hChargeSize; k++ {
			if noise[k][mindex] > maxNoise {
				maxNoise = noise[k][mindex]
			}
		}
		massIntensities[mindex] -= maxNoise
	}

	return candidates, massIntensities
}

// finalizeMassBins selects the final mass bins: for every set m/z bin, among the
// charges that voted it a candidate (or that land on a mass bin carried
// forward by the scan linker), picks the charge maximising mass intensity,
// and records the winning per-mass-bin charge range.
func finalizeMassBins(
	candidates *bitset.Set, massIntensities []float64,
	mzBins *bitset.Set, binOffsets []int,
	carriedForward *bitset.Set, binStart, binEnd, chargeRange, massBinCount, mzBinCount int,
) (massBins, massBinsForThisSpectrum *bitset.Set, minChargeRanges, maxChargeRanges, mzChargeRanges []int) {
	maxChargeRanges = make([]int, massBinCount)
	minChargeRanges = make([]int, massBinCount)
	for i := range minChargeRanges {
		minChargeRanges[i] = chargeRange + 1
	}
	mzChargeRanges = make([]int, mzBinCount)
	for i := range mzChargeRanges {
		mzChargeRanges[i] = chargeRange + 1
	}

	massBinsForThisSpectrum = bitset.New(massBinCount)
	massBins = bitset.New(massBinCount)

	toSkip := bitset.New(massBinCount)
	toSkip.Union(candidates)
	if carriedForward != nil {
		toSkip.Union(carriedForward)
	}
	toSkip.Flip()

	for mzBinIndex := mzBins.FindFirst(); mzBinIndex != -1; mzBinIndex = mzBins.FindNext(mzBinIndex) {
		maxIndex := -1
		maxCount := -1e11
		charge := 0

		for j := 0; j < chargeRange; j++ {
			massBinIndex := mzBinIndex + binOffsets[j]
			if massBinIndex < 0 {
				continue
			}
			if massBinIndex >= massBinCount {
				break
			}
			if toSkip.Test(massBinIndex) {
				continue
			}
			t := massIntensities[massBinIndex]
			if t == 0 {
				continue
			}
			if maxCount < t {
				maxCount = t
				maxIndex = massBinIndex
				charge = j
			}
		}

		if maxIndex > binStart && maxIndex < binEnd {
			if maxChargeRanges[maxIndex] < charge {
				maxChargeRanges[maxIndex] = charge
			}
			if minChargeRanges[maxIndex] > charge {
				minChargeRanges[maxIndex] = charge
			}
			setBool(massBinsForThisSpectrum, maxIndex, candidates.Test(maxIndex))
			mzChargeRanges[mzBinIndex] = charge
			massBins.SetBit(maxIndex)
		}
	}

	return massBins, massBinsForThisSpectrum, minChargeRanges, maxChargeRanges, mzChargeRanges
}

func setBool(s *bitset.Set, i int, v bool) {
	if v {
		s.SetBit(i)
	} else {
		s.ClearBit(i)
	}
}
