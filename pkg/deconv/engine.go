package deconv

import (
	"math"
	"sort"

	"github.com/jeongkyowon/flashdeconv/pkg/bitset"
)

// Engine is a constructed deconvolution kernel: an immutable parameter set,
// precomputed filter bank and averagine table, and a scan-linker FIFO that
// spans the run. Deconvolute is safe to call repeatedly but not
// concurrently — the scan linker carries state between MS1 calls.
type Engine struct {
	params  Params
	filters filterBank
	avg     averagineTable
	linker  *scanLinker
}

// NewEngine validates p and builds an Engine. Parameter inconsistencies
// (empty charge range, non-positive tolerance, inverted mass window)
// surface here, wrapped in ErrConfig, never at Deconvolute time.
func NewEngine(p Params) (*Engine, error) {
	p = p.WithDefaults()
	if err := p.validate(); err != nil {
		return nil, err
	}

	// The isotope index can never usefully exceed the trimmed averagine
	// length at the heaviest mass in the search window.
	maxIso := generateAveragineIsotopes(p.MaxMass, p.MaxIsotopeCount)
	if n := len(maxIso.intensities) - 1; p.MaxIsotopeCount > n && n > 0 {
		p.MaxIsotopeCount = n
	}

	return &Engine{
		params:  p,
		filters: newFilterBank(p),
		avg:     newAveragineTable(p.MinMass, p.MaxMass, p.MaxIsotopeCount),
		linker:  newScanLinker(p.OverlappedMS1Count),
	}, nil
}

// Deconvolute runs the full kernel pipeline on one spectrum: transform, m/z
// bins, candidate mass bins, finalisation, peak-group assembly, and
// scoring/filtering. An empty or sub-floor spectrum, or one yielding zero
// candidate mass bins, returns (nil, nil) — not an error.
func (e *Engine) Deconvolute(s Spectrum) ([]PeakGroup, error) {
	level := s.MSLevel
	if level != 1 && level != 2 {
		return nil, nil
	}

	p := e.params
	peaks := logMzTransform(s.Peaks, p.IntensityThreshold)
	if len(peaks) == 0 {
		return nil, nil
	}

	chargeRange := p.chargeRange()
	binWidth := p.binWidth(level)
	minContinuousChargePeakCount := p.MinContinuousChargePeakCount[level-1]

	tmpMax := chargeRange - minContinuousChargePeakCount
	if tmpMax < 0 {
		tmpMax = 0
	}
	if tmpMax >= len(e.filters.charge) {
		tmpMax = len(e.filters.charge) - 1
	}
	massBinMaxValue := math.Min(
		peaks[len(peaks)-1].logMz-e.filters.charge[tmpMax],
		math.Log(p.MaxMass),
	)

	tmpMin := minContinuousChargePeakCount - 1
	if tmpMin < 0 {
		tmpMin = 0
	}
	if tmpMin >= len(e.filters.charge) {
		tmpMin = len(e.filters.charge) - 1
	}
	massBinMinValue := peaks[0].logMz - e.filters.charge[tmpMin]

	mzBinMinValue := peaks[0].logMz
	mzBinMaxValue := peaks[len(peaks)-1].logMz

	geomMass := binGeometry{minValue: massBinMinValue, binWidth: binWidth}
	geomMz := binGeometry{minValue: mzBinMinValue, binWidth: binWidth}

	massBinCount := geomMass.index(massBinMaxValue) + 1
	mzBinCount := geomMz.index(mzBinMaxValue) + 1

	binOffsets := e.filters.binOffsets(mzBinMinValue, massBinMinValue, binWidth)
	hBinOffsets := e.filters.harmonicBinOffsets(mzBinMinValue, massBinMinValue, binWidth)

	mzBins, mzBinIntensities := buildMzBins(peaks, geomMz, mzBinCount)

	var carriedForward *bitset.Set
	if level == 1 {
		carriedForward = e.linker.carriedForward(massBinMinValue, binWidth, massBinCount)
	}

	candidates, massIntensities := candidateMassBins(
		mzBins, mzBinIntensities, geomMz, binOffsets, hBinOffsets,
		level, p.MinCharge, chargeRange, minContinuousChargePeakCount, massBinCount, mzBinCount,
	)

	binStart := geomMass.index(math.Log(p.MinMass))
	binEnd := geomMass.index(math.Log(p.MaxMass)) + 1
	if binEnd > massBinCount {
		binEnd = massBinCount
	}

	finalMassBins, massBinsForThisSpectrum, minChargeRanges, maxChargeRanges, mzChargeRanges := finalizeMassBins(
		candidates, massIntensities, mzBins, binOffsets, carriedForward,
		binStart, binEnd, chargeRange, massBinCount, mzBinCount,
	)

	if !finalMassBins.Any() {
		return nil, nil
	}

	groups := assembleGroups(
		finalMassBins, massIntensities, minChargeRanges, maxChargeRanges, mzChargeRanges,
		peaks, geomMz, geomMass, binOffsets, e.avg,
		level, p.MinCharge, chargeRange, mzBinCount, massBinCount, p.tolerance(level),
	)

	scored := scoreAndFilterGroups(groups, e.avg, p, level)

	if level == 1 {
		var ownEvidence []int
		for _, g := range scored {
			if massBinsForThisSpectrum.Test(g.massBinIndex) {
				ownEvidence = append(ownEvidence, g.massBinIndex)
			}
		}
		sort.Ints(ownEvidence)
		e.linker.push(ownEvidence, massBinMinValue)
	}

	if len(scored) == 0 {
		return nil, nil
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].massBinIndex < scored[j].massBinIndex })
	return scored, nil
}
