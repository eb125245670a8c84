package deconv

import (
	"math"

	"github.com/jeongkyowon/flashdeconv/pkg/core"
)

// Spectrum and CentroidPeak are the engine's input shape. They are the same
// type as pkg/core's spectral IR: the deconvolver consumes whatever a
// reader or caller already validated with core.Spectrum.Validate.
type Spectrum = core.Spectrum
type CentroidPeak = core.CentroidPeak

// protonMass and isotopeSpacing are the two physical constants the kernel's
// mass arithmetic runs on.
const (
	protonMass     = core.ProtonMass
	isotopeSpacing = core.IsotopeSpacing
)

// logMzPeak is a peak transformed into log-m/z space. Its charge and
// isotopeIndex fields stay zero: the assembler records the charge and
// isotope index of a claimed peak on a GroupPeak instead.
type logMzPeak struct {
	logMz        float64
	mz           float64
	intensity    float64
	charge       int
	isotopeIndex int
}

// mass returns the peak's contribution to a neutral mass, given the charge
// it has been assigned.
func (p logMzPeak) mass() float64 {
	return math.Exp(p.logMz) * float64(p.charge)
}

func newLogMzPeak(peak CentroidPeak) (logMzPeak, bool) {
	if peak.MZ <= protonMass {
		return logMzPeak{}, false
	}
	return logMzPeak{
		logMz:     math.Log(peak.MZ - protonMass),
		mz:        peak.MZ,
		intensity: peak.Intensity,
	}, true
}

// GroupPeak is one observed centroid peak attributed to a PeakGroup, tagged
// with the charge state and isotope index the assembler assigned it.
type GroupPeak struct {
	MZ           float64
	Charge       int
	IsotopeIndex int
	Intensity    float64
}

// PeakGroup is a set of peaks witnessing a single neutral mass across
// charge states and isotopologues.
type PeakGroup struct {
	MonoMass           float64
	Intensity          float64
	ChargeDistScore    int
	IsotopeCosineScore float64
	MinCharge          int
	MaxCharge          int
	Peaks              []GroupPeak

	// PerChargeNoise holds, per active charge index, the summed squared
	// intensity of peaks rejected during the envelope walk at that charge.
	PerChargeNoise []float64

	// massBinIndex is the mass bin this group was assembled from; kept for
	// scan-linker bookkeeping and dropped before the group is returned to
	// the caller only in the sense that callers never need to read it.
	massBinIndex int
}

// NominalMass rounds a monoisotopic mass to its nominal (integer) mass, the
// way a mass-indexed persistence layer keys rows without needing a full
// feature tracer.
func NominalMass(mass float64) int {
	return int(math.Round(mass * 0.999497))
}

// binGeometry maps between a log-space value and an integer bin index at a
// fixed bin width.
type binGeometry struct {
	minValue float64
	binWidth float64
}

func (g binGeometry) index(v float64) int {
	if v < g.minValue {
		return 0
	}
	return int((v-g.minValue)*g.binWidth + 0.5)
}

func (g binGeometry) value(i int) float64 {
	return g.minValue + float64(i)/g.binWidth
}
