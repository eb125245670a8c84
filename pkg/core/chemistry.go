// Package core provides the shared spectral data model used by the
// deconvolution engine: centroid peaks, spectra, and the physical constants
// the kernel's mass arithmetic is built on.
package core

import "math"

const (
	// ProtonMass converts an observed m/z into the neutral mass carried by
	// a given charge state.
	ProtonMass = 1.007276

	// IsotopeSpacing is the nominal mass difference between consecutive
	// isotopologues, averaged over typical proteoform compositions.
	IsotopeSpacing = 1.00235
)

// RoundFloat rounds a float to n decimal places.
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
