package deconv

// logMzTransform converts a spectrum's centroid peaks into log-m/z peaks,
// dropping anything at or below the intensity floor and anything whose m/z
// does not exceed the proton mass (a peak the transform cannot take a
// logarithm of). Input ordered by m/z yields output ordered by logMz.
func logMzTransform(peaks []CentroidPeak, intensityFloor float64) []logMzPeak {
	out := make([]logMzPeak, 0, len(peaks))
	for _, peak := range peaks {
		if peak.Intensity <= intensityFloor {
			continue
		}
		lp, ok := newLogMzPeak(peak)
		if !ok {
			continue
		}
		out = append(out, lp)
	}
	return out
}
