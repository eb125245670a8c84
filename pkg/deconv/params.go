package deconv

// hCharges are the harmonic charges the filter bank guards against: peaks
// that mimic a real charge state at half, a third, or a fifth of its mass.
var hCharges = []int{2, 3, 5}

// Params is the immutable parameter set an Engine is built from. Fields
// indexed "per MS level" use index 0 for MS1 and index 1 for MS2.
// WithDefaults fills a per-level slice only when it is empty; a non-empty
// slice must carry a value for both levels, and NewEngine rejects a shorter
// one.
type Params struct {
	MinCharge int
	MaxCharge int

	MinMass float64
	MaxMass float64

	// TolPPM is the per-level mass-measurement tolerance, in parts per
	// million. Bin width is derived as 0.5 / tolerance.
	TolPPM []float64

	MinContinuousChargePeakCount []int
	MinContinuousIsotopeCount    []int

	MinChargeCount  int
	MaxIsotopeCount int
	MaxMassCount    int // -1 means unbounded

	IsotopeCosineThreshold           float64
	ChargeDistributionScoreThreshold int
	IntensityThreshold               float64

	// OverlappedMS1Count bounds the scan-linker FIFO depth.
	OverlappedMS1Count int
}

// WithDefaults returns a copy of p with zero-valued fields filled in with
// defaults suited to top-down proteoform data: charges 2-35, masses
// 500-50000 Da, 5 ppm tolerance, and an isotope-cosine floor of 0.7.
func (p Params) WithDefaults() Params {
	if p.MinCharge == 0 {
		p.MinCharge = 2
	}
	if p.MaxCharge == 0 {
		p.MaxCharge = 35
	}
	if p.MinMass == 0 {
		p.MinMass = 500
	}
	if p.MaxMass == 0 {
		p.MaxMass = 50000
	}
	if len(p.TolPPM) == 0 {
		p.TolPPM = []float64{5, 5}
	}
	if len(p.MinContinuousChargePeakCount) == 0 {
		p.MinContinuousChargePeakCount = []int{3, 3}
	}
	if len(p.MinContinuousIsotopeCount) == 0 {
		p.MinContinuousIsotopeCount = []int{3, 3}
	}
	if p.MinChargeCount == 0 {
		p.MinChargeCount = 7
	}
	if p.MaxIsotopeCount == 0 {
		p.MaxIsotopeCount = 50
	}
	if p.MaxMassCount == 0 {
		p.MaxMassCount = -1
	}
	if p.IsotopeCosineThreshold == 0 {
		p.IsotopeCosineThreshold = 0.7
	}
	if p.IntensityThreshold == 0 {
		p.IntensityThreshold = 100
	}
	if p.OverlappedMS1Count == 0 {
		p.OverlappedMS1Count = 20
	}
	return p
}

// chargeRange is maxCharge - minCharge, the width of the active charge
// window.
func (p Params) chargeRange() int {
	return p.MaxCharge - p.MinCharge
}

// binWidth returns bw[level] = 0.5 / tolerance for the given 1-indexed MS
// level.
func (p Params) binWidth(level int) float64 {
	return 0.5 / (p.TolPPM[level-1] * 1e-6)
}

func (p Params) tolerance(level int) float64 {
	return p.TolPPM[level-1] * 1e-6
}

// validate checks the construction-time invariants. Inconsistent
// parameters fail here, wrapped in ErrConfig, never at Deconvolute time.
func (p Params) validate() error {
	if p.MaxCharge <= p.MinCharge {
		return newConfigError("MaxCharge", "must be greater than MinCharge")
	}
	if p.MinMass <= 0 || p.MaxMass <= p.MinMass {
		return newConfigError("MaxMass", "must be greater than MinMass, which must be positive")
	}
	for _, t := range p.TolPPM {
		if t <= 0 {
			return newConfigError("TolPPM", "every per-level tolerance must be positive")
		}
	}
	if len(p.TolPPM) < 2 {
		return newConfigError("TolPPM", "must provide a tolerance for MS1 and MS2")
	}
	if len(p.MinContinuousChargePeakCount) < 2 {
		return newConfigError("MinContinuousChargePeakCount", "must provide a threshold for MS1 and MS2")
	}
	if len(p.MinContinuousIsotopeCount) < 2 {
		return newConfigError("MinContinuousIsotopeCount", "must provide a threshold for MS1 and MS2")
	}
	if p.IntensityThreshold < 0 {
		return newConfigError("IntensityThreshold", "must be non-negative")
	}
	return nil
}
