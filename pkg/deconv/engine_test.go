package deconv

import (
	"math"
	"sort"
	"testing"
)

func testParams() Params {
	return Params{}.WithDefaults()
}

// syntheticEnvelope builds a sorted centroid spectrum for a neutral mass
// observed at the given charges, one peak per (charge, isotope) pair.
func syntheticEnvelope(mass float64, charges []int, isotopeIntensities []float64) []CentroidPeak {
	var peaks []CentroidPeak
	for _, z := range charges {
		for i, intensity := range isotopeIntensities {
			if intensity <= 0 {
				continue
			}
			mz := (mass+float64(i)*isotopeSpacing)/float64(z) + protonMass
			peaks = append(peaks, CentroidPeak{MZ: mz, Intensity: intensity})
		}
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].MZ < peaks[j].MZ })
	return peaks
}

func TestNewEngineRejectsBadParams(t *testing.T) {
	_, err := NewEngine(Params{MinCharge: 10, MaxCharge: 2})
	if err == nil {
		t.Fatal("expected an error for MaxCharge <= MinCharge")
	}
	if _, ok := err.(interface{ Unwrap() error }); !ok {
		t.Fatal("expected an unwrappable configError")
	}
}

func TestNewEngineAppliesDefaults(t *testing.T) {
	e, err := NewEngine(Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.params.MinCharge != 2 || e.params.MaxCharge != 35 {
		t.Fatalf("defaults not applied: %+v", e.params)
	}
}

// A single peak has no isotope partner at any charge, so no group is ever
// assembled from it.
func TestDeconvoluteSinglePeakYieldsNoGroups(t *testing.T) {
	e, err := NewEngine(testParams())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	s := Spectrum{
		MSLevel: 1,
		Peaks:   []CentroidPeak{{MZ: 500.0, Intensity: 1e4}},
	}

	groups, err := e.Deconvolute(s)
	if err != nil {
		t.Fatalf("Deconvolute: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected zero groups from an unsupported single peak, got %d", len(groups))
	}
}

func TestDeconvoluteUnsupportedMSLevelIsNoop(t *testing.T) {
	e, err := NewEngine(testParams())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	s := Spectrum{
		MSLevel: 3,
		Peaks:   []CentroidPeak{{MZ: 500.0, Intensity: 1e4}},
	}

	groups, err := e.Deconvolute(s)
	if err != nil {
		t.Fatalf("Deconvolute: %v", err)
	}
	if groups != nil {
		t.Fatalf("expected nil groups for an unsupported MS level, got %v", groups)
	}
}

func TestDeconvoluteEmptySpectrumIsNoop(t *testing.T) {
	e, err := NewEngine(testParams())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	groups, err := e.Deconvolute(Spectrum{MSLevel: 1})
	if err != nil {
		t.Fatalf("Deconvolute: %v", err)
	}
	if groups != nil {
		t.Fatalf("expected nil groups for an empty spectrum, got %v", groups)
	}
}

// minimalLadderParams loosens the qualification thresholds so a small
// three-charge, two-isotope ladder is enough evidence for one group.
func minimalLadderParams() Params {
	p := testParams()
	p.MinContinuousChargePeakCount = []int{2, 2}
	p.MinContinuousIsotopeCount = []int{1, 1}
	p.MinChargeCount = 1
	p.ChargeDistributionScoreThreshold = -1000
	p.IsotopeCosineThreshold = 0.5
	return p
}

// Three charge states each carrying a mono and first-isotope peak of the
// same neutral mass form the smallest ladder the candidate engine accepts.
func TestDeconvoluteMinimalChargeLadder(t *testing.T) {
	e, err := NewEngine(minimalLadderParams())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	const mass = 3000.0
	s := Spectrum{
		MSLevel: 1,
		Peaks:   syntheticEnvelope(mass, []int{5, 6, 7}, []float64{10000, 8000}),
	}

	groups, err := e.Deconvolute(s)
	if err != nil {
		t.Fatalf("Deconvolute: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected exactly one group, got %d", len(groups))
	}

	g := groups[0]
	if math.Abs(g.MonoMass-mass) > 0.01 {
		t.Errorf("MonoMass = %v, want %v within 0.01", g.MonoMass, mass)
	}
	if g.MinCharge < 5 || g.MaxCharge > 7 {
		t.Errorf("charge window [%d,%d] outside the synthesized range [5,7]", g.MinCharge, g.MaxCharge)
	}
	if g.IsotopeCosineScore <= 0.5 || g.IsotopeCosineScore > 1 {
		t.Errorf("IsotopeCosineScore = %v, want (0.5, 1]", g.IsotopeCosineScore)
	}

	var peakSum float64
	for _, p := range g.Peaks {
		peakSum += p.Intensity
	}
	if math.Abs(g.Intensity-peakSum) > 1e-6*peakSum {
		t.Errorf("group intensity %v does not match peak sum %v", g.Intensity, peakSum)
	}
}

// envelopeParams only relaxes the charge-count gates; the isotope-cosine
// threshold stays at its default so the averagine match is load-bearing.
func envelopeParams() Params {
	p := testParams()
	p.MinChargeCount = 1
	p.ChargeDistributionScoreThreshold = -1000
	return p
}

// A full averagine-shaped envelope across five charges must come back as
// the synthesized mass, with a near-perfect isotope cosine and no harmonic
// ghost at half or double the mass.
func TestDeconvoluteAveragineEnvelope(t *testing.T) {
	p := envelopeParams()
	e, err := NewEngine(p)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	const mass = 12000.0
	entry := newAveragineTable(p.MinMass, p.MaxMass, p.MaxIsotopeCount).get(mass)
	intensities := make([]float64, len(entry.intensities))
	for i, v := range entry.intensities {
		intensities[i] = v * 1e6
	}
	charges := []int{9, 10, 11, 12, 13}

	s := Spectrum{
		MSLevel: 1,
		Peaks:   syntheticEnvelope(mass, charges, intensities),
	}

	groups, err := e.Deconvolute(s)
	if err != nil {
		t.Fatalf("Deconvolute: %v", err)
	}
	if len(groups) == 0 {
		t.Fatal("expected groups from a full synthetic envelope")
	}

	tol := p.TolPPM[0] * 1e-6
	found := false
	for _, g := range groups {
		// every emitted group must agree with the synthesized mass; a
		// group near mass/2 or 2*mass would be a surviving harmonic.
		if math.Abs(g.MonoMass-mass) > 1.0 {
			t.Errorf("unexpected group at mass %v", g.MonoMass)
		}
		if g.IsotopeCosineScore < 0 || g.IsotopeCosineScore > 1 {
			t.Errorf("IsotopeCosineScore = %v out of [0,1]", g.IsotopeCosineScore)
		}
		for _, pk := range g.Peaks {
			m := (pk.MZ - protonMass) * float64(pk.Charge)
			if math.Abs(m-float64(pk.IsotopeIndex)*isotopeSpacing-g.MonoMass) > tol*m+1e-6 {
				t.Errorf("peak at mz %v charge %d isotope %d inconsistent with mono mass %v",
					pk.MZ, pk.Charge, pk.IsotopeIndex, g.MonoMass)
			}
		}
		if g.MinCharge == 9 && g.MaxCharge == 13 &&
			math.Abs(g.MonoMass-mass) < 0.01 && g.IsotopeCosineScore >= 0.99 {
			found = true
		}
	}
	if !found {
		t.Fatalf("no group spanning charges 9-13 with mono mass %v and cosine >= 0.99; got %+v", mass, groups)
	}
}

// Running the kernel twice on the same spectrum with fresh engines yields
// identical output.
func TestDeconvoluteIdempotentWithEmptyLinker(t *testing.T) {
	const mass = 3000.0
	s := Spectrum{
		MSLevel: 1,
		Peaks:   syntheticEnvelope(mass, []int{5, 6, 7}, []float64{10000, 8000}),
	}

	run := func() []PeakGroup {
		e, err := NewEngine(minimalLadderParams())
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		groups, err := e.Deconvolute(s)
		if err != nil {
			t.Fatalf("Deconvolute: %v", err)
		}
		return groups
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs differ in group count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].MonoMass != b[i].MonoMass || a[i].Intensity != b[i].Intensity ||
			len(a[i].Peaks) != len(b[i].Peaks) {
			t.Errorf("group %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// A second MS1 scan whose own evidence falls below the candidate threshold
// (two charges with equal intensities never witness an isotope pair) is
// recovered by the carry-forward from the preceding scan.
func TestDeconvoluteCarryForwardRecoversMarginalScan(t *testing.T) {
	const mass = 3000.0
	scan1 := Spectrum{
		MSLevel: 1,
		Peaks:   syntheticEnvelope(mass, []int{5, 6, 7}, []float64{10000, 8000}),
	}
	scan2 := Spectrum{
		MSLevel: 1,
		Peaks:   syntheticEnvelope(mass, []int{5, 6}, []float64{10000, 10000}),
	}

	p := minimalLadderParams()
	p.OverlappedMS1Count = 3

	alone, err := NewEngine(p)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	groups, err := alone.Deconvolute(scan2)
	if err != nil {
		t.Fatalf("Deconvolute scan2 alone: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no groups from the marginal scan alone, got %d", len(groups))
	}

	linked, err := NewEngine(p)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if groups, err = linked.Deconvolute(scan1); err != nil || len(groups) != 1 {
		t.Fatalf("scan1: groups=%d err=%v, want one group", len(groups), err)
	}
	groups, err = linked.Deconvolute(scan2)
	if err != nil {
		t.Fatalf("Deconvolute scan2 with history: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected the carried-forward group in scan2, got %d groups", len(groups))
	}
	if math.Abs(groups[0].MonoMass-mass) > 0.01 {
		t.Errorf("carried-forward MonoMass = %v, want %v", groups[0].MonoMass, mass)
	}
}

// MS2 spectra deconvolve independently: they never consult or mutate the
// scan linker.
func TestDeconvoluteMS2DoesNotTouchScanLinker(t *testing.T) {
	p := envelopeParams()
	e, err := NewEngine(p)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	const mass = 12000.0
	entry := newAveragineTable(p.MinMass, p.MaxMass, p.MaxIsotopeCount).get(mass)
	intensities := make([]float64, len(entry.intensities))
	for i, v := range entry.intensities {
		intensities[i] = v * 1e6
	}
	s := Spectrum{
		MSLevel: 2,
		Peaks:   syntheticEnvelope(mass, []int{9, 10, 11, 12, 13}, intensities),
	}

	groups, err := e.Deconvolute(s)
	if err != nil {
		t.Fatalf("Deconvolute: %v", err)
	}
	if len(groups) == 0 {
		t.Fatal("expected groups from an MS2 envelope")
	}
	if len(e.linker.entries) != 0 {
		t.Fatalf("expected scan linker untouched by an MS2 spectrum, got %d entries", len(e.linker.entries))
	}
}
