package centroid

import (
	"strings"
	"testing"
)

func TestReaderParsesMultipleSpectra(t *testing.T) {
	input := `RT: 10.5
MSLevel: 1
Peaks: 2
500.0 1000.0
500.5 2000.0
RT: 11.0
MSLevel: 2
Peaks: 1
300.25 500.0
`
	r := NewReader(strings.NewReader(input))

	var specs []struct {
		rt    float64
		level int
		n     int
	}
	for r.Next() {
		s := r.Spectrum()
		specs = append(specs, struct {
			rt    float64
			level int
			n     int
		}{s.RT, s.MSLevel, len(s.Peaks)})
	}
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(specs) != 2 {
		t.Fatalf("expected 2 spectra, got %d", len(specs))
	}
	if specs[0].rt != 10.5 || specs[0].level != 1 || specs[0].n != 2 {
		t.Errorf("unexpected first spectrum: %+v", specs[0])
	}
	if specs[1].rt != 11.0 || specs[1].level != 2 || specs[1].n != 1 {
		t.Errorf("unexpected second spectrum: %+v", specs[1])
	}
}

func TestReaderEmptySpectrumIsValid(t *testing.T) {
	input := "RT: 1.0\nMSLevel: 1\nPeaks: 0\n"
	r := NewReader(strings.NewReader(input))

	if !r.Next() {
		t.Fatalf("expected one spectrum, got none (err=%v)", r.Err())
	}
	if len(r.Spectrum().Peaks) != 0 {
		t.Fatalf("expected zero peaks, got %d", len(r.Spectrum().Peaks))
	}
	if r.Next() {
		t.Fatal("expected no further spectra")
	}
}

func TestReaderRejectsMalformedPeakLine(t *testing.T) {
	input := "RT: 1.0\nMSLevel: 1\nPeaks: 1\nnot-a-number\n"
	r := NewReader(strings.NewReader(input))

	for r.Next() {
	}
	if r.Err() == nil {
		t.Fatal("expected an error for a malformed peak line")
	}
}

func TestReaderNoInputYieldsNoSpectra(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	if r.Next() {
		t.Fatal("expected no spectra from empty input")
	}
	if r.Err() != nil {
		t.Fatalf("expected no error for empty input, got %v", r.Err())
	}
}
