// Package centroid provides a streaming reader for a line-oriented,
// multi-spectrum centroid peak format: an "RT:"/"MSLevel:"/"Peaks:" header
// block per spectrum, followed by that many "mz intensity" peak lines.
package centroid

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jeongkyowon/flashdeconv/pkg/core"
)

// Reader provides streaming access to a centroid spectrum file.
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new centroid reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next advances to the next spectrum. Returns false when no more spectra
// remain or a read error occurred; check Err afterwards.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentSpec = spec
	return true
}

// Spectrum returns the spectrum most recently read by Next.
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading.
func (r *Reader) Err() error {
	return r.err
}

// readSpectrum reads one RT:/MSLevel:/Peaks: block.
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	spec := &core.Spectrum{}

	var numPeaks int
	inPeaks := false
	peaksRead := 0
	sawHeader := false

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		if line == "" && !sawHeader {
			continue
		}

		if inPeaks && peaksRead >= numPeaks {
			return spec, nil
		}

		if !inPeaks {
			switch {
			case strings.HasPrefix(line, "RT:"):
				sawHeader = true
				v := strings.TrimSpace(strings.TrimPrefix(line, "RT:"))
				rt, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid RT: %w", r.lineNum, err)
				}
				spec.RT = rt

			case strings.HasPrefix(line, "MSLevel:"):
				sawHeader = true
				v := strings.TrimSpace(strings.TrimPrefix(line, "MSLevel:"))
				level, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid MSLevel: %w", r.lineNum, err)
				}
				spec.MSLevel = level

			case strings.HasPrefix(line, "Peaks:"):
				sawHeader = true
				v := strings.TrimSpace(strings.TrimPrefix(line, "Peaks:"))
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid Peaks count: %w", r.lineNum, err)
				}
				numPeaks = n
				inPeaks = true
				spec.Peaks = make([]core.CentroidPeak, 0, numPeaks)
				if numPeaks == 0 {
					return spec, nil
				}
			}
		} else {
			peak, err := r.parsePeak(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			spec.Peaks = append(spec.Peaks, peak)
			peaksRead++

			if peaksRead >= numPeaks {
				return spec, nil
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if sawHeader {
		return spec, nil
	}

	return nil, io.EOF
}

func (r *Reader) parsePeak(line string) (core.CentroidPeak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.CentroidPeak{}, fmt.Errorf("invalid peak line, expected at least 2 fields")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.CentroidPeak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.CentroidPeak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	return core.CentroidPeak{MZ: mz, Intensity: intensity}, nil
}
