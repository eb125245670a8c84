package cmd

import (
	"fmt"
	"os"

	"github.com/jeongkyowon/flashdeconv/pkg/deconv"
	"github.com/jeongkyowon/flashdeconv/pkg/reader/centroid"
	"github.com/jeongkyowon/flashdeconv/pkg/writer/sqlite"
	"github.com/spf13/cobra"
)

var deconvolveCmd = &cobra.Command{
	Use:   "deconvolve",
	Short: "Deconvolve a centroid spectrum file into neutral mass peak groups",
	Long: `Deconvolve runs the FLASHDeconv-style kernel over every spectrum in a
centroid file and writes the resulting peak groups to a SQLite database.

Examples:
  # Deconvolve with default parameters
  flashdeconv deconvolve --in run.centroid --out run.db

  # Tighten MS1 tolerance and require longer charge-state runs
  flashdeconv deconvolve --in run.centroid --out run.db --tol-ms1 3 --min-charge-count 10`,
	RunE: runDeconvolve,
}

func runDeconvolve(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}

	params := deconv.Params{
		MinCharge: minCharge,
		MaxCharge: maxCharge,

		MinMass: minMass,
		MaxMass: maxMass,

		TolPPM: []float64{tolPPM1, tolPPM2},

		MinContinuousChargePeakCount: []int{minContinuousChargePeakCount1, minContinuousChargePeakCount2},
		MinContinuousIsotopeCount:    []int{minContinuousIsotopeCount1, minContinuousIsotopeCount2},

		MinChargeCount:  minChargeCount,
		MaxIsotopeCount: maxIsotopeCount,
		MaxMassCount:    maxMassCount,

		IsotopeCosineThreshold:           isotopeCosineThreshold,
		ChargeDistributionScoreThreshold: chargeDistributionScoreThreshold,
		IntensityThreshold:               intensityThreshold,

		OverlappedMS1Count: overlappedMS1Count,
	}

	engine, err := deconv.NewEngine(params)
	if err != nil {
		return fmt.Errorf("failed to build deconvolution engine: %w", err)
	}

	inFile, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	writer, err := sqlite.NewWriter(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	reader := centroid.NewReader(inFile)

	fmt.Printf("Deconvolving %s into %s...\n", inputFile, outputFile)

	scanCount := 0
	massCount := 0

	for reader.Next() {
		spec := reader.Spectrum()

		if err := spec.Validate(); err != nil {
			return fmt.Errorf("invalid spectrum in scan %d: %w", scanCount+1, err)
		}

		groups, err := engine.Deconvolute(*spec)
		if err != nil {
			return fmt.Errorf("failed to deconvolve scan %d: %w", scanCount+1, err)
		}

		if err := writer.WriteScan(spec.RT, spec.MSLevel, groups); err != nil {
			return fmt.Errorf("failed to write scan %d: %w", scanCount+1, err)
		}

		massCount += len(groups)
		scanCount++
		if scanCount%1000 == 0 {
			fmt.Printf("Processed %d scans...\n", scanCount)
		}
	}

	if err := reader.Err(); err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	fmt.Printf("\nDeconvolution complete!\n")
	fmt.Printf("Scans processed: %d\n", scanCount)
	fmt.Printf("Masses found: %d\n", massCount)
	fmt.Printf("Output: %s\n", outputFile)

	return nil
}
