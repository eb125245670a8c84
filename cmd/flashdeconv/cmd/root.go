// Package cmd provides CLI command implementations.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Flags for the deconvolve command
	inputFile  string
	outputFile string

	minCharge int
	maxCharge int

	minMass float64
	maxMass float64

	tolPPM1 float64
	tolPPM2 float64

	minContinuousChargePeakCount1 int
	minContinuousChargePeakCount2 int
	minContinuousIsotopeCount1    int
	minContinuousIsotopeCount2    int

	minChargeCount  int
	maxIsotopeCount int
	maxMassCount    int

	isotopeCosineThreshold           float64
	chargeDistributionScoreThreshold int
	intensityThreshold               float64

	overlappedMS1Count int
	threads            int
)

var rootCmd = &cobra.Command{
	Use:   "flashdeconv",
	Short: "flashdeconv - top-down mass spectrum deconvolution tool",
	Long: `flashdeconv deconvolves top-down LC-MS/MS spectra into neutral mass
peak groups, using a bank of additive charge filters to vote mass bins into
existence, reject harmonic artifacts, and reconstruct isotope envelopes
scored against an averagine isotope-distribution table.`,
	Version: "1.0.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(deconvolveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summarizeCmd)

	flags := deconvolveCmd.Flags()
	flags.StringVarP(&inputFile, "in", "i", "", "Input centroid spectrum file (required)")
	flags.StringVarP(&outputFile, "out", "o", "", "Output SQLite database file (required)")

	flags.IntVar(&minCharge, "min-charge", 2, "Minimum charge state considered")
	flags.IntVar(&maxCharge, "max-charge", 35, "Upper bound of the charge window, exclusive (charges min-charge to max-charge-1 are considered)")

	flags.Float64Var(&minMass, "min-mass", 500, "Minimum neutral mass (Da)")
	flags.Float64Var(&maxMass, "max-mass", 50000, "Maximum neutral mass (Da)")

	flags.Float64Var(&tolPPM1, "tol-ms1", 5, "MS1 mass tolerance (ppm)")
	flags.Float64Var(&tolPPM2, "tol-ms2", 5, "MS2 mass tolerance (ppm)")

	flags.IntVar(&minContinuousChargePeakCount1, "min-continuous-charge-peak-count-ms1", 3, "MS1 minimum continuous charge-peak count")
	flags.IntVar(&minContinuousChargePeakCount2, "min-continuous-charge-peak-count-ms2", 3, "MS2 minimum continuous charge-peak count")
	flags.IntVar(&minContinuousIsotopeCount1, "min-continuous-isotope-count-ms1", 3, "MS1 minimum continuous isotope count")
	flags.IntVar(&minContinuousIsotopeCount2, "min-continuous-isotope-count-ms2", 3, "MS2 minimum continuous isotope count")

	flags.IntVar(&minChargeCount, "min-charge-count", 7, "Minimum qualifying charge-state run length")
	flags.IntVar(&maxIsotopeCount, "max-isotope-count", 50, "Maximum isotope index considered")
	flags.IntVar(&maxMassCount, "max-mass-count", -1, "Maximum masses reported per scan (-1 = unbounded)")

	flags.Float64Var(&isotopeCosineThreshold, "isotope-cosine-threshold", 0.7, "Minimum isotope cosine score")
	flags.IntVar(&chargeDistributionScoreThreshold, "charge-dist-score-threshold", 0, "Minimum charge distribution score")
	flags.Float64Var(&intensityThreshold, "intensity-threshold", 100, "Peak intensity floor")

	flags.IntVar(&overlappedMS1Count, "overlapped-ms1-count", 20, "Scan-linker FIFO depth across MS1 scans")
	flags.IntVar(&threads, "threads", 1, "Number of worker threads (currently not implemented)")

	deconvolveCmd.MarkFlagRequired("in")
	deconvolveCmd.MarkFlagRequired("out")
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Placeholder for input file validation (not implemented)",
	Long:  `Validate takes one file argument but does not read it: it prints a notice that validation is not implemented and exits successfully.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(os.Stderr, "Validation not yet implemented\n")
		return nil
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Placeholder for spectrum file summaries (not implemented)",
	Long:  `Summarize takes one file argument but does not read it: it prints a notice that summarization is not implemented and exits successfully.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(os.Stderr, "Summarization not yet implemented\n")
		return nil
	},
}
