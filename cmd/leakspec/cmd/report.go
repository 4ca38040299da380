package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/leakspec/internal/report"
)

var (
	reportFormat      string
	reportFailOnLeaks bool
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Render a saved suite report",
	Long: `Render a suite report written by a test binary with report.path set.
Exits with an error when --fail-on-leaks is given and any test leaked.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", formatText, "output format (text, json, yaml)")
	reportCmd.Flags().BoolVar(&reportFailOnLeaks, "fail-on-leaks", false, "exit non-zero when the report has failures")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	r, err := report.Load(args[0])
	if err != nil {
		return err
	}
	if err := report.Render(cmd.OutOrStdout(), r, reportFormat); err != nil {
		return err
	}
	if reportFailOnLeaks && !r.Passed() {
		return fmt.Errorf("%d of %d examples leaked", len(r.Failures), r.ExamplesChecked)
	}
	return nil
}
