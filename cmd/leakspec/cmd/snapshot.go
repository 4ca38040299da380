package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/leakspec/internal/diagnostics"
)

var snapshotFormat string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print a resource snapshot of this process",
	Long: `Capture the same snapshot the leak checker takes between tests, for the
leakspec process itself. Useful to see what a platform exposes.`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotFormat, "format", formatText, "output format (text, json, yaml)")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	snap := diagnostics.Capture(diagnostics.DefaultSources(), diagnostics.NoPreviousCount)
	sum := snap.Summarize()
	return writeFormatted(cmd.OutOrStdout(), snapshotFormat, sum, func(w io.Writer) error {
		return printSnapshot(w, sum)
	})
}

func printSnapshot(w io.Writer, s diagnostics.Summary) error {
	fds := make([]string, 0, len(s.Descriptors))
	for _, fd := range s.Descriptors {
		desc := diagnostics.DescribeDescriptor(fd)
		if desc == "" {
			fds = append(fds, fmt.Sprint(fd))
		} else {
			fds = append(fds, fmt.Sprintf("%d (%s)", fd, desc))
		}
	}

	fmt.Fprintf(w, "captured:    %s\n", s.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "descriptors: %d\n", len(s.Descriptors))
	for _, fd := range fds {
		fmt.Fprintf(w, "  %s\n", fd)
	}
	fmt.Fprintf(w, "tempfiles:   %d created, %d live\n", s.TempFileCount, len(s.TempFiles))
	fmt.Fprintf(w, "threads:     %d\n", len(s.Threads))
	fmt.Fprintf(w, "goroutines:  %d\n", s.Goroutines)
	fmt.Fprintf(w, "env vars:    %d\n", s.EnvKeys)
	fmt.Fprintf(w, "args:        %s\n", strings.Join(s.Args, " "))
	fmt.Fprintf(w, "flags:       verbose=%t debug=%t gomaxprocs=%d\n", s.Flags.Verbose, s.Flags.Debug, s.GOMAXPROCS)
	fmt.Fprintf(w, "encodings:   external=%q internal=%q\n", s.Encodings.External, s.Encodings.Internal)
	fmt.Fprintf(w, "workdir:     %s\n", s.Workdir)
	return nil
}
