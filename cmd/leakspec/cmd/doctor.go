package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/leakspec/internal/diagnostics"
)

var (
	doctorFormat string
	doctorStrict bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check platform capabilities",
	Long: `Probe the OS and runtime mechanisms the leak checker relies on. Checks
backed by a missing capability silently report nothing.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", formatText, "output format (text, json, yaml)")
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "fail when any capability is unavailable")
	rootCmd.AddCommand(doctorCmd)
}

type doctorResult struct {
	Capabilities []diagnostics.Capability `json:"capabilities" yaml:"capabilities"`
	Host         diagnostics.HostInfo     `json:"host" yaml:"host"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	res := doctorResult{
		Capabilities: diagnostics.Probe(ctx),
		Host:         diagnostics.CollectHostInfo(ctx),
	}

	if err := writeFormatted(cmd.OutOrStdout(), doctorFormat, res, func(w io.Writer) error {
		return printDoctor(w, res)
	}); err != nil {
		return err
	}

	if doctorStrict {
		for _, c := range res.Capabilities {
			if err := c.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

func printDoctor(w io.Writer, res doctorResult) error {
	fmt.Fprintln(w, "Checking capabilities...")
	fmt.Fprintln(w)

	missing := 0
	for _, c := range res.Capabilities {
		icon := "✓"
		if !c.Available {
			icon = "○"
			missing++
		}
		if c.Detail != "" {
			fmt.Fprintf(w, "  %s %s (%s)\n", icon, c.Name, c.Detail)
		} else {
			fmt.Fprintf(w, "  %s %s\n", icon, c.Name)
		}
	}
	fmt.Fprintln(w)

	h := res.Host
	fmt.Fprintln(w, "Host:")
	fmt.Fprintf(w, "  platform:    %s/%s\n", h.OS, h.Arch)
	if h.CPUModel != "" {
		fmt.Fprintf(w, "  cpu:         %s (%d cores, %d threads)\n", h.CPUModel, h.CPUCores, h.CPUThreads)
	}
	if h.MemTotalMB > 0 {
		fmt.Fprintf(w, "  memory:      %.0f MB (%.1f%% used)\n", h.MemTotalMB, h.MemPercent)
	}
	if h.TempDiskTotalGB > 0 {
		fmt.Fprintf(w, "  temp dir:    %s (%.1f GB, %.1f%% used)\n", h.TempDir, h.TempDiskTotalGB, h.TempDiskPercent)
	}
	if h.MaxFDs > 0 {
		fmt.Fprintf(w, "  descriptors: %d open, limit %d\n", h.OpenFDs, h.MaxFDs)
	}
	fmt.Fprintf(w, "  goroutines:  %d\n", h.Goroutines)
	fmt.Fprintln(w)

	if missing == 0 {
		fmt.Fprintln(w, "All capabilities available")
	} else {
		fmt.Fprintf(w, "%d capabilities unavailable; their checks report nothing\n", missing)
	}
	return nil
}
