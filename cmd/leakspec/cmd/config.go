package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/leakspec/internal/config"
	"github.com/hugo-lorenzo-mato/leakspec/internal/fsutil"
)

const projectConfigFile = ".leakspec.yaml"

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show, validate or create configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default " + projectConfigFile + " to the current directory",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configValidateCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if file := loader.ConfigFile(); file != "" {
		fmt.Fprintf(out, "# loaded from %s\n", file)
	} else {
		fmt.Fprintln(out, "# built-in defaults")
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(loadedConfig); err != nil {
		return err
	}
	return enc.Close()
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	if err := config.ValidateConfig(loadedConfig); err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				fmt.Fprintf(cmd.OutOrStdout(), "  ✗ %s: %s (got: %v)\n", e.Field, e.Message, e.Value)
			}
			return verrs.DomainError()
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "  ✓ configuration valid")
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(projectConfigFile); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", projectConfigFile)
	}
	if err := fsutil.WriteFileAtomic(projectConfigFile, []byte(config.DefaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", projectConfigFile, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", projectConfigFile)
	return nil
}
