package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/leakspec/internal/config"
	"github.com/hugo-lorenzo-mato/leakspec/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// Set by PersistentPreRunE.
	loadedConfig *config.Config
	loader       *config.Loader
	logger       *logging.Logger

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string
)

var rootCmd = &cobra.Command{
	Use:   "leakspec",
	Short: "Resource leak checker for Go test suites",
	Long: `leakspec inspects the process resources its leak checker tracks between
tests: descriptors, temp files, goroutines, child processes, environment and
other process-wide state.

Use the leakcheck package from a TestMain to check a suite; this command
probes the platform, prints snapshots and renders saved suite reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion injects build information.
func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// GetVersion returns the application version string.
func GetVersion() string {
	return appVersion
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: .leakspec.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")
}

func initConfig(cmd *cobra.Command) error {
	v := viper.New()
	// Errors are nil when the flag exists.
	_ = v.BindPFlag("log.level", cmd.Root().PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", cmd.Root().PersistentFlags().Lookup("log-format"))

	loader = config.NewLoaderWithViper(v)
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	loadedConfig = cfg

	logger = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	logger.Debug("configuration loaded", "file", loader.ConfigFile())
	return nil
}
