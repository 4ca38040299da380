package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LEAKSPEC_LOG_LEVEL.
const EnvPrefix = "LEAKSPEC"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: EnvPrefix,
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (LEAKSPEC_*)
// 3. Project config (.leakspec.yaml in current directory)
// 4. User config (~/.config/leakspec/.leakspec.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".leakspec")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "leakspec"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// AutomaticEnv does not split list values.
	if raw := os.Getenv(l.envPrefix + "_GOROUTINES_IGNORE_FUNCTIONS"); raw != "" {
		cfg.Goroutines.IgnoreFunctions = splitList(raw)
	}

	return &cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, f := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		out = append(out, f)
	}
	return out
}

// setDefaults configures default values. DefaultConfigYAML mirrors these.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")
	l.v.SetDefault("log.file", "")

	l.v.SetDefault("checks.descriptors", true)
	l.v.SetDefault("checks.tempfiles", true)
	l.v.SetDefault("checks.threads", true)
	l.v.SetDefault("checks.goroutines", true)
	l.v.SetDefault("checks.subprocesses", true)
	l.v.SetDefault("checks.environment", true)
	l.v.SetDefault("checks.argv", true)
	l.v.SetDefault("checks.flags", true)
	l.v.SetDefault("checks.encodings", true)
	l.v.SetDefault("checks.workdir", true)
	l.v.SetDefault("checks.tracepoints", true)

	l.v.SetDefault("subprocess.reap_grace", "100ms")
	l.v.SetDefault("goroutines.ignore_functions", []string{})
	l.v.SetDefault("nss.normalize", true)

	l.v.SetDefault("report.path", "")
	l.v.SetDefault("metrics.textfile", "")

	l.v.SetDefault("monitor.enabled", false)
	l.v.SetDefault("monitor.history_size", 500)
	l.v.SetDefault("monitor.fd_threshold_percent", 80)
	l.v.SetDefault("monitor.goroutine_threshold", 1000)
	l.v.SetDefault("monitor.memory_threshold_mb", 512)
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// IsSet checks if a key has been set.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// AllSettings returns all settings as a map.
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}
