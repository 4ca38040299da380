package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/leakspec/internal/core"
)

func TestLoader_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "auto" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "auto")
	}
	for check, on := range cfg.Checks.EnabledChecks() {
		if !on {
			t.Errorf("check %s disabled by default", check)
		}
	}
	if len(cfg.Checks.EnabledChecks()) != len(core.Checks) {
		t.Errorf("EnabledChecks() has %d entries, want %d", len(cfg.Checks.EnabledChecks()), len(core.Checks))
	}
	if got := cfg.Subprocess.ReapGraceDuration(0); got != 100*time.Millisecond {
		t.Errorf("ReapGraceDuration() = %v, want 100ms", got)
	}
	if !cfg.NSS.Normalize {
		t.Error("NSS.Normalize = false, want true")
	}
	if cfg.Report.Path != "" || cfg.Metrics.Textfile != "" {
		t.Errorf("expected no report or metrics output by default, got %q %q", cfg.Report.Path, cfg.Metrics.Textfile)
	}
	if cfg.Monitor.Enabled {
		t.Error("Monitor.Enabled = true, want false")
	}
	if cfg.Monitor.HistorySize != 500 {
		t.Errorf("Monitor.HistorySize = %d, want 500", cfg.Monitor.HistorySize)
	}

	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEAKSPEC_LOG_LEVEL", "debug")
	t.Setenv("LEAKSPEC_CHECKS_GOROUTINES", "false")
	t.Setenv("LEAKSPEC_SUBPROCESS_REAP_GRACE", "2s")
	t.Setenv("LEAKSPEC_GOROUTINES_IGNORE_FUNCTIONS", "pkg.worker, pkg.pump")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Checks.Goroutines {
		t.Error("Checks.Goroutines = true, want false")
	}
	if got := cfg.Subprocess.ReapGraceDuration(0); got != 2*time.Second {
		t.Errorf("ReapGraceDuration() = %v, want 2s", got)
	}
	want := []string{"pkg.worker", "pkg.pump"}
	if len(cfg.Goroutines.IgnoreFunctions) != len(want) {
		t.Fatalf("IgnoreFunctions = %v, want %v", cfg.Goroutines.IgnoreFunctions, want)
	}
	for i := range want {
		if cfg.Goroutines.IgnoreFunctions[i] != want[i] {
			t.Errorf("IgnoreFunctions[%d] = %q, want %q", i, cfg.Goroutines.IgnoreFunctions[i], want[i])
		}
	}
}

func TestLoader_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := `
log:
  level: warn
  format: json
checks:
  environment: false
  tracepoints: false
goroutines:
  ignore_functions:
    - internal/poll.runtime_pollWait
report:
  path: out/report.json
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader().WithConfigFile(path)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loader.ConfigFile() != path {
		t.Errorf("ConfigFile() = %q, want %q", loader.ConfigFile(), path)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want warn/json", cfg.Log)
	}
	enabled := cfg.Checks.EnabledChecks()
	if enabled[core.CheckEnvironment] || enabled[core.CheckTracepoints] {
		t.Errorf("expected environment and tracepoints disabled: %v", enabled)
	}
	if !enabled[core.CheckDescriptors] {
		t.Error("unset checks must keep their default")
	}
	if len(cfg.Goroutines.IgnoreFunctions) != 1 {
		t.Errorf("IgnoreFunctions = %v", cfg.Goroutines.IgnoreFunctions)
	}
	if cfg.Report.Path != "out/report.json" {
		t.Errorf("Report.Path = %q", cfg.Report.Path)
	}
}

func TestLoader_ProjectFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	if err := os.WriteFile(filepath.Join(dir, ".leakspec.yaml"), []byte("nss:\n  normalize: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NSS.Normalize {
		t.Error("NSS.Normalize = true, want false from project file")
	}
	if filepath.Base(loader.ConfigFile()) != ".leakspec.yaml" {
		t.Errorf("ConfigFile() = %q", loader.ConfigFile())
	}
}

func TestLoader_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("log: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader().WithConfigFile(path).Load(); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestLoader_Accessors(t *testing.T) {
	t.Chdir(t.TempDir())
	loader := NewLoader().WithEnvPrefix("LEAKSPEC_TEST")
	if _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}

	loader.Set("report.path", "r.json")
	if loader.Get("report.path") != "r.json" {
		t.Errorf("Get() = %v", loader.Get("report.path"))
	}
	if !loader.IsSet("report.path") {
		t.Error("IsSet() = false after Set")
	}
	if _, ok := loader.AllSettings()["checks"]; !ok {
		t.Error("AllSettings() missing checks")
	}
	if loader.Viper() == nil {
		t.Error("Viper() = nil")
	}
}

func TestDefaultConfigYAML_MatchesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := os.WriteFile(path, []byte(DefaultConfigYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	fromFile, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	fromDefaults, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if fromFile.Checks != fromDefaults.Checks {
		t.Errorf("checks differ: %+v vs %+v", fromFile.Checks, fromDefaults.Checks)
	}
	if fromFile.Monitor != fromDefaults.Monitor {
		t.Errorf("monitor differs: %+v vs %+v", fromFile.Monitor, fromDefaults.Monitor)
	}
	if fromFile.Subprocess != fromDefaults.Subprocess || fromFile.NSS != fromDefaults.NSS {
		t.Error("subprocess or nss section differs")
	}
}

func TestReapGraceDuration_Fallback(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "soon", "-1s"} {
		if got := (SubprocessConfig{ReapGrace: raw}).ReapGraceDuration(time.Second); got != time.Second {
			t.Errorf("ReapGraceDuration(%q) = %v, want fallback", raw, got)
		}
	}
}
