package config

// DefaultConfigYAML is written by `leakspec config init`. Keep it in sync with
// setDefaults.
const DefaultConfigYAML = `# leakspec configuration
#
# Values not specified here use the built-in defaults. Every key can also be
# set through the environment, e.g. LEAKSPEC_CHECKS_GOROUTINES=false.

log:
  level: info
  # auto | text | json
  format: auto

# Each check category can be switched off independently.
checks:
  descriptors: true
  tempfiles: true
  threads: true
  goroutines: true
  subprocesses: true
  environment: true
  argv: true
  flags: true
  encodings: true
  workdir: true
  tracepoints: true

subprocess:
  # How long to wait for exited children to become reapable.
  reap_grace: 100ms

goroutines:
  # Functions whose goroutines are never reported as leaked.
  ignore_functions: []

nss:
  # Force files-only name service lookups before the first example.
  normalize: true

report:
  # Suite report written at the end of the run (JSON).
  path: ""

metrics:
  # Prometheus textfile with leak counters.
  textfile: ""

monitor:
  enabled: false
  history_size: 500
  fd_threshold_percent: 80
  goroutine_threshold: 1000
  memory_threshold_mb: 512
`
