package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hugo-lorenzo-mato/leakspec/internal/core"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// DomainError converts the collected errors into a validation DomainError.
func (e ValidationErrors) DomainError() *core.DomainError {
	return core.ErrValidation(core.CodeInvalidConfig, e.Error()).WithCause(e)
}

// Validator validates configuration. Range and enum constraints live in the
// struct tags; cross-field and filesystem rules are checked by hand.
type Validator struct {
	structs *validator.Validate
	errors  ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{
		structs: v,
		errors:  make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateTags(cfg)
	v.validateLog(&cfg.Log)
	v.validateSubprocess(&cfg.Subprocess)
	v.validateGoroutines(&cfg.Goroutines)
	v.validateOutputPath("report.path", cfg.Report.Path)
	v.validateOutputPath("metrics.textfile", cfg.Metrics.Textfile)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateTags(cfg *Config) {
	err := v.structs.Struct(cfg)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.addError("config", nil, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		// Namespace is "Config.log.level"; drop the root type name.
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		v.addError(field, fe.Value(), tagMessage(fe))
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "required":
		return "required"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	default:
		return "failed " + fe.Tag() + " constraint"
	}
}

func (v *Validator) validateLog(cfg *LogConfig) {
	if cfg.File != "" && !isValidPath(cfg.File) {
		v.addError("log.file", cfg.File, "invalid file path")
	}
}

func (v *Validator) validateSubprocess(cfg *SubprocessConfig) {
	if cfg.ReapGrace == "" {
		return
	}
	d, err := time.ParseDuration(cfg.ReapGrace)
	if err != nil {
		v.addError("subprocess.reap_grace", cfg.ReapGrace, "invalid duration format")
		return
	}
	if d < 0 {
		v.addError("subprocess.reap_grace", cfg.ReapGrace, "must not be negative")
	}
}

func (v *Validator) validateGoroutines(cfg *GoroutinesConfig) {
	seen := make(map[string]bool, len(cfg.IgnoreFunctions))
	for _, fn := range cfg.IgnoreFunctions {
		if seen[fn] {
			v.addError("goroutines.ignore_functions", fn, "duplicate function")
		}
		seen[fn] = true
	}
}

func (v *Validator) validateOutputPath(field, path string) {
	if path != "" && !isValidPath(path) {
		v.addError(field, path, "invalid file path")
	}
}

func isValidPath(path string) bool {
	dir := filepath.Dir(path)
	_, err := os.Stat(dir)
	return err == nil || os.IsNotExist(err)
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
