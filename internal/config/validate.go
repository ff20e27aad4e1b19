package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// ValidationSeverity indicates whether a validation issue is an error or warning.
type ValidationSeverity string

const (
	// SeverityError indicates a fatal validation issue; the configuration is unusable.
	SeverityError ValidationSeverity = "error"
	// SeverityWarning indicates an informational validation issue; the configuration
	// works but may have problems.
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue represents a single validation finding.
type ValidationIssue struct {
	Severity ValidationSeverity
	Field    string
	Message  string
}

// ValidationResult holds all validation findings.
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasErrors returns true if any issue has error severity.
func (vr *ValidationResult) HasErrors() bool {
	for _, issue := range vr.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (vr *ValidationResult) Errors() []ValidationIssue {
	var errs []ValidationIssue
	for _, issue := range vr.Issues {
		if issue.Severity == SeverityError {
			errs = append(errs, issue)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (vr *ValidationResult) Warnings() []ValidationIssue {
	var warns []ValidationIssue
	for _, issue := range vr.Issues {
		if issue.Severity == SeverityWarning {
			warns = append(warns, issue)
		}
	}
	return warns
}

// Validate checks the resolved configuration's flag preconditions
// (required flags and flag interdependencies) and reports unknown
// dyno.toml keys.
//
//   - target and forc_path are required.
//   - data_only requires flamegraph.
//   - max_iterations is only meaningful with hyperfine, and must be positive.
func Validate(cfg *Config, meta *toml.MetaData) *ValidationResult {
	vr := &ValidationResult{}

	if cfg == nil {
		addError(vr, "", "configuration is nil")
		return vr
	}

	if cfg.Target == "" {
		addError(vr, "target", "is required (-t/--target or dyno.toml target)")
	} else if info, err := os.Stat(cfg.Target); err != nil {
		addError(vr, "target", fmt.Sprintf("path %q does not exist", cfg.Target))
	} else if !info.IsDir() {
		addError(vr, "target", fmt.Sprintf("path %q is not a directory", cfg.Target))
	}

	if cfg.ForcPath == "" {
		addError(vr, "forc_path", "is required (-f/--forc-path or dyno.toml forc_path)")
	} else if _, err := os.Stat(cfg.ForcPath); err != nil {
		addError(vr, "forc_path", fmt.Sprintf("path %q does not exist", cfg.ForcPath))
	}

	if cfg.OutputFolder == "" {
		addError(vr, "output_folder", "must not be empty")
	}

	if cfg.DataOnly && !cfg.Flamegraph {
		addError(vr, "data_only", "requires flamegraph to also be enabled")
	}

	if cfg.MaxIterations <= 0 {
		addError(vr, "max_iterations", "must be a positive integer")
	}

	validateUnknownKeys(vr, meta)

	return vr
}

// validateUnknownKeys checks for TOML keys that did not map to any config struct field.
func validateUnknownKeys(vr *ValidationResult, meta *toml.MetaData) {
	if meta == nil {
		return
	}
	for _, key := range meta.Undecoded() {
		path := strings.Join(key, ".")
		addWarning(vr, path, "unknown configuration key")
	}
}

func addError(vr *ValidationResult, field, message string) {
	vr.Issues = append(vr.Issues, ValidationIssue{Severity: SeverityError, Field: field, Message: message})
}

func addWarning(vr *ValidationResult, field, message string) {
	vr.Issues = append(vr.Issues, ValidationIssue{Severity: SeverityWarning, Field: field, Message: message})
}
