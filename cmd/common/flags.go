package common

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// CommonFlags contains flags that are shared across the commands
type CommonFlags struct {
	EnvFile *string
	Verbose *bool
	Version *bool
}

// RegisterCommonFlags registers the shared flags on fs
func RegisterCommonFlags(fs *flag.FlagSet) *CommonFlags {
	return &CommonFlags{
		EnvFile: fs.String("env", ".env", "Environment file path"),
		Verbose: fs.Bool("verbose", false, "Enable debug logging"),
		Version: fs.Bool("version", false, "Show version information"),
	}
}

// LogLevel maps the verbose flag to a log level
func (c *CommonFlags) LogLevel() string {
	if c.Verbose != nil && *c.Verbose {
		return "debug"
	}
	return "info"
}

// FlagValidator collects flag validation errors
type FlagValidator struct {
	errors []string
}

// NewFlagValidator creates a new flag validator
func NewFlagValidator() *FlagValidator {
	return &FlagValidator{}
}

// ValidateFloat validates a float flag value
func (v *FlagValidator) ValidateFloat(name string, value, min, max float64) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %.4f and %.4f, got: %.4f", name, min, max, value))
	}
	return v
}

// ValidateInt validates an int flag value
func (v *FlagValidator) ValidateInt(name string, value, min, max int) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %d and %d, got: %d", name, min, max, value))
	}
	return v
}

// ValidateChoice validates that a string is one of the allowed choices
func (v *FlagValidator) ValidateChoice(name, value string, choices []string) *FlagValidator {
	for _, choice := range choices {
		if value == choice {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of [%s], got: %s", name, strings.Join(choices, ", "), value))
	return v
}

// ValidateFile validates that a file exists
func (v *FlagValidator) ValidateFile(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
		}
		return v
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		v.errors = append(v.errors, fmt.Sprintf("%s file does not exist: %s", name, path))
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *FlagValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetError returns a formatted error with all validation errors
func (v *FlagValidator) GetError() error {
	switch len(v.errors) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("validation error: %s", v.errors[0])
	}
	return fmt.Errorf("validation errors:\n  - %s", strings.Join(v.errors, "\n  - "))
}

// PrintErrors writes every validation error to w
func (v *FlagValidator) PrintErrors(w io.Writer) {
	if len(v.errors) == 0 {
		return
	}
	fmt.Fprintln(w, "Flag validation errors:")
	for _, err := range v.errors {
		fmt.Fprintf(w, "   - %s\n", err)
	}
}
