package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "cycles.max_depth")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLatePolicies returns the list of valid late trigger policies
func ValidLatePolicies() []string {
	return []string{LatePolicyReschedule, LatePolicyReject}
}

// maxCycleDepthLimit bounds cycles.max_depth; deeper nesting is almost
// certainly a runaway recursion in the host.
const maxCycleDepthLimit = 64

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validatePhases()...)
	errors = append(errors, c.validateCycles()...)
	errors = append(errors, c.validateTriggers()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validatePhases() []ValidationError {
	var errors []ValidationError

	if len(c.Phases.Order) == 0 {
		errors = append(errors, ValidationError{
			Field:   "phases.order",
			Value:   c.Phases.Order,
			Message: "must list at least one phase",
		})
		return errors
	}

	seen := make(map[string]bool, len(c.Phases.Order))
	for i, name := range c.Phases.Order {
		field := fmt.Sprintf("phases.order[%d]", i)
		if strings.TrimSpace(name) == "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   name,
				Message: "phase name must not be empty",
			})
			continue
		}
		if seen[name] {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   name,
				Message: "duplicate phase name",
			})
		}
		seen[name] = true
	}

	if c.Phases.Default != "" && !seen[c.Phases.Default] {
		errors = append(errors, ValidationError{
			Field:   "phases.default",
			Value:   c.Phases.Default,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(c.Phases.Order, ", ")),
		})
	}

	return errors
}

func (c *Config) validateCycles() []ValidationError {
	var errors []ValidationError

	if c.Cycles.MaxDepth < 1 {
		errors = append(errors, ValidationError{
			Field:   "cycles.max_depth",
			Value:   c.Cycles.MaxDepth,
			Message: "must be at least 1",
		})
	}
	if c.Cycles.MaxDepth > maxCycleDepthLimit {
		errors = append(errors, ValidationError{
			Field:   "cycles.max_depth",
			Value:   c.Cycles.MaxDepth,
			Message: fmt.Sprintf("exceeds maximum of %d", maxCycleDepthLimit),
		})
	}

	return errors
}

func (c *Config) validateTriggers() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLatePolicies(), c.Triggers.LatePolicy) {
		errors = append(errors, ValidationError{
			Field:   "triggers.late_policy",
			Value:   c.Triggers.LatePolicy,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLatePolicies(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
