// Package errors provides centralized error definitions and error handling utilities
// for the scheduler. It defines sentinel errors, typed errors carrying the
// command, phase or cycle involved, and classification helpers.
//
// # Error Types
//
// Structural errors are raised at registration time and never deferred:
//   - RegistrationError: duplicate name with a non-equivalent definition
//   - ReferenceError: a definition is missing a required field, or a command
//     reference could not be resolved
//   - DependencyCycleError: requires-before relations form a loop
//   - ValidationError: malformed input such as an invalid trigger pattern
//
// Runtime errors abort the remainder of a run:
//   - MissingParamError: a required parameter has no value at dequeue time
//   - PhaseError: insertion into a completed phase, or a trigger that fired
//     after every suitable phase has passed
//   - CycleDepthError: cycle nesting exceeded the configured maximum
//   - CommandError: an action or cycle hook reported failure
//
// # Usage
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrPhaseClosed) { ... }
//
//	var missing *errors.MissingParamError
//	if errors.As(err, &missing) {
//	    fmt.Println(missing.Command, missing.Param)
//	}
//
//	if errors.IsStructural(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Registration sentinel errors
var (
	// ErrRegistrationConflict indicates a name was registered twice with
	// definitions that are not equivalent.
	ErrRegistrationConflict = New("registration conflict")
	// ErrUnresolvedReference indicates a reference that names no registered
	// definition, or an inline definition missing a required field.
	ErrUnresolvedReference = New("unresolved reference")
	// ErrDependencyCycle indicates requires-before relations that loop.
	ErrDependencyCycle = New("dependency cycle detected")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// Run sentinel errors
var (
	// ErrMissingRequiredParam indicates a required parameter had no value.
	ErrMissingRequiredParam = New("missing required param")
	// ErrPhaseClosed indicates an insertion into a completed phase.
	ErrPhaseClosed = New("phase closed")
	// ErrPhasePassed indicates a trigger fired after every suitable phase completed.
	ErrPhasePassed = New("phase passed")
	// ErrUnknownPhase indicates a phase name that is not part of the configured order.
	ErrUnknownPhase = New("unknown phase")
	// ErrNotInvocable indicates a cycle body command was queued directly.
	ErrNotInvocable = New("command is not invocable")
	// ErrCycleDepthExceeded indicates nested cycles went deeper than allowed.
	ErrCycleDepthExceeded = New("cycle depth exceeded")
	// ErrCommandFailed indicates an action or hook returned an error.
	ErrCommandFailed = New("command failed")
	// ErrRunInProgress indicates an operation that is not allowed while a run is active.
	ErrRunInProgress = New("run in progress")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// SchedulerError is the base interface for all scheduler errors.
type SchedulerError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Structural Errors
// -----------------------------------------------------------------------------

// RegistrationError reports a name registered twice with different definitions.
//
// Example:
//
//	err := errors.NewRegistrationError("command", "build")
//	fmt.Println(err) // "registration conflict: command 'build' already registered with a different definition"
type RegistrationError struct {
	baseError
	Kind string
	Name string
}

// NewRegistrationError creates a new RegistrationError. Kind is "command" or "cycle".
func NewRegistrationError(kind, name string) *RegistrationError {
	return &RegistrationError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already registered with a different definition", kind, name),
			severity:   SeverityError,
			userFacing: true,
		},
		Kind: kind,
		Name: name,
	}
}

// WithCause adds a cause to the error, typically the first differing field.
func (e *RegistrationError) WithCause(cause error) *RegistrationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *RegistrationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("registration conflict: %s: %v", e.message, e.cause)
	}
	return "registration conflict: " + e.message
}

// Is checks if this error matches the target.
func (e *RegistrationError) Is(target error) bool {
	if _, ok := target.(*RegistrationError); ok {
		return true
	}
	if target == ErrRegistrationConflict {
		return true
	}
	return e.baseError.Is(target)
}

// ReferenceError reports a reference that cannot be resolved. When Field is
// set, the reference was an inline definition missing that field.
//
// Example:
//
//	err := errors.NewUnresolvedReferenceError("deploy")
//	fmt.Println(err) // "unresolved reference: command 'deploy' is not registered"
type ReferenceError struct {
	baseError
	Kind  string
	Name  string
	Field string
}

// NewUnresolvedReferenceError creates a ReferenceError for a command name
// that was never registered.
func NewUnresolvedReferenceError(name string) *ReferenceError {
	return &ReferenceError{
		baseError: baseError{
			message:    fmt.Sprintf("command '%s' is not registered", name),
			severity:   SeverityError,
			userFacing: true,
		},
		Kind: "command",
		Name: name,
	}
}

// NewMissingFieldError creates a ReferenceError for a definition that lacks
// a required field. Name may be empty when the missing field is the name.
func NewMissingFieldError(kind, name, field string) *ReferenceError {
	msg := fmt.Sprintf("%s definition is missing %s", kind, field)
	if name != "" {
		msg = fmt.Sprintf("%s '%s' is missing %s", kind, name, field)
	}
	return &ReferenceError{
		baseError: baseError{
			message:    msg,
			severity:   SeverityError,
			userFacing: true,
		},
		Kind:  kind,
		Name:  name,
		Field: field,
	}
}

// Error returns the formatted error message.
func (e *ReferenceError) Error() string {
	return "unresolved reference: " + e.baseError.Error()
}

// Is checks if this error matches the target.
func (e *ReferenceError) Is(target error) bool {
	if _, ok := target.(*ReferenceError); ok {
		return true
	}
	if target == ErrUnresolvedReference {
		return true
	}
	return e.baseError.Is(target)
}

// DependencyCycleError reports requires-before relations that form a loop.
// Commands lists the loop in traversal order, starting and ending with the
// same command.
type DependencyCycleError struct {
	baseError
	Commands []string
}

// NewDependencyCycleError creates a new DependencyCycleError.
func NewDependencyCycleError(commands []string) *DependencyCycleError {
	path := make([]string, len(commands))
	copy(path, commands)
	return &DependencyCycleError{
		baseError: baseError{
			message:    strings.Join(path, " -> "),
			severity:   SeverityError,
			userFacing: true,
		},
		Commands: path,
	}
}

// Error returns the formatted error message.
func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDependencyCycle.Error(), e.message)
}

// Is checks if this error matches the target.
func (e *DependencyCycleError) Is(target error) bool {
	if _, ok := target.(*DependencyCycleError); ok {
		return true
	}
	return target == ErrDependencyCycle
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("invalid trigger pattern")
//	err = err.WithField("trigger_param").WithValue("log[")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Runtime Errors
// -----------------------------------------------------------------------------

// MissingParamError reports a required parameter without a value when its
// command was dequeued.
//
// Example:
//
//	err := errors.NewMissingParamError("deploy", "tag")
//	fmt.Println(err) // "command deploy: missing required param: tag"
type MissingParamError struct {
	baseError
	Command string
	Param   string
}

// NewMissingParamError creates a new MissingParamError.
func NewMissingParamError(command, param string) *MissingParamError {
	return &MissingParamError{
		baseError: baseError{
			message:    "missing required param: " + param,
			severity:   SeverityError,
			userFacing: true,
		},
		Command: command,
		Param:   param,
	}
}

// Error returns the formatted error message.
func (e *MissingParamError) Error() string {
	return fmt.Sprintf("command %s: %s", e.Command, e.message)
}

// Is checks if this error matches the target.
func (e *MissingParamError) Is(target error) bool {
	if _, ok := target.(*MissingParamError); ok {
		return true
	}
	return target == ErrMissingRequiredParam
}

// PhaseError reports an insertion the phase sequencer refused. The sentinel
// it matches (ErrPhaseClosed, ErrPhasePassed or ErrUnknownPhase) is fixed by
// the constructor used.
type PhaseError struct {
	baseError
	Phase   string
	Command string
	kind    error
}

// NewPhaseClosedError creates a PhaseError for an insertion into a completed phase.
func NewPhaseClosedError(phase string) *PhaseError {
	return newPhaseError(ErrPhaseClosed, phase)
}

// NewPhasePassedError creates a PhaseError for a trigger that fired too late.
func NewPhasePassedError(command, phase string) *PhaseError {
	return newPhaseError(ErrPhasePassed, phase).WithCommand(command)
}

// NewUnknownPhaseError creates a PhaseError for a phase outside the configured order.
func NewUnknownPhaseError(phase string) *PhaseError {
	return newPhaseError(ErrUnknownPhase, phase)
}

func newPhaseError(kind error, phase string) *PhaseError {
	return &PhaseError{
		baseError: baseError{
			message:    kind.Error(),
			severity:   SeverityError,
			userFacing: true,
		},
		Phase: phase,
		kind:  kind,
	}
}

// WithCommand records the command whose insertion was refused.
func (e *PhaseError) WithCommand(command string) *PhaseError {
	e.Command = command
	return e
}

// Error returns the formatted error message.
func (e *PhaseError) Error() string {
	var parts []string
	if e.Phase != "" {
		parts = append(parts, fmt.Sprintf("phase=%s", e.Phase))
	}
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("command=%s", e.Command))
	}
	if len(parts) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s [%s]", e.message, strings.Join(parts, ", "))
}

// Is checks if this error matches the target.
func (e *PhaseError) Is(target error) bool {
	if _, ok := target.(*PhaseError); ok {
		return true
	}
	return target == e.kind
}

// CycleDepthError reports cycles nested deeper than the configured maximum.
type CycleDepthError struct {
	baseError
	Cycle string
	Depth int
	Max   int
}

// NewCycleDepthError creates a new CycleDepthError.
func NewCycleDepthError(cycle string, depth, max int) *CycleDepthError {
	return &CycleDepthError{
		baseError: baseError{
			message:    fmt.Sprintf("cycle '%s' at depth %d exceeds maximum %d", cycle, depth, max),
			severity:   SeverityError,
			userFacing: true,
		},
		Cycle: cycle,
		Depth: depth,
		Max:   max,
	}
}

// Error returns the formatted error message.
func (e *CycleDepthError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycleDepthExceeded.Error(), e.message)
}

// Is checks if this error matches the target.
func (e *CycleDepthError) Is(target error) bool {
	if _, ok := target.(*CycleDepthError); ok {
		return true
	}
	return target == ErrCycleDepthExceeded
}

// CommandError wraps a failure reported by a command action or a cycle hook.
//
// Example:
//
//	err := errors.NewCommandError("migrate", cause).WithPhase("phase-execution")
//	fmt.Println(err) // "command failed [command=migrate, phase=phase-execution]: <cause>"
type CommandError struct {
	baseError
	Command string
	Phase   string
	Hook    string
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, cause error) *CommandError {
	return &CommandError{
		baseError: baseError{
			message:    ErrCommandFailed.Error(),
			cause:      cause,
			severity:   SeverityError,
			userFacing: false,
		},
		Command: command,
	}
}

// WithPhase adds the phase the command was running in.
func (e *CommandError) WithPhase(phase string) *CommandError {
	e.Phase = phase
	return e
}

// WithHook records which cycle hook failed (init, loop-start, loop-end, end).
func (e *CommandError) WithHook(hook string) *CommandError {
	e.Hook = hook
	return e
}

// Error returns the formatted error message.
func (e *CommandError) Error() string {
	parts := []string{fmt.Sprintf("command=%s", e.Command)}
	if e.Phase != "" {
		parts = append(parts, fmt.Sprintf("phase=%s", e.Phase))
	}
	if e.Hook != "" {
		parts = append(parts, fmt.Sprintf("hook=%s", e.Hook))
	}
	prefix := fmt.Sprintf("%s [%s]", e.message, strings.Join(parts, ", "))
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// Is checks if this error matches the target.
func (e *CommandError) Is(target error) bool {
	if _, ok := target.(*CommandError); ok {
		return true
	}
	if target == ErrCommandFailed {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsStructural returns true for errors raised while registering definitions:
// conflicts, missing fields, dependency cycles and validation failures.
// An unresolved command name is not structural because resolution is
// deferred to run time.
func IsStructural(err error) bool {
	if err == nil {
		return false
	}

	var conflict *RegistrationError
	var cycle *DependencyCycleError
	var validation *ValidationError
	if As(err, &conflict) || As(err, &cycle) || As(err, &validation) {
		return true
	}

	var ref *ReferenceError
	if As(err, &ref) {
		return ref.Field != ""
	}
	return false
}

// IsRuntime returns true for errors that abort a run in progress.
func IsRuntime(err error) bool {
	if err == nil {
		return false
	}
	if IsStructural(err) {
		return false
	}
	return Is(err, ErrMissingRequiredParam) || Is(err, ErrPhaseClosed) ||
		Is(err, ErrPhasePassed) || Is(err, ErrUnknownPhase) ||
		Is(err, ErrNotInvocable) || Is(err, ErrCycleDepthExceeded) ||
		Is(err, ErrCommandFailed) || Is(err, ErrUnresolvedReference)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var schedErr SchedulerError
	if As(err, &schedErr) {
		return schedErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement SchedulerError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var schedErr SchedulerError
	if As(err, &schedErr) {
		return schedErr.Severity()
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "register commands")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
