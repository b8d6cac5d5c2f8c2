// Package trigger enqueues commands in response to parameter changes.
//
// A command declares a trigger param, an exact name or a glob pattern.
// When a matching parameter changes, the command is enqueued into its own
// phase if that phase can still accept work. If the phase has already
// completed, the late policy decides: "reschedule" enqueues it into the
// earliest open phase, "reject" fails with ErrPhasePassed. A command fires
// at most once per run.
package trigger

import (
	"fmt"

	"github.com/minouris/spafw37-sub001/internal/command"
	"github.com/minouris/spafw37-sub001/internal/errors"
	"github.com/minouris/spafw37-sub001/internal/event"
	"github.com/minouris/spafw37-sub001/internal/logging"
	"github.com/minouris/spafw37-sub001/internal/queue"
)

// Policy decides what happens to a trigger whose phase has passed.
type Policy string

const (
	// PolicyReschedule enqueues into the earliest open phase.
	PolicyReschedule Policy = "reschedule"
	// PolicyReject fails with ErrPhasePassed.
	PolicyReject Policy = "reject"
)

// ParsePolicy converts a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyReschedule, PolicyReject:
		return Policy(s), nil
	case "":
		return PolicyReschedule, nil
	default:
		return "", errors.NewValidationError("unknown late trigger policy").
			WithField("triggers.late_policy").
			WithValue(s)
	}
}

// Lookup finds and resolves triggered commands. *command.Registry satisfies it.
type Lookup interface {
	Triggered(param string) []string
	Resolve(name string) (command.Command, error)
}

// Target is the run a trigger enqueues into.
type Target interface {
	// Check returns nil when phase accepts commands, or a PhaseError.
	Check(phase string) error
	// EarliestOpen returns the first phase that has not completed.
	EarliestOpen() (string, bool)
	// Enqueue resolves name into phase.
	Enqueue(phase, name, source string) error
	// Triggered reports whether name already fired in this run.
	Triggered(name string) bool
	// MarkTriggered records that name fired in this run.
	MarkTriggered(name string)
}

// Dispatcher maps parameter changes to enqueues.
type Dispatcher struct {
	lookup Lookup
	policy Policy
	logger *logging.Logger
	bus    *event.Bus
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithBus publishes TriggerFiredEvents on bus.
func WithBus(bus *event.Bus) Option {
	return func(d *Dispatcher) { d.bus = bus }
}

// New creates a Dispatcher applying policy to late triggers.
func New(lookup Lookup, policy Policy, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		lookup: lookup,
		policy: policy,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Policy returns the late trigger policy.
func (d *Dispatcher) Policy() Policy {
	return d.policy
}

// SetPolicy changes the late trigger policy.
func (d *Dispatcher) SetPolicy(p Policy) {
	d.policy = p
}

// Dispatch enqueues every command triggered by param into target. It stops
// at the first error.
func (d *Dispatcher) Dispatch(target Target, param string) error {
	for _, name := range d.lookup.Triggered(param) {
		if target.Triggered(name) {
			continue
		}
		if err := d.fire(target, param, name); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) fire(target Target, param, name string) error {
	cmd, err := d.lookup.Resolve(name)
	if err != nil {
		return err
	}
	if !cmd.Invocable {
		return fmt.Errorf("%w: %s is a body command of cycle %s", errors.ErrNotInvocable, name, cmd.Owner)
	}

	into := cmd.Phase
	rescheduled := false
	if err := target.Check(into); err != nil {
		if !errors.Is(err, errors.ErrPhaseClosed) {
			return err
		}
		if d.policy != PolicyReschedule {
			return errors.NewPhasePassedError(name, cmd.Phase)
		}
		open, ok := target.EarliestOpen()
		if !ok {
			return errors.NewPhasePassedError(name, cmd.Phase)
		}
		into, rescheduled = open, true
	}

	if err := target.Enqueue(into, name, queue.SourceTrigger); err != nil {
		return err
	}
	target.MarkTriggered(name)

	d.logger.Info("trigger fired",
		"param", param,
		"command", name,
		"phase", into,
		"rescheduled", rescheduled)
	if d.bus != nil {
		d.bus.Publish(event.NewTriggerFiredEvent(param, name, into, rescheduled))
	}
	return nil
}
