package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "phase.changed", "command.executed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypePhaseChanged    = "phase.changed"
	TypeCommandQueued   = "command.queued"
	TypeCommandExecuted = "command.executed"
	TypeCommandFailed   = "command.failed"
	TypeTriggerFired    = "trigger.fired"
	TypeCycleIteration  = "cycle.iteration"
	TypeParamChanged    = "param.changed"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Phase Events
// -----------------------------------------------------------------------------

// PhaseChangedEvent is emitted when a phase changes status.
type PhaseChangedEvent struct {
	baseEvent
	Phase  string
	Status string // "active" or "completed"
}

// NewPhaseChangedEvent creates a PhaseChangedEvent.
func NewPhaseChangedEvent(phase, status string) PhaseChangedEvent {
	return PhaseChangedEvent{
		baseEvent: newBaseEvent(TypePhaseChanged),
		Phase:     phase,
		Status:    status,
	}
}

// -----------------------------------------------------------------------------
// Command Events
// -----------------------------------------------------------------------------

// CommandQueuedEvent is emitted when a command is appended to a phase queue.
type CommandQueuedEvent struct {
	baseEvent
	Command  string
	Phase    string
	Position int    // index within the phase queue
	Source   string // "user", "requires", "next", "trigger" or "cycle"
}

// NewCommandQueuedEvent creates a CommandQueuedEvent.
func NewCommandQueuedEvent(command, phase string, position int, source string) CommandQueuedEvent {
	return CommandQueuedEvent{
		baseEvent: newBaseEvent(TypeCommandQueued),
		Command:   command,
		Phase:     phase,
		Position:  position,
		Source:    source,
	}
}

// CommandExecutedEvent is emitted after a command action returns successfully.
type CommandExecutedEvent struct {
	baseEvent
	Command  string
	Phase    string
	Duration time.Duration
}

// NewCommandExecutedEvent creates a CommandExecutedEvent.
func NewCommandExecutedEvent(command, phase string, duration time.Duration) CommandExecutedEvent {
	return CommandExecutedEvent{
		baseEvent: newBaseEvent(TypeCommandExecuted),
		Command:   command,
		Phase:     phase,
		Duration:  duration,
	}
}

// CommandFailedEvent is emitted when a command aborts the run.
type CommandFailedEvent struct {
	baseEvent
	Command string
	Phase   string
	Err     error
}

// NewCommandFailedEvent creates a CommandFailedEvent.
func NewCommandFailedEvent(command, phase string, err error) CommandFailedEvent {
	return CommandFailedEvent{
		baseEvent: newBaseEvent(TypeCommandFailed),
		Command:   command,
		Phase:     phase,
		Err:       err,
	}
}

// -----------------------------------------------------------------------------
// Trigger and Cycle Events
// -----------------------------------------------------------------------------

// TriggerFiredEvent is emitted when a parameter change enqueues a command.
type TriggerFiredEvent struct {
	baseEvent
	Param       string
	Command     string
	Phase       string // phase the command was enqueued into
	Rescheduled bool   // true when the command's own phase had already passed
}

// NewTriggerFiredEvent creates a TriggerFiredEvent.
func NewTriggerFiredEvent(param, command, phase string, rescheduled bool) TriggerFiredEvent {
	return TriggerFiredEvent{
		baseEvent:   newBaseEvent(TypeTriggerFired),
		Param:       param,
		Command:     command,
		Phase:       phase,
		Rescheduled: rescheduled,
	}
}

// CycleIterationEvent is emitted at the start of every cycle iteration.
type CycleIterationEvent struct {
	baseEvent
	Cycle     string
	Command   string
	Iteration int // 1-based
	Depth     int
}

// NewCycleIterationEvent creates a CycleIterationEvent.
func NewCycleIterationEvent(cycle, command string, iteration, depth int) CycleIterationEvent {
	return CycleIterationEvent{
		baseEvent: newBaseEvent(TypeCycleIteration),
		Cycle:     cycle,
		Command:   command,
		Iteration: iteration,
		Depth:     depth,
	}
}

// -----------------------------------------------------------------------------
// Parameter Events
// -----------------------------------------------------------------------------

// ParamChangedEvent is emitted when a parameter store value changes.
type ParamChangedEvent struct {
	baseEvent
	Name  string
	Value any
}

// NewParamChangedEvent creates a ParamChangedEvent.
func NewParamChangedEvent(name string, value any) ParamChangedEvent {
	return ParamChangedEvent{
		baseEvent: newBaseEvent(TypeParamChanged),
		Name:      name,
		Value:     value,
	}
}
