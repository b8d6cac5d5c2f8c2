// Package phase provides the ordered lifecycle stages a scheduler run moves
// through and the gate that decides which of them may still accept commands.
//
// Each phase moves pending -> active -> completed exactly once per run. A
// phase cannot activate until every phase before it has completed, and a
// completed phase never accepts new work.
package phase

import (
	"fmt"
	"slices"
	"time"

	"github.com/minouris/spafw37-sub001/internal/errors"
)

// Default phase names, in lifecycle order.
const (
	Setup     = "phase-setup"
	Cleanup   = "phase-cleanup"
	Execution = "phase-execution"
	Teardown  = "phase-teardown"
	End       = "phase-end"
)

// DefaultPhase is assigned to commands registered without a phase.
const DefaultPhase = Execution

// DefaultOrder returns the built-in phase order.
func DefaultOrder() []string {
	return []string{Setup, Cleanup, Execution, Teardown, End}
}

// Status is the lifecycle state of a single phase.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusCompleted
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Transition records one status change.
type Transition struct {
	Phase     string
	Status    Status
	Timestamp time.Time
}

// ChangeCallback is called after a phase changes status.
type ChangeCallback func(phase string, status Status)

// Sequencer tracks phase status for a single run. It is not safe for
// concurrent use; the runner drives it from one goroutine.
type Sequencer struct {
	order     []string
	index     map[string]int
	status    []Status
	current   int // index of the active phase, -1 before Start, len(order) when done
	history   []Transition
	callbacks []ChangeCallback
}

// ValidateOrder checks that order is non-empty with unique, non-empty names.
func ValidateOrder(order []string) error {
	if len(order) == 0 {
		return errors.NewValidationError("phase order must not be empty").WithField("phases.order")
	}
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if name == "" {
			return errors.NewValidationError("phase name must not be empty").WithField("phases.order")
		}
		if seen[name] {
			return errors.NewValidationError(fmt.Sprintf("duplicate phase %q", name)).
				WithField("phases.order").WithValue(name)
		}
		seen[name] = true
	}
	return nil
}

// NewSequencer creates a Sequencer with every phase pending.
func NewSequencer(order []string) (*Sequencer, error) {
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}
	s := &Sequencer{
		order:   slices.Clone(order),
		index:   make(map[string]int, len(order)),
		status:  make([]Status, len(order)),
		current: -1,
	}
	for i, name := range order {
		s.index[name] = i
	}
	return s, nil
}

// OnChange registers a callback invoked after every status change.
func (s *Sequencer) OnChange(cb ChangeCallback) {
	s.callbacks = append(s.callbacks, cb)
}

// Order returns a copy of the configured phase order.
func (s *Sequencer) Order() []string {
	return slices.Clone(s.order)
}

// Has reports whether name is part of the configured order.
func (s *Sequencer) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Position returns the index of name in the order, or -1.
func (s *Sequencer) Position(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Started reports whether Start has been called.
func (s *Sequencer) Started() bool {
	return s.current >= 0
}

// Done reports whether every phase has completed.
func (s *Sequencer) Done() bool {
	return s.current >= len(s.order)
}

// Start activates the first phase. Calling Start again is a no-op.
func (s *Sequencer) Start() {
	if s.current >= 0 {
		return
	}
	s.current = 0
	s.set(0, StatusActive)
}

// Current returns the active phase.
func (s *Sequencer) Current() (string, bool) {
	if s.current < 0 || s.current >= len(s.order) {
		return "", false
	}
	return s.order[s.current], true
}

// Advance completes the active phase and activates the next one, returning
// it. Before Start it behaves like Start. Past the last phase it is a no-op.
func (s *Sequencer) Advance() (string, bool) {
	if s.current < 0 {
		s.Start()
		return s.Current()
	}
	if s.current >= len(s.order) {
		return "", false
	}
	s.set(s.current, StatusCompleted)
	s.current++
	if s.current < len(s.order) {
		s.set(s.current, StatusActive)
	}
	return s.Current()
}

// Status returns the status of the named phase.
func (s *Sequencer) Status(name string) (Status, error) {
	i, ok := s.index[name]
	if !ok {
		return StatusPending, errors.NewUnknownPhaseError(name)
	}
	return s.status[i], nil
}

// CanAccept reports whether commands may still be inserted into name.
func (s *Sequencer) CanAccept(name string) bool {
	return s.Check(name) == nil
}

// Check returns an error describing why name cannot accept commands:
// an unknown phase, or one that has already completed.
func (s *Sequencer) Check(name string) error {
	i, ok := s.index[name]
	if !ok {
		return errors.NewUnknownPhaseError(name)
	}
	if s.status[i] == StatusCompleted {
		return errors.NewPhaseClosedError(name)
	}
	return nil
}

// EarliestOpen returns the first phase that is not completed: the active
// phase while running, otherwise the first pending one.
func (s *Sequencer) EarliestOpen() (string, bool) {
	for i, st := range s.status {
		if st != StatusCompleted {
			return s.order[i], true
		}
	}
	return "", false
}

// History returns the status changes recorded so far.
func (s *Sequencer) History() []Transition {
	return slices.Clone(s.history)
}

func (s *Sequencer) set(i int, st Status) {
	s.status[i] = st
	s.history = append(s.history, Transition{
		Phase:     s.order[i],
		Status:    st,
		Timestamp: time.Now(),
	})
	for _, cb := range s.callbacks {
		cb(s.order[i], st)
	}
}
