package queue

import "slices"

// Set holds one Queue per phase, in phase order.
type Set struct {
	order  []string
	queues map[string]*Queue
}

// NewSet creates an empty queue for every phase in order.
func NewSet(order []string) *Set {
	s := &Set{
		order:  slices.Clone(order),
		queues: make(map[string]*Queue, len(order)),
	}
	for _, p := range order {
		s.queues[p] = New(p)
	}
	return s
}

// Get returns the queue for phase, or nil when phase is not in the order.
func (s *Set) Get(phase string) *Queue {
	return s.queues[phase]
}

// OnInsert registers fn on every queue in the set.
func (s *Set) OnInsert(fn InsertFunc) {
	for _, p := range s.order {
		s.queues[p].OnInsert(fn)
	}
}

// Order returns the phase order the set was built with.
func (s *Set) Order() []string {
	return slices.Clone(s.order)
}

// Pending returns the total number of pending entries across all phases.
func (s *Set) Pending() int {
	n := 0
	for _, q := range s.queues {
		n += q.Len()
	}
	return n
}

// Empty reports whether no command was ever queued in any phase.
func (s *Set) Empty() bool {
	for _, q := range s.queues {
		if len(q.entries) > 0 {
			return false
		}
	}
	return true
}

// PhaseEntries lists the entries of one phase.
type PhaseEntries struct {
	Phase   string
	Entries []Entry
}

// Snapshot returns the entries of every phase in phase order.
func (s *Set) Snapshot() []PhaseEntries {
	out := make([]PhaseEntries, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, PhaseEntries{Phase: p, Entries: s.queues[p].Entries()})
	}
	return out
}
