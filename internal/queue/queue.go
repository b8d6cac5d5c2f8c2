package queue

import (
	"fmt"
	"slices"

	"github.com/minouris/spafw37-sub001/internal/errors"
)

// EntryState is where a queue entry is in its lifecycle.
type EntryState string

const (
	// EntryPending indicates the entry is waiting to be dequeued.
	EntryPending EntryState = "pending"

	// EntryExecuted indicates the entry has been dequeued for execution.
	EntryExecuted EntryState = "executed"
)

// String returns the string representation of the entry state.
func (s EntryState) String() string {
	return string(s)
}

// Entry sources, recorded for events and plan output.
const (
	SourceUser     = "user"
	SourceRequires = "requires"
	SourceNext     = "next"
	SourceTrigger  = "trigger"
	SourceCycle    = "cycle"
)

// Entry is a command scheduled into one phase.
type Entry struct {
	Command string
	Phase   string
	Source  string
	State   EntryState
}

// InsertFunc observes insertions. pos is the absolute index of the entry.
type InsertFunc func(e Entry, pos int)

// Queue is a growable FIFO of entries for a single phase. Entries are
// drained by index so commands appended while the queue is being drained
// are still reached in the same pass. A command appears at most once per
// queue: once pending or executed, further inserts are ignored.
//
// Queue is not safe for concurrent use.
type Queue struct {
	phase    string
	entries  []Entry
	next     int            // index of the first pending entry
	index    map[string]int // command -> absolute index
	onInsert []InsertFunc
}

// New creates an empty queue for phase.
func New(phase string) *Queue {
	return &Queue{
		phase: phase,
		index: make(map[string]int),
	}
}

// OnInsert registers an observer called after every successful insert.
func (q *Queue) OnInsert(fn InsertFunc) {
	q.onInsert = append(q.onInsert, fn)
}

// Phase returns the phase this queue belongs to.
func (q *Queue) Phase() string {
	return q.phase
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	return len(q.entries) - q.next
}

// Contains reports whether command is pending or executed in this queue.
func (q *Queue) Contains(command string) bool {
	_, ok := q.index[command]
	return ok
}

// IsPending reports whether command is waiting to be dequeued.
func (q *Queue) IsPending(command string) bool {
	i, ok := q.index[command]
	return ok && i >= q.next
}

// IsExecuted reports whether command has already been dequeued.
func (q *Queue) IsExecuted(command string) bool {
	i, ok := q.index[command]
	return ok && i < q.next
}

// Pending returns the names of pending commands in queue order.
func (q *Queue) Pending() []string {
	names := make([]string, 0, q.Len())
	for _, e := range q.entries[q.next:] {
		names = append(names, e.Command)
	}
	return names
}

// Executed returns the names of dequeued commands in execution order.
func (q *Queue) Executed() []string {
	names := make([]string, 0, q.next)
	for _, e := range q.entries[:q.next] {
		names = append(names, e.Command)
	}
	return names
}

// Entries returns a copy of every entry, executed first.
func (q *Queue) Entries() []Entry {
	out := slices.Clone(q.entries)
	for i := range out {
		if i < q.next {
			out[i].State = EntryExecuted
		} else {
			out[i].State = EntryPending
		}
	}
	return out
}

// PendingIndex returns the position of command among pending entries, or -1.
func (q *Queue) PendingIndex(command string) int {
	i, ok := q.index[command]
	if !ok || i < q.next {
		return -1
	}
	return i - q.next
}

// Append adds command to the end of the queue. It returns false when the
// command is already pending or executed.
func (q *Queue) Append(command, source string) bool {
	return q.InsertAt(q.Len(), command, source) == nil
}

// InsertAt places command at pos among the pending entries (0 is next to
// run, Len() is last). Inserting a command that is already present is
// reported with ErrDuplicateEntry and leaves the queue unchanged.
func (q *Queue) InsertAt(pos int, command, source string) error {
	if q.Contains(command) {
		return fmt.Errorf("%w: %s in %s", ErrDuplicateEntry, command, q.phase)
	}
	if pos < 0 || pos > q.Len() {
		return fmt.Errorf("%w: position %d outside 0..%d", errors.ErrInvalidInput, pos, q.Len())
	}

	abs := q.next + pos
	e := Entry{Command: command, Phase: q.phase, Source: source, State: EntryPending}
	q.entries = slices.Insert(q.entries, abs, e)
	for i := abs; i < len(q.entries); i++ {
		q.index[q.entries[i].Command] = i
	}

	for _, fn := range q.onInsert {
		fn(e, abs)
	}
	return nil
}

// Next dequeues the next pending entry and marks it executed.
func (q *Queue) Next() (Entry, bool) {
	if q.next >= len(q.entries) {
		return Entry{}, false
	}
	e := q.entries[q.next]
	q.next++
	e.State = EntryExecuted
	return e, true
}

// ErrDuplicateEntry is returned when inserting a command already in the queue.
var ErrDuplicateEntry = errors.New("command already queued in phase")
