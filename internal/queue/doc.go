// Package queue provides the per-phase command queues a scheduler run
// drains.
//
// A [Queue] is an index-drained FIFO: entries appended while the queue is
// being drained are reached in the same pass, and a command is held at most
// once per queue so a phase never runs the same command twice. A [Set]
// groups one queue per configured phase and is the queue storage of a run's
// execution context.
//
// Usage:
//
//	set := queue.NewSet(phase.DefaultOrder())
//	q := set.Get(phase.Execution)
//	q.Append("build", queue.SourceUser)
//	q.InsertAt(0, "fetch", queue.SourceRequires)
//
//	for e, ok := q.Next(); ok; e, ok = q.Next() {
//	    // ... execute e.Command ...
//	}
package queue
