// Package resolver places commands into a phase queue so that automatic
// prerequisites run first and declared ordering between queued commands
// holds.
//
// Enqueueing command C into the queue of phase P:
//
//  1. Every requires-before prerequisite of C that is not already pending or
//     executed in P is resolved the same way, depth first, and lands ahead
//     of C.
//  2. C is positioned after every pending X that it goes after, that goes
//     before it, or that it requires, and before every pending Y that it goes
//     before or that goes after it. When the two bounds conflict the "after"
//     bound wins and the conflict is logged.
//  3. C is inserted, unless it is already pending or executed in P.
//
// Goes-before and goes-after never enqueue anything by themselves.
package resolver

import (
	"slices"

	"github.com/minouris/spafw37-sub001/internal/command"
	"github.com/minouris/spafw37-sub001/internal/errors"
	"github.com/minouris/spafw37-sub001/internal/logging"
	"github.com/minouris/spafw37-sub001/internal/queue"
)

// Lookup resolves command names. *command.Registry satisfies it.
type Lookup interface {
	Resolve(name string) (command.Command, error)
}

// Resolver enqueues commands with their prerequisites and ordering.
type Resolver struct {
	lookup Lookup
	logger *logging.Logger
}

// New creates a Resolver. A nil logger discards output.
func New(lookup Lookup, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Resolver{lookup: lookup, logger: logger}
}

// Enqueue places name into q. source records why the command was queued.
// It returns nil without changing q when name is already pending or
// executed there.
func (r *Resolver) Enqueue(q *queue.Queue, name, source string) error {
	return r.enqueue(q, name, source, nil)
}

func (r *Resolver) enqueue(q *queue.Queue, name, source string, path []string) error {
	if q.Contains(name) {
		r.logger.Debug("command already queued", "command", name, "phase", q.Phase())
		return nil
	}
	if slices.Contains(path, name) {
		loop := append(slices.Clone(path), name)
		return errors.NewDependencyCycleError(loop[slices.Index(loop, name):])
	}

	cmd, err := r.lookup.Resolve(name)
	if err != nil {
		return err
	}

	path = append(path, name)
	for _, req := range cmd.RequireBefore {
		if err := r.enqueue(q, req, queue.SourceRequires, path); err != nil {
			return err
		}
	}

	pos := r.position(q, cmd)
	if err := q.InsertAt(pos, name, source); err != nil {
		return err
	}
	r.logger.Debug("command queued",
		"command", name,
		"phase", q.Phase(),
		"position", pos,
		"source", source)
	return nil
}

// position returns the insertion index for cmd among q's pending entries.
func (r *Resolver) position(q *queue.Queue, cmd command.Command) int {
	pending := q.Pending()
	lower := 0           // first index cmd may occupy
	upper := len(pending) // last index cmd may occupy
	upperFrom := ""

	for i, name := range pending {
		other, err := r.lookup.Resolve(name)
		if err != nil {
			// Unresolvable entries surface when dequeued; they impose no order.
			continue
		}
		if cmd.GoesAfterCommand(name) || other.GoesBeforeCommand(cmd.Name) || cmd.Requires(name) {
			lower = max(lower, i+1)
		}
		if (cmd.GoesBeforeCommand(name) || other.GoesAfterCommand(cmd.Name)) && i < upper {
			upper = i
			upperFrom = name
		}
	}

	if lower > upper {
		r.logger.Warn("conflicting sequence constraints, keeping goes-after",
			"command", cmd.Name,
			"phase", q.Phase(),
			"before", upperFrom)
		return lower
	}
	return upper
}
