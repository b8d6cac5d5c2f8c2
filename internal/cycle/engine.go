// Package cycle runs the loop attached to a command.
//
// A cycle moves through
//
//	INIT -> while Loop() { LOOP_START -> body -> LOOP_END } -> END
//
// Loop is checked before the first iteration and after every LOOP_END, so a
// cycle whose condition is false from the start still runs INIT and END.
// Each iteration queues the body commands into a fresh queue through the
// resolver and hands every entry to the caller's Executor, so body commands
// get the same prerequisite handling, param checks and nested cycles as
// commands in a phase queue.
package cycle

import (
	"github.com/minouris/spafw37-sub001/internal/command"
	"github.com/minouris/spafw37-sub001/internal/errors"
	"github.com/minouris/spafw37-sub001/internal/event"
	"github.com/minouris/spafw37-sub001/internal/logging"
	"github.com/minouris/spafw37-sub001/internal/queue"
	"github.com/minouris/spafw37-sub001/internal/resolver"
)

// Hook names reported in CommandError.
const (
	HookInit      = "init"
	HookLoopStart = "loop-start"
	HookLoopEnd   = "loop-end"
	HookEnd       = "end"
)

// Executor runs one dequeued body entry. depth is the nesting depth of the
// cycle that queued it.
type Executor interface {
	Execute(q *queue.Queue, e queue.Entry, depth int) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(q *queue.Queue, e queue.Entry, depth int) error

// Execute calls f.
func (f ExecutorFunc) Execute(q *queue.Queue, e queue.Entry, depth int) error {
	return f(q, e, depth)
}

// Engine runs cycles.
type Engine struct {
	resolver *resolver.Resolver
	maxDepth int
	logger   *logging.Logger
	bus      *event.Bus
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBus publishes cycle iteration and body queue events on bus.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

// NewEngine creates an Engine allowing cycles nested up to maxDepth deep.
func NewEngine(r *resolver.Resolver, maxDepth int, opts ...Option) *Engine {
	e := &Engine{
		resolver: r,
		maxDepth: maxDepth,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDepth returns the deepest nesting the engine allows.
func (e *Engine) MaxDepth() int {
	return e.maxDepth
}

// Run executes c in phase. depth is 1 for a cycle attached to a command
// from a phase queue and grows by one per nesting level.
func (e *Engine) Run(c command.Cycle, phase string, depth int, exec Executor) error {
	if depth > e.maxDepth {
		return errors.NewCycleDepthError(c.Name, depth, e.maxDepth)
	}
	log := e.logger.WithPhase(phase).WithCycle(c.Name, depth)

	if err := e.hook(c, phase, HookInit, c.Init); err != nil {
		return err
	}

	iteration := 0
	for c.Loop() {
		iteration++
		log.Debug("cycle iteration", "iteration", iteration)
		if e.bus != nil {
			e.bus.Publish(event.NewCycleIterationEvent(c.Name, c.Command, iteration, depth))
		}

		if err := e.hook(c, phase, HookLoopStart, c.LoopStart); err != nil {
			return err
		}
		if err := e.runBody(c, phase, depth, exec); err != nil {
			return err
		}
		if err := e.hook(c, phase, HookLoopEnd, c.LoopEnd); err != nil {
			return err
		}
	}

	if err := e.hook(c, phase, HookEnd, c.End); err != nil {
		return err
	}
	log.Info("cycle finished", "iterations", iteration)
	return nil
}

func (e *Engine) runBody(c command.Cycle, phase string, depth int, exec Executor) error {
	q := queue.New(phase)
	if e.bus != nil {
		queue.PublishInserts(q, e.bus)
	}

	for _, name := range c.Body {
		if err := e.resolver.Enqueue(q, name, queue.SourceCycle); err != nil {
			return err
		}
	}
	for entry, ok := q.Next(); ok; entry, ok = q.Next() {
		if err := exec.Execute(q, entry, depth); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) hook(c command.Cycle, phase, name string, h command.Hook) error {
	if h == nil {
		return nil
	}
	if err := h(); err != nil {
		return errors.NewCommandError(c.Name, err).WithPhase(phase).WithHook(name)
	}
	return nil
}
