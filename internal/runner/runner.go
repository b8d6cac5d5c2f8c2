// Package runner drives a scheduler run: it walks the phases in order,
// drains each phase queue, checks required params, executes actions,
// follows next-commands, hands attached cycles to the cycle engine and
// reacts to triggers fired meanwhile.
//
// A run aborts on the first error. Completed phases never accept new work,
// so every command executed in an earlier phase finishes before any command
// of a later phase begins.
package runner

import (
	"fmt"
	"slices"
	"time"

	"github.com/minouris/spafw37-sub001/internal/command"
	"github.com/minouris/spafw37-sub001/internal/cycle"
	"github.com/minouris/spafw37-sub001/internal/errors"
	"github.com/minouris/spafw37-sub001/internal/event"
	"github.com/minouris/spafw37-sub001/internal/logging"
	"github.com/minouris/spafw37-sub001/internal/param"
	"github.com/minouris/spafw37-sub001/internal/phase"
	"github.com/minouris/spafw37-sub001/internal/queue"
	"github.com/minouris/spafw37-sub001/internal/resolver"
	"github.com/minouris/spafw37-sub001/internal/trigger"
)

// Config holds the runner settings.
type Config struct {
	Order      []string
	MaxDepth   int
	LatePolicy trigger.Policy
}

// DefaultConfig returns the default phase order, a maximum cycle depth of
// 5 and the reschedule policy.
func DefaultConfig() Config {
	return Config{
		Order:      phase.DefaultOrder(),
		MaxDepth:   5,
		LatePolicy: trigger.PolicyReschedule,
	}
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithBus publishes run events on bus.
func WithBus(bus *event.Bus) Option {
	return func(r *Runner) { r.bus = bus }
}

// WithParams sets the parameter accessor used for required param checks.
func WithParams(p param.Accessor) Option {
	return func(r *Runner) {
		if p != nil {
			r.params = p
		}
	}
}

// Runner executes queued commands phase by phase. It is driven from a
// single goroutine; actions may call back into Queue and OnParamChange.
type Runner struct {
	registry   *command.Registry
	resolver   *resolver.Resolver
	engine     *cycle.Engine
	dispatcher *trigger.Dispatcher
	params     param.Accessor
	logger     *logging.Logger
	bus        *event.Bus

	order   []string
	ctx     *Context
	running bool
}

// New creates a Runner over reg.
func New(reg *command.Registry, cfg Config, opts ...Option) (*Runner, error) {
	if err := phase.ValidateOrder(cfg.Order); err != nil {
		return nil, err
	}
	if cfg.MaxDepth < 1 {
		return nil, errors.NewValidationError("max cycle depth must be at least 1").
			WithField("cycles.max_depth").
			WithValue(cfg.MaxDepth)
	}
	policy, err := trigger.ParsePolicy(string(cfg.LatePolicy))
	if err != nil {
		return nil, err
	}

	r := &Runner{
		registry: reg,
		params:   param.Empty,
		logger:   logging.NopLogger(),
		order:    slices.Clone(cfg.Order),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.resolver = resolver.New(reg, r.logger)
	r.engine = cycle.NewEngine(r.resolver, cfg.MaxDepth,
		cycle.WithLogger(r.logger),
		cycle.WithBus(r.bus))
	r.dispatcher = trigger.New(reg, policy,
		trigger.WithLogger(r.logger),
		trigger.WithBus(r.bus))
	return r, nil
}

// Order returns the configured phase order.
func (r *Runner) Order() []string {
	return slices.Clone(r.order)
}

// SetOrder replaces the phase order. It fails once commands have been
// queued or while a run is in progress.
func (r *Runner) SetOrder(order []string) error {
	if r.running || (r.ctx != nil && !r.ctx.queues.Empty()) {
		return fmt.Errorf("%w: phase order cannot change after commands are queued", errors.ErrRunInProgress)
	}
	if err := phase.ValidateOrder(order); err != nil {
		return err
	}
	r.order = slices.Clone(order)
	r.ctx = nil
	return nil
}

// SetParams replaces the parameter accessor.
func (r *Runner) SetParams(p param.Accessor) {
	if p == nil {
		p = param.Empty
	}
	r.params = p
}

// Running reports whether Run is executing.
func (r *Runner) Running() bool {
	return r.running
}

// Context returns the current execution context, creating it if needed.
func (r *Runner) Context() (*Context, error) {
	if r.ctx != nil {
		return r.ctx, nil
	}
	ctx, err := newContext(r.order, r.resolver, r.logger, r.bus)
	if err != nil {
		return nil, err
	}
	r.ctx = ctx
	return ctx, nil
}

// Queue enqueues name into its phase with its prerequisites.
func (r *Runner) Queue(name string) error {
	cmd, err := r.invocable(name)
	if err != nil {
		return err
	}
	ctx, err := r.Context()
	if err != nil {
		return err
	}
	if err := ctx.Enqueue(cmd.Phase, name, queue.SourceUser); err != nil {
		return withCommand(err, name)
	}
	return nil
}

// OnParamChange enqueues the commands triggered by name. An error raised
// while a run is active also aborts the run once the current action
// returns.
func (r *Runner) OnParamChange(name string, value any) error {
	ctx, err := r.Context()
	if err != nil {
		return err
	}
	r.logger.Debug("param changed", "param", name)
	if r.bus != nil {
		r.bus.Publish(event.NewParamChangedEvent(name, value))
	}

	if err := r.dispatcher.Dispatch(ctx, name); err != nil {
		if r.running {
			ctx.fail(err)
		}
		return err
	}
	return nil
}

// Run executes every queued command to completion and discards the
// execution context.
func (r *Runner) Run() error {
	if r.running {
		return errors.ErrRunInProgress
	}
	ctx, err := r.Context()
	if err != nil {
		return err
	}
	r.running = true
	defer func() {
		r.running = false
		r.ctx = nil
	}()

	start := time.Now()
	if err := drain(ctx, r.Execute); err != nil {
		r.logger.Error("run aborted", "error", err)
		return err
	}
	r.logger.Info("run finished", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// drain walks the phases in order, handing every dequeued entry to exec.
func drain(ctx *Context, exec func(q *queue.Queue, e queue.Entry, depth int) error) error {
	ctx.seq.Start()
	for {
		p, ok := ctx.seq.Current()
		if !ok {
			return nil
		}
		q := ctx.queues.Get(p)
		for e, ok := q.Next(); ok; e, ok = q.Next() {
			if err := exec(q, e, 0); err != nil {
				return err
			}
		}
		ctx.seq.Advance()
	}
}

// Execute runs one dequeued entry. depth is 0 for phase queue entries and
// the nesting depth of the owning cycle for body entries.
func (r *Runner) Execute(q *queue.Queue, e queue.Entry, depth int) error {
	cmd, err := r.registry.Resolve(e.Command)
	if err != nil {
		return err
	}
	log := r.logger.WithPhase(q.Phase()).WithCommand(cmd.Name)

	if err := r.checkParams(cmd.Name); err != nil {
		log.Error("missing required param", "error", err)
		return err
	}

	log.Debug("executing command", "source", e.Source, "depth", depth)
	start := time.Now()
	if err := cmd.Action(); err != nil {
		log.Error("command failed", "error", err)
		if r.bus != nil {
			r.bus.Publish(event.NewCommandFailedEvent(cmd.Name, q.Phase(), err))
		}
		return errors.NewCommandError(cmd.Name, err).WithPhase(q.Phase())
	}
	if r.bus != nil {
		r.bus.Publish(event.NewCommandExecutedEvent(cmd.Name, q.Phase(), time.Since(start)))
	}
	if err := r.ctx.takeErr(); err != nil {
		return err
	}

	if err := r.enqueueNext(cmd); err != nil {
		return err
	}

	if c, ok := r.registry.CycleFor(cmd.Name); ok {
		if err := r.engine.Run(c, q.Phase(), depth+1, r); err != nil {
			return err
		}
	}
	return r.ctx.takeErr()
}

// checkParams fails on the first required param the accessor lacks.
func (r *Runner) checkParams(name string) error {
	required, err := r.registry.RequiredParams(name)
	if err != nil {
		return err
	}
	for _, p := range required {
		if !r.params.Has(p) {
			return errors.NewMissingParamError(name, p)
		}
	}
	return nil
}

// enqueueNext queues the next-commands of cmd into their own phases.
func (r *Runner) enqueueNext(cmd command.Command) error {
	return enqueueNext(r.registry, r.ctx, cmd)
}

func enqueueNext(reg *command.Registry, ctx *Context, cmd command.Command) error {
	for _, name := range cmd.NextCommands {
		next, err := reg.Resolve(name)
		if err != nil {
			return err
		}
		if !next.Invocable {
			return notInvocable(next)
		}
		if err := ctx.Enqueue(next.Phase, name, queue.SourceNext); err != nil {
			return withCommand(err, name)
		}
	}
	return nil
}

// Plan replays the commands queued so far into a scratch context and
// returns the order they would run in, following next-commands but
// without executing actions, cycles or triggers.
func (r *Runner) Plan() ([]queue.PhaseEntries, error) {
	if r.running {
		return nil, errors.ErrRunInProgress
	}
	scratch, err := newContext(r.order, resolver.New(r.registry, nil), logging.NopLogger(), nil)
	if err != nil {
		return nil, err
	}
	if r.ctx != nil {
		for _, rt := range r.ctx.roots {
			if err := scratch.Enqueue(rt.phase, rt.name, rt.source); err != nil {
				return nil, err
			}
		}
	}

	err = drain(scratch, func(_ *queue.Queue, e queue.Entry, _ int) error {
		cmd, err := r.registry.Resolve(e.Command)
		if err != nil {
			return err
		}
		return enqueueNext(r.registry, scratch, cmd)
	})
	if err != nil {
		return nil, err
	}
	return scratch.queues.Snapshot(), nil
}

func (r *Runner) invocable(name string) (command.Command, error) {
	cmd, err := r.registry.Resolve(name)
	if err != nil {
		return command.Command{}, err
	}
	if !cmd.Invocable {
		return command.Command{}, notInvocable(cmd)
	}
	return cmd, nil
}

func notInvocable(cmd command.Command) error {
	return fmt.Errorf("%w: %s is a body command of cycle %s", errors.ErrNotInvocable, cmd.Name, cmd.Owner)
}

// withCommand names the command on phase errors.
func withCommand(err error, name string) error {
	var pe *errors.PhaseError
	if errors.As(err, &pe) && pe.Command == "" {
		return pe.WithCommand(name)
	}
	return err
}
