// Package scheduler is the host-facing surface of the command scheduler.
//
// A host registers commands and cycles, queues the commands it wants run,
// wires parameter changes to OnParamChange and calls Run:
//
//	s, _ := scheduler.New()
//	_ = s.RegisterCommands(
//		&scheduler.Definition{Name: "backup", Action: backup},
//		&scheduler.Definition{Name: "migrate", RequireBefore: []string{"backup"}, Action: migrate},
//	)
//	_ = s.Queue("migrate")
//	err := s.Run() // backup, then migrate
//
// Each Scheduler is independent; there is no package-level state.
package scheduler

import (
	"slices"

	"github.com/minouris/spafw37-sub001/internal/command"
	"github.com/minouris/spafw37-sub001/internal/config"
	"github.com/minouris/spafw37-sub001/internal/errors"
	"github.com/minouris/spafw37-sub001/internal/event"
	"github.com/minouris/spafw37-sub001/internal/logging"
	"github.com/minouris/spafw37-sub001/internal/param"
	"github.com/minouris/spafw37-sub001/internal/phase"
	"github.com/minouris/spafw37-sub001/internal/queue"
	"github.com/minouris/spafw37-sub001/internal/runner"
	"github.com/minouris/spafw37-sub001/internal/trigger"
)

type (
	// Definition declares a command.
	Definition = command.Definition
	// CycleDef declares a cycle attached to a command.
	CycleDef = command.CycleDef
	// Ref names a command or carries an inline definition.
	Ref = command.Ref
	// Action is the work a command performs.
	Action = command.Action
	// Hook is a cycle lifecycle callback.
	Hook = command.Hook
	// LoopCondition decides whether a cycle runs another iteration.
	LoopCondition = command.LoopCondition
	// Command is a registered command.
	Command = command.Command
	// Accessor reads parameter values.
	Accessor = param.Accessor
	// PhaseEntries lists the commands planned for one phase.
	PhaseEntries = queue.PhaseEntries
)

// Built-in phase names.
const (
	PhaseSetup     = phase.Setup
	PhaseCleanup   = phase.Cleanup
	PhaseExecution = phase.Execution
	PhaseTeardown  = phase.Teardown
	PhaseEnd       = phase.End
)

// Named refers to a registered command by name.
func Named(name string) Ref { return command.Named(name) }

// Inline carries a definition registered on first use.
func Inline(def *Definition) Ref { return command.Inline(def) }

// Refs builds name references.
func Refs(names ...string) []Ref { return command.Refs(names...) }

type options struct {
	cfg    *config.Config
	logger *logging.Logger
	bus    *event.Bus
	params param.Accessor
}

// Option configures a Scheduler.
type Option func(*options)

// WithConfig applies cfg instead of config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBus publishes scheduler events on bus.
func WithBus(bus *event.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// WithParams sets the parameter accessor used for required param checks.
func WithParams(p Accessor) Option {
	return func(o *options) { o.params = p }
}

// Scheduler registers commands and runs them phase by phase.
type Scheduler struct {
	registry *command.Registry
	runner   *runner.Runner
	logger   *logging.Logger
}

// New creates a Scheduler.
func New(opts ...Option) (*Scheduler, error) {
	o := options{
		cfg:    config.Default(),
		logger: logging.NopLogger(),
		params: param.Empty,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NopLogger()
	}
	if errs := o.cfg.Validate(); len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}
	if o.bus != nil {
		o.bus.SetLogger(o.logger)
	}

	reg := command.NewRegistry(o.cfg.Phases.Default)
	r, err := runner.New(reg, runner.Config{
		Order:      o.cfg.Phases.Order,
		MaxDepth:   o.cfg.Cycles.MaxDepth,
		LatePolicy: trigger.Policy(o.cfg.Triggers.LatePolicy),
	},
		runner.WithLogger(o.logger),
		runner.WithBus(o.bus),
		runner.WithParams(o.params),
	)
	if err != nil {
		return nil, err
	}

	return &Scheduler{registry: reg, runner: r, logger: o.logger}, nil
}

// RegisterCommand registers def. Registering an equivalent definition
// twice is a no-op; a different definition under the same name fails with
// ErrRegistrationConflict.
func (s *Scheduler) RegisterCommand(def *Definition) error {
	return s.registry.Register(def)
}

// RegisterCommands registers defs in order, stopping at the first error.
func (s *Scheduler) RegisterCommands(defs ...*Definition) error {
	return s.registry.RegisterAll(defs...)
}

// RegisterCycle registers a cycle and attaches it to its command.
func (s *Scheduler) RegisterCycle(def *CycleDef) error {
	return s.registry.RegisterCycle(def)
}

// RegisterCycles registers defs in order, stopping at the first error.
func (s *Scheduler) RegisterCycles(defs ...*CycleDef) error {
	return s.registry.RegisterCycles(defs...)
}

// ConfigurePhaseOrder replaces the phase order. It fails once commands
// have been queued.
func (s *Scheduler) ConfigurePhaseOrder(order ...string) error {
	if err := s.runner.SetOrder(order); err != nil {
		return err
	}
	if def := s.registry.DefaultPhase(); !slices.Contains(order, def) {
		s.logger.Warn("default phase is not in the new phase order", "phase", def)
	}
	return nil
}

// SetDefaultPhase sets the phase given to commands registered without one
// from now on. Commands already registered keep their phase.
func (s *Scheduler) SetDefaultPhase(name string) error {
	if !slices.Contains(s.runner.Order(), name) {
		return errors.NewUnknownPhaseError(name)
	}
	s.registry.SetDefaultPhase(name)
	return nil
}

// DefaultPhase returns the phase given to commands registered without one.
func (s *Scheduler) DefaultPhase() string {
	return s.registry.DefaultPhase()
}

// Phases returns the configured phase order.
func (s *Scheduler) Phases() []string {
	return s.runner.Order()
}

// SetParams replaces the parameter accessor.
func (s *Scheduler) SetParams(p Accessor) {
	s.runner.SetParams(p)
}

// BindStore uses store for required param checks and fires triggers when
// its values change.
func (s *Scheduler) BindStore(store *param.Store) {
	s.runner.SetParams(store)
	store.OnChange(s.OnParamChange)
}

// Queue enqueues each named command, with its prerequisites, into its phase.
func (s *Scheduler) Queue(names ...string) error {
	for _, name := range names {
		if err := s.runner.Queue(name); err != nil {
			return err
		}
	}
	return nil
}

// OnParamChange enqueues the commands triggered by a change to name.
func (s *Scheduler) OnParamChange(name string, value any) error {
	return s.runner.OnParamChange(name, value)
}

// Run executes every queued command to completion. It stops at the first
// error.
func (s *Scheduler) Run() error {
	return s.runner.Run()
}

// Plan returns the order the queued commands would run in without
// executing them.
func (s *Scheduler) Plan() ([]PhaseEntries, error) {
	return s.runner.Plan()
}

// Commands returns every registered command in registration order.
func (s *Scheduler) Commands() []Command {
	return s.registry.Commands()
}

// Command returns the registered command called name.
func (s *Scheduler) Command(name string) (Command, error) {
	return s.registry.Resolve(name)
}
