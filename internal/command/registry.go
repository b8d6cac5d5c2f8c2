package command

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/minouris/spafw37-sub001/internal/errors"
)

// Command is a registered, normalised command. It is immutable after
// registration; Resolve returns copies carrying the effective phase.
type Command struct {
	Name           string
	Description    string
	Phase          string
	RequiredParams []string
	GoesBefore     []string
	GoesAfter      []string
	RequireBefore  []string
	NextCommands   []string
	Trigger        *Matcher
	Action         Action
	// Cycle is the name of the attached cycle, if any.
	Cycle string
	// Invocable is false for cycle body commands.
	Invocable bool
	// Owner is the cycle a body command belongs to.
	Owner string
}

// GoesBeforeCommand reports whether c declares it precedes other.
func (c Command) GoesBeforeCommand(other string) bool {
	return slices.Contains(c.GoesBefore, other)
}

// GoesAfterCommand reports whether c declares it follows other.
func (c Command) GoesAfterCommand(other string) bool {
	return slices.Contains(c.GoesAfter, other)
}

// Requires reports whether other is a requires-before prerequisite of c.
func (c Command) Requires(other string) bool {
	return slices.Contains(c.RequireBefore, other)
}

// Cycle is a registered, normalised cycle.
type Cycle struct {
	Name      string
	Command   string
	Init      Hook
	LoopStart Hook
	LoopEnd   Hook
	End       Hook
	Loop      LoopCondition
	Body      []string
}

type entry struct {
	cmd Command
	def Definition // normalised copy used for equivalence checks
}

type cycleEntry struct {
	cycle Cycle
	def   CycleDef
}

// Registry stores commands and cycles by name. Registration order does not
// matter: names may be referenced before they are registered and are only
// resolved when a run needs them.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	defaultPhase string
	commands     map[string]*entry
	order        []string
	cycles       map[string]*cycleEntry
	cycleOrder   []string
	attached     map[string]string // command -> cycle
	owners       map[string]string // body command -> cycle
	visiting     map[string]bool   // names entered by the current registration
}

// NewRegistry creates an empty registry assigning defaultPhase to commands
// registered without one.
func NewRegistry(defaultPhase string) *Registry {
	return &Registry{
		defaultPhase: defaultPhase,
		commands:     make(map[string]*entry),
		cycles:       make(map[string]*cycleEntry),
		attached:     make(map[string]string),
		owners:       make(map[string]string),
	}
}

// SetDefaultPhase changes the phase assigned to commands registered from now on.
func (r *Registry) SetDefaultPhase(phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultPhase = phase
}

// DefaultPhase returns the phase assigned to commands registered without one.
func (r *Registry) DefaultPhase() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultPhase
}

// Register adds a command. Registering an equivalent definition under an
// existing name is a no-op; a different one is a RegistrationError. Inline
// next-commands and an inline cycle are registered along with it, and a
// failure in any of them leaves the registry unchanged.
func (r *Registry) Register(def *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.atomically(func() error { return r.register(def) })
}

// RegisterAll registers defs in order, stopping at the first error.
func (r *Registry) RegisterAll(defs ...*Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range defs {
		if err := r.atomically(func() error { return r.register(def) }); err != nil {
			return err
		}
	}
	return nil
}

// RegisterInline registers ref's inline definition, if any, and returns the
// referenced name.
func (r *Registry) RegisterInline(ref Ref) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var name string
	err := r.atomically(func() error {
		var err error
		name, err = r.registerRef(ref)
		return err
	})
	return name, err
}

// RegisterCycle adds a cycle and attaches it to its command. The command
// does not need to be registered yet.
func (r *Registry) RegisterCycle(def *CycleDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.atomically(func() error { return r.registerCycle(def) })
}

// RegisterCycles registers defs in order, stopping at the first error.
func (r *Registry) RegisterCycles(defs ...*CycleDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range defs {
		if err := r.atomically(func() error { return r.registerCycle(def) }); err != nil {
			return err
		}
	}
	return nil
}

// atomically runs fn and, if it fails, restores the registry to its state
// before fn ran. A command whose inline children fail is not kept.
func (r *Registry) atomically(fn func() error) error {
	commands := maps.Clone(r.commands)
	cycles := maps.Clone(r.cycles)
	attached := maps.Clone(r.attached)
	owners := maps.Clone(r.owners)
	order := slices.Clone(r.order)
	cycleOrder := slices.Clone(r.cycleOrder)

	r.visiting = make(map[string]bool)
	defer func() { r.visiting = nil }()

	if err := fn(); err != nil {
		r.commands, r.cycles = commands, cycles
		r.attached, r.owners = attached, owners
		r.order, r.cycleOrder = order, cycleOrder
		return err
	}
	return nil
}

func (r *Registry) registerRef(ref Ref) (string, error) {
	if ref.IsZero() {
		return "", errors.NewMissingFieldError("command", "", "name")
	}
	if def := ref.Definition(); def != nil {
		if err := r.register(def); err != nil {
			return "", err
		}
	}
	return ref.Name(), nil
}

func (r *Registry) normalise(def *Definition) (Definition, error) {
	if def == nil || def.Name == "" {
		return Definition{}, errors.NewMissingFieldError("command", "", "name")
	}
	if def.Action == nil {
		return Definition{}, errors.NewMissingFieldError("command", def.Name, "action")
	}

	norm := *def
	if norm.Phase == "" {
		norm.Phase = r.defaultPhase
	}
	if norm.Cycle != nil {
		c := *norm.Cycle
		if c.Command.IsZero() {
			c.Command = Named(norm.Name)
		} else if c.Command.Name() != norm.Name {
			return Definition{}, errors.NewValidationError("cycle attached to a different command").
				WithField("cycle.command").
				WithValue(c.Command.Name())
		}
		norm.Cycle = &c
	}
	return norm, nil
}

func (r *Registry) register(def *Definition) error {
	norm, err := r.normalise(def)
	if err != nil {
		return err
	}

	if existing, ok := r.commands[norm.Name]; ok {
		seen := map[string]bool{norm.Name: true}
		if field := r.diffDefinitions(&existing.def, &norm, seen); field != "" {
			return errors.NewRegistrationError("command", norm.Name).WithCause(fieldDiffError(field))
		}
		if r.visiting["command:"+norm.Name] {
			return nil
		}
		r.visiting["command:"+norm.Name] = true
		return r.registerChildren(&norm)
	}

	trigger, err := CompileTrigger(norm.TriggerParam)
	if err != nil {
		return err
	}
	if err := r.checkRequiresLoop(norm.Name, norm.RequireBefore); err != nil {
		return err
	}
	if norm.Cycle != nil {
		if _, err := r.checkCycle(norm.Cycle); err != nil {
			return err
		}
	}

	r.commands[norm.Name] = &entry{
		cmd: Command{
			Name:           norm.Name,
			Description:    norm.Description,
			Phase:          norm.Phase,
			RequiredParams: slices.Clone(norm.RequiredParams),
			GoesBefore:     slices.Clone(norm.GoesBefore),
			GoesAfter:      slices.Clone(norm.GoesAfter),
			RequireBefore:  slices.Clone(norm.RequireBefore),
			NextCommands:   Names(norm.NextCommands...),
			Trigger:        trigger,
			Action:         norm.Action,
		},
		def: norm,
	}
	r.order = append(r.order, norm.Name)
	r.visiting["command:"+norm.Name] = true
	return r.registerChildren(&norm)
}

// registerChildren registers the inline next-commands and cycle of def.
// Children already registered go through the usual equivalence check.
func (r *Registry) registerChildren(def *Definition) error {
	for _, next := range def.NextCommands {
		if _, err := r.registerRef(next); err != nil {
			return err
		}
	}
	if def.Cycle != nil {
		if err := r.registerCycle(def.Cycle); err != nil {
			return err
		}
	}
	return nil
}

// checkRequiresLoop walks requires-before edges from a command about to be
// registered and reports a path back to it. Any new loop must pass through
// the new command because earlier registrations were already loop free.
func (r *Registry) checkRequiresLoop(name string, requires []string) error {
	visited := make(map[string]bool)
	path := []string{name}

	var walk func(deps []string) []string
	walk = func(deps []string) []string {
		for _, dep := range deps {
			if dep == name {
				return append(slices.Clone(path), dep)
			}
			if visited[dep] {
				continue
			}
			visited[dep] = true
			e, ok := r.commands[dep]
			if !ok {
				continue
			}
			path = append(path, dep)
			if loop := walk(e.cmd.RequireBefore); loop != nil {
				return loop
			}
			path = path[:len(path)-1]
		}
		return nil
	}

	if loop := walk(requires); loop != nil {
		return errors.NewDependencyCycleError(loop)
	}
	return nil
}

// checkCycle validates def and reports whether it is already registered.
// It never modifies the registry.
func (r *Registry) checkCycle(def *CycleDef) (exists bool, err error) {
	if def == nil || def.Name == "" {
		return false, errors.NewMissingFieldError("cycle", "", "name")
	}
	if def.Command.IsZero() {
		return false, errors.NewMissingFieldError("cycle", def.Name, "command")
	}
	if def.Loop == nil {
		return false, errors.NewMissingFieldError("cycle", def.Name, "loop condition")
	}
	for _, body := range def.Body {
		if body.IsZero() {
			return false, errors.NewMissingFieldError("cycle", def.Name, "body command name")
		}
	}

	if existing, ok := r.cycles[def.Name]; ok {
		if field := r.diffCycles(&existing.def, def, make(map[string]bool)); field != "" {
			return true, errors.NewRegistrationError("cycle", def.Name).WithCause(fieldDiffError(field))
		}
		return true, nil
	}

	target := def.Command.Name()
	if other, ok := r.attached[target]; ok && other != def.Name {
		return false, errors.NewRegistrationError("cycle", def.Name).
			WithCause(fmt.Errorf("command '%s' already has cycle '%s'", target, other))
	}
	return false, nil
}

func (r *Registry) registerCycle(def *CycleDef) error {
	exists, err := r.checkCycle(def)
	if err != nil {
		return err
	}
	if exists {
		if r.visiting["cycle:"+def.Name] {
			return nil
		}
		r.visiting["cycle:"+def.Name] = true
		return r.registerCycleRefs(def)
	}

	target := def.Command.Name()
	norm := *def
	norm.Body = slices.Clone(def.Body)
	r.cycles[def.Name] = &cycleEntry{
		cycle: Cycle{
			Name:      def.Name,
			Command:   target,
			Init:      def.Init,
			LoopStart: def.LoopStart,
			LoopEnd:   def.LoopEnd,
			End:       def.End,
			Loop:      def.Loop,
			Body:      Names(def.Body...),
		},
		def: norm,
	}
	r.cycleOrder = append(r.cycleOrder, def.Name)
	r.attached[target] = def.Name
	for _, body := range def.Body {
		r.owners[body.Name()] = def.Name
	}
	r.visiting["cycle:"+def.Name] = true
	return r.registerCycleRefs(def)
}

// registerCycleRefs registers the inline command and body definitions of def.
func (r *Registry) registerCycleRefs(def *CycleDef) error {
	if _, err := r.registerRef(def.Command); err != nil {
		return err
	}
	for _, body := range def.Body {
		if _, err := r.registerRef(body); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the registered command with its effective phase: body
// commands take the phase of the command their cycle is attached to.
func (r *Registry) Resolve(name string) (Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(name)
}

func (r *Registry) resolve(name string) (Command, error) {
	e, ok := r.commands[name]
	if !ok {
		return Command{}, errors.NewUnresolvedReferenceError(name)
	}
	cmd := e.cmd
	cmd.Cycle = r.attached[name]
	cmd.Owner = r.owners[name]
	cmd.Invocable = cmd.Owner == ""
	cmd.Phase = r.effectivePhase(name, make(map[string]bool))
	return cmd, nil
}

func (r *Registry) effectivePhase(name string, seen map[string]bool) string {
	e := r.commands[name]
	owner, owned := r.owners[name]
	if !owned || seen[name] {
		return e.cmd.Phase
	}
	seen[name] = true
	parent := r.cycles[owner].cycle.Command
	if _, ok := r.commands[parent]; !ok {
		return e.cmd.Phase
	}
	return r.effectivePhase(parent, seen)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.commands[name]
	return ok
}

// Names returns registered command names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Commands returns every registered command, resolved, in registration order.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		cmd, _ := r.resolve(name)
		out = append(out, cmd)
	}
	return out
}

// Cycle returns the named cycle.
func (r *Registry) Cycle(name string) (Cycle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.cycles[name]
	if !ok {
		return Cycle{}, false
	}
	return e.cycle, true
}

// CycleFor returns the cycle attached to command.
func (r *Registry) CycleFor(command string) (Cycle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.attached[command]
	if !ok {
		return Cycle{}, false
	}
	return r.cycles[name].cycle, true
}

// Cycles returns registered cycle names in registration order.
func (r *Registry) Cycles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.cycleOrder)
}

// RequiredParams returns the params command needs: its own, followed by
// those of every body command of its cycle, recursively, without
// duplicates and in declaration order.
func (r *Registry) RequiredParams(name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var params []string
	seen := make(map[string]bool)
	visited := make(map[string]bool)

	var collect func(cmd string) error
	collect = func(cmd string) error {
		if visited[cmd] {
			return nil
		}
		visited[cmd] = true

		e, ok := r.commands[cmd]
		if !ok {
			return errors.NewUnresolvedReferenceError(cmd)
		}
		for _, p := range e.cmd.RequiredParams {
			if !seen[p] {
				seen[p] = true
				params = append(params, p)
			}
		}
		cycleName, ok := r.attached[cmd]
		if !ok {
			return nil
		}
		for _, body := range r.cycles[cycleName].cycle.Body {
			if err := collect(body); err != nil {
				return err
			}
		}
		return nil
	}

	if err := collect(name); err != nil {
		return nil, err
	}
	return params, nil
}

// Triggered returns, in registration order, the commands whose trigger
// param matches param.
func (r *Registry) Triggered(param string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, name := range r.order {
		if r.commands[name].cmd.Trigger.Match(param) {
			out = append(out, name)
		}
	}
	return out
}
