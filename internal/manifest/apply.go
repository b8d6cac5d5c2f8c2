package manifest

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/minouris/spafw37-sub001/internal/param"
	"github.com/minouris/spafw37-sub001/pkg/scheduler"
)

// Env is what built-in actions act on.
type Env struct {
	// Out receives message actions.
	Out io.Writer
	// Params receives set actions.
	Params *param.Store
}

// Apply configures phases and registers every command and cycle of m on s.
func Apply(s *scheduler.Scheduler, m *Manifest, env Env) error {
	if env.Out == nil {
		env.Out = io.Discard
	}
	if len(m.Phases) > 0 {
		if err := s.ConfigurePhaseOrder(m.Phases...); err != nil {
			return err
		}
	}
	if m.DefaultPhase != "" {
		if err := s.SetDefaultPhase(m.DefaultPhase); err != nil {
			return err
		}
	}

	b := builder{env: env}
	for i := range m.Commands {
		if err := s.RegisterCommand(b.definition(&m.Commands[i])); err != nil {
			return fmt.Errorf("command %q: %w", m.Commands[i].Name, err)
		}
	}
	for i := range m.Cycles {
		if err := s.RegisterCycle(b.cycle(&m.Cycles[i])); err != nil {
			return fmt.Errorf("cycle %q: %w", m.Cycles[i].Name, err)
		}
	}
	return nil
}

type builder struct {
	env Env
}

func (b builder) definition(c *CommandSpec) *scheduler.Definition {
	def := &scheduler.Definition{
		Name:           c.Name,
		Description:    c.Description,
		Phase:          c.Phase,
		RequiredParams: c.RequiredParams,
		GoesBefore:     c.GoesBefore,
		GoesAfter:      c.GoesAfter,
		RequireBefore:  c.RequireBefore,
		TriggerParam:   c.Trigger,
		Action:         b.action(c.Name, c.Action),
	}
	for _, r := range c.Next {
		def.NextCommands = append(def.NextCommands, b.ref(r))
	}
	if c.Cycle != nil {
		def.Cycle = b.cycle(c.Cycle)
	}
	return def
}

func (b builder) ref(r RefSpec) scheduler.Ref {
	if r.Inline != nil {
		return scheduler.Inline(b.definition(r.Inline))
	}
	return scheduler.Named(r.Name)
}

// cycle builds a cycle that runs its body c.Iterations times per
// invocation. Init resets the counter so nested cycles repeat fully on
// every outer iteration.
func (b builder) cycle(c *CycleSpec) *scheduler.CycleDef {
	n, i := c.Iterations, 0
	def := &scheduler.CycleDef{
		Name: c.Name,
		Init: func() error {
			i = 0
			return nil
		},
		Loop: func() bool {
			i++
			return i <= n
		},
	}
	if c.Command != "" {
		def.Command = scheduler.Named(c.Command)
	}
	for _, r := range c.Body {
		def.Body = append(def.Body, b.ref(r))
	}
	return def
}

func (b builder) action(name string, a ActionSpec) scheduler.Action {
	switch {
	case a.Message != "":
		return func() error {
			_, err := fmt.Fprintf(b.env.Out, "[%s] %s\n", name, a.Message)
			return err
		}
	case len(a.Set) > 0:
		return func() error {
			if b.env.Params == nil {
				return fmt.Errorf("no param store for set action")
			}
			for _, k := range slices.Sorted(maps.Keys(a.Set)) {
				if err := b.env.Params.Set(k, a.Set[k]); err != nil {
					return err
				}
			}
			return nil
		}
	case a.Fail != "":
		return func() error {
			return fmt.Errorf("%s", a.Fail)
		}
	default:
		return func() error { return nil }
	}
}
