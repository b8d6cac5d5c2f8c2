package runner

import (
	"github.com/minouris/spafw37-sub001/internal/event"
	"github.com/minouris/spafw37-sub001/internal/logging"
	"github.com/minouris/spafw37-sub001/internal/phase"
	"github.com/minouris/spafw37-sub001/internal/queue"
	"github.com/minouris/spafw37-sub001/internal/resolver"
)

// root is a command queued from outside the run loop.
type root struct {
	phase  string
	name   string
	source string
}

// Context is the state of one run: phase status, the per-phase queues, the
// commands triggered so far and the first trigger error raised while an
// action was running. It is created on the first enqueue or Run and thrown
// away when Run returns.
type Context struct {
	seq       *phase.Sequencer
	queues    *queue.Set
	resolver  *resolver.Resolver
	triggered map[string]bool
	roots     []root
	err       error
}

func newContext(order []string, r *resolver.Resolver, logger *logging.Logger, bus *event.Bus) (*Context, error) {
	seq, err := phase.NewSequencer(order)
	if err != nil {
		return nil, err
	}
	c := &Context{
		seq:       seq,
		queues:    queue.NewSet(order),
		resolver:  r,
		triggered: make(map[string]bool),
	}

	seq.OnChange(func(p string, st phase.Status) {
		logger.Info("phase "+st.String(), "phase", p)
		if bus != nil {
			bus.Publish(event.NewPhaseChangedEvent(p, st.String()))
		}
	})
	if bus != nil {
		queue.PublishSetInserts(c.queues, bus)
	}
	return c, nil
}

// Check returns nil when p can accept commands.
func (c *Context) Check(p string) error {
	return c.seq.Check(p)
}

// EarliestOpen returns the active phase while running, otherwise the first
// pending one.
func (c *Context) EarliestOpen() (string, bool) {
	return c.seq.EarliestOpen()
}

// Enqueue resolves name into the queue of phase p. Commands queued before
// the run starts are remembered so Plan can replay them.
func (c *Context) Enqueue(p, name, source string) error {
	if err := c.seq.Check(p); err != nil {
		return err
	}
	if err := c.resolver.Enqueue(c.queues.Get(p), name, source); err != nil {
		return err
	}
	if !c.seq.Started() {
		c.roots = append(c.roots, root{phase: p, name: name, source: source})
	}
	return nil
}

// Triggered reports whether name already fired in this run.
func (c *Context) Triggered(name string) bool {
	return c.triggered[name]
}

// MarkTriggered records that name fired in this run.
func (c *Context) MarkTriggered(name string) {
	c.triggered[name] = true
}

// Phases returns the phase sequencer.
func (c *Context) Phases() *phase.Sequencer {
	return c.seq
}

// Queues returns the per-phase queues.
func (c *Context) Queues() *queue.Set {
	return c.queues
}

// fail records err if no earlier error is pending.
func (c *Context) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// takeErr returns and clears the pending error.
func (c *Context) takeErr() error {
	err := c.err
	c.err = nil
	return err
}
