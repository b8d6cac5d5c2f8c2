package command

// Action is the work a command performs. A nil error means success.
type Action func() error

// Hook is a cycle lifecycle callback. A nil error means success.
type Hook func() error

// LoopCondition decides whether a cycle runs another iteration.
type LoopCondition func() bool

// Definition declares a command. Only Name and Action are required.
type Definition struct {
	Name        string
	Description string
	// Phase the command runs in. Empty means the registry's default phase.
	Phase string
	// RequiredParams must all have values when the command is dequeued.
	RequiredParams []string
	// GoesBefore names commands this one must precede when both are queued
	// in the same phase. It never enqueues anything.
	GoesBefore []string
	// GoesAfter names commands this one must follow when both are queued
	// in the same phase. It never enqueues anything.
	GoesAfter []string
	// RequireBefore names prerequisites that are enqueued ahead of this
	// command, in the same phase, whenever it is enqueued.
	RequireBefore []string
	// NextCommands are enqueued into their own phases after the action succeeds.
	NextCommands []Ref
	// TriggerParam enqueues the command when a matching parameter changes.
	// Either an exact name or a glob pattern such as "log.*".
	TriggerParam string
	// Cycle attaches a loop that runs after the action succeeds.
	Cycle  *CycleDef
	Action Action
}

// CycleDef declares a cycle: a loop over body commands attached to a
// command. Name, Command and Loop are required.
type CycleDef struct {
	Name string
	// Command is the command the cycle is attached to.
	Command   Ref
	Init      Hook
	LoopStart Hook
	LoopEnd   Hook
	End       Hook
	// Loop is checked before the first iteration and after every LoopEnd.
	Loop LoopCondition
	// Body commands run in order on every iteration. They inherit the phase
	// of Command and cannot be queued directly.
	Body []Ref
}

// Ref points at a command either by name or by an inline definition that is
// registered on first use.
type Ref struct {
	name   string
	inline *Definition
}

// Named returns a Ref to a command registered elsewhere.
func Named(name string) Ref {
	return Ref{name: name}
}

// Inline returns a Ref carrying its own definition.
func Inline(def *Definition) Ref {
	return Ref{inline: def}
}

// Name returns the referenced command name.
func (r Ref) Name() string {
	if r.inline != nil {
		return r.inline.Name
	}
	return r.name
}

// Definition returns the inline definition, or nil for a named reference.
func (r Ref) Definition() *Definition {
	return r.inline
}

// IsInline reports whether the Ref carries a definition.
func (r Ref) IsInline() bool {
	return r.inline != nil
}

// IsZero reports whether the Ref points at nothing.
func (r Ref) IsZero() bool {
	return r.inline == nil && r.name == ""
}

// Names returns the names of refs, in order.
func Names(refs ...Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name()
	}
	return out
}

// Refs converts names into named references.
func Refs(names ...string) []Ref {
	out := make([]Ref, len(names))
	for i, n := range names {
		out[i] = Named(n)
	}
	return out
}
