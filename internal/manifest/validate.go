package manifest

import (
	"fmt"
	"strings"
)

// ValidationError is a single problem found in a manifest.
type ValidationError struct {
	Path    string // e.g. "commands[2].cycle.iterations"
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is every problem found in a manifest.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d manifest errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

type validator struct {
	errs     []ValidationError
	commands map[string]bool
	cycles   map[string]bool
}

// Validate checks the manifest for problems the scheduler would reject
// less clearly at registration time.
func (m *Manifest) Validate() []ValidationError {
	v := &validator{
		commands: make(map[string]bool),
		cycles:   make(map[string]bool),
	}
	if len(m.Commands) == 0 {
		v.add("commands", "must declare at least one command")
	}
	for i := range m.Commands {
		v.command(fmt.Sprintf("commands[%d]", i), &m.Commands[i])
	}
	for i := range m.Cycles {
		path := fmt.Sprintf("cycles[%d]", i)
		if m.Cycles[i].Command == "" {
			v.add(path+".command", "is required for a top-level cycle")
		}
		v.cycle(path, &m.Cycles[i])
	}
	return v.errs
}

func (v *validator) add(path, msg string) {
	v.errs = append(v.errs, ValidationError{Path: path, Message: msg})
}

func (v *validator) command(path string, c *CommandSpec) {
	if c.Name == "" {
		v.add(path+".name", "is required")
	} else if v.commands[c.Name] {
		v.add(path+".name", fmt.Sprintf("duplicate command %q", c.Name))
	}
	v.commands[c.Name] = true

	set := 0
	if c.Action.Message != "" {
		set++
	}
	if len(c.Action.Set) > 0 {
		set++
	}
	if c.Action.Fail != "" {
		set++
	}
	if set > 1 {
		v.add(path+".action", "must set only one of message, set, fail")
	}

	v.refs(path+".next", c.Next)
	if c.Cycle != nil {
		if c.Cycle.Command != "" && c.Cycle.Command != c.Name {
			v.add(path+".cycle.command", fmt.Sprintf("must be empty or %q", c.Name))
		}
		v.cycle(path+".cycle", c.Cycle)
	}
}

func (v *validator) cycle(path string, c *CycleSpec) {
	if c.Name == "" {
		v.add(path+".name", "is required")
	} else if v.cycles[c.Name] {
		v.add(path+".name", fmt.Sprintf("duplicate cycle %q", c.Name))
	}
	v.cycles[c.Name] = true

	if c.Iterations < 0 {
		v.add(path+".iterations", "must not be negative")
	}
	v.refs(path+".body", c.Body)
}

func (v *validator) refs(path string, refs []RefSpec) {
	for i := range refs {
		p := fmt.Sprintf("%s[%d]", path, i)
		if refs[i].Inline != nil {
			v.command(p, refs[i].Inline)
		} else if refs[i].Name == "" {
			v.add(p, "command name must not be empty")
		}
	}
}
