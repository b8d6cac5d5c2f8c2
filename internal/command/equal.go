package command

import (
	"fmt"
	"slices"
	"unsafe"
)

// sameFunc reports whether two funcs are the same func value. A func value
// points at its closure, so two closures built by one factory from
// different captured values are different callables.
func sameFunc[F Action | Hook | LoopCondition](a, b F) bool {
	return funcPointer(a) == funcPointer(b)
}

func funcPointer[F Action | Hook | LoopCondition](f F) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&f))
}

func sameRefs(a, b []Ref) bool {
	return slices.Equal(Names(a...), Names(b...))
}

// diffDefinitions returns the first differing field of two command
// definitions, or "" when they are equivalent. Both must already have their
// phase normalised. Inline refs in b are checked against the commands
// already registered under their names.
func (r *Registry) diffDefinitions(a, b *Definition, seen map[string]bool) string {
	switch {
	case a.Name != b.Name:
		return "name"
	case a.Description != b.Description:
		return "description"
	case a.Phase != b.Phase:
		return "phase"
	case !slices.Equal(a.RequiredParams, b.RequiredParams):
		return "required params"
	case !slices.Equal(a.GoesBefore, b.GoesBefore):
		return "goes-before"
	case !slices.Equal(a.GoesAfter, b.GoesAfter):
		return "goes-after"
	case !slices.Equal(a.RequireBefore, b.RequireBefore):
		return "requires-before"
	case !sameRefs(a.NextCommands, b.NextCommands):
		return "next commands"
	case a.TriggerParam != b.TriggerParam:
		return "trigger param"
	case !sameFunc(a.Action, b.Action):
		return "action"
	}
	if field := r.diffInline(b.NextCommands, seen); field != "" {
		return "next command " + field
	}

	switch {
	case (a.Cycle == nil) != (b.Cycle == nil):
		return "cycle"
	case a.Cycle != nil:
		if field := r.diffCycles(a.Cycle, b.Cycle, seen); field != "" {
			return "cycle " + field
		}
	}
	return ""
}

// diffCycles returns the first differing field of two cycle definitions,
// or "" when they are equivalent.
func (r *Registry) diffCycles(a, b *CycleDef, seen map[string]bool) string {
	switch {
	case a.Name != b.Name:
		return "name"
	case a.Command.Name() != b.Command.Name():
		return "command"
	case !sameFunc(a.Init, b.Init):
		return "init"
	case !sameFunc(a.LoopStart, b.LoopStart):
		return "loop-start"
	case !sameFunc(a.LoopEnd, b.LoopEnd):
		return "loop-end"
	case !sameFunc(a.End, b.End):
		return "end"
	case !sameFunc(a.Loop, b.Loop):
		return "loop"
	case !sameRefs(a.Body, b.Body):
		return "body"
	}
	if field := r.diffInline([]Ref{b.Command}, seen); field != "" {
		return "command " + field
	}
	if field := r.diffInline(b.Body, seen); field != "" {
		return "body " + field
	}
	return ""
}

// diffInline compares each inline definition in refs with the command
// registered under its name. Unregistered and invalid definitions are left
// for registration to handle. It returns "<name>: <field>" for the first
// difference.
func (r *Registry) diffInline(refs []Ref, seen map[string]bool) string {
	for _, ref := range refs {
		def := ref.Definition()
		if def == nil || seen[def.Name] {
			continue
		}
		existing, ok := r.commands[def.Name]
		if !ok {
			continue
		}
		norm, err := r.normalise(def)
		if err != nil {
			continue
		}
		seen[def.Name] = true
		if field := r.diffDefinitions(&existing.def, &norm, seen); field != "" {
			return def.Name + ": " + field
		}
	}
	return ""
}

func fieldDiffError(field string) error {
	return fmt.Errorf("%s differs", field)
}
