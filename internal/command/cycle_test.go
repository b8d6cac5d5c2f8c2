package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minouris/spafw37-sub001/internal/errors"
)

func TestRegisterCycle_Validation(t *testing.T) {
	tests := []struct {
		name  string
		def   *CycleDef
		field string
	}{
		{"nil", nil, "name"},
		{"missing name", &CycleDef{Command: Named("a"), Loop: never}, "name"},
		{"missing command", &CycleDef{Name: "c", Loop: never}, "command"},
		{"missing loop", &CycleDef{Name: "c", Command: Named("a")}, "loop condition"},
		{"zero body ref", &CycleDef{Name: "c", Command: Named("a"), Loop: never, Body: []Ref{{}}}, "body command name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestRegistry().RegisterCycle(tt.def)

			var ref *errors.ReferenceError
			if !errors.As(err, &ref) {
				t.Fatalf("RegisterCycle() error = %v, want ReferenceError", err)
			}
			if ref.Field != tt.field {
				t.Errorf("Field = %q, want %q", ref.Field, tt.field)
			}
		})
	}
}

func TestRegisterCycle_DeferredAttach(t *testing.T) {
	reg := newTestRegistry()

	err := reg.RegisterCycle(&CycleDef{
		Name:    "retry",
		Command: Named("fetch"),
		Loop:    never,
		Body:    Refs("attempt"),
	})
	if err != nil {
		t.Fatalf("RegisterCycle() error = %v", err)
	}

	if err := reg.Register(&Definition{Name: "fetch", Phase: "phase-setup", Action: noop}); err != nil {
		t.Fatalf("Register(fetch) error = %v", err)
	}
	if err := reg.Register(&Definition{Name: "attempt", Action: noop}); err != nil {
		t.Fatalf("Register(attempt) error = %v", err)
	}

	fetch, _ := reg.Resolve("fetch")
	if fetch.Cycle != "retry" {
		t.Errorf("fetch.Cycle = %q, want %q", fetch.Cycle, "retry")
	}

	attempt, _ := reg.Resolve("attempt")
	if attempt.Invocable {
		t.Error("body command should not be invocable")
	}
	if attempt.Owner != "retry" {
		t.Errorf("attempt.Owner = %q, want %q", attempt.Owner, "retry")
	}
	if attempt.Phase != "phase-setup" {
		t.Errorf("attempt.Phase = %q, want inherited %q", attempt.Phase, "phase-setup")
	}
}

func TestRegisterCycle_InlineOnCommand(t *testing.T) {
	reg := newTestRegistry()

	err := reg.Register(&Definition{
		Name:   "poll",
		Phase:  "phase-cleanup",
		Action: noop,
		Cycle: &CycleDef{
			Name: "poll-loop",
			Loop: never,
			Body: []Ref{
				Inline(&Definition{Name: "check", RequiredParams: []string{"endpoint"}, Action: noop}),
			},
		},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	cycle, ok := reg.CycleFor("poll")
	if !ok {
		t.Fatal("CycleFor(poll) should find the inline cycle")
	}
	if cycle.Command != "poll" {
		t.Errorf("cycle.Command = %q, want %q", cycle.Command, "poll")
	}
	check, err := reg.Resolve("check")
	if err != nil {
		t.Fatalf("Resolve(check) error = %v", err)
	}
	if check.Phase != "phase-cleanup" {
		t.Errorf("check.Phase = %q, want %q", check.Phase, "phase-cleanup")
	}

	// Registering the same definition again is absorbed.
	if err := reg.Register(&Definition{
		Name:   "poll",
		Phase:  "phase-cleanup",
		Action: noop,
		Cycle:  &CycleDef{Name: "poll-loop", Loop: never, Body: Refs("check")},
	}); err != nil {
		t.Errorf("re-Register() error = %v, want nil", err)
	}
}

func TestRegisterCycle_Conflicts(t *testing.T) {
	t.Run("same name different body", func(t *testing.T) {
		reg := newTestRegistry()
		_ = reg.RegisterCycle(&CycleDef{Name: "c", Command: Named("a"), Loop: never, Body: Refs("x")})

		err := reg.RegisterCycle(&CycleDef{Name: "c", Command: Named("a"), Loop: never, Body: Refs("y")})
		if !errors.Is(err, errors.ErrRegistrationConflict) {
			t.Errorf("RegisterCycle() error = %v, want ErrRegistrationConflict", err)
		}
	})

	t.Run("second cycle on command", func(t *testing.T) {
		reg := newTestRegistry()
		_ = reg.RegisterCycle(&CycleDef{Name: "c1", Command: Named("a"), Loop: never})

		err := reg.RegisterCycle(&CycleDef{Name: "c2", Command: Named("a"), Loop: never})
		if !errors.Is(err, errors.ErrRegistrationConflict) {
			t.Errorf("RegisterCycle() error = %v, want ErrRegistrationConflict", err)
		}
	})

	t.Run("equivalent re-registration", func(t *testing.T) {
		reg := newTestRegistry()
		def := &CycleDef{Name: "c", Command: Named("a"), Loop: never, Body: Refs("x")}
		_ = reg.RegisterCycle(def)

		copied := *def
		if err := reg.RegisterCycle(&copied); err != nil {
			t.Errorf("RegisterCycle(equivalent) error = %v, want nil", err)
		}
		if diff := cmp.Diff([]string{"c"}, reg.Cycles()); diff != "" {
			t.Errorf("Cycles() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("inline cycle naming another command", func(t *testing.T) {
		reg := newTestRegistry()
		err := reg.Register(&Definition{
			Name:   "a",
			Action: noop,
			Cycle:  &CycleDef{Name: "c", Command: Named("b"), Loop: never},
		})
		if !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("Register() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("command conflict leaves no partial cycle", func(t *testing.T) {
		reg := newTestRegistry()
		_ = reg.RegisterCycle(&CycleDef{Name: "existing", Command: Named("a"), Loop: never})

		err := reg.Register(&Definition{
			Name:   "a",
			Action: noop,
			Cycle:  &CycleDef{Name: "other", Loop: never},
		})
		if !errors.Is(err, errors.ErrRegistrationConflict) {
			t.Fatalf("Register() error = %v, want ErrRegistrationConflict", err)
		}
		if reg.Has("a") {
			t.Error("command should not be registered when its cycle conflicts")
		}
	})
}

func TestRequiredParams(t *testing.T) {
	reg := newTestRegistry()
	err := reg.RegisterAll(
		&Definition{
			Name:           "outer",
			RequiredParams: []string{"a", "b"},
			Action:         noop,
			Cycle: &CycleDef{
				Name: "outer-loop",
				Loop: never,
				Body: []Ref{
					Inline(&Definition{Name: "step1", RequiredParams: []string{"b", "c"}, Action: noop}),
					Named("inner"),
				},
			},
		},
		&Definition{
			Name:           "inner",
			RequiredParams: []string{"d"},
			Action:         noop,
			Cycle: &CycleDef{
				Name: "inner-loop",
				Loop: never,
				Body: []Ref{Inline(&Definition{Name: "leaf", RequiredParams: []string{"a", "e"}, Action: noop})},
			},
		},
	)
	if err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}

	got, err := reg.RequiredParams("outer")
	if err != nil {
		t.Fatalf("RequiredParams() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, got); diff != "" {
		t.Errorf("RequiredParams() mismatch (-want +got):\n%s", diff)
	}

	leaf, _ := reg.Resolve("leaf")
	if leaf.Owner != "inner-loop" || leaf.Invocable {
		t.Errorf("leaf = %+v, want owned by inner-loop and not invocable", leaf)
	}

	if _, err := reg.RequiredParams("missing"); !errors.Is(err, errors.ErrUnresolvedReference) {
		t.Errorf("RequiredParams(missing) error = %v, want ErrUnresolvedReference", err)
	}
}

func TestCommands_Listing(t *testing.T) {
	reg := newTestRegistry()
	_ = reg.RegisterAll(
		&Definition{Name: "b", Description: "second", Action: noop},
		&Definition{Name: "a", Description: "first", Action: noop},
	)

	cmds := reg.Commands()
	if len(cmds) != 2 || cmds[0].Name != "b" || cmds[1].Description != "first" {
		t.Errorf("Commands() = %+v", cmds)
	}
}
