package cycle

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minouris/spafw37-sub001/internal/command"
	"github.com/minouris/spafw37-sub001/internal/errors"
	"github.com/minouris/spafw37-sub001/internal/event"
	"github.com/minouris/spafw37-sub001/internal/queue"
	"github.com/minouris/spafw37-sub001/internal/resolver"
)

const testPhase = "phase-execution"

// recorder collects the order of actions and hooks.
type recorder struct {
	calls []string
}

func (r *recorder) action(name string) command.Action {
	return func() error {
		r.calls = append(r.calls, name)
		return nil
	}
}

func (r *recorder) hook(name string) command.Hook {
	return func() error {
		r.calls = append(r.calls, name)
		return nil
	}
}

// counter returns a loop condition that is true n times.
func counter(n int) command.LoopCondition {
	i := 0
	return func() bool {
		i++
		return i <= n
	}
}

// testExecutor runs actions and recurses into attached cycles.
func testExecutor(reg *command.Registry, eng *Engine) Executor {
	var exec ExecutorFunc
	exec = func(q *queue.Queue, e queue.Entry, depth int) error {
		cmd, err := reg.Resolve(e.Command)
		if err != nil {
			return err
		}
		if err := cmd.Action(); err != nil {
			return errors.NewCommandError(cmd.Name, err)
		}
		if c, ok := reg.CycleFor(cmd.Name); ok {
			return eng.Run(c, q.Phase(), depth+1, exec)
		}
		return nil
	}
	return exec
}

func setup(t *testing.T, maxDepth int, defs ...*command.Definition) (*command.Registry, *Engine) {
	t.Helper()
	reg := command.NewRegistry(testPhase)
	if err := reg.RegisterAll(defs...); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}
	return reg, NewEngine(resolver.New(reg, nil), maxDepth)
}

func TestRun_Lifecycle(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
		want       []string
	}{
		{
			name:       "zero iterations still runs init and end",
			iterations: 0,
			want:       []string{"init", "end"},
		},
		{
			name:       "two iterations",
			iterations: 2,
			want: []string{
				"init",
				"start", "step-a", "step-b", "stop",
				"start", "step-a", "step-b", "stop",
				"end",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			reg, eng := setup(t, 5,
				&command.Definition{
					Name:   "parent",
					Action: rec.action("parent"),
					Cycle: &command.CycleDef{
						Name:      "loop",
						Init:      rec.hook("init"),
						LoopStart: rec.hook("start"),
						LoopEnd:   rec.hook("stop"),
						End:       rec.hook("end"),
						Loop:      counter(tt.iterations),
						Body: []command.Ref{
							command.Inline(&command.Definition{Name: "step-a", Action: rec.action("step-a")}),
							command.Inline(&command.Definition{Name: "step-b", Action: rec.action("step-b")}),
						},
					},
				},
			)

			c, _ := reg.CycleFor("parent")
			if err := eng.Run(c, testPhase, 1, testExecutor(reg, eng)); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, rec.calls); diff != "" {
				t.Errorf("call order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_BodyUsesResolver(t *testing.T) {
	rec := &recorder{}
	reg, eng := setup(t, 5,
		&command.Definition{Name: "prep", Action: rec.action("prep")},
		&command.Definition{
			Name:   "parent",
			Action: rec.action("parent"),
			Cycle: &command.CycleDef{
				Name: "loop",
				Loop: counter(2),
				Body: []command.Ref{
					command.Inline(&command.Definition{
						Name:          "work",
						RequireBefore: []string{"prep"},
						Action:        rec.action("work"),
					}),
				},
			},
		},
	)

	c, _ := reg.CycleFor("parent")
	if err := eng.Run(c, testPhase, 1, testExecutor(reg, eng)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Each iteration has a fresh queue, so prerequisites run every time.
	want := []string{"prep", "work", "prep", "work"}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Nested(t *testing.T) {
	rec := &recorder{}
	reg, eng := setup(t, 5,
		&command.Definition{
			Name:   "outer",
			Action: rec.action("outer"),
			Cycle: &command.CycleDef{
				Name: "outer-loop",
				Loop: counter(2),
				Body: command.Refs("inner"),
			},
		},
		&command.Definition{
			Name:   "inner",
			Action: rec.action("inner"),
			Cycle: &command.CycleDef{
				Name: "inner-loop",
				Init: rec.hook("inner-init"),
				End:  rec.hook("inner-end"),
				Loop: counter(3),
				Body: []command.Ref{
					command.Inline(&command.Definition{Name: "leaf", Action: rec.action("leaf")}),
				},
			},
		},
	)

	c, _ := reg.CycleFor("outer")
	if err := eng.Run(c, testPhase, 1, testExecutor(reg, eng)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// counter(3) is exhausted after the first outer iteration, so the
	// second pass runs only INIT and END of the inner cycle.
	want := []string{
		"inner", "inner-init", "leaf", "leaf", "leaf", "inner-end",
		"inner", "inner-init", "inner-end",
	}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_DepthExceeded(t *testing.T) {
	// chain builds c0 -> c1 -> ... with each cycle running its body once.
	chain := func(levels int) []*command.Definition {
		var defs []*command.Definition
		for i := 0; i < levels; i++ {
			def := &command.Definition{Name: fmt.Sprintf("c%d", i), Action: func() error { return nil }}
			if i+1 < levels {
				def.Cycle = &command.CycleDef{
					Name: fmt.Sprintf("loop%d", i),
					Loop: counter(1),
					Body: command.Refs(fmt.Sprintf("c%d", i+1)),
				}
			}
			defs = append(defs, def)
		}
		return defs
	}

	t.Run("within limit", func(t *testing.T) {
		reg, eng := setup(t, 3, chain(4)...)
		c, _ := reg.CycleFor("c0")
		if err := eng.Run(c, testPhase, 1, testExecutor(reg, eng)); err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	})

	t.Run("beyond limit", func(t *testing.T) {
		reg, eng := setup(t, 2, chain(4)...)
		c, _ := reg.CycleFor("c0")
		err := eng.Run(c, testPhase, 1, testExecutor(reg, eng))

		var depthErr *errors.CycleDepthError
		if !errors.As(err, &depthErr) {
			t.Fatalf("Run() error = %v, want CycleDepthError", err)
		}
		if depthErr.Cycle != "loop2" || depthErr.Depth != 3 || depthErr.Max != 2 {
			t.Errorf("CycleDepthError = %+v", depthErr)
		}
	})
}

func TestRun_HookFailure(t *testing.T) {
	boom := fmt.Errorf("boom")
	hooks := []string{HookInit, HookLoopStart, HookLoopEnd, HookEnd}

	for _, failing := range hooks {
		t.Run(failing, func(t *testing.T) {
			fail := func(name string) command.Hook {
				return func() error {
					if name == failing {
						return boom
					}
					return nil
				}
			}
			reg, eng := setup(t, 5, &command.Definition{
				Name:   "parent",
				Action: func() error { return nil },
				Cycle: &command.CycleDef{
					Name:      "loop",
					Init:      fail(HookInit),
					LoopStart: fail(HookLoopStart),
					LoopEnd:   fail(HookLoopEnd),
					End:       fail(HookEnd),
					Loop:      counter(1),
				},
			})

			c, _ := reg.CycleFor("parent")
			err := eng.Run(c, testPhase, 1, testExecutor(reg, eng))

			var cmdErr *errors.CommandError
			if !errors.As(err, &cmdErr) {
				t.Fatalf("Run() error = %v, want CommandError", err)
			}
			if cmdErr.Command != "loop" || cmdErr.Hook != failing {
				t.Errorf("CommandError = %+v, want command loop hook %s", cmdErr, failing)
			}
			if !errors.Is(err, boom) {
				t.Error("errors.Is(err, boom) = false, want true")
			}
		})
	}
}

func TestRun_BodyFailureStops(t *testing.T) {
	rec := &recorder{}
	reg, eng := setup(t, 5, &command.Definition{
		Name:   "parent",
		Action: rec.action("parent"),
		Cycle: &command.CycleDef{
			Name:    "loop",
			LoopEnd: rec.hook("stop"),
			End:     rec.hook("end"),
			Loop:    counter(3),
			Body: []command.Ref{
				command.Inline(&command.Definition{Name: "bad", Action: func() error { return fmt.Errorf("bad") }}),
			},
		},
	})

	c, _ := reg.CycleFor("parent")
	err := eng.Run(c, testPhase, 1, testExecutor(reg, eng))
	if !errors.Is(err, errors.ErrCommandFailed) {
		t.Fatalf("Run() error = %v, want ErrCommandFailed", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("calls = %v, want none after body failure", rec.calls)
	}
}

func TestRun_PublishesIterations(t *testing.T) {
	bus := event.NewBus()
	var iterations []int
	bus.Subscribe(event.TypeCycleIteration, func(e event.Event) {
		iterations = append(iterations, e.(event.CycleIterationEvent).Iteration)
	})

	reg := command.NewRegistry(testPhase)
	_ = reg.Register(&command.Definition{
		Name:   "parent",
		Action: func() error { return nil },
		Cycle:  &command.CycleDef{Name: "loop", Loop: counter(3)},
	})
	eng := NewEngine(resolver.New(reg, nil), 5, WithBus(bus))

	c, _ := reg.CycleFor("parent")
	if err := eng.Run(c, testPhase, 1, testExecutor(reg, eng)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, iterations); diff != "" {
		t.Errorf("iterations mismatch (-want +got):\n%s", diff)
	}
}
