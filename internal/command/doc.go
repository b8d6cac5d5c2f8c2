// Package command defines command and cycle declarations and the registry
// that normalises and stores them.
//
// A [Definition] declares a unit of work together with its scheduling
// metadata: required params, ordering relative to other commands,
// prerequisites that are queued automatically, follow-on commands, a
// parameter trigger and an optional [CycleDef]. References between commands
// are [Ref] values that either name a command or carry an inline definition.
//
// The [Registry] accepts declarations in any order. Re-registering an
// equivalent declaration is silently absorbed; equivalence compares every
// field, and funcs compare by code pointer.
//
// Usage:
//
//	reg := command.NewRegistry(phase.DefaultPhase)
//	err := reg.Register(&command.Definition{
//	    Name:          "test",
//	    RequireBefore: []string{"build"},
//	    Action:        runTests,
//	})
package command
