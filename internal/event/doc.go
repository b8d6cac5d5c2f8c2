// Package event provides a synchronous pub-sub event bus for observing a
// scheduler run without coupling observers to the runner.
//
// # Event Categories
//
// Phases:
//   - [PhaseChangedEvent]: a phase became active or completed
//
// Commands:
//   - [CommandQueuedEvent]: a command was placed in a phase queue
//   - [CommandExecutedEvent]: a command action succeeded
//   - [CommandFailedEvent]: a command aborted the run
//
// Triggers and cycles:
//   - [TriggerFiredEvent]: a parameter change enqueued a command
//   - [CycleIterationEvent]: a cycle started another iteration
//   - [ParamChangedEvent]: a parameter store value changed
//
// # Basic Usage
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypeCommandExecuted, func(e event.Event) {
//	    done := e.(event.CommandExecutedEvent)
//	    fmt.Println(done.Command, done.Duration)
//	})
//
// Handlers are called synchronously on the publishing goroutine. A panicking
// handler is recovered and logged so it cannot stop delivery to the others.
package event
