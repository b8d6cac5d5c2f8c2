package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/minouris/spafw37-sub001/internal/event"
)

func newRunCmd() *cobra.Command {
	var file string
	var params []string
	var trace bool

	cmd := &cobra.Command{
		Use:   "run <command>...",
		Short: "Run commands from a manifest",
		Long: `Queue the given commands from a manifest and run every phase to
completion. The run stops at the first failure.

Params are set with --param key=value. Values are parsed as YAML scalars,
so --param verbose=true sets a boolean.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, file)
			if err != nil {
				return err
			}
			defer sess.Close()

			if trace {
				sess.bus.SubscribeAll(func(e event.Event) {
					writeTrace(cmd.ErrOrStderr(), e)
				})
			}

			if err := sess.setParams(params); err != nil {
				return err
			}
			if err := queueAll(sess.scheduler, args); err != nil {
				return err
			}
			return sess.scheduler.Run()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "manifest file")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "set a param (key=value, repeatable)")
	cmd.Flags().BoolVar(&trace, "trace", false, "print scheduler events to stderr")
	return cmd
}

// setParams parses key=value pairs and sets them on the session store,
// firing any triggers.
func (s *session) setParams(pairs []string) error {
	for _, pair := range pairs {
		key, value, err := parseParam(pair)
		if err != nil {
			return err
		}
		if err := s.params.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

func parseParam(pair string) (string, any, error) {
	key, raw, ok := strings.Cut(pair, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid param %q: expected key=value", pair)
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		return key, raw, nil
	}
	return key, value, nil
}

func writeTrace(w io.Writer, e event.Event) {
	switch ev := e.(type) {
	case event.PhaseChangedEvent:
		fmt.Fprintf(w, "phase %s %s\n", ev.Phase, ev.Status)
	case event.CommandQueuedEvent:
		fmt.Fprintf(w, "queued %s in %s at %d (%s)\n", ev.Command, ev.Phase, ev.Position, ev.Source)
	case event.CommandExecutedEvent:
		fmt.Fprintf(w, "executed %s\n", ev.Command)
	case event.CommandFailedEvent:
		fmt.Fprintf(w, "failed %s: %v\n", ev.Command, ev.Err)
	case event.TriggerFiredEvent:
		fmt.Fprintf(w, "trigger %s queued %s in %s\n", ev.Param, ev.Command, ev.Phase)
	case event.CycleIterationEvent:
		fmt.Fprintf(w, "cycle %s iteration %d\n", ev.Cycle, ev.Iteration)
	default:
		fmt.Fprintf(w, "%s\n", e.EventType())
	}
}
