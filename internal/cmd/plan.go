package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/minouris/spafw37-sub001/pkg/scheduler"
)

func newPlanCmd() *cobra.Command {
	var file string
	var params []string

	cmd := &cobra.Command{
		Use:   "plan <command>...",
		Short: "Show the order queued commands would run in",
		Long: `Show the per-phase order the given commands would run in, including
automatic prerequisites and next-commands, without executing anything.

Params given with --param fire their triggers before planning.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, file)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.setParams(params); err != nil {
				return err
			}
			if err := queueAll(sess.scheduler, args); err != nil {
				return err
			}
			plan, err := sess.scheduler.Plan()
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "manifest file")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "set a param before planning (key=value, repeatable)")
	return cmd
}

func printPlan(w io.Writer, plan []scheduler.PhaseEntries) {
	for _, pe := range plan {
		fmt.Fprintf(w, "%s:\n", pe.Phase)
		if len(pe.Entries) == 0 {
			fmt.Fprintln(w, "  (empty)")
			continue
		}
		for i, e := range pe.Entries {
			fmt.Fprintf(w, "  %d. %s [%s]\n", i+1, e.Command, e.Source)
		}
	}
}
