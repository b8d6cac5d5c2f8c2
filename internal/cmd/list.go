package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the commands a manifest declares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, file)
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()
			for _, c := range sess.scheduler.Commands() {
				var notes []string
				if !c.Invocable {
					notes = append(notes, "body of "+c.Owner)
				}
				if c.Cycle != "" {
					notes = append(notes, "cycle "+c.Cycle)
				}
				if c.Trigger != nil {
					notes = append(notes, "trigger "+c.Trigger.Pattern())
				}

				line := fmt.Sprintf("%-20s %-18s %s", c.Name, c.Phase, c.Description)
				if len(notes) > 0 {
					line += " (" + strings.Join(notes, ", ") + ")"
				}
				fmt.Fprintln(out, strings.TrimRight(line, " "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "manifest file")
	return cmd
}
