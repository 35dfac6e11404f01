package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	var tid int

	cmd := &cobra.Command{
		Use:   "show IQN",
		Short: "Exit successfully if tgtd currently exports IQN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			helper, err := a.helper()
			if err != nil {
				return err
			}
			if err := helper.ShowTarget(tid, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is exported\n", args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&tid, "tid", 0, "target id (unused by tgtadm)")

	return cmd
}
