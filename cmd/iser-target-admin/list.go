package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/targetadmin"
)

// targetLister is implemented by helpers that can enumerate live targets
type targetLister interface {
	ListTargets() ([]targetadmin.Target, error)
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the targets tgtd currently exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			helper, err := a.helper()
			if err != nil {
				return err
			}

			lister, ok := helper.(targetLister)
			if !ok {
				return fmt.Errorf("%w: helper %q cannot list targets", targetadmin.ErrNotSupported, a.cfg.IserHelper)
			}

			targets, err := lister.ListTargets()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TID\tIQN\tDRIVER\tBACKING STORES")
			for _, t := range targets {
				stores := "-"
				if len(t.BackingStores) > 0 {
					stores = strings.Join(t.BackingStores, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.TID, t.IQN, t.Driver, stores)
			}
			return w.Flush()
		},
	}
}
