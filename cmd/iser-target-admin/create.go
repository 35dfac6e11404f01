package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/targetadmin"
)

type createOptions struct {
	tid      int
	lun      int
	chapAuth string
	oldName  string
}

func newCreateCmd(a *app) *cobra.Command {
	opts := &createOptions{}

	cmd := &cobra.Command{
		Use:   "create NAME PATH",
		Short: "Export PATH as the iSER target NAME and print its target id",
		Example: `  iser-target-admin create iqn.2010-10.org.iser.openstack:volume-1 /dev/stgt/volume-1
  iser-target-admin create iqn.2010-10.org.iser.openstack:volume-1 /dev/stgt/volume-1 \
      --chap-auth "incominguser user secret" --old-name volume-0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			helper, err := a.helper()
			if err != nil {
				return err
			}

			var createOpts []targetadmin.CreateOption
			if opts.chapAuth != "" {
				createOpts = append(createOpts, targetadmin.WithCHAPAuth(opts.chapAuth))
			}
			if opts.oldName != "" {
				createOpts = append(createOpts, targetadmin.WithOldName(opts.oldName))
			}

			tid, err := helper.CreateISERTarget(args[0], opts.tid, opts.lun, args[1], createOpts...)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), tid)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.tid, "tid", 0, "requested target id (tgtadm assigns its own)")
	flags.IntVar(&opts.lun, "lun", 0, "logical unit number")
	flags.StringVar(&opts.chapAuth, "chap-auth", "", "authentication line added to the target stanza verbatim")
	flags.StringVar(&opts.oldName, "old-name", "", "record name of the export being renamed; removed once the new export is live")

	return cmd
}
