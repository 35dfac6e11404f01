package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	execpkg "git.srvlab.io/whiskey/iser-target-admin/pkg/execute"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/targetadmin"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/utils"
)

type removeOptions struct {
	tid           int
	lun           int
	retries       int
	retryInterval time.Duration
}

func newRemoveCmd(a *app) *cobra.Command {
	opts := &removeOptions{}

	cmd := &cobra.Command{
		Use:   "remove VOLUME_ID",
		Short: "Remove the iSER export of VOLUME_ID",
		Long: `Remove the iSER export of VOLUME_ID. The configuration record name is
volume_name_template applied to VOLUME_ID.

With --retries, a tgt-admin failure (for example a target still busy with
initiator sessions) is retried with exponential backoff. A missing
configuration record is never retried.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.retries < 0 {
				return fmt.Errorf("--retries must not be negative")
			}

			helper, err := a.helper()
			if err != nil {
				return err
			}

			volumeID := args[0]
			remove := func() error {
				return helper.RemoveISERTarget(opts.tid, opts.lun, volumeID)
			}

			if opts.retries == 0 {
				return remove()
			}

			backoff := utils.DefaultBackoffConfig()
			backoff.Steps = opts.retries + 1
			backoff.Duration = opts.retryInterval

			klog.V(4).Infof("Removing export of %s with up to %d retries", volumeID, opts.retries)
			return utils.RetryWithBackoff(cmd.Context(), backoff, isRetryableRemoveError, remove)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.tid, "tid", 0, "target id (unused by tgtadm)")
	flags.IntVar(&opts.lun, "lun", 0, "logical unit number (unused by tgtadm)")
	flags.IntVar(&opts.retries, "retries", 0, "retry a failed tgt-admin delete this many times")
	flags.DurationVar(&opts.retryInterval, "retry-interval", time.Second, "initial delay between retries; doubles after each attempt")

	return cmd
}

// isRetryableRemoveError reports whether a remove failed inside tgt-admin,
// as opposed to failing a precondition such as a missing record
func isRetryableRemoveError(err error) bool {
	return errors.Is(err, targetadmin.ErrExportRemoveFailed) && execpkg.IsProcessExecutionError(err)
}
