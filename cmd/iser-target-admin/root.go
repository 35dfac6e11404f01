package main

import (
	"context"
	"flag"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iser-target-admin",
		Short: "Manage iSER exports through tgt-admin",
		Long: `iser-target-admin creates, removes and inspects iSER exports served by tgtd.

Each export is described by a configuration record under volumes_dir, which
tgtd must include:

  include /var/lib/cinder/volumes/*

Settings come from --config (YAML) and ISER_* environment variables, e.g.
ISER_VOLUMES_DIR or ISER_ROOT_HELPER.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML configuration file")
	flags.StringVar(&a.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit (node_exporter textfile format)")

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	flags.AddGoFlagSet(klogFlags)

	cmd.AddCommand(
		newCreateCmd(a),
		newRemoveCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newVersionCmd(),
	)

	return cmd
}

// execute runs the command line and flushes metrics whatever the outcome
func execute(ctx context.Context, a *app, args []string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.out)

	err := cmd.ExecuteContext(ctx)
	a.flushMetrics()
	return err
}
