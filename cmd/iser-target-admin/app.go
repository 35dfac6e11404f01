package main

import (
	"io"
	"os"

	"github.com/spf13/afero"
	"k8s.io/klog/v2"
	utilexec "k8s.io/utils/exec"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/config"
	execpkg "git.srvlab.io/whiskey/iser-target-admin/pkg/execute"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/observability"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/targetadmin"
)

// app carries state shared by every subcommand
type app struct {
	// Flags
	configPath      string
	metricsTextfile string

	// Loaded in PersistentPreRunE
	cfg     config.Config
	metrics *observability.Metrics

	// Overridable for tests
	fs  afero.Fs
	run utilexec.Interface
	out io.Writer
}

func newApp() *app {
	return &app{
		fs:  afero.NewOsFs(),
		run: utilexec.New(),
		out: os.Stdout,
	}
}

// load reads configuration and prepares metrics
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.metrics = observability.NewMetrics()
	klog.V(4).Infof("Loaded configuration: helper=%s volumes_dir=%s prefix=%s",
		cfg.IserHelper, cfg.VolumesDir, cfg.IserTargetPrefix)
	return nil
}

// helper builds the target helper selected by configuration
func (a *app) helper() (targetadmin.TargetAdmin, error) {
	runner := execpkg.NewRunner(a.run, a.cfg.RootHelper)
	return targetadmin.New(a.cfg, runner,
		targetadmin.WithFs(a.fs),
		targetadmin.WithMetrics(a.metrics),
	)
}

// flushMetrics writes the metrics textfile if one was requested
func (a *app) flushMetrics() {
	if a.metricsTextfile == "" || a.metrics == nil {
		return
	}
	if err := a.metrics.WriteTextfile(a.metricsTextfile); err != nil {
		klog.Warningf("Failed to write metrics to %s: %v", a.metricsTextfile, err)
		return
	}
	klog.V(4).Infof("Wrote metrics to %s", a.metricsTextfile)
}
