package targetadmin

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	utilexec "k8s.io/utils/exec"
	testingexec "k8s.io/utils/exec/testing"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/config"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/execute"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/observability"
)

const (
	testVolumesDir = "/var/lib/cinder/volumes"
	testPrefix     = "iqn.2010-iser:"
)

// toolCall scripts one tgt-admin invocation
type toolCall struct {
	stdout string
	stderr string
	err    error
	hook   func() // runs while the command "executes"
}

// fakeTool scripts tgt-admin and records every argv it was run with
type fakeTool struct {
	exec  *testingexec.FakeExec
	calls [][]string
}

func newFakeTool(calls ...toolCall) *fakeTool {
	ft := &fakeTool{exec: &testingexec.FakeExec{}}
	for _, call := range calls {
		call := call
		ft.exec.CommandScript = append(ft.exec.CommandScript, func(cmd string, args ...string) utilexec.Cmd {
			ft.calls = append(ft.calls, append([]string{cmd}, args...))
			fakeCmd := &testingexec.FakeCmd{
				RunScript: []testingexec.FakeAction{
					func() ([]byte, []byte, error) {
						if call.hook != nil {
							call.hook()
						}
						return []byte(call.stdout), []byte(call.stderr), call.err
					},
				},
			}
			return testingexec.InitFakeCmd(fakeCmd, cmd, args...)
		})
	}
	return ft
}

func (ft *fakeTool) runner() execute.Runner {
	return execute.NewRunner(ft.exec, "sudo")
}

func testConfig() config.Config {
	return config.Config{
		IserHelper:         config.HelperTgtAdm,
		StatePath:          "/var/lib/cinder",
		VolumesDir:         testVolumesDir,
		IserTargetPrefix:   testPrefix,
		VolumeNameTemplate: "%s",
		RootHelper:         "sudo",
		TgtAdminPath:       "tgt-admin",
	}
}

// newTestTgtAdm builds a TgtAdm over an in-memory filesystem
func newTestTgtAdm(t *testing.T, cfg config.Config, ft *fakeTool) (*TgtAdm, afero.Fs, *observability.Metrics) {
	t.Helper()
	fs := afero.NewMemMapFs()
	metrics := observability.NewMetrics()
	return NewTgtAdm(cfg, ft.runner(), WithFs(fs), WithMetrics(metrics)), fs, metrics
}

func writeRecord(t *testing.T, fs afero.Fs, name, content string) string {
	t.Helper()
	path := testVolumesDir + "/" + name
	require.NoError(t, fs.MkdirAll(testVolumesDir, 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	return path
}

func recordExists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	return exists
}

func showOutput(lines ...string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

// counterValue reads a counter from the metrics registry; 0 if absent
func counterValue(t *testing.T, m *observability.Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := m.Gatherer().Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			matched := 0
			for _, lp := range metric.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
