// Package execute runs external programs on behalf of the target helpers.
//
// A Runner blocks until the program exits. Any failure to run the program,
// including a non-zero exit status, is reported as a *ProcessExecutionError so
// callers can treat every external failure the same way.
package execute

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"k8s.io/klog/v2"
	utilexec "k8s.io/utils/exec"
)

// Runner executes external commands
type Runner interface {
	// Run executes name with args as the current user
	Run(name string, args ...string) (stdout string, stderr string, err error)

	// RunAsRoot executes name with args through the configured root helper
	RunAsRoot(name string, args ...string) (stdout string, stderr string, err error)
}

// ProcessExecutionError is returned when an external command cannot be run
// or exits with a non-zero status
type ProcessExecutionError struct {
	Command  string
	ExitCode int // -1 when the process never produced an exit status
	Stdout   string
	Stderr   string
	Err      error
}

// Error implements the error interface
func (e *ProcessExecutionError) Error() string {
	msg := fmt.Sprintf("command %q failed (exit %d)", e.Command, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying exec error
func (e *ProcessExecutionError) Unwrap() error {
	return e.Err
}

// IsProcessExecutionError reports whether err is or wraps a *ProcessExecutionError
func IsProcessExecutionError(err error) bool {
	var pe *ProcessExecutionError
	return errors.As(err, &pe)
}

// runner implements Runner on top of k8s.io/utils/exec
type runner struct {
	exec       utilexec.Interface
	rootHelper []string
}

// NewRunner creates a Runner. rootHelper is split on whitespace and
// prepended to commands run with RunAsRoot (e.g. "sudo" or
// "sudo cinder-rootwrap /etc/cinder/rootwrap.conf"); an empty helper runs
// the command directly.
func NewRunner(exec utilexec.Interface, rootHelper string) Runner {
	if exec == nil {
		exec = utilexec.New()
	}
	return &runner{
		exec:       exec,
		rootHelper: strings.Fields(rootHelper),
	}
}

// Run implements Runner
func (r *runner) Run(name string, args ...string) (string, string, error) {
	return r.run(append([]string{name}, args...))
}

// RunAsRoot implements Runner
func (r *runner) RunAsRoot(name string, args ...string) (string, string, error) {
	argv := make([]string, 0, len(r.rootHelper)+1+len(args))
	argv = append(argv, r.rootHelper...)
	argv = append(argv, name)
	argv = append(argv, args...)
	return r.run(argv)
}

func (r *runner) run(argv []string) (string, string, error) {
	command := strings.Join(argv, " ")
	klog.V(5).Infof("Executing command: %s", command)

	var stdout, stderr bytes.Buffer
	cmd := r.exec.Command(argv[0], argv[1:]...)
	cmd.SetStdout(&stdout)
	cmd.SetStderr(&stderr)

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr utilexec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitStatus()
		}
		klog.V(4).Infof("Command %q failed (exit %d): %v, stderr: %s", command, exitCode, err, stderr.String())
		return stdout.String(), stderr.String(), &ProcessExecutionError{
			Command:  command,
			ExitCode: exitCode,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	klog.V(5).Infof("Command output: %s", stdout.String())
	return stdout.String(), stderr.String(), nil
}
