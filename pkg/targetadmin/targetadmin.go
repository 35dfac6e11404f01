package targetadmin

import (
	"fmt"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/execute"
)

// TargetAdmin creates, removes and queries iSER exports
type TargetAdmin interface {
	// CreateISERTarget exports path under name and returns the target id
	// assigned by the helper. tid and lun are hints some helpers ignore.
	CreateISERTarget(name string, tid, lun int, path string, opts ...CreateOption) (string, error)

	// RemoveISERTarget removes the export of volumeID
	RemoveISERTarget(tid, lun int, volumeID string) error

	// ShowTarget returns nil if iqn is currently exported
	ShowTarget(tid int, iqn string) error
}

// TargetHooks are the target and logical unit primitives for helpers that
// compose an export from discrete steps. Helpers that do not need them keep
// the Base implementations, which return ErrNotSupported.
type TargetHooks interface {
	NewTarget(name string, tid int) error
	DeleteTarget(tid int) error
	NewLogicalUnit(tid, lun int, path string) error
	DeleteLogicalUnit(tid, lun int) error
}

// Base binds a helper's command name and command runner. Both are fixed at
// construction.
type Base struct {
	cmd    string
	runner execute.Runner
}

// NewBase creates a Base that runs cmd through runner
func NewBase(cmd string, runner execute.Runner) Base {
	return Base{cmd: cmd, runner: runner}
}

// Command returns the bound command name
func (b Base) Command() string {
	return b.cmd
}

// Run executes the bound command as root with args
func (b Base) Run(args ...string) (string, string, error) {
	if b.runner == nil {
		return "", "", fmt.Errorf("no command runner configured for %q", b.cmd)
	}
	return b.runner.RunAsRoot(b.cmd, args...)
}

// NewTarget implements TargetHooks
func (Base) NewTarget(name string, tid int) error {
	return ErrNotSupported
}

// DeleteTarget implements TargetHooks
func (Base) DeleteTarget(tid int) error {
	return ErrNotSupported
}

// NewLogicalUnit implements TargetHooks
func (Base) NewLogicalUnit(tid, lun int, path string) error {
	return ErrNotSupported
}

// DeleteLogicalUnit implements TargetHooks
func (Base) DeleteLogicalUnit(tid, lun int) error {
	return ErrNotSupported
}

// createOptions holds optional CreateISERTarget arguments
type createOptions struct {
	chapAuth string
	oldName  string
}

// CreateOption configures a CreateISERTarget call
type CreateOption func(*createOptions)

// WithCHAPAuth adds a pre-formatted authentication line (for example
// "incominguser user secret") to the target stanza verbatim
func WithCHAPAuth(stanza string) CreateOption {
	return func(o *createOptions) {
		o.chapAuth = stanza
	}
}

// WithOldName names the record of the export being renamed. It is removed
// once the new export is live.
func WithOldName(name string) CreateOption {
	return func(o *createOptions) {
		o.oldName = name
	}
}

func buildCreateOptions(opts []CreateOption) createOptions {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
