package targetadmin

import (
	"fmt"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/config"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/execute"
)

// New returns the helper selected by cfg.IserHelper. Options apply to the
// tgtadm helper only.
func New(cfg config.Config, runner execute.Runner, opts ...Option) (TargetAdmin, error) {
	switch cfg.IserHelper {
	case config.HelperTgtAdm:
		return NewTgtAdm(cfg, runner, opts...), nil
	case config.HelperFake:
		return NewFake(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHelper, cfg.IserHelper)
	}
}
