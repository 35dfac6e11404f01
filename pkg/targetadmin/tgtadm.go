package targetadmin

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"k8s.io/klog/v2"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/config"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/execute"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/observability"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/security"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/utils"
)

const (
	volumesDirPerm os.FileMode = 0o755
	recordPerm     os.FileMode = 0o644
)

// Option configures a TgtAdm
type Option func(*TgtAdm)

// WithFs sets the filesystem holding configuration records (default: OS filesystem)
func WithFs(fs afero.Fs) Option {
	return func(t *TgtAdm) {
		t.fs = fs
	}
}

// WithMetrics enables Prometheus metrics (may be nil)
func WithMetrics(m *observability.Metrics) Option {
	return func(t *TgtAdm) {
		t.metrics = m
	}
}

// WithAuditLogger sets the audit logger (default: one counting into the
// configured metrics)
func WithAuditLogger(l *security.Logger) Option {
	return func(t *TgtAdm) {
		t.audit = l
	}
}

// TgtAdm administers exports with tgt-admin and per-volume configuration
// records under volumes_dir
type TgtAdm struct {
	Base

	fs                 afero.Fs
	volumesDir         string
	targetPrefix       string
	volumeNameTemplate string
	metrics            *observability.Metrics
	audit              *security.Logger
}

var (
	_ TargetAdmin = &TgtAdm{}
	_ TargetHooks = &TgtAdm{}
)

// NewTgtAdm creates a tgt-admin backed helper. A nil runner runs commands on
// the local host through cfg.RootHelper.
func NewTgtAdm(cfg config.Config, runner execute.Runner, opts ...Option) *TgtAdm {
	if runner == nil {
		runner = execute.NewRunner(nil, cfg.RootHelper)
	}

	t := &TgtAdm{
		Base:               NewBase(cfg.TgtAdminPath, runner),
		fs:                 afero.NewOsFs(),
		volumesDir:         cfg.VolumesDir,
		targetPrefix:       cfg.IserTargetPrefix,
		volumeNameTemplate: cfg.VolumeNameTemplate,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.audit == nil {
		t.audit = security.NewLogger(t.metrics)
	}
	return t
}

// CreateISERTarget implements TargetAdmin. tid and lun are ignored: tgtd
// assigns the target id, which is read back from tgt-admin --show.
func (t *TgtAdm) CreateISERTarget(name string, tid, lun int, path string, opts ...CreateOption) (result string, err error) {
	var volumeID, iqn string
	start := time.Now()
	defer func() {
		t.recordOp("create", err, start)
		t.audit.LogExportCreate(volumeID, iqn, path, auditOutcome(err), err, time.Since(start))
	}()

	o := buildCreateOptions(opts)

	if err := t.fs.MkdirAll(t.volumesDir, volumesDirPerm); err != nil {
		return "", fmt.Errorf("failed to create volumes directory %s: %w", t.volumesDir, err)
	}

	volumeID, err = utils.ExportNameToVolumeID(name)
	if err != nil {
		klog.Errorf("Failed to create iser target %s: %v", name, err)
		t.audit.LogValidationFailure("name", name, err.Error())
		return "", &InvalidParameterValueError{Message: err.Error()}
	}

	var oldPersistFile string
	if o.oldName != "" {
		if err := utils.ValidateRecordName(o.oldName); err != nil {
			klog.Errorf("Failed to create iser target for volume id:%s: invalid old name: %v", volumeID, err)
			t.audit.LogValidationFailure("old_name", o.oldName, err.Error())
			return "", &InvalidParameterValueError{Message: err.Error()}
		}
		oldPersistFile = filepath.Join(t.volumesDir, o.oldName)
	}

	klog.V(2).Infof("Creating iser_target for volume %s", volumeID)

	volumePath := filepath.Join(t.volumesDir, volumeID)
	volumeConf := renderVolumeConf(name, path, o.chapAuth)
	if err := afero.WriteFile(t.fs, volumePath, []byte(volumeConf), recordPerm); err != nil {
		klog.Errorf("Failed to write configuration record for volume id:%s: %v", volumeID, err)
		t.removeRecord(volumePath)
		return "", fmt.Errorf("failed to write configuration record %s: %w", volumePath, err)
	}
	klog.V(4).Infof("Wrote configuration record %s", volumePath)
	t.audit.LogRecordChange(security.EventRecordWritten, volumeID, volumePath)

	if _, _, err := t.runTool("update", "--update", name); err != nil {
		klog.Errorf("Failed to create iser target for volume id:%s: %v", volumeID, err)
		// Don't leave a record behind for an export tgtd never applied
		if t.removeRecord(volumePath) {
			t.recordRollback()
			t.audit.LogRecordChange(security.EventRecordRolledBack, volumeID, volumePath)
		}
		return "", &ExportCreateFailedError{VolumeID: volumeID, Err: err}
	}

	iqn = utils.VolumeIDToIQN(t.targetPrefix, volumeID)
	resolved, err := t.getTarget(iqn)
	if err != nil {
		klog.Errorf("Failed to query iser target for volume id:%s: %v", volumeID, err)
		return "", fmt.Errorf("failed to query iser target %s: %w", iqn, err)
	}
	if resolved == "" {
		klog.Errorf("Failed to create iser target for volume id:%s. Please ensure your tgtd config file contains 'include %s/*'",
			volumeID, t.volumesDir)
		return "", notFound(iqn)
	}
	klog.V(4).Infof("Resolved target id %s for %s", resolved, iqn)

	// The old record goes only once the new target id is known
	if oldPersistFile != "" && oldPersistFile != volumePath {
		exists, err := afero.Exists(t.fs, oldPersistFile)
		if err != nil {
			klog.Warningf("Failed to check superseded record %s: %v", oldPersistFile, err)
		} else if exists && t.removeRecord(oldPersistFile) {
			klog.V(2).Infof("Removed superseded configuration record %s", oldPersistFile)
			t.recordSupersededRemoved()
			t.audit.LogRecordChange(security.EventRecordSuperseded, volumeID, oldPersistFile)
		}
	}

	klog.V(2).Infof("Created iser target %s for volume %s (tid %s)", iqn, volumeID, resolved)
	return resolved, nil
}

// RemoveISERTarget implements TargetAdmin. tid and lun are ignored; the
// record name is volume_name_template applied to volumeID.
func (t *TgtAdm) RemoveISERTarget(tid, lun int, volumeID string) (err error) {
	var iqn string
	start := time.Now()
	defer func() {
		t.recordOp("remove", err, start)
		t.audit.LogExportRemove(volumeID, iqn, auditOutcome(err), err, time.Since(start))
	}()

	klog.V(2).Infof("Removing iser_target for volume %s", volumeID)

	recordName, err := utils.VolumeIDToRecordName(t.volumeNameTemplate, volumeID)
	if err != nil {
		klog.Errorf("Failed to remove iser target for volume id:%s: %v", volumeID, err)
		t.audit.LogValidationFailure("volume_id", volumeID, err.Error())
		return &ExportRemoveFailedError{VolumeID: volumeID, Err: err}
	}

	volumePath := filepath.Join(t.volumesDir, recordName)
	if !t.isFile(volumePath) {
		klog.Errorf("Failed to remove iser target for volume id:%s: no configuration record at %s", volumeID, volumePath)
		return &ExportRemoveFailedError{VolumeID: volumeID}
	}

	iqn = utils.VolumeIDToIQN(t.targetPrefix, recordName)

	// --force deletes the target even while initiators still hold sessions
	if _, _, err := t.runTool("delete", "--force", "--delete", iqn); err != nil {
		klog.Errorf("Failed to remove iser target for volume id:%s: %v", volumeID, err)
		return &ExportRemoveFailedError{VolumeID: volumeID, Err: err}
	}

	if err := t.fs.Remove(volumePath); err != nil {
		klog.Errorf("Removed iser target %s but failed to delete configuration record %s: %v", iqn, volumePath, err)
		return fmt.Errorf("failed to delete configuration record %s: %w", volumePath, err)
	}

	t.audit.LogRecordChange(security.EventRecordDeleted, volumeID, volumePath)
	klog.V(2).Infof("Removed iser target %s for volume %s", iqn, volumeID)
	return nil
}

// ShowTarget implements TargetAdmin. tid is ignored.
func (t *TgtAdm) ShowTarget(tid int, iqn string) (err error) {
	start := time.Now()
	defer func() { t.recordOp("show", err, start) }()

	if iqn == "" {
		klog.Errorf("Failed to show iser target: no iqn given")
		return &InvalidParameterValueError{Message: "valid iqn needed for show_target"}
	}

	resolved, err := t.getTarget(iqn)
	if err != nil {
		klog.Errorf("Failed to query iser target %s: %v", iqn, err)
		return fmt.Errorf("failed to query iser target %s: %w", iqn, err)
	}
	if resolved == "" {
		klog.V(2).Infof("Iser target %s is not exported", iqn)
		return notFound(iqn)
	}

	klog.V(4).Infof("Iser target %s is exported with tid %s", iqn, resolved)
	return nil
}

// ListTargets returns every target tgtd currently exports
func (t *TgtAdm) ListTargets() ([]Target, error) {
	out, _, err := t.runTool("show", "--show")
	if err != nil {
		return nil, fmt.Errorf("failed to list iser targets: %w", err)
	}
	return parseTargets(out), nil
}

// getTarget returns the target id tgtd assigned to iqn, or "" if tgtd does
// not export it
func (t *TgtAdm) getTarget(iqn string) (string, error) {
	out, _, err := t.runTool("show", "--show")
	if err != nil {
		return "", err
	}
	return parseTargetID(out, iqn), nil
}

// runTool runs tgt-admin with args and records the invocation
func (t *TgtAdm) runTool(subcommand string, args ...string) (string, string, error) {
	stdout, stderr, err := t.Run(args...)
	if t.metrics != nil {
		t.metrics.RecordToolInvocation(subcommand, err)
	}
	return stdout, stderr, err
}

// removeRecord deletes a configuration record, logging instead of failing
func (t *TgtAdm) removeRecord(path string) bool {
	if err := t.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		klog.Errorf("Failed to remove configuration record %s: %v", path, err)
		return false
	}
	return true
}

func (t *TgtAdm) isFile(path string) bool {
	fi, err := t.fs.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func auditOutcome(err error) security.EventOutcome {
	if err != nil {
		return security.OutcomeFailure
	}
	return security.OutcomeSuccess
}

func (t *TgtAdm) recordOp(operation string, err error, start time.Time) {
	if t.metrics != nil {
		t.metrics.RecordExportOp(operation, err, time.Since(start))
	}
}

func (t *TgtAdm) recordRollback() {
	if t.metrics != nil {
		t.metrics.RecordRollback()
	}
}

func (t *TgtAdm) recordSupersededRemoved() {
	if t.metrics != nil {
		t.metrics.RecordSupersededRecordRemoved()
	}
}
