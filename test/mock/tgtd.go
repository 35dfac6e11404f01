package mock

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"
	utilexec "k8s.io/utils/exec"
	testingexec "k8s.io/utils/exec/testing"
)

const toolName = "tgt-admin"

// MockTgtd simulates tgtd driven through tgt-admin. Targets become live on
// --update from the records in includeDir and are listed by --show.
type MockTgtd struct {
	includeDir     string
	config         MockTgtdConfig
	timing         *TimingSimulator
	errorInjector  *ErrorInjector
	targets        map[string]*MockTarget // Live targets indexed by IQN
	nextTID        int
	commandHistory []CommandLog // Command execution history for debugging
	mu             sync.Mutex
}

// CommandLog represents a single command execution record
type CommandLog struct {
	Timestamp time.Time
	Command   string
	Stdout    string
	Stderr    string
	ExitCode  int
}

// MockTarget represents a target live in the mock tgtd
type MockTarget struct {
	TID          int
	IQN          string
	Driver       string
	BackingStore string
	Auth         []string
}

// configTarget is one <target> block of a configuration record
type configTarget struct {
	name         string
	driver       string
	backingStore string
	auth         []string
}

var _ utilexec.Interface = &MockTgtd{}

// NewMockTgtd creates a mock tgtd reading configuration records from includeDir
func NewMockTgtd(includeDir string, config MockTgtdConfig) *MockTgtd {
	klog.V(2).Infof("Mock tgtd: include %s/* (timing=%v, errorMode=%s, errorAfterN=%d)",
		includeDir, config.RealisticTiming, config.ErrorMode, config.ErrorAfterN)

	return &MockTgtd{
		includeDir:    includeDir,
		config:        config,
		timing:        NewTimingSimulator(config),
		errorInjector: NewErrorInjector(config),
		targets:       make(map[string]*MockTarget),
		nextTID:       1,
	}
}

// Command implements utilexec.Interface. The returned command answers Run;
// leading tokens before tgt-admin (a root helper) are ignored.
func (m *MockTgtd) Command(cmd string, args ...string) utilexec.Cmd {
	argv := append([]string{cmd}, args...)
	fakeCmd := &testingexec.FakeCmd{
		RunScript: []testingexec.FakeAction{
			func() ([]byte, []byte, error) {
				stdout, stderr, exitCode := m.executeCommand(argv)
				if exitCode != 0 {
					return []byte(stdout), []byte(stderr), testingexec.FakeExitError{Status: exitCode}
				}
				return []byte(stdout), []byte(stderr), nil
			},
		},
	}
	return testingexec.InitFakeCmd(fakeCmd, cmd, args...)
}

// CommandContext implements utilexec.Interface
func (m *MockTgtd) CommandContext(ctx context.Context, cmd string, args ...string) utilexec.Cmd {
	return m.Command(cmd, args...)
}

// LookPath implements utilexec.Interface
func (m *MockTgtd) LookPath(file string) (string, error) {
	if filepath.Base(file) == toolName {
		return file, nil
	}
	return "", utilexec.ErrExecutableNotFound
}

// GetTarget returns a copy of the live target with the given IQN
func (m *MockTgtd) GetTarget(iqn string) (MockTarget, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[iqn]
	if !ok {
		return MockTarget{}, false
	}
	return *t, true
}

// ListTargets returns copies of all live targets ordered by target id
func (m *MockTgtd) ListTargets() []MockTarget {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedTargets()
}

// GetCommandHistory returns a copy of the command history
func (m *MockTgtd) GetCommandHistory() []CommandLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := make([]CommandLog, len(m.commandHistory))
	copy(history, m.commandHistory)
	return history
}

// ClearCommandHistory clears the command history
func (m *MockTgtd) ClearCommandHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandHistory = nil
}

// SetErrorMode switches error injection, e.g. between specs of one suite
func (m *MockTgtd) SetErrorMode(mode ErrorMode, afterN int) {
	m.errorInjector.SetMode(mode, afterN)
}

// ResetErrorInjector resets the error injector operation counter
func (m *MockTgtd) ResetErrorInjector() {
	m.errorInjector.Reset()
}

// Reset drops all live targets, history and injected errors
func (m *MockTgtd) Reset() {
	m.mu.Lock()
	m.targets = make(map[string]*MockTarget)
	m.nextTID = 1
	m.commandHistory = nil
	m.mu.Unlock()
	m.errorInjector.SetMode(ErrorModeNone, 0)
}

func (m *MockTgtd) executeCommand(argv []string) (string, string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	command := strings.Join(argv, " ")
	klog.V(5).Infof("Mock tgtd executing: %s", command)

	stdout, stderr, exitCode := m.dispatch(argv)
	m.recordCommand(command, stdout, stderr, exitCode)
	return stdout, stderr, exitCode
}

func (m *MockTgtd) dispatch(argv []string) (string, string, int) {
	toolIdx := -1
	for i, tok := range argv {
		if filepath.Base(tok) == toolName {
			toolIdx = i
			break
		}
	}
	if toolIdx < 0 {
		return "", fmt.Sprintf("%s: command not found\n", argv[0]), 127
	}

	var force bool
	var op, operand string
	args := argv[toolIdx+1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--force", "-f":
			force = true
		case "--show", "-s":
			op = "show"
		case "--update", "--delete":
			op = strings.TrimPrefix(args[i], "--")
			if i+1 < len(args) {
				operand = args[i+1]
				i++
			}
		default:
			return "", fmt.Sprintf("%s: unrecognized option %q\n", toolName, args[i]), 22
		}
	}

	switch op {
	case "show":
		return m.handleShow()
	case "update":
		return m.handleUpdate(operand)
	case "delete":
		return m.handleDelete(operand, force)
	default:
		return "", fmt.Sprintf("%s: no operation given\n", toolName), 22
	}
}

func (m *MockTgtd) handleUpdate(name string) (string, string, int) {
	if name == "" {
		return "", fmt.Sprintf("%s: --update requires a target name\n", toolName), 22
	}

	m.timing.SimulateOperation("update")

	if fail, msg := m.errorInjector.ShouldFailUpdate(); fail {
		return "", msg, 22
	}
	if m.errorInjector.IgnoreIncludes() {
		klog.V(4).Infof("Mock tgtd: ignoring %s (include directory not configured)", name)
		return "", "", 0
	}

	conf, err := m.readConfig()
	if err != nil {
		return "", fmt.Sprintf("%s: %v\n", toolName, err), 1
	}

	ct, ok := conf[name]
	if !ok {
		// tgt-admin only acts on targets present in its configuration
		klog.V(4).Infof("Mock tgtd: target %s not in configuration", name)
		return "", "", 0
	}

	if t, live := m.targets[name]; live {
		t.Driver = ct.driver
		t.BackingStore = ct.backingStore
		t.Auth = ct.auth
		return "", "", 0
	}

	m.targets[name] = &MockTarget{
		TID:          m.nextTID,
		IQN:          name,
		Driver:       ct.driver,
		BackingStore: ct.backingStore,
		Auth:         ct.auth,
	}
	klog.V(4).Infof("Mock tgtd: target %s live with tid %d", name, m.nextTID)
	m.nextTID++
	return "", "", 0
}

func (m *MockTgtd) handleDelete(iqn string, force bool) (string, string, int) {
	if iqn == "" {
		return "", fmt.Sprintf("%s: --delete requires a target name\n", toolName), 22
	}

	m.timing.SimulateOperation("delete")

	if fail, msg := m.errorInjector.ShouldFailDelete(); fail {
		return "", msg, 22
	}

	if _, ok := m.targets[iqn]; !ok {
		return "", "", 0
	}
	delete(m.targets, iqn)
	klog.V(4).Infof("Mock tgtd: target %s deleted (force=%v)", iqn, force)
	return "", "", 0
}

func (m *MockTgtd) handleShow() (string, string, int) {
	m.timing.SimulateOperation("show")

	if fail, msg := m.errorInjector.ShouldFailShow(); fail {
		return "", msg, 107
	}

	var b strings.Builder
	for _, t := range m.sortedTargets() {
		formatTarget(&b, t)
	}
	return b.String(), "", 0
}

// formatTarget renders a target the way tgt-admin --show prints it
func formatTarget(b *strings.Builder, t MockTarget) {
	fmt.Fprintf(b, "Target %d: %s\n", t.TID, t.IQN)
	b.WriteString("    System information:\n")
	fmt.Fprintf(b, "        Driver: %s\n", t.Driver)
	b.WriteString("        State: ready\n")
	b.WriteString("    I_T nexus information:\n")
	b.WriteString("    LUN information:\n")
	b.WriteString("        LUN: 0\n")
	b.WriteString("            Type: controller\n")
	fmt.Fprintf(b, "            SCSI ID: IET     %04x0000\n", t.TID)
	b.WriteString("            Backing store type: null\n")
	b.WriteString("            Backing store path: None\n")
	if t.BackingStore != "" {
		b.WriteString("        LUN: 1\n")
		b.WriteString("            Type: disk\n")
		fmt.Fprintf(b, "            SCSI ID: IET     %04x0001\n", t.TID)
		b.WriteString("            Backing store type: rdwr\n")
		fmt.Fprintf(b, "            Backing store path: %s\n", t.BackingStore)
	}
	b.WriteString("    Account information:\n")
	for _, auth := range t.Auth {
		if fields := strings.Fields(auth); len(fields) >= 2 {
			fmt.Fprintf(b, "        %s\n", fields[1])
		}
	}
	b.WriteString("    ACL information:\n")
	b.WriteString("        ALL\n")
}

// readConfig parses every record in the include directory
func (m *MockTgtd) readConfig() (map[string]configTarget, error) {
	conf := make(map[string]configTarget)

	entries, err := os.ReadDir(m.includeDir)
	if os.IsNotExist(err) {
		return conf, nil
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.includeDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		for _, ct := range parseConfig(string(data)) {
			conf[ct.name] = ct
		}
	}
	return conf, nil
}

// parseConfig parses <target> blocks of a targets.conf fragment
func parseConfig(data string) []configTarget {
	var targets []configTarget
	var current *configTarget

	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
		case strings.HasPrefix(line, "<target ") && strings.HasSuffix(line, ">"):
			name := strings.TrimSuffix(strings.TrimPrefix(line, "<target "), ">")
			current = &configTarget{name: strings.TrimSpace(name)}
		case line == "</target>":
			if current != nil {
				targets = append(targets, *current)
			}
			current = nil
		case current == nil:
		case strings.HasPrefix(line, "driver "):
			current.driver = strings.TrimSpace(strings.TrimPrefix(line, "driver "))
		case strings.HasPrefix(line, "backing-store "):
			current.backingStore = strings.TrimSpace(strings.TrimPrefix(line, "backing-store "))
		default:
			current.auth = append(current.auth, line)
		}
	}
	return targets
}

func (m *MockTgtd) sortedTargets() []MockTarget {
	targets := make([]MockTarget, 0, len(m.targets))
	for _, t := range m.targets {
		targets = append(targets, *t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].TID < targets[j].TID })
	return targets
}

func (m *MockTgtd) recordCommand(command, stdout, stderr string, exitCode int) {
	if !m.config.EnableHistory {
		return
	}

	m.commandHistory = append(m.commandHistory, CommandLog{
		Timestamp: time.Now(),
		Command:   command,
		Stdout:    stdout,
		Stderr:    stderr,
		ExitCode:  exitCode,
	})

	if depth := m.config.HistoryDepth; depth > 0 && len(m.commandHistory) > depth {
		m.commandHistory = m.commandHistory[len(m.commandHistory)-depth:]
	}
}
