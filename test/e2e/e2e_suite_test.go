package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/klog/v2"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/config"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/execute"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/observability"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/targetadmin"
	"git.srvlab.io/whiskey/iser-target-admin/test/mock"
)

// Suite-level variables
var (
	testRunID string
	stateDir  string
	cfg       config.Config
	mockTgtd  *mock.MockTgtd
	metrics   *observability.Metrics
	helper    *targetadmin.TgtAdm
)

// TestE2E is the entry point for the Ginkgo test suite
func TestE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "iSER Target Admin E2E Suite")
}

var _ = BeforeSuite(func() {
	// Setup logging
	klog.SetOutput(GinkgoWriter)

	// Generate unique test run ID for this test execution
	testRunID = fmt.Sprintf("e2e-%d", time.Now().Unix())
	klog.Infof("Starting E2E test suite with testRunID=%s", testRunID)

	var err error
	stateDir, err = os.MkdirTemp("", "iser-target-admin-e2e-")
	Expect(err).NotTo(HaveOccurred())

	By("Loading configuration from file and environment")
	configPath := filepath.Join(stateDir, "iser.yaml")
	Expect(os.WriteFile(configPath, []byte(fmt.Sprintf(configTemplate, stateDir)), 0o644)).To(Succeed())
	DeferCleanup(os.Unsetenv, "ISER_ISER_TARGET_PREFIX")
	Expect(os.Setenv("ISER_ISER_TARGET_PREFIX", testPrefix)).To(Succeed())

	cfg, err = config.Load(configPath)
	Expect(err).NotTo(HaveOccurred(), "Failed to load configuration")
	Expect(cfg.VolumesDir).To(Equal(filepath.Join(stateDir, "volumes")))
	Expect(cfg.IserTargetPrefix).To(Equal(testPrefix))

	By("Starting mock tgtd")
	mockTgtd = mock.NewMockTgtd(cfg.VolumesDir, mock.LoadConfigFromEnv())
})

var _ = AfterSuite(func() {
	if stateDir != "" {
		Expect(os.RemoveAll(stateDir)).To(Succeed())
	}
	klog.Infof("E2E test suite completed")
})

var _ = BeforeEach(func() {
	mockTgtd.Reset()
	Expect(os.RemoveAll(cfg.VolumesDir)).To(Succeed())

	metrics = observability.NewMetrics()
	admin, err := targetadmin.New(cfg, execute.NewRunner(mockTgtd, cfg.RootHelper), targetadmin.WithMetrics(metrics))
	Expect(err).NotTo(HaveOccurred())
	helper = admin.(*targetadmin.TgtAdm)
})
