package e2e

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/util/wait"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/execute"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/targetadmin"
	"git.srvlab.io/whiskey/iser-target-admin/pkg/utils"
	"git.srvlab.io/whiskey/iser-target-admin/test/mock"
)

var _ = Describe("Create Failures [E2E-05]", func() {
	It("should roll back the record when tgt-admin --update fails", func() {
		mockTgtd.SetErrorMode(mock.ErrorModeUpdateFail, 0)
		volumeID := testVolumeID()
		name := recordName(volumeID)

		_, err := helper.CreateISERTarget(exportName(name), 0, 0, backingStore(name))

		var createErr *targetadmin.ExportCreateFailedError
		Expect(errors.As(err, &createErr)).To(BeTrue())
		Expect(createErr.VolumeID).To(Equal(name))
		Expect(execute.IsProcessExecutionError(err)).To(BeTrue())
		Expect(recordExists(name)).To(BeFalse())
		Expect(liveTID(name)).To(Equal(-1))
	})

	It("should report NotFound when tgtd does not include the volumes directory", func() {
		mockTgtd.SetErrorMode(mock.ErrorModeNotIncluded, 0)
		name := recordName(testVolumeID())

		_, err := helper.CreateISERTarget(exportName(name), 0, 0, backingStore(name))
		Expect(err).To(MatchError(targetadmin.ErrNotFound))
		Expect(recordExists(name)).To(BeTrue(), "the record stays once tgt-admin accepted the update")
	})

	It("should reject a malformed export name without calling tgt-admin", func() {
		_, err := helper.CreateISERTarget("not-an-export-name", 0, 0, "/dev/null")
		Expect(err).To(MatchError(targetadmin.ErrInvalidParameterValue))
		Expect(mockTgtd.GetCommandHistory()).To(BeEmpty())
	})
})

var _ = Describe("Remove Failures [E2E-06]", func() {
	It("should keep the record when tgt-admin --delete fails and succeed on retry", func() {
		volumeID := testVolumeID()
		name := recordName(volumeID)
		_, err := helper.CreateISERTarget(exportName(name), 0, 0, backingStore(name))
		Expect(err).NotTo(HaveOccurred())

		By("Failing the first delete")
		mockTgtd.SetErrorMode(mock.ErrorModeDeleteFail, 0)
		err = helper.RemoveISERTarget(0, 0, volumeID)
		Expect(err).To(MatchError(targetadmin.ErrExportRemoveFailed))
		Expect(recordExists(name)).To(BeTrue())
		Expect(liveTID(name)).NotTo(Equal(-1))

		By("Retrying with backoff after the target becomes idle")
		attempts := 0
		backoff := wait.Backoff{Steps: 3, Duration: 10 * time.Millisecond, Factor: 2}
		err = utils.RetryWithBackoff(context.Background(), backoff,
			func(err error) bool { return execute.IsProcessExecutionError(err) },
			func() error {
				attempts++
				if attempts == 2 {
					mockTgtd.SetErrorMode(mock.ErrorModeNone, 0)
				}
				return helper.RemoveISERTarget(0, 0, volumeID)
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(attempts).To(Equal(2))
		Expect(recordExists(name)).To(BeFalse())
		Expect(liveTID(name)).To(Equal(-1))
	})

	It("should fail without calling tgt-admin when no record exists", func() {
		err := helper.RemoveISERTarget(0, 0, testVolumeID())
		Expect(err).To(MatchError(targetadmin.ErrExportRemoveFailed))
		Expect(mockTgtd.GetCommandHistory()).To(BeEmpty())
	})
})

var _ = Describe("Query Failures [E2E-07]", func() {
	It("should require an iqn", func() {
		err := helper.ShowTarget(0, "")
		Expect(err).To(MatchError(targetadmin.ErrInvalidParameterValue))
		Expect(mockTgtd.GetCommandHistory()).To(BeEmpty())
	})

	It("should surface a failing tgt-admin --show as a process error", func() {
		mockTgtd.SetErrorMode(mock.ErrorModeShowFail, 0)
		err := helper.ShowTarget(0, exportName(recordName(testVolumeID())))
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, targetadmin.ErrNotFound)).To(BeFalse())
		Expect(execute.IsProcessExecutionError(err)).To(BeTrue())
	})
})

var _ = Describe("Fake Helper [E2E-08]", func() {
	It("should hand out increasing target ids without touching tgtd", func() {
		fakeCfg := cfg
		fakeCfg.IserHelper = "fake"
		admin, err := targetadmin.New(fakeCfg, nil)
		Expect(err).NotTo(HaveOccurred())

		first, err := admin.CreateISERTarget(exportName("a"), 0, 0, "/dev/null")
		Expect(err).NotTo(HaveOccurred())
		second, err := admin.CreateISERTarget(exportName("b"), 0, 0, "/dev/null")
		Expect(err).NotTo(HaveOccurred())

		Expect(first).To(Equal("2"))
		Expect(second).To(Equal("3"))
		Expect(admin.RemoveISERTarget(0, 0, "a")).To(Succeed())
		Expect(admin.ShowTarget(0, "")).To(Succeed())
		Expect(mockTgtd.GetCommandHistory()).To(BeEmpty())
	})
})
