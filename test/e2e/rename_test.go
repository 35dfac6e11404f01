package e2e

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/targetadmin"
	"git.srvlab.io/whiskey/iser-target-admin/test/mock"
)

var _ = Describe("Rename [E2E-04]", func() {
	var oldName, newName string

	BeforeEach(func() {
		oldName = recordName(testVolumeID())
		newName = recordName(testVolumeID())

		_, err := helper.CreateISERTarget(exportName(oldName), 0, 0, backingStore(oldName))
		Expect(err).NotTo(HaveOccurred())
		Expect(recordExists(oldName)).To(BeTrue())
	})

	It("should remove the superseded record once the new export is live", func() {
		tid, err := helper.CreateISERTarget(exportName(newName), 0, 0, backingStore(oldName),
			targetadmin.WithOldName(oldName))
		Expect(err).NotTo(HaveOccurred())
		Expect(tid).NotTo(BeEmpty())

		Expect(recordExists(newName)).To(BeTrue())
		Expect(recordExists(oldName)).To(BeFalse())
		Expect(helper.ShowTarget(0, exportName(newName))).To(Succeed())
	})

	It("should keep the old record when the new export never goes live", func() {
		mockTgtd.SetErrorMode(mock.ErrorModeNotIncluded, 0)

		_, err := helper.CreateISERTarget(exportName(newName), 0, 0, backingStore(oldName),
			targetadmin.WithOldName(oldName))
		Expect(err).To(MatchError(targetadmin.ErrNotFound))

		Expect(recordExists(oldName)).To(BeTrue())
		Expect(recordExists(newName)).To(BeTrue())
	})

	It("should keep the old record when tgt-admin rejects the update", func() {
		mockTgtd.SetErrorMode(mock.ErrorModeUpdateFail, 0)

		_, err := helper.CreateISERTarget(exportName(newName), 0, 0, backingStore(oldName),
			targetadmin.WithOldName(oldName))
		Expect(err).To(MatchError(targetadmin.ErrExportCreateFailed))

		Expect(recordExists(oldName)).To(BeTrue())
		Expect(recordExists(newName)).To(BeFalse())
	})
})
