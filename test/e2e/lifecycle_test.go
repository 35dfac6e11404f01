package e2e

import (
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"k8s.io/klog/v2"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/targetadmin"
)

var _ = Describe("Export Lifecycle [E2E-01]", func() {
	It("should create, show, list and remove an export", func() {
		volumeID := testVolumeID()
		name := recordName(volumeID)

		By("Step 1: Creating the export")
		tid, err := helper.CreateISERTarget(exportName(name), 0, 0, backingStore(name))
		Expect(err).NotTo(HaveOccurred())
		klog.Infof("Created export %s with tid %s", exportName(name), tid)
		Expect(tid).To(Equal(strconv.Itoa(liveTID(name))))

		By("Step 2: Verifying the configuration record")
		Expect(readRecord(name)).To(Equal(
			"<target " + exportName(name) + ">\n" +
				"    driver iser\n" +
				"    backing-store " + backingStore(name) + "\n" +
				"</target>\n"))

		By("Step 3: Querying the export")
		Expect(helper.ShowTarget(0, exportName(name))).To(Succeed())

		By("Step 4: Listing exports")
		targets, err := helper.ListTargets()
		Expect(err).NotTo(HaveOccurred())
		Expect(targets).To(ContainElement(targetadmin.Target{
			TID:           tid,
			IQN:           exportName(name),
			Driver:        "iser",
			BackingStores: []string{backingStore(name)},
		}))

		By("Step 5: Removing the export")
		Expect(helper.RemoveISERTarget(0, 0, volumeID)).To(Succeed())
		Expect(recordExists(name)).To(BeFalse())
		Expect(liveTID(name)).To(Equal(-1))

		By("Step 6: Querying the removed export")
		Expect(helper.ShowTarget(0, exportName(name))).To(MatchError(targetadmin.ErrNotFound))

		By("Step 7: Verifying metrics")
		series, err := testutil.GatherAndCount(metrics.Gatherer(), "iser_target_admin_export_operations_total")
		Expect(err).NotTo(HaveOccurred())
		Expect(series).To(Equal(4), "create/success, show/success, remove/success, show/failure")
	})
})

var _ = Describe("Multiple Exports [E2E-02]", func() {
	It("should assign distinct target ids and remove exports independently", func() {
		ids := []string{testVolumeID(), testVolumeID(), testVolumeID()}
		tids := map[string]bool{}

		for _, id := range ids {
			name := recordName(id)
			tid, err := helper.CreateISERTarget(exportName(name), 0, 0, backingStore(name))
			Expect(err).NotTo(HaveOccurred())
			Expect(tids).NotTo(HaveKey(tid))
			tids[tid] = true
		}

		By("Removing the middle export")
		Expect(helper.RemoveISERTarget(0, 0, ids[1])).To(Succeed())

		targets, err := helper.ListTargets()
		Expect(err).NotTo(HaveOccurred())
		Expect(targets).To(HaveLen(2))
		Expect(helper.ShowTarget(0, exportName(recordName(ids[0])))).To(Succeed())
		Expect(helper.ShowTarget(0, exportName(recordName(ids[2])))).To(Succeed())
		Expect(helper.ShowTarget(0, exportName(recordName(ids[1])))).To(MatchError(targetadmin.ErrNotFound))
	})
})

var _ = Describe("Recreate [E2E-03]", func() {
	It("should overwrite the record and keep the target id", func() {
		name := recordName(testVolumeID())

		tid, err := helper.CreateISERTarget(exportName(name), 0, 0, "/dev/stgt/first", targetadmin.WithCHAPAuth("incominguser user secret"))
		Expect(err).NotTo(HaveOccurred())

		again, err := helper.CreateISERTarget(exportName(name), 0, 0, backingStore(name))
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(tid))

		record := readRecord(name)
		Expect(record).NotTo(ContainSubstring("/dev/stgt/first"))
		Expect(record).NotTo(ContainSubstring("incominguser"))

		live, ok := mockTgtd.GetTarget(exportName(name))
		Expect(ok).To(BeTrue())
		Expect(live.BackingStore).To(Equal(backingStore(name)))
	})
})
