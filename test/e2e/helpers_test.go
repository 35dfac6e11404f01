package e2e

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"
)

const (
	testPrefix = "iqn.2010-10.org.iser.e2e:"

	// volumes_dir is left at its default so $state_path expansion is exercised
	configTemplate = `iser_helper: tgtadm
state_path: %s
root_helper: sudo
`
)

// testVolumeID creates a unique volume id for the current test
func testVolumeID() string {
	return uuid.New().String()
}

// exportName returns the export name create expects for a volume record
func exportName(recordName string) string {
	return testPrefix + recordName
}

// recordName returns the record name remove derives from a volume id
func recordName(volumeID string) string {
	return fmt.Sprintf(cfg.VolumeNameTemplate, volumeID)
}

// backingStore returns a plausible backing device for a record
func backingStore(recordName string) string {
	return "/dev/stgt/" + recordName
}

func recordPath(recordName string) string {
	return filepath.Join(cfg.VolumesDir, recordName)
}

func recordExists(recordName string) bool {
	_, err := os.Stat(recordPath(recordName))
	if os.IsNotExist(err) {
		return false
	}
	Expect(err).NotTo(HaveOccurred())
	return true
}

func readRecord(recordName string) string {
	data, err := os.ReadFile(recordPath(recordName))
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

// liveTID returns the mock tgtd target id of recordName's export, or -1
func liveTID(recordName string) int {
	t, ok := mockTgtd.GetTarget(exportName(recordName))
	if !ok {
		return -1
	}
	return t.TID
}
