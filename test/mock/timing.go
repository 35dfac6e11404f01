package mock

import (
	"math/rand"
	"time"

	"k8s.io/klog/v2"
)

// TimingSimulator adds realistic timing delays to mock tgt-admin operations
type TimingSimulator struct {
	enabled     bool
	updateDelay time.Duration
	deleteDelay time.Duration
	showDelay   time.Duration
	rng         *rand.Rand
}

// NewTimingSimulator creates a new timing simulator from configuration
func NewTimingSimulator(config MockTgtdConfig) *TimingSimulator {
	return &TimingSimulator{
		enabled:     config.RealisticTiming,
		updateDelay: time.Duration(config.UpdateDelayMs) * time.Millisecond,
		deleteDelay: time.Duration(config.DeleteDelayMs) * time.Millisecond,
		showDelay:   time.Duration(config.ShowDelayMs) * time.Millisecond,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SimulateOperation sleeps for the configured delay of opType (update,
// delete or show) plus up to 10% jitter
func (t *TimingSimulator) SimulateOperation(opType string) {
	if !t.enabled {
		return
	}

	var delay time.Duration
	switch opType {
	case "update":
		delay = t.updateDelay
	case "delete":
		delay = t.deleteDelay
	case "show":
		delay = t.showDelay
	default:
		return
	}
	if delay <= 0 {
		return
	}

	if jitter := int64(delay / 10); jitter > 0 {
		delay += time.Duration(t.rng.Int63n(jitter))
	}

	klog.V(4).Infof("Mock tgtd timing: %s delay %dms", opType, delay.Milliseconds())
	time.Sleep(delay)
}
