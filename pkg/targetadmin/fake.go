package targetadmin

import (
	"strconv"
	"sync"

	"k8s.io/klog/v2"
)

// Fake hands out increasing target ids without touching the filesystem or
// running any command. Remove and show always succeed.
type Fake struct {
	Base

	mu  sync.Mutex
	tid int
}

var _ TargetAdmin = &Fake{}

// NewFake creates a Fake whose first CreateISERTarget returns "2"
func NewFake() *Fake {
	return &Fake{tid: 1}
}

// CreateISERTarget implements TargetAdmin
func (f *Fake) CreateISERTarget(name string, tid, lun int, path string, opts ...CreateOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tid++
	klog.V(4).Infof("Fake iser target %s assigned tid %d", name, f.tid)
	return strconv.Itoa(f.tid), nil
}

// RemoveISERTarget implements TargetAdmin
func (f *Fake) RemoveISERTarget(tid, lun int, volumeID string) error {
	return nil
}

// ShowTarget implements TargetAdmin
func (f *Fake) ShowTarget(tid int, iqn string) error {
	return nil
}
