package core

import (
	"hash/fnv"
	"sync"
)

// lockStripes is the number of independent lock stripes.
const lockStripes = 64

// stripedLocks serializes operations per alarm id.
//
// Arm, disarm and trigger recording for the same alarm id must not
// interleave between the armed-status read and the dependent write; striping
// by hashed id gives that exclusion while unrelated alarms proceed in
// parallel (two ids sharing a stripe serialize harmlessly).
type stripedLocks struct {
	stripes [lockStripes]sync.Mutex
}

// lock acquires the stripe owning the alarm id and returns its unlock func.
func (l *stripedLocks) lock(alarmID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(alarmID))

	stripe := &l.stripes[h.Sum32()%lockStripes]
	stripe.Lock()

	return stripe.Unlock
}
