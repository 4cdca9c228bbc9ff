package testsCommon

import (
	"sync"
	"time"
)

// ClockStub is a manually advanced clock
type ClockStub struct {
	mut sync.Mutex
	now time.Time
}

// NewClockStub creates a clock stub pointing at the provided time
func NewClockStub(now time.Time) *ClockStub {
	return &ClockStub{
		now: now,
	}
}

// Now -
func (stub *ClockStub) Now() time.Time {
	stub.mut.Lock()
	defer stub.mut.Unlock()

	return stub.now
}

// Advance moves the clock forward
func (stub *ClockStub) Advance(d time.Duration) {
	stub.mut.Lock()
	stub.now = stub.now.Add(d)
	stub.mut.Unlock()
}

// Set moves the clock to the provided time
func (stub *ClockStub) Set(now time.Time) {
	stub.mut.Lock()
	stub.now = now
	stub.mut.Unlock()
}
