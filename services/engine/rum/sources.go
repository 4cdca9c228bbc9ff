package rum

import (
	"sync"

	"github.com/iulianpascalau/client-observability/services/engine/common"
)

var knownEntryTypes = map[string]struct{}{
	common.EntryPaint:                  {},
	common.EntryLargestContentfulPaint: {},
	common.EntryFirstInput:             {},
	common.EntryLayoutShift:            {},
	common.EntryNavigation:             {},
}

// beaconSource fans out the performance entries posted by the browser to the subscribed handlers
type beaconSource struct {
	mut      sync.RWMutex
	handlers map[uint64]func(entry common.PerformanceEntry)
	nextID   uint64
}

// NewBeaconSource creates a new vitals source fed by browser beacons
func NewBeaconSource() *beaconSource {
	return &beaconSource{
		handlers: make(map[uint64]func(entry common.PerformanceEntry)),
	}
}

// Subscribe registers the handler until the returned function is called
func (bs *beaconSource) Subscribe(handler func(entry common.PerformanceEntry)) func() {
	bs.mut.Lock()
	id := bs.nextID
	bs.nextID++
	bs.handlers[id] = handler
	bs.mut.Unlock()

	return func() {
		bs.mut.Lock()
		delete(bs.handlers, id)
		bs.mut.Unlock()
	}
}

// Publish delivers the known entries to all subscribers and returns how many entries were accepted
func (bs *beaconSource) Publish(entries []common.PerformanceEntry) int {
	bs.mut.RLock()
	handlers := make([]func(entry common.PerformanceEntry), 0, len(bs.handlers))
	for _, handler := range bs.handlers {
		handlers = append(handlers, handler)
	}
	bs.mut.RUnlock()

	numAccepted := 0
	for _, entry := range entries {
		_, known := knownEntryTypes[entry.EntryType]
		if !known {
			log.Trace("ignoring performance entry", "type", entry.EntryType, "name", entry.Name)
			continue
		}

		numAccepted++
		for _, handler := range handlers {
			handler(entry)
		}
	}

	return numAccepted
}

// NumSubscribers returns the number of registered handlers
func (bs *beaconSource) NumSubscribers() int {
	bs.mut.RLock()
	defer bs.mut.RUnlock()

	return len(bs.handlers)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (bs *beaconSource) IsInterfaceNil() bool {
	return bs == nil
}

// staticSource replays a fixed set of entries to every new subscriber
type staticSource struct {
	entries []common.PerformanceEntry
}

// NewStaticSource creates a vitals source that replays the provided entries on subscription
func NewStaticSource(entries []common.PerformanceEntry) *staticSource {
	return &staticSource{
		entries: append([]common.PerformanceEntry(nil), entries...),
	}
}

// Subscribe delivers all the entries to the handler before returning
func (ss *staticSource) Subscribe(handler func(entry common.PerformanceEntry)) func() {
	for _, entry := range ss.entries {
		handler(entry)
	}

	return func() {}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (ss *staticSource) IsInterfaceNil() bool {
	return ss == nil
}
