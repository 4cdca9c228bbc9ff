package rum

import (
	"testing"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/stretchr/testify/assert"
)

func TestBeaconSource(t *testing.T) {
	t.Parallel()

	source := NewBeaconSource()
	assert.False(t, source.IsInterfaceNil())

	var first, second []common.PerformanceEntry
	unsubscribeFirst := source.Subscribe(func(entry common.PerformanceEntry) {
		first = append(first, entry)
	})
	unsubscribeSecond := source.Subscribe(func(entry common.PerformanceEntry) {
		second = append(second, entry)
	})
	assert.Equal(t, 2, source.NumSubscribers())

	numAccepted := source.Publish([]common.PerformanceEntry{
		{EntryType: common.EntryPaint, Name: common.FirstContentfulPaintName, StartTime: 900},
		{EntryType: "resource", Name: "app.js"},
	})
	assert.Equal(t, 1, numAccepted)
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)

	unsubscribeFirst()
	source.Publish([]common.PerformanceEntry{{EntryType: common.EntryLayoutShift, Value: 0.1}})
	assert.Len(t, first, 1)
	assert.Len(t, second, 2)

	unsubscribeSecond()
	assert.Equal(t, 0, source.NumSubscribers())
}

func TestStaticSource(t *testing.T) {
	t.Parallel()

	source := NewStaticSource([]common.PerformanceEntry{
		{EntryType: common.EntryPaint, Name: common.FirstContentfulPaintName, StartTime: 900},
		{EntryType: common.EntryFirstInput, StartTime: 1000, ProcessingStart: 1040},
	})
	assert.False(t, source.IsInterfaceNil())

	var received []common.PerformanceEntry
	unsubscribe := source.Subscribe(func(entry common.PerformanceEntry) {
		received = append(received, entry)
	})
	unsubscribe()

	assert.Len(t, received, 2)
}
