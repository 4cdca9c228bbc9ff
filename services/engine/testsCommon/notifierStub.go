package testsCommon

import (
	"sync"

	"github.com/iulianpascalau/client-observability/services/engine/common"
)

// NotifierStub -
type NotifierStub struct {
	mut           sync.Mutex
	NotifyHandler func(alert common.Alert, channels common.AlertChannels) error
	notified      []common.Alert
}

// Notify -
func (stub *NotifierStub) Notify(alert common.Alert, channels common.AlertChannels) error {
	stub.mut.Lock()
	stub.notified = append(stub.notified, alert)
	stub.mut.Unlock()

	if stub.NotifyHandler != nil {
		return stub.NotifyHandler(alert, channels)
	}

	return nil
}

// Notified returns the alerts received so far
func (stub *NotifierStub) Notified() []common.Alert {
	stub.mut.Lock()
	defer stub.mut.Unlock()

	result := make([]common.Alert, len(stub.notified))
	copy(result, stub.notified)

	return result
}

// IsInterfaceNil -
func (stub *NotifierStub) IsInterfaceNil() bool {
	return stub == nil
}
