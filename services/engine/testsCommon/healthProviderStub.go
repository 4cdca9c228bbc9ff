package testsCommon

import "github.com/iulianpascalau/client-observability/services/engine/common"

// HealthProviderStub -
type HealthProviderStub struct {
	LatestHandler  func() (common.SystemHealthStatus, bool)
	HistoryHandler func() []common.SystemHealthStatus
}

// Latest -
func (stub *HealthProviderStub) Latest() (common.SystemHealthStatus, bool) {
	if stub.LatestHandler != nil {
		return stub.LatestHandler()
	}

	return common.SystemHealthStatus{}, false
}

// History -
func (stub *HealthProviderStub) History() []common.SystemHealthStatus {
	if stub.HistoryHandler != nil {
		return stub.HistoryHandler()
	}

	return make([]common.SystemHealthStatus, 0)
}

// IsInterfaceNil -
func (stub *HealthProviderStub) IsInterfaceNil() bool {
	return stub == nil
}
