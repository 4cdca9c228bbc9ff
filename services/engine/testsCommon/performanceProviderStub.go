package testsCommon

import "github.com/iulianpascalau/client-observability/services/engine/common"

// PerformanceProviderStub -
type PerformanceProviderStub struct {
	StatisticsHandler func() common.PerformanceStatistics
}

// Statistics -
func (stub *PerformanceProviderStub) Statistics() common.PerformanceStatistics {
	if stub.StatisticsHandler != nil {
		return stub.StatisticsHandler()
	}

	return common.PerformanceStatistics{}
}

// IsInterfaceNil -
func (stub *PerformanceProviderStub) IsInterfaceNil() bool {
	return stub == nil
}
