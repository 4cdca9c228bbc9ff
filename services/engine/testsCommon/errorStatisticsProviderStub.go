package testsCommon

import "github.com/iulianpascalau/client-observability/services/engine/common"

// ErrorStatisticsProviderStub -
type ErrorStatisticsProviderStub struct {
	StatisticsHandler func() common.ErrorStatistics
}

// Statistics -
func (stub *ErrorStatisticsProviderStub) Statistics() common.ErrorStatistics {
	if stub.StatisticsHandler != nil {
		return stub.StatisticsHandler()
	}

	return common.ErrorStatistics{}
}

// IsInterfaceNil -
func (stub *ErrorStatisticsProviderStub) IsInterfaceNil() bool {
	return stub == nil
}
