package testsCommon

import "github.com/iulianpascalau/client-observability/services/engine/common"

// SessionAnalyticsProviderStub -
type SessionAnalyticsProviderStub struct {
	AnalyticsHandler func() common.SessionAnalytics
}

// Analytics -
func (stub *SessionAnalyticsProviderStub) Analytics() common.SessionAnalytics {
	if stub.AnalyticsHandler != nil {
		return stub.AnalyticsHandler()
	}

	return common.SessionAnalytics{}
}

// IsInterfaceNil -
func (stub *SessionAnalyticsProviderStub) IsInterfaceNil() bool {
	return stub == nil
}
