package testsCommon

import "github.com/iulianpascalau/client-observability/services/engine/common"

// RUMProviderStub -
type RUMProviderStub struct {
	NavigationTimingHandler func() (common.NavigationTiming, bool)
	LatestVitalsHandler     func() common.WebVitals
}

// NavigationTiming -
func (stub *RUMProviderStub) NavigationTiming() (common.NavigationTiming, bool) {
	if stub.NavigationTimingHandler != nil {
		return stub.NavigationTimingHandler()
	}

	return common.NavigationTiming{}, false
}

// LatestVitals -
func (stub *RUMProviderStub) LatestVitals() common.WebVitals {
	if stub.LatestVitalsHandler != nil {
		return stub.LatestVitalsHandler()
	}

	return common.WebVitals{}
}

// IsInterfaceNil -
func (stub *RUMProviderStub) IsInterfaceNil() bool {
	return stub == nil
}
