package rum

import "github.com/iulianpascalau/client-observability/services/engine/common"

// VitalsSource delivers the entries observed by the runtime's performance-observation facility
type VitalsSource interface {
	Subscribe(handler func(entry common.PerformanceEntry)) (unsubscribe func())
	IsInterfaceNil() bool
}
