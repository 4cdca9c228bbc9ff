package alerts

import "github.com/iulianpascalau/client-observability/services/engine/common"

// Notifier delivers a fired alert to the rule's outbound channels
type Notifier interface {
	// Notify must not block the evaluation pipeline for long; failures are logged by the caller and never retried
	Notify(alert common.Alert, channels common.AlertChannels) error
	IsInterfaceNil() bool
}
