package errtracker

import "github.com/iulianpascalau/client-observability/services/engine/common"

// AlertEvaluator checks the alert rules every time a new error is recorded
type AlertEvaluator interface {
	Evaluate(newError common.ErrorRecord, records []common.ErrorRecord) []common.Alert
	Alerts() []common.Alert
	IsInterfaceNil() bool
}
