package testsCommon

import "github.com/iulianpascalau/client-observability/services/engine/common"

// AlertEvaluatorStub -
type AlertEvaluatorStub struct {
	EvaluateHandler func(newError common.ErrorRecord, records []common.ErrorRecord) []common.Alert
	AlertsHandler   func() []common.Alert
}

// Evaluate -
func (stub *AlertEvaluatorStub) Evaluate(newError common.ErrorRecord, records []common.ErrorRecord) []common.Alert {
	if stub.EvaluateHandler != nil {
		return stub.EvaluateHandler(newError, records)
	}

	return nil
}

// Alerts -
func (stub *AlertEvaluatorStub) Alerts() []common.Alert {
	if stub.AlertsHandler != nil {
		return stub.AlertsHandler()
	}

	return make([]common.Alert, 0)
}

// IsInterfaceNil -
func (stub *AlertEvaluatorStub) IsInterfaceNil() bool {
	return stub == nil
}
