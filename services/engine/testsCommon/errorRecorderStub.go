package testsCommon

import (
	"sync"

	"github.com/iulianpascalau/client-observability/services/engine/common"
)

// ErrorRecorderStub -
type ErrorRecorderStub struct {
	mut                sync.Mutex
	RecordErrorHandler func(message string, opts common.ErrorOptions) (common.ErrorRecord, []common.Alert)
	messages           []string
	options            []common.ErrorOptions
}

// RecordError -
func (stub *ErrorRecorderStub) RecordError(message string, opts common.ErrorOptions) (common.ErrorRecord, []common.Alert) {
	stub.mut.Lock()
	stub.messages = append(stub.messages, message)
	stub.options = append(stub.options, opts)
	stub.mut.Unlock()

	if stub.RecordErrorHandler != nil {
		return stub.RecordErrorHandler(message, opts)
	}

	return common.ErrorRecord{Message: message}, nil
}

// Recorded returns the messages and options received so far
func (stub *ErrorRecorderStub) Recorded() ([]string, []common.ErrorOptions) {
	stub.mut.Lock()
	defer stub.mut.Unlock()

	return append([]string(nil), stub.messages...), append([]common.ErrorOptions(nil), stub.options...)
}

// IsInterfaceNil -
func (stub *ErrorRecorderStub) IsInterfaceNil() bool {
	return stub == nil
}
