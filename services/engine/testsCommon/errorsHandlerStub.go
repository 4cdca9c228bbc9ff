package testsCommon

import "github.com/iulianpascalau/client-observability/services/engine/common"

// ErrorsHandlerStub -
type ErrorsHandlerStub struct {
	RecordErrorHandler       func(message string, opts common.ErrorOptions) (common.ErrorRecord, []common.Alert)
	ResolveErrorHandler      func(id string, resolvedBy string) error
	ResolveErrorGroupHandler func(fingerprint string, resolvedBy string) (int, error)
	ExportErrorsHandler      func(filter common.ErrorsFilter) common.ErrorsExport
}

// RecordError -
func (stub *ErrorsHandlerStub) RecordError(message string, opts common.ErrorOptions) (common.ErrorRecord, []common.Alert) {
	if stub.RecordErrorHandler != nil {
		return stub.RecordErrorHandler(message, opts)
	}

	return common.ErrorRecord{Message: message}, make([]common.Alert, 0)
}

// ResolveError -
func (stub *ErrorsHandlerStub) ResolveError(id string, resolvedBy string) error {
	if stub.ResolveErrorHandler != nil {
		return stub.ResolveErrorHandler(id, resolvedBy)
	}

	return nil
}

// ResolveErrorGroup -
func (stub *ErrorsHandlerStub) ResolveErrorGroup(fingerprint string, resolvedBy string) (int, error) {
	if stub.ResolveErrorGroupHandler != nil {
		return stub.ResolveErrorGroupHandler(fingerprint, resolvedBy)
	}

	return 0, nil
}

// ExportErrors -
func (stub *ErrorsHandlerStub) ExportErrors(filter common.ErrorsFilter) common.ErrorsExport {
	if stub.ExportErrorsHandler != nil {
		return stub.ExportErrorsHandler(filter)
	}

	return common.ErrorsExport{Filter: filter}
}

// IsInterfaceNil -
func (stub *ErrorsHandlerStub) IsInterfaceNil() bool {
	return stub == nil
}
