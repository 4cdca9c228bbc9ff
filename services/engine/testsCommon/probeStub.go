package testsCommon

import (
	"context"

	"github.com/iulianpascalau/client-observability/services/engine/common"
)

// ProbeStub -
type ProbeStub struct {
	NameValue    string
	CheckHandler func(ctx context.Context) common.ProbeResult
}

// Name -
func (stub *ProbeStub) Name() string {
	return stub.NameValue
}

// Check -
func (stub *ProbeStub) Check(ctx context.Context) common.ProbeResult {
	if stub.CheckHandler != nil {
		return stub.CheckHandler(ctx)
	}

	return common.ProbeResult{}
}

// IsInterfaceNil -
func (stub *ProbeStub) IsInterfaceNil() bool {
	return stub == nil
}
