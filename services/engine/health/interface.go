package health

import (
	"context"

	"github.com/iulianpascalau/client-observability/services/engine/common"
)

// Probe checks a single component
type Probe interface {
	// Name returns the component name the probe reports for
	Name() string
	// Check measures the component. It must return when the context is done.
	Check(ctx context.Context) common.ProbeResult
	IsInterfaceNil() bool
}

// ErrorRecorder receives the probe failures as error records
type ErrorRecorder interface {
	RecordError(message string, opts common.ErrorOptions) (common.ErrorRecord, []common.Alert)
	IsInterfaceNil() bool
}

// RUMProvider exposes the client side timings observed by the session tracker
type RUMProvider interface {
	NavigationTiming() (common.NavigationTiming, bool)
	LatestVitals() common.WebVitals
	IsInterfaceNil() bool
}
