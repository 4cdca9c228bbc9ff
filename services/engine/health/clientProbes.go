package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/iulianpascalau/client-observability/services/engine/rum"
	"github.com/multiversx/mx-chain-core-go/core/check"
)

const (
	highMemoryPressure     = 0.9
	moderateMemoryPressure = 0.75

	highPressureErrorRate     = 0.1
	moderatePressureErrorRate = 0.02
	poorPaintErrorRate        = 0.1
	slowPaintErrorRate        = 0.02
)

// ArgsRuntimeProbe defines the runtime probe arguments
type ArgsRuntimeProbe struct {
	RUM RUMProvider
	// MemoryLimit is the heap size, in bytes, considered full. Zero disables the memory pressure heuristic.
	MemoryLimit uint64
}

// runtimeProbe reports the page load time observed by the browser and the memory pressure of the process
type runtimeProbe struct {
	rum           RUMProvider
	memoryLimit   uint64
	heapInUseFunc func() uint64
}

// NewRuntimeProbe creates a new client runtime probe
func NewRuntimeProbe(args ArgsRuntimeProbe) (*runtimeProbe, error) {
	if check.IfNil(args.RUM) {
		return nil, ErrNilRUMProvider
	}

	return &runtimeProbe{
		rum:           args.RUM,
		memoryLimit:   args.MemoryLimit,
		heapInUseFunc: heapInUse,
	}, nil
}

// Name returns the component name
func (probe *runtimeProbe) Name() string {
	return common.ComponentFrontend
}

// Check reads the latest page load time and the heap usage
func (probe *runtimeProbe) Check(_ context.Context) common.ProbeResult {
	result := common.ProbeResult{}

	navigation, found := probe.rum.NavigationTiming()
	if found {
		result.ResponseTime = navigation.PageLoadTime
	} else {
		result.Message = "no navigation timing observed yet"
	}

	if probe.memoryLimit == 0 {
		return result
	}

	pressure := float64(probe.heapInUseFunc()) / float64(probe.memoryLimit)
	switch {
	case pressure > highMemoryPressure:
		result.ErrorRate = highPressureErrorRate
		result.Message = fmt.Sprintf("high memory pressure: %.0f%%", pressure*100)
	case pressure > moderateMemoryPressure:
		result.ErrorRate = moderatePressureErrorRate
		result.Message = fmt.Sprintf("moderate memory pressure: %.0f%%", pressure*100)
	}

	return result
}

// IsInterfaceNil returns true if the value under the interface is nil
func (probe *runtimeProbe) IsInterfaceNil() bool {
	return probe == nil
}

func heapInUse() uint64 {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return memStats.HeapInuse
}

// uxProbe uses the DOM ready time as response time and the first contentful paint rating as error rate proxy
type uxProbe struct {
	rum RUMProvider
}

// NewUXProbe creates a new user experience probe
func NewUXProbe(provider RUMProvider) (*uxProbe, error) {
	if check.IfNil(provider) {
		return nil, ErrNilRUMProvider
	}

	return &uxProbe{
		rum: provider,
	}, nil
}

// Name returns the component name
func (probe *uxProbe) Name() string {
	return common.ComponentUserExperience
}

// Check reads the latest DOM ready time and first contentful paint
func (probe *uxProbe) Check(_ context.Context) common.ProbeResult {
	result := common.ProbeResult{}

	navigation, found := probe.rum.NavigationTiming()
	if found {
		result.ResponseTime = navigation.DOMReadyTime
	}

	vitals := probe.rum.LatestVitals()
	if vitals.FCP == nil {
		result.Message = "first contentful paint not observed yet"
		return result
	}

	rating := rum.RateVital(vitals.FCP, rum.FCPThreshold())
	switch rating {
	case common.RatingPoor:
		result.ErrorRate = poorPaintErrorRate
	case common.RatingNeedsImprovement:
		result.ErrorRate = slowPaintErrorRate
	}
	result.Message = fmt.Sprintf("first contentful paint %.0fms (%s)", *vitals.FCP, rating)

	return result
}

// IsInterfaceNil returns true if the value under the interface is nil
func (probe *uxProbe) IsInterfaceNil() bool {
	return probe == nil
}
