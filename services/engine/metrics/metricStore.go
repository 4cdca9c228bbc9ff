package metrics

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iulianpascalau/client-observability/services/engine/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("metrics")

type operationMark struct {
	name     string
	category common.MetricCategory
	start    time.Time
}

// ArgsMetricStore defines the metric store arguments
type ArgsMetricStore struct {
	MaxMetrics int
	Thresholds Thresholds
}

// metricStore is a bounded, append-only buffer of timing samples that also serves the derived statistics
type metricStore struct {
	mut         sync.RWMutex
	maxMetrics  int
	thresholds  Thresholds
	metrics     []common.Metric
	marks       map[string]operationMark
	cachedStats *common.PerformanceStatistics
	nowFunc     func() time.Time
}

// NewMetricStore creates a new metric store
func NewMetricStore(args ArgsMetricStore) (*metricStore, error) {
	if args.MaxMetrics <= 0 {
		return nil, fmt.Errorf("invalid max metrics value: %d", args.MaxMetrics)
	}

	return &metricStore{
		maxMetrics: args.MaxMetrics,
		thresholds: args.Thresholds,
		metrics:    make([]common.Metric, 0, args.MaxMetrics),
		marks:      make(map[string]operationMark),
		nowFunc:    time.Now,
	}, nil
}

// StartOperation records the start mark of an operation. Starting an already started ID restarts its timer.
func (ms *metricStore) StartOperation(id string, name string, category common.MetricCategory) error {
	if len(id) == 0 {
		return ErrEmptyOperationID
	}
	if !category.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}

	ms.mut.Lock()
	defer ms.mut.Unlock()

	ms.marks[id] = operationMark{
		name:     name,
		category: category,
		start:    ms.nowFunc(),
	}

	return nil
}

// EndOperation computes the elapsed time of a started operation, appends the metric and discards the start mark
func (ms *metricStore) EndOperation(id string, success bool, metadata map[string]interface{}) (common.Metric, error) {
	ms.mut.Lock()
	defer ms.mut.Unlock()

	mark, found := ms.marks[id]
	if !found {
		return common.Metric{}, fmt.Errorf("%w: %s", ErrUnknownOperation, id)
	}
	delete(ms.marks, id)

	duration := millisecondsSince(mark.start, ms.nowFunc())

	return ms.appendUnprotected(mark.name, mark.category, duration, success, metadata), nil
}

// RecordMetric appends a timing measured elsewhere. The duration is expressed in milliseconds.
func (ms *metricStore) RecordMetric(
	name string,
	category common.MetricCategory,
	duration float64,
	success bool,
	metadata map[string]interface{},
) (common.Metric, error) {
	if !category.IsValid() {
		return common.Metric{}, fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) {
		return common.Metric{}, fmt.Errorf("%w: %f", ErrInvalidDuration, duration)
	}
	if duration < 0 {
		return common.Metric{}, fmt.Errorf("%w: %f", ErrNegativeDuration, duration)
	}

	ms.mut.Lock()
	defer ms.mut.Unlock()

	return ms.appendUnprotected(name, category, duration, success, metadata), nil
}

// MeasureFunction runs the unit of work and records exactly one metric for it, whatever the outcome.
// The error of the unit of work is returned unchanged; a panic is recorded as a failure and then re-raised.
func (ms *metricStore) MeasureFunction(
	ctx context.Context,
	name string,
	category common.MetricCategory,
	metadata map[string]interface{},
	fn func(ctx context.Context) error,
) (err error) {
	if fn == nil {
		return ErrNilFunction
	}
	if !category.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}

	start := ms.nowFunc()
	defer func() {
		recovered := recover()

		md := copyMetadata(metadata)
		switch {
		case recovered != nil:
			md["error"] = fmt.Sprint(recovered)
			md["panic"] = true
		case err != nil:
			md["error"] = err.Error()
		}

		ms.mut.Lock()
		duration := millisecondsSince(start, ms.nowFunc())
		ms.appendUnprotected(name, category, duration, err == nil && recovered == nil, md)
		ms.mut.Unlock()

		if recovered != nil {
			panic(recovered)
		}
	}()

	return fn(ctx)
}

func (ms *metricStore) appendUnprotected(
	name string,
	category common.MetricCategory,
	duration float64,
	success bool,
	metadata map[string]interface{},
) common.Metric {
	metric := common.Metric{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  category,
		Duration:  duration,
		Timestamp: ms.nowFunc(),
		Success:   success,
		Metadata:  copyMetadata(metadata),
	}

	ms.metrics = append(ms.metrics, metric)
	if len(ms.metrics) > ms.maxMetrics {
		ms.metrics = ms.metrics[len(ms.metrics)-ms.maxMetrics:]
	}
	ms.cachedStats = nil

	log.Trace("metric recorded", "name", name, "category", category, "duration", duration, "success", success)

	return metric
}

// Metrics returns a copy of the buffered metrics, oldest first
func (ms *metricStore) Metrics() []common.Metric {
	ms.mut.RLock()
	defer ms.mut.RUnlock()

	result := make([]common.Metric, len(ms.metrics))
	copy(result, ms.metrics)

	return result
}

// Len returns the number of buffered metrics
func (ms *metricStore) Len() int {
	ms.mut.RLock()
	defer ms.mut.RUnlock()

	return len(ms.metrics)
}

// PendingOperations returns the number of started but not ended operations
func (ms *metricStore) PendingOperations() int {
	ms.mut.RLock()
	defer ms.mut.RUnlock()

	return len(ms.marks)
}

// Statistics returns the statistics of the buffered metrics. The result is cached until the next mutation
// and must be treated as read-only.
func (ms *metricStore) Statistics() common.PerformanceStatistics {
	ms.mut.Lock()
	defer ms.mut.Unlock()

	if ms.cachedStats == nil {
		computed := ComputeStatistics(ms.metrics, ms.thresholds)
		ms.cachedStats = &computed
	}

	return *ms.cachedStats
}

// ExportMetrics returns the filtered metrics together with the statistics computed over them
func (ms *metricStore) ExportMetrics(filter common.MetricsFilter) common.MetricsExport {
	all := ms.Metrics()

	filtered := make([]common.Metric, 0, len(all))
	for _, m := range all {
		if !filter.Contains(m.Timestamp) {
			continue
		}
		if len(filter.Category) > 0 && m.Category != filter.Category {
			continue
		}

		filtered = append(filtered, m)
	}

	return common.MetricsExport{
		ExportedAt: ms.nowFunc(),
		Filter:     filter,
		Metrics:    filtered,
		Statistics: ComputeStatistics(filtered, ms.thresholds),
	}
}

// Reset drops all buffered metrics and pending operations
func (ms *metricStore) Reset() {
	ms.mut.Lock()
	defer ms.mut.Unlock()

	ms.metrics = make([]common.Metric, 0, ms.maxMetrics)
	ms.marks = make(map[string]operationMark)
	ms.cachedStats = nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (ms *metricStore) IsInterfaceNil() bool {
	return ms == nil
}

func millisecondsSince(start time.Time, now time.Time) float64 {
	return float64(now.Sub(start)) / float64(time.Millisecond)
}

func copyMetadata(metadata map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		result[k] = v
	}

	return result
}
