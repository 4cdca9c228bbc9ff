package api

import "github.com/iulianpascalau/client-observability/services/engine/common"

// MetricsHandler records and exports the timing samples
type MetricsHandler interface {
	RecordMetric(name string, category common.MetricCategory, duration float64, success bool, metadata map[string]interface{}) (common.Metric, error)
	ExportMetrics(filter common.MetricsFilter) common.MetricsExport
	IsInterfaceNil() bool
}

// ErrorsHandler records, resolves and exports the tracked errors
type ErrorsHandler interface {
	RecordError(message string, opts common.ErrorOptions) (common.ErrorRecord, []common.Alert)
	ResolveError(id string, resolvedBy string) error
	ResolveErrorGroup(fingerprint string, resolvedBy string) (int, error)
	ExportErrors(filter common.ErrorsFilter) common.ErrorsExport
	IsInterfaceNil() bool
}

// SessionsExporter exports the RUM sessions
type SessionsExporter interface {
	ExportSessionData(filter common.SessionsFilter) common.SessionsExport
	IsInterfaceNil() bool
}

// HealthProvider exposes the computed health statuses
type HealthProvider interface {
	Latest() (common.SystemHealthStatus, bool)
	History() []common.SystemHealthStatus
	IsInterfaceNil() bool
}

// EntriesPublisher accepts the performance entries sent by the browser
type EntriesPublisher interface {
	Publish(entries []common.PerformanceEntry) int
	IsInterfaceNil() bool
}
