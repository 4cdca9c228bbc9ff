package factory

import (
	"context"

	"github.com/iulianpascalau/client-observability/services/engine/common"
)

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start() error
	Address() string
	Close() error
}

// MetricStore defines the performance instrumentation surface
type MetricStore interface {
	StartOperation(id string, name string, category common.MetricCategory) error
	EndOperation(id string, success bool, metadata map[string]interface{}) (common.Metric, error)
	RecordMetric(name string, category common.MetricCategory, duration float64, success bool, metadata map[string]interface{}) (common.Metric, error)
	MeasureFunction(ctx context.Context, name string, category common.MetricCategory, metadata map[string]interface{}, fn func(ctx context.Context) error) error
	Metrics() []common.Metric
	Statistics() common.PerformanceStatistics
	ExportMetrics(filter common.MetricsFilter) common.MetricsExport
	Reset()
	IsInterfaceNil() bool
}

// ErrorTracker defines the error tracking surface
type ErrorTracker interface {
	RecordError(message string, opts common.ErrorOptions) (common.ErrorRecord, []common.Alert)
	RecordAPIError(message string, endpoint string, method string, statusCode int) (common.ErrorRecord, []common.Alert)
	RecordDatabaseError(message string, operation string, table string) (common.ErrorRecord, []common.Alert)
	RecordUserActionError(message string, action string, context map[string]interface{}) (common.ErrorRecord, []common.Alert)
	RecordJavaScriptError(message string, stack string, url string, userAgent string) (common.ErrorRecord, []common.Alert)
	ResolveError(id string, resolvedBy string) error
	ResolveErrorGroup(fingerprint string, resolvedBy string) (int, error)
	AddTag(id string, tag string) error
	RemoveTag(id string, tag string) error
	ErrorGroups() []common.ErrorGroup
	Statistics() common.ErrorStatistics
	Alerts() []common.Alert
	ExportErrors(filter common.ErrorsFilter) common.ErrorsExport
	Reset()
	IsInterfaceNil() bool
}

// AlertEvaluator defines the alert rules management surface
type AlertEvaluator interface {
	AddAlertRule(rule common.AlertRule) (common.AlertRule, error)
	RemoveAlertRule(id string) bool
	Rules() []common.AlertRule
	Alerts() []common.Alert
	Reset()
	IsInterfaceNil() bool
}

// SessionTracker defines the RUM surface
type SessionTracker interface {
	StartSession(userID string, device common.DeviceInfo) common.UserSession
	EndSession() (common.UserSession, error)
	RecordPageView(url string, title string, referrer string, loadTime float64) (common.PageView, error)
	RecordInteraction(interactionType common.InteractionType, target string, metadata map[string]interface{}) (common.Interaction, error)
	MarkConversion(goal string, value float64) error
	CurrentSession() (common.UserSession, bool)
	Sessions() []common.UserSession
	VitalsScore() common.VitalsScore
	Analytics() common.SessionAnalytics
	ExportSessionData(filter common.SessionsFilter) common.SessionsExport
	Reset()
	Close() error
	IsInterfaceNil() bool
}

// HealthAggregator defines the health monitoring surface
type HealthAggregator interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
	Process(ctx context.Context) common.SystemHealthStatus
	RecordError(component string, message string) error
	ErrorLog() []common.HealthErrorEntry
	Latest() (common.SystemHealthStatus, bool)
	History() []common.SystemHealthStatus
	Reset()
	Close() error
	IsInterfaceNil() bool
}

// BeaconSource defines the entry point of the performance entries sent by the browser
type BeaconSource interface {
	Publish(entries []common.PerformanceEntry) int
	IsInterfaceNil() bool
}
