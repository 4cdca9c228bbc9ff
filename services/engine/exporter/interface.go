package exporter

import "github.com/iulianpascalau/client-observability/services/engine/common"

// PerformanceProvider exposes the metric statistics
type PerformanceProvider interface {
	Statistics() common.PerformanceStatistics
	IsInterfaceNil() bool
}

// ErrorStatisticsProvider exposes the error statistics
type ErrorStatisticsProvider interface {
	Statistics() common.ErrorStatistics
	IsInterfaceNil() bool
}

// SessionAnalyticsProvider exposes the RUM analytics
type SessionAnalyticsProvider interface {
	Analytics() common.SessionAnalytics
	IsInterfaceNil() bool
}

// HealthProvider exposes the latest system health status
type HealthProvider interface {
	Latest() (common.SystemHealthStatus, bool)
	IsInterfaceNil() bool
}
