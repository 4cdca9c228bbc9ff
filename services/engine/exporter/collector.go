package exporter

import (
	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "client_observability"

var healthStatuses = []common.HealthStatus{common.StatusHealthy, common.StatusDegraded, common.StatusCritical}

// ArgsCollector defines the collector arguments
type ArgsCollector struct {
	Performance PerformanceProvider
	Errors      ErrorStatisticsProvider
	Sessions    SessionAnalyticsProvider
	Health      HealthProvider
}

// collector converts the engine snapshots into prometheus gauges on every scrape
type collector struct {
	performance PerformanceProvider
	errors      ErrorStatisticsProvider
	sessions    SessionAnalyticsProvider
	health      HealthProvider

	operationsCount    *prometheus.Desc
	operationsAverage  *prometheus.Desc
	operationsP95      *prometheus.Desc
	operationsP99      *prometheus.Desc
	operationsSuccess  *prometheus.Desc
	performanceIssues  *prometheus.Desc
	errorsBySource     *prometheus.Desc
	errorsUnresolved   *prometheus.Desc
	errorGroups        *prometheus.Desc
	sessionsTotal      *prometheus.Desc
	sessionsBounce     *prometheus.Desc
	sessionsConversion *prometheus.Desc
	vitalsScore        *prometheus.Desc
	healthScore        *prometheus.Desc
	healthChecks       *prometheus.Desc
	componentStatus    *prometheus.Desc
	componentResponse  *prometheus.Desc
}

// NewCollector creates a new prometheus collector over the engine components
func NewCollector(args ArgsCollector) (*collector, error) {
	if check.IfNil(args.Performance) {
		return nil, ErrNilPerformanceProvider
	}
	if check.IfNil(args.Errors) {
		return nil, ErrNilErrorStatisticsProvider
	}
	if check.IfNil(args.Sessions) {
		return nil, ErrNilSessionAnalyticsProvider
	}
	if check.IfNil(args.Health) {
		return nil, ErrNilHealthProvider
	}

	return &collector{
		performance: args.Performance,
		errors:      args.Errors,
		sessions:    args.Sessions,
		health:      args.Health,

		operationsCount:    newDesc("operations", "count", "Number of buffered metrics", "category"),
		operationsAverage:  newDesc("operations", "duration_average_ms", "Average duration of the buffered metrics", "category"),
		operationsP95:      newDesc("operations", "duration_p95_ms", "95th percentile duration of the buffered metrics", "category"),
		operationsP99:      newDesc("operations", "duration_p99_ms", "99th percentile duration of the buffered metrics", "category"),
		operationsSuccess:  newDesc("operations", "success_ratio", "Ratio of successful buffered metrics", "category"),
		performanceIssues:  newDesc("operations", "issues", "Number of detected performance issues", "level"),
		errorsBySource:     newDesc("errors", "buffered", "Number of buffered errors", "source"),
		errorsUnresolved:   newDesc("errors", "unresolved", "Number of unresolved buffered errors"),
		errorGroups:        newDesc("errors", "groups", "Number of distinct error fingerprints"),
		sessionsTotal:      newDesc("sessions", "ended", "Number of retained ended sessions"),
		sessionsBounce:     newDesc("sessions", "bounce_ratio", "Ratio of bounced sessions"),
		sessionsConversion: newDesc("sessions", "conversion_ratio", "Ratio of converted sessions"),
		vitalsScore:        newDesc("sessions", "vitals_score", "Composite web vitals score"),
		healthScore:        newDesc("health", "score", "System health score"),
		healthChecks:       newDesc("health", "checks_performed", "Number of health checks performed"),
		componentStatus:    newDesc("health", "component_status", "Component status, 1 for the current status", "component", "status"),
		componentResponse:  newDesc("health", "component_response_time_ms", "Component probe response time", "component"),
	}, nil
}

func newDesc(subsystem string, name string, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, labels, nil)
}

// Describe sends the descriptors of all the exported metrics
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.operationsCount
	ch <- c.operationsAverage
	ch <- c.operationsP95
	ch <- c.operationsP99
	ch <- c.operationsSuccess
	ch <- c.performanceIssues
	ch <- c.errorsBySource
	ch <- c.errorsUnresolved
	ch <- c.errorGroups
	ch <- c.sessionsTotal
	ch <- c.sessionsBounce
	ch <- c.sessionsConversion
	ch <- c.vitalsScore
	ch <- c.healthScore
	ch <- c.healthChecks
	ch <- c.componentStatus
	ch <- c.componentResponse
}

// Collect reads the current snapshots of all components
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	c.collectPerformance(ch)
	c.collectErrors(ch)
	c.collectSessions(ch)
	c.collectHealth(ch)
}

func (c *collector) collectPerformance(ch chan<- prometheus.Metric) {
	stats := c.performance.Statistics()
	for _, category := range common.AllCategories {
		categoryStats := stats.Categories[category]
		label := string(category)

		ch <- gauge(c.operationsCount, float64(categoryStats.Count), label)
		ch <- gauge(c.operationsAverage, categoryStats.Average, label)
		ch <- gauge(c.operationsP95, categoryStats.P95, label)
		ch <- gauge(c.operationsP99, categoryStats.P99, label)
		ch <- gauge(c.operationsSuccess, categoryStats.SuccessRate, label)
	}

	issues := map[common.IssueLevel]int{
		common.IssueWarning: 0,
		common.IssueError:   0,
	}
	for _, issue := range stats.Issues {
		issues[issue.Level]++
	}
	for level, count := range issues {
		ch <- gauge(c.performanceIssues, float64(count), string(level))
	}
}

func (c *collector) collectErrors(ch chan<- prometheus.Metric) {
	stats := c.errors.Statistics()
	for source, count := range stats.BySource {
		ch <- gauge(c.errorsBySource, float64(count), string(source))
	}
	ch <- gauge(c.errorsUnresolved, float64(stats.Unresolved))
	ch <- gauge(c.errorGroups, float64(stats.NumGroups))
}

func (c *collector) collectSessions(ch chan<- prometheus.Metric) {
	analytics := c.sessions.Analytics()
	ch <- gauge(c.sessionsTotal, float64(analytics.TotalSessions))
	ch <- gauge(c.sessionsBounce, analytics.BounceRate)
	ch <- gauge(c.sessionsConversion, analytics.ConversionRate)
	ch <- gauge(c.vitalsScore, analytics.VitalsScore.Score)
}

func (c *collector) collectHealth(ch chan<- prometheus.Metric) {
	status, found := c.health.Latest()
	if !found {
		return
	}

	ch <- gauge(c.healthScore, status.Score)
	ch <- gauge(c.healthChecks, float64(status.ChecksPerformed))
	for name, component := range status.Components {
		for _, healthStatus := range healthStatuses {
			value := 0.0
			if component.Status == healthStatus {
				value = 1
			}
			ch <- gauge(c.componentStatus, value, name, string(healthStatus))
		}
		ch <- gauge(c.componentResponse, component.ResponseTime, name)
	}
}

func gauge(desc *prometheus.Desc, value float64, labels ...string) prometheus.Metric {
	return prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, labels...)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *collector) IsInterfaceNil() bool {
	return c == nil
}
