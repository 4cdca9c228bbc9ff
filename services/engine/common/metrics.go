package common

import "time"

// MetricCategory is the kind of operation a Metric timed
type MetricCategory string

const (
	CategoryAPICall         MetricCategory = "api_call"
	CategoryUserInteraction MetricCategory = "user_interaction"
	CategoryPageLoad        MetricCategory = "page_load"
	CategoryDatabaseQuery   MetricCategory = "database_query"
)

// AllCategories lists the known categories in their canonical order
var AllCategories = []MetricCategory{
	CategoryAPICall,
	CategoryUserInteraction,
	CategoryPageLoad,
	CategoryDatabaseQuery,
}

// IsValid returns true if the category is one of the known ones
func (c MetricCategory) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}

	return false
}

// Metric is a single recorded timing sample. Durations are expressed in milliseconds.
type Metric struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Category  MetricCategory         `json:"category"`
	Duration  float64                `json:"duration"`
	Timestamp time.Time              `json:"timestamp"`
	Success   bool                   `json:"success"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// CategoryStatistics holds the derived statistics of a set of metrics
type CategoryStatistics struct {
	Count       int      `json:"count"`
	Average     float64  `json:"average"`
	P95         float64  `json:"p95"`
	P99         float64  `json:"p99"`
	SuccessRate float64  `json:"successRate"`
	Slowest     []Metric `json:"slowest"`
	Fastest     []Metric `json:"fastest"`
}

// IssueLevel is the gravity of a performance issue
type IssueLevel string

const (
	IssueWarning IssueLevel = "warning"
	IssueError   IssueLevel = "error"
)

// PerformanceIssue is a derived finding about a category
type PerformanceIssue struct {
	Category  MetricCategory `json:"category"`
	Metric    string         `json:"metric"`
	Level     IssueLevel     `json:"level"`
	Value     float64        `json:"value"`
	Threshold float64        `json:"threshold"`
	Message   string         `json:"message"`
}

// PerformanceStatistics aggregates overall and per-category statistics
type PerformanceStatistics struct {
	Overall    CategoryStatistics                    `json:"overall"`
	Categories map[MetricCategory]CategoryStatistics `json:"categories"`
	Issues     []PerformanceIssue                    `json:"issues"`
}

// TimeRange bounds a query; a nil bound is open
type TimeRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Contains returns true if the timestamp is inside the range (bounds inclusive)
func (tr TimeRange) Contains(timestamp time.Time) bool {
	if tr.From != nil && timestamp.Before(*tr.From) {
		return false
	}
	if tr.To != nil && timestamp.After(*tr.To) {
		return false
	}

	return true
}

// MetricsFilter selects metrics for an export
type MetricsFilter struct {
	TimeRange
	Category MetricCategory `json:"category,omitempty"`
}

// MetricsExport is the JSON-serializable snapshot returned by ExportMetrics
type MetricsExport struct {
	ExportedAt time.Time             `json:"exportedAt"`
	Filter     MetricsFilter         `json:"filter"`
	Metrics    []Metric              `json:"metrics"`
	Statistics PerformanceStatistics `json:"statistics"`
}
