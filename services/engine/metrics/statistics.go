package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/iulianpascalau/client-observability/services/engine/config"
	"github.com/montanaflynn/stats"
)

const (
	categoryTopN = 5
	overallTopN  = 10
)

// CategoryThreshold holds the average duration bounds of a category, in milliseconds
type CategoryThreshold struct {
	Acceptable float64
	Tolerable  float64
}

// Thresholds drives the issues detection
type Thresholds struct {
	Categories         map[common.MetricCategory]CategoryThreshold
	WarningSuccessRate float64
	ErrorSuccessRate   float64
}

// NewThresholds creates the thresholds out of the metrics config
func NewThresholds(cfg config.MetricsConfig) Thresholds {
	th := Thresholds{
		Categories:         make(map[common.MetricCategory]CategoryThreshold, len(cfg.Thresholds)),
		WarningSuccessRate: cfg.WarningSuccessRate,
		ErrorSuccessRate:   cfg.ErrorSuccessRate,
	}
	for category, threshold := range cfg.Thresholds {
		th.Categories[common.MetricCategory(category)] = CategoryThreshold{
			Acceptable: threshold.Acceptable,
			Tolerable:  threshold.Tolerable,
		}
	}

	return th
}

// DefaultThresholds returns the thresholds of the default config
func DefaultThresholds() Thresholds {
	return NewThresholds(config.DefaultConfig().Metrics)
}

// ComputeStatistics derives the overall and per-category statistics and the issues list of the provided metrics.
// The provided slice is not modified.
func ComputeStatistics(metrics []common.Metric, thresholds Thresholds) common.PerformanceStatistics {
	byCategory := make(map[common.MetricCategory][]common.Metric, len(common.AllCategories))
	for _, m := range metrics {
		byCategory[m.Category] = append(byCategory[m.Category], m)
	}

	result := common.PerformanceStatistics{
		Overall:    computeCategoryStatistics(metrics, overallTopN),
		Categories: make(map[common.MetricCategory]common.CategoryStatistics, len(common.AllCategories)),
		Issues:     make([]common.PerformanceIssue, 0),
	}
	for _, category := range common.AllCategories {
		categoryStats := computeCategoryStatistics(byCategory[category], categoryTopN)
		result.Categories[category] = categoryStats
		result.Issues = append(result.Issues, detectIssues(category, categoryStats, thresholds)...)
	}

	return result
}

func computeCategoryStatistics(metrics []common.Metric, topN int) common.CategoryStatistics {
	result := common.CategoryStatistics{
		Count:   len(metrics),
		Slowest: make([]common.Metric, 0),
		Fastest: make([]common.Metric, 0),
	}
	if len(metrics) == 0 {
		return result
	}

	durations := make([]float64, 0, len(metrics))
	numSuccess := 0
	for _, m := range metrics {
		durations = append(durations, m.Duration)
		if m.Success {
			numSuccess++
		}
	}
	sort.Float64s(durations)

	result.Average, _ = stats.Mean(durations)
	result.P95 = valueAtPercentile(durations, 0.95)
	result.P99 = valueAtPercentile(durations, 0.99)
	result.SuccessRate = float64(numSuccess) / float64(len(metrics))
	result.Slowest = topByDuration(metrics, topN, func(a, b float64) bool { return a > b })
	result.Fastest = topByDuration(metrics, topN, func(a, b float64) bool { return a < b })

	return result
}

// valueAtPercentile returns the value at index floor(n × percentile) of the ascending sorted values
func valueAtPercentile(sorted []float64, percentile float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	idx := int(math.Floor(float64(len(sorted)) * percentile))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return sorted[idx]
}

func topByDuration(metrics []common.Metric, n int, less func(a, b float64) bool) []common.Metric {
	sorted := make([]common.Metric, len(metrics))
	copy(sorted, metrics)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i].Duration, sorted[j].Duration)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	return sorted
}

func detectIssues(category common.MetricCategory, categoryStats common.CategoryStatistics, thresholds Thresholds) []common.PerformanceIssue {
	if categoryStats.Count == 0 {
		return nil
	}

	var issues []common.PerformanceIssue
	threshold, found := thresholds.Categories[category]
	if found {
		switch {
		case threshold.Tolerable > 0 && categoryStats.Average > threshold.Tolerable:
			issues = append(issues, common.PerformanceIssue{
				Category:  category,
				Metric:    "average_duration",
				Level:     common.IssueError,
				Value:     categoryStats.Average,
				Threshold: threshold.Tolerable,
				Message:   fmt.Sprintf("average %s duration %.0fms exceeds the tolerable threshold of %.0fms", category, categoryStats.Average, threshold.Tolerable),
			})
		case threshold.Acceptable > 0 && categoryStats.Average > threshold.Acceptable:
			issues = append(issues, common.PerformanceIssue{
				Category:  category,
				Metric:    "average_duration",
				Level:     common.IssueWarning,
				Value:     categoryStats.Average,
				Threshold: threshold.Acceptable,
				Message:   fmt.Sprintf("average %s duration %.0fms exceeds the acceptable threshold of %.0fms", category, categoryStats.Average, threshold.Acceptable),
			})
		}
	}

	switch {
	case categoryStats.SuccessRate < thresholds.ErrorSuccessRate:
		issues = append(issues, common.PerformanceIssue{
			Category:  category,
			Metric:    "success_rate",
			Level:     common.IssueError,
			Value:     categoryStats.SuccessRate,
			Threshold: thresholds.ErrorSuccessRate,
			Message:   fmt.Sprintf("%s success rate %.1f%% is below %.1f%%", category, categoryStats.SuccessRate*100, thresholds.ErrorSuccessRate*100),
		})
	case categoryStats.SuccessRate < thresholds.WarningSuccessRate:
		issues = append(issues, common.PerformanceIssue{
			Category:  category,
			Metric:    "success_rate",
			Level:     common.IssueWarning,
			Value:     categoryStats.SuccessRate,
			Threshold: thresholds.WarningSuccessRate,
			Message:   fmt.Sprintf("%s success rate %.1f%% is below %.1f%%", category, categoryStats.SuccessRate*100, thresholds.WarningSuccessRate*100),
		})
	}

	return issues
}
