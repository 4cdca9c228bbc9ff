package metrics

import (
	"fmt"
	"testing"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMetric(name string, category common.MetricCategory, duration float64, success bool) common.Metric {
	return common.Metric{
		ID:        name,
		Name:      name,
		Category:  category,
		Duration:  duration,
		Timestamp: testStartTime,
		Success:   success,
	}
}

func TestComputeStatistics_Empty(t *testing.T) {
	t.Parallel()

	result := ComputeStatistics(nil, DefaultThresholds())

	assert.Equal(t, 0, result.Overall.Count)
	assert.Equal(t, 0.0, result.Overall.P95)
	assert.Equal(t, 0.0, result.Overall.P99)
	assert.Empty(t, result.Overall.Slowest)
	assert.NotNil(t, result.Overall.Slowest)
	assert.Len(t, result.Categories, len(common.AllCategories))
	assert.Empty(t, result.Issues)
}

func TestComputeStatistics_P95SelectsTheSpike(t *testing.T) {
	t.Parallel()

	metrics := make([]common.Metric, 0, 20)
	for i := 0; i < 19; i++ {
		metrics = append(metrics, createMetric(fmt.Sprintf("call%d", i), common.CategoryAPICall, 100, true))
	}
	metrics = append(metrics, createMetric("spike", common.CategoryAPICall, 5000, true))

	result := ComputeStatistics(metrics, DefaultThresholds())
	apiStats := result.Categories[common.CategoryAPICall]

	assert.Equal(t, 20, apiStats.Count)
	assert.Equal(t, 5000.0, apiStats.P95)
	assert.Equal(t, 5000.0, apiStats.P99)
	assert.Equal(t, 345.0, apiStats.Average)
	assert.Equal(t, 1.0, apiStats.SuccessRate)
	require.Len(t, apiStats.Slowest, 5)
	assert.Equal(t, "spike", apiStats.Slowest[0].Name)
	// ties keep the insertion order
	assert.Equal(t, "call0", apiStats.Slowest[1].Name)
	assert.Equal(t, "call3", apiStats.Slowest[4].Name)
	require.Len(t, apiStats.Fastest, 5)
	assert.Equal(t, "call0", apiStats.Fastest[0].Name)
	assert.Equal(t, "call4", apiStats.Fastest[4].Name)
}

func TestComputeStatistics_OverallTopTen(t *testing.T) {
	t.Parallel()

	var metrics []common.Metric
	for i := 0; i < 30; i++ {
		category := common.AllCategories[i%len(common.AllCategories)]
		metrics = append(metrics, createMetric(fmt.Sprintf("m%d", i), category, float64(i), true))
	}

	result := ComputeStatistics(metrics, DefaultThresholds())

	require.Len(t, result.Overall.Slowest, 10)
	assert.Equal(t, "m29", result.Overall.Slowest[0].Name)
	require.Len(t, result.Overall.Fastest, 10)
	assert.Equal(t, "m0", result.Overall.Fastest[0].Name)
	assert.Equal(t, 30, result.Overall.Count)
	for _, category := range common.AllCategories {
		assert.LessOrEqual(t, len(result.Categories[category].Slowest), 5)
	}
}

func TestComputeStatistics_Issues(t *testing.T) {
	t.Parallel()

	t.Run("average above tolerable should be an error", func(t *testing.T) {
		metrics := []common.Metric{createMetric("a", common.CategoryAPICall, 3500, true)}

		result := ComputeStatistics(metrics, DefaultThresholds())
		require.Len(t, result.Issues, 1)
		assert.Equal(t, common.IssueError, result.Issues[0].Level)
		assert.Equal(t, "average_duration", result.Issues[0].Metric)
		assert.Equal(t, 3000.0, result.Issues[0].Threshold)
	})
	t.Run("average above acceptable should be a warning", func(t *testing.T) {
		metrics := []common.Metric{createMetric("a", common.CategoryAPICall, 1500, true)}

		result := ComputeStatistics(metrics, DefaultThresholds())
		require.Len(t, result.Issues, 1)
		assert.Equal(t, common.IssueWarning, result.Issues[0].Level)
		assert.Equal(t, 1000.0, result.Issues[0].Threshold)
	})
	t.Run("success rate under 95% should be an error", func(t *testing.T) {
		var metrics []common.Metric
		for i := 0; i < 10; i++ {
			metrics = append(metrics, createMetric("q", common.CategoryDatabaseQuery, 10, i != 0))
		}

		result := ComputeStatistics(metrics, DefaultThresholds())
		require.Len(t, result.Issues, 1)
		assert.Equal(t, common.IssueError, result.Issues[0].Level)
		assert.Equal(t, "success_rate", result.Issues[0].Metric)
		assert.InDelta(t, 0.9, result.Issues[0].Value, 0.0001)
	})
	t.Run("success rate under 98% should be a warning", func(t *testing.T) {
		var metrics []common.Metric
		for i := 0; i < 40; i++ {
			metrics = append(metrics, createMetric("q", common.CategoryDatabaseQuery, 10, i != 0))
		}

		result := ComputeStatistics(metrics, DefaultThresholds())
		require.Len(t, result.Issues, 1)
		assert.Equal(t, common.IssueWarning, result.Issues[0].Level)
	})
	t.Run("healthy categories should not report issues", func(t *testing.T) {
		metrics := []common.Metric{
			createMetric("a", common.CategoryAPICall, 200, true),
			createMetric("b", common.CategoryPageLoad, 1200, true),
		}

		result := ComputeStatistics(metrics, DefaultThresholds())
		assert.Empty(t, result.Issues)
	})
}

func TestComputeStatistics_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	metrics := []common.Metric{
		createMetric("slow", common.CategoryAPICall, 900, true),
		createMetric("fast", common.CategoryAPICall, 10, true),
	}
	_ = ComputeStatistics(metrics, DefaultThresholds())

	assert.Equal(t, "slow", metrics[0].Name)
	assert.Equal(t, "fast", metrics[1].Name)
}
