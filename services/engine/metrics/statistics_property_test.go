package metrics

import (
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	"pgregory.net/rapid"
)

// For any N durations, p95 and p99 are the values at floor(N × 0.95) and floor(N × 0.99) of the ascending order.
func TestProperty_PercentileIndex(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		durations := rapid.SliceOfN(rapid.Float64Range(0, 60000), 1, 300).Draw(rt, "durations")

		metrics := make([]common.Metric, 0, len(durations))
		for i, d := range durations {
			metrics = append(metrics, createMetric(fmt.Sprintf("m%d", i), common.CategoryAPICall, d, true))
		}

		sorted := make([]float64, len(durations))
		copy(sorted, durations)
		sort.Float64s(sorted)
		n := float64(len(sorted))

		result := ComputeStatistics(metrics, DefaultThresholds())
		apiStats := result.Categories[common.CategoryAPICall]

		expectedP95 := sorted[int(math.Floor(n*0.95))]
		expectedP99 := sorted[int(math.Floor(n*0.99))]
		if apiStats.P95 != expectedP95 {
			rt.Fatalf("p95 = %f, want %f", apiStats.P95, expectedP95)
		}
		if apiStats.P99 != expectedP99 {
			rt.Fatalf("p99 = %f, want %f", apiStats.P99, expectedP99)
		}
		if apiStats.Count != len(durations) {
			rt.Fatalf("count = %d, want %d", apiStats.Count, len(durations))
		}
	})
}

// For any number of insertions, the store retains the most recent MaxMetrics in insertion order.
func TestProperty_EvictionKeepsTheMostRecent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxMetrics := rapid.IntRange(1, 50).Draw(rt, "maxMetrics")
		numInserts := rapid.IntRange(0, 150).Draw(rt, "numInserts")

		store, err := NewMetricStore(ArgsMetricStore{MaxMetrics: maxMetrics, Thresholds: DefaultThresholds()})
		if err != nil {
			rt.Fatalf("creating store: %v", err)
		}
		for i := 0; i < numInserts; i++ {
			_, _ = store.RecordMetric(fmt.Sprintf("m%d", i), common.CategoryPageLoad, float64(i), true, nil)
		}

		expectedLen := numInserts
		if expectedLen > maxMetrics {
			expectedLen = maxMetrics
		}
		metrics := store.Metrics()
		if len(metrics) != expectedLen {
			rt.Fatalf("len = %d, want %d", len(metrics), expectedLen)
		}

		firstKept := numInserts - expectedLen
		for i, m := range metrics {
			expectedName := fmt.Sprintf("m%d", firstKept+i)
			if m.Name != expectedName {
				rt.Fatalf("metrics[%d] = %s, want %s", i, m.Name, expectedName)
			}
		}
	})
}
