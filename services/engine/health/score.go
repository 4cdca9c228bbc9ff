package health

import (
	"math"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/iulianpascalau/client-observability/services/engine/config"
	"github.com/montanaflynn/stats"
)

// Thresholds are the bounds used to classify a component. Response times are expressed in milliseconds.
type Thresholds struct {
	HealthyResponseTime  float64
	DegradedResponseTime float64
	HealthyErrorRate     float64
	DegradedErrorRate    float64
}

// NewThresholds converts the health thresholds configuration
func NewThresholds(cfg config.HealthThresholdsConfig) Thresholds {
	return Thresholds{
		HealthyResponseTime:  cfg.HealthyResponseTimeInMs,
		DegradedResponseTime: cfg.DegradedResponseTimeInMs,
		HealthyErrorRate:     cfg.HealthyErrorRate,
		DegradedErrorRate:    cfg.DegradedErrorRate,
	}
}

// Classify converts the response time and error rate of a probe into a status
func Classify(responseTime float64, errorRate float64, thresholds Thresholds) common.HealthStatus {
	switch {
	case errorRate > thresholds.DegradedErrorRate || responseTime > thresholds.DegradedResponseTime:
		return common.StatusCritical
	case errorRate > thresholds.HealthyErrorRate || responseTime > thresholds.HealthyResponseTime:
		return common.StatusDegraded
	default:
		return common.StatusHealthy
	}
}

// ComputeOverall combines the component statuses into the overall status and its 0-100 score.
// The base score averages a response-time sub-score and an error-rate sub-score. Critical and degraded
// components cap it with a penalty per affected component.
func ComputeOverall(components map[string]common.ComponentHealth) (common.HealthStatus, float64) {
	if len(components) == 0 {
		return common.StatusHealthy, 100
	}

	responseTimes := make([]float64, 0, len(components))
	errorRates := make([]float64, 0, len(components))
	numCritical, numDegraded := 0, 0
	for _, component := range components {
		responseTimes = append(responseTimes, component.ResponseTime)
		errorRates = append(errorRates, component.ErrorRate)

		switch component.Status {
		case common.StatusCritical:
			numCritical++
		case common.StatusDegraded:
			numDegraded++
		}
	}

	avgResponseTime, _ := stats.Mean(responseTimes)
	avgErrorRate, _ := stats.Mean(errorRates)

	responseTimeScore := max(0, 100-avgResponseTime/10)
	errorRateScore := max(0, 100-avgErrorRate*1000)
	score := clampScore((responseTimeScore + errorRateScore) / 2)

	switch {
	case numCritical > 0:
		return common.StatusCritical, min(score, max(0, 50-15*float64(numCritical)))
	case numDegraded > 0:
		return common.StatusDegraded, min(score, max(0, 80-10*float64(numDegraded)))
	default:
		return common.StatusHealthy, score
	}
}

func clampScore(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}

	return min(100, max(0, score))
}
