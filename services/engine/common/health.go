package common

import "time"

// HealthStatus is the status of a component or of the whole system
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusDegraded HealthStatus = "degraded"
	StatusCritical HealthStatus = "critical"
)

// Component names used by the health aggregator
const (
	ComponentDatabase       = "database"
	ComponentAPI            = "api"
	ComponentFrontend       = "frontend"
	ComponentUserExperience = "user_experience"
)

// ProbeResult is the raw outcome of a component probe. ResponseTime is expressed in milliseconds.
type ProbeResult struct {
	ResponseTime float64
	ErrorRate    float64
	Message      string
	Err          error
}

// ComponentHealth is the classified health of a single component
type ComponentHealth struct {
	Status       HealthStatus `json:"status"`
	ResponseTime float64      `json:"responseTime"`
	ErrorRate    float64      `json:"errorRate"`
	Message      string       `json:"message,omitempty"`
	LastChecked  time.Time    `json:"lastChecked"`
}

// SystemHealthStatus is the weighted status of all components. Uptime is expressed in milliseconds.
type SystemHealthStatus struct {
	Overall             HealthStatus               `json:"overall"`
	Score               float64                    `json:"score"`
	Components          map[string]ComponentHealth `json:"components"`
	LastChecked         time.Time                  `json:"lastChecked"`
	Uptime              float64                    `json:"uptime"`
	ChecksPerformed     int                        `json:"checksPerformed"`
	ResponseTimeTrend   float64                    `json:"responseTimeTrend"`
	RecentErrorLogCount int                        `json:"recentErrorLogCount"`
}

// HealthErrorEntry is an externally observed health failure
type HealthErrorEntry struct {
	Component string    `json:"component"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
