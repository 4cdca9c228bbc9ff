package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/client-observability/services/engine/common"
)

// query parameters accepted by the export endpoints
const (
	paramFrom     = "from"
	paramTo       = "to"
	paramCategory = "category"
	paramSource   = "source"
	paramSeverity = "severity"
	paramResolved = "resolved"
	paramUserID   = "userId"
)

func parseTimeRange(c *gin.Context) (common.TimeRange, error) {
	var timeRange common.TimeRange

	from, err := parseTime(c, paramFrom)
	if err != nil {
		return timeRange, err
	}
	to, err := parseTime(c, paramTo)
	if err != nil {
		return timeRange, err
	}

	timeRange.From = from
	timeRange.To = to

	return timeRange, nil
}

func parseTime(c *gin.Context, param string) (*time.Time, error) {
	value := c.Query(param)
	if len(value) == 0 {
		return nil, nil
	}

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter %q, expected an RFC3339 timestamp", param, value)
	}

	return &parsed, nil
}

func parseMetricsFilter(c *gin.Context) (common.MetricsFilter, error) {
	timeRange, err := parseTimeRange(c)
	if err != nil {
		return common.MetricsFilter{}, err
	}

	category := common.MetricCategory(c.Query(paramCategory))
	if len(category) > 0 && !category.IsValid() {
		return common.MetricsFilter{}, fmt.Errorf("invalid %s parameter %q", paramCategory, category)
	}

	return common.MetricsFilter{
		TimeRange: timeRange,
		Category:  category,
	}, nil
}

func parseErrorsFilter(c *gin.Context) (common.ErrorsFilter, error) {
	timeRange, err := parseTimeRange(c)
	if err != nil {
		return common.ErrorsFilter{}, err
	}

	source := common.ErrorSource(c.Query(paramSource))
	if len(source) > 0 && !source.IsValid() {
		return common.ErrorsFilter{}, fmt.Errorf("invalid %s parameter %q", paramSource, source)
	}
	severity := common.ErrorSeverity(c.Query(paramSeverity))
	if len(severity) > 0 && !severity.IsValid() {
		return common.ErrorsFilter{}, fmt.Errorf("invalid %s parameter %q", paramSeverity, severity)
	}

	filter := common.ErrorsFilter{
		TimeRange: timeRange,
		Source:    source,
		Severity:  severity,
	}

	resolved := c.Query(paramResolved)
	if len(resolved) > 0 {
		value, errParse := strconv.ParseBool(resolved)
		if errParse != nil {
			return common.ErrorsFilter{}, fmt.Errorf("invalid %s parameter %q", paramResolved, resolved)
		}
		filter.Resolved = &value
	}

	return filter, nil
}

func parseSessionsFilter(c *gin.Context) (common.SessionsFilter, error) {
	timeRange, err := parseTimeRange(c)
	if err != nil {
		return common.SessionsFilter{}, err
	}

	return common.SessionsFilter{
		TimeRange: timeRange,
		UserID:    c.Query(paramUserID),
	}, nil
}
