package health

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/tidwall/gjson"
)

const (
	statusJSONPath     = "status"
	healthEndpointPath = "/api/health"
)

var healthyRemoteStatuses = map[string]struct{}{
	"ok":      {},
	"up":      {},
	"pass":    {},
	"healthy": {},
}

// apiProbe issues a GET on the remote API health endpoint. A missing endpoint is treated as healthy.
type apiProbe struct {
	url     string
	client  *http.Client
	nowFunc func() time.Time
}

// NewAPIProbe creates a new remote API probe issuing GET <baseURL>/api/health. An empty base URL makes the probe
// always report healthy.
func NewAPIProbe(baseURL string, timeout time.Duration) *apiProbe {
	url := ""
	if len(baseURL) > 0 {
		url = strings.TrimRight(baseURL, "/") + healthEndpointPath
	}

	return &apiProbe{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		nowFunc: time.Now,
	}
}

// Name returns the component name
func (probe *apiProbe) Name() string {
	return common.ComponentAPI
}

// Check measures the remote API
func (probe *apiProbe) Check(ctx context.Context) common.ProbeResult {
	if len(probe.url) == 0 {
		return common.ProbeResult{Message: "no health endpoint configured, assuming healthy"}
	}

	start := probe.nowFunc()
	statusCode, body, err := probe.get(ctx)
	responseTime := millisecondsSince(start, probe.nowFunc())
	if err != nil {
		return common.ProbeResult{
			ResponseTime: responseTime,
			ErrorRate:    1,
			Err:          err,
		}
	}

	switch {
	case statusCode == http.StatusNotFound:
		return common.ProbeResult{
			ResponseTime: responseTime,
			Message:      "health endpoint not found, assuming healthy",
		}
	case statusCode < 200 || statusCode >= 300:
		return common.ProbeResult{
			ResponseTime: responseTime,
			ErrorRate:    1,
			Err:          errStatusNotOK(statusCode),
		}
	}

	result := gjson.GetBytes(body, statusJSONPath)
	if !result.Exists() {
		return common.ProbeResult{ResponseTime: responseTime}
	}

	status := strings.ToLower(result.String())
	_, healthy := healthyRemoteStatuses[status]
	if !healthy {
		return common.ProbeResult{
			ResponseTime: responseTime,
			ErrorRate:    1,
			Err:          errUnhealthyStatus(status),
		}
	}

	return common.ProbeResult{
		ResponseTime: responseTime,
		Message:      "remote API status: " + status,
	}
}

func (probe *apiProbe) get(ctx context.Context) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probe.url, nil)
	if err != nil {
		return 0, nil, err
	}

	resp, err := probe.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (probe *apiProbe) IsInterfaceNil() bool {
	return probe == nil
}

func millisecondsSince(start time.Time, now time.Time) float64 {
	return float64(now.Sub(start)) / float64(time.Millisecond)
}
