package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[Metrics]
    MaxMetrics = 1000
    WarningSuccessRate = 0.98
    ErrorSuccessRate = 0.95
    [Metrics.Thresholds.api_call]
        Acceptable = 800.0
        Tolerable = 2000.0

[Errors]
    MaxErrors = 2000
    MaxAlertHistory = 50

[Alerts]
    WebhookTimeoutInSeconds = 3

[[Alerts.Rules]]
    ID = "critical"
    Name = "Critical errors"
    Type = "severity"
    Severity = "critical"
    Enabled = true
    CooldownInMinutes = 5
    WebhookURL = "https://hooks.example.com/alerts"
    Emails = ["oncall@example.com"]

[[Alerts.Rules]]
    ID = "rate"
    Name = "High error rate"
    Type = "error_rate"
    Threshold = 10.0
    TimeWindowInMinutes = 5
    Source = "api"
    Enabled = false
    CooldownInMinutes = 15

[RUM]
    MaxSessions = 500
    BounceDurationInSeconds = 30

[Health]
    CheckIntervalInSeconds = 30
    ProbeTimeoutInSeconds = 5
    HistorySize = 100
    ErrorLogRetentionInHours = 24
    APIBaseURL = "http://127.0.0.1:8080"
    DataLayerPath = "./data/app.db"
    MemoryLimitInMB = 512
    [Health.Thresholds]
        HealthyResponseTimeInMs = 1000.0
        DegradedResponseTimeInMs = 3000.0
        HealthyErrorRate = 0.01
        DegradedErrorRate = 0.05

[API]
    ListenAddress = "127.0.0.1:8080"
`

func expectedTestConfig() Config {
	return Config{
		Metrics: MetricsConfig{
			MaxMetrics:         1000,
			WarningSuccessRate: 0.98,
			ErrorSuccessRate:   0.95,
			Thresholds: map[string]CategoryThresholdConfig{
				"api_call": {Acceptable: 800, Tolerable: 2000},
			},
		},
		Errors: ErrorsConfig{
			MaxErrors:       2000,
			MaxAlertHistory: 50,
		},
		Alerts: AlertsConfig{
			WebhookTimeoutInSeconds: 3,
			Rules: []AlertRuleConfig{
				{
					ID:                "critical",
					Name:              "Critical errors",
					Type:              "severity",
					Severity:          "critical",
					Enabled:           true,
					CooldownInMinutes: 5,
					WebhookURL:        "https://hooks.example.com/alerts",
					Emails:            []string{"oncall@example.com"},
				},
				{
					ID:                  "rate",
					Name:                "High error rate",
					Type:                "error_rate",
					Threshold:           10,
					TimeWindowInMinutes: 5,
					Source:              "api",
					Enabled:             false,
					CooldownInMinutes:   15,
				},
			},
		},
		RUM: RUMConfig{
			MaxSessions:             500,
			BounceDurationInSeconds: 30,
		},
		Health: HealthConfig{
			CheckIntervalInSeconds:   30,
			ProbeTimeoutInSeconds:    5,
			HistorySize:              100,
			ErrorLogRetentionInHours: 24,
			APIBaseURL:               "http://127.0.0.1:8080",
			DataLayerPath:            "./data/app.db",
			MemoryLimitInMB:          512,
			Thresholds: HealthThresholdsConfig{
				HealthyResponseTimeInMs:  1000,
				DegradedResponseTimeInMs: 3000,
				HealthyErrorRate:         0.01,
				DegradedErrorRate:        0.05,
			},
		},
		API: APIConfig{
			ListenAddress: "127.0.0.1:8080",
		},
	}
}

func TestConfig(t *testing.T) {
	t.Parallel()

	cfg := Config{}

	err := toml.Unmarshal([]byte(testConfig), &cfg)
	assert.Nil(t, err)
	assert.Equal(t, expectedTestConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("missing file should error", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
	t.Run("invalid file should error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[Metrics\nMaxMetrics = "), 0600))

		cfg, err := LoadConfig(path)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "failed to decode config file")
	})
	t.Run("should load and fill in the defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(testConfig), 0600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		expected := expectedTestConfig()
		assert.Equal(t, expected.Alerts, cfg.Alerts)
		assert.Equal(t, expected.Health, cfg.Health)
		assert.Equal(t, CategoryThresholdConfig{Acceptable: 800, Tolerable: 2000}, cfg.Metrics.Thresholds["api_call"])
		// categories absent from the file get their defaults
		assert.Equal(t, CategoryThresholdConfig{Acceptable: 2500, Tolerable: 4000}, cfg.Metrics.Thresholds["page_load"])
		assert.Len(t, cfg.Metrics.Thresholds, 4)
	})
}

func TestLoadConfig_Ratios(t *testing.T) {
	t.Parallel()

	t.Run("zero rates should be kept", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		contents := `
[Metrics]
    WarningSuccessRate = 0.0
    ErrorSuccessRate = 0.0

[Health]
    [Health.Thresholds]
        HealthyErrorRate = 0.0
        DegradedErrorRate = 0.02
`
		require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, float64(0), cfg.Metrics.WarningSuccessRate)
		assert.Equal(t, float64(0), cfg.Metrics.ErrorSuccessRate)
		assert.Equal(t, float64(0), cfg.Health.Thresholds.HealthyErrorRate)
		assert.Equal(t, 0.02, cfg.Health.Thresholds.DegradedErrorRate)
		assert.Equal(t, float64(1000), cfg.Health.Thresholds.HealthyResponseTimeInMs)
	})
	t.Run("missing rates should get their defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[API]\n    ListenAddress = \"127.0.0.1:9090\"\n"), 0600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 0.98, cfg.Metrics.WarningSuccessRate)
		assert.Equal(t, 0.95, cfg.Metrics.ErrorSuccessRate)
		assert.Equal(t, 0.01, cfg.Health.Thresholds.HealthyErrorRate)
		assert.Equal(t, 0.05, cfg.Health.Thresholds.DegradedErrorRate)
		assert.Equal(t, "127.0.0.1:9090", cfg.API.ListenAddress)
		assert.Equal(t, 1000, cfg.Metrics.MaxMetrics)
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, 1000, cfg.Metrics.MaxMetrics)
	assert.Equal(t, 2000, cfg.Errors.MaxErrors)
	assert.Equal(t, 500, cfg.RUM.MaxSessions)
	assert.Equal(t, 30, cfg.RUM.BounceDurationInSeconds)
	assert.Equal(t, uint32(30), cfg.Health.CheckIntervalInSeconds)
	assert.Equal(t, 100, cfg.Health.HistorySize)
	assert.Equal(t, 24, cfg.Health.ErrorLogRetentionInHours)
	assert.Empty(t, cfg.Alerts.Rules)
}
