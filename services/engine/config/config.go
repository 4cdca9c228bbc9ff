package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// CategoryThresholdConfig holds the average duration bounds, in milliseconds, of a metric category
type CategoryThresholdConfig struct {
	Acceptable float64 `toml:"Acceptable"`
	Tolerable  float64 `toml:"Tolerable"`
}

// MetricsConfig configures the metric store and the statistics engine
type MetricsConfig struct {
	MaxMetrics         int                                `toml:"MaxMetrics"`
	WarningSuccessRate float64                            `toml:"WarningSuccessRate"`
	ErrorSuccessRate   float64                            `toml:"ErrorSuccessRate"`
	Thresholds         map[string]CategoryThresholdConfig `toml:"Thresholds"`
}

// ErrorsConfig configures the error tracker
type ErrorsConfig struct {
	MaxErrors       int `toml:"MaxErrors"`
	MaxAlertHistory int `toml:"MaxAlertHistory"`
}

// AlertRuleConfig defines a single alert rule
type AlertRuleConfig struct {
	ID                  string   `toml:"ID"`
	Name                string   `toml:"Name"`
	Type                string   `toml:"Type"`
	Threshold           float64  `toml:"Threshold"`
	TimeWindowInMinutes int      `toml:"TimeWindowInMinutes"`
	Severity            string   `toml:"Severity"`
	Source              string   `toml:"Source"`
	Enabled             bool     `toml:"Enabled"`
	CooldownInMinutes   int      `toml:"CooldownInMinutes"`
	WebhookURL          string   `toml:"WebhookURL"`
	Emails              []string `toml:"Emails"`
}

// AlertsConfig configures the alert evaluator and its notifiers
type AlertsConfig struct {
	WebhookTimeoutInSeconds uint32            `toml:"WebhookTimeoutInSeconds"`
	Rules                   []AlertRuleConfig `toml:"Rules"`
}

// RUMConfig configures the session tracker
type RUMConfig struct {
	MaxSessions             int `toml:"MaxSessions"`
	BounceDurationInSeconds int `toml:"BounceDurationInSeconds"`
}

// HealthThresholdsConfig holds the component classification bounds
type HealthThresholdsConfig struct {
	HealthyResponseTimeInMs  float64 `toml:"HealthyResponseTimeInMs"`
	DegradedResponseTimeInMs float64 `toml:"DegradedResponseTimeInMs"`
	HealthyErrorRate         float64 `toml:"HealthyErrorRate"`
	DegradedErrorRate        float64 `toml:"DegradedErrorRate"`
}

// HealthConfig configures the health aggregator
type HealthConfig struct {
	CheckIntervalInSeconds   uint32                 `toml:"CheckIntervalInSeconds"`
	ProbeTimeoutInSeconds    uint32                 `toml:"ProbeTimeoutInSeconds"`
	HistorySize              int                    `toml:"HistorySize"`
	ErrorLogRetentionInHours int                    `toml:"ErrorLogRetentionInHours"`
	APIBaseURL               string                 `toml:"APIBaseURL"`
	DataLayerPath            string                 `toml:"DataLayerPath"`
	MemoryLimitInMB          uint64                 `toml:"MemoryLimitInMB"`
	Thresholds               HealthThresholdsConfig `toml:"Thresholds"`
}

// APIConfig configures the HTTP surface
type APIConfig struct {
	ListenAddress string `toml:"ListenAddress"`
}

// Config maps to the config.toml file of the observability engine
type Config struct {
	Metrics MetricsConfig `toml:"Metrics"`
	Errors  ErrorsConfig  `toml:"Errors"`
	Alerts  AlertsConfig  `toml:"Alerts"`
	RUM     RUMConfig     `toml:"RUM"`
	Health  HealthConfig  `toml:"Health"`
	API     APIConfig     `toml:"API"`
}

// LoadConfig parses a TOML file over the default config. Keys absent from the file keep their default values.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	cfg := DefaultConfig()
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// DefaultConfig returns a config with all values set to their defaults
func DefaultConfig() Config {
	cfg := Config{
		Metrics: MetricsConfig{
			WarningSuccessRate: 0.98,
			ErrorSuccessRate:   0.95,
		},
		Health: HealthConfig{
			Thresholds: HealthThresholdsConfig{
				HealthyErrorRate:  0.01,
				DegradedErrorRate: 0.05,
			},
		},
	}
	cfg.ApplyDefaults()

	return cfg
}

// ApplyDefaults replaces the unset sizes, intervals and response time bounds with their defaults.
// Success and error rates are left untouched since 0 is a valid value for them.
func (cfg *Config) ApplyDefaults() {
	setIntDefault(&cfg.Metrics.MaxMetrics, 1000)
	if cfg.Metrics.Thresholds == nil {
		cfg.Metrics.Thresholds = make(map[string]CategoryThresholdConfig)
	}
	for category, threshold := range defaultCategoryThresholds() {
		if _, found := cfg.Metrics.Thresholds[category]; !found {
			cfg.Metrics.Thresholds[category] = threshold
		}
	}

	setIntDefault(&cfg.Errors.MaxErrors, 2000)
	setIntDefault(&cfg.Errors.MaxAlertHistory, 100)

	if cfg.Alerts.WebhookTimeoutInSeconds == 0 {
		cfg.Alerts.WebhookTimeoutInSeconds = 10
	}

	setIntDefault(&cfg.RUM.MaxSessions, 500)
	setIntDefault(&cfg.RUM.BounceDurationInSeconds, 30)

	if cfg.Health.CheckIntervalInSeconds == 0 {
		cfg.Health.CheckIntervalInSeconds = 30
	}
	if cfg.Health.ProbeTimeoutInSeconds == 0 {
		cfg.Health.ProbeTimeoutInSeconds = 5
	}
	setIntDefault(&cfg.Health.HistorySize, 100)
	setIntDefault(&cfg.Health.ErrorLogRetentionInHours, 24)
	setFloatDefault(&cfg.Health.Thresholds.HealthyResponseTimeInMs, 1000)
	setFloatDefault(&cfg.Health.Thresholds.DegradedResponseTimeInMs, 3000)
}

func defaultCategoryThresholds() map[string]CategoryThresholdConfig {
	return map[string]CategoryThresholdConfig{
		"api_call":         {Acceptable: 1000, Tolerable: 3000},
		"user_interaction": {Acceptable: 100, Tolerable: 300},
		"page_load":        {Acceptable: 2500, Tolerable: 4000},
		"database_query":   {Acceptable: 500, Tolerable: 1500},
	}
}

func setIntDefault(value *int, def int) {
	if *value <= 0 {
		*value = def
	}
}

func setFloatDefault(value *float64, def float64) {
	if *value <= 0 {
		*value = def
	}
}
