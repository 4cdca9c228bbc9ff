package common

import "time"

// AlertConditionType selects how an AlertRule is evaluated
type AlertConditionType string

const (
	ConditionErrorRate  AlertConditionType = "error_rate"
	ConditionErrorCount AlertConditionType = "error_count"
	ConditionNewError   AlertConditionType = "new_error"
	ConditionSeverity   AlertConditionType = "severity"
)

// AlertCondition is the triggering part of an AlertRule. TimeWindow is expressed in minutes.
type AlertCondition struct {
	Type       AlertConditionType `json:"type"`
	Threshold  float64            `json:"threshold"`
	TimeWindow int                `json:"timeWindow"`
	Severity   ErrorSeverity      `json:"severity,omitempty"`
	Source     ErrorSource        `json:"source,omitempty"`
}

// AlertChannels are the outbound destinations of a rule
type AlertChannels struct {
	WebhookURL string   `json:"webhookUrl,omitempty"`
	Emails     []string `json:"emails,omitempty"`
}

// AlertRule is a configurable alert condition. CooldownPeriod is expressed in minutes.
type AlertRule struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Condition      AlertCondition `json:"condition"`
	Enabled        bool           `json:"enabled"`
	CooldownPeriod int            `json:"cooldownPeriod"`
	LastTriggered  *time.Time     `json:"lastTriggered,omitempty"`
	Channels       AlertChannels  `json:"channels"`
}

// Alert is a fired rule
type Alert struct {
	ID          string        `json:"id"`
	RuleID      string        `json:"ruleId"`
	RuleName    string        `json:"ruleName"`
	Severity    ErrorSeverity `json:"severity"`
	Message     string        `json:"message"`
	ErrorID     string        `json:"errorId"`
	Fingerprint string        `json:"fingerprint"`
	TriggeredAt time.Time     `json:"triggeredAt"`
}
