package alerts

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/iulianpascalau/client-observability/services/engine/config"
)

// DefaultAlertRules returns the rules used when the configuration does not declare any
func DefaultAlertRules() []common.AlertRule {
	return []common.AlertRule{
		{
			ID:   "critical-errors",
			Name: "Critical errors",
			Condition: common.AlertCondition{
				Type:     common.ConditionSeverity,
				Severity: common.SeverityCritical,
			},
			Enabled:        true,
			CooldownPeriod: 5,
		},
		{
			ID:   "high-error-rate",
			Name: "High error rate",
			Condition: common.AlertCondition{
				Type:       common.ConditionErrorRate,
				Threshold:  10,
				TimeWindow: 5,
			},
			Enabled:        true,
			CooldownPeriod: 15,
		},
		{
			ID:   "error-burst",
			Name: "Error burst",
			Condition: common.AlertCondition{
				Type:       common.ConditionErrorCount,
				Threshold:  50,
				TimeWindow: 60,
			},
			Enabled:        true,
			CooldownPeriod: 30,
		},
	}
}

// RulesFromConfig converts and validates the configured rules
func RulesFromConfig(cfgRules []config.AlertRuleConfig) ([]common.AlertRule, error) {
	rules := make([]common.AlertRule, 0, len(cfgRules))
	for _, cfgRule := range cfgRules {
		rule := common.AlertRule{
			ID:   cfgRule.ID,
			Name: cfgRule.Name,
			Condition: common.AlertCondition{
				Type:       common.AlertConditionType(cfgRule.Type),
				Threshold:  cfgRule.Threshold,
				TimeWindow: cfgRule.TimeWindowInMinutes,
				Severity:   common.ErrorSeverity(cfgRule.Severity),
				Source:     common.ErrorSource(cfgRule.Source),
			},
			Enabled:        cfgRule.Enabled,
			CooldownPeriod: cfgRule.CooldownInMinutes,
			Channels: common.AlertChannels{
				WebhookURL: cfgRule.WebhookURL,
				Emails:     cfgRule.Emails,
			},
		}

		err := checkRule(&rule)
		if err != nil {
			return nil, err
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

// checkRule validates the rule and assigns an ID when missing
func checkRule(rule *common.AlertRule) error {
	switch rule.Condition.Type {
	case common.ConditionNewError:
	case common.ConditionSeverity:
		if !rule.Condition.Severity.IsValid() {
			return fmt.Errorf("%w: rule %q requires a valid severity, got %q", ErrInvalidRule, rule.Name, rule.Condition.Severity)
		}
	case common.ConditionErrorRate, common.ConditionErrorCount:
		if rule.Condition.Threshold < 0 {
			return fmt.Errorf("%w: rule %q has a negative threshold", ErrInvalidRule, rule.Name)
		}
	default:
		return fmt.Errorf("%w: rule %q has an unknown condition type %q", ErrInvalidRule, rule.Name, rule.Condition.Type)
	}

	if len(rule.Condition.Source) > 0 && !rule.Condition.Source.IsValid() {
		return fmt.Errorf("%w: rule %q has an unknown source %q", ErrInvalidRule, rule.Name, rule.Condition.Source)
	}
	if rule.CooldownPeriod < 0 {
		return fmt.Errorf("%w: rule %q has a negative cooldown period", ErrInvalidRule, rule.Name)
	}
	if len(rule.ID) == 0 {
		rule.ID = uuid.NewString()
	}

	return nil
}
