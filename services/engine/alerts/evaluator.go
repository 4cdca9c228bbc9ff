package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("alerts")

// ArgsAlertEvaluator defines the alert evaluator arguments
type ArgsAlertEvaluator struct {
	Rules      []common.AlertRule
	Notifier   Notifier
	MaxHistory int
}

type firedAlert struct {
	alert    common.Alert
	channels common.AlertChannels
}

// alertEvaluator checks the configured rules against the error buffer every time a new error is recorded
type alertEvaluator struct {
	mut        sync.Mutex
	rules      []common.AlertRule
	notifier   Notifier
	history    []common.Alert
	maxHistory int
	nowFunc    func() time.Time
}

// NewAlertEvaluator creates a new alert evaluator
func NewAlertEvaluator(args ArgsAlertEvaluator) (*alertEvaluator, error) {
	if check.IfNil(args.Notifier) {
		return nil, ErrNilNotifier
	}
	if args.MaxHistory <= 0 {
		return nil, fmt.Errorf("invalid max history value: %d", args.MaxHistory)
	}

	rules := make([]common.AlertRule, 0, len(args.Rules))
	for _, rule := range args.Rules {
		err := checkRule(&rule)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return &alertEvaluator{
		rules:      rules,
		notifier:   args.Notifier,
		history:    make([]common.Alert, 0, args.MaxHistory),
		maxHistory: args.MaxHistory,
		nowFunc:    time.Now,
	}, nil
}

// AddAlertRule adds a rule, replacing an existing rule with the same ID. The stored rule is returned.
func (ae *alertEvaluator) AddAlertRule(rule common.AlertRule) (common.AlertRule, error) {
	err := checkRule(&rule)
	if err != nil {
		return common.AlertRule{}, err
	}

	ae.mut.Lock()
	defer ae.mut.Unlock()

	for i := range ae.rules {
		if ae.rules[i].ID == rule.ID {
			ae.rules[i] = rule
			return rule, nil
		}
	}
	ae.rules = append(ae.rules, rule)

	return rule, nil
}

// RemoveAlertRule removes the rule with the provided ID, returning false if it did not exist
func (ae *alertEvaluator) RemoveAlertRule(id string) bool {
	ae.mut.Lock()
	defer ae.mut.Unlock()

	for i := range ae.rules {
		if ae.rules[i].ID == id {
			ae.rules = append(ae.rules[:i], ae.rules[i+1:]...)
			return true
		}
	}

	return false
}

// Rules returns a copy of the configured rules
func (ae *alertEvaluator) Rules() []common.AlertRule {
	ae.mut.Lock()
	defer ae.mut.Unlock()

	result := make([]common.AlertRule, 0, len(ae.rules))
	for _, rule := range ae.rules {
		if rule.LastTriggered != nil {
			lastTriggered := *rule.LastTriggered
			rule.LastTriggered = &lastTriggered
		}
		result = append(result, rule)
	}

	return result
}

// Alerts returns a copy of the fired alerts history, oldest first
func (ae *alertEvaluator) Alerts() []common.Alert {
	ae.mut.Lock()
	defer ae.mut.Unlock()

	result := make([]common.Alert, len(ae.history))
	copy(result, ae.history)

	return result
}

// Evaluate checks every enabled rule against the new error and the current error buffer (which already contains
// the new error). Fired alerts are delivered to the notifier before returning.
func (ae *alertEvaluator) Evaluate(newError common.ErrorRecord, records []common.ErrorRecord) []common.Alert {
	fired := ae.evaluateRules(newError, records)

	result := make([]common.Alert, 0, len(fired))
	for _, f := range fired {
		result = append(result, f.alert)

		err := ae.notifier.Notify(f.alert, f.channels)
		if err != nil {
			log.Warn("failed to deliver alert", "rule", f.alert.RuleName, "alert", f.alert.ID, "error", err)
		}
	}

	return result
}

func (ae *alertEvaluator) evaluateRules(newError common.ErrorRecord, records []common.ErrorRecord) []firedAlert {
	ae.mut.Lock()
	defer ae.mut.Unlock()

	now := ae.nowFunc()
	var fired []firedAlert
	for i := range ae.rules {
		rule := &ae.rules[i]
		if !rule.Enabled {
			continue
		}
		if len(rule.Condition.Source) > 0 && rule.Condition.Source != newError.Source {
			continue
		}

		message, triggered := checkCondition(rule.Condition, newError, records, now)
		if !triggered {
			continue
		}

		cooldown := time.Duration(rule.CooldownPeriod) * time.Minute
		if rule.LastTriggered != nil && now.Sub(*rule.LastTriggered) < cooldown {
			log.Debug("alert suppressed by cooldown", "rule", rule.Name, "last triggered", *rule.LastTriggered)
			continue
		}

		triggeredAt := now
		rule.LastTriggered = &triggeredAt

		severity := rule.Condition.Severity
		if !severity.IsValid() {
			severity = newError.Severity
		}
		alert := common.Alert{
			ID:          uuid.NewString(),
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			Severity:    severity,
			Message:     message,
			ErrorID:     newError.ID,
			Fingerprint: newError.Fingerprint,
			TriggeredAt: now,
		}

		ae.history = append(ae.history, alert)
		if len(ae.history) > ae.maxHistory {
			ae.history = ae.history[len(ae.history)-ae.maxHistory:]
		}

		log.Info("alert fired", "rule", rule.Name, "severity", severity, "message", message)

		fired = append(fired, firedAlert{
			alert:    alert,
			channels: rule.Channels,
		})
	}

	return fired
}

func checkCondition(
	condition common.AlertCondition,
	newError common.ErrorRecord,
	records []common.ErrorRecord,
	now time.Time,
) (string, bool) {
	switch condition.Type {
	case common.ConditionNewError:
		return fmt.Sprintf("new %s error: %s", newError.Source, newError.Message), true
	case common.ConditionSeverity:
		return fmt.Sprintf("%s severity error: %s", newError.Severity, newError.Message),
			condition.Severity == newError.Severity
	case common.ConditionErrorRate:
		windowMinutes := windowInMinutes(condition)
		count := countInWindow(records, condition.Source, now, windowMinutes)
		rate := float64(count) / float64(windowMinutes)
		return fmt.Sprintf("error rate %.2f/min over the last %d minutes exceeds %.2f", rate, windowMinutes, condition.Threshold),
			rate > condition.Threshold
	case common.ConditionErrorCount:
		windowMinutes := windowInMinutes(condition)
		count := countInWindow(records, condition.Source, now, windowMinutes)
		return fmt.Sprintf("%d errors over the last %d minutes exceed %.0f", count, windowMinutes, condition.Threshold),
			float64(count) > condition.Threshold
	default:
		return "", false
	}
}

// windowInMinutes returns the condition window, at least one minute
func windowInMinutes(condition common.AlertCondition) int {
	if condition.TimeWindow < 1 {
		return 1
	}

	return condition.TimeWindow
}

func countInWindow(records []common.ErrorRecord, source common.ErrorSource, now time.Time, windowMinutes int) int {
	windowStart := now.Add(-time.Duration(windowMinutes) * time.Minute)

	count := 0
	for _, record := range records {
		if record.Timestamp.Before(windowStart) {
			continue
		}
		if len(source) > 0 && record.Source != source {
			continue
		}
		count++
	}

	return count
}

// Reset clears the alerts history and the last triggered marks of all rules
func (ae *alertEvaluator) Reset() {
	ae.mut.Lock()
	defer ae.mut.Unlock()

	ae.history = make([]common.Alert, 0, ae.maxHistory)
	for i := range ae.rules {
		ae.rules[i].LastTriggered = nil
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (ae *alertEvaluator) IsInterfaceNil() bool {
	return ae == nil
}
