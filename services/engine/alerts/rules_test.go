package alerts

import (
	"errors"
	"testing"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/iulianpascalau/client-observability/services/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAlertRules(t *testing.T) {
	t.Parallel()

	rules := DefaultAlertRules()
	require.Len(t, rules, 3)
	for _, rule := range rules {
		r := rule
		assert.Nil(t, checkRule(&r))
		assert.True(t, r.Enabled)
	}
}

func TestRulesFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("should convert", func(t *testing.T) {
		rules, err := RulesFromConfig([]config.AlertRuleConfig{
			{
				ID:                  "db-errors",
				Name:                "Database errors",
				Type:                "error_count",
				Threshold:           3,
				TimeWindowInMinutes: 10,
				Source:              "database",
				Enabled:             true,
				CooldownInMinutes:   20,
				WebhookURL:          "http://hooks.local/alert",
				Emails:              []string{"dba@example.com"},
			},
			{
				Name:     "Everything critical",
				Type:     "severity",
				Severity: "critical",
				Enabled:  true,
			},
		})
		require.NoError(t, err)
		require.Len(t, rules, 2)

		assert.Equal(t, common.AlertRule{
			ID:   "db-errors",
			Name: "Database errors",
			Condition: common.AlertCondition{
				Type:       common.ConditionErrorCount,
				Threshold:  3,
				TimeWindow: 10,
				Source:     common.SourceDatabase,
			},
			Enabled:        true,
			CooldownPeriod: 20,
			Channels: common.AlertChannels{
				WebhookURL: "http://hooks.local/alert",
				Emails:     []string{"dba@example.com"},
			},
		}, rules[0])
		assert.NotEmpty(t, rules[1].ID)
		assert.Equal(t, common.SeverityCritical, rules[1].Condition.Severity)
	})
	t.Run("invalid rules should error", func(t *testing.T) {
		testData := []config.AlertRuleConfig{
			{Name: "unknown type", Type: "latency"},
			{Name: "severity without value", Type: "severity"},
			{Name: "negative threshold", Type: "error_rate", Threshold: -1},
			{Name: "unknown source", Type: "new_error", Source: "mainframe"},
			{Name: "negative cooldown", Type: "new_error", CooldownInMinutes: -1},
		}

		for _, cfgRule := range testData {
			rules, err := RulesFromConfig([]config.AlertRuleConfig{cfgRule})
			assert.Nil(t, rules, cfgRule.Name)
			assert.True(t, errors.Is(err, ErrInvalidRule), cfgRule.Name)
		}
	})
}
