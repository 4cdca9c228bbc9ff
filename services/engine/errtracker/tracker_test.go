package errtracker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iulianpascalau/client-observability/services/engine/alerts"
	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/iulianpascalau/client-observability/services/engine/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	chromeUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	firefoxUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

var testStartTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func createTestTracker(t *testing.T, maxErrors int) (*errorTracker, *testsCommon.ClockStub) {
	tracker, err := NewErrorTracker(ArgsErrorTracker{
		MaxErrors:      maxErrors,
		AlertEvaluator: &testsCommon.AlertEvaluatorStub{},
	})
	require.NoError(t, err)

	clock := testsCommon.NewClockStub(testStartTime)
	tracker.nowFunc = clock.Now

	return tracker, clock
}

func TestNewErrorTracker(t *testing.T) {
	t.Parallel()

	t.Run("invalid max errors should error", func(t *testing.T) {
		tracker, err := NewErrorTracker(ArgsErrorTracker{AlertEvaluator: &testsCommon.AlertEvaluatorStub{}})

		assert.Nil(t, tracker)
		assert.Contains(t, err.Error(), "invalid max errors value")
	})
	t.Run("nil alert evaluator should error", func(t *testing.T) {
		tracker, err := NewErrorTracker(ArgsErrorTracker{MaxErrors: 10})

		assert.Nil(t, tracker)
		assert.True(t, tracker.IsInterfaceNil())
		assert.Equal(t, ErrNilAlertEvaluator, err)
	})
	t.Run("should work", func(t *testing.T) {
		tracker, err := NewErrorTracker(ArgsErrorTracker{
			MaxErrors:      10,
			AlertEvaluator: &testsCommon.AlertEvaluatorStub{},
		})

		assert.NotNil(t, tracker)
		assert.False(t, tracker.IsInterfaceNil())
		assert.Nil(t, err)
	})
}

func TestErrorTracker_RecordError(t *testing.T) {
	t.Parallel()

	t.Run("should build the record and apply defaults", func(t *testing.T) {
		tracker, _ := createTestTracker(t, 10)

		record, fired := tracker.RecordError("boom", common.ErrorOptions{
			Tags:    []string{"a", "a", "", "b"},
			Context: map[string]interface{}{"key": "value"},
		})

		assert.Empty(t, fired)
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, "boom", record.Message)
		assert.Equal(t, common.SourceJavaScript, record.Source)
		assert.Equal(t, common.SeverityMedium, record.Severity)
		assert.Equal(t, testStartTime, record.Timestamp)
		assert.Equal(t, []string{"a", "b"}, record.Tags)
		assert.Equal(t, ComputeFingerprint(common.SourceJavaScript, "boom", ""), record.Fingerprint)
		assert.False(t, record.Resolved)
		assert.Equal(t, 1, tracker.Len())
	})
	t.Run("unknown source and severity should fall back to the defaults", func(t *testing.T) {
		tracker, _ := createTestTracker(t, 10)

		record, _ := tracker.RecordError("boom", common.ErrorOptions{Source: "mainframe", Severity: "fatal"})

		assert.Equal(t, common.SourceJavaScript, record.Source)
		assert.Equal(t, common.SeverityMedium, record.Severity)
	})
	t.Run("alert evaluation should happen before returning", func(t *testing.T) {
		tracker, _ := createTestTracker(t, 10)

		var evaluatedRecords []common.ErrorRecord
		tracker.evaluator = &testsCommon.AlertEvaluatorStub{
			EvaluateHandler: func(newError common.ErrorRecord, records []common.ErrorRecord) []common.Alert {
				evaluatedRecords = records
				return []common.Alert{{RuleID: "rule", ErrorID: newError.ID}}
			},
		}

		tracker.RecordError("first", common.ErrorOptions{})
		record, fired := tracker.RecordError("second", common.ErrorOptions{})

		require.Len(t, fired, 1)
		assert.Equal(t, record.ID, fired[0].ErrorID)
		require.Len(t, evaluatedRecords, 2)
		assert.Equal(t, record.ID, evaluatedRecords[1].ID)
	})
	t.Run("buffer should evict the oldest errors", func(t *testing.T) {
		tracker, _ := createTestTracker(t, 3)

		for i := 0; i < 5; i++ {
			tracker.RecordError(fmt.Sprintf("error %d", i), common.ErrorOptions{})
		}

		records := tracker.Errors()
		require.Len(t, records, 3)
		assert.Equal(t, "error 2", records[0].Message)
		assert.Equal(t, "error 3", records[1].Message)
		assert.Equal(t, "error 4", records[2].Message)
	})
	t.Run("returned records should not alias the buffer", func(t *testing.T) {
		tracker, _ := createTestTracker(t, 10)

		record, _ := tracker.RecordError("boom", common.ErrorOptions{Tags: []string{"a"}})
		record.Tags[0] = "changed"

		stored, err := tracker.Error(record.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, stored.Tags)
	})
}

func TestErrorTracker_TypedRecorders(t *testing.T) {
	t.Parallel()

	tracker, _ := createTestTracker(t, 10)

	apiError, _ := tracker.RecordAPIError("gateway down", "/api/orders", "GET", 502)
	assert.Equal(t, common.SourceAPI, apiError.Source)
	assert.Equal(t, common.SeverityHigh, apiError.Severity)
	assert.Equal(t, []string{"api", "http_502"}, apiError.Tags)
	assert.Equal(t, "/api/orders", apiError.Context["endpoint"])

	clientError, _ := tracker.RecordAPIError("not found", "/api/orders/7", "GET", 404)
	assert.Equal(t, common.SeverityMedium, clientError.Severity)

	dbError, _ := tracker.RecordDatabaseError("deadlock", "update", "orders")
	assert.Equal(t, common.SourceDatabase, dbError.Source)
	assert.Equal(t, common.SeverityHigh, dbError.Severity)
	assert.Equal(t, []string{"database", "update"}, dbError.Tags)

	userError, _ := tracker.RecordUserActionError("invalid form", "checkout", map[string]interface{}{"step": 2})
	assert.Equal(t, common.SourceUserAction, userError.Source)
	assert.Equal(t, common.SeverityLow, userError.Severity)
	assert.Equal(t, "checkout", userError.Context["action"])
	assert.Equal(t, 2, userError.Context["step"])

	jsError, _ := tracker.RecordJavaScriptError("x is undefined", "at render", "https://app.local/home", chromeUserAgent)
	assert.Equal(t, common.SourceJavaScript, jsError.Source)
	assert.Equal(t, "at render", jsError.Stack)
	assert.Equal(t, "https://app.local/home", jsError.URL)

	assert.Equal(t, 5, tracker.Len())
}

func TestErrorTracker_ErrorGroups(t *testing.T) {
	t.Parallel()

	tracker, clock := createTestTracker(t, 10)

	stack := "Error: failed\n at a\n at b\n at c"
	first, _ := tracker.RecordError("failed", common.ErrorOptions{Stack: stack, Severity: common.SeverityLow})
	clock.Advance(time.Minute)
	tracker.RecordError("other", common.ErrorOptions{})
	clock.Advance(time.Minute)
	last, _ := tracker.RecordError("failed", common.ErrorOptions{Stack: stack, Severity: common.SeverityHigh})
	clock.Advance(time.Minute)
	tracker.RecordError("failed", common.ErrorOptions{Stack: "Error: failed\n at z", Severity: common.SeverityLow})

	groups := tracker.ErrorGroups()
	require.Len(t, groups, 3)

	assert.Equal(t, first.Fingerprint, groups[0].Fingerprint)
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, testStartTime, groups[0].FirstSeen)
	assert.Equal(t, testStartTime.Add(2*time.Minute), groups[0].LastSeen)
	assert.Equal(t, common.SeverityHigh, groups[0].Severity)
	assert.Equal(t, []string{first.ID, last.ID}, groups[0].ErrorIDs)
	assert.False(t, groups[0].Resolved)

	assert.Equal(t, 1, groups[1].Count)
	assert.Equal(t, 1, groups[2].Count)
	assert.NotEqual(t, groups[0].Fingerprint, groups[2].Fingerprint)
}

func TestErrorTracker_Resolution(t *testing.T) {
	t.Parallel()

	t.Run("resolve error", func(t *testing.T) {
		tracker, clock := createTestTracker(t, 10)

		record, _ := tracker.RecordError("boom", common.ErrorOptions{})
		err := tracker.ResolveError("missing", "alice")
		assert.True(t, errors.Is(err, ErrErrorNotFound))

		clock.Advance(time.Hour)
		err = tracker.ResolveError(record.ID, "alice")
		require.NoError(t, err)

		clock.Advance(time.Hour)
		err = tracker.ResolveError(record.ID, "bob")
		require.NoError(t, err)

		stored, _ := tracker.Error(record.ID)
		assert.True(t, stored.Resolved)
		assert.Equal(t, "alice", stored.ResolvedBy)
		require.NotNil(t, stored.ResolvedAt)
		assert.Equal(t, testStartTime.Add(time.Hour), *stored.ResolvedAt)
		assert.Equal(t, 1, tracker.Len())
	})
	t.Run("group is resolved only when all its records are", func(t *testing.T) {
		tracker, _ := createTestTracker(t, 10)

		first, _ := tracker.RecordError("boom", common.ErrorOptions{})
		tracker.RecordError("boom", common.ErrorOptions{})

		_ = tracker.ResolveError(first.ID, "alice")
		groups := tracker.ErrorGroups()
		require.Len(t, groups, 1)
		assert.False(t, groups[0].Resolved)

		numResolved, err := tracker.ResolveErrorGroup(first.Fingerprint, "bob")
		require.NoError(t, err)
		assert.Equal(t, 1, numResolved)

		groups = tracker.ErrorGroups()
		assert.True(t, groups[0].Resolved)
		assert.Equal(t, 2, tracker.Len())

		_, err = tracker.ResolveErrorGroup("missing", "bob")
		assert.True(t, errors.Is(err, ErrGroupNotFound))
	})
}

func TestErrorTracker_Tags(t *testing.T) {
	t.Parallel()

	tracker, _ := createTestTracker(t, 10)
	record, _ := tracker.RecordError("boom", common.ErrorOptions{Tags: []string{"a"}})

	assert.Equal(t, ErrEmptyTag, tracker.AddTag(record.ID, ""))
	assert.True(t, errors.Is(tracker.AddTag("missing", "b"), ErrErrorNotFound))
	assert.True(t, errors.Is(tracker.RemoveTag("missing", "b"), ErrErrorNotFound))

	require.NoError(t, tracker.AddTag(record.ID, "b"))
	require.NoError(t, tracker.AddTag(record.ID, "b"))
	stored, _ := tracker.Error(record.ID)
	assert.Equal(t, []string{"a", "b"}, stored.Tags)

	require.NoError(t, tracker.RemoveTag(record.ID, "a"))
	require.NoError(t, tracker.RemoveTag(record.ID, "not present"))
	stored, _ = tracker.Error(record.ID)
	assert.Equal(t, []string{"b"}, stored.Tags)
}

func TestErrorTracker_Statistics(t *testing.T) {
	t.Parallel()

	tracker, clock := createTestTracker(t, 20)

	tracker.RecordError("old", common.ErrorOptions{Source: common.SourceAPI, Severity: common.SeverityLow})
	clock.Advance(2 * time.Hour)
	resolved, _ := tracker.RecordError("boom", common.ErrorOptions{UserAgent: chromeUserAgent})
	tracker.RecordError("boom", common.ErrorOptions{UserAgent: chromeUserAgent})
	tracker.RecordError("boom", common.ErrorOptions{UserAgent: firefoxUserAgent, Severity: common.SeverityCritical})
	_ = tracker.ResolveError(resolved.ID, "alice")

	stats := tracker.Statistics()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 3, stats.Unresolved)
	assert.Equal(t, 3, stats.LastHour)
	assert.Equal(t, 1, stats.BySource[common.SourceAPI])
	assert.Equal(t, 3, stats.BySource[common.SourceJavaScript])
	assert.Equal(t, 1, stats.BySeverity[common.SeverityCritical])
	assert.Equal(t, 2, stats.BySeverity[common.SeverityMedium])
	assert.Equal(t, 2, stats.ByBrowser["Chrome"])
	assert.Equal(t, 1, stats.ByBrowser["Firefox"])
	assert.Equal(t, 1, stats.ByBrowser[unknownBrowser])
	assert.Equal(t, 2, stats.NumGroups)
	assert.Equal(t, 2, stats.NumUnresolvedGroups)
	require.Len(t, stats.TopGroups, 2)
	assert.Equal(t, "boom", stats.TopGroups[0].Message)
	assert.Equal(t, 3, stats.TopGroups[0].Count)
}

func TestErrorTracker_ExportErrors(t *testing.T) {
	t.Parallel()

	tracker, clock := createTestTracker(t, 20)
	tracker.evaluator = &testsCommon.AlertEvaluatorStub{
		AlertsHandler: func() []common.Alert {
			return []common.Alert{{ID: "alert"}}
		},
	}

	tracker.RecordError("api", common.ErrorOptions{Source: common.SourceAPI, Severity: common.SeverityHigh})
	clock.Advance(time.Minute)
	db, _ := tracker.RecordError("db", common.ErrorOptions{Source: common.SourceDatabase, Severity: common.SeverityHigh})
	clock.Advance(time.Minute)
	tracker.RecordError("js", common.ErrorOptions{Source: common.SourceJavaScript, Severity: common.SeverityLow})
	_ = tracker.ResolveError(db.ID, "alice")

	t.Run("empty filter should export everything", func(t *testing.T) {
		export := tracker.ExportErrors(common.ErrorsFilter{})

		assert.Len(t, export.Errors, 3)
		assert.Len(t, export.Groups, 3)
		assert.Equal(t, tracker.Statistics(), export.Statistics)
		assert.Equal(t, []common.Alert{{ID: "alert"}}, export.Alerts)
		assert.Equal(t, testStartTime.Add(2*time.Minute), export.ExportedAt)
	})
	t.Run("filters should combine", func(t *testing.T) {
		from := testStartTime.Add(time.Minute)
		unresolved := false

		export := tracker.ExportErrors(common.ErrorsFilter{
			TimeRange: common.TimeRange{From: &from},
			Resolved:  &unresolved,
		})
		require.Len(t, export.Errors, 1)
		assert.Equal(t, "js", export.Errors[0].Message)

		export = tracker.ExportErrors(common.ErrorsFilter{Severity: common.SeverityHigh})
		assert.Len(t, export.Errors, 2)
		assert.Equal(t, 2, export.Statistics.Total)

		export = tracker.ExportErrors(common.ErrorsFilter{Source: common.SourceDatabase})
		require.Len(t, export.Errors, 1)
		assert.True(t, export.Errors[0].Resolved)
	})
}

func TestErrorTracker_WithAlertEvaluator(t *testing.T) {
	t.Parallel()

	notifierStub := &testsCommon.NotifierStub{}
	evaluator, err := alerts.NewAlertEvaluator(alerts.ArgsAlertEvaluator{
		Rules:      alerts.DefaultAlertRules(),
		Notifier:   notifierStub,
		MaxHistory: 100,
	})
	require.NoError(t, err)

	tracker, err := NewErrorTracker(ArgsErrorTracker{
		MaxErrors:      100,
		AlertEvaluator: evaluator,
	})
	require.NoError(t, err)

	_, fired := tracker.RecordError("low", common.ErrorOptions{Severity: common.SeverityLow})
	assert.Empty(t, fired)

	record, fired := tracker.RecordError("payment down", common.ErrorOptions{Severity: common.SeverityCritical})
	require.Len(t, fired, 1)
	assert.Equal(t, "critical-errors", fired[0].RuleID)
	assert.Equal(t, record.ID, fired[0].ErrorID)

	// the notification already happened when RecordError returned
	require.Len(t, notifierStub.Notified(), 1)
	assert.Equal(t, fired[0].ID, notifierStub.Notified()[0].ID)
	assert.Len(t, tracker.Alerts(), 1)

	// cooldown of the critical rule
	_, fired = tracker.RecordError("payment still down", common.ErrorOptions{Severity: common.SeverityCritical})
	assert.Empty(t, fired)
}

func TestErrorTracker_Reset(t *testing.T) {
	t.Parallel()

	tracker, _ := createTestTracker(t, 10)
	tracker.RecordError("boom", common.ErrorOptions{})
	tracker.Reset()

	assert.Equal(t, 0, tracker.Len())
	assert.Empty(t, tracker.ErrorGroups())
}
