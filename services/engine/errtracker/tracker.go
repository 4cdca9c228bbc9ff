package errtracker

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/mssola/user_agent"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("errtracker")

const (
	numTopGroups   = 10
	unknownBrowser = "unknown"
)

// ArgsErrorTracker defines the error tracker arguments
type ArgsErrorTracker struct {
	MaxErrors      int
	AlertEvaluator AlertEvaluator
}

// errorTracker keeps a bounded buffer of error records and derives the error groups out of it
type errorTracker struct {
	mut       sync.RWMutex
	maxErrors int
	records   []common.ErrorRecord
	evaluator AlertEvaluator
	nowFunc   func() time.Time
}

// NewErrorTracker creates a new error tracker
func NewErrorTracker(args ArgsErrorTracker) (*errorTracker, error) {
	if args.MaxErrors <= 0 {
		return nil, fmt.Errorf("invalid max errors value: %d", args.MaxErrors)
	}
	if check.IfNil(args.AlertEvaluator) {
		return nil, ErrNilAlertEvaluator
	}

	return &errorTracker{
		maxErrors: args.MaxErrors,
		records:   make([]common.ErrorRecord, 0, args.MaxErrors),
		evaluator: args.AlertEvaluator,
		nowFunc:   time.Now,
	}, nil
}

// RecordError stores a new error and evaluates the alert rules against it. The alerts fired by this call,
// already handed to the notifier, are returned along with the stored record.
func (et *errorTracker) RecordError(message string, opts common.ErrorOptions) (common.ErrorRecord, []common.Alert) {
	record := et.buildRecord(message, opts)

	et.mut.Lock()
	et.records = append(et.records, record)
	if len(et.records) > et.maxErrors {
		et.records = et.records[len(et.records)-et.maxErrors:]
	}
	snapshot := make([]common.ErrorRecord, len(et.records))
	copy(snapshot, et.records)
	et.mut.Unlock()

	log.Debug("error recorded", "id", record.ID, "source", record.Source, "severity", record.Severity,
		"fingerprint", record.Fingerprint)

	fired := et.evaluator.Evaluate(record, snapshot)

	return copyRecord(record), fired
}

func (et *errorTracker) buildRecord(message string, opts common.ErrorOptions) common.ErrorRecord {
	source := opts.Source
	if !source.IsValid() {
		if len(source) > 0 {
			log.Warn("unknown error source, using default", "source", source, "default", common.SourceJavaScript)
		}
		source = common.SourceJavaScript
	}
	severity := opts.Severity
	if !severity.IsValid() {
		if len(severity) > 0 {
			log.Warn("unknown error severity, using default", "severity", severity, "default", common.SeverityMedium)
		}
		severity = common.SeverityMedium
	}

	tags := make([]string, 0, len(opts.Tags))
	for _, tag := range opts.Tags {
		tags = appendUniqueTag(tags, tag)
	}

	return common.ErrorRecord{
		ID:          uuid.NewString(),
		Message:     message,
		Stack:       opts.Stack,
		Source:      source,
		Severity:    severity,
		Timestamp:   et.nowFunc(),
		URL:         opts.URL,
		UserAgent:   opts.UserAgent,
		Context:     copyContext(opts.Context),
		Tags:        tags,
		Fingerprint: ComputeFingerprint(source, message, opts.Stack),
	}
}

// RecordAPIError records a failed remote call. Server side failures are high severity errors.
func (et *errorTracker) RecordAPIError(message string, endpoint string, method string, statusCode int) (common.ErrorRecord, []common.Alert) {
	severity := common.SeverityMedium
	if statusCode >= 500 || statusCode == 0 {
		severity = common.SeverityHigh
	}

	return et.RecordError(message, common.ErrorOptions{
		Source:   common.SourceAPI,
		Severity: severity,
		Context: map[string]interface{}{
			"endpoint":   endpoint,
			"method":     method,
			"statusCode": statusCode,
		},
		Tags: []string{"api", fmt.Sprintf("http_%d", statusCode)},
	})
}

// RecordDatabaseError records a failed data layer operation
func (et *errorTracker) RecordDatabaseError(message string, operation string, table string) (common.ErrorRecord, []common.Alert) {
	return et.RecordError(message, common.ErrorOptions{
		Source:   common.SourceDatabase,
		Severity: common.SeverityHigh,
		Context: map[string]interface{}{
			"operation": operation,
			"table":     table,
		},
		Tags: []string{"database", operation},
	})
}

// RecordUserActionError records a failure caused by a user action
func (et *errorTracker) RecordUserActionError(message string, action string, context map[string]interface{}) (common.ErrorRecord, []common.Alert) {
	actionContext := copyContext(context)
	if actionContext == nil {
		actionContext = make(map[string]interface{})
	}
	actionContext["action"] = action

	return et.RecordError(message, common.ErrorOptions{
		Source:   common.SourceUserAction,
		Severity: common.SeverityLow,
		Context:  actionContext,
		Tags:     []string{"user_action", action},
	})
}

// RecordJavaScriptError records an uncaught client side exception
func (et *errorTracker) RecordJavaScriptError(message string, stack string, url string, userAgent string) (common.ErrorRecord, []common.Alert) {
	return et.RecordError(message, common.ErrorOptions{
		Stack:     stack,
		Source:    common.SourceJavaScript,
		Severity:  common.SeverityHigh,
		URL:       url,
		UserAgent: userAgent,
		Tags:      []string{"javascript", "uncaught"},
	})
}

// ResolveError marks the error as resolved. Resolving an already resolved error keeps the first resolution.
func (et *errorTracker) ResolveError(id string, resolvedBy string) error {
	et.mut.Lock()
	defer et.mut.Unlock()

	record := et.findUnprotected(id)
	if record == nil {
		return fmt.Errorf("%w: %s", ErrErrorNotFound, id)
	}

	et.resolveUnprotected(record, resolvedBy, et.nowFunc())

	return nil
}

// ResolveErrorGroup marks every record of the group as resolved and returns how many were newly resolved
func (et *errorTracker) ResolveErrorGroup(fingerprint string, resolvedBy string) (int, error) {
	et.mut.Lock()
	defer et.mut.Unlock()

	now := et.nowFunc()
	found := false
	numResolved := 0
	for i := range et.records {
		if et.records[i].Fingerprint != fingerprint {
			continue
		}

		found = true
		if et.resolveUnprotected(&et.records[i], resolvedBy, now) {
			numResolved++
		}
	}
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrGroupNotFound, fingerprint)
	}

	log.Debug("error group resolved", "fingerprint", fingerprint, "resolved by", resolvedBy, "num resolved", numResolved)

	return numResolved, nil
}

func (et *errorTracker) resolveUnprotected(record *common.ErrorRecord, resolvedBy string, now time.Time) bool {
	if record.Resolved {
		return false
	}

	resolvedAt := now
	record.Resolved = true
	record.ResolvedAt = &resolvedAt
	record.ResolvedBy = resolvedBy

	return true
}

// AddTag adds the tag to the error, ignoring duplicates
func (et *errorTracker) AddTag(id string, tag string) error {
	if len(tag) == 0 {
		return ErrEmptyTag
	}

	et.mut.Lock()
	defer et.mut.Unlock()

	record := et.findUnprotected(id)
	if record == nil {
		return fmt.Errorf("%w: %s", ErrErrorNotFound, id)
	}

	record.Tags = appendUniqueTag(record.Tags, tag)

	return nil
}

// RemoveTag removes the tag from the error, if present
func (et *errorTracker) RemoveTag(id string, tag string) error {
	et.mut.Lock()
	defer et.mut.Unlock()

	record := et.findUnprotected(id)
	if record == nil {
		return fmt.Errorf("%w: %s", ErrErrorNotFound, id)
	}

	tags := make([]string, 0, len(record.Tags))
	for _, existing := range record.Tags {
		if existing != tag {
			tags = append(tags, existing)
		}
	}
	record.Tags = tags

	return nil
}

func (et *errorTracker) findUnprotected(id string) *common.ErrorRecord {
	for i := range et.records {
		if et.records[i].ID == id {
			return &et.records[i]
		}
	}

	return nil
}

// Error returns a copy of the error with the provided ID
func (et *errorTracker) Error(id string) (common.ErrorRecord, error) {
	et.mut.RLock()
	defer et.mut.RUnlock()

	record := et.findUnprotected(id)
	if record == nil {
		return common.ErrorRecord{}, fmt.Errorf("%w: %s", ErrErrorNotFound, id)
	}

	return copyRecord(*record), nil
}

// Errors returns a copy of the stored errors, oldest first
func (et *errorTracker) Errors() []common.ErrorRecord {
	et.mut.RLock()
	defer et.mut.RUnlock()

	return copyRecords(et.records)
}

// Len returns the number of stored errors
func (et *errorTracker) Len() int {
	et.mut.RLock()
	defer et.mut.RUnlock()

	return len(et.records)
}

// ErrorGroups computes the error groups out of the current buffer, in order of first appearance
func (et *errorTracker) ErrorGroups() []common.ErrorGroup {
	et.mut.RLock()
	defer et.mut.RUnlock()

	return computeGroups(et.records)
}

// Statistics summarizes the current buffer
func (et *errorTracker) Statistics() common.ErrorStatistics {
	et.mut.RLock()
	defer et.mut.RUnlock()

	return computeStatistics(et.records, et.nowFunc())
}

// Alerts returns the fired alerts history
func (et *errorTracker) Alerts() []common.Alert {
	return et.evaluator.Alerts()
}

// ExportErrors returns a JSON-serializable snapshot of the errors matching the filter along with the groups
// and statistics computed on the same selection
func (et *errorTracker) ExportErrors(filter common.ErrorsFilter) common.ErrorsExport {
	et.mut.RLock()
	now := et.nowFunc()
	selected := make([]common.ErrorRecord, 0, len(et.records))
	for _, record := range et.records {
		if matchesFilter(record, filter) {
			selected = append(selected, copyRecord(record))
		}
	}
	et.mut.RUnlock()

	return common.ErrorsExport{
		ExportedAt: now,
		Filter:     filter,
		Errors:     selected,
		Groups:     computeGroups(selected),
		Statistics: computeStatistics(selected, now),
		Alerts:     et.evaluator.Alerts(),
	}
}

// Reset drops all the stored errors
func (et *errorTracker) Reset() {
	et.mut.Lock()
	defer et.mut.Unlock()

	et.records = make([]common.ErrorRecord, 0, et.maxErrors)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (et *errorTracker) IsInterfaceNil() bool {
	return et == nil
}

func matchesFilter(record common.ErrorRecord, filter common.ErrorsFilter) bool {
	if !filter.Contains(record.Timestamp) {
		return false
	}
	if len(filter.Source) > 0 && record.Source != filter.Source {
		return false
	}
	if len(filter.Severity) > 0 && record.Severity != filter.Severity {
		return false
	}
	if filter.Resolved != nil && record.Resolved != *filter.Resolved {
		return false
	}

	return true
}

func computeGroups(records []common.ErrorRecord) []common.ErrorGroup {
	groups := make([]common.ErrorGroup, 0)
	indexes := make(map[string]int)
	for _, record := range records {
		idx, found := indexes[record.Fingerprint]
		if !found {
			indexes[record.Fingerprint] = len(groups)
			groups = append(groups, common.ErrorGroup{
				Fingerprint: record.Fingerprint,
				Message:     record.Message,
				Source:      record.Source,
				Count:       1,
				FirstSeen:   record.Timestamp,
				LastSeen:    record.Timestamp,
				Severity:    record.Severity,
				Resolved:    record.Resolved,
				ErrorIDs:    []string{record.ID},
			})
			continue
		}

		group := &groups[idx]
		group.Count++
		group.ErrorIDs = append(group.ErrorIDs, record.ID)
		if record.Timestamp.Before(group.FirstSeen) {
			group.FirstSeen = record.Timestamp
		}
		if record.Timestamp.After(group.LastSeen) {
			group.LastSeen = record.Timestamp
		}
		if record.Severity.Rank() > group.Severity.Rank() {
			group.Severity = record.Severity
		}
		group.Resolved = group.Resolved && record.Resolved
	}

	return groups
}

func computeStatistics(records []common.ErrorRecord, now time.Time) common.ErrorStatistics {
	stats := common.ErrorStatistics{
		Total:      len(records),
		BySource:   make(map[common.ErrorSource]int),
		BySeverity: make(map[common.ErrorSeverity]int),
		ByBrowser:  make(map[string]int),
	}

	lastHour := now.Add(-time.Hour)
	for _, record := range records {
		if record.Resolved {
			stats.Resolved++
		} else {
			stats.Unresolved++
		}
		if !record.Timestamp.Before(lastHour) {
			stats.LastHour++
		}
		stats.BySource[record.Source]++
		stats.BySeverity[record.Severity]++
		stats.ByBrowser[browserName(record.UserAgent)]++
	}

	groups := computeGroups(records)
	stats.NumGroups = len(groups)
	for _, group := range groups {
		if !group.Resolved {
			stats.NumUnresolvedGroups++
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	if len(groups) > numTopGroups {
		groups = groups[:numTopGroups]
	}
	stats.TopGroups = groups

	return stats
}

func browserName(userAgent string) string {
	if len(userAgent) == 0 {
		return unknownBrowser
	}

	name, _ := user_agent.New(userAgent).Browser()
	if len(name) == 0 {
		return unknownBrowser
	}

	return name
}

func appendUniqueTag(tags []string, tag string) []string {
	if len(tag) == 0 {
		return tags
	}
	for _, existing := range tags {
		if existing == tag {
			return tags
		}
	}

	return append(tags, tag)
}

func copyContext(context map[string]interface{}) map[string]interface{} {
	if context == nil {
		return nil
	}

	result := make(map[string]interface{}, len(context))
	for key, value := range context {
		result[key] = value
	}

	return result
}

func copyRecord(record common.ErrorRecord) common.ErrorRecord {
	record.Tags = append(make([]string, 0, len(record.Tags)), record.Tags...)
	record.Context = copyContext(record.Context)
	if record.ResolvedAt != nil {
		resolvedAt := *record.ResolvedAt
		record.ResolvedAt = &resolvedAt
	}

	return record
}

func copyRecords(records []common.ErrorRecord) []common.ErrorRecord {
	result := make([]common.ErrorRecord, 0, len(records))
	for _, record := range records {
		result = append(result, copyRecord(record))
	}

	return result
}
