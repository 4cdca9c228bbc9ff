package common

import "time"

// ErrorSource is the layer an error originated from
type ErrorSource string

const (
	SourceJavaScript ErrorSource = "javascript"
	SourceAPI        ErrorSource = "api"
	SourceDatabase   ErrorSource = "database"
	SourceUserAction ErrorSource = "user_action"
	SourceSystem     ErrorSource = "system"
)

// ErrorSeverity is the gravity of an error
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "low"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityHigh     ErrorSeverity = "high"
	SeverityCritical ErrorSeverity = "critical"
)

var severityRanks = map[ErrorSeverity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank orders severities; unknown severities rank 0
func (s ErrorSeverity) Rank() int {
	return severityRanks[s]
}

// IsValid returns true if the severity is one of the known ones
func (s ErrorSeverity) IsValid() bool {
	return s.Rank() > 0
}

// IsValid returns true if the source is one of the known ones
func (s ErrorSource) IsValid() bool {
	switch s {
	case SourceJavaScript, SourceAPI, SourceDatabase, SourceUserAction, SourceSystem:
		return true
	default:
		return false
	}
}

// ErrorRecord is a single captured error event
type ErrorRecord struct {
	ID          string                 `json:"id"`
	Message     string                 `json:"message"`
	Stack       string                 `json:"stack,omitempty"`
	Source      ErrorSource            `json:"source"`
	Severity    ErrorSeverity          `json:"severity"`
	Timestamp   time.Time              `json:"timestamp"`
	URL         string                 `json:"url"`
	UserAgent   string                 `json:"userAgent"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Tags        []string               `json:"tags"`
	Fingerprint string                 `json:"fingerprint"`
	Resolved    bool                   `json:"resolved"`
	ResolvedAt  *time.Time             `json:"resolvedAt,omitempty"`
	ResolvedBy  string                 `json:"resolvedBy,omitempty"`
}

// ErrorOptions are the optional attributes of a recorded error
type ErrorOptions struct {
	Stack     string
	Source    ErrorSource
	Severity  ErrorSeverity
	URL       string
	UserAgent string
	Context   map[string]interface{}
	Tags      []string
}

// ErrorGroup aggregates all records sharing a fingerprint
type ErrorGroup struct {
	Fingerprint string        `json:"fingerprint"`
	Message     string        `json:"message"`
	Source      ErrorSource   `json:"source"`
	Count       int           `json:"count"`
	FirstSeen   time.Time     `json:"firstSeen"`
	LastSeen    time.Time     `json:"lastSeen"`
	Severity    ErrorSeverity `json:"severity"`
	Resolved    bool          `json:"resolved"`
	ErrorIDs    []string      `json:"errorIds"`
}

// ErrorStatistics summarizes the error buffer
type ErrorStatistics struct {
	Total               int                   `json:"total"`
	Resolved            int                   `json:"resolved"`
	Unresolved          int                   `json:"unresolved"`
	LastHour            int                   `json:"lastHour"`
	BySource            map[ErrorSource]int   `json:"bySource"`
	BySeverity          map[ErrorSeverity]int `json:"bySeverity"`
	ByBrowser           map[string]int        `json:"byBrowser"`
	TopGroups           []ErrorGroup          `json:"topGroups"`
	NumGroups           int                   `json:"numGroups"`
	NumUnresolvedGroups int                   `json:"numUnresolvedGroups"`
}

// ErrorsFilter selects errors for an export; empty fields do not filter
type ErrorsFilter struct {
	TimeRange
	Source   ErrorSource   `json:"source,omitempty"`
	Severity ErrorSeverity `json:"severity,omitempty"`
	Resolved *bool         `json:"resolved,omitempty"`
}

// ErrorsExport is the JSON-serializable snapshot returned by ExportErrors
type ErrorsExport struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Filter     ErrorsFilter    `json:"filter"`
	Errors     []ErrorRecord   `json:"errors"`
	Groups     []ErrorGroup    `json:"groups"`
	Statistics ErrorStatistics `json:"statistics"`
	Alerts     []Alert         `json:"alerts"`
}
