package common

import "time"

// InteractionType is the kind of a recorded user interaction
type InteractionType string

const (
	InteractionClick      InteractionType = "click"
	InteractionScroll     InteractionType = "scroll"
	InteractionInput      InteractionType = "input"
	InteractionFormSubmit InteractionType = "form_submit"
	InteractionNavigation InteractionType = "navigation"
)

// IsValid returns true if the interaction type is one of the known ones
func (it InteractionType) IsValid() bool {
	switch it {
	case InteractionClick, InteractionScroll, InteractionInput, InteractionFormSubmit, InteractionNavigation:
		return true
	default:
		return false
	}
}

// PageView is a single page visited during a session. Times are expressed in milliseconds.
type PageView struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Timestamp  time.Time `json:"timestamp"`
	LoadTime   float64   `json:"loadTime"`
	TimeOnPage *float64  `json:"timeOnPage,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
	ExitPage   bool      `json:"exitPage"`
}

// Interaction is a single user interaction during a session
type Interaction struct {
	ID        string                 `json:"id"`
	Type      InteractionType        `json:"type"`
	Target    string                 `json:"target"`
	Timestamp time.Time              `json:"timestamp"`
	URL       string                 `json:"url,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// DeviceInfo describes the client a session runs on
type DeviceInfo struct {
	UserAgent      string `json:"userAgent"`
	Type           string `json:"type"`
	OS             string `json:"os"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browserVersion"`
	Platform       string `json:"platform"`
	ScreenWidth    int    `json:"screenWidth,omitempty"`
	ScreenHeight   int    `json:"screenHeight,omitempty"`
	Language       string `json:"language,omitempty"`
}

// WebVitals holds the Core Web Vitals of a session. A nil field was not observed (yet).
// Times are expressed in milliseconds, CLS is unitless.
type WebVitals struct {
	FCP  *float64 `json:"fcp,omitempty"`
	LCP  *float64 `json:"lcp,omitempty"`
	FID  *float64 `json:"fid,omitempty"`
	CLS  *float64 `json:"cls,omitempty"`
	TTFB *float64 `json:"ttfb,omitempty"`
}

// Clone returns a deep copy
func (wv WebVitals) Clone() WebVitals {
	return WebVitals{
		FCP:  cloneFloat(wv.FCP),
		LCP:  cloneFloat(wv.LCP),
		FID:  cloneFloat(wv.FID),
		CLS:  cloneFloat(wv.CLS),
		TTFB: cloneFloat(wv.TTFB),
	}
}

func cloneFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}

	v := *value
	return &v
}

// VitalRating is the classification of a single web vital
type VitalRating string

const (
	RatingGood             VitalRating = "good"
	RatingNeedsImprovement VitalRating = "needs-improvement"
	RatingPoor             VitalRating = "poor"
)

// VitalsScore is the composite UX score of a WebVitals set
type VitalsScore struct {
	Overall VitalRating            `json:"overall"`
	Score   float64                `json:"score"`
	Ratings map[string]VitalRating `json:"ratings"`
}

// UserSession is a RUM session
type UserSession struct {
	SessionID    string        `json:"sessionId"`
	UserID       string        `json:"userId,omitempty"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      *time.Time    `json:"endTime,omitempty"`
	Duration     *float64      `json:"duration,omitempty"`
	PageViews    []PageView    `json:"pageViews"`
	Interactions []Interaction `json:"interactions"`
	DeviceInfo   DeviceInfo    `json:"deviceInfo"`
	Vitals       WebVitals     `json:"vitals"`
	Bounced      bool          `json:"bounced"`
	Converted    bool          `json:"converted"`
}

// PerformanceEntry is a single entry delivered by the runtime's performance-observation facility.
// Times are expressed in milliseconds relative to the navigation start.
type PerformanceEntry struct {
	EntryType        string  `json:"entryType"`
	Name             string  `json:"name"`
	StartTime        float64 `json:"startTime"`
	Duration         float64 `json:"duration"`
	Value            float64 `json:"value"`
	HadRecentInput   bool    `json:"hadRecentInput"`
	ProcessingStart  float64 `json:"processingStart"`
	RequestStart     float64 `json:"requestStart"`
	ResponseStart    float64 `json:"responseStart"`
	DomContentLoaded float64 `json:"domContentLoadedEventEnd"`
	LoadEventEnd     float64 `json:"loadEventEnd"`
}

// Performance entry types understood by the session tracker
const (
	EntryPaint                  = "paint"
	EntryLargestContentfulPaint = "largest-contentful-paint"
	EntryFirstInput             = "first-input"
	EntryLayoutShift            = "layout-shift"
	EntryNavigation             = "navigation"
	FirstContentfulPaintName    = "first-contentful-paint"
)

// NavigationTiming is the latest navigation timing seen by the session tracker
type NavigationTiming struct {
	PageLoadTime float64   `json:"pageLoadTime"`
	DOMReadyTime float64   `json:"domReadyTime"`
	TTFB         float64   `json:"ttfb"`
	ObservedAt   time.Time `json:"observedAt"`
}

// PageStatistics counts the views of a single URL
type PageStatistics struct {
	URL             string  `json:"url"`
	Views           int     `json:"views"`
	AverageLoadTime float64 `json:"averageLoadTime"`
}

// SessionAnalytics summarizes the retained sessions
type SessionAnalytics struct {
	TotalSessions          int              `json:"totalSessions"`
	AverageSessionDuration float64          `json:"averageSessionDuration"`
	AveragePageViews       float64          `json:"averagePageViews"`
	BounceRate             float64          `json:"bounceRate"`
	ConversionRate         float64          `json:"conversionRate"`
	TopPages               []PageStatistics `json:"topPages"`
	VitalsScore            VitalsScore      `json:"vitalsScore"`
}

// SessionsFilter selects sessions for an export
type SessionsFilter struct {
	TimeRange
	UserID string `json:"userId,omitempty"`
}

// SessionsExport is the JSON-serializable snapshot returned by ExportSessionData
type SessionsExport struct {
	ExportedAt time.Time        `json:"exportedAt"`
	Filter     SessionsFilter   `json:"filter"`
	Current    *UserSession     `json:"current,omitempty"`
	Sessions   []UserSession    `json:"sessions"`
	Analytics  SessionAnalytics `json:"analytics"`
}
