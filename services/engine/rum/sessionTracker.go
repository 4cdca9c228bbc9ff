package rum

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/montanaflynn/stats"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("rum")

const (
	numTopPages          = 10
	conversionTargetName = "conversion"
)

// ArgsSessionTracker defines the session tracker arguments
type ArgsSessionTracker struct {
	MaxSessions    int
	BounceDuration time.Duration
	VitalsSource   VitalsSource
}

// sessionTracker owns the RUM session lifecycle. At most one session is active at a time.
type sessionTracker struct {
	mut            sync.RWMutex
	maxSessions    int
	bounceDuration time.Duration
	source         VitalsSource
	current        *common.UserSession
	currentStart   time.Time
	unsubscribe    func()
	lastVitals     common.WebVitals
	navigation     *common.NavigationTiming
	history        []common.UserSession
	nowFunc        func() time.Time
}

// NewSessionTracker creates a new session tracker
func NewSessionTracker(args ArgsSessionTracker) (*sessionTracker, error) {
	if args.MaxSessions <= 0 {
		return nil, fmt.Errorf("invalid max sessions value: %d", args.MaxSessions)
	}
	if args.BounceDuration <= 0 {
		return nil, fmt.Errorf("invalid bounce duration: %v", args.BounceDuration)
	}
	if check.IfNil(args.VitalsSource) {
		return nil, ErrNilVitalsSource
	}

	return &sessionTracker{
		maxSessions:    args.MaxSessions,
		bounceDuration: args.BounceDuration,
		source:         args.VitalsSource,
		history:        make([]common.UserSession, 0, args.MaxSessions),
		nowFunc:        time.Now,
	}, nil
}

// StartSession opens a new session, ending the active one first. The device info is completed from the user agent.
// The session starts listening to the vitals source.
func (st *sessionTracker) StartSession(userID string, device common.DeviceInfo) common.UserSession {
	st.mut.Lock()
	previousUnsubscribe := st.endSessionUnprotected()

	now := st.nowFunc()
	session := &common.UserSession{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		StartTime:    now,
		PageViews:    make([]common.PageView, 0),
		Interactions: make([]common.Interaction, 0),
		DeviceInfo:   ParseDeviceInfo(device),
	}
	st.current = session
	st.currentStart = now
	st.mut.Unlock()

	if previousUnsubscribe != nil {
		previousUnsubscribe()
	}

	sessionID := session.SessionID
	unsubscribe := st.source.Subscribe(func(entry common.PerformanceEntry) {
		st.handleEntry(sessionID, entry)
	})

	st.mut.Lock()
	stillActive := st.current != nil && st.current.SessionID == sessionID
	if stillActive {
		st.unsubscribe = unsubscribe
	}
	result := cloneSession(*session)
	st.mut.Unlock()

	if !stillActive {
		unsubscribe()
	}

	log.Debug("session started", "session", sessionID, "user", userID, "device", session.DeviceInfo.Type)

	return result
}

// EndSession closes the active session, computes its duration and bounce flag and archives it
func (st *sessionTracker) EndSession() (common.UserSession, error) {
	st.mut.Lock()
	if st.current == nil {
		st.mut.Unlock()
		return common.UserSession{}, ErrNoActiveSession
	}

	sessionID := st.current.SessionID
	unsubscribe := st.endSessionUnprotected()
	ended := cloneSession(st.history[len(st.history)-1])
	st.mut.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	log.Debug("session ended", "session", sessionID, "duration", *ended.Duration, "bounced", ended.Bounced)

	return ended, nil
}

// endSessionUnprotected archives the active session, if any, and returns its vitals subscription cancel function
func (st *sessionTracker) endSessionUnprotected() func() {
	if st.current == nil {
		return nil
	}

	now := st.nowFunc()
	session := st.current

	numPageViews := len(session.PageViews)
	if numPageViews > 0 {
		lastPage := &session.PageViews[numPageViews-1]
		finalizeTimeOnPage(lastPage, now)
		lastPage.ExitPage = true
	}

	elapsed := now.Sub(st.currentStart)
	duration := durationInMilliseconds(elapsed)
	endTime := now
	session.EndTime = &endTime
	session.Duration = &duration
	session.Bounced = numPageViews <= 1 && elapsed < st.bounceDuration

	st.lastVitals = session.Vitals.Clone()
	st.history = append(st.history, *session)
	if len(st.history) > st.maxSessions {
		st.history = st.history[len(st.history)-st.maxSessions:]
	}
	st.current = nil

	unsubscribe := st.unsubscribe
	st.unsubscribe = nil

	return unsubscribe
}

// RecordPageView opens a new page view, finalizing the time spent on the previous one. The load time is
// expressed in milliseconds.
func (st *sessionTracker) RecordPageView(url string, title string, referrer string, loadTime float64) (common.PageView, error) {
	if len(url) == 0 {
		return common.PageView{}, ErrEmptyURL
	}
	if loadTime < 0 || math.IsNaN(loadTime) || math.IsInf(loadTime, 0) {
		return common.PageView{}, fmt.Errorf("%w: %f", ErrInvalidLoadTime, loadTime)
	}

	st.mut.Lock()
	defer st.mut.Unlock()

	if st.current == nil {
		return common.PageView{}, ErrNoActiveSession
	}

	now := st.nowFunc()
	numPageViews := len(st.current.PageViews)
	if numPageViews > 0 {
		finalizeTimeOnPage(&st.current.PageViews[numPageViews-1], now)
	}

	pageView := common.PageView{
		ID:        uuid.NewString(),
		URL:       url,
		Title:     title,
		Timestamp: now,
		LoadTime:  loadTime,
		Referrer:  referrer,
	}
	st.current.PageViews = append(st.current.PageViews, pageView)

	return pageView, nil
}

// RecordInteraction appends a typed interaction on the current page
func (st *sessionTracker) RecordInteraction(
	interactionType common.InteractionType,
	target string,
	metadata map[string]interface{},
) (common.Interaction, error) {
	if !interactionType.IsValid() {
		return common.Interaction{}, fmt.Errorf("%w: %s", ErrInvalidInteractionType, interactionType)
	}

	st.mut.Lock()
	defer st.mut.Unlock()

	return st.recordInteractionUnprotected(interactionType, target, metadata)
}

func (st *sessionTracker) recordInteractionUnprotected(
	interactionType common.InteractionType,
	target string,
	metadata map[string]interface{},
) (common.Interaction, error) {
	if st.current == nil {
		return common.Interaction{}, ErrNoActiveSession
	}

	interaction := common.Interaction{
		ID:        uuid.NewString(),
		Type:      interactionType,
		Target:    target,
		Timestamp: st.nowFunc(),
		URL:       st.currentURLUnprotected(),
		Metadata:  copyMetadata(metadata),
	}
	st.current.Interactions = append(st.current.Interactions, interaction)

	return interaction, nil
}

// MarkConversion flags the active session as converted and logs the conversion as a click interaction
func (st *sessionTracker) MarkConversion(goal string, value float64) error {
	st.mut.Lock()
	defer st.mut.Unlock()

	if st.current == nil {
		return ErrNoActiveSession
	}

	st.current.Converted = true
	_, err := st.recordInteractionUnprotected(common.InteractionClick, conversionTargetName, map[string]interface{}{
		"conversion": true,
		"goal":       goal,
		"value":      value,
	})

	return err
}

func (st *sessionTracker) currentURLUnprotected() string {
	numPageViews := len(st.current.PageViews)
	if numPageViews == 0 {
		return ""
	}

	return st.current.PageViews[numPageViews-1].URL
}

func (st *sessionTracker) handleEntry(sessionID string, entry common.PerformanceEntry) {
	st.mut.Lock()
	defer st.mut.Unlock()

	if entry.EntryType == common.EntryNavigation && entry.LoadEventEnd <= 0 {
		log.Trace("ignoring navigation entry sent before the load event ended", "session", sessionID)
		return
	}

	if entry.EntryType == common.EntryNavigation {
		st.navigation = &common.NavigationTiming{
			PageLoadTime: entry.LoadEventEnd - entry.StartTime,
			DOMReadyTime: entry.DomContentLoaded - entry.StartTime,
			TTFB:         entry.ResponseStart - entry.RequestStart,
			ObservedAt:   st.nowFunc(),
		}
	}

	if st.current == nil || st.current.SessionID != sessionID {
		log.Trace("performance entry outside of the active session", "session", sessionID, "type", entry.EntryType)
		return
	}

	applyEntry(&st.current.Vitals, entry)
}

// applyEntry updates the vitals field matching the entry. CLS accumulates the shifts not caused by user input.
func applyEntry(vitals *common.WebVitals, entry common.PerformanceEntry) {
	switch entry.EntryType {
	case common.EntryPaint:
		if entry.Name == common.FirstContentfulPaintName {
			vitals.FCP = floatPointer(entry.StartTime)
		}
	case common.EntryLargestContentfulPaint:
		vitals.LCP = floatPointer(entry.StartTime)
	case common.EntryFirstInput:
		vitals.FID = floatPointer(entry.ProcessingStart - entry.StartTime)
	case common.EntryLayoutShift:
		if entry.HadRecentInput {
			return
		}
		cls := entry.Value
		if vitals.CLS != nil {
			cls += *vitals.CLS
		}
		vitals.CLS = floatPointer(cls)
	case common.EntryNavigation:
		vitals.TTFB = floatPointer(entry.ResponseStart - entry.RequestStart)
	}
}

// CurrentSession returns a copy of the active session
func (st *sessionTracker) CurrentSession() (common.UserSession, bool) {
	st.mut.RLock()
	defer st.mut.RUnlock()

	if st.current == nil {
		return common.UserSession{}, false
	}

	return cloneSession(*st.current), true
}

// Sessions returns a copy of the ended sessions, oldest first
func (st *sessionTracker) Sessions() []common.UserSession {
	st.mut.RLock()
	defer st.mut.RUnlock()

	return cloneSessions(st.history)
}

// LatestVitals returns the vitals of the active session or, if none, of the last ended one
func (st *sessionTracker) LatestVitals() common.WebVitals {
	st.mut.RLock()
	defer st.mut.RUnlock()

	return st.latestVitalsUnprotected()
}

func (st *sessionTracker) latestVitalsUnprotected() common.WebVitals {
	if st.current != nil {
		return st.current.Vitals.Clone()
	}

	return st.lastVitals.Clone()
}

// VitalsScore scores the latest vitals
func (st *sessionTracker) VitalsScore() common.VitalsScore {
	return ScoreVitals(st.LatestVitals())
}

// NavigationTiming returns the latest observed navigation timing
func (st *sessionTracker) NavigationTiming() (common.NavigationTiming, bool) {
	st.mut.RLock()
	defer st.mut.RUnlock()

	if st.navigation == nil {
		return common.NavigationTiming{}, false
	}

	return *st.navigation, true
}

// Analytics summarizes the ended sessions
func (st *sessionTracker) Analytics() common.SessionAnalytics {
	st.mut.RLock()
	defer st.mut.RUnlock()

	return computeAnalytics(st.history, st.latestVitalsUnprotected())
}

// ExportSessionData returns a JSON-serializable snapshot of the sessions matching the filter and their analytics.
// The active session is included when it matches the filter.
func (st *sessionTracker) ExportSessionData(filter common.SessionsFilter) common.SessionsExport {
	st.mut.RLock()
	defer st.mut.RUnlock()

	selected := make([]common.UserSession, 0, len(st.history))
	for _, session := range st.history {
		if matchesFilter(session, filter) {
			selected = append(selected, cloneSession(session))
		}
	}

	export := common.SessionsExport{
		ExportedAt: st.nowFunc(),
		Filter:     filter,
		Sessions:   selected,
		Analytics:  computeAnalytics(selected, st.latestVitalsUnprotected()),
	}
	if st.current != nil && matchesFilter(*st.current, filter) {
		current := cloneSession(*st.current)
		export.Current = &current
	}

	return export
}

// Reset drops the active session without archiving it, the history and the navigation timing
func (st *sessionTracker) Reset() {
	st.mut.Lock()
	unsubscribe := st.unsubscribe
	st.unsubscribe = nil
	st.current = nil
	st.lastVitals = common.WebVitals{}
	st.navigation = nil
	st.history = make([]common.UserSession, 0, st.maxSessions)
	st.mut.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Close ends the active session, if any
func (st *sessionTracker) Close() error {
	_, err := st.EndSession()
	if errors.Is(err, ErrNoActiveSession) {
		return nil
	}

	return err
}

// IsInterfaceNil returns true if the value under the interface is nil
func (st *sessionTracker) IsInterfaceNil() bool {
	return st == nil
}

func computeAnalytics(sessions []common.UserSession, latestVitals common.WebVitals) common.SessionAnalytics {
	analytics := common.SessionAnalytics{
		TotalSessions: len(sessions),
		TopPages:      make([]common.PageStatistics, 0),
		VitalsScore:   ScoreVitals(latestVitals),
	}
	if len(sessions) == 0 {
		return analytics
	}

	durations := make([]float64, 0, len(sessions))
	pageViews := make([]float64, 0, len(sessions))
	numBounced, numConverted := 0, 0
	pageIndexes := make(map[string]int)
	pageLoadTimes := make([][]float64, 0)
	for _, session := range sessions {
		if session.Duration != nil {
			durations = append(durations, *session.Duration)
		}
		pageViews = append(pageViews, float64(len(session.PageViews)))
		if session.Bounced {
			numBounced++
		}
		if session.Converted {
			numConverted++
		}

		for _, pageView := range session.PageViews {
			idx, found := pageIndexes[pageView.URL]
			if !found {
				idx = len(analytics.TopPages)
				pageIndexes[pageView.URL] = idx
				analytics.TopPages = append(analytics.TopPages, common.PageStatistics{URL: pageView.URL})
				pageLoadTimes = append(pageLoadTimes, make([]float64, 0))
			}
			analytics.TopPages[idx].Views++
			pageLoadTimes[idx] = append(pageLoadTimes[idx], pageView.LoadTime)
		}
	}

	analytics.AverageSessionDuration, _ = stats.Mean(durations)
	analytics.AveragePageViews, _ = stats.Mean(pageViews)
	analytics.BounceRate = float64(numBounced) / float64(len(sessions))
	analytics.ConversionRate = float64(numConverted) / float64(len(sessions))

	for i := range analytics.TopPages {
		analytics.TopPages[i].AverageLoadTime, _ = stats.Mean(pageLoadTimes[i])
	}
	sort.SliceStable(analytics.TopPages, func(i, j int) bool {
		return analytics.TopPages[i].Views > analytics.TopPages[j].Views
	})
	if len(analytics.TopPages) > numTopPages {
		analytics.TopPages = analytics.TopPages[:numTopPages]
	}

	return analytics
}

func matchesFilter(session common.UserSession, filter common.SessionsFilter) bool {
	if !filter.Contains(session.StartTime) {
		return false
	}
	if len(filter.UserID) > 0 && session.UserID != filter.UserID {
		return false
	}

	return true
}

func finalizeTimeOnPage(pageView *common.PageView, now time.Time) {
	if pageView.TimeOnPage != nil {
		return
	}

	timeOnPage := durationInMilliseconds(now.Sub(pageView.Timestamp))
	pageView.TimeOnPage = &timeOnPage
}

func durationInMilliseconds(duration time.Duration) float64 {
	return float64(duration) / float64(time.Millisecond)
}

func floatPointer(value float64) *float64 {
	return &value
}

func copyMetadata(metadata map[string]interface{}) map[string]interface{} {
	if metadata == nil {
		return nil
	}

	result := make(map[string]interface{}, len(metadata))
	for key, value := range metadata {
		result[key] = value
	}

	return result
}

func cloneSession(session common.UserSession) common.UserSession {
	if session.EndTime != nil {
		endTime := *session.EndTime
		session.EndTime = &endTime
	}
	if session.Duration != nil {
		duration := *session.Duration
		session.Duration = &duration
	}

	pageViews := make([]common.PageView, 0, len(session.PageViews))
	for _, pageView := range session.PageViews {
		if pageView.TimeOnPage != nil {
			timeOnPage := *pageView.TimeOnPage
			pageView.TimeOnPage = &timeOnPage
		}
		pageViews = append(pageViews, pageView)
	}
	session.PageViews = pageViews

	interactions := make([]common.Interaction, 0, len(session.Interactions))
	for _, interaction := range session.Interactions {
		interaction.Metadata = copyMetadata(interaction.Metadata)
		interactions = append(interactions, interaction)
	}
	session.Interactions = interactions
	session.Vitals = session.Vitals.Clone()

	return session
}

func cloneSessions(sessions []common.UserSession) []common.UserSession {
	result := make([]common.UserSession, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, cloneSession(session))
	}

	return result
}
