package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/VividCortex/ewma"
	"github.com/iulianpascalau/client-observability/commonGo"
	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("health")

const healthCheckTag = "health_check"

// ArgsHealthAggregator defines the health aggregator arguments
type ArgsHealthAggregator struct {
	Probes            []Probe
	ErrorRecorder     ErrorRecorder
	Thresholds        Thresholds
	CheckInterval     time.Duration
	ProbeTimeout      time.Duration
	HistorySize       int
	ErrorLogRetention time.Duration
}

type probeOutcome struct {
	name   string
	result common.ProbeResult
}

// healthAggregator runs the component probes on a timer and combines them into the system health status
type healthAggregator struct {
	mut               sync.RWMutex
	probes            []Probe
	recorder          ErrorRecorder
	thresholds        Thresholds
	checkInterval     time.Duration
	probeTimeout      time.Duration
	historySize       int
	errorLogRetention time.Duration
	history           []common.SystemHealthStatus
	errorLog          []common.HealthErrorEntry
	checksPerformed   int
	startTime         time.Time
	trend             ewma.MovingAverage
	cronJob           *commonGo.CronJob
	nowFunc           func() time.Time
}

// NewHealthAggregator creates a new health aggregator
func NewHealthAggregator(args ArgsHealthAggregator) (*healthAggregator, error) {
	err := checkArgs(args)
	if err != nil {
		return nil, err
	}

	return &healthAggregator{
		probes:            args.Probes,
		recorder:          args.ErrorRecorder,
		thresholds:        args.Thresholds,
		checkInterval:     args.CheckInterval,
		probeTimeout:      args.ProbeTimeout,
		historySize:       args.HistorySize,
		errorLogRetention: args.ErrorLogRetention,
		history:           make([]common.SystemHealthStatus, 0, args.HistorySize),
		errorLog:          make([]common.HealthErrorEntry, 0),
		startTime:         time.Now(),
		trend:             ewma.NewMovingAverage(),
		nowFunc:           time.Now,
	}, nil
}

func checkArgs(args ArgsHealthAggregator) error {
	if len(args.Probes) == 0 {
		return ErrNoProbes
	}

	names := make(map[string]struct{})
	for _, probe := range args.Probes {
		if check.IfNil(probe) {
			return ErrNilProbe
		}
		_, found := names[probe.Name()]
		if found {
			return fmt.Errorf("%w: %s", ErrDuplicateProbe, probe.Name())
		}
		names[probe.Name()] = struct{}{}
	}

	if check.IfNil(args.ErrorRecorder) {
		return ErrNilErrorRecorder
	}
	if args.CheckInterval <= 0 {
		return fmt.Errorf("invalid check interval: %v", args.CheckInterval)
	}
	if args.ProbeTimeout <= 0 {
		return fmt.Errorf("invalid probe timeout: %v", args.ProbeTimeout)
	}
	if args.HistorySize <= 0 {
		return fmt.Errorf("invalid history size: %d", args.HistorySize)
	}
	if args.ErrorLogRetention <= 0 {
		return fmt.Errorf("invalid error log retention: %v", args.ErrorLogRetention)
	}

	return nil
}

// Start runs a health check immediately and then on every check interval, until Stop is called or the context is done
func (ha *healthAggregator) Start(ctx context.Context) error {
	ha.mut.Lock()
	defer ha.mut.Unlock()

	if isJobRunning(ha.cronJob) {
		return ErrAlreadyStarted
	}
	if ha.cronJob != nil {
		// already exited, Stop only releases its context
		ha.cronJob.Stop()
	}

	ha.startTime = ha.nowFunc()
	ha.cronJob = commonGo.StartCronJob(ctx, func(ctx context.Context) {
		ha.Process(ctx)
	}, ha.checkInterval)

	log.Debug("health monitoring started", "interval", ha.checkInterval, "probes", len(ha.probes))

	return nil
}

// Stop cancels the periodic health checks and waits for the running one, if any
func (ha *healthAggregator) Stop() {
	ha.mut.Lock()
	job := ha.cronJob
	ha.cronJob = nil
	ha.mut.Unlock()

	if job == nil {
		return
	}

	job.Stop()
	log.Debug("health monitoring stopped")
}

// IsRunning returns true if the periodic health checks are started
func (ha *healthAggregator) IsRunning() bool {
	ha.mut.RLock()
	defer ha.mut.RUnlock()

	return isJobRunning(ha.cronJob)
}

// isJobRunning returns false for a missing job and for a job that exited because its parent context was done
func isJobRunning(job *commonGo.CronJob) bool {
	if job == nil {
		return false
	}

	select {
	case <-job.Done():
		return false
	default:
		return true
	}
}

// Process runs all the probes concurrently, classifies them and appends the resulting status to the history
func (ha *healthAggregator) Process(ctx context.Context) common.SystemHealthStatus {
	outcomes := ha.runProbes(ctx)

	for _, outcome := range outcomes {
		if outcome.result.Err == nil {
			continue
		}

		log.Warn("health probe failed", "component", outcome.name, "error", outcome.result.Err)
		ha.recordProbeFailure(outcome.name, outcome.result.Err)
	}

	ha.mut.Lock()
	defer ha.mut.Unlock()

	now := ha.nowFunc()
	ha.pruneErrorLogUnprotected(now)

	components := make(map[string]common.ComponentHealth, len(outcomes))
	responseTimes := 0.0
	for _, outcome := range outcomes {
		components[outcome.name] = ha.componentHealthUnprotected(outcome, now)
		responseTimes += outcome.result.ResponseTime
	}
	ha.trend.Add(responseTimes / float64(len(outcomes)))

	overall, score := ComputeOverall(components)
	ha.checksPerformed++

	status := common.SystemHealthStatus{
		Overall:             overall,
		Score:               score,
		Components:          components,
		LastChecked:         now,
		Uptime:              millisecondsSince(ha.startTime, now),
		ChecksPerformed:     ha.checksPerformed,
		ResponseTimeTrend:   ha.trend.Value(),
		RecentErrorLogCount: len(ha.errorLog),
	}

	ha.history = append(ha.history, status)
	if len(ha.history) > ha.historySize {
		ha.history = ha.history[len(ha.history)-ha.historySize:]
	}

	log.Debug("health check performed", "overall", overall, "score", score, "checks", ha.checksPerformed)

	return copyStatus(status)
}

func (ha *healthAggregator) runProbes(ctx context.Context) []probeOutcome {
	outcomes := make([]probeOutcome, len(ha.probes))

	var wg sync.WaitGroup
	wg.Add(len(ha.probes))
	for i, p := range ha.probes {
		go func(idx int, probe Probe) {
			defer wg.Done()

			outcomes[idx] = probeOutcome{
				name:   probe.Name(),
				result: ha.runProbe(ctx, probe),
			}
		}(i, p)
	}

	wg.Wait()

	return outcomes
}

// runProbe bounds the probe with the probe timeout. A timed out probe counts as a failure.
func (ha *healthAggregator) runProbe(ctx context.Context, probe Probe) common.ProbeResult {
	probeCtx, cancel := context.WithTimeout(ctx, ha.probeTimeout)
	defer cancel()

	resultChan := make(chan common.ProbeResult, 1)
	go func() {
		resultChan <- probe.Check(probeCtx)
	}()

	select {
	case result := <-resultChan:
		return result
	case <-probeCtx.Done():
		return common.ProbeResult{
			ResponseTime: float64(ha.probeTimeout) / float64(time.Millisecond),
			ErrorRate:    1,
			Err:          fmt.Errorf("probe did not finish: %w", probeCtx.Err()),
		}
	}
}

func (ha *healthAggregator) componentHealthUnprotected(outcome probeOutcome, now time.Time) common.ComponentHealth {
	result := outcome.result
	message := result.Message
	if result.Err != nil {
		result.ErrorRate = 1
		message = result.Err.Error()
	}

	numRecentErrors := ha.countErrorsUnprotected(outcome.name)
	if numRecentErrors > 0 {
		suffix := fmt.Sprintf("%d recent errors logged", numRecentErrors)
		if len(message) > 0 {
			message += "; " + suffix
		} else {
			message = suffix
		}
	}

	return common.ComponentHealth{
		Status:       Classify(result.ResponseTime, result.ErrorRate, ha.thresholds),
		ResponseTime: result.ResponseTime,
		ErrorRate:    result.ErrorRate,
		Message:      message,
		LastChecked:  now,
	}
}

func (ha *healthAggregator) recordProbeFailure(component string, probeErr error) {
	ha.mut.Lock()
	ha.errorLog = append(ha.errorLog, common.HealthErrorEntry{
		Component: component,
		Message:   probeErr.Error(),
		Timestamp: ha.nowFunc(),
	})
	ha.mut.Unlock()

	ha.recorder.RecordError(fmt.Sprintf("health check failed for %s: %v", component, probeErr), common.ErrorOptions{
		Source:   common.SourceSystem,
		Severity: common.SeverityHigh,
		Context: map[string]interface{}{
			"component": component,
		},
		Tags: []string{healthCheckTag, component},
	})
}

// RecordError logs an externally observed failure of a component
func (ha *healthAggregator) RecordError(component string, message string) error {
	if len(component) == 0 {
		return ErrEmptyComponent
	}

	ha.mut.Lock()
	defer ha.mut.Unlock()

	now := ha.nowFunc()
	ha.errorLog = append(ha.errorLog, common.HealthErrorEntry{
		Component: component,
		Message:   message,
		Timestamp: now,
	})
	ha.pruneErrorLogUnprotected(now)

	return nil
}

// ErrorLog returns the health errors logged inside the retention window, oldest first
func (ha *healthAggregator) ErrorLog() []common.HealthErrorEntry {
	ha.mut.RLock()
	defer ha.mut.RUnlock()

	cutoff := ha.nowFunc().Add(-ha.errorLogRetention)
	result := make([]common.HealthErrorEntry, 0, len(ha.errorLog))
	for _, entry := range ha.errorLog {
		if entry.Timestamp.Before(cutoff) {
			continue
		}
		result = append(result, entry)
	}

	return result
}

func (ha *healthAggregator) pruneErrorLogUnprotected(now time.Time) {
	cutoff := now.Add(-ha.errorLogRetention)
	retained := ha.errorLog[:0]
	for _, entry := range ha.errorLog {
		if entry.Timestamp.Before(cutoff) {
			continue
		}
		retained = append(retained, entry)
	}
	ha.errorLog = retained
}

func (ha *healthAggregator) countErrorsUnprotected(component string) int {
	count := 0
	for _, entry := range ha.errorLog {
		if entry.Component == component {
			count++
		}
	}

	return count
}

// Latest returns the last computed status
func (ha *healthAggregator) Latest() (common.SystemHealthStatus, bool) {
	ha.mut.RLock()
	defer ha.mut.RUnlock()

	if len(ha.history) == 0 {
		return common.SystemHealthStatus{}, false
	}

	return copyStatus(ha.history[len(ha.history)-1]), true
}

// History returns the retained statuses, oldest first
func (ha *healthAggregator) History() []common.SystemHealthStatus {
	ha.mut.RLock()
	defer ha.mut.RUnlock()

	result := make([]common.SystemHealthStatus, 0, len(ha.history))
	for _, status := range ha.history {
		result = append(result, copyStatus(status))
	}

	return result
}

// Reset drops the history, the error log and the counters. A started monitoring keeps running.
func (ha *healthAggregator) Reset() {
	ha.mut.Lock()
	defer ha.mut.Unlock()

	ha.history = make([]common.SystemHealthStatus, 0, ha.historySize)
	ha.errorLog = make([]common.HealthErrorEntry, 0)
	ha.checksPerformed = 0
	ha.startTime = ha.nowFunc()
	ha.trend = ewma.NewMovingAverage()
}

// Close stops the periodic health checks
func (ha *healthAggregator) Close() error {
	ha.Stop()
	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (ha *healthAggregator) IsInterfaceNil() bool {
	return ha == nil
}

func copyStatus(status common.SystemHealthStatus) common.SystemHealthStatus {
	components := make(map[string]common.ComponentHealth, len(status.Components))
	for name, component := range status.Components {
		components[name] = component
	}
	status.Components = components

	return status
}
