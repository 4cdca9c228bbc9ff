package factory

import (
	"context"
	"database/sql"
	"time"

	"github.com/iulianpascalau/client-observability/services/engine/alerts"
	"github.com/iulianpascalau/client-observability/services/engine/api"
	"github.com/iulianpascalau/client-observability/services/engine/config"
	"github.com/iulianpascalau/client-observability/services/engine/errtracker"
	"github.com/iulianpascalau/client-observability/services/engine/exporter"
	"github.com/iulianpascalau/client-observability/services/engine/health"
	"github.com/iulianpascalau/client-observability/services/engine/metrics"
	"github.com/iulianpascalau/client-observability/services/engine/rum"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var log = logger.GetOrCreate("factory")

const bytesInMB = 1024 * 1024

type closer interface {
	Close() error
}

type componentsHandler struct {
	metricStore    MetricStore
	notifier       closer
	evaluator      AlertEvaluator
	errorTracker   ErrorTracker
	beacon         BeaconSource
	sessionTracker SessionTracker
	dataLayer      *sql.DB
	aggregator     HealthAggregator
	registry       *prometheus.Registry
	server         Server
}

// NewComponentsHandler creates all the engine components out of the configuration
func NewComponentsHandler(serviceKeyApi string, cfg config.Config) (*componentsHandler, error) {
	ch := &componentsHandler{}
	err := ch.createComponents(serviceKeyApi, cfg)
	if err != nil {
		ch.Close()
		return nil, err
	}

	return ch, nil
}

func (ch *componentsHandler) createComponents(serviceKeyApi string, cfg config.Config) error {
	var err error
	ch.metricStore, err = metrics.NewMetricStore(metrics.ArgsMetricStore{
		MaxMetrics: cfg.Metrics.MaxMetrics,
		Thresholds: metrics.NewThresholds(cfg.Metrics),
	})
	if err != nil {
		return err
	}

	errorTracker, err := ch.createErrorTracking(cfg)
	if err != nil {
		return err
	}
	ch.errorTracker = errorTracker

	beacon := rum.NewBeaconSource()
	ch.beacon = beacon
	sessionTracker, err := rum.NewSessionTracker(rum.ArgsSessionTracker{
		MaxSessions:    cfg.RUM.MaxSessions,
		BounceDuration: time.Duration(cfg.RUM.BounceDurationInSeconds) * time.Second,
		VitalsSource:   beacon,
	})
	if err != nil {
		return err
	}
	ch.sessionTracker = sessionTracker

	probes, err := ch.createProbes(cfg.Health, sessionTracker)
	if err != nil {
		return err
	}

	ch.aggregator, err = health.NewHealthAggregator(health.ArgsHealthAggregator{
		Probes:            probes,
		ErrorRecorder:     errorTracker,
		Thresholds:        health.NewThresholds(cfg.Health.Thresholds),
		CheckInterval:     time.Duration(cfg.Health.CheckIntervalInSeconds) * time.Second,
		ProbeTimeout:      time.Duration(cfg.Health.ProbeTimeoutInSeconds) * time.Second,
		HistorySize:       cfg.Health.HistorySize,
		ErrorLogRetention: time.Duration(cfg.Health.ErrorLogRetentionInHours) * time.Hour,
	})
	if err != nil {
		return err
	}

	err = ch.createRegistry()
	if err != nil {
		return err
	}

	ch.server, err = api.NewServer(api.ArgsWebServer{
		ServiceKeyApi:  serviceKeyApi,
		ListenAddress:  cfg.API.ListenAddress,
		Metrics:        ch.metricStore,
		Errors:         ch.errorTracker,
		Sessions:       ch.sessionTracker,
		Health:         ch.aggregator,
		Entries:        ch.beacon,
		Gatherer:       ch.registry,
		GeneralHandler: api.CORSMiddleware,
	})

	return err
}

func (ch *componentsHandler) createErrorTracking(cfg config.Config) (ErrorTracker, error) {
	notifier, err := alerts.NewNotifier(alerts.ArgsNotifier{
		WebhookTimeout: time.Duration(cfg.Alerts.WebhookTimeoutInSeconds) * time.Second,
		Async:          true,
	})
	if err != nil {
		return nil, err
	}
	ch.notifier = notifier

	rules := alerts.DefaultAlertRules()
	if len(cfg.Alerts.Rules) > 0 {
		rules, err = alerts.RulesFromConfig(cfg.Alerts.Rules)
		if err != nil {
			return nil, err
		}
	}

	evaluator, err := alerts.NewAlertEvaluator(alerts.ArgsAlertEvaluator{
		Rules:      rules,
		Notifier:   notifier,
		MaxHistory: cfg.Errors.MaxAlertHistory,
	})
	if err != nil {
		return nil, err
	}
	ch.evaluator = evaluator

	return errtracker.NewErrorTracker(errtracker.ArgsErrorTracker{
		MaxErrors:      cfg.Errors.MaxErrors,
		AlertEvaluator: evaluator,
	})
}

func (ch *componentsHandler) createProbes(cfg config.HealthConfig, rumProvider health.RUMProvider) ([]health.Probe, error) {
	if len(cfg.DataLayerPath) > 0 {
		db, err := health.OpenDataLayer(cfg.DataLayerPath)
		if err != nil {
			return nil, err
		}
		ch.dataLayer = db
	}

	runtimeProbe, err := health.NewRuntimeProbe(health.ArgsRuntimeProbe{
		RUM:         rumProvider,
		MemoryLimit: cfg.MemoryLimitInMB * bytesInMB,
	})
	if err != nil {
		return nil, err
	}

	uxProbe, err := health.NewUXProbe(rumProvider)
	if err != nil {
		return nil, err
	}

	probeTimeout := time.Duration(cfg.ProbeTimeoutInSeconds) * time.Second

	return []health.Probe{
		health.NewDataLayerProbe(ch.dataLayer),
		health.NewAPIProbe(cfg.APIBaseURL, probeTimeout),
		runtimeProbe,
		uxProbe,
	}, nil
}

func (ch *componentsHandler) createRegistry() error {
	collector, err := exporter.NewCollector(exporter.ArgsCollector{
		Performance: ch.metricStore,
		Errors:      ch.errorTracker,
		Sessions:    ch.sessionTracker,
		Health:      ch.aggregator,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	cs := []prometheus.Collector{
		collector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range cs {
		err = registry.Register(c)
		if err != nil {
			return err
		}
	}
	ch.registry = registry

	return nil
}

// GetMetricStore returns the metric store component
func (ch *componentsHandler) GetMetricStore() MetricStore {
	return ch.metricStore
}

// GetErrorTracker returns the error tracker component
func (ch *componentsHandler) GetErrorTracker() ErrorTracker {
	return ch.errorTracker
}

// GetAlertEvaluator returns the alert evaluator component
func (ch *componentsHandler) GetAlertEvaluator() AlertEvaluator {
	return ch.evaluator
}

// GetSessionTracker returns the session tracker component
func (ch *componentsHandler) GetSessionTracker() SessionTracker {
	return ch.sessionTracker
}

// GetBeaconSource returns the source fed by the browser performance entries
func (ch *componentsHandler) GetBeaconSource() BeaconSource {
	return ch.beacon
}

// GetHealthAggregator returns the health aggregator component
func (ch *componentsHandler) GetHealthAggregator() HealthAggregator {
	return ch.aggregator
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the health monitoring and the HTTP server
func (ch *componentsHandler) Start(ctx context.Context) error {
	err := ch.aggregator.Start(ctx)
	if err != nil {
		return err
	}

	return ch.server.Start()
}

// Reset drops the data held by all components. The health monitoring and the server keep running.
func (ch *componentsHandler) Reset() {
	ch.metricStore.Reset()
	ch.errorTracker.Reset()
	ch.evaluator.Reset()
	ch.sessionTracker.Reset()
	ch.aggregator.Reset()

	log.Info("engine components reset")
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	closers := []closer{ch.server, ch.aggregator, ch.sessionTracker, ch.notifier, ch.dataLayer}
	for _, c := range closers {
		if isNilCloser(c) {
			continue
		}

		err := c.Close()
		if err != nil {
			log.Warn("error closing component", "component", c, "error", err)
		}
	}
}

// isNilCloser catches the nil interfaces and the typed nil pointers of the components not created yet
func isNilCloser(c closer) bool {
	switch value := c.(type) {
	case nil:
		return true
	case *sql.DB:
		return value == nil
	case interface{ IsInterfaceNil() bool }:
		return value.IsInterfaceNil()
	default:
		return false
	}
}
