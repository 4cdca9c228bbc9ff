package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/iulianpascalau/client-observability/services/engine/errtracker"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logger.GetOrCreate("api")

const (
	apiKeyHeader    = "X-Api-Key"
	shutdownTimeout = 5 * time.Second
)

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	metrics        MetricsHandler
	errors         ErrorsHandler
	sessions       SessionsExporter
	health         HealthProvider
	entries        EntriesPublisher
	serviceKey     string
	listenAddr     string
	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ServiceKeyApi  string
	ListenAddress  string
	Metrics        MetricsHandler
	Errors         ErrorsHandler
	Sessions       SessionsExporter
	Health         HealthProvider
	Entries        EntriesPublisher
	Gatherer       prometheus.Gatherer
	GeneralHandler func(http.Handler) http.Handler
}

// MetricPayload represents the incoming JSON body on POST /api/metrics
type MetricPayload struct {
	Name     string                 `json:"name" binding:"required"`
	Category common.MetricCategory  `json:"category" binding:"required"`
	Duration float64                `json:"duration"`
	Success  bool                   `json:"success"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ErrorPayload represents the incoming JSON body on POST /api/errors
type ErrorPayload struct {
	Message   string                 `json:"message" binding:"required"`
	Stack     string                 `json:"stack"`
	Source    common.ErrorSource     `json:"source"`
	Severity  common.ErrorSeverity   `json:"severity"`
	URL       string                 `json:"url"`
	UserAgent string                 `json:"userAgent"`
	Context   map[string]interface{} `json:"context"`
	Tags      []string               `json:"tags"`
}

// ResolvePayload represents the optional JSON body of the resolve endpoints
type ResolvePayload struct {
	ResolvedBy string `json:"resolvedBy"`
}

// EntriesPayload represents the incoming JSON body on POST /api/rum/entries
type EntriesPayload struct {
	Entries []common.PerformanceEntry `json:"entries"`
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	err := checkArgs(args)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		metrics:        args.Metrics,
		errors:         args.Errors,
		sessions:       args.Sessions,
		health:         args.Health,
		entries:        args.Entries,
		serviceKey:     args.ServiceKeyApi,
		listenAddr:     args.ListenAddress,
		generalHandler: args.GeneralHandler,
	}

	s.setupRoutes(args.Gatherer)
	return s, nil
}

func checkArgs(args ArgsWebServer) error {
	if len(args.ServiceKeyApi) == 0 {
		return ErrEmptyServiceKey
	}
	if check.IfNil(args.Metrics) {
		return ErrNilMetricsHandler
	}
	if check.IfNil(args.Errors) {
		return ErrNilErrorsHandler
	}
	if check.IfNil(args.Sessions) {
		return ErrNilSessionsExporter
	}
	if check.IfNil(args.Health) {
		return ErrNilHealthProvider
	}
	if check.IfNil(args.Entries) {
		return ErrNilEntriesPublisher
	}
	if args.Gatherer == nil {
		return ErrNilGatherer
	}
	if args.GeneralHandler == nil {
		return ErrNilHTTPHandler
	}

	return nil
}

func (s *server) setupRoutes(gatherer prometheus.Gatherer) {
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := s.router.Group("/api")

	// public liveness endpoint
	api.GET("/health", s.handleGetHealth)

	protected := api.Group("/")
	protected.Use(s.authAPIKey())
	{
		protected.GET("/health/history", s.handleGetHealthHistory)
		protected.GET("/export/metrics", s.handleExportMetrics)
		protected.GET("/export/errors", s.handleExportErrors)
		protected.GET("/export/sessions", s.handleExportSessions)
		protected.POST("/metrics", s.handleRecordMetric)
		protected.POST("/errors", s.handleRecordError)
		protected.POST("/errors/:id/resolve", s.handleResolveError)
		protected.POST("/groups/:fingerprint/resolve", s.handleResolveGroup)
		protected.POST("/rum/entries", s.handlePublishEntries)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

// Start listens and serves connections
func (s *server) Start() error {
	handler := s.generalHandler(s.router)

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return err
	}
	s.listenAddr = ln.Addr().String()

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: handler,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		errServe := s.httpServer.Serve(ln)
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.Error("http server failed", "error", errServe)
		}
	}()

	return nil
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *server) IsInterfaceNil() bool {
	return s == nil
}

// --- Middlewares ---

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(apiKeyHeader)
		if key != s.serviceKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CORSMiddleware allows the browser instrumentation hosted on other origins to reach the endpoints
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+apiKeyHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// --- Handlers ---

// handleGetHealth answers 503 until the first check completes and while the system is critical
func (s *server) handleGetHealth(c *gin.Context) {
	status, found := s.health.Latest()
	if !found {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no health check performed yet"})
		return
	}

	code := http.StatusOK
	if status.Overall == common.StatusCritical {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, status)
}

func (s *server) handleGetHealthHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": s.health.History()})
}

func (s *server) handleExportMetrics(c *gin.Context) {
	filter, err := parseMetricsFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.metrics.ExportMetrics(filter))
}

func (s *server) handleExportErrors(c *gin.Context) {
	filter, err := parseErrorsFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.errors.ExportErrors(filter))
}

func (s *server) handleExportSessions(c *gin.Context) {
	filter, err := parseSessionsFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.sessions.ExportSessionData(filter))
}

func (s *server) handleRecordMetric(c *gin.Context) {
	var payload MetricPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	metric, err := s.metrics.RecordMetric(payload.Name, payload.Category, payload.Duration, payload.Success, payload.Metadata)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metric": metric})
}

func (s *server) handleRecordError(c *gin.Context) {
	var payload ErrorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	userAgent := payload.UserAgent
	if len(userAgent) == 0 {
		userAgent = c.Request.UserAgent()
	}

	record, alerts := s.errors.RecordError(payload.Message, common.ErrorOptions{
		Stack:     payload.Stack,
		Source:    payload.Source,
		Severity:  payload.Severity,
		URL:       payload.URL,
		UserAgent: userAgent,
		Context:   payload.Context,
		Tags:      payload.Tags,
	})

	log.Debug("received error report", "sender", c.Request.RemoteAddr, "fingerprint", record.Fingerprint, "num alerts", len(alerts))

	c.JSON(http.StatusOK, gin.H{"record": record, "alerts": alerts})
}

func (s *server) handleResolveError(c *gin.Context) {
	payload := bindResolvePayload(c)

	err := s.errors.ResolveError(c.Param("id"), payload.ResolvedBy)
	if errors.Is(err, errtracker.ErrErrorNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleResolveGroup(c *gin.Context) {
	payload := bindResolvePayload(c)

	numResolved, err := s.errors.ResolveErrorGroup(c.Param("fingerprint"), payload.ResolvedBy)
	if errors.Is(err, errtracker.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"resolved": numResolved})
}

// bindResolvePayload reads the optional body; an empty or malformed body means an anonymous resolution
func bindResolvePayload(c *gin.Context) ResolvePayload {
	var payload ResolvePayload
	if c.Request.ContentLength == 0 {
		return payload
	}

	err := c.ShouldBindJSON(&payload)
	if err != nil {
		log.Debug("ignoring resolve payload", "error", err)
	}

	return payload
}

func (s *server) handlePublishEntries(c *gin.Context) {
	var payload EntriesPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	numAccepted := s.entries.Publish(payload.Entries)
	if numAccepted < len(payload.Entries) {
		log.Warn("rejected performance entries", "sender", c.Request.RemoteAddr,
			"received", len(payload.Entries), "accepted", numAccepted)
	}

	c.JSON(http.StatusOK, gin.H{"accepted": numAccepted})
}
