package api

import "errors"

// ErrNilMetricsHandler signals a nil metrics handler
var ErrNilMetricsHandler = errors.New("nil metrics handler")

// ErrNilErrorsHandler signals a nil errors handler
var ErrNilErrorsHandler = errors.New("nil errors handler")

// ErrNilSessionsExporter signals a nil sessions exporter
var ErrNilSessionsExporter = errors.New("nil sessions exporter")

// ErrNilHealthProvider signals a nil health provider
var ErrNilHealthProvider = errors.New("nil health provider")

// ErrNilEntriesPublisher signals a nil entries publisher
var ErrNilEntriesPublisher = errors.New("nil entries publisher")

// ErrNilGatherer signals a nil prometheus gatherer
var ErrNilGatherer = errors.New("nil prometheus gatherer")

// ErrNilHTTPHandler signals a nil general HTTP handler
var ErrNilHTTPHandler = errors.New("nil http handler")

// ErrEmptyServiceKey signals that the API key protecting the endpoints is not set
var ErrEmptyServiceKey = errors.New("empty service key")
