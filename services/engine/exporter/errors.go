package exporter

import "errors"

// ErrNilPerformanceProvider signals a nil performance provider
var ErrNilPerformanceProvider = errors.New("nil performance provider")

// ErrNilErrorStatisticsProvider signals a nil error statistics provider
var ErrNilErrorStatisticsProvider = errors.New("nil error statistics provider")

// ErrNilSessionAnalyticsProvider signals a nil session analytics provider
var ErrNilSessionAnalyticsProvider = errors.New("nil session analytics provider")

// ErrNilHealthProvider signals a nil health provider
var ErrNilHealthProvider = errors.New("nil health provider")
