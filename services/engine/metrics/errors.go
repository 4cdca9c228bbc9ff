package metrics

import "errors"

// ErrInvalidCategory signals an unknown metric category
var ErrInvalidCategory = errors.New("invalid metric category")

// ErrEmptyOperationID signals an operation started without an ID
var ErrEmptyOperationID = errors.New("empty operation ID")

// ErrUnknownOperation signals that EndOperation was called for an operation that was not started
var ErrUnknownOperation = errors.New("unknown operation")

// ErrNegativeDuration signals a negative duration provided to RecordMetric
var ErrNegativeDuration = errors.New("negative duration")

// ErrInvalidDuration signals a NaN or infinite duration provided to RecordMetric
var ErrInvalidDuration = errors.New("invalid duration")

// ErrNilFunction signals a nil unit of work provided to MeasureFunction
var ErrNilFunction = errors.New("nil function")
