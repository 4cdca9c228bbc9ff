package errtracker

import "errors"

// ErrNilAlertEvaluator signals a nil alert evaluator
var ErrNilAlertEvaluator = errors.New("nil alert evaluator")

// ErrErrorNotFound signals that no error record has the provided ID
var ErrErrorNotFound = errors.New("error not found")

// ErrGroupNotFound signals that no error record has the provided fingerprint
var ErrGroupNotFound = errors.New("error group not found")

// ErrEmptyTag signals an empty tag
var ErrEmptyTag = errors.New("empty tag")
