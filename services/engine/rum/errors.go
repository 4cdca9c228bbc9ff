package rum

import "errors"

// ErrNilVitalsSource signals a nil vitals source
var ErrNilVitalsSource = errors.New("nil vitals source")

// ErrNoActiveSession signals that the operation requires a started session
var ErrNoActiveSession = errors.New("no active session")

// ErrInvalidInteractionType signals an unknown interaction type
var ErrInvalidInteractionType = errors.New("invalid interaction type")

// ErrEmptyURL signals an empty page URL
var ErrEmptyURL = errors.New("empty URL")

// ErrInvalidLoadTime signals a negative, NaN or infinite page load time
var ErrInvalidLoadTime = errors.New("invalid load time")
