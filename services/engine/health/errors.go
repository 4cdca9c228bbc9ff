package health

import (
	"errors"
	"net/http"
)

// ErrNilProbe signals a nil probe
var ErrNilProbe = errors.New("nil probe")

// ErrNoProbes signals an empty probes list
var ErrNoProbes = errors.New("no probes provided")

// ErrDuplicateProbe signals two probes reporting for the same component
var ErrDuplicateProbe = errors.New("duplicate probe")

// ErrNilErrorRecorder signals a nil error recorder
var ErrNilErrorRecorder = errors.New("nil error recorder")

// ErrNilRUMProvider signals a nil RUM provider
var ErrNilRUMProvider = errors.New("nil RUM provider")

// ErrAlreadyStarted signals that the health monitoring is already running
var ErrAlreadyStarted = errors.New("health monitoring already started")

// ErrEmptyComponent signals an empty component name
var ErrEmptyComponent = errors.New("empty component name")

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return "non-2xx HTTP status code: " + http.StatusText(int(e))
}

type errUnhealthyStatus string

func (e errUnhealthyStatus) Error() string {
	return "remote API reported status: " + string(e)
}
