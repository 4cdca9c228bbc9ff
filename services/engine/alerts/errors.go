package alerts

import (
	"errors"
	"net/http"
)

// ErrNilNotifier signals a nil notifier
var ErrNilNotifier = errors.New("nil notifier")

// ErrInvalidRule signals a malformed alert rule
var ErrInvalidRule = errors.New("invalid alert rule")

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return "webhook returned non-2xx HTTP status code: " + http.StatusText(int(e))
}
