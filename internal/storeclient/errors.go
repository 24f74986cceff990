package storeclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidSubscriptionID is returned before any request is sent for ids
// that cannot name a subscription.
var ErrInvalidSubscriptionID = errors.New("invalid subscription id")

// HTTPError is returned for any non-2xx answer of the API store.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("store api %s %s: %s", e.Method, e.URL, e.Status)
}

// IsNotModified reports whether err is a 304 answer to a conditional GET.
func IsNotModified(err error) bool {
	return hasStatus(err, http.StatusNotModified)
}

// IsPreconditionFailed reports whether err is a 412 answer.
func IsPreconditionFailed(err error) bool {
	return hasStatus(err, http.StatusPreconditionFailed)
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func hasStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}
