package fetch

import (
	"errors"
	"net/url"
)

var (
	// ErrPoolClosed is returned by Acquire after the pool has shut down.
	ErrPoolClosed = errors.New("client pool is closed")

	// ErrTooManyRedirects is returned when an exchange crosses the hop
	// ceiling of a limited redirect policy.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Error is the flat failure shape returned to fetch callers. URL is empty
// when the failure is not tied to a request target, such as URL parse and
// cookie injection failures.
type Error struct {
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.URL != "" {
		return e.Message + " (" + e.URL + ")"
	}
	return e.Message
}

// wrapErr converts an exchange failure into *Error, recovering the
// offending URL from url.Error wrappers when present.
func wrapErr(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return &Error{URL: ue.URL, Message: ue.Err.Error()}
	}
	return &Error{Message: err.Error()}
}
