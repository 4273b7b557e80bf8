package domain

import (
	"errors"
	"net/http"
)

// StatusError carries an HTTP-style status code alongside a message that is
// safe to show to users.
type StatusError struct {
	Status  int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// ErrProviderDisabled is returned for every search while no provider API key
// is configured.
var ErrProviderDisabled = NewStatusError(http.StatusInternalServerError, "TMDb API key not configured")

func NewStatusError(status int, message string) *StatusError {
	return &StatusError{Status: status, Message: message}
}

// StatusOf reports the status tag of err, if it has one.
func StatusOf(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Status > 0 {
		return statusErr.Status, true
	}
	return 0, false
}

// AsStatusError returns err unchanged when it already carries a status, and
// otherwise wraps it as a generic server error with the given message.
func AsStatusError(err error, fallbackMessage string) *StatusError {
	if err == nil {
		return nil
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Status > 0 {
		return statusErr
	}
	return &StatusError{
		Status:  http.StatusInternalServerError,
		Message: fallbackMessage,
		Err:     err,
	}
}
