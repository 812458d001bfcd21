package swap

import (
	"errors"
	"net/http"
)

// Error is a request-level failure carrying an HTTP status and structured
// diagnostic data (which strategies ran, per-venue errors) so failures can be
// diagnosed without re-running the request.
type Error struct {
	Status  int
	Message string
	Data    any
}

func (e *Error) Error() string { return e.Message }

func NewNotFound(message string, data any) *Error {
	return &Error{Status: http.StatusNotFound, Message: message, Data: data}
}

func NewBadRequest(message string, data any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Data: data}
}

func NewInternal(message string, data any) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, Data: data}
}

// AsError unwraps err into a *Error, or wraps it as an internal error.
func AsError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return NewInternal(err.Error(), nil)
}
