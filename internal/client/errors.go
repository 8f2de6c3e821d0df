package client

import (
	"errors"
	"fmt"
	"strings"
)

// GenericFailure is shown when an error carries no usable message.
const GenericFailure = "Failed to review code"

// EmptyCodeMessage is the local validation error for blank submissions.
const EmptyCodeMessage = "Please enter some code to review"

// ErrEmptyCode is returned when the submitted code is blank after trimming.
var ErrEmptyCode = &ValidationError{Message: EmptyCodeMessage}

// ValidationError is a client-side rejection; no request was sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RemoteError is a non-2xx response from the review service.
type RemoteError struct {
	Status int
	Detail string // empty when the body had no usable "detail"
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return GenericFailure
}

// TransportError wraps a failure that produced no usable response: the
// service was unreachable, or the success body could not be decoded.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message converts any error from this package into the single line shown to
// the user, falling back to GenericFailure when the error has no text.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		verr *ValidationError
		rerr *RemoteError
	)
	switch {
	case errors.As(err, &verr):
		return fallback(verr.Message)
	case errors.As(err, &rerr):
		return rerr.Error()
	default:
		return fallback(err.Error())
	}
}

// Kind names the error category for logs.
func Kind(err error) string {
	var (
		verr *ValidationError
		rerr *RemoteError
		terr *TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &rerr):
		return fmt.Sprintf("remote_%d", rerr.Status)
	case errors.As(err, &terr):
		return "transport"
	default:
		return "unknown"
	}
}

func fallback(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return GenericFailure
	}
	return msg
}
