package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failed exchange independently of its message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindRequest
	KindCanceled
	KindTimeout
	KindAborted
	KindNetwork
	KindStatus
	KindInvalidData
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindCanceled:
		return "canceled"
	case KindTimeout:
		return "timeout"
	case KindAborted:
		return "aborted"
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindInvalidData:
		return "invalid_data"
	default:
		return "unknown"
	}
}

// Machine messages produced by the transport.
const (
	msgCanceled = "canceled"
	msgAborted  = "Request aborted"
	msgNetwork  = "Network Error"
	msgStatus   = "Request failed with status code %d"
	msgTimeout  = "timeout of %dms exceeded"
)

// Error is the envelope every failed exchange is rejected with.
//
// Message is what gets displayed and may be rewritten by interceptors; Code
// keeps the machine message it was rewritten from.
type Error struct {
	Kind    Kind
	Message string
	Code    string

	Request  *Request
	Response *Response

	// Timeout is the limit that was exceeded, set for KindTimeout.
	Timeout time.Duration

	Elapsed float64
	Timed   bool

	Err error

	transport bool
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// FromTransport reports whether e was created by the client for a failed
// exchange, as opposed to by an interceptor or a caller.
func (e *Error) FromTransport() bool {
	return e != nil && e.transport
}

// StatusCode returns the HTTP status of the attached response, or 0.
func (e *Error) StatusCode() int {
	if e == nil || e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// IsCancel reports whether err is the outcome of the caller canceling the request.
func IsCancel(err error) bool {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindCanceled {
		return true
	}

	return errors.Is(err, context.Canceled)
}

// AsError returns the *Error in err's chain, wrapping err into a new
// KindUnknown envelope when there is none.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{Kind: KindUnknown, Message: err.Error(), Code: err.Error(), Err: err}
}

func newError(kind Kind, message string, req *Request, err error) *Error {
	return &Error{Kind: kind, Message: message, Code: message, Request: req, Err: err, transport: true}
}

func newStatusError(resp *Response) *Error {
	e := newError(KindStatus, fmt.Sprintf(msgStatus, resp.StatusCode), resp.Request, nil)
	e.Response = resp

	return e
}

func newTimeoutError(req *Request, timeout time.Duration, err error) *Error {
	e := newError(KindTimeout, fmt.Sprintf(msgTimeout, timeout.Milliseconds()), req, err)
	e.Timeout = timeout

	return e
}
