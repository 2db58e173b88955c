package controller

import "errors"

// ErrBusy is returned when the same action already has a request in flight.
var ErrBusy = errors.New("request already in flight")

// ValidationError is raised before any network call.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// RequestError covers transport failures, non-2xx statuses and undecodable
// bodies. Users only see a generic message; Err keeps the detail.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }
