package services

import "fmt"

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// DecodeError is a 2xx response whose body is not the expected JSON object.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return "decode backend response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }
