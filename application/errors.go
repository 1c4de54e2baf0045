package application

import (
	"errors"
	"fmt"
)

var (
	ErrDecode      = errors.New("decode error")
	ErrValidation  = errors.New("validation error")
	ErrRateLimited = errors.New("rate limited")
	ErrForward     = errors.New("forward error")
	ErrConnection  = errors.New("connection error")
)

// DecodeError is returned when a payload is not UTF-8 encoded JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %v", ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// ValidationError is returned when a decoded payload lacks a usable field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: field %q %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ForwardError describes a reading the storage API did not accept. Either
// StatusCode/Body or Err is set.
type ForwardError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ForwardError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", ErrForward, e.Err)
	}
	return fmt.Sprintf("%v: status %d: %s", ErrForward, e.StatusCode, e.Body)
}

func (e *ForwardError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrForward, e.Err}
	}
	return []error{ErrForward}
}

// ConnectionError is fatal for the bridge. Code holds the CONNACK return
// code when the broker refused the connection.
type ConnectionError struct {
	Code byte
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", ErrConnection, e.Err)
	}
	return fmt.Sprintf("%v: broker returned code %d", ErrConnection, e.Code)
}

func (e *ConnectionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConnection, e.Err}
	}
	return []error{ErrConnection}
}
