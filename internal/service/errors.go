package service

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks
var (
	ErrTransport = errors.New("service transport failure")
	ErrShape     = errors.New("unexpected response shape")
)

// TransportError reports a network failure or a non-2xx response
type TransportError struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ShapeError reports a 2xx response whose body does not match the stage contract.
// It is a transport failure as far as callers are concerned.
type ShapeError struct {
	Endpoint string
	Err      error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: unexpected response: %v", e.Endpoint, e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }

func (e *ShapeError) Is(target error) bool {
	return target == ErrShape || target == ErrTransport
}
