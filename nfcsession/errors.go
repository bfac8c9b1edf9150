package nfcsession

import (
	"errors"
	"fmt"
)

// Steps of a read request, reported in RequestError.
const (
	StepRequestTechnology = "requestTechnology"
	StepRegisterTagEvent  = "registerTagEvent"
)

var (
	// ErrAlreadyPending is returned by RequestRead while another request is outstanding.
	ErrAlreadyPending = errors.New("nfc request already pending")

	// ErrInert is returned by RequestRead when the hardware failed to start.
	ErrInert = errors.New("nfc unavailable")

	// ErrNotStarted is returned by RequestRead before Start.
	ErrNotStarted = errors.New("nfc session not started")

	// ErrStopped is returned by Start and RequestRead after Stop.
	ErrStopped = errors.New("nfc session stopped")
)

// RequestError reports a failed read request. The outstanding technology
// request has already been cancelled when it is returned.
type RequestError struct {
	Step string
	Err  error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// InitError reports that the hardware could not be started. The session
// stays inert afterwards.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("nfc hardware start failed: %v", e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
