package model

import "fmt"

// ValidationError reports malformed or missing input, rejected before any
// external call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UpstreamError reports a non-success response from a third-party service.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Service, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s error: %s", e.Service, e.Body)
}

// TimeoutError reports that render polling exhausted its attempt budget
// without observing a terminal state.
type TimeoutError struct {
	RenderID string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("render %s did not reach a terminal state after %d polling attempts", e.RenderID, e.Attempts)
}

// NotReadyError reports a playback request for a render that has not reached
// done yet. It is a legitimate transient state, not a failure.
type NotReadyError struct {
	Status RenderState
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("render not ready: %s", e.Status)
}

// PersistenceError reports a failed state-store write. The pipeline logs
// these and keeps going; a lost checkpoint is less harmful than a lost
// render.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("state store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
