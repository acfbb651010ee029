// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrAgent is the base error for agent-related failures.
	ErrAgent = errors.New("agent error")

	// ErrRun indicates a failure while driving a remote run.
	ErrRun = fmt.Errorf("%w: run", ErrAgent)

	// ErrRunFailed indicates the remote run reached a terminal failure
	// status (failed, expired, or cancelled). Not retried.
	ErrRunFailed = fmt.Errorf("%w: terminal failure", ErrRun)

	// ErrThread indicates a conversation thread lifecycle failure.
	ErrThread = fmt.Errorf("%w: thread", ErrAgent)

	// ErrService is the base error for remote service failures.
	ErrService = errors.New("service error")

	// ErrInvalidRequest indicates the request was malformed or invalid.
	ErrInvalidRequest = fmt.Errorf("%w: invalid request", ErrService)

	// ErrAuth indicates an authentication or authorization failure.
	ErrAuth = fmt.Errorf("%w: authentication", ErrService)

	// ErrNotFound indicates the requested remote resource does not exist.
	// During message projection this is expected shortly after step
	// completion and absorbed by bounded retry.
	ErrNotFound = fmt.Errorf("%w: not found", ErrService)

	// ErrTool is the base error for tool-related failures.
	ErrTool = errors.New("tool error")

	// ErrToolExecution indicates a failure during tool invocation.
	ErrToolExecution = fmt.Errorf("%w: execution", ErrTool)
)

// ServiceError provides rich context for remote service failures.
// Use errors.As to extract it from a wrapped error chain.
//
// A zero StatusCode means the failure happened below the HTTP layer
// (connection reset, DNS, timeout) and never reached the service.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("service error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("service error %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ToolError provides context for tool invocation failures.
type ToolError struct {
	ToolName string
	Message  string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q: %s", e.ToolName, e.Message)
}

func (e *ToolError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a client-level failure that never
// reached the service and is therefore safe to retry. Explicit service
// responses (any HTTP status) and context cancellation are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.StatusCode == 0
	}
	return !errors.Is(err, ErrService)
}
