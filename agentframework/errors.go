// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrService is the base error for backend service failures.
	ErrService = errors.New("service error")

	// ErrContentFilter indicates the request was rejected by a content filter.
	ErrContentFilter = fmt.Errorf("%w: content filter", ErrService)

	// ErrInvalidRequest indicates the request was malformed or invalid.
	ErrInvalidRequest = fmt.Errorf("%w: invalid request", ErrService)

	// ErrInvalidResponse indicates the service returned an unexpected response.
	ErrInvalidResponse = fmt.Errorf("%w: invalid response", ErrService)

	// ErrAuth indicates an authentication or authorization failure.
	ErrAuth = fmt.Errorf("%w: authentication", ErrService)

	// ErrNotFound indicates the addressed resource does not exist.
	ErrNotFound = fmt.Errorf("%w: not found", ErrService)

	// ErrRateLimited indicates the service throttled the request.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrService)

	// ErrRun is the base error for run lifecycle failures.
	ErrRun = errors.New("run error")

	// ErrRunFailed indicates a run reached a terminal status other than completed.
	ErrRunFailed = fmt.Errorf("%w: unsuccessful", ErrRun)

	// ErrRunTimeout indicates the caller stopped waiting for a run.
	ErrRunTimeout = fmt.Errorf("%w: timeout", ErrRun)

	// ErrTool is the base error for tool-related failures.
	ErrTool = errors.New("tool error")

	// ErrToolExecution indicates a failure during tool invocation.
	ErrToolExecution = fmt.Errorf("%w: execution", ErrTool)

	// ErrUnknownTool indicates the service requested a tool the client does not have.
	ErrUnknownTool = fmt.Errorf("%w: unknown tool", ErrTool)
)

// ServiceError provides rich context for backend service failures.
// Use errors.As to extract it from a wrapped error chain.
type ServiceError struct {
	StatusCode int
	Message    string
	Code       string
	RequestID  string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("service error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("service error %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ClassifyStatus maps an HTTP status and service error code to the matching sentinel.
func ClassifyStatus(status int, code string) error {
	switch {
	case code == "content_filter":
		return ErrContentFilter
	case status == 401 || status == 403:
		return ErrAuth
	case status == 404:
		return ErrNotFound
	case status == 429:
		return ErrRateLimited
	case status == 400 || status == 422:
		return ErrInvalidRequest
	default:
		return ErrService
	}
}

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

// RunError reports a run that ended in a status other than completed.
type RunError struct {
	RunID   string
	Status  string
	Code    string
	Message string
}

func (e *RunError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("run %s %s (%s): %s", e.RunID, e.Status, e.Code, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("run %s %s: %s", e.RunID, e.Status, e.Message)
	}
	return fmt.Sprintf("run %s %s", e.RunID, e.Status)
}

func (e *RunError) Unwrap() error { return ErrRunFailed }
