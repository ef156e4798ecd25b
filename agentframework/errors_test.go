// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"errors"
	"fmt"
	"testing"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

func TestSentinelHierarchy(t *testing.T) {
	tests := []struct {
		err    error
		parent error
	}{
		{af.ErrAuth, af.ErrService},
		{af.ErrNotFound, af.ErrService},
		{af.ErrRateLimited, af.ErrService},
		{af.ErrContentFilter, af.ErrService},
		{af.ErrInvalidRequest, af.ErrService},
		{af.ErrInvalidResponse, af.ErrService},
		{af.ErrRunFailed, af.ErrRun},
		{af.ErrRunTimeout, af.ErrRun},
		{af.ErrToolExecution, af.ErrTool},
		{af.ErrUnknownTool, af.ErrTool},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.parent) {
			t.Errorf("%v should wrap %v", tt.err, tt.parent)
		}
	}
	if errors.Is(af.ErrRunFailed, af.ErrService) {
		t.Error("run errors are not service errors")
	}
}

func TestServiceError(t *testing.T) {
	base := &af.ServiceError{
		StatusCode: 404,
		Message:    "No assistant found with id 'asst_x'",
		Code:       "not_found",
		Err:        af.ErrNotFound,
	}
	err := fmt.Errorf("get agent: %w", base)

	if !errors.Is(err, af.ErrNotFound) {
		t.Error("should match ErrNotFound")
	}
	if !errors.Is(err, af.ErrService) {
		t.Error("should match ErrService")
	}

	var se *af.ServiceError
	if !errors.As(err, &se) {
		t.Fatal("errors.As failed")
	}
	if se.StatusCode != 404 {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
	want := "service error 404 (not_found): No assistant found with id 'asst_x'"
	if se.Error() != want {
		t.Errorf("Error() = %q, want %q", se.Error(), want)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   error
	}{
		{400, "content_filter", af.ErrContentFilter},
		{401, "", af.ErrAuth},
		{403, "", af.ErrAuth},
		{404, "", af.ErrNotFound},
		{429, "", af.ErrRateLimited},
		{400, "", af.ErrInvalidRequest},
		{422, "", af.ErrInvalidRequest},
		{500, "", af.ErrService},
		{503, "server_error", af.ErrService},
	}
	for _, tt := range tests {
		if got := af.ClassifyStatus(tt.status, tt.code); got != tt.want {
			t.Errorf("ClassifyStatus(%d, %q) = %v, want %v", tt.status, tt.code, got, tt.want)
		}
	}
}

func TestToolError(t *testing.T) {
	err := &af.ToolError{ToolName: "lookup", Message: "timed out", Err: af.ErrToolExecution}
	if !errors.Is(err, af.ErrTool) {
		t.Error("should match ErrTool")
	}
	if err.Error() != `tool "lookup": timed out` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRunError(t *testing.T) {
	err := fmt.Errorf("process run: %w", &af.RunError{
		RunID:   "run_1",
		Status:  "failed",
		Code:    "rate_limit_exceeded",
		Message: "quota exhausted",
	})
	if !errors.Is(err, af.ErrRunFailed) {
		t.Error("should match ErrRunFailed")
	}
	var re *af.RunError
	if !errors.As(err, &re) || re.Status != "failed" {
		t.Fatalf("RunError = %+v", re)
	}
	if re.Error() != "run run_1 failed (rate_limit_exceeded): quota exhausted" {
		t.Errorf("Error() = %q", re.Error())
	}

	bare := &af.RunError{RunID: "run_2", Status: "expired"}
	if bare.Error() != "run run_2 expired" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
