// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"net/url"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// CreateRun starts the agent on a thread. The run begins queued; use
// [Client.PollRun] or [Client.StreamRun] to drive it to completion.
func (c *Client) CreateRun(ctx context.Context, threadID string, opts CreateRunOptions) (*Run, error) {
	if err := requireID("thread", threadID); err != nil {
		return nil, err
	}
	if err := requireID("agent", opts.AgentID); err != nil {
		return nil, err
	}
	req := createRunRequest{CreateRunOptions: opts, ToolChoice: toolChoiceWire(opts.ToolChoice)}
	var out Run
	if err := c.post(ctx, threadPath(threadID)+"/runs", req, &out); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &out, nil
}

// CreateThreadAndRun creates a thread from thread and starts a run on it in one call.
func (c *Client) CreateThreadAndRun(ctx context.Context, thread *CreateThreadOptions, opts CreateRunOptions) (*Run, error) {
	if err := requireID("agent", opts.AgentID); err != nil {
		return nil, err
	}
	req := createThreadAndRunRequest{
		CreateRunOptions: opts,
		Thread:           thread,
		ToolChoice:       toolChoiceWire(opts.ToolChoice),
	}
	var out Run
	if err := c.post(ctx, "/threads/runs", req, &out); err != nil {
		return nil, fmt.Errorf("create thread and run: %w", err)
	}
	return &out, nil
}

// GetRun retrieves the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	if err := requireRun(threadID, runID); err != nil {
		return nil, err
	}
	var out Run
	if err := c.get(ctx, runPath(threadID, runID), nil, &out); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &out, nil
}

// CancelRun asks the service to stop a run. The returned run is usually
// in the cancelling state.
func (c *Client) CancelRun(ctx context.Context, threadID, runID string) (*Run, error) {
	if err := requireRun(threadID, runID); err != nil {
		return nil, err
	}
	var out Run
	if err := c.post(ctx, runPath(threadID, runID)+"/cancel", nil, &out); err != nil {
		return nil, fmt.Errorf("cancel run: %w", err)
	}
	return &out, nil
}

// SubmitToolOutputs returns client-side tool results to a run in the
// requires_action state.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	if err := requireRun(threadID, runID); err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no tool outputs to submit", af.ErrInvalidRequest)
	}
	var out Run
	req := submitToolOutputsRequest{ToolOutputs: outputs}
	if err := c.post(ctx, runPath(threadID, runID)+"/submit_tool_outputs", req, &out); err != nil {
		return nil, fmt.Errorf("submit tool outputs: %w", err)
	}
	return &out, nil
}

// ListRunSteps returns one page of the steps a run performed.
func (c *Client) ListRunSteps(ctx context.Context, threadID, runID string, opts *ListOptions) (*ListResponse[RunStep], error) {
	if err := requireRun(threadID, runID); err != nil {
		return nil, err
	}
	var out ListResponse[RunStep]
	if err := c.get(ctx, runPath(threadID, runID)+"/steps", opts.query(), &out); err != nil {
		return nil, fmt.Errorf("list run steps: %w", err)
	}
	return &out, nil
}

// GetRunStep retrieves a single run step.
func (c *Client) GetRunStep(ctx context.Context, threadID, runID, stepID string) (*RunStep, error) {
	if err := requireRun(threadID, runID); err != nil {
		return nil, err
	}
	if err := requireID("step", stepID); err != nil {
		return nil, err
	}
	var out RunStep
	if err := c.get(ctx, runPath(threadID, runID)+"/steps/"+url.PathEscape(stepID), nil, &out); err != nil {
		return nil, fmt.Errorf("get run step: %w", err)
	}
	return &out, nil
}

func requireRun(threadID, runID string) error {
	if err := requireID("thread", threadID); err != nil {
		return err
	}
	return requireID("run", runID)
}

// toolCalls converts a submit_tool_outputs action into calls for an [af.ToolSet].
func (r *Run) toolCalls() []af.ToolCall {
	if r.RequiredAction == nil || r.RequiredAction.SubmitToolOutputs == nil {
		return nil
	}
	calls := make([]af.ToolCall, 0, len(r.RequiredAction.SubmitToolOutputs.ToolCalls))
	for _, tc := range r.RequiredAction.SubmitToolOutputs.ToolCalls {
		calls = append(calls, af.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	return calls
}

// Err returns a [af.RunError] for runs that ended in any status other than
// completed, and nil otherwise.
func (r *Run) Err() error {
	if r == nil || !r.Status.IsTerminal() || r.Status == RunStatusCompleted {
		return nil
	}
	e := &af.RunError{RunID: r.ID, Status: string(r.Status)}
	switch {
	case r.LastError != nil:
		e.Code = r.LastError.Code
		e.Message = r.LastError.Message
	case r.IncompleteDetails != nil:
		e.Message = r.IncompleteDetails.Reason
	}
	return e
}
