// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// CreateRunStream starts a run and returns its event stream.
// Callers must Close the stream.
func (c *Client) CreateRunStream(ctx context.Context, threadID string, opts CreateRunOptions) (*af.ResponseStream[StreamEvent], error) {
	if err := requireID("thread", threadID); err != nil {
		return nil, err
	}
	if err := requireID("agent", opts.AgentID); err != nil {
		return nil, err
	}
	req := createRunRequest{CreateRunOptions: opts, ToolChoice: toolChoiceWire(opts.ToolChoice), Stream: true}
	return c.openStream(ctx, threadPath(threadID)+"/runs", req)
}

// CreateThreadAndRunStream creates a thread, starts a run on it and returns
// the event stream. The first event carries the new thread.
func (c *Client) CreateThreadAndRunStream(ctx context.Context, thread *CreateThreadOptions, opts CreateRunOptions) (*af.ResponseStream[StreamEvent], error) {
	if err := requireID("agent", opts.AgentID); err != nil {
		return nil, err
	}
	req := createThreadAndRunRequest{
		CreateRunOptions: opts,
		Thread:           thread,
		ToolChoice:       toolChoiceWire(opts.ToolChoice),
		Stream:           true,
	}
	return c.openStream(ctx, "/threads/runs", req)
}

// SubmitToolOutputsStream submits tool outputs and returns the event stream
// of the resumed run.
func (c *Client) SubmitToolOutputsStream(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*af.ResponseStream[StreamEvent], error) {
	if err := requireRun(threadID, runID); err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no tool outputs to submit", af.ErrInvalidRequest)
	}
	req := submitToolOutputsRequest{ToolOutputs: outputs, Stream: true}
	return c.openStream(ctx, runPath(threadID, runID)+"/submit_tool_outputs", req)
}

func (c *Client) openStream(ctx context.Context, path string, body any) (*af.ResponseStream[StreamEvent], error) {
	rc, err := c.http.Stream(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	return af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- StreamEvent) error {
		// Closing the body unblocks a pending read when the stream is closed early.
		stop := context.AfterFunc(ctx, func() { rc.Close() })
		defer stop()
		defer rc.Close()
		return readEvents(ctx, rc, ch)
	}), nil
}

// StreamOptions controls [Client.StreamRun].
type StreamOptions struct {
	// Tools resolves function calls when the run requires action. A run that
	// requires action without tools is cancelled.
	Tools *af.ToolSet

	// OnEvent is called with every event in arrival order.
	OnEvent func(StreamEvent)

	// MaxToolRounds bounds requires_action rounds. Zero uses DefaultMaxToolRounds.
	MaxToolRounds int

	// FailOnUnsuccessful returns a *af.RunError for runs that end in any
	// status other than completed.
	FailOnUnsuccessful bool
}

// StreamRun starts a streaming run and consumes its events until the
// service sends done. When the run requires action the tool calls are
// resolved and streaming continues from the submitted outputs. It returns
// the last run state observed.
func (c *Client) StreamRun(ctx context.Context, threadID string, run CreateRunOptions, opts *StreamOptions) (*Run, error) {
	var o StreamOptions
	if opts != nil {
		o = *opts
	}
	if o.MaxToolRounds <= 0 {
		o.MaxToolRounds = DefaultMaxToolRounds
	}

	stream, err := c.CreateRunStream(ctx, threadID, run)
	if err != nil {
		return nil, err
	}

	var last *Run
	rounds := 0
	for {
		pending, err := consumeRunStream(ctx, stream, o.OnEvent, &last)
		stream.Close()
		if err != nil {
			return last, err
		}
		if pending == nil {
			break
		}

		rounds++
		if rounds > o.MaxToolRounds {
			c.abandonRun(ctx, pending, "tool round limit reached")
			return pending, fmt.Errorf("%w: run %s exceeded %d tool rounds", af.ErrToolExecution, pending.ID, o.MaxToolRounds)
		}
		outputs, err := c.resolveRequiredAction(ctx, pending, o.Tools)
		if err != nil {
			return pending, err
		}
		stream, err = c.SubmitToolOutputsStream(ctx, threadID, pending.ID, outputs)
		if err != nil {
			return pending, err
		}
	}

	if last == nil {
		return nil, fmt.Errorf("%w: stream ended without run state", af.ErrInvalidResponse)
	}
	slog.DebugContext(ctx, "stream finished", "thread_id", threadID, "run_id", last.ID, "status", last.Status)
	if o.FailOnUnsuccessful {
		if err := last.Err(); err != nil {
			return last, err
		}
	}
	return last, nil
}

// consumeRunStream drains stream, records the latest run in *last and
// returns the run that requires action, if any.
func consumeRunStream(ctx context.Context, stream *af.ResponseStream[StreamEvent], onEvent func(StreamEvent), last **Run) (*Run, error) {
	var pending *Run
	for ev, err := range stream.All(ctx) {
		if err != nil {
			return nil, err
		}
		if onEvent != nil {
			onEvent(ev)
		}
		if re, ok := ev.(*RunEvent); ok {
			run := re.Run
			*last = &run
			if re.Event == EventRunRequiresAction {
				pending = &run
			}
		}
	}
	return pending, nil
}
