// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// cancelTimeout bounds the best-effort cancel issued when a run is abandoned.
const cancelTimeout = 10 * time.Second

// PollOptions controls [Client.PollRun].
type PollOptions struct {
	// Interval between status checks. Zero uses the client's poll interval.
	Interval time.Duration

	// Tools resolves function calls when the run requires action. A run that
	// requires action without tools is cancelled.
	Tools *af.ToolSet

	// OnStatus is called with every observed run state.
	OnStatus func(*Run)

	// MaxToolRounds bounds requires_action rounds. Zero uses DefaultMaxToolRounds.
	MaxToolRounds int

	// FailOnUnsuccessful returns a *af.RunError for runs that end in any
	// status other than completed.
	FailOnUnsuccessful bool
}

// PollRun waits for a run to reach a terminal status, submitting tool
// outputs whenever the run requires action. Each iteration sleeps first and
// then fetches the run.
//
// When ctx ends the returned error wraps both [af.ErrRunTimeout] and the
// context error; the last observed run is returned with it.
func (c *Client) PollRun(ctx context.Context, threadID, runID string, opts *PollOptions) (*Run, error) {
	if err := requireRun(threadID, runID); err != nil {
		return nil, err
	}
	var o PollOptions
	if opts != nil {
		o = *opts
	}
	if o.Interval <= 0 {
		o.Interval = c.pollInterval
	}
	if o.MaxToolRounds <= 0 {
		o.MaxToolRounds = DefaultMaxToolRounds
	}

	var last *Run
	rounds := 0
	for {
		if err := sleep(ctx, o.Interval); err != nil {
			return last, fmt.Errorf("%w: run %s: %w", af.ErrRunTimeout, runID, err)
		}
		run, err := c.GetRun(ctx, threadID, runID)
		if err != nil {
			if ctx.Err() != nil {
				return last, fmt.Errorf("%w: run %s: %w", af.ErrRunTimeout, runID, ctx.Err())
			}
			return last, err
		}
		last = run
		slog.DebugContext(ctx, "run status", "thread_id", threadID, "run_id", runID, "status", run.Status)
		if o.OnStatus != nil {
			o.OnStatus(run)
		}

		if run.Status.IsTerminal() {
			break
		}
		if run.Status != RunStatusRequiresAction {
			continue
		}

		rounds++
		if rounds > o.MaxToolRounds {
			c.abandonRun(ctx, run, "tool round limit reached")
			return run, fmt.Errorf("%w: run %s exceeded %d tool rounds", af.ErrToolExecution, runID, o.MaxToolRounds)
		}
		outputs, err := c.resolveRequiredAction(ctx, run, o.Tools)
		if err != nil {
			return run, err
		}
		if _, err := c.SubmitToolOutputs(ctx, threadID, runID, outputs); err != nil {
			return run, err
		}
	}

	if o.FailOnUnsuccessful {
		if err := last.Err(); err != nil {
			return last, err
		}
	}
	return last, nil
}

// CreateAndProcessRun creates a run and polls it to a terminal status.
func (c *Client) CreateAndProcessRun(ctx context.Context, threadID string, run CreateRunOptions, opts *PollOptions) (*Run, error) {
	created, err := c.CreateRun(ctx, threadID, run)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "run created", "thread_id", threadID, "run_id", created.ID, "status", created.Status)
	if opts != nil && opts.OnStatus != nil {
		opts.OnStatus(created)
	}
	return c.PollRun(ctx, threadID, created.ID, opts)
}

// resolveRequiredAction runs the requested function calls and returns their
// outputs. The run is cancelled when the action cannot be satisfied.
func (c *Client) resolveRequiredAction(ctx context.Context, run *Run, tools *af.ToolSet) ([]ToolOutput, error) {
	if run.RequiredAction == nil || run.RequiredAction.Type != submitToolOutputsActionType {
		c.abandonRun(ctx, run, "unsupported required action")
		return nil, fmt.Errorf("%w: run %s requires an unsupported action", af.ErrToolExecution, run.ID)
	}
	if tools == nil {
		c.abandonRun(ctx, run, "no tools configured")
		return nil, fmt.Errorf("%w: run %s requires tool outputs but no tools are configured", af.ErrToolExecution, run.ID)
	}

	calls := run.toolCalls()
	if len(calls) == 0 {
		c.abandonRun(ctx, run, "no tool calls requested")
		return nil, fmt.Errorf("%w: run %s requires tool outputs but lists no tool calls", af.ErrToolExecution, run.ID)
	}
	results, err := tools.Resolve(ctx, calls)
	if err != nil {
		c.abandonRun(ctx, run, "tool resolution failed")
		return nil, err
	}
	outputs := make([]ToolOutput, 0, len(results))
	for _, r := range results {
		outputs = append(outputs, ToolOutput{ToolCallID: r.CallID, Output: r.Output})
	}
	slog.DebugContext(ctx, "tool outputs resolved", "run_id", run.ID, "calls", len(calls))
	return outputs, nil
}

// abandonRun cancels a run the client will not drive further. It is best
// effort and runs even when ctx is already done.
func (c *Client) abandonRun(ctx context.Context, run *Run, reason string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()
	if _, err := c.CancelRun(cctx, run.ThreadID, run.ID); err != nil {
		slog.WarnContext(ctx, "cancel run failed", "run_id", run.ID, "reason", reason, "error", err)
		return
	}
	slog.DebugContext(ctx, "run cancelled", "run_id", run.ID, "reason", reason)
}
