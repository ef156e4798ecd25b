// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// InvocationConfig controls how tool calls are resolved.
type InvocationConfig struct {
	// MaxIterations is the maximum number of model round-trips in [RunChatTools].
	// Default: 40.
	MaxIterations int

	// MaxConsecutiveErrors is the maximum number of consecutive tool errors
	// in one batch before aborting. Default: 3.
	MaxConsecutiveErrors int

	// TerminateOnUnknown aborts if the service calls an unknown tool.
	TerminateOnUnknown bool

	// IncludeDetailedErrors includes full error text in tool results sent
	// back to the service. When false, a generic error message is used.
	IncludeDetailedErrors bool
}

// DefaultInvocationConfig returns the default configuration.
func DefaultInvocationConfig() InvocationConfig {
	return InvocationConfig{
		MaxIterations:        40,
		MaxConsecutiveErrors: 3,
	}
}

// ToolCall is a function call requested by the service.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult is the resolved output for a [ToolCall].
// Err is set when the output reports a failure instead of a tool value.
type ToolResult struct {
	CallID string
	Name   string
	Output string
	Err    error
}

// ToolSet is a registry of client-side tools keyed by name. It resolves the
// function calls a run or chat response asks for.
type ToolSet struct {
	tools      []Tool
	byName     map[string]Tool
	validators map[string]*argumentValidator
	config     InvocationConfig
	middleware []FunctionMiddleware
}

// ToolSetOption configures a [ToolSet].
type ToolSetOption func(*ToolSet)

// WithInvocationConfig overrides the default [InvocationConfig].
func WithInvocationConfig(cfg InvocationConfig) ToolSetOption {
	return func(s *ToolSet) { s.config = cfg }
}

// WithFunctionMiddleware adds [FunctionMiddleware] to the invocation pipeline.
func WithFunctionMiddleware(mws ...FunctionMiddleware) ToolSetOption {
	return func(s *ToolSet) { s.middleware = append(s.middleware, mws...) }
}

// NewToolSet registers tools. A later tool replaces an earlier one with the same name.
func NewToolSet(tools []Tool, opts ...ToolSetOption) *ToolSet {
	s := &ToolSet{
		byName:     make(map[string]Tool, len(tools)),
		validators: make(map[string]*argumentValidator, len(tools)),
		config:     DefaultInvocationConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.MaxIterations <= 0 {
		s.config.MaxIterations = 40
	}
	if s.config.MaxConsecutiveErrors <= 0 {
		s.config.MaxConsecutiveErrors = 3
	}
	index := make(map[string]int, len(tools))
	for _, t := range tools {
		if i, dup := index[t.Name()]; dup {
			s.tools[i] = t
		} else {
			index[t.Name()] = len(s.tools)
			s.tools = append(s.tools, t)
		}
		s.byName[t.Name()] = t
		delete(s.validators, t.Name())

		if ft, ok := t.(*FunctionTool); ok && !ft.ValidatesArguments() {
			continue
		}
		v, err := newArgumentValidator(t.Parameters())
		if err != nil {
			slog.Warn("tool schema not usable for validation", "tool", t.Name(), "error", err)
			continue
		}
		if v != nil {
			s.validators[t.Name()] = v
		}
	}
	return s
}

// Tools returns the registered tools in registration order.
func (s *ToolSet) Tools() []Tool {
	if s == nil {
		return nil
	}
	out := make([]Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// Lookup returns the tool registered under name.
func (s *ToolSet) Lookup(name string) (Tool, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.byName[name]
	return t, ok
}

// Config returns the invocation configuration in effect.
func (s *ToolSet) Config() InvocationConfig {
	if s == nil {
		return DefaultInvocationConfig()
	}
	return s.config
}

// Resolve invokes the tool for every call and returns one result per call in
// the same order. Validation failures, unknown tools and tool errors become
// error results; Resolve itself fails only when TerminateOnUnknown is set or
// MaxConsecutiveErrors is reached.
func (s *ToolSet) Resolve(ctx context.Context, calls []ToolCall) ([]ToolResult, error) {
	if s == nil {
		s = NewToolSet(nil)
	}
	results := make([]ToolResult, 0, len(calls))
	consecutiveErrors := 0

	fail := func(call ToolCall, err error, output string) error {
		consecutiveErrors++
		slog.WarnContext(ctx, "tool invocation error",
			"tool", call.Name,
			"call_id", call.ID,
			"error", err,
			"consecutive_errors", consecutiveErrors,
		)
		if consecutiveErrors >= s.config.MaxConsecutiveErrors {
			return fmt.Errorf("%w: max consecutive errors reached (%d)", ErrToolExecution, consecutiveErrors)
		}
		if output == "" {
			output = "error invoking tool"
			if s.config.IncludeDetailedErrors {
				output = err.Error()
			}
		}
		results = append(results, ToolResult{CallID: call.ID, Name: call.Name, Output: output, Err: err})
		return nil
	}

	for _, call := range calls {
		tool, ok := s.Lookup(call.Name)
		if !ok {
			if s.config.TerminateOnUnknown {
				return nil, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
			}
			if ferr := fail(call, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name), "error: unknown tool "+call.Name); ferr != nil {
				return nil, ferr
			}
			continue
		}

		args := json.RawMessage(call.Arguments)
		if v := s.validators[call.Name]; v != nil {
			if err := v.validate(args); err != nil {
				if ferr := fail(call, &ToolError{ToolName: call.Name, Message: err.Error(), Err: ErrToolExecution}, ""); ferr != nil {
					return nil, ferr
				}
				continue
			}
		}

		value, err := invokeToolWithMiddleware(ctx, tool, args, s.middleware)
		if err == nil {
			var out string
			out, err = EncodeResult(value)
			if err == nil {
				consecutiveErrors = 0
				results = append(results, ToolResult{CallID: call.ID, Name: call.Name, Output: out})
				continue
			}
		}
		if ferr := fail(call, err, ""); ferr != nil {
			return nil, ferr
		}
	}
	return results, nil
}

// RunChatTools runs the local tool-calling loop against a [ChatClient]: call
// the model, execute the function calls it returns, append the results, and
// call it again until it answers without tool calls. The tool set's tools are
// sent after any tools already in opts.
func RunChatTools(ctx context.Context, client ChatClient, messages []Message, opts *ChatOptions, tools *ToolSet) (*ChatResponse, error) {
	opts = MergeChatOptions(opts, &ChatOptions{Tools: tools.Tools()})

	maxIterations := tools.Config().MaxIterations
	for iteration := 0; iteration < maxIterations; iteration++ {
		resp, err := client.Response(ctx, messages, opts)
		if err != nil {
			return nil, err
		}

		calls := extractFunctionCalls(resp)
		if len(calls) == 0 || tools == nil {
			return resp, nil
		}

		results, err := tools.Resolve(ctx, calls)
		if err != nil {
			return nil, err
		}

		messages = append(messages, resp.Messages...)
		for _, r := range results {
			messages = append(messages, NewToolMessage(r.CallID, r.Output))
		}
	}

	return nil, fmt.Errorf("%w: max iterations reached (%d)", ErrToolExecution, maxIterations)
}

// extractFunctionCalls finds all FunctionCallContent in a response's messages.
func extractFunctionCalls(resp *ChatResponse) []ToolCall {
	var calls []ToolCall
	for _, msg := range resp.Messages {
		for _, c := range msg.Contents {
			if fc, ok := c.(*FunctionCallContent); ok {
				calls = append(calls, ToolCall{
					ID:        fc.CallID,
					Name:      fc.Name,
					Arguments: fc.Arguments,
				})
			}
		}
	}
	return calls
}

// invokeToolWithMiddleware runs the tool through the function middleware chain.
func invokeToolWithMiddleware(ctx context.Context, tool Tool, args json.RawMessage, mws []FunctionMiddleware) (any, error) {
	handler := func(ctx context.Context, t Tool, a json.RawMessage) (any, error) {
		return t.Invoke(ctx, a)
	}
	final := chainFunctionMiddleware(handler, mws...)
	return final(ctx, tool, args)
}
