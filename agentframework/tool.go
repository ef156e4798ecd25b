// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
)

// Tool defines a client-side function the agent service (or a chat model) may
// ask the caller to execute.
type Tool interface {
	// Name returns the function name as exposed to the model.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Parameters returns the JSON Schema describing the function's input.
	Parameters() json.RawMessage

	// Invoke calls the function with the given JSON arguments.
	Invoke(ctx context.Context, args json.RawMessage) (any, error)
}

// FunctionTool is a concrete [Tool] backed by a Go function.
type FunctionTool struct {
	name        string
	description string
	parameters  json.RawMessage
	fn          func(ctx context.Context, args json.RawMessage) (any, error)
	skipSchema  bool
}

// ToolOption configures a [FunctionTool].
type ToolOption func(*FunctionTool)

// WithoutArgumentValidation disables schema validation of the arguments the
// service sends for this tool.
func WithoutArgumentValidation() ToolOption {
	return func(t *FunctionTool) { t.skipSchema = true }
}

// NewTool creates a [FunctionTool] with raw JSON schema and handler.
// A nil parameters schema is sent as an empty object schema.
func NewTool(name, description string, parameters json.RawMessage, fn func(ctx context.Context, args json.RawMessage) (any, error), opts ...ToolOption) *FunctionTool {
	if len(parameters) == 0 {
		parameters = json.RawMessage(`{"type":"object","properties":{}}`)
	}
	t := &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTypedTool creates a [FunctionTool] that generates its JSON Schema from the
// Args type parameter and decodes arguments into it.
//
// The Args type should be a struct with json tags. Use the `jsonschema` struct tag
// for additional schema metadata:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=City and state,required"`
//	    Unit     string `json:"unit,omitempty" jsonschema:"enum=c,enum=f"`
//	}
func NewTypedTool[Args any](name, description string, fn func(ctx context.Context, args Args) (any, error), opts ...ToolOption) *FunctionTool {
	schema := GenerateSchema[Args]()

	wrapped := func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args Args
		if len(raw) == 0 {
			raw = json.RawMessage(`{}`)
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, &ToolError{
				ToolName: name,
				Message:  "invalid arguments: " + err.Error(),
				Err:      ErrToolExecution,
			}
		}
		return fn(ctx, args)
	}

	return NewTool(name, description, schema, wrapped, opts...)
}

func (t *FunctionTool) Name() string               { return t.name }
func (t *FunctionTool) Description() string        { return t.description }
func (t *FunctionTool) Parameters() json.RawMessage { return t.parameters }

// ValidatesArguments reports whether arguments are checked against the schema
// before Invoke is called.
func (t *FunctionTool) ValidatesArguments() bool { return !t.skipSchema }

// Invoke calls the tool's backing function.
func (t *FunctionTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	if t.fn == nil {
		return nil, &ToolError{
			ToolName: t.name,
			Message:  "tool has no handler",
			Err:      ErrToolExecution,
		}
	}
	return t.fn(ctx, args)
}

// EncodeResult renders a tool result as the string sent back to the service.
// Strings pass through; everything else is JSON-encoded.
func EncodeResult(v any) (string, error) {
	switch r := v.(type) {
	case string:
		return r, nil
	case nil:
		return "", nil
	case json.RawMessage:
		return string(r), nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}
