// Copyright (c) Microsoft. All rights reserved.

// Package agentframework provides the provider-neutral building blocks shared
// by the agents and openai packages: chat messages and content, client-side
// tools with schema generation and argument validation, tool-call resolution,
// middleware, streaming, and the error taxonomy.
//
// # Tools
//
// Use [NewTypedTool] for type-safe tools with automatic JSON Schema generation:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=City name,required"`
//	    Unit     string `json:"unit,omitempty" jsonschema:"enum=celsius,enum=fahrenheit"`
//	}
//
//	tool := agentframework.NewTypedTool("get_weather", "Get current weather",
//	    func(ctx context.Context, args WeatherArgs) (any, error) {
//	        return fetchWeather(args.Location, args.Unit)
//	    },
//	)
//
// Register tools in a [ToolSet]. The agents package hands a ToolSet the
// function calls of a run in the requires_action state; [RunChatTools] drives
// the same loop against a [ChatClient].
//
//	tools := agentframework.NewToolSet([]agentframework.Tool{tool},
//	    agentframework.WithFunctionMiddleware(agentframework.LoggingFunctionMiddleware(logger)),
//	)
//
// # Errors
//
// Failures wrap one of the sentinel errors ([ErrService], [ErrRun], [ErrTool])
// so callers can branch with errors.Is, and carry detail in [ServiceError],
// [RunError] or [ToolError] for errors.As.
//
// # Streaming
//
// [ResponseStream] is a generic pull-based iterator used for both chat
// completion chunks and agent run events.
package agentframework
