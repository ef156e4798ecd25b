// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// LoggingChatMiddleware returns a [ChatMiddleware] that logs chat completions using slog.
func LoggingChatMiddleware(logger *slog.Logger) ChatMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ChatHandler) ChatHandler {
		return func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
			start := time.Now()
			logger.InfoContext(ctx, "chat completion started",
				"message_count", len(messages),
			)

			resp, err := next(ctx, messages, opts)

			duration := time.Since(start)
			if err != nil {
				logger.ErrorContext(ctx, "chat completion failed",
					"duration", duration,
					"error", err,
				)
				return nil, err
			}

			logger.InfoContext(ctx, "chat completion finished",
				"duration", duration,
				"finish_reason", resp.FinishReason,
				"input_tokens", resp.Usage.InputTokens,
				"output_tokens", resp.Usage.OutputTokens,
			)
			return resp, nil
		}
	}
}

// LoggingFunctionMiddleware returns a [FunctionMiddleware] that logs every tool call.
func LoggingFunctionMiddleware(logger *slog.Logger) FunctionMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next FunctionHandler) FunctionHandler {
		return func(ctx context.Context, tool Tool, args json.RawMessage) (any, error) {
			start := time.Now()
			result, err := next(ctx, tool, args)
			if err != nil {
				logger.WarnContext(ctx, "tool call failed",
					"tool", tool.Name(),
					"duration", time.Since(start),
					"error", err,
				)
				return nil, err
			}
			logger.InfoContext(ctx, "tool call",
				"tool", tool.Name(),
				"arguments", string(args),
				"duration", time.Since(start),
			)
			return result, nil
		}
	}
}
