// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// Client implements [agentframework.ChatClient] using the Azure OpenAI Chat
// Completions API. Use [New] to create one.
type Client struct {
	tp      transport
	path    string
	model   string
	handler af.ChatHandler
}

// Verify interface compliance at compile time.
var _ af.ChatClient = (*Client)(nil)

// New creates a chat completions [Client] for endpoint.
//
//	client, err := openai.New(os.Getenv("INFERENCE_ENDPOINT"),
//	    openai.WithDeployment("gpt-4o"),
//	    openai.WithAzureCredential(cred),
//	)
func New(endpoint string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{apiVersion: DefaultAPIVersion}
	for _, o := range opts {
		o(cfg)
	}
	tp, err := newPipelineTransport(endpoint, cfg)
	if err != nil {
		return nil, err
	}
	return newClient(tp, cfg), nil
}

func newClient(tp transport, cfg *clientConfig) *Client {
	c := &Client{
		tp:    tp,
		path:  "/chat/completions",
		model: cfg.model,
	}
	if cfg.deployment != "" {
		c.path = "/openai/deployments/" + url.PathEscape(cfg.deployment) + "/chat/completions"
		if c.model == "" {
			c.model = cfg.deployment
		}
	}
	// Set up core handler
	c.handler = c.coreResponse
	// Apply middleware in order
	c.handler = af.ChainChatMiddleware(c.handler, cfg.chatMiddleware...)
	return c
}

// Response sends a non-streaming chat completion request and returns the
// complete response.
func (c *Client) Response(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	return c.handler(ctx, messages, opts)
}

// coreResponse is the base implementation called by the middleware chain.
func (c *Client) coreResponse(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	req := buildRequest(messages, opts, c.model)
	req.Stream = false

	var raw chatCompletionResponse
	if err := c.tp.do(ctx, c.path, req, &raw); err != nil {
		return nil, err
	}

	result := parseChatResponse(&raw)
	result.Raw = &raw
	return result, nil
}

// StreamResponse sends a streaming chat completion request and returns
// a [ResponseStream] that yields incremental updates via server-sent events.
func (c *Client) StreamResponse(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ResponseStream[af.ChatResponseUpdate], error) {
	req := buildRequest(messages, opts, c.model)
	req.Stream = true
	req.StreamOptions = &streamOptions{IncludeUsage: true}

	body, err := c.tp.stream(ctx, c.path, req)
	if err != nil {
		return nil, err
	}

	stream := af.NewResponseStream[af.ChatResponseUpdate](ctx, func(ctx context.Context, ch chan<- af.ChatResponseUpdate) error {
		// Closing the body unblocks a pending read when the stream is closed early.
		stop := context.AfterFunc(ctx, func() { body.Close() })
		defer stop()
		defer body.Close()
		return parseSSEStream(ctx, body, ch)
	})

	return stream, nil
}

// parseSSEStream reads chat completion server-sent events from r and sends
// parsed updates to ch. Tool call fragments are accumulated by index and
// emitted as complete calls with the chunk that carries the finish reason.
// It returns when the stream is exhausted ([DONE]), the context is
// cancelled, or an error occurs.
func parseSSEStream(ctx context.Context, r io.Reader, ch chan<- af.ChatResponseUpdate) error {
	scanner := bufio.NewScanner(r)
	// Allow large SSE lines (some responses can be substantial).
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	pending := map[int]*af.FunctionCallContent{}

	for scanner.Scan() {
		line := scanner.Text()

		// SSE format: lines starting with "data:"
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)

		// Stream terminator.
		if data == "[DONE]" {
			return nil
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed chunks rather than aborting.
			continue
		}

		update := parseChunk(&chunk)
		update.Raw = &chunk
		accumulateToolCalls(&chunk, pending)
		if update.FinishReason != "" && len(pending) > 0 {
			update.Contents = append(update.Contents, flushToolCalls(pending)...)
		}

		select {
		case ch <- *update:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: read SSE stream: %v", af.ErrService, err)
	}

	return nil
}

func accumulateToolCalls(chunk *chatCompletionChunk, pending map[int]*af.FunctionCallContent) {
	if len(chunk.Choices) == 0 {
		return
	}
	for i, tc := range chunk.Choices[0].Delta.ToolCalls {
		idx := i
		if tc.Index != nil {
			idx = *tc.Index
		}
		fc, ok := pending[idx]
		if !ok {
			fc = &af.FunctionCallContent{}
			pending[idx] = fc
		}
		if tc.ID != "" {
			fc.CallID = tc.ID
		}
		if tc.Function.Name != "" {
			fc.Name = tc.Function.Name
		}
		fc.Arguments += tc.Function.Arguments
	}
}

func flushToolCalls(pending map[int]*af.FunctionCallContent) af.Contents {
	idx := make([]int, 0, len(pending))
	for i := range pending {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make(af.Contents, 0, len(idx))
	for _, i := range idx {
		out = append(out, pending[i])
		delete(pending, i)
	}
	return out
}
