// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"net/url"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// CreateAgent creates an agent.
func (c *Client) CreateAgent(ctx context.Context, opts CreateAgentOptions) (*Agent, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("%w: agent model is required", af.ErrInvalidRequest)
	}
	var out Agent
	if err := c.post(ctx, "/assistants", opts, &out); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &out, nil
}

// GetAgent retrieves an agent by ID.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	if err := requireID("agent", agentID); err != nil {
		return nil, err
	}
	var out Agent
	if err := c.get(ctx, "/assistants/"+url.PathEscape(agentID), nil, &out); err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return &out, nil
}

// ListAgents returns one page of agents.
func (c *Client) ListAgents(ctx context.Context, opts *ListOptions) (*ListResponse[Agent], error) {
	var out ListResponse[Agent]
	if err := c.get(ctx, "/assistants", opts.query(), &out); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return &out, nil
}

// UpdateAgent modifies an agent and returns its new state.
func (c *Client) UpdateAgent(ctx context.Context, agentID string, opts UpdateAgentOptions) (*Agent, error) {
	if err := requireID("agent", agentID); err != nil {
		return nil, err
	}
	var out Agent
	if err := c.post(ctx, "/assistants/"+url.PathEscape(agentID), opts, &out); err != nil {
		return nil, fmt.Errorf("update agent: %w", err)
	}
	return &out, nil
}

// DeleteAgent deletes an agent.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) (*DeletionStatus, error) {
	if err := requireID("agent", agentID); err != nil {
		return nil, err
	}
	st, err := c.delete(ctx, "/assistants/"+url.PathEscape(agentID))
	if err != nil {
		return nil, fmt.Errorf("delete agent: %w", err)
	}
	return st, nil
}

// CreateThread creates a thread, optionally seeded with messages.
// A nil opts creates an empty thread.
func (c *Client) CreateThread(ctx context.Context, opts *CreateThreadOptions) (*Thread, error) {
	if opts == nil {
		opts = &CreateThreadOptions{}
	}
	var out Thread
	if err := c.post(ctx, "/threads", opts, &out); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return &out, nil
}

// GetThread retrieves a thread by ID.
func (c *Client) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	if err := requireID("thread", threadID); err != nil {
		return nil, err
	}
	var out Thread
	if err := c.get(ctx, threadPath(threadID), nil, &out); err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	return &out, nil
}

// DeleteThread deletes a thread and its messages.
func (c *Client) DeleteThread(ctx context.Context, threadID string) (*DeletionStatus, error) {
	if err := requireID("thread", threadID); err != nil {
		return nil, err
	}
	st, err := c.delete(ctx, threadPath(threadID))
	if err != nil {
		return nil, fmt.Errorf("delete thread: %w", err)
	}
	return st, nil
}

// CreateMessage posts a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID string, msg MessageInput) (*ThreadMessage, error) {
	if err := requireID("thread", threadID); err != nil {
		return nil, err
	}
	if msg.Content == "" && len(msg.Blocks) == 0 {
		return nil, fmt.Errorf("%w: message content is required", af.ErrInvalidRequest)
	}
	var out ThreadMessage
	if err := c.post(ctx, threadPath(threadID)+"/messages", msg, &out); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &out, nil
}

// GetMessage retrieves one message of a thread.
func (c *Client) GetMessage(ctx context.Context, threadID, messageID string) (*ThreadMessage, error) {
	if err := requireID("thread", threadID); err != nil {
		return nil, err
	}
	if err := requireID("message", messageID); err != nil {
		return nil, err
	}
	var out ThreadMessage
	if err := c.get(ctx, threadPath(threadID)+"/messages/"+url.PathEscape(messageID), nil, &out); err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &out, nil
}

// ListMessages returns one page of a thread's messages.
func (c *Client) ListMessages(ctx context.Context, threadID string, opts *ListMessagesOptions) (*ListResponse[ThreadMessage], error) {
	if err := requireID("thread", threadID); err != nil {
		return nil, err
	}
	var q url.Values
	if opts != nil {
		q = opts.ListOptions.query()
		if opts.RunID != "" {
			q.Set("run_id", opts.RunID)
		}
	}
	var out ListResponse[ThreadMessage]
	if err := c.get(ctx, threadPath(threadID)+"/messages", q, &out); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return &out, nil
}

// ListAllMessages follows pagination and returns every matching message.
// opts.After is used as the starting cursor and advanced page by page.
func (c *Client) ListAllMessages(ctx context.Context, threadID string, opts *ListMessagesOptions) ([]ThreadMessage, error) {
	var page ListMessagesOptions
	if opts != nil {
		page = *opts
	}
	var all []ThreadMessage
	for {
		resp, err := c.ListMessages(ctx, threadID, &page)
		if err != nil {
			return all, err
		}
		all = append(all, resp.Data...)
		if !resp.HasMore || resp.LastID == "" || resp.LastID == page.After {
			return all, nil
		}
		page.After = resp.LastID
	}
}

func threadPath(threadID string) string {
	return "/threads/" + url.PathEscape(threadID)
}

func runPath(threadID, runID string) string {
	return threadPath(threadID) + "/runs/" + url.PathEscape(runID)
}

func requireID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s id is required", af.ErrInvalidRequest, kind)
	}
	return nil
}
