// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// Conversation binds an agent to a thread and runs one prompt at a time.
// It is not safe for concurrent use.
type Conversation struct {
	client    *Client
	agentID   string
	threadID  string
	ownsAgent bool
	cfg       conversationConfig
}

type conversationConfig struct {
	tools                  *af.ToolSet
	onStatus               func(*Run)
	additionalInstructions string
}

// ConversationOption configures a [Conversation].
type ConversationOption func(*conversationConfig)

// WithTools resolves function calls the agent makes during runs.
func WithTools(tools *af.ToolSet) ConversationOption {
	return func(c *conversationConfig) { c.tools = tools }
}

// WithStatusHandler observes every polled run state of [Conversation.Ask].
func WithStatusHandler(fn func(*Run)) ConversationOption {
	return func(c *conversationConfig) { c.onStatus = fn }
}

// WithAdditionalInstructions appends instructions to every run.
func WithAdditionalInstructions(s string) ConversationOption {
	return func(c *conversationConfig) { c.additionalInstructions = s }
}

// NewConversation creates a thread for an existing agent.
func NewConversation(ctx context.Context, client *Client, agentID string, opts ...ConversationOption) (*Conversation, error) {
	if err := requireID("agent", agentID); err != nil {
		return nil, err
	}
	thread, err := client.CreateThread(ctx, nil)
	if err != nil {
		return nil, err
	}
	cv := &Conversation{client: client, agentID: agentID, threadID: thread.ID}
	for _, o := range opts {
		o(&cv.cfg)
	}
	return cv, nil
}

// StartConversation creates an agent and a thread. Close deletes both.
func StartConversation(ctx context.Context, client *Client, agent CreateAgentOptions, opts ...ConversationOption) (*Conversation, error) {
	created, err := client.CreateAgent(ctx, agent)
	if err != nil {
		return nil, err
	}
	cv, err := NewConversation(ctx, client, created.ID, opts...)
	if err != nil {
		if _, derr := client.DeleteAgent(context.WithoutCancel(ctx), created.ID); derr != nil {
			err = errors.Join(err, derr)
		}
		return nil, err
	}
	cv.ownsAgent = true
	return cv, nil
}

// AgentID returns the agent the conversation talks to.
func (cv *Conversation) AgentID() string { return cv.agentID }

// ThreadID returns the conversation's thread.
func (cv *Conversation) ThreadID() string { return cv.threadID }

// Reply is the outcome of one prompt.
type Reply struct {
	Run      *Run
	Messages []ThreadMessage
}

// Text returns the assistant messages' text joined by blank lines.
func (r *Reply) Text() string {
	parts := make([]string, 0, len(r.Messages))
	for i := range r.Messages {
		parts = append(parts, r.Messages[i].Text())
	}
	return strings.Join(parts, "\n\n")
}

// Ask posts prompt, polls the run to completion and returns the assistant
// messages it produced in creation order. Runs that do not complete are
// reported as *af.RunError.
func (cv *Conversation) Ask(ctx context.Context, prompt string) (*Reply, error) {
	if err := cv.post(ctx, prompt); err != nil {
		return nil, err
	}
	run, err := cv.client.CreateAndProcessRun(ctx, cv.threadID, cv.runOptions(), &PollOptions{
		Tools:              cv.cfg.tools,
		OnStatus:           cv.cfg.onStatus,
		FailOnUnsuccessful: true,
	})
	if err != nil {
		return &Reply{Run: run}, err
	}
	return cv.reply(ctx, run)
}

// AskStream is Ask over a streaming run. onEvent, when non-nil, sees every event.
func (cv *Conversation) AskStream(ctx context.Context, prompt string, onEvent func(StreamEvent)) (*Reply, error) {
	if err := cv.post(ctx, prompt); err != nil {
		return nil, err
	}
	run, err := cv.client.StreamRun(ctx, cv.threadID, cv.runOptions(), &StreamOptions{
		Tools:              cv.cfg.tools,
		OnEvent:            onEvent,
		FailOnUnsuccessful: true,
	})
	if err != nil {
		return &Reply{Run: run}, err
	}
	return cv.reply(ctx, run)
}

// Messages returns the whole thread in creation order.
func (cv *Conversation) Messages(ctx context.Context) ([]ThreadMessage, error) {
	return cv.client.ListAllMessages(ctx, cv.threadID, &ListMessagesOptions{
		ListOptions: ListOptions{Order: ListOrderAsc},
	})
}

// Close deletes the thread, and the agent when the conversation created it.
// Resources that are already gone are ignored.
func (cv *Conversation) Close(ctx context.Context) error {
	res := Resources{ThreadIDs: []string{cv.threadID}}
	if cv.ownsAgent {
		res.AgentIDs = []string{cv.agentID}
	}
	return Cleanup(ctx, cv.client, res)
}

func (cv *Conversation) post(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt is empty", af.ErrInvalidRequest)
	}
	_, err := cv.client.CreateMessage(ctx, cv.threadID, UserMessage(prompt))
	return err
}

func (cv *Conversation) runOptions() CreateRunOptions {
	return CreateRunOptions{
		AgentID:                cv.agentID,
		AdditionalInstructions: cv.cfg.additionalInstructions,
	}
}

func (cv *Conversation) reply(ctx context.Context, run *Run) (*Reply, error) {
	msgs, err := cv.client.ListAllMessages(ctx, cv.threadID, &ListMessagesOptions{
		ListOptions: ListOptions{Order: ListOrderAsc},
		RunID:       run.ID,
	})
	if err != nil {
		return &Reply{Run: run}, err
	}
	out := make([]ThreadMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == MessageRoleAssistant {
			out = append(out, m)
		}
	}
	return &Reply{Run: run, Messages: out}, nil
}
