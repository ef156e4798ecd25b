// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"encoding/json"
	"time"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// Timestamp is a Unix time in seconds as used by the service.
type Timestamp int64

// Time converts the timestamp to a time.Time. Zero stays the zero time.
func (t Timestamp) Time() time.Time {
	if t == 0 {
		return time.Time{}
	}
	return time.Unix(int64(t), 0)
}

// Agent is a server-side persona: a model with instructions and tools.
type Agent struct {
	ID             string            `json:"id"`
	Object         string            `json:"object,omitempty"`
	CreatedAt      Timestamp         `json:"created_at"`
	Name           string            `json:"name,omitempty"`
	Description    string            `json:"description,omitempty"`
	Model          string            `json:"model"`
	Instructions   string            `json:"instructions,omitempty"`
	Tools          []ToolDefinition  `json:"tools"`
	ToolResources  *ToolResources    `json:"tool_resources,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	ResponseFormat any               `json:"response_format,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// CreateAgentOptions is the body of a create-agent request.
type CreateAgentOptions struct {
	Model          string            `json:"model"`
	Name           string            `json:"name,omitempty"`
	Description    string            `json:"description,omitempty"`
	Instructions   string            `json:"instructions,omitempty"`
	Tools          []ToolDefinition  `json:"tools,omitempty"`
	ToolResources  *ToolResources    `json:"tool_resources,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	ResponseFormat any               `json:"response_format,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// UpdateAgentOptions modifies an existing agent. Unset fields are left unchanged.
type UpdateAgentOptions struct {
	Model         string            `json:"model,omitempty"`
	Name          string            `json:"name,omitempty"`
	Description   string            `json:"description,omitempty"`
	Instructions  string            `json:"instructions,omitempty"`
	Tools         []ToolDefinition  `json:"tools,omitempty"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Temperature   *float64          `json:"temperature,omitempty"`
	TopP          *float64          `json:"top_p,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Thread is a server-side conversation record.
type Thread struct {
	ID            string            `json:"id"`
	Object        string            `json:"object,omitempty"`
	CreatedAt     Timestamp         `json:"created_at"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// CreateThreadOptions is the body of a create-thread request.
type CreateThreadOptions struct {
	Messages      []MessageInput    `json:"messages,omitempty"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// MessageRole identifies the author of a thread message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// ThreadMessage is a message stored on a thread.
type ThreadMessage struct {
	ID          string            `json:"id"`
	Object      string            `json:"object,omitempty"`
	CreatedAt   Timestamp         `json:"created_at"`
	ThreadID    string            `json:"thread_id"`
	Status      string            `json:"status,omitempty"`
	Role        MessageRole       `json:"role"`
	Content     []MessageContent  `json:"-"`
	AgentID     string            `json:"assistant_id,omitempty"`
	RunID       string            `json:"run_id,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Attachment links an uploaded file to a message and the tools that may read it.
type Attachment struct {
	FileID string           `json:"file_id"`
	Tools  []ToolDefinition `json:"tools,omitempty"`
}

// RunStatus is the service-defined lifecycle state of a run.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusExpired        RunStatus = "expired"
	RunStatusIncomplete     RunStatus = "incomplete"
)

// IsTerminal reports whether the run can no longer change state.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCancelled, RunStatusFailed, RunStatusCompleted, RunStatusExpired, RunStatusIncomplete:
		return true
	}
	return false
}

// Run is one execution of an agent against a thread.
type Run struct {
	ID                  string             `json:"id"`
	Object              string             `json:"object,omitempty"`
	CreatedAt           Timestamp          `json:"created_at"`
	ThreadID            string             `json:"thread_id"`
	AgentID             string             `json:"assistant_id"`
	Status              RunStatus          `json:"status"`
	RequiredAction      *RequiredAction    `json:"required_action,omitempty"`
	LastError           *LastError         `json:"last_error,omitempty"`
	IncompleteDetails   *IncompleteDetails `json:"incomplete_details,omitempty"`
	Model               string             `json:"model,omitempty"`
	Instructions        string             `json:"instructions,omitempty"`
	Tools               []ToolDefinition   `json:"tools,omitempty"`
	Usage               *af.UsageDetails   `json:"usage,omitempty"`
	StartedAt           Timestamp          `json:"started_at,omitempty"`
	CompletedAt         Timestamp          `json:"completed_at,omitempty"`
	CancelledAt         Timestamp          `json:"cancelled_at,omitempty"`
	FailedAt            Timestamp          `json:"failed_at,omitempty"`
	ExpiresAt           Timestamp          `json:"expires_at,omitempty"`
	MaxPromptTokens     int                `json:"max_prompt_tokens,omitempty"`
	MaxCompletionTokens int                `json:"max_completion_tokens,omitempty"`
	Metadata            map[string]string  `json:"metadata,omitempty"`
}

// RequiredAction describes what the service needs before the run can continue.
type RequiredAction struct {
	Type              string                   `json:"type"`
	SubmitToolOutputs *SubmitToolOutputsAction `json:"submit_tool_outputs,omitempty"`
}

// SubmitToolOutputsAction lists the tool calls awaiting client-side results.
type SubmitToolOutputsAction struct {
	ToolCalls []RequiredToolCall `json:"tool_calls"`
}

// RequiredToolCall is a function call the client must execute.
type RequiredToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function RequiredFunction `json:"function"`
}

// RequiredFunction names the function and carries its JSON arguments.
type RequiredFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolOutput is the client-side result for a [RequiredToolCall].
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// LastError is the failure reported on a failed run or step.
type LastError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IncompleteDetails explains why a run ended incomplete.
type IncompleteDetails struct {
	Reason string `json:"reason"`
}

// CreateRunOptions is the body of a create-run request.
type CreateRunOptions struct {
	AgentID                string            `json:"assistant_id"`
	Model                  string            `json:"model,omitempty"`
	Instructions           string            `json:"instructions,omitempty"`
	AdditionalInstructions string            `json:"additional_instructions,omitempty"`
	AdditionalMessages     []MessageInput    `json:"additional_messages,omitempty"`
	Tools                  []ToolDefinition  `json:"tools,omitempty"`
	ToolChoice             af.ToolChoice     `json:"-"`
	Temperature            *float64          `json:"temperature,omitempty"`
	TopP                   *float64          `json:"top_p,omitempty"`
	MaxPromptTokens        int               `json:"max_prompt_tokens,omitempty"`
	MaxCompletionTokens    int               `json:"max_completion_tokens,omitempty"`
	ParallelToolCalls      *bool             `json:"parallel_tool_calls,omitempty"`
	Metadata               map[string]string `json:"metadata,omitempty"`
}

// createRunRequest is CreateRunOptions as sent on the wire.
type createRunRequest struct {
	CreateRunOptions
	ToolChoice any  `json:"tool_choice,omitempty"`
	Stream     bool `json:"stream,omitempty"`
}

// createThreadAndRunRequest starts a run on a new thread.
type createThreadAndRunRequest struct {
	CreateRunOptions
	Thread     *CreateThreadOptions `json:"thread,omitempty"`
	ToolChoice any                  `json:"tool_choice,omitempty"`
	Stream     bool                 `json:"stream,omitempty"`
}

// toolChoiceWire converts a ToolChoice to the service representation.
func toolChoiceWire(tc af.ToolChoice) any {
	switch tc {
	case "":
		return nil
	case af.ToolChoiceAuto, af.ToolChoiceNone, af.ToolChoiceRequired:
		return string(tc)
	}
	if name := tc.FunctionName(); name != "" {
		return map[string]any{"type": "function", "function": map[string]string{"name": name}}
	}
	// Hosted tool types such as "file_search" are forced by type.
	return map[string]string{"type": string(tc)}
}

// submitToolOutputsRequest is the body of a submit-tool-outputs request.
type submitToolOutputsRequest struct {
	ToolOutputs []ToolOutput `json:"tool_outputs"`
	Stream      bool         `json:"stream,omitempty"`
}

// RunStepType distinguishes message creation from tool activity.
type RunStepType string

const (
	RunStepTypeMessageCreation RunStepType = "message_creation"
	RunStepTypeToolCalls       RunStepType = "tool_calls"
)

// RunStep is one unit of work the service performed during a run.
type RunStep struct {
	ID          string           `json:"id"`
	Object      string           `json:"object,omitempty"`
	CreatedAt   Timestamp        `json:"created_at"`
	RunID       string           `json:"run_id"`
	AgentID     string           `json:"assistant_id,omitempty"`
	ThreadID    string           `json:"thread_id"`
	Type        RunStepType      `json:"type"`
	Status      string           `json:"status"`
	StepDetails RunStepDetails   `json:"step_details"`
	LastError   *LastError       `json:"last_error,omitempty"`
	Usage       *af.UsageDetails `json:"usage,omitempty"`
	CompletedAt Timestamp        `json:"completed_at,omitempty"`
}

// RunStepDetails holds either the created message or the tool calls made.
type RunStepDetails struct {
	Type            string                 `json:"type"`
	MessageCreation *MessageCreationDetail `json:"message_creation,omitempty"`
	ToolCalls       []RunStepToolCall      `json:"tool_calls,omitempty"`
}

// MessageCreationDetail identifies the message a step produced.
type MessageCreationDetail struct {
	MessageID string `json:"message_id"`
}

// RunStepToolCall records a tool call made during a step. Only the field
// matching Type is populated.
type RunStepToolCall struct {
	ID              string                      `json:"id"`
	Type            string                      `json:"type"`
	Function        *RunStepFunctionCall        `json:"function,omitempty"`
	CodeInterpreter *RunStepCodeInterpreterCall `json:"code_interpreter,omitempty"`
	BingGrounding   map[string]string           `json:"bing_grounding,omitempty"`
	AzureAISearch   map[string]string           `json:"azure_ai_search,omitempty"`
	FileSearch      json.RawMessage             `json:"file_search,omitempty"`
}

// RunStepFunctionCall is a function tool call with its submitted output.
type RunStepFunctionCall struct {
	Name      string  `json:"name"`
	Arguments string  `json:"arguments"`
	Output    *string `json:"output"`
}

// RunStepCodeInterpreterCall is the code the interpreter ran and what it produced.
type RunStepCodeInterpreterCall struct {
	Input   string            `json:"input"`
	Outputs []json.RawMessage `json:"outputs,omitempty"`
}

// FilePurpose tells the service how an uploaded file will be used.
type FilePurpose string

const (
	FilePurposeAgents       FilePurpose = "assistants"
	FilePurposeAgentsOutput FilePurpose = "assistants_output"
	FilePurposeVision       FilePurpose = "vision"
)

// File is an uploaded file.
type File struct {
	ID        string      `json:"id"`
	Object    string      `json:"object,omitempty"`
	Bytes     int64       `json:"bytes"`
	Filename  string      `json:"filename"`
	CreatedAt Timestamp   `json:"created_at"`
	Purpose   FilePurpose `json:"purpose"`
	Status    string      `json:"status,omitempty"`
}

// VectorStore indexes files for the file_search tool.
type VectorStore struct {
	ID         string            `json:"id"`
	Object     string            `json:"object,omitempty"`
	CreatedAt  Timestamp         `json:"created_at"`
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	FileCounts FileCounts        `json:"file_counts"`
	UsageBytes int64             `json:"usage_bytes,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// FileCounts summarizes ingestion progress of a vector store.
type FileCounts struct {
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}

// Vector store and vector store file statuses.
const (
	VectorStoreStatusInProgress = "in_progress"
	VectorStoreStatusCompleted  = "completed"
	VectorStoreStatusExpired    = "expired"
	VectorStoreStatusFailed     = "failed"
)

// CreateVectorStoreOptions is the body of a create-vector-store request.
type CreateVectorStoreOptions struct {
	Name     string            `json:"name,omitempty"`
	FileIDs  []string          `json:"file_ids,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// VectorStoreFile is a file attached to a vector store.
type VectorStoreFile struct {
	ID            string     `json:"id"`
	Object        string     `json:"object,omitempty"`
	CreatedAt     Timestamp  `json:"created_at"`
	VectorStoreID string     `json:"vector_store_id"`
	Status        string     `json:"status"`
	LastError     *LastError `json:"last_error,omitempty"`
}

// DeletionStatus is returned by delete operations.
type DeletionStatus struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	Deleted bool   `json:"deleted"`
}

// ListOrder sorts list results by creation time.
type ListOrder string

const (
	ListOrderAsc  ListOrder = "asc"
	ListOrderDesc ListOrder = "desc"
)

// ListOptions pages through a collection.
type ListOptions struct {
	Limit  int
	Order  ListOrder
	After  string
	Before string
}

// ListMessagesOptions filters a thread's messages.
type ListMessagesOptions struct {
	ListOptions
	RunID string
}

// ListResponse is one page of a collection.
type ListResponse[T any] struct {
	Object  string `json:"object"`
	Data    []T    `json:"data"`
	FirstID string `json:"first_id"`
	LastID  string `json:"last_id"`
	HasMore bool   `json:"has_more"`
}
