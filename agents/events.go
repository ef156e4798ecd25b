// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// Stream event names sent by the service.
const (
	EventThreadCreated     = "thread.created"
	EventRunCreated        = "thread.run.created"
	EventRunQueued         = "thread.run.queued"
	EventRunInProgress     = "thread.run.in_progress"
	EventRunRequiresAction = "thread.run.requires_action"
	EventRunCompleted      = "thread.run.completed"
	EventRunIncomplete     = "thread.run.incomplete"
	EventRunFailed         = "thread.run.failed"
	EventRunCancelling     = "thread.run.cancelling"
	EventRunCancelled      = "thread.run.cancelled"
	EventRunExpired        = "thread.run.expired"
	EventRunStepCreated    = "thread.run.step.created"
	EventRunStepInProgress = "thread.run.step.in_progress"
	EventRunStepDelta      = "thread.run.step.delta"
	EventRunStepCompleted  = "thread.run.step.completed"
	EventRunStepFailed     = "thread.run.step.failed"
	EventRunStepCancelled  = "thread.run.step.cancelled"
	EventRunStepExpired    = "thread.run.step.expired"
	EventMessageCreated    = "thread.message.created"
	EventMessageInProgress = "thread.message.in_progress"
	EventMessageDelta      = "thread.message.delta"
	EventMessageCompleted  = "thread.message.completed"
	EventMessageIncomplete = "thread.message.incomplete"
	EventError             = "error"
	EventDone              = "done"
)

const (
	eventDoneData               = "[DONE]"
	runStepEventPrefix          = "thread.run.step."
	runEventPrefix              = "thread.run."
	messageEventPrefix          = "thread.message."
	submitToolOutputsActionType = "submit_tool_outputs"
)

// StreamEvent is a sealed interface over the events of a run stream.
// Use a type switch to inspect the underlying type.
type StreamEvent interface {
	// EventName returns the event name as sent by the service.
	EventName() string

	isStreamEvent()
}

// ThreadEvent carries a thread created by a create-thread-and-run stream.
type ThreadEvent struct {
	Event  string
	Thread Thread
}

// RunEvent reports a run status change.
type RunEvent struct {
	Event string
	Run   Run
}

// RunStepEvent reports a run step status change.
type RunStepEvent struct {
	Event string
	Step  RunStep
}

// RunStepDeltaEvent carries incremental tool call details of a step.
type RunStepDeltaEvent struct {
	Event string
	Delta RunStepDelta
}

// MessageEvent reports a message status change.
type MessageEvent struct {
	Event   string
	Message ThreadMessage
}

// MessageDeltaEvent carries incremental message content.
type MessageDeltaEvent struct {
	Event string
	Delta MessageDelta
}

// ErrorEvent is an error reported inside the stream. The stream ends after it.
type ErrorEvent struct {
	Err *af.ServiceError
}

// DoneEvent marks the end of the stream.
type DoneEvent struct{}

// UnknownEvent preserves events this package does not model.
type UnknownEvent struct {
	Event string
	Data  []byte
}

func (e *ThreadEvent) EventName() string       { return e.Event }
func (e *RunEvent) EventName() string          { return e.Event }
func (e *RunStepEvent) EventName() string      { return e.Event }
func (e *RunStepDeltaEvent) EventName() string { return e.Event }
func (e *MessageEvent) EventName() string      { return e.Event }
func (e *MessageDeltaEvent) EventName() string { return e.Event }
func (*ErrorEvent) EventName() string          { return EventError }
func (*DoneEvent) EventName() string           { return EventDone }
func (e *UnknownEvent) EventName() string      { return e.Event }

func (*ThreadEvent) isStreamEvent()       {}
func (*RunEvent) isStreamEvent()          {}
func (*RunStepEvent) isStreamEvent()      {}
func (*RunStepDeltaEvent) isStreamEvent() {}
func (*MessageEvent) isStreamEvent()      {}
func (*MessageDeltaEvent) isStreamEvent() {}
func (*ErrorEvent) isStreamEvent()        {}
func (*DoneEvent) isStreamEvent()         {}
func (*UnknownEvent) isStreamEvent()      {}

// Text concatenates the text deltas of the event in index order.
func (e *MessageDeltaEvent) Text() string {
	parts := make([]MessageDeltaContent, 0, len(e.Delta.Content))
	for _, dc := range e.Delta.Content {
		if _, ok := dc.Content.(*TextContent); ok {
			parts = append(parts, dc)
		}
	}
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].Index < parts[j].Index })
	var sb strings.Builder
	for _, dc := range parts {
		sb.WriteString(dc.Content.(*TextContent).Value)
	}
	return sb.String()
}

// RunStepDelta is the incremental change carried by a thread.run.step.delta event.
type RunStepDelta struct {
	ID    string           `json:"id"`
	Delta RunStepDeltaBody `json:"delta"`
}

// RunStepDeltaBody holds the partial step details.
type RunStepDeltaBody struct {
	StepDetails RunStepDetails `json:"step_details"`
}

// sseEvent is one raw server-sent event.
type sseEvent struct {
	name string
	data []byte
}

// sseReader splits a text/event-stream body into events.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &sseReader{scanner: scanner}
}

// next returns the next event, or io.EOF when the body is exhausted.
func (r *sseReader) next() (sseEvent, error) {
	var ev sseEvent
	var data [][]byte
	pending := false
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			if pending {
				ev.data = bytes.Join(data, []byte("\n"))
				return ev, nil
			}
			continue
		}
		if line[0] == ':' {
			continue
		}
		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		switch string(field) {
		case "event":
			ev.name = string(value)
			pending = true
		case "data":
			data = append(data, bytes.Clone(value))
			pending = true
		}
	}
	if err := r.scanner.Err(); err != nil {
		return sseEvent{}, fmt.Errorf("%w: read event stream: %w", af.ErrService, err)
	}
	if pending {
		ev.data = bytes.Join(data, []byte("\n"))
		return ev, nil
	}
	return sseEvent{}, io.EOF
}

// decodeEvent turns a raw event into its typed form. Events with unknown
// names become *UnknownEvent.
func decodeEvent(ev sseEvent) (StreamEvent, error) {
	decode := func(v any) error {
		if err := json.Unmarshal(ev.data, v); err != nil {
			return fmt.Errorf("%w: decode %s event: %w", af.ErrInvalidResponse, ev.name, err)
		}
		return nil
	}

	switch {
	case ev.name == EventDone || (ev.name == "" && string(ev.data) == eventDoneData):
		return &DoneEvent{}, nil
	case ev.name == EventError:
		return &ErrorEvent{Err: parseStreamError(ev.data)}, nil
	case ev.name == EventThreadCreated:
		e := &ThreadEvent{Event: ev.name}
		return e, decode(&e.Thread)
	case ev.name == EventRunStepDelta:
		e := &RunStepDeltaEvent{Event: ev.name}
		return e, decode(&e.Delta)
	case strings.HasPrefix(ev.name, runStepEventPrefix):
		e := &RunStepEvent{Event: ev.name}
		return e, decode(&e.Step)
	case strings.HasPrefix(ev.name, runEventPrefix):
		e := &RunEvent{Event: ev.name}
		return e, decode(&e.Run)
	case ev.name == EventMessageDelta:
		e := &MessageDeltaEvent{Event: ev.name}
		return e, decode(&e.Delta)
	case strings.HasPrefix(ev.name, messageEventPrefix):
		e := &MessageEvent{Event: ev.name}
		return e, decode(&e.Message)
	}
	return &UnknownEvent{Event: ev.name, Data: ev.data}, nil
}

// parseStreamError reads either {"error":{...}} or a bare error object.
func parseStreamError(data []byte) *af.ServiceError {
	type errorBody struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Type    string `json:"type"`
	}
	var wrapped struct {
		Error *errorBody `json:"error"`
	}
	var body errorBody
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Error != nil {
		body = *wrapped.Error
	} else if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(data))
	}
	if body.Code == "" {
		body.Code = body.Type
	}
	if body.Message == "" {
		body.Message = "stream error"
	}
	return &af.ServiceError{
		StatusCode: http.StatusOK,
		Message:    body.Message,
		Code:       body.Code,
		Err:        af.ClassifyStatus(http.StatusOK, body.Code),
	}
}

// readEvents decodes the stream in r and sends each event to ch. It returns
// after the done event, at end of input, or with the error of an error event.
func readEvents(ctx context.Context, r io.Reader, ch chan<- StreamEvent) error {
	sr := newSSEReader(r)
	for {
		raw, err := sr.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		ev, err := decodeEvent(raw)
		if err != nil {
			return err
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
		switch ev := ev.(type) {
		case *DoneEvent:
			return nil
		case *ErrorEvent:
			return ev.Err
		}
	}
}
