// Copyright (c) Microsoft. All rights reserved.

package agentstest

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

// RunScript describes how the next created run behaves.
type RunScript struct {
	// Statuses are reported by successive reads before any tool round.
	// Defaults to a single in_progress.
	Statuses []agents.RunStatus

	// ToolCalls lists one batch of required function calls per round.
	// Missing call IDs are generated.
	ToolCalls [][]agents.RequiredToolCall

	// Reply is the assistant message added when the run completes.
	Reply string

	// Annotations are attached to the reply.
	Annotations []agents.Annotation

	// Images are stored as generated files and attached to the reply as
	// image_file content after its text.
	Images [][]byte

	// FinalStatus defaults to completed.
	FinalStatus agents.RunStatus

	// LastError is reported for failed runs.
	LastError *agents.LastError

	// Usage defaults to 10 prompt and 5 completion tokens.
	Usage *af.UsageDetails

	// Stall keeps the run in_progress forever.
	Stall bool

	// StreamError ends a streamed run with an error event.
	StreamError *agents.LastError

	// UnknownEvents adds a comment line and an unmodelled event to streams.
	UnknownEvents bool
}

type runState struct {
	run       agents.Run
	script    RunScript
	statusIdx int
	round     int
	outputs   [][]agents.ToolOutput
	steps     []agents.RunStep
	cancelled bool
}

// QueueRun sets the script for the next created run. Runs created with no
// queued script complete immediately with the reply "Done.".
func (s *Server) QueueRun(script RunScript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, script)
}

// ToolOutputs returns the outputs submitted for a run, one slice per round.
func (s *Server) ToolOutputs(runID string) [][]agents.ToolOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.runs[runID]
	if !ok {
		return nil
	}
	return slices.Clone(rs.outputs)
}

// Cancelled reports whether a cancel request was received for the run.
func (s *Server) Cancelled(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.runs[runID]
	return ok && rs.cancelled
}

// Run returns the current state of a run without advancing it.
func (s *Server) Run(runID string) (agents.Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.runs[runID]
	if !ok {
		return agents.Run{}, false
	}
	return rs.run, true
}

type runRequestBody struct {
	agents.CreateRunOptions
	ToolChoice json.RawMessage             `json:"tool_choice,omitempty"`
	Stream     bool                        `json:"stream,omitempty"`
	Thread     *agents.CreateThreadOptions `json:"thread,omitempty"`
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var req runRequestBody
	if !readJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	ts, ok := s.threads[r.PathValue("id")]
	if !ok {
		s.mu.Unlock()
		notFound(w, "thread", r.PathValue("id"))
		return
	}
	s.startRun(w, ts, req)
}

func (s *Server) createThreadAndRun(w http.ResponseWriter, r *http.Request) {
	var req runRequestBody
	if !readJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	var thread agents.CreateThreadOptions
	if req.Thread != nil {
		thread = *req.Thread
	}
	ts := s.newThread(thread)
	s.startRun(w, ts, req)
}

// startRun creates the run and writes the response. Callers hold s.mu; it
// is released before writing.
func (s *Server) startRun(w http.ResponseWriter, ts *threadState, req runRequestBody) {
	if _, ok := s.agents[req.AgentID]; !ok {
		s.mu.Unlock()
		notFound(w, "assistant", req.AgentID)
		return
	}
	s.runRequests = append(s.runRequests, RunRequest{
		ThreadID:   ts.thread.ID,
		Options:    req.CreateRunOptions,
		ToolChoice: req.ToolChoice,
		Stream:     req.Stream,
	})
	for _, in := range req.AdditionalMessages {
		s.addMessage(ts, in, "", "")
	}

	script := RunScript{Reply: "Done."}
	if len(s.scripts) > 0 {
		script = s.scripts[0]
		s.scripts = s.scripts[1:]
	}
	if script.Statuses == nil {
		script.Statuses = []agents.RunStatus{agents.RunStatusInProgress}
	}
	agent := s.agents[req.AgentID]
	rs := &runState{
		script: script,
		run: agents.Run{
			ID:           newID("run_"),
			Object:       "thread.run",
			CreatedAt:    s.now(),
			ThreadID:     ts.thread.ID,
			AgentID:      req.AgentID,
			Status:       agents.RunStatusQueued,
			Model:        cmp.Or(req.Model, agent.Model),
			Instructions: cmp.Or(req.Instructions, agent.Instructions),
			Tools:        agent.Tools,
			Metadata:     req.Metadata,
		},
	}
	if req.Tools != nil {
		rs.run.Tools = req.Tools
	}
	s.runs[rs.run.ID] = rs

	if !req.Stream {
		out := rs.run
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
		return
	}

	var events []event
	if req.Thread != nil {
		events = append(events, event{agents.EventThreadCreated, ts.thread})
	}
	events = append(events, event{agents.EventRunCreated, rs.run})
	if script.UnknownEvents {
		events = append(events, event{"agent.heartbeat", map[string]string{"status": "alive"}})
	}
	events = append(events, s.streamProgress(rs, ts)...)
	s.mu.Unlock()
	writeEvents(w, events, script.UnknownEvents)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rs, ok := s.runs[r.PathValue("run")]
	var out agents.Run
	if ok && rs.run.ThreadID == r.PathValue("id") {
		s.advance(rs)
		out = rs.run
	} else {
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "run", r.PathValue("run"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) cancelRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rs, ok := s.runs[r.PathValue("run")]
	if !ok {
		s.mu.Unlock()
		notFound(w, "run", r.PathValue("run"))
		return
	}
	if rs.run.Status.IsTerminal() {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("Cannot cancel run with status '%s'.", rs.run.Status))
		return
	}
	rs.cancelled = true
	rs.run.Status = agents.RunStatusCancelling
	rs.run.RequiredAction = nil
	out := rs.run
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) submitToolOutputs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToolOutputs []agents.ToolOutput `json:"tool_outputs"`
		Stream      bool                `json:"stream"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	rs, ok := s.runs[r.PathValue("run")]
	if !ok {
		s.mu.Unlock()
		notFound(w, "run", r.PathValue("run"))
		return
	}
	if rs.run.Status != agents.RunStatusRequiresAction || rs.run.RequiredAction == nil {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("Runs in status '%s' do not accept tool outputs.", rs.run.Status))
		return
	}
	if msg := matchOutputs(rs.run.RequiredAction.SubmitToolOutputs.ToolCalls, req.ToolOutputs); msg != "" {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	calls := rs.run.RequiredAction.SubmitToolOutputs.ToolCalls
	rs.outputs = append(rs.outputs, req.ToolOutputs)
	s.addToolStep(rs, calls, req.ToolOutputs)
	rs.round++
	rs.run.RequiredAction = nil
	rs.run.Status = agents.RunStatusQueued

	if !req.Stream {
		out := rs.run
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
		return
	}
	ts := s.threads[rs.run.ThreadID]
	events := append([]event{{agents.EventRunQueued, rs.run}}, s.streamProgress(rs, ts)...)
	unknown := rs.script.UnknownEvents
	s.mu.Unlock()
	writeEvents(w, events, unknown)
}

// matchOutputs returns a service error message unless outputs answer
// exactly the pending calls.
func matchOutputs(calls []agents.RequiredToolCall, outputs []agents.ToolOutput) string {
	want := make(map[string]bool, len(calls))
	for _, c := range calls {
		want[c.ID] = true
	}
	for _, o := range outputs {
		if !want[o.ToolCallID] {
			return fmt.Sprintf("Tool call '%s' is not pending.", o.ToolCallID)
		}
		delete(want, o.ToolCallID)
	}
	if len(want) > 0 {
		return fmt.Sprintf("Expected outputs for %d more tool calls.", len(want))
	}
	return ""
}

func (s *Server) listRunSteps(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rs, ok := s.runs[r.PathValue("run")]
	var steps []agents.RunStep
	if ok {
		steps = slices.Clone(rs.steps)
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "run", r.PathValue("run"))
		return
	}
	writeJSON(w, http.StatusOK, page(steps, func(st agents.RunStep) string { return st.ID }, r))
}

func (s *Server) getRunStep(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var out *agents.RunStep
	if rs, ok := s.runs[r.PathValue("run")]; ok {
		for i := range rs.steps {
			if rs.steps[i].ID == r.PathValue("step") {
				st := rs.steps[i]
				out = &st
			}
		}
	}
	s.mu.Unlock()
	if out == nil {
		notFound(w, "run step", r.PathValue("step"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// advance moves a polled run one step along its script. Callers hold s.mu.
func (s *Server) advance(rs *runState) {
	switch {
	case rs.run.Status.IsTerminal(), rs.run.Status == agents.RunStatusRequiresAction:
	case rs.run.Status == agents.RunStatusCancelling:
		rs.run.Status = agents.RunStatusCancelled
		rs.run.CancelledAt = s.now()
	case rs.script.Stall:
		rs.run.Status = agents.RunStatusInProgress
	case rs.round == 0 && rs.statusIdx < len(rs.script.Statuses):
		rs.run.Status = rs.script.Statuses[rs.statusIdx]
		rs.statusIdx++
		if rs.run.Status == agents.RunStatusInProgress && rs.run.StartedAt == 0 {
			rs.run.StartedAt = s.now()
		}
	case rs.round < len(rs.script.ToolCalls):
		s.requireAction(rs)
	default:
		s.finish(rs, s.threads[rs.run.ThreadID])
	}
}

// requireAction asks for the current round's tool calls. Callers hold s.mu.
func (s *Server) requireAction(rs *runState) {
	calls := slices.Clone(rs.script.ToolCalls[rs.round])
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = newID("call_")
		}
		if calls[i].Type == "" {
			calls[i].Type = agents.ToolTypeFunction
		}
	}
	rs.run.Status = agents.RunStatusRequiresAction
	rs.run.RequiredAction = &agents.RequiredAction{
		Type:              "submit_tool_outputs",
		SubmitToolOutputs: &agents.SubmitToolOutputsAction{ToolCalls: calls},
	}
}

// finish ends the run with its scripted status and reply. It returns the
// reply message when one was added. Callers hold s.mu.
func (s *Server) finish(rs *runState, ts *threadState) *agents.ThreadMessage {
	final := rs.script.FinalStatus
	if final == "" {
		final = agents.RunStatusCompleted
	}
	var reply *agents.ThreadMessage
	if final == agents.RunStatusCompleted && rs.script.Reply != "" && ts != nil {
		m := s.addMessage(ts, agents.MessageInput{Role: agents.MessageRoleAssistant, Content: rs.script.Reply},
			rs.run.AgentID, rs.run.ID)
		last := &ts.messages[len(ts.messages)-1]
		last.Content = []agents.MessageContent{&agents.TextContent{
			Value:       rs.script.Reply,
			Annotations: rs.script.Annotations,
		}}
		for i, img := range rs.script.Images {
			f := s.addOutputFile(fmt.Sprintf("image_%d.png", i), img)
			last.Content = append(last.Content, &agents.ImageFileContent{FileID: f.ID})
		}
		m.Content = last.Content
		reply = &m
		s.addStep(rs, agents.RunStepDetails{
			Type:            string(agents.RunStepTypeMessageCreation),
			MessageCreation: &agents.MessageCreationDetail{MessageID: m.ID},
		}, agents.RunStepTypeMessageCreation)
	}

	rs.run.Status = final
	usage := rs.script.Usage
	if usage == nil {
		usage = &af.UsageDetails{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}
	}
	rs.run.Usage = usage
	switch final {
	case agents.RunStatusCompleted:
		rs.run.CompletedAt = s.now()
	case agents.RunStatusFailed:
		rs.run.FailedAt = s.now()
		rs.run.LastError = rs.script.LastError
		if rs.run.LastError == nil {
			rs.run.LastError = &agents.LastError{Code: "server_error", Message: "Sorry, something went wrong."}
		}
	case agents.RunStatusIncomplete:
		rs.run.IncompleteDetails = &agents.IncompleteDetails{Reason: "max_completion_tokens"}
	}
	return reply
}

func (s *Server) addToolStep(rs *runState, calls []agents.RequiredToolCall, outputs []agents.ToolOutput) {
	byID := make(map[string]string, len(outputs))
	for _, o := range outputs {
		byID[o.ToolCallID] = o.Output
	}
	details := agents.RunStepDetails{Type: string(agents.RunStepTypeToolCalls)}
	for _, c := range calls {
		out := byID[c.ID]
		details.ToolCalls = append(details.ToolCalls, agents.RunStepToolCall{
			ID:   c.ID,
			Type: agents.ToolTypeFunction,
			Function: &agents.RunStepFunctionCall{
				Name:      c.Function.Name,
				Arguments: c.Function.Arguments,
				Output:    &out,
			},
		})
	}
	s.addStep(rs, details, agents.RunStepTypeToolCalls)
}

func (s *Server) addStep(rs *runState, details agents.RunStepDetails, typ agents.RunStepType) agents.RunStep {
	st := agents.RunStep{
		ID:          newID("step_"),
		Object:      "thread.run.step",
		CreatedAt:   s.now(),
		RunID:       rs.run.ID,
		AgentID:     rs.run.AgentID,
		ThreadID:    rs.run.ThreadID,
		Type:        typ,
		Status:      "completed",
		StepDetails: details,
	}
	st.CompletedAt = st.CreatedAt
	rs.steps = append(rs.steps, st)
	return st
}

// Streaming.

type event struct {
	name string
	data any
}

// streamProgress runs rs until it requires action or ends and returns the
// events a streaming client would see. Callers hold s.mu.
func (s *Server) streamProgress(rs *runState, ts *threadState) []event {
	var events []event
	rs.run.Status = agents.RunStatusInProgress
	if rs.run.StartedAt == 0 {
		rs.run.StartedAt = s.now()
	}
	events = append(events, event{agents.EventRunInProgress, rs.run})

	if rs.script.StreamError != nil {
		rs.run.Status = agents.RunStatusFailed
		rs.run.LastError = rs.script.StreamError
		return append(events, event{agents.EventError, map[string]any{"error": rs.script.StreamError}})
	}

	if rs.round < len(rs.script.ToolCalls) {
		s.requireAction(rs)
		step := agents.RunStep{
			ID:        newID("step_"),
			Object:    "thread.run.step",
			CreatedAt: s.now(),
			RunID:     rs.run.ID,
			ThreadID:  rs.run.ThreadID,
			Type:      agents.RunStepTypeToolCalls,
			Status:    "in_progress",
			StepDetails: agents.RunStepDetails{
				Type: string(agents.RunStepTypeToolCalls),
			},
		}
		events = append(events,
			event{agents.EventRunStepCreated, step},
			event{agents.EventRunRequiresAction, rs.run},
		)
		return append(events, event{agents.EventDone, nil})
	}

	reply := s.finish(rs, ts)
	if reply != nil {
		inProgress := *reply
		inProgress.Status = "in_progress"
		inProgress.Content = nil
		events = append(events, event{agents.EventMessageCreated, inProgress})
		for _, chunk := range splitReply(rs.script.Reply) {
			events = append(events, event{agents.EventMessageDelta, agents.MessageDelta{
				ID:      reply.ID,
				Content: []agents.MessageDeltaContent{{Index: 0, Content: &agents.TextContent{Value: chunk}}},
			}})
		}
		events = append(events, event{agents.EventMessageCompleted, *reply})
		events = append(events, event{agents.EventRunStepCompleted, rs.steps[len(rs.steps)-1]})
	}
	events = append(events, event{"thread.run." + string(rs.run.Status), rs.run})
	return append(events, event{agents.EventDone, nil})
}

// splitReply cuts text into word-sized deltas.
func splitReply(text string) []string {
	return strings.SplitAfter(text, " ")
}

func writeEvents(w http.ResponseWriter, events []event, keepAlive bool) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if keepAlive {
		fmt.Fprint(w, ": keep-alive\n\n")
	}
	for _, ev := range events {
		data := []byte("[DONE]")
		if ev.data != nil {
			var err error
			if data, err = json.Marshal(ev.data); err != nil {
				return
			}
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, data)
		if flusher != nil {
			flusher.Flush()
		}
	}
}
