// Copyright (c) Microsoft. All rights reserved.

// Package agentstest provides an in-memory fake of the Foundry agents REST
// API for tests. Runs follow scripts queued with [Server.QueueRun], so tests
// can exercise polling, streaming and tool calling without a network.
package agentstest

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/google/uuid"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

// StaticCredential returns a fixed bearer token.
type StaticCredential struct {
	Token string
}

// GetToken implements azcore.TokenCredential.
func (c StaticCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	tok := c.Token
	if tok == "" {
		tok = "test-token"
	}
	return azcore.AccessToken{Token: tok, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

// Counts reports how many resources currently exist.
type Counts struct {
	Agents       int
	Threads      int
	Messages     int
	Files        int
	VectorStores int
}

// Server is a fake agents service on a TLS httptest server.
type Server struct {
	srv *httptest.Server

	mu           sync.Mutex
	clock        int64
	agents       map[string]*agents.Agent
	threads      map[string]*threadState
	runs         map[string]*runState
	files        map[string]*fileState
	vectorStores map[string]*vectorStoreState
	scripts      []RunScript
	faults       []fault
	runRequests  []RunRequest
	storePolls   int
	storeFinal   string
}

type threadState struct {
	thread   agents.Thread
	messages []agents.ThreadMessage
}

type fileState struct {
	file    agents.File
	content []byte
}

type vectorStoreState struct {
	store agents.VectorStore
	polls int
}

type fault struct {
	method string
	path   string
	status int
	code   string
}

// RunRequest is a create-run request as received by the server.
type RunRequest struct {
	ThreadID   string
	Options    agents.CreateRunOptions
	ToolChoice json.RawMessage
	Stream     bool
}

// NewServer starts a fake server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		clock:        1_700_000_000,
		agents:       map[string]*agents.Agent{},
		threads:      map[string]*threadState{},
		runs:         map[string]*runState{},
		files:        map[string]*fileState{},
		vectorStores: map[string]*vectorStoreState{},
		storeFinal:   agents.VectorStoreStatusCompleted,
	}
	s.srv = httptest.NewTLSServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the endpoint to pass to [agents.NewClient].
func (s *Server) URL() string { return s.srv.URL }

// HTTPClient returns an http.Client that trusts the server certificate.
func (s *Server) HTTPClient() *http.Client { return s.srv.Client() }

// NewClient returns an agents client bound to the server with retries
// disabled and a millisecond poll interval.
func (s *Server) NewClient(t testing.TB, opts ...agents.Option) *agents.Client {
	t.Helper()
	base := []agents.Option{
		agents.WithHTTPClient(s.srv.Client()),
		agents.WithMaxRetries(-1),
		agents.WithPollInterval(time.Millisecond),
	}
	c, err := agents.NewClient(s.srv.URL, StaticCredential{}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("agentstest: new client: %v", err)
	}
	return c
}

// FailNext makes the next request matching method and path fail with status.
// Path is matched exactly against the request path.
func (s *Server) FailNext(method, path string, status int, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{method: method, path: path, status: status, code: code})
}

// SetVectorStoreBehavior makes vector stores report in_progress for polls
// reads before switching to final.
func (s *Server) SetVectorStoreBehavior(polls int, final string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storePolls = polls
	s.storeFinal = final
}

// Counts returns the number of live resources.
func (s *Server) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Counts{
		Agents:       len(s.agents),
		Threads:      len(s.threads),
		Files:        len(s.files),
		VectorStores: len(s.vectorStores),
	}
	for _, ts := range s.threads {
		c.Messages += len(ts.messages)
	}
	return c
}

// Agent returns a stored agent.
func (s *Server) Agent(id string) (agents.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return agents.Agent{}, false
	}
	return *a, true
}

// Messages returns a thread's messages in creation order.
func (s *Server) Messages(threadID string) []agents.ThreadMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.threads[threadID]
	if !ok {
		return nil
	}
	return slices.Clone(ts.messages)
}

// FileContent returns the bytes of an uploaded file.
func (s *Server) FileContent(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(f.content), true
}

// RunRequests returns every create-run request received so far.
func (s *Server) RunRequests() []RunRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.runRequests)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /assistants", s.createAgent)
	mux.HandleFunc("GET /assistants", s.listAgents)
	mux.HandleFunc("GET /assistants/{id}", s.getAgent)
	mux.HandleFunc("POST /assistants/{id}", s.updateAgent)
	mux.HandleFunc("DELETE /assistants/{id}", s.deleteAgent)

	mux.HandleFunc("POST /threads", s.createThread)
	mux.HandleFunc("GET /threads/{id}", s.getThread)
	mux.HandleFunc("DELETE /threads/{id}", s.deleteThread)
	mux.HandleFunc("POST /threads/{id}/messages", s.createMessage)
	mux.HandleFunc("GET /threads/{id}/messages", s.listMessages)
	mux.HandleFunc("GET /threads/{id}/messages/{msg}", s.getMessage)

	mux.HandleFunc("POST /threads/runs", s.createThreadAndRun)
	mux.HandleFunc("POST /threads/{id}/runs", s.createRun)
	mux.HandleFunc("GET /threads/{id}/runs/{run}", s.getRun)
	mux.HandleFunc("POST /threads/{id}/runs/{run}/cancel", s.cancelRun)
	mux.HandleFunc("POST /threads/{id}/runs/{run}/submit_tool_outputs", s.submitToolOutputs)
	mux.HandleFunc("GET /threads/{id}/runs/{run}/steps", s.listRunSteps)
	mux.HandleFunc("GET /threads/{id}/runs/{run}/steps/{step}", s.getRunStep)

	mux.HandleFunc("POST /files", s.uploadFile)
	mux.HandleFunc("GET /files/{id}", s.getFile)
	mux.HandleFunc("GET /files/{id}/content", s.getFileContent)
	mux.HandleFunc("DELETE /files/{id}", s.deleteFile)

	mux.HandleFunc("POST /vector_stores", s.createVectorStore)
	mux.HandleFunc("GET /vector_stores/{id}", s.getVectorStore)
	mux.HandleFunc("DELETE /vector_stores/{id}", s.deleteVectorStore)
	mux.HandleFunc("POST /vector_stores/{id}/files", s.createVectorStoreFile)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		if r.URL.Query().Get("api-version") == "" {
			writeError(w, http.StatusBadRequest, "missing_api_version", "api-version query parameter is required")
			return
		}
		if f, ok := s.takeFault(r); ok {
			writeError(w, f.status, f.code, "injected failure")
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (s *Server) takeFault(r *http.Request) (fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.faults {
		if f.method == r.Method && f.path == r.URL.Path {
			s.faults = slices.Delete(s.faults, i, i+1)
			return f, true
		}
	}
	return fault{}, false
}

// now returns a strictly increasing timestamp. Callers hold s.mu.
func (s *Server) now() agents.Timestamp {
	s.clock++
	return agents.Timestamp(s.clock)
}

func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// Agents.

func (s *Server) createAgent(w http.ResponseWriter, r *http.Request) {
	var req agents.CreateAgentOptions
	if !readJSON(w, r, &req) {
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "model is required")
		return
	}
	s.mu.Lock()
	a := &agents.Agent{
		ID:             newID("asst_"),
		Object:         "assistant",
		CreatedAt:      s.now(),
		Name:           req.Name,
		Description:    req.Description,
		Model:          req.Model,
		Instructions:   req.Instructions,
		Tools:          req.Tools,
		ToolResources:  req.ToolResources,
		Temperature:    req.Temperature,
		TopP:           req.TopP,
		ResponseFormat: req.ResponseFormat,
		Metadata:       req.Metadata,
	}
	if a.Tools == nil {
		a.Tools = []agents.ToolDefinition{}
	}
	s.agents[a.ID] = a
	out := *a
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	a, ok := s.agents[r.PathValue("id")]
	var out agents.Agent
	if ok {
		out = *a
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "assistant", r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	all := make([]agents.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		all = append(all, *a)
	}
	s.mu.Unlock()
	slices.SortFunc(all, func(a, b agents.Agent) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) })
	writeJSON(w, http.StatusOK, page(all, func(a agents.Agent) string { return a.ID }, r))
}

func (s *Server) updateAgent(w http.ResponseWriter, r *http.Request) {
	var req agents.UpdateAgentOptions
	if !readJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	a, ok := s.agents[r.PathValue("id")]
	var out agents.Agent
	if ok {
		if req.Model != "" {
			a.Model = req.Model
		}
		if req.Name != "" {
			a.Name = req.Name
		}
		if req.Description != "" {
			a.Description = req.Description
		}
		if req.Instructions != "" {
			a.Instructions = req.Instructions
		}
		if req.Tools != nil {
			a.Tools = req.Tools
		}
		if req.ToolResources != nil {
			a.ToolResources = req.ToolResources
		}
		if req.Temperature != nil {
			a.Temperature = req.Temperature
		}
		if req.TopP != nil {
			a.TopP = req.TopP
		}
		if req.Metadata != nil {
			a.Metadata = req.Metadata
		}
		out = *a
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "assistant", r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.agents[id]
	delete(s.agents, id)
	s.mu.Unlock()
	if !ok {
		notFound(w, "assistant", id)
		return
	}
	writeJSON(w, http.StatusOK, agents.DeletionStatus{ID: id, Object: "assistant.deleted", Deleted: true})
}

// Threads and messages.

func (s *Server) createThread(w http.ResponseWriter, r *http.Request) {
	var req agents.CreateThreadOptions
	if !readJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	ts := s.newThread(req)
	out := ts.thread
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// newThread stores a thread with its initial messages. Callers hold s.mu.
func (s *Server) newThread(req agents.CreateThreadOptions) *threadState {
	ts := &threadState{thread: agents.Thread{
		ID:            newID("thread_"),
		Object:        "thread",
		CreatedAt:     s.now(),
		ToolResources: req.ToolResources,
		Metadata:      req.Metadata,
	}}
	s.threads[ts.thread.ID] = ts
	for _, in := range req.Messages {
		s.addMessage(ts, in, "", "")
	}
	return ts
}

// addMessage appends a message built from in. Callers hold s.mu.
func (s *Server) addMessage(ts *threadState, in agents.MessageInput, agentID, runID string) agents.ThreadMessage {
	role := in.Role
	if role == "" {
		role = agents.MessageRoleUser
	}
	m := agents.ThreadMessage{
		ID:          newID("msg_"),
		Object:      "thread.message",
		CreatedAt:   s.now(),
		ThreadID:    ts.thread.ID,
		Status:      "completed",
		Role:        role,
		AgentID:     agentID,
		RunID:       runID,
		Attachments: in.Attachments,
		Metadata:    in.Metadata,
	}
	if len(in.Blocks) == 0 {
		m.Content = []agents.MessageContent{&agents.TextContent{Value: in.Content}}
	}
	for _, b := range in.Blocks {
		switch {
		case b.Type == "text":
			m.Content = append(m.Content, &agents.TextContent{Value: b.Text})
		case b.Type == "image_file" && b.ImageFile != nil:
			m.Content = append(m.Content, &agents.ImageFileContent{FileID: b.ImageFile.FileID})
		case b.Type == "image_url" && b.ImageURL != nil:
			m.Content = append(m.Content, &agents.ImageURLContent{URL: b.ImageURL.URL, Detail: b.ImageURL.Detail})
		}
	}
	ts.messages = append(ts.messages, m)
	return m
}

func (s *Server) getThread(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ts, ok := s.threads[r.PathValue("id")]
	var out agents.Thread
	if ok {
		out = ts.thread
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "thread", r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteThread(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.threads[id]
	delete(s.threads, id)
	s.mu.Unlock()
	if !ok {
		notFound(w, "thread", id)
		return
	}
	writeJSON(w, http.StatusOK, agents.DeletionStatus{ID: id, Object: "thread.deleted", Deleted: true})
}

func (s *Server) createMessage(w http.ResponseWriter, r *http.Request) {
	var in agents.MessageInput
	if !readJSON(w, r, &in) {
		return
	}
	if in.Content == "" && len(in.Blocks) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "content is required")
		return
	}
	s.mu.Lock()
	ts, ok := s.threads[r.PathValue("id")]
	var out agents.ThreadMessage
	if ok {
		out = s.addMessage(ts, in, "", "")
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "thread", r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ts, ok := s.threads[r.PathValue("id")]
	var msgs []agents.ThreadMessage
	if ok {
		runID := r.URL.Query().Get("run_id")
		for _, m := range ts.messages {
			if runID == "" || m.RunID == runID {
				msgs = append(msgs, m)
			}
		}
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "thread", r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, page(msgs, func(m agents.ThreadMessage) string { return m.ID }, r))
}

func (s *Server) getMessage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var out *agents.ThreadMessage
	if ts, ok := s.threads[r.PathValue("id")]; ok {
		for i := range ts.messages {
			if ts.messages[i].ID == r.PathValue("msg") {
				m := ts.messages[i]
				out = &m
			}
		}
	}
	s.mu.Unlock()
	if out == nil {
		notFound(w, "message", r.PathValue("msg"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Files and vector stores.

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "file is required")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	purpose := r.FormValue("purpose")
	if purpose == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "purpose is required")
		return
	}
	s.mu.Lock()
	fs := &fileState{
		file: agents.File{
			ID:        newID("assistant-"),
			Object:    "file",
			Bytes:     int64(len(content)),
			Filename:  hdr.Filename,
			CreatedAt: s.now(),
			Purpose:   agents.FilePurpose(purpose),
			Status:    "processed",
		},
		content: content,
	}
	s.files[fs.file.ID] = fs
	out := fs.file
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fs, ok := s.files[r.PathValue("id")]
	var out agents.File
	if ok {
		out = fs.file
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "file", r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getFileContent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fs, ok := s.files[r.PathValue("id")]
	var content []byte
	if ok {
		content = slices.Clone(fs.content)
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "file", r.PathValue("id"))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// addOutputFile stores content the way the code interpreter stores generated
// files. Callers hold s.mu.
func (s *Server) addOutputFile(name string, content []byte) agents.File {
	fs := &fileState{
		file: agents.File{
			ID:        newID("assistant-"),
			Object:    "file",
			Bytes:     int64(len(content)),
			Filename:  name,
			CreatedAt: s.now(),
			Purpose:   agents.FilePurposeAgentsOutput,
			Status:    "processed",
		},
		content: slices.Clone(content),
	}
	s.files[fs.file.ID] = fs
	return fs.file
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.files[id]
	delete(s.files, id)
	s.mu.Unlock()
	if !ok {
		notFound(w, "file", id)
		return
	}
	writeJSON(w, http.StatusOK, agents.DeletionStatus{ID: id, Object: "file", Deleted: true})
}

func (s *Server) createVectorStore(w http.ResponseWriter, r *http.Request) {
	var req agents.CreateVectorStoreOptions
	if !readJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	for _, id := range req.FileIDs {
		if _, ok := s.files[id]; !ok {
			s.mu.Unlock()
			notFound(w, "file", id)
			return
		}
	}
	vs := &vectorStoreState{store: agents.VectorStore{
		ID:        newID("vs_"),
		Object:    "vector_store",
		CreatedAt: s.now(),
		Name:      req.Name,
		Status:    agents.VectorStoreStatusInProgress,
		FileCounts: agents.FileCounts{
			InProgress: len(req.FileIDs),
			Total:      len(req.FileIDs),
		},
		Metadata: req.Metadata,
	}}
	s.settleVectorStore(vs)
	s.vectorStores[vs.store.ID] = vs
	out := vs.store
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// settleVectorStore moves a store to its final status once enough reads
// have happened. Callers hold s.mu.
func (s *Server) settleVectorStore(vs *vectorStoreState) {
	if vs.store.Status != agents.VectorStoreStatusInProgress || vs.polls < s.storePolls {
		return
	}
	vs.store.Status = s.storeFinal
	fc := &vs.store.FileCounts
	if s.storeFinal == agents.VectorStoreStatusCompleted {
		fc.Completed += fc.InProgress
	} else {
		fc.Failed += fc.InProgress
	}
	fc.InProgress = 0
}

func (s *Server) getVectorStore(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	vs, ok := s.vectorStores[r.PathValue("id")]
	var out agents.VectorStore
	if ok {
		vs.polls++
		s.settleVectorStore(vs)
		out = vs.store
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "vector store", r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteVectorStore(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.vectorStores[id]
	delete(s.vectorStores, id)
	s.mu.Unlock()
	if !ok {
		notFound(w, "vector store", id)
		return
	}
	writeJSON(w, http.StatusOK, agents.DeletionStatus{ID: id, Object: "vector_store.deleted", Deleted: true})
}

func (s *Server) createVectorStoreFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileID string `json:"file_id"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	vs, ok := s.vectorStores[r.PathValue("id")]
	_, fileOK := s.files[req.FileID]
	var out agents.VectorStoreFile
	if ok && fileOK {
		vs.store.FileCounts.Completed++
		vs.store.FileCounts.Total++
		out = agents.VectorStoreFile{
			ID:            req.FileID,
			Object:        "vector_store.file",
			CreatedAt:     s.now(),
			VectorStoreID: vs.store.ID,
			Status:        agents.VectorStoreStatusCompleted,
		}
	}
	s.mu.Unlock()
	switch {
	case !ok:
		notFound(w, "vector store", r.PathValue("id"))
	case !fileOK:
		notFound(w, "file", req.FileID)
	default:
		writeJSON(w, http.StatusOK, out)
	}
}

// Helpers.

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("x-request-id", uuid.NewString())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func notFound(w http.ResponseWriter, kind, id string) {
	writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("No %s found with id '%s'.", kind, id))
}

// page applies order, after, before and limit the way the service does.
// items must be in creation order. The default order is descending.
func page[T any](items []T, id func(T) string, r *http.Request) agents.ListResponse[T] {
	q := r.URL.Query()
	items = slices.Clone(items)
	if q.Get("order") != string(agents.ListOrderAsc) {
		slices.Reverse(items)
	}
	if after := q.Get("after"); after != "" {
		if i := slices.IndexFunc(items, func(v T) bool { return id(v) == after }); i >= 0 {
			items = items[i+1:]
		}
	}
	if before := q.Get("before"); before != "" {
		if i := slices.IndexFunc(items, func(v T) bool { return id(v) == before }); i >= 0 {
			items = items[:i]
		}
	}
	limit := 20
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		limit = n
	}
	resp := agents.ListResponse[T]{Object: "list", Data: items}
	if len(items) > limit {
		resp.Data = items[:limit]
		resp.HasMore = true
	}
	if resp.Data == nil {
		resp.Data = []T{}
	}
	if len(resp.Data) > 0 {
		resp.FirstID = id(resp.Data[0])
		resp.LastID = id(resp.Data[len(resp.Data)-1])
	}
	return resp
}
