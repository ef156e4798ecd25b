// Copyright (c) Microsoft. All rights reserved.

package agents_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/agentstest"
)

func newFixture(t *testing.T) (*agentstest.Server, *agents.Client) {
	t.Helper()
	srv := agentstest.NewServer(t)
	return srv, srv.NewClient(t)
}

func createAgent(t *testing.T, client *agents.Client, opts agents.CreateAgentOptions) *agents.Agent {
	t.Helper()
	if opts.Model == "" {
		opts.Model = "gpt-4o"
	}
	a, err := client.CreateAgent(context.Background(), opts)
	require.NoError(t, err)
	return a
}

func TestNewClient_RequiresCredential(t *testing.T) {
	_, err := agents.NewClient("https://example.services.ai.azure.com/api/projects/demo", nil)
	assert.ErrorIs(t, err, af.ErrAuth)
}

func TestNewClient_RejectsBadEndpoint(t *testing.T) {
	_, err := agents.NewClient("not a url", agentstest.StaticCredential{})
	assert.ErrorIs(t, err, af.ErrInvalidRequest)
}

func TestAgentLifecycle(t *testing.T) {
	ctx := context.Background()
	srv, client := newFixture(t)

	temp := 0.2
	a, err := client.CreateAgent(ctx, agents.CreateAgentOptions{
		Model:        "gpt-4o",
		Name:         "my-agent",
		Instructions: "You are a helpful agent",
		Tools:        []agents.ToolDefinition{agents.CodeInterpreterTool()},
		Temperature:  &temp,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "my-agent", a.Name)
	require.Len(t, a.Tools, 1)
	assert.Equal(t, agents.ToolTypeCodeInterpreter, a.Tools[0].Type)

	got, err := client.GetAgent(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "You are a helpful agent", got.Instructions)

	updated, err := client.UpdateAgent(ctx, a.ID, agents.UpdateAgentOptions{Instructions: "Be brief"})
	require.NoError(t, err)
	assert.Equal(t, "Be brief", updated.Instructions)
	assert.Equal(t, "my-agent", updated.Name)

	st, err := client.DeleteAgent(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, st.Deleted)
	assert.Equal(t, 0, srv.Counts().Agents)

	_, err = client.GetAgent(ctx, a.ID)
	assert.ErrorIs(t, err, af.ErrNotFound)
	var se *af.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "not_found", se.Code)
	assert.NotEmpty(t, se.RequestID)
}

func TestCreateAgent_RequiresModel(t *testing.T) {
	_, client := newFixture(t)
	_, err := client.CreateAgent(context.Background(), agents.CreateAgentOptions{Name: "x"})
	assert.ErrorIs(t, err, af.ErrInvalidRequest)
}

func TestListAgents_Paging(t *testing.T) {
	ctx := context.Background()
	_, client := newFixture(t)
	var ids []string
	for i := range 3 {
		ids = append(ids, createAgent(t, client, agents.CreateAgentOptions{Name: fmt.Sprintf("agent-%d", i)}).ID)
	}

	first, err := client.ListAgents(ctx, &agents.ListOptions{Limit: 2, Order: agents.ListOrderAsc})
	require.NoError(t, err)
	require.Len(t, first.Data, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, ids[0], first.FirstID)
	assert.Equal(t, ids[1], first.LastID)

	second, err := client.ListAgents(ctx, &agents.ListOptions{Limit: 2, Order: agents.ListOrderAsc, After: first.LastID})
	require.NoError(t, err)
	require.Len(t, second.Data, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, ids[2], second.Data[0].ID)

	desc, err := client.ListAgents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, desc.Data, 3)
	assert.Equal(t, ids[2], desc.Data[0].ID)
}

func TestThreadsAndMessages(t *testing.T) {
	ctx := context.Background()
	srv, client := newFixture(t)

	thread, err := client.CreateThread(ctx, &agents.CreateThreadOptions{
		Messages: []agents.MessageInput{agents.UserMessage("first")},
	})
	require.NoError(t, err)

	got, err := client.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, thread.ID, got.ID)

	msg, err := client.CreateMessage(ctx, thread.ID, agents.MessageInput{
		Role:   agents.MessageRoleUser,
		Blocks: []agents.InputContentBlock{agents.TextBlock("look at this"), agents.ImageURLBlock("https://example.com/cat.png", "low")},
	})
	require.NoError(t, err)
	require.Len(t, msg.Content, 2)
	assert.Equal(t, "look at this", msg.Text())
	img, ok := msg.Content[1].(*agents.ImageURLContent)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/cat.png", img.URL)

	fetched, err := client.GetMessage(ctx, thread.ID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, fetched.ID)

	list, err := client.ListMessages(ctx, thread.ID, &agents.ListMessagesOptions{
		ListOptions: agents.ListOptions{Order: agents.ListOrderAsc},
	})
	require.NoError(t, err)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "first", list.Data[0].Text())
	assert.Equal(t, 2, srv.Counts().Messages)

	_, err = client.DeleteThread(ctx, thread.ID)
	require.NoError(t, err)
	_, err = client.GetThread(ctx, thread.ID)
	assert.ErrorIs(t, err, af.ErrNotFound)
}

func TestCreateMessage_Validation(t *testing.T) {
	ctx := context.Background()
	_, client := newFixture(t)

	_, err := client.CreateMessage(ctx, "", agents.UserMessage("hi"))
	assert.ErrorIs(t, err, af.ErrInvalidRequest)

	thread, err := client.CreateThread(ctx, nil)
	require.NoError(t, err)
	_, err = client.CreateMessage(ctx, thread.ID, agents.MessageInput{})
	assert.ErrorIs(t, err, af.ErrInvalidRequest)
}

func TestListAllMessages_FollowsPages(t *testing.T) {
	ctx := context.Background()
	_, client := newFixture(t)
	thread, err := client.CreateThread(ctx, nil)
	require.NoError(t, err)
	for i := range 5 {
		_, err := client.CreateMessage(ctx, thread.ID, agents.UserMessage(fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
	}

	all, err := client.ListAllMessages(ctx, thread.ID, &agents.ListMessagesOptions{
		ListOptions: agents.ListOptions{Limit: 2, Order: agents.ListOrderAsc},
	})
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, m := range all {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Text())
	}
}

func TestUploadFile(t *testing.T) {
	ctx := context.Background()
	srv, client := newFixture(t)

	content := []byte("Contoso sells the Alpine Explorer tent for $120.")
	f, err := client.UploadFile(ctx, bytes.NewReader(content), "products.md", agents.FilePurposeAgents)
	require.NoError(t, err)
	assert.Equal(t, "products.md", f.Filename)
	assert.Equal(t, agents.FilePurposeAgents, f.Purpose)
	assert.EqualValues(t, len(content), f.Bytes)

	stored, ok := srv.FileContent(f.ID)
	require.True(t, ok)
	assert.Equal(t, content, stored)

	got, err := client.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	names := client.FileNames(ctx, []string{f.ID, "assistant-missing"})
	assert.Equal(t, map[string]string{f.ID: "products.md"}, names)

	_, err = client.DeleteFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, srv.Counts().Files)
}

func TestUploadFilePath_MissingFile(t *testing.T) {
	_, client := newFixture(t)
	_, err := client.UploadFilePath(context.Background(), "does/not/exist.md", agents.FilePurposeAgents)
	assert.ErrorIs(t, err, af.ErrInvalidRequest)
}

func TestVectorStore_WaitCompletes(t *testing.T) {
	ctx := context.Background()
	srv, client := newFixture(t)
	srv.SetVectorStoreBehavior(2, agents.VectorStoreStatusCompleted)

	f, err := client.UploadFile(ctx, bytes.NewReader([]byte("doc")), "doc.txt", agents.FilePurposeAgents)
	require.NoError(t, err)
	vs, err := client.CreateVectorStore(ctx, agents.CreateVectorStoreOptions{Name: "docs", FileIDs: []string{f.ID}})
	require.NoError(t, err)
	assert.Equal(t, agents.VectorStoreStatusInProgress, vs.Status)

	done, err := client.WaitForVectorStore(ctx, vs.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, agents.VectorStoreStatusCompleted, done.Status)
	assert.Equal(t, 1, done.FileCounts.Completed)

	second, err := client.UploadFile(ctx, bytes.NewReader([]byte("more")), "more.txt", "")
	require.NoError(t, err)
	vf, err := client.CreateVectorStoreFile(ctx, vs.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, vs.ID, vf.VectorStoreID)

	_, err = client.DeleteVectorStore(ctx, vs.ID)
	require.NoError(t, err)
	_, err = client.GetVectorStore(ctx, vs.ID)
	assert.ErrorIs(t, err, af.ErrNotFound)
}

func TestVectorStore_WaitReportsFailure(t *testing.T) {
	ctx := context.Background()
	srv, client := newFixture(t)
	srv.SetVectorStoreBehavior(0, agents.VectorStoreStatusFailed)

	vs, err := client.CreateVectorStore(ctx, agents.CreateVectorStoreOptions{Name: "empty"})
	require.NoError(t, err)
	got, err := client.WaitForVectorStore(ctx, vs.ID, 0)
	assert.ErrorIs(t, err, agents.ErrVectorStoreFailed)
	require.NotNil(t, got)
	assert.Equal(t, agents.VectorStoreStatusFailed, got.Status)
}

func TestServiceErrorsAreClassified(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   error
	}{
		{http.StatusTooManyRequests, "rate_limit_exceeded", af.ErrRateLimited},
		{http.StatusForbidden, "forbidden", af.ErrAuth},
		{http.StatusBadRequest, "content_filter", af.ErrContentFilter},
		{http.StatusInternalServerError, "server_error", af.ErrService},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			srv, client := newFixture(t)
			srv.FailNext(http.MethodPost, "/threads", tt.status, tt.code)
			_, err := client.CreateThread(context.Background(), nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var se *af.ServiceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
		})
	}
}

func TestListRunSteps(t *testing.T) {
	ctx := context.Background()
	_, client := newFixture(t)
	agent := createAgent(t, client, agents.CreateAgentOptions{Tools: agents.FunctionTools(weatherTool())})
	thread, err := client.CreateThread(ctx, nil)
	require.NoError(t, err)

	run, err := client.CreateAndProcessRun(ctx, thread.ID, agents.CreateRunOptions{AgentID: agent.ID}, nil)
	require.NoError(t, err)

	steps, err := client.ListRunSteps(ctx, thread.ID, run.ID, &agents.ListOptions{Order: agents.ListOrderAsc})
	require.NoError(t, err)
	require.Len(t, steps.Data, 1)
	step := steps.Data[0]
	assert.Equal(t, agents.RunStepTypeMessageCreation, step.Type)
	require.NotNil(t, step.StepDetails.MessageCreation)

	got, err := client.GetRunStep(ctx, thread.ID, run.ID, step.ID)
	require.NoError(t, err)
	assert.Equal(t, step.ID, got.ID)

	msg, err := client.GetMessage(ctx, thread.ID, step.StepDetails.MessageCreation.MessageID)
	require.NoError(t, err)
	assert.Equal(t, "Done.", msg.Text())
}
