// Copyright (c) Microsoft. All rights reserved.

package agents_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/agentstest"
)

func TestGetFileContent(t *testing.T) {
	ctx := context.Background()
	_, client := newFixture(t)

	content := []byte("name,price\ntent,120\n")
	f, err := client.UploadFile(ctx, bytes.NewReader(content), "prices.csv", agents.FilePurposeAgents)
	require.NoError(t, err)

	rc, err := client.GetFileContent(ctx, f.ID)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = client.GetFileContent(ctx, "assistant-missing")
	assert.ErrorIs(t, err, af.ErrNotFound)

	_, err = client.GetFileContent(ctx, "")
	assert.ErrorIs(t, err, af.ErrInvalidRequest)
}

func TestSaveImageFiles(t *testing.T) {
	ctx := context.Background()
	srv, client, agent, thread := runFixture(t)
	png := []byte("\x89PNG\r\n\x1a\nchart")
	srv.QueueRun(agentstest.RunScript{
		Reply:  "Here is the chart.",
		Images: [][]byte{png, []byte("\x89PNG\r\n\x1a\nlegend")},
	})

	run, err := client.CreateAndProcessRun(ctx, thread.ID, agents.CreateRunOptions{AgentID: agent.ID}, nil)
	require.NoError(t, err)
	msgs, err := client.ListAllMessages(ctx, thread.ID, &agents.ListMessagesOptions{RunID: run.ID})
	require.NoError(t, err)
	reply, ok := agents.LatestAssistantMessage(msgs)
	require.True(t, ok)
	require.Len(t, reply.Content, 3)
	img, ok := reply.Content[1].(*agents.ImageFileContent)
	require.True(t, ok)

	// The same image referenced twice is written once.
	dir := filepath.Join(t.TempDir(), "images")
	paths, err := client.SaveImageFiles(ctx, dir, append(msgs, *reply))
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, img.FileID+".png"), paths[0])

	got, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, png, got)
}

func TestSaveImageFiles_MissingFile(t *testing.T) {
	_, client := newFixture(t)
	msgs := []agents.ThreadMessage{{Content: []agents.MessageContent{&agents.ImageFileContent{FileID: "assistant-gone"}}}}
	paths, err := client.SaveImageFiles(context.Background(), t.TempDir(), msgs)
	assert.ErrorIs(t, err, af.ErrNotFound)
	assert.Empty(t, paths)
}
