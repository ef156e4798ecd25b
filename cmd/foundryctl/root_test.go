// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/agentstest"
	"github.com/azure-ai-foundry/foundry-samples/go/config"
	"github.com/azure-ai-foundry/foundry-samples/go/openai"
)

func newTestApp(t *testing.T, srv *agentstest.Server, env map[string]string) *app {
	t.Helper()
	vars := map[string]string{"PROJECT_ENDPOINT": srv.URL()}
	for k, v := range env {
		vars[k] = v
	}
	a := newApp()
	a.loadOpts = config.LoadOptions{
		Dir: t.TempDir(),
		LookupEnv: func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		},
	}
	a.newCredential = func(*config.Config) (azcore.TokenCredential, error) {
		return agentstest.StaticCredential{}, nil
	}
	a.agentsOpts = []agents.Option{
		agents.WithHTTPClient(srv.HTTPClient()),
		agents.WithMaxRetries(-1),
		agents.WithPollInterval(time.Millisecond),
	}
	return a
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--plain"}, args...))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestAgentsCommands(t *testing.T) {
	srv := agentstest.NewServer(t)
	client := srv.NewClient(t)
	alpha, err := client.CreateAgent(t.Context(), agents.CreateAgentOptions{Model: "gpt-4o", Name: "alpha", Instructions: "Be brief."})
	require.NoError(t, err)
	_, err = client.CreateAgent(t.Context(), agents.CreateAgentOptions{Model: "gpt-4o", Name: "beta"})
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		out, err := execute(t, newTestApp(t, srv, nil), "agents", "list")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "ID"))
		assert.Contains(t, lines[0], "NAME")
		assert.Contains(t, out, alpha.ID)
		assert.Contains(t, out, "beta")
		assert.NotContains(t, out, "More:")
	})

	t.Run("list paged", func(t *testing.T) {
		out, err := execute(t, newTestApp(t, srv, nil), "agents", "list", "--limit", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "More: use --after ")
	})

	t.Run("get yaml", func(t *testing.T) {
		out, err := execute(t, newTestApp(t, srv, nil), "agents", "get", alpha.ID)
		require.NoError(t, err)
		assert.Contains(t, out, "name: alpha\n")
		assert.Contains(t, out, "instructions: Be brief.\n")
	})

	t.Run("get json", func(t *testing.T) {
		out, err := execute(t, newTestApp(t, srv, nil), "agents", "get", alpha.ID, "-o", "json")
		require.NoError(t, err)
		var got agents.Agent
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, alpha.ID, got.ID)
		assert.Equal(t, "gpt-4o", got.Model)
	})

	t.Run("get unknown format", func(t *testing.T) {
		_, err := execute(t, newTestApp(t, srv, nil), "agents", "get", alpha.ID, "-o", "xml")
		assert.ErrorContains(t, err, `unknown output format "xml"`)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := execute(t, newTestApp(t, srv, nil), "agents", "get", "asst_missing")
		assert.ErrorIs(t, err, af.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		out, err := execute(t, newTestApp(t, srv, nil), "agents", "delete", alpha.ID)
		require.NoError(t, err)
		assert.Equal(t, "Deleted: "+alpha.ID+"\n", out)
		_, ok := srv.Agent(alpha.ID)
		assert.False(t, ok)
	})
}

func TestAsk(t *testing.T) {
	t.Run("temporary agent", func(t *testing.T) {
		srv := agentstest.NewServer(t)
		out, err := execute(t, newTestApp(t, srv, nil), "ask", "--steps", "What", "is", "new?")
		require.NoError(t, err)
		assert.Contains(t, out, "User: What is new?\n")
		assert.Contains(t, out, "Run status: completed\n")
		assert.Contains(t, out, "assistant:\nDone.\n")
		assert.Contains(t, out, "Total tokens")
		assert.Contains(t, out, "created message")
		assert.Equal(t, agentstest.Counts{}, srv.Counts())

		reqs := srv.RunRequests()
		require.Len(t, reqs, 1)
		assert.False(t, reqs[0].Stream)
	})

	t.Run("stream", func(t *testing.T) {
		srv := agentstest.NewServer(t)
		out, err := execute(t, newTestApp(t, srv, nil), "ask", "--stream", "Hi")
		require.NoError(t, err)
		assert.Contains(t, out, "Agent: Done.\n")
		assert.Contains(t, out, "Run status: completed\n")
		assert.Equal(t, agentstest.Counts{}, srv.Counts())

		reqs := srv.RunRequests()
		require.Len(t, reqs, 1)
		assert.True(t, reqs[0].Stream)
	})

	t.Run("keep", func(t *testing.T) {
		srv := agentstest.NewServer(t)
		out, err := execute(t, newTestApp(t, srv, nil), "ask", "--keep", "--name", "kept", "Hi")
		require.NoError(t, err)
		assert.Contains(t, out, "Thread: thread_")
		c := srv.Counts()
		assert.Equal(t, 1, c.Agents)
		assert.Equal(t, 1, c.Threads)
	})

	t.Run("existing agent", func(t *testing.T) {
		srv := agentstest.NewServer(t)
		ag, err := srv.NewClient(t).CreateAgent(t.Context(), agents.CreateAgentOptions{Model: "gpt-4o", Name: "existing"})
		require.NoError(t, err)

		_, err = execute(t, newTestApp(t, srv, nil), "ask", "--agent", ag.ID, "Hi")
		require.NoError(t, err)
		_, ok := srv.Agent(ag.ID)
		assert.True(t, ok, "existing agent must survive")
		assert.Zero(t, srv.Counts().Threads)
	})

	t.Run("failed run", func(t *testing.T) {
		srv := agentstest.NewServer(t)
		srv.QueueRun(agentstest.RunScript{
			FinalStatus: agents.RunStatusFailed,
			LastError:   &agents.LastError{Code: "rate_limit_exceeded", Message: "slow down"},
		})
		out, err := execute(t, newTestApp(t, srv, nil), "ask", "Hi")
		require.Error(t, err)
		assert.ErrorIs(t, err, af.ErrRunFailed)
		assert.Contains(t, out, "Run failed: slow down (rate_limit_exceeded)\n")
		assert.Equal(t, agentstest.Counts{}, srv.Counts())
	})

	t.Run("missing endpoint", func(t *testing.T) {
		srv := agentstest.NewServer(t)
		a := newTestApp(t, srv, map[string]string{"PROJECT_ENDPOINT": ""})
		_, err := execute(t, a, "ask", "Hi")
		assert.ErrorIs(t, err, config.ErrMissingSetting)
	})
}

func TestThreadsAndRuns(t *testing.T) {
	srv := agentstest.NewServer(t)
	client := srv.NewClient(t)
	ctx := t.Context()
	ag, err := client.CreateAgent(ctx, agents.CreateAgentOptions{Model: "gpt-4o", Name: "runner"})
	require.NoError(t, err)
	th, err := client.CreateThread(ctx, &agents.CreateThreadOptions{
		Messages: []agents.MessageInput{agents.UserMessage("Hello agent")},
	})
	require.NoError(t, err)
	run, err := client.CreateAndProcessRun(ctx, th.ID, agents.CreateRunOptions{AgentID: ag.ID}, nil)
	require.NoError(t, err)
	require.Equal(t, agents.RunStatusCompleted, run.Status)

	t.Run("messages", func(t *testing.T) {
		out, err := execute(t, newTestApp(t, srv, nil), "threads", "messages", th.ID)
		require.NoError(t, err)
		user := strings.Index(out, "user:\nHello agent\n")
		reply := strings.Index(out, "assistant:\nDone.\n")
		require.GreaterOrEqual(t, user, 0)
		require.GreaterOrEqual(t, reply, 0)
		assert.Less(t, user, reply)
	})

	t.Run("messages by run", func(t *testing.T) {
		out, err := execute(t, newTestApp(t, srv, nil), "threads", "messages", th.ID, "--run", run.ID)
		require.NoError(t, err)
		assert.NotContains(t, out, "Hello agent")
		assert.Contains(t, out, "Done.")
	})

	t.Run("run get", func(t *testing.T) {
		out, err := execute(t, newTestApp(t, srv, nil), "runs", "get", th.ID, run.ID)
		require.NoError(t, err)
		assert.Contains(t, out, "Run: "+run.ID+"\n")
		assert.Contains(t, out, "Agent: "+ag.ID+"\n")
		assert.Contains(t, out, "Run status: completed\n")
		assert.Contains(t, out, "Total tokens")
	})

	t.Run("run steps", func(t *testing.T) {
		out, err := execute(t, newTestApp(t, srv, nil), "runs", "steps", th.ID, run.ID)
		require.NoError(t, err)
		assert.Contains(t, out, "message_creation, completed)")
	})

	t.Run("thread delete", func(t *testing.T) {
		out, err := execute(t, newTestApp(t, srv, nil), "threads", "delete", th.ID)
		require.NoError(t, err)
		assert.Equal(t, "Deleted: "+th.ID+"\n", out)
		assert.Zero(t, srv.Counts().Threads)
	})
}

func TestThreadMessagesSaveImages(t *testing.T) {
	srv := agentstest.NewServer(t)
	client := srv.NewClient(t)
	ctx := t.Context()
	ag, err := client.CreateAgent(ctx, agents.CreateAgentOptions{Model: "gpt-4o", Name: "charts"})
	require.NoError(t, err)
	th, err := client.CreateThread(ctx, &agents.CreateThreadOptions{
		Messages: []agents.MessageInput{agents.UserMessage("Plot the sales")},
	})
	require.NoError(t, err)
	srv.QueueRun(agentstest.RunScript{Reply: "Here is the plot.", Images: [][]byte{[]byte("png bytes")}})
	_, err = client.CreateAndProcessRun(ctx, th.ID, agents.CreateRunOptions{AgentID: ag.ID}, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	out, err := execute(t, newTestApp(t, srv, nil), "threads", "messages", th.ID, "--save-images", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Here is the plot.")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	path := filepath.Join(dir, entries[0].Name())
	assert.Contains(t, out, "Saved: "+path+"\n")
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(got))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func chatApp(t *testing.T, fn roundTripFunc) *app {
	t.Helper()
	srv := agentstest.NewServer(t)
	a := newTestApp(t, srv, map[string]string{"AZURE_AI_API_KEY": "test-key"})
	a.newCredential = func(*config.Config) (azcore.TokenCredential, error) {
		return nil, errors.New("credential must not be used with an API key")
	}
	a.chatOpts = []openai.Option{
		openai.WithHTTPClient(&http.Client{Transport: fn}),
		openai.WithMaxRetries(-1),
	}
	return a
}

func TestChat(t *testing.T) {
	t.Run("response", func(t *testing.T) {
		var body map[string]any
		a := chatApp(t, func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "test-key", req.Header.Get("api-key"))
			assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions", req.URL.Path)
			data, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(data, &body)
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body: io.NopCloser(strings.NewReader(`{"id":"chatcmpl-1","model":"gpt-4o",` +
					`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Hello there."}}],` +
					`"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`)),
			}, nil
		})

		out, err := execute(t, a, "chat", "--system", "Be terse.", "--max-tokens", "50", "Say", "hello")
		require.NoError(t, err)
		assert.Contains(t, out, "User: Say hello\n")
		assert.Contains(t, out, "Agent: Hello there.\n")
		assert.Contains(t, out, "15\n")

		msgs, _ := body["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.EqualValues(t, 50, body["max_completion_tokens"])
		assert.NotContains(t, body, "temperature")
	})

	t.Run("stream", func(t *testing.T) {
		sse := strings.Join([]string{
			`data: {"id":"chatcmpl-2","model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`,
			``,
			`data: {"id":"chatcmpl-2","model":"gpt-4o","choices":[{"index":0,"delta":{"content":"lo."}}]}`,
			``,
			`data: {"id":"chatcmpl-2","model":"gpt-4o","choices":[{"index":0,"delta":{},"finish_reason":"stop"}],"usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6}}`,
			``,
			`data: [DONE]`,
			``,
		}, "\n")
		a := chatApp(t, func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
				Body:       io.NopCloser(strings.NewReader(sse)),
			}, nil
		})

		out, err := execute(t, a, "chat", "--stream", "Hi")
		require.NoError(t, err)
		assert.Contains(t, out, "Agent: Hello.\n")
		assert.Contains(t, out, "6\n")
	})

	t.Run("service error", func(t *testing.T) {
		a := chatApp(t, func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusUnauthorized,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(strings.NewReader(`{"error":{"code":"401","message":"Access denied"}}`)),
			}, nil
		})
		_, err := execute(t, a, "chat", "Hi")
		assert.ErrorContains(t, err, "Access denied")
	})
}
