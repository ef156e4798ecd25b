// Copyright (c) Microsoft. All rights reserved.

package azhttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/azhttp"
)

type staticCredential struct {
	calls atomic.Int32
}

func (c *staticCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.calls.Add(1)
	return azcore.AccessToken{Token: "test-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*azhttp.Options)) *azhttp.Client {
	t.Helper()
	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)

	opts := azhttp.Options{
		Credential: &staticCredential{},
		Scopes:     []string{"https://ai.azure.com/.default"},
		APIVersion: "v1",
		Transport:  srv.Client(),
		MaxRetries: -1,
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := azhttp.New(srv.URL+"/api/projects/demo/", opts)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresCredential(t *testing.T) {
	_, err := azhttp.New("https://example.test", azhttp.Options{})
	assert.ErrorIs(t, err, af.ErrAuth)

	_, err = azhttp.New("not a url", azhttp.Options{APIKey: "k"})
	assert.ErrorIs(t, err, af.ErrInvalidRequest)
}

func TestDoJSON_BearerTokenAndAPIVersion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/projects/demo/assistants", r.URL.Path)
		assert.Equal(t, "v1", r.URL.Query().Get("api-version"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"asst_1","object":"assistant"}`))
	}, nil)

	var out struct {
		ID string `json:"id"`
	}
	err := c.DoJSON(context.Background(), http.MethodPost, "/assistants",
		url.Values{"order": {"desc"}}, map[string]any{"model": "gpt-4o"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "asst_1", out.ID)
	assert.NotContains(t, c.Endpoint()[len(c.Endpoint())-1:], "/")
}

func TestDoJSON_APIKeyAndHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "sample", r.Header.Get("x-ms-client-tag"))
		w.WriteHeader(http.StatusNoContent)
	}, func(o *azhttp.Options) {
		o.Credential = nil
		o.APIKey = "secret"
		o.Headers = map[string]string{"x-ms-client-tag": "sample"}
	})

	require.NoError(t, c.DoJSON(context.Background(), http.MethodDelete, "/files/f1", nil, nil, nil))
}

func TestDoJSON_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		code   string
		msg    string
	}{
		{"not found", 404, `{"error":{"code":"not_found","message":"No assistant found"}}`, af.ErrNotFound, "not_found", "No assistant found"},
		{"unauthorized", 401, `{"error":{"code":"PermissionDenied","message":"denied"}}`, af.ErrAuth, "PermissionDenied", "denied"},
		{"throttled", 429, `{"error":{"message":"slow down","type":"rate_limit"}}`, af.ErrRateLimited, "rate_limit", "slow down"},
		{"content filter", 400, `{"error":{"code":"content_filter","message":"filtered"}}`, af.ErrContentFilter, "content_filter", "filtered"},
		{"bad request", 400, `{"error":{"message":"missing model"}}`, af.ErrInvalidRequest, "", "missing model"},
		{"plain text", 500, `upstream exploded`, af.ErrService, "", "upstream exploded"},
		{"top level message", 503, `{"message":"unavailable"}`, af.ErrService, "", "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("x-request-id", "req-123")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, nil)

			err := c.DoJSON(context.Background(), http.MethodGet, "/assistants/x", nil, nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var se *af.ServiceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.msg, se.Message)
			assert.Equal(t, "req-123", se.RequestID)
		})
	}
}

func TestDoJSON_InvalidResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{not json`))
	}, nil)

	var out map[string]any
	err := c.DoJSON(context.Background(), http.MethodGet, "/threads/t", nil, nil, &out)
	assert.ErrorIs(t, err, af.ErrInvalidResponse)
}

func TestDoJSON_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}, func(o *azhttp.Options) {
		o.MaxRetries = 2
		o.RetryDelay = time.Millisecond
	})

	require.NoError(t, c.DoJSON(context.Background(), http.MethodGet, "/threads/t", nil, nil, nil))
	assert.Equal(t, int32(2), calls.Load())
}

func TestStream_ReturnsOpenBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("event: done\ndata: [DONE]\n\n"))
	}, nil)

	body, err := c.Stream(context.Background(), http.MethodPost, "/threads/t/runs", nil, map[string]any{"stream": true})
	require.NoError(t, err)
	defer body.Close()

	b, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "event: done\ndata: [DONE]\n\n", string(b))
}

func TestStream_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"thread missing"}}`))
	}, nil)

	_, err := c.Stream(context.Background(), http.MethodPost, "/threads/t/runs", nil, nil)
	assert.ErrorIs(t, err, af.ErrNotFound)
}

func TestEnableLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	azhttp.EnableLogging(logger)
	t.Cleanup(func() { azhttp.EnableLogging(nil) })

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, nil)
	require.NoError(t, c.DoJSON(context.Background(), http.MethodGet, "/threads/t", nil, nil, nil))

	assert.Contains(t, buf.String(), "source=azcore")
}
