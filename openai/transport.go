// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/azure-ai-foundry/foundry-samples/go/internal/azhttp"
)

// transport is an unexported interface for HTTP communication.
// The default implementation runs on the azcore pipeline; tests inject a mock.
type transport interface {
	do(ctx context.Context, path string, body, out any) error
	stream(ctx context.Context, path string, body any) (io.ReadCloser, error)
}

// pipelineTransport sends requests through an [azhttp.Client].
type pipelineTransport struct {
	client *azhttp.Client
}

func newPipelineTransport(endpoint string, cfg *clientConfig) (*pipelineTransport, error) {
	opts := azhttp.Options{
		Credential: cfg.azureCredential,
		Scopes:     cfg.scopes,
		APIKey:     cfg.apiKey,
		APIVersion: cfg.apiVersion,
		Headers:    cfg.headers,
		MaxRetries: cfg.maxRetries,
	}
	if cfg.httpClient != nil {
		opts.Transport = cfg.httpClient
	}
	if len(opts.Scopes) == 0 {
		opts.Scopes = []string{DefaultScope}
	}
	if opts.Credential != nil {
		slog.Debug("using Microsoft Entra ID authentication", "scopes", opts.Scopes)
	}
	c, err := azhttp.New(endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &pipelineTransport{client: c}, nil
}

func (t *pipelineTransport) do(ctx context.Context, path string, body, out any) error {
	return t.client.DoJSON(ctx, http.MethodPost, path, url.Values{}, body, out)
}

func (t *pipelineTransport) stream(ctx context.Context, path string, body any) (io.ReadCloser, error) {
	return t.client.Stream(ctx, http.MethodPost, path, url.Values{}, body)
}
