// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/azure-ai-foundry/foundry-samples/go/internal/azhttp"
)

// Client calls the Foundry agents data-plane API of a single project.
// It is safe for concurrent use.
type Client struct {
	http         *azhttp.Client
	pollInterval time.Duration
}

// NewClient creates a [Client] for a project endpoint such as
// https://<resource>.services.ai.azure.com/api/projects/<project>.
//
//	cred, err := azidentity.NewDefaultAzureCredential(nil)
//	client, err := agents.NewClient(os.Getenv("PROJECT_ENDPOINT"), cred)
func NewClient(endpoint string, cred azcore.TokenCredential, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		apiVersion:   DefaultAPIVersion,
		scopes:       []string{DefaultScope},
		pollInterval: DefaultPollInterval,
	}
	for _, o := range opts {
		o(cfg)
	}

	hopts := azhttp.Options{
		Credential:    cred,
		Scopes:        cfg.scopes,
		APIVersion:    cfg.apiVersion,
		Headers:       cfg.headers,
		MaxRetries:    cfg.maxRetries,
		RetryDelay:    cfg.retryDelay,
		ApplicationID: cfg.applicationID,
	}
	if cfg.httpClient != nil {
		hopts.Transport = cfg.httpClient
	}
	hc, err := azhttp.New(endpoint, hopts)
	if err != nil {
		return nil, err
	}
	slog.Debug("agents client created", "endpoint", hc.Endpoint(), "api_version", cfg.apiVersion)
	return &Client{http: hc, pollInterval: cfg.pollInterval}, nil
}

// Endpoint returns the project endpoint.
func (c *Client) Endpoint() string { return c.http.Endpoint() }

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.http.DoJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.http.DoJSON(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) (*DeletionStatus, error) {
	var out DeletionStatus
	if err := c.http.DoJSON(ctx, http.MethodDelete, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (o *ListOptions) query() url.Values {
	q := url.Values{}
	if o == nil {
		return q
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Order != "" {
		q.Set("order", string(o.Order))
	}
	if o.After != "" {
		q.Set("after", o.After)
	}
	if o.Before != "" {
		q.Set("before", o.Before)
	}
	return q
}
