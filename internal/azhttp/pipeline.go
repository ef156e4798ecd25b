// Copyright (c) Microsoft. All rights reserved.

// Package azhttp wires the azcore HTTP pipeline shared by the agents and
// openai clients: authentication, retries, api-version handling, JSON bodies,
// and mapping of error responses onto the agentframework error taxonomy.
package azhttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

const (
	moduleName    = "foundry-samples"
	moduleVersion = "v0.1.0"
)

// Options configures a [Client].
type Options struct {
	// Credential authenticates with Microsoft Entra ID tokens for Scopes.
	Credential azcore.TokenCredential
	Scopes     []string

	// APIKey is sent in the api-key header when Credential is nil.
	APIKey string

	// APIVersion is added as the api-version query parameter when non-empty.
	APIVersion string

	// Headers are set on every request.
	Headers map[string]string

	// Transport sends requests. Defaults to the azcore shared client.
	Transport policy.Transporter

	// MaxRetries follows azcore semantics: zero uses the default, negative disables retries.
	MaxRetries int32
	RetryDelay time.Duration

	// AllowHTTP permits credentials over plain http, for local emulators.
	AllowHTTP bool

	ApplicationID string
}

// Client issues requests against a single service endpoint.
type Client struct {
	endpoint   string
	apiVersion string
	pl         runtime.Pipeline
}

// New builds a pipeline for endpoint. Either a credential or an API key is required.
func New(endpoint string, opts Options) (*Client, error) {
	endpoint = strings.TrimRight(endpoint, "/")
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid endpoint %q", af.ErrInvalidRequest, endpoint)
	}

	var perRetry []policy.Policy
	switch {
	case opts.Credential != nil:
		perRetry = append(perRetry, runtime.NewBearerTokenPolicy(opts.Credential, opts.Scopes,
			&policy.BearerTokenOptions{InsecureAllowCredentialWithHTTP: opts.AllowHTTP}))
	case opts.APIKey != "":
		perRetry = append(perRetry, runtime.NewKeyCredentialPolicy(azcore.NewKeyCredential(opts.APIKey), "api-key",
			&runtime.KeyCredentialPolicyOptions{InsecureAllowCredentialWithHTTP: opts.AllowHTTP}))
	default:
		return nil, fmt.Errorf("%w: a token credential or API key is required", af.ErrAuth)
	}

	var perCall []policy.Policy
	if len(opts.Headers) > 0 {
		perCall = append(perCall, headerPolicy(opts.Headers))
	}

	pl := runtime.NewPipeline(moduleName, moduleVersion,
		runtime.PipelineOptions{
			PerCall:                perCall,
			PerRetry:               perRetry,
			AllowedQueryParameters: []string{"api-version", "order", "limit", "after", "before", "run_id"},
		},
		&policy.ClientOptions{
			Transport: opts.Transport,
			Retry: policy.RetryOptions{
				MaxRetries: opts.MaxRetries,
				RetryDelay: opts.RetryDelay,
			},
			Telemetry:                       policy.TelemetryOptions{ApplicationID: opts.ApplicationID},
			InsecureAllowCredentialWithHTTP: opts.AllowHTTP,
		},
	)

	return &Client{endpoint: endpoint, apiVersion: opts.APIVersion, pl: pl}, nil
}

// Endpoint returns the base endpoint without a trailing slash.
func (c *Client) Endpoint() string { return c.endpoint }

// NewRequest creates a request for path relative to the endpoint, with the
// client's api-version merged into query.
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values) (*policy.Request, error) {
	req, err := runtime.NewRequest(ctx, method, runtime.JoinPaths(c.endpoint, path))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	q := req.Raw().URL.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if c.apiVersion != "" {
		q.Set("api-version", c.apiVersion)
	}
	req.Raw().URL.RawQuery = q.Encode()
	req.Raw().Header.Set("Accept", "application/json")
	return req, nil
}

// Do sends req and decodes a successful JSON body into out (when non-nil).
// Non-2xx responses are returned as *[af.ServiceError].
func (c *Client) Do(req *policy.Request, out any) error {
	resp, err := c.pl.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", af.ErrService, err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent) {
		return ParseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := runtime.UnmarshalAsJSON(resp, out); err != nil {
		return fmt.Errorf("%w: %w", af.ErrInvalidResponse, err)
	}
	return nil
}

// DoJSON is the common request shape: JSON body in, JSON body out.
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.NewRequest(ctx, method, path, query)
	if err != nil {
		return err
	}
	if body != nil {
		if err := runtime.MarshalAsJSON(req, body); err != nil {
			return fmt.Errorf("%w: marshal request: %w", af.ErrInvalidRequest, err)
		}
	}
	return c.Do(req, out)
}

// Stream sends a JSON request expecting a server-sent event stream and returns
// the open body. The caller closes it.
func (c *Client) Stream(ctx context.Context, method, path string, query url.Values, body any) (io.ReadCloser, error) {
	req, err := c.NewRequest(ctx, method, path, query)
	if err != nil {
		return nil, err
	}
	req.Raw().Header.Set("Accept", "text/event-stream")
	if body != nil {
		if err := runtime.MarshalAsJSON(req, body); err != nil {
			return nil, fmt.Errorf("%w: marshal request: %w", af.ErrInvalidRequest, err)
		}
	}
	return c.openBody(req)
}

// Download sends a GET request for raw content and returns the open body.
// The caller closes it.
func (c *Client) Download(ctx context.Context, path string, query url.Values) (io.ReadCloser, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return nil, err
	}
	req.Raw().Header.Set("Accept", "application/octet-stream")
	return c.openBody(req)
}

func (c *Client) openBody(req *policy.Request) (io.ReadCloser, error) {
	runtime.SkipBodyDownload(req)
	resp, err := c.pl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", af.ErrService, err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		defer resp.Body.Close()
		return nil, ParseError(resp)
	}
	return resp.Body, nil
}

// headerPolicy sets static headers on each request.
type headerPolicy map[string]string

func (h headerPolicy) Do(req *policy.Request) (*http.Response, error) {
	for k, v := range h {
		req.Raw().Header.Set(k, v)
	}
	return req.Next()
}
