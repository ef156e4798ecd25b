// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"net/http"
	"time"
)

const (
	// DefaultAPIVersion is the Foundry agents data-plane version used when none is set.
	DefaultAPIVersion = "v1"

	// DefaultScope is the token scope for Foundry project endpoints.
	DefaultScope = "https://ai.azure.com/.default"

	// DefaultPollInterval is the wait between run status checks.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultMaxToolRounds bounds how many times a run may ask for tool outputs.
	DefaultMaxToolRounds = 20
)

type clientConfig struct {
	apiVersion    string
	scopes        []string
	httpClient    *http.Client
	maxRetries    int32
	retryDelay    time.Duration
	pollInterval  time.Duration
	headers       map[string]string
	applicationID string
}

// Option configures an agents [Client].
type Option func(*clientConfig)

// WithAPIVersion overrides [DefaultAPIVersion].
func WithAPIVersion(v string) Option {
	return func(c *clientConfig) { c.apiVersion = v }
}

// WithScopes overrides [DefaultScope].
func WithScopes(scopes ...string) Option {
	return func(c *clientConfig) { c.scopes = scopes }
}

// WithHTTPClient provides a custom http.Client for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithMaxRetries sets the retry budget for throttled and transient failures.
// A negative value disables retries.
func WithMaxRetries(n int32) Option {
	return func(c *clientConfig) { c.maxRetries = n }
}

// WithRetryDelay sets the initial backoff between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *clientConfig) { c.retryDelay = d }
}

// WithPollInterval sets the default wait between run and vector store status checks.
func WithPollInterval(d time.Duration) Option {
	return func(c *clientConfig) { c.pollInterval = d }
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *clientConfig) { c.headers = headers }
}

// WithApplicationID tags the User-Agent header of every request.
func WithApplicationID(id string) Option {
	return func(c *clientConfig) { c.applicationID = id }
}
