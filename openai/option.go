// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

const (
	// DefaultAPIVersion is the Azure OpenAI data-plane version used when none is set.
	DefaultAPIVersion = "2024-12-01-preview"

	// DefaultScope is the token scope for Azure OpenAI and Foundry inference endpoints.
	DefaultScope = "https://cognitiveservices.azure.com/.default"
)

// clientConfig holds resolved configuration for the chat completions client.
type clientConfig struct {
	apiKey          string
	azureCredential azcore.TokenCredential
	scopes          []string
	deployment      string
	model           string
	apiVersion      string
	httpClient      *http.Client
	headers         map[string]string
	maxRetries      int32
	chatMiddleware  []af.ChatMiddleware
}

// Option configures a chat completions [Client].
type Option func(*clientConfig)

// WithAPIKey authenticates with a resource key sent in the api-key header.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithAzureCredential enables Microsoft Entra ID token authentication using the provided credential.
// When set, the client obtains and refreshes tokens automatically and ignores any API key.
func WithAzureCredential(cred azcore.TokenCredential) Option {
	return func(c *clientConfig) { c.azureCredential = cred }
}

// WithScopes overrides the token scopes requested from the credential.
func WithScopes(scopes ...string) Option {
	return func(c *clientConfig) { c.scopes = scopes }
}

// WithDeployment targets an Azure OpenAI deployment:
// {endpoint}/openai/deployments/{name}/chat/completions.
// Without it the client posts to {endpoint}/chat/completions and names the model in the body.
func WithDeployment(name string) Option {
	return func(c *clientConfig) { c.deployment = name }
}

// WithModel sets the default model for requests.
func WithModel(model string) Option {
	return func(c *clientConfig) { c.model = model }
}

// WithAPIVersion overrides [DefaultAPIVersion]. An empty version omits the query parameter.
func WithAPIVersion(v string) Option {
	return func(c *clientConfig) { c.apiVersion = v }
}

// WithHTTPClient provides a custom http.Client for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *clientConfig) { c.headers = headers }
}

// WithMaxRetries sets the retry budget for throttled and transient failures.
// A negative value disables retries.
func WithMaxRetries(n int32) Option {
	return func(c *clientConfig) { c.maxRetries = n }
}

// WithChatMiddleware adds middleware to the chat pipeline.
// Middleware is applied in the order provided (first = outermost).
func WithChatMiddleware(mw ...af.ChatMiddleware) Option {
	return func(c *clientConfig) { c.chatMiddleware = append(c.chatMiddleware, mw...) }
}
