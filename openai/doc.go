// Copyright (c) Microsoft. All rights reserved.

// Package openai provides a [agentframework.ChatClient] implementation for
// Azure OpenAI and Azure AI Foundry chat completions.
//
//	client, err := openai.New(endpoint,
//	    openai.WithDeployment("gpt-4o"),
//	    openai.WithAzureCredential(cred),
//	)
//
//	resp, err := client.Response(ctx, []agentframework.Message{
//	    agentframework.NewUserMessage("How many feet are in a mile?"),
//	}, nil)
//
// The client supports both synchronous and streaming responses,
// tool/function calling, and all standard ChatOptions. Requests run on the
// azcore pipeline, so retries and token refresh come from the Azure SDK.
//
// # Configuration
//
// Use functional options to configure the client:
//
//   - [WithDeployment]: target an Azure OpenAI deployment
//   - [WithModel]: set the model name sent in the request body
//   - [WithAPIKey] or [WithAzureCredential]: choose the authentication mode
//   - [WithAPIVersion]: override [DefaultAPIVersion]
//   - [WithHTTPClient]: provide a custom http.Client
//   - [WithHeaders]: add custom headers to every request
//   - [WithChatMiddleware]: wrap every completion
//
// # Testing
//
// The client uses an unexported transport interface internally.
// For testing, provide a mock http.Client via [WithHTTPClient]
// with a custom RoundTripper.
package openai
