// Copyright (c) Microsoft. All rights reserved.

// Command chat is an interactive chat with the project's model deployment,
// with two local tools the model can call.
//
// Usage:
//
//	export PROJECT_ENDPOINT=https://<resource>.services.ai.azure.com/api/projects/<project>
//	export MODEL_DEPLOYMENT_NAME=gpt-4o   # optional, defaults to gpt-4o
//	export AZURE_AI_API_KEY=<key>         # optional, Entra ID is used otherwise
//	go run .
//
// Prefix a line with "stream " to stream the answer. Streamed turns do not
// call tools.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
	"github.com/azure-ai-foundry/foundry-samples/go/config"
	"github.com/azure-ai-foundry/foundry-samples/go/openai"
	"github.com/azure-ai-foundry/foundry-samples/go/render"
)

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatal(err)
	}
	cfg.SetupLogging()

	var cred azcore.TokenCredential
	if cfg.APIKey == "" {
		if cred, err = cfg.Credential(); err != nil {
			log.Fatal(err)
		}
	}
	var extra []openai.Option
	if cfg.Debug {
		extra = append(extra, openai.WithChatMiddleware(af.LoggingChatMiddleware(slog.Default())))
	}
	client, err := cfg.NewChatClient(cred, extra...)
	if err != nil {
		log.Fatal(err)
	}

	weatherTool := af.NewTypedTool("get_weather",
		"Get the current weather for a location.",
		func(ctx context.Context, args struct {
			Location string `json:"location" jsonschema:"description=City name or location,required"`
			Unit     string `json:"unit"     jsonschema:"description=Temperature unit,enum=celsius|fahrenheit"`
		}) (any, error) {
			// Simulated weather API
			unit := args.Unit
			if unit == "" {
				unit = "fahrenheit"
			}
			temp := 72
			if unit == "celsius" {
				temp = 22
			}
			return map[string]any{
				"location":    args.Location,
				"temperature": temp,
				"unit":        unit,
				"condition":   "sunny",
			}, nil
		},
	)
	timeTool := af.NewTool("get_time",
		"Get the current time in UTC.",
		json.RawMessage(`{"type":"object","properties":{}}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return time.Now().UTC().Format(time.RFC3339), nil
		},
	)
	tools := af.NewToolSet([]af.Tool{weatherTool, timeTool})

	history := []af.Message{af.NewSystemMessage(
		"You are a helpful assistant. When asked about the weather, use the get_weather tool. " +
			"When asked about the time, use the get_time tool. Keep responses concise.")}

	p := render.New(os.Stdout)
	p.Banner("Chat with " + cfg.ModelDeploymentName)
	fmt.Println("Type 'quit' to exit, prefix a line with 'stream ' to stream the answer.")
	fmt.Println()

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		if text, ok := strings.CutPrefix(input, "stream "); ok {
			history = append(history, af.NewUserMessage(text))
			s, err := client.StreamResponse(ctx, history, nil)
			if err != nil {
				p.Error(err)
				history = history[:len(history)-1]
				continue
			}
			var (
				u       af.ChatResponseUpdate
				updates []af.ChatResponseUpdate
			)
			for u, err = range s.All(ctx) {
				if err != nil {
					break
				}
				p.ChatUpdate(&u)
				updates = append(updates, u)
			}
			s.Close()
			p.Flush()
			if err != nil {
				p.Error(err)
				history = history[:len(history)-1]
				continue
			}
			history = append(history, af.ChatResponseFromUpdates(updates).Messages...)
			continue
		}

		history = append(history, af.NewUserMessage(input))
		resp, err := af.RunChatTools(ctx, client, history, nil, tools)
		if err != nil {
			p.Error(err)
			history = history[:len(history)-1]
			continue
		}
		p.Reply(resp)
		if resp.Usage.TotalTokens > 0 {
			p.Usage(&resp.Usage)
		}
		history = append(history, resp.Messages...)
		fmt.Println()
	}
}
