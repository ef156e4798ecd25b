// Copyright (c) Microsoft. All rights reserved.

// Command functions gives an agent three local functions and answers its
// tool calls, first by polling the run and then over a streaming run on the
// same thread.
//
// Usage:
//
//	export PROJECT_ENDPOINT=https://<resource>.services.ai.azure.com/api/projects/<project>
//	export MODEL_DEPLOYMENT_NAME=gpt-4o
//	go run .
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/config"
	"github.com/azure-ai-foundry/foundry-samples/go/render"
)

type weatherArgs struct {
	Location string `json:"location" jsonschema:"description=The city to get the weather for,required"`
}

type emailArgs struct {
	Recipient string `json:"recipient" jsonschema:"description=Email address of the recipient,required"`
	Subject   string `json:"subject"   jsonschema:"description=Subject line,required"`
	Body      string `json:"body"      jsonschema:"description=Plain text body,required"`
}

var weather = map[string]string{
	"New York": "Sunny, 25°C",
	"London":   "Cloudy, 18°C",
	"Tokyo":    "Rainy, 22°C",
}

func userFunctions() []af.Tool {
	now := af.NewTypedTool("fetch_current_datetime",
		"Get the current date and time.",
		func(ctx context.Context, _ struct{}) (any, error) {
			return map[string]string{"current_time": time.Now().Format("2006-01-02 15:04:05")}, nil
		},
	)
	fetchWeather := af.NewTypedTool("fetch_weather",
		"Get the weather for a city.",
		func(ctx context.Context, args weatherArgs) (any, error) {
			w, ok := weather[args.Location]
			if !ok {
				w = "Weather data not available for this location."
			}
			return map[string]string{"weather": w}, nil
		},
	)
	sendEmail := af.NewTypedTool("send_email",
		"Send an email to a recipient.",
		func(ctx context.Context, args emailArgs) (any, error) {
			slog.InfoContext(ctx, "sending email", "recipient", args.Recipient, "subject", args.Subject)
			return map[string]string{"message": fmt.Sprintf("Email successfully sent to %s.", args.Recipient)}, nil
		},
	)
	return []af.Tool{now, fetchWeather, sendEmail}
}

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatal(err)
	}
	cfg.SetupLogging()
	cred, err := cfg.Credential()
	if err != nil {
		log.Fatal(err)
	}
	client, err := cfg.NewAgentsClient(cred)
	if err != nil {
		log.Fatal(err)
	}

	p := render.New(os.Stdout)
	if err := run(context.Background(), cfg, client, p); err != nil {
		p.Error(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, client *agents.Client, p *render.Printer) (err error) {
	var res agents.Resources
	defer func() { err = errors.Join(err, agents.Cleanup(context.WithoutCancel(ctx), client, res)) }()

	fns := userFunctions()
	tools := af.NewToolSet(fns, af.WithFunctionMiddleware(af.LoggingFunctionMiddleware(slog.Default())))

	agent, err := client.CreateAgent(ctx, agents.CreateAgentOptions{
		Model:        cfg.ModelDeploymentName,
		Name:         "my-agent",
		Instructions: "You are a helpful agent",
		Tools:        agents.FunctionTools(fns...),
	})
	if err != nil {
		return err
	}
	res.AddAgent(agent.ID)
	p.Info("Created agent", agent.ID)

	thread, err := client.CreateThread(ctx, nil)
	if err != nil {
		return err
	}
	res.AddThread(thread.ID)

	p.Banner("Polling")
	prompt := "Hello, send an email to user@example.com with the datetime and weather information in New York."
	if _, err := client.CreateMessage(ctx, thread.ID, agents.UserMessage(prompt)); err != nil {
		return err
	}
	p.Prompt(prompt)
	run, err := client.CreateAndProcessRun(ctx, thread.ID, agents.CreateRunOptions{AgentID: agent.ID}, &agents.PollOptions{
		Tools:              tools,
		OnStatus:           p.Status,
		FailOnUnsuccessful: true,
	})
	if err != nil {
		return err
	}
	if err := printReply(ctx, client, p, thread.ID, run); err != nil {
		return err
	}

	p.Banner("Streaming")
	prompt = "What is the weather in London and Tokyo?"
	if _, err := client.CreateMessage(ctx, thread.ID, agents.UserMessage(prompt)); err != nil {
		return err
	}
	p.Prompt(prompt)
	run, err = client.StreamRun(ctx, thread.ID, agents.CreateRunOptions{AgentID: agent.ID}, &agents.StreamOptions{
		Tools:              tools,
		OnEvent:            p.Event,
		FailOnUnsuccessful: true,
	})
	p.Flush()
	if err != nil {
		return err
	}
	return printSteps(ctx, client, p, thread.ID, run.ID)
}

func printReply(ctx context.Context, client *agents.Client, p *render.Printer, threadID string, run *agents.Run) error {
	msgs, err := client.ListAllMessages(ctx, threadID, &agents.ListMessagesOptions{
		ListOptions: agents.ListOptions{Order: agents.ListOrderAsc},
		RunID:       run.ID,
	})
	if err != nil {
		return err
	}
	p.Messages(msgs)
	p.Usage(run.Usage)
	return printSteps(ctx, client, p, threadID, run.ID)
}

func printSteps(ctx context.Context, client *agents.Client, p *render.Printer, threadID, runID string) error {
	steps, err := client.ListRunSteps(ctx, threadID, runID, &agents.ListOptions{Order: agents.ListOrderAsc})
	if err != nil {
		return err
	}
	for i := range steps.Data {
		p.RunStep(&steps.Data[i])
	}
	return nil
}
