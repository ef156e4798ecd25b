// Copyright (c) Microsoft. All rights reserved.

// Command bing asks an agent grounded with Bing Search a question, prints
// the answer with its URL citations and lists the steps the run took.
//
// Usage:
//
//	export PROJECT_ENDPOINT=https://<resource>.services.ai.azure.com/api/projects/<project>
//	export MODEL_DEPLOYMENT_NAME=gpt-4o
//	export BING_CONNECTION_ID=/subscriptions/<sub>/resourceGroups/<rg>/providers/Microsoft.CognitiveServices/accounts/<account>/projects/<project>/connections/<bing>
//	go run . [question]
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/config"
	"github.com/azure-ai-foundry/foundry-samples/go/render"
)

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatal(err)
	}
	cfg.SetupLogging()
	if err := cfg.Require("BING_CONNECTION_ID"); err != nil {
		log.Fatal(err)
	}
	cred, err := cfg.Credential()
	if err != nil {
		log.Fatal(err)
	}
	client, err := cfg.NewAgentsClient(cred)
	if err != nil {
		log.Fatal(err)
	}

	question := "What is the weather in Seattle today?"
	if len(os.Args) > 1 {
		question = strings.Join(os.Args[1:], " ")
	}

	p := render.New(os.Stdout)
	if err := run(context.Background(), cfg, client, p, question); err != nil {
		p.Error(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, client *agents.Client, p *render.Printer, question string) (err error) {
	var res agents.Resources
	defer func() { err = errors.Join(err, agents.Cleanup(context.WithoutCancel(ctx), client, res)) }()

	agent, err := client.CreateAgent(ctx, agents.CreateAgentOptions{
		Model:        cfg.ModelDeploymentName,
		Name:         "my-agent",
		Instructions: "You are a helpful agent",
		Tools:        []agents.ToolDefinition{agents.BingGroundingTool(cfg.BingConnectionID)},
	})
	if err != nil {
		return err
	}
	res.AddAgent(agent.ID)
	p.Info("Created agent", agent.ID)

	run, err := client.CreateThreadAndRun(ctx, &agents.CreateThreadOptions{
		Messages: []agents.MessageInput{agents.UserMessage(question)},
	}, agents.CreateRunOptions{AgentID: agent.ID})
	if err != nil {
		return err
	}
	res.AddThread(run.ThreadID)
	p.Prompt(question)

	run, err = client.PollRun(ctx, run.ThreadID, run.ID, &agents.PollOptions{
		OnStatus:           p.Status,
		FailOnUnsuccessful: true,
	})
	if err != nil {
		return err
	}

	msgs, err := client.ListAllMessages(ctx, run.ThreadID, &agents.ListMessagesOptions{RunID: run.ID})
	if err != nil {
		return err
	}
	reply, ok := agents.LatestAssistantMessage(msgs)
	if !ok {
		return fmt.Errorf("run %s produced no reply", run.ID)
	}
	p.Message(reply)

	var rows [][]string
	for _, c := range reply.Content {
		tc, ok := c.(*agents.TextContent)
		if !ok {
			continue
		}
		for _, a := range tc.Annotations {
			if u, ok := a.(*agents.URLCitationAnnotation); ok {
				rows = append(rows, []string{u.Text, u.Title, u.URL})
			}
		}
	}
	if len(rows) > 0 {
		p.Banner("Sources")
		p.Table([]string{"MARKER", "TITLE", "URL"}, rows)
	}

	p.Banner("Run steps")
	steps, err := client.ListRunSteps(ctx, run.ThreadID, run.ID, &agents.ListOptions{Order: agents.ListOrderAsc})
	if err != nil {
		return err
	}
	for i := range steps.Data {
		p.RunStep(&steps.Data[i])
	}
	p.Usage(run.Usage)
	return nil
}
