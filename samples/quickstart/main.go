// Copyright (c) Microsoft. All rights reserved.

// Command quickstart walks through the basics of an Azure AI Foundry project:
// a chat completion against the model deployment, an agent run that is
// polled to completion, and a file search agent whose answer is streamed.
//
// Usage:
//
//	export PROJECT_ENDPOINT=https://<resource>.services.ai.azure.com/api/projects/<project>
//	export MODEL_DEPLOYMENT_NAME=gpt-4o
//	go run .
//
// Every resource the sample creates is deleted before it exits.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/config"
	"github.com/azure-ai-foundry/foundry-samples/go/render"
)

//go:embed product_info_1.md
var productInfo []byte

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatal(err)
	}
	cfg.SetupLogging()
	if err := cfg.Validate(); err != nil {
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

	ctx := context.Background()
	p := render.New(os.Stdout)
	if err := run(ctx, cfg, cred, client, p); err != nil {
		p.Error(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, cred azcore.TokenCredential, client *agents.Client, p *render.Printer) error {
	p.Banner("Chat completion")
	if err := chatCompletion(ctx, cfg, cred, p); err != nil {
		return err
	}
	p.Banner("Agent")
	if err := poemAgent(ctx, cfg, client, p); err != nil {
		return err
	}
	p.Banner("File search agent")
	return fileSearchAgent(ctx, cfg, client, p)
}

func chatCompletion(ctx context.Context, cfg *config.Config, cred azcore.TokenCredential, p *render.Printer) error {
	chat, err := cfg.NewChatClient(cred)
	if err != nil {
		return err
	}
	prompt := "Write me a poem about flowers"
	p.Prompt(prompt)
	resp, err := chat.Response(ctx, []af.Message{
		af.NewSystemMessage("You are a helpful writing assistant"),
		af.NewUserMessage(prompt),
	}, nil)
	if err != nil {
		return err
	}
	p.Reply(resp)
	p.Usage(&resp.Usage)
	return nil
}

func poemAgent(ctx context.Context, cfg *config.Config, client *agents.Client, p *render.Printer) (err error) {
	var res agents.Resources
	defer func() { err = errors.Join(err, agents.Cleanup(context.WithoutCancel(ctx), client, res)) }()

	agent, err := client.CreateAgent(ctx, agents.CreateAgentOptions{
		Model:        cfg.ModelDeploymentName,
		Name:         "my-agent",
		Instructions: "You are a helpful writing assistant",
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

	prompt := "Write me a poem about flowers"
	if _, err := client.CreateMessage(ctx, thread.ID, agents.UserMessage(prompt)); err != nil {
		return err
	}
	p.Prompt(prompt)

	run, err := client.CreateAndProcessRun(ctx, thread.ID, agents.CreateRunOptions{AgentID: agent.ID}, &agents.PollOptions{
		OnStatus: p.Status,
	})
	if err != nil {
		return err
	}
	if run.Status == agents.RunStatusFailed {
		// A rate limit error here means the deployment needs more quota.
		return run.Err()
	}

	msgs, err := client.ListAllMessages(ctx, thread.ID, &agents.ListMessagesOptions{
		ListOptions: agents.ListOptions{Order: agents.ListOrderAsc},
		RunID:       run.ID,
	})
	if err != nil {
		return err
	}
	p.Messages(msgs)
	p.Usage(run.Usage)
	return nil
}

func fileSearchAgent(ctx context.Context, cfg *config.Config, client *agents.Client, p *render.Printer) (err error) {
	var res agents.Resources
	defer func() { err = errors.Join(err, agents.Cleanup(context.WithoutCancel(ctx), client, res)) }()

	file, err := client.UploadFile(ctx, bytes.NewReader(productInfo), "product_info_1.md", agents.FilePurposeAgents)
	if err != nil {
		return err
	}
	res.AddFile(file.ID)
	p.Info("Uploaded file", file.ID)
	p.AddFileName(file.ID, file.Filename)

	vs, err := client.CreateVectorStore(ctx, agents.CreateVectorStoreOptions{
		Name:    "my_vectorstore",
		FileIDs: []string{file.ID},
	})
	if err != nil {
		return err
	}
	res.AddVectorStore(vs.ID)
	if vs, err = client.WaitForVectorStore(ctx, vs.ID, 0); err != nil {
		return err
	}
	p.Info("Vector store", fmt.Sprintf("%s (%d files)", vs.ID, vs.FileCounts.Completed))

	resources := &agents.ToolResources{
		FileSearch: &agents.FileSearchResource{VectorStoreIDs: []string{vs.ID}},
	}
	agent, err := client.CreateAgent(ctx, agents.CreateAgentOptions{
		Model:         cfg.ModelDeploymentName,
		Name:          "my-assistant",
		Instructions:  "You are a helpful assistant and can search information from uploaded files",
		Tools:         []agents.ToolDefinition{agents.FileSearchTool(0)},
		ToolResources: resources,
	})
	if err != nil {
		return err
	}
	res.AddAgent(agent.ID)

	thread, err := client.CreateThread(ctx, nil)
	if err != nil {
		return err
	}
	res.AddThread(thread.ID)

	prompt := "Hello, what Contoso products do you know?"
	if _, err := client.CreateMessage(ctx, thread.ID, agents.UserMessage(prompt)); err != nil {
		return err
	}
	p.Prompt(prompt)

	run, err := client.StreamRun(ctx, thread.ID, agents.CreateRunOptions{AgentID: agent.ID}, &agents.StreamOptions{
		OnEvent:            p.Event,
		FailOnUnsuccessful: true,
	})
	p.Flush()
	if err != nil {
		return err
	}

	// Print the final message again with its citations resolved to file names.
	msgs, err := client.ListAllMessages(ctx, thread.ID, &agents.ListMessagesOptions{RunID: run.ID})
	if err != nil {
		return err
	}
	if m, ok := agents.LatestAssistantMessage(msgs); ok {
		p.Message(m)
	}
	return nil
}
