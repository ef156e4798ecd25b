// Copyright (c) Microsoft. All rights reserved.

// Package agents is a client for the Azure AI Foundry agents data-plane API:
// agents, threads, messages, runs, run steps, files and vector stores.
//
//	client, err := agents.NewClient(endpoint, cred)
//	agent, err := client.CreateAgent(ctx, agents.CreateAgentOptions{
//	    Model:        "gpt-4o",
//	    Name:         "my-agent",
//	    Instructions: "You are a helpful agent",
//	})
//	thread, err := client.CreateThread(ctx, nil)
//	_, err = client.CreateMessage(ctx, thread.ID, agents.UserMessage("Hi"))
//	run, err := client.CreateAndProcessRun(ctx, thread.ID,
//	    agents.CreateRunOptions{AgentID: agent.ID}, nil)
//
// # Runs
//
// A run moves through service-defined states until it is terminal. The
// client drives it either by polling ([Client.PollRun]) or by consuming the
// event stream ([Client.StreamRun]). In both modes a run that requires
// action has its function calls resolved by an [agentframework.ToolSet]
// and the outputs submitted before waiting continues.
//
// # Content
//
// Message content and citation annotations are sealed interfaces; use a
// type switch over [MessageContent] and [Annotation]. [ResolveCitations]
// rewrites placeholders into readable references.
//
// # Conversations and cleanup
//
// [Conversation] pairs an agent with a thread for prompt-response use.
// [Cleanup] deletes recorded resources concurrently.
package agents
