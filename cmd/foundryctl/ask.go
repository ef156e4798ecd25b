// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		agentID      string
		name         string
		instructions string
		stream       bool
		keep         bool
		showSteps    bool
	)
	cmd := &cobra.Command{
		Use:   "ask PROMPT...",
		Short: "Ask an agent a question",
		Long: `ask posts the prompt to a new thread and prints the agent's reply.

Without --agent a temporary agent is created from the configured model and
the given instructions. The thread, and any temporary agent, are deleted
afterwards unless --keep is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			client, err := a.agentsClient()
			if err != nil {
				return err
			}
			cfg, err := a.config()
			if err != nil {
				return err
			}
			p := a.printer(cmd)

			opts := []agents.ConversationOption{
				agents.WithStatusHandler(func(r *agents.Run) {
					if !stream {
						p.Status(r)
					}
				}),
			}
			var cv *agents.Conversation
			if agentID != "" {
				cv, err = agents.NewConversation(ctx, client, agentID, opts...)
			} else {
				cv, err = agents.StartConversation(ctx, client, agents.CreateAgentOptions{
					Model:        cfg.ModelDeploymentName,
					Name:         name,
					Instructions: instructions,
				}, opts...)
			}
			if err != nil {
				return err
			}
			if keep {
				p.Info("Agent", cv.AgentID())
				p.Info("Thread", cv.ThreadID())
			} else {
				defer func() {
					err = errors.Join(err, cv.Close(context.WithoutCancel(ctx)))
				}()
			}

			prompt := strings.Join(args, " ")
			p.Prompt(prompt)

			var reply *agents.Reply
			if stream {
				reply, err = cv.AskStream(ctx, prompt, p.Event)
				p.Flush()
			} else {
				reply, err = cv.Ask(ctx, prompt)
			}
			if err != nil {
				var re *af.RunError
				if errors.As(err, &re) && reply != nil {
					p.Status(reply.Run)
				}
				return err
			}

			if !stream {
				for i := range reply.Messages {
					p.Message(&reply.Messages[i])
				}
				p.Usage(reply.Run.Usage)
			}
			if showSteps {
				steps, err := client.ListRunSteps(ctx, cv.ThreadID(), reply.Run.ID, &agents.ListOptions{Order: agents.ListOrderAsc})
				if err != nil {
					return err
				}
				for i := range steps.Data {
					p.RunStep(&steps.Data[i])
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&agentID, "agent", "", "ask an existing agent instead of creating one")
	f.StringVar(&name, "name", "foundryctl", "name of the temporary agent")
	f.StringVar(&instructions, "instructions", "You are a helpful agent.", "instructions of the temporary agent")
	f.BoolVar(&stream, "stream", false, "stream the reply as it is generated")
	f.BoolVar(&keep, "keep", false, "keep the thread and temporary agent")
	f.BoolVar(&showSteps, "steps", false, "print the run steps after the reply")
	return cmd
}
