// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/cobra"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		system      string
		stream      bool
		maxTokens   int
		temperature float64
	)
	cmd := &cobra.Command{
		Use:   "chat PROMPT...",
		Short: "Send a chat completion to the model deployment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.chatClient()
			if err != nil {
				return err
			}

			var msgs []af.Message
			if system != "" {
				msgs = append(msgs, af.NewSystemMessage(system))
			}
			prompt := strings.Join(args, " ")
			msgs = append(msgs, af.NewUserMessage(prompt))

			opts := &af.ChatOptions{}
			if maxTokens > 0 {
				opts.MaxTokens = &maxTokens
			}
			if cmd.Flags().Changed("temperature") {
				opts.Temperature = &temperature
			}

			p := a.printer(cmd)
			p.Prompt(prompt)
			if !stream {
				resp, err := client.Response(ctx, msgs, opts)
				if err != nil {
					return err
				}
				p.Reply(resp)
				p.Usage(&resp.Usage)
				return nil
			}

			s, err := client.StreamResponse(ctx, msgs, opts)
			if err != nil {
				return err
			}
			defer s.Close()
			var updates []af.ChatResponseUpdate
			for u, err := range s.All(ctx) {
				if err != nil {
					p.Flush()
					return err
				}
				p.ChatUpdate(&u)
				updates = append(updates, u)
			}
			p.Flush()
			if resp := af.ChatResponseFromUpdates(updates); resp.Usage.TotalTokens > 0 {
				p.Usage(&resp.Usage)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&system, "system", "You are a helpful assistant.", "system message")
	f.BoolVar(&stream, "stream", false, "stream the completion")
	f.IntVar(&maxTokens, "max-tokens", 0, "maximum completion tokens")
	f.Float64Var(&temperature, "temperature", 0, "sampling temperature")
	return cmd
}
