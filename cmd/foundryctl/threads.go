// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

func newThreadsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "Inspect and delete threads",
	}
	cmd.AddCommand(newThreadMessagesCmd(a), newThreadDeleteCmd(a))
	return cmd
}

func newThreadMessagesCmd(a *app) *cobra.Command {
	var (
		runID      string
		order      string
		saveImages string
	)
	cmd := &cobra.Command{
		Use:   "messages THREAD_ID",
		Short: "Print the messages of a thread with citations resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.agentsClient()
			if err != nil {
				return err
			}
			msgs, err := client.ListAllMessages(ctx, args[0], &agents.ListMessagesOptions{
				ListOptions: agents.ListOptions{Order: agents.ListOrder(order)},
				RunID:       runID,
			})
			if err != nil {
				return err
			}

			var cited []string
			for _, m := range msgs {
				for _, c := range m.Content {
					if tc, ok := c.(*agents.TextContent); ok {
						cited = append(cited, agents.CitedFileIDs(tc.Annotations)...)
					}
				}
			}
			p := a.printer(cmd)
			for id, name := range client.FileNames(ctx, cited) {
				p.AddFileName(id, name)
			}
			p.Messages(msgs)
			if saveImages == "" {
				return nil
			}
			paths, err := client.SaveImageFiles(ctx, saveImages, msgs)
			for _, path := range paths {
				p.Info("Saved", path)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "only show messages created by this run")
	cmd.Flags().StringVar(&saveImages, "save-images", "", "download generated images into this directory")
	cmd.Flags().StringVar(&order, "order", string(agents.ListOrderAsc), "sort by creation time: asc or desc")
	return cmd
}

func newThreadDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete THREAD_ID...",
		Short: "Delete threads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.agentsClient()
			if err != nil {
				return err
			}
			if err := agents.Cleanup(cmd.Context(), client, agents.Resources{ThreadIDs: args}); err != nil {
				return err
			}
			p := a.printer(cmd)
			for _, id := range args {
				p.Info("Deleted", id)
			}
			return nil
		},
	}
}

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs",
	}
	cmd.AddCommand(newRunGetCmd(a), newRunStepsCmd(a))
	return cmd
}

func newRunGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get THREAD_ID RUN_ID",
		Short: "Show a run's status and token usage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.agentsClient()
			if err != nil {
				return err
			}
			run, err := client.GetRun(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			p := a.printer(cmd)
			p.Info("Run", run.ID)
			p.Info("Agent", run.AgentID)
			p.Status(run)
			p.Usage(run.Usage)
			return nil
		},
	}
}

func newRunStepsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "steps THREAD_ID RUN_ID",
		Short: "Print the steps a run performed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.agentsClient()
			if err != nil {
				return err
			}
			p := a.printer(cmd)
			opts := &agents.ListOptions{Order: agents.ListOrderAsc}
			for {
				page, err := client.ListRunSteps(cmd.Context(), args[0], args[1], opts)
				if err != nil {
					return err
				}
				for i := range page.Data {
					p.RunStep(&page.Data[i])
				}
				if !page.HasMore || page.LastID == "" {
					return nil
				}
				opts.After = page.LastID
			}
		},
	}
}
