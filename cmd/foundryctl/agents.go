// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

func newAgentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List, show and delete agents",
	}
	cmd.AddCommand(newAgentsListCmd(a), newAgentsGetCmd(a), newAgentsDeleteCmd(a))
	return cmd
}

func newAgentsListCmd(a *app) *cobra.Command {
	var (
		limit int
		order string
		after string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agents in the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.agentsClient()
			if err != nil {
				return err
			}
			page, err := client.ListAgents(cmd.Context(), &agents.ListOptions{
				Limit: limit,
				Order: agents.ListOrder(order),
				After: after,
			})
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(page.Data))
			for _, ag := range page.Data {
				rows = append(rows, []string{ag.ID, ag.Name, ag.Model, ag.CreatedAt.Time().UTC().Format("2006-01-02 15:04")})
			}
			p := a.printer(cmd)
			p.Table([]string{"ID", "NAME", "MODEL", "CREATED"}, rows)
			if page.HasMore {
				p.Info("More", "use --after "+page.LastID)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of agents to list (1-100)")
	cmd.Flags().StringVar(&order, "order", string(agents.ListOrderDesc), "sort by creation time: asc or desc")
	cmd.Flags().StringVar(&after, "after", "", "list agents after this ID")
	return cmd
}

func newAgentsGetCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get AGENT_ID",
		Short: "Show an agent's definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.agentsClient()
			if err != nil {
				return err
			}
			ag, err := client.GetAgent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeDocument(cmd, output, ag)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

// writeDocument prints v as indented JSON or as YAML converted from its JSON form.
func writeDocument(cmd *cobra.Command, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	case "yaml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

func newAgentsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete AGENT_ID...",
		Short: "Delete agents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.agentsClient()
			if err != nil {
				return err
			}
			if err := agents.Cleanup(cmd.Context(), client, agents.Resources{AgentIDs: args}); err != nil {
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
