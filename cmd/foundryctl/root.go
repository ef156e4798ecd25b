// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/spf13/cobra"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/config"
	"github.com/azure-ai-foundry/foundry-samples/go/openai"
	"github.com/azure-ai-foundry/foundry-samples/go/render"
)

// app carries state shared by all commands.
type app struct {
	loadOpts     config.LoadOptions
	envFile      string
	settingsFile string
	plain        bool
	debug        bool

	cfg *config.Config

	// newCredential and the extra options are replaced in tests.
	newCredential func(*config.Config) (azcore.TokenCredential, error)
	agentsOpts    []agents.Option
	chatOpts      []openai.Option
}

func newApp() *app {
	return &app{
		newCredential: func(c *config.Config) (azcore.TokenCredential, error) { return c.Credential() },
	}
}

func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	opts := a.loadOpts
	if a.envFile != "" {
		opts.EnvFiles = []string{a.envFile}
	}
	if a.settingsFile != "" {
		opts.SettingsFile = a.settingsFile
	}
	cfg, err := config.Load(&opts)
	if err != nil {
		return nil, err
	}
	if a.debug {
		cfg.Debug = true
	}
	cfg.SetupLogging()
	a.cfg = cfg
	return cfg, nil
}

func (a *app) agentsClient() (*agents.Client, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cred, err := a.newCredential(cfg)
	if err != nil {
		return nil, err
	}
	return cfg.NewAgentsClient(cred, a.agentsOpts...)
}

func (a *app) chatClient() (*openai.Client, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	var cred azcore.TokenCredential
	if cfg.APIKey == "" {
		if cred, err = a.newCredential(cfg); err != nil {
			return nil, err
		}
	}
	return cfg.NewChatClient(cred, a.chatOpts...)
}

func (a *app) printer(cmd *cobra.Command) *render.Printer {
	var opts []render.Option
	if a.plain {
		opts = append(opts, render.WithPlain())
	}
	return render.New(cmd.OutOrStdout(), opts...)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "foundryctl",
		Short:         "Work with Azure AI Foundry agents from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		Long: `foundryctl lists and inspects agents, threads and runs in an Azure AI
Foundry project, asks agents questions and sends chat completions to the
project's model deployment.

The project endpoint is read from PROJECT_ENDPOINT and the model from
MODEL_DEPLOYMENT_NAME, in the environment, a .env file or appsettings.json.`,
	}
	f := root.PersistentFlags()
	f.StringVar(&a.envFile, "env-file", "", "read settings from this .env file")
	f.StringVar(&a.settingsFile, "settings", "", "read settings from this JSON or YAML file")
	f.BoolVar(&a.plain, "plain", false, "disable colors and styles")
	f.BoolVar(&a.debug, "debug", false, "log HTTP traffic and client diagnostics to stderr")

	root.AddCommand(
		newAgentsCmd(a),
		newThreadsCmd(a),
		newRunsCmd(a),
		newAskCmd(a),
		newChatCmd(a),
	)
	return root
}
