// Copyright (c) Microsoft. All rights reserved.

// Package config loads settings for the samples and the foundryctl command.
//
// Values come from, in increasing precedence: built-in defaults, a settings
// file (appsettings.json, appsettings.yaml or appsettings.yml), a .env file
// and the process environment. Keys match case-insensitively with
// underscores ignored, so PROJECT_ENDPOINT, project_endpoint and
// ProjectEndpoint name the same setting.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/azhttp"
	"github.com/azure-ai-foundry/foundry-samples/go/openai"
)

// DefaultModel is the deployment used when MODEL_DEPLOYMENT_NAME is unset.
const DefaultModel = "gpt-4o"

// ErrMissingSetting reports a required setting that has no value.
var ErrMissingSetting = errors.New("config: missing setting")

// Config holds resolved settings.
type Config struct {
	ProjectEndpoint      string
	ModelDeploymentName  string
	InferenceEndpoint    string
	APIKey               string
	AgentsAPIVersion     string
	OpenAIAPIVersion     string
	PollInterval         time.Duration
	BingConnectionID     string
	AISearchConnectionID string
	AISearchIndexName    string
	Debug                bool

	// Sources lists the files values were read from.
	Sources []string
}

type setting struct {
	env string
	set func(c *Config, v string) error
}

func str(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

var settings = []setting{
	{"PROJECT_ENDPOINT", str(func(c *Config) *string { return &c.ProjectEndpoint })},
	{"MODEL_DEPLOYMENT_NAME", str(func(c *Config) *string { return &c.ModelDeploymentName })},
	{"INFERENCE_ENDPOINT", str(func(c *Config) *string { return &c.InferenceEndpoint })},
	{"AZURE_AI_API_KEY", str(func(c *Config) *string { return &c.APIKey })},
	{"AGENTS_API_VERSION", str(func(c *Config) *string { return &c.AgentsAPIVersion })},
	{"OPENAI_API_VERSION", str(func(c *Config) *string { return &c.OpenAIAPIVersion })},
	{"BING_CONNECTION_ID", str(func(c *Config) *string { return &c.BingConnectionID })},
	{"AI_SEARCH_CONNECTION_ID", str(func(c *Config) *string { return &c.AISearchConnectionID })},
	{"AI_SEARCH_INDEX_NAME", str(func(c *Config) *string { return &c.AISearchIndexName })},
	{"POLL_INTERVAL", func(c *Config, v string) error {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		c.PollInterval = d
		return nil
	}},
	{"DEBUG", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEBUG: %w", err)
		}
		c.Debug = b
		return nil
	}},
}

// parseInterval accepts a Go duration or a number of milliseconds.
func parseInterval(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if ms, aerr := strconv.Atoi(v); aerr == nil {
		d, err = time.Duration(ms)*time.Millisecond, nil
	}
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", v)
	}
	return d, nil
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "_", ""))
}

// settingsFiles are probed in order when no settings file is named.
var settingsFiles = []string{"appsettings.json", "appsettings.yaml", "appsettings.yml"}

// LoadOptions controls [Load].
type LoadOptions struct {
	// Dir is searched for .env and settings files. Defaults to the working directory.
	Dir string

	// EnvFiles are read instead of Dir/.env. Named files must exist.
	EnvFiles []string

	// SettingsFile is read instead of probing Dir. It must exist.
	SettingsFile string

	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load resolves the configuration. A nil opts loads from the working directory.
func Load(opts *LoadOptions) (*Config, error) {
	var o LoadOptions
	if opts != nil {
		o = *opts
	}
	if o.LookupEnv == nil {
		o.LookupEnv = os.LookupEnv
	}

	cfg := &Config{
		ModelDeploymentName: DefaultModel,
		AgentsAPIVersion:    agents.DefaultAPIVersion,
		OpenAIAPIVersion:    openai.DefaultAPIVersion,
		PollInterval:        agents.DefaultPollInterval,
	}

	values := make(map[string]string)

	fileValues, source, err := readSettingsFile(o)
	if err != nil {
		return nil, err
	}
	if source != "" {
		cfg.Sources = append(cfg.Sources, source)
		for k, v := range fileValues {
			values[normalizeKey(k)] = v
		}
	}

	envFiles := o.EnvFiles
	if envFiles == nil {
		if p := filepath.Join(o.Dir, ".env"); fileExists(p) {
			envFiles = []string{p}
		}
	}
	if len(envFiles) > 0 {
		dotenv, err := godotenv.Read(envFiles...)
		if err != nil {
			return nil, fmt.Errorf("config: read env files: %w", err)
		}
		cfg.Sources = append(cfg.Sources, envFiles...)
		for k, v := range dotenv {
			values[normalizeKey(k)] = v
		}
	}

	for _, s := range settings {
		if v, ok := o.LookupEnv(s.env); ok && v != "" {
			values[normalizeKey(s.env)] = v
		}
	}

	for _, s := range settings {
		v, ok := values[normalizeKey(s.env)]
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := s.set(cfg, strings.TrimSpace(v)); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if cfg.InferenceEndpoint == "" && cfg.ProjectEndpoint != "" {
		cfg.InferenceEndpoint = inferenceEndpoint(cfg.ProjectEndpoint)
	}
	slog.Debug("config loaded", "sources", cfg.Sources, "project_endpoint", cfg.ProjectEndpoint, "model", cfg.ModelDeploymentName)
	return cfg, nil
}

// readSettingsFile returns the flattened top-level scalars of the settings
// file and its path, or an empty path when there is none. JSON files are
// read with the YAML decoder.
func readSettingsFile(o LoadOptions) (map[string]string, string, error) {
	path := o.SettingsFile
	if path == "" {
		for _, name := range settingsFiles {
			if p := filepath.Join(o.Dir, name); fileExists(p) {
				path = p
				break
			}
		}
		if path == "" {
			return nil, "", nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("config: read settings: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, "", fmt.Errorf("config: parse %s: %w", filepath.Base(path), err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil, map[string]any, []any:
		case string:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out, path, nil
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

// inferenceEndpoint derives the resource endpoint from a project endpoint
// such as https://name.services.ai.azure.com/api/projects/proj.
func inferenceEndpoint(project string) string {
	u, err := url.Parse(project)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// SetupLogging installs a debug text logger on stderr and routes azcore
// pipeline diagnostics to it when Debug is set.
func (c *Config) SetupLogging() {
	if !c.Debug {
		return
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
	azhttp.EnableLogging(logger)
}

// Validate reports settings that agent programs need.
func (c *Config) Validate() error {
	var errs []error
	if c.ProjectEndpoint == "" {
		errs = append(errs, fmt.Errorf("%w: PROJECT_ENDPOINT", ErrMissingSetting))
	} else if u, err := url.Parse(c.ProjectEndpoint); err != nil || u.Scheme != "https" || u.Host == "" {
		errs = append(errs, fmt.Errorf("config: PROJECT_ENDPOINT must be an https URL, got %q", c.ProjectEndpoint))
	}
	if c.ModelDeploymentName == "" {
		errs = append(errs, fmt.Errorf("%w: MODEL_DEPLOYMENT_NAME", ErrMissingSetting))
	}
	return errors.Join(errs...)
}

// Require reports settings that must be present for a particular sample,
// named by their environment variable.
func (c *Config) Require(names ...string) error {
	var errs []error
	for _, n := range names {
		if c.value(n) == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingSetting, n))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) value(env string) string {
	switch env {
	case "PROJECT_ENDPOINT":
		return c.ProjectEndpoint
	case "MODEL_DEPLOYMENT_NAME":
		return c.ModelDeploymentName
	case "INFERENCE_ENDPOINT":
		return c.InferenceEndpoint
	case "AZURE_AI_API_KEY":
		return c.APIKey
	case "BING_CONNECTION_ID":
		return c.BingConnectionID
	case "AI_SEARCH_CONNECTION_ID":
		return c.AISearchConnectionID
	case "AI_SEARCH_INDEX_NAME":
		return c.AISearchIndexName
	}
	return ""
}

// Credential returns a DefaultAzureCredential.
func (c *Config) Credential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("config: azure credential: %w", err)
	}
	return cred, nil
}

// AgentsOptions returns client options for the configured API version and
// poll interval, followed by extra.
func (c *Config) AgentsOptions(extra ...agents.Option) []agents.Option {
	opts := []agents.Option{
		agents.WithAPIVersion(c.AgentsAPIVersion),
		agents.WithPollInterval(c.PollInterval),
	}
	return append(opts, extra...)
}

// NewAgentsClient validates the configuration and returns an agents client
// authenticated with cred.
func (c *Config) NewAgentsClient(cred azcore.TokenCredential, extra ...agents.Option) (*agents.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return agents.NewClient(c.ProjectEndpoint, cred, c.AgentsOptions(extra...)...)
}

// NewChatClient returns a chat completions client for the model deployment.
// It authenticates with AZURE_AI_API_KEY when set and with cred otherwise.
func (c *Config) NewChatClient(cred azcore.TokenCredential, extra ...openai.Option) (*openai.Client, error) {
	if c.InferenceEndpoint == "" {
		return nil, fmt.Errorf("%w: INFERENCE_ENDPOINT or PROJECT_ENDPOINT", ErrMissingSetting)
	}
	opts := []openai.Option{
		openai.WithDeployment(c.ModelDeploymentName),
		openai.WithAPIVersion(c.OpenAIAPIVersion),
	}
	switch {
	case c.APIKey != "":
		opts = append(opts, openai.WithAPIKey(c.APIKey))
	case cred != nil:
		opts = append(opts, openai.WithAzureCredential(cred))
	default:
		return nil, fmt.Errorf("%w: AZURE_AI_API_KEY or a credential", ErrMissingSetting)
	}
	return openai.New(c.InferenceEndpoint, append(opts, extra...)...)
}
