package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/codeloom-io/loom/cli/config"
	"github.com/codeloom-io/loom/model"
)

// GenerateCommand returns the generate command.
// This is the primary execution entrypoint: it streams one turn from a live
// model provider and materializes the extracted actions.
func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Run one generation turn against a model provider",
		ArgsUsage: "<prompt>",
		Flags:     append(turnFlags(), providerFlags()...),
		Action:    generateAction,
	}
}

// turnFlags are shared by generate and replay.
func turnFlags() []cli.Flag {
	flags := []cli.Flag{
		ConfigFlag,
		&cli.StringFlag{
			Name:  "turn-id",
			Usage: "Turn ID (generated when omitted)",
		},
		&cli.StringFlag{
			Name:  "session-id",
			Usage: "Session ID grouping related turns",
		},
		&cli.StringFlag{
			Name:  "parent-turn-id",
			Usage: "Parent turn ID (required for retries)",
		},
		&cli.IntFlag{
			Name:  "attempt",
			Usage: "Attempt number (starts at 1)",
			Value: 1,
		},
		&cli.StringFlag{
			Name:  "project",
			Usage: "Project partition key override (skips classification)",
		},
		&cli.StringFlag{
			Name:  "relay",
			Usage: "Relay mode: live or buffered",
			Value: "live",
		},
		&cli.IntFlag{
			Name:  "flush-count",
			Usage: "Buffered relay: flush after N actions",
		},
		&cli.DurationFlag{
			Name:  "flush-interval",
			Usage: "Buffered relay: flush every interval",
		},
		&cli.BoolFlag{
			Name:  "exec",
			Usage: "Execute extracted shell commands (requires --workdir)",
		},
		&cli.StringFlag{
			Name:  "workdir",
			Usage: "Directory where files are mirrored and commands run",
		},
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Completion adapter: webhook, redis, or none",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Adapter endpoint (webhook URL or redis URL)",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel for the redis adapter",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a JSON turn report to this path (\"-\" for stderr)",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress result output",
		},
	}
	return append(flags, StorageFlags()...)
}

func providerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "provider",
			Usage:   "Model provider: openai, anthropic, ollama",
			EnvVars: []string{"LOOM_PROVIDER"},
		},
		&cli.StringFlag{
			Name:    "model",
			Usage:   "Provider model identifier",
			EnvVars: []string{"LOOM_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Provider API key",
			EnvVars: []string{"LOOM_API_KEY"},
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Provider endpoint override (gateways, local servers)",
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: "Transport retries before the first chunk",
			Value: model.DefaultRetries,
		},
	}
}

func generateAction(c *cli.Context) error {
	prompt := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if prompt == "" {
		return cli.Exit("prompt required", 1)
	}

	cfg, err := loadConfigFile(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	streamer, err := buildStreamer(c, cfg)
	if err != nil {
		return err
	}

	return executeTurn(c, cfg, streamer, prompt)
}

// buildStreamer creates the provider client with retry wrapping, merging
// provider flags over config values.
func buildStreamer(c *cli.Context, cfg *config.Config) (model.Streamer, error) {
	clientCfg := model.ClientConfig{
		Provider: cfg.Provider.Name,
		Model:    cfg.Provider.Model,
		APIKey:   cfg.Provider.APIKey,
		BaseURL:  cfg.Provider.BaseURL,
	}
	if c.IsSet("provider") || clientCfg.Provider == "" {
		clientCfg.Provider = c.String("provider")
	}
	if c.IsSet("model") || clientCfg.Model == "" {
		clientCfg.Model = c.String("model")
	}
	if c.IsSet("api-key") || clientCfg.APIKey == "" {
		clientCfg.APIKey = c.String("api-key")
	}
	if c.IsSet("base-url") || clientCfg.BaseURL == "" {
		clientCfg.BaseURL = c.String("base-url")
	}

	if clientCfg.Provider == "" {
		return nil, fmt.Errorf("--provider is required (or set provider.name in config)")
	}
	if clientCfg.Model == "" {
		return nil, fmt.Errorf("--model is required (or set provider.model in config)")
	}

	client, err := model.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}

	retries := c.Int("retries")
	if !c.IsSet("retries") && cfg.Provider.Retries != nil {
		retries = *cfg.Provider.Retries
	}

	return model.NewResilient(client, retries, nil), nil
}
